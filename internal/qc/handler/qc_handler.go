package handler

import (
	"github.com/bitfantasy/nimo-qc/internal/qc/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// QCHandler 验货记录接口
type QCHandler struct {
	qcSvc         *service.QCService
	attachmentSvc *service.AttachmentService
	logger        *zap.Logger
}

func NewQCHandler(qcSvc *service.QCService, attachmentSvc *service.AttachmentService, logger *zap.Logger) *QCHandler {
	return &QCHandler{qcSvc: qcSvc, attachmentSvc: attachmentSvc, logger: logger}
}

// Align 创建验货记录（订单与检验员对齐）
// POST /api/v1/qc-records
func (h *QCHandler) Align(c *gin.Context) {
	var req service.AlignQCRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	record, err := h.qcSvc.Align(c.Request.Context(), &req, GetUserID(c))
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Success(c, record)
}

// Update 提交一次部分检验结果
// PUT /api/v1/qc-records/:id
func (h *QCHandler) Update(c *gin.Context) {
	var req service.UpdateQCRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	record, err := h.qcSvc.Update(c.Request.Context(), c.Param("id"), &req, GetUserID(c), GetRole(c))
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Success(c, record)
}

// List 查询验货记录列表
// GET /api/v1/qc-records
func (h *QCHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]string{
		"inspector_id": c.Query("inspector_id"),
		"order_id":     c.Query("order_id"),
		"item_code":    c.Query("item_code"),
	}

	items, total, err := h.qcSvc.ListQCRecords(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	SuccessPage(c, items, total, page, pageSize)
}

// Get 查询验货详情（含推导的被拒标签与事件历史）
// GET /api/v1/qc-records/:id
func (h *QCHandler) Get(c *gin.Context) {
	detail, err := h.qcSvc.GetQCDetail(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Success(c, detail)
}

// ListEvents 查询验货记录的事件历史
// GET /api/v1/qc-records/:id/events
func (h *QCHandler) ListEvents(c *gin.Context) {
	events, err := h.qcSvc.ListEvents(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Success(c, events)
}

// UploadAttachment 上传验货报告附件
// POST /api/v1/qc-records/:id/attachments
func (h *QCHandler) UploadAttachment(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "缺少上传文件")
		return
	}

	src, err := file.Open()
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	defer src.Close()

	attachment, err := h.attachmentSvc.Upload(
		c.Request.Context(),
		c.Param("id"),
		file.Filename,
		file.Header.Get("Content-Type"),
		file.Size,
		src,
		GetUserID(c),
	)
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Success(c, attachment)
}

// ListAttachments 查询附件列表
// GET /api/v1/qc-records/:id/attachments
func (h *QCHandler) ListAttachments(c *gin.Context) {
	attachments, err := h.attachmentSvc.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Success(c, attachments)
}

// DownloadAttachment 获取附件的临时下载链接
// GET /api/v1/qc-records/:id/attachments/:attachment_id/url
func (h *QCHandler) DownloadAttachment(c *gin.Context) {
	url, err := h.attachmentSvc.PresignedURL(c.Request.Context(), c.Param("id"), c.Param("attachment_id"))
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Success(c, gin.H{"url": url})
}
