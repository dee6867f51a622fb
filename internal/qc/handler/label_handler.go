package handler

import (
	"github.com/bitfantasy/nimo-qc/internal/qc/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// LabelHandler 标签账本接口
type LabelHandler struct {
	labelSvc *service.LabelService
	logger   *zap.Logger
}

func NewLabelHandler(labelSvc *service.LabelService, logger *zap.Logger) *LabelHandler {
	return &LabelHandler{labelSvc: labelSvc, logger: logger}
}

type labelRequest struct {
	Labels []int64 `json:"labels" binding:"required"`
}

// Allocate 为检验员追加分配标签
// POST /api/v1/inspectors/:id/labels/allocate
func (h *LabelHandler) Allocate(c *gin.Context) {
	var req labelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	result, err := h.labelSvc.Allocate(c.Request.Context(), c.Param("id"), req.Labels, GetUserID(c))
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Success(c, result)
}

// Replace 整体覆盖检验员的标签集
// PUT /api/v1/inspectors/:id/labels
func (h *LabelHandler) Replace(c *gin.Context) {
	var req labelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	inspector, err := h.labelSvc.Replace(c.Request.Context(), c.Param("id"), req.Labels, GetUserID(c))
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Success(c, inspector)
}

// Remove 从检验员的标签集中移除标签
// POST /api/v1/inspectors/:id/labels/remove
func (h *LabelHandler) Remove(c *gin.Context) {
	var req labelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	inspector, err := h.labelSvc.Remove(c.Request.Context(), c.Param("id"), req.Labels)
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Success(c, inspector)
}

// Claim 标签独立认领（验货更新之外的场景）
// POST /api/v1/inspectors/:id/labels/claim
func (h *LabelHandler) Claim(c *gin.Context) {
	var req labelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	inspector, err := h.labelSvc.Claim(c.Request.Context(), c.Param("id"), req.Labels, GetUserID(c), GetRole(c))
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Success(c, inspector)
}

// UsageStats 标签使用统计
// GET /api/v1/inspectors/:id/labels/stats
func (h *LabelHandler) UsageStats(c *gin.Context) {
	stats, err := h.labelSvc.GetUsageStats(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Success(c, stats)
}
