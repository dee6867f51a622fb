package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/bitfantasy/nimo-qc/internal/qc/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// OrderHandler 订单接口
type OrderHandler struct {
	orderSvc *service.OrderService
	logger   *zap.Logger
}

func NewOrderHandler(orderSvc *service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{orderSvc: orderSvc, logger: logger}
}

// List 查询订单列表
// GET /api/v1/orders
func (h *OrderHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]string{
		"status":   c.Query("status"),
		"order_no": c.Query("order_no"),
		"vendor":   c.Query("vendor"),
		"brand":    c.Query("brand"),
	}

	items, total, err := h.orderSvc.ListOrders(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	SuccessPage(c, items, total, page, pageSize)
}

// Get 查询订单详情
// GET /api/v1/orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	order, err := h.orderSvc.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Success(c, order)
}

// Create 创建单条订单行项
// POST /api/v1/orders
func (h *OrderHandler) Create(c *gin.Context) {
	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	order, err := h.orderSvc.CreateOrder(c.Request.Context(), &req, GetUserID(c))
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Success(c, order)
}

// Import 批量导入订单（Excel/CSV）
// POST /api/v1/orders/import
func (h *OrderHandler) Import(c *gin.Context) {
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

	result, err := h.orderSvc.ImportOrders(c.Request.Context(), file.Filename, src, GetUserID(c))
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Success(c, result)
}

// Export 导出订单列表
// GET /api/v1/orders/export
func (h *OrderHandler) Export(c *gin.Context) {
	filters := map[string]string{
		"status":   c.Query("status"),
		"order_no": c.Query("order_no"),
		"vendor":   c.Query("vendor"),
		"brand":    c.Query("brand"),
	}

	f, err := h.orderSvc.ExportOrders(c.Request.Context(), filters)
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}

	filename := fmt.Sprintf("orders_%s.xlsx", time.Now().Format("20060102_150405"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Status(http.StatusOK)
	if err := f.Write(c.Writer); err != nil {
		h.logger.Error("write export workbook", zap.Error(err))
	}
}

// Template 下载导入模板
// GET /api/v1/orders/import/template
func (h *OrderHandler) Template(c *gin.Context) {
	f := h.orderSvc.ImportTemplate()

	c.Header("Content-Disposition", `attachment; filename="order_import_template.xlsx"`)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Status(http.StatusOK)
	if err := f.Write(c.Writer); err != nil {
		h.logger.Error("write template workbook", zap.Error(err))
	}
}

// AddShipment 登记一次出运
// POST /api/v1/orders/:id/shipments
func (h *OrderHandler) AddShipment(c *gin.Context) {
	var req service.AddShipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	order, err := h.orderSvc.AddShipment(c.Request.Context(), c.Param("id"), &req, GetUserID(c))
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Success(c, order)
}
