package handler

import (
	"github.com/bitfantasy/nimo-qc/internal/qc/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserHandler 用户与检验员目录接口
type UserHandler struct {
	userSvc *service.UserService
	logger  *zap.Logger
}

func NewUserHandler(userSvc *service.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{userSvc: userSvc, logger: logger}
}

// Create 创建用户
// POST /api/v1/users
func (h *UserHandler) Create(c *gin.Context) {
	var req service.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	user, err := h.userSvc.CreateUser(c.Request.Context(), &req)
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Success(c, user)
}

// List 查询用户列表
// GET /api/v1/users
func (h *UserHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]string{
		"role":   c.Query("role"),
		"status": c.Query("status"),
	}

	items, total, err := h.userSvc.ListUsers(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	SuccessPage(c, items, total, page, pageSize)
}

// Get 查询用户
// GET /api/v1/users/:id
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.userSvc.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Success(c, user)
}

// ListInspectors 查询检验员列表
// GET /api/v1/inspectors
func (h *UserHandler) ListInspectors(c *gin.Context) {
	page, pageSize := GetPagination(c)

	items, total, err := h.userSvc.ListInspectors(c.Request.Context(), page, pageSize)
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	SuccessPage(c, items, total, page, pageSize)
}

// GetInspector 查询检验员
// GET /api/v1/inspectors/:id
func (h *UserHandler) GetInspector(c *gin.Context) {
	inspector, err := h.userSvc.GetInspector(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Success(c, inspector)
}
