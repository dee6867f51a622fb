package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/bitfantasy/nimo-qc/internal/qc/repository"
	"github.com/bitfantasy/nimo-qc/internal/qc/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// PageData 分页数据
type PageData struct {
	Items    interface{} `json:"items"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func SuccessPage(c *gin.Context, items interface{}, total int64, page, pageSize int) {
	Success(c, PageData{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Response{
		Code:    40001,
		Message: message,
	})
}

// GetUserID 从上下文中获取当前用户ID
func GetUserID(c *gin.Context) string {
	return c.GetString("user_id")
}

// GetRole 从上下文中获取当前用户角色
func GetRole(c *gin.Context) string {
	return c.GetString("role")
}

// GetPagination 解析分页参数
func GetPagination(c *gin.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}

// HandleError 把领域错误映射为统一响应码
func HandleError(c *gin.Context, logger *zap.Logger, err error) {
	var (
		validationErr   *service.ValidationError
		conflictErr     *service.ConflictError
		unauthorizedErr *service.UnauthorizedError
		finalizedErr    *service.FinalizedError
		noPendingErr    *service.NoPendingQuantityError
		immutableErr    *service.ImmutableFieldError
		unauthLabelErr  *service.UnauthorizedLabelError
		usedErr         *service.AlreadyUsedError
		allocatedErr    *service.AlreadyAllocatedError
	)

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, Response{Code: 40001, Message: validationErr.Message})
	case errors.As(err, &allocatedErr):
		c.JSON(http.StatusConflict, Response{Code: 42212, Message: allocatedErr.Error(), Data: allocatedErr.Details()})
	case errors.As(err, &conflictErr):
		c.JSON(http.StatusConflict, Response{Code: 40901, Message: conflictErr.Message})
	case errors.As(err, &unauthorizedErr):
		c.JSON(http.StatusForbidden, Response{Code: 40310, Message: unauthorizedErr.Message})
	case errors.As(err, &finalizedErr):
		c.JSON(http.StatusUnprocessableEntity, Response{Code: 42201, Message: finalizedErr.Message})
	case errors.As(err, &noPendingErr):
		c.JSON(http.StatusUnprocessableEntity, Response{Code: 42202, Message: noPendingErr.Message})
	case errors.As(err, &immutableErr):
		c.JSON(http.StatusUnprocessableEntity, Response{Code: 42203, Message: immutableErr.Error()})
	case errors.As(err, &unauthLabelErr):
		c.JSON(http.StatusUnprocessableEntity, Response{Code: 42210, Message: unauthLabelErr.Error(), Data: unauthLabelErr.Details()})
	case errors.As(err, &usedErr):
		c.JSON(http.StatusUnprocessableEntity, Response{Code: 42211, Message: usedErr.Error(), Data: usedErr.Details()})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, Response{Code: 40400, Message: "记录不存在"})
	case errors.Is(err, repository.ErrVersionConflict):
		c.JSON(http.StatusConflict, Response{Code: 40902, Message: "记录已被并发修改，请重试"})
	default:
		logger.Error("internal error",
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", c.GetString("request_id")),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, Response{Code: 50000, Message: "内部服务错误"})
	}
}
