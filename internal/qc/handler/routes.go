package handler

import (
	"net/http"

	"github.com/bitfantasy/nimo-qc/internal/middleware"
	"github.com/bitfantasy/nimo-qc/internal/qc/service"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Version 构建版本，编译时通过 ldflags 注入
var Version = "dev"

// RegisterRoutes 注册全部路由
func RegisterRoutes(r *gin.Engine, services *service.Services, jwtSecret string, logger *zap.Logger) {
	r.Use(middleware.RequestID())
	r.Use(middleware.CORS())
	r.Use(middleware.Logger(logger))
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"version": Version})
	})

	userHandler := NewUserHandler(services.User, logger)
	labelHandler := NewLabelHandler(services.Label, logger)
	orderHandler := NewOrderHandler(services.Order, logger)
	qcHandler := NewQCHandler(services.QC, services.Attachment, logger)

	api := r.Group("/api/v1")
	api.Use(middleware.JWTAuth(jwtSecret))
	{
		users := api.Group("/users")
		{
			users.POST("", middleware.RequireRole("admin"), userHandler.Create)
			users.GET("", userHandler.List)
			users.GET("/:id", userHandler.Get)
		}

		inspectors := api.Group("/inspectors")
		{
			inspectors.GET("", userHandler.ListInspectors)
			inspectors.GET("/:id", userHandler.GetInspector)
			inspectors.GET("/:id/labels/stats", labelHandler.UsageStats)

			// 标签分配仅限管理员与经理
			inspectors.POST("/:id/labels/allocate", middleware.RequireRole("manager"), labelHandler.Allocate)
			inspectors.PUT("/:id/labels", middleware.RequireRole("manager"), labelHandler.Replace)
			inspectors.POST("/:id/labels/remove", middleware.RequireRole("manager"), labelHandler.Remove)
			inspectors.POST("/:id/labels/claim", labelHandler.Claim)
		}

		orders := api.Group("/orders")
		{
			orders.GET("", orderHandler.List)
			orders.GET("/export", orderHandler.Export)
			orders.GET("/import/template", orderHandler.Template)
			orders.GET("/:id", orderHandler.Get)
			orders.POST("", middleware.RequireRole("manager"), orderHandler.Create)
			orders.POST("/import", middleware.RequireRole("manager"), orderHandler.Import)
			orders.POST("/:id/shipments", middleware.RequireRole("manager"), orderHandler.AddShipment)
		}

		qcRecords := api.Group("/qc-records")
		{
			qcRecords.GET("", qcHandler.List)
			qcRecords.GET("/:id", qcHandler.Get)
			qcRecords.GET("/:id/events", qcHandler.ListEvents)
			qcRecords.POST("", middleware.RequireRole("manager"), qcHandler.Align)
			qcRecords.PUT("/:id", qcHandler.Update)

			qcRecords.POST("/:id/attachments", qcHandler.UploadAttachment)
			qcRecords.GET("/:id/attachments", qcHandler.ListAttachments)
			qcRecords.GET("/:id/attachments/:attachment_id/url", qcHandler.DownloadAttachment)
		}
	}
}
