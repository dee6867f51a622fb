package service

import (
	"github.com/bitfantasy/nimo-qc/internal/config"
	"github.com/bitfantasy/nimo-qc/internal/qc/repository"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Services 服务集合
type Services struct {
	User       *UserService
	Label      *LabelService
	Order      *OrderService
	QC         *QCService
	Attachment *AttachmentService
}

// NewServices 装配全部服务。MinIO配置缺失时附件服务降级（上传报错，不影响其他功能）。
func NewServices(repos *repository.Repositories, db *gorm.DB, rdb *redis.Client, cfg *config.Config, logger *zap.Logger) *Services {
	locker := NewLocker(rdb)
	labelSvc := NewLabelService(repos.Inspector, locker)

	var minioClient *minio.Client
	if cfg.MinIO.Endpoint != "" {
		client, err := minio.New(cfg.MinIO.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
			Secure: cfg.MinIO.UseSSL,
		})
		if err != nil {
			logger.Warn("minio client init failed, attachments disabled", zap.Error(err))
		} else {
			minioClient = client
		}
	}

	return &Services{
		User:       NewUserService(repos, db),
		Label:      labelSvc,
		Order:      NewOrderService(repos, locker, db),
		QC:         NewQCService(repos, labelSvc, locker, db),
		Attachment: NewAttachmentService(repos, minioClient, cfg.MinIO.Bucket),
	}
}
