package service

import (
	"github.com/liftwise/liftwise/internal/cmms/repository"
	"github.com/liftwise/liftwise/internal/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Services 服务集合
type Services struct {
	Auth       *AuthService
	Equipment  *EquipmentService
	Template   *TemplateService
	Report     *ReportService
	Escalation *EscalationService
	Schedule   *ScheduleService
	Ticket     *TicketService
	Evidence   *EvidenceService
}

// NewServices 创建服务集合
func NewServices(db *gorm.DB, repos *repository.Repositories, rdb *redis.Client, cfg *config.Config, logger *zap.Logger) *Services {
	// 初始化MinIO客户端（照片取证存储）
	var minioClient *minio.Client
	if cfg.MinIO.Endpoint != "" {
		var err error
		minioClient, err = minio.New(cfg.MinIO.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
			Secure: cfg.MinIO.UseSSL,
		})
		if err != nil {
			logger.Warn("MinIO client init failed, evidence upload disabled", zap.Error(err))
			minioClient = nil
		}
	}

	escalationSvc := NewEscalationService(repos.Ticket, logger)

	return &Services{
		Auth:       NewAuthService(repos.User, rdb, cfg),
		Equipment:  NewEquipmentService(repos.Equipment),
		Template:   NewTemplateService(repos.Template),
		Report:     NewReportService(db, repos.Report, repos.Template, repos.Equipment, escalationSvc, logger),
		Escalation: escalationSvc,
		Schedule:   NewScheduleService(repos.Schedule, repos.Equipment),
		Ticket:     NewTicketService(repos.Ticket, repos.User, logger),
		Evidence:   NewEvidenceService(minioClient, cfg.MinIO.Bucket),
	}
}
