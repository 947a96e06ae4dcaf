package service

import (
	"errors"

	"github.com/jjzperilla/pegeditor/internal/config"
	"github.com/jjzperilla/pegeditor/internal/peg/repository"
	"github.com/minio/minio-go/v7"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 错误定义
var (
	ErrValidation = errors.New("validation failed")
	ErrExists     = errors.New("already exists")
)

// Services 服务集合
type Services struct {
	Peg      *PegService
	Series   *SeriesService
	Capacity *CapacityService
	Export   *ExportService
}

// NewServices 创建服务集合
func NewServices(repos *repository.Repositories, db *gorm.DB, rdb *redis.Client, minioClient *minio.Client, cfg *config.Config, logger *zap.Logger) *Services {
	return &Services{
		Peg:      NewPegService(repos, db, rdb, logger),
		Series:   NewSeriesService(repos),
		Capacity: NewCapacityService(repos.Capacity),
		Export:   NewExportService(repos.Snapshot, minioClient, cfg.MinIO.Bucket, logger),
	}
}
