package repository

import (
	"context"
	"errors"

	"github.com/jjzperilla/pegeditor/internal/peg/entity"
	"gorm.io/gorm"
)

type SnapshotRepository struct {
	db *gorm.DB
}

func NewSnapshotRepository(db *gorm.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// FindByID 按主键查快照
func (r *SnapshotRepository) FindByID(ctx context.Context, id string) (*entity.PegSnapshot, error) {
	var snap entity.PegSnapshot
	err := r.db.WithContext(ctx).First(&snap, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// ListByCapacity 容量下全部配置的快照，按天倒序（操作员看到的历史流）
func (r *SnapshotRepository) ListByCapacity(ctx context.Context, capacity string) ([]entity.PegSnapshot, error) {
	var snaps []entity.PegSnapshot
	err := r.db.WithContext(ctx).
		Where("capacity = ?", capacity).
		Order("day_date DESC, saved_at DESC").
		Find(&snaps).Error
	return snaps, err
}

// LatestByConfig 配置的最新一条快照
func (r *SnapshotRepository) LatestByConfig(ctx context.Context, configID string) (*entity.PegSnapshot, error) {
	var snap entity.PegSnapshot
	err := r.db.WithContext(ctx).
		Where("config_id = ?", configID).
		Order("day_date DESC, saved_at DESC").
		First(&snap).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &snap, nil
}
