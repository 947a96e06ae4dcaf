package repository

import (
	"context"
	"errors"

	"github.com/jjzperilla/pegeditor/internal/peg/entity"
	"gorm.io/gorm"
)

type CapacityRepository struct {
	db *gorm.DB
}

func NewCapacityRepository(db *gorm.DB) *CapacityRepository {
	return &CapacityRepository{db: db}
}

// List 全部容量，按录入顺序
func (r *CapacityRepository) List(ctx context.Context) ([]entity.Capacity, error) {
	var rows []entity.Capacity
	err := r.db.WithContext(ctx).Order("created_at ASC").Find(&rows).Error
	return rows, err
}

// FindByName 按容量名查条目
func (r *CapacityRepository) FindByName(ctx context.Context, capacity string) (*entity.Capacity, error) {
	var row entity.Capacity
	err := r.db.WithContext(ctx).Where("capacity = ?", capacity).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// Create 新增容量条目
func (r *CapacityRepository) Create(ctx context.Context, row *entity.Capacity) error {
	return r.db.WithContext(ctx).Create(row).Error
}
