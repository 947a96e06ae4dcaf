package repository

import (
	"context"
	"errors"

	"github.com/jjzperilla/pegeditor/internal/peg/entity"
	"gorm.io/gorm"
)

type ConfigRepository struct {
	db *gorm.DB
}

func NewConfigRepository(db *gorm.DB) *ConfigRepository {
	return &ConfigRepository{db: db}
}

func (r *ConfigRepository) DB() *gorm.DB {
	return r.db
}

// FindByID 按主键查配置；纯读路径，不自动创建
func (r *ConfigRepository) FindByID(ctx context.Context, id string) (*entity.PegConfig, error) {
	var cfg entity.PegConfig
	err := r.db.WithContext(ctx).First(&cfg, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FindByIdentity 按 (capacity, interface, condition_type) 三元组查配置
func (r *ConfigRepository) FindByIdentity(ctx context.Context, capacity, iface, condition string) (*entity.PegConfig, error) {
	var cfg entity.PegConfig
	err := r.db.WithContext(ctx).
		Where("capacity = ? AND interface = ? AND condition_type = ?", capacity, iface, condition).
		First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ListModifiers 配置的全部修正项
func (r *ConfigRepository) ListModifiers(ctx context.Context, configID string) ([]entity.PegModifier, error) {
	var mods []entity.PegModifier
	err := r.db.WithContext(ctx).
		Where("config_id = ?", configID).
		Order("created_at ASC").
		Find(&mods).Error
	return mods, err
}

// ListSales 配置的全部销售观测
func (r *ConfigRepository) ListSales(ctx context.Context, configID string) ([]entity.SalesRecord, error) {
	var sales []entity.SalesRecord
	err := r.db.WithContext(ctx).
		Where("config_id = ?", configID).
		Order("created_at ASC").
		Find(&sales).Error
	return sales, err
}
