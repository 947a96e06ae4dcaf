package repository

import (
	"errors"

	"gorm.io/gorm"
)

// 错误定义
var (
	ErrNotFound           = errors.New("record not found")
	ErrForeignKeyMismatch = errors.New("point does not belong to the given config")
	ErrDependencyConflict = errors.New("dependent point history rows exist")
)

// Repositories 仓库集合
type Repositories struct {
	Config   *ConfigRepository
	Point    *PointRepository
	Snapshot *SnapshotRepository
	Capacity *CapacityRepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Config:   NewConfigRepository(db),
		Point:    NewPointRepository(db),
		Snapshot: NewSnapshotRepository(db),
		Capacity: NewCapacityRepository(db),
	}
}
