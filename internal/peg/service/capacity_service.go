package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jjzperilla/pegeditor/internal/peg/entity"
	"github.com/jjzperilla/pegeditor/internal/peg/repository"
)

// CapacityService 容量目录服务
type CapacityService struct {
	repo *repository.CapacityRepository
}

// NewCapacityService 创建容量目录服务
func NewCapacityService(repo *repository.CapacityRepository) *CapacityService {
	return &CapacityService{repo: repo}
}

// List 全部容量，按录入顺序
func (s *CapacityService) List(ctx context.Context) ([]entity.Capacity, error) {
	return s.repo.List(ctx)
}

// Save 新增容量；已存在返回ErrExists
func (s *CapacityService) Save(ctx context.Context, capacity string) (*entity.Capacity, error) {
	capacity = strings.TrimSpace(capacity)
	if capacity == "" {
		return nil, fmt.Errorf("%w: capacity is required", ErrValidation)
	}

	if _, err := s.repo.FindByName(ctx, capacity); err == nil {
		return nil, fmt.Errorf("%w: capacity %q", ErrExists, capacity)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	row := &entity.Capacity{
		ID:       uuid.New().String()[:32],
		Capacity: capacity,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		return nil, err
	}
	return row, nil
}
