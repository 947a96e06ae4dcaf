package repository

import (
	"context"
	"errors"

	"github.com/jjzperilla/pegeditor/internal/peg/entity"
	"gorm.io/gorm"
)

type PointRepository struct {
	db *gorm.DB
}

func NewPointRepository(db *gorm.DB) *PointRepository {
	return &PointRepository{db: db}
}

// ListByConfig 配置下的全部价格点，按创建时间排序
func (r *PointRepository) ListByConfig(ctx context.Context, configID string) ([]entity.PegPoint, error) {
	var points []entity.PegPoint
	err := r.db.WithContext(ctx).
		Where("config_id = ?", configID).
		Order("created_at ASC").
		Find(&points).Error
	return points, err
}

// FindByID 按主键查价格点
func (r *PointRepository) FindByID(ctx context.Context, id string) (*entity.PegPoint, error) {
	var point entity.PegPoint
	err := r.db.WithContext(ctx).First(&point, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &point, nil
}

// ListHistory 单点的历史条目，按天倒序
func (r *PointRepository) ListHistory(ctx context.Context, pointID string) ([]entity.PegPointHistory, error) {
	var rows []entity.PegPointHistory
	err := r.db.WithContext(ctx).
		Where("peg_point_id = ?", pointID).
		Order("day_date DESC").
		Find(&rows).Error
	return rows, err
}

// DayPointRow 某个日历日的点价行（历史 join 点结构）
type DayPointRow struct {
	PegPointID string  `json:"peg_point_id"`
	Label      string  `json:"label"`
	Channel    string  `json:"channel"`
	URL        string  `json:"url"`
	Price      float64 `json:"price"`
	Qty        int     `json:"qty"`
}

// ListHistoryForDay 配置下所有点在指定日历日的历史行
func (r *PointRepository) ListHistoryForDay(ctx context.Context, configID, day string) ([]DayPointRow, error) {
	var rows []DayPointRow
	err := r.db.WithContext(ctx).
		Table("peg_point_history h").
		Select("pp.id AS peg_point_id, pp.label, pp.channel, pp.url, h.price, h.qty").
		Joins("JOIN peg_points pp ON pp.id = h.peg_point_id").
		Where("pp.config_id = ? AND h.day_date = ?", configID, day).
		Order("pp.created_at ASC").
		Scan(&rows).Error
	return rows, err
}

// ComboAverageRow 按天、接口、盘况分组的原始历史均价
type ComboAverageRow struct {
	DayDate       string  `json:"day_date"`
	Interface     string  `json:"interface"`
	ConditionType string  `json:"condition_type"`
	AvgPrice      float64 `json:"avg_price"`
}

// ListComboAverages 容量下全部配置的逐日历史均价（原始行的算术平均，非加权聚合）
func (r *PointRepository) ListComboAverages(ctx context.Context, capacity, cutoffDay string) ([]ComboAverageRow, error) {
	var rows []ComboAverageRow
	err := r.db.WithContext(ctx).
		Table("peg_point_history h").
		Select("h.day_date, c.interface, c.condition_type, AVG(h.price) AS avg_price").
		Joins("JOIN peg_points pp ON pp.id = h.peg_point_id").
		Joins("JOIN peg_configs c ON c.id = pp.config_id").
		Where("c.capacity = ? AND h.day_date >= ?", capacity, cutoffDay).
		Group("h.day_date, c.interface, c.condition_type").
		Order("h.day_date ASC").
		Scan(&rows).Error
	return rows, err
}

// CountHistoryByConfig 配置下所有点的历史行数（删除级联的前置检查用）
func (r *PointRepository) CountHistoryByConfig(ctx context.Context, configID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Table("peg_point_history h").
		Joins("JOIN peg_points pp ON pp.id = h.peg_point_id").
		Where("pp.config_id = ?", configID).
		Count(&n).Error
	return n, err
}
