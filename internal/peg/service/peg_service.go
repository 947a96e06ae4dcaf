package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jjzperilla/pegeditor/internal/peg/entity"
	"github.com/jjzperilla/pegeditor/internal/peg/repository"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var dayPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

const buyPriceCacheTTL = 5 * time.Minute

// PegService peg保存流水线与配置读写
type PegService struct {
	repos  *repository.Repositories
	db     *gorm.DB
	rdb    *redis.Client
	logger *zap.Logger
}

// NewPegService 创建peg服务
func NewPegService(repos *repository.Repositories, db *gorm.DB, rdb *redis.Client, logger *zap.Logger) *PegService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PegService{repos: repos, db: db, rdb: rdb, logger: logger}
}

// PegPayload 保存请求的peg主体
type PegPayload struct {
	Points    []PointInput    `json:"points"`
	Modifiers []ModifierInput `json:"modifiers"`
	Sales     []SalesInput    `json:"sales"`
}

// SalesInput 保存请求中的一条销售观测
type SalesInput struct {
	DayLabel    string  `json:"day_label"`
	SalePrice   float64 `json:"sale_price"`
	MarketPrice float64 `json:"market_price"`
	Volume      int     `json:"volume"`
}

// SavePegRequest 保存peg请求。
// margin同时接受 marginPercent / margin_percent 两个键，camelCase优先。
type SavePegRequest struct {
	Capacity           string     `json:"capacity"`
	Interface          string     `json:"interface"`
	Condition          string     `json:"condition"`
	PegName            string     `json:"peg_name"`
	MarginPercent      *float64   `json:"marginPercent"`
	MarginPercentSnake *float64   `json:"margin_percent"`
	InventoryMode      string     `json:"inventoryMode"`
	Date               string     `json:"date"`
	Peg                PegPayload `json:"peg"`
}

// Margin margin字段解析，camelCase优先，缺省80
func (r *SavePegRequest) Margin() float64 {
	if r.MarginPercent != nil {
		return *r.MarginPercent
	}
	if r.MarginPercentSnake != nil {
		return *r.MarginPercentSnake
	}
	return entity.DefaultMarginPercent
}

// SaveResult 保存结果
type SaveResult struct {
	ConfigID string `json:"config_id"`
	Date     string `json:"date"`
	IsLatest bool   `json:"is_latest"`
}

// Save 执行完整保存流水线：配置upsert → 点upsert+按天历史 → 修正项/销售整体替换
// → 聚合 → 当天审计快照upsert。全部写入在一个事务里，失败不留半截状态。
//
// 活投影（peg_points.price/qty）只在本批日期不早于全库最大历史日期时直写；
// 最新判定在事务内做一次，整批共享同一个判定结果。
func (s *PegService) Save(ctx context.Context, req *SavePegRequest) (*SaveResult, error) {
	capacity := strings.TrimSpace(req.Capacity)
	iface := strings.ToLower(strings.TrimSpace(req.Interface))
	condition := strings.ToLower(strings.TrimSpace(req.Condition))

	if capacity == "" || iface == "" || condition == "" {
		return nil, fmt.Errorf("%w: missing required fields", ErrValidation)
	}
	if !entity.ValidInterface(iface) {
		return nil, fmt.Errorf("%w: unknown interface %q", ErrValidation, iface)
	}
	if !entity.ValidCondition(condition) {
		return nil, fmt.Errorf("%w: unknown condition %q", ErrValidation, condition)
	}

	today := time.Now().Format("2006-01-02")
	day := req.Date
	if day == "" {
		day = today
	}
	if !dayPattern.MatchString(day) {
		return nil, fmt.Errorf("%w: invalid date format", ErrValidation)
	}
	if _, err := time.Parse("2006-01-02", day); err != nil {
		return nil, fmt.Errorf("%w: invalid date", ErrValidation)
	}
	if day > today {
		return nil, fmt.Errorf("%w: future dates are not allowed", ErrValidation)
	}

	margin := req.Margin()
	inventoryMode := req.InventoryMode
	if inventoryMode == "" {
		inventoryMode = entity.DefaultInventoryMode
	}

	result := &SaveResult{Date: day}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1) 配置upsert：三元组缺失则惰性创建
		var cfg entity.PegConfig
		err := tx.Where("capacity = ? AND interface = ? AND condition_type = ?", capacity, iface, condition).
			First(&cfg).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			cfg = entity.PegConfig{
				ID:            uuid.New().String()[:32],
				Capacity:      capacity,
				Interface:     iface,
				ConditionType: condition,
				PegName:       req.PegName,
				MarginPercent: margin,
				InventoryMode: inventoryMode,
			}
			if err := tx.Create(&cfg).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			cfg.PegName = req.PegName
			cfg.MarginPercent = margin
			cfg.InventoryMode = inventoryMode
			if err := tx.Save(&cfg).Error; err != nil {
				return err
			}
		}

		// 2) 全局最新日期判定：MAX(day_date) 跨全部历史行，不限于本配置
		var maxDay string
		if err := tx.Model(&entity.PegPointHistory{}).
			Select("COALESCE(MAX(day_date), '')").
			Scan(&maxDay).Error; err != nil {
			return err
		}
		isLatest := maxDay == "" || day >= maxDay

		// 3) 点upsert + 按天历史
		for _, p := range req.Peg.Points {
			pointID := p.ID

			if pointID != "" {
				var point entity.PegPoint
				err := tx.Where("id = ? AND config_id = ?", pointID, cfg.ID).First(&point).Error
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: point %s", repository.ErrForeignKeyMismatch, pointID)
				}
				if err != nil {
					return err
				}

				updates := map[string]interface{}{
					"label":   p.Label,
					"channel": p.Channel,
					"url":     p.URL,
					"weight":  p.Weight,
				}
				// 活投影只在全局最新时直写
				if isLatest {
					updates["price"] = p.Price
					updates["qty"] = p.Qty
				}
				if err := tx.Model(&point).Updates(updates).Error; err != nil {
					return err
				}
			} else {
				point := entity.PegPoint{
					ID:       uuid.New().String()[:32],
					ConfigID: cfg.ID,
					Label:    p.Label,
					Channel:  p.Channel,
					URL:      p.URL,
					Price:    p.Price,
					Qty:      p.Qty,
					Weight:   p.Weight,
				}
				if err := tx.Create(&point).Error; err != nil {
					return err
				}
				pointID = point.ID
			}

			// (point, day) 唯一，同天重复保存覆盖价格与数量
			hist := entity.PegPointHistory{
				ID:         uuid.New().String()[:32],
				PegPointID: pointID,
				DayDate:    day,
				Price:      p.Price,
				Qty:        p.Qty,
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "peg_point_id"}, {Name: "day_date"}},
				DoUpdates: clause.AssignmentColumns([]string{"price", "qty", "updated_at"}),
			}).Create(&hist).Error; err != nil {
				return err
			}
		}

		// 4) 修正项整体替换
		if err := tx.Where("config_id = ?", cfg.ID).Delete(&entity.PegModifier{}).Error; err != nil {
			return err
		}
		for _, m := range req.Peg.Modifiers {
			mod := entity.PegModifier{
				ID:       uuid.New().String()[:32],
				ConfigID: cfg.ID,
				Label:    m.Label,
				Amount:   m.Amount,
			}
			if err := tx.Create(&mod).Error; err != nil {
				return err
			}
		}

		// 5) 销售观测整体替换
		if err := tx.Where("config_id = ?", cfg.ID).Delete(&entity.SalesRecord{}).Error; err != nil {
			return err
		}
		for _, sr := range req.Peg.Sales {
			if sr.DayLabel == "" {
				continue
			}
			rec := entity.SalesRecord{
				ID:          uuid.New().String()[:32],
				ConfigID:    cfg.ID,
				Capacity:    capacity,
				DayLabel:    sr.DayLabel,
				SalePrice:   sr.SalePrice,
				MarketPrice: sr.MarketPrice,
				Volume:      sr.Volume,
			}
			if err := tx.Create(&rec).Error; err != nil {
				return err
			}
		}

		// 6) 聚合 + 当天审计快照upsert（(config, day) 每天一行）
		agg := Aggregate(req.Peg.Points, req.Peg.Modifiers)

		snap := entity.PegSnapshot{
			ID:            uuid.New().String()[:32],
			ConfigID:      cfg.ID,
			DayDate:       day,
			Capacity:      capacity,
			Interface:     iface,
			ConditionType: condition,
			PegName:       req.PegName,
			BasePrice:     agg.BasePrice,
			AdjustedPrice: agg.AdjustedPrice,
			MarginPercent: margin,
			InventoryMode: inventoryMode,
			SavedAt:       time.Now(),
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "config_id"}, {Name: "day_date"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"peg_name", "base_price", "adjusted_price", "margin_percent", "inventory_mode", "saved_at",
			}),
		}).Create(&snap).Error; err != nil {
			return err
		}

		result.ConfigID = cfg.ID
		result.IsLatest = isLatest
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateBuyPrice(ctx, capacity, iface, condition)
	s.logger.Info("peg saved",
		zap.String("config_id", result.ConfigID),
		zap.String("capacity", capacity),
		zap.String("interface", iface),
		zap.String("condition", condition),
		zap.String("date", day),
		zap.Bool("is_latest", result.IsLatest),
		zap.Int("points", len(req.Peg.Points)),
	)

	return result, nil
}

// PegDetail 配置当前状态（配置 + 点 + 修正项 + 销售）
type PegDetail struct {
	Config    *entity.PegConfig    `json:"config"`
	Points    []entity.PegPoint    `json:"points"`
	Modifiers []entity.PegModifier `json:"modifiers"`
	Sales     []entity.SalesRecord `json:"sales"`
}

// LoadConfig 按配置ID加载当前状态；不存在返回ErrNotFound，绝不自动创建
func (s *PegService) LoadConfig(ctx context.Context, configID string) (*PegDetail, error) {
	cfg, err := s.repos.Config.FindByID(ctx, configID)
	if err != nil {
		return nil, err
	}
	return s.loadDetail(ctx, cfg)
}

// LoadByIdentity 按三元组加载当前状态；不存在返回ErrNotFound
func (s *PegService) LoadByIdentity(ctx context.Context, capacity, iface, condition string) (*PegDetail, error) {
	cfg, err := s.repos.Config.FindByIdentity(ctx, capacity, strings.ToLower(iface), strings.ToLower(condition))
	if err != nil {
		return nil, err
	}
	return s.loadDetail(ctx, cfg)
}

func (s *PegService) loadDetail(ctx context.Context, cfg *entity.PegConfig) (*PegDetail, error) {
	points, err := s.repos.Point.ListByConfig(ctx, cfg.ID)
	if err != nil {
		return nil, err
	}
	mods, err := s.repos.Config.ListModifiers(ctx, cfg.ID)
	if err != nil {
		return nil, err
	}
	sales, err := s.repos.Config.ListSales(ctx, cfg.ID)
	if err != nil {
		return nil, err
	}
	return &PegDetail{Config: cfg, Points: points, Modifiers: mods, Sales: sales}, nil
}

// ListSnapshots 容量下的审计快照流，按天倒序
func (s *PegService) ListSnapshots(ctx context.Context, capacity string) ([]entity.PegSnapshot, error) {
	if strings.TrimSpace(capacity) == "" {
		return nil, fmt.Errorf("%w: missing capacity", ErrValidation)
	}
	return s.repos.Snapshot.ListByCapacity(ctx, capacity)
}

// DeleteSnapshot 级联删除：修正项、销售、点、快照行、配置本身。
// 点历史仍存在时整个删除以ErrDependencyConflict中止——强制调用方先清理
// 点历史，防止历史价格数据被顺手删掉。
func (s *PegService) DeleteSnapshot(ctx context.Context, snapshotID string) error {
	var cfgSnap *entity.PegSnapshot

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var snap entity.PegSnapshot
		err := tx.First(&snap, "id = ?", snapshotID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return repository.ErrNotFound
		}
		if err != nil {
			return err
		}
		cfgSnap = &snap

		// 前置检查：显式查询，不依赖存储层外键约束炸出一个笼统错误
		var histCount int64
		if err := tx.Table("peg_point_history h").
			Joins("JOIN peg_points pp ON pp.id = h.peg_point_id").
			Where("pp.config_id = ?", snap.ConfigID).
			Count(&histCount).Error; err != nil {
			return err
		}
		if histCount > 0 {
			return fmt.Errorf("%w: %d history rows for config %s", repository.ErrDependencyConflict, histCount, snap.ConfigID)
		}

		if err := tx.Where("config_id = ?", snap.ConfigID).Delete(&entity.PegModifier{}).Error; err != nil {
			return err
		}
		if err := tx.Where("config_id = ?", snap.ConfigID).Delete(&entity.SalesRecord{}).Error; err != nil {
			return err
		}
		if err := tx.Where("config_id = ?", snap.ConfigID).Delete(&entity.PegPoint{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&entity.PegSnapshot{}, "id = ?", snap.ID).Error; err != nil {
			return err
		}
		return tx.Delete(&entity.PegConfig{}, "id = ?", snap.ConfigID).Error
	})
	if err != nil {
		return err
	}

	s.invalidateBuyPrice(ctx, cfgSnap.Capacity, cfgSnap.Interface, cfgSnap.ConditionType)
	s.logger.Info("peg snapshot deleted",
		zap.String("snapshot_id", snapshotID),
		zap.String("config_id", cfgSnap.ConfigID),
	)
	return nil
}

// BuyPriceResult 批量查价结果（表格工具消费）
type BuyPriceResult struct {
	ConfigID      string  `json:"config_id"`
	AdjustedPrice float64 `json:"adjusted_price"`
	MarginPercent float64 `json:"margin_percent"`
	BuyLow        float64 `json:"buy_low"`
	BuyHigh       float64 `json:"buy_high"`
}

// BuyPrice 最近一条审计快照的调整价 + margin + 买入价区间。
// Redis做短TTL旁路缓存，保存时失效。
func (s *PegService) BuyPrice(ctx context.Context, capacity, iface, condition string) (*BuyPriceResult, error) {
	capacity = strings.TrimSpace(capacity)
	iface = strings.ToLower(strings.TrimSpace(iface))
	condition = strings.ToLower(strings.TrimSpace(condition))
	if capacity == "" || iface == "" || condition == "" {
		return nil, fmt.Errorf("%w: missing parameters", ErrValidation)
	}

	key := buyPriceCacheKey(capacity, iface, condition)
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, key).Result(); err == nil {
			var res BuyPriceResult
			if json.Unmarshal([]byte(cached), &res) == nil {
				return &res, nil
			}
		}
	}

	cfg, err := s.repos.Config.FindByIdentity(ctx, capacity, iface, condition)
	if err != nil {
		return nil, err
	}
	snap, err := s.repos.Snapshot.LatestByConfig(ctx, cfg.ID)
	if err != nil {
		return nil, err
	}

	low, high := BuyBand(snap.AdjustedPrice, snap.MarginPercent)
	res := &BuyPriceResult{
		ConfigID:      cfg.ID,
		AdjustedPrice: snap.AdjustedPrice,
		MarginPercent: snap.MarginPercent,
		BuyLow:        low,
		BuyHigh:       high,
	}

	if s.rdb != nil {
		if data, err := json.Marshal(res); err == nil {
			s.rdb.Set(ctx, key, data, buyPriceCacheTTL)
		}
	}
	return res, nil
}

func buyPriceCacheKey(capacity, iface, condition string) string {
	return fmt.Sprintf("peg:buyprice:%s:%s:%s", capacity, iface, condition)
}

func (s *PegService) invalidateBuyPrice(ctx context.Context, capacity, iface, condition string) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, buyPriceCacheKey(capacity, iface, condition)).Err(); err != nil {
		s.logger.Warn("buy price cache invalidation failed", zap.Error(err))
	}
}
