package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jjzperilla/pegeditor/internal/peg/repository"
)

// 按日期读点数据时的来源标记
const (
	SourceHistory   = "history"
	SourceStructure = "structure"
	SourceEmpty     = "empty"
)

// SeriesService 跨配置的时间序列读路径（趋势图/报表用），不走写流水线
type SeriesService struct {
	repos *repository.Repositories
}

// NewSeriesService 创建序列服务
func NewSeriesService(repos *repository.Repositories) *SeriesService {
	return &SeriesService{repos: repos}
}

// SeriesPoint 序列中的一个 (日期, 价格) 点
type SeriesPoint struct {
	Date  string  `json:"date"`
	Price float64 `json:"price"`
}

// ComboSeries 容量下逐日均价序列，按 "interface|condition" 分组。
// 取的是原始历史行的算术平均，不是加权聚合。无数据返回空映射而非错误。
func (s *SeriesService) ComboSeries(ctx context.Context, capacity string, days int) (map[string][]SeriesPoint, error) {
	if strings.TrimSpace(capacity) == "" || days <= 0 {
		return nil, fmt.Errorf("%w: invalid params", ErrValidation)
	}

	cutoff := time.Now().AddDate(0, 0, -days).Format("2006-01-02")
	rows, err := s.repos.Point.ListComboAverages(ctx, capacity, cutoff)
	if err != nil {
		return nil, err
	}

	data := make(map[string][]SeriesPoint)
	for _, r := range rows {
		key := strings.ToLower(r.Interface) + "|" + strings.ToLower(r.ConditionType)
		data[key] = append(data[key], SeriesPoint{
			Date:  r.DayDate,
			Price: round2(r.AvgPrice),
		})
	}
	return data, nil
}

// PointSeries 单点历史序列，最旧→最新，最多days条。
// 同一天出现多条时只保留价格最高的一条——正确的写路径不会产生重复，
// 读路径仍须容忍。
func (s *SeriesService) PointSeries(ctx context.Context, pointID string, days int) ([]SeriesPoint, error) {
	if pointID == "" {
		return nil, fmt.Errorf("%w: missing point_id", ErrValidation)
	}
	if days < 1 {
		days = 30
	}

	rows, err := s.repos.Point.ListHistory(ctx, pointID)
	if err != nil {
		return nil, err
	}

	// rows按天倒序；逐天去重，保最高价
	best := make(map[string]float64)
	order := make([]string, 0, len(rows))
	for _, h := range rows {
		if v, ok := best[h.DayDate]; ok {
			if h.Price > v {
				best[h.DayDate] = h.Price
			}
			continue
		}
		best[h.DayDate] = h.Price
		order = append(order, h.DayDate)
	}
	if len(order) > days {
		order = order[:days]
	}

	series := make([]SeriesPoint, 0, len(order))
	for i := len(order) - 1; i >= 0; i-- {
		d := order[i]
		series = append(series, SeriesPoint{Date: d, Price: best[d]})
	}
	return series, nil
}

// DatePoint 指定日历日的一行点数据；仅结构时price为空
type DatePoint struct {
	PegPointID string   `json:"peg_point_id"`
	Label      string   `json:"label"`
	Channel    string   `json:"channel"`
	URL        string   `json:"url"`
	Qty        int      `json:"qty"`
	Price      *float64 `json:"price,omitempty"`
}

// DateView 按日期读取的结果，source区分 history/structure/empty
type DateView struct {
	Source   string      `json:"source"`
	UsedDate string      `json:"used_date,omitempty"`
	Points   []DatePoint `json:"points"`
}

// LoadByDate 精确日期有历史则返回历史行；否则退回仅结构（无价格），
// 让调用方渲染"暂无数据"而不是一排零；两者都没有时返回empty。
func (s *SeriesService) LoadByDate(ctx context.Context, configID, day string) (*DateView, error) {
	if configID == "" || !dayPattern.MatchString(day) {
		return nil, fmt.Errorf("%w: invalid params", ErrValidation)
	}

	histRows, err := s.repos.Point.ListHistoryForDay(ctx, configID, day)
	if err != nil {
		return nil, err
	}
	if len(histRows) > 0 {
		points := make([]DatePoint, 0, len(histRows))
		for _, r := range histRows {
			price := r.Price
			points = append(points, DatePoint{
				PegPointID: r.PegPointID,
				Label:      r.Label,
				Channel:    r.Channel,
				URL:        r.URL,
				Qty:        r.Qty,
				Price:      &price,
			})
		}
		return &DateView{Source: SourceHistory, UsedDate: day, Points: points}, nil
	}

	structRows, err := s.repos.Point.ListByConfig(ctx, configID)
	if err != nil {
		return nil, err
	}
	if len(structRows) > 0 {
		points := make([]DatePoint, 0, len(structRows))
		for _, p := range structRows {
			points = append(points, DatePoint{
				PegPointID: p.ID,
				Label:      p.Label,
				Channel:    p.Channel,
				URL:        p.URL,
				Qty:        p.Qty,
			})
		}
		return &DateView{Source: SourceStructure, Points: points}, nil
	}

	return &DateView{Source: SourceEmpty, Points: []DatePoint{}}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
