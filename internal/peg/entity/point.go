package entity

import "time"

// PegPoint 价格观测点，归属于唯一一个配置。
// price/qty 是该点最近一次"全局最新日期"历史条目的直写投影，不是独立状态。
type PegPoint struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	ConfigID  string    `json:"config_id" gorm:"size:32;not null;index"`
	Label     string    `json:"label" gorm:"size:128"`
	Channel   string    `json:"channel" gorm:"size:64"`
	URL       string    `json:"url" gorm:"size:512"`
	Price     float64   `json:"price"`
	Qty       int       `json:"qty"`
	Weight    float64   `json:"weight"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Config *PegConfig `json:"config,omitempty" gorm:"foreignKey:ConfigID"`
}

func (PegPoint) TableName() string {
	return "peg_points"
}

// PegPointHistory 按日历日键控的点价历史，(peg_point_id, day_date) 唯一。
// 同一天的第二次保存覆盖该天的价格与数量，不追加。
type PegPointHistory struct {
	ID         string    `json:"id" gorm:"primaryKey;size:32"`
	PegPointID string    `json:"peg_point_id" gorm:"size:32;not null;uniqueIndex:idx_point_history_day"`
	DayDate    string    `json:"day_date" gorm:"size:10;not null;uniqueIndex:idx_point_history_day;index"`
	Price      float64   `json:"price"`
	Qty        int       `json:"qty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	Point *PegPoint `json:"point,omitempty" gorm:"foreignKey:PegPointID"`
}

func (PegPointHistory) TableName() string {
	return "peg_point_history"
}
