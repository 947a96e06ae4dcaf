package entity

import "time"

// PegModifier 平价修正项（固定加减额），每次保存整体替换，无历史
type PegModifier struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	ConfigID  string    `json:"config_id" gorm:"size:32;not null;index"`
	Label     string    `json:"label" gorm:"size:128"`
	Amount    float64   `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

func (PegModifier) TableName() string {
	return "peg_modifiers"
}

// SalesRecord 销售观测数据，每次保存整体替换，无历史
type SalesRecord struct {
	ID          string    `json:"id" gorm:"primaryKey;size:32"`
	ConfigID    string    `json:"config_id" gorm:"size:32;not null;index"`
	Capacity    string    `json:"capacity" gorm:"size:32"`
	DayLabel    string    `json:"day_label" gorm:"size:32;not null"`
	SalePrice   float64   `json:"sale_price"`
	MarketPrice float64   `json:"market_price"`
	Volume      int       `json:"volume"`
	CreatedAt   time.Time `json:"created_at"`
}

func (SalesRecord) TableName() string {
	return "sales_data"
}
