package entity

import "time"

// PegSnapshot 配置级审计快照，(config_id, day_date) 每天一行。
// 同一天的第二次保存覆盖快照（upsert），形成按天的时间序列而非无界日志。
type PegSnapshot struct {
	ID            string    `json:"id" gorm:"primaryKey;size:32"`
	ConfigID      string    `json:"config_id" gorm:"size:32;not null;uniqueIndex:idx_peg_history_config_day"`
	DayDate       string    `json:"day_date" gorm:"size:10;not null;uniqueIndex:idx_peg_history_config_day"`
	Capacity      string    `json:"capacity" gorm:"size:32;not null;index"`
	Interface     string    `json:"interface" gorm:"size:16;not null"`
	ConditionType string    `json:"condition_type" gorm:"size:16;not null"`
	PegName       string    `json:"peg_name" gorm:"size:128"`
	BasePrice     float64   `json:"base_price"`
	AdjustedPrice float64   `json:"adjusted_price"`
	MarginPercent float64   `json:"margin_percent"`
	InventoryMode string    `json:"inventory_mode" gorm:"size:16"`
	SavedAt       time.Time `json:"saved_at"`

	Config *PegConfig `json:"config,omitempty" gorm:"foreignKey:ConfigID"`
}

func (PegSnapshot) TableName() string {
	return "peg_history"
}
