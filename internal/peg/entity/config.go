package entity

import "time"

// 接口类型
const (
	InterfaceSATA = "sata"
	InterfaceSAS  = "sas"
)

// 盘况
const (
	ConditionNew         = "new"
	ConditionUsed        = "used"
	ConditionRecertified = "recertified"
)

// 配置默认值
const (
	DefaultMarginPercent = 80.0
	DefaultInventoryMode = "balanced"
)

// PegConfig peg定价配置，(capacity, interface, condition_type) 三元组唯一
type PegConfig struct {
	ID            string    `json:"id" gorm:"primaryKey;size:32"`
	Capacity      string    `json:"capacity" gorm:"size:32;not null;uniqueIndex:idx_peg_configs_identity"`
	Interface     string    `json:"interface" gorm:"size:16;not null;uniqueIndex:idx_peg_configs_identity"`
	ConditionType string    `json:"condition_type" gorm:"size:16;not null;uniqueIndex:idx_peg_configs_identity"`
	PegName       string    `json:"peg_name" gorm:"size:128"`
	MarginPercent float64   `json:"margin_percent" gorm:"not null;default:80"`
	InventoryMode string    `json:"inventory_mode" gorm:"size:16;not null;default:balanced"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// Relations
	Points    []PegPoint    `json:"points,omitempty" gorm:"foreignKey:ConfigID"`
	Modifiers []PegModifier `json:"modifiers,omitempty" gorm:"foreignKey:ConfigID"`
}

func (PegConfig) TableName() string {
	return "peg_configs"
}

// ValidInterface 校验接口类型
func ValidInterface(v string) bool {
	return v == InterfaceSATA || v == InterfaceSAS
}

// ValidCondition 校验盘况
func ValidCondition(v string) bool {
	return v == ConditionNew || v == ConditionUsed || v == ConditionRecertified
}
