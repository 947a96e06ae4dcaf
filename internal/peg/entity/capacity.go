package entity

import "time"

// Capacity 容量目录条目（UI下拉数据源）
type Capacity struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	Capacity  string    `json:"capacity" gorm:"size:32;not null;unique"`
	CreatedAt time.Time `json:"created_at"`
}

func (Capacity) TableName() string {
	return "capacities"
}
