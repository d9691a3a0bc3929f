package models

import "time"

// ConfigEntry holds one JSON encoded settings document.
type ConfigEntry struct {
	Key       string `gorm:"type:varchar(128);primaryKey"`
	Value     string `gorm:"type:text;not null"`
	UpdatedAt time.Time
}

func (ConfigEntry) TableName() string {
	return "config"
}

// All returns every persisted model, in migration order.
func All() []interface{} {
	return []interface{}{
		&ConfigEntry{},
		&Category{},
		&SubCategory{},
		&Product{},
		&User{},
		&Order{},
		&OrderItem{},
		&OrderHistory{},
		&Invoice{},
		&ChatSession{},
		&ChatMessage{},
	}
}
