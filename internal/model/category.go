package model

import "time"

// Category groups tasks (work, personal, shopping, etc.).
type Category struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Color     string    `gorm:"not null" json:"color"`
	Order     int       `gorm:"column:order;not null;index" json:"order"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	TaskCount int64 `gorm:"->;-:migration" json:"taskCount"`
}
