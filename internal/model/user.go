package model

import "time"

// User is a person who creates tasks and can be assigned to them.
type User struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	Name       string    `gorm:"not null" json:"name"`
	Email      *string   `gorm:"uniqueIndex" json:"email"`
	TelegramID *int64    `gorm:"uniqueIndex" json:"-"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
