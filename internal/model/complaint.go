package model

import "time"

type Complaint struct {
	ID          uint64 `gorm:"primaryKey" json:"id"`
	UserID      uint64 `gorm:"not null;index" json:"user_id"`
	Title       string `gorm:"size:200;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	Category    string `gorm:"size:64;index" json:"category"`
	Severity    string `gorm:"size:16" json:"severity"`
	Development string `gorm:"size:128" json:"development"`
	Moderation
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
