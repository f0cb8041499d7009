package model

import (
	"time"

	"gorm.io/datatypes"
)

type EmailTemplate struct {
	ID          uint64         `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"uniqueIndex;size:64;not null" json:"name"`
	Subject     string         `gorm:"size:255;not null" json:"subject"`
	HTMLContent string         `gorm:"type:text" json:"html_content"`
	Category    string         `gorm:"size:64" json:"category"`
	Variables   datatypes.JSON `gorm:"type:json" json:"variables"`
	IsActive    bool           `gorm:"not null" json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// EmailTrigger 事件 -> 模板 绑定
type EmailTrigger struct {
	ID         uint64    `gorm:"primaryKey" json:"id"`
	Event      string    `gorm:"uniqueIndex;size:64;not null" json:"event"`
	TemplateID uint64    `gorm:"not null" json:"template_id"`
	IsActive   bool      `gorm:"not null" json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// EmailLog 一次批量发送一条
type EmailLog struct {
	ID           uint64         `gorm:"primaryKey" json:"id"`
	BatchID      string         `gorm:"size:64;index" json:"batch_id"`
	TemplateID   *uint64        `json:"template_id,omitempty"`
	TemplateName string         `gorm:"size:64" json:"template_name"`
	Subject      string         `gorm:"size:255" json:"subject"`
	Recipients   int            `json:"recipients"`
	SuccessCount int            `json:"success_count"`
	FailureCount int            `json:"failure_count"`
	Results      datatypes.JSON `gorm:"type:json" json:"results"`
	SentBy       *uint64        `json:"sent_by,omitempty"`
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`
}
