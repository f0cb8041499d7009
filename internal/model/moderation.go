package model

import "time"

// ModerationStatus 统一的审核三态：pending / approved / rejected
type ModerationStatus string

const (
	StatusPending  ModerationStatus = "pending"
	StatusApproved ModerationStatus = "approved"
	StatusRejected ModerationStatus = "rejected"
)

func (s ModerationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Moderation 嵌入到需要审核的实体中
type Moderation struct {
	Status          ModerationStatus `gorm:"size:16;not null;default:pending;index" json:"status"`
	ModeratedBy     *uint64          `json:"moderated_by,omitempty"`
	ModeratedAt     *time.Time       `json:"moderated_at,omitempty"`
	RejectionReason string           `gorm:"type:text" json:"rejection_reason,omitempty"`
}

func (m Moderation) IsApproved() bool {
	return m.Status == StatusApproved
}
