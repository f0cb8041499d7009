package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type ClaimStatus string

const (
	ClaimSubmitted ClaimStatus = "submitted"
	ClaimInReview  ClaimStatus = "in_review"
	ClaimResolved  ClaimStatus = "resolved"
	ClaimRejected  ClaimStatus = "rejected"
)

// claimFlow 允许的状态流转
var claimFlow = map[ClaimStatus][]ClaimStatus{
	ClaimSubmitted: {ClaimInReview, ClaimRejected},
	ClaimInReview:  {ClaimResolved, ClaimRejected},
}

func (s ClaimStatus) CanTransitionTo(next ClaimStatus) bool {
	for _, n := range claimFlow[s] {
		if n == next {
			return true
		}
	}
	return false
}

type Claim struct {
	ID              uint64          `gorm:"primaryKey" json:"id"`
	UserID          uint64          `gorm:"not null;index" json:"user_id"`
	PropertyAddress string          `gorm:"size:255;not null" json:"property_address"`
	Development     string          `gorm:"size:128" json:"development"`
	DefectSummary   string          `gorm:"type:text;not null" json:"defect_summary"`
	EstimatedCost   decimal.Decimal `gorm:"type:decimal(12,2)" json:"estimated_cost"`
	ContactPhone    string          `gorm:"size:32" json:"contact_phone"`
	Status          ClaimStatus     `gorm:"size:16;not null;default:submitted;index" json:"status"`
	StatusNote      string          `gorm:"type:text" json:"status_note,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}
