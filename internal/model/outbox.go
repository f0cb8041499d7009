package model

import (
	"time"

	"gorm.io/datatypes"
)

const (
	OutboxPending int8 = 0
	OutboxSent    int8 = 1
	OutboxFailed  int8 = 2
)

// 领域事件名，同时作为 EmailTrigger.Event
const (
	EventGLORegistered    = "glo_interest.registered"
	EventClaimSubmitted   = "claim.submitted"
	EventEvidenceApproved = "evidence.approved"
	EventEvidenceRejected = "evidence.rejected"
	EventEvidenceDeleted  = "evidence.deleted"
	EventEmailBatchSent   = "email.batch_sent"
)

// OutboxEvent 领域事件 outbox 表，由 relayer 投递到 kafka
type OutboxEvent struct {
	ID          uint64         `gorm:"primaryKey"`
	EventType   string         `gorm:"size:64;not null"`
	AggregateID uint64         `gorm:"not null"`
	Payload     datatypes.JSON `gorm:"type:json;not null"`
	Status      int8           `gorm:"not null;default:0;index;comment:'0=pending,1=sent,2=failed'"`
	Retry       int            `gorm:"not null;default:0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (OutboxEvent) TableName() string { return "outbox_events" }
