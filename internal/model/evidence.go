package model

import "time"

const (
	MediaPhoto = "photo"
	MediaVideo = "video"
)

var Severities = []string{"low", "medium", "high", "critical"}

type Evidence struct {
	ID          uint64 `gorm:"primaryKey" json:"id"`
	UserID      uint64 `gorm:"not null;index" json:"user_id"`
	Title       string `gorm:"size:200;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	Category    string `gorm:"size:64;index" json:"category"`
	Severity    string `gorm:"size:16" json:"severity"`
	Development string `gorm:"size:128" json:"development"`
	Location    string `gorm:"size:200" json:"location"`
	Moderation
	Photos    []EvidencePhoto `gorm:"foreignKey:EvidenceID" json:"photos,omitempty"`
	CreatedAt time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (Evidence) TableName() string { return "evidence" }

// EvidencePhoto 证据附件（照片或视频），按 evidence 内 order_index 排序
type EvidencePhoto struct {
	ID          uint64    `gorm:"primaryKey" json:"id"`
	EvidenceID  uint64    `gorm:"not null;index" json:"evidence_id"`
	UserID      uint64    `gorm:"not null" json:"user_id"`
	StorageKey  string    `gorm:"size:512;not null" json:"storage_key"`
	FileName    string    `gorm:"size:255" json:"file_name"`
	ContentType string    `gorm:"size:128" json:"content_type"`
	MediaType   string    `gorm:"size:16;not null;default:photo" json:"media_type"`
	Size        int64     `json:"size"`
	Caption     string    `gorm:"type:text" json:"caption"`
	OrderIndex  int       `gorm:"not null;default:0;index" json:"order_index"`
	URL         string    `gorm:"-" json:"url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (p *EvidencePhoto) SetOrderIndex(i int) { p.OrderIndex = i }
