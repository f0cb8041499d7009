package model

import "time"

type FAQ struct {
	ID         uint64 `gorm:"primaryKey" json:"id"`
	Question   string `gorm:"size:500;not null" json:"question"`
	Answer     string `gorm:"type:text" json:"answer"`
	Category   string `gorm:"size:64" json:"category"`
	OrderIndex int    `gorm:"not null;default:0;index" json:"order_index"`
	Moderation
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (FAQ) TableName() string { return "faqs" }

// Article 新闻文章，Content 为 Markdown
type Article struct {
	ID          uint64    `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:200;not null" json:"title"`
	Slug        string    `gorm:"uniqueIndex;size:200;not null" json:"slug"`
	Summary     string    `gorm:"type:text" json:"summary"`
	Content     string    `gorm:"type:text" json:"content"`
	ContentHTML string    `gorm:"-" json:"content_html,omitempty"`
	SourceURL   string    `gorm:"size:500" json:"source_url"`
	ImageURL    string    `gorm:"size:500" json:"image_url"`
	PublishedAt time.Time `gorm:"index" json:"published_at"`
	OrderIndex  int       `gorm:"not null;default:0;index" json:"order_index"`
	Moderation
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type SocialPost struct {
	ID         uint64    `gorm:"primaryKey" json:"id"`
	Platform   string    `gorm:"size:32;not null" json:"platform"`
	URL        string    `gorm:"size:500" json:"url"`
	Author     string    `gorm:"size:128" json:"author"`
	Content    string    `gorm:"type:text" json:"content"`
	PostedAt   time.Time `gorm:"index" json:"posted_at"`
	OrderIndex int       `gorm:"not null;default:0;index" json:"order_index"`
	Moderation
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GLOInterest 集体诉讼意向登记
type GLOInterest struct {
	ID             uint64    `gorm:"primaryKey" json:"id"`
	FullName       string    `gorm:"size:128;not null" json:"full_name"`
	Email          string    `gorm:"uniqueIndex;size:128;not null" json:"email"`
	Phone          string    `gorm:"size:32" json:"phone"`
	Postcode       string    `gorm:"size:16" json:"postcode"`
	Development    string    `gorm:"size:128" json:"development"`
	DefectsSummary string    `gorm:"type:text" json:"defects_summary"`
	Consent        bool      `gorm:"not null;default:false" json:"consent"`
	CreatedAt      time.Time `gorm:"index" json:"created_at"`
}

func (GLOInterest) TableName() string { return "glo_interests" }

type VisitorEvent struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	Path      string    `gorm:"size:255;not null;index" json:"path"`
	Referrer  string    `gorm:"size:500" json:"referrer"`
	SessionID string    `gorm:"size:64;index" json:"session_id"`
	UserAgent string    `gorm:"size:255" json:"user_agent"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (f *FAQ) SetOrderIndex(i int)        { f.OrderIndex = i }
func (a *Article) SetOrderIndex(i int)    { a.OrderIndex = i }
func (p *SocialPost) SetOrderIndex(i int) { p.OrderIndex = i }
