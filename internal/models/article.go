package models

import (
	"time"
)

// FeedSource represents a configured feed subscription
type FeedSource struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	URL       string    `gorm:"uniqueIndex;not null" json:"url"`
	FeedType  string    `gorm:"default:'rss'" json:"feed_type"`
	Active    bool      `gorm:"default:true" json:"active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// Article represents one discovered piece of content. The URL is the
// dedup key; classification and feedback fields stay nil until the
// corresponding phase has run.
type Article struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	URL           string     `gorm:"uniqueIndex;not null" json:"url"`
	Title         string     `gorm:"not null" json:"title"`
	Author        *string    `json:"author"`
	SourceID      *uint      `gorm:"index" json:"source_id"`
	Source        *FeedSource `gorm:"constraint:OnDelete:SET NULL" json:"source,omitempty"`
	Content       *string    `json:"content"`
	PublishedDate *time.Time `json:"published_date"`

	// AI classification - populated atomically, all or nothing
	Summary     *string     `json:"summary"`
	Tier        *Tier       `gorm:"type:string;index" json:"tier"`
	Category    *Category   `gorm:"type:string" json:"category"`
	Reason      *string     `json:"reason"`
	Confidence  *float64    `json:"confidence"`
	MoneyQuote  *string     `json:"money_quote"`
	Actionables StringSlice `gorm:"type:json" json:"actionables"`

	// Feedback
	Feedback        *Feedback  `gorm:"type:string;index" json:"feedback"`
	ClippingCreated bool       `gorm:"default:false" json:"clipping_created"`
	FeedbackAt      *time.Time `json:"feedback_at"`

	FetchedAt    time.Time  `gorm:"index;not null" json:"fetched_at"`
	ClassifiedAt *time.Time `json:"classified_at"`
}

// Classified reports whether the article has been through classification.
func (a *Article) Classified() bool {
	return a.ClassifiedAt != nil
}

// HasContent reports whether extraction produced usable content.
func (a *Article) HasContent() bool {
	return a.Content != nil && *a.Content != ""
}
