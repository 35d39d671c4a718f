package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Tier is the coarse relevance bucket assigned by the classifier.
type Tier string

const (
	TierHigh   Tier = "high"
	TierMedium Tier = "medium"
	TierLow    Tier = "low"
)

// Valid reports whether t is a member of the tier enumeration.
func (t Tier) Valid() bool {
	switch t {
	case TierHigh, TierMedium, TierLow:
		return true
	}
	return false
}

// ParseTier maps a raw string to a Tier, rejecting unknown values.
func ParseTier(s string) (Tier, error) {
	t := Tier(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown tier %q", s)
	}
	return t, nil
}

// Category is the fixed topical label assigned by the classifier.
type Category string

const (
	CategoryAIAgents              Category = "ai_agents"
	CategoryClaudeCode            Category = "claude_code"
	CategoryDevelopment           Category = "development"
	CategoryDevopsCloud           Category = "devops_cloud"
	CategoryEngineeringManagement Category = "engineering_management"
	CategoryPoliticsEconomics     Category = "politics_economics"
	CategoryMarketing             Category = "marketing"
	CategoryMediaCulture          Category = "media_culture"
	CategoryHealthScience         Category = "health_science"
)

// Valid reports whether c is a member of the category enumeration.
func (c Category) Valid() bool {
	switch c {
	case CategoryAIAgents, CategoryClaudeCode, CategoryDevelopment,
		CategoryDevopsCloud, CategoryEngineeringManagement,
		CategoryPoliticsEconomics, CategoryMarketing,
		CategoryMediaCulture, CategoryHealthScience:
		return true
	}
	return false
}

// ParseCategory maps a raw string to a Category, rejecting unknown values.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.Valid() {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}

// Feedback is the reviewer's verdict on a classified article.
type Feedback string

const (
	FeedbackApproved Feedback = "approved"
	FeedbackSkipped  Feedback = "skipped"
)

// Valid reports whether f is a member of the feedback enumeration.
func (f Feedback) Valid() bool {
	return f == FeedbackApproved || f == FeedbackSkipped
}

// ParseFeedback maps a raw string to a Feedback value.
func ParseFeedback(s string) (Feedback, error) {
	f := Feedback(s)
	if !f.Valid() {
		return "", fmt.Errorf("unknown feedback %q", s)
	}
	return f, nil
}

// StringSlice is a custom type for storing string arrays as JSON columns
type StringSlice []string

func (s StringSlice) Value() (driver.Value, error) {
	return json.Marshal(s)
}

func (s *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("unsupported StringSlice column type %T", value)
	}
}

// Classification is the full validated output of one classifier call.
// Instances only exist after the parse boundary has checked every field,
// so an in-memory Classification is always well formed.
type Classification struct {
	Tier        Tier
	Category    Category
	Summary     string
	Reason      string
	Confidence  float64
	MoneyQuote  string
	Actionables StringSlice
}

// Validate checks the invariants the storage layer relies on.
func (c Classification) Validate() error {
	if !c.Tier.Valid() {
		return fmt.Errorf("invalid tier %q", c.Tier)
	}
	if !c.Category.Valid() {
		return fmt.Errorf("invalid category %q", c.Category)
	}
	if c.Summary == "" {
		return fmt.Errorf("summary is required")
	}
	if c.Reason == "" {
		return fmt.Errorf("reason is required")
	}
	if c.Confidence < 0 || c.Confidence > 1 {
		return fmt.Errorf("confidence %v outside [0,1]", c.Confidence)
	}
	return nil
}
