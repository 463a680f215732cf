package models

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Cost tiers and activity levels for persisted ideas.
const (
	CostFree = "FREE"
	Cost1    = "$"
	Cost2    = "$$"
	Cost3    = "$$$"
	Cost4    = "$$$$"

	ActivityLow    = "LOW"
	ActivityMedium = "MEDIUM"
	ActivityHigh   = "HIGH"
)

// FlexFloat accepts either a JSON number or a numeric string. Model output
// is inconsistent about which one it emits for durations and ratings.
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == `""` {
		return nil
	}
	s = strings.Trim(s, `"`)
	// Tolerate suffixes like "2 hours" by taking the leading numeric run.
	end := 0
	for end < len(s) && (s[end] == '.' || s[end] == '-' || (s[end] >= '0' && s[end] <= '9')) {
		end++
	}
	if end == 0 {
		return nil
	}
	v, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return nil
	}
	*f = FlexFloat(v)
	return nil
}

// CandidateIdea is an unpersisted, AI- or lookup-sourced draft record. The
// validator removes entries from the candidate list and the standardizer
// backfills typeData before persistence.
type CandidateIdea struct {
	Title         string     `json:"title,omitempty"`
	Name          string     `json:"name,omitempty"`
	Description   string     `json:"description,omitempty"`
	Category      string     `json:"category,omitempty"`
	Indoor        *bool      `json:"indoor,omitempty"`
	Duration      *FlexFloat `json:"duration,omitempty"`
	Cost          string     `json:"cost,omitempty"`
	ActivityLevel string     `json:"activityLevel,omitempty"`
	Details       string     `json:"details,omitempty"`

	// Venue fields, present only on lookup-sourced candidates.
	Address           string     `json:"address,omitempty"`
	Website           string     `json:"website,omitempty"`
	GoogleRating      *FlexFloat `json:"googleRating,omitempty"`
	GoogleRatingSnake *FlexFloat `json:"google_rating,omitempty"`
	PhotoURLs         []string   `json:"photoUrls,omitempty"`

	IdeaType IdeaType        `json:"ideaType,omitempty"`
	TypeData json.RawMessage `json:"typeData,omitempty"`
}

// DisplayTitle coalesces the two naming conventions of the two sources.
func (c *CandidateIdea) DisplayTitle() string {
	if c.Title != "" {
		return c.Title
	}
	return c.Name
}

// Rating coalesces camelCase and snake_case rating fields.
func (c *CandidateIdea) Rating() float64 {
	if c.GoogleRating != nil {
		return float64(*c.GoogleRating)
	}
	if c.GoogleRatingSnake != nil {
		return float64(*c.GoogleRatingSnake)
	}
	return 0
}

// Idea is one persisted suggestion record in a jar.
type Idea struct {
	ID            uuid.UUID `json:"id"`
	JarID         uuid.UUID `json:"jarId"`
	CreatedBy     uuid.UUID `json:"createdBy"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	Category      string    `json:"category"`
	Indoor        bool      `json:"indoor"`
	DurationHours float64   `json:"durationHours"`
	Cost          string    `json:"cost"`
	ActivityLevel string    `json:"activityLevel"`
	Details       string    `json:"details,omitempty"`
	Address       string    `json:"address,omitempty"`
	Website       string    `json:"website,omitempty"`
	GoogleRating  float64   `json:"googleRating,omitempty"`
	PhotoURLs     []string  `json:"photoUrls,omitempty"`
	IdeaType      IdeaType  `json:"ideaType,omitempty"`
	TypeData      *TypeData `json:"typeData,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// User is the actor record read from the persistence collaborator.
type User struct {
	ID               uuid.UUID
	Email            string
	DisplayName      string
	HomeLocation     string
	StripeCustomerID string
	ActiveJarID      *uuid.UUID
	CreatedAt        time.Time
}

// Jar is the shared container of idea records for a group of members.
type Jar struct {
	ID              uuid.UUID
	OwnerID         uuid.UUID
	Name            string
	Topic           string
	DefaultLocation string
	CreatedAt       time.Time
}
