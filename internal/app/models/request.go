package models

import "github.com/google/uuid"

// QuizPreferences carries the structured preference-quiz answers for the
// non-natural-language generation branch.
type QuizPreferences struct {
	Categories    []string `json:"categories"`
	Budget        string   `json:"budget,omitempty"`
	Duration      string   `json:"duration,omitempty"`
	ActivityLevel string   `json:"activityLevel,omitempty"`
	IdealCount    int      `json:"idealCount,omitempty"`
}

// BulkGenerateRequest is the inbound body of POST /api/v1/ideas/bulk-generate.
// Exactly one of Prompt or Preferences must be present.
type BulkGenerateRequest struct {
	Prompt      string           `json:"prompt,omitempty"`
	Preferences *QuizPreferences `json:"preferences,omitempty"`
	JarID       *uuid.UUID       `json:"jarId,omitempty"`
	Location    string           `json:"location,omitempty"`
	Intent      *Intent          `json:"intent,omitempty"`
	Preview     bool             `json:"preview,omitempty"`
}

// BulkGenerateResult is what the orchestrator hands back to the handler.
type BulkGenerateResult struct {
	Preview    bool
	JarID      uuid.UUID
	Candidates []CandidateIdea
	Persisted  []Idea
}
