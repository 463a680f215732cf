package models

import (
	"errors"
	"fmt"
)

// Terminal, user-facing errors. The bulk-generate handler maps these onto
// the HTTP error envelope; nothing below is ever retried.
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrNoActiveJar       = errors.New("no active jar found for user")
	ErrJarNotFound       = errors.New("jar not found")
	ErrNotJarMember      = errors.New("user is not a member of the jar")
	ErrMissingInput      = errors.New("request must include a prompt or quiz preferences")
	ErrInvalidAIResponse = errors.New("AI response did not contain a parseable idea array")
)

// UpgradeRequiredError signals daily-quota exhaustion for a non-premium
// actor. Carries the limit and current usage so the client can render an
// upgrade prompt instead of a generic failure.
type UpgradeRequiredError struct {
	Limit int
	Usage int
}

func (e *UpgradeRequiredError) Error() string {
	return fmt.Sprintf("daily generation limit reached (%d/%d)", e.Usage, e.Limit)
}
