package domain

import (
	"time"

	"github.com/google/uuid"
)

// Incident is an error event that may be worth telling operators about.
// UserID is the acting user when one was resolved; background failures
// carry none.
type Incident struct {
	UserID     *uuid.UUID
	ErrorType  string
	Message    string
	Path       string
	Method     string
	OccurredAt time.Time
}

// FeatureFlag gates incident notification. An empty TargetGroup means the
// flag applies to everyone.
type FeatureFlag struct {
	Name        string
	Enabled     bool
	TargetGroup string
	Recipients  []string
}
