package domain

import (
	"fmt"
	"strings"
	"time"
)

// Status tracks operator handling of a failed relay.
type Status string

const (
	StatusPending  Status = "pending"
	StatusResolved Status = "resolved"
)

// NewStatus validates a status value.
func NewStatus(value string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(value))) {
	case StatusPending:
		return StatusPending, nil
	case StatusResolved:
		return StatusResolved, nil
	default:
		return "", fmt.Errorf("invalid status: %q", value)
	}
}

func (s Status) String() string {
	return string(s)
}

// RelayFailure is a submission whose notification could not be delivered.
type RelayFailure struct {
	ID         string
	IncidentID string
	SourceKey  string
	Message    string
	Country    string
	Region     string
	City       string
	Latitude   string
	Longitude  string
	Error      string
	Attempts   int
	Status     Status
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
