package domain

import (
	"fmt"
	"strings"
	"time"
)

// Notification is the outbound text relayed to the configured webhook.
type Notification struct {
	Content string
}

// NewNotification formats an accepted submission together with its origin.
// mention is prepended when non-empty, e.g. "<@1234>".
func NewNotification(mention string, submission Submission, origin RequestOrigin) Notification {
	var builder strings.Builder
	if mention = strings.TrimSpace(mention); mention != "" {
		builder.WriteString(mention)
		builder.WriteString(" ")
	}
	builder.WriteString("New message:\n")
	builder.WriteString(submission.Message)
	builder.WriteString("\n")
	builder.WriteString(fmt.Sprintf("IP: %s\n", origin.SourceKey))
	builder.WriteString(fmt.Sprintf("Location: %s, %s, %s\n", origin.City, origin.Region, origin.Country))
	builder.WriteString(fmt.Sprintf("Coords: %s, %s", origin.Latitude, origin.Longitude))
	return Notification{Content: builder.String()}
}

// RelayFailure is the audit record written when a relay attempt fails.
// It is kept for operators and never re-sent.
type RelayFailure struct {
	IncidentID string
	SourceKey  string
	Message    string
	Origin     RequestOrigin
	Error      string
	OccurredAt time.Time
}
