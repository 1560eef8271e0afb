package application

import (
	"context"
	"time"

	"github.com/sngm3741/portfolio-services/api/internal/intake/domain"
)

// CooldownLedger remembers when each source key last had a submission accepted.
// Implementations need not make LastAccepted+Record atomic.
type CooldownLedger interface {
	LastAccepted(ctx context.Context, sourceKey string) (time.Time, bool, error)
	Record(ctx context.Context, sourceKey string, at time.Time) error
}

// Relay delivers a notification to an external sink.
type Relay interface {
	Deliver(ctx context.Context, destination string, notification domain.Notification) error
}

// RelayFailureRecorder persists failed relay attempts for operators.
type RelayFailureRecorder interface {
	RecordRelayFailure(ctx context.Context, failure domain.RelayFailure) error
}

// GeoResolver looks up best-effort location data for a source key.
type GeoResolver interface {
	Lookup(sourceKey string) (domain.RequestOrigin, bool)
}

// SubmissionService is the message intake use-case.
type SubmissionService interface {
	Submit(ctx context.Context, rawBody []byte, headers domain.HeaderReader) error
}
