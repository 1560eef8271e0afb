package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/sngm3741/portfolio-services/api/internal/intake/domain"
)

const defaultRelayTimeout = 5 * time.Second

// SubmissionServiceConfig wires the intake service. Ledger, Relay and Destination are required.
// Destination is called on every submission; an empty result means not configured.
type SubmissionServiceConfig struct {
	Logger        *log.Logger
	Ledger        CooldownLedger
	Relay         Relay
	Failures      RelayFailureRecorder
	Geo           GeoResolver
	Destination   func() string
	Mention       string
	Cooldown      time.Duration
	RelayTimeout  time.Duration
	Now           func() time.Time
	NewIncidentID func() string
}

type submissionService struct {
	logger        *log.Logger
	ledger        CooldownLedger
	relay         Relay
	failures      RelayFailureRecorder
	geo           GeoResolver
	destination   func() string
	mention       string
	cooldown      time.Duration
	relayTimeout  time.Duration
	now           func() time.Time
	newIncidentID func() string
}

// NewSubmissionService returns the message intake use-case.
func NewSubmissionService(cfg SubmissionServiceConfig) SubmissionService {
	svc := &submissionService{
		logger:        cfg.Logger,
		ledger:        cfg.Ledger,
		relay:         cfg.Relay,
		failures:      cfg.Failures,
		geo:           cfg.Geo,
		destination:   cfg.Destination,
		mention:       cfg.Mention,
		cooldown:      cfg.Cooldown,
		relayTimeout:  cfg.RelayTimeout,
		now:           cfg.Now,
		newIncidentID: cfg.NewIncidentID,
	}
	if svc.logger == nil {
		svc.logger = log.Default()
	}
	if svc.destination == nil {
		svc.destination = func() string { return "" }
	}
	if svc.cooldown <= 0 {
		svc.cooldown = domain.CooldownWindow
	}
	if svc.relayTimeout <= 0 {
		svc.relayTimeout = defaultRelayTimeout
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	if svc.newIncidentID == nil {
		svc.newIncidentID = func() string { return uuid.NewString() }
	}
	return svc
}

// Submit validates rawBody, applies the per-source cooldown and relays the message.
// Input errors return before any side effect. The cooldown is consumed before the
// relay is attempted, so a failed relay still blocks the source for the window.
func (s *submissionService) Submit(ctx context.Context, rawBody []byte, headers domain.HeaderReader) error {
	submission, err := domain.ParseSubmission(rawBody)
	if err != nil {
		return err
	}

	destination := strings.TrimSpace(s.destination())
	if destination == "" {
		s.logger.Error("relay destination is not configured; rejecting submission")
		return domain.ErrNotConfigured
	}

	origin := s.resolveOrigin(headers)

	if err := s.consumeCooldown(ctx, origin.SourceKey); err != nil {
		return err
	}

	notification := domain.NewNotification(s.mention, submission, origin)
	if err := s.deliver(ctx, destination, notification); err != nil {
		incidentID := s.newIncidentID()
		s.logger.Error("relay failed", "source", origin.SourceKey, "incident", incidentID, "error", err)
		s.recordFailure(ctx, domain.RelayFailure{
			IncidentID: incidentID,
			SourceKey:  origin.SourceKey,
			Message:    submission.Message,
			Origin:     origin,
			Error:      err.Error(),
			OccurredAt: s.now().UTC(),
		})
		return fmt.Errorf("%w: %w", domain.ErrRelayFailed, err)
	}

	s.logger.Info("message relayed", "source", origin.SourceKey)
	return nil
}

func (s *submissionService) resolveOrigin(headers domain.HeaderReader) domain.RequestOrigin {
	origin := domain.OriginFromHeaders(headers)
	if s.geo == nil || !origin.MissingGeo() {
		return origin
	}
	if found, ok := s.geo.Lookup(origin.SourceKey); ok {
		origin = origin.Merge(found)
	}
	return origin
}

// consumeCooldown checks and then records the ledger entry for sourceKey.
// The two ledger calls are not atomic; concurrent requests for one key may both pass.
func (s *submissionService) consumeCooldown(ctx context.Context, sourceKey string) error {
	now := s.now()

	last, ok, err := s.ledger.LastAccepted(ctx, sourceKey)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrLedgerUnavailable, err)
	}
	if ok {
		if elapsed := now.Sub(last); elapsed < s.cooldown {
			s.logger.Warn("submission rate limited", "source", sourceKey, "elapsed", elapsed)
			return &domain.CooldownError{SourceKey: sourceKey, RetryAfter: s.cooldown - elapsed}
		}
	}

	if err := s.ledger.Record(ctx, sourceKey, now); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrLedgerUnavailable, err)
	}
	return nil
}

// deliver makes exactly one relay call. It is detached from the caller's
// cancellation and bounded by relayTimeout.
func (s *submissionService) deliver(ctx context.Context, destination string, notification domain.Notification) error {
	relayCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.relayTimeout)
	defer cancel()
	return s.relay.Deliver(relayCtx, destination, notification)
}

func (s *submissionService) recordFailure(ctx context.Context, failure domain.RelayFailure) {
	if s.failures == nil {
		return
	}
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.relayTimeout)
	defer cancel()
	if err := s.failures.RecordRelayFailure(recordCtx, failure); err != nil {
		s.logger.Error("failed to record relay failure", "incident", failure.IncidentID, "error", err)
	}
}
