package application

import (
	"context"
	"errors"

	admindomain "github.com/sngm3741/portfolio-services/api/internal/admin/domain"
)

var (
	// ErrNotFound is returned when a relay failure id does not exist.
	ErrNotFound = errors.New("relay failure not found")
	// ErrInvalidArgument marks malformed ids or status values.
	ErrInvalidArgument = errors.New("invalid argument")
)

// RelayFailureRepository exposes admin operations on recorded relay failures.
type RelayFailureRepository interface {
	Find(ctx context.Context, filter RelayFailureFilter, paging Paging) ([]admindomain.RelayFailure, error)
	UpdateStatus(ctx context.Context, id string, status admindomain.Status) (*admindomain.RelayFailure, error)
}

// RelayFailureFilter expresses admin search criteria.
type RelayFailureFilter struct {
	Status    admindomain.Status
	SourceKey string
}

// Paging controls pagination.
type Paging struct {
	Page  int
	Limit int
}

// RelayFailureService describes admin relay-failure use-cases.
type RelayFailureService interface {
	List(ctx context.Context, filter RelayFailureFilter, paging Paging) ([]admindomain.RelayFailure, error)
	UpdateStatus(ctx context.Context, id string, status string) (*admindomain.RelayFailure, error)
}
