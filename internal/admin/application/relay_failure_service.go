package application

import (
	"context"
	"fmt"
	"strings"

	admindomain "github.com/sngm3741/portfolio-services/api/internal/admin/domain"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

type relayFailureService struct {
	repo RelayFailureRepository
}

// NewRelayFailureService returns the admin use-case over repo.
func NewRelayFailureService(repo RelayFailureRepository) RelayFailureService {
	return &relayFailureService{repo: repo}
}

func (s *relayFailureService) List(ctx context.Context, filter RelayFailureFilter, paging Paging) ([]admindomain.RelayFailure, error) {
	return s.repo.Find(ctx, filter, normalisePaging(paging))
}

func (s *relayFailureService) UpdateStatus(ctx context.Context, id string, status string) (*admindomain.RelayFailure, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: id is required", ErrInvalidArgument)
	}
	parsed, err := admindomain.NewStatus(status)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	return s.repo.UpdateStatus(ctx, id, parsed)
}

func normalisePaging(paging Paging) Paging {
	if paging.Page < 1 {
		paging.Page = 1
	}
	if paging.Limit <= 0 {
		paging.Limit = defaultPageLimit
	}
	if paging.Limit > maxPageLimit {
		paging.Limit = maxPageLimit
	}
	return paging
}
