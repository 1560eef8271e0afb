package admin

import (
	"time"

	admindomain "github.com/sngm3741/portfolio-services/api/internal/admin/domain"
)

type relayFailureOriginResponse struct {
	Country   string `json:"country"`
	Region    string `json:"region"`
	City      string `json:"city"`
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
}

type relayFailureResponse struct {
	ID         string                     `json:"id"`
	IncidentID string                     `json:"incidentId"`
	SourceKey  string                     `json:"sourceKey"`
	Message    string                     `json:"message"`
	Origin     relayFailureOriginResponse `json:"origin"`
	Error      string                     `json:"error"`
	Attempts   int                        `json:"attempts"`
	Status     string                     `json:"status"`
	CreatedAt  time.Time                  `json:"createdAt"`
	UpdatedAt  time.Time                  `json:"updatedAt"`
}

type relayFailureListResponse struct {
	Items []relayFailureResponse `json:"items"`
	Page  int                    `json:"page"`
	Limit int                    `json:"limit"`
}

type relayFailureUpdateRequest struct {
	Status string `json:"status"`
}

// relayFailureDomainToResponse はドメインの RelayFailure を Admin UI 用レスポンスへ変換する。
func relayFailureDomainToResponse(failure admindomain.RelayFailure) relayFailureResponse {
	return relayFailureResponse{
		ID:         failure.ID,
		IncidentID: failure.IncidentID,
		SourceKey:  failure.SourceKey,
		Message:    failure.Message,
		Origin: relayFailureOriginResponse{
			Country:   failure.Country,
			Region:    failure.Region,
			City:      failure.City,
			Latitude:  failure.Latitude,
			Longitude: failure.Longitude,
		},
		Error:     failure.Error,
		Attempts:  failure.Attempts,
		Status:    failure.Status.String(),
		CreatedAt: failure.CreatedAt,
		UpdatedAt: failure.UpdatedAt,
	}
}
