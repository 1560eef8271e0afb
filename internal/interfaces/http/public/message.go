package public

import (
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"

	"github.com/sngm3741/portfolio-services/api/internal/intake/domain"
	"github.com/sngm3741/portfolio-services/api/internal/interfaces/http/common"
)

func (h *Handler) messageSubmitHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()

		raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, common.MaxMessageRequestBody))
		if err != nil {
			common.WriteError(h.logger, w, http.StatusBadRequest, errInvalidJSON)
			return
		}

		if err := h.submissions.Submit(r.Context(), raw, r.Header); err != nil {
			h.writeSubmitError(w, err)
			return
		}

		common.WriteJSON(h.logger, w, http.StatusOK, messageAcceptedResponse{OK: true})
	}
}

// writeSubmitError maps the intake error taxonomy onto HTTP status codes.
func (h *Handler) writeSubmitError(w http.ResponseWriter, err error) {
	status, message := submitErrorResponse(err)

	var cooldown *domain.CooldownError
	if errors.As(err, &cooldown) && cooldown.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(cooldown.RetryAfter.Seconds()))))
	}
	switch {
	case domain.IsClientError(err):
		h.logger.Debug("message submission rejected", "status", status, "error", err)
	case status == http.StatusInternalServerError && !errors.Is(err, domain.ErrNotConfigured):
		h.logger.Error("message submission failed", "error", err)
	}

	common.WriteError(h.logger, w, status, message)
}

func submitErrorResponse(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrMalformedInput):
		return http.StatusBadRequest, errInvalidJSON
	case errors.Is(err, domain.ErrInvalidField):
		return http.StatusBadRequest, errMessageNotString
	case errors.Is(err, domain.ErrEmptyMessage):
		return http.StatusBadRequest, errMessageRequired
	case errors.Is(err, domain.ErrMessageTooLong):
		return http.StatusBadRequest, errMessageTooLong
	case errors.Is(err, domain.ErrNotConfigured):
		return http.StatusInternalServerError, errWebhookNotConfigured
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests, errTooManyRequests
	case errors.Is(err, domain.ErrRelayFailed):
		return http.StatusBadGateway, errWebhookFailed
	default:
		return http.StatusInternalServerError, errInternal
	}
}
