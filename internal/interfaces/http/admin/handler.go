package admin

import (
	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	adminapp "github.com/sngm3741/portfolio-services/api/internal/admin/application"
)

// Handler wires admin HTTP endpoints to application services.
type Handler struct {
	logger        *log.Logger
	relayFailures adminapp.RelayFailureService
}

// Config provides dependencies for Handler.
type Config struct {
	Logger        *log.Logger
	RelayFailures adminapp.RelayFailureService
}

// NewHandler constructs an admin HTTP handler set.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{
		logger:        logger,
		relayFailures: cfg.RelayFailures,
	}
}

// Register mounts admin routes onto router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/relay-failures", h.relayFailureListHandler())
	r.Patch("/relay-failures/{id}", h.relayFailureUpdateHandler())
}
