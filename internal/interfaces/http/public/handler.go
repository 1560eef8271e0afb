package public

import (
	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	intakeapp "github.com/sngm3741/portfolio-services/api/internal/intake/application"
)

// Handler wires public HTTP endpoints to application services.
type Handler struct {
	logger      *log.Logger
	submissions intakeapp.SubmissionService
}

// Config defines dependencies required by Handler.
type Config struct {
	Logger      *log.Logger
	Submissions intakeapp.SubmissionService
}

// NewHandler constructs a public HTTP handler set.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{
		logger:      logger,
		submissions: cfg.Submissions,
	}
}

// Register mounts all public routes onto the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/message", h.messageSubmitHandler())
}
