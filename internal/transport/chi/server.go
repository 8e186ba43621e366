package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/TanishqMishra12/VAYO/internal/domain"
	healthuc "github.com/TanishqMishra12/VAYO/internal/usecase/health"
	taskuc "github.com/TanishqMishra12/VAYO/internal/usecase/task"
)

const (
	defaultPopularLimit = 10
	maxPopularLimit     = 50
	maxBodyBytes        = 64 << 10
)

// Tasks submits match tasks and reports their status.
type Tasks interface {
	Submit(ctx context.Context, profile domain.UserProfile) (domain.Ticket, error)
	Status(ctx context.Context, taskID string) (taskuc.StatusView, error)
}

// PopularCommunities lists the most popular communities.
type PopularCommunities interface {
	Popular(ctx context.Context, limit int) ([]domain.Community, error)
}

// Broadcasts reads and follows per-user match payloads.
type Broadcasts interface {
	Latest(ctx context.Context, userID string) ([]byte, error)
	Subscribe(ctx context.Context, userID string, ready func(), fn func(message []byte)) error
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// Server holds the HTTP handlers of the matcher API.
type Server struct {
	tasks         Tasks
	popular       PopularCommunities
	broadcasts    Broadcasts
	health        HealthChecker
	validate      *validator.Validate
	upgrader      websocket.Upgrader
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	tasks Tasks,
	popular PopularCommunities,
	broadcasts Broadcasts,
	health HealthChecker,
	logger *zap.Logger,
) *Server {
	s := &Server{
		tasks:      tasks,
		popular:    popular,
		broadcasts: broadcasts,
		health:     health,
		validate:   newValidator(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, ErrorCodeNotFound),
		sentinelHandler(domain.ErrInvalidProfile, http.StatusBadRequest, ErrorCodeValidationFailed),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, ErrorCodeRateLimited),
	}
	return s
}

// SubmitMatch handles POST /api/v1/match.
func (s *Server) SubmitMatch(w http.ResponseWriter, r *http.Request) {
	var profile domain.UserProfile
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&profile); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := s.validate.Struct(profile); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, validationMessage(err))
		return
	}

	ticket, err := s.tasks.Submit(r.Context(), profile)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, ticket)
}

// GetMatchStatus handles GET /api/v1/match/{task_id}.
func (s *Server) GetMatchStatus(w http.ResponseWriter, r *http.Request) {
	var taskID string
	if err := bindPathParam(r, "task_id", &taskID); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
		return
	}
	if err := s.validate.Var(taskID, "required,uuid"); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "task_id must be a UUID")
		return
	}

	view, err := s.tasks.Status(r.Context(), taskID)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// PopularCommunitiesResponse is the body of GET /api/v1/popular-communities.
type PopularCommunitiesResponse struct {
	Communities []domain.Community `json:"communities"`
}

// ListPopularCommunities handles GET /api/v1/popular-communities.
func (s *Server) ListPopularCommunities(w http.ResponseWriter, r *http.Request) {
	var limit *int
	if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &limit); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid format for parameter limit: "+err.Error())
		return
	}

	n := defaultPopularLimit
	if limit != nil {
		n = *limit
	}
	if n < 1 || n > maxPopularLimit {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed,
			fmt.Sprintf("limit must be between 1 and %d", maxPopularLimit))
		return
	}

	cs, err := s.popular.Popular(r.Context(), n)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if cs == nil {
		cs = []domain.Community{}
	}

	writeJSON(w, http.StatusOK, PopularCommunitiesResponse{Communities: cs})
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status healthuc.Status                 `json:"status"`
	Checks map[string]healthuc.CheckResult `json:"checks"`
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{Status: report.Status, Checks: report.Checks})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}

// bindPathParam binds a simple-style path parameter the way generated chi servers do.
func bindPathParam(r *http.Request, name string, dest any) error {
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), dest,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return fmt.Errorf("invalid format for parameter %s: %w", name, err)
	}
	return nil
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validationMessage flattens validator errors into "field: rule" pairs.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, len(verrs))
	for i, fe := range verrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		parts[i] = fe.Field() + ": " + rule
	}
	return strings.Join(parts, "; ")
}
