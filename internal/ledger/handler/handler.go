package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"cipherledger/internal/authz"
	"cipherledger/internal/ciphertext"
	"cipherledger/internal/ledger/models"
	"cipherledger/internal/platform/metrics"
	"cipherledger/internal/platform/middleware"
	"cipherledger/internal/ratelimit"
	id "cipherledger/pkg/domain"
	dErrors "cipherledger/pkg/domain-errors"
	"cipherledger/pkg/platform/httputil"
	"cipherledger/pkg/requestcontext"
)

// maxBodyBytes bounds request bodies; a disclosure is a few hundred bytes.
const maxBodyBytes = 64 << 10

// Service defines the ledger operations the handler exposes.
type Service interface {
	SubmitRecord(ctx context.Context, req models.SubmitRecordRequest) (*models.RecordCreated, error)
	SubmitDisclosureProof(ctx context.Context, recordID string, req models.SubmitDisclosureRequest) (*models.RecordVerified, error)
	ReadCiphertextHandle(ctx context.Context, recordID string) (ciphertext.Handle, error)
	ReadRecord(ctx context.Context, recordID string) (*models.Record, error)
	ListRecordIDs(ctx context.Context) ([]id.RecordID, error)
	HealthCheck(ctx context.Context) bool
}

// Handler serves the ledger HTTP API.
type Handler struct {
	logger    *slog.Logger
	ledger    Service
	metrics   *metrics.Metrics
	validator middleware.TokenValidator
	limiter   *ratelimit.Middleware
}

type Option func(*Handler)

// WithRateLimit throttles the mutation routes per authenticated caller.
func WithRateLimit(limiter *ratelimit.Middleware) Option {
	return func(h *Handler) {
		h.limiter = limiter
	}
}

func New(ledger Service, logger *slog.Logger, metrics *metrics.Metrics, validator middleware.TokenValidator, opts ...Option) *Handler {
	h := &Handler{
		logger:    logger,
		ledger:    ledger,
		metrics:   metrics,
		validator: validator,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the ledger routes. Mutations require an action token.
func (h *Handler) Register(r chi.Router) {
	router := chi.NewRouter()
	router.Use(middleware.Recovery(h.logger))
	router.Use(middleware.RequestID)
	router.Use(middleware.RequestTime)
	router.Use(middleware.Logger(h.logger))
	router.Use(middleware.Latency(h.metrics))

	router.Get("/healthz", h.handleHealth)
	router.Get("/records", h.handleListRecords)
	router.Get("/records/{id}", h.handleReadRecord)
	router.Get("/records/{id}/handle", h.handleReadHandle)
	router.With(middleware.RequireAction(h.validator, authz.ActionSubmitRecord, h.logger), h.limit(ratelimit.ClassSubmit)).
		Post("/records", h.handleSubmitRecord)
	router.With(middleware.RequireAction(h.validator, authz.ActionSubmitDisclosure, h.logger), h.limit(ratelimit.ClassDisclosure)).
		Post("/records/{id}/disclosure", h.handleSubmitDisclosure)

	r.Mount("/", router)
}

func (h *Handler) limit(class ratelimit.Class) func(http.Handler) http.Handler {
	if h.limiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return h.limiter.Limit(class)
}

func (h *Handler) handleSubmitRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req models.SubmitRecordRequest
	if !h.decode(w, r, &req) {
		return
	}
	created, err := h.ledger.SubmitRecord(ctx, req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleSubmitDisclosure(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req models.SubmitDisclosureRequest
	if !h.decode(w, r, &req) {
		return
	}
	verified, err := h.ledger.SubmitDisclosureProof(ctx, chi.URLParam(r, "id"), req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, verified)
}

func (h *Handler) handleReadRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := h.ledger.ReadRecord(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleReadHandle(w http.ResponseWriter, r *http.Request) {
	handle, err := h.ledger.ReadCiphertextHandle(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.HandleResponse{Handle: handle})
}

func (h *Handler) handleListRecords(w http.ResponseWriter, r *http.Request) {
	ids, err := h.ledger.ListRecordIDs(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	resp := models.ListResponse{IDs: make([]string, len(ids))}
	for i, recordID := range ids {
		resp.IDs[i] = recordID.String()
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !h.ledger.HealthCheck(r.Context()) {
		httputil.WriteJSON(w, http.StatusServiceUnavailable, models.HealthResponse{OK: false})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.HealthResponse{OK: true})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	ctx := r.Context()
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.logger.WarnContext(ctx, "invalid request body",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return false
	}
	return true
}
