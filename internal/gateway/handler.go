package gateway

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"cipherledger/internal/ciphertext"
	id "cipherledger/pkg/domain"
	dErrors "cipherledger/pkg/domain-errors"
	"cipherledger/pkg/platform/httputil"
	"cipherledger/pkg/requestcontext"
)

// Handler serves the relayer protocol that Remote speaks.
type Handler struct {
	gateway Encrypter
	logger  *slog.Logger
}

func NewHandler(gateway Encrypter, logger *slog.Logger) *Handler {
	return &Handler{gateway: gateway, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/v1/encrypt", h.handleEncrypt)
}

func (h *Handler) handleEncrypt(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	var req EncryptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid encrypt request",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	caller, err := id.ParseIdentity(req.Caller)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	encCtx := ciphertext.Context{ChainID: req.ChainID, LedgerAddress: req.LedgerAddress}
	handle, proof, err := h.gateway.Encrypt(ctx, encCtx, caller, req.Value)
	if err != nil {
		h.logger.WarnContext(ctx, "encrypt failed",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, EncryptResponse{Handle: handle, InclusionProof: proof})
}
