package disclosure

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"cipherledger/internal/ciphertext"
	dErrors "cipherledger/pkg/domain-errors"
	"cipherledger/pkg/platform/httputil"
	"cipherledger/pkg/requestcontext"
)

// Discloser produces signed disclosures. Oracle implements it.
type Discloser interface {
	Disclose(ctx context.Context, encCtx ciphertext.Context, handles []ciphertext.Handle) (ProofBundle, error)
}

// KeyResponse publishes the oracle's signing key for ledger configuration.
type KeyResponse struct {
	PublicKey string `json:"public_key"`
}

// Handler serves the decryption protocol Requester speaks.
type Handler struct {
	oracle    Discloser
	publicKey []byte
	logger    *slog.Logger
}

func NewHandler(oracle Discloser, publicKey []byte, logger *slog.Logger) *Handler {
	return &Handler{oracle: oracle, publicKey: publicKey, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/v1/decrypt", h.handleDecrypt)
	r.Get("/v1/keys", h.handleKeys)
}

func (h *Handler) handleDecrypt(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	var req DecryptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid decrypt request",
			"request_id", requestID,
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	encCtx := ciphertext.Context{ChainID: req.ChainID, LedgerAddress: req.LedgerAddress}
	bundle, err := h.oracle.Disclose(ctx, encCtx, req.Handles)
	if err != nil {
		h.logger.WarnContext(ctx, "disclosure refused",
			"request_id", requestID,
			"handles", len(req.Handles),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "disclosure signed",
		"request_id", requestID,
		"context", encCtx.String(),
		"handles", len(bundle.Handles),
	)
	httputil.WriteJSON(w, http.StatusOK, bundle)
}

func (h *Handler) handleKeys(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, KeyResponse{PublicKey: base64.StdEncoding.EncodeToString(h.publicKey)})
}
