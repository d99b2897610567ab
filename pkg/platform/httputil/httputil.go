// Package httputil writes JSON responses and coded error bodies.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "cipherledger/pkg/domain-errors"
)

// ErrorResponse is the wire shape of every error body.
type ErrorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

// StatusFor maps a domain code to an HTTP status.
func StatusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeBadRequest, dErrors.CodeEncodingError, dErrors.CodeMalformedCleartext:
		return http.StatusBadRequest
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeTransportRejected:
		return http.StatusForbidden
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeAlreadyExists, dErrors.CodeAlreadyVerified:
		return http.StatusConflict
	case dErrors.CodeHandleMismatch, dErrors.CodeInvalidProof:
		return http.StatusUnprocessableEntity
	case dErrors.CodeGatewayUnavailable:
		return http.StatusServiceUnavailable
	case dErrors.CodeProofTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// WriteError writes err as a coded JSON body. Internal errors never leak
// their description.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	resp := ErrorResponse{Error: string(code)}
	if code != dErrors.CodeInternal {
		var de *dErrors.Error
		if errors.As(err, &de) {
			resp.Description = de.Message
		}
	}
	WriteJSON(w, StatusFor(code), resp)
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// DecodeError turns an error body received from a peer back into a domain error.
// Unknown or missing codes become CodeInternal.
func DecodeError(status int, body []byte) error {
	var resp ErrorResponse
	if err := json.Unmarshal(body, &resp); err != nil || resp.Error == "" {
		return dErrors.New(dErrors.CodeInternal, http.StatusText(status))
	}
	msg := resp.Description
	if msg == "" {
		msg = http.StatusText(status)
	}
	return dErrors.New(dErrors.Code(resp.Error), msg)
}
