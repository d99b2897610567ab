package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "cipherledger/pkg/domain-errors"
)

func TestWriteError(t *testing.T) {
	t.Run("internal error omits description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeInternal, "db failed"))

		require.Equal(t, http.StatusInternalServerError, w.Code)
		var body map[string]string
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "internal_error", body["error"])
		_, ok := body["error_description"]
		assert.False(t, ok, "expected error_description to be omitted for internal errors")
	})

	t.Run("conflict kinds include description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeAlreadyVerified, "record already verified"))

		require.Equal(t, http.StatusConflict, w.Code)
		var body map[string]string
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, "already_verified", body["error"])
		assert.Equal(t, "record already verified", body["error_description"])
	})

	t.Run("plain errors are internal", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, assert.AnError)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestDecodeError_RoundTrip(t *testing.T) {
	for _, code := range []dErrors.Code{
		dErrors.CodeAlreadyExists, dErrors.CodeNotFound, dErrors.CodeInvalidProof,
		dErrors.CodeProofTimeout, dErrors.CodeGatewayUnavailable,
	} {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(code, "x"))
		err := DecodeError(w.Code, w.Body.Bytes())
		assert.True(t, dErrors.HasCode(err, code), code)
	}

	err := DecodeError(http.StatusBadGateway, []byte("<html>"))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
}
