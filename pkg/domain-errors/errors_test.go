package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	t.Run("plain error defaults to internal", func(t *testing.T) {
		assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
	})

	t.Run("code survives fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("submit: %w", New(CodeAlreadyExists, "record exists"))
		assert.Equal(t, CodeAlreadyExists, CodeOf(err))
		assert.True(t, HasCode(err, CodeAlreadyExists))
	})

	t.Run("wrap keeps the cause", func(t *testing.T) {
		cause := errors.New("dial tcp: refused")
		err := Wrap(cause, CodeGatewayUnavailable, "gateway down")
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, CodeGatewayUnavailable, CodeOf(err))
	})

	t.Run("wrap of nil is nil", func(t *testing.T) {
		assert.NoError(t, Wrap(nil, CodeInternal, "nothing"))
	})

	t.Run("nil has no code", func(t *testing.T) {
		assert.False(t, HasCode(nil, CodeInternal))
	})
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(New(CodeGatewayUnavailable, "x")))
	assert.True(t, IsTransient(New(CodeProofTimeout, "x")))
	for _, code := range []Code{
		CodeAlreadyExists, CodeNotFound, CodeAlreadyVerified, CodeHandleMismatch,
		CodeInvalidProof, CodeMalformedCleartext, CodeEncodingError, CodeTransportRejected,
	} {
		assert.False(t, IsTransient(New(code, "x")), code)
	}
}

func TestIsBenignRace(t *testing.T) {
	assert.True(t, IsBenignRace(New(CodeAlreadyExists, "x")))
	assert.True(t, IsBenignRace(New(CodeAlreadyVerified, "x")))
	assert.False(t, IsBenignRace(New(CodeInvalidProof, "x")))
}
