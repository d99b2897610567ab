package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "cipherledger/pkg/domain-errors"
)

// TestParseRecordID_Invariants validates the parsing invariant:
// "record ids are non-empty, bounded, printable tokens"
func TestParseRecordID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseRecordID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	t.Run("rejects surrounding whitespace", func(t *testing.T) {
		_, err := ParseRecordID(" email-1")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	t.Run("rejects inner whitespace and control characters", func(t *testing.T) {
		for _, in := range []string{"email 1", "email\x00", "a\tb"} {
			_, err := ParseRecordID(in)
			assert.Error(t, err, in)
		}
	})

	t.Run("rejects overlong ids", func(t *testing.T) {
		_, err := ParseRecordID(strings.Repeat("a", MaxRecordIDLength+1))
		require.Error(t, err)
	})

	t.Run("accepts a plain id", func(t *testing.T) {
		id, err := ParseRecordID("email-1")
		require.NoError(t, err)
		assert.Equal(t, RecordID("email-1"), id)
		assert.False(t, id.IsZero())
	})
}

func TestParseIdentity(t *testing.T) {
	id, err := ParseIdentity("0x8ba1f109551bD432803012645Ac136ddd64DBA72")
	require.NoError(t, err)
	assert.Equal(t, "0x8ba1f109551bD432803012645Ac136ddd64DBA72", id.String())

	_, err = ParseIdentity("")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
}
