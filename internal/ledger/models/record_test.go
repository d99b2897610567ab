package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cipherledger/internal/ciphertext"
	dErrors "cipherledger/pkg/domain-errors"
)

func handle() ciphertext.Handle {
	h := make(ciphertext.Handle, ciphertext.HandleSize)
	h[0] = ciphertext.HandleVersion
	h[1] = 1
	return h
}

func TestNewRecord(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	meta := Metadata{Fields: map[string]string{"subject": "Hi"}, Numbers: map[string]int64{"score": 73}}

	rec, err := NewRecord("email-1", handle(), meta, "0xalice", now)
	require.NoError(t, err)
	assert.False(t, rec.Verified)
	assert.Nil(t, rec.DisclosedValue)
	assert.Nil(t, rec.ClassificationFlag)

	meta.Fields["subject"] = "changed"
	assert.Equal(t, "Hi", rec.Metadata.Fields["subject"], "metadata is copied in")

	t.Run("rejects bad input", func(t *testing.T) {
		_, err := NewRecord("", handle(), meta, "0xalice", now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
		_, err = NewRecord("x", ciphertext.Handle{1, 2}, meta, "0xalice", now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
		_, err = NewRecord("x", handle(), meta, "", now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
		clash := Metadata{Fields: map[string]string{"k": "v"}, Numbers: map[string]int64{"k": 1}}
		_, err = NewRecord("x", handle(), clash, "0xalice", now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}

func TestRecord_ApplyDisclosureOnce(t *testing.T) {
	now := time.Now()
	rec, err := NewRecord("r", handle(), Metadata{}, "0xalice", now)
	require.NoError(t, err)

	require.NoError(t, rec.ApplyDisclosure(73, true, now))
	assert.True(t, rec.Verified)
	assert.Equal(t, uint64(73), *rec.DisclosedValue)
	assert.True(t, *rec.ClassificationFlag)

	assert.Error(t, rec.ApplyDisclosure(10, false, now))
	assert.Equal(t, uint64(73), *rec.DisclosedValue, "second application leaves state untouched")
}

func TestRecord_CloneIsDeep(t *testing.T) {
	rec, err := NewRecord("r", handle(), Metadata{Numbers: map[string]int64{"score": 1}}, "0xalice", time.Now())
	require.NoError(t, err)
	require.NoError(t, rec.ApplyDisclosure(5, false, time.Now()))

	c := rec.Clone()
	c.Handle[2] = 0xff
	c.Metadata.Numbers["score"] = 2
	*c.DisclosedValue = 6

	assert.Equal(t, byte(0), rec.Handle[2])
	assert.Equal(t, int64(1), rec.Metadata.Numbers["score"])
	assert.Equal(t, uint64(5), *rec.DisclosedValue)
}
