package ciphertext

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

const (
	HandleVersion = 1
	NonceSize     = 12
	sealedSize    = 8 + 16
	HeaderSize    = 2
	HandleSize    = HeaderSize + NonceSize + sealedSize
)

var ErrMalformedHandle = errors.New("malformed ciphertext handle")

// Handle is an opaque reference to one encrypted scalar.
type Handle []byte

// ParseHandle validates the layout and width of raw handle bytes.
func ParseHandle(b []byte) (Handle, error) {
	if len(b) != HandleSize {
		return nil, fmt.Errorf("%w: length %d", ErrMalformedHandle, len(b))
	}
	if b[0] != HandleVersion {
		return nil, fmt.Errorf("%w: version %d", ErrMalformedHandle, b[0])
	}
	if _, err := ParseWidth(int(b[1]) * 8); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedHandle, err)
	}
	return bytes.Clone(b), nil
}

// ParseHandleHex parses the 0x-prefixed (or bare) hex form.
func ParseHandleHex(s string) (Handle, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedHandle, err)
	}
	return ParseHandle(raw)
}

// Width is the declared scalar width. Only valid on parsed handles.
func (h Handle) Width() Width { return Width(h[1] * 8) }

// Header is the authenticated prefix.
func (h Handle) Header() []byte { return h[:HeaderSize] }

func (h Handle) Nonce() []byte { return h[HeaderSize : HeaderSize+NonceSize] }

func (h Handle) Sealed() []byte { return h[HeaderSize+NonceSize:] }

func (h Handle) Hex() string { return "0x" + hex.EncodeToString(h) }

func (h Handle) String() string { return h.Hex() }

func (h Handle) Equal(other Handle) bool { return bytes.Equal(h, other) }

// MarshalText encodes as hex so handles read well in JSON.
func (h Handle) MarshalText() ([]byte, error) { return []byte(h.Hex()), nil }

func (h *Handle) UnmarshalText(text []byte) error {
	parsed, err := ParseHandleHex(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// Clone returns an independent copy.
func (h Handle) Clone() Handle { return bytes.Clone(h) }

// EqualSequence reports whether a and b hold the same handles in the same order.
func EqualSequence(a, b []Handle) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
