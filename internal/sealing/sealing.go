// Package sealing is the in-process stand-in for the homomorphic encryption
// service: it seals scalars into ciphertext handles and opens them again.
// Keys are derived per encryption context from a network secret, so a handle
// sealed under one context cannot be opened under another.
package sealing

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"cipherledger/internal/ciphertext"
)

var (
	ErrValueOutOfRange = errors.New("value does not fit declared width")
	ErrOpen            = errors.New("cannot open ciphertext handle")
)

// Keyring derives context keys from the network secret.
type Keyring struct {
	secret []byte
	rand   io.Reader
}

func NewKeyring(networkSecret []byte) *Keyring {
	return &Keyring{secret: append([]byte(nil), networkSecret...), rand: rand.Reader}
}

// WithRand swaps the nonce source, for deterministic tests.
func (k *Keyring) WithRand(r io.Reader) *Keyring {
	return &Keyring{secret: k.secret, rand: r}
}

func (k *Keyring) contextKey(ctx ciphertext.Context) ([]byte, error) {
	id := ctx.ID()
	key := make([]byte, chacha20poly1305.KeySize)
	r := hkdf.New(sha256.New, k.secret, id[:], []byte("cipherledger/sealing/v1"))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive context key: %w", err)
	}
	return key, nil
}

func additionalData(ctx ciphertext.Context, header []byte) []byte {
	id := ctx.ID()
	return append(id[:], header...)
}

// Seal encrypts value as a handle of the given width under ctx.
func (k *Keyring) Seal(ctx ciphertext.Context, width ciphertext.Width, value uint64) (ciphertext.Handle, error) {
	if !width.Fits(value) {
		return nil, fmt.Errorf("%w: %d exceeds %s", ErrValueOutOfRange, value, width)
	}
	key, err := k.contextKey(ctx)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}

	h := make(ciphertext.Handle, ciphertext.HeaderSize+ciphertext.NonceSize, ciphertext.HandleSize)
	h[0] = ciphertext.HandleVersion
	h[1] = byte(width.Bytes())
	if _, err := io.ReadFull(k.rand, h[ciphertext.HeaderSize:]); err != nil {
		return nil, fmt.Errorf("read nonce: %w", err)
	}
	var plain [8]byte
	binary.BigEndian.PutUint64(plain[:], value)
	h = aead.Seal(h, h.Nonce(), plain[:], additionalData(ctx, h.Header()))
	return h, nil
}

// Open decrypts a handle sealed under ctx.
func (k *Keyring) Open(ctx ciphertext.Context, h ciphertext.Handle) (uint64, error) {
	parsed, err := ciphertext.ParseHandle(h)
	if err != nil {
		return 0, err
	}
	key, err := k.contextKey(ctx)
	if err != nil {
		return 0, err
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return 0, err
	}
	plain, err := aead.Open(nil, parsed.Nonce(), parsed.Sealed(), additionalData(ctx, parsed.Header()))
	if err != nil {
		return 0, ErrOpen
	}
	v := binary.BigEndian.Uint64(plain)
	if !parsed.Width().Fits(v) {
		return 0, ErrOpen
	}
	return v, nil
}
