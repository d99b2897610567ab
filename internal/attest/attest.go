// Package attest signs and verifies the two statements the protocol relies on:
// the gateway's inclusion proof (this handle was produced for this caller under
// this context) and the decryption service's disclosure proof (these ABI
// cleartexts are the decryption of exactly these handles).
//
// A signature set is a versioned list of (public key, signature) pairs so a
// verifier can require a threshold of distinct trusted signers.
package attest

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"cipherledger/internal/ciphertext"
	id "cipherledger/pkg/domain"
)

const (
	setVersion = 1
	entrySize  = ed25519.PublicKeySize + ed25519.SignatureSize
	maxSigners = 32
)

var (
	ErrInvalidEncoding  = errors.New("invalid signature set encoding")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrBelowThreshold   = errors.New("not enough trusted signatures")
)

// InclusionDigest is what the gateway signs for a fresh handle.
func InclusionDigest(ctx ciphertext.Context, caller id.Identity, h ciphertext.Handle) []byte {
	d := sha256.New()
	d.Write([]byte("cipherledger/inclusion/v1"))
	ctxID := ctx.ID()
	d.Write(ctxID[:])
	writeLenPrefixed(d, []byte(caller))
	writeLenPrefixed(d, h)
	return d.Sum(nil)
}

// DisclosureDigest is what decryption oracles sign for a disclosure.
func DisclosureDigest(ctx ciphertext.Context, handles []ciphertext.Handle, cleartexts []byte) []byte {
	d := sha256.New()
	d.Write([]byte("cipherledger/disclosure/v1"))
	ctxID := ctx.ID()
	d.Write(ctxID[:])
	var n [4]byte
	binary.BigEndian.PutUint32(n[:], uint32(len(handles)))
	d.Write(n[:])
	for _, h := range handles {
		writeLenPrefixed(d, h)
	}
	writeLenPrefixed(d, cleartexts)
	return d.Sum(nil)
}

type writer interface{ Write([]byte) (int, error) }

func writeLenPrefixed(w writer, b []byte) {
	var n [4]byte
	binary.BigEndian.PutUint32(n[:], uint32(len(b)))
	w.Write(n[:])
	w.Write(b)
}

// Signer holds one ed25519 key.
type Signer struct {
	key ed25519.PrivateKey
}

func NewSigner(key ed25519.PrivateKey) *Signer {
	return &Signer{key: key}
}

// SignerFromSeed builds a signer from a base64 32-byte seed.
func SignerFromSeed(seedB64 string) (*Signer, error) {
	seed, err := base64.StdEncoding.DecodeString(strings.TrimSpace(seedB64))
	if err != nil || len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("%w: seed must be %d base64 bytes", ErrInvalidEncoding, ed25519.SeedSize)
	}
	return NewSigner(ed25519.NewKeyFromSeed(seed)), nil
}

// DevSigner derives a deterministic signer for role from a shared secret. It
// exists for local runs where no seed is configured.
func DevSigner(role, secret string) *Signer {
	seed := sha256.Sum256([]byte("cipherledger/dev-key/" + role + "/" + secret))
	return NewSigner(ed25519.NewKeyFromSeed(seed[:]))
}

// GenerateSeed returns a fresh base64 seed and its base64 public key.
func GenerateSeed() (seedB64, publicKeyB64 string, err error) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return "", "", err
	}
	return base64.StdEncoding.EncodeToString(priv.Seed()), EncodePublicKey(pub), nil
}

// EncodePublicKey is the inverse of ParsePublicKey.
func EncodePublicKey(k ed25519.PublicKey) string {
	return base64.StdEncoding.EncodeToString(k)
}

// ParsePublicKey decodes a base64 ed25519 public key.
func ParsePublicKey(b64 string) (ed25519.PublicKey, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(b64))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: public key length %d", ErrInvalidEncoding, len(raw))
	}
	return ed25519.PublicKey(raw), nil
}

func (s *Signer) PublicKey() ed25519.PublicKey {
	return s.key.Public().(ed25519.PublicKey)
}

// Sign returns a one-entry signature set over digest.
func (s *Signer) Sign(digest []byte) []byte {
	return EncodeSet(Entry{PublicKey: s.PublicKey(), Signature: ed25519.Sign(s.key, digest)})
}

// Entry is one signer's contribution to a set.
type Entry struct {
	PublicKey ed25519.PublicKey
	Signature []byte
}

// EncodeSet serializes entries as version || count || (pubkey || sig)*.
func EncodeSet(entries ...Entry) []byte {
	out := make([]byte, 2, 2+len(entries)*entrySize)
	out[0] = setVersion
	out[1] = byte(len(entries))
	for _, e := range entries {
		out = append(out, e.PublicKey...)
		out = append(out, e.Signature...)
	}
	return out
}

// DecodeSet parses a signature set.
func DecodeSet(b []byte) ([]Entry, error) {
	if len(b) < 2 || b[0] != setVersion {
		return nil, ErrInvalidEncoding
	}
	n := int(b[1])
	if n == 0 || n > maxSigners || len(b) != 2+n*entrySize {
		return nil, ErrInvalidEncoding
	}
	entries := make([]Entry, n)
	for i := range entries {
		off := 2 + i*entrySize
		entries[i] = Entry{
			PublicKey: ed25519.PublicKey(b[off : off+ed25519.PublicKeySize]),
			Signature: b[off+ed25519.PublicKeySize : off+entrySize],
		}
	}
	return entries, nil
}

// MergeSets concatenates the entries of several one-signer sets, as a relayer
// would when collecting shares from multiple oracles.
func MergeSets(sets ...[]byte) ([]byte, error) {
	var all []Entry
	for _, s := range sets {
		entries, err := DecodeSet(s)
		if err != nil {
			return nil, err
		}
		all = append(all, entries...)
	}
	if len(all) > maxSigners {
		return nil, ErrInvalidEncoding
	}
	return EncodeSet(all...), nil
}

// Verifier accepts a set when at least threshold distinct trusted keys signed
// the digest. Entries from untrusted keys are ignored; a trusted key with a
// bad signature fails the whole set.
type Verifier struct {
	trusted   map[string]struct{}
	threshold int
}

func NewVerifier(threshold int, keys ...ed25519.PublicKey) (*Verifier, error) {
	if threshold < 1 {
		return nil, fmt.Errorf("threshold must be at least 1, got %d", threshold)
	}
	trusted := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if len(k) != ed25519.PublicKeySize {
			return nil, fmt.Errorf("%w: public key length %d", ErrInvalidEncoding, len(k))
		}
		trusted[string(k)] = struct{}{}
	}
	if len(trusted) < threshold {
		return nil, fmt.Errorf("threshold %d exceeds %d trusted keys", threshold, len(trusted))
	}
	return &Verifier{trusted: trusted, threshold: threshold}, nil
}

// VerifierFromBase64 parses base64 public keys.
func VerifierFromBase64(threshold int, keysB64 ...string) (*Verifier, error) {
	keys := make([]ed25519.PublicKey, 0, len(keysB64))
	for _, k := range keysB64 {
		key, err := ParsePublicKey(k)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return NewVerifier(threshold, keys...)
}

func (v *Verifier) Verify(digest, set []byte) error {
	entries, err := DecodeSet(set)
	if err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		key := string(e.PublicKey)
		if _, ok := v.trusted[key]; !ok {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		if !ed25519.Verify(e.PublicKey, digest, e.Signature) {
			return ErrInvalidSignature
		}
		seen[key] = struct{}{}
	}
	if len(seen) < v.threshold {
		return ErrBelowThreshold
	}
	return nil
}
