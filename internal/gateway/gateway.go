// Package gateway is the boundary adapter to the encryption service. It turns
// a cleartext scalar into a ciphertext handle plus an inclusion proof bound to
// the encryption context and the caller identity, and verifies such proofs on
// the ledger side. It keeps no state between calls.
package gateway

import (
	"context"
	"crypto/ed25519"
	"errors"

	"cipherledger/internal/attest"
	"cipherledger/internal/ciphertext"
	"cipherledger/internal/sealing"
	id "cipherledger/pkg/domain"
	dErrors "cipherledger/pkg/domain-errors"
)

// InclusionProof is the gateway's signature set over (context, caller, handle).
type InclusionProof []byte

// Encrypter is the contract both the in-process and remote gateways satisfy.
type Encrypter interface {
	Encrypt(ctx context.Context, encCtx ciphertext.Context, caller id.Identity, value uint64) (ciphertext.Handle, InclusionProof, error)
}

// Local seals in process with a network keyring and signs inclusion proofs.
type Local struct {
	keyring *sealing.Keyring
	signer  *attest.Signer
	width   ciphertext.Width
}

func NewLocal(keyring *sealing.Keyring, signer *attest.Signer, width ciphertext.Width) *Local {
	return &Local{keyring: keyring, signer: signer, width: width}
}

func (g *Local) Encrypt(ctx context.Context, encCtx ciphertext.Context, caller id.Identity, value uint64) (ciphertext.Handle, InclusionProof, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeGatewayUnavailable, "encrypt cancelled")
	}
	if caller.IsZero() {
		return nil, nil, dErrors.New(dErrors.CodeEncodingError, "caller identity is required")
	}
	h, err := g.keyring.Seal(encCtx, g.width, value)
	if err != nil {
		if errors.Is(err, sealing.ErrValueOutOfRange) {
			return nil, nil, dErrors.Wrap(err, dErrors.CodeEncodingError, "value out of range for "+g.width.String())
		}
		return nil, nil, dErrors.Wrap(err, dErrors.CodeGatewayUnavailable, "seal failed")
	}
	proof := g.signer.Sign(attest.InclusionDigest(encCtx, caller, h))
	return h, InclusionProof(proof), nil
}

// InclusionVerifier checks inclusion proofs against the gateway's public key(s).
type InclusionVerifier struct {
	verifier *attest.Verifier
}

func NewInclusionVerifier(keys ...ed25519.PublicKey) (*InclusionVerifier, error) {
	v, err := attest.NewVerifier(1, keys...)
	if err != nil {
		return nil, err
	}
	return &InclusionVerifier{verifier: v}, nil
}

// VerifyInclusion fails with CodeInvalidProof unless proof binds h to encCtx and caller.
func (v *InclusionVerifier) VerifyInclusion(encCtx ciphertext.Context, caller id.Identity, h ciphertext.Handle, proof InclusionProof) error {
	if err := v.verifier.Verify(attest.InclusionDigest(encCtx, caller, h), proof); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInvalidProof, "inclusion proof rejected")
	}
	return nil
}
