package disclosure

import (
	"context"
	"crypto/ed25519"

	"cipherledger/internal/attest"
	"cipherledger/internal/ciphertext"
	"cipherledger/internal/sealing"
	dErrors "cipherledger/pkg/domain-errors"
)

// Oracle is a development decryption service: it opens handles with the
// network keyring and signs the ABI-encoded cleartexts.
type Oracle struct {
	keyring *sealing.Keyring
	signer  *attest.Signer
}

func NewOracle(keyring *sealing.Keyring, signer *attest.Signer) *Oracle {
	return &Oracle{keyring: keyring, signer: signer}
}

func (o *Oracle) PublicKey() ed25519.PublicKey {
	return o.signer.PublicKey()
}

// Disclose decrypts handles under encCtx and returns a signed bundle.
func (o *Oracle) Disclose(ctx context.Context, encCtx ciphertext.Context, handles []ciphertext.Handle) (ProofBundle, error) {
	if err := ctx.Err(); err != nil {
		return ProofBundle{}, dErrors.Wrap(err, dErrors.CodeProofTimeout, "disclosure cancelled")
	}
	if len(handles) == 0 {
		return ProofBundle{}, dErrors.New(dErrors.CodeBadRequest, "at least one handle is required")
	}
	values := make([]uint64, len(handles))
	owned := make([]ciphertext.Handle, len(handles))
	for i, h := range handles {
		parsed, err := ciphertext.ParseHandle(h)
		if err != nil {
			return ProofBundle{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid ciphertext handle")
		}
		v, err := o.keyring.Open(encCtx, parsed)
		if err != nil {
			return ProofBundle{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "handle cannot be decrypted under this context")
		}
		values[i] = v
		owned[i] = parsed
	}
	b := ProofBundle{Handles: owned, Cleartexts: ciphertext.EncodeCleartexts(values...)}
	b.Signatures = o.signer.Sign(b.Digest(encCtx))
	return b, nil
}
