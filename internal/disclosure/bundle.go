// Package disclosure covers the off-ledger half of a disclosure: the proof
// bundle a decryption service produces, a local development oracle that
// produces it, and the HTTP client and handler that carry it.
package disclosure

import (
	"cipherledger/internal/attest"
	"cipherledger/internal/ciphertext"
)

// ProofBundle asserts that Cleartexts (ABI words, one per handle) is the
// decryption of Handles. It is produced once, consumed once and not persisted.
type ProofBundle struct {
	Handles    []ciphertext.Handle `json:"handles"`
	Cleartexts []byte              `json:"cleartexts"`
	Signatures []byte              `json:"signatures"`
}

// Digest is the message the signatures must cover under encCtx.
func (b ProofBundle) Digest(encCtx ciphertext.Context) []byte {
	return attest.DisclosureDigest(encCtx, b.Handles, b.Cleartexts)
}
