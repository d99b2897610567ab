package ciphertext

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// Context is the public encryption context a handle is bound to: the
// deployment (chain) and the ledger instance (tenant). Handles produced under
// one context never verify under another.
type Context struct {
	ChainID       uint64 `json:"chain_id"`
	LedgerAddress string `json:"ledger_address"`
}

// ID is the canonical 32-byte identifier of the context.
func (c Context) ID() [32]byte {
	h := sha256.New()
	h.Write([]byte("cipherledger/context/v1"))
	var chain [8]byte
	binary.BigEndian.PutUint64(chain[:], c.ChainID)
	h.Write(chain[:])
	h.Write([]byte(c.LedgerAddress))
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

func (c Context) String() string {
	id := c.ID()
	return hex.EncodeToString(id[:8])
}
