package models

import (
	"cipherledger/internal/ciphertext"
)

// SubmitRecordRequest creates a record from a gateway-produced handle.
type SubmitRecordRequest struct {
	ID             string            `json:"id"`
	Handle         ciphertext.Handle `json:"handle"`
	InclusionProof []byte            `json:"inclusion_proof"`
	Metadata       Metadata          `json:"metadata"`
}

// SubmitDisclosureRequest carries a decryption proof. Handles may be omitted;
// the ledger then uses the record's stored handles.
type SubmitDisclosureRequest struct {
	Handles    []ciphertext.Handle `json:"handles,omitempty"`
	Cleartexts []byte              `json:"cleartexts"`
	Signatures []byte              `json:"signatures"`
}

// HandleResponse is returned by the handle read endpoint.
type HandleResponse struct {
	Handle ciphertext.Handle `json:"handle"`
}

// ListResponse is returned by the id listing endpoint.
type ListResponse struct {
	IDs []string `json:"ids"`
}

// HealthResponse is returned by the liveness probe.
type HealthResponse struct {
	OK bool `json:"ok"`
}
