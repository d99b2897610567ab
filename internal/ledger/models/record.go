package models

import (
	"fmt"
	"maps"
	"time"

	"cipherledger/internal/ciphertext"
	id "cipherledger/pkg/domain"
	dErrors "cipherledger/pkg/domain-errors"
)

const (
	maxMetadataEntries = 32
	maxMetadataKey     = 64
	maxMetadataValue   = 1024
)

// Metadata is the public, unencrypted part of a record. Immutable after
// creation; accessors hand out copies.
type Metadata struct {
	Fields  map[string]string `json:"fields,omitempty"`
	Numbers map[string]int64  `json:"numbers,omitempty"`
}

func (m Metadata) Clone() Metadata {
	return Metadata{Fields: maps.Clone(m.Fields), Numbers: maps.Clone(m.Numbers)}
}

// Validate bounds key and value sizes.
func (m Metadata) Validate() error {
	if len(m.Fields)+len(m.Numbers) > maxMetadataEntries {
		return dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("metadata has more than %d entries", maxMetadataEntries))
	}
	for k, v := range m.Fields {
		if k == "" || len(k) > maxMetadataKey || len(v) > maxMetadataValue {
			return dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("metadata field %q is invalid", k))
		}
	}
	for k := range m.Numbers {
		if k == "" || len(k) > maxMetadataKey {
			return dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("metadata number %q is invalid", k))
		}
		if _, dup := m.Fields[k]; dup {
			return dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("metadata key %q is both a field and a number", k))
		}
	}
	return nil
}

// Record is one entry of the ledger. Handle, Metadata, Creator, CreatedAt and
// Sequence never change after creation. Verified flips to true at most once,
// together with DisclosedValue, ClassificationFlag and VerifiedAt.
type Record struct {
	ID                 id.RecordID       `json:"id"`
	Handle             ciphertext.Handle `json:"handle"`
	Metadata           Metadata          `json:"metadata"`
	Creator            id.Identity       `json:"creator"`
	CreatedAt          time.Time         `json:"created_at"`
	Sequence           uint64            `json:"sequence"`
	Verified           bool              `json:"verified"`
	DisclosedValue     *uint64           `json:"disclosed_value,omitempty"`
	ClassificationFlag *bool             `json:"classification_flag,omitempty"`
	VerifiedAt         *time.Time        `json:"verified_at,omitempty"`
}

// NewRecord builds an unverified record. The store assigns Sequence.
func NewRecord(recordID id.RecordID, handle ciphertext.Handle, metadata Metadata, creator id.Identity, now time.Time) (*Record, error) {
	if recordID.IsZero() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "record id is required")
	}
	if creator.IsZero() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "creator identity is required")
	}
	parsed, err := ciphertext.ParseHandle(handle)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid ciphertext handle")
	}
	if err := metadata.Validate(); err != nil {
		return nil, err
	}
	return &Record{
		ID:        recordID,
		Handle:    parsed,
		Metadata:  metadata.Clone(),
		Creator:   creator,
		CreatedAt: now,
	}, nil
}

// Handles is the canonical ordered handle sequence a disclosure must cover.
func (r *Record) Handles() []ciphertext.Handle {
	return []ciphertext.Handle{r.Handle}
}

// ApplyDisclosure sets the verified state. It refuses a second application.
func (r *Record) ApplyDisclosure(value uint64, flag bool, now time.Time) error {
	if r.Verified {
		return fmt.Errorf("record %s already verified", r.ID)
	}
	r.Verified = true
	r.DisclosedValue = &value
	r.ClassificationFlag = &flag
	r.VerifiedAt = &now
	return nil
}

// Clone returns a deep copy safe to hand to callers.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := *r
	out.Handle = r.Handle.Clone()
	out.Metadata = r.Metadata.Clone()
	if r.DisclosedValue != nil {
		v := *r.DisclosedValue
		out.DisclosedValue = &v
	}
	if r.ClassificationFlag != nil {
		f := *r.ClassificationFlag
		out.ClassificationFlag = &f
	}
	if r.VerifiedAt != nil {
		t := *r.VerifiedAt
		out.VerifiedAt = &t
	}
	return &out
}
