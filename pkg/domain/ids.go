package domain

import (
	"strings"
	"unicode"

	dErrors "cipherledger/pkg/domain-errors"
)

// MaxRecordIDLength bounds caller-assigned record ids.
const MaxRecordIDLength = 128

// RecordID is the caller-assigned, globally unique identifier of a ledger record.
// The ledger never generates ids; creators choose them at submission time.
type RecordID string

// Identity is the opaque identity of a caller (wallet address, service principal).
type Identity string

func (id RecordID) String() string { return string(id) }

func (id RecordID) IsZero() bool { return id == "" }

func (i Identity) String() string { return string(i) }

func (i Identity) IsZero() bool { return i == "" }

// ParseRecordID validates a record id at a trust boundary.
func ParseRecordID(s string) (RecordID, error) {
	if err := validateToken(s, "record id", MaxRecordIDLength); err != nil {
		return "", err
	}
	return RecordID(s), nil
}

// ParseIdentity validates a caller identity at a trust boundary.
func ParseIdentity(s string) (Identity, error) {
	if err := validateToken(s, "identity", 256); err != nil {
		return "", err
	}
	return Identity(s), nil
}

func validateToken(s, what string, maxLen int) error {
	if s == "" {
		return dErrors.New(dErrors.CodeBadRequest, what+" is required")
	}
	if strings.TrimSpace(s) != s {
		return dErrors.New(dErrors.CodeBadRequest, what+" must not have surrounding whitespace")
	}
	if len(s) > maxLen {
		return dErrors.New(dErrors.CodeBadRequest, what+" is too long")
	}
	for _, r := range s {
		if r == unicode.ReplacementChar || !unicode.IsPrint(r) || unicode.IsSpace(r) {
			return dErrors.New(dErrors.CodeBadRequest, what+" contains invalid characters")
		}
	}
	return nil
}
