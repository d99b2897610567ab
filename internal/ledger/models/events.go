package models

import (
	id "cipherledger/pkg/domain"
)

// RecordCreated is the ledger event for a successful submission.
type RecordCreated struct {
	ID       id.RecordID `json:"id"`
	Creator  id.Identity `json:"creator"`
	Sequence uint64      `json:"sequence"`
}

// RecordVerified is the ledger event for a disclosure. Applied is false when
// the record had already been verified and the committed values are echoed.
type RecordVerified struct {
	ID                 id.RecordID `json:"id"`
	ClassificationFlag bool        `json:"classification_flag"`
	DisclosedValue     uint64      `json:"disclosed_value"`
	Applied            bool        `json:"applied"`
}
