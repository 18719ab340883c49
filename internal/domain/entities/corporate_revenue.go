// Package entities - CorporateRevenueEntry is one row per economic event the
// business earns or incurs: service fees, provider commissions, referral
// payouts (negative). Plain-struct-with-constructor style, matching the
// teacher's lighter-weight entities rather than its heavier state machines -
// this row is append-only and has no lifecycle of its own.
package entities

import (
	"time"

	"github.com/ficore/vaswallet/internal/domain/errors"
	"github.com/ficore/vaswallet/internal/domain/valueobjects"
	"github.com/google/uuid"
)

// RevenueEntryType categorizes the economic event a CorporateRevenueEntry records.
type RevenueEntryType string

const (
	RevenueEntryTypeVasCommission  RevenueEntryType = "VAS_COMMISSION"
	RevenueEntryTypeFundingFee     RevenueEntryType = "FUNDING_FEE"
	RevenueEntryTypeReferralPayout RevenueEntryType = "REFERRAL_PAYOUT" // negative amount
)

// CorporateRevenueEntry records one economic event linked back to the
// VasTransaction that produced it.
type CorporateRevenueEntry struct {
	id              uuid.UUID
	transactionID   uuid.UUID
	entryType       RevenueEntryType
	amount          valueobjects.Money // negative for payouts; caller negates before construction
	description     string
	createdAt       time.Time
}

// NewCorporateRevenueEntry creates a new revenue ledger row.
func NewCorporateRevenueEntry(
	transactionID uuid.UUID,
	entryType RevenueEntryType,
	amount valueobjects.Money,
	description string,
) (*CorporateRevenueEntry, error) {
	if transactionID == uuid.Nil {
		return nil, errors.ValidationError{Field: "transactionID", Message: "transactionID is required"}
	}

	return &CorporateRevenueEntry{
		id:            uuid.New(),
		transactionID: transactionID,
		entryType:     entryType,
		amount:        amount,
		description:   description,
		createdAt:     time.Now(),
	}, nil
}

// ReconstructCorporateRevenueEntry reconstructs a CorporateRevenueEntry from stored data.
func ReconstructCorporateRevenueEntry(
	id, transactionID uuid.UUID,
	entryType RevenueEntryType,
	amount valueobjects.Money,
	description string,
	createdAt time.Time,
) *CorporateRevenueEntry {
	return &CorporateRevenueEntry{
		id:            id,
		transactionID: transactionID,
		entryType:     entryType,
		amount:        amount,
		description:   description,
		createdAt:     createdAt,
	}
}

func (e *CorporateRevenueEntry) ID() uuid.UUID                   { return e.id }
func (e *CorporateRevenueEntry) TransactionID() uuid.UUID        { return e.transactionID }
func (e *CorporateRevenueEntry) Type() RevenueEntryType          { return e.entryType }
func (e *CorporateRevenueEntry) Amount() valueobjects.Money      { return e.amount }
func (e *CorporateRevenueEntry) Description() string             { return e.description }
func (e *CorporateRevenueEntry) CreatedAt() time.Time             { return e.createdAt }
