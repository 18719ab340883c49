// Package entities - PinAuditRecord is the audit trail row written whenever
// an admin resets a wallet's spending PIN out of band (§4.9 ambient
// addition: a PIN reset bypasses the user's own ValidatePin/ChangePin flow,
// so who-did-it-and-why must survive independently of the Wallet row it
// mutated).
package entities

import (
	"time"

	"github.com/ficore/vaswallet/internal/domain/errors"
	"github.com/google/uuid"
)

// PinAuditRecord records one administrative PIN reset.
type PinAuditRecord struct {
	id        uuid.UUID
	walletID  uuid.UUID
	adminID   uuid.UUID
	reason    string
	createdAt time.Time
}

// NewPinAuditRecord creates a new PIN-reset audit row.
func NewPinAuditRecord(walletID, adminID uuid.UUID, reason string) (*PinAuditRecord, error) {
	if reason == "" {
		return nil, errors.ValidationError{Field: "reason", Message: "reason is required for an administrative PIN reset"}
	}

	return &PinAuditRecord{
		id:        uuid.New(),
		walletID:  walletID,
		adminID:   adminID,
		reason:    reason,
		createdAt: time.Now(),
	}, nil
}

// ReconstructPinAuditRecord reconstructs a PinAuditRecord from stored data.
func ReconstructPinAuditRecord(id, walletID, adminID uuid.UUID, reason string, createdAt time.Time) *PinAuditRecord {
	return &PinAuditRecord{
		id:        id,
		walletID:  walletID,
		adminID:   adminID,
		reason:    reason,
		createdAt: createdAt,
	}
}

func (r *PinAuditRecord) ID() uuid.UUID        { return r.id }
func (r *PinAuditRecord) WalletID() uuid.UUID  { return r.walletID }
func (r *PinAuditRecord) AdminID() uuid.UUID   { return r.adminID }
func (r *PinAuditRecord) Reason() string       { return r.reason }
func (r *PinAuditRecord) CreatedAt() time.Time { return r.createdAt }
