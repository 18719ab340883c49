// Package entities - Reservation is the HELD/COMMITTED/RELEASED hold a VAS
// purchase places against a wallet's available balance while the provider
// call is in flight (§4.2). It is the unit the Reservation Manager
// transitions atomically alongside the owning Wallet's reservedAmount.
package entities

import (
	"time"

	"github.com/ficore/vaswallet/internal/domain/errors"
	"github.com/ficore/vaswallet/internal/domain/valueobjects"
	"github.com/google/uuid"
)

// ReservationStatus represents the current state of a reservation.
type ReservationStatus string

const (
	ReservationStatusHeld      ReservationStatus = "HELD"
	ReservationStatusCommitted ReservationStatus = "COMMITTED"
	ReservationStatusReleased  ReservationStatus = "RELEASED"
)

// IsValid checks if the reservation status is valid.
func (s ReservationStatus) IsValid() bool {
	switch s {
	case ReservationStatusHeld, ReservationStatusCommitted, ReservationStatusReleased:
		return true
	default:
		return false
	}
}

// IsFinal returns true if the status is terminal (no further transitions).
func (s ReservationStatus) IsFinal() bool {
	return s == ReservationStatusCommitted || s == ReservationStatusReleased
}

// Reservation represents a hold against a wallet's available balance.
//
// Entity Pattern:
// - Has identity (ID), tied 1:1 to the VasTransaction that created it.
// - Simple three-state machine: HELD -> COMMITTED | RELEASED.
// - Both terminal transitions are idempotent: re-committing or re-releasing
//   an already-terminal reservation is a no-op, not an error, so that a
//   crash-and-retry of the settlement step never double-applies (§4.2).
type Reservation struct {
	id            uuid.UUID
	walletID      uuid.UUID
	transactionID uuid.UUID // the VasTransaction this reservation backs
	amount        valueobjects.Money
	status        ReservationStatus

	createdAt  time.Time
	updatedAt  time.Time
	settledAt  *time.Time // when it transitioned to COMMITTED or RELEASED
}

// NewReservation creates a new HELD reservation for a transaction.
func NewReservation(walletID, transactionID uuid.UUID, amount valueobjects.Money) (*Reservation, error) {
	if !amount.IsPositive() {
		return nil, errors.NewBusinessRuleViolation(
			"INVALID_AMOUNT",
			"reservation amount must be positive",
			map[string]interface{}{"amount": amount.String()},
		)
	}

	now := time.Now()
	return &Reservation{
		id:            uuid.New(),
		walletID:      walletID,
		transactionID: transactionID,
		amount:        amount,
		status:        ReservationStatusHeld,
		createdAt:     now,
		updatedAt:     now,
	}, nil
}

// ReconstructReservation reconstructs a Reservation from stored data.
func ReconstructReservation(
	id, walletID, transactionID uuid.UUID,
	amount valueobjects.Money,
	status ReservationStatus,
	createdAt, updatedAt time.Time,
	settledAt *time.Time,
) *Reservation {
	return &Reservation{
		id:            id,
		walletID:      walletID,
		transactionID: transactionID,
		amount:        amount,
		status:        status,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
		settledAt:     settledAt,
	}
}

// Getters

func (r *Reservation) ID() uuid.UUID            { return r.id }
func (r *Reservation) WalletID() uuid.UUID      { return r.walletID }
func (r *Reservation) TransactionID() uuid.UUID { return r.transactionID }
func (r *Reservation) Amount() valueobjects.Money { return r.amount }
func (r *Reservation) Status() ReservationStatus { return r.status }
func (r *Reservation) CreatedAt() time.Time     { return r.createdAt }
func (r *Reservation) UpdatedAt() time.Time     { return r.updatedAt }
func (r *Reservation) SettledAt() *time.Time    { return r.settledAt }

// Business Methods

// IsHeld returns true if the reservation is still holding funds.
func (r *Reservation) IsHeld() bool {
	return r.status == ReservationStatusHeld
}

// IsCommitted returns true if the reservation was committed (debit applied).
func (r *Reservation) IsCommitted() bool {
	return r.status == ReservationStatusCommitted
}

// IsReleased returns true if the reservation was released back to available balance.
func (r *Reservation) IsReleased() bool {
	return r.status == ReservationStatusReleased
}

// Commit transitions HELD -> COMMITTED: the provider call succeeded and the
// reserved funds convert into a real debit. Idempotent if already COMMITTED;
// returns ErrReservationNotHeld if it was RELEASED (a released reservation
// cannot later be committed — that would double-spend funds already given
// back to the user).
func (r *Reservation) Commit() error {
	if r.status == ReservationStatusCommitted {
		return nil
	}
	if r.status != ReservationStatusHeld {
		return errors.ErrReservationNotHeld
	}

	now := time.Now()
	r.status = ReservationStatusCommitted
	r.settledAt = &now
	r.updatedAt = now
	return nil
}

// Release transitions HELD -> RELEASED: the provider call failed or timed
// out and the held funds return to available balance. Idempotent if already
// RELEASED; returns ErrReservationNotHeld if it was COMMITTED.
func (r *Reservation) Release() error {
	if r.status == ReservationStatusReleased {
		return nil
	}
	if r.status != ReservationStatusHeld {
		return errors.ErrReservationNotHeld
	}

	now := time.Now()
	r.status = ReservationStatusReleased
	r.settledAt = &now
	r.updatedAt = now
	return nil
}
