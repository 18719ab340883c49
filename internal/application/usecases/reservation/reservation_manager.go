// Package reservation implements the Reservation Manager (§4.2): the
// internal collaborator the Purchase Orchestrator calls to hold, commit, and
// release funds against a wallet's available balance while a provider call
// is in flight. It is not exposed over HTTP directly - the orchestrator is
// its only caller.
package reservation

import (
	"context"
	"fmt"

	"github.com/ficore/vaswallet/internal/application/ports"
	"github.com/ficore/vaswallet/internal/domain/entities"
	"github.com/ficore/vaswallet/internal/domain/errors"
	"github.com/ficore/vaswallet/internal/domain/events"
	"github.com/ficore/vaswallet/internal/domain/valueobjects"
	"github.com/google/uuid"
)

// Manager holds, commits, and releases reservations, coordinating the
// Reservation entity's own three-state machine with the owning Wallet's
// reservedAmount counter in a single atomic step each time (§4.1, §4.2).
type Manager struct {
	walletRepo      ports.WalletRepository
	reservationRepo ports.ReservationRepository
	eventPublisher  ports.EventPublisher
}

// NewManager creates a new Reservation Manager.
func NewManager(
	walletRepo ports.WalletRepository,
	reservationRepo ports.ReservationRepository,
	eventPublisher ports.EventPublisher,
) *Manager {
	return &Manager{
		walletRepo:      walletRepo,
		reservationRepo: reservationRepo,
		eventPublisher:  eventPublisher,
	}
}

// Hold places a HELD reservation against walletID for amount, backing
// transactionID. The caller is expected to be running inside a unit-of-work
// transaction alongside the VasTransaction.MarkPending step (§4.2 step 3).
func (m *Manager) Hold(ctx context.Context, walletID, transactionID uuid.UUID, amount valueobjects.Money) (*entities.Reservation, error) {
	wallet, err := m.walletRepo.FindByID(ctx, walletID)
	if err != nil {
		return nil, fmt.Errorf("failed to load wallet: %w", err)
	}

	if err := wallet.ReserveFunds(amount); err != nil {
		return nil, err
	}

	res, err := entities.NewReservation(walletID, transactionID, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to create reservation entity: %w", err)
	}

	if err := m.walletRepo.Save(ctx, wallet); err != nil {
		if errors.IsConcurrencyError(err) {
			return nil, errors.NewConcurrencyError("Wallet", walletID.String(), "wallet was modified by another transaction")
		}
		return nil, fmt.Errorf("failed to save wallet: %w", err)
	}
	if err := m.reservationRepo.Save(ctx, res); err != nil {
		return nil, fmt.Errorf("failed to save reservation: %w", err)
	}

	evt := events.NewReservationHeld(res.ID(), walletID, transactionID, amount)
	if err := m.eventPublisher.Publish(ctx, evt); err != nil {
		return nil, fmt.Errorf("failed to publish event: %w", err)
	}

	return res, nil
}

// Commit transitions the reservation backing transactionID to COMMITTED and
// applies the real debit to the wallet in the same step (§4.2, §4.6 step a).
// Idempotent: re-committing an already-COMMITTED reservation is a no-op.
func (m *Manager) Commit(ctx context.Context, transactionID uuid.UUID) error {
	res, err := m.reservationRepo.FindByTransactionID(ctx, transactionID)
	if err != nil {
		return fmt.Errorf("failed to load reservation: %w", err)
	}

	if res.IsCommitted() {
		return nil
	}

	wallet, err := m.walletRepo.FindByID(ctx, res.WalletID())
	if err != nil {
		return fmt.Errorf("failed to load wallet: %w", err)
	}

	if err := res.Commit(); err != nil {
		return err
	}
	if err := wallet.CommitReservation(res.Amount()); err != nil {
		return err
	}

	if err := m.walletRepo.Save(ctx, wallet); err != nil {
		if errors.IsConcurrencyError(err) {
			return errors.NewConcurrencyError("Wallet", wallet.ID().String(), "wallet was modified by another transaction")
		}
		return fmt.Errorf("failed to save wallet: %w", err)
	}
	if err := m.reservationRepo.Save(ctx, res); err != nil {
		return fmt.Errorf("failed to save reservation: %w", err)
	}

	evt := events.NewReservationCommitted(res.ID(), wallet.ID(), res.Amount())
	return m.eventPublisher.Publish(ctx, evt)
}

// Release transitions the reservation backing transactionID to RELEASED,
// returning the held funds to available balance without touching total
// balance (§4.2 Release). Idempotent: re-releasing an already-RELEASED
// reservation is a no-op.
func (m *Manager) Release(ctx context.Context, transactionID uuid.UUID, reason string) error {
	res, err := m.reservationRepo.FindByTransactionID(ctx, transactionID)
	if err != nil {
		return fmt.Errorf("failed to load reservation: %w", err)
	}

	if res.IsReleased() {
		return nil
	}

	wallet, err := m.walletRepo.FindByID(ctx, res.WalletID())
	if err != nil {
		return fmt.Errorf("failed to load wallet: %w", err)
	}

	if err := res.Release(); err != nil {
		return err
	}
	if err := wallet.ReleaseReservation(res.Amount()); err != nil {
		return err
	}

	if err := m.walletRepo.Save(ctx, wallet); err != nil {
		if errors.IsConcurrencyError(err) {
			return errors.NewConcurrencyError("Wallet", wallet.ID().String(), "wallet was modified by another transaction")
		}
		return fmt.Errorf("failed to save wallet: %w", err)
	}
	if err := m.reservationRepo.Save(ctx, res); err != nil {
		return fmt.Errorf("failed to save reservation: %w", err)
	}

	evt := events.NewReservationReleased(res.ID(), wallet.ID(), res.Amount(), reason)
	return m.eventPublisher.Publish(ctx, evt)
}
