// Package entities - Wallet is the balance of record for the closed-loop
// wallet: total balance, reserved (in-flight) amount, and the derived
// available balance. It enforces the invariants that make two concurrent
// purchases unable to spend the same Naira twice.
package entities

import (
	"crypto/sha256"
	"crypto/subtle"
	"time"

	"github.com/ficore/vaswallet/internal/domain/errors"
	"github.com/ficore/vaswallet/internal/domain/valueobjects"
	"github.com/google/uuid"
)

// WalletStatus represents the operational status of a wallet.
type WalletStatus string

const (
	WalletStatusActive    WalletStatus = "ACTIVE"
	WalletStatusSuspended WalletStatus = "SUSPENDED"
)

// IsValid checks if the wallet status is valid.
func (s WalletStatus) IsValid() bool {
	return s == WalletStatusActive || s == WalletStatusSuspended
}

// PinMaxAttempts is the number of consecutive PIN failures before a wallet's
// spending authorization locks (§4.9).
const PinMaxAttempts = 3

// PinLockDuration is how long a wallet's PIN stays locked after PinMaxAttempts
// consecutive failures (§4.9).
const PinLockDuration = 15 * time.Minute

// Wallet represents the single closed-loop balance for one user.
//
// Entity Pattern:
// - Has identity (ID), keyed uniquely by userID.
// - Enforces the core invariant: availableBalance = balance - reservedAmount >= 0.
// - Rich behavior: mutators are domain operations, not bare setters.
type Wallet struct {
	id     uuid.UUID
	userID uuid.UUID

	balance        valueobjects.Money // total funds on deposit
	reservedAmount valueobjects.Money // sum of live HELD reservations
	version        int64              // optimistic-concurrency token

	accountReference string   // primary reserved-account identifier from the funding provider
	accounts         []string // all reserved-account numbers ever issued to this user

	status WalletStatus

	pinHash        []byte
	pinSalt        []byte
	pinAttempts    int
	pinLockedUntil time.Time

	createdAt time.Time
	updatedAt time.Time
}

// NewWallet creates a new wallet for a user. New wallets start ACTIVE with a
// zero balance and no PIN set.
func NewWallet(userID uuid.UUID) (*Wallet, error) {
	if userID == uuid.Nil {
		return nil, errors.ValidationError{Field: "userID", Message: "userID is required"}
	}

	now := time.Now()
	return &Wallet{
		id:             uuid.New(),
		userID:         userID,
		balance:        valueobjects.Zero(valueobjects.NGN),
		reservedAmount: valueobjects.Zero(valueobjects.NGN),
		version:        0,
		status:         WalletStatusActive,
		createdAt:      now,
		updatedAt:      now,
	}, nil
}

// ReconstructWallet reconstructs a Wallet from stored data. Used by the
// repository to hydrate entities from the database.
func ReconstructWallet(
	id, userID uuid.UUID,
	balance, reservedAmount valueobjects.Money,
	version int64,
	accountReference string,
	accounts []string,
	status WalletStatus,
	pinHash, pinSalt []byte,
	pinAttempts int,
	pinLockedUntil time.Time,
	createdAt, updatedAt time.Time,
) *Wallet {
	return &Wallet{
		id:               id,
		userID:           userID,
		balance:          balance,
		reservedAmount:   reservedAmount,
		version:          version,
		accountReference: accountReference,
		accounts:         accounts,
		status:           status,
		pinHash:          pinHash,
		pinSalt:          pinSalt,
		pinAttempts:      pinAttempts,
		pinLockedUntil:   pinLockedUntil,
		createdAt:        createdAt,
		updatedAt:        updatedAt,
	}
}

// Getters

func (w *Wallet) ID() uuid.UUID       { return w.id }
func (w *Wallet) UserID() uuid.UUID   { return w.userID }
func (w *Wallet) Status() WalletStatus { return w.status }
func (w *Wallet) Version() int64      { return w.version }

func (w *Wallet) Balance() valueobjects.Money        { return w.balance }
func (w *Wallet) ReservedAmount() valueobjects.Money { return w.reservedAmount }

// AvailableBalance returns balance - reservedAmount, the invariant spec §3 pins down.
func (w *Wallet) AvailableBalance() (valueobjects.Money, error) {
	return w.balance.Subtract(w.reservedAmount)
}

func (w *Wallet) AccountReference() string { return w.accountReference }
func (w *Wallet) Accounts() []string       { return append([]string(nil), w.accounts...) }

func (w *Wallet) PinSet() bool              { return len(w.pinHash) > 0 }
func (w *Wallet) PinAttempts() int          { return w.pinAttempts }
func (w *Wallet) PinLockedUntil() time.Time { return w.pinLockedUntil }

// PinHash and PinSalt expose the raw PIN material for the repository layer
// to persist. No other caller needs the hash itself - spend authorization
// goes through ValidatePin.
func (w *Wallet) PinHash() []byte { return append([]byte(nil), w.pinHash...) }
func (w *Wallet) PinSalt() []byte { return append([]byte(nil), w.pinSalt...) }

func (w *Wallet) CreatedAt() time.Time { return w.createdAt }
func (w *Wallet) UpdatedAt() time.Time { return w.updatedAt }

// Business Methods

// IsActive returns true if the wallet is active and can perform operations.
func (w *Wallet) IsActive() bool {
	return w.status == WalletStatusActive
}

// CanDebit checks if the wallet can be debited. A suspended wallet cannot.
func (w *Wallet) CanDebit() error {
	if w.status == WalletStatusSuspended {
		return errors.ErrWalletSuspended
	}
	return nil
}

// CanCredit checks if the wallet can be credited. A suspended wallet can
// still receive funding credits (suspension blocks spending, not deposits).
func (w *Wallet) CanCredit() error {
	return nil
}

// HasSufficientAvailable checks if the wallet's available balance can cover amount.
func (w *Wallet) HasSufficientAvailable(amount valueobjects.Money) (bool, error) {
	available, err := w.AvailableBalance()
	if err != nil {
		return false, err
	}
	return available.GreaterThanOrEqual(amount)
}

// Credit adds funds directly to the wallet balance (funding webhook,
// admin refund). Does not touch reservedAmount.
func (w *Wallet) Credit(amount valueobjects.Money) error {
	if err := w.CanCredit(); err != nil {
		return err
	}

	newBalance, err := w.balance.Add(amount)
	if err != nil {
		return err
	}

	w.balance = newBalance
	w.version++
	w.updatedAt = time.Now()
	return nil
}

// Debit subtracts funds directly from the wallet balance, bypassing the
// reservation lifecycle. Used only for internal admin deductions; ordinary
// VAS purchases always go through Reserve -> Commit (§4.1, §4.2).
func (w *Wallet) Debit(amount valueobjects.Money) error {
	if err := w.CanDebit(); err != nil {
		return err
	}

	hasSufficient, err := w.HasSufficientAvailable(amount)
	if err != nil {
		return err
	}
	if !hasSufficient {
		available, _ := w.AvailableBalance()
		return &errors.InsufficientFundsError{
			WalletID:  w.id.String(),
			Available: available.MinorUnits(),
			Requested: amount.MinorUnits(),
		}
	}

	newBalance, err := w.balance.Subtract(amount)
	if err != nil {
		return err
	}

	w.balance = newBalance
	w.version++
	w.updatedAt = time.Now()
	return nil
}

// ReserveFunds increments reservedAmount by amount, holding funds while a
// provider call is in flight (§4.2 step 3). The caller (Reservation Manager)
// is responsible for inserting the corresponding Reservation{HELD} row in
// the same transaction.
func (w *Wallet) ReserveFunds(amount valueobjects.Money) error {
	if err := w.CanDebit(); err != nil {
		return err
	}

	hasSufficient, err := w.HasSufficientAvailable(amount)
	if err != nil {
		return err
	}
	if !hasSufficient {
		available, _ := w.AvailableBalance()
		return &errors.InsufficientFundsError{
			WalletID:  w.id.String(),
			Available: available.MinorUnits(),
			Requested: amount.MinorUnits(),
		}
	}

	newReserved, err := w.reservedAmount.Add(amount)
	if err != nil {
		return err
	}

	w.reservedAmount = newReserved
	w.version++
	w.updatedAt = time.Now()
	return nil
}

// CommitReservation debits balance by amount and releases the same amount
// from reservedAmount, in the single atomic step §4.2 describes for
// Reservation.Commit. The caller must have already verified the reservation
// itself is HELD and is transitioning it to COMMITTED in the same transaction.
func (w *Wallet) CommitReservation(amount valueobjects.Money) error {
	newBalance, err := w.balance.Subtract(amount)
	if err != nil {
		return err
	}
	newReserved, err := w.reservedAmount.Subtract(amount)
	if err != nil {
		return err
	}

	w.balance = newBalance
	w.reservedAmount = newReserved
	w.version++
	w.updatedAt = time.Now()
	return nil
}

// ReleaseReservation decrements reservedAmount by amount without touching
// balance (§4.2 Release). The caller must be transitioning the reservation
// itself to RELEASED in the same transaction.
func (w *Wallet) ReleaseReservation(amount valueobjects.Money) error {
	newReserved, err := w.reservedAmount.Subtract(amount)
	if err != nil {
		return err
	}

	w.reservedAmount = newReserved
	w.version++
	w.updatedAt = time.Now()
	return nil
}

// Status Management

// Suspend disables spending on the wallet; funding deposits still apply.
func (w *Wallet) Suspend() {
	w.status = WalletStatusSuspended
	w.updatedAt = time.Now()
}

// Activate reactivates a suspended wallet.
func (w *Wallet) Activate() {
	w.status = WalletStatusActive
	w.updatedAt = time.Now()
}

// SetAccountReference records the primary reserved-account identifier issued
// by the funding provider, appending it to the full history of accounts.
func (w *Wallet) SetAccountReference(reference string) {
	w.accountReference = reference
	w.accounts = append(w.accounts, reference)
	w.updatedAt = time.Now()
}

// PIN & Spending Authorization (§4.9)

var pinBlocklist = map[string]bool{
	"0000": true, "1111": true, "2222": true, "3333": true, "4444": true,
	"5555": true, "6666": true, "7777": true, "8888": true, "9999": true,
	"1234": true, "4321": true, "0123": true, "9876": true,
}

func isTrivialPin(pin string) bool {
	if pinBlocklist[pin] {
		return true
	}
	sequential := true
	for i := 1; i < len(pin); i++ {
		if pin[i] != pin[i-1]+1 {
			sequential = false
			break
		}
	}
	return sequential
}

func hashPin(pin string, salt []byte) []byte {
	h := sha256.New()
	h.Write([]byte(pin))
	h.Write(salt)
	return h.Sum(nil)
}

// SetPin sets the spending PIN for the first time. A wallet can only set its
// PIN once; changing an existing PIN goes through ChangePin.
func (w *Wallet) SetPin(pin string, salt []byte) error {
	if w.PinSet() {
		return errors.ErrPinAlreadySet
	}
	if len(pin) != 4 {
		return errors.ErrPinInvalidShape
	}
	if isTrivialPin(pin) {
		return errors.ErrPinBlocklisted
	}

	w.pinHash = hashPin(pin, salt)
	w.pinSalt = salt
	w.pinAttempts = 0
	w.pinLockedUntil = time.Time{}
	w.updatedAt = time.Now()
	return nil
}

// ChangePin replaces an existing PIN after verifying the current one.
func (w *Wallet) ChangePin(currentPin, newPin string, newSalt []byte) error {
	if err := w.ValidatePin(currentPin); err != nil {
		return err
	}
	if len(newPin) != 4 {
		return errors.ErrPinInvalidShape
	}
	if isTrivialPin(newPin) {
		return errors.ErrPinBlocklisted
	}

	w.pinHash = hashPin(newPin, newSalt)
	w.pinSalt = newSalt
	w.pinAttempts = 0
	w.pinLockedUntil = time.Time{}
	w.updatedAt = time.Now()
	return nil
}

// IsPinLocked reports whether the wallet's spending PIN is presently locked out.
func (w *Wallet) IsPinLocked() bool {
	return !w.pinLockedUntil.IsZero() && time.Now().Before(w.pinLockedUntil)
}

// ValidatePin checks a supplied PIN against the stored hash, tracking
// consecutive failures and locking the wallet for PinLockDuration at
// PinMaxAttempts (§4.9). Successful validation resets the failure counter.
func (w *Wallet) ValidatePin(pin string) error {
	if !w.PinSet() {
		return errors.ErrPinNotSet
	}
	if w.IsPinLocked() {
		return &errors.PinLockedError{
			WalletID:    w.id.String(),
			LockedUntil: w.pinLockedUntil.Format(time.RFC3339),
		}
	}

	candidate := hashPin(pin, w.pinSalt)
	if subtle.ConstantTimeCompare(candidate, w.pinHash) != 1 {
		w.pinAttempts++
		if w.pinAttempts >= PinMaxAttempts {
			w.pinLockedUntil = time.Now().Add(PinLockDuration)
		}
		w.updatedAt = time.Now()
		return errors.NewBusinessRuleViolation(
			"PIN_MISMATCH",
			"supplied PIN does not match",
			map[string]interface{}{"attempts": w.pinAttempts},
		)
	}

	w.pinAttempts = 0
	w.updatedAt = time.Now()
	return nil
}

// AdminResetPin clears the PIN hash and failure counters. The caller is
// responsible for writing the accompanying PinAuditRecord.
func (w *Wallet) AdminResetPin() {
	w.pinHash = nil
	w.pinSalt = nil
	w.pinAttempts = 0
	w.pinLockedUntil = time.Time{}
	w.updatedAt = time.Now()
}
