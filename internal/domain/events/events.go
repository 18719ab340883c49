// Package events defines domain events that represent significant business
// occurrences. Events are immutable facts about what happened in the past.
//
// Pattern: Domain Events, collected in an EventStore during a use case and
// handed to the transactional outbox in the same database transaction as the
// state change that raised them (Transactional Outbox Pattern).
package events

import (
	"time"

	"github.com/ficore/vaswallet/internal/domain/valueobjects"
	"github.com/google/uuid"
)

// DomainEvent is the base interface for all domain events.
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	AggregateID() uuid.UUID
}

// BaseEvent provides common fields for all events.
type BaseEvent struct {
	eventID     uuid.UUID
	eventType   string
	occurredAt  time.Time
	aggregateID uuid.UUID
}

func newBaseEvent(eventType string, aggregateID uuid.UUID) BaseEvent {
	return BaseEvent{
		eventID:     uuid.New(),
		eventType:   eventType,
		occurredAt:  time.Now(),
		aggregateID: aggregateID,
	}
}

func (e BaseEvent) EventID() uuid.UUID     { return e.eventID }
func (e BaseEvent) EventType() string      { return e.eventType }
func (e BaseEvent) OccurredAt() time.Time  { return e.occurredAt }
func (e BaseEvent) AggregateID() uuid.UUID { return e.aggregateID }

// Event Types (constants for type checking)
const (
	EventTypeWalletFunded             = "wallet.funded"
	EventTypeWalletSuspended          = "wallet.suspended"
	EventTypeReservationHeld          = "reservation.held"
	EventTypeReservationCommitted     = "reservation.committed"
	EventTypeReservationReleased      = "reservation.released"
	EventTypeVasTransactionSucceeded  = "vas_transaction.succeeded"
	EventTypeVasTransactionFailed     = "vas_transaction.failed"
	EventTypeNeedsReconciliation      = "vas_transaction.needs_reconciliation"
	EventTypeExpenseLedgerRequested   = "expense_ledger.requested"
	EventTypeCorporateRevenueRecorded = "corporate_revenue.recorded"
	EventTypeReferralPayoutCredited   = "referral_payout.credited"
	EventTypeUserNotificationRequested = "user_notification.requested"
	EventTypeOperatorAlertRaised       = "operator_alert.raised"
)

// ===== Wallet Events =====

// WalletFunded is raised when an external funding webhook credits a wallet.
type WalletFunded struct {
	BaseEvent
	WalletID      uuid.UUID
	Amount        valueobjects.Money
	TransactionID uuid.UUID
	BalanceAfter  valueobjects.Money
}

func NewWalletFunded(walletID uuid.UUID, amount valueobjects.Money, transactionID uuid.UUID, balanceAfter valueobjects.Money) *WalletFunded {
	return &WalletFunded{
		BaseEvent:     newBaseEvent(EventTypeWalletFunded, walletID),
		WalletID:      walletID,
		Amount:        amount,
		TransactionID: transactionID,
		BalanceAfter:  balanceAfter,
	}
}

// WalletSuspended is raised when a wallet is suspended.
type WalletSuspended struct {
	BaseEvent
	WalletID uuid.UUID
	Reason   string
}

func NewWalletSuspended(walletID uuid.UUID, reason string) *WalletSuspended {
	return &WalletSuspended{
		BaseEvent: newBaseEvent(EventTypeWalletSuspended, walletID),
		WalletID:  walletID,
		Reason:    reason,
	}
}

// ===== Reservation Events =====

// ReservationHeld is raised when the Reservation Manager holds funds for an
// in-flight purchase (§4.2 step 3).
type ReservationHeld struct {
	BaseEvent
	ReservationID uuid.UUID
	WalletID      uuid.UUID
	TransactionID uuid.UUID
	Amount        valueobjects.Money
}

func NewReservationHeld(reservationID, walletID, transactionID uuid.UUID, amount valueobjects.Money) *ReservationHeld {
	return &ReservationHeld{
		BaseEvent:     newBaseEvent(EventTypeReservationHeld, reservationID),
		ReservationID: reservationID,
		WalletID:      walletID,
		TransactionID: transactionID,
		Amount:        amount,
	}
}

// ReservationCommitted is raised when the settlement worker debits the
// wallet and commits the reservation (§4.6 step a).
type ReservationCommitted struct {
	BaseEvent
	ReservationID uuid.UUID
	WalletID      uuid.UUID
	Amount        valueobjects.Money
}

func NewReservationCommitted(reservationID, walletID uuid.UUID, amount valueobjects.Money) *ReservationCommitted {
	return &ReservationCommitted{
		BaseEvent:     newBaseEvent(EventTypeReservationCommitted, reservationID),
		ReservationID: reservationID,
		WalletID:      walletID,
		Amount:        amount,
	}
}

// ReservationReleased is raised when a provider failure or orchestrator
// abort releases a hold without debiting the wallet.
type ReservationReleased struct {
	BaseEvent
	ReservationID uuid.UUID
	WalletID      uuid.UUID
	Amount        valueobjects.Money
	Reason        string
}

func NewReservationReleased(reservationID, walletID uuid.UUID, amount valueobjects.Money, reason string) *ReservationReleased {
	return &ReservationReleased{
		BaseEvent:     newBaseEvent(EventTypeReservationReleased, reservationID),
		ReservationID: reservationID,
		WalletID:      walletID,
		Amount:        amount,
		Reason:        reason,
	}
}

// ===== VAS Transaction Events =====

// VasTransactionSucceeded is raised when a VAS purchase settles successfully.
type VasTransactionSucceeded struct {
	BaseEvent
	TransactionID uuid.UUID
	UserID        uuid.UUID
	Type          string
	Amount        valueobjects.Money
}

func NewVasTransactionSucceeded(transactionID, userID uuid.UUID, transactionType string, amount valueobjects.Money) *VasTransactionSucceeded {
	return &VasTransactionSucceeded{
		BaseEvent:     newBaseEvent(EventTypeVasTransactionSucceeded, transactionID),
		TransactionID: transactionID,
		UserID:        userID,
		Type:          transactionType,
		Amount:        amount,
	}
}

// VasTransactionFailed is raised when a VAS purchase fails terminally.
type VasTransactionFailed struct {
	BaseEvent
	TransactionID uuid.UUID
	UserID        uuid.UUID
	Type          string
	FailureReason string
}

func NewVasTransactionFailed(transactionID, userID uuid.UUID, transactionType, failureReason string) *VasTransactionFailed {
	return &VasTransactionFailed{
		BaseEvent:     newBaseEvent(EventTypeVasTransactionFailed, transactionID),
		TransactionID: transactionID,
		UserID:        userID,
		Type:          transactionType,
		FailureReason: failureReason,
	}
}

// NeedsReconciliation is raised when a delivered product mismatches the
// request (§4.10); the transaction stays SUCCESS, this drives the admin
// notification and mismatch log.
type NeedsReconciliation struct {
	BaseEvent
	TransactionID    uuid.UUID
	RequestedProduct string
	DeliveredProduct string
	Severity         string
}

func NewNeedsReconciliation(transactionID uuid.UUID, requestedProduct, deliveredProduct, severity string) *NeedsReconciliation {
	return &NeedsReconciliation{
		BaseEvent:        newBaseEvent(EventTypeNeedsReconciliation, transactionID),
		TransactionID:    transactionID,
		RequestedProduct: requestedProduct,
		DeliveredProduct: deliveredProduct,
		Severity:         severity,
	}
}

// ===== Settlement Hook Events (§4.6 steps e-h) =====

// ExpenseLedgerRequested is emitted to the external bookkeeping module
// (§3 LedgerEntry) as a create-event; the core never mutates that ledger.
type ExpenseLedgerRequested struct {
	BaseEvent
	TransactionID uuid.UUID
	Amount        valueobjects.Money
	Category      string
}

func NewExpenseLedgerRequested(transactionID uuid.UUID, amount valueobjects.Money, category string) *ExpenseLedgerRequested {
	return &ExpenseLedgerRequested{
		BaseEvent:     newBaseEvent(EventTypeExpenseLedgerRequested, transactionID),
		TransactionID: transactionID,
		Amount:        amount,
		Category:      category,
	}
}

// CorporateRevenueRecorded is emitted alongside a CorporateRevenueEntry write.
type CorporateRevenueRecorded struct {
	BaseEvent
	TransactionID uuid.UUID
	EntryType     string
	Amount        valueobjects.Money
}

func NewCorporateRevenueRecorded(transactionID uuid.UUID, entryType string, amount valueobjects.Money) *CorporateRevenueRecorded {
	return &CorporateRevenueRecorded{
		BaseEvent:     newBaseEvent(EventTypeCorporateRevenueRecorded, transactionID),
		TransactionID: transactionID,
		EntryType:     entryType,
		Amount:        amount,
	}
}

// ReferralPayoutCredited is raised when the referral hook credits a
// referrer's withdrawable balance with the 1% VAS share (§4.6g).
type ReferralPayoutCredited struct {
	BaseEvent
	ReferrerID    uuid.UUID
	TransactionID uuid.UUID
	Amount        valueobjects.Money
}

func NewReferralPayoutCredited(referrerID, transactionID uuid.UUID, amount valueobjects.Money) *ReferralPayoutCredited {
	return &ReferralPayoutCredited{
		BaseEvent:     newBaseEvent(EventTypeReferralPayoutCredited, referrerID),
		ReferrerID:    referrerID,
		TransactionID: transactionID,
		Amount:        amount,
	}
}

// UserNotificationRequested is raised to ask the notification collaborator
// to inform the user of an outcome (§4.6h).
type UserNotificationRequested struct {
	BaseEvent
	UserID        uuid.UUID
	TransactionID uuid.UUID
	Message       string
}

func NewUserNotificationRequested(userID, transactionID uuid.UUID, message string) *UserNotificationRequested {
	return &UserNotificationRequested{
		BaseEvent:     newBaseEvent(EventTypeUserNotificationRequested, userID),
		UserID:        userID,
		TransactionID: transactionID,
		Message:       message,
	}
}

// OperatorAlertRaised is emitted for conditions that need human attention but
// aren't a per-user notification: a delivered-product mismatch (§4.10) or a
// settlement task exhausting its retry budget (§4.8).
type OperatorAlertRaised struct {
	BaseEvent
	TransactionID uuid.UUID
	Subject       string
	Message       string
}

func NewOperatorAlertRaised(transactionID uuid.UUID, subject, message string) *OperatorAlertRaised {
	return &OperatorAlertRaised{
		BaseEvent:     newBaseEvent(EventTypeOperatorAlertRaised, transactionID),
		TransactionID: transactionID,
		Subject:       subject,
		Message:       message,
	}
}

// EventStore is an in-memory collector for events raised during a single use
// case invocation, flushed to the transactional outbox in the same database
// transaction as the state change.
type EventStore struct {
	events []DomainEvent
}

// NewEventStore creates a new event store.
func NewEventStore() *EventStore {
	return &EventStore{events: make([]DomainEvent, 0)}
}

// Add appends an event to the store.
func (s *EventStore) Add(event DomainEvent) {
	s.events = append(s.events, event)
}

// GetAll returns all collected events.
func (s *EventStore) GetAll() []DomainEvent {
	return s.events
}

// Clear removes all events from the store.
func (s *EventStore) Clear() {
	s.events = make([]DomainEvent, 0)
}

// Count returns the number of events in the store.
func (s *EventStore) Count() int {
	return len(s.events)
}
