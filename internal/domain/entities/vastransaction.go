// Package entities - VasTransaction is the append-only ledger row for every
// wallet-funding and value-added-service purchase. It follows a
// create-FAILED-first policy (§4.3, §9): a row always exists in FAILED
// state, reason "in-progress", before any external side effect, so a crash
// mid-purchase leaves an honest record instead of a silent PENDING.
package entities

import (
	"encoding/json"
	"time"

	"github.com/ficore/vaswallet/internal/domain/errors"
	"github.com/ficore/vaswallet/internal/domain/valueobjects"
	"github.com/google/uuid"
)

// VasTransactionType categorizes the kind of ledger event.
type VasTransactionType string

const (
	VasTransactionTypeWalletFunding  VasTransactionType = "WALLET_FUNDING"
	VasTransactionTypeAirtime        VasTransactionType = "AIRTIME"
	VasTransactionTypeData           VasTransactionType = "DATA"
	VasTransactionTypeKycVerification VasTransactionType = "KYC_VERIFICATION"
	VasTransactionTypeAdminRefund    VasTransactionType = "ADMIN_REFUND"
	VasTransactionTypeAdminDeduction VasTransactionType = "ADMIN_DEDUCTION"
)

// IsValid checks if the transaction type is valid.
func (t VasTransactionType) IsValid() bool {
	switch t {
	case VasTransactionTypeWalletFunding, VasTransactionTypeAirtime, VasTransactionTypeData,
		VasTransactionTypeKycVerification, VasTransactionTypeAdminRefund, VasTransactionTypeAdminDeduction:
		return true
	default:
		return false
	}
}

// VasTransactionStatus represents the current state of the ledger row.
type VasTransactionStatus string

const (
	VasTransactionStatusFailed              VasTransactionStatus = "FAILED"
	VasTransactionStatusPending             VasTransactionStatus = "PENDING"
	VasTransactionStatusSuccess             VasTransactionStatus = "SUCCESS"
	VasTransactionStatusNeedsReconciliation VasTransactionStatus = "NEEDS_RECONCILIATION"
)

// IsValid checks if the transaction status is valid.
func (s VasTransactionStatus) IsValid() bool {
	switch s {
	case VasTransactionStatusFailed, VasTransactionStatusPending,
		VasTransactionStatusSuccess, VasTransactionStatusNeedsReconciliation:
		return true
	default:
		return false
	}
}

// IsTerminal returns true for states the ledger never mutates again:
// SUCCESS, FAILED (once reason moves past "in-progress"), and
// NEEDS_RECONCILIATION. PENDING is not terminal - it is the brief window
// between provider success and settlement-task completion.
func (s VasTransactionStatus) IsTerminal() bool {
	return s == VasTransactionStatusSuccess || s == VasTransactionStatusFailed || s == VasTransactionStatusNeedsReconciliation
}

// inProgressReason marks a FAILED row created by CreateFailed before any
// external side effect has happened - the spec's "honest record" sentinel,
// distinct from a real terminal failure reason.
const inProgressReason = "in-progress"

// VasTransaction is the append-only ledger entity for wallet funding and
// VAS purchases.
//
// Entity Pattern:
// - Has identity (ID) plus a unique idempotency key (requestId).
// - Create-FAILED-first state machine: FAILED(in-progress) -> PENDING ->
//   SUCCESS | FAILED | NEEDS_RECONCILIATION.
// - Immutable once in a genuinely terminal state, except that
//   FlagNeedsReconciliation moves a SUCCESS row to NEEDS_RECONCILIATION.
type VasTransaction struct {
	id     uuid.UUID
	userID uuid.UUID

	transactionType VasTransactionType
	subtype         string
	status          VasTransactionStatus
	failureReason   string

	amount       valueobjects.Money // face value
	sellingPrice valueobjects.Money
	totalAmount  valueobjects.Money // amount actually debited

	provider     string // "A", "B", or "internal"
	network      string
	phoneNumber  string
	dataPlanID   string
	dataPlanName string

	requestID             string // idempotency key
	transactionReference  string

	// Economics (§4.6)
	providerCost           valueobjects.Money
	providerCommission     valueobjects.Money
	providerCommissionRate int64 // basis points
	gatewayFee             valueobjects.Money
	netMargin              valueobjects.Money
	isPremiumUser          bool

	// Settlement-worker outcome flag (§4.8): the VAS purchase itself
	// succeeded (user was served) but the post-success settlement steps
	// (commission split, notifications, etc.) exhausted their retries.
	settlementFailed bool

	metadata map[string]interface{}

	createdAt   time.Time
	completedAt *time.Time
	expiresAt   *time.Time
}

// NewVasTransaction creates a new ledger row in FAILED(in-progress) state,
// the only legal starting state per the create-FAILED-first policy.
func NewVasTransaction(
	userID uuid.UUID,
	transactionType VasTransactionType,
	subtype string,
	amount, sellingPrice, totalAmount valueobjects.Money,
	requestID string,
) (*VasTransaction, error) {
	if !transactionType.IsValid() {
		return nil, errors.ValidationError{Field: "type", Message: "invalid transaction type"}
	}
	if requestID == "" {
		return nil, errors.ValidationError{Field: "requestId", Message: "requestId is required"}
	}
	if !amount.IsPositive() {
		return nil, errors.NewBusinessRuleViolation(
			"INVALID_AMOUNT",
			"transaction amount must be positive",
			map[string]interface{}{"amount": amount.String()},
		)
	}

	now := time.Now()
	return &VasTransaction{
		id:              uuid.New(),
		userID:          userID,
		transactionType: transactionType,
		subtype:         subtype,
		status:          VasTransactionStatusFailed,
		failureReason:   inProgressReason,
		amount:          amount,
		sellingPrice:    sellingPrice,
		totalAmount:     totalAmount,
		requestID:       requestID,
		metadata:        make(map[string]interface{}),
		createdAt:       now,
	}, nil
}

// ReconstructVasTransaction reconstructs a VasTransaction from stored data.
func ReconstructVasTransaction(
	id, userID uuid.UUID,
	transactionType VasTransactionType,
	subtype string,
	status VasTransactionStatus,
	failureReason string,
	amount, sellingPrice, totalAmount valueobjects.Money,
	provider, network, phoneNumber, dataPlanID, dataPlanName string,
	requestID, transactionReference string,
	providerCost, providerCommission valueobjects.Money,
	providerCommissionRate int64,
	gatewayFee, netMargin valueobjects.Money,
	isPremiumUser, settlementFailed bool,
	metadataJSON []byte,
	createdAt time.Time,
	completedAt, expiresAt *time.Time,
) (*VasTransaction, error) {
	var metadata map[string]interface{}
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &metadata); err != nil {
			return nil, err
		}
	} else {
		metadata = make(map[string]interface{})
	}

	return &VasTransaction{
		id:                     id,
		userID:                 userID,
		transactionType:        transactionType,
		subtype:                subtype,
		status:                 status,
		failureReason:          failureReason,
		amount:                 amount,
		sellingPrice:           sellingPrice,
		totalAmount:            totalAmount,
		provider:               provider,
		network:                network,
		phoneNumber:            phoneNumber,
		dataPlanID:             dataPlanID,
		dataPlanName:           dataPlanName,
		requestID:              requestID,
		transactionReference:   transactionReference,
		providerCost:           providerCost,
		providerCommission:     providerCommission,
		providerCommissionRate: providerCommissionRate,
		gatewayFee:             gatewayFee,
		netMargin:              netMargin,
		isPremiumUser:          isPremiumUser,
		settlementFailed:       settlementFailed,
		metadata:               metadata,
		createdAt:              createdAt,
		completedAt:            completedAt,
		expiresAt:              expiresAt,
	}, nil
}

// Getters

func (t *VasTransaction) ID() uuid.UUID                        { return t.id }
func (t *VasTransaction) UserID() uuid.UUID                    { return t.userID }
func (t *VasTransaction) Type() VasTransactionType              { return t.transactionType }
func (t *VasTransaction) Subtype() string                       { return t.subtype }
func (t *VasTransaction) Status() VasTransactionStatus          { return t.status }
func (t *VasTransaction) FailureReason() string                 { return t.failureReason }
func (t *VasTransaction) Amount() valueobjects.Money             { return t.amount }
func (t *VasTransaction) SellingPrice() valueobjects.Money       { return t.sellingPrice }
func (t *VasTransaction) TotalAmount() valueobjects.Money        { return t.totalAmount }
func (t *VasTransaction) Provider() string                      { return t.provider }
func (t *VasTransaction) Network() string                       { return t.network }
func (t *VasTransaction) PhoneNumber() string                   { return t.phoneNumber }
func (t *VasTransaction) DataPlanID() string                     { return t.dataPlanID }
func (t *VasTransaction) DataPlanName() string                   { return t.dataPlanName }
func (t *VasTransaction) RequestID() string                      { return t.requestID }
func (t *VasTransaction) TransactionReference() string           { return t.transactionReference }
func (t *VasTransaction) ProviderCost() valueobjects.Money        { return t.providerCost }
func (t *VasTransaction) ProviderCommission() valueobjects.Money  { return t.providerCommission }
func (t *VasTransaction) ProviderCommissionRate() int64           { return t.providerCommissionRate }
func (t *VasTransaction) GatewayFee() valueobjects.Money          { return t.gatewayFee }
func (t *VasTransaction) NetMargin() valueobjects.Money           { return t.netMargin }
func (t *VasTransaction) IsPremiumUser() bool                     { return t.isPremiumUser }
func (t *VasTransaction) SettlementFailed() bool                  { return t.settlementFailed }
func (t *VasTransaction) Metadata() map[string]interface{}        { return t.metadata }
func (t *VasTransaction) CreatedAt() time.Time                    { return t.createdAt }
func (t *VasTransaction) CompletedAt() *time.Time                 { return t.completedAt }
func (t *VasTransaction) ExpiresAt() *time.Time                   { return t.expiresAt }

// Business Methods

// IsInProgress returns true if this is still the create-FAILED-first sentinel
// row: FAILED with the "in-progress" reason, not a genuine terminal failure.
func (t *VasTransaction) IsInProgress() bool {
	return t.status == VasTransactionStatusFailed && t.failureReason == inProgressReason
}

// IsTerminal returns true if the row is in a genuinely terminal state and must
// never be mutated again.
func (t *VasTransaction) IsTerminal() bool {
	return t.status.IsTerminal() && !t.IsInProgress()
}

// SetRoutingContext records the provider/network/recipient details chosen by
// the Provider Router (§4.4), before the provider call is made. Only legal
// while the row is still the in-progress sentinel.
func (t *VasTransaction) SetRoutingContext(provider, network, phoneNumber, dataPlanID, dataPlanName string) error {
	if !t.IsInProgress() {
		return errors.ErrTransactionNotInProgress
	}
	t.provider = provider
	t.network = network
	t.phoneNumber = phoneNumber
	t.dataPlanID = dataPlanID
	t.dataPlanName = dataPlanName
	return nil
}

// AddMetadata merges raw provider payload data into metadata. Only legal
// while the row is not yet terminal.
func (t *VasTransaction) AddMetadata(key string, value interface{}) error {
	if t.IsTerminal() {
		return errors.ErrTransactionAlreadyProcessed
	}
	t.metadata[key] = value
	return nil
}

// MarkPending transitions FAILED(in-progress) -> PENDING once the reservation
// is held and the provider call is underway.
func (t *VasTransaction) MarkPending() error {
	if !t.IsInProgress() {
		return errors.ErrTransactionNotInProgress
	}
	t.status = VasTransactionStatusPending
	t.failureReason = ""
	return nil
}

// MarkFailed transitions to a genuine terminal FAILED state with the
// supplied reason. Legal from the in-progress sentinel or from PENDING;
// rejected once the row is already terminal (§4.3 UpdateStatus guard).
func (t *VasTransaction) MarkFailed(reason string) error {
	if t.IsTerminal() {
		return errors.ErrTransactionAlreadyProcessed
	}

	now := time.Now()
	t.status = VasTransactionStatusFailed
	t.failureReason = reason
	t.completedAt = &now
	return nil
}

// MarkSuccess transitions to SUCCESS and records the provider's settlement
// fields and economics. Legal only from the in-progress sentinel or PENDING.
func (t *VasTransaction) MarkSuccess(
	transactionReference string,
	providerCost, providerCommission valueobjects.Money,
	providerCommissionRate int64,
	gatewayFee, netMargin valueobjects.Money,
) error {
	if t.IsTerminal() {
		return errors.ErrTransactionAlreadyProcessed
	}

	now := time.Now()
	t.status = VasTransactionStatusSuccess
	t.failureReason = ""
	t.transactionReference = transactionReference
	t.providerCost = providerCost
	t.providerCommission = providerCommission
	t.providerCommissionRate = providerCommissionRate
	t.gatewayFee = gatewayFee
	t.netMargin = netMargin
	t.completedAt = &now
	return nil
}

// FlagNeedsReconciliation moves a SUCCESS row to NEEDS_RECONCILIATION (the
// provider did deliver something, the user was served) for human review
// because the delivered product didn't match the request (§4.10). Only legal on an
// already-SUCCESS row - never used to fail an already-debited transaction.
func (t *VasTransaction) FlagNeedsReconciliation() error {
	if t.status != VasTransactionStatusSuccess {
		return errors.NewBusinessRuleViolation(
			"CANNOT_FLAG_NON_SUCCESS_TRANSACTION",
			"only a SUCCESS transaction can be flagged NEEDS_RECONCILIATION",
			map[string]interface{}{"currentStatus": t.status},
		)
	}
	t.status = VasTransactionStatusNeedsReconciliation
	return nil
}

// MarkSettlementFailed records that the post-success settlement task
// exhausted its retries (§4.8). The transaction itself remains SUCCESS;
// this is an operational flag, not a status transition.
func (t *VasTransaction) MarkSettlementFailed() {
	t.settlementFailed = true
}

// SetPremiumUser records whether the purchasing user held an active
// subscription at the time of purchase (pricing/fee-waiver context).
func (t *VasTransaction) SetPremiumUser(isPremium bool) {
	t.isPremiumUser = isPremium
}

// SetExpiresAt sets the transaction's expiry (used for PENDING duplicate
// guards and reservation sweeps).
func (t *VasTransaction) SetExpiresAt(expiresAt time.Time) {
	t.expiresAt = &expiresAt
}
