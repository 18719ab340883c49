// Package settlement implements the Settlement Worker (§4.6 steps a-h,
// §4.8): the Task Queue consumer that turns a provider-success vend into a
// debited wallet, a SUCCESS ledger row, and the commission/referral/
// notification side effects, all after the user's money is already
// committed. Grounded on the Reservation Manager's load-mutate-save-publish
// shape (internal/application/usecases/reservation/reservation_manager.go),
// generalized from "one mutation" to "one pipeline of mutations, retried as
// a whole on any step's failure."
package settlement

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ficore/vaswallet/internal/application/ports"
	"github.com/ficore/vaswallet/internal/application/usecases/purchase"
	"github.com/ficore/vaswallet/internal/application/usecases/reservation"
	"github.com/ficore/vaswallet/internal/domain/entities"
	"github.com/ficore/vaswallet/internal/domain/events"
	"github.com/ficore/vaswallet/internal/domain/valueobjects"
)

// Commission rates (§4.6 Economics), in basis points of the vended amount.
const (
	providerACommissionRateBps        = 300 // 3%
	providerBDataCommissionRateBps    = 500 // 5%
	providerBAirtimeCommissionRateBps = 100 // 1%
	referralShareRateBps              = 100 // 1%, the referrer's cut of the purchase (§4.6g)
)

// mismatchAmountToleranceMinorUnits is the §4.10 allowance between requested
// and delivered amount before a purchase is flagged for reconciliation.
const mismatchAmountToleranceMinorUnits = 5_000 // NGN 50.00

// leaseSweepInterval is how often the lease sweep looks for abandoned
// PROCESSING tasks and returns them to PENDING (§4.8).
const leaseSweepInterval = 30 * time.Second

// sizeOrDurationPattern extracts a data-plan's defining keyword (its size or
// validity period) so the delivered product can be compared against the
// requested one without demanding an exact string match - providers often
// rename plans cosmetically between the catalog and the vend receipt.
var sizeOrDurationPattern = regexp.MustCompile(`(?i)\d+(?:\.\d+)?\s*(?:MB|GB)|\d+\s*(?:DAY|DAYS|WEEK|WEEKS|MONTH|MONTHS)`)

// Worker claims and runs settlement tasks to completion, or retries them
// with backoff up to entities.MaxAttempts (§4.8).
type Worker struct {
	taskRepo        ports.TaskRepository
	txRepo          ports.VasTransactionRepository
	userRepo        ports.UserRepository
	walletRepo      ports.WalletRepository
	corpRevenueRepo ports.CorporateRevenueRepository
	reservationMgr  *reservation.Manager
	eventPublisher  ports.EventPublisher
}

// NewWorker creates a new Settlement Worker.
func NewWorker(
	taskRepo ports.TaskRepository,
	txRepo ports.VasTransactionRepository,
	userRepo ports.UserRepository,
	walletRepo ports.WalletRepository,
	corpRevenueRepo ports.CorporateRevenueRepository,
	reservationMgr *reservation.Manager,
	eventPublisher ports.EventPublisher,
) *Worker {
	return &Worker{
		taskRepo:        taskRepo,
		txRepo:          txRepo,
		userRepo:        userRepo,
		walletRepo:      walletRepo,
		corpRevenueRepo: corpRevenueRepo,
		reservationMgr:  reservationMgr,
		eventPublisher:  eventPublisher,
	}
}

// ProcessNext claims one PENDING task and runs it to completion or failure.
// Returns claimed=false when the queue is empty - the caller's poll loop
// should back off before calling again.
func (w *Worker) ProcessNext(ctx context.Context) (claimed bool, err error) {
	task, err := w.taskRepo.ClaimNextPending(ctx, entities.LeaseDuration)
	if err != nil {
		return false, fmt.Errorf("failed to claim next task: %w", err)
	}
	if task == nil {
		return false, nil
	}

	if settleErr := w.settle(ctx, task); settleErr != nil {
		return true, w.recordFailure(ctx, task, settleErr)
	}

	if err := task.Complete(); err != nil {
		return true, err
	}
	if err := w.taskRepo.Save(ctx, task); err != nil {
		return true, fmt.Errorf("failed to save completed task: %w", err)
	}
	return true, nil
}

// recordFailure applies entities.TransactionTask.Fail's retry/backoff
// decision and, once the task is exhausted, raises the operator alert
// §4.8 calls for instead of silently dropping the purchase's settlement.
func (w *Worker) recordFailure(ctx context.Context, task *entities.TransactionTask, settleErr error) error {
	if failErr := task.Fail(settleErr.Error()); failErr != nil {
		return failErr
	}
	if err := w.taskRepo.Save(ctx, task); err != nil {
		return fmt.Errorf("failed to save failed task: %w", err)
	}

	if task.IsExhausted() {
		var payload purchase.SettlementPayload
		if err := json.Unmarshal(task.Payload(), &payload); err == nil {
			if tx, txErr := w.txRepo.FindByID(ctx, payload.TransactionID); txErr == nil {
				tx.MarkSettlementFailed()
				_ = w.txRepo.Save(ctx, tx)
			}
			alert := events.NewOperatorAlertRaised(payload.TransactionID, "SETTLEMENT_EXHAUSTED",
				fmt.Sprintf("settlement task %s exhausted %d attempts: %s", task.ID(), task.Attempts(), settleErr.Error()))
			_ = w.eventPublisher.Publish(ctx, alert)
		}
	}
	return nil
}

// settle runs §4.6 steps a-h for one task. Step a (committing the
// reservation, i.e. the actual debit) is always applied first and is
// idempotent on retry; steps b-h read back the already-SUCCESS transaction
// on a retried task and simply continue from wherever the prior attempt
// failed, since every write here is itself idempotent or re-derivable.
func (w *Worker) settle(ctx context.Context, task *entities.TransactionTask) error {
	var payload purchase.SettlementPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to decode settlement payload: %w", err)
	}

	tx, err := w.txRepo.FindByID(ctx, payload.TransactionID)
	if err != nil {
		return fmt.Errorf("failed to load transaction: %w", err)
	}

	// Step a: commit the reservation - debits the wallet and appends
	// reservation history. Idempotent: a COMMITTED reservation is a no-op.
	if err := w.reservationMgr.Commit(ctx, tx.ID()); err != nil {
		return fmt.Errorf("failed to commit reservation: %w", err)
	}

	if tx.Status() != entities.VasTransactionStatusSuccess {
		if err := w.markSuccess(ctx, tx, payload); err != nil {
			return err
		}
	}

	if err := w.reconcileDeliveredProduct(ctx, tx, payload); err != nil {
		return err
	}

	if err := w.recordRevenue(ctx, tx, payload); err != nil {
		return err
	}

	if err := w.creditReferral(ctx, tx); err != nil {
		return err
	}

	w.notifyUser(ctx, tx)
	return nil
}

// markSuccess implements step b: transitions the ledger row to SUCCESS and
// records the provider's settlement fields and the commission split.
func (w *Worker) markSuccess(ctx context.Context, tx *entities.VasTransaction, payload purchase.SettlementPayload) error {
	rateBps := commissionRateBps(payload.Provider, tx.Type())
	providerCommission := tx.TotalAmount().MultiplyRate(rateBps)
	providerCost, err := tx.TotalAmount().Subtract(providerCommission)
	if err != nil {
		return fmt.Errorf("failed to compute provider cost: %w", err)
	}
	gatewayFee := valueobjects.Zero(valueobjects.NGN)
	netMargin := providerCommission

	if err := tx.MarkSuccess(payload.TransactionReference, providerCost, providerCommission, rateBps, gatewayFee, netMargin); err != nil {
		return fmt.Errorf("failed to mark transaction success: %w", err)
	}
	if err := w.txRepo.Save(ctx, tx); err != nil {
		return fmt.Errorf("failed to save transaction: %w", err)
	}

	evt := events.NewVasTransactionSucceeded(tx.ID(), tx.UserID(), string(tx.Type()), tx.TotalAmount())
	return w.eventPublisher.Publish(ctx, evt)
}

// reconcileDeliveredProduct implements step c (§4.10): a mismatch between
// what was requested and what the provider actually vended never fails an
// already-debited transaction - it only flags the row for human review and
// raises an operator alert.
func (w *Worker) reconcileDeliveredProduct(ctx context.Context, tx *entities.VasTransaction, payload purchase.SettlementPayload) error {
	if tx.Status() != entities.VasTransactionStatusSuccess {
		return nil // already flagged NEEDS_RECONCILIATION on a prior attempt
	}
	if !deliveredProductMismatch(payload) {
		return nil
	}

	if err := tx.FlagNeedsReconciliation(); err != nil {
		return fmt.Errorf("failed to flag reconciliation: %w", err)
	}
	if err := w.txRepo.Save(ctx, tx); err != nil {
		return fmt.Errorf("failed to save flagged transaction: %w", err)
	}

	reconEvt := events.NewNeedsReconciliation(tx.ID(), payload.RequestedProductName, payload.VendedProductName, "HIGH")
	if err := w.eventPublisher.Publish(ctx, reconEvt); err != nil {
		return fmt.Errorf("failed to publish reconciliation event: %w", err)
	}

	alert := events.NewOperatorAlertRaised(tx.ID(), "DELIVERED_PRODUCT_MISMATCH",
		fmt.Sprintf("requested %q, provider delivered %q", payload.RequestedProductName, payload.VendedProductName))
	return w.eventPublisher.Publish(ctx, alert)
}

// recordRevenue implements steps d-f: persists the commission split as a
// CorporateRevenueEntry and emits the expense-ledger and corporate-revenue
// events the external bookkeeping collaborator listens for.
func (w *Worker) recordRevenue(ctx context.Context, tx *entities.VasTransaction, payload purchase.SettlementPayload) error {
	existing, err := w.corpRevenueRepo.FindByTransactionID(ctx, tx.ID())
	if err != nil {
		return fmt.Errorf("failed to check existing revenue entries: %w", err)
	}
	for _, e := range existing {
		if e.Type() == entities.RevenueEntryTypeVasCommission {
			return nil // already recorded on a prior attempt
		}
	}

	entry, err := entities.NewCorporateRevenueEntry(tx.ID(), entities.RevenueEntryTypeVasCommission, tx.ProviderCommission(), "VAS provider commission")
	if err != nil {
		return fmt.Errorf("failed to build revenue entry: %w", err)
	}
	if err := w.corpRevenueRepo.Save(ctx, entry); err != nil {
		return fmt.Errorf("failed to save revenue entry: %w", err)
	}

	expenseEvt := events.NewExpenseLedgerRequested(tx.ID(), tx.ProviderCost(), "VAS_PROVIDER_COST")
	if err := w.eventPublisher.Publish(ctx, expenseEvt); err != nil {
		return fmt.Errorf("failed to publish expense ledger event: %w", err)
	}

	revenueEvt := events.NewCorporateRevenueRecorded(tx.ID(), string(entry.Type()), entry.Amount())
	return w.eventPublisher.Publish(ctx, revenueEvt)
}

// creditReferral implements step g: if the purchasing user has an active
// referral share window, the referrer earns 1% of the purchase amount,
// credited straight to the referrer's own wallet balance.
func (w *Worker) creditReferral(ctx context.Context, tx *entities.VasTransaction) error {
	user, err := w.userRepo.FindByID(ctx, tx.UserID())
	if err != nil {
		return fmt.Errorf("failed to load purchasing user: %w", err)
	}
	if !user.HasActiveReferralShare() {
		return nil
	}

	existing, err := w.corpRevenueRepo.FindByTransactionID(ctx, tx.ID())
	if err != nil {
		return fmt.Errorf("failed to check existing revenue entries: %w", err)
	}
	for _, e := range existing {
		if e.Type() == entities.RevenueEntryTypeReferralPayout {
			return nil // already credited on a prior attempt
		}
	}

	referrerWallet, err := w.walletRepo.FindByUserID(ctx, *user.ReferrerID())
	if err != nil {
		return fmt.Errorf("failed to load referrer wallet: %w", err)
	}

	referralAmount := tx.Amount().MultiplyRate(referralShareRateBps)
	if err := referrerWallet.Credit(referralAmount); err != nil {
		return fmt.Errorf("failed to credit referrer wallet: %w", err)
	}
	if err := w.walletRepo.Save(ctx, referrerWallet); err != nil {
		return fmt.Errorf("failed to save referrer wallet: %w", err)
	}

	// Recorded as a REFERRAL_PAYOUT entry at the positive referral amount -
	// its type, not its sign, marks it as a deduction from VAS commission
	// revenue when the corporate revenue report is built.
	payoutEntry, err := entities.NewCorporateRevenueEntry(tx.ID(), entities.RevenueEntryTypeReferralPayout, referralAmount, "referral VAS share")
	if err != nil {
		return fmt.Errorf("failed to build referral payout entry: %w", err)
	}
	if err := w.corpRevenueRepo.Save(ctx, payoutEntry); err != nil {
		return fmt.Errorf("failed to save referral payout entry: %w", err)
	}

	evt := events.NewReferralPayoutCredited(*user.ReferrerID(), tx.ID(), referralAmount)
	return w.eventPublisher.Publish(ctx, evt)
}

// notifyUser implements step h. Notification delivery is a best-effort
// collaborator hook - a failure here never re-fails an already-settled
// purchase, so it is not propagated into the task's retry loop.
func (w *Worker) notifyUser(ctx context.Context, tx *entities.VasTransaction) {
	evt := events.NewUserNotificationRequested(tx.UserID(), tx.ID(), "your purchase was successful")
	_ = w.eventPublisher.Publish(ctx, evt)
}

// SweepExpiredLeases returns abandoned PROCESSING tasks (a worker that
// crashed mid-settlement) to PENDING so another worker can pick them up
// (§4.8, run on a 30-second ticker by the caller).
func (w *Worker) SweepExpiredLeases(ctx context.Context) (recovered int, err error) {
	expired, err := w.taskRepo.FindExpiredLeases(ctx, 100)
	if err != nil {
		return 0, fmt.Errorf("failed to find expired leases: %w", err)
	}

	for _, task := range expired {
		if err := task.ReclaimExpiredLease(); err != nil {
			continue
		}
		if err := w.taskRepo.Save(ctx, task); err != nil {
			return recovered, fmt.Errorf("failed to save reclaimed task: %w", err)
		}
		recovered++
	}
	return recovered, nil
}

// Run polls for settlement tasks until ctx is canceled, sleeping idleDelay
// between empty polls. Intended to run as its own goroutine per worker
// process (§4.8 "worker pool").
func (w *Worker) Run(ctx context.Context, idleDelay time.Duration) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		claimed, err := w.ProcessNext(ctx)
		if err != nil || !claimed {
			select {
			case <-time.After(idleDelay):
			case <-ctx.Done():
				return
			}
		}
	}
}

// RunLeaseSweep ticks SweepExpiredLeases every 30 seconds until ctx is
// canceled. Intended to run once per process, independent of how many
// settlement workers are polling.
func (w *Worker) RunLeaseSweep(ctx context.Context) {
	ticker := time.NewTicker(leaseSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = w.SweepExpiredLeases(ctx)
		}
	}
}

// commissionRateBps picks the provider commission rate (§4.6 Economics):
// Provider A charges a flat 3% regardless of product; Provider B's rate
// depends on whether the product is data (5%) or airtime (1%).
func commissionRateBps(provider string, txType entities.VasTransactionType) int64 {
	if provider == "A" {
		return providerACommissionRateBps
	}
	if txType == entities.VasTransactionTypeData {
		return providerBDataCommissionRateBps
	}
	return providerBAirtimeCommissionRateBps
}

// deliveredProductMismatch implements the §4.10 comparison: amounts must be
// within NGN 50.00 of each other, and, when both sides name a product, they
// must share a size/duration keyword (airtime has no product name on either
// side and is judged on amount alone).
func deliveredProductMismatch(payload purchase.SettlementPayload) bool {
	amountDiff := payload.VendedAmountMinorUnits - payload.RequestedAmountMinorUnits
	if amountDiff < 0 {
		amountDiff = -amountDiff
	}
	if amountDiff > mismatchAmountToleranceMinorUnits {
		return true
	}

	if payload.RequestedProductName == "" || payload.VendedProductName == "" {
		return false
	}
	return !shareSizeOrDurationKeyword(payload.RequestedProductName, payload.VendedProductName)
}

func shareSizeOrDurationKeyword(requested, delivered string) bool {
	delivSet := make(map[string]bool)
	for _, k := range sizeOrDurationPattern.FindAllString(strings.ToUpper(delivered), -1) {
		delivSet[normalizeKeyword(k)] = true
	}
	for _, k := range sizeOrDurationPattern.FindAllString(strings.ToUpper(requested), -1) {
		if delivSet[normalizeKeyword(k)] {
			return true
		}
	}
	return false
}

func normalizeKeyword(k string) string {
	return strings.Join(strings.Fields(k), "")
}
