// Package purchase implements the Purchase Orchestrator (§4.6): the
// end-to-end contract for buying airtime and data. It coordinates the
// Provider Router (§4.4), the Reservation Manager (§4.2), the PIN gate
// (§4.9), and the Provider Gateway (§4.5), then hands off to the durable
// Task Queue for settlement (§4.8) instead of debiting inline.
package purchase

import (
	"context"
	"crypto/rand"
	stderrors "errors"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ficore/vaswallet/internal/application/dtos"
	"github.com/ficore/vaswallet/internal/application/ports"
	"github.com/ficore/vaswallet/internal/application/usecases/reservation"
	"github.com/ficore/vaswallet/internal/domain/entities"
	"github.com/ficore/vaswallet/internal/domain/errors"
	"github.com/ficore/vaswallet/internal/domain/router"
	"github.com/ficore/vaswallet/internal/domain/valueobjects"
	"github.com/google/uuid"
)

// duplicateClickWindowMinutes is the lookback window for the recent-success
// and in-flight duplicate guards (§4.6 steps 3-4).
const duplicateClickWindowMinutes = 5

// providerIdleRetryDelay is how long the orchestrator waits before requerying
// a Provider-A vend call that returned IN_PROGRESS (§4.5 step 6).
const providerIdleRetryDelay = 3 * time.Second

// Airtime amount bounds (§4.6 step 1), in Naira minor units (kobo).
const (
	airtimeMinAmount = 10_000  // NGN 100.00
	airtimeMaxAmount = 500_000 // NGN 5,000.00
)

// SettlementPayload is the JSON-encoded context a TransactionTask carries
// into the settlement worker (§4.8): everything the worker needs to debit
// the reservation and finish the purchase without re-deriving it from the
// provider response.
type SettlementPayload struct {
	TransactionID         uuid.UUID `json:"transaction_id"`
	UserID                uuid.UUID `json:"user_id"`
	TransactionType       string    `json:"transaction_type"`
	Provider              string    `json:"provider"`
	TransactionReference  string    `json:"transaction_reference"`
	VendedProductName     string    `json:"vended_product_name"`
	VendedAmountMinorUnits int64    `json:"vended_amount_minor_units"`
	RequestedAmountMinorUnits int64 `json:"requested_amount_minor_units"`
	RequestedProductName  string    `json:"requested_product_name"`
}

// Orchestrator implements §4.6's buy-airtime and buy-data flows.
type Orchestrator struct {
	userRepo        ports.UserRepository
	walletRepo      ports.WalletRepository
	txRepo          ports.VasTransactionRepository
	taskRepo        ports.TaskRepository
	reservationMgr  *reservation.Manager
	router          *router.Router
	gateways        map[router.Provider]ports.ProviderGateway
	tokenCache      ports.TokenCache
	taskQueue       ports.TaskQueue
	uow             ports.UnitOfWork
}

// NewOrchestrator creates a new Purchase Orchestrator. gateways must carry an
// entry for router.ProviderA and router.ProviderB.
func NewOrchestrator(
	userRepo ports.UserRepository,
	walletRepo ports.WalletRepository,
	txRepo ports.VasTransactionRepository,
	taskRepo ports.TaskRepository,
	reservationMgr *reservation.Manager,
	r *router.Router,
	gateways map[router.Provider]ports.ProviderGateway,
	tokenCache ports.TokenCache,
	taskQueue ports.TaskQueue,
	uow ports.UnitOfWork,
) *Orchestrator {
	return &Orchestrator{
		userRepo:       userRepo,
		walletRepo:     walletRepo,
		txRepo:         txRepo,
		taskRepo:       taskRepo,
		reservationMgr: reservationMgr,
		router:         r,
		gateways:       gateways,
		tokenCache:     tokenCache,
		taskQueue:      taskQueue,
		uow:            uow,
	}
}

// BuyAirtime executes the airtime purchase flow (§6 POST /purchase/buy-airtime).
func (o *Orchestrator) BuyAirtime(ctx context.Context, cmd dtos.BuyAirtimeCommand) (*dtos.PurchaseAcceptedDTO, error) {
	userID, err := uuid.Parse(cmd.UserID)
	if err != nil {
		return nil, errors.ValidationError{Field: "user_id", Message: "invalid UUID"}
	}

	amount, err := valueobjects.NewMoney(cmd.Amount, valueobjects.NGN)
	if err != nil {
		return nil, errors.ValidationError{Field: "amount", Message: err.Error()}
	}
	if amount.MinorUnits() < airtimeMinAmount || amount.MinorUnits() > airtimeMaxAmount {
		return nil, errors.NewBusinessRuleViolation(
			"AMOUNT_OUT_OF_RANGE",
			"airtime amount must be between NGN 100.00 and NGN 5,000.00",
			map[string]interface{}{"amount": amount.String()},
		)
	}

	decision := o.router.RouteAirtime(cmd.Network)

	return o.execute(ctx, purchaseRequest{
		userID:       userID,
		phoneNumber:  cmd.PhoneNumber,
		network:      cmd.Network,
		amount:       amount,
		pin:          cmd.Pin,
		txType:       entities.VasTransactionTypeAirtime,
		subtype:      "",
		dataPlanID:   "",
		dataPlanName: "",
		decision:     decision,
	})
}

// BuyData executes the data-plan purchase flow (§6 POST /purchase/buy-data).
func (o *Orchestrator) BuyData(ctx context.Context, cmd dtos.BuyDataCommand) (*dtos.PurchaseAcceptedDTO, error) {
	userID, err := uuid.Parse(cmd.UserID)
	if err != nil {
		return nil, errors.ValidationError{Field: "user_id", Message: "invalid UUID"}
	}

	amount, err := valueobjects.NewMoney(cmd.Amount, valueobjects.NGN)
	if err != nil {
		return nil, errors.ValidationError{Field: "amount", Message: err.Error()}
	}

	decision, err := o.router.RouteData(cmd.PlanType, cmd.Network, cmd.DataPlanID)
	if err != nil {
		return nil, fmt.Errorf("failed to route data purchase: %w", err)
	}

	return o.execute(ctx, purchaseRequest{
		userID:       userID,
		phoneNumber:  cmd.PhoneNumber,
		network:      cmd.Network,
		amount:       amount,
		pin:          cmd.Pin,
		txType:       entities.VasTransactionTypeData,
		subtype:      cmd.PlanType,
		dataPlanID:   cmd.DataPlanID,
		dataPlanName: cmd.DataPlanName,
		decision:     decision,
	})
}

// purchaseRequest carries everything common to airtime and data purchases
// once each has resolved its own routing decision and amount bounds.
type purchaseRequest struct {
	userID       uuid.UUID
	phoneNumber  string
	network      string
	amount       valueobjects.Money
	pin          string
	txType       entities.VasTransactionType
	subtype      string
	dataPlanID   string
	dataPlanName string
	decision     router.RouteDecision
}

// execute implements §4.6 steps 2-10, shared by both purchase flows.
// Airtime and data differ only in the request shape and routing decision
// constructed by their callers above.
func (o *Orchestrator) execute(ctx context.Context, req purchaseRequest) (*dtos.PurchaseAcceptedDTO, error) {
	// Step 2: face-value pricing - no margin on VAS.
	sellingPrice := req.amount
	totalAmount := req.amount

	// Step 3: duplicate-click guard.
	if recent, err := o.txRepo.FindRecentSuccess(ctx, req.userID, req.txType, req.amount, req.phoneNumber, duplicateClickWindowMinutes); err != nil {
		return nil, fmt.Errorf("failed to check recent transactions: %w", err)
	} else if recent != nil {
		return nil, &errors.DuplicateRequestError{Reference: recent.RequestID(), Recent: true}
	}

	// Step 4: in-flight duplicate guard.
	if inFlight, err := o.txRepo.FindInFlight(ctx, req.userID, req.txType, req.amount, req.phoneNumber, duplicateClickWindowMinutes); err != nil {
		return nil, fmt.Errorf("failed to check in-flight transactions: %w", err)
	} else if inFlight != nil {
		return nil, &errors.DuplicateRequestError{Reference: inFlight.RequestID(), Recent: true}
	}

	wallet, err := o.walletRepo.FindByUserID(ctx, req.userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load wallet: %w", err)
	}

	// §4.9 RequirePin gate, ahead of the balance check (step 5). PIN
	// validation mutates attempt/lockout state even on failure, so the
	// wallet is saved either way.
	pinErr := wallet.ValidatePin(req.pin)
	if saveErr := o.walletRepo.Save(ctx, wallet); saveErr != nil {
		return nil, fmt.Errorf("failed to persist PIN validation state: %w", saveErr)
	}
	if pinErr != nil {
		return nil, pinErr
	}

	// Step 5: available-balance check.
	hasSufficient, err := wallet.HasSufficientAvailable(totalAmount)
	if err != nil {
		return nil, err
	}
	if !hasSufficient {
		available, _ := wallet.AvailableBalance()
		return nil, &errors.InsufficientFundsError{
			WalletID:  wallet.ID().String(),
			Available: available.MinorUnits(),
			Requested: totalAmount.MinorUnits(),
		}
	}

	// Step 6: idempotent request id.
	requestID, err := newRequestID(req.txType, req.userID)
	if err != nil {
		return nil, err
	}

	user, err := o.userRepo.FindByID(ctx, req.userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	// Steps 7-8: create-FAILED-first ledger row, then hold the reservation,
	// atomically - a crash between these two never leaves a silent PENDING.
	tx, err := entities.NewVasTransaction(req.userID, req.txType, req.subtype, req.amount, sellingPrice, totalAmount, requestID)
	if err != nil {
		return nil, err
	}
	tx.SetPremiumUser(user.IsPremium())
	if err := tx.SetRoutingContext(providerLabel(req.decision.Provider), req.network, req.phoneNumber, req.dataPlanID, req.dataPlanName); err != nil {
		return nil, err
	}

	err = o.uow.Execute(ctx, func(txCtx context.Context) error {
		if err := o.txRepo.Save(txCtx, tx); err != nil {
			return fmt.Errorf("failed to save transaction: %w", err)
		}
		if _, err := o.reservationMgr.Hold(txCtx, wallet.ID(), tx.ID(), totalAmount); err != nil {
			return fmt.Errorf("failed to hold reservation: %w", err)
		}
		if err := tx.MarkPending(); err != nil {
			return err
		}
		if err := o.txRepo.Save(txCtx, tx); err != nil {
			return fmt.Errorf("failed to save transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Step 9: route and call the Provider Gateway.
	vendReq := ports.VendRequest{
		ProductCode:      req.decision.ProductCode,
		CustomerID:       req.phoneNumber,
		AmountMinorUnits: totalAmount.MinorUnits(),
		VendReference:    requestID,
	}
	result, provider, vendErr := o.vendWithFallback(ctx, req.decision, vendReq)
	if vendErr != nil {
		return o.abortAfterProviderFailure(ctx, tx, requestID, vendErr)
	}

	// On success: enqueue settlement, do NOT debit here (§4.6 step 9).
	payload := SettlementPayload{
		TransactionID:             tx.ID(),
		UserID:                    req.userID,
		TransactionType:           string(req.txType),
		Provider:                  providerLabel(provider),
		TransactionReference:      result.TransactionReference,
		VendedProductName:         result.ProductName,
		VendedAmountMinorUnits:    result.VendAmountMinorUnits,
		RequestedAmountMinorUnits: totalAmount.MinorUnits(),
		RequestedProductName:      req.dataPlanName,
	}
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal settlement payload: %w", err)
	}

	task, err := entities.NewTransactionTask(entities.TaskKindSettleVas, payloadJSON)
	if err != nil {
		return nil, err
	}
	if err := o.taskRepo.Save(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to enqueue settlement task: %w", err)
	}
	if err := o.taskQueue.Publish(ctx, task.ID()); err != nil {
		return nil, fmt.Errorf("failed to publish settlement task: %w", err)
	}

	available, _ := wallet.AvailableBalance()
	available, _ = available.Subtract(totalAmount)
	return &dtos.PurchaseAcceptedDTO{
		TransactionID:    tx.ID().String(),
		RequestID:        requestID,
		ProcessingStatus: "QUEUED",
		AvailableBalance: available.DecimalString(),
	}, nil
}

// abortAfterProviderFailure releases the reservation and marks the ledger
// row terminally FAILED (§4.6 step 9 "on provider failure").
func (o *Orchestrator) abortAfterProviderFailure(ctx context.Context, tx *entities.VasTransaction, requestID string, vendErr error) (*dtos.PurchaseAcceptedDTO, error) {
	if err := o.reservationMgr.Release(ctx, tx.ID(), vendErr.Error()); err != nil {
		return nil, fmt.Errorf("failed to release reservation after provider failure: %w", err)
	}
	if err := tx.MarkFailed(vendErr.Error()); err != nil {
		return nil, err
	}
	if err := o.txRepo.Save(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to save failed transaction: %w", err)
	}
	return nil, vendErr
}

// vendWithFallback calls the Provider Gateway per the routed decision. For
// airtime (the only product family with AllowsFallback), an Unreachable or
// generic provider-side failure on the primary is retried once against the
// fallback provider (§7); a Rejected (bad input) response never falls back.
func (o *Orchestrator) vendWithFallback(ctx context.Context, decision router.RouteDecision, req ports.VendRequest) (*ports.VendResult, router.Provider, error) {
	result, err := o.vend(ctx, decision.Provider, req)
	if err == nil {
		return result, decision.Provider, nil
	}
	if !decision.AllowsFallback || !shouldFallback(err) {
		return nil, decision.Provider, err
	}

	fallbackResult, fallbackErr := o.vend(ctx, decision.FallbackTo, req)
	if fallbackErr != nil {
		return nil, decision.FallbackTo, fallbackErr
	}
	return fallbackResult, decision.FallbackTo, nil
}

func shouldFallback(err error) bool {
	var provErr *errors.ProviderError
	if !stderrors.As(err, &provErr) {
		return false
	}
	return provErr.Kind == errors.ProviderUnreachable || provErr.Kind == errors.ProviderFailed
}

// vend performs one provider's vend call, including the Provider-A
// IN_PROGRESS -> sleep 3s -> requery-once sequence (§4.5 step 6).
func (o *Orchestrator) vend(ctx context.Context, provider router.Provider, req ports.VendRequest) (*ports.VendResult, error) {
	gw, ok := o.gateways[provider]
	if !ok {
		return nil, fmt.Errorf("no provider gateway configured for %s", provider)
	}

	token, err := o.tokenFor(ctx, provider, gw)
	if err != nil {
		return nil, err
	}

	if validation, err := gw.ValidateCustomer(ctx, token, req.ProductCode, req.CustomerID); err != nil {
		return nil, err
	} else if validation != nil && validation.RequireValidationRef {
		req.ValidationReference = validation.ValidationReference
	}

	result, err := gw.Vend(ctx, token, req)
	if err != nil {
		return nil, err
	}
	if result.Status != ports.VendStatusInProgress {
		return result, nil
	}

	select {
	case <-time.After(providerIdleRetryDelay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return gw.Requery(ctx, token, req.VendReference)
}

// tokenFor resolves a provider's bearer token from the process-wide cache,
// falling back to a live Authenticate call on a miss (§4.5 step 1). Provider-B
// has no separate auth step and returns ErrProviderHasNoAuthStep, which is
// not a failure - it simply means Vend is called without a cached token.
func (o *Orchestrator) tokenFor(ctx context.Context, provider router.Provider, gw ports.ProviderGateway) (string, error) {
	cacheKey := string(provider)
	if token, found, err := o.tokenCache.Get(ctx, cacheKey); err == nil && found {
		return token, nil
	}

	token, ttl, err := gw.Authenticate(ctx)
	if err != nil {
		if err == errors.ErrProviderHasNoAuthStep {
			return "", nil
		}
		return "", err
	}

	_ = o.tokenCache.Set(ctx, cacheKey, token, ttl)
	return token, nil
}

// newRequestID builds the spec's idempotency key shape:
// FICORE_<TYPE>_<userId>_<unixSec>_<8 hex> (§4.6 step 6).
func newRequestID(txType entities.VasTransactionType, userID uuid.UUID) (string, error) {
	suffix := make([]byte, 4)
	if _, err := rand.Read(suffix); err != nil {
		return "", fmt.Errorf("failed to generate request id suffix: %w", err)
	}
	return fmt.Sprintf("FICORE_%s_%s_%d_%s", txType, userID, time.Now().Unix(), hex.EncodeToString(suffix)), nil
}

// providerLabel maps the router's provider identifier to the short label
// persisted on the ledger row ("A", "B", or "internal").
func providerLabel(p router.Provider) string {
	switch p {
	case router.ProviderA:
		return "A"
	case router.ProviderB:
		return "B"
	default:
		return "internal"
	}
}
