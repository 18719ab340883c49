// Package webhook implements the Webhook Processor (§4.7): the funding
// provider's callback endpoint. HMAC-verifies the raw body, resolves the
// target wallet, and applies an idempotent credit - or, for a VAS delivery
// confirmation arriving on the same endpoint, does nothing at all, since
// this service is never authoritative for a VAS debit from a webhook
// (§9 "webhook is authoritative for credit, never for VAS debit").
package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/ficore/vaswallet/internal/application/ports"
	"github.com/ficore/vaswallet/internal/domain/entities"
	"github.com/ficore/vaswallet/internal/domain/errors"
	"github.com/ficore/vaswallet/internal/domain/events"
	"github.com/ficore/vaswallet/internal/domain/valueobjects"
	"github.com/google/uuid"
)

// depositFeeMinorUnits is the flat funding fee charged to non-premium users
// (§4.7 step 2), NGN 30.00.
const depositFeeMinorUnits = 3_000

// gatewayFeeRateBps is the funding provider's own cut of every deposit
// (§4.7 step 3), 1.6%.
const gatewayFeeRateBps = 160

// referralFicoreCreditBonus is the one-time FiCore credit bonus a new user
// earns on their first deposit when a referral relationship is in effect
// (§4.7 step 8). Units are raw FiCore credits, a separate economy from NGN.
const referralFicoreCreditBonus = 5

// Processor implements the funding webhook endpoint (§6 POST /wallet/webhook).
type Processor struct {
	walletRepo      ports.WalletRepository
	txRepo          ports.VasTransactionRepository
	userRepo        ports.UserRepository
	corpRevenueRepo ports.CorporateRevenueRepository
	eventPublisher  ports.EventPublisher
	uow             ports.UnitOfWork
	hmacSecret      []byte
}

// NewProcessor creates a new Webhook Processor. hmacSecret is the shared
// secret configured with the funding provider (§6 "shared secret").
func NewProcessor(
	walletRepo ports.WalletRepository,
	txRepo ports.VasTransactionRepository,
	userRepo ports.UserRepository,
	corpRevenueRepo ports.CorporateRevenueRepository,
	eventPublisher ports.EventPublisher,
	uow ports.UnitOfWork,
	hmacSecret []byte,
) *Processor {
	return &Processor{
		walletRepo:      walletRepo,
		txRepo:          txRepo,
		userRepo:        userRepo,
		corpRevenueRepo: corpRevenueRepo,
		eventPublisher:  eventPublisher,
		uow:             uow,
		hmacSecret:      hmacSecret,
	}
}

// rawFundingBody accepts both the "event-wrapped" and "flat" provider
// payload shapes (§4.7, §6) in a single struct - unused fields in either
// shape are simply left zero-valued.
type rawFundingBody struct {
	EventType            string `json:"eventType"`
	PaymentStatus         string `json:"paymentStatus"`
	AmountPaid            string `json:"amountPaid"`
	TransactionReference  string `json:"transactionReference"`
	AccountReference      string `json:"accountReference"`
	EventData             *struct {
		AmountPaid           string `json:"amountPaid"`
		TransactionReference string `json:"transactionReference"`
		Product              struct {
			Reference string `json:"reference"`
		} `json:"product"`
	} `json:"eventData"`
}

// fundingEvent is the shape both rawFundingBody variants normalize into.
type fundingEvent struct {
	amountPaid           string
	transactionReference string
	accountReference     string
	status                string
}

func (b rawFundingBody) normalize() fundingEvent {
	if b.EventData != nil {
		return fundingEvent{
			amountPaid:           b.EventData.AmountPaid,
			transactionReference: b.EventData.TransactionReference,
			accountReference:     b.EventData.Product.Reference,
			status:               b.EventType,
		}
	}
	return fundingEvent{
		amountPaid:           b.AmountPaid,
		transactionReference: b.TransactionReference,
		accountReference:     b.AccountReference,
		status:               b.PaymentStatus,
	}
}

// Process verifies the webhook's HMAC signature over the raw body and, on
// success, applies the funding/confirmation it describes. The caller (HTTP
// handler) must pass the exact raw request body - signature verification
// operates on bytes, not on the re-marshaled struct.
//
// Process returns a *errors.WebhookSignatureError for a bad signature
// (-> 401) and nil for an event it ignores (malformed body, VAS
// confirmation, already-credited reference) or applies (-> 200 ack). A
// failed lookup or write while applying a funding event is returned as a
// wrapped error.
func (p *Processor) Process(ctx context.Context, rawBody []byte, signatureHex string) error {
	if !p.verifySignature(rawBody, signatureHex) {
		return &errors.WebhookSignatureError{Reason: "HMAC-SHA-512 mismatch"}
	}

	var body rawFundingBody
	if err := json.Unmarshal(rawBody, &body); err != nil {
		return nil // malformed but signed body: ack, nothing to process
	}
	event := body.normalize()
	if event.amountPaid == "" || event.transactionReference == "" {
		return nil
	}

	existingTx, err := p.txRepo.FindByTransactionReference(ctx, event.transactionReference)
	if err != nil {
		return fmt.Errorf("failed to check existing transaction reference: %w", err)
	}

	if existingTx != nil && (existingTx.Type() == entities.VasTransactionTypeAirtime || existingTx.Type() == entities.VasTransactionTypeData) {
		// VAS delivery confirmation, not a funding event: the ledger row
		// already reflects its own outcome via the settlement worker. This
		// service never debits or credits the wallet from this branch.
		return nil
	}

	if existingTx != nil && existingTx.Status() == entities.VasTransactionStatusSuccess {
		return nil // already credited, idempotent no-op
	}

	return p.processFunding(ctx, event, existingTx)
}

func (p *Processor) verifySignature(rawBody []byte, signatureHex string) bool {
	mac := hmac.New(sha512.New, p.hmacSecret)
	mac.Write(rawBody)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signatureHex))
}

// processFunding implements §4.7 steps 1-9 for the wallet-funding branch.
func (p *Processor) processFunding(ctx context.Context, event fundingEvent, existingTx *entities.VasTransaction) error {
	amountPaid, err := valueobjects.NewMoney(event.amountPaid, valueobjects.NGN)
	if err != nil {
		return nil // unparsable amount on a signed-but-malformed body: ack, ignore
	}

	wallet, err := p.walletRepo.FindByAccountReference(ctx, event.accountReference)
	if err != nil {
		return fmt.Errorf("failed to resolve wallet from account reference: %w", err)
	}

	user, err := p.userRepo.FindByID(ctx, wallet.UserID())
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}

	depositFee := valueobjects.Zero(valueobjects.NGN)
	if !user.IsPremium() && !user.IsSubscribed() {
		depositFee, err = valueobjects.NewMoneyFromMinorUnits(depositFeeMinorUnits, valueobjects.NGN)
		if err != nil {
			return err
		}
	}

	gatewayFee := amountPaid.MultiplyRate(gatewayFeeRateBps)

	amountToCredit, err := amountPaid.Subtract(depositFee)
	if err != nil || !amountToCredit.IsPositive() {
		return nil // amountToCredit <= depositFee: reject, nothing to credit (§4.7 step 4)
	}

	netMargin, err := depositFee.Subtract(gatewayFee)
	if err != nil {
		// depositFee < gatewayFee (typically premium users, depositFee=0):
		// the shortfall is pure cost, tracked in full by the unconditional
		// ExpenseLedgerRequested(gatewayFee) event below rather than as a
		// negative Money value, which the type cannot represent.
		netMargin = valueobjects.Zero(valueobjects.NGN)
	}

	tx := existingTx
	if tx == nil {
		tx, err = entities.NewVasTransaction(wallet.UserID(), entities.VasTransactionTypeWalletFunding, "", amountToCredit, amountToCredit, amountToCredit, event.transactionReference)
		if err != nil {
			return fmt.Errorf("failed to create funding ledger row: %w", err)
		}
		if err := tx.MarkPending(); err != nil {
			return err
		}
	}
	if err := tx.MarkSuccess(event.transactionReference, valueobjects.Zero(valueobjects.NGN), valueobjects.Zero(valueobjects.NGN), 0, gatewayFee, netMargin); err != nil {
		return fmt.Errorf("failed to mark funding success: %w", err)
	}

	isFirstDeposit, err := p.isFirstSuccessfulDeposit(ctx, wallet.UserID())
	if err != nil {
		return err
	}

	referralBonus := isFirstDeposit && user.HasActiveReferralShare()
	var referralRefund valueobjects.Money
	if referralBonus {
		referralRefund = depositFee
		if err := user.CreditFicoreBalance(referralFicoreCreditBonus); err != nil {
			return fmt.Errorf("failed to credit referral FiCore bonus: %w", err)
		}
		amountToCredit, err = amountToCredit.Add(referralRefund)
		if err != nil {
			return fmt.Errorf("failed to apply referral deposit-fee refund: %w", err)
		}
	}

	if err := wallet.Credit(amountToCredit); err != nil {
		return fmt.Errorf("failed to credit wallet: %w", err)
	}

	err = p.uow.Execute(ctx, func(txCtx context.Context) error {
		if err := p.txRepo.Save(txCtx, tx); err != nil {
			return fmt.Errorf("failed to save funding transaction: %w", err)
		}
		if err := p.walletRepo.Save(txCtx, wallet); err != nil {
			return fmt.Errorf("failed to save wallet: %w", err)
		}
		if referralBonus {
			if err := p.userRepo.Save(txCtx, user); err != nil {
				return fmt.Errorf("failed to save user: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	return p.emitFundingEvents(ctx, tx, wallet, depositFee, gatewayFee, referralBonus)
}

// isFirstSuccessfulDeposit implements §4.7 step 8's "first successful
// deposit" check by listing the user's prior SUCCESS wallet-funding rows.
// It runs before the current deposit is saved, so any row found is an
// earlier deposit.
func (p *Processor) isFirstSuccessfulDeposit(ctx context.Context, userID uuid.UUID) (bool, error) {
	fundingType := entities.VasTransactionTypeWalletFunding
	successStatus := entities.VasTransactionStatusSuccess
	rows, err := p.txRepo.List(ctx, ports.VasTransactionFilter{UserID: &userID, Type: &fundingType, Status: &successStatus}, 0, 2)
	if err != nil {
		return false, fmt.Errorf("failed to list prior deposits: %w", err)
	}
	return len(rows) == 0, nil
}

// emitFundingEvents implements §4.7 steps 7 and 9: the corporate-revenue and
// expense-ledger events, plus the user notification.
func (p *Processor) emitFundingEvents(ctx context.Context, tx *entities.VasTransaction, wallet *entities.Wallet, depositFee, gatewayFee valueobjects.Money, referralBonus bool) error {
	if depositFee.IsPositive() {
		entry, err := entities.NewCorporateRevenueEntry(tx.ID(), entities.RevenueEntryTypeFundingFee, depositFee, "wallet funding service fee")
		if err != nil {
			return fmt.Errorf("failed to build funding-fee revenue entry: %w", err)
		}
		if err := p.corpRevenueRepo.Save(ctx, entry); err != nil {
			return fmt.Errorf("failed to save funding-fee revenue entry: %w", err)
		}
		if err := p.eventPublisher.Publish(ctx, events.NewCorporateRevenueRecorded(tx.ID(), string(entry.Type()), depositFee)); err != nil {
			return fmt.Errorf("failed to publish funding-fee event: %w", err)
		}
	}

	if gatewayFee.IsPositive() {
		if err := p.eventPublisher.Publish(ctx, events.NewExpenseLedgerRequested(tx.ID(), gatewayFee, "FUNDING_GATEWAY_FEE")); err != nil {
			return fmt.Errorf("failed to publish gateway-fee expense event: %w", err)
		}
	}

	message := "your wallet has been funded"
	if referralBonus {
		message = "your wallet has been funded - your deposit fee was refunded as a referral bonus"
	}
	_ = p.eventPublisher.Publish(ctx, events.NewUserNotificationRequested(wallet.UserID(), tx.ID(), message))
	return nil
}
