// Package postgres - UserRepository implementation.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ficore/vaswallet/internal/application/ports"
	"github.com/ficore/vaswallet/internal/domain/entities"
	domainErrors "github.com/ficore/vaswallet/internal/domain/errors"
)

// Compile-time check: UserRepository implements ports.UserRepository
var _ ports.UserRepository = (*UserRepository)(nil)

// UserRepository реализует ports.UserRepository с использованием PostgreSQL.
//
// User здесь read-mostly (§3): большая часть строки принадлежит внешним
// коллаборэйторам (KYC, биллинг), core читает и обновляет только поля,
// влияющие на VAS-прайсинг и реферальную программу.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository создаёт новый UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) getQuerier(ctx context.Context) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const userColumns = `
	id, is_subscribed, subscription_plan, subscription_end_date,
	ficore_credit_balance, referrer_id, referral_code, vas_share_expiry_date,
	created_at, updated_at
`

// Save сохраняет пользователя (UPSERT - core не владеет строкой целиком, но
// может быть первым писателем при signup).
func (r *UserRepository) Save(ctx context.Context, user *entities.User) error {
	q := r.getQuerier(ctx)

	query := `
		INSERT INTO users (
			id, is_subscribed, subscription_plan, subscription_end_date,
			ficore_credit_balance, referrer_id, referral_code, vas_share_expiry_date,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			is_subscribed = EXCLUDED.is_subscribed,
			subscription_plan = EXCLUDED.subscription_plan,
			subscription_end_date = EXCLUDED.subscription_end_date,
			ficore_credit_balance = EXCLUDED.ficore_credit_balance,
			referrer_id = EXCLUDED.referrer_id,
			referral_code = EXCLUDED.referral_code,
			vas_share_expiry_date = EXCLUDED.vas_share_expiry_date,
			updated_at = EXCLUDED.updated_at
	`

	_, err := q.Exec(ctx, query,
		user.ID(),
		user.IsSubscribed(),
		string(user.SubscriptionPlan()),
		user.SubscriptionEndDate(),
		user.FicoreCreditBalance(),
		user.ReferrerID(),
		user.ReferralCode(),
		user.VasShareExpiryDate(),
		user.CreatedAt(),
		user.UpdatedAt(),
	)

	if err != nil {
		if isUniqueViolation(err, "users_referral_code_unique") {
			return domainErrors.NewBusinessRuleViolation(
				"REFERRAL_CODE_ALREADY_EXISTS",
				fmt.Sprintf("referral code %s already exists", user.ReferralCode()),
				map[string]interface{}{"referral_code": user.ReferralCode()},
			)
		}
		return fmt.Errorf("failed to save user: %w", err)
	}

	return nil
}

// scanUser сканирует строку в domain entity User.
func scanUser(scanner interface{ Scan(dest ...any) error }) (*entities.User, error) {
	var (
		userID                               uuid.UUID
		isSubscribed                         bool
		subscriptionPlan                     string
		subscriptionEndDate, vasShareExpiry  *time.Time
		ficoreCreditBalance                  int64
		referrerID                           *uuid.UUID
		referralCode                         string
		createdAt, updatedAt                 time.Time
	)

	err := scanner.Scan(
		&userID, &isSubscribed, &subscriptionPlan, &subscriptionEndDate,
		&ficoreCreditBalance, &referrerID, &referralCode, &vasShareExpiry,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	return entities.ReconstructUser(
		userID,
		isSubscribed,
		entities.SubscriptionPlan(subscriptionPlan),
		subscriptionEndDate,
		ficoreCreditBalance,
		referrerID,
		referralCode,
		vasShareExpiry,
		createdAt, updatedAt,
	), nil
}

// FindByID загружает пользователя по ID.
func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	q := r.getQuerier(ctx)

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrEntityNotFound
		}
		return nil, fmt.Errorf("failed to find user by id: %w", err)
	}

	return user, nil
}
