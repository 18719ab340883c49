// Package postgres - repository tests against a real PostgreSQL instance
// spun up with testcontainers-go.
//
// Run:
//
//	go test ./internal/infrastructure/persistence/postgres/...
//
// Requires:
//   - Docker running locally
//   - testcontainers-go available
package postgres

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/google/uuid"
	"github.com/ficore/vaswallet/internal/domain/entities"
	domerrors "github.com/ficore/vaswallet/internal/domain/errors"
	"github.com/ficore/vaswallet/internal/domain/valueobjects"
)

// ============================================
// Test Helpers
// ============================================

type testContainer struct {
	container *postgres.PostgresContainer
	pool      *pgxpool.Pool
}

// sharedTestContainer is reused across tests in this file to avoid the cost
// of spinning up a fresh Postgres container per test.
var sharedTestContainer *testContainer

func migrationScripts() []string {
	dir := filepath.Join("..", "..", "..", "..", "migrations")
	return []string{
		filepath.Join(dir, "000001_create_users.up.sql"),
		filepath.Join(dir, "000002_create_wallets.up.sql"),
		filepath.Join(dir, "000003_create_reservations.up.sql"),
		filepath.Join(dir, "000004_create_vas_transactions.up.sql"),
		filepath.Join(dir, "000005_create_transaction_tasks.up.sql"),
		filepath.Join(dir, "000006_create_corporate_revenue_entries.up.sql"),
		filepath.Join(dir, "000007_create_pin_audit_records.up.sql"),
		filepath.Join(dir, "000008_create_outbox.up.sql"),
	}
}

func setupSharedTestDB(t *testing.T) *testContainer {
	if sharedTestContainer != nil {
		cleanupContainerTables(t, sharedTestContainer.pool)
		return sharedTestContainer
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		postgres.WithInitScripts(migrationScripts()...),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	poolConfig, err := pgxpool.ParseConfig(connStr)
	require.NoError(t, err)

	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = 1 * time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	require.NoError(t, err)

	require.NoError(t, pool.Ping(ctx))

	sharedTestContainer = &testContainer{container: container, pool: pool}
	return sharedTestContainer
}

func cleanupContainerTables(t *testing.T, pool *pgxpool.Pool) {
	ctx := context.Background()

	tables := []string{
		"outbox", "pin_audit_records", "corporate_revenue_entries",
		"transaction_tasks", "reservations", "vas_transactions",
		"wallets", "users",
	}
	for _, table := range tables {
		_, err := pool.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		if err != nil {
			t.Logf("warning: failed to cleanup %s: %v", table, err)
		}
	}
}

func mustUser(t *testing.T, referralCode string) *entities.User {
	t.Helper()
	user, err := entities.NewUser(referralCode)
	require.NoError(t, err)
	return user
}

func mustWallet(t *testing.T, userID uuid.UUID) *entities.Wallet {
	t.Helper()
	wallet, err := entities.NewWallet(userID)
	require.NoError(t, err)
	return wallet
}

func mustMoney(t *testing.T, amount string) valueobjects.Money {
	t.Helper()
	m, err := valueobjects.NewMoney(amount, valueobjects.NGN)
	require.NoError(t, err)
	return m
}

// ============================================
// UserRepository Tests
// ============================================

func TestUserRepository_Integration_Save(t *testing.T) {
	tc := setupSharedTestDB(t)

	repo := NewUserRepository(tc.pool)
	ctx := context.Background()

	t.Run("SaveNewUser", func(t *testing.T) {
		user := mustUser(t, "REF001")

		err := repo.Save(ctx, user)
		assert.NoError(t, err)

		loaded, err := repo.FindByID(ctx, user.ID())
		require.NoError(t, err)
		assert.Equal(t, user.ReferralCode(), loaded.ReferralCode())
		assert.Equal(t, "NONE", string(loaded.SubscriptionPlan()))
	})

	t.Run("UpdateExistingUser", func(t *testing.T) {
		user := mustUser(t, "REF002")
		require.NoError(t, repo.Save(ctx, user))

		user.ActivateSubscription(entities.SubscriptionPlanPremium, time.Now().Add(30*24*time.Hour))

		err := repo.Save(ctx, user)
		assert.NoError(t, err)

		loaded, _ := repo.FindByID(ctx, user.ID())
		assert.Equal(t, "PREMIUM", string(loaded.SubscriptionPlan()))
	})

	t.Run("DuplicateReferralCode", func(t *testing.T) {
		user1 := mustUser(t, "DUPCODE")
		require.NoError(t, repo.Save(ctx, user1))

		user2 := mustUser(t, "DUPCODE")
		err := repo.Save(ctx, user2)

		assert.Error(t, err)
		assert.True(t, domerrors.IsBusinessRuleViolation(err))
	})
}

func TestUserRepository_Integration_FindByID(t *testing.T) {
	tc := setupSharedTestDB(t)

	repo := NewUserRepository(tc.pool)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		user := mustUser(t, "FINDME1")
		require.NoError(t, repo.Save(ctx, user))

		found, err := repo.FindByID(ctx, user.ID())

		assert.NoError(t, err)
		assert.Equal(t, user.ID(), found.ID())
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())

		assert.Error(t, err)
		assert.True(t, domerrors.IsNotFound(err))
	})
}

// ============================================
// WalletRepository Tests
// ============================================

func TestWalletRepository_Integration_Save(t *testing.T) {
	tc := setupSharedTestDB(t)

	userRepo := NewUserRepository(tc.pool)
	walletRepo := NewWalletRepository(tc.pool)
	ctx := context.Background()

	user := mustUser(t, "WALLET1")
	require.NoError(t, userRepo.Save(ctx, user))

	t.Run("SaveNewWallet", func(t *testing.T) {
		wallet := mustWallet(t, user.ID())

		err := walletRepo.Save(ctx, wallet)
		assert.NoError(t, err)

		loaded, err := walletRepo.FindByID(ctx, wallet.ID())
		require.NoError(t, err)
		assert.Equal(t, wallet.ID(), loaded.ID())
		assert.Equal(t, user.ID(), loaded.UserID())
	})

	t.Run("UpdateWalletBalance", func(t *testing.T) {
		wallet := mustWallet(t, user.ID())
		require.NoError(t, walletRepo.Save(ctx, wallet))

		amount := mustMoney(t, "100.50")
		require.NoError(t, wallet.Credit(amount))

		err := walletRepo.Save(ctx, wallet)
		assert.NoError(t, err)

		loaded, _ := walletRepo.FindByID(ctx, wallet.ID())
		assert.Equal(t, int64(10050), loaded.Balance().MinorUnits())
	})

	t.Run("OptimisticLockingConflict", func(t *testing.T) {
		wallet := mustWallet(t, user.ID())
		require.NoError(t, walletRepo.Save(ctx, wallet))

		wallet1, _ := walletRepo.FindByID(ctx, wallet.ID())
		wallet2, _ := walletRepo.FindByID(ctx, wallet.ID())

		wallet1.Credit(mustMoney(t, "1.00"))
		require.NoError(t, walletRepo.Save(ctx, wallet1))

		wallet2.Credit(mustMoney(t, "2.00"))
		err := walletRepo.Save(ctx, wallet2)

		assert.Error(t, err)
		assert.True(t, domerrors.IsConcurrencyError(err))
	})
}

func TestWalletRepository_Integration_FindByUserID(t *testing.T) {
	tc := setupSharedTestDB(t)

	userRepo := NewUserRepository(tc.pool)
	walletRepo := NewWalletRepository(tc.pool)
	ctx := context.Background()

	user := mustUser(t, "FINDWLT")
	require.NoError(t, userRepo.Save(ctx, user))

	t.Run("Success", func(t *testing.T) {
		wallet := mustWallet(t, user.ID())
		require.NoError(t, walletRepo.Save(ctx, wallet))

		found, err := walletRepo.FindByUserID(ctx, user.ID())

		assert.NoError(t, err)
		assert.Equal(t, wallet.ID(), found.ID())
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := walletRepo.FindByUserID(ctx, uuid.New())

		assert.Error(t, err)
		assert.True(t, domerrors.IsNotFound(err))
	})
}

// ============================================
// VasTransactionRepository Tests
// ============================================

func TestVasTransactionRepository_Integration_Save(t *testing.T) {
	tc := setupSharedTestDB(t)

	userRepo := NewUserRepository(tc.pool)
	txRepo := NewVasTransactionRepository(tc.pool)
	ctx := context.Background()

	user := mustUser(t, "VASTX01")
	require.NoError(t, userRepo.Save(ctx, user))

	t.Run("SaveNewTransaction", func(t *testing.T) {
		amount := mustMoney(t, "500.00")
		tx, err := entities.NewVasTransaction(
			user.ID(), entities.VasTransactionTypeAirtime, "MTN",
			amount, amount, amount, uuid.NewString(),
		)
		require.NoError(t, err)

		err = txRepo.Save(ctx, tx)
		assert.NoError(t, err)

		loaded, err := txRepo.FindByID(ctx, tx.ID())
		require.NoError(t, err)
		assert.Equal(t, "FAILED", string(loaded.Status()))
	})

	t.Run("TransitionToSuccess", func(t *testing.T) {
		amount := mustMoney(t, "200.00")
		requestID := uuid.NewString()
		tx, _ := entities.NewVasTransaction(
			user.ID(), entities.VasTransactionTypeData, "AIRTEL",
			amount, amount, amount, requestID,
		)
		require.NoError(t, txRepo.Save(ctx, tx))

		fee := mustMoney(t, "5.00")
		require.NoError(t, tx.MarkSuccess("PVD-REF-123", amount, fee, 500, fee, fee))
		require.NoError(t, txRepo.Save(ctx, tx))

		loaded, err := txRepo.FindByRequestID(ctx, user.ID(), requestID)
		require.NoError(t, err)
		assert.Equal(t, "SUCCESS", string(loaded.Status()))
	})

	t.Run("DuplicateRequestID", func(t *testing.T) {
		amount := mustMoney(t, "50.00")
		requestID := uuid.NewString()
		tx1, _ := entities.NewVasTransaction(
			user.ID(), entities.VasTransactionTypeAirtime, "GLO",
			amount, amount, amount, requestID,
		)
		require.NoError(t, txRepo.Save(ctx, tx1))

		tx2, _ := entities.NewVasTransaction(
			user.ID(), entities.VasTransactionTypeAirtime, "GLO",
			amount, amount, amount, requestID,
		)
		err := txRepo.Save(ctx, tx2)

		assert.Error(t, err)
	})
}

// ============================================
// ReservationRepository Tests
// ============================================

func TestReservationRepository_Integration_Save(t *testing.T) {
	tc := setupSharedTestDB(t)

	userRepo := NewUserRepository(tc.pool)
	walletRepo := NewWalletRepository(tc.pool)
	resRepo := NewReservationRepository(tc.pool)
	ctx := context.Background()

	user := mustUser(t, "RESV001")
	require.NoError(t, userRepo.Save(ctx, user))
	wallet := mustWallet(t, user.ID())
	require.NoError(t, walletRepo.Save(ctx, wallet))

	t.Run("HoldThenCommit", func(t *testing.T) {
		amount := mustMoney(t, "300.00")
		txID := uuid.New()
		res, err := entities.NewReservation(wallet.ID(), txID, amount)
		require.NoError(t, err)

		require.NoError(t, resRepo.Save(ctx, res))

		require.NoError(t, res.Commit())
		require.NoError(t, resRepo.Save(ctx, res))

		loaded, err := resRepo.FindByTransactionID(ctx, txID)
		require.NoError(t, err)
		assert.True(t, loaded.IsCommitted())
	})
}

// ============================================
// TaskRepository Tests
// ============================================

func TestTaskRepository_Integration_ClaimNextPending(t *testing.T) {
	tc := setupSharedTestDB(t)

	taskRepo := NewTaskRepository(tc.pool)
	ctx := context.Background()

	task, err := entities.NewTransactionTask(entities.TaskKindSettleVas, []byte(`{"tx_id":"abc"}`))
	require.NoError(t, err)
	require.NoError(t, taskRepo.Save(ctx, task))

	claimed, err := taskRepo.ClaimNextPending(ctx, 2*time.Minute)
	require.NoError(t, err)
	require.NotNil(t, claimed)
	assert.Equal(t, task.ID(), claimed.ID())
	assert.Equal(t, "PROCESSING", string(claimed.Status()))

	// Queue should now be empty.
	next, err := taskRepo.ClaimNextPending(ctx, 2*time.Minute)
	require.NoError(t, err)
	assert.Nil(t, next)
}

// ============================================
// UnitOfWork Tests
// ============================================

func TestUnitOfWork_Integration_Commit(t *testing.T) {
	tc := setupSharedTestDB(t)

	uow := NewUnitOfWork(tc.pool)
	userRepo := NewUserRepository(tc.pool)
	ctx := context.Background()

	t.Run("CommitSuccess", func(t *testing.T) {
		user := mustUser(t, "UOWCMT1")
		err := uow.Execute(ctx, func(ctx context.Context) error {
			return userRepo.Save(ctx, user)
		})

		assert.NoError(t, err)

		_, err = userRepo.FindByID(ctx, user.ID())
		assert.NoError(t, err)
	})

	t.Run("RollbackOnError", func(t *testing.T) {
		user := mustUser(t, "UOWRBK1")
		err := uow.Execute(ctx, func(ctx context.Context) error {
			userRepo.Save(ctx, user)
			return fmt.Errorf("intentional error")
		})

		assert.Error(t, err)

		_, err = userRepo.FindByID(ctx, user.ID())
		assert.Error(t, err)
		assert.True(t, domerrors.IsNotFound(err))
	})
}

func TestUnitOfWork_Integration_AtomicSpend(t *testing.T) {
	tc := setupSharedTestDB(t)

	uow := NewUnitOfWork(tc.pool)
	userRepo := NewUserRepository(tc.pool)
	walletRepo := NewWalletRepository(tc.pool)
	ctx := context.Background()

	user := mustUser(t, "ATOMSPD")
	require.NoError(t, userRepo.Save(ctx, user))

	wallet := mustWallet(t, user.ID())
	require.NoError(t, walletRepo.Save(ctx, wallet))

	// Fund the wallet in its own transaction.
	err := uow.Execute(ctx, func(txCtx context.Context) error {
		w, err := walletRepo.FindByID(txCtx, wallet.ID())
		if err != nil {
			return err
		}
		if err := w.Credit(mustMoney(t, "1000.00")); err != nil {
			return err
		}
		return walletRepo.Save(txCtx, w)
	})
	require.NoError(t, err, "initial credit should succeed")

	// Reserve and debit atomically.
	err = uow.Execute(ctx, func(txCtx context.Context) error {
		w, err := walletRepo.FindByID(txCtx, wallet.ID())
		if err != nil {
			return fmt.Errorf("failed to load wallet: %w", err)
		}

		spend := mustMoney(t, "100.00")
		if err := w.ReserveFunds(spend); err != nil {
			return fmt.Errorf("failed to reserve funds: %w", err)
		}
		if err := w.CommitReservation(spend); err != nil {
			return fmt.Errorf("failed to commit reservation: %w", err)
		}

		return walletRepo.Save(txCtx, w)
	})
	require.NoError(t, err, "atomic spend should succeed")

	loaded, err := walletRepo.FindByID(ctx, wallet.ID())
	require.NoError(t, err)
	assert.Equal(t, int64(90000), loaded.Balance().MinorUnits())
	assert.Equal(t, int64(0), loaded.ReservedAmount().MinorUnits())
}
