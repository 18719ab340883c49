//go:build integration

// Package postgres integration tests against a real PostgreSQL instance.
//
// Run:
//
//	go test -tags=integration ./internal/infrastructure/persistence/postgres/...
//
// Requires:
//   - A running PostgreSQL instance with migrations applied (docker-compose up -d)
//
// Environment variables:
//   - TEST_DB_HOST (default: localhost)
//   - TEST_DB_PORT (default: 5432)
//   - TEST_DB_NAME (default: vaswallet_test)
//   - TEST_DB_USER (default: postgres)
//   - TEST_DB_PASSWORD (default: postgres)
package postgres

import (
	"context"
	"os"
	"strconv"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ficore/vaswallet/internal/domain/entities"
	domainErrors "github.com/ficore/vaswallet/internal/domain/errors"
	"github.com/ficore/vaswallet/internal/domain/valueobjects"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	ctx := context.Background()

	cfg := getTestConfig()

	pool, err := NewConnectionPool(ctx, cfg)
	if err != nil {
		panic("failed to connect to test database: " + err.Error())
	}
	testPool = pool

	code := m.Run()

	pool.Close()
	os.Exit(code)
}

func getTestConfig() Config {
	cfg := DefaultConfig()

	if host := os.Getenv("TEST_DB_HOST"); host != "" {
		cfg.Host = host
	}
	if port := os.Getenv("TEST_DB_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Port = p
		}
	}
	if name := os.Getenv("TEST_DB_NAME"); name != "" {
		cfg.Database = name
	} else {
		cfg.Database = "vaswallet_test"
	}
	if user := os.Getenv("TEST_DB_USER"); user != "" {
		cfg.User = user
	}
	if password := os.Getenv("TEST_DB_PASSWORD"); password != "" {
		cfg.Password = password
	}

	return cfg
}

// cleanupTables truncates every table touched by this package's tests,
// respecting foreign-key order.
func cleanupTables(t *testing.T, ctx context.Context) {
	tables := []string{
		"outbox", "pin_audit_records", "corporate_revenue_entries",
		"transaction_tasks", "reservations", "vas_transactions",
		"wallets", "users",
	}
	for _, table := range tables {
		if _, err := testPool.Exec(ctx, "DELETE FROM "+table); err != nil {
			t.Logf("warning: failed to cleanup %s: %v", table, err)
		}
	}
}

func newTestUser(t *testing.T) *entities.User {
	t.Helper()
	user, err := entities.NewUser(uuid.NewString()[:8])
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

// ============================================
// UserRepository Integration Tests
// ============================================

func TestUserRepository_Save_Success(t *testing.T) {
	ctx := context.Background()
	cleanupTables(t, ctx)

	repo := NewUserRepository(testPool)
	user := newTestUser(t)

	if err := repo.Save(ctx, user); err != nil {
		t.Fatalf("failed to save user: %v", err)
	}

	loaded, err := repo.FindByID(ctx, user.ID())
	if err != nil {
		t.Fatalf("failed to load user: %v", err)
	}
	if loaded.ReferralCode() != user.ReferralCode() {
		t.Errorf("expected referral code %s, got %s", user.ReferralCode(), loaded.ReferralCode())
	}
	if loaded.SubscriptionPlan() != entities.SubscriptionPlanNone {
		t.Errorf("expected plan NONE, got %s", loaded.SubscriptionPlan())
	}
}

func TestUserRepository_Save_DuplicateReferralCode(t *testing.T) {
	ctx := context.Background()
	cleanupTables(t, ctx)

	repo := NewUserRepository(testPool)

	user1, err := entities.NewUser("SHARED01")
	if err != nil {
		t.Fatalf("failed to create user1: %v", err)
	}
	if err := repo.Save(ctx, user1); err != nil {
		t.Fatalf("failed to save first user: %v", err)
	}

	user2, err := entities.NewUser("SHARED01")
	if err != nil {
		t.Fatalf("failed to create user2: %v", err)
	}
	err = repo.Save(ctx, user2)
	if err == nil {
		t.Fatal("expected error for duplicate referral code")
	}
	if !domainErrors.IsBusinessRuleViolation(err) {
		t.Errorf("expected BusinessRuleViolation, got %T: %v", err, err)
	}
}

func TestUserRepository_FindByID_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(testPool)

	_, err := repo.FindByID(ctx, uuid.New())
	if err == nil {
		t.Fatal("expected error for non-existent user")
	}
	if !domainErrors.IsNotFound(err) {
		t.Errorf("expected ErrEntityNotFound, got %v", err)
	}
}

// ============================================
// UnitOfWork Integration Tests
// ============================================

func TestUnitOfWork_Execute_Commit(t *testing.T) {
	ctx := context.Background()
	cleanupTables(t, ctx)

	uow := NewUnitOfWork(testPool)
	userRepo := NewUserRepository(testPool)

	user := newTestUser(t)

	err := uow.Execute(ctx, func(txCtx context.Context) error {
		return userRepo.Save(txCtx, user)
	})
	if err != nil {
		t.Fatalf("uow execution failed: %v", err)
	}

	if _, err := userRepo.FindByID(ctx, user.ID()); err != nil {
		t.Errorf("user should exist after commit: %v", err)
	}
}

func TestUnitOfWork_Execute_Rollback(t *testing.T) {
	ctx := context.Background()
	cleanupTables(t, ctx)

	uow := NewUnitOfWork(testPool)
	userRepo := NewUserRepository(testPool)

	user := newTestUser(t)

	err := uow.Execute(ctx, func(txCtx context.Context) error {
		if err := userRepo.Save(txCtx, user); err != nil {
			return err
		}
		return domainErrors.NewBusinessRuleViolation("TEST_ERROR", "intentional error", nil)
	})
	if err == nil {
		t.Fatal("expected error from uow")
	}

	if _, err := userRepo.FindByID(ctx, user.ID()); err == nil {
		t.Error("user should NOT exist after rollback")
	}
}

// ============================================
// WalletRepository Integration Tests
// ============================================

func TestWalletRepository_Save_Success(t *testing.T) {
	ctx := context.Background()
	cleanupTables(t, ctx)

	userRepo := NewUserRepository(testPool)
	walletRepo := NewWalletRepository(testPool)

	user := newTestUser(t)
	if err := userRepo.Save(ctx, user); err != nil {
		t.Fatalf("failed to save user: %v", err)
	}

	wallet, err := entities.NewWallet(user.ID())
	if err != nil {
		t.Fatalf("failed to create wallet: %v", err)
	}
	if err := walletRepo.Save(ctx, wallet); err != nil {
		t.Fatalf("failed to save wallet: %v", err)
	}

	loaded, err := walletRepo.FindByID(ctx, wallet.ID())
	if err != nil {
		t.Fatalf("failed to load wallet: %v", err)
	}
	if loaded.UserID() != user.ID() {
		t.Errorf("expected user ID %s, got %s", user.ID(), loaded.UserID())
	}
	if loaded.Status() != entities.WalletStatusActive {
		t.Errorf("expected status ACTIVE, got %s", loaded.Status())
	}
}

func TestWalletRepository_OptimisticLocking(t *testing.T) {
	ctx := context.Background()
	cleanupTables(t, ctx)

	userRepo := NewUserRepository(testPool)
	walletRepo := NewWalletRepository(testPool)

	user := newTestUser(t)
	userRepo.Save(ctx, user)

	wallet, _ := entities.NewWallet(user.ID())
	walletRepo.Save(ctx, wallet)

	wallet1, _ := walletRepo.FindByID(ctx, wallet.ID())
	wallet2, _ := walletRepo.FindByID(ctx, wallet.ID())

	amount, _ := valueobjects.NewMoney("100", valueobjects.NGN)
	if err := wallet1.Credit(amount); err != nil {
		t.Fatalf("credit should succeed: %v", err)
	}
	if err := walletRepo.Save(ctx, wallet1); err != nil {
		t.Fatalf("first save should succeed: %v", err)
	}

	wallet2.Credit(amount)
	err := walletRepo.Save(ctx, wallet2)
	if err == nil {
		t.Fatal("second save should fail due to optimistic locking")
	}
	if !domainErrors.IsConcurrencyError(err) {
		t.Errorf("expected ConcurrencyError, got %T: %v", err, err)
	}
}

func TestWalletRepository_FindByUserID(t *testing.T) {
	ctx := context.Background()
	cleanupTables(t, ctx)

	userRepo := NewUserRepository(testPool)
	walletRepo := NewWalletRepository(testPool)

	user := newTestUser(t)
	userRepo.Save(ctx, user)

	wallet, _ := entities.NewWallet(user.ID())
	walletRepo.Save(ctx, wallet)

	found, err := walletRepo.FindByUserID(ctx, user.ID())
	if err != nil {
		t.Fatalf("failed to find wallet: %v", err)
	}
	if found.ID() != wallet.ID() {
		t.Errorf("expected wallet ID %s, got %s", wallet.ID(), found.ID())
	}
}

func TestWalletRepository_FindByAccountReference(t *testing.T) {
	ctx := context.Background()
	cleanupTables(t, ctx)

	userRepo := NewUserRepository(testPool)
	walletRepo := NewWalletRepository(testPool)

	user := newTestUser(t)
	userRepo.Save(ctx, user)

	wallet, _ := entities.NewWallet(user.ID())
	wallet.SetAccountReference("9991234567")
	walletRepo.Save(ctx, wallet)

	found, err := walletRepo.FindByAccountReference(ctx, "9991234567")
	if err != nil {
		t.Fatalf("failed to find wallet by account reference: %v", err)
	}
	if found.ID() != wallet.ID() {
		t.Errorf("expected wallet ID %s, got %s", wallet.ID(), found.ID())
	}
}

// ============================================
// Benchmark Tests
// ============================================

func BenchmarkUserRepository_Save(b *testing.B) {
	ctx := context.Background()
	repo := NewUserRepository(testPool)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		user, _ := entities.NewUser(uuid.NewString()[:8])
		repo.Save(ctx, user)
	}
}

func BenchmarkUserRepository_FindByID(b *testing.B) {
	ctx := context.Background()
	repo := NewUserRepository(testPool)

	user, _ := entities.NewUser(uuid.NewString()[:8])
	repo.Save(ctx, user)
	userID := user.ID()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		repo.FindByID(ctx, userID)
	}
}
