// Package ports определяет интерфейсы (порты) для внешних зависимостей.
// Эти интерфейсы реализуются в Infrastructure Layer.
//
// SOLID Principles:
// - DIP: Application зависит от абстракций, не от конкретных реализаций
// - ISP: Каждый интерфейс фокусируется на одной сущности
// - SRP: Repository отвечает только за persistence
//
// Pattern: Repository Pattern + Ports & Adapters (Hexagonal Architecture)
package ports

import (
	"context"
	"time"

	"github.com/ficore/vaswallet/internal/domain/entities"
	"github.com/ficore/vaswallet/internal/domain/valueobjects"
	"github.com/google/uuid"
)

// UserRepository определяет контракт для хранения пользователей. Core
// treats User as read-mostly: most writes originate outside this service
// (subscription billing, referral signup) and only touch the fields the
// VAS pipeline reads (§3 "User (read-mostly for core)").
type UserRepository interface {
	Save(ctx context.Context, user *entities.User) error

	FindByID(ctx context.Context, id uuid.UUID) (*entities.User, error)
}

// WalletRepository определяет контракт для хранения кошельков.
//
// Важно: Wallet - это Aggregate Root. Save использует optimistic locking
// на поле version; при несовпадении версии возвращает ConcurrencyError.
type WalletRepository interface {
	// Save сохраняет кошелёк, проверяя version (optimistic concurrency).
	// Если version не совпадает с сохранённым значением, возвращает
	// *errors.ConcurrencyError и вызывающий должен перечитать и повторить.
	Save(ctx context.Context, wallet *entities.Wallet) error

	FindByID(ctx context.Context, id uuid.UUID) (*entities.Wallet, error)

	// FindByUserID находит единственный кошелёк пользователя — у
	// пользователя ровно один кошелёк (§3).
	FindByUserID(ctx context.Context, userID uuid.UUID) (*entities.Wallet, error)

	// FindByAccountReference ищет кошелёк по префиксу virtual-account
	// reference ("FICORE<userId>"), первый шаг резолюции пользователя в
	// вебхуке пополнения (§4.7).
	FindByAccountReference(ctx context.Context, accountReference string) (*entities.Wallet, error)
}

// ReservationRepository хранит записи резервирования средств (§4.2).
type ReservationRepository interface {
	Save(ctx context.Context, reservation *entities.Reservation) error

	FindByID(ctx context.Context, id uuid.UUID) (*entities.Reservation, error)

	// FindByTransactionID находит резервацию, связанную с конкретной
	// VasTransaction — используется Settlement Worker'ом для коммита/релиза.
	FindByTransactionID(ctx context.Context, transactionID uuid.UUID) (*entities.Reservation, error)

	// FindExpiredHeld возвращает HELD-резервации старше olderThan без
	// разрешения, для периодического sweep'а (§4.1: "older than 10 minutes").
	FindExpiredHeld(ctx context.Context, olderThan time.Time, limit int) ([]*entities.Reservation, error)
}

// VasTransactionRepository хранит записи леджера VAS-транзакций (§4.3).
type VasTransactionRepository interface {
	Save(ctx context.Context, tx *entities.VasTransaction) error

	FindByID(ctx context.Context, id uuid.UUID) (*entities.VasTransaction, error)

	// FindByRequestID поддерживает уникальный индекс (userId, requestId)
	// для идемпотентности создания транзакции (§4.3).
	FindByRequestID(ctx context.Context, userID uuid.UUID, requestID string) (*entities.VasTransaction, error)

	// FindByTransactionReference поддерживает уникальный индекс
	// transactionReference — ключ идемпотентности вебхука пополнения (§4.7).
	FindByTransactionReference(ctx context.Context, reference string) (*entities.VasTransaction, error)

	// FindRecentSuccess реализует duplicate-click guard (§4.6 step 3):
	// находит SUCCESS-транзакцию того же пользователя/типа/суммы/телефона
	// в пределах windowMinutes.
	FindRecentSuccess(ctx context.Context, userID uuid.UUID, txType entities.VasTransactionType, amount valueobjects.Money, phoneNumber string, windowMinutes int) (*entities.VasTransaction, error)

	// FindInFlight реализует §4.6 step 4: ищет PENDING-транзакцию с тем же
	// (user, type, amount, phone) в пределах windowMinutes.
	FindInFlight(ctx context.Context, userID uuid.UUID, txType entities.VasTransactionType, amount valueobjects.Money, phoneNumber string, windowMinutes int) (*entities.VasTransaction, error)

	// List возвращает транзакции пользователя для GET /wallet/transactions/all.
	List(ctx context.Context, filter VasTransactionFilter, offset, limit int) ([]*entities.VasTransaction, error)
}

// VasTransactionFilter определяет критерии фильтрации для VAS-транзакций.
type VasTransactionFilter struct {
	UserID *uuid.UUID
	Type   *entities.VasTransactionType
	Status *entities.VasTransactionStatus
}

// TaskRepository хранит записи очереди расчётов (§4.8); авторитетный
// источник status/attempts/leaseExpiresAt, JetStream отвечает только за
// доставку.
type TaskRepository interface {
	Save(ctx context.Context, task *entities.TransactionTask) error

	FindByID(ctx context.Context, id uuid.UUID) (*entities.TransactionTask, error)

	// ClaimNextPending атомарно переводит одну PENDING-задачу в PROCESSING с
	// новым leaseExpiresAt (условный UPDATE ... WHERE status='PENDING'), и
	// возвращает её, либо nil если очередь пуста.
	ClaimNextPending(ctx context.Context, leaseDuration time.Duration) (*entities.TransactionTask, error)

	// FindExpiredLeases поддерживает 30-секундный lease-sweep (§4.8).
	FindExpiredLeases(ctx context.Context, limit int) ([]*entities.TransactionTask, error)
}

// CorporateRevenueRepository хранит записи доходов (§4.6 steps d-f).
type CorporateRevenueRepository interface {
	Save(ctx context.Context, entry *entities.CorporateRevenueEntry) error

	FindByTransactionID(ctx context.Context, transactionID uuid.UUID) ([]*entities.CorporateRevenueEntry, error)
}

// PinAuditRepository хранит записи сброса/смены PIN-кода (§4.9).
type PinAuditRepository interface {
	Save(ctx context.Context, record *entities.PinAuditRecord) error

	FindByWalletID(ctx context.Context, walletID uuid.UUID, offset, limit int) ([]*entities.PinAuditRecord, error)
}
