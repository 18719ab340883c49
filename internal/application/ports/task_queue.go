// Package ports - TaskQueue определяет контракт публикации в durable
// очередь расчётов (§4.8). Postgres (TaskRepository) остаётся авторитетным
// источником status/attempts/leaseExpiresAt; TaskQueue - это только
// транспорт доставки "работа готова" сигнала воркерам через NATS
// JetStream, который даёт at-least-once redelivery поверх этого.
package ports

import (
	"context"

	"github.com/google/uuid"
)

// TaskQueue публикует и потребляет сигналы о готовых задачах расчёта.
// Сама задача (payload, attempts, lease) живёт в Postgres через
// TaskRepository - Publish здесь лишь будит воркер-пул раньше, чем он бы
// нашёл задачу опросом.
type TaskQueue interface {
	// Publish отправляет сигнал о новой PENDING-задаче в JetStream-поток
	// SETTLEMENT, subject settlement.vas. Потеря сообщения не фатальна:
	// воркер-пул также опрашивает Postgres напрямую (ClaimNextPending).
	Publish(ctx context.Context, taskID uuid.UUID) error

	// Subscribe регистрирует durable consumer; handler вызывается один раз
	// на каждую доставку (at-least-once - handler обязан быть
	// идемпотентным, что ClaimNextPending и обеспечивает на уровне
	// Postgres). Blocking call, запускается в отдельной горутине воркер-пула.
	Subscribe(ctx context.Context, handler func(ctx context.Context, taskID uuid.UUID) error) error
}
