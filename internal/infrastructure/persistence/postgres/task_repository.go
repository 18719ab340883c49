// Package postgres - TaskRepository implementation: the durable source of
// truth for settlement work items (§4.8); JetStream only handles delivery.
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

// Compile-time check
var _ ports.TaskRepository = (*TaskRepository)(nil)

// TaskRepository реализует ports.TaskRepository.
type TaskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository создаёт новый TaskRepository.
func NewTaskRepository(pool *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{pool: pool}
}

func (r *TaskRepository) getQuerier(ctx context.Context) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const taskColumns = `
	id, kind, payload, status, attempts, lease_expires_at, last_error,
	created_at, next_run_at
`

// Save сохраняет задачу (UPSERT).
func (r *TaskRepository) Save(ctx context.Context, task *entities.TransactionTask) error {
	q := r.getQuerier(ctx)

	query := `
		INSERT INTO transaction_tasks (
			id, kind, payload, status, attempts, lease_expires_at, last_error,
			created_at, next_run_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			attempts = EXCLUDED.attempts,
			lease_expires_at = EXCLUDED.lease_expires_at,
			last_error = EXCLUDED.last_error,
			next_run_at = EXCLUDED.next_run_at
	`

	_, err := q.Exec(ctx, query,
		task.ID(), string(task.Kind()), task.Payload(), string(task.Status()), task.Attempts(),
		task.LeaseExpiresAt(), nullableString(task.LastError()), task.CreatedAt(), task.NextRunAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to save task: %w", err)
	}
	return nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func scanTask(scanner interface{ Scan(dest ...any) error }) (*entities.TransactionTask, error) {
	var (
		id                     uuid.UUID
		kind, status           string
		payload                []byte
		attempts               int
		leaseExpiresAt         *time.Time
		lastError              *string
		createdAt, nextRunAt   time.Time
	)

	err := scanner.Scan(&id, &kind, &payload, &status, &attempts, &leaseExpiresAt, &lastError, &createdAt, &nextRunAt)
	if err != nil {
		return nil, err
	}

	reason := ""
	if lastError != nil {
		reason = *lastError
	}

	return entities.ReconstructTransactionTask(
		id, entities.TaskKind(kind), payload, entities.TaskStatus(status),
		attempts, leaseExpiresAt, reason, createdAt, nextRunAt,
	), nil
}

// FindByID загружает задачу по ID.
func (r *TaskRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.TransactionTask, error) {
	q := r.getQuerier(ctx)
	query := `SELECT ` + taskColumns + ` FROM transaction_tasks WHERE id = $1`

	task, err := scanTask(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrEntityNotFound
		}
		return nil, fmt.Errorf("failed to find task by id: %w", err)
	}
	return task, nil
}

// ClaimNextPending атомарно переводит одну PENDING-задачу с истёкшим
// next_run_at в PROCESSING с новым leaseExpiresAt, возвращая её, либо nil
// если очередь пуста. SKIP LOCKED так, чтобы несколько settlement worker'ов
// могли опрашивать очередь конкурентно без блокировок друг на друга.
func (r *TaskRepository) ClaimNextPending(ctx context.Context, leaseDuration time.Duration) (*entities.TransactionTask, error) {
	q := r.getQuerier(ctx)

	lease := time.Now().Add(leaseDuration)
	query := `
		UPDATE transaction_tasks
		SET status = 'PROCESSING', lease_expires_at = $1, attempts = attempts + 1
		WHERE id = (
			SELECT id FROM transaction_tasks
			WHERE status = 'PENDING' AND next_run_at <= now()
			ORDER BY next_run_at ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + taskColumns

	task, err := scanTask(q.QueryRow(ctx, query, lease))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to claim next pending task: %w", err)
	}
	return task, nil
}

// FindExpiredLeases поддерживает 30-секундный lease-sweep (§4.8).
func (r *TaskRepository) FindExpiredLeases(ctx context.Context, limit int) ([]*entities.TransactionTask, error) {
	q := r.getQuerier(ctx)
	query := `
		SELECT ` + taskColumns + `
		FROM transaction_tasks
		WHERE status = 'PROCESSING' AND lease_expires_at < now()
		ORDER BY lease_expires_at ASC
		LIMIT $1
	`

	rows, err := q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to find expired leases: %w", err)
	}
	defer rows.Close()

	var tasks []*entities.TransactionTask
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task row: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating task rows: %w", err)
	}

	return tasks, nil
}
