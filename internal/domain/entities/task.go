// Package entities - TransactionTask is the durable settlement work item the
// Purchase Orchestrator enqueues after a provider call succeeds (§4.6, §4.8).
// Modeled on the teacher's outbox-row lifecycle (PENDING -> claimed ->
// DONE|retried|FAILED), generalized from "publish one event" to "run the
// settlement pipeline once, at-most-one-worker-at-a-time, to completion."
package entities

import (
	"time"

	"github.com/ficore/vaswallet/internal/domain/errors"
	"github.com/google/uuid"
)

// TaskKind names the work a TransactionTask performs. SETTLE_VAS is the only
// kind today; the type exists so the Task Queue can dispatch by kind without
// every caller hard-coding a string.
type TaskKind string

const (
	TaskKindSettleVas TaskKind = "SETTLE_VAS"
)

// TaskStatus represents the current state of a task.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "PENDING"
	TaskStatusProcessing TaskStatus = "PROCESSING"
	TaskStatusDone       TaskStatus = "DONE"
	TaskStatusFailed     TaskStatus = "FAILED"
)

// IsValid checks if the task status is valid.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusPending, TaskStatusProcessing, TaskStatusDone, TaskStatusFailed:
		return true
	default:
		return false
	}
}

// MaxAttempts is the number of attempts a task gets before it is marked
// FAILED and an operator alert fires (§4.8); the underlying VasTransaction
// stays SUCCESS regardless, since the user already received the service.
const MaxAttempts = 5

// LeaseDuration is how long a claimed task's lease is held before the
// 30-second sweep (§4.8) considers it abandoned and returns it to PENDING.
const LeaseDuration = 2 * time.Minute

// backoffBase is the unit exponential backoff is computed against: 2^n * base.
const backoffBase = 5 * time.Second

// maxBackoff caps the exponential backoff delay between retry attempts.
const maxBackoff = 5 * time.Minute

// TransactionTask is the durable settlement work item.
//
// Entity Pattern:
// - Has identity (ID).
// - State machine: PENDING -> PROCESSING -> DONE, or PENDING -> PROCESSING ->
//   PENDING (transient failure, retried) up to MaxAttempts, then FAILED.
// - Leased, not locked: a claim sets leaseExpiresAt rather than holding a
//   row lock, so a crashed worker's task can be recovered by the sweep.
type TransactionTask struct {
	id      uuid.UUID
	kind    TaskKind
	payload []byte // JSON-encoded settlement context (tx id, wallet id, reservation id, ...)

	status          TaskStatus
	attempts        int
	leaseExpiresAt  *time.Time
	lastError       string

	createdAt time.Time
	nextRunAt time.Time
}

// NewTransactionTask creates a new PENDING task, ready to run immediately.
func NewTransactionTask(kind TaskKind, payload []byte) (*TransactionTask, error) {
	if len(payload) == 0 {
		return nil, errors.ValidationError{Field: "payload", Message: "payload is required"}
	}

	now := time.Now()
	return &TransactionTask{
		id:        uuid.New(),
		kind:      kind,
		payload:   payload,
		status:    TaskStatusPending,
		createdAt: now,
		nextRunAt: now,
	}, nil
}

// ReconstructTransactionTask reconstructs a TransactionTask from stored data.
func ReconstructTransactionTask(
	id uuid.UUID,
	kind TaskKind,
	payload []byte,
	status TaskStatus,
	attempts int,
	leaseExpiresAt *time.Time,
	lastError string,
	createdAt, nextRunAt time.Time,
) *TransactionTask {
	return &TransactionTask{
		id:             id,
		kind:           kind,
		payload:        payload,
		status:         status,
		attempts:       attempts,
		leaseExpiresAt: leaseExpiresAt,
		lastError:      lastError,
		createdAt:      createdAt,
		nextRunAt:      nextRunAt,
	}
}

// Getters

func (t *TransactionTask) ID() uuid.UUID               { return t.id }
func (t *TransactionTask) Kind() TaskKind               { return t.kind }
func (t *TransactionTask) Payload() []byte              { return t.payload }
func (t *TransactionTask) Status() TaskStatus            { return t.status }
func (t *TransactionTask) Attempts() int                { return t.attempts }
func (t *TransactionTask) LeaseExpiresAt() *time.Time   { return t.leaseExpiresAt }
func (t *TransactionTask) LastError() string             { return t.lastError }
func (t *TransactionTask) CreatedAt() time.Time          { return t.createdAt }
func (t *TransactionTask) NextRunAt() time.Time          { return t.nextRunAt }

// Business Methods

// IsLeaseExpired reports whether a claimed task's lease has lapsed - the
// condition the 30-second sweep (§4.8) uses to return it to PENDING.
func (t *TransactionTask) IsLeaseExpired() bool {
	return t.status == TaskStatusProcessing && t.leaseExpiresAt != nil && time.Now().After(*t.leaseExpiresAt)
}

// Claim transitions PENDING -> PROCESSING and sets a fresh lease. Only legal
// from PENDING; the atomic claim itself (conditioning the UPDATE on
// status='PENDING') is the repository's job, this just enforces the entity
// invariant.
func (t *TransactionTask) Claim() error {
	if t.status != TaskStatusPending {
		return errors.NewBusinessRuleViolation(
			"TASK_NOT_PENDING",
			"only a pending task can be claimed",
			map[string]interface{}{"currentStatus": t.status},
		)
	}

	lease := time.Now().Add(LeaseDuration)
	t.status = TaskStatusProcessing
	t.leaseExpiresAt = &lease
	t.attempts++
	return nil
}

// ReclaimExpiredLease returns an abandoned PROCESSING task to PENDING,
// runnable immediately. Used by the lease sweep.
func (t *TransactionTask) ReclaimExpiredLease() error {
	if !t.IsLeaseExpired() {
		return errors.NewBusinessRuleViolation(
			"LEASE_NOT_EXPIRED",
			"task lease has not expired",
			nil,
		)
	}

	t.status = TaskStatusPending
	t.leaseExpiresAt = nil
	t.nextRunAt = time.Now()
	return nil
}

// Complete transitions PROCESSING -> DONE.
func (t *TransactionTask) Complete() error {
	if t.status != TaskStatusProcessing {
		return errors.NewBusinessRuleViolation(
			"TASK_NOT_PROCESSING",
			"only a processing task can be completed",
			map[string]interface{}{"currentStatus": t.status},
		)
	}

	t.status = TaskStatusDone
	t.leaseExpiresAt = nil
	return nil
}

// Fail records a transient failure. Below MaxAttempts it returns to PENDING
// with an exponential backoff delay (2^attempts * backoffBase, capped at
// maxBackoff); at MaxAttempts it transitions to the terminal FAILED state,
// which the caller should pair with an operator alert (§4.8).
func (t *TransactionTask) Fail(reason string) error {
	if t.status != TaskStatusProcessing {
		return errors.NewBusinessRuleViolation(
			"TASK_NOT_PROCESSING",
			"only a processing task can fail",
			map[string]interface{}{"currentStatus": t.status},
		)
	}

	t.lastError = reason
	t.leaseExpiresAt = nil

	if t.attempts >= MaxAttempts {
		t.status = TaskStatusFailed
		return nil
	}

	t.status = TaskStatusPending
	t.nextRunAt = time.Now().Add(t.backoffDelay())
	return nil
}

// IsExhausted reports whether the task has reached its terminal FAILED state.
func (t *TransactionTask) IsExhausted() bool {
	return t.status == TaskStatusFailed
}

func (t *TransactionTask) backoffDelay() time.Duration {
	delay := backoffBase
	for i := 0; i < t.attempts; i++ {
		delay *= 2
		if delay >= maxBackoff {
			return maxBackoff
		}
	}
	return delay
}
