package entities_test

import (
	"testing"
	"time"

	"github.com/ficore/vaswallet/internal/domain/entities"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTransactionTask(t *testing.T) {
	task, err := entities.NewTransactionTask(entities.TaskKindSettleVas, []byte(`{"txId":"abc"}`))
	require.NoError(t, err)
	assert.Equal(t, entities.TaskStatusPending, task.Status())
	assert.Equal(t, 0, task.Attempts())
}

func TestNewTransactionTask_RequiresPayload(t *testing.T) {
	_, err := entities.NewTransactionTask(entities.TaskKindSettleVas, nil)
	assert.Error(t, err)
}

func TestTransactionTask_ClaimThenComplete(t *testing.T) {
	task, _ := entities.NewTransactionTask(entities.TaskKindSettleVas, []byte(`{}`))

	require.NoError(t, task.Claim())
	assert.Equal(t, entities.TaskStatusProcessing, task.Status())
	assert.Equal(t, 1, task.Attempts())
	assert.NotNil(t, task.LeaseExpiresAt())

	require.NoError(t, task.Complete())
	assert.Equal(t, entities.TaskStatusDone, task.Status())
}

func TestTransactionTask_Claim_RequiresPending(t *testing.T) {
	task, _ := entities.NewTransactionTask(entities.TaskKindSettleVas, []byte(`{}`))
	require.NoError(t, task.Claim())

	err := task.Claim()
	assert.Error(t, err)
}

func TestTransactionTask_Fail_RetriesWithBackoffBelowMaxAttempts(t *testing.T) {
	task, _ := entities.NewTransactionTask(entities.TaskKindSettleVas, []byte(`{}`))
	require.NoError(t, task.Claim())

	require.NoError(t, task.Fail("transient network error"))
	assert.Equal(t, entities.TaskStatusPending, task.Status())
	assert.True(t, task.NextRunAt().After(time.Now()))
	assert.False(t, task.IsExhausted())
}

func TestTransactionTask_Fail_ExhaustsAtMaxAttempts(t *testing.T) {
	task, _ := entities.NewTransactionTask(entities.TaskKindSettleVas, []byte(`{}`))

	for i := 0; i < entities.MaxAttempts; i++ {
		require.NoError(t, task.Claim())
		require.NoError(t, task.Fail("still failing"))
	}

	assert.True(t, task.IsExhausted())
	assert.Equal(t, entities.TaskStatusFailed, task.Status())
}

func TestTransactionTask_ReclaimExpiredLease(t *testing.T) {
	past := time.Now().Add(-time.Minute)
	task := entities.ReconstructTransactionTask(
		uuid.New(), entities.TaskKindSettleVas, []byte(`{}`),
		entities.TaskStatusProcessing, 1, &past, "",
		time.Now(), time.Now(),
	)

	require.True(t, task.IsLeaseExpired())
	require.NoError(t, task.ReclaimExpiredLease())
	assert.Equal(t, entities.TaskStatusPending, task.Status())
	assert.Nil(t, task.LeaseExpiresAt())
}

func TestTransactionTask_ReclaimExpiredLease_RequiresExpiredLease(t *testing.T) {
	future := time.Now().Add(time.Minute)
	task := entities.ReconstructTransactionTask(
		uuid.New(), entities.TaskKindSettleVas, []byte(`{}`),
		entities.TaskStatusProcessing, 1, &future, "",
		time.Now(), time.Now(),
	)

	err := task.ReclaimExpiredLease()
	assert.Error(t, err)
}
