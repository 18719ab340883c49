package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInProcessTokenCache_SetThenGet(t *testing.T) {
	c := NewInProcessTokenCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "PROVIDER_A", "tok-1", time.Minute))

	token, found, err := c.Get(ctx, "PROVIDER_A")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "tok-1", token)
}

func TestInProcessTokenCache_Miss(t *testing.T) {
	c := NewInProcessTokenCache()

	_, found, err := c.Get(context.Background(), "PROVIDER_A")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInProcessTokenCache_Expired(t *testing.T) {
	c := NewInProcessTokenCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "PROVIDER_A", "tok-1", -time.Second))

	_, found, err := c.Get(ctx, "PROVIDER_A")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInProcessTokenCache_DistinctProviders(t *testing.T) {
	c := NewInProcessTokenCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "PROVIDER_A", "tok-a", time.Minute))
	require.NoError(t, c.Set(ctx, "PROVIDER_B", "tok-b", time.Minute))

	tokenA, _, _ := c.Get(ctx, "PROVIDER_A")
	tokenB, _, _ := c.Get(ctx, "PROVIDER_B")
	assert.Equal(t, "tok-a", tokenA)
	assert.Equal(t, "tok-b", tokenB)
}
