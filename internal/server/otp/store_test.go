package otp

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreConsume(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Put(ctx, PurposeRegistration, "user@example.com", "123456", time.Minute))

	ok, err := s.Consume(ctx, PurposeRegistration, "user@example.com", "123456")
	require.NoError(t, err)
	assert.True(t, ok)

	// single use
	ok, err = s.Consume(ctx, PurposeRegistration, "user@example.com", "123456")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStoreConsume_MismatchSpendsCode(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Put(ctx, PurposeRegistration, "user@example.com", "123456", time.Minute))

	ok, err := s.Consume(ctx, PurposeRegistration, "user@example.com", "000000")
	require.NoError(t, err)
	assert.False(t, ok, "wrong code must not verify")

	ok, err = s.Consume(ctx, PurposeRegistration, "user@example.com", "123456")
	require.NoError(t, err)
	assert.False(t, ok, "the wrong attempt already spent the code")

	require.NoError(t, s.Put(ctx, PurposeRegistration, "user@example.com", "654321", time.Minute))
	ok, err = s.Consume(ctx, PurposeRegistration, "user@example.com", "654321")
	require.NoError(t, err)
	assert.True(t, ok, "a reissued code verifies again")
}

func TestMemoryStorePurposeIsolation(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Put(ctx, PurposeRegistration, "subject", "123456", time.Minute))

	ok, err := s.Consume(ctx, PurposePasswordReset, "subject", "123456")
	require.NoError(t, err)
	assert.False(t, ok, "registration code must not satisfy a reset")
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	now := time.Now()
	s.now = func() time.Time { return now }

	require.NoError(t, s.Put(ctx, PurposeRegistration, "subject", "123456", time.Minute))

	now = now.Add(2 * time.Minute)
	ok, err := s.Consume(ctx, PurposeRegistration, "subject", "123456")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStoreReplace(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Put(ctx, PurposeRegistration, "subject", "111111", time.Minute))
	require.NoError(t, s.Put(ctx, PurposeRegistration, "subject", "222222", time.Minute))

	ok, err := s.Consume(ctx, PurposeRegistration, "subject", "222222")
	require.NoError(t, err)
	assert.True(t, ok, "the latest code is the live one")

	ok, err = s.Consume(ctx, PurposeRegistration, "subject", "111111")
	require.NoError(t, err)
	assert.False(t, ok, "replaced code must be dead")
}
