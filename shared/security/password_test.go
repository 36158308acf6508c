package security

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHasher() *Argon2Hasher {
	return NewArgon2Hasher(HasherConfig{TimeCost: 1, MemoryCost: 8 * 1024, Parallelism: 1, MaxConcurrent: 2})
}

func TestArgon2Hasher_HashAndVerify(t *testing.T) {
	ctx := context.Background()
	h := newTestHasher()

	encoded, err := h.Hash(ctx, "longenough1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, "$argon2id$"))
	assert.NotContains(t, encoded, "longenough1")

	ok, err := h.VerifyPassword(ctx, "longenough1", encoded)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.VerifyPassword(ctx, "wrong-password", encoded)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestArgon2Hasher_SaltPerCall(t *testing.T) {
	ctx := context.Background()
	h := newTestHasher()

	first, err := h.Hash(ctx, "same-password")
	require.NoError(t, err)
	second, err := h.Hash(ctx, "same-password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestArgon2Hasher_EmptyPassword(t *testing.T) {
	_, err := newTestHasher().Hash(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyPassword)
}

func TestArgon2Hasher_InvalidEncoding(t *testing.T) {
	ok, err := newTestHasher().VerifyPassword(context.Background(), "pw", "not-a-hash")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestArgon2Hasher_CancelledWhileWaitingForSlot(t *testing.T) {
	h := NewArgon2Hasher(HasherConfig{TimeCost: 1, MemoryCost: 8 * 1024, Parallelism: 1, MaxConcurrent: 1})
	require.NoError(t, h.slots.Acquire(context.Background(), 1))
	defer h.slots.Release(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.Hash(ctx, "longenough1")
	assert.ErrorIs(t, err, context.Canceled)
}
