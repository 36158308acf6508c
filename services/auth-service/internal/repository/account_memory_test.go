package repository

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vasapolrittideah/teon-auth-api/services/auth-service/internal/model"
)

func newAccount(email, username string) *model.Account {
	return &model.Account{
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Email:        email,
		Username:     username,
		Gender:       "Female",
		Status:       model.AccountStatusActive,
		PasswordHash: "$argon2id$digest",
	}
}

func TestMemoryRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountMemoryRepository()

	created, err := repo.CreateAccount(ctx, newAccount("a@x.com", "ada"))
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	byID, err := repo.GetAccount(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, byID)

	byEmail, err := repo.GetAccountByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	_, err = repo.GetAccount(ctx, "missing")
	assert.ErrorIs(t, err, ErrAccountNotFound)
	_, err = repo.GetAccountByEmail(ctx, "b@x.com")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestMemoryRepository_Uniqueness(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountMemoryRepository()

	_, err := repo.CreateAccount(ctx, newAccount("a@x.com", "ada"))
	require.NoError(t, err)

	_, err = repo.CreateAccount(ctx, newAccount("a@x.com", "someone-else"))
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	_, err = repo.CreateAccount(ctx, newAccount("b@x.com", "ada"))
	assert.ErrorIs(t, err, ErrDuplicateUsername)

	_, err = repo.GetAccountByEmail(ctx, "b@x.com")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestMemoryRepository_ConcurrentInsertIfAbsent(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountMemoryRepository()

	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
	)
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.CreateAccount(ctx, newAccount("race@x.com", fmt.Sprintf("user-%d", i))); err == nil {
				succeeded.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), succeeded.Load())
}

func TestMemoryRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountMemoryRepository()

	created, err := repo.CreateAccount(ctx, newAccount("a@x.com", "ada"))
	require.NoError(t, err)
	created.PasswordHash = "mutated"

	stored, err := repo.GetAccount(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "$argon2id$digest", stored.PasswordHash)
}

func TestMemoryRepository_ConfirmationCodeLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountMemoryRepository()

	created, err := repo.CreateAccount(ctx, newAccount("a@x.com", "ada"))
	require.NoError(t, err)

	_, err = repo.UpdateAccount(ctx, created.ID, UpdateAccountParams{})
	assert.ErrorIs(t, err, ErrNoFieldsToUpdate)

	first := "code-1"
	expiry := time.Now().Add(10 * time.Minute)
	updated, err := repo.UpdateAccount(ctx, created.ID, UpdateAccountParams{
		ConfirmationCode:        &first,
		VerificationTokenExpiry: &expiry,
	})
	require.NoError(t, err)
	assert.Equal(t, model.VerificationStatePending, updated.VerificationState())

	second := "code-2"
	_, err = repo.UpdateAccount(ctx, created.ID, UpdateAccountParams{ConfirmationCode: &second})
	require.NoError(t, err)

	_, err = repo.GetAccountByConfirmationCode(ctx, first)
	assert.ErrorIs(t, err, ErrAccountNotFound, "reissuing replaces the previous code")

	_, err = repo.ConsumeConfirmationCode(ctx, created.ID, first)
	assert.ErrorIs(t, err, ErrAccountNotFound)

	found, err := repo.GetAccountByConfirmationCode(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	verified, err := repo.ConsumeConfirmationCode(ctx, created.ID, second)
	require.NoError(t, err)
	assert.True(t, verified.IsVerified)
	assert.True(t, verified.EmailVerified)
	assert.Nil(t, verified.ConfirmationCode)
	assert.Nil(t, verified.VerificationTokenExpiry)

	_, err = repo.ConsumeConfirmationCode(ctx, created.ID, second)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestMemoryRepository_UpdateMissing(t *testing.T) {
	hash := "h"
	_, err := NewAccountMemoryRepository().UpdateAccount(context.Background(), "missing", UpdateAccountParams{PasswordHash: &hash})
	assert.ErrorIs(t, err, ErrAccountNotFound)
}
