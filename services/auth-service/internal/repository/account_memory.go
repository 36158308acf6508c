package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vasapolrittideah/teon-auth-api/services/auth-service/internal/model"
)

// accountMemoryRepository keeps accounts in process memory. It is the reference
// AccountRepository used for local runs and tests.
type accountMemoryRepository struct {
	mu         sync.RWMutex
	byID       map[string]*model.Account
	byEmail    map[string]string
	byUsername map[string]string
	now        func() time.Time
}

// NewAccountMemoryRepository creates an empty in-memory AccountRepository.
func NewAccountMemoryRepository() AccountRepository {
	return &accountMemoryRepository{
		byID:       make(map[string]*model.Account),
		byEmail:    make(map[string]string),
		byUsername: make(map[string]string),
		now:        time.Now,
	}
}

func (r *accountMemoryRepository) CreateAccount(_ context.Context, account *model.Account) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[account.Email]; ok {
		return nil, ErrDuplicateEmail
	}
	if _, ok := r.byUsername[account.Username]; ok {
		return nil, ErrDuplicateUsername
	}

	now := r.now()
	stored := account.Clone()
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	stored.CreatedAt = now
	stored.UpdatedAt = now

	r.byID[stored.ID] = stored
	r.byEmail[stored.Email] = stored.ID
	r.byUsername[stored.Username] = stored.ID

	return stored.Clone(), nil
}

func (r *accountMemoryRepository) GetAccount(_ context.Context, id string) (*model.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.byID[id]
	if !ok {
		return nil, ErrAccountNotFound
	}

	return account.Clone(), nil
}

func (r *accountMemoryRepository) GetAccountByEmail(_ context.Context, email string) (*model.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, ErrAccountNotFound
	}

	return r.byID[id].Clone(), nil
}

func (r *accountMemoryRepository) GetAccountByConfirmationCode(_ context.Context, code string) (*model.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, account := range r.byID {
		if account.ConfirmationCode != nil && *account.ConfirmationCode == code {
			return account.Clone(), nil
		}
	}

	return nil, ErrAccountNotFound
}

func (r *accountMemoryRepository) UpdateAccount(
	_ context.Context,
	id string,
	params UpdateAccountParams,
) (*model.Account, error) {
	if params.empty() {
		return nil, ErrNoFieldsToUpdate
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.byID[id]
	if !ok {
		return nil, ErrAccountNotFound
	}

	if params.PasswordHash != nil {
		account.PasswordHash = *params.PasswordHash
	}
	if params.ConfirmationCode != nil {
		code := *params.ConfirmationCode
		account.ConfirmationCode = &code
	}
	if params.VerificationTokenExpiry != nil {
		expiry := *params.VerificationTokenExpiry
		account.VerificationTokenExpiry = &expiry
	}
	account.UpdatedAt = r.now()

	return account.Clone(), nil
}

func (r *accountMemoryRepository) ConsumeConfirmationCode(_ context.Context, id, code string) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.byID[id]
	if !ok || account.ConfirmationCode == nil || *account.ConfirmationCode != code {
		return nil, ErrAccountNotFound
	}

	account.IsVerified = true
	account.EmailVerified = true
	account.ConfirmationCode = nil
	account.VerificationTokenExpiry = nil
	account.UpdatedAt = r.now()

	return account.Clone(), nil
}
