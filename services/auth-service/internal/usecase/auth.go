package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/vasapolrittideah/teon-auth-api/services/auth-service/internal/config"
	"github.com/vasapolrittideah/teon-auth-api/services/auth-service/internal/model"
	"github.com/vasapolrittideah/teon-auth-api/services/auth-service/internal/repository"
	"github.com/vasapolrittideah/teon-auth-api/shared/auth"
	"github.com/vasapolrittideah/teon-auth-api/shared/security"
)

const minPasswordLength = 8

// AuthUsecase defines the interface for authentication-related use cases.
type AuthUsecase interface {
	Signup(ctx context.Context, params SignupParams) (*SignupResult, error)
	Login(ctx context.Context, params LoginParams) (*LoginResult, error)
	Logout(ctx context.Context, accountID string) (*model.PublicAccount, error)
	VerifyAccount(ctx context.Context, confirmationCode string) (*model.PublicAccount, error)
	ResendVerification(ctx context.Context, email string) (*ResendResult, error)
}

// SignupParams defines the parameters for account registration.
type SignupParams struct {
	FirstName   string
	LastName    string
	Email       string
	Username    string
	Password    string
	Gender      string
	PhoneNumber string
	Country     string
	Language    string
}

// SignupResult holds the created account. DeliveryErr is set when the verification
// message could not be confirmed as sent; the account exists regardless.
type SignupResult struct {
	Account     *model.PublicAccount
	DeliveryErr error
}

// LoginParams defines the parameters for user login.
type LoginParams struct {
	Email    string
	Password string
}

// LoginResult holds a session token and the authenticated account.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Account   *model.PublicAccount
}

// ResendResult reports the outcome of re-sending a confirmation code.
type ResendResult struct {
	DeliveryErr error
}

type authUsecase struct {
	accountRepo    repository.AccountRepository
	verification   VerificationUsecase
	hasher         security.PasswordHasher
	sessionIssuer  auth.TokenIssuer
	authServiceCfg *config.AuthServiceConfig

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthUsecase creates a new instance of AuthUsecase.
func NewAuthUsecase(
	accountRepo repository.AccountRepository,
	verification VerificationUsecase,
	hasher security.PasswordHasher,
	sessionIssuer auth.TokenIssuer,
	authServiceCfg *config.AuthServiceConfig,
) AuthUsecase {
	return &authUsecase{
		accountRepo:    accountRepo,
		verification:   verification,
		hasher:         hasher,
		sessionIssuer:  sessionIssuer,
		authServiceCfg: authServiceCfg,
	}
}

func (u *authUsecase) Signup(ctx context.Context, params SignupParams) (*SignupResult, error) {
	params.Email = normalizeEmail(params.Email)
	params.Username = strings.TrimSpace(params.Username)
	if err := params.validate(); err != nil {
		return nil, err
	}

	if _, err := u.accountRepo.GetAccountByEmail(ctx, params.Email); err == nil {
		return nil, ErrDuplicateEmail
	} else if !errors.Is(err, repository.ErrAccountNotFound) {
		return nil, err
	}

	passwordHash, err := u.hasher.Hash(ctx, params.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account, err := u.accountRepo.CreateAccount(ctx, &model.Account{
		FirstName:    strings.TrimSpace(params.FirstName),
		LastName:     strings.TrimSpace(params.LastName),
		Email:        params.Email,
		Username:     params.Username,
		PhoneNumber:  params.PhoneNumber,
		Gender:       params.Gender,
		Country:      params.Country,
		Language:     params.Language,
		Status:       model.AccountStatusActive,
		PasswordHash: passwordHash,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			return nil, ErrDuplicateEmail
		case errors.Is(err, repository.ErrDuplicateUsername):
			return nil, ErrDuplicateUsername
		}
		return nil, err
	}

	issued, err := u.verification.IssueCode(ctx, account)
	if err != nil {
		return nil, err
	}

	return &SignupResult{
		Account:     account.Public(),
		DeliveryErr: issued.DeliveryErr,
	}, nil
}

func (u *authUsecase) Login(ctx context.Context, params LoginParams) (*LoginResult, error) {
	account, err := u.accountRepo.GetAccountByEmail(ctx, normalizeEmail(params.Email))
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			// Spend the same hashing time as a real check so unknown emails are not
			// distinguishable by latency.
			_, _ = u.hasher.VerifyPassword(ctx, params.Password, u.dummyPasswordHash(ctx))
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := u.hasher.VerifyPassword(ctx, params.Password, account.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	if account.Status == model.AccountStatusSuspended {
		return nil, ErrAccountSuspended
	}

	if !account.IsVerified {
		if _, err := u.verification.IssueCode(ctx, account); err != nil {
			return nil, err
		}
		return nil, ErrUnverifiedAccount
	}

	token, expiresAt, err := u.sessionIssuer.Issue(account.ID, u.authServiceCfg.Token.SessionExpiresIn)
	if err != nil {
		return nil, fmt.Errorf("issue session token: %w", err)
	}

	return &LoginResult{
		Token:     token,
		ExpiresAt: expiresAt,
		Account:   account.Public(),
	}, nil
}

// Logout only acknowledges the account. Session tokens are self-validating and stay
// valid until they expire; clients are expected to discard them.
func (u *authUsecase) Logout(ctx context.Context, accountID string) (*model.PublicAccount, error) {
	account, err := u.accountRepo.GetAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	return account.Public(), nil
}

func (u *authUsecase) VerifyAccount(ctx context.Context, confirmationCode string) (*model.PublicAccount, error) {
	account, err := u.verification.Verify(ctx, confirmationCode)
	if err != nil {
		return nil, err
	}

	return account.Public(), nil
}

func (u *authUsecase) ResendVerification(ctx context.Context, email string) (*ResendResult, error) {
	issued, err := u.verification.Resend(ctx, email)
	if err != nil {
		return nil, err
	}

	return &ResendResult{DeliveryErr: issued.DeliveryErr}, nil
}

// dummyPasswordHash returns a valid digest nobody knows the password for.
func (u *authUsecase) dummyPasswordHash(ctx context.Context) string {
	u.dummyOnce.Do(func() {
		hash, err := u.hasher.Hash(context.WithoutCancel(ctx), "teon-dummy-password-never-issued")
		if err == nil {
			u.dummyHash = hash
		}
	})

	return u.dummyHash
}

func (p SignupParams) validate() error {
	required := []struct{ field, value string }{
		{"firstName", p.FirstName},
		{"lastName", p.LastName},
		{"email", p.Email},
		{"username", p.Username},
		{"password", p.Password},
		{"gender", p.Gender},
	}

	var missing []string
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.field)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidInput, strings.Join(missing, ", "))
	}

	if len(p.Password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLength)
	}

	return nil
}
