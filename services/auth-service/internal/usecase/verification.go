package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/vasapolrittideah/teon-auth-api/services/auth-service/internal/config"
	"github.com/vasapolrittideah/teon-auth-api/services/auth-service/internal/model"
	"github.com/vasapolrittideah/teon-auth-api/services/auth-service/internal/notifier"
	"github.com/vasapolrittideah/teon-auth-api/services/auth-service/internal/repository"
	"github.com/vasapolrittideah/teon-auth-api/shared/auth"
)

// VerificationDispatcher sends a verification message with a bounded wait.
type VerificationDispatcher interface {
	Dispatch(ctx context.Context, msg notifier.VerificationMessage) error
}

// VerificationUsecase moves accounts from unverified to verified using signed,
// short-lived confirmation codes.
type VerificationUsecase interface {
	// IssueCode replaces the account's confirmation code with a fresh one and sends it.
	// A delivery problem does not fail the call; it is reported in IssuedCode.DeliveryErr.
	IssueCode(ctx context.Context, account *model.Account) (*IssuedCode, error)

	// Verify consumes code and marks its account verified.
	Verify(ctx context.Context, code string) (*model.Account, error)

	// Resend issues a new code for the unverified account registered under email.
	Resend(ctx context.Context, email string) (*IssuedCode, error)
}

// IssuedCode describes a confirmation code that was stored for an account.
type IssuedCode struct {
	ExpiresAt   time.Time
	DeliveryErr error
}

type verificationUsecase struct {
	accountRepo    repository.AccountRepository
	codeIssuer     auth.TokenIssuer
	dispatcher     VerificationDispatcher
	authServiceCfg *config.AuthServiceConfig
}

// NewVerificationUsecase creates a new instance of VerificationUsecase. codeIssuer must
// not share its secret or audience with the session token issuer.
func NewVerificationUsecase(
	accountRepo repository.AccountRepository,
	codeIssuer auth.TokenIssuer,
	dispatcher VerificationDispatcher,
	authServiceCfg *config.AuthServiceConfig,
) VerificationUsecase {
	return &verificationUsecase{
		accountRepo:    accountRepo,
		codeIssuer:     codeIssuer,
		dispatcher:     dispatcher,
		authServiceCfg: authServiceCfg,
	}
}

func (u *verificationUsecase) IssueCode(ctx context.Context, account *model.Account) (*IssuedCode, error) {
	ttl := u.authServiceCfg.Token.VerificationExpiresIn

	code, expiresAt, err := u.codeIssuer.Issue(account.ID, ttl)
	if err != nil {
		return nil, fmt.Errorf("issue confirmation code: %w", err)
	}

	if _, err := u.accountRepo.UpdateAccount(ctx, account.ID, repository.UpdateAccountParams{
		ConfirmationCode:        &code,
		VerificationTokenExpiry: &expiresAt,
	}); err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("store confirmation code: %w", err)
	}

	issued := &IssuedCode{ExpiresAt: expiresAt}
	if err := u.dispatcher.Dispatch(ctx, notifier.VerificationMessage{
		AccountID: account.ID,
		To:        account.Email,
		FirstName: account.FirstName,
		Link:      u.verificationLink(code),
		ExpiresIn: ttl,
	}); err != nil {
		issued.DeliveryErr = fmt.Errorf("%w: %w", ErrDeliveryFailure, err)
	}

	return issued, nil
}

func (u *verificationUsecase) Verify(ctx context.Context, code string) (*model.Account, error) {
	if code == "" {
		return nil, ErrInvalidToken
	}

	account, err := u.accountRepo.GetAccountByConfirmationCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	claims, err := u.codeIssuer.Validate(code)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	if claims.Subject != account.ID {
		return nil, ErrInvalidToken
	}

	verified, err := u.accountRepo.ConsumeConfirmationCode(ctx, account.ID, code)
	if err != nil {
		// A resend or a concurrent verify replaced the code after the lookup.
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	return verified, nil
}

func (u *verificationUsecase) Resend(ctx context.Context, email string) (*IssuedCode, error) {
	account, err := u.accountRepo.GetAccountByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	if account.IsVerified {
		return nil, ErrAlreadyVerified
	}

	return u.IssueCode(ctx, account)
}

func (u *verificationUsecase) verificationLink(code string) string {
	return strings.TrimRight(u.authServiceCfg.AppVerificationURL, "/") + "/" + url.PathEscape(code)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
