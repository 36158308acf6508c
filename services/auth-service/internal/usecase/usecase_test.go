package usecase

import (
	"context"
	"path"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vasapolrittideah/teon-auth-api/services/auth-service/internal/config"
	"github.com/vasapolrittideah/teon-auth-api/services/auth-service/internal/notifier"
	"github.com/vasapolrittideah/teon-auth-api/services/auth-service/internal/repository"
	"github.com/vasapolrittideah/teon-auth-api/shared/auth"
	"github.com/vasapolrittideah/teon-auth-api/shared/security"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeDispatcher struct {
	mu   sync.Mutex
	sent []notifier.VerificationMessage
	err  error
}

func (d *fakeDispatcher) Dispatch(_ context.Context, msg notifier.VerificationMessage) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, msg)
	return d.err
}

func (d *fakeDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sent)
}

// lastCode returns the confirmation code carried in the most recent verification link.
func (d *fakeDispatcher) lastCode(t *testing.T) string {
	t.Helper()

	d.mu.Lock()
	defer d.mu.Unlock()
	require.NotEmpty(t, d.sent, "no verification message dispatched")
	return path.Base(d.sent[len(d.sent)-1].Link)
}

type testEnv struct {
	auth         AuthUsecase
	verification VerificationUsecase
	repo         repository.AccountRepository
	dispatcher   *fakeDispatcher
	clock        *fakeClock
	codeIssuer   *auth.JWTAuthenticator
	cfg          *config.AuthServiceConfig
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.AuthServiceConfig{
		AppVerificationURL: "http://localhost:4000/api/v1/auth/verify-user/",
		Token: config.TokenConfig{
			Issuer:                "teon-auth-test",
			SessionSecret:         "session-secret",
			SessionExpiresIn:      time.Hour,
			VerificationSecret:    "verification-secret",
			VerificationExpiresIn: 10 * time.Minute,
		},
	}

	clock := &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	sessionIssuer := auth.NewJWTAuthenticator(
		cfg.Token.SessionSecret, config.SessionAudience, cfg.Token.Issuer, auth.WithClock(clock.Now),
	)
	codeIssuer := auth.NewJWTAuthenticator(
		cfg.Token.VerificationSecret, config.VerificationAudience, cfg.Token.Issuer, auth.WithClock(clock.Now),
	)
	hasher := security.NewArgon2Hasher(security.HasherConfig{
		TimeCost:    1,
		MemoryCost:  8 * 1024,
		Parallelism: 1,
	})

	repo := repository.NewAccountMemoryRepository()
	dispatcher := &fakeDispatcher{}
	verification := NewVerificationUsecase(repo, codeIssuer, dispatcher, cfg)

	return &testEnv{
		auth:         NewAuthUsecase(repo, verification, hasher, sessionIssuer, cfg),
		verification: verification,
		repo:         repo,
		dispatcher:   dispatcher,
		clock:        clock,
		codeIssuer:   codeIssuer,
		cfg:          cfg,
	}
}

func signupParams(email, username string) SignupParams {
	return SignupParams{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     email,
		Username:  username,
		Password:  "longenough1",
		Gender:    "Female",
		Country:   "GB",
	}
}
