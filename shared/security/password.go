// Package security provides password hashing for stored credentials.
package security

import (
	"context"
	"errors"
	"runtime"

	"github.com/matthewhartstonge/argon2"
	"golang.org/x/sync/semaphore"
)

var ErrEmptyPassword = errors.New("password cannot be empty")

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	// Hash returns an encoded digest of password with a random salt embedded in it.
	Hash(ctx context.Context, password string) (string, error)

	// VerifyPassword reports whether password matches the encoded digest.
	VerifyPassword(ctx context.Context, password, encoded string) (bool, error)
}

// HasherConfig holds the argon2id cost parameters.
type HasherConfig struct {
	TimeCost      uint32 `env:"TIME_COST"      envDefault:"3"`
	MemoryCost    uint32 `env:"MEMORY_COST"    envDefault:"65536"`
	Parallelism   uint8  `env:"PARALLELISM"    envDefault:"4"`
	MaxConcurrent int64  `env:"MAX_CONCURRENT"`
}

// Argon2Hasher implements PasswordHasher with argon2id. At most MaxConcurrent hash or
// verify calls run at once; the rest wait for a slot or for their context to end.
type Argon2Hasher struct {
	config argon2.Config
	slots  *semaphore.Weighted
}

// NewArgon2Hasher creates a new Argon2Hasher.
func NewArgon2Hasher(cfg HasherConfig) *Argon2Hasher {
	argonCfg := argon2.DefaultConfig()
	argonCfg.Mode = argon2.ModeArgon2id
	if cfg.TimeCost > 0 {
		argonCfg.TimeCost = cfg.TimeCost
	}
	if cfg.MemoryCost > 0 {
		argonCfg.MemoryCost = cfg.MemoryCost
	}
	if cfg.Parallelism > 0 {
		argonCfg.Parallelism = cfg.Parallelism
	}

	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = int64(runtime.GOMAXPROCS(0))
	}

	return &Argon2Hasher{
		config: argonCfg,
		slots:  semaphore.NewWeighted(maxConcurrent),
	}
}

func (h *Argon2Hasher) Hash(ctx context.Context, password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	if err := h.slots.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer h.slots.Release(1)

	encoded, err := h.config.HashEncoded([]byte(password))
	if err != nil {
		return "", err
	}

	return string(encoded), nil
}

// VerifyPassword recomputes the digest with the parameters and salt stored in encoded.
// The final comparison is constant time.
func (h *Argon2Hasher) VerifyPassword(ctx context.Context, password, encoded string) (bool, error) {
	if err := h.slots.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer h.slots.Release(1)

	return argon2.VerifyEncoded([]byte(password), []byte(encoded))
}
