package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/vasapolrittideah/teon-auth-api/shared/discovery"
	"github.com/vasapolrittideah/teon-auth-api/shared/logger"
	"github.com/vasapolrittideah/teon-auth-api/shared/mailer"
	"github.com/vasapolrittideah/teon-auth-api/shared/security"
)

// AuthServiceConfig holds every setting of the auth service, read from the environment.
type AuthServiceConfig struct {
	ServiceName         string        `env:"AUTH_SERVICE_NAME"                  envDefault:"auth-service"`
	HTTPAddr            string        `env:"AUTH_SERVICE_HTTP_ADDR"             envDefault:":4000"`
	AppVerificationURL  string        `env:"AUTH_SERVICE_APP_VERIFICATION_URL"  envDefault:"http://localhost:4000/api/v1/auth/verify-user"`
	CookieSecure        bool          `env:"AUTH_SERVICE_COOKIE_SECURE"         envDefault:"false"`
	ShutdownGracePeriod time.Duration `env:"AUTH_SERVICE_SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`
	Store               string        `env:"AUTH_SERVICE_STORE"                 envDefault:"mongo"`

	Token    TokenConfig           `envPrefix:"TOKEN_"`
	Mongo    MongoConfig           `envPrefix:"MONGO_"`
	Password security.HasherConfig `envPrefix:"PASSWORD_"`
	Notify   NotifyConfig          `envPrefix:"NOTIFY_"`
	SMTP     mailer.Config
	Consul   discovery.Config `envPrefix:"CONSUL_"`
	Log      logger.Config    `envPrefix:"LOG_"`
}

// TokenConfig holds signing secrets and lifetimes. Session tokens and confirmation
// codes are signed with different secrets and audiences so one cannot stand in for
// the other.
type TokenConfig struct {
	Issuer                string        `env:"ISSUER"                  envDefault:"teon-auth"`
	SessionSecret         string        `env:"SESSION_SECRET"`
	SessionExpiresIn      time.Duration `env:"SESSION_EXPIRES_IN"      envDefault:"1h"`
	VerificationSecret    string        `env:"VERIFICATION_SECRET"`
	VerificationExpiresIn time.Duration `env:"VERIFICATION_EXPIRES_IN" envDefault:"10m"`
}

// MongoConfig holds the MongoDB connection settings.
type MongoConfig struct {
	URI            string        `env:"URI"             envDefault:"mongodb://localhost:27017"`
	Database       string        `env:"DATABASE"        envDefault:"teon_auth"`
	ConnectTimeout time.Duration `env:"CONNECT_TIMEOUT" envDefault:"10s"`
}

// NotifyConfig bounds how long a use case waits for a verification message to be sent.
type NotifyConfig struct {
	Timeout time.Duration `env:"TIMEOUT" envDefault:"5s"`
}

const (
	SessionAudience      = "session"
	VerificationAudience = "verification"

	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

// Load parses the environment into an AuthServiceConfig and validates it.
func Load() (*AuthServiceConfig, error) {
	cfg, err := env.ParseAs[AuthServiceConfig]()
	if err != nil {
		return nil, fmt.Errorf("parse environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks if the configuration is usable.
func (c *AuthServiceConfig) Validate() error {
	var errs []error

	if c.Token.SessionSecret == "" {
		errs = append(errs, errors.New("missing TOKEN_SESSION_SECRET environment variable"))
	}
	if c.Token.VerificationSecret == "" {
		errs = append(errs, errors.New("missing TOKEN_VERIFICATION_SECRET environment variable"))
	}
	if c.Token.SessionSecret != "" && c.Token.SessionSecret == c.Token.VerificationSecret {
		errs = append(errs, errors.New("TOKEN_SESSION_SECRET and TOKEN_VERIFICATION_SECRET must differ"))
	}
	if c.Token.SessionExpiresIn <= 0 {
		errs = append(errs, errors.New("TOKEN_SESSION_EXPIRES_IN must be positive"))
	}
	if c.Token.VerificationExpiresIn <= 0 {
		errs = append(errs, errors.New("TOKEN_VERIFICATION_EXPIRES_IN must be positive"))
	}
	if c.Notify.Timeout <= 0 {
		errs = append(errs, errors.New("NOTIFY_TIMEOUT must be positive"))
	}
	if c.Store != StoreMongo && c.Store != StoreMemory {
		errs = append(errs, fmt.Errorf("AUTH_SERVICE_STORE must be %q or %q", StoreMongo, StoreMemory))
	}
	if c.SMTP.Enabled() {
		if err := c.SMTP.Validate(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
