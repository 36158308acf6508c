package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/hlog"

	"github.com/vasapolrittideah/teon-auth-api/shared/auth"
	"github.com/vasapolrittideah/teon-auth-api/shared/utilities"
)

// AuthCookieName is the cookie carrying the session token.
const AuthCookieName = "Authorization"

var (
	ErrMissingToken       = errors.New("authentication token missing")
	ErrInvalidTokenFormat = errors.New("invalid authorization header format")
)

type contextKey struct{}

var claimsKey = contextKey{}

// Authenticate requires a valid session token on every request it wraps. The token
// is read from the Authorization cookie or from an "Authorization: Bearer" header.
// A missing token answers 404 and an invalid or expired one answers 401.
func Authenticate(issuer auth.TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := ExtractToken(r)
			if err != nil {
				if errors.Is(err, ErrMissingToken) {
					utilities.WriteMessage(w, http.StatusNotFound, "Authentication token missing")
					return
				}
				utilities.WriteMessage(w, http.StatusUnauthorized, "Wrong authentication token")
				return
			}

			claims, err := issuer.Validate(token)
			if err != nil {
				hlog.FromRequest(r).Debug().Err(err).Msg("rejected session token")
				utilities.WriteMessage(w, http.StatusUnauthorized, "Wrong authentication token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// ExtractToken returns the raw token from the request, preferring the cookie.
func ExtractToken(r *http.Request) (string, error) {
	if cookie, err := r.Cookie(AuthCookieName); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}

	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrMissingToken
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || strings.TrimSpace(parts[1]) == "" {
		return "", ErrInvalidTokenFormat
	}

	return strings.TrimSpace(parts[1]), nil
}

// WithClaims stores validated claims in ctx.
func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// ClaimsFromContext returns the claims stored by Authenticate.
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*auth.Claims)
	return claims, ok
}
