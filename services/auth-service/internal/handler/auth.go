package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/teon-auth-api/services/auth-service/internal/config"
	"github.com/vasapolrittideah/teon-auth-api/services/auth-service/internal/payload"
	"github.com/vasapolrittideah/teon-auth-api/services/auth-service/internal/usecase"
	"github.com/vasapolrittideah/teon-auth-api/shared/middleware"
	"github.com/vasapolrittideah/teon-auth-api/shared/utilities"
	"github.com/vasapolrittideah/teon-auth-api/shared/validator"
)

// AuthHTTPHandler serves the /api/v1/auth endpoints.
type AuthHTTPHandler struct {
	authUsecase    usecase.AuthUsecase
	validator      *validator.Validator
	authServiceCfg *config.AuthServiceConfig
	logger         *zerolog.Logger
}

// NewAuthHTTPHandler creates a new AuthHTTPHandler.
func NewAuthHTTPHandler(
	authUsecase usecase.AuthUsecase,
	validator *validator.Validator,
	authServiceCfg *config.AuthServiceConfig,
	logger *zerolog.Logger,
) *AuthHTTPHandler {
	return &AuthHTTPHandler{
		authUsecase:    authUsecase,
		validator:      validator,
		authServiceCfg: authServiceCfg,
		logger:         logger,
	}
}

func (h *AuthHTTPHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req payload.RegisterRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.authUsecase.Signup(r.Context(), usecase.SignupParams{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Username:    req.Username,
		Password:    req.Password,
		Gender:      req.Gender,
		PhoneNumber: req.PhoneNumber,
		Country:     req.Country,
		Language:    req.Language,
	})
	if err != nil {
		h.writeError(w, err, "failed to register account")
		return
	}

	message := "Account created successfully, please check your email to verify your account"
	if result.DeliveryErr != nil {
		h.logger.Warn().Err(result.DeliveryErr).Str("account_id", result.Account.ID).Msg("verification email not delivered on signup")
		message = "Account created successfully, but the verification email could not be sent. Please request a new one"
	}

	utilities.WriteJSON(w, http.StatusCreated, utilities.Response{Message: message, Data: result.Account})
}

func (h *AuthHTTPHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req payload.LoginRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.authUsecase.Login(r.Context(), usecase.LoginParams{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.writeError(w, err, "failed to login")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AuthCookieName,
		Value:    result.Token,
		Path:     "/",
		MaxAge:   int(h.authServiceCfg.Token.SessionExpiresIn.Seconds()),
		HttpOnly: true,
		Secure:   h.authServiceCfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	utilities.WriteJSON(w, http.StatusCreated, utilities.Response{
		Message: "Login successful",
		Data:    payload.LoginResponse{Token: result.Token, User: result.Account},
	})
}

func (h *AuthHTTPHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		utilities.WriteMessage(w, http.StatusUnauthorized, "Wrong authentication token")
		return
	}

	account, err := h.authUsecase.Logout(r.Context(), claims.Subject)
	if err != nil {
		h.writeError(w, err, "failed to logout")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AuthCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.authServiceCfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	utilities.WriteJSON(w, http.StatusOK, utilities.Response{Message: "Logout successful", Data: account})
}

func (h *AuthHTTPHandler) VerifyUser(w http.ResponseWriter, r *http.Request) {
	account, err := h.authUsecase.VerifyAccount(r.Context(), chi.URLParam(r, "confirmationCode"))
	if err != nil {
		h.writeError(w, err, "failed to verify account")
		return
	}

	utilities.WriteJSON(w, http.StatusOK, utilities.Response{Message: "Account verified successfully", Data: account})
}

func (h *AuthHTTPHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req payload.ResendVerificationRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.authUsecase.ResendVerification(r.Context(), req.Email)
	if err != nil {
		h.writeError(w, err, "failed to resend verification")
		return
	}

	if result.DeliveryErr != nil {
		h.logger.Warn().Err(result.DeliveryErr).Msg("verification email not delivered on resend")
		utilities.WriteMessage(w, http.StatusOK, "Verification email could not be sent, please try again later")
		return
	}

	utilities.WriteMessage(w, http.StatusOK, "Verification email sent successfully")
}

func (h *AuthHTTPHandler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := utilities.DecodeJSON(w, r, dst); err != nil {
		utilities.WriteMessage(w, http.StatusBadRequest, "Invalid request body")
		return false
	}

	if err := h.validator.Struct(dst); err != nil {
		var validationErr *validator.ValidationError
		if errors.As(err, &validationErr) {
			utilities.WriteJSON(w, http.StatusBadRequest, utilities.Response{
				Message: "Invalid input",
				Errors:  validationErr.Fields,
			})
			return false
		}

		h.logger.Error().Err(err).Msg("failed to validate request")
		utilities.WriteMessage(w, http.StatusInternalServerError, "something went wrong")
		return false
	}

	return true
}

// writeError maps a use case failure onto its HTTP status. Unknown errors are logged
// and answered with a generic 500 so store or hashing details never reach the client.
func (h *AuthHTTPHandler) writeError(w http.ResponseWriter, err error, logMsg string) {
	switch {
	case errors.Is(err, usecase.ErrInvalidInput):
		utilities.WriteMessage(w, http.StatusBadRequest, "Invalid input")
	case errors.Is(err, usecase.ErrDuplicateEmail):
		utilities.WriteMessage(w, http.StatusBadRequest, "Email already exists")
	case errors.Is(err, usecase.ErrDuplicateUsername):
		utilities.WriteMessage(w, http.StatusBadRequest, "Username already exists")
	case errors.Is(err, usecase.ErrInvalidCredentials):
		utilities.WriteMessage(w, http.StatusUnauthorized, "Wrong credentials provided")
	case errors.Is(err, usecase.ErrUnverifiedAccount):
		utilities.WriteMessage(w, http.StatusPaymentRequired, "Account not verified, a new verification email has been sent")
	case errors.Is(err, usecase.ErrAccountSuspended):
		utilities.WriteMessage(w, http.StatusForbidden, "Account suspended")
	case errors.Is(err, usecase.ErrInvalidToken):
		utilities.WriteMessage(w, http.StatusUnauthorized, "Invalid confirmation code")
	case errors.Is(err, usecase.ErrExpiredToken):
		utilities.WriteMessage(w, http.StatusForbidden, "Confirmation code has expired")
	case errors.Is(err, usecase.ErrAlreadyVerified):
		utilities.WriteMessage(w, http.StatusBadRequest, "Account already verified")
	case errors.Is(err, usecase.ErrAccountNotFound):
		utilities.WriteMessage(w, http.StatusUnauthorized, "Account not found")
	default:
		h.logger.Error().Err(err).Msg(logMsg)
		utilities.WriteMessage(w, http.StatusInternalServerError, "something went wrong")
	}
}
