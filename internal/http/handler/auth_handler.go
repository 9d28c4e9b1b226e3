package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Shalbulov/zentro-risk-prediction/internal/http/middleware"
	"github.com/Shalbulov/zentro-risk-prediction/internal/http/response"
	"github.com/Shalbulov/zentro-risk-prediction/internal/observability"
	"github.com/Shalbulov/zentro-risk-prediction/internal/service"
)

// AuthHandler exposes the email-verified registration and login flows.
// Every endpoint speaks the success/message envelope; service sentinel
// errors map onto stable status codes here and nowhere else.
type AuthHandler struct {
	auth    service.AuthServiceInterface
	logger  *slog.Logger
	metrics *observability.AuthMetrics
}

func NewAuthHandler(auth service.AuthServiceInterface, logger *slog.Logger, metrics *observability.AuthMetrics) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger, metrics: metrics}
}

type sendCodeRequest struct {
	Email string `json:"email"`
}

type verifyCodeRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Code      string `json:"verificationCode"`
}

type verifyLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Code     string `json:"verificationCode"`
}

type signinRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SendCode handles POST /api/auth/send-code.
func (h *AuthHandler) SendCode(w http.ResponseWriter, r *http.Request) {
	var req sendCodeRequest
	if !h.decode(w, r, &req) {
		return
	}
	err := h.auth.RequestRegistrationCode(r.Context(), req.Email)
	h.metrics.Record(r.Context(), "send_code", outcomeLabel(err))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Message(w, http.StatusOK, "Verification code sent")
}

// VerifyCode handles POST /api/auth/verify-code.
func (h *AuthHandler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var req verifyCodeRequest
	if !h.decode(w, r, &req) {
		return
	}
	user, err := h.auth.RegisterWithCode(r.Context(), service.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Code:      req.Code,
	})
	h.metrics.Record(r.Context(), "verify_code", outcomeLabel(err))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	observability.Audit(r, observability.AuditInput{
		EventName:  "auth.account.created",
		ActorEmail: user.Email,
		Action:     "register",
		Outcome:    "success",
	})
	response.JSON(w, http.StatusCreated, map[string]any{
		"message": "Account created",
		"user":    user,
	})
}

// SendLoginCode handles POST /api/auth/send-login-code.
func (h *AuthHandler) SendLoginCode(w http.ResponseWriter, r *http.Request) {
	var req sendCodeRequest
	if !h.decode(w, r, &req) {
		return
	}
	err := h.auth.RequestLoginCode(r.Context(), req.Email)
	h.metrics.Record(r.Context(), "send_login_code", outcomeLabel(err))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Message(w, http.StatusOK, "Login code sent")
}

// VerifyLogin handles POST /api/auth/verify-login.
func (h *AuthHandler) VerifyLogin(w http.ResponseWriter, r *http.Request) {
	var req verifyLoginRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.auth.LoginWithCode(r.Context(), req.Email, req.Password, req.Code)
	h.metrics.Record(r.Context(), "verify_login", outcomeLabel(err))
	if err != nil {
		observability.Audit(r, observability.AuditInput{
			EventName:  "auth.login",
			ActorEmail: req.Email,
			Action:     "login",
			Outcome:    "failure",
			Reason:     outcomeLabel(err),
		})
		h.writeError(w, r, err)
		return
	}
	observability.Audit(r, observability.AuditInput{
		EventName:  "auth.login",
		ActorEmail: res.User.Email,
		Action:     "login",
		Outcome:    "success",
	})
	h.writeSession(w, res)
}

// Signin handles POST /api/auth/signin, the direct password path kept for
// clients that predate the code flow.
func (h *AuthHandler) Signin(w http.ResponseWriter, r *http.Request) {
	var req signinRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.auth.SignIn(r.Context(), req.Email, req.Password)
	h.metrics.Record(r.Context(), "signin", outcomeLabel(err))
	if err != nil {
		observability.Audit(r, observability.AuditInput{
			EventName:  "auth.signin",
			ActorEmail: req.Email,
			Action:     "signin",
			Outcome:    "failure",
			Reason:     outcomeLabel(err),
		})
		h.writeError(w, r, err)
		return
	}
	observability.Audit(r, observability.AuditInput{
		EventName:  "auth.signin",
		ActorEmail: res.User.Email,
		Action:     "signin",
		Outcome:    "success",
	})
	h.writeSession(w, res)
}

// Me handles GET /api/auth/me. The auth middleware has already validated
// the bearer token and stashed the subject in the context.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	user, err := h.auth.CurrentUser(r.Context(), userID)
	if err != nil {
		// A valid token whose account has since been removed reads as an
		// authentication failure, not a missing resource.
		if errors.Is(err, service.ErrUserNotFound) {
			response.Error(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{"user": user})
}

func (h *AuthHandler) writeSession(w http.ResponseWriter, res *service.LoginResult) {
	response.JSON(w, http.StatusOK, map[string]any{
		"message":    "Login successful",
		"token":      res.Token,
		"user":       res.User,
		"expires_at": res.ExpiresAt,
	})
}

func (h *AuthHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// outcomeLabel buckets a service error into the closed label set the flow
// counter uses.
func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, service.ErrDeliveryFailed):
		return "delivery_failed"
	case errors.Is(err, service.ErrInvalidOrExpiredCode):
		return "invalid_code"
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrAccountNotVerified):
		return "rejected"
	case errors.Is(err, service.ErrDuplicateAccount),
		errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrMissingFields):
		return "invalid_request"
	default:
		return "error"
	}
}

func (h *AuthHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrMissingFields):
		response.Error(w, http.StatusBadRequest, "All fields are required")
	case errors.Is(err, service.ErrDuplicateAccount):
		response.Error(w, http.StatusBadRequest, "User with this email already exists")
	case errors.Is(err, service.ErrInvalidOrExpiredCode):
		response.Error(w, http.StatusBadRequest, "Invalid or expired verification code")
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Error(w, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, service.ErrAccountNotVerified):
		response.Error(w, http.StatusForbidden, "Account is not verified")
	case errors.Is(err, service.ErrUserNotFound):
		response.Error(w, http.StatusNotFound, "User not found")
	case errors.Is(err, service.ErrDeliveryFailed):
		response.Error(w, http.StatusBadGateway, "Could not send verification email")
	default:
		h.logger.ErrorContext(r.Context(), "auth request failed",
			"path", r.URL.Path,
			"error", err,
		)
		response.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}
