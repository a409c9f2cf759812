package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/uninest/backend/internal/metrics"
	"github.com/uninest/backend/internal/models"
	"github.com/uninest/backend/internal/services"
	"go.uber.org/zap"
)

// AuthService is the interface that wraps methods for authentication business logic.
type AuthService interface {
	// Method Register validates the request and creates an account.
	//
	// "req" parameter contains the account fields; profile fields of the other role are ignored.
	//
	// Returns *services.ValidationError for malformed input and services.ErrEmailTaken for a duplicate email.
	Register(ctx context.Context, req *models.RegisterRequest) (string, error)
	// Method Login checks credentials and issues a session token.
	//
	// Returns services.ErrMissingCredentials or services.ErrInvalidCredentials on failure.
	Login(ctx context.Context, email, password string) (*services.LoginResult, error)
	// Method VerifyToken validates a session token and returns the current state of its account.
	//
	// Returns services.ErrInvalidToken, services.ErrTokenExpired or services.ErrAccountNotFound on failure.
	VerifyToken(ctx context.Context, token string) (*models.Account, error)
}

// AuthObserver counts authentication outcomes
type AuthObserver interface {
	ObserveAuth(operation, outcome string)
}

const bearerPrefix = "Bearer "

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	BaseHandler
	authService AuthService
	observer    AuthObserver
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(
	authService AuthService,
	observer AuthObserver,
	logger *zap.Logger,
	development bool,
) *AuthHandler {
	return &AuthHandler{
		BaseHandler: BaseHandler{Logger: logger, Development: development},
		authService: authService,
		observer:    observer,
	}
}

// RegisterRoutes registers all auth handler routes
// Note: This assumes the router is already scoped to /api
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Get("/verify", h.Verify)
	})
}

// Register handles POST /auth/register
// @Summary Register a new user
// @Description Create a STUDENT or HOSTEL_OWNER account. No token is issued; the client logs in afterwards.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.RegisterRequest true "Registration request"
// @Success 201 {object} models.RegisterResponse
// @Failure 400 {object} models.ValidationErrorResponse "Validation failed"
// @Failure 409 {object} map[string]string "Email already registered"
// @Failure 413 {object} map[string]string "Request body too large"
// @Failure 500 {object} map[string]string "Server error during registration"
// @Router /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondDecodeError(w, metrics.OperationRegister, err)
		return
	}

	userID, err := h.authService.Register(r.Context(), &req)
	if err != nil {
		var validationErr *services.ValidationError
		switch {
		case errors.As(err, &validationErr):
			h.observer.ObserveAuth(metrics.OperationRegister, "validation_error")
			h.RespondJSON(w, http.StatusBadRequest, models.ValidationErrorResponse{
				Message: "Validation failed",
				Errors:  validationErr.Errors,
			})
		case errors.Is(err, services.ErrEmailTaken):
			h.observer.ObserveAuth(metrics.OperationRegister, "conflict")
			h.RespondError(w, http.StatusConflict, "Email already registered")
		default:
			h.observer.ObserveAuth(metrics.OperationRegister, "error")
			h.RespondServerError(w, "Server error during registration", err, nil)
		}
		return
	}

	h.observer.ObserveAuth(metrics.OperationRegister, "success")
	h.RespondJSON(w, http.StatusCreated, models.RegisterResponse{
		Message: "User registered successfully",
		UserID:  userID,
	})
}

// Login handles POST /auth/login
// @Summary Login user
// @Description Authenticate with email and password. Returns a bearer token valid for 24 hours.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Login request"
// @Success 200 {object} models.LoginResponse
// @Failure 400 {object} map[string]string "Email and password are required"
// @Failure 401 {object} map[string]string "Invalid credentials"
// @Failure 413 {object} map[string]string "Request body too large"
// @Failure 500 {object} map[string]string "Server error during login"
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondDecodeError(w, metrics.OperationLogin, err)
		return
	}

	result, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMissingCredentials):
			h.observer.ObserveAuth(metrics.OperationLogin, "missing_credentials")
			h.RespondError(w, http.StatusBadRequest, "Email and password are required")
		case errors.Is(err, services.ErrInvalidCredentials):
			h.observer.ObserveAuth(metrics.OperationLogin, "invalid_credentials")
			h.RespondError(w, http.StatusUnauthorized, "Invalid credentials")
		default:
			h.observer.ObserveAuth(metrics.OperationLogin, "error")
			h.RespondServerError(w, "Server error during login", err, nil)
		}
		return
	}

	h.observer.ObserveAuth(metrics.OperationLogin, "success")
	h.RespondJSON(w, http.StatusOK, models.LoginResponse{
		Token:     result.Token,
		UserType:  result.Account.Role(),
		UserID:    result.Account.ID,
		FirstName: result.Account.FirstName,
		LastName:  result.Account.LastName,
	})
}

// Verify handles GET /auth/verify
// @Summary Verify session token
// @Description Validate the bearer token and return the current account state.
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.VerifyResponse
// @Failure 401 {object} map[string]any "Missing or invalid token format, invalid token or token expired"
// @Failure 404 {object} map[string]any "User not found or inactive"
// @Failure 500 {object} map[string]any "Server error during verification"
// @Router /auth/verify [get]
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	tokenString, ok := bearerToken(r)
	if !ok {
		h.observer.ObserveAuth(metrics.OperationVerify, "missing_token")
		h.respondVerifyError(w, http.StatusUnauthorized, "Missing or invalid token format")
		return
	}

	account, err := h.authService.VerifyToken(r.Context(), tokenString)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTokenExpired):
			h.observer.ObserveAuth(metrics.OperationVerify, "expired_token")
			h.respondVerifyError(w, http.StatusUnauthorized, "Token expired")
		case errors.Is(err, services.ErrInvalidToken):
			h.observer.ObserveAuth(metrics.OperationVerify, "invalid_token")
			h.respondVerifyError(w, http.StatusUnauthorized, "Invalid token")
		case errors.Is(err, services.ErrAccountNotFound):
			h.observer.ObserveAuth(metrics.OperationVerify, "not_found")
			h.respondVerifyError(w, http.StatusNotFound, "User not found or inactive")
		default:
			h.observer.ObserveAuth(metrics.OperationVerify, "error")
			h.RespondServerError(w, "Server error during verification", err, map[string]any{"success": false})
		}
		return
	}

	h.observer.ObserveAuth(metrics.OperationVerify, "success")
	h.RespondJSON(w, http.StatusOK, models.VerifyResponse{
		Success:   true,
		UserID:    account.ID,
		UserType:  account.Role(),
		FirstName: account.FirstName,
		LastName:  account.LastName,
		Email:     account.Email,
	})
}

func (h *AuthHandler) respondVerifyError(w http.ResponseWriter, status int, message string) {
	h.RespondJSON(w, status, map[string]any{"success": false, "message": message})
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" header
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	return strings.TrimPrefix(header, bearerPrefix), true
}

// respondDecodeError answers a request whose JSON body could not be read
func (h *AuthHandler) respondDecodeError(w http.ResponseWriter, operation string, err error) {
	h.observer.ObserveAuth(operation, "bad_request")

	// Bodies without a declared length are only cut off while decoding
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		h.RespondError(w, http.StatusRequestEntityTooLarge, "Request body too large")
		return
	}
	h.RespondError(w, http.StatusBadRequest, "Invalid request body")
}
