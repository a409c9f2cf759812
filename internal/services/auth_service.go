// Package services implements registration, login and token verification over the credential store
package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/uninest/backend/internal/auth/token"
	"github.com/uninest/backend/internal/models"
	"github.com/uninest/backend/internal/repositories"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AccountRepository is the interface that wraps methods for credential store access
type AccountRepository interface {
	// Method Create inserts a new account and assigns its ID.
	//
	// "account" parameter is the account to create; its email must already be lower-cased.
	//
	// If the email is already registered, repositories.ErrDuplicateEmail is returned.
	Create(ctx context.Context, account *models.Account) error
	// Method GetByEmail retrieves an account by email.
	//
	// If no account has this email, repositories.ErrAccountNotFound is returned together with "nil" value.
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	// Method GetByID retrieves an account by ID.
	//
	// If no account has this ID, repositories.ErrAccountNotFound is returned together with "nil" value.
	GetByID(ctx context.Context, id string) (*models.Account, error)
	// Method ExistsByEmail checks if an account with such email exists.
	//
	// If some error occurs during check, the error will be returned together with "false" value.
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// LoginResult is the outcome of a successful login
type LoginResult struct {
	Token   string
	Account *models.Account
}

// authService implements AuthService
type authService struct {
	accountRepo    AccountRepository
	tokenGenerator *token.TokenGenerator
	bcryptCost     int
	logger         *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(
	accountRepo AccountRepository,
	tokenGenerator *token.TokenGenerator,
	bcryptCost int,
	logger *zap.Logger,
) *authService {
	return &authService{
		accountRepo:    accountRepo,
		tokenGenerator: tokenGenerator,
		bcryptCost:     bcryptCost,
		logger:         logger,
	}
}

// emailRegex validates email format
var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const minPasswordLength = 6

// bcrypt reads at most this many bytes of a password
const maxPasswordBytes = 72

// Register creates a new account and returns its ID. No token is issued.
func (s *authService) Register(ctx context.Context, req *models.RegisterRequest) (string, error) {
	account, err := buildAccount(req)
	if err != nil {
		return "", err
	}

	exists, err := s.accountRepo.ExistsByEmail(ctx, account.Email)
	if err != nil {
		return "", fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return "", ErrEmailTaken
	}

	passwordHash, err := bcrypt.GenerateFromPassword(passwordBytes(req.Password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	account.PasswordHash = string(passwordHash)

	// The unique index decides races between concurrent registrations
	if err := s.accountRepo.Create(ctx, account); err != nil {
		if errors.Is(err, repositories.ErrDuplicateEmail) {
			return "", ErrEmailTaken
		}
		return "", err
	}

	s.logger.Info("account registered", zap.String("userId", account.ID), zap.String("userType", string(account.Role())))
	return account.ID, nil
}

// Login authenticates an account by email and password.
// Unknown email, inactive account and wrong password are indistinguishable to the caller.
func (s *authService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	account, err := s.accountRepo.GetByEmail(ctx, email)
	if errors.Is(err, repositories.ErrAccountNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if !account.IsActive {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), passwordBytes(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	tokenString, err := s.tokenGenerator.Generate(account)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &LoginResult{Token: tokenString, Account: account}, nil
}

// VerifyToken validates a session token and re-reads its account from the store
func (s *authService) VerifyToken(ctx context.Context, tokenString string) (*models.Account, error) {
	claims, err := s.tokenGenerator.Validate(tokenString)
	if err != nil {
		if errors.Is(err, token.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	account, err := s.accountRepo.GetByID(ctx, claims.UserID)
	if errors.Is(err, repositories.ErrAccountNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	if !account.IsActive {
		return nil, ErrAccountNotFound
	}

	return account, nil
}

// buildAccount validates a registration request, collecting every failure, and normalizes its fields
func buildAccount(req *models.RegisterRequest) (*models.Account, error) {
	var problems []string

	firstName := strings.TrimSpace(req.FirstName)
	lastName := strings.TrimSpace(req.LastName)
	email := normalizeEmail(req.Email)

	if firstName == "" {
		problems = append(problems, "First name is required")
	}
	if lastName == "" {
		problems = append(problems, "Last name is required")
	}
	if email == "" {
		problems = append(problems, "Email is required")
	}
	if req.Password == "" {
		problems = append(problems, "Password is required")
	} else if utf8.RuneCountInString(req.Password) < minPasswordLength {
		problems = append(problems, "Password must be at least 6 characters long")
	}
	if req.UserType == "" {
		problems = append(problems, "User type is required")
	}
	// Surrounding whitespace makes the address invalid rather than being trimmed away
	if email != "" && !emailRegex.MatchString(req.Email) {
		problems = append(problems, "Please enter a valid email address")
	}
	if req.UserType != "" && !req.UserType.Valid() {
		problems = append(problems, "User type must be either STUDENT or HOSTEL_OWNER")
	}

	if len(problems) > 0 {
		return nil, &ValidationError{Errors: problems}
	}

	return &models.Account{
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
		Phone:     optional(req.Phone),
		Profile: models.NewProfile(
			req.UserType,
			optional(req.University),
			optional(req.BusinessName),
			optional(req.BusinessRegistrationNumber),
		),
		IsActive: true,
	}, nil
}

// passwordBytes truncates a password to the bytes bcrypt reads, so long passwords
// hash and compare the same way as hashes created by other bcrypt implementations
func passwordBytes(password string) []byte {
	b := []byte(password)
	if len(b) > maxPasswordBytes {
		return b[:maxPasswordBytes]
	}
	return b
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func optional(value *string) string {
	if value == nil {
		return ""
	}
	return strings.TrimSpace(*value)
}
