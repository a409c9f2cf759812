package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uninest/backend/internal/auth/token"
	"github.com/uninest/backend/internal/models"
	"github.com/uninest/backend/internal/repositories"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// mockAccountRepository is a mock implementation of AccountRepository
type mockAccountRepository struct {
	account             *models.Account
	err                 error
	createErr           error
	existsByEmailResult bool
	existsByEmailError  error
	created             *models.Account
}

func (m *mockAccountRepository) Create(ctx context.Context, account *models.Account) error {
	if m.createErr != nil {
		return m.createErr
	}
	account.ID = "account-1"
	m.created = account
	return nil
}

func (m *mockAccountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.account, nil
}

func (m *mockAccountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.account, nil
}

func (m *mockAccountRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	if m.existsByEmailError != nil {
		return false, m.existsByEmailError
	}
	return m.existsByEmailResult, nil
}

// memoryAccountRepository is a concurrency-safe store with a unique email constraint
type memoryAccountRepository struct {
	mu       sync.Mutex
	byID     map[string]*models.Account
	byEmail  map[string]string
	sequence int
}

func newMemoryAccountRepository() *memoryAccountRepository {
	return &memoryAccountRepository{
		byID:    make(map[string]*models.Account),
		byEmail: make(map[string]string),
	}
}

func (m *memoryAccountRepository) Create(ctx context.Context, account *models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byEmail[account.Email]; ok {
		return repositories.ErrDuplicateEmail
	}
	m.sequence++
	account.ID = fmt.Sprintf("account-%d", m.sequence)
	stored := *account
	m.byID[account.ID] = &stored
	m.byEmail[account.Email] = account.ID
	return nil
}

func (m *memoryAccountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byEmail[email]
	if !ok {
		return nil, repositories.ErrAccountNotFound
	}
	account := *m.byID[id]
	return &account, nil
}

func (m *memoryAccountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.byID[id]
	if !ok {
		return nil, repositories.ErrAccountNotFound
	}
	account := *stored
	return &account, nil
}

func (m *memoryAccountRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.byEmail[email]
	return ok, nil
}

func (m *memoryAccountRepository) SetActive(ctx context.Context, id string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.byID[id]
	if !ok {
		return repositories.ErrAccountNotFound
	}
	stored.IsActive = active
	return nil
}

func strPtr(s string) *string {
	return &s
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func validRegisterRequest() *models.RegisterRequest {
	return &models.RegisterRequest{
		FirstName:  "Ada",
		LastName:   "Lovelace",
		Email:      "Ada@Example.com",
		Password:   "secret1",
		UserType:   models.RoleStudent,
		University: strPtr("UCL"),
	}
}

func TestNewAuthService(t *testing.T) {
	logger := zap.NewNop()
	repo := &mockAccountRepository{}
	tokenGen := token.NewTokenGenerator("secret", time.Hour)

	svc := NewAuthService(repo, tokenGen, bcrypt.MinCost, logger)

	assert.NotNil(t, svc)
	assert.Equal(t, repo, svc.accountRepo)
	assert.Equal(t, tokenGen, svc.tokenGenerator)
	assert.Equal(t, bcrypt.MinCost, svc.bcryptCost)
	assert.Equal(t, logger, svc.logger)
}

func TestAuthService_Register(t *testing.T) {
	tokenGen := token.NewTokenGenerator("test-secret", time.Hour)

	tests := []struct {
		name             string
		modify           func(*models.RegisterRequest)
		repo             *mockAccountRepository
		expectedError    error
		expectedProblems []string
		anyError         bool
		validate         func(*testing.T, *models.Account)
	}{
		{
			name: "success student",
			repo: &mockAccountRepository{},
			validate: func(t *testing.T, account *models.Account) {
				assert.Equal(t, "ada@example.com", account.Email)
				assert.Equal(t, models.StudentProfile{University: "UCL"}, account.Profile)
				assert.True(t, account.IsActive)
				assert.Empty(t, account.Phone)
				assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte("secret1")))
			},
		},
		{
			name: "success hostel owner ignores student fields and trims values",
			modify: func(req *models.RegisterRequest) {
				req.FirstName = "  Bob "
				req.UserType = models.RoleHostelOwner
				req.Phone = strPtr(" +44 1234 ")
				req.BusinessName = strPtr(" Nest Ltd ")
				req.BusinessRegistrationNumber = strPtr("BR-1")
			},
			repo: &mockAccountRepository{},
			validate: func(t *testing.T, account *models.Account) {
				assert.Equal(t, "Bob", account.FirstName)
				assert.Equal(t, "+44 1234", account.Phone)
				assert.Equal(t, models.HostelOwnerProfile{BusinessName: "Nest Ltd", BusinessRegistrationNumber: "BR-1"}, account.Profile)
			},
		},
		{
			name: "student without university",
			modify: func(req *models.RegisterRequest) {
				req.University = nil
			},
			repo: &mockAccountRepository{},
			validate: func(t *testing.T, account *models.Account) {
				assert.Equal(t, models.StudentProfile{}, account.Profile)
			},
		},
		{
			name: "short password",
			modify: func(req *models.RegisterRequest) {
				req.Password = "12345"
			},
			repo:             &mockAccountRepository{},
			expectedProblems: []string{"Password must be at least 6 characters long"},
		},
		{
			name: "password longer than bcrypt input limit",
			modify: func(req *models.RegisterRequest) {
				req.Password = strings.Repeat("a", 73)
			},
			repo: &mockAccountRepository{},
			validate: func(t *testing.T, account *models.Account) {
				assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(strings.Repeat("a", 72))))
			},
		},
		{
			name: "multibyte password over 72 bytes",
			modify: func(req *models.RegisterRequest) {
				req.Password = strings.Repeat("寮", 30)
			},
			repo: &mockAccountRepository{},
		},
		{
			name: "email with surrounding whitespace",
			modify: func(req *models.RegisterRequest) {
				req.Email = " ada@example.com"
			},
			repo:             &mockAccountRepository{},
			expectedProblems: []string{"Please enter a valid email address"},
		},
		{
			name: "invalid email",
			modify: func(req *models.RegisterRequest) {
				req.Email = "not-an-email"
			},
			repo:             &mockAccountRepository{},
			expectedProblems: []string{"Please enter a valid email address"},
		},
		{
			name: "unknown user type",
			modify: func(req *models.RegisterRequest) {
				req.UserType = "ADMIN"
			},
			repo:             &mockAccountRepository{},
			expectedProblems: []string{"User type must be either STUDENT or HOSTEL_OWNER"},
		},
		{
			name: "all required fields missing are reported together",
			modify: func(req *models.RegisterRequest) {
				*req = models.RegisterRequest{FirstName: "   "}
			},
			repo: &mockAccountRepository{},
			expectedProblems: []string{
				"First name is required",
				"Last name is required",
				"Email is required",
				"Password is required",
				"User type is required",
			},
		},
		{
			name:          "email taken",
			repo:          &mockAccountRepository{existsByEmailResult: true},
			expectedError: ErrEmailTaken,
		},
		{
			name:          "duplicate detected by store",
			repo:          &mockAccountRepository{createErr: repositories.ErrDuplicateEmail},
			expectedError: ErrEmailTaken,
		},
		{
			name:     "exists check error",
			repo:     &mockAccountRepository{existsByEmailError: errors.New("db down")},
			anyError: true,
		},
		{
			name:     "create error",
			repo:     &mockAccountRepository{createErr: errors.New("db down")},
			anyError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewAuthService(tt.repo, tokenGen, bcrypt.MinCost, zap.NewNop())
			req := validRegisterRequest()
			if tt.modify != nil {
				tt.modify(req)
			}

			id, err := svc.Register(context.Background(), req)

			switch {
			case tt.expectedProblems != nil:
				var validationErr *ValidationError
				require.ErrorAs(t, err, &validationErr)
				assert.Equal(t, tt.expectedProblems, validationErr.Errors)
				assert.Empty(t, id)
			case tt.expectedError != nil:
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Empty(t, id)
			case tt.anyError:
				assert.Error(t, err)
				assert.NotErrorIs(t, err, ErrEmailTaken)
				assert.Empty(t, id)
			default:
				require.NoError(t, err)
				assert.Equal(t, "account-1", id)
				require.NotNil(t, tt.repo.created)
				if tt.validate != nil {
					tt.validate(t, tt.repo.created)
				}
			}
		})
	}
}

func TestAuthService_Register_ConcurrentSameEmail(t *testing.T) {
	repo := newMemoryAccountRepository()
	svc := NewAuthService(repo, token.NewTokenGenerator("secret", time.Hour), bcrypt.MinCost, zap.NewNop())

	const attempts = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for n := 0; n < attempts; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Register(context.Background(), validRegisterRequest())
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrEmailTaken):
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, attempts-1, conflicts)
}

func TestAuthService_Login(t *testing.T) {
	tokenGen := token.NewTokenGenerator("test-secret", time.Hour)
	activeAccount := &models.Account{
		ID:           "account-1",
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Email:        "ada@example.com",
		PasswordHash: hashPassword(t, "secret1"),
		Profile:      models.StudentProfile{},
		IsActive:     true,
	}
	inactiveAccount := *activeAccount
	inactiveAccount.IsActive = false

	tests := []struct {
		name          string
		email         string
		password      string
		repo          *mockAccountRepository
		expectedError error
		anyError      bool
	}{
		{
			name:     "success with mixed case email",
			email:    "  ADA@example.com ",
			password: "secret1",
			repo:     &mockAccountRepository{account: activeAccount},
		},
		{
			name:          "missing email",
			email:         "  ",
			password:      "secret1",
			repo:          &mockAccountRepository{account: activeAccount},
			expectedError: ErrMissingCredentials,
		},
		{
			name:          "missing password",
			email:         "ada@example.com",
			repo:          &mockAccountRepository{account: activeAccount},
			expectedError: ErrMissingCredentials,
		},
		{
			name:          "unknown email",
			email:         "nobody@example.com",
			password:      "secret1",
			repo:          &mockAccountRepository{err: repositories.ErrAccountNotFound},
			expectedError: ErrInvalidCredentials,
		},
		{
			name:          "wrong password",
			email:         "ada@example.com",
			password:      "wrong-password",
			repo:          &mockAccountRepository{account: activeAccount},
			expectedError: ErrInvalidCredentials,
		},
		{
			name:          "inactive account",
			email:         "ada@example.com",
			password:      "secret1",
			repo:          &mockAccountRepository{account: &inactiveAccount},
			expectedError: ErrInvalidCredentials,
		},
		{
			name:     "store error",
			email:    "ada@example.com",
			password: "secret1",
			repo:     &mockAccountRepository{err: errors.New("db down")},
			anyError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewAuthService(tt.repo, tokenGen, bcrypt.MinCost, zap.NewNop())

			result, err := svc.Login(context.Background(), tt.email, tt.password)

			switch {
			case tt.expectedError != nil:
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, result)
			case tt.anyError:
				assert.Error(t, err)
				assert.NotErrorIs(t, err, ErrInvalidCredentials)
				assert.Nil(t, result)
			default:
				require.NoError(t, err)
				require.NotNil(t, result)
				assert.NotEmpty(t, result.Token)
				assert.Equal(t, "account-1", result.Account.ID)

				claims, err := tokenGen.Validate(result.Token)
				require.NoError(t, err)
				assert.Equal(t, "account-1", claims.UserID)
				assert.Equal(t, models.RoleStudent, claims.UserType)
				assert.Equal(t, "ada@example.com", claims.Email)
			}
		})
	}
}

func TestAuthService_Login_FailuresAreIndistinguishable(t *testing.T) {
	repo := newMemoryAccountRepository()
	svc := NewAuthService(repo, token.NewTokenGenerator("secret", time.Hour), bcrypt.MinCost, zap.NewNop())

	_, err := svc.Register(context.Background(), validRegisterRequest())
	require.NoError(t, err)

	_, unknownErr := svc.Login(context.Background(), "nobody@example.com", "secret1")
	_, wrongPasswordErr := svc.Login(context.Background(), "ada@example.com", "wrong-password")

	require.Error(t, unknownErr)
	require.Error(t, wrongPasswordErr)
	assert.Equal(t, unknownErr.Error(), wrongPasswordErr.Error())
}

func TestAuthService_LongPasswordRoundTrip(t *testing.T) {
	repo := newMemoryAccountRepository()
	svc := NewAuthService(repo, token.NewTokenGenerator("secret", time.Hour), bcrypt.MinCost, zap.NewNop())

	password := strings.Repeat("🔑", 18) + "tail"
	req := validRegisterRequest()
	req.Password = password

	_, err := svc.Register(context.Background(), req)
	require.NoError(t, err)

	result, err := svc.Login(context.Background(), "ada@example.com", password)
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)

	// Only the first 72 bytes take part in the comparison
	_, err = svc.Login(context.Background(), "ada@example.com", strings.Repeat("🔑", 18))
	assert.NoError(t, err)

	_, err = svc.Login(context.Background(), "ada@example.com", strings.Repeat("🔑", 17))
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_VerifyToken(t *testing.T) {
	tokenGen := token.NewTokenGenerator("test-secret", time.Hour)
	account := &models.Account{
		ID:        "account-1",
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Profile:   models.HostelOwnerProfile{},
		IsActive:  true,
	}
	validToken, err := tokenGen.Generate(account)
	require.NoError(t, err)

	expiredToken, err := token.NewTokenGenerator("test-secret", -time.Minute).Generate(account)
	require.NoError(t, err)

	foreignToken, err := token.NewTokenGenerator("other-secret", time.Hour).Generate(account)
	require.NoError(t, err)

	inactive := *account
	inactive.IsActive = false

	tests := []struct {
		name          string
		token         string
		repo          *mockAccountRepository
		expectedError error
		anyError      bool
	}{
		{
			name:  "success",
			token: validToken,
			repo:  &mockAccountRepository{account: account},
		},
		{
			name:          "expired",
			token:         expiredToken,
			repo:          &mockAccountRepository{account: account},
			expectedError: ErrTokenExpired,
		},
		{
			name:          "wrong signature",
			token:         foreignToken,
			repo:          &mockAccountRepository{account: account},
			expectedError: ErrInvalidToken,
		},
		{
			name:          "malformed",
			token:         "not.a.token",
			repo:          &mockAccountRepository{account: account},
			expectedError: ErrInvalidToken,
		},
		{
			name:          "account removed",
			token:         validToken,
			repo:          &mockAccountRepository{err: repositories.ErrAccountNotFound},
			expectedError: ErrAccountNotFound,
		},
		{
			name:          "account inactive",
			token:         validToken,
			repo:          &mockAccountRepository{account: &inactive},
			expectedError: ErrAccountNotFound,
		},
		{
			name:     "store error",
			token:    validToken,
			repo:     &mockAccountRepository{err: errors.New("db down")},
			anyError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewAuthService(tt.repo, tokenGen, bcrypt.MinCost, zap.NewNop())

			result, err := svc.VerifyToken(context.Background(), tt.token)

			switch {
			case tt.expectedError != nil:
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, result)
			case tt.anyError:
				assert.Error(t, err)
				assert.Nil(t, result)
			default:
				require.NoError(t, err)
				assert.Equal(t, account, result)
			}
		})
	}
}

func TestAuthService_VerifyToken_AfterDeactivation(t *testing.T) {
	repo := newMemoryAccountRepository()
	tokenGen := token.NewTokenGenerator("secret", time.Hour)
	authSvc := NewAuthService(repo, tokenGen, bcrypt.MinCost, zap.NewNop())
	adminSvc := NewAdminService(repo, zap.NewNop())

	id, err := authSvc.Register(context.Background(), validRegisterRequest())
	require.NoError(t, err)
	login, err := authSvc.Login(context.Background(), "ada@example.com", "secret1")
	require.NoError(t, err)

	verified, err := authSvc.VerifyToken(context.Background(), login.Token)
	require.NoError(t, err)
	assert.Equal(t, id, verified.ID)

	require.NoError(t, adminSvc.SetActive(context.Background(), id, false))

	_, err = authSvc.VerifyToken(context.Background(), login.Token)
	assert.ErrorIs(t, err, ErrAccountNotFound)

	_, err = authSvc.Login(context.Background(), "ada@example.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
