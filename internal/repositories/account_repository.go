package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/uninest/backend/internal/models"
	"go.uber.org/zap"
)

// mysqlDuplicateEntry is the server error number for unique key violations
const mysqlDuplicateEntry = 1062

const accountColumns = `id, first_name, last_name, email, phone, password_hash, user_type,
		university, business_name, business_registration_number, is_active, created_at, updated_at`

// accountRepository implements the credential store on MySQL
type accountRepository struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// NewAccountRepository creates a new MySQL account repository
func NewAccountRepository(db *sql.DB, logger *zap.Logger) *accountRepository {
	return &accountRepository{
		db:     db,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Create inserts a new account, assigning its ID and timestamps.
// A unique key violation on email is reported as ErrDuplicateEmail.
func (r *accountRepository) Create(ctx context.Context, account *models.Account) error {
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	id := uuid.NewString()
	now := r.now()
	university, businessName, businessRegNumber := profileColumns(account.Profile)

	_, err := r.db.ExecContext(ctx, query,
		id,
		account.FirstName,
		account.LastName,
		account.Email,
		nullString(account.Phone),
		account.PasswordHash,
		string(account.Role()),
		university,
		businessName,
		businessRegNumber,
		account.IsActive,
		now,
		now,
	)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
			return ErrDuplicateEmail
		}
		r.logger.Error("failed to create account", zap.Error(err))
		return fmt.Errorf("failed to create account: %w", err)
	}

	account.ID = id
	account.CreatedAt = now
	account.UpdatedAt = now
	return nil
}

// GetByEmail retrieves an account by its lower-cased email
func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = ? LIMIT 1`

	account, err := scanAccount(r.db.QueryRowContext(ctx, query, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		r.logger.Error("failed to get account by email", zap.Error(err))
		return nil, fmt.Errorf("failed to get account by email: %w", err)
	}

	return account, nil
}

// GetByID retrieves an account by ID
func (r *accountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = ? LIMIT 1`

	account, err := scanAccount(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		r.logger.Error("failed to get account by id", zap.Error(err), zap.String("accountId", id))
		return nil, fmt.Errorf("failed to get account by id: %w", err)
	}

	return account, nil
}

// ExistsByEmail checks if an account exists with the given email
func (r *accountRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM accounts WHERE email = ?)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, email).Scan(&exists); err != nil {
		r.logger.Error("failed to check email existence", zap.Error(err))
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}

	return exists, nil
}

// SetActive flips the activity flag of an account.
// The DSN must enable clientFoundRows so an unchanged row still counts as matched.
func (r *accountRepository) SetActive(ctx context.Context, id string, active bool) error {
	query := `UPDATE accounts SET is_active = ?, updated_at = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, active, r.now(), id)
	if err != nil {
		r.logger.Error("failed to update account status", zap.Error(err), zap.String("accountId", id))
		return fmt.Errorf("failed to update account status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrAccountNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var (
		account           models.Account
		role              string
		phone             sql.NullString
		university        sql.NullString
		businessName      sql.NullString
		businessRegNumber sql.NullString
	)

	err := row.Scan(
		&account.ID,
		&account.FirstName,
		&account.LastName,
		&account.Email,
		&phone,
		&account.PasswordHash,
		&role,
		&university,
		&businessName,
		&businessRegNumber,
		&account.IsActive,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	account.Phone = phone.String
	account.Profile = models.NewProfile(models.Role(role), university.String, businessName.String, businessRegNumber.String)
	if account.Profile == nil {
		return nil, fmt.Errorf("unknown user type %q for account %s", role, account.ID)
	}

	return &account, nil
}

// profileColumns maps the profile variant to its nullable columns; other-role columns stay NULL
func profileColumns(profile models.Profile) (university, businessName, businessRegNumber sql.NullString) {
	switch p := profile.(type) {
	case models.StudentProfile:
		university = nullString(p.University)
	case models.HostelOwnerProfile:
		businessName = nullString(p.BusinessName)
		businessRegNumber = nullString(p.BusinessRegistrationNumber)
	}
	return university, businessName, businessRegNumber
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
