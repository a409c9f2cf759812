package services

import (
	"context"
	"errors"

	"github.com/uninest/backend/internal/repositories"
	"go.uber.org/zap"
)

// AccountStatusRepository is the interface that wraps the account activity switch
type AccountStatusRepository interface {
	// Method SetActive sets the activity flag of an account.
	//
	// If no account has this ID, repositories.ErrAccountNotFound is returned.
	SetActive(ctx context.Context, id string, active bool) error
}

// adminService implements AdminService
type adminService struct {
	accountRepo AccountStatusRepository
	logger      *zap.Logger
}

// NewAdminService creates a new admin service
func NewAdminService(accountRepo AccountStatusRepository, logger *zap.Logger) *adminService {
	return &adminService{
		accountRepo: accountRepo,
		logger:      logger,
	}
}

// SetActive deactivates or reactivates an account. Accounts are never deleted.
func (s *adminService) SetActive(ctx context.Context, accountID string, active bool) error {
	if err := s.accountRepo.SetActive(ctx, accountID, active); err != nil {
		if errors.Is(err, repositories.ErrAccountNotFound) {
			return ErrAccountNotFound
		}
		return err
	}

	s.logger.Info("account status changed", zap.String("userId", accountID), zap.Bool("active", active))
	return nil
}
