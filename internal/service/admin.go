package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Deepx7/otp_market_bot/internal/apperr"
	"github.com/Deepx7/otp_market_bot/internal/models"
	"github.com/Deepx7/otp_market_bot/internal/repository"
)

// AddAccount puts one phone number into the inventory pool. Price comes
// from the configured per-type price unless a positive override is given.
func (s *Service) AddAccount(ctx context.Context, adminID int64, accountType, phoneNumber, otpCode string, price float64) error {
	if !s.IsAdmin(ctx, adminID) {
		return apperr.Forbidden("")
	}

	switch accountType {
	case models.AccountTypeTelegram:
		if price <= 0 {
			price = s.config.TelegramOTPPrice
		}
	case models.AccountTypeWhatsapp:
		if price <= 0 {
			price = s.config.WhatsappOTPPrice
		}
	default:
		return apperr.Invalid("unknown account type: " + accountType)
	}

	account := &models.Account{
		Type:        accountType,
		PhoneNumber: phoneNumber,
		OTPCode:     otpCode,
		Status:      models.AccountAvailable,
		Price:       price,
	}
	err := s.repo.CreateAccount(ctx, account)
	if errors.Is(err, repository.ErrDuplicatePhone) {
		return apperr.DuplicatePhone("")
	}
	if err != nil {
		return err
	}

	s.logger.Infof("Admin %d added %s account %s", adminID, accountType, phoneNumber)
	return nil
}

func (s *Service) AvailableAccounts(ctx context.Context) (map[string]int64, error) {
	return s.repo.CountAvailableAccounts(ctx)
}

// AddAdmin grants the admin role. Owner-only.
func (s *Service) AddAdmin(ctx context.Context, callerID, targetID int64) error {
	if !s.IsOwner(callerID) {
		return apperr.Forbidden("only the owner can manage admins")
	}

	if _, err := s.GetOrCreateUser(ctx, targetID, ""); err != nil {
		return fmt.Errorf("failed to load user %d: %w", targetID, err)
	}
	if err := s.repo.SetUserAdmin(ctx, targetID, true); err != nil {
		return err
	}

	s.logger.Infof("Owner granted admin to user %d", targetID)
	s.notify(targetID, "🛡️ You have been granted admin access.")
	return nil
}

// RemoveAdmin revokes the admin role. Owner-only; the owner cannot be
// demoted.
func (s *Service) RemoveAdmin(ctx context.Context, callerID, targetID int64) error {
	if !s.IsOwner(callerID) {
		return apperr.Forbidden("only the owner can manage admins")
	}
	if s.IsOwner(targetID) {
		return apperr.Forbidden("the owner cannot be removed")
	}

	if err := s.repo.SetUserAdmin(ctx, targetID, false); err != nil {
		return err
	}

	s.logger.Infof("Owner revoked admin from user %d", targetID)
	return nil
}

func (s *Service) ListAdmins(ctx context.Context, callerID int64) ([]*models.User, error) {
	if !s.IsAdmin(ctx, callerID) {
		return nil, apperr.Forbidden("")
	}
	return s.repo.GetAllAdmins(ctx)
}

func (s *Service) SetUserBlocked(ctx context.Context, adminID, targetID int64, blocked bool) error {
	if !s.IsAdmin(ctx, adminID) {
		return apperr.Forbidden("")
	}
	if s.IsOwner(targetID) {
		return apperr.Forbidden("the owner cannot be blocked")
	}

	if err := s.repo.SetUserBlocked(ctx, targetID, blocked); err != nil {
		return err
	}

	s.logger.Infof("Admin %d set blocked=%v for user %d", adminID, blocked, targetID)
	return nil
}

func (s *Service) ListUsers(ctx context.Context, adminID int64) ([]*models.User, error) {
	if !s.IsAdmin(ctx, adminID) {
		return nil, apperr.Forbidden("")
	}
	return s.repo.GetAllUsers(ctx)
}

// Stats is the owner panel's dashboard numbers.
type Stats struct {
	Users           int64
	PendingOrders   int64
	CompletedOrders int64
	PendingPayments int64
	Available       map[string]int64
}

func (s *Service) GetStats(ctx context.Context, adminID int64) (*Stats, error) {
	if !s.IsAdmin(ctx, adminID) {
		return nil, apperr.Forbidden("")
	}

	stats := &Stats{}
	var err error

	if stats.Users, err = s.repo.CountUsers(ctx); err != nil {
		return nil, err
	}
	if stats.PendingOrders, err = s.repo.CountOrdersByStatus(ctx, models.OrderPending); err != nil {
		return nil, err
	}
	if stats.CompletedOrders, err = s.repo.CountOrdersByStatus(ctx, models.OrderSuccess); err != nil {
		return nil, err
	}
	if stats.PendingPayments, err = s.repo.CountPaymentsByStatus(ctx, models.PaymentPending); err != nil {
		return nil, err
	}
	if stats.Available, err = s.repo.CountAvailableAccounts(ctx); err != nil {
		return nil, err
	}

	return stats, nil
}

// Broadcast sends a message to every registered user, best-effort.
// Returns how many sends were attempted.
func (s *Service) Broadcast(ctx context.Context, adminID int64, text string) (int, error) {
	if !s.IsAdmin(ctx, adminID) {
		return 0, apperr.Forbidden("")
	}

	users, err := s.repo.GetAllUsers(ctx)
	if err != nil {
		return 0, err
	}

	for _, user := range users {
		s.notify(user.UserID, text)
	}
	s.logger.Infof("Admin %d broadcast to %d users", adminID, len(users))
	return len(users), nil
}
