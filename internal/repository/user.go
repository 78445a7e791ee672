package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Deepx7/otp_market_bot/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (r *Repository) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, "user_id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// CreateUser is an insert-or-ignore: calling it for an existing user is
// not an error and does not touch the existing row.
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(user).Error
}

// CreditBalance atomically adds amount to the user's balance.
func (r *Repository) CreditBalance(ctx context.Context, userID int64, amount float64) error {
	tx := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("user_id = ?", userID).
		Update("balance", gorm.Expr("balance + ?", amount))

	if tx.Error != nil {
		return fmt.Errorf("failed to credit balance for user %d: %w", userID, tx.Error)
	}
	if tx.RowsAffected == 0 {
		return fmt.Errorf("user %d not found for balance credit", userID)
	}
	return nil
}

// DeductBalance is a single conditional decrement: the WHERE clause
// guarantees the balance never goes negative even when purchases race.
// Returns false when the user's balance is below amount.
func (r *Repository) DeductBalance(ctx context.Context, userID int64, amount float64) (bool, error) {
	tx := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("user_id = ? AND balance >= ?", userID, amount).
		Update("balance", gorm.Expr("balance - ?", amount))

	if tx.Error != nil {
		return false, fmt.Errorf("failed to deduct balance for user %d: %w", userID, tx.Error)
	}
	return tx.RowsAffected == 1, nil
}

func (r *Repository) RecordRefund(ctx context.Context, userID int64, amount float64) error {
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("user_id = ?", userID).
		Update("total_refund", gorm.Expr("total_refund + ?", amount)).
		Error

	if err != nil {
		return fmt.Errorf("failed to record refund for user %d: %w", userID, err)
	}
	return nil
}

// RecordSpend updates the buyer's stats after a successful sale.
func (r *Repository) RecordSpend(ctx context.Context, userID int64, amount float64) error {
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"total_spent":     gorm.Expr("total_spent + ?", amount),
			"accounts_bought": gorm.Expr("accounts_bought + 1"),
		}).Error

	if err != nil {
		return fmt.Errorf("failed to record spend for user %d: %w", userID, err)
	}
	return nil
}

func (r *Repository) SetUserBlocked(ctx context.Context, userID int64, blocked bool) error {
	tx := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("user_id = ?", userID).
		Update("is_blocked", blocked)

	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) SetUserAdmin(ctx context.Context, userID int64, isAdmin bool) error {
	tx := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("user_id = ?", userID).
		Update("is_admin", isAdmin)

	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	var users []*models.User
	err := r.db.WithContext(ctx).Order("joined_at DESC").Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get all users: %w", err)
	}
	return users, nil
}

func (r *Repository) GetAllAdmins(ctx context.Context) ([]*models.User, error) {
	var admins []*models.User
	err := r.db.WithContext(ctx).Where("is_admin = ?", true).Find(&admins).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get admins: %w", err)
	}
	return admins, nil
}

func (r *Repository) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).Count(&count).Error
	return count, err
}
