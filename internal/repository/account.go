package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Deepx7/otp_market_bot/internal/models"
	"gorm.io/gorm"
)

var ErrDuplicatePhone = errors.New("phone number already exists")

func (r *Repository) CreateAccount(ctx context.Context, account *models.Account) error {
	err := r.db.WithContext(ctx).Create(account).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicatePhone
	}
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// ClaimAvailableAccount picks the oldest available account of the given
// type and flips it to reserved. The select-then-CAS loop means two
// concurrent claims can race for the same row, but only one UPDATE wins;
// the loser moves on to the next candidate. Returns nil when the pool
// for this type is empty.
func (r *Repository) ClaimAvailableAccount(ctx context.Context, accountType string) (*models.Account, error) {
	for {
		var account models.Account
		err := r.db.WithContext(ctx).
			Where("type = ? AND status = ?", accountType, models.AccountAvailable).
			Order("created_at ASC, id ASC").
			First(&account).Error

		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to find available account: %w", err)
		}

		tx := r.db.WithContext(ctx).
			Model(&models.Account{}).
			Where("id = ? AND status = ?", account.ID, models.AccountAvailable).
			Update("status", models.AccountReserved)

		if tx.Error != nil {
			return nil, fmt.Errorf("failed to reserve account %d: %w", account.ID, tx.Error)
		}
		if tx.RowsAffected == 1 {
			account.Status = models.AccountReserved
			return &account, nil
		}

		r.logger.Debugf("Account %d claimed by a concurrent purchase, retrying", account.ID)
	}
}

// ReleaseAccount puts a reserved account back into the pool. Only legal
// from reserved; releasing a sold or already-available account is a no-op.
func (r *Repository) ReleaseAccount(ctx context.Context, phoneNumber string) error {
	err := r.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("phone_number = ? AND status = ?", phoneNumber, models.AccountReserved).
		Update("status", models.AccountAvailable).
		Error

	if err != nil {
		return fmt.Errorf("failed to release account %s: %w", phoneNumber, err)
	}
	return nil
}

func (r *Repository) MarkAccountSold(ctx context.Context, phoneNumber string) error {
	err := r.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("phone_number = ? AND status = ?", phoneNumber, models.AccountReserved).
		Update("status", models.AccountSold).
		Error

	if err != nil {
		return fmt.Errorf("failed to mark account %s sold: %w", phoneNumber, err)
	}
	return nil
}

func (r *Repository) GetAccountByPhone(ctx context.Context, phoneNumber string) (*models.Account, error) {
	var account models.Account
	err := r.db.WithContext(ctx).First(&account, "phone_number = ?", phoneNumber).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account by phone %s: %w", phoneNumber, err)
	}
	return &account, nil
}

// CountAvailableAccounts returns available inventory counts keyed by type.
func (r *Repository) CountAvailableAccounts(ctx context.Context) (map[string]int64, error) {
	type row struct {
		Type  string
		Count int64
	}

	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.Account{}).
		Select("type, COUNT(*) as count").
		Where("status = ?", models.AccountAvailable).
		Group("type").
		Scan(&rows).Error

	if err != nil {
		return nil, fmt.Errorf("failed to count available accounts: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Type] = row.Count
	}
	return counts, nil
}
