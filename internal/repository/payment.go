package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Deepx7/otp_market_bot/internal/models"
	"gorm.io/gorm"
)

func (r *Repository) CreatePayment(ctx context.Context, payment *models.Payment) error {
	if err := r.db.WithContext(ctx).Create(payment).Error; err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

func (r *Repository) GetPayment(ctx context.Context, paymentID uint) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).First(&payment, "id = ?", paymentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment %d: %w", paymentID, err)
	}
	return &payment, nil
}

// ResolvePayment moves a pending payment to approved or declined and
// records the reviewing admin. Same CAS shape as order resolution: a
// second approve on the same payment sees committed=false, which is the
// guard against double-crediting the ledger.
func (r *Repository) ResolvePayment(ctx context.Context, paymentID uint, status string, adminID int64) (bool, error) {
	tx := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ? AND status = ?", paymentID, models.PaymentPending).
		Updates(map[string]interface{}{
			"status":   status,
			"admin_id": adminID,
		})

	if tx.Error != nil {
		return false, fmt.Errorf("failed to resolve payment %d: %w", paymentID, tx.Error)
	}
	return tx.RowsAffected == 1, nil
}

func (r *Repository) GetPendingPayments(ctx context.Context) ([]*models.Payment, error) {
	var payments []*models.Payment
	err := r.db.WithContext(ctx).
		Where("status = ?", models.PaymentPending).
		Order("created_at ASC").
		Find(&payments).Error

	if err != nil {
		return nil, fmt.Errorf("failed to get pending payments: %w", err)
	}
	return payments, nil
}

func (r *Repository) CountPaymentsByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("status = ?", status).
		Count(&count).Error
	return count, err
}
