package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Deepx7/otp_market_bot/internal/models"
	"gorm.io/gorm"
)

func (r *Repository) CreateOrder(ctx context.Context, order *models.Order) error {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (r *Repository) GetOrder(ctx context.Context, orderID uint) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).First(&order, "id = ?", orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order %d: %w", orderID, err)
	}
	return &order, nil
}

// ResolveOrder commits the single terminal transition of an order. The
// status precondition in the WHERE clause is the compare-and-swap that
// decides the race between user cancel and delivery resolution: exactly
// one caller observes committed=true, everyone else must treat the order
// as already resolved.
func (r *Repository) ResolveOrder(ctx context.Context, orderID uint, status, otpCode string, refundAmount float64) (bool, error) {
	updates := map[string]interface{}{
		"status":       status,
		"completed_at": time.Now(),
	}
	if otpCode != "" {
		updates["otp_code"] = otpCode
	}
	if refundAmount > 0 {
		updates["refund_amount"] = refundAmount
	}

	tx := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, models.OrderPending).
		Updates(updates)

	if tx.Error != nil {
		return false, fmt.Errorf("failed to resolve order %d: %w", orderID, tx.Error)
	}
	return tx.RowsAffected == 1, nil
}

func (r *Repository) GetUserOrders(ctx context.Context, userID int64) ([]*models.Order, error) {
	var orders []*models.Order
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("purchased_at DESC").
		Find(&orders).Error

	if err != nil {
		return nil, fmt.Errorf("failed to get orders for user %d: %w", userID, err)
	}
	return orders, nil
}

func (r *Repository) CountOrdersByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("status = ?", status).
		Count(&count).Error
	return count, err
}
