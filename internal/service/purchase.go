package service

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/Deepx7/otp_market_bot/internal/apperr"
	"github.com/Deepx7/otp_market_bot/internal/models"
)

// PurchaseResult is what the front end needs to render the in-progress
// screen after a successful purchase call.
type PurchaseResult struct {
	OrderID     uint
	PhoneNumber string
	Price       float64
}

// Purchase runs the synchronous half of an order: claim an account,
// conditionally deduct the price, persist the pending order and hand it
// to the delivery pool. The inventory claim happens before the
// deduction; any later failure compensates by releasing the claim and,
// once money has moved, crediting it back.
func (s *Service) Purchase(ctx context.Context, userID int64, productKey string) (*PurchaseResult, error) {
	user, err := s.GetOrCreateUser(ctx, userID, "")
	if err != nil {
		return nil, fmt.Errorf("failed to load user %d: %w", userID, err)
	}
	if user.IsBlocked {
		return nil, apperr.Blocked("")
	}

	accountType, price, err := s.productInfo(productKey)
	if err != nil {
		return nil, err
	}

	// Cheap pre-check only; the conditional decrement below is the
	// actual guard against racing purchases.
	if user.Balance < price {
		return nil, apperr.InsufficientFunds(fmt.Sprintf("you need ₹%.0f, balance is ₹%.2f", price, user.Balance))
	}

	account, err := s.repo.ClaimAvailableAccount(ctx, accountType)
	if err != nil {
		return nil, fmt.Errorf("failed to claim account: %w", err)
	}
	if account == nil {
		return nil, apperr.OutOfStock("")
	}

	ok, err := s.repo.DeductBalance(ctx, userID, price)
	if err != nil || !ok {
		if releaseErr := s.repo.ReleaseAccount(ctx, account.PhoneNumber); releaseErr != nil {
			s.logger.Errorf("Failed to release account %s after deduction failure: %v", account.PhoneNumber, releaseErr)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to deduct balance: %w", err)
		}
		return nil, apperr.InsufficientFunds("")
	}

	order := &models.Order{
		UserID:      userID,
		ProductType: accountType,
		ProductKey:  productKey,
		PhoneNumber: account.PhoneNumber,
		Status:      models.OrderPending,
		Price:       price,
	}
	if err := s.repo.CreateOrder(ctx, order); err != nil {
		if creditErr := s.repo.CreditBalance(ctx, userID, price); creditErr != nil {
			s.logger.Errorf("Failed to credit back user %d after order create failure: %v", userID, creditErr)
		}
		if releaseErr := s.repo.ReleaseAccount(ctx, account.PhoneNumber); releaseErr != nil {
			s.logger.Errorf("Failed to release account %s after order create failure: %v", account.PhoneNumber, releaseErr)
		}
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.logger.Infof("Order %d created: user %d, %s, %s, ₹%.2f", order.ID, userID, productKey, account.PhoneNumber, price)
	s.delivery.enqueue(order.ID)

	return &PurchaseResult{
		OrderID:     order.ID,
		PhoneNumber: account.PhoneNumber,
		Price:       price,
	}, nil
}

// CancelOrder is the user-facing side of the cancel-vs-delivery race.
// The status precondition is checked twice: once here for a friendly
// error, and again inside ResolveOrder's CAS, which is the one that
// counts.
func (s *Service) CancelOrder(ctx context.Context, orderID uint, callerID int64) (float64, error) {
	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return 0, fmt.Errorf("failed to load order %d: %w", orderID, err)
	}
	if order == nil {
		return 0, apperr.NotFound("order not found")
	}
	if order.UserID != callerID {
		return 0, apperr.NotOwner("")
	}
	if order.Status != models.OrderPending {
		return 0, apperr.NotCancellable("")
	}

	committed, err := s.repo.ResolveOrder(ctx, orderID, models.OrderCancelled, "", order.Price)
	if err != nil {
		return 0, fmt.Errorf("failed to cancel order %d: %w", orderID, err)
	}
	if !committed {
		// Delivery resolved the order between our read and the CAS.
		return 0, apperr.NotCancellable("")
	}

	s.refundOrder(ctx, order)
	s.logger.Infof("Order %d cancelled by user %d, refunded ₹%.2f", orderID, callerID, order.Price)
	return order.Price, nil
}

// resolveDelivery commits the outcome of the simulated OTP delivery.
// Called by the delivery pool after the delay and the success roll; a
// lost CAS means the user cancelled first and nothing else happens.
func (s *Service) resolveDelivery(ctx context.Context, orderID uint, success bool) {
	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		s.logger.Errorf("Delivery: failed to load order %d: %v", orderID, err)
		return
	}
	if order == nil || order.Status != models.OrderPending {
		s.logger.Debugf("Delivery: order %d no longer pending, skipping", orderID)
		return
	}

	if success {
		otpCode := fmt.Sprintf("%06d", rand.Intn(1000000))
		committed, err := s.repo.ResolveOrder(ctx, orderID, models.OrderSuccess, otpCode, 0)
		if err != nil {
			s.logger.Errorf("Delivery: failed to complete order %d: %v", orderID, err)
			return
		}
		if !committed {
			s.logger.Debugf("Delivery: order %d resolved elsewhere, skipping", orderID)
			return
		}

		if err := s.repo.MarkAccountSold(ctx, order.PhoneNumber); err != nil {
			s.logger.Errorf("Delivery: failed to mark account %s sold: %v", order.PhoneNumber, err)
		}
		if err := s.repo.RecordSpend(ctx, order.UserID, order.Price); err != nil {
			s.logger.Errorf("Delivery: failed to record spend for user %d: %v", order.UserID, err)
		}

		s.logger.Infof("Order %d delivered: %s", orderID, order.PhoneNumber)
		s.notify(order.UserID, fmt.Sprintf(
			"✅ Order Completed Successfully!\n\n📞 Number: %s\n🔑 OTP Code: %s\n💰 Amount Paid: ₹%.0f\n\nThank you for your purchase! 🎉",
			order.PhoneNumber, otpCode, order.Price,
		))
		return
	}

	committed, err := s.repo.ResolveOrder(ctx, orderID, models.OrderFailed, "", order.Price)
	if err != nil {
		s.logger.Errorf("Delivery: failed to fail order %d: %v", orderID, err)
		return
	}
	if !committed {
		s.logger.Debugf("Delivery: order %d resolved elsewhere, skipping", orderID)
		return
	}

	s.refundOrder(ctx, order)
	s.logger.Infof("Order %d failed, refunded ₹%.2f to user %d", orderID, order.Price, order.UserID)
	s.notify(order.UserID, fmt.Sprintf(
		"❌ OTP Delivery Failed\n\nWe couldn't receive the OTP for %s.\n\n💰 Refund Issued: ₹%.0f\nYour balance has been refunded.",
		order.PhoneNumber, order.Price,
	))
}

// refundOrder performs the shared failure/cancel compensation: credit
// the price back, bump the refund stat, return the account to the pool.
// Only ever called by the winner of the order's status CAS.
func (s *Service) refundOrder(ctx context.Context, order *models.Order) {
	if err := s.repo.CreditBalance(ctx, order.UserID, order.Price); err != nil {
		s.logger.Errorf("Failed to refund user %d for order %d: %v", order.UserID, order.ID, err)
	}
	if err := s.repo.RecordRefund(ctx, order.UserID, order.Price); err != nil {
		s.logger.Errorf("Failed to record refund for user %d: %v", order.UserID, err)
	}
	if err := s.repo.ReleaseAccount(ctx, order.PhoneNumber); err != nil {
		s.logger.Errorf("Failed to release account %s for order %d: %v", order.PhoneNumber, order.ID, err)
	}
}

// UserOrders returns the user's purchase history, newest first.
func (s *Service) UserOrders(ctx context.Context, userID int64) ([]*models.Order, error) {
	return s.repo.GetUserOrders(ctx, userID)
}
