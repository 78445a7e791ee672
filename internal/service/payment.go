package service

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/Deepx7/otp_market_bot/internal/apperr"
	"github.com/Deepx7/otp_market_bot/internal/models"
)

// SubmitPayment records a bank-transfer claim for admin review. The UTR
// is only shape-checked here; whether the transfer actually happened is
// the reviewing admin's job.
func (s *Service) SubmitPayment(ctx context.Context, userID int64, amount float64, utr string) (*models.Payment, error) {
	if amount < s.config.MinDeposit {
		return nil, apperr.Invalid(fmt.Sprintf("minimum deposit is ₹%.0f", s.config.MinDeposit))
	}
	if !isValidUTR(utr) {
		return nil, apperr.Invalid("invalid UTR format, send the 12-digit reference number")
	}

	if _, err := s.GetOrCreateUser(ctx, userID, ""); err != nil {
		return nil, fmt.Errorf("failed to load user %d: %w", userID, err)
	}

	payment := &models.Payment{
		UserID: userID,
		Amount: amount,
		UTR:    strings.TrimSpace(utr),
		Status: models.PaymentPending,
	}
	if err := s.repo.CreatePayment(ctx, payment); err != nil {
		return nil, err
	}

	s.logger.Infof("Payment %d submitted: user %d, ₹%.2f, UTR %s", payment.ID, userID, amount, payment.UTR)
	s.notifyAdmins(ctx, fmt.Sprintf(
		"💰 New Payment Request #%d\n\n👤 User: %d\n💵 Amount: ₹%.2f\n🔢 UTR: %s",
		payment.ID, userID, amount, payment.UTR,
	))

	return payment, nil
}

// ApprovePayment credits the user's balance exactly once. The CAS on
// the payment status is what makes a double-click from a slow admin an
// AlreadyProcessed error instead of a double credit.
func (s *Service) ApprovePayment(ctx context.Context, paymentID uint, adminID int64) (*models.Payment, error) {
	if !s.IsAdmin(ctx, adminID) {
		return nil, apperr.Forbidden("")
	}

	payment, err := s.repo.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, apperr.NotFound("payment not found")
	}

	committed, err := s.repo.ResolvePayment(ctx, paymentID, models.PaymentApproved, adminID)
	if err != nil {
		return nil, err
	}
	if !committed {
		return nil, apperr.AlreadyProcessed("payment already reviewed")
	}

	if err := s.repo.CreditBalance(ctx, payment.UserID, payment.Amount); err != nil {
		// Status already flipped; this must not go unnoticed.
		s.logger.Errorf("Payment %d approved but credit failed for user %d: %v", paymentID, payment.UserID, err)
		return nil, err
	}

	s.logger.Infof("Payment %d approved by admin %d: user %d +₹%.2f", paymentID, adminID, payment.UserID, payment.Amount)
	s.notify(payment.UserID, fmt.Sprintf(
		"✅ Payment Approved!\n\n₹%.2f has been added to your balance.", payment.Amount,
	))

	payment.Status = models.PaymentApproved
	payment.AdminID = &adminID
	return payment, nil
}

func (s *Service) DeclinePayment(ctx context.Context, paymentID uint, adminID int64) error {
	if !s.IsAdmin(ctx, adminID) {
		return apperr.Forbidden("")
	}

	payment, err := s.repo.GetPayment(ctx, paymentID)
	if err != nil {
		return err
	}
	if payment == nil {
		return apperr.NotFound("payment not found")
	}

	committed, err := s.repo.ResolvePayment(ctx, paymentID, models.PaymentDeclined, adminID)
	if err != nil {
		return err
	}
	if !committed {
		return apperr.AlreadyProcessed("payment already reviewed")
	}

	s.logger.Infof("Payment %d declined by admin %d", paymentID, adminID)
	s.notify(payment.UserID, fmt.Sprintf(
		"❌ Payment Declined\n\nYour payment request of ₹%.2f (UTR %s) was declined. Contact support if you believe this is a mistake.",
		payment.Amount, payment.UTR,
	))
	return nil
}

func (s *Service) PendingPayments(ctx context.Context, adminID int64) ([]*models.Payment, error) {
	if !s.IsAdmin(ctx, adminID) {
		return nil, apperr.Forbidden("")
	}
	return s.repo.GetPendingPayments(ctx)
}

// notifyAdmins fans a message out to every admin, best-effort.
func (s *Service) notifyAdmins(ctx context.Context, text string) {
	seen := map[int64]bool{}
	notifyOnce := func(id int64) {
		if !seen[id] {
			seen[id] = true
			s.notify(id, text)
		}
	}

	notifyOnce(s.ownerID)
	for _, id := range s.adminIDs {
		notifyOnce(id)
	}

	admins, err := s.repo.GetAllAdmins(ctx)
	if err != nil {
		s.logger.Errorf("Failed to load admins for notification: %v", err)
		return
	}
	for _, admin := range admins {
		notifyOnce(admin.UserID)
	}
}

// A UPI UTR is exactly 12 digits.
func isValidUTR(utr string) bool {
	utr = strings.TrimSpace(utr)
	if len(utr) != 12 {
		return false
	}
	for _, r := range utr {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
