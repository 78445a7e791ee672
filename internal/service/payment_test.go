package service

import (
	"context"
	"sync"
	"testing"

	"github.com/Deepx7/otp_market_bot/internal/apperr"
	"github.com/Deepx7/otp_market_bot/internal/models"
	"github.com/stretchr/testify/require"
)

func TestSubmitPaymentValidation(t *testing.T) {
	s, _, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		amount float64
		utr    string
	}{
		{"below minimum deposit", 10, "123456789012"},
		{"utr too short", 500, "12345"},
		{"utr ten digits", 500, "1234567890"},
		{"utr too long", 500, "1234567890123"},
		{"utr not numeric", 500, "12345678ABCD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.SubmitPayment(ctx, testUserID, tt.amount, tt.utr)
			require.True(t, apperr.IsKind(err, apperr.KindInvalid))
		})
	}
}

func TestSubmitPaymentNotifiesAdmins(t *testing.T) {
	s, _, notifier := newTestService(t)
	ctx := context.Background()

	payment, err := s.SubmitPayment(ctx, testUserID, 500, "123456789012")
	require.NoError(t, err)
	require.Equal(t, models.PaymentPending, payment.Status)
	require.Equal(t, 500.0, payment.Amount)

	require.Equal(t, 1, notifier.count(testOwnerID), "owner notified of the new request")
}

func TestApprovePaymentCreditsOnce(t *testing.T) {
	s, _, notifier := newTestService(t)
	ctx := context.Background()

	payment, err := s.SubmitPayment(ctx, testUserID, 500, "123456789012")
	require.NoError(t, err)

	approved, err := s.ApprovePayment(ctx, payment.ID, testOwnerID)
	require.NoError(t, err)
	require.Equal(t, models.PaymentApproved, approved.Status)
	require.Equal(t, testUserID, approved.UserID)
	require.Equal(t, 500.0, approved.Amount)

	user, err := s.GetUser(ctx, testUserID)
	require.NoError(t, err)
	require.Equal(t, 500.0, user.Balance)

	// Slow-admin double click.
	_, err = s.ApprovePayment(ctx, payment.ID, testOwnerID)
	require.True(t, apperr.IsKind(err, apperr.KindAlreadyProcessed))

	user, err = s.GetUser(ctx, testUserID)
	require.NoError(t, err)
	require.Equal(t, 500.0, user.Balance, "no double credit")

	require.Equal(t, 1, notifier.count(testUserID), "user notified exactly once")
}

func TestApprovePaymentConcurrentSingleCredit(t *testing.T) {
	s, _, _ := newTestService(t)
	ctx := context.Background()

	payment, err := s.SubmitPayment(ctx, testUserID, 500, "123456789012")
	require.NoError(t, err)

	var mu sync.Mutex
	approvals := 0

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.ApprovePayment(ctx, payment.ID, testOwnerID)

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				approvals++
				return
			}
			require.True(t, apperr.IsKind(err, apperr.KindAlreadyProcessed), "unexpected error: %v", err)
		}()
	}
	wg.Wait()

	require.Equal(t, 1, approvals)

	user, err := s.GetUser(ctx, testUserID)
	require.NoError(t, err)
	require.Equal(t, 500.0, user.Balance)
}

func TestDeclinePayment(t *testing.T) {
	s, repo, _ := newTestService(t)
	ctx := context.Background()

	payment, err := s.SubmitPayment(ctx, testUserID, 500, "123456789012")
	require.NoError(t, err)

	require.NoError(t, s.DeclinePayment(ctx, payment.ID, testOwnerID))

	stored, err := repo.GetPayment(ctx, payment.ID)
	require.NoError(t, err)
	require.Equal(t, models.PaymentDeclined, stored.Status)

	user, err := s.GetUser(ctx, testUserID)
	require.NoError(t, err)
	require.Equal(t, 0.0, user.Balance, "declined payments never credit")

	// Approving after decline is also already-processed.
	_, err = s.ApprovePayment(ctx, payment.ID, testOwnerID)
	require.True(t, apperr.IsKind(err, apperr.KindAlreadyProcessed))
}

func TestPaymentReviewRequiresAdmin(t *testing.T) {
	s, _, _ := newTestService(t)
	ctx := context.Background()

	payment, err := s.SubmitPayment(ctx, testUserID, 500, "123456789012")
	require.NoError(t, err)

	_, err = s.ApprovePayment(ctx, payment.ID, testUserID)
	require.True(t, apperr.IsKind(err, apperr.KindForbidden))

	err = s.DeclinePayment(ctx, payment.ID, testUserID)
	require.True(t, apperr.IsKind(err, apperr.KindForbidden))

	_, err = s.PendingPayments(ctx, testUserID)
	require.True(t, apperr.IsKind(err, apperr.KindForbidden))
}

func TestApproveUnknownPayment(t *testing.T) {
	s, _, _ := newTestService(t)

	_, err := s.ApprovePayment(context.Background(), 12345, testOwnerID)
	require.True(t, apperr.IsKind(err, apperr.KindNotFound))
}
