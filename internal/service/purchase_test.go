package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/Deepx7/otp_market_bot/config"
	"github.com/Deepx7/otp_market_bot/internal/apperr"
	"github.com/Deepx7/otp_market_bot/internal/models"
	"github.com/Deepx7/otp_market_bot/internal/repository"
	"github.com/Deepx7/otp_market_bot/utils"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

const (
	testOwnerID = int64(1000)
	testUserID  = int64(1)
)

type recordingNotifier struct {
	mu       sync.Mutex
	messages map[int64][]string
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{messages: make(map[int64][]string)}
}

func (n *recordingNotifier) Notify(userID int64, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages[userID] = append(n.messages[userID], text)
	return nil
}

func (n *recordingNotifier) count(userID int64) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.messages[userID])
}

func newTestService(t *testing.T) (*Service, *repository.Repository, *recordingNotifier) {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db") + "?_pragma=busy_timeout(5000)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormLogger.Default.LogMode(gormLogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Account{}, &models.Order{}, &models.Payment{}))

	cfg := &config.Config{
		OwnerID:             testOwnerID,
		MinDeposit:          50,
		TelegramOTPPrice:    25,
		WhatsappOTPPrice:    15,
		SessionPrice:        40,
		DeliverySuccessRate: 1.0,
		DeliveryWorkers:     1,
	}

	repo := repository.NewRepository(db, utils.InitLogger())
	notifier := newRecordingNotifier()
	return NewService(repo, notifier, cfg, utils.InitLogger()), repo, notifier
}

func fundUser(t *testing.T, s *Service, userID int64, amount float64) {
	t.Helper()
	ctx := context.Background()
	_, err := s.GetOrCreateUser(ctx, userID, "")
	require.NoError(t, err)
	require.NoError(t, s.repo.CreditBalance(ctx, userID, amount))
}

func addAccount(t *testing.T, repo *repository.Repository, accountType, phone string) {
	t.Helper()
	require.NoError(t, repo.CreateAccount(context.Background(), &models.Account{
		Type:        accountType,
		PhoneNumber: phone,
		Price:       25,
	}))
}

func TestPurchaseDeliverySuccess(t *testing.T) {
	s, repo, notifier := newTestService(t)
	ctx := context.Background()

	fundUser(t, s, testUserID, 100)
	addAccount(t, repo, models.AccountTypeTelegram, "+911111111111")

	result, err := s.Purchase(ctx, testUserID, ProductTelegramOTP)
	require.NoError(t, err)
	require.Equal(t, "+911111111111", result.PhoneNumber)
	require.Equal(t, 25.0, result.Price)

	user, err := s.GetUser(ctx, testUserID)
	require.NoError(t, err)
	require.Equal(t, 75.0, user.Balance, "price deducted up front")

	order, err := repo.GetOrder(ctx, result.OrderID)
	require.NoError(t, err)
	require.Equal(t, models.OrderPending, order.Status)
	require.Equal(t, models.AccountTypeTelegram, order.ProductType)
	require.Equal(t, ProductTelegramOTP, order.ProductKey)

	s.resolveDelivery(ctx, result.OrderID, true)

	order, err = repo.GetOrder(ctx, result.OrderID)
	require.NoError(t, err)
	require.Equal(t, models.OrderSuccess, order.Status)
	require.Len(t, order.OTPCode, 6)
	require.Equal(t, 0.0, order.RefundAmount)

	account, err := repo.GetAccountByPhone(ctx, result.PhoneNumber)
	require.NoError(t, err)
	require.Equal(t, models.AccountSold, account.Status)

	user, err = s.GetUser(ctx, testUserID)
	require.NoError(t, err)
	require.Equal(t, 75.0, user.Balance)
	require.Equal(t, 25.0, user.TotalSpent)
	require.Equal(t, 1, user.AccountsBought)

	require.Equal(t, 1, notifier.count(testUserID), "buyer gets the OTP message")
}

func TestPurchaseDeliveryFailureRefunds(t *testing.T) {
	s, repo, _ := newTestService(t)
	ctx := context.Background()

	fundUser(t, s, testUserID, 100)
	addAccount(t, repo, models.AccountTypeTelegram, "+911111111111")

	result, err := s.Purchase(ctx, testUserID, ProductTelegramOTP)
	require.NoError(t, err)

	s.resolveDelivery(ctx, result.OrderID, false)

	order, err := repo.GetOrder(ctx, result.OrderID)
	require.NoError(t, err)
	require.Equal(t, models.OrderFailed, order.Status)
	require.Equal(t, 25.0, order.RefundAmount)

	user, err := s.GetUser(ctx, testUserID)
	require.NoError(t, err)
	require.Equal(t, 100.0, user.Balance, "full refund")
	require.Equal(t, 25.0, user.TotalRefund)
	require.Equal(t, 0, user.AccountsBought)

	account, err := repo.GetAccountByPhone(ctx, result.PhoneNumber)
	require.NoError(t, err)
	require.Equal(t, models.AccountAvailable, account.Status, "inventory released")
}

func TestCancelPendingOrderThenDeliveryIsNoOp(t *testing.T) {
	s, repo, _ := newTestService(t)
	ctx := context.Background()

	fundUser(t, s, testUserID, 100)
	addAccount(t, repo, models.AccountTypeTelegram, "+911111111111")

	result, err := s.Purchase(ctx, testUserID, ProductTelegramOTP)
	require.NoError(t, err)

	refund, err := s.CancelOrder(ctx, result.OrderID, testUserID)
	require.NoError(t, err)
	require.Equal(t, 25.0, refund)

	user, err := s.GetUser(ctx, testUserID)
	require.NoError(t, err)
	require.Equal(t, 100.0, user.Balance)
	require.Equal(t, 25.0, user.TotalRefund)

	account, err := repo.GetAccountByPhone(ctx, result.PhoneNumber)
	require.NoError(t, err)
	require.Equal(t, models.AccountAvailable, account.Status)

	// The delivery worker arriving later must walk away.
	s.resolveDelivery(ctx, result.OrderID, true)

	order, err := repo.GetOrder(ctx, result.OrderID)
	require.NoError(t, err)
	require.Equal(t, models.OrderCancelled, order.Status)

	user, err = s.GetUser(ctx, testUserID)
	require.NoError(t, err)
	require.Equal(t, 100.0, user.Balance, "no double movement after the lost race")

	account, err = repo.GetAccountByPhone(ctx, result.PhoneNumber)
	require.NoError(t, err)
	require.Equal(t, models.AccountAvailable, account.Status)
}

func TestCancelGuards(t *testing.T) {
	s, repo, _ := newTestService(t)
	ctx := context.Background()

	fundUser(t, s, testUserID, 100)
	addAccount(t, repo, models.AccountTypeTelegram, "+911111111111")

	result, err := s.Purchase(ctx, testUserID, ProductTelegramOTP)
	require.NoError(t, err)

	_, err = s.CancelOrder(ctx, 9999, testUserID)
	require.True(t, apperr.IsKind(err, apperr.KindNotFound))

	_, err = s.CancelOrder(ctx, result.OrderID, testUserID+1)
	require.True(t, apperr.IsKind(err, apperr.KindNotOwner))

	s.resolveDelivery(ctx, result.OrderID, true)
	_, err = s.CancelOrder(ctx, result.OrderID, testUserID)
	require.True(t, apperr.IsKind(err, apperr.KindNotCancellable))
}

func TestPurchaseRejections(t *testing.T) {
	s, repo, _ := newTestService(t)
	ctx := context.Background()

	fundUser(t, s, testUserID, 10)

	// Not enough funds.
	addAccount(t, repo, models.AccountTypeTelegram, "+911111111111")
	_, err := s.Purchase(ctx, testUserID, ProductTelegramOTP)
	require.True(t, apperr.IsKind(err, apperr.KindInsufficientFunds))

	// Empty pool.
	fundUser(t, s, testUserID, 100)
	_, err = s.Purchase(ctx, testUserID, ProductWhatsappOTP)
	require.True(t, apperr.IsKind(err, apperr.KindOutOfStock))

	// Blocked user.
	require.NoError(t, s.SetUserBlocked(ctx, testOwnerID, testUserID, true))
	_, err = s.Purchase(ctx, testUserID, ProductTelegramOTP)
	require.True(t, apperr.IsKind(err, apperr.KindBlocked))

	// Unknown product.
	require.NoError(t, s.SetUserBlocked(ctx, testOwnerID, testUserID, false))
	_, err = s.Purchase(ctx, testUserID, "buy_moon_otp")
	require.True(t, apperr.IsKind(err, apperr.KindNotFound))

	// Nothing above may have touched the balance.
	user, err := s.GetUser(ctx, testUserID)
	require.NoError(t, err)
	require.Equal(t, 110.0, user.Balance)
}

func TestConcurrentPurchasesBoundedByInventory(t *testing.T) {
	s, repo, _ := newTestService(t)
	ctx := context.Background()

	const pool = 3
	const buyers = 6

	phones := []string{"+911", "+912", "+913"}
	for _, phone := range phones {
		addAccount(t, repo, models.AccountTypeTelegram, phone)
	}
	for i := int64(1); i <= buyers; i++ {
		fundUser(t, s, i, 100)
	}

	var mu sync.Mutex
	assigned := make(map[string]int)
	outOfStock := 0

	var wg sync.WaitGroup
	for i := int64(1); i <= buyers; i++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			result, err := s.Purchase(ctx, userID, ProductTelegramOTP)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				require.True(t, apperr.IsKind(err, apperr.KindOutOfStock), "unexpected error: %v", err)
				outOfStock++
				return
			}
			assigned[result.PhoneNumber]++
		}(i)
	}
	wg.Wait()

	require.Len(t, assigned, pool, "at most one order per account")
	require.Equal(t, buyers-pool, outOfStock)
	for phone, count := range assigned {
		require.Equal(t, 1, count, "account %s double-assigned", phone)
	}
}

func TestConcurrentPurchasesBoundedByBalance(t *testing.T) {
	s, repo, _ := newTestService(t)
	ctx := context.Background()

	// One user with funds for exactly one purchase, plenty of stock.
	fundUser(t, s, testUserID, 30)
	for _, phone := range []string{"+911", "+912", "+913", "+914"} {
		addAccount(t, repo, models.AccountTypeTelegram, phone)
	}

	var mu sync.Mutex
	successes := 0

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Purchase(ctx, testUserID, ProductTelegramOTP)

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
				return
			}
			require.True(t, apperr.IsKind(err, apperr.KindInsufficientFunds), "unexpected error: %v", err)
		}()
	}
	wg.Wait()

	require.Equal(t, 1, successes, "the conditional decrement admits exactly one purchase")

	user, err := s.GetUser(ctx, testUserID)
	require.NoError(t, err)
	require.Equal(t, 5.0, user.Balance)

	// The losers' claims must have been released.
	counts, err := repo.CountAvailableAccounts(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(3), counts[models.AccountTypeTelegram])
}

func TestSessionProductsShareInventory(t *testing.T) {
	s, repo, _ := newTestService(t)
	ctx := context.Background()

	fundUser(t, s, testUserID, 100)
	addAccount(t, repo, models.AccountTypeTelegram, "+911111111111")

	result, err := s.Purchase(ctx, testUserID, ProductTelegramSession)
	require.NoError(t, err)
	require.Equal(t, 40.0, result.Price, "session price differs from OTP price")

	user, err := s.GetUser(ctx, testUserID)
	require.NoError(t, err)
	require.Equal(t, 60.0, user.Balance)
}
