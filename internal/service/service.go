package service

import (
	"context"
	"slices"

	"github.com/Deepx7/otp_market_bot/config"
	"github.com/Deepx7/otp_market_bot/internal/apperr"
	"github.com/Deepx7/otp_market_bot/internal/models"
	"github.com/Deepx7/otp_market_bot/utils"
)

// Product keys understood by Purchase. Session products draw from the
// same inventory pools as the OTP products, at the session price.
const (
	ProductTelegramOTP     = "telegram_otp"
	ProductWhatsappOTP     = "whatsapp_otp"
	ProductTelegramSession = "telegram_session"
	ProductWhatsappSession = "whatsapp_session"
)

type Service struct {
	repo     Repository
	notifier Notifier
	delivery *deliveryPool
	config   *config.Config
	logger   *utils.Logger

	ownerID  int64
	adminIDs []int64
}

type Repository interface {
	GetUser(ctx context.Context, userID int64) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	GetAllUsers(ctx context.Context) ([]*models.User, error)
	GetAllAdmins(ctx context.Context) ([]*models.User, error)
	CountUsers(ctx context.Context) (int64, error)

	CreditBalance(ctx context.Context, userID int64, amount float64) error
	DeductBalance(ctx context.Context, userID int64, amount float64) (bool, error)
	RecordRefund(ctx context.Context, userID int64, amount float64) error
	RecordSpend(ctx context.Context, userID int64, amount float64) error
	SetUserBlocked(ctx context.Context, userID int64, blocked bool) error
	SetUserAdmin(ctx context.Context, userID int64, isAdmin bool) error

	CreateAccount(ctx context.Context, account *models.Account) error
	ClaimAvailableAccount(ctx context.Context, accountType string) (*models.Account, error)
	ReleaseAccount(ctx context.Context, phoneNumber string) error
	MarkAccountSold(ctx context.Context, phoneNumber string) error
	CountAvailableAccounts(ctx context.Context) (map[string]int64, error)

	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrder(ctx context.Context, orderID uint) (*models.Order, error)
	ResolveOrder(ctx context.Context, orderID uint, status, otpCode string, refundAmount float64) (bool, error)
	GetUserOrders(ctx context.Context, userID int64) ([]*models.Order, error)
	CountOrdersByStatus(ctx context.Context, status string) (int64, error)

	CreatePayment(ctx context.Context, payment *models.Payment) error
	GetPayment(ctx context.Context, paymentID uint) (*models.Payment, error)
	ResolvePayment(ctx context.Context, paymentID uint, status string, adminID int64) (bool, error)
	GetPendingPayments(ctx context.Context) ([]*models.Payment, error)
	CountPaymentsByStatus(ctx context.Context, status string) (int64, error)
}

// Notifier is the front end's outbound channel. Sends are best-effort:
// the core logs failures and never lets them fail an operation.
type Notifier interface {
	Notify(userID int64, text string) error
}

func NewService(repo Repository, notifier Notifier, cfg *config.Config, logger *utils.Logger) *Service {
	s := &Service{
		repo:     repo,
		notifier: notifier,
		config:   cfg,
		logger:   logger,
		ownerID:  cfg.OwnerID,
		adminIDs: cfg.AdminIDList(),
	}
	s.delivery = newDeliveryPool(s, cfg)
	return s
}

// StartDeliveryWorkers launches the bounded pool that resolves pending
// orders. Must be called once before any Purchase.
func (s *Service) StartDeliveryWorkers(ctx context.Context) {
	s.delivery.start(ctx)
}

func (s *Service) IsOwner(userID int64) bool {
	return userID == s.ownerID
}

// IsAdmin checks the configured ids first and falls back to the stored
// is_admin flag, so owner-granted admins survive restarts.
func (s *Service) IsAdmin(ctx context.Context, userID int64) bool {
	if s.IsOwner(userID) {
		return true
	}
	if slices.Contains(s.adminIDs, userID) {
		return true
	}

	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		s.logger.Errorf("Failed to check admin flag for user %d: %v", userID, err)
		return false
	}
	return user != nil && user.IsAdmin
}

// GetOrCreateUser loads the user, lazily registering them on first
// interaction.
func (s *Service) GetOrCreateUser(ctx context.Context, userID int64, username string) (*models.User, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}

	if err := s.repo.CreateUser(ctx, &models.User{UserID: userID, Username: username}); err != nil {
		return nil, err
	}
	return s.repo.GetUser(ctx, userID)
}

func (s *Service) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	return s.repo.GetUser(ctx, userID)
}

// productInfo resolves a product key to its inventory type and price.
func (s *Service) productInfo(productKey string) (accountType string, price float64, err error) {
	switch productKey {
	case ProductTelegramOTP:
		return models.AccountTypeTelegram, s.config.TelegramOTPPrice, nil
	case ProductWhatsappOTP:
		return models.AccountTypeWhatsapp, s.config.WhatsappOTPPrice, nil
	case ProductTelegramSession:
		return models.AccountTypeTelegram, s.config.SessionPrice, nil
	case ProductWhatsappSession:
		return models.AccountTypeWhatsapp, s.config.SessionPrice, nil
	default:
		return "", 0, apperr.NotFound("unknown product: " + productKey)
	}
}

// notify sends a message through the front end and swallows failures.
func (s *Service) notify(userID int64, text string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(userID, text); err != nil {
		s.logger.Errorf("Failed to notify user %d: %v", userID, err)
	}
}
