package bot

import (
	"sync"

	"github.com/Deepx7/otp_market_bot/config"
	"github.com/Deepx7/otp_market_bot/internal/service"
	"github.com/Deepx7/otp_market_bot/utils"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Bot struct {
	API     *tgbotapi.BotAPI
	service *service.Service
	logger  *utils.Logger
	config  *config.Config

	userStates     map[int64]string
	userActionData map[int64]string
	stateMutex     *sync.Mutex
}

func NewBot(
	api *tgbotapi.BotAPI,
	svc *service.Service,
	logger *utils.Logger,
	config *config.Config,
) *Bot {
	return &Bot{
		API:            api,
		service:        svc,
		logger:         logger,
		config:         config,
		userStates:     make(map[int64]string),
		userActionData: make(map[int64]string),
		stateMutex:     &sync.Mutex{},
	}
}

func (b *Bot) Start() {
	b.logger.Info("Starting bot...")
	updates := b.API.GetUpdatesChan(tgbotapi.NewUpdate(0))
	for update := range updates {
		if update.CallbackQuery != nil {
			b.handleCallbackQuery(update.CallbackQuery)
			continue
		}
		if update.Message != nil {
			b.HandleUpdate(update)
		}
	}
}

// Notifier adapts the Telegram API to the core's outbound contract. It
// is wired into the service before the Bot itself exists, so it only
// carries the API handle.
type Notifier struct {
	api    *tgbotapi.BotAPI
	logger *utils.Logger
}

func NewNotifier(api *tgbotapi.BotAPI, logger *utils.Logger) *Notifier {
	return &Notifier{api: api, logger: logger}
}

func (n *Notifier) Notify(userID int64, text string) error {
	msg := tgbotapi.NewMessage(userID, text)
	if _, err := n.api.Send(msg); err != nil {
		n.logger.Errorf("Failed to send notification to %d: %v", userID, err)
		return err
	}
	return nil
}
