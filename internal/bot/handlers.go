package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Deepx7/otp_market_bot/internal/apperr"
	"github.com/Deepx7/otp_market_bot/internal/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) HandleUpdate(update tgbotapi.Update) {
	b.withUserCheck(func(ctx context.Context, update tgbotapi.Update, user *models.User) {
		text := update.Message.Text
		chatID := update.Message.Chat.ID
		userID := user.UserID

		b.logger.Infof("Processing message from user %d: %s", userID, text)

		switch b.getUserState(userID) {
		case stateAwaitingDepositAmount:
			b.handleDepositAmountInput(ctx, chatID, userID, text)
			return
		case stateAwaitingUTR:
			b.handleUTRInput(ctx, chatID, userID, text)
			return
		case stateAwaitingAccounts:
			b.handleAccountsInput(ctx, chatID, userID, text)
			return
		case stateAwaitingAdminID:
			b.handleAdminIDInput(ctx, chatID, userID, text)
			return
		case stateAwaitingBroadcast:
			b.handleBroadcastInput(ctx, chatID, userID, text)
			return
		}

		switch text {
		case "/start":
			b.handleStart(ctx, chatID, user)
		case "/help":
			b.handleHelp(chatID, user)
		case "/balance", "/mybalance":
			b.sendMessage(chatID, fmt.Sprintf("💰 Your balance: ₹%.2f", user.Balance), mainMenu(b.isAdmin(ctx, userID)))
		case "/cancel":
			b.setState(userID, stateDefault)
			b.clearUserActionData(userID)
			b.sendMessage(chatID, "Cancelled.", mainMenu(b.isAdmin(ctx, userID)))
		default:
			b.sendMessage(chatID, "Unknown command. Use the menu below.", mainMenu(b.isAdmin(ctx, userID)))
		}
	})(update)
}

func (b *Bot) isAdmin(ctx context.Context, userID int64) bool {
	return b.service.IsAdmin(ctx, userID)
}

func (b *Bot) handleStart(ctx context.Context, chatID int64, user *models.User) {
	welcomeText := fmt.Sprintf(
		"👋 *Welcome to the OTP Market!*\n\n"+
			"💰 Balance: ₹%.2f\n"+
			"📦 Accounts bought: %d\n\n"+
			"Pick an option from the menu below.",
		user.Balance, user.AccountsBought,
	)
	b.sendMessage(chatID, welcomeText, mainMenu(b.isAdmin(ctx, user.UserID)))
}

func (b *Bot) handleHelp(chatID int64, user *models.User) {
	helpText := "❓ *How it works*\n\n" +
		"1. Add funds: transfer to the owner's account and submit the UTR reference.\n" +
		"2. An admin verifies the transfer and credits your balance.\n" +
		"3. Buy an OTP or session — delivery takes a few seconds.\n" +
		"4. If delivery fails or you cancel in time, you get a full refund.\n\n" +
		"Commands: /start /help /balance /cancel"
	b.sendMessage(chatID, helpText, backToMain())
}

// Deposit conversation: amount first, then the UTR reference.

func (b *Bot) handleDepositAmountInput(ctx context.Context, chatID, userID int64, text string) {
	amount, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || amount <= 0 {
		b.sendMessage(chatID, "❌ Please send a valid amount in ₹ (for example: 500).", nil)
		return
	}
	if amount < b.config.MinDeposit {
		b.sendMessage(chatID, fmt.Sprintf("❌ Minimum deposit is ₹%.0f.", b.config.MinDeposit), nil)
		return
	}

	b.setUserActionData(userID, strconv.FormatFloat(amount, 'f', 2, 64))
	b.setState(userID, stateAwaitingUTR)
	b.sendMessage(chatID, "🔢 Now send the 12-digit UTR reference number of your bank transfer:", nil)
}

func (b *Bot) handleUTRInput(ctx context.Context, chatID, userID int64, text string) {
	amountStr := b.getUserActionData(userID)
	amount, err := strconv.ParseFloat(amountStr, 64)
	if err != nil {
		b.setState(userID, stateDefault)
		b.sendMessage(chatID, "Something went wrong, start the deposit again.", backToMain())
		return
	}

	payment, err := b.service.SubmitPayment(ctx, userID, amount, strings.TrimSpace(text))
	if err != nil {
		if apperr.IsKind(err, apperr.KindInvalid) {
			b.sendMessage(chatID, "❌ "+err.Error(), nil)
			return
		}
		b.logger.Errorf("Failed to submit payment for user %d: %v", userID, err)
		b.sendMessage(chatID, "Failed to submit your payment. Please try again later.", backToMain())
		return
	}

	b.setState(userID, stateDefault)
	b.clearUserActionData(userID)
	b.sendMessage(chatID, fmt.Sprintf(
		"✅ UTR received! Payment request #%d for ₹%.2f is under review.\nYou'll be notified once approved.",
		payment.ID, payment.Amount,
	), backToMain())

	// Review buttons go to the owner directly; other admins got the
	// plain notification from the core.
	reviewMsg := tgbotapi.NewMessage(b.config.OwnerID, fmt.Sprintf(
		"Review payment #%d: user %d, ₹%.2f, UTR %s", payment.ID, userID, payment.Amount, payment.UTR,
	))
	reviewMsg.ReplyMarkup = paymentReviewKeyboard(payment.ID)
	if _, err := b.API.Send(reviewMsg); err != nil {
		b.logger.Errorf("Failed to send review buttons to owner: %v", err)
	}
}

// Owner panel conversations.

func (b *Bot) handleAccountsInput(ctx context.Context, chatID, userID int64, text string) {
	accountType := b.getUserActionData(userID)
	b.setState(userID, stateDefault)
	b.clearUserActionData(userID)

	added, failed := 0, 0
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		// Each line: "phone" or "phone,otp".
		phone, otp := line, ""
		if idx := strings.Index(line, ","); idx >= 0 {
			phone, otp = strings.TrimSpace(line[:idx]), strings.TrimSpace(line[idx+1:])
		}

		if err := b.service.AddAccount(ctx, userID, accountType, phone, otp, 0); err != nil {
			b.logger.Warnf("Failed to add account %s: %v", phone, err)
			failed++
			continue
		}
		added++
	}

	b.sendMessage(chatID, fmt.Sprintf("✅ Added %d accounts (%d skipped).", added, failed), ownerPanel())
}

func (b *Bot) handleAdminIDInput(ctx context.Context, chatID, userID int64, text string) {
	b.setState(userID, stateDefault)

	targetID, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil {
		b.sendMessage(chatID, "❌ Send a numeric Telegram user ID.", ownerPanel())
		return
	}

	if err := b.service.AddAdmin(ctx, userID, targetID); err != nil {
		b.sendMessage(chatID, "❌ "+err.Error(), ownerPanel())
		return
	}
	b.sendMessage(chatID, fmt.Sprintf("✅ User %d is now an admin.", targetID), ownerPanel())
}

func (b *Bot) handleBroadcastInput(ctx context.Context, chatID, userID int64, text string) {
	b.setState(userID, stateDefault)

	count, err := b.service.Broadcast(ctx, userID, text)
	if err != nil {
		b.sendMessage(chatID, "❌ "+err.Error(), ownerPanel())
		return
	}
	b.sendMessage(chatID, fmt.Sprintf("📢 Broadcast sent to %d users.", count), ownerPanel())
}
