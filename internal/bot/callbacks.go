package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Deepx7/otp_market_bot/internal/apperr"
	"github.com/Deepx7/otp_market_bot/internal/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) handleCallbackQuery(callback *tgbotapi.CallbackQuery) {
	ctx := context.Background()
	data := callback.Data
	userID := callback.From.ID
	chatID := callback.Message.Chat.ID
	messageID := callback.Message.MessageID

	b.logger.Debugf("Callback from user %d: %s", userID, data)

	switch {
	case data == "main_menu":
		b.answerCallback(callback.ID, "")
		b.editMessage(chatID, messageID, "🏠 Main menu:", markupPtr(mainMenu(b.isAdmin(ctx, userID))))

	case data == "otp_menu":
		b.answerCallback(callback.ID, "")
		b.showInventoryMenu(ctx, chatID, messageID, "📱 *Buy OTP*", otpMenu(b.config.TelegramOTPPrice, b.config.WhatsappOTPPrice))

	case data == "session_menu":
		b.answerCallback(callback.ID, "")
		b.showInventoryMenu(ctx, chatID, messageID, "💳 *Buy Session*", sessionMenu(b.config.SessionPrice))

	case data == "deposit":
		b.answerCallback(callback.ID, "")
		b.setState(userID, stateAwaitingDepositAmount)
		b.editMessage(chatID, messageID, fmt.Sprintf(
			"💰 *Add Funds*\n\nTransfer to the owner's account, then send the amount you transferred (minimum ₹%.0f).\nSend /cancel to abort.",
			b.config.MinDeposit,
		), nil)

	case data == "my_stats":
		b.answerCallback(callback.ID, "")
		b.showUserStats(ctx, chatID, messageID, userID)

	case data == "my_orders":
		b.answerCallback(callback.ID, "")
		b.showUserOrders(ctx, chatID, messageID, userID)

	case data == "help":
		b.answerCallback(callback.ID, "")
		b.editMessage(chatID, messageID, "Use /help for instructions.", markupPtr(backToMain()))

	case strings.HasPrefix(data, "buy_"):
		b.handlePurchaseCallback(ctx, callback)

	case strings.HasPrefix(data, "cancel_order_"):
		b.handleCancelOrderCallback(ctx, callback)

	case strings.HasPrefix(data, "approve_payment_"), strings.HasPrefix(data, "decline_payment_"):
		b.handlePaymentReviewCallback(ctx, callback)

	default:
		b.handleAdminCallback(ctx, callback)
	}
}

func (b *Bot) showInventoryMenu(ctx context.Context, chatID int64, messageID int, title string, markup tgbotapi.InlineKeyboardMarkup) {
	counts, err := b.service.AvailableAccounts(ctx)
	if err != nil {
		b.logger.Errorf("Failed to count inventory: %v", err)
	}

	text := fmt.Sprintf("%s\n\nIn stock: ✈️ %d Telegram, 💬 %d WhatsApp",
		title, counts[models.AccountTypeTelegram], counts[models.AccountTypeWhatsapp])
	b.editMessage(chatID, messageID, text, &markup)
}

func (b *Bot) handlePurchaseCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	userID := callback.From.ID
	chatID := callback.Message.Chat.ID
	messageID := callback.Message.MessageID
	productKey := strings.TrimPrefix(callback.Data, "buy_")

	result, err := b.service.Purchase(ctx, userID, productKey)
	if err != nil {
		b.answerCallback(callback.ID, "")
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			switch appErr.Kind {
			case apperr.KindBlocked:
				b.editMessage(chatID, messageID, "❌ Your account is blocked! Contact admin.", markupPtr(backToMain()))
			case apperr.KindInsufficientFunds:
				b.editMessage(chatID, messageID, "❌ Insufficient balance! "+appErr.Message, markupPtr(backToMain()))
			case apperr.KindOutOfStock:
				b.editMessage(chatID, messageID, "❌ Sorry, no accounts available at the moment!", markupPtr(backToMain()))
			default:
				b.editMessage(chatID, messageID, "❌ "+appErr.Message, markupPtr(backToMain()))
			}
			return
		}
		b.logger.Errorf("Purchase failed for user %d: %v", userID, err)
		b.editMessage(chatID, messageID, "Something went wrong. Please try again later.", markupPtr(backToMain()))
		return
	}

	b.answerCallback(callback.ID, "Order placed!")
	progressText := fmt.Sprintf(
		"🔄 *Purchase In Progress...*\n\n"+
			"📞 Number: `%s`\n"+
			"💰 Amount: ₹%.0f\n\n"+
			"⏳ Waiting for the OTP, this may take up to %d seconds.\n"+
			"You can cancel for a full refund while the order is pending.",
		result.PhoneNumber, result.Price, b.config.DeliveryDelayMaxSec,
	)
	markup := orderProgressKeyboard(result.OrderID)
	b.editMessage(chatID, messageID, progressText, &markup)
}

func (b *Bot) handleCancelOrderCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	userID := callback.From.ID
	chatID := callback.Message.Chat.ID
	messageID := callback.Message.MessageID

	orderID, err := strconv.ParseUint(strings.TrimPrefix(callback.Data, "cancel_order_"), 10, 32)
	if err != nil {
		b.answerCallback(callback.ID, "Bad order id.")
		return
	}

	refund, err := b.service.CancelOrder(ctx, uint(orderID), userID)
	if err != nil {
		b.answerCallback(callback.ID, "")
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			switch appErr.Kind {
			case apperr.KindNotFound:
				b.editMessage(chatID, messageID, "❌ Order not found!", markupPtr(backToMain()))
			case apperr.KindNotOwner:
				b.editMessage(chatID, messageID, "❌ You can only cancel your own orders!", markupPtr(backToMain()))
			case apperr.KindNotCancellable:
				b.editMessage(chatID, messageID, "❌ This order cannot be cancelled anymore!", markupPtr(backToMain()))
			default:
				b.editMessage(chatID, messageID, "❌ "+appErr.Message, markupPtr(backToMain()))
			}
			return
		}
		b.logger.Errorf("Cancel failed for order %d: %v", orderID, err)
		b.editMessage(chatID, messageID, "Something went wrong. Please try again later.", markupPtr(backToMain()))
		return
	}

	b.answerCallback(callback.ID, "Order cancelled.")
	b.editMessage(chatID, messageID, fmt.Sprintf(
		"❌ *Order Cancelled*\n\n💰 Refund Issued: ₹%.0f\nThe amount is back on your balance.", refund,
	), markupPtr(backToMain()))
}

func (b *Bot) handlePaymentReviewCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	adminID := callback.From.ID
	chatID := callback.Message.Chat.ID
	messageID := callback.Message.MessageID
	data := callback.Data

	approve := strings.HasPrefix(data, "approve_payment_")
	idStr := strings.TrimPrefix(strings.TrimPrefix(data, "approve_payment_"), "decline_payment_")
	paymentID, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		b.answerCallback(callback.ID, "Bad payment id.")
		return
	}

	if approve {
		payment, err := b.service.ApprovePayment(ctx, uint(paymentID), adminID)
		if err != nil {
			b.answerCallback(callback.ID, reviewErrorText(err))
			return
		}
		b.answerCallback(callback.ID, "Approved.")
		b.editMessage(chatID, messageID, fmt.Sprintf(
			"✅ Payment #%d approved: user %d credited ₹%.2f.", payment.ID, payment.UserID, payment.Amount,
		), nil)
		return
	}

	if err := b.service.DeclinePayment(ctx, uint(paymentID), adminID); err != nil {
		b.answerCallback(callback.ID, reviewErrorText(err))
		return
	}
	b.answerCallback(callback.ID, "Declined.")
	b.editMessage(chatID, messageID, fmt.Sprintf("❌ Payment #%d declined.", paymentID), nil)
}

func reviewErrorText(err error) string {
	switch {
	case apperr.IsKind(err, apperr.KindForbidden):
		return "Admins only."
	case apperr.IsKind(err, apperr.KindAlreadyProcessed):
		return "Already reviewed by another admin."
	case apperr.IsKind(err, apperr.KindNotFound):
		return "Payment not found."
	default:
		return "Failed, try again."
	}
}

func (b *Bot) showUserStats(ctx context.Context, chatID int64, messageID int, userID int64) {
	user, err := b.service.GetUser(ctx, userID)
	if err != nil || user == nil {
		b.editMessage(chatID, messageID, "Failed to load your stats.", markupPtr(backToMain()))
		return
	}

	text := fmt.Sprintf(
		"📊 *Your Stats*\n\n"+
			"💰 Balance: ₹%.2f\n"+
			"💸 Total spent: ₹%.2f\n"+
			"↩️ Total refunded: ₹%.2f\n"+
			"📦 Accounts bought: %d",
		user.Balance, user.TotalSpent, user.TotalRefund, user.AccountsBought,
	)
	b.editMessage(chatID, messageID, text, markupPtr(backToMain()))
}

func (b *Bot) showUserOrders(ctx context.Context, chatID int64, messageID int, userID int64) {
	orders, err := b.service.UserOrders(ctx, userID)
	if err != nil {
		b.editMessage(chatID, messageID, "Failed to load your orders.", markupPtr(backToMain()))
		return
	}
	if len(orders) == 0 {
		b.editMessage(chatID, messageID, "📦 You have no orders yet.", markupPtr(backToMain()))
		return
	}

	var sb strings.Builder
	sb.WriteString("📦 *Your Orders*\n\n")
	limit := 10
	for i, order := range orders {
		if i >= limit {
			break
		}
		sb.WriteString(fmt.Sprintf("#%d %s `%s` — %s ₹%.0f\n",
			order.ID, statusEmoji(order.Status), order.PhoneNumber, order.Status, order.Price))
	}
	b.editMessage(chatID, messageID, sb.String(), markupPtr(backToMain()))
}

func statusEmoji(status string) string {
	switch status {
	case models.OrderSuccess:
		return "✅"
	case models.OrderFailed:
		return "❌"
	case models.OrderCancelled:
		return "🚫"
	default:
		return "⏳"
	}
}

func (b *Bot) handleAdminCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	userID := callback.From.ID
	chatID := callback.Message.Chat.ID
	messageID := callback.Message.MessageID

	if !b.isAdmin(ctx, userID) {
		b.answerCallback(callback.ID, "Admins only.")
		return
	}

	switch data := callback.Data; {
	case strings.HasPrefix(data, "remove_admin_"):
		b.handleRemoveAdminCallback(ctx, callback)
		return
	case strings.HasPrefix(data, "block_user_"), strings.HasPrefix(data, "unblock_user_"):
		b.handleBlockUserCallback(ctx, callback)
		return
	}

	switch callback.Data {
	case "owner_panel":
		b.answerCallback(callback.ID, "")
		b.editMessage(chatID, messageID, "👑 *Owner Panel*", markupPtr(ownerPanel()))

	case "add_telegram_accounts", "add_whatsapp_accounts":
		accountType := models.AccountTypeTelegram
		if callback.Data == "add_whatsapp_accounts" {
			accountType = models.AccountTypeWhatsapp
		}
		b.answerCallback(callback.ID, "")
		b.setUserActionData(userID, accountType)
		b.setState(userID, stateAwaitingAccounts)
		b.editMessage(chatID, messageID,
			"➕ Send accounts, one per line:\n`phone` or `phone,otp`\n\nSend /cancel to abort.", nil)

	case "pending_payments":
		b.answerCallback(callback.ID, "")
		b.showPendingPayments(ctx, chatID, messageID, userID)

	case "stats":
		b.answerCallback(callback.ID, "")
		b.showStats(ctx, chatID, messageID, userID)

	case "add_admin":
		b.answerCallback(callback.ID, "")
		b.setState(userID, stateAwaitingAdminID)
		b.editMessage(chatID, messageID, "🛡️ Send the Telegram user ID to promote.\nSend /cancel to abort.", nil)

	case "list_admins":
		b.answerCallback(callback.ID, "")
		b.showAdmins(ctx, chatID, messageID, userID)

	case "manage_users":
		b.answerCallback(callback.ID, "")
		b.showUsers(ctx, chatID, messageID, userID)

	case "broadcast":
		b.answerCallback(callback.ID, "")
		b.setState(userID, stateAwaitingBroadcast)
		b.editMessage(chatID, messageID, "📢 Send the message to broadcast to all users.\nSend /cancel to abort.", nil)

	default:
		b.answerCallback(callback.ID, "Unknown action.")
	}
}

func (b *Bot) showPendingPayments(ctx context.Context, chatID int64, messageID int, adminID int64) {
	payments, err := b.service.PendingPayments(ctx, adminID)
	if err != nil {
		b.editMessage(chatID, messageID, "Failed to load pending payments.", markupPtr(ownerPanel()))
		return
	}
	if len(payments) == 0 {
		b.editMessage(chatID, messageID, "⏳ No pending payments.", markupPtr(ownerPanel()))
		return
	}

	b.editMessage(chatID, messageID, fmt.Sprintf("⏳ %d pending payments:", len(payments)), markupPtr(ownerPanel()))
	for _, payment := range payments {
		msg := tgbotapi.NewMessage(chatID, fmt.Sprintf(
			"Payment #%d\n👤 User: %d\n💵 Amount: ₹%.2f\n🔢 UTR: %s",
			payment.ID, payment.UserID, payment.Amount, payment.UTR,
		))
		msg.ReplyMarkup = paymentReviewKeyboard(payment.ID)
		if _, err := b.API.Send(msg); err != nil {
			b.logger.Errorf("Failed to send payment card %d: %v", payment.ID, err)
		}
	}
}

func (b *Bot) showStats(ctx context.Context, chatID int64, messageID int, adminID int64) {
	stats, err := b.service.GetStats(ctx, adminID)
	if err != nil {
		b.editMessage(chatID, messageID, "Failed to load statistics.", markupPtr(ownerPanel()))
		return
	}

	text := fmt.Sprintf(
		"📈 *Statistics*\n\n"+
			"👥 Users: %d\n"+
			"⏳ Pending orders: %d\n"+
			"✅ Completed orders: %d\n"+
			"💰 Pending payments: %d\n"+
			"📱 In stock: ✈️ %d / 💬 %d",
		stats.Users, stats.PendingOrders, stats.CompletedOrders, stats.PendingPayments,
		stats.Available[models.AccountTypeTelegram], stats.Available[models.AccountTypeWhatsapp],
	)
	b.editMessage(chatID, messageID, text, markupPtr(ownerPanel()))
}

func (b *Bot) showAdmins(ctx context.Context, chatID int64, messageID int, adminID int64) {
	admins, err := b.service.ListAdmins(ctx, adminID)
	if err != nil {
		b.editMessage(chatID, messageID, "Failed to load admins.", markupPtr(ownerPanel()))
		return
	}

	var sb strings.Builder
	sb.WriteString("📋 *Admins*\n\n")
	sb.WriteString(fmt.Sprintf("👑 Owner: %d\n", b.config.OwnerID))
	for _, admin := range admins {
		if admin.UserID == b.config.OwnerID {
			continue
		}
		sb.WriteString(fmt.Sprintf("🛡️ %d %s\n", admin.UserID, admin.Username))
	}
	b.editMessage(chatID, messageID, sb.String(), markupPtr(adminListKeyboard(admins, b.config.OwnerID)))
}

func (b *Bot) showUsers(ctx context.Context, chatID int64, messageID int, adminID int64) {
	users, err := b.service.ListUsers(ctx, adminID)
	if err != nil {
		b.editMessage(chatID, messageID, "Failed to load users.", markupPtr(ownerPanel()))
		return
	}
	if len(users) == 0 {
		b.editMessage(chatID, messageID, "👥 No users yet.", markupPtr(ownerPanel()))
		return
	}

	// One page of the newest users; older ones stay reachable via ids.
	const limit = 10
	if len(users) > limit {
		users = users[:limit]
	}

	var sb strings.Builder
	sb.WriteString("👥 *Users*\n\n")
	for _, user := range users {
		status := "✅"
		if user.IsBlocked {
			status = "🚫"
		}
		sb.WriteString(fmt.Sprintf("%s %d %s — ₹%.2f\n", status, user.UserID, user.Username, user.Balance))
	}
	b.editMessage(chatID, messageID, sb.String(), markupPtr(userListKeyboard(users, b.config.OwnerID)))
}

func (b *Bot) handleRemoveAdminCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	userID := callback.From.ID
	chatID := callback.Message.Chat.ID
	messageID := callback.Message.MessageID

	targetID, err := strconv.ParseInt(strings.TrimPrefix(callback.Data, "remove_admin_"), 10, 64)
	if err != nil {
		b.answerCallback(callback.ID, "Bad user id.")
		return
	}

	if err := b.service.RemoveAdmin(ctx, userID, targetID); err != nil {
		b.answerCallback(callback.ID, adminActionErrorText(err))
		return
	}

	b.answerCallback(callback.ID, "Admin removed.")
	b.showAdmins(ctx, chatID, messageID, userID)
}

func (b *Bot) handleBlockUserCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	userID := callback.From.ID
	chatID := callback.Message.Chat.ID
	messageID := callback.Message.MessageID
	data := callback.Data

	block := strings.HasPrefix(data, "block_user_")
	idStr := strings.TrimPrefix(strings.TrimPrefix(data, "block_user_"), "unblock_user_")
	targetID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		b.answerCallback(callback.ID, "Bad user id.")
		return
	}

	if err := b.service.SetUserBlocked(ctx, userID, targetID, block); err != nil {
		b.answerCallback(callback.ID, adminActionErrorText(err))
		return
	}

	if block {
		b.answerCallback(callback.ID, "User blocked.")
	} else {
		b.answerCallback(callback.ID, "User unblocked.")
	}
	b.showUsers(ctx, chatID, messageID, userID)
}

func adminActionErrorText(err error) string {
	switch {
	case apperr.IsKind(err, apperr.KindForbidden):
		return err.Error()
	case apperr.IsKind(err, apperr.KindNotFound):
		return "User not found."
	default:
		return "Failed, try again."
	}
}

func markupPtr(markup tgbotapi.InlineKeyboardMarkup) *tgbotapi.InlineKeyboardMarkup {
	return &markup
}
