package bot

import (
	"fmt"

	"github.com/Deepx7/otp_market_bot/internal/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func mainMenu(isAdmin bool) tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{
		{
			tgbotapi.NewInlineKeyboardButtonData("📱 Buy OTP", "otp_menu"),
			tgbotapi.NewInlineKeyboardButtonData("💳 Buy Session", "session_menu"),
		},
		{
			tgbotapi.NewInlineKeyboardButtonData("💰 Add Funds", "deposit"),
			tgbotapi.NewInlineKeyboardButtonData("📊 My Stats", "my_stats"),
		},
		{
			tgbotapi.NewInlineKeyboardButtonData("📦 My Orders", "my_orders"),
			tgbotapi.NewInlineKeyboardButtonData("❓ Help", "help"),
		},
	}

	if isAdmin {
		rows = append(rows, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData("👑 Owner Panel", "owner_panel"),
		})
	}

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func otpMenu(telegramPrice, whatsappPrice float64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("✈️ Telegram OTP — ₹%.0f", telegramPrice), "buy_telegram_otp"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("💬 WhatsApp OTP — ₹%.0f", whatsappPrice), "buy_whatsapp_otp"),
		),
		backToMainRow(),
	)
}

func sessionMenu(sessionPrice float64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("✈️ Telegram Session — ₹%.0f", sessionPrice), "buy_telegram_session"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("💬 WhatsApp Session — ₹%.0f", sessionPrice), "buy_whatsapp_session"),
		),
		backToMainRow(),
	)
}

func orderProgressKeyboard(orderID uint) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❌ Cancel Order & Refund", fmt.Sprintf("cancel_order_%d", orderID)),
		),
	)
}

func paymentReviewKeyboard(paymentID uint) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Approve", fmt.Sprintf("approve_payment_%d", paymentID)),
			tgbotapi.NewInlineKeyboardButtonData("❌ Decline", fmt.Sprintf("decline_payment_%d", paymentID)),
		),
	)
}

func ownerPanel() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Add Telegram", "add_telegram_accounts"),
			tgbotapi.NewInlineKeyboardButtonData("➕ Add WhatsApp", "add_whatsapp_accounts"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⏳ Pending Payments", "pending_payments"),
			tgbotapi.NewInlineKeyboardButtonData("📈 Statistics", "stats"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🛡️ Add Admin", "add_admin"),
			tgbotapi.NewInlineKeyboardButtonData("📋 List Admins", "list_admins"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👥 Manage Users", "manage_users"),
			tgbotapi.NewInlineKeyboardButtonData("📢 Broadcast", "broadcast"),
		),
		backToMainRow(),
	)
}

// adminListKeyboard renders one remove button per admin; the owner is
// not removable and gets no button.
func adminListKeyboard(admins []*models.User, ownerID int64) tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{}
	for _, admin := range admins {
		if admin.UserID == ownerID {
			continue
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("❌ Remove %d", admin.UserID),
				fmt.Sprintf("remove_admin_%d", admin.UserID),
			),
		))
	}
	rows = append(rows, ownerPanelRow())
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// userListKeyboard renders a block or unblock button per user depending
// on their current state.
func userListKeyboard(users []*models.User, ownerID int64) tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{}
	for _, user := range users {
		if user.UserID == ownerID {
			continue
		}
		if user.IsBlocked {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(
					fmt.Sprintf("✅ Unblock %d", user.UserID),
					fmt.Sprintf("unblock_user_%d", user.UserID),
				),
			))
			continue
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("🚫 Block %d", user.UserID),
				fmt.Sprintf("block_user_%d", user.UserID),
			),
		))
	}
	rows = append(rows, ownerPanelRow())
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func ownerPanelRow() []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🔙 Owner Panel", "owner_panel"),
	)
}

func backToMainRow() []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🔙 Back to Main", "main_menu"),
	)
}

func backToMain() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(backToMainRow())
}
