package bot

import (
	"testing"

	"github.com/Deepx7/otp_market_bot/internal/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"
)

const ownerID = int64(1000)

func callbackData(t *testing.T, markup tgbotapi.InlineKeyboardMarkup) []string {
	t.Helper()
	var data []string
	for _, row := range markup.InlineKeyboard {
		for _, button := range row {
			require.NotNil(t, button.CallbackData)
			data = append(data, *button.CallbackData)
		}
	}
	return data
}

func TestOwnerPanelCoversModerationFlows(t *testing.T) {
	data := callbackData(t, ownerPanel())

	require.Contains(t, data, "manage_users")
	require.Contains(t, data, "list_admins")
	require.Contains(t, data, "add_admin")
	require.Contains(t, data, "pending_payments")
	require.Contains(t, data, "broadcast")
}

func TestAdminListKeyboardRemoveButtons(t *testing.T) {
	admins := []*models.User{
		{UserID: ownerID, IsAdmin: true},
		{UserID: 77, IsAdmin: true},
		{UserID: 88, IsAdmin: true},
	}

	data := callbackData(t, adminListKeyboard(admins, ownerID))

	require.Contains(t, data, "remove_admin_77")
	require.Contains(t, data, "remove_admin_88")
	require.NotContains(t, data, "remove_admin_1000", "the owner must not get a remove button")
}

func TestUserListKeyboardBlockStateButtons(t *testing.T) {
	users := []*models.User{
		{UserID: ownerID},
		{UserID: 5, IsBlocked: false},
		{UserID: 6, IsBlocked: true},
	}

	data := callbackData(t, userListKeyboard(users, ownerID))

	require.Contains(t, data, "block_user_5")
	require.Contains(t, data, "unblock_user_6")
	require.NotContains(t, data, "block_user_1000", "the owner must not get a block button")
	require.NotContains(t, data, "unblock_user_5")
	require.NotContains(t, data, "block_user_6")
}

func TestPaymentReviewKeyboard(t *testing.T) {
	data := callbackData(t, paymentReviewKeyboard(42))

	require.Contains(t, data, "approve_payment_42")
	require.Contains(t, data, "decline_payment_42")
}

func TestOrderProgressKeyboard(t *testing.T) {
	data := callbackData(t, orderProgressKeyboard(7))

	require.Contains(t, data, "cancel_order_7")
}
