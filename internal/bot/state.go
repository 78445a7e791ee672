package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Input states for multi-step conversations.
const (
	stateDefault               = ""
	stateAwaitingDepositAmount = "awaiting_deposit_amount"
	stateAwaitingUTR           = "awaiting_utr"
	stateAwaitingAccounts      = "awaiting_accounts"
	stateAwaitingAdminID       = "awaiting_admin_id"
	stateAwaitingBroadcast     = "awaiting_broadcast"
)

// sendMessage is the unified message sender; failures are logged only.
func (b *Bot) sendMessage(chatID int64, text string, replyMarkup interface{}) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if replyMarkup != nil {
		msg.ReplyMarkup = replyMarkup
	}

	if _, err := b.API.Send(msg); err != nil {
		b.logger.Errorf("Failed to send message to %d: %v", chatID, err)
	}
}

func (b *Bot) editMessage(chatID int64, messageID int, text string, replyMarkup *tgbotapi.InlineKeyboardMarkup) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeMarkdown
	edit.ReplyMarkup = replyMarkup
	if _, err := b.API.Send(edit); err != nil {
		b.logger.Errorf("Failed to edit message %d for %d: %v", messageID, chatID, err)
	}
}

func (b *Bot) answerCallback(callbackID, text string) {
	callback := tgbotapi.NewCallback(callbackID, text)
	if _, err := b.API.Request(callback); err != nil {
		b.logger.Errorf("Failed to answer callback: %v", err)
	}
}

func (b *Bot) setState(userID int64, state string) {
	b.stateMutex.Lock()
	defer b.stateMutex.Unlock()
	if state == stateDefault {
		delete(b.userStates, userID)
		return
	}
	b.userStates[userID] = state
}

func (b *Bot) getUserState(userID int64) string {
	b.stateMutex.Lock()
	defer b.stateMutex.Unlock()
	return b.userStates[userID]
}

func (b *Bot) setUserActionData(userID int64, data string) {
	b.stateMutex.Lock()
	defer b.stateMutex.Unlock()
	b.userActionData[userID] = data
}

func (b *Bot) getUserActionData(userID int64) string {
	b.stateMutex.Lock()
	defer b.stateMutex.Unlock()
	return b.userActionData[userID]
}

func (b *Bot) clearUserActionData(userID int64) {
	b.stateMutex.Lock()
	defer b.stateMutex.Unlock()
	delete(b.userActionData, userID)
}
