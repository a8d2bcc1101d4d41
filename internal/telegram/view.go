package telegram

import (
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// chatView renders form updates as chat messages. The submit control and
// result region have no chat equivalent beyond the messages themselves.
type chatView struct {
	bot    Bot
	chatID int64
}

func (v *chatView) ShowPreview(dataURL string) { v.send(previewText) }

func (v *chatView) ShowPreviewWarning(message string) { v.send(message) }

func (v *chatView) SetLoading(visible bool) {
	if !visible {
		return
	}
	// sendChatAction replies with a bare boolean, so it goes through Request.
	if _, err := v.bot.Request(tgbotapi.NewChatAction(v.chatID, tgbotapi.ChatTyping)); err != nil {
		slog.Warn("Failed to send chat action", "chat_id", v.chatID, "err", err)
	}
}

func (v *chatView) HideResult() {}

func (v *chatView) ShowResult(text string) { v.send(text) }

func (v *chatView) SetSubmit(enabled bool, label string) {}

func (v *chatView) Alert(message string) { v.send(message) }

func (v *chatView) send(text string) {
	if _, err := v.bot.Send(tgbotapi.NewMessage(v.chatID, text)); err != nil {
		slog.Error("Failed to send telegram message", "chat_id", v.chatID, "err", err)
	}
}
