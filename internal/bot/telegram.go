package bot

import (
	"context"
	"fmt"
	"strings"

	"storefront-bot/internal/util"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// TelegramTransport implements Transport on the Telegram Bot API
type TelegramTransport struct {
	api    *tgbotapi.BotAPI
	logger *zap.Logger
}

// NewTelegramAPI authorizes token against the Bot API
func NewTelegramAPI(token string) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	util.GetLogger().Info("Authorized on telegram", zap.String("username", api.Self.UserName))
	return api, nil
}

// NewTelegramTransport creates a transport over api
func NewTelegramTransport(api *tgbotapi.BotAPI) *TelegramTransport {
	return &TelegramTransport{api: api, logger: util.GetLogger()}
}

func markup(kb Keyboard) *tgbotapi.InlineKeyboardMarkup {
	if len(kb) == 0 {
		return nil
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(kb))
	for _, row := range kb {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			if b.URL != "" {
				buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonURL(b.Text, b.URL))
			} else {
				buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
			}
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(buttons...))
	}
	m := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &m
}

// RenderText replaces the text and keyboard of ref
func (t *TelegramTransport) RenderText(_ context.Context, ref MessageRef, text string, kb Keyboard) error {
	edit := tgbotapi.NewEditMessageText(ref.ChatID, ref.MessageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	edit.ReplyMarkup = markup(kb)

	if _, err := t.api.Request(edit); err != nil && !notModified(err) {
		// photo messages cannot be edited into text
		return t.replace(ref, func() error {
			_, err := t.SendMessage(context.Background(), Recipient{ChatID: ref.ChatID}, text, kb)
			return err
		})
	}
	return nil
}

// RenderMedia shows imageURL with caption on ref. Text messages cannot carry
// media, so they are replaced by a new photo message.
func (t *TelegramTransport) RenderMedia(_ context.Context, ref MessageRef, imageURL, caption string, kb Keyboard) error {
	media := tgbotapi.NewInputMediaPhoto(tgbotapi.FileURL(imageURL))
	media.Caption = caption
	media.ParseMode = tgbotapi.ModeHTML

	edit := tgbotapi.EditMessageMediaConfig{
		BaseEdit: tgbotapi.BaseEdit{
			ChatID:      ref.ChatID,
			MessageID:   ref.MessageID,
			ReplyMarkup: markup(kb),
		},
		Media: media,
	}

	if _, err := t.api.Request(edit); err != nil && !notModified(err) {
		return t.replace(ref, func() error {
			photo := tgbotapi.NewPhoto(ref.ChatID, tgbotapi.FileURL(imageURL))
			photo.Caption = caption
			photo.ParseMode = tgbotapi.ModeHTML
			if m := markup(kb); m != nil {
				photo.ReplyMarkup = *m
			}
			_, err := t.api.Send(photo)
			return err
		})
	}
	return nil
}

func (t *TelegramTransport) replace(ref MessageRef, send func() error) error {
	if err := send(); err != nil {
		return fmt.Errorf("failed to send replacement message: %w", err)
	}
	if _, err := t.api.Request(tgbotapi.NewDeleteMessage(ref.ChatID, ref.MessageID)); err != nil {
		t.logger.Debug("Failed to delete replaced message", zap.Int64("chat_id", ref.ChatID), zap.Error(err))
	}
	return nil
}

// SendMessage posts a new HTML message to a chat or channel
func (t *TelegramTransport) SendMessage(_ context.Context, to Recipient, text string, kb Keyboard) (MessageRef, error) {
	var msg tgbotapi.MessageConfig
	if to.Channel != "" {
		msg = tgbotapi.NewMessageToChannel(to.Channel, text)
	} else {
		msg = tgbotapi.NewMessage(to.ChatID, text)
	}
	msg.ParseMode = tgbotapi.ModeHTML
	if m := markup(kb); m != nil {
		msg.ReplyMarkup = *m
	}

	sent, err := t.api.Send(msg)
	if err != nil {
		return MessageRef{}, fmt.Errorf("failed to send message: %w", err)
	}
	ref := MessageRef{ChatID: to.ChatID, MessageID: sent.MessageID}
	if sent.Chat != nil {
		ref.ChatID = sent.Chat.ID
	}
	return ref, nil
}

// DeleteMessage removes ref from the chat
func (t *TelegramTransport) DeleteMessage(_ context.Context, ref MessageRef) error {
	if _, err := t.api.Request(tgbotapi.NewDeleteMessage(ref.ChatID, ref.MessageID)); err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}

// AnswerCallback acknowledges a button press, optionally with a toast
func (t *TelegramTransport) AnswerCallback(_ context.Context, callbackID, text string) error {
	if callbackID == "" {
		return nil
	}
	_, err := t.api.Request(tgbotapi.NewCallback(callbackID, text))
	return err
}

// Notify sends plain text to chatID
func (t *TelegramTransport) Notify(_ context.Context, chatID int64, text string) error {
	if _, err := t.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	return nil
}

func notModified(err error) bool {
	return strings.Contains(err.Error(), "message is not modified")
}
