package bot

import (
	"context"
	"sync"
	"time"

	"storefront-bot/internal/util"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const handleTimeout = 30 * time.Second

// Poller long-polls Telegram for updates and dispatches each one on its own
// goroutine. Ordering per user is enforced by the session registry.
type Poller struct {
	api        *tgbotapi.BotAPI
	dispatcher *Dispatcher
	logger     *zap.Logger
	wg         sync.WaitGroup
}

// NewPoller creates a poller
func NewPoller(api *tgbotapi.BotAPI, dispatcher *Dispatcher) *Poller {
	return &Poller{api: api, dispatcher: dispatcher, logger: util.GetLogger()}
}

// Run polls until ctx is cancelled, then waits for in-flight events
func (p *Poller) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := p.api.GetUpdatesChan(u)
	p.logger.Info("Polling for telegram updates")

	for {
		select {
		case <-ctx.Done():
			p.api.StopReceivingUpdates()
			p.wg.Wait()
			return nil
		case update, ok := <-updates:
			if !ok {
				p.wg.Wait()
				return nil
			}
			ev := toEvent(update)
			if ev == nil {
				continue
			}

			p.wg.Add(1)
			go func() {
				defer p.wg.Done()
				// in-flight events finish even after shutdown starts
				hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), handleTimeout)
				defer cancel()
				p.dispatcher.Dispatch(hctx, ev)
			}()
		}
	}
}

// toEvent converts an update into an Event, or nil for updates the bot ignores
func toEvent(update tgbotapi.Update) Event {
	if cb := update.CallbackQuery; cb != nil && cb.From != nil {
		ev := ButtonPress{CallbackID: cb.ID, Data: cb.Data, UserID: cb.From.ID}
		if cb.Message != nil && cb.Message.Chat != nil {
			ev.Message = MessageRef{ChatID: cb.Message.Chat.ID, MessageID: cb.Message.MessageID}
		}
		return ev
	}

	msg := update.Message
	if msg == nil || msg.From == nil || msg.Chat == nil {
		return nil
	}
	if msg.IsCommand() {
		return Command{
			Name:   msg.Command(),
			Args:   msg.CommandArguments(),
			UserID: msg.From.ID,
			ChatID: msg.Chat.ID,
		}
	}
	if msg.Text == "" {
		return nil
	}
	return TextMessage{Text: msg.Text, UserID: msg.From.ID, ChatID: msg.Chat.ID}
}
