package bot

import (
	"context"
	"errors"
	"fmt"

	"storefront-bot/internal/catalog"
	"storefront-bot/internal/models"
	"storefront-bot/internal/promo"
	"storefront-bot/internal/session"
	"storefront-bot/internal/util"
	"storefront-bot/internal/wizard"

	"go.uber.org/zap"
)

// Orders is the customer-facing order service
type Orders interface {
	Confirm(ctx context.Context, userID int64, w *wizard.Wizard) (models.OrderRecord, error)
	ListOrders(ctx context.Context, userID int64) ([]models.OrderRecord, error)
}

// Admin is the privileged order service
type Admin interface {
	Authorize(userID int64) error
	ListAll(ctx context.Context) (map[int64][]models.OrderRecord, error)
	UpdateStatus(ctx context.Context, updatedBy, userID int64, orderNumber int, status string) error
}

// Products lists the products offered in the order menu
type Products interface {
	Products() []*models.Product
}

// Dispatcher routes inbound events to the user's session and renders the
// result through the transport
type Dispatcher struct {
	transport Transport
	sessions  *session.Registry
	products  Products
	orders    Orders
	admin     Admin
	links     Links
	broadcast Recipient
	logger    *zap.Logger
}

// NewDispatcher creates a dispatcher
func NewDispatcher(
	transport Transport,
	sessions *session.Registry,
	products Products,
	orders Orders,
	admin Admin,
	links Links,
	broadcast Recipient,
) *Dispatcher {
	return &Dispatcher{
		transport: transport,
		sessions:  sessions,
		products:  products,
		orders:    orders,
		admin:     admin,
		links:     links,
		broadcast: broadcast,
		logger:    util.GetLogger(),
	}
}

// Dispatch handles one event
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) {
	switch e := ev.(type) {
	case Command:
		util.WizardEventsTotal.WithLabelValues("command").Inc()
		d.handleCommand(ctx, e)
	case ButtonPress:
		util.WizardEventsTotal.WithLabelValues("button").Inc()
		d.handleButton(ctx, e)
	case TextMessage:
		util.WizardEventsTotal.WithLabelValues("text").Inc()
		d.handleText(ctx, e)
	default:
		d.logger.Warn("Unhandled event", zap.String("type", fmt.Sprintf("%T", ev)))
	}
}

func (d *Dispatcher) handleCommand(ctx context.Context, c Command) {
	switch c.Name {
	case "start":
		d.withSession(c.UserID, func(s *session.Session) error {
			d.cancelWizard(s)
			return d.send(ctx, c.ChatID, mainMenuText, mainMenuKeyboard())
		})
	case "cancel":
		d.withSession(c.UserID, func(s *session.Session) error {
			if d.cancelWizard(s) {
				if err := d.send(ctx, c.ChatID, cancelledText, nil); err != nil {
					return err
				}
			}
			return d.send(ctx, c.ChatID, mainMenuText, mainMenuKeyboard())
		})
	case "announce":
		d.announce(ctx, c)
	case "view_all_orders":
		d.viewAllOrders(ctx, c)
	case "update_order_status":
		d.updateOrderStatus(ctx, c)
	default:
		d.reply(ctx, c.ChatID, unknownCommandText)
	}
}

func (d *Dispatcher) handleButton(ctx context.Context, b ButtonPress) {
	p, err := DecodePayload(b.Data)
	if err != nil {
		util.RejectedEventsTotal.WithLabelValues("payload").Inc()
		d.logger.Debug("Rejected button", zap.Int64("user_id", b.UserID), zap.Error(err))
		d.answer(ctx, b.CallbackID, staleButtonText)
		return
	}

	var notice string
	d.withSession(b.UserID, func(s *session.Session) error {
		var err error
		notice, err = d.press(ctx, s, b, p)
		return err
	})
	d.answer(ctx, b.CallbackID, notice)
}

// press handles a decoded button for the session and returns the notice to
// show on the callback answer
func (d *Dispatcher) press(ctx context.Context, s *session.Session, b ButtonPress, p Payload) (string, error) {
	ref := b.Message

	switch p.Action {
	case ActionMenuMain:
		d.cancelWizard(s)
		if err := d.transport.DeleteMessage(ctx, ref); err != nil {
			d.logger.Warn("Failed to delete message", zap.Int64("user_id", s.UserID), zap.Error(err))
		}
		return "", d.send(ctx, ref.ChatID, mainMenuText, mainMenuKeyboard())

	case ActionMenuOrder:
		d.cancelWizard(s)
		return "", d.transport.RenderText(ctx, ref, orderMenuText, productKeyboard(d.products.Products()))

	case ActionMenuPromos:
		return "", d.renderPromo(ctx, ref, s.Promo)

	case ActionPromoPrev:
		s.Promo.Advance(promo.Prev)
		return "", d.renderPromo(ctx, ref, s.Promo)

	case ActionPromoNext:
		s.Promo.Advance(promo.Next)
		return "", d.renderPromo(ctx, ref, s.Promo)

	case ActionMenuOrders:
		records, err := d.orders.ListOrders(ctx, s.UserID)
		if err != nil {
			d.logger.Error("Failed to list orders", zap.Int64("user_id", s.UserID), zap.Error(err))
			return genericErrorText, nil
		}
		return "", d.transport.RenderText(ctx, ref, userOrdersText(records), backKeyboard())

	case ActionMenuSupport:
		return "", d.transport.RenderText(ctx, ref, supportText(d.links.Support), backKeyboard())

	case ActionProduct, ActionOption, ActionDiscount, ActionNoDiscount, ActionConfirm:
		return d.pressWizard(ctx, s, ref, p)

	default:
		return staleButtonText, nil
	}
}

// pressWizard applies a wizard button. Buttons that are not valid for the
// wizard's current stage are rejected and the current step is shown again.
func (d *Dispatcher) pressWizard(ctx context.Context, s *session.Session, ref MessageRef, p Payload) (string, error) {
	w := s.Wizard

	var err error
	switch stage := w.Stage(); stage {
	case wizard.StageIdle:
		if p.Action != ActionProduct {
			err = rejected(stage, p)
			break
		}
		err = w.StartFlow(p.ProductID)

	case wizard.StageSelectingOption:
		if p.Action != ActionOption {
			err = rejected(stage, p)
			break
		}
		category, cerr := w.CurrentCategory()
		if cerr != nil {
			err = cerr
			break
		}
		if category.Name != p.Category {
			err = fmt.Errorf("%w: button for %s while choosing %s", wizard.ErrInvalidOption, p.Category, category.Name)
			break
		}
		err = w.SelectOption(p.OptionID)

	case wizard.StageAwaitingConfirmation:
		switch p.Action {
		case ActionDiscount:
			err = w.RequestDiscount()
		case ActionNoDiscount:
			err = w.SkipDiscount()
		case ActionConfirm:
			return d.confirm(ctx, s, ref)
		default:
			err = rejected(stage, p)
		}

	case wizard.StageAwaitingDiscount:
		if p.Action != ActionNoDiscount {
			err = rejected(stage, p)
			break
		}
		err = w.SkipDiscount()

	default:
		err = rejected(stage, p)
	}

	if err != nil {
		return d.reject(ctx, s, ref, err)
	}
	return "", d.renderWizard(ctx, ref, w)
}

func rejected(stage wizard.Stage, p Payload) error {
	return fmt.Errorf("%w: %s in stage %s", wizard.ErrInvalidTransition, p.Encode(), stage)
}

func (d *Dispatcher) reject(ctx context.Context, s *session.Session, ref MessageRef, err error) (string, error) {
	reason := "transition"
	switch {
	case errors.Is(err, wizard.ErrInvalidOption):
		reason = "option"
	case errors.Is(err, catalog.ErrUnknownProduct):
		reason = "product"
	}
	util.RejectedEventsTotal.WithLabelValues(reason).Inc()
	d.logger.Debug("Rejected wizard event",
		zap.Int64("user_id", s.UserID),
		zap.String("stage", s.Wizard.Stage().String()),
		zap.Error(err))

	if s.Wizard.Stage() == wizard.StageIdle {
		return staleButtonText, d.transport.RenderText(ctx, ref, orderMenuText, productKeyboard(d.products.Products()))
	}
	return staleButtonText, d.renderWizard(ctx, ref, s.Wizard)
}

func (d *Dispatcher) confirm(ctx context.Context, s *session.Session, ref MessageRef) (string, error) {
	rec, err := d.orders.Confirm(ctx, s.UserID, s.Wizard)
	if err != nil {
		if errors.Is(err, wizard.ErrInvalidTransition) {
			return d.reject(ctx, s, ref, err)
		}
		d.logger.Error("Order confirmation failed", zap.Int64("user_id", s.UserID), zap.Error(err))
		return orderSaveFailedText, d.send(ctx, ref.ChatID, orderSaveFailedText, nil)
	}

	if err := d.transport.RenderText(ctx, ref, confirmedSummaryText(rec), nil); err != nil {
		d.logger.Warn("Failed to update confirmed summary",
			zap.Int64("user_id", rec.UserID),
			zap.Int("order_number", rec.OrderNumber),
			zap.Error(err))
	}
	return "", d.send(ctx, ref.ChatID, orderConfirmedText(rec, d.links.OrderForm), nil)
}

func (d *Dispatcher) handleText(ctx context.Context, m TextMessage) {
	d.withSession(m.UserID, func(s *session.Session) error {
		w := s.Wizard

		switch w.Stage() {
		case wizard.StageAwaitingDiscount:
			amount, err := w.SubmitDiscountCode(m.Text)
			if errors.Is(err, wizard.ErrInvalidDiscountCode) {
				util.DiscountAttemptsTotal.WithLabelValues("invalid").Inc()
				return d.send(ctx, m.ChatID, invalidDiscountText, nil)
			}
			if err != nil {
				return err
			}
			util.DiscountAttemptsTotal.WithLabelValues("applied").Inc()

			code, _ := w.Discount()
			if err := d.send(ctx, m.ChatID, fmt.Sprintf(discountAppliedText, code, models.FormatDelta(amount.Neg())), nil); err != nil {
				return err
			}
			text, kb, err := wizardScreen(w)
			if err != nil {
				return err
			}
			return d.send(ctx, m.ChatID, text, kb)

		case wizard.StageIdle, wizard.StageSelectingOption, wizard.StageAwaitingConfirmation:
			return d.send(ctx, m.ChatID, mainMenuText, mainMenuKeyboard())

		default:
			return fmt.Errorf("unexpected stage %s", w.Stage())
		}
	})
}

func (d *Dispatcher) renderWizard(ctx context.Context, ref MessageRef, w *wizard.Wizard) error {
	text, kb, err := wizardScreen(w)
	if err != nil {
		return err
	}
	if w.Stage() == wizard.StageIdle {
		kb = productKeyboard(d.products.Products())
	}
	return d.transport.RenderText(ctx, ref, text, kb)
}

func (d *Dispatcher) renderPromo(ctx context.Context, ref MessageRef, cursor *promo.Cursor) error {
	current, ok := cursor.Current()
	if !ok {
		return d.transport.RenderText(ctx, ref, noPromosText, backKeyboard())
	}
	return d.transport.RenderMedia(ctx, ref, current.Image, promoCaption(cursor.Caption()), promoKeyboard())
}

// cancelWizard resets an active wizard and reports whether one was active
func (d *Dispatcher) cancelWizard(s *session.Session) bool {
	if s.Wizard.Stage() == wizard.StageIdle {
		return false
	}
	s.Wizard.Cancel()
	util.OrdersCancelledTotal.Inc()
	return true
}

func (d *Dispatcher) withSession(userID int64, fn func(*session.Session) error) {
	if err := d.sessions.With(userID, fn); err != nil {
		d.logger.Error("Failed to handle event", zap.Int64("user_id", userID), zap.Error(err))
	}
}

func (d *Dispatcher) send(ctx context.Context, chatID int64, text string, kb Keyboard) error {
	_, err := d.transport.SendMessage(ctx, Recipient{ChatID: chatID}, text, kb)
	return err
}

func (d *Dispatcher) reply(ctx context.Context, chatID int64, text string) {
	if err := d.send(ctx, chatID, text, nil); err != nil {
		d.logger.Error("Failed to send reply", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (d *Dispatcher) answer(ctx context.Context, callbackID, text string) {
	if err := d.transport.AnswerCallback(ctx, callbackID, text); err != nil {
		d.logger.Debug("Failed to answer callback", zap.Error(err))
	}
}
