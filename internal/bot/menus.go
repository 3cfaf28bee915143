package bot

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"storefront-bot/internal/models"
	"storefront-bot/internal/wizard"
)

const (
	mainMenuText  = "<b>Welcome to FrameCube SG's Store! ☀️</b>\n\nPlace an order, check out our promos, view your orders, or contact support here."
	orderMenuText = "<b>🛒 Order 🛒</b>\n\nBrowse our products and place an order here!"

	orderButton        = "🛒 Place an Order"
	promosButton       = "🎉 View Ongoing Promos"
	viewOrdersButton   = "📦 View your Orders"
	supportButton      = "📞 Contact Support"
	arrowLeftButton    = "⬅️"
	arrowRightButton   = "➡️"
	backButton         = "Back to Main Menu"
	applyDiscountBtn   = "Apply Discount"
	noDiscountButton   = "NONE"
	confirmOrderButton = "Confirm Order"
	visitShopButton    = "Visit our shop"

	notAuthorizedText   = "An error was encountered when running this command. If you think this is a mistake, contact the bot's owner with error code: NOT_AUTHORIZED"
	invalidDiscountText = "Invalid discount code. Please try again."
	discountAppliedText = "Discount code %s applied (%s)."
	noOrdersText        = "You have no orders."
	noOrdersAdminText   = "There are no orders yet."
	orderSaveFailedText = "Sorry, we could not save your order. Please try again in a moment."
	genericErrorText    = "Something went wrong. Please try again."
	staleButtonText     = "That option is no longer available."
	noPromosText        = "There are no ongoing promos right now."
	unknownCommandText  = "Unknown command. Use /start to open the menu."
	cancelledText       = "Your order has been cancelled."

	updateUsageText       = "Usage: /update_order_status <user_id> <order_number> <new_status>"
	announceUsageText     = "Usage: /announce <message>"
	invalidOrderIndexText = "Invalid order index."
	userHasNoOrdersText   = "User has no orders."
	statusUpdatedText     = "Order status updated successfully."
	announcedText         = "Announcement sent."
	noChannelText         = "No broadcast channel is configured."

	discountPrompt = "Send your discount code as a message, or click \"NONE\"."
	confirmPrompt  = "Apply a discount code, or confirm your order. Return to main menu to cancel."

	timestampLayout = "2006-01-02 15:04:05 MST"
	maxMessageLen   = 4000
)

// Links are the external URLs shown by the bot
type Links struct {
	Shop      string
	Support   string
	OrderForm string
}

func mainMenuKeyboard() Keyboard {
	return Keyboard{
		{{Text: orderButton, Data: Payload{Action: ActionMenuOrder}.Encode()}},
		{{Text: promosButton, Data: Payload{Action: ActionMenuPromos}.Encode()}},
		{{Text: viewOrdersButton, Data: Payload{Action: ActionMenuOrders}.Encode()}},
		{{Text: supportButton, Data: Payload{Action: ActionMenuSupport}.Encode()}},
	}
}

func backRow() []Button {
	return []Button{{Text: backButton, Data: Payload{Action: ActionMenuMain}.Encode()}}
}

func backKeyboard() Keyboard {
	return Keyboard{backRow()}
}

func promoKeyboard() Keyboard {
	return Keyboard{{
		{Text: arrowLeftButton, Data: Payload{Action: ActionPromoPrev}.Encode()},
		{Text: arrowRightButton, Data: Payload{Action: ActionPromoNext}.Encode()},
		{Text: backButton, Data: Payload{Action: ActionMenuMain}.Encode()},
	}}
}

func productKeyboard(products []*models.Product) Keyboard {
	kb := make(Keyboard, 0, len(products)+1)
	for _, p := range products {
		label := fmt.Sprintf("%s (Starting at %s)", p.Name, models.FormatAmount(p.BasePrice))
		kb = append(kb, []Button{{Text: label, Data: Payload{Action: ActionProduct, ProductID: p.ID}.Encode()}})
	}
	return append(kb, backRow())
}

func optionKeyboard(category *models.OptionCategory) Keyboard {
	kb := make(Keyboard, 0, len(category.Options)+1)
	for _, opt := range category.Options {
		label := fmt.Sprintf("%s (%s)", opt.Name, models.FormatDelta(opt.Delta))
		data := Payload{Action: ActionOption, Category: category.Name, OptionID: opt.ID}.Encode()
		kb = append(kb, []Button{{Text: label, Data: data}})
	}
	return append(kb, backRow())
}

func confirmKeyboard() Keyboard {
	return Keyboard{
		{
			{Text: applyDiscountBtn, Data: Payload{Action: ActionDiscount}.Encode()},
			{Text: noDiscountButton, Data: Payload{Action: ActionNoDiscount}.Encode()},
		},
		{{Text: confirmOrderButton, Data: Payload{Action: ActionConfirm}.Encode()}},
		backRow(),
	}
}

func discountKeyboard() Keyboard {
	return Keyboard{
		{{Text: noDiscountButton, Data: Payload{Action: ActionNoDiscount}.Encode()}},
		backRow(),
	}
}

func shopKeyboard(shopURL string) Keyboard {
	if shopURL == "" {
		return nil
	}
	return Keyboard{{{Text: visitShopButton, URL: shopURL}}}
}

func supportText(supportURL string) string {
	text := "<b>📞 Contact Support 📞</b>\n\nContact our support team for assistance."
	if supportURL != "" {
		text += fmt.Sprintf("\n\nWe are working hard to bring seamless live support into our bot. In the meantime, feel free to drop us a DM <a href=\"%s\">here</a>.",
			html.EscapeString(supportURL))
	}
	return text
}

func promoCaption(caption string) string {
	return "<b>" + html.EscapeString(caption) + "</b>"
}

// wizardScreen projects the wizard's stage onto message text and keyboard
func wizardScreen(w *wizard.Wizard) (string, Keyboard, error) {
	d := w.Draft()

	switch stage := w.Stage(); stage {
	case wizard.StageSelectingOption:
		category, err := w.CurrentCategory()
		if err != nil {
			return "", nil, err
		}
		return html.EscapeString(d.Summary()) + "\n\n" + html.EscapeString(category.Prompt), optionKeyboard(category), nil

	case wizard.StageAwaitingConfirmation:
		return html.EscapeString(d.Summary()) + "\n\n" + confirmPrompt, confirmKeyboard(), nil

	case wizard.StageAwaitingDiscount:
		d.Complete = false
		return html.EscapeString(d.Summary()) + "\n\n" + discountPrompt, discountKeyboard(), nil

	case wizard.StageIdle:
		return orderMenuText, nil, nil

	default:
		return "", nil, fmt.Errorf("no screen for stage %s", stage)
	}
}

func formatOrder(rec models.OrderRecord) string {
	return fmt.Sprintf("[%d / ORDER ID: %d-%d] %s\nTimestamp: %s\nStatus: %s",
		rec.OrderNumber, rec.UserID, rec.OrderNumber,
		html.EscapeString(rec.Summary),
		rec.CreatedAt.UTC().Format(timestampLayout),
		html.EscapeString(rec.Status))
}

// userOrdersText lists the most recent orders that fit in one message
func userOrdersText(records []models.OrderRecord) string {
	if len(records) == 0 {
		return noOrdersText
	}

	const header = "Your orders:\n"
	blocks := make([]string, 0, len(records))
	size := len(header)
	for i := len(records) - 1; i >= 0; i-- {
		block := formatOrder(records[i]) + "\n\n"
		if size+len(block) > maxMessageLen && len(blocks) > 0 {
			break
		}
		size += len(block)
		blocks = append(blocks, block)
	}

	var b strings.Builder
	b.WriteString(header)
	for i := len(blocks) - 1; i >= 0; i-- {
		b.WriteString(blocks[i])
	}
	return strings.TrimRight(b.String(), "\n")
}

// allOrdersMessages renders every user's orders, split into messages that
// fit the platform's size limit
func allOrdersMessages(byUser map[int64][]models.OrderRecord) []string {
	if len(byUser) == 0 {
		return []string{noOrdersAdminText}
	}

	users := make([]int64, 0, len(byUser))
	for id := range byUser {
		users = append(users, id)
	}
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })

	var blocks []string
	for _, id := range users {
		blocks = append(blocks, fmt.Sprintf("<b>User %d</b>", id))
		for _, rec := range byUser[id] {
			blocks = append(blocks, formatOrder(rec))
		}
	}
	return pack("All orders:", blocks)
}

func pack(header string, blocks []string) []string {
	var msgs []string
	cur := header
	for i, block := range blocks {
		// the header always travels with the first block
		if i > 0 && len(cur)+2+len(block) > maxMessageLen {
			msgs = append(msgs, cur)
			cur = block
			continue
		}
		cur += "\n\n" + block
	}
	return append(msgs, cur)
}

func confirmedSummaryText(rec models.OrderRecord) string {
	return fmt.Sprintf("%s\nTimestamp: %s\nStatus: %s",
		html.EscapeString(rec.Summary),
		rec.CreatedAt.UTC().Format(timestampLayout),
		html.EscapeString(rec.Status))
}

func orderConfirmedText(rec models.OrderRecord, formURL string) string {
	text := fmt.Sprintf("ORDER ID: [%d-%d] Your order has been confirmed! 🎉", rec.UserID, rec.OrderNumber)
	if formURL != "" {
		text += fmt.Sprintf(" For added security purposes, please complete your order by submitting your personal information through the link by clicking <a href=\"%s\">here</a>.",
			html.EscapeString(formURL))
	}
	return text + " Once your order has been processed, a confirmation message and payment request will be sent to you. Thank you for placing an order with us!"
}
