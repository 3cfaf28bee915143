package bot

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownPayload is returned for callback data the bot never produced
var ErrUnknownPayload = errors.New("unknown callback payload")

// Action is the decoded meaning of a button
type Action int

const (
	ActionMenuMain Action = iota + 1
	ActionMenuOrder
	ActionMenuPromos
	ActionMenuOrders
	ActionMenuSupport
	ActionPromoPrev
	ActionPromoNext
	ActionProduct
	ActionOption
	ActionDiscount
	ActionNoDiscount
	ActionConfirm
)

var fixedPayloads = map[Action]string{
	ActionMenuMain:    "menu:main",
	ActionMenuOrder:   "menu:order",
	ActionMenuPromos:  "menu:promos",
	ActionMenuOrders:  "menu:orders",
	ActionMenuSupport: "menu:support",
	ActionPromoPrev:   "promo:prev",
	ActionPromoNext:   "promo:next",
	ActionDiscount:    "wiz:discount",
	ActionNoDiscount:  "wiz:nodiscount",
	ActionConfirm:     "wiz:confirm",
}

var fixedActions = func() map[string]Action {
	m := make(map[string]Action, len(fixedPayloads))
	for a, s := range fixedPayloads {
		m[s] = a
	}
	return m
}()

// Payload is the structured content of a button's callback data.
// Option buttons carry their category so a press on a stale step is detected.
type Payload struct {
	Action    Action
	ProductID string
	Category  string
	OptionID  string
}

// Encode renders p as callback data
func (p Payload) Encode() string {
	switch p.Action {
	case ActionProduct:
		return "product:" + p.ProductID
	case ActionOption:
		return "opt:" + p.Category + ":" + p.OptionID
	default:
		return fixedPayloads[p.Action]
	}
}

// DecodePayload parses callback data produced by Encode
func DecodePayload(data string) (Payload, error) {
	if a, ok := fixedActions[data]; ok {
		return Payload{Action: a}, nil
	}

	kind, rest, _ := strings.Cut(data, ":")
	switch kind {
	case "product":
		if rest != "" {
			return Payload{Action: ActionProduct, ProductID: rest}, nil
		}
	case "opt":
		category, option, ok := strings.Cut(rest, ":")
		if ok && category != "" && option != "" {
			return Payload{Action: ActionOption, Category: category, OptionID: option}, nil
		}
	}
	return Payload{}, fmt.Errorf("%w: %q", ErrUnknownPayload, data)
}
