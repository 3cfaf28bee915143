package bot

// Event is one inbound chat event: a Command, a ButtonPress or a TextMessage
type Event interface {
	isEvent()
}

// MessageRef points at a message the bot already sent
type MessageRef struct {
	ChatID    int64
	MessageID int
}

// Command is a slash command such as /start or /announce
type Command struct {
	Name   string
	Args   string
	UserID int64
	ChatID int64
}

// ButtonPress is a tap on an inline keyboard button
type ButtonPress struct {
	CallbackID string
	Data       string
	UserID     int64
	Message    MessageRef
}

// TextMessage is free text typed by the user
type TextMessage struct {
	Text   string
	UserID int64
	ChatID int64
}

func (Command) isEvent()     {}
func (ButtonPress) isEvent() {}
func (TextMessage) isEvent() {}
