package domain

import "time"

// CommandContext carries everything a command needs about the triggering
// message. It is created per inbound message and never shared.
type CommandContext struct {
	Room        string
	RoomName    string
	Sender      string
	IsGroupChat bool
	Message     string
	MessageID   string
	Platform    string
	Elements    []Element
	Timestamp   time.Time
}

func NewCommandContext(room, roomName, sender, message string, isGroupChat bool) *CommandContext {
	return &CommandContext{
		Room:        room,
		RoomName:    roomName,
		Sender:      sender,
		IsGroupChat: isGroupChat,
		Message:     message,
		Timestamp:   time.Now(),
	}
}

// WithMessage attaches the source message id, platform and parsed elements.
func (c *CommandContext) WithMessage(messageID, platform string, elements []Element) *CommandContext {
	c.MessageID = messageID
	c.Platform = platform
	c.Elements = elements
	return c
}
