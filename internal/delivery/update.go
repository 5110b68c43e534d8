package delivery

import (
	"time"

	"github.com/google/uuid"
)

// Method tags what kind of update a payload carries.
type Method string

const (
	MethodMessage Method = "message"
	MethodPixels  Method = "pixels"
	MethodCancel  Method = "cancel"
	MethodClip    Method = "clip"
)

// PixelEvent is one discrete item for pixel-display clients.
type PixelEvent struct {
	Text string `json:"text"`
	Icon string `json:"icon,omitempty"`
}

// Update is the payload pushed to a subscriber.
type Update struct {
	Method    Method       `json:"method"`
	EventID   string       `json:"eventId,omitempty"`
	Message   string       `json:"message,omitempty"`
	Pixels    []PixelEvent `json:"pixels,omitempty"`
	Icon      string       `json:"icon,omitempty"`
	Group     string       `json:"group,omitempty"`
	MessageID string       `json:"messageId,omitempty"`
	ClipURL   string       `json:"clipUrl,omitempty"`
	SentAt    time.Time    `json:"sentAt"`
}

// NewMessage builds a text update.
func NewMessage(eventID, message, icon string) Update {
	return Update{
		Method:    MethodMessage,
		EventID:   eventID,
		Message:   message,
		Icon:      icon,
		MessageID: uuid.NewString(),
	}
}

// NewPixels builds a pixel-event update.
func NewPixels(eventID string, pixels []PixelEvent) Update {
	return Update{
		Method:    MethodPixels,
		EventID:   eventID,
		Pixels:    pixels,
		MessageID: uuid.NewString(),
	}
}

// NewCancel builds the notice sent to webhook clients when they are dropped.
func NewCancel(eventID, message string) Update {
	return Update{
		Method:    MethodCancel,
		EventID:   eventID,
		Message:   message,
		MessageID: uuid.NewString(),
	}
}

// NewClip builds a goal clip update.
func NewClip(eventID, message, clipURL string) Update {
	return Update{
		Method:    MethodClip,
		EventID:   eventID,
		Message:   message,
		ClipURL:   clipURL,
		Icon:      "goal",
		MessageID: uuid.NewString(),
	}
}

// For addresses a copy of u to the client's group.
func (u Update) For(c Client) Update {
	u.Group = c.Group
	return u
}
