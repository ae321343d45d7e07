// Package dto contains data transfer objects for the Facebook webhook and
// Graph API surfaces. Separating DTOs from handlers prevents import cycles.
package dto

// WebhookPayload is the top-level delivery payload from Facebook.
// Ref: https://developers.facebook.com/docs/messenger-platform/webhooks
type WebhookPayload struct {
	Object string  `json:"object"` // "page" for Messenger deliveries
	Entry  []Entry `json:"entry"`
}

// Entry carries one page's events within a delivery.
type Entry struct {
	ID        string           `json:"id"` // page id
	Time      int64            `json:"time"`
	Messaging []MessagingEvent `json:"messaging"`
}

// MessagingEvent is a single event: a message, an echo, a delivery receipt or
// a read receipt. Only genuine user messages are ingested.
type MessagingEvent struct {
	Sender    Party  `json:"sender"`
	Recipient Party  `json:"recipient"`
	Timestamp int64  `json:"timestamp"`

	Message  *MessageEvent  `json:"message,omitempty"`
	Delivery *DeliveryEvent `json:"delivery,omitempty"`
	Read     *ReadEvent     `json:"read,omitempty"`
}

// Party is a sender or recipient, identified by a page-scoped id (PSID).
type Party struct {
	ID string `json:"id"`
}

// MessageEvent is the message body of a messaging event.
type MessageEvent struct {
	MID    string `json:"mid"`
	Text   string `json:"text"`
	IsEcho bool   `json:"is_echo,omitempty"` // set when the page itself sent the message
}

// DeliveryEvent is a delivery receipt.
type DeliveryEvent struct {
	MIDs      []string `json:"mids"`
	Watermark int64    `json:"watermark"`
}

// ReadEvent is a read receipt.
type ReadEvent struct {
	Watermark int64 `json:"watermark"`
}

// IsUserMessage reports whether this event is an actual inbound user message,
// as opposed to an echo, delivery receipt or read receipt.
func (m *MessagingEvent) IsUserMessage() bool {
	if m.Message == nil {
		return false
	}
	if m.Message.IsEcho {
		return false
	}
	if m.Delivery != nil || m.Read != nil {
		return false
	}
	return true
}

// MessageID extracts the platform message id, used for redelivery dedup.
func (m *MessagingEvent) MessageID() string {
	if m.Message != nil {
		return m.Message.MID
	}
	return ""
}

// UserProfile is the Graph API profile of a Messenger user, fetched with a
// page access token.
type UserProfile struct {
	ID         string `json:"id"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	ProfilePic string `json:"profile_pic"`
}

// FullName joins the profile's name fields the way customer records store them.
func (p *UserProfile) FullName() string {
	return p.FirstName + " " + p.LastName
}

// SendResponse is the Graph API envelope returned by POST /me/messages.
type SendResponse struct {
	RecipientID string `json:"recipient_id"`
	MessageID   string `json:"message_id"`
}

// Page is one entry of GET /me/accounts.
type Page struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
