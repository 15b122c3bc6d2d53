package digest

import (
	"encoding/json"

	"notisub/internal/model"
)

// UpdateNotification is the generic kind: a title and message rendered as a
// single summary line.
type UpdateNotification struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

func (n *UpdateNotification) Summary() Summary {
	return Summary{Title: n.Title, Message: n.Message}
}

// AnnouncementNotification renders as a structured block with a heading, a
// highlighted body and a call-to-action button.
type AnnouncementNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url"`
}

func (n *AnnouncementNotification) ComposeDigest(recipient *model.User, m *Message) {
	m.Heading(n.Title, 2).
		Panel(n.Body)
	if n.URL != "" {
		m.Button("View details", n.URL, "primary")
	}
}

// ReminderNotification renders as one short line.
type ReminderNotification struct {
	Text string `json:"text"`
}

func (n *ReminderNotification) DigestText(recipient *model.User) string {
	return n.Text
}

// DefaultKinds returns the registry of built-in notification kinds. Payloads
// with unknown kinds fall back to the default summary line.
func DefaultKinds() *KindRegistry {
	r := NewKindRegistry()
	r.Register("Update", func(payload json.RawMessage) (any, error) {
		var n UpdateNotification
		if err := json.Unmarshal(payload, &n); err != nil {
			return nil, err
		}
		return &n, nil
	})
	r.Register("Announcement", func(payload json.RawMessage) (any, error) {
		var n AnnouncementNotification
		if err := json.Unmarshal(payload, &n); err != nil {
			return nil, err
		}
		return &n, nil
	})
	r.Register("Reminder", func(payload json.RawMessage) (any, error) {
		var n ReminderNotification
		if err := json.Unmarshal(payload, &n); err != nil {
			return nil, err
		}
		return &n, nil
	})
	return r
}
