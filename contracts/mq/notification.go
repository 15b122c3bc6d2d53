package mq

import (
	"encoding/json"
	"time"
)

// NotificationFiredPayload is published by event producers on the
// "notification.fired" routing key and consumed by the dispatch worker.
type NotificationFiredPayload struct {
	EventID string          `json:"event_id"`
	Type    string          `json:"type"` // subscription type key, e.g. "comment.created"
	Kind    string          `json:"kind"` // concrete notification kind, e.g. "NotifyCommentCreated"
	Args    json.RawMessage `json:"args,omitempty"`
	FiredAt time.Time       `json:"fired_at"`
}

// DigestSentPayload is written to the outbox inside the digest flush
// transaction and relayed on "digest.sent".
type DigestSentPayload struct {
	SubscriptionID int64     `json:"subscription_id"`
	UserID         int64     `json:"user_id"`
	Type           string    `json:"type"`
	Channel        string    `json:"channel"`
	ItemCount      int       `json:"item_count"`
	SentAt         time.Time `json:"sent_at"`
}

// SMSSendPayload is handed off on "sms.send" to the downstream SMS gateway.
type SMSSendPayload struct {
	UserID int64  `json:"user_id"`
	Phone  string `json:"phone"`
	Text   string `json:"text"`
}
