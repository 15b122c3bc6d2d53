package model

import (
	"encoding/json"
	"time"
)

// PendingNotification is one fired event queued for a future digest.
// Rows are append-only and deleted in bulk once included in a sent digest.
type PendingNotification struct {
	ID               int64
	UserID           int64
	NotificationType string
	Channel          string
	// NotificationKind is the type tag of the original notification
	// (e.g. "NotifyCommentCreated"), used to rebuild its rendering.
	NotificationKind string
	// Payload holds the original event's arguments as an opaque JSON blob.
	Payload   json.RawMessage
	CreatedAt time.Time
}
