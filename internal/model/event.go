package model

import (
	"encoding/json"
	"time"
)

// Event is one firing of a notification type, as handed to the dispatch
// path by a producer.
type Event struct {
	// ID is the producer-assigned event id, used for consumer-side dedup.
	ID string
	// Type is the subscription type key (e.g. "comment.created").
	Type string
	// Kind is the concrete notification kind tag (e.g. "NotifyCommentCreated").
	Kind string
	// Args carries the notification's constructor-style arguments.
	Args    json.RawMessage
	FiredAt time.Time
}
