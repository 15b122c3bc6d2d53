package transport

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"notisub/internal/digest"
	"notisub/internal/model"
)

type inAppStore interface {
	Insert(ctx context.Context, userID int64, title, summary string, data json.RawMessage) (int64, error)
}

// DatabaseTransport writes digests into the in-app notification feed.
type DatabaseTransport struct {
	store  inAppStore
	title  string
	logger *zap.Logger
}

func NewDatabaseTransport(store inAppStore, digestTitle string, logger *zap.Logger) *DatabaseTransport {
	return &DatabaseTransport{
		store:  store,
		title:  digestTitle,
		logger: logger,
	}
}

func (t *DatabaseTransport) Send(ctx context.Context, recipient *model.User, sub *model.Subscription, d *digest.Digest) error {
	title := t.title
	summary := fmt.Sprintf("You have %d new notifications.", len(d.Entries))
	if sub.DigestInterval == model.IntervalImmediate && len(d.Entries) == 1 {
		title = d.Entries[0].Kind
		summary = firstLine(d)
	}

	data, err := json.Marshal(d.Entries)
	if err != nil {
		return err
	}

	_, err = t.store.Insert(ctx, recipient.ID, title, summary, data)
	return err
}

func firstLine(d *digest.Digest) string {
	for _, c := range d.Components {
		if c.Type == digest.ComponentLine || c.Type == digest.ComponentHeading {
			return c.Text
		}
	}
	return ""
}
