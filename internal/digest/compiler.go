package digest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"

	"notisub/internal/model"
)

// Composer is implemented by notification kinds that build their own digest
// entry out of structured components.
type Composer interface {
	ComposeDigest(recipient *model.User, m *Message)
}

// Texter is implemented by kinds that provide a single digest line.
type Texter interface {
	DigestText(recipient *model.User) string
}

// Summary is a generic title/message pair for kinds without digest-specific
// rendering.
type Summary struct {
	Title   string
	Message string
}

// Summarizer is implemented by kinds that expose a generic summary.
type Summarizer interface {
	Summary() Summary
}

// SubscriberFilter is implemented by kinds that narrow the recipient set
// before fan-out, e.g. an admin-only alert. Kinds without it reach every
// subscriber of the type.
type SubscriberFilter interface {
	FilterSubscribers(ctx context.Context, userIDs []int64) ([]int64, error)
}

// Factory reconstructs a notification kind value from its stored payload.
// Reconstruction is best-effort; a failing factory falls back to the default
// summary line.
type Factory func(payload json.RawMessage) (any, error)

// KindRegistry maps kind tags to factories.
type KindRegistry struct {
	factories map[string]Factory
}

func NewKindRegistry() *KindRegistry {
	return &KindRegistry{factories: make(map[string]Factory)}
}

func (r *KindRegistry) Register(kind string, f Factory) {
	r.factories[kind] = f
}

// New rebuilds a kind value, or returns nil when the kind is unknown or the
// payload no longer matches its schema.
func (r *KindRegistry) New(kind string, payload json.RawMessage) any {
	f, ok := r.factories[kind]
	if !ok {
		return nil
	}
	v, err := f(payload)
	if err != nil {
		return nil
	}
	return v
}

// Entry is the generic representation of one digest item, used by the
// database channel where the frontend decides how to render.
type Entry struct {
	Kind       string          `json:"type"`
	Data       json.RawMessage `json:"data"`
	ReceivedAt time.Time       `json:"received_at"`
}

// Digest is one compiled digest: the ordered component sequence, the flag
// selecting the rich or plain rendering template, and the generic entries.
type Digest struct {
	Components     []Component
	UsedStructured bool
	Entries        []Entry
}

// ItemCount returns the number of pending items the digest was built from.
func (d *Digest) ItemCount() int {
	return len(d.Entries)
}

// Compiler assembles digests from pending notifications.
type Compiler struct {
	kinds *KindRegistry
}

func NewCompiler(kinds *KindRegistry) *Compiler {
	if kinds == nil {
		kinds = NewKindRegistry()
	}
	return &Compiler{kinds: kinds}
}

// Compile turns pending items, in arrival order, into a digest. Per item it
// resolves the richest available rendering capability, falling back to a
// plain summary line, and appends one separator after the item's block.
func (c *Compiler) Compile(recipient *model.User, items []model.PendingNotification) *Digest {
	d := &Digest{}

	for _, item := range items {
		instance := c.kinds.New(item.NotificationKind, item.Payload)

		switch v := instance.(type) {
		case Composer:
			m := NewMessage()
			v.ComposeDigest(recipient, m)
			d.Components = append(d.Components, m.Components()...)
		case Texter:
			d.Components = append(d.Components, Component{Type: ComponentLine, Text: v.DigestText(recipient)})
		case Summarizer:
			s := v.Summary()
			if s.Title == "" {
				s.Title = TitleCase(item.NotificationKind)
			}
			if s.Message == "" {
				s.Message = "Details in app."
			}
			d.Components = append(d.Components, Component{
				Type: ComponentLine,
				Text: fmt.Sprintf("Update: %s - %s", s.Title, s.Message),
			})
		default:
			d.Components = append(d.Components, Component{
				Type: ComponentLine,
				Text: defaultSummaryLine(item.NotificationKind, item.CreatedAt),
			})
		}

		d.Components = append(d.Components, Component{Type: ComponentSeparator})

		d.Entries = append(d.Entries, Entry{
			Kind:       TitleCase(item.NotificationKind),
			Data:       item.Payload,
			ReceivedAt: item.CreatedAt,
		})
	}

	for _, comp := range d.Components {
		if comp.IsStructured() {
			d.UsedStructured = true
			break
		}
	}

	return d
}

func defaultSummaryLine(kind string, createdAt time.Time) string {
	return fmt.Sprintf("Notification: %s (Received: %s)", TitleCase(kind), createdAt.Format("2006-01-02 15:04"))
}

// TitleCase converts a PascalCase or snake_case kind tag into
// space-separated capitalized words: "NotifyCommentCreated" and
// "notify_comment_created" both become "Notify Comment Created".
func TitleCase(kind string) string {
	var words []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			words = append(words, current.String())
			current.Reset()
		}
	}

	for _, r := range kind {
		switch {
		case r == '_' || r == ' ':
			flush()
		case unicode.IsUpper(r):
			flush()
			current.WriteRune(r)
		default:
			current.WriteRune(r)
		}
	}
	flush()

	for i, w := range words {
		rs := []rune(w)
		rs[0] = unicode.ToUpper(rs[0])
		words[i] = string(rs)
	}

	return strings.Join(words, " ")
}
