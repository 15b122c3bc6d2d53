// Package registry maps notification type keys to their human labels and
// valid channels. The mapping is injected, not read from global state, so
// the dispatch and subscription paths stay testable.
package registry

import (
	"errors"
	"fmt"
	"sort"

	"notisub/internal/config"
)

var (
	ErrUnknownType    = errors.New("unknown notification type")
	ErrUnknownChannel = errors.New("channel not configured for notification type")
)

// Channel is one deliverable channel of a notification type.
type Channel struct {
	Name  string
	Label string
}

// Definition describes a subscribable notification type.
type Definition struct {
	Type        string
	Label       string
	Description string
	Channels    []Channel
}

// HasChannel reports whether the definition allows the named channel.
func (d Definition) HasChannel(name string) bool {
	for _, c := range d.Channels {
		if c.Name == name {
			return true
		}
	}
	return false
}

// Registry resolves notification type keys.
type Registry interface {
	// Lookup returns the definition for a type key, or ErrUnknownType.
	Lookup(notificationType string) (Definition, error)
	// Types returns all definitions, ordered by type key.
	Types() []Definition
}

// ConfigRegistry is a Registry backed by the service configuration.
type ConfigRegistry struct {
	defs map[string]Definition
}

func NewConfigRegistry(types map[string]config.NotificationTypeConfig) *ConfigRegistry {
	defs := make(map[string]Definition, len(types))
	for key, tc := range types {
		def := Definition{
			Type:        key,
			Label:       tc.Label,
			Description: tc.Description,
		}
		for _, ch := range tc.Channels {
			def.Channels = append(def.Channels, Channel{Name: ch.Name, Label: ch.Label})
		}
		defs[key] = def
	}
	return &ConfigRegistry{defs: defs}
}

func (r *ConfigRegistry) Lookup(notificationType string) (Definition, error) {
	def, ok := r.defs[notificationType]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %q", ErrUnknownType, notificationType)
	}
	return def, nil
}

func (r *ConfigRegistry) Types() []Definition {
	defs := make([]Definition, 0, len(r.defs))
	for _, def := range r.defs {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Type < defs[j].Type })
	return defs
}

// ValidateChannel checks that the type exists and allows the channel.
func ValidateChannel(r Registry, notificationType, channel string) error {
	def, err := r.Lookup(notificationType)
	if err != nil {
		return err
	}
	if !def.HasChannel(channel) {
		return fmt.Errorf("%w: type %q, channel %q", ErrUnknownChannel, notificationType, channel)
	}
	return nil
}
