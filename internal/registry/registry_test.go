package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notisub/internal/config"
)

func testConfig() map[string]config.NotificationTypeConfig {
	return map[string]config.NotificationTypeConfig{
		"weekly.summary": {
			Label: "Weekly summary",
			Channels: []config.ChannelConfig{
				{Name: "mail", Label: "Email"},
			},
		},
		"comment.created": {
			Label:       "New comments",
			Description: "When someone comments on your content",
			Channels: []config.ChannelConfig{
				{Name: "mail", Label: "Email"},
				{Name: "database", Label: "In-app"},
			},
		},
	}
}

func TestLookup(t *testing.T) {
	r := NewConfigRegistry(testConfig())

	def, err := r.Lookup("comment.created")
	require.NoError(t, err)
	assert.Equal(t, "New comments", def.Label)
	assert.True(t, def.HasChannel("database"))
	assert.False(t, def.HasChannel("sms"))

	_, err = r.Lookup("nope")
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestTypesSortedByKey(t *testing.T) {
	r := NewConfigRegistry(testConfig())

	defs := r.Types()
	require.Len(t, defs, 2)
	assert.Equal(t, "comment.created", defs[0].Type)
	assert.Equal(t, "weekly.summary", defs[1].Type)
}

func TestValidateChannel(t *testing.T) {
	r := NewConfigRegistry(testConfig())

	assert.NoError(t, ValidateChannel(r, "comment.created", "mail"))
	assert.ErrorIs(t, ValidateChannel(r, "comment.created", "sms"), ErrUnknownChannel)
	assert.ErrorIs(t, ValidateChannel(r, "nope", "mail"), ErrUnknownType)
}
