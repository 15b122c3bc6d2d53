package digest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessageChaining(t *testing.T) {
	m := NewMessage().
		Heading("Weekly Report", 2).
		Line("Three items this week.").
		BulletList([]string{"a", "b"}).
		Button("Open", "https://example.com/report", "").
		Separator()

	comps := m.Components()
	assert.Len(t, comps, 5)
	assert.Equal(t, ComponentHeading, comps[0].Type)
	assert.Equal(t, ComponentLine, comps[1].Type)
	assert.Equal(t, ComponentList, comps[2].Type)
	assert.Equal(t, ComponentButton, comps[3].Type)
	assert.Equal(t, ComponentSeparator, comps[4].Type)
}

func TestHeadingLevelClamped(t *testing.T) {
	m := NewMessage().
		Heading("too low", 0).
		Heading("too high", 9).
		Heading("fine", 3)

	comps := m.Components()
	assert.Equal(t, 1, comps[0].Level)
	assert.Equal(t, 4, comps[1].Level)
	assert.Equal(t, 3, comps[2].Level)
}

func TestButtonColorDefaultsToPrimary(t *testing.T) {
	m := NewMessage().
		Button("Go", "https://example.com", "").
		Button("Danger", "https://example.com", "error")

	comps := m.Components()
	assert.Equal(t, "primary", comps[0].Color)
	assert.Equal(t, "error", comps[1].Color)
}

func TestBulletListCopiesItems(t *testing.T) {
	items := []string{"one", "two"}
	m := NewMessage().BulletList(items)
	items[0] = "mutated"

	assert.Equal(t, "one", m.Components()[0].Items[0])
}

func TestIsStructured(t *testing.T) {
	assert.False(t, Component{Type: ComponentLine}.IsStructured())
	assert.False(t, Component{Type: ComponentSeparator}.IsStructured())
	assert.True(t, Component{Type: ComponentHeading}.IsStructured())
	assert.True(t, Component{Type: ComponentPanel}.IsStructured())
	assert.True(t, Component{Type: ComponentButton}.IsStructured())
	assert.True(t, Component{Type: ComponentList}.IsStructured())
}
