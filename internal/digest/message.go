// Package digest implements the digest engine: the structured message
// builder, the compiler that turns pending notifications into components,
// the due-subscription selector and the batch dispatcher.
package digest

// ComponentType tags one structured piece of a digest body.
type ComponentType string

const (
	ComponentLine      ComponentType = "line"
	ComponentHeading   ComponentType = "heading"
	ComponentPanel     ComponentType = "panel"
	ComponentButton    ComponentType = "button"
	ComponentList      ComponentType = "list"
	ComponentSeparator ComponentType = "separator"
)

// Component is one tagged piece of a digest's rendered body. Only the
// fields relevant to its type are set.
type Component struct {
	Type  ComponentType `json:"type"`
	Text  string        `json:"text,omitempty"`
	Level int           `json:"level,omitempty"`
	URL   string        `json:"url,omitempty"`
	Color string        `json:"color,omitempty"`
	Items []string      `json:"items,omitempty"`
}

// IsStructured reports whether the component needs the rich template.
// Plain lines and separators render fine as text.
func (c Component) IsStructured() bool {
	switch c.Type {
	case ComponentHeading, ComponentPanel, ComponentButton, ComponentList:
		return true
	}
	return false
}

// Message accumulates components in call order. Notification kinds that
// compose their own digest entry receive a Message to append to.
type Message struct {
	components []Component
}

func NewMessage() *Message {
	return &Message{}
}

// Components returns the accumulated components in append order.
func (m *Message) Components() []Component {
	return m.components
}

func (m *Message) Line(text string) *Message {
	m.components = append(m.components, Component{Type: ComponentLine, Text: text})
	return m
}

// Heading appends a heading; level is clamped to 1..4.
func (m *Message) Heading(text string, level int) *Message {
	if level < 1 {
		level = 1
	}
	if level > 4 {
		level = 4
	}
	m.components = append(m.components, Component{Type: ComponentHeading, Text: text, Level: level})
	return m
}

func (m *Message) Panel(text string) *Message {
	m.components = append(m.components, Component{Type: ComponentPanel, Text: text})
	return m
}

// Button appends a call-to-action; color defaults to "primary".
func (m *Message) Button(text, url, color string) *Message {
	if color == "" {
		color = "primary"
	}
	m.components = append(m.components, Component{Type: ComponentButton, Text: text, URL: url, Color: color})
	return m
}

// BulletList appends a simple bullet list.
func (m *Message) BulletList(items []string) *Message {
	copied := make([]string, len(items))
	copy(copied, items)
	m.components = append(m.components, Component{Type: ComponentList, Items: copied})
	return m
}

func (m *Message) Separator() *Message {
	m.components = append(m.components, Component{Type: ComponentSeparator})
	return m
}
