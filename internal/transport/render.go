package transport

import (
	"fmt"
	"html"
	"strings"

	"notisub/internal/digest"
)

const (
	digestIntro  = "Here is a summary of your recent notifications:"
	digestFooter = "You can manage your notification preferences in your profile settings."
)

// RenderText renders a digest as the plain-text mail body.
func RenderText(d *digest.Digest) string {
	var b strings.Builder
	b.WriteString(digestIntro)
	b.WriteString("\n\n")

	for _, c := range d.Components {
		switch c.Type {
		case digest.ComponentLine, digest.ComponentHeading, digest.ComponentPanel:
			b.WriteString(c.Text)
			b.WriteString("\n")
		case digest.ComponentButton:
			fmt.Fprintf(&b, "%s: %s\n", c.Text, c.URL)
		case digest.ComponentList:
			for _, item := range c.Items {
				fmt.Fprintf(&b, "- %s\n", item)
			}
		case digest.ComponentSeparator:
			b.WriteString("----------------------------------------\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(digestFooter)
	b.WriteString("\n")
	return b.String()
}

// RenderHTML renders a digest as the HTML mail body. Digests without
// structured components fall back to plain paragraphs.
func RenderHTML(d *digest.Digest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<p>%s</p>\n", html.EscapeString(digestIntro))

	for _, c := range d.Components {
		switch c.Type {
		case digest.ComponentLine:
			fmt.Fprintf(&b, "<p>%s</p>\n", html.EscapeString(c.Text))
		case digest.ComponentHeading:
			fmt.Fprintf(&b, "<h%d>%s</h%d>\n", c.Level, html.EscapeString(c.Text), c.Level)
		case digest.ComponentPanel:
			fmt.Fprintf(&b, "<div style=\"background:#f5f5f5;border-left:4px solid #ccc;padding:12px\">%s</div>\n",
				html.EscapeString(c.Text))
		case digest.ComponentButton:
			fmt.Fprintf(&b, "<a href=%q style=\"display:inline-block;padding:8px 16px;background:%s;color:#fff;text-decoration:none\">%s</a>\n",
				c.URL, buttonBackground(c.Color), html.EscapeString(c.Text))
		case digest.ComponentList:
			b.WriteString("<ul>\n")
			for _, item := range c.Items {
				fmt.Fprintf(&b, "<li>%s</li>\n", html.EscapeString(item))
			}
			b.WriteString("</ul>\n")
		case digest.ComponentSeparator:
			b.WriteString("<hr>\n")
		}
	}

	fmt.Fprintf(&b, "<p>%s</p>\n", html.EscapeString(digestFooter))
	return b.String()
}

func buttonBackground(color string) string {
	switch color {
	case "success":
		return "#22863a"
	case "error":
		return "#cb2431"
	default: // primary
		return "#0366d6"
	}
}
