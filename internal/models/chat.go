package models

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// Raw HTML in the model output is dropped by goldmark's default (non-unsafe) renderer.
var markdown = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		highlighting.NewHighlighting(
			highlighting.WithStyle("monokai"),
		),
	),
	goldmark.WithRendererOptions(
		gmhtml.WithHardWraps(),
	),
)

// RenderContent renders the content of a message into HTML ready to be placed in the chat widget.
// Assistant messages are treated as Markdown, while user messages are escaped verbatim with their
// line breaks preserved.
func RenderContent(msg Message) (template.HTML, error) {
	if msg.Role != RoleAssistant {
		escaped := template.HTMLEscapeString(msg.Content)
		return template.HTML(strings.ReplaceAll(escaped, "\n", "<br>")), nil
	}

	var buf bytes.Buffer
	if err := markdown.Convert([]byte(msg.Content), &buf); err != nil {
		return "", fmt.Errorf("failed to convert markdown: %w", err)
	}
	return template.HTML(buf.String()), nil
}
