package converter

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-granola/pkg/interfaces"
)

// nodeRenderer translates one block-level node into Markdown. Renderers
// return the fully terminated fragment, including trailing blank lines.
type nodeRenderer func(node *interfaces.RichTextNode) string

// blockRenderers dispatches on node type. Unknown types fall through to
// renderUnknown, which keeps the content visible instead of dropping it.
var blockRenderers = map[string]nodeRenderer{
	"paragraph":      renderParagraph,
	"heading":        renderHeading,
	"bulletList":     renderBulletList,
	"orderedList":    renderOrderedList,
	"codeBlock":      renderCodeBlock,
	"blockquote":     renderBlockquote,
	"table":          renderTable,
	"horizontalRule": renderHorizontalRule,
	"hardBreak":      renderBlockHardBreak,
}

// renderTree walks the root's children. Each node is rendered in isolation:
// a panic inside one renderer is replaced with a bracketed marker so one
// malformed node never aborts the whole document.
func renderTree(root *interfaces.RichTextNode) string {
	var out strings.Builder
	for i := range root.Content {
		out.WriteString(renderNode(&root.Content[i]))
	}
	return out.String()
}

func renderNode(node *interfaces.RichTextNode) (fragment string) {
	defer func() {
		if recovered := recover(); recovered != nil {
			fragment = fmt.Sprintf("[Error converting %s content]\n\n", node.Type)
		}
	}()

	if renderer, ok := blockRenderers[node.Type]; ok {
		return renderer(node)
	}
	return renderUnknown(node)
}

func renderParagraph(node *interfaces.RichTextNode) string {
	text := inlineText(node)
	if strings.TrimSpace(text) == "" {
		return "\n"
	}
	return text + "\n\n"
}

func renderHeading(node *interfaces.RichTextNode) string {
	level := attrInt(node.Attrs, "level", 1)
	if level < 1 {
		level = 1
	}
	if level > 6 {
		level = 6
	}
	return strings.Repeat("#", level) + " " + inlineText(node) + "\n\n"
}

func renderBulletList(node *interfaces.RichTextNode) string {
	return renderList(node, func(int) string { return "- " })
}

func renderOrderedList(node *interfaces.RichTextNode) string {
	return renderList(node, func(position int) string {
		return fmt.Sprintf("%d. ", position)
	})
}

// renderList emits one line per item; items whose rendered text is empty
// are dropped and do not consume an ordinal.
func renderList(node *interfaces.RichTextNode, marker func(position int) string) string {
	var lines []string
	for i := range node.Content {
		item := &node.Content[i]
		text := listItemText(item)
		if strings.TrimSpace(text) == "" {
			continue
		}
		lines = append(lines, marker(len(lines)+1)+text)
	}
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n\n"
}

func listItemText(item *interfaces.RichTextNode) string {
	var parts []string
	for i := range item.Content {
		child := &item.Content[i]
		if child.Type == "paragraph" {
			if text := inlineText(child); text != "" {
				parts = append(parts, text)
			}
			continue
		}
		if text := extractText(child); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

func renderCodeBlock(node *interfaces.RichTextNode) string {
	language := attrString(node.Attrs, "language")

	code := node.Text
	if code == "" {
		var chunks []string
		for i := range node.Content {
			if node.Content[i].Text != "" {
				chunks = append(chunks, node.Content[i].Text)
			}
		}
		code = strings.Join(chunks, "\n")
	}
	if !strings.HasSuffix(code, "\n") {
		code += "\n"
	}
	return "```" + language + "\n" + code + "```\n\n"
}

func renderBlockquote(node *interfaces.RichTextNode) string {
	var lines []string
	for i := range node.Content {
		child := &node.Content[i]
		if child.Type != "paragraph" {
			continue
		}
		text := inlineText(child)
		if text == "" {
			lines = append(lines, ">")
			continue
		}
		for _, line := range strings.Split(text, "\n") {
			lines = append(lines, "> "+line)
		}
	}
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n\n"
}

// renderTable emits the first row as a header followed by a synthesized
// separator sized to that row's column count; cell text extraction recurses
// into child paragraphs.
func renderTable(node *interfaces.RichTextNode) string {
	var rows [][]string
	for i := range node.Content {
		row := &node.Content[i]
		if row.Type != "tableRow" {
			continue
		}
		var cells []string
		for j := range row.Content {
			cells = append(cells, strings.TrimSpace(extractText(&row.Content[j])))
		}
		rows = append(rows, cells)
	}
	if len(rows) == 0 {
		return ""
	}

	var out strings.Builder
	out.WriteString(pipeRow(rows[0]))
	separator := make([]string, len(rows[0]))
	for i := range separator {
		separator[i] = "---"
	}
	out.WriteString(pipeRow(separator))
	for _, cells := range rows[1:] {
		out.WriteString(pipeRow(cells))
	}
	out.WriteString("\n")
	return out.String()
}

func pipeRow(cells []string) string {
	return "| " + strings.Join(cells, " | ") + " |\n"
}

func renderHorizontalRule(*interfaces.RichTextNode) string {
	return "---\n\n"
}

func renderBlockHardBreak(*interfaces.RichTextNode) string {
	return "\n"
}

// renderUnknown keeps unexpected content visible: a bracketed marker plus a
// best-effort text extraction of any children.
func renderUnknown(node *interfaces.RichTextNode) string {
	out := fmt.Sprintf("[Unsupported content: %s]\n", node.Type)
	if len(node.Content) > 0 {
		if text := strings.TrimSpace(extractText(node)); text != "" {
			out += text + "\n"
		}
	}
	return out + "\n"
}

// inlineText renders the inline children of a block node, applying marks to
// text leaves and translating inline hard breaks to trailing-space newlines.
func inlineText(node *interfaces.RichTextNode) string {
	var out strings.Builder
	for i := range node.Content {
		child := &node.Content[i]
		switch child.Type {
		case "text":
			out.WriteString(applyMarks(child.Text, child.Marks))
		case "hardBreak":
			out.WriteString("  \n")
		default:
			out.WriteString(extractText(child))
		}
	}
	return out.String()
}

// extractText flattens a subtree to plain text, ignoring marks. Block-level
// hard breaks become literal newlines.
func extractText(node *interfaces.RichTextNode) string {
	if node == nil {
		return ""
	}
	if node.Type == "hardBreak" {
		return "\n"
	}
	if node.Text != "" {
		return node.Text
	}
	var out strings.Builder
	for i := range node.Content {
		out.WriteString(extractText(&node.Content[i]))
	}
	return out.String()
}

func attrInt(attrs map[string]any, key string, fallback int) int {
	if attrs == nil {
		return fallback
	}
	switch value := attrs[key].(type) {
	case int:
		return value
	case int64:
		return int(value)
	case float64:
		return int(value)
	default:
		return fallback
	}
}

func attrString(attrs map[string]any, key string) string {
	if attrs == nil {
		return ""
	}
	if value, ok := attrs[key].(string); ok {
		return value
	}
	return ""
}
