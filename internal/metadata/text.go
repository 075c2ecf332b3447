package metadata

import (
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"github.com/goliatone/go-granola/pkg/interfaces"
)

// extractableText walks every content representation a document carries and
// returns the first one that yields non-whitespace text. The order mirrors
// the converter's own preference: panel tree, notes tree, pre-rendered
// Markdown, plain text.
func extractableText(doc *interfaces.Document, md parser.Parser) string {
	if out := treeText(doc.LastViewedPanel); out != "" {
		return out
	}
	if out := treeText(doc.Notes); out != "" {
		return out
	}
	if out := markdownText(doc.NotesMarkdown, md); out != "" {
		return out
	}
	return strings.TrimSpace(doc.NotesPlain)
}

func treeText(node *interfaces.RichTextNode) string {
	if node == nil {
		return ""
	}
	var out strings.Builder
	collectTreeText(node, &out)
	return strings.TrimSpace(out.String())
}

func collectTreeText(node *interfaces.RichTextNode, out *strings.Builder) {
	if node.Text != "" {
		if out.Len() > 0 {
			out.WriteByte(' ')
		}
		out.WriteString(node.Text)
	}
	for i := range node.Content {
		collectTreeText(&node.Content[i], out)
	}
}

// markdownText strips Markdown syntax by parsing the source and collecting
// the text leaves of the resulting AST.
func markdownText(source string, md parser.Parser) string {
	if strings.TrimSpace(source) == "" {
		return ""
	}
	raw := []byte(source)
	root := md.Parse(text.NewReader(raw))

	var out strings.Builder
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if leaf, ok := n.(*ast.Text); ok {
			if out.Len() > 0 {
				out.WriteByte(' ')
			}
			out.Write(leaf.Segment.Value(raw))
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(out.String())
}

const previewRunes = 160

func previewSnippet(text string) string {
	collapsed := strings.Join(strings.Fields(text), " ")
	runes := []rune(collapsed)
	if len(runes) <= previewRunes {
		return collapsed
	}
	return strings.TrimSpace(string(runes[:previewRunes])) + "..."
}
