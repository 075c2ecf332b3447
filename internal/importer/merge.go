package importer

import (
	"strings"

	"github.com/adrg/frontmatter"

	"github.com/goliatone/go-granola/pkg/interfaces"
)

// splitNote separates a persisted note into its raw frontmatter block and
// the body below it. Content without a parseable block is treated as all
// body, never as an error.
func splitNote(content string) (head, body string) {
	var ignored map[string]any
	rest, err := frontmatter.Parse(strings.NewReader(content), &ignored)
	if err != nil {
		return "", content
	}
	return content[:len(content)-len(rest)], string(rest)
}

// mergeNotes combines an existing note with freshly converted content. The
// existing file's frontmatter survives untouched; only the bodies are
// concatenated per the chosen strategy.
func mergeNotes(existing, incoming string, strategy interfaces.MergeStrategy) string {
	head, existingBody := splitNote(existing)
	_, incomingBody := splitNote(incoming)

	existingBody = strings.TrimRight(existingBody, "\n")
	incomingBody = strings.Trim(incomingBody, "\n")

	var merged string
	if strategy == interfaces.MergePrepend {
		merged = incomingBody + "\n\n" + strings.TrimLeft(existingBody, "\n")
	} else {
		merged = existingBody + "\n\n" + incomingBody
	}
	return head + strings.Trim(merged, "\n") + "\n"
}
