package converter

import (
	"strings"
	"time"

	"github.com/goliatone/go-granola/pkg/interfaces"
)

// buildFrontmatter returns the emitted values plus their fixed emission
// order. created and source are always present; enhanced mode adds id,
// title, and updated. Empty values are omitted entirely rather than
// rendered as null.
func (s *Service) buildFrontmatter(doc *interfaces.Document) (map[string]string, []string) {
	values := map[string]string{
		"created": formatTimestamp(doc.CreatedAt),
		"source":  interfaces.SourceName,
	}
	if s.frontmatter.Enhanced {
		values["id"] = strings.TrimSpace(doc.ID)
		values["title"] = strings.TrimSpace(doc.Title)
		values["updated"] = formatTimestamp(doc.UpdatedAt)
	}
	return values, []string{"id", "title", "created", "updated", "source"}
}

func renderFrontmatter(keys []string, values map[string]string) string {
	var out strings.Builder
	out.WriteString("---\n")
	for _, key := range keys {
		value, ok := values[key]
		if !ok || value == "" {
			continue
		}
		out.WriteString(key)
		out.WriteString(": ")
		out.WriteString(quoteFrontmatterValue(value))
		out.WriteString("\n")
	}
	out.WriteString("---\n\n")
	return out.String()
}

// quoteFrontmatterValue quotes any scalar containing a colon so the emitted
// block stays parseable, escaping internal quotes.
func quoteFrontmatterValue(value string) string {
	if !strings.Contains(value, ":") {
		return value
	}
	return `"` + strings.ReplaceAll(value, `"`, `\"`) + `"`
}

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.UTC().Format(time.RFC3339)
}
