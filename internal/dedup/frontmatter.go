package dedup

import (
	"strings"
	"time"

	"github.com/adrg/frontmatter"

	"github.com/goliatone/go-granola/pkg/interfaces"
)

// noteRecord is the identity a vault file contributes to the index. Only
// the source key is trusted as a provenance marker; every other key is
// optional and extra keys are ignored.
type noteRecord struct {
	ID      string
	Title   string
	Updated time.Time
	Body    string
}

type noteEnvelope struct {
	ID      string `yaml:"id"`
	Title   string `yaml:"title"`
	Created string `yaml:"created"`
	Updated string `yaml:"updated"`
	Source  string `yaml:"source"`
}

// parseNote re-parses a previously written note. It returns nil for
// anything that is not a tracked note: missing frontmatter, malformed or
// unterminated blocks, and foreign source markers all mean "untracked",
// never an error.
func parseNote(content string) *noteRecord {
	var env noteEnvelope
	body, err := frontmatter.Parse(strings.NewReader(content), &env)
	if err != nil {
		return nil
	}
	if env.Source != interfaces.SourceName {
		return nil
	}

	record := &noteRecord{
		ID:    strings.TrimSpace(env.ID),
		Title: strings.TrimSpace(env.Title),
		Body:  string(body),
	}
	if ts, err := time.Parse(time.RFC3339, strings.TrimSpace(env.Updated)); err == nil {
		record.Updated = ts
	}
	return record
}
