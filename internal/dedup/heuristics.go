package dedup

import (
	"regexp"
	"strings"

	"github.com/goliatone/go-granola/internal/runtimeconfig"
	"github.com/goliatone/go-granola/pkg/interfaces"
)

// modificationHeuristic decides whether a note body was edited after import.
// The signals are policy, not constants: vault markup patterns, an added
// notes section, and a word count ceiling, all supplied by configuration.
// False positives and negatives are possible; a hit only ever escalates to
// a conflict dialog, never to data loss.
type modificationHeuristic struct {
	patterns      []*regexp.Regexp
	notesHeading  *regexp.Regexp
	wordThreshold int
}

func newModificationHeuristic(policy runtimeconfig.DedupConfig, logger interfaces.Logger) *modificationHeuristic {
	h := &modificationHeuristic{
		wordThreshold: policy.WordThreshold,
	}
	for _, raw := range policy.ModificationPatterns {
		pattern, err := regexp.Compile(raw)
		if err != nil {
			logger.Warn("dedup.heuristic.invalid_pattern", "pattern", raw, "error", err)
			continue
		}
		h.patterns = append(h.patterns, pattern)
	}
	if heading := strings.TrimSpace(policy.NotesHeading); heading != "" {
		h.notesHeading = regexp.MustCompile(`(?m)^` + regexp.QuoteMeta(heading) + `\b`)
	}
	return h
}

// Detect reports whether the body carries signs of local modification and a
// short reason for the first signal that fired.
func (h *modificationHeuristic) Detect(body string) (bool, string) {
	for _, pattern := range h.patterns {
		if pattern.MatchString(body) {
			return true, "vault markup found (" + pattern.String() + ")"
		}
	}
	if h.notesHeading != nil && h.notesHeading.MatchString(body) {
		return true, "a notes section was added"
	}
	if h.wordThreshold > 0 && len(strings.Fields(body)) > h.wordThreshold {
		return true, "body grew beyond the imported size"
	}
	return false, ""
}
