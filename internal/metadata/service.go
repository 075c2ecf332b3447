package metadata

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/parser"

	"github.com/goliatone/go-granola/internal/logging"
	"github.com/goliatone/go-granola/pkg/interfaces"
)

// Config wires the metadata service.
type Config struct {
	Logger interfaces.Logger
	// Clock is substituted in tests; defaults to time.Now.
	Clock func() time.Time
}

// Service derives display metadata from documents and caches it by id. The
// cache returns the same entry for repeated extractions so list operations
// mutating selection flags stay visible to every holder.
type Service struct {
	logger interfaces.Logger
	clock  func() time.Time
	md     parser.Parser

	mu    sync.Mutex
	cache map[string]*interfaces.DocumentMetadata
}

// NewService builds a metadata service.
func NewService(cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NoOp()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		logger: logger,
		clock:  clock,
		md:     goldmark.New().Parser(),
		cache:  map[string]*interfaces.DocumentMetadata{},
	}
}

// Extract derives metadata for a document, reusing the cached entry when one
// exists. A changed classification overwrites the cached entry's check but
// never discards the rest of the entry, so selection state survives
// re-classification.
func (s *Service) Extract(doc *interfaces.Document, check *interfaces.DuplicateCheckResult) *interfaces.DocumentMetadata {
	if doc == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.cache[doc.ID]; ok {
		if entry.Check != check {
			entry.Check = check
		}
		return entry
	}

	now := s.clock()
	text := extractableText(doc, s.md)
	entry := &interfaces.DocumentMetadata{
		ID:         doc.ID,
		Title:      doc.Title,
		CreatedAt:  doc.CreatedAt,
		UpdatedAt:  doc.UpdatedAt,
		CreatedAgo: relativeTime(doc.CreatedAt, now),
		UpdatedAgo: relativeTime(doc.UpdatedAt, now),
		WordCount:  len(strings.Fields(text)),
		Preview:    previewSnippet(text),
		IsEmpty:    text == "" && doc.CreatedAt.Equal(doc.UpdatedAt),
		Visible:    true,
		Check:      check,
	}
	s.cache[doc.ID] = entry
	return entry
}

// ClearCache drops every cached entry, forcing recomputation on the next
// extraction. Hosts call this after settings changes that affect derivation.
func (s *Service) ClearCache() {
	s.mu.Lock()
	s.cache = map[string]*interfaces.DocumentMetadata{}
	s.mu.Unlock()
}

// Filter sets the Visible flag in place: entries whose title or preview
// contains the query (case-insensitive) stay visible. An empty query makes
// everything visible.
func (s *Service) Filter(entries []*interfaces.DocumentMetadata, query string) {
	query = strings.ToLower(strings.TrimSpace(query))
	for _, entry := range entries {
		if entry == nil {
			continue
		}
		entry.Visible = query == "" ||
			strings.Contains(strings.ToLower(entry.Title), query) ||
			strings.Contains(strings.ToLower(entry.Preview), query)
	}
}

// Sort fields.
const (
	SortByCreated = "created"
	SortByUpdated = "updated"
	SortByTitle   = "title"
	SortByWords   = "words"
)

// Sort orders entries in place by the given field. Unknown fields fall back
// to creation time. Descending is the natural order for dates.
func (s *Service) Sort(entries []*interfaces.DocumentMetadata, field string, ascending bool) {
	less := func(a, b *interfaces.DocumentMetadata) bool {
		switch field {
		case SortByTitle:
			return strings.ToLower(a.Title) < strings.ToLower(b.Title)
		case SortByWords:
			return a.WordCount < b.WordCount
		case SortByUpdated:
			return a.UpdatedAt.Before(b.UpdatedAt)
		default:
			return a.CreatedAt.Before(b.CreatedAt)
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if ascending {
			return less(entries[i], entries[j])
		}
		return less(entries[j], entries[i])
	})
}

// SetSelected flags the given ids in place; ids without a matching entry are
// ignored.
func (s *Service) SetSelected(entries []*interfaces.DocumentMetadata, selected bool, ids ...string) {
	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	for _, entry := range entries {
		if entry == nil {
			continue
		}
		if _, ok := wanted[entry.ID]; ok {
			entry.Selected = selected
		}
	}
}

// SelectVisible selects every currently visible entry and deselects the rest.
func (s *Service) SelectVisible(entries []*interfaces.DocumentMetadata) {
	for _, entry := range entries {
		if entry == nil {
			continue
		}
		entry.Selected = entry.Visible
	}
}

// relativeTime renders a coarse human-readable distance between t and now.
func relativeTime(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	d := now.Sub(t)
	if d < 0 {
		d = 0
	}
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return plural(int(d.Minutes()), "minute")
	case d < 24*time.Hour:
		return plural(int(d.Hours()), "hour")
	case d < 7*24*time.Hour:
		return plural(int(d.Hours()/24), "day")
	case d < 30*24*time.Hour:
		return plural(int(d.Hours()/(24*7)), "week")
	case d < 365*24*time.Hour:
		return plural(int(d.Hours()/(24*30)), "month")
	default:
		return plural(int(d.Hours()/(24*365)), "year")
	}
}

func plural(n int, unit string) string {
	if n <= 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
