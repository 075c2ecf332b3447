package converter

import (
	"strings"
	"time"
	"unicode/utf8"

	slug "github.com/goliatone/go-slug"

	"github.com/goliatone/go-granola/internal/runtimeconfig"
	"github.com/goliatone/go-granola/pkg/interfaces"
)

const markdownSuffix = ".md"

// NameGenerator derives vault filenames from documents. The duplicate
// detector shares one instance with the converter so collision probing and
// note writing agree on paths.
type NameGenerator struct {
	cfg runtimeconfig.FilenameConfig
}

// NewNameGenerator applies defaults for unset fields (ISO date prefix,
// plain style, 100 character cap).
func NewNameGenerator(cfg runtimeconfig.FilenameConfig) *NameGenerator {
	if strings.TrimSpace(cfg.DatePrefix) == "" {
		cfg.DatePrefix = runtimeconfig.DatePrefixISO
	}
	if strings.TrimSpace(cfg.Style) == "" {
		cfg.Style = runtimeconfig.FilenamePlain
	}
	if cfg.MaxLength <= len(markdownSuffix) {
		cfg.MaxLength = 100
	}
	return &NameGenerator{cfg: cfg}
}

// Filename computes the date-prefixed note filename.
func (g *NameGenerator) Filename(doc *interfaces.Document) string {
	return g.build(datePrefix(doc.CreatedAt, g.cfg.DatePrefix), doc.Title)
}

// LegacyFilename computes the historical non-prefixed form, still probed
// for collisions so notes written by older releases are recognised.
func (g *NameGenerator) LegacyFilename(doc *interfaces.Document) string {
	return g.build("", doc.Title)
}

func (g *NameGenerator) build(prefix, title string) string {
	name := g.titleComponent(title)
	if name == "" {
		name = "Untitled"
	}

	// Reserve room for the suffix; the prefix is never truncated.
	budget := g.cfg.MaxLength - len(markdownSuffix) - len(prefix)
	if budget < 1 {
		budget = 1
	}
	if len(name) > budget {
		// Back the cut off to a rune boundary so multi-byte titles never
		// produce invalid UTF-8 filenames.
		cut := budget
		for cut > 0 && !utf8.RuneStart(name[cut]) {
			cut--
		}
		if cut == 0 {
			_, cut = utf8.DecodeRuneInString(name)
		}
		name = strings.TrimSpace(name[:cut])
	}
	return prefix + name + markdownSuffix
}

func (g *NameGenerator) titleComponent(title string) string {
	if g.cfg.Style == runtimeconfig.FilenameSlug {
		if normalized, err := slug.Normalize(title); err == nil {
			return normalized
		}
	}
	return sanitizeTitle(title)
}

// sanitizeTitle strips filesystem-hostile characters, collapses runs of
// whitespace to single spaces, and trims the result.
func sanitizeTitle(title string) string {
	var out strings.Builder
	for _, r := range title {
		switch r {
		case '<', '>', ':', '"', '/', '\\', '|', '?', '*':
			continue
		}
		out.WriteRune(r)
	}
	return strings.Join(strings.Fields(out.String()), " ")
}

// datePrefix renders the creation date in the configured style. A zero
// creation time degrades to literal NaN components rather than failing;
// the resulting name is odd but deterministic, and the detector still
// matches it during collision checks.
func datePrefix(created time.Time, style string) string {
	if style == runtimeconfig.DatePrefixNone {
		return ""
	}

	year, month, day := "NaN", "NaN", "NaN"
	if !created.IsZero() {
		year = created.Format("2006")
		month = created.Format("01")
		day = created.Format("02")
	}

	switch style {
	case runtimeconfig.DatePrefixUS:
		return month + "-" + day + "-" + year + " - "
	case runtimeconfig.DatePrefixEU:
		return day + "-" + month + "-" + year + " - "
	case runtimeconfig.DatePrefixDot:
		return year + "." + month + "." + day + " - "
	default: // iso
		return year + "-" + month + "-" + day + " - "
	}
}
