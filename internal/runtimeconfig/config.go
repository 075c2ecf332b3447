package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrContentModeInvalid indicates an unknown content source selection policy.
var ErrContentModeInvalid = errors.New("granola config: content mode is invalid")

// ErrDatePrefixInvalid indicates an unknown filename date prefix style.
var ErrDatePrefixInvalid = errors.New("granola config: filename date prefix is invalid")

// ErrFilenameStyleInvalid indicates an unknown filename style.
var ErrFilenameStyleInvalid = errors.New("granola config: filename style is invalid")

// ErrFilenameMaxLengthInvalid requires room for at least the .md suffix.
var ErrFilenameMaxLengthInvalid = errors.New("granola config: filename max length must exceed the .md suffix")

// ErrStrategyInvalid indicates an unknown default import strategy.
var ErrStrategyInvalid = errors.New("granola config: import strategy is invalid")

// ErrWordThresholdInvalid rejects negative modification thresholds.
var ErrWordThresholdInvalid = errors.New("granola config: dedup word threshold must be zero or positive")

// ErrClientBaseURLRequired is returned when the fetch client is enabled
// without an endpoint.
var ErrClientBaseURLRequired = errors.New("granola config: client base URL is required when the client is enabled")

var ErrLoggingProviderRequired = errors.New("granola config: logging provider is required when logging feature is enabled")
var ErrLoggingProviderUnknown = errors.New("granola config: logging provider is invalid")
var ErrLoggingLevelInvalid = errors.New("granola config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("granola config: logging format is invalid")

// Content source selection policies: prefer the last viewed panel, prefer
// the primary notes tree, or use either exclusively.
const (
	ContentPreferPanel = "prefer-panel"
	ContentPreferNotes = "prefer-notes"
	ContentPanelOnly   = "panel-only"
	ContentNotesOnly   = "notes-only"
)

// Filename date prefix styles.
const (
	DatePrefixISO  = "iso"
	DatePrefixUS   = "us"
	DatePrefixEU   = "eu"
	DatePrefixDot  = "dot"
	DatePrefixNone = "none"
)

// Filename styles.
const (
	FilenamePlain = "plain"
	FilenameSlug  = "slug"
)

// Config aggregates behaviour toggles for the importer module. Fields
// intentionally use simple types so host applications can extend them later.
type Config struct {
	Enabled     bool
	Converter   ConverterConfig
	Frontmatter FrontmatterConfig
	Filename    FilenameConfig
	Dedup       DedupConfig
	Importer    ImporterConfig
	Client      ClientConfig
	Logging     LoggingConfig
	Features    Features
}

// ConverterConfig controls rich-text to Markdown translation.
type ConverterConfig struct {
	// ContentMode selects which tree representation wins and what it falls
	// back to. One of the Content* constants.
	ContentMode string
}

// FrontmatterConfig controls the metadata block written on every note.
type FrontmatterConfig struct {
	// Enhanced additionally emits id, title, and updated alongside the
	// always-present created and source keys.
	Enhanced bool
}

// FilenameConfig controls generated note filenames.
type FilenameConfig struct {
	// DatePrefix is one of the DatePrefix* constants.
	DatePrefix string
	// Style is FilenamePlain (sanitized title) or FilenameSlug (go-slug
	// normalized).
	Style string
	// MaxLength caps the whole filename including the .md suffix.
	MaxLength int
}

// DedupConfig tunes the local-modification heuristic. The heuristic is
// policy, not constants: hosts with different vault conventions can replace
// the patterns wholesale.
type DedupConfig struct {
	// ModificationPatterns are regular expressions matched against a note
	// body; any hit flags the file as locally modified.
	ModificationPatterns []string
	// NotesHeading flags files where a section with this heading was added
	// below the imported content.
	NotesHeading string
	// WordThreshold flags bodies longer than this many words. Zero disables
	// the length check.
	WordThreshold int
}

// ImporterConfig captures batch run defaults.
type ImporterConfig struct {
	// Strategy is the default collision strategy (skip, update, create_new).
	Strategy string
	// SkipEmpty drops documents classified empty instead of importing
	// placeholder notes.
	SkipEmpty bool
	// BackupSuffixFormat is the time layout appended to backup filenames.
	BackupSuffixFormat string
}

// ClientConfig configures the remote document fetch client.
type ClientConfig struct {
	Enabled         bool
	BaseURL         string
	CredentialsFile string
	MaxRetries      uint64
	Timeout         time.Duration
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string
	Level     string
	Format    string
	AddSource bool
	Focus     []string
}

// Features toggles module functionality.
type Features struct {
	Logger   bool
	Client   bool
	Commands bool
}

// DefaultConfig returns opinionated defaults matching the reference
// behaviour of the importer.
func DefaultConfig() Config {
	return Config{
		Enabled: true,
		Converter: ConverterConfig{
			ContentMode: ContentPreferPanel,
		},
		Frontmatter: FrontmatterConfig{
			Enhanced: true,
		},
		Filename: FilenameConfig{
			DatePrefix: DatePrefixISO,
			Style:      FilenamePlain,
			MaxLength:  100,
		},
		Dedup: DedupConfig{
			ModificationPatterns: DefaultModificationPatterns(),
			NotesHeading:         "## Notes",
			WordThreshold:        2000,
		},
		Importer: ImporterConfig{
			Strategy:           "skip",
			SkipEmpty:          true,
			BackupSuffixFormat: "20060102-150405",
		},
		Client: ClientConfig{
			BaseURL:         "https://api.granola.ai/v2/get-documents",
			CredentialsFile: "supabase.json",
			MaxRetries:      3,
			Timeout:         30 * time.Second,
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
		},
		Features: Features{},
	}
}

// DefaultModificationPatterns lists the vault markup that marks a note as
// locally edited: wiki-links, embeds, hashtags, inline comments, fenced
// query blocks, and block references.
func DefaultModificationPatterns() []string {
	return []string{
		`\[\[[^\]]+\]\]`,
		`!\[\[[^\]]+\]\]`,
		`(^|\s)#[\p{L}\d_/-]+`,
		`%%[^%]*%%`,
		"```query",
		`\^[a-zA-Z0-9-]+\s*$`,
	}
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	switch cfg.Converter.ContentMode {
	case ContentPreferPanel, ContentPreferNotes, ContentPanelOnly, ContentNotesOnly:
	default:
		return fmt.Errorf("%w: %s", ErrContentModeInvalid, cfg.Converter.ContentMode)
	}
	switch cfg.Filename.DatePrefix {
	case DatePrefixISO, DatePrefixUS, DatePrefixEU, DatePrefixDot, DatePrefixNone:
	default:
		return fmt.Errorf("%w: %s", ErrDatePrefixInvalid, cfg.Filename.DatePrefix)
	}
	switch cfg.Filename.Style {
	case FilenamePlain, FilenameSlug:
	default:
		return fmt.Errorf("%w: %s", ErrFilenameStyleInvalid, cfg.Filename.Style)
	}
	if cfg.Filename.MaxLength <= len(".md") {
		return ErrFilenameMaxLengthInvalid
	}
	switch cfg.Importer.Strategy {
	case "skip", "update", "create_new":
	default:
		return fmt.Errorf("%w: %s", ErrStrategyInvalid, cfg.Importer.Strategy)
	}
	if cfg.Dedup.WordThreshold < 0 {
		return ErrWordThresholdInvalid
	}
	if cfg.Features.Client && cfg.Client.Enabled {
		if strings.TrimSpace(cfg.Client.BaseURL) == "" {
			return ErrClientBaseURLRequired
		}
	}
	if cfg.Features.Logger {
		provider := normalizeProvider(cfg.Logging.Provider)
		if provider == "" {
			return ErrLoggingProviderRequired
		}
		if !isSupportedProvider(provider) {
			return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
		}
		if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
			return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
		}
		if provider == "gologger" {
			if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
				return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
			}
		}
	}
	return nil
}

func normalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "console", "gologger":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
