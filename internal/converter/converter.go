package converter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-granola/internal/logging"
	"github.com/goliatone/go-granola/internal/runtimeconfig"
	"github.com/goliatone/go-granola/pkg/interfaces"
)

// ErrDocumentRequired is the only hard failure Convert can produce; every
// malformed content shape degrades to a visible marker instead.
var ErrDocumentRequired = errors.New("converter: document is required")

// Config controls content source selection, frontmatter emission, and
// filename generation.
type Config struct {
	ContentMode string
	Frontmatter runtimeconfig.FrontmatterConfig
	Filename    runtimeconfig.FilenameConfig
	Logger      interfaces.Logger
}

// Service converts Granola documents into vault-ready Markdown notes.
type Service struct {
	contentMode string
	frontmatter runtimeconfig.FrontmatterConfig
	names       *NameGenerator
	logger      interfaces.Logger
}

var _ interfaces.Converter = (*Service)(nil)

// NewService constructs a converter from the supplied configuration.
func NewService(cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NoOp()
	}
	mode := cfg.ContentMode
	if strings.TrimSpace(mode) == "" {
		mode = runtimeconfig.ContentPreferPanel
	}
	return &Service{
		contentMode: mode,
		frontmatter: cfg.Frontmatter,
		names:       NewNameGenerator(cfg.Filename),
		logger:      logger,
	}
}

// Names exposes the filename generator so collaborators (the duplicate
// detector in particular) compute identical paths.
func (s *Service) Names() *NameGenerator {
	return s.names
}

// Convert renders the document into a Markdown note with frontmatter. It
// never fails on malformed content; when every content source is empty the
// body degrades to a titled placeholder so no unreviewable empty note is
// written.
func (s *Service) Convert(doc *interfaces.Document) (*interfaces.ConvertedNote, error) {
	if doc == nil {
		return nil, ErrDocumentRequired
	}

	body, empty := s.buildBody(doc)
	front, keys := s.buildFrontmatter(doc)

	content := renderFrontmatter(keys, front) + body

	return &interfaces.ConvertedNote{
		Filename:    s.names.Filename(doc),
		Content:     content,
		FrontMatter: front,
		IsEmpty:     empty,
	}, nil
}

// buildBody picks the best content source and renders it. The selection
// order is: configured tree representation (with its configured fallback),
// then the pre-rendered Markdown string, then plain text, then placeholder.
func (s *Service) buildBody(doc *interfaces.Document) (body string, empty bool) {
	if tree := s.selectTree(doc); tree != nil {
		if rendered := strings.TrimRight(renderTree(tree), "\n"); strings.TrimSpace(rendered) != "" {
			return rendered + "\n", false
		}
	}

	if markdown := strings.TrimSpace(doc.NotesMarkdown); markdown != "" {
		return markdown + "\n", false
	}
	if plain := strings.TrimSpace(doc.NotesPlain); plain != "" {
		return plain + "\n", false
	}

	s.logger.Debug("converter.placeholder", "document_id", doc.ID)
	return placeholderBody(doc.Title), true
}

// selectTree applies the configured content source policy. A representation
// is valid only when it is a doc node with non-empty content.
func (s *Service) selectTree(doc *interfaces.Document) *interfaces.RichTextNode {
	panel := validTree(doc.LastViewedPanel)
	notes := validTree(doc.Notes)

	switch s.contentMode {
	case runtimeconfig.ContentPanelOnly:
		return panel
	case runtimeconfig.ContentNotesOnly:
		return notes
	case runtimeconfig.ContentPreferNotes:
		if notes != nil {
			return notes
		}
		return panel
	default: // prefer-panel
		if panel != nil {
			return panel
		}
		return notes
	}
}

func validTree(node *interfaces.RichTextNode) *interfaces.RichTextNode {
	if node == nil || node.Type != "doc" || len(node.Content) == 0 {
		return nil
	}
	return node
}

func placeholderBody(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		title = "Untitled"
	}
	return fmt.Sprintf("# %s\n\nThis document has no content available for import.\n", title)
}
