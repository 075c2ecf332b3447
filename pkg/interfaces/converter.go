package interfaces

// SourceName is the provenance marker written into every imported note's
// frontmatter. The duplicate detector only trusts this key when deciding
// whether a vault file was produced by this importer.
const SourceName = "granola"

// ConvertedNote is the immutable result of converting one Document. Content
// holds the full file body (frontmatter block plus Markdown); FrontMatter
// repeats the emitted scalar values so callers can inspect them without
// re-parsing.
type ConvertedNote struct {
	Filename    string
	Content     string
	FrontMatter map[string]string
	// IsEmpty reports that the body degraded to the placeholder because no
	// content source produced text.
	IsEmpty bool
}

// Converter turns a Granola document into a vault-ready Markdown note. It
// never fails on malformed content; broken nodes degrade to visible markers
// inside the note body.
type Converter interface {
	Convert(doc *Document) (*ConvertedNote, error)
}
