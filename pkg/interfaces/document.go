package interfaces

import "time"

// RichTextNode is the tagged tree format Granola returns for a document. A
// node carrying Text is a leaf; a node carrying Content is a container. The
// root of every representation is a node with Type "doc".
type RichTextNode struct {
	Type    string         `json:"type"`
	Attrs   map[string]any `json:"attrs,omitempty"`
	Content []RichTextNode `json:"content,omitempty"`
	Text    string         `json:"text,omitempty"`
	Marks   []Mark         `json:"marks,omitempty"`
}

// Mark annotates a text leaf with inline formatting (bold, italic, code,
// link, ...).
type Mark struct {
	Type  string         `json:"type"`
	Attrs map[string]any `json:"attrs,omitempty"`
}

// Document is a single Granola document as consumed by the importer. The
// service exposes up to four content representations of decreasing
// structure; every one of them may be absent, including the plain text
// fallback.
type Document struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Notes is the primary rich-text tree.
	Notes *RichTextNode `json:"notes,omitempty"`
	// LastViewedPanel is the tree of the panel the user last had open,
	// which often carries AI-enhanced content missing from Notes.
	LastViewedPanel *RichTextNode `json:"last_viewed_panel,omitempty"`
	// NotesMarkdown is a pre-rendered Markdown string, used when no valid
	// tree representation exists.
	NotesMarkdown string `json:"notes_markdown,omitempty"`
	// NotesPlain is the plain text fallback of last resort.
	NotesPlain string `json:"notes_plain,omitempty"`
}

// Clone returns a deep copy of the document. The importer snapshots failed
// documents so a later retry replays exactly what was attempted.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := *d
	out.Notes = d.Notes.Clone()
	out.LastViewedPanel = d.LastViewedPanel.Clone()
	return &out
}

// Clone returns a deep copy of the node and its subtree.
func (n *RichTextNode) Clone() *RichTextNode {
	if n == nil {
		return nil
	}
	out := RichTextNode{
		Type: n.Type,
		Text: n.Text,
	}
	if len(n.Attrs) > 0 {
		out.Attrs = make(map[string]any, len(n.Attrs))
		for key, value := range n.Attrs {
			out.Attrs[key] = value
		}
	}
	if len(n.Marks) > 0 {
		out.Marks = make([]Mark, len(n.Marks))
		copy(out.Marks, n.Marks)
	}
	if len(n.Content) > 0 {
		out.Content = make([]RichTextNode, len(n.Content))
		for i := range n.Content {
			child := n.Content[i]
			out.Content[i] = *child.Clone()
		}
	}
	return &out
}
