package interfaces

import "time"

// DocumentMetadata is the derived, cached-by-id display view of a document.
// Selection and visibility flags are mutated in place by list operations;
// everything else is recomputed from the source document.
type DocumentMetadata struct {
	ID         string
	Title      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	CreatedAgo string
	UpdatedAgo string
	WordCount  int
	Preview    string
	IsEmpty    bool
	Selected   bool
	Visible    bool
	Check      *DuplicateCheckResult
}

// Clone returns a copy of the metadata entry. The nested check result is
// shared; it is replaced wholesale, never mutated.
func (m *DocumentMetadata) Clone() *DocumentMetadata {
	if m == nil {
		return nil
	}
	out := *m
	return &out
}
