package interfaces

import (
	"context"
	"time"
)

// CheckStatus is the detector's verdict on how an incoming document relates
// to the vault.
type CheckStatus string

const (
	// StatusNew means no trace of the document exists in the vault.
	StatusNew CheckStatus = "NEW"
	// StatusUpdated means the document is tracked and the remote copy is
	// newer (or otherwise different) than what was imported.
	StatusUpdated CheckStatus = "UPDATED"
	// StatusExists means the tracked copy matches the remote document.
	StatusExists CheckStatus = "EXISTS"
	// StatusConflict means a human decision is required: either the target
	// filename is occupied by unrelated content, or the imported note was
	// edited locally.
	StatusConflict CheckStatus = "CONFLICT"
)

// DuplicateCheckResult classifies one document against the vault index.
type DuplicateCheckResult struct {
	Status             CheckStatus
	Reason             string
	RequiresUserChoice bool
	ExistingFile       *FileRef
}

// IndexStats summarises the detector's in-memory index.
type IndexStats struct {
	TrackedFiles    int
	LocallyModified int
	OldestUpdate    time.Time
	NewestUpdate    time.Time
}

// DuplicateDetector reconstructs per-document identity from previously
// written vault files and classifies incoming documents against it.
type DuplicateDetector interface {
	// Initialize scans the vault once. Calling it again without Refresh is
	// a no-op.
	Initialize(ctx context.Context) error
	// Refresh forces a full re-scan, replacing the index wholesale.
	Refresh(ctx context.Context) error
	// CheckDocument classifies a single document, auto-initializing on
	// first use.
	CheckDocument(ctx context.Context, doc *Document) (*DuplicateCheckResult, error)
	// CheckDocuments batches CheckDocument over many documents, keyed by ID.
	CheckDocuments(ctx context.Context, docs []*Document) (map[string]*DuplicateCheckResult, error)
	// Stats reports on the current index.
	Stats() IndexStats
}
