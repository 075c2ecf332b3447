package interfaces

import (
	"context"

	"github.com/google/uuid"
)

// ImportStrategy decides what happens when a document's computed filename is
// already taken and no conflict dialog is involved.
type ImportStrategy string

const (
	// StrategySkip leaves the existing file untouched.
	StrategySkip ImportStrategy = "skip"
	// StrategyUpdate overwrites the existing file.
	StrategyUpdate ImportStrategy = "update"
	// StrategyCreateNew probes name-1.md, name-2.md, ... until a free path
	// is found.
	StrategyCreateNew ImportStrategy = "create_new"
)

// ErrorCategory buckets per-document import failures for user-facing
// reporting.
type ErrorCategory string

const (
	ErrorCategoryValidation ErrorCategory = "validation"
	ErrorCategoryConversion ErrorCategory = "conversion"
	ErrorCategoryFilesystem ErrorCategory = "filesystem"
	ErrorCategoryPermission ErrorCategory = "permission"
	ErrorCategoryNetwork    ErrorCategory = "network"
	ErrorCategoryUnknown    ErrorCategory = "unknown"
)

// DocumentStatus tracks one document through the import state machine:
// pending -> importing -> {completed | failed | skipped | empty}.
type DocumentStatus string

const (
	DocumentPending   DocumentStatus = "pending"
	DocumentImporting DocumentStatus = "importing"
	DocumentCompleted DocumentStatus = "completed"
	DocumentFailed    DocumentStatus = "failed"
	DocumentSkipped   DocumentStatus = "skipped"
	DocumentEmpty     DocumentStatus = "empty"
)

// DocumentProgress is the evolving per-document state snapshot delivered to
// progress callbacks.
type DocumentProgress struct {
	DocumentID string
	Title      string
	Status     DocumentStatus
	Progress   int
	Message    string
	Err        string
	Category   ErrorCategory
}

// ImportProgress is the evolving batch state snapshot delivered to progress
// callbacks. Empty documents are counted apart from skipped ones so the two
// outcomes stay distinguishable in summaries.
type ImportProgress struct {
	RunID           uuid.UUID
	Total           int
	Completed       int
	Failed          int
	Skipped         int
	Empty           int
	Percentage      int
	Running         bool
	Cancelled       bool
	CurrentDocument string
}

// ProgressFunc receives batch snapshots at every state transition.
type ProgressFunc func(ImportProgress)

// DocumentProgressFunc receives per-document snapshots at every state
// transition.
type DocumentProgressFunc func(DocumentProgress)

// ConflictAction enumerates the choices the conflict dialog may return.
type ConflictAction string

const (
	ConflictSkip      ConflictAction = "skip"
	ConflictOverwrite ConflictAction = "overwrite"
	ConflictMerge     ConflictAction = "merge"
	ConflictRename    ConflictAction = "rename"
	// ConflictViewDiff is an in-dialog interaction; resolvers must not
	// return it to the orchestrator.
	ConflictViewDiff ConflictAction = "view-diff"
)

// MergeStrategy selects how merged bodies are concatenated.
type MergeStrategy string

const (
	MergeAppend  MergeStrategy = "append"
	MergePrepend MergeStrategy = "prepend"
)

// ConflictResolution is the dialog's answer for one conflicted document.
type ConflictResolution struct {
	Action       ConflictAction
	Reason       string
	CreateBackup bool
	Merge        MergeStrategy
	NewFilename  string
}

// ConflictResolver is the external dialog collaborator, treated as a black
// box from (document, metadata, existing file) to a resolution choice.
type ConflictResolver interface {
	Resolve(ctx context.Context, doc *Document, meta *DocumentMetadata, existing *FileRef) (ConflictResolution, error)
}

// ImportOptions configures one batch run.
type ImportOptions struct {
	Strategy        ImportStrategy
	SkipEmpty       bool
	StopOnError     bool
	OnProgress      ProgressFunc
	OnDocumentState DocumentProgressFunc
}

// DocumentFetcher is the remote client boundary. Fetch failures surface as
// opaque errors; retry and backoff live behind this interface.
type DocumentFetcher interface {
	FetchDocuments(ctx context.Context) ([]*Document, error)
}
