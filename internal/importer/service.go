package importer

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-granola/internal/logging"
	"github.com/goliatone/go-granola/internal/runtimeconfig"
	"github.com/goliatone/go-granola/pkg/interfaces"
)

// MetadataExtractor is the slice of the metadata service the orchestrator
// needs: classification-aware, cached derivation.
type MetadataExtractor interface {
	Extract(doc *interfaces.Document, check *interfaces.DuplicateCheckResult) *interfaces.DocumentMetadata
}

// FailedImport preserves everything needed to retry one failed document:
// a deep clone of the document plus its metadata snapshot at failure time.
type FailedImport struct {
	Document *interfaces.Document
	Metadata *interfaces.DocumentMetadata
	Message  string
	Err      string
	Category interfaces.ErrorCategory
}

// Config wires the orchestrator's collaborators.
type Config struct {
	Converter interfaces.Converter
	Detector  interfaces.DuplicateDetector
	Metadata  MetadataExtractor
	Vault     interfaces.Vault
	Resolver  interfaces.ConflictResolver
	Defaults  runtimeconfig.ImporterConfig
	Logger    interfaces.Logger
	// Clock feeds backup filename timestamps; defaults to time.Now.
	Clock func() time.Time
}

// Service runs selective imports as a single sequential loop: one batch at
// a time, one vault write at a time. Cancellation is cooperative and checked
// between documents, never mid-write.
type Service struct {
	converter interfaces.Converter
	detector  interfaces.DuplicateDetector
	metadata  MetadataExtractor
	vault     interfaces.Vault
	resolver  interfaces.ConflictResolver
	defaults  runtimeconfig.ImporterConfig
	logger    interfaces.Logger
	clock     func() time.Time

	mu        sync.Mutex
	running   bool
	cancelled bool
	progress  interfaces.ImportProgress
	failed    []FailedImport
}

// NewService builds an import orchestrator.
func NewService(cfg Config) (*Service, error) {
	if cfg.Converter == nil {
		return nil, ErrConverterRequired
	}
	if cfg.Detector == nil {
		return nil, ErrDetectorRequired
	}
	if cfg.Vault == nil {
		return nil, ErrVaultRequired
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NoOp()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	defaults := cfg.Defaults
	if strings.TrimSpace(defaults.BackupSuffixFormat) == "" {
		defaults.BackupSuffixFormat = "20060102-150405"
	}
	return &Service{
		converter: cfg.Converter,
		detector:  cfg.Detector,
		metadata:  cfg.Metadata,
		vault:     cfg.Vault,
		resolver:  cfg.Resolver,
		defaults:  defaults,
		logger:    logger,
		clock:     clock,
	}, nil
}

// ImportDocuments runs one batch over the given documents. Only one batch
// may be active per service; a second call fails with ErrImportRunning and
// mutates nothing.
func (s *Service) ImportDocuments(ctx context.Context, docs []*interfaces.Document, opts interfaces.ImportOptions) (interfaces.ImportProgress, error) {
	s.mu.Lock()
	if s.running {
		current := s.progress
		s.mu.Unlock()
		return current, ErrImportRunning
	}
	s.running = true
	s.cancelled = false
	s.failed = nil
	s.progress = interfaces.ImportProgress{
		RunID:   uuid.New(),
		Total:   len(docs),
		Running: true,
	}
	s.mu.Unlock()

	if opts.Strategy == "" {
		opts.Strategy = interfaces.ImportStrategy(s.defaults.Strategy)
	}
	if opts.Strategy == "" {
		opts.Strategy = interfaces.StrategySkip
	}

	s.logger.Info("import.start", "total", len(docs), "strategy", string(opts.Strategy))
	s.emitProgress(opts)

	for _, doc := range docs {
		if doc == nil {
			s.finishDocument(opts, nil, interfaces.DocumentProgress{
				Status:  interfaces.DocumentSkipped,
				Message: "Document missing",
			})
			continue
		}
		if s.isCancelled(ctx) {
			s.finishDocument(opts, doc, interfaces.DocumentProgress{
				DocumentID: doc.ID,
				Title:      doc.Title,
				Status:     interfaces.DocumentSkipped,
				Message:    "Import cancelled",
			})
			continue
		}

		s.emitDocument(opts, interfaces.DocumentProgress{
			DocumentID: doc.ID,
			Title:      doc.Title,
			Status:     interfaces.DocumentImporting,
			Progress:   10,
			Message:    "Importing",
		})
		s.setCurrent(doc.Title)
		s.emitProgress(opts)

		state := s.importOne(ctx, doc, opts)
		s.finishDocument(opts, doc, state)

		if state.Status == interfaces.DocumentFailed && opts.StopOnError {
			s.mu.Lock()
			s.cancelled = true
			s.mu.Unlock()
		}
	}

	s.mu.Lock()
	s.progress.Running = false
	s.progress.Cancelled = s.cancelled
	s.progress.CurrentDocument = ""
	s.running = false
	final := s.progress
	s.mu.Unlock()

	if opts.OnProgress != nil {
		opts.OnProgress(final)
	}
	s.logger.Info("import.done",
		"completed", final.Completed,
		"failed", final.Failed,
		"skipped", final.Skipped,
		"empty", final.Empty,
		"cancelled", final.Cancelled)
	return final, nil
}

// importOne walks a single document through classification, conversion,
// conflict resolution, and the vault write. Failures are returned as a
// terminal state, never as an error; the batch decides what to do with them.
func (s *Service) importOne(ctx context.Context, doc *interfaces.Document, opts interfaces.ImportOptions) interfaces.DocumentProgress {
	state := interfaces.DocumentProgress{DocumentID: doc.ID, Title: doc.Title}

	check, err := s.detector.CheckDocument(ctx, doc)
	if err != nil {
		return s.failure(state, doc, nil, err)
	}
	var meta *interfaces.DocumentMetadata
	if s.metadata != nil {
		meta = s.metadata.Extract(doc, check)
	}

	if opts.SkipEmpty && meta != nil && meta.IsEmpty {
		state.Status = interfaces.DocumentEmpty
		state.Message = "Document has no content"
		return state
	}
	if check.Status == interfaces.StatusExists && opts.Strategy == interfaces.StrategySkip {
		state.Status = interfaces.DocumentSkipped
		state.Message = "Note already exists"
		return state
	}

	note, err := s.converter.Convert(doc)
	if err != nil {
		return s.failure(state, doc, meta, fmt.Errorf("conversion failed: %w", err))
	}
	if note.IsEmpty && opts.SkipEmpty {
		state.Status = interfaces.DocumentEmpty
		state.Message = "Document has no content"
		return state
	}

	if check.RequiresUserChoice {
		if err := s.resolveConflict(ctx, doc, meta, check, note, &state); err != nil {
			return s.failure(state, doc, meta, err)
		}
		return state
	}

	if err := s.applyStrategy(ctx, check, note, opts.Strategy, &state); err != nil {
		return s.failure(state, doc, meta, err)
	}
	return state
}

// resolveConflict runs the external dialog collaborator and applies its
// answer. Any action outside the protocol, view-diff included, is fatal for
// the document: that interaction belongs inside the dialog.
func (s *Service) resolveConflict(ctx context.Context, doc *interfaces.Document, meta *interfaces.DocumentMetadata, check *interfaces.DuplicateCheckResult, note *interfaces.ConvertedNote, state *interfaces.DocumentProgress) error {
	if s.resolver == nil {
		return ErrResolverRequired
	}
	resolution, err := s.resolver.Resolve(ctx, doc, meta, check.ExistingFile)
	if err != nil {
		return fmt.Errorf("conflict resolution failed: %w", err)
	}

	switch resolution.Action {
	case interfaces.ConflictSkip:
		state.Status = interfaces.DocumentSkipped
		state.Message = "Conflict skipped"
		if resolution.Reason != "" {
			state.Message = "Conflict skipped: " + resolution.Reason
		}
		return nil

	case interfaces.ConflictOverwrite:
		existing := check.ExistingFile
		if existing == nil {
			existing = s.vault.GetFileByPath(ctx, note.Filename)
		}
		if existing == nil {
			return s.create(ctx, note.Filename, note.Content, state)
		}
		if resolution.CreateBackup {
			if err := s.backup(ctx, existing); err != nil {
				return err
			}
		}
		return s.modify(ctx, existing, note.Content, state, "Note overwritten")

	case interfaces.ConflictMerge:
		existing := check.ExistingFile
		if existing == nil {
			return fmt.Errorf("merge resolution without an existing file")
		}
		current, err := s.vault.Read(ctx, existing)
		if err != nil {
			return err
		}
		merged := mergeNotes(current, note.Content, resolution.Merge)
		return s.modify(ctx, existing, merged, state, "Note merged")

	case interfaces.ConflictRename:
		target := strings.TrimSpace(resolution.NewFilename)
		if target == "" {
			return ErrRenameTargetRequired
		}
		return s.create(ctx, target, note.Content, state)

	default:
		return fmt.Errorf("%w: %s", ErrUnknownConflictAction, resolution.Action)
	}
}

// applyStrategy handles the no-dialog path: a plain write moderated by the
// configured collision strategy.
func (s *Service) applyStrategy(ctx context.Context, check *interfaces.DuplicateCheckResult, note *interfaces.ConvertedNote, strategy interfaces.ImportStrategy, state *interfaces.DocumentProgress) error {
	existing := check.ExistingFile
	if existing == nil {
		existing = s.vault.GetFileByPath(ctx, note.Filename)
	}
	if existing == nil {
		return s.create(ctx, note.Filename, note.Content, state)
	}

	switch strategy {
	case interfaces.StrategyUpdate:
		return s.modify(ctx, existing, note.Content, state, "Note updated")
	case interfaces.StrategyCreateNew:
		return s.create(ctx, s.freePath(ctx, note.Filename), note.Content, state)
	default:
		state.Status = interfaces.DocumentSkipped
		state.Message = "Note already exists"
		return nil
	}
}

// freePath probes name-1.md, name-2.md, ... until an unused path is found.
func (s *Service) freePath(ctx context.Context, filename string) string {
	base := strings.TrimSuffix(filename, ".md")
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s-%d.md", base, i)
		if s.vault.GetFileByPath(ctx, candidate) == nil {
			return candidate
		}
	}
}

// backup snapshots an existing file to a timestamped sibling before it is
// overwritten.
func (s *Service) backup(ctx context.Context, existing *interfaces.FileRef) error {
	content, err := s.vault.Read(ctx, existing)
	if err != nil {
		return fmt.Errorf("backup read failed: %w", err)
	}
	suffix := s.clock().UTC().Format(s.defaults.BackupSuffixFormat)
	path := strings.TrimSuffix(existing.Path, ".md") + ".backup-" + suffix + ".md"
	if _, err := s.vault.Create(ctx, path, content); err != nil {
		return fmt.Errorf("backup write failed: %w", err)
	}
	s.logger.Debug("import.backup", "source", existing.Path, "backup", path)
	return nil
}

func (s *Service) create(ctx context.Context, path, content string, state *interfaces.DocumentProgress) error {
	if _, err := s.vault.Create(ctx, path, content); err != nil {
		return err
	}
	state.Status = interfaces.DocumentCompleted
	state.Message = "Imported to " + path
	return nil
}

func (s *Service) modify(ctx context.Context, ref *interfaces.FileRef, content string, state *interfaces.DocumentProgress, message string) error {
	if err := s.vault.Modify(ctx, ref, content); err != nil {
		return err
	}
	state.Status = interfaces.DocumentCompleted
	state.Message = message
	return nil
}

// failure records a failed document with a deep-cloned snapshot so retry
// can replay it even if the caller mutates the originals.
func (s *Service) failure(state interfaces.DocumentProgress, doc *interfaces.Document, meta *interfaces.DocumentMetadata, err error) interfaces.DocumentProgress {
	category := classifyError(err)
	state.Status = interfaces.DocumentFailed
	state.Err = err.Error()
	state.Category = category
	state.Message = friendlyMessage(category)

	s.mu.Lock()
	s.failed = append(s.failed, FailedImport{
		Document: doc.Clone(),
		Metadata: meta.Clone(),
		Message:  state.Message,
		Err:      state.Err,
		Category: category,
	})
	s.mu.Unlock()

	s.logger.Error("import.document.failed", "id", doc.ID, "category", string(category), "error", err)
	return state
}

// Cancel flags the running batch for cooperative cancellation. In-flight
// documents complete; queued ones are skipped.
func (s *Service) Cancel() {
	s.mu.Lock()
	if s.running {
		s.cancelled = true
	}
	s.mu.Unlock()
}

// RetryFailed replays exactly the previously failed documents through a
// fresh batch, forcing their selection. If the fresh run fails before
// processing anything, the pre-retry failure set is restored.
func (s *Service) RetryFailed(ctx context.Context, opts interfaces.ImportOptions) (interfaces.ImportProgress, error) {
	s.mu.Lock()
	previous := make([]FailedImport, len(s.failed))
	copy(previous, s.failed)
	s.mu.Unlock()

	docs := make([]*interfaces.Document, 0, len(previous))
	for _, item := range previous {
		if item.Document == nil {
			continue
		}
		if item.Metadata != nil {
			item.Metadata.Selected = true
		}
		docs = append(docs, item.Document)
	}

	progress, err := s.ImportDocuments(ctx, docs, opts)
	if err != nil && progress.Completed+progress.Failed+progress.Skipped+progress.Empty == 0 {
		s.mu.Lock()
		if !s.running {
			s.failed = previous
		}
		s.mu.Unlock()
	}
	return progress, err
}

// FailedDocuments returns a snapshot of the current failure set.
func (s *Service) FailedDocuments() []FailedImport {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]FailedImport, len(s.failed))
	copy(out, s.failed)
	return out
}

// Progress returns the latest batch snapshot.
func (s *Service) Progress() interfaces.ImportProgress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress
}

func (s *Service) isCancelled(ctx context.Context) bool {
	if ctx.Err() != nil {
		s.mu.Lock()
		s.cancelled = true
		s.mu.Unlock()
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelled
}

func (s *Service) setCurrent(title string) {
	s.mu.Lock()
	s.progress.CurrentDocument = title
	s.mu.Unlock()
}

// finishDocument applies a terminal per-document state to the batch
// counters and fires both callbacks.
func (s *Service) finishDocument(opts interfaces.ImportOptions, doc *interfaces.Document, state interfaces.DocumentProgress) {
	state.Progress = 100

	s.mu.Lock()
	switch state.Status {
	case interfaces.DocumentCompleted:
		s.progress.Completed++
	case interfaces.DocumentFailed:
		s.progress.Failed++
	case interfaces.DocumentEmpty:
		s.progress.Empty++
	default:
		s.progress.Skipped++
	}
	processed := s.progress.Completed + s.progress.Failed + s.progress.Skipped + s.progress.Empty
	if s.progress.Total > 0 {
		s.progress.Percentage = processed * 100 / s.progress.Total
	}
	s.mu.Unlock()

	s.emitDocument(opts, state)
	s.emitProgress(opts)
}

func (s *Service) emitProgress(opts interfaces.ImportOptions) {
	if opts.OnProgress == nil {
		return
	}
	s.mu.Lock()
	snapshot := s.progress
	s.mu.Unlock()
	opts.OnProgress(snapshot)
}

func (s *Service) emitDocument(opts interfaces.ImportOptions, state interfaces.DocumentProgress) {
	if opts.OnDocumentState != nil {
		opts.OnDocumentState(state)
	}
}
