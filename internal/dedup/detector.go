package dedup

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/goliatone/go-granola/internal/logging"
	"github.com/goliatone/go-granola/internal/runtimeconfig"
	"github.com/goliatone/go-granola/pkg/interfaces"
)

// FilenameComputer derives the paths a document would be written to. The
// detector shares the converter's generator so collision probes match the
// names the importer actually writes.
type FilenameComputer interface {
	Filename(doc *interfaces.Document) string
	LegacyFilename(doc *interfaces.Document) string
}

// Config wires the detector's collaborators.
type Config struct {
	Vault  interfaces.Vault
	Names  FilenameComputer
	Policy runtimeconfig.DedupConfig
	Logger interfaces.Logger
}

type indexEntry struct {
	id       string
	updated  time.Time
	ref      interfaces.FileRef
	modified bool
	reason   string
}

// Detector rebuilds document identity by re-parsing the frontmatter of
// previously written notes. It keeps no store of its own; the vault files
// are the only source of truth, so a deleted note is simply forgotten on
// the next scan.
type Detector struct {
	vault     interfaces.Vault
	names     FilenameComputer
	heuristic *modificationHeuristic
	logger    interfaces.Logger

	mu      sync.RWMutex
	byID    map[string]*indexEntry
	tracked map[string]struct{}
	ready   bool
}

// NewDetector builds a detector over the given vault.
func NewDetector(cfg Config) (*Detector, error) {
	if cfg.Vault == nil {
		return nil, ErrVaultRequired
	}
	if cfg.Names == nil {
		return nil, ErrNamesRequired
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NoOp()
	}
	return &Detector{
		vault:     cfg.Vault,
		names:     cfg.Names,
		heuristic: newModificationHeuristic(cfg.Policy, logger),
		logger:    logger,
		byID:      map[string]*indexEntry{},
		tracked:   map[string]struct{}{},
	}, nil
}

// Initialize scans the vault once; repeat calls are no-ops until Refresh.
func (d *Detector) Initialize(ctx context.Context) error {
	d.mu.RLock()
	ready := d.ready
	d.mu.RUnlock()
	if ready {
		return nil
	}
	return d.Refresh(ctx)
}

// Refresh replaces the index wholesale from a fresh vault scan. Unreadable
// or untracked files are skipped; only a failed listing aborts the scan,
// leaving the previous index intact.
func (d *Detector) Refresh(ctx context.Context) error {
	files, err := d.vault.ListMarkdownFiles(ctx)
	if err != nil {
		return fmt.Errorf("granola dedup: list vault files: %w", err)
	}

	byID := make(map[string]*indexEntry, len(files))
	tracked := make(map[string]struct{}, len(files))
	for i := range files {
		ref := files[i]
		content, err := d.vault.Read(ctx, &ref)
		if err != nil {
			d.logger.Warn("dedup.scan.unreadable", "path", ref.Path, "error", err)
			continue
		}
		record := parseNote(content)
		if record == nil || record.ID == "" {
			continue
		}

		entry := &indexEntry{
			id:      record.ID,
			updated: record.Updated,
			ref:     ref,
		}
		entry.modified, entry.reason = d.heuristic.Detect(record.Body)
		byID[record.ID] = entry
		tracked[ref.Path] = struct{}{}
	}

	d.mu.Lock()
	d.byID = byID
	d.tracked = tracked
	d.ready = true
	d.mu.Unlock()

	d.logger.Debug("dedup.scan.complete", "files", len(files), "tracked", len(byID))
	return nil
}

// CheckDocument classifies one document against the index, initializing the
// detector on first use.
func (d *Detector) CheckDocument(ctx context.Context, doc *interfaces.Document) (*interfaces.DuplicateCheckResult, error) {
	if doc == nil {
		return nil, ErrDocumentRequired
	}
	if err := d.Initialize(ctx); err != nil {
		return nil, err
	}

	d.mu.RLock()
	entry := d.byID[doc.ID]
	d.mu.RUnlock()

	if entry == nil {
		return d.checkUntracked(ctx, doc), nil
	}
	return d.checkTracked(doc, entry), nil
}

// checkUntracked probes the paths the importer would write to. A file at
// either the current or the legacy name that is not in the index holds
// unrelated content, so creating the note would clobber it.
func (d *Detector) checkUntracked(ctx context.Context, doc *interfaces.Document) *interfaces.DuplicateCheckResult {
	for _, path := range []string{d.names.Filename(doc), d.names.LegacyFilename(doc)} {
		ref := d.vault.GetFileByPath(ctx, path)
		if ref == nil {
			continue
		}
		if d.isTracked(ref.Path) {
			continue
		}
		return &interfaces.DuplicateCheckResult{
			Status:             interfaces.StatusConflict,
			Reason:             fmt.Sprintf("File already exists at %s without import metadata", ref.Path),
			RequiresUserChoice: true,
			ExistingFile:       ref,
		}
	}
	return &interfaces.DuplicateCheckResult{Status: interfaces.StatusNew}
}

func (d *Detector) checkTracked(doc *interfaces.Document, entry *indexEntry) *interfaces.DuplicateCheckResult {
	existing := entry.ref
	if entry.modified {
		return &interfaces.DuplicateCheckResult{
			Status:             interfaces.StatusConflict,
			Reason:             "Note was modified locally: " + entry.reason,
			RequiresUserChoice: true,
			ExistingFile:       &existing,
		}
	}
	if !entry.updated.Equal(doc.UpdatedAt) {
		return &interfaces.DuplicateCheckResult{
			Status:       interfaces.StatusUpdated,
			Reason:       "Remote document changed since last import",
			ExistingFile: &existing,
		}
	}
	return &interfaces.DuplicateCheckResult{
		Status:       interfaces.StatusExists,
		ExistingFile: &existing,
	}
}

// CheckDocuments classifies a batch, keyed by document ID. Nil documents are
// skipped; a classification error aborts the batch.
func (d *Detector) CheckDocuments(ctx context.Context, docs []*interfaces.Document) (map[string]*interfaces.DuplicateCheckResult, error) {
	results := make(map[string]*interfaces.DuplicateCheckResult, len(docs))
	for _, doc := range docs {
		if doc == nil {
			continue
		}
		result, err := d.CheckDocument(ctx, doc)
		if err != nil {
			return nil, err
		}
		results[doc.ID] = result
	}
	return results, nil
}

// Stats reports on the current index contents.
func (d *Detector) Stats() interfaces.IndexStats {
	d.mu.RLock()
	defer d.mu.RUnlock()

	stats := interfaces.IndexStats{TrackedFiles: len(d.byID)}
	for _, entry := range d.byID {
		if entry.modified {
			stats.LocallyModified++
		}
		if entry.updated.IsZero() {
			continue
		}
		if stats.OldestUpdate.IsZero() || entry.updated.Before(stats.OldestUpdate) {
			stats.OldestUpdate = entry.updated
		}
		if entry.updated.After(stats.NewestUpdate) {
			stats.NewestUpdate = entry.updated
		}
	}
	return stats
}

func (d *Detector) isTracked(path string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.tracked[path]
	return ok
}

var _ interfaces.DuplicateDetector = (*Detector)(nil)
