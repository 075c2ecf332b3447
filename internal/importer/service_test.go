package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-granola/internal/converter"
	"github.com/goliatone/go-granola/internal/dedup"
	"github.com/goliatone/go-granola/internal/metadata"
	"github.com/goliatone/go-granola/internal/runtimeconfig"
	"github.com/goliatone/go-granola/pkg/interfaces"
)

var importClock = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type fakeVault struct {
	files map[string]string
}

func newFakeVault() *fakeVault {
	return &fakeVault{files: map[string]string{}}
}

func (v *fakeVault) Create(_ context.Context, path, content string) (*interfaces.FileRef, error) {
	if _, ok := v.files[path]; ok {
		return nil, fmt.Errorf("file exists: %s", path)
	}
	v.files[path] = content
	return &interfaces.FileRef{Path: path, Name: path}, nil
}

func (v *fakeVault) Modify(_ context.Context, ref *interfaces.FileRef, content string) error {
	if _, ok := v.files[ref.Path]; !ok {
		return fmt.Errorf("file missing: %s", ref.Path)
	}
	v.files[ref.Path] = content
	return nil
}

func (v *fakeVault) Read(_ context.Context, ref *interfaces.FileRef) (string, error) {
	content, ok := v.files[ref.Path]
	if !ok {
		return "", fmt.Errorf("file missing: %s", ref.Path)
	}
	return content, nil
}

func (v *fakeVault) GetFileByPath(_ context.Context, path string) *interfaces.FileRef {
	if _, ok := v.files[path]; !ok {
		return nil
	}
	return &interfaces.FileRef{Path: path, Name: path}
}

func (v *fakeVault) ListMarkdownFiles(_ context.Context) ([]interfaces.FileRef, error) {
	refs := make([]interfaces.FileRef, 0, len(v.files))
	for path := range v.files {
		refs = append(refs, interfaces.FileRef{Path: path, Name: path})
	}
	return refs, nil
}

// flakyConverter wraps the real converter and injects failures per document.
type flakyConverter struct {
	real *converter.Service
	fail map[string]error
}

func (c *flakyConverter) Convert(doc *interfaces.Document) (*interfaces.ConvertedNote, error) {
	if doc != nil {
		if err, ok := c.fail[doc.ID]; ok {
			return nil, err
		}
	}
	return c.real.Convert(doc)
}

type stubResolver struct {
	resolution interfaces.ConflictResolution
	err        error
	calls      int
}

func (r *stubResolver) Resolve(context.Context, *interfaces.Document, *interfaces.DocumentMetadata, *interfaces.FileRef) (interfaces.ConflictResolution, error) {
	r.calls++
	return r.resolution, r.err
}

type fixture struct {
	vault    *fakeVault
	conv     *flakyConverter
	detector *dedup.Detector
	svc      *Service
	resolver *stubResolver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	vault := newFakeVault()
	real := converter.NewService(converter.Config{
		ContentMode: runtimeconfig.ContentPreferPanel,
		Frontmatter: runtimeconfig.FrontmatterConfig{Enhanced: true},
		Filename: runtimeconfig.FilenameConfig{
			DatePrefix: runtimeconfig.DatePrefixISO,
			Style:      runtimeconfig.FilenamePlain,
			MaxLength:  100,
		},
	})
	detector, err := dedup.NewDetector(dedup.Config{
		Vault: vault,
		Names: real.Names(),
		Policy: runtimeconfig.DedupConfig{
			ModificationPatterns: runtimeconfig.DefaultModificationPatterns(),
			NotesHeading:         "## Notes",
			WordThreshold:        2000,
		},
	})
	if err != nil {
		t.Fatalf("NewDetector: %v", err)
	}
	conv := &flakyConverter{real: real, fail: map[string]error{}}
	resolver := &stubResolver{}
	svc, err := NewService(Config{
		Converter: conv,
		Detector:  detector,
		Metadata:  metadata.NewService(metadata.Config{Clock: func() time.Time { return importClock }}),
		Vault:     vault,
		Resolver:  resolver,
		Defaults:  runtimeconfig.ImporterConfig{Strategy: "skip", BackupSuffixFormat: "20060102-150405"},
		Clock:     func() time.Time { return importClock },
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return &fixture{vault: vault, conv: conv, detector: detector, svc: svc, resolver: resolver}
}

func importDoc(id, title, body string) *interfaces.Document {
	created := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	doc := &interfaces.Document{
		ID:        id,
		Title:     title,
		CreatedAt: created,
		UpdatedAt: created.Add(time.Hour),
	}
	if body != "" {
		doc.Notes = &interfaces.RichTextNode{
			Type: "doc",
			Content: []interfaces.RichTextNode{
				{Type: "paragraph", Content: []interfaces.RichTextNode{{Type: "text", Text: body}}},
			},
		}
	}
	return doc
}

func TestImportWritesNewDocuments(t *testing.T) {
	f := newFixture(t)

	progress, err := f.svc.ImportDocuments(context.Background(), []*interfaces.Document{
		importDoc("d1", "Standup", "first"),
		importDoc("d2", "Retro", "second"),
	}, interfaces.ImportOptions{})
	if err != nil {
		t.Fatalf("ImportDocuments: %v", err)
	}
	if progress.Completed != 2 || progress.Failed != 0 {
		t.Fatalf("unexpected progress %+v", progress)
	}
	if progress.Percentage != 100 || progress.Running {
		t.Fatalf("batch must finalize, got %+v", progress)
	}
	if _, ok := f.vault.files["2024-01-02 - Standup.md"]; !ok {
		t.Fatalf("expected note written, have %v", f.vault.files)
	}
}

func TestRoundTripClassification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc := importDoc("d1", "Standup", "body text")

	if _, err := f.svc.ImportDocuments(ctx, []*interfaces.Document{doc}, interfaces.ImportOptions{}); err != nil {
		t.Fatalf("ImportDocuments: %v", err)
	}
	if err := f.detector.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	result, err := f.detector.CheckDocument(ctx, doc)
	if err != nil {
		t.Fatalf("CheckDocument: %v", err)
	}
	if result.Status != interfaces.StatusExists {
		t.Fatalf("unchanged document must classify EXISTS, got %s (%s)", result.Status, result.Reason)
	}

	doc.UpdatedAt = doc.UpdatedAt.Add(time.Hour)
	result, err = f.detector.CheckDocument(ctx, doc)
	if err != nil {
		t.Fatalf("CheckDocument: %v", err)
	}
	if result.Status != interfaces.StatusUpdated {
		t.Fatalf("changed updated_at must classify UPDATED, got %s", result.Status)
	}
}

func TestBatchContinuesPastFailures(t *testing.T) {
	f := newFixture(t)
	f.conv.fail["d2"] = errors.New("conversion exploded on node type widget")

	progress, err := f.svc.ImportDocuments(context.Background(), []*interfaces.Document{
		importDoc("d1", "One", "a"),
		importDoc("d2", "Two", "b"),
		importDoc("d3", "Three", "c"),
	}, interfaces.ImportOptions{})
	if err != nil {
		t.Fatalf("ImportDocuments: %v", err)
	}
	if progress.Completed != 2 || progress.Failed != 1 || progress.Skipped != 0 {
		t.Fatalf("unexpected progress %+v", progress)
	}

	failed := f.svc.FailedDocuments()
	if len(failed) != 1 || failed[0].Document.ID != "d2" {
		t.Fatalf("unexpected failed set %+v", failed)
	}
	if failed[0].Category != interfaces.ErrorCategoryConversion {
		t.Fatalf("expected conversion category, got %s", failed[0].Category)
	}
	if failed[0].Message == failed[0].Err {
		t.Fatal("friendly message must differ from the raw error")
	}
}

func TestCancelSkipsQueuedDocuments(t *testing.T) {
	f := newFixture(t)

	var states []interfaces.DocumentProgress
	opts := interfaces.ImportOptions{
		OnDocumentState: func(state interfaces.DocumentProgress) {
			states = append(states, state)
			if state.Status == interfaces.DocumentCompleted {
				f.svc.Cancel()
			}
		},
	}

	progress, err := f.svc.ImportDocuments(context.Background(), []*interfaces.Document{
		importDoc("d1", "One", "a"),
		importDoc("d2", "Two", "b"),
		importDoc("d3", "Three", "c"),
	}, opts)
	if err != nil {
		t.Fatalf("ImportDocuments: %v", err)
	}
	if progress.Completed != 1 || progress.Skipped != 2 {
		t.Fatalf("unexpected progress %+v", progress)
	}
	if !progress.Cancelled {
		t.Fatal("final progress must report cancellation")
	}

	cancelled := 0
	for _, state := range states {
		if state.Status == interfaces.DocumentSkipped && strings.Contains(strings.ToLower(state.Message), "cancelled") {
			cancelled++
		}
	}
	if cancelled != 2 {
		t.Fatalf("expected 2 cancelled skips, got %d", cancelled)
	}
}

func TestStopOnErrorCancelsBatch(t *testing.T) {
	f := newFixture(t)
	f.conv.fail["d1"] = errors.New("conversion exploded")

	progress, err := f.svc.ImportDocuments(context.Background(), []*interfaces.Document{
		importDoc("d1", "One", "a"),
		importDoc("d2", "Two", "b"),
	}, interfaces.ImportOptions{StopOnError: true})
	if err != nil {
		t.Fatalf("ImportDocuments: %v", err)
	}
	if progress.Failed != 1 || progress.Skipped != 1 || !progress.Cancelled {
		t.Fatalf("unexpected progress %+v", progress)
	}
}

func TestSecondRunRejectedWhileActive(t *testing.T) {
	f := newFixture(t)

	var nested error
	opts := interfaces.ImportOptions{
		OnDocumentState: func(state interfaces.DocumentProgress) {
			if state.Status == interfaces.DocumentImporting && nested == nil {
				_, nested = f.svc.ImportDocuments(context.Background(), nil, interfaces.ImportOptions{})
			}
		},
	}

	if _, err := f.svc.ImportDocuments(context.Background(), []*interfaces.Document{importDoc("d1", "One", "a")}, opts); err != nil {
		t.Fatalf("ImportDocuments: %v", err)
	}
	if nested != ErrImportRunning {
		t.Fatalf("expected ErrImportRunning, got %v", nested)
	}
}

func TestEmptyDocumentsCountedSeparately(t *testing.T) {
	f := newFixture(t)
	ts := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	empty := &interfaces.Document{ID: "d1", Title: "Empty", CreatedAt: ts, UpdatedAt: ts}

	progress, err := f.svc.ImportDocuments(context.Background(), []*interfaces.Document{empty}, interfaces.ImportOptions{SkipEmpty: true})
	if err != nil {
		t.Fatalf("ImportDocuments: %v", err)
	}
	if progress.Empty != 1 || progress.Skipped != 0 || progress.Completed != 0 {
		t.Fatalf("empty documents must be counted apart, got %+v", progress)
	}
	if len(f.vault.files) != 0 {
		t.Fatalf("no file may be written for empty documents, have %v", f.vault.files)
	}
}

func TestExistingNoteSkippedUnderSkipStrategy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc := importDoc("d1", "Standup", "body")

	if _, err := f.svc.ImportDocuments(ctx, []*interfaces.Document{doc}, interfaces.ImportOptions{}); err != nil {
		t.Fatalf("seed import: %v", err)
	}
	if err := f.detector.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	progress, err := f.svc.ImportDocuments(ctx, []*interfaces.Document{doc}, interfaces.ImportOptions{Strategy: interfaces.StrategySkip})
	if err != nil {
		t.Fatalf("ImportDocuments: %v", err)
	}
	if progress.Skipped != 1 || progress.Completed != 0 {
		t.Fatalf("unexpected progress %+v", progress)
	}
}

func TestUpdateStrategyModifiesTrackedNote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc := importDoc("d1", "Standup", "original body")

	if _, err := f.svc.ImportDocuments(ctx, []*interfaces.Document{doc}, interfaces.ImportOptions{}); err != nil {
		t.Fatalf("seed import: %v", err)
	}
	if err := f.detector.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	doc.UpdatedAt = doc.UpdatedAt.Add(time.Hour)
	doc.Notes.Content[0].Content[0].Text = "revised body"
	progress, err := f.svc.ImportDocuments(ctx, []*interfaces.Document{doc}, interfaces.ImportOptions{Strategy: interfaces.StrategyUpdate})
	if err != nil {
		t.Fatalf("ImportDocuments: %v", err)
	}
	if progress.Completed != 1 {
		t.Fatalf("unexpected progress %+v", progress)
	}
	if content := f.vault.files["2024-01-02 - Standup.md"]; !strings.Contains(content, "revised body") {
		t.Fatalf("expected updated content, got %q", content)
	}
}

func TestCreateNewProbesSuffixedNames(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc := importDoc("d1", "Standup", "body")

	if _, err := f.svc.ImportDocuments(ctx, []*interfaces.Document{doc}, interfaces.ImportOptions{}); err != nil {
		t.Fatalf("seed import: %v", err)
	}
	if err := f.detector.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	doc.UpdatedAt = doc.UpdatedAt.Add(time.Hour)
	if _, err := f.svc.ImportDocuments(ctx, []*interfaces.Document{doc}, interfaces.ImportOptions{Strategy: interfaces.StrategyCreateNew}); err != nil {
		t.Fatalf("ImportDocuments: %v", err)
	}
	if _, ok := f.vault.files["2024-01-02 - Standup-1.md"]; !ok {
		t.Fatalf("expected probed filename, have %v", f.vault.files)
	}
}

func conflictFixture(t *testing.T) (*fixture, *interfaces.Document) {
	t.Helper()
	f := newFixture(t)
	f.vault.files["2024-01-02 - Standup.md"] = "# My own unrelated note\n"
	return f, importDoc("d1", "Standup", "imported body")
}

func TestConflictSkipLeavesFileUntouched(t *testing.T) {
	f, doc := conflictFixture(t)
	f.resolver.resolution = interfaces.ConflictResolution{Action: interfaces.ConflictSkip, Reason: "keep mine"}

	progress, err := f.svc.ImportDocuments(context.Background(), []*interfaces.Document{doc}, interfaces.ImportOptions{})
	if err != nil {
		t.Fatalf("ImportDocuments: %v", err)
	}
	if progress.Skipped != 1 || f.resolver.calls != 1 {
		t.Fatalf("unexpected outcome %+v calls=%d", progress, f.resolver.calls)
	}
	if f.vault.files["2024-01-02 - Standup.md"] != "# My own unrelated note\n" {
		t.Fatal("skip must not touch the existing file")
	}
}

func TestConflictOverwriteCreatesBackup(t *testing.T) {
	f, doc := conflictFixture(t)
	f.resolver.resolution = interfaces.ConflictResolution{Action: interfaces.ConflictOverwrite, CreateBackup: true}

	progress, err := f.svc.ImportDocuments(context.Background(), []*interfaces.Document{doc}, interfaces.ImportOptions{})
	if err != nil {
		t.Fatalf("ImportDocuments: %v", err)
	}
	if progress.Completed != 1 {
		t.Fatalf("unexpected progress %+v", progress)
	}

	backup := "2024-01-02 - Standup.backup-20240601-120000.md"
	if f.vault.files[backup] != "# My own unrelated note\n" {
		t.Fatalf("expected backup with original content, have %v", f.vault.files)
	}
	if !strings.Contains(f.vault.files["2024-01-02 - Standup.md"], "imported body") {
		t.Fatal("expected file overwritten with converted content")
	}
}

func TestConflictMergePreservesExistingFrontmatter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc := importDoc("d1", "Standup", "imported body")

	if _, err := f.svc.ImportDocuments(ctx, []*interfaces.Document{doc}, interfaces.ImportOptions{}); err != nil {
		t.Fatalf("seed import: %v", err)
	}
	path := "2024-01-02 - Standup.md"
	f.vault.files[path] = strings.Replace(f.vault.files[path], "imported body", "imported body [[My Link]]", 1)
	if err := f.detector.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	doc.Notes.Content[0].Content[0].Text = "fresh remote body"
	f.resolver.resolution = interfaces.ConflictResolution{Action: interfaces.ConflictMerge, Merge: interfaces.MergeAppend}

	progress, err := f.svc.ImportDocuments(ctx, []*interfaces.Document{doc}, interfaces.ImportOptions{})
	if err != nil {
		t.Fatalf("ImportDocuments: %v", err)
	}
	if progress.Completed != 1 {
		t.Fatalf("unexpected progress %+v", progress)
	}

	merged := f.vault.files[path]
	if !strings.HasPrefix(merged, "---\nid: d1\n") {
		t.Fatalf("existing frontmatter must survive the merge, got %q", merged)
	}
	local := strings.Index(merged, "[[My Link]]")
	remote := strings.Index(merged, "fresh remote body")
	if local == -1 || remote == -1 || remote < local {
		t.Fatalf("append merge must keep local text first, got %q", merged)
	}
}

func TestConflictRenameWritesAlternatePath(t *testing.T) {
	f, doc := conflictFixture(t)
	f.resolver.resolution = interfaces.ConflictResolution{Action: interfaces.ConflictRename, NewFilename: "Standup (imported).md"}

	progress, err := f.svc.ImportDocuments(context.Background(), []*interfaces.Document{doc}, interfaces.ImportOptions{})
	if err != nil {
		t.Fatalf("ImportDocuments: %v", err)
	}
	if progress.Completed != 1 {
		t.Fatalf("unexpected progress %+v", progress)
	}
	if _, ok := f.vault.files["Standup (imported).md"]; !ok {
		t.Fatalf("expected renamed note, have %v", f.vault.files)
	}
}

func TestConflictViewDiffIsUnknownAction(t *testing.T) {
	f, doc := conflictFixture(t)
	f.resolver.resolution = interfaces.ConflictResolution{Action: interfaces.ConflictViewDiff}

	progress, err := f.svc.ImportDocuments(context.Background(), []*interfaces.Document{doc}, interfaces.ImportOptions{})
	if err != nil {
		t.Fatalf("ImportDocuments: %v", err)
	}
	if progress.Failed != 1 {
		t.Fatalf("unexpected progress %+v", progress)
	}
	failed := f.svc.FailedDocuments()
	if len(failed) != 1 || !strings.Contains(failed[0].Err, "unknown conflict action") {
		t.Fatalf("unexpected failed set %+v", failed)
	}
}

func TestRetryFailedReplaysFailureSet(t *testing.T) {
	f := newFixture(t)
	f.conv.fail["d2"] = errors.New("conversion exploded")

	if _, err := f.svc.ImportDocuments(context.Background(), []*interfaces.Document{
		importDoc("d1", "One", "a"),
		importDoc("d2", "Two", "b"),
	}, interfaces.ImportOptions{}); err != nil {
		t.Fatalf("ImportDocuments: %v", err)
	}
	if len(f.svc.FailedDocuments()) != 1 {
		t.Fatalf("expected one failure, got %+v", f.svc.FailedDocuments())
	}

	delete(f.conv.fail, "d2")
	progress, err := f.svc.RetryFailed(context.Background(), interfaces.ImportOptions{})
	if err != nil {
		t.Fatalf("RetryFailed: %v", err)
	}
	if progress.Total != 1 || progress.Completed != 1 {
		t.Fatalf("unexpected retry progress %+v", progress)
	}
	if len(f.svc.FailedDocuments()) != 0 {
		t.Fatalf("retry success must clear the failure set, got %+v", f.svc.FailedDocuments())
	}
}
