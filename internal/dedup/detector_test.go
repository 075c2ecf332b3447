package dedup

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-granola/internal/converter"
	"github.com/goliatone/go-granola/internal/runtimeconfig"
	"github.com/goliatone/go-granola/pkg/interfaces"
)

type fakeVault struct {
	files map[string]string
	lists int
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
	v.lists++
	refs := make([]interfaces.FileRef, 0, len(v.files))
	for path := range v.files {
		refs = append(refs, interfaces.FileRef{Path: path, Name: path})
	}
	return refs, nil
}

func trackedNote(id string, updated time.Time, body string) string {
	return strings.Join([]string{
		"---",
		"id: " + id,
		"title: Test",
		"created: 2024-01-01T00:00:00Z",
		"updated: " + updated.UTC().Format(time.RFC3339),
		"source: granola",
		"---",
		"",
		body,
	}, "\n")
}

func testDetector(t *testing.T, vault *fakeVault) *Detector {
	t.Helper()
	names := converter.NewNameGenerator(runtimeconfig.FilenameConfig{
		DatePrefix: runtimeconfig.DatePrefixISO,
		Style:      runtimeconfig.FilenamePlain,
		MaxLength:  100,
	})
	detector, err := NewDetector(Config{
		Vault: vault,
		Names: names,
		Policy: runtimeconfig.DedupConfig{
			ModificationPatterns: runtimeconfig.DefaultModificationPatterns(),
			NotesHeading:         "## Notes",
			WordThreshold:        2000,
		},
	})
	if err != nil {
		t.Fatalf("NewDetector: %v", err)
	}
	return detector
}

func checkDoc(id, title string, updated time.Time) *interfaces.Document {
	return &interfaces.Document{
		ID:        id,
		Title:     title,
		CreatedAt: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		UpdatedAt: updated,
	}
}

func TestCheckDocumentNewWhenVaultEmpty(t *testing.T) {
	detector := testDetector(t, newFakeVault())

	result, err := detector.CheckDocument(context.Background(), checkDoc("d1", "Standup", time.Now()))
	if err != nil {
		t.Fatalf("CheckDocument: %v", err)
	}
	if result.Status != interfaces.StatusNew {
		t.Fatalf("expected NEW, got %s", result.Status)
	}
}

func TestCheckDocumentConflictOnFilenameCollision(t *testing.T) {
	vault := newFakeVault()
	vault.files["2024-01-02 - Standup.md"] = "# My own note, no frontmatter\n"
	detector := testDetector(t, vault)

	result, err := detector.CheckDocument(context.Background(), checkDoc("d1", "Standup", time.Now()))
	if err != nil {
		t.Fatalf("CheckDocument: %v", err)
	}
	if result.Status != interfaces.StatusConflict {
		t.Fatalf("expected CONFLICT, got %s", result.Status)
	}
	if !result.RequiresUserChoice {
		t.Fatal("collision conflicts must require a user choice")
	}
	if !strings.Contains(result.Reason, "File already exists") {
		t.Fatalf("reason must name the collision, got %q", result.Reason)
	}
	if result.ExistingFile == nil || result.ExistingFile.Path != "2024-01-02 - Standup.md" {
		t.Fatalf("expected existing file ref, got %+v", result.ExistingFile)
	}
}

func TestCheckDocumentConflictOnLegacyFilename(t *testing.T) {
	vault := newFakeVault()
	vault.files["Standup.md"] = "unrelated\n"
	detector := testDetector(t, vault)

	result, err := detector.CheckDocument(context.Background(), checkDoc("d1", "Standup", time.Now()))
	if err != nil {
		t.Fatalf("CheckDocument: %v", err)
	}
	if result.Status != interfaces.StatusConflict {
		t.Fatalf("expected CONFLICT for legacy name, got %s", result.Status)
	}
}

func TestCheckDocumentExistsWhenTimestampsMatch(t *testing.T) {
	updated := time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)
	vault := newFakeVault()
	vault.files["2024-01-02 - Standup.md"] = trackedNote("d1", updated, "body text")
	detector := testDetector(t, vault)

	result, err := detector.CheckDocument(context.Background(), checkDoc("d1", "Standup", updated))
	if err != nil {
		t.Fatalf("CheckDocument: %v", err)
	}
	if result.Status != interfaces.StatusExists {
		t.Fatalf("expected EXISTS, got %s (%s)", result.Status, result.Reason)
	}
	if result.RequiresUserChoice {
		t.Fatal("EXISTS must not require a user choice")
	}
}

func TestCheckDocumentUpdatedWhenRemoteNewer(t *testing.T) {
	updated := time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)
	vault := newFakeVault()
	vault.files["2024-01-02 - Standup.md"] = trackedNote("d1", updated, "body text")
	detector := testDetector(t, vault)

	result, err := detector.CheckDocument(context.Background(), checkDoc("d1", "Standup", updated.Add(time.Hour)))
	if err != nil {
		t.Fatalf("CheckDocument: %v", err)
	}
	if result.Status != interfaces.StatusUpdated {
		t.Fatalf("expected UPDATED, got %s", result.Status)
	}
}

func TestCheckDocumentConflictWhenLocallyModified(t *testing.T) {
	updated := time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)
	vault := newFakeVault()
	vault.files["2024-01-02 - Standup.md"] = trackedNote("d1", updated, "see [[Other Note]] for details")
	detector := testDetector(t, vault)

	result, err := detector.CheckDocument(context.Background(), checkDoc("d1", "Standup", updated))
	if err != nil {
		t.Fatalf("CheckDocument: %v", err)
	}
	if result.Status != interfaces.StatusConflict {
		t.Fatalf("expected CONFLICT, got %s", result.Status)
	}
	if !result.RequiresUserChoice {
		t.Fatal("modification conflicts must require a user choice")
	}
	if !strings.Contains(result.Reason, "modified locally") {
		t.Fatalf("unexpected reason %q", result.Reason)
	}
}

func TestAddedNotesSectionFlagsModification(t *testing.T) {
	updated := time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)
	vault := newFakeVault()
	vault.files["2024-01-02 - Standup.md"] = trackedNote("d1", updated, "imported body\n\n## Notes\n\nmy thoughts")
	detector := testDetector(t, vault)

	result, err := detector.CheckDocument(context.Background(), checkDoc("d1", "Standup", updated))
	if err != nil {
		t.Fatalf("CheckDocument: %v", err)
	}
	if result.Status != interfaces.StatusConflict {
		t.Fatalf("expected CONFLICT, got %s", result.Status)
	}
}

func TestMalformedFrontmatterTreatedAsUntracked(t *testing.T) {
	vault := newFakeVault()
	vault.files["broken.md"] = "---\nid: [unterminated\nsource: granola\n"
	detector := testDetector(t, vault)

	if err := detector.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if stats := detector.Stats(); stats.TrackedFiles != 0 {
		t.Fatalf("malformed notes must not be indexed, got %+v", stats)
	}
}

func TestForeignSourceIgnored(t *testing.T) {
	vault := newFakeVault()
	vault.files["other.md"] = "---\nid: d1\nsource: notion\n---\nbody\n"
	detector := testDetector(t, vault)

	result, err := detector.CheckDocument(context.Background(), checkDoc("d1", "Other", time.Now()))
	if err != nil {
		t.Fatalf("CheckDocument: %v", err)
	}
	if result.Status != interfaces.StatusNew {
		t.Fatalf("foreign sources must not claim the id, got %s", result.Status)
	}
}

func TestInitializeIsIdempotentUntilRefresh(t *testing.T) {
	vault := newFakeVault()
	detector := testDetector(t, vault)
	ctx := context.Background()

	if err := detector.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := detector.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if vault.lists != 1 {
		t.Fatalf("expected a single scan, got %d", vault.lists)
	}

	if err := detector.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if vault.lists != 2 {
		t.Fatalf("Refresh must re-scan, got %d", vault.lists)
	}
}

func TestRefreshForgetsDeletedNotes(t *testing.T) {
	updated := time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)
	vault := newFakeVault()
	vault.files["2024-01-02 - Standup.md"] = trackedNote("d1", updated, "body")
	detector := testDetector(t, vault)
	ctx := context.Background()

	if err := detector.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if stats := detector.Stats(); stats.TrackedFiles != 1 {
		t.Fatalf("expected one tracked note, got %+v", stats)
	}

	delete(vault.files, "2024-01-02 - Standup.md")
	if err := detector.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if stats := detector.Stats(); stats.TrackedFiles != 0 {
		t.Fatalf("deleted notes must be forgotten, got %+v", stats)
	}
}

func TestCheckDocumentsBatches(t *testing.T) {
	updated := time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)
	vault := newFakeVault()
	vault.files["2024-01-02 - Standup.md"] = trackedNote("d1", updated, "body")
	detector := testDetector(t, vault)

	results, err := detector.CheckDocuments(context.Background(), []*interfaces.Document{
		checkDoc("d1", "Standup", updated),
		checkDoc("d2", "Retro", updated),
		nil,
	})
	if err != nil {
		t.Fatalf("CheckDocuments: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected two results, got %d", len(results))
	}
	if results["d1"].Status != interfaces.StatusExists {
		t.Fatalf("d1: expected EXISTS, got %s", results["d1"].Status)
	}
	if results["d2"].Status != interfaces.StatusNew {
		t.Fatalf("d2: expected NEW, got %s", results["d2"].Status)
	}
}

func TestStatsTracksModifiedAndUpdateRange(t *testing.T) {
	vault := newFakeVault()
	older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	vault.files["a.md"] = trackedNote("d1", older, "plain body")
	vault.files["b.md"] = trackedNote("d2", newer, "edited [[link]]")
	detector := testDetector(t, vault)

	if err := detector.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	stats := detector.Stats()
	if stats.TrackedFiles != 2 || stats.LocallyModified != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if !stats.OldestUpdate.Equal(older) || !stats.NewestUpdate.Equal(newer) {
		t.Fatalf("unexpected update range %+v", stats)
	}
}
