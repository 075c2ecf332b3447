package granolacmd

import (
	"context"
	"errors"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-granola/internal/commands"
	"github.com/goliatone/go-granola/internal/logging"
	"github.com/goliatone/go-granola/pkg/interfaces"
)

const (
	importOperation  = "granola.import_selected"
	refreshOperation = "granola.refresh_index"
)

// ErrNoDocumentsMatched is returned when none of the requested ids exist in
// the fetched document set.
var ErrNoDocumentsMatched = errors.New("granola command: no documents matched the selection")

var (
	_ command.Commander[ImportSelectedCommand] = (*ImportSelectedHandler)(nil)
	_ command.Commander[RefreshIndexCommand]   = (*RefreshIndexHandler)(nil)
)

// ImportRunner is the orchestrator slice the import command needs.
type ImportRunner interface {
	ImportDocuments(ctx context.Context, docs []*interfaces.Document, opts interfaces.ImportOptions) (interfaces.ImportProgress, error)
}

// ImportSelectedHandler resolves the selection against the remote document
// set and runs it through the import orchestrator.
type ImportSelectedHandler struct {
	inner *commands.Handler[ImportSelectedCommand]
}

// NewImportSelectedHandler creates a handler bound to the supplied runner
// and document source.
func NewImportSelectedHandler(runner ImportRunner, source interfaces.DocumentFetcher, logger interfaces.Logger, opts ...commands.HandlerOption[ImportSelectedCommand]) *ImportSelectedHandler {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = logging.NoOp()
	}

	exec := func(ctx context.Context, msg ImportSelectedCommand) error {
		docs, err := source.FetchDocuments(ctx)
		if err != nil {
			return err
		}

		wanted := make(map[string]struct{}, len(msg.DocumentIDs))
		for _, id := range msg.DocumentIDs {
			wanted[id] = struct{}{}
		}
		selected := make([]*interfaces.Document, 0, len(wanted))
		for _, doc := range docs {
			if doc == nil {
				continue
			}
			if _, ok := wanted[doc.ID]; ok {
				selected = append(selected, doc)
			}
		}
		if len(selected) == 0 {
			return ErrNoDocumentsMatched
		}
		if missing := len(wanted) - len(selected); missing > 0 {
			baseLogger.Warn("granola.command.import_selected.missing_documents", "count", missing)
		}

		progress, err := runner.ImportDocuments(ctx, selected, interfaces.ImportOptions{
			Strategy:    interfaces.ImportStrategy(msg.Strategy),
			SkipEmpty:   msg.SkipEmpty,
			StopOnError: msg.StopOnError,
		})
		if err != nil {
			return err
		}

		logging.WithFields(baseLogger, map[string]any{
			"completed": progress.Completed,
			"failed":    progress.Failed,
			"skipped":   progress.Skipped,
			"empty":     progress.Empty,
			"cancelled": progress.Cancelled,
		}).Info("granola.command.import_selected.completed")
		return nil
	}

	handlerOpts := []commands.HandlerOption[ImportSelectedCommand]{
		commands.WithLogger[ImportSelectedCommand](baseLogger),
		commands.WithOperation[ImportSelectedCommand](importOperation),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &ImportSelectedHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[ImportSelectedCommand].
func (h *ImportSelectedHandler) Execute(ctx context.Context, msg ImportSelectedCommand) error {
	return h.inner.Execute(ctx, msg)
}

// RefreshIndexHandler forces a duplicate index rebuild.
type RefreshIndexHandler struct {
	inner *commands.Handler[RefreshIndexCommand]
}

// NewRefreshIndexHandler creates a handler bound to the supplied detector.
func NewRefreshIndexHandler(detector interfaces.DuplicateDetector, logger interfaces.Logger, opts ...commands.HandlerOption[RefreshIndexCommand]) *RefreshIndexHandler {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = logging.NoOp()
	}

	exec := func(ctx context.Context, _ RefreshIndexCommand) error {
		if err := detector.Refresh(ctx); err != nil {
			return err
		}
		stats := detector.Stats()
		logging.WithFields(baseLogger, map[string]any{
			"tracked":          stats.TrackedFiles,
			"locally_modified": stats.LocallyModified,
		}).Info("granola.command.refresh_index.completed")
		return nil
	}

	handlerOpts := []commands.HandlerOption[RefreshIndexCommand]{
		commands.WithLogger[RefreshIndexCommand](baseLogger),
		commands.WithOperation[RefreshIndexCommand](refreshOperation),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &RefreshIndexHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[RefreshIndexCommand].
func (h *RefreshIndexHandler) Execute(ctx context.Context, msg RefreshIndexCommand) error {
	return h.inner.Execute(ctx, msg)
}
