package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/goliatone/go-granola/cmd/granola/internal/bootstrap"
	granolacmd "github.com/goliatone/go-granola/internal/commands/granolacmd"
	"github.com/goliatone/go-granola/pkg/interfaces"
)

var moduleBuilder = bootstrap.BuildModule

func main() {
	if err := runImport(os.Args[1:]); err != nil {
		log.Fatalf("granola import: %v", err)
	}
}

func runImport(args []string) error {
	fs := flag.NewFlagSet("granola-import", flag.ExitOnError)
	vaultDir := fs.String("vault", "vault", "Path to the Markdown vault root")
	envFile := fs.String("env", "", "Optional .env file with endpoint and credential settings")
	apiURL := fs.String("api-url", "", "Granola get-documents endpoint (defaults to config/env)")
	credentials := fs.String("credentials", "", "Path to the credentials file (supabase.json)")
	ids := fs.String("ids", "", "Comma separated document ids to import (defaults to all fetched)")
	strategy := fs.String("strategy", "", "Collision strategy: skip, update, or create_new")
	skipEmpty := fs.Bool("skip-empty", true, "Skip documents with no extractable content")
	stopOnError := fs.Bool("stop-on-error", false, "Cancel the batch after the first failure")
	conflict := fs.String("conflict", "skip", "Conflict policy: skip or overwrite")
	backup := fs.Bool("backup", true, "Snapshot existing files before overwriting on conflict")
	list := fs.Bool("list", false, "List fetched documents instead of importing")
	refresh := fs.Bool("refresh", false, "Re-scan the vault index before importing")
	logProvider := fs.String("log-provider", "console", "Logging provider: console or gologger")
	logLevel := fs.String("log-level", "info", "Minimum log level")

	if err := fs.Parse(args); err != nil {
		return err
	}

	module, err := moduleBuilder(bootstrap.Options{
		VaultDir:        *vaultDir,
		EnvFile:         *envFile,
		BaseURL:         *apiURL,
		CredentialsFile: *credentials,
		LogProvider:     *logProvider,
		LogLevel:        *logLevel,
		ConflictAction:  *conflict,
		ConflictBackup:  *backup,
	})
	if err != nil {
		return fmt.Errorf("bootstrap module: %w", err)
	}

	ctx := context.Background()

	if *refresh {
		handler := granolacmd.NewRefreshIndexHandler(module.Module.Detector(), module.Logger)
		if err := handler.Execute(ctx, granolacmd.RefreshIndexCommand{}); err != nil {
			return fmt.Errorf("execute refresh command: %w", err)
		}
	}

	docs, err := module.Module.FetchDocuments(ctx)
	if err != nil {
		return fmt.Errorf("fetch documents: %w", err)
	}
	if len(docs) == 0 {
		fmt.Fprintln(os.Stdout, "no documents available")
		return nil
	}

	if *list {
		return listDocuments(ctx, module, docs)
	}

	selection := bootstrap.SplitIDs(*ids)
	if len(selection) == 0 {
		selection = make([]string, 0, len(docs))
		for _, doc := range docs {
			if doc != nil {
				selection = append(selection, doc.ID)
			}
		}
	}

	handler := granolacmd.NewImportSelectedHandler(module.Module.Importer(), staticFetcher(docs), module.Logger)
	cmd := granolacmd.ImportSelectedCommand{
		DocumentIDs: selection,
		Strategy:    *strategy,
		SkipEmpty:   *skipEmpty,
		StopOnError: *stopOnError,
	}
	if err := handler.Execute(ctx, cmd); err != nil {
		return fmt.Errorf("execute import command: %w", err)
	}

	progress := module.Module.Importer().Progress()
	fmt.Fprintf(os.Stdout, "import finished: %d completed, %d failed, %d skipped, %d empty\n",
		progress.Completed, progress.Failed, progress.Skipped, progress.Empty)
	return nil
}

func listDocuments(ctx context.Context, module *bootstrap.Module, docs []*interfaces.Document) error {
	checks, err := module.Module.Check(ctx, docs)
	if err != nil {
		return fmt.Errorf("classify documents: %w", err)
	}
	for _, doc := range docs {
		if doc == nil {
			continue
		}
		meta := module.Module.Metadata().Extract(doc, checks[doc.ID])
		status := "NEW"
		if meta.Check != nil {
			status = string(meta.Check.Status)
		}
		fmt.Fprintf(os.Stdout, "%-10s %-40s %6d words  updated %s\n", status, meta.Title, meta.WordCount, meta.UpdatedAgo)
	}
	return nil
}

// staticFetcher hands an already fetched document set to the command
// handler, avoiding a second round trip to the API.
type staticFetcher []*interfaces.Document

func (f staticFetcher) FetchDocuments(context.Context) ([]*interfaces.Document, error) {
	return f, nil
}
