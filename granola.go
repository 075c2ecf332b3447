package granola

import (
	"context"
	"errors"
	"strings"

	"github.com/goliatone/go-granola/internal/client"
	"github.com/goliatone/go-granola/internal/converter"
	"github.com/goliatone/go-granola/internal/dedup"
	"github.com/goliatone/go-granola/internal/importer"
	"github.com/goliatone/go-granola/internal/logging"
	"github.com/goliatone/go-granola/internal/logging/console"
	"github.com/goliatone/go-granola/internal/logging/gologger"
	"github.com/goliatone/go-granola/internal/metadata"
	"github.com/goliatone/go-granola/pkg/interfaces"
)

// ErrVaultRequired is returned when the module is built without a vault.
var ErrVaultRequired = errors.New("granola: vault is required")

// ErrClientDisabled is returned when document fetching is requested but no
// fetcher was configured.
var ErrClientDisabled = errors.New("granola: document client is not configured")

// ConverterService exports the Markdown converter contract.
type ConverterService = *converter.Service

// DetectorService exports the duplicate detector contract.
type DetectorService = *dedup.Detector

// MetadataService exports the metadata derivation contract.
type MetadataService = *metadata.Service

// ImporterService exports the import orchestrator contract.
type ImporterService = *importer.Service

// FailedImport re-exports the orchestrator's failure snapshot.
type FailedImport = importer.FailedImport

// Dependencies supplies the external collaborators the module cannot build
// itself: the note store, the conflict dialog, and optional overrides for
// the document source and logging provider.
type Dependencies struct {
	Vault          interfaces.Vault
	Resolver       interfaces.ConflictResolver
	Fetcher        interfaces.DocumentFetcher
	LoggerProvider interfaces.LoggerProvider
}

// Module is the top level importer runtime facade.
type Module struct {
	cfg      Config
	provider interfaces.LoggerProvider

	converter *converter.Service
	detector  *dedup.Detector
	metadata  *metadata.Service
	importer  *importer.Service
	fetcher   interfaces.DocumentFetcher
}

// New constructs the importer module from configuration plus external
// collaborators.
func New(cfg Config, deps Dependencies) (*Module, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Vault == nil {
		return nil, ErrVaultRequired
	}

	provider := deps.LoggerProvider
	if provider == nil {
		built, err := buildLoggerProvider(cfg)
		if err != nil {
			return nil, err
		}
		provider = built
	}

	conv := converter.NewService(converter.Config{
		ContentMode: cfg.Converter.ContentMode,
		Frontmatter: cfg.Frontmatter,
		Filename:    cfg.Filename,
		Logger:      logging.ConverterLogger(provider),
	})

	detector, err := dedup.NewDetector(dedup.Config{
		Vault:  deps.Vault,
		Names:  conv.Names(),
		Policy: cfg.Dedup,
		Logger: logging.DedupLogger(provider),
	})
	if err != nil {
		return nil, err
	}

	meta := metadata.NewService(metadata.Config{
		Logger: logging.MetadataLogger(provider),
	})

	orchestrator, err := importer.NewService(importer.Config{
		Converter: conv,
		Detector:  detector,
		Metadata:  meta,
		Vault:     deps.Vault,
		Resolver:  deps.Resolver,
		Defaults:  cfg.Importer,
		Logger:    logging.ImporterLogger(provider),
	})
	if err != nil {
		return nil, err
	}

	fetcher := deps.Fetcher
	if fetcher == nil && cfg.Features.Client && cfg.Client.Enabled {
		built, err := client.New(client.Config{
			BaseURL:         cfg.Client.BaseURL,
			CredentialsFile: cfg.Client.CredentialsFile,
			MaxRetries:      cfg.Client.MaxRetries,
			Timeout:         cfg.Client.Timeout,
			Logger:          logging.ClientLogger(provider),
		})
		if err != nil {
			return nil, err
		}
		fetcher = built
	}

	return &Module{
		cfg:       cfg,
		provider:  provider,
		converter: conv,
		detector:  detector,
		metadata:  meta,
		importer:  orchestrator,
		fetcher:   fetcher,
	}, nil
}

// Converter returns the configured Markdown converter.
func (m *Module) Converter() ConverterService { return m.converter }

// Detector returns the configured duplicate detector.
func (m *Module) Detector() DetectorService { return m.detector }

// Metadata returns the configured metadata service.
func (m *Module) Metadata() MetadataService { return m.metadata }

// Importer returns the configured import orchestrator.
func (m *Module) Importer() ImporterService { return m.importer }

// LoggerProvider exposes the provider backing module loggers, nil when
// logging is disabled.
func (m *Module) LoggerProvider() interfaces.LoggerProvider { return m.provider }

// Import runs one batch over the given documents.
func (m *Module) Import(ctx context.Context, docs []*interfaces.Document, opts interfaces.ImportOptions) (interfaces.ImportProgress, error) {
	return m.importer.ImportDocuments(ctx, docs, opts)
}

// Check classifies documents against the vault index.
func (m *Module) Check(ctx context.Context, docs []*interfaces.Document) (map[string]*interfaces.DuplicateCheckResult, error) {
	return m.detector.CheckDocuments(ctx, docs)
}

// Refresh forces a full re-scan of the vault index.
func (m *Module) Refresh(ctx context.Context) error {
	return m.detector.Refresh(ctx)
}

// Cancel flags the active import batch for cooperative cancellation.
func (m *Module) Cancel() {
	m.importer.Cancel()
}

// FetchDocuments pulls the remote document set through the configured
// client.
func (m *Module) FetchDocuments(ctx context.Context) ([]*interfaces.Document, error) {
	if m.fetcher == nil {
		return nil, ErrClientDisabled
	}
	return m.fetcher.FetchDocuments(ctx)
}

// buildLoggerProvider maps the logging configuration onto one of the bundled
// providers. A disabled logging feature yields a nil provider, which every
// service treats as no-op logging.
func buildLoggerProvider(cfg Config) (interfaces.LoggerProvider, error) {
	if !cfg.Features.Logger {
		return nil, nil
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Logging.Provider)) {
	case "gologger":
		return gologger.NewProvider(gologger.Config{
			Level:     cfg.Logging.Level,
			Format:    cfg.Logging.Format,
			AddSource: cfg.Logging.AddSource,
			Focus:     cfg.Logging.Focus,
		})
	default:
		return console.NewProvider(console.Options{
			MinLevel: consoleLevel(cfg.Logging.Level),
		}), nil
	}
}

func consoleLevel(level string) *console.Level {
	var parsed console.Level
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		parsed = console.LevelTrace
	case "debug":
		parsed = console.LevelDebug
	case "info":
		parsed = console.LevelInfo
	case "warn", "warning":
		parsed = console.LevelWarn
	case "error":
		parsed = console.LevelError
	case "fatal":
		parsed = console.LevelFatal
	default:
		return nil
	}
	return &parsed
}
