package bootstrap

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	granola "github.com/goliatone/go-granola"
	"github.com/goliatone/go-granola/internal/logging"
	"github.com/goliatone/go-granola/internal/vault"
	"github.com/goliatone/go-granola/pkg/interfaces"
)

// Env variable names honoured by the CLI. Flags win over env values.
const (
	EnvBaseURL     = "GRANOLA_API_URL"
	EnvCredentials = "GRANOLA_CREDENTIALS"
)

// Options captures configuration for importer CLI bootstraps.
type Options struct {
	VaultDir        string
	EnvFile         string
	BaseURL         string
	CredentialsFile string
	LogProvider     string
	LogLevel        string
	LogFormat       string
	ConflictAction  string
	ConflictBackup  bool
}

// Module wraps the importer module with the logger handed to CLI handlers.
type Module struct {
	Module *granola.Module
	Logger interfaces.Logger
}

// BuildModule constructs an importer module configured for CLI use. The env
// file, when present, seeds endpoint and credential settings; a missing file
// is not an error.
func BuildModule(opts Options) (*Module, error) {
	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("load env file: %w", err)
		}
	}

	cfg := granola.DefaultConfig()
	cfg.Features.Logger = true
	cfg.Features.Client = true
	cfg.Features.Commands = true
	cfg.Client.Enabled = true

	if value := firstNonEmpty(opts.BaseURL, os.Getenv(EnvBaseURL)); value != "" {
		cfg.Client.BaseURL = value
	}
	if value := firstNonEmpty(opts.CredentialsFile, os.Getenv(EnvCredentials)); value != "" {
		cfg.Client.CredentialsFile = value
	}
	if opts.LogProvider != "" {
		cfg.Logging.Provider = opts.LogProvider
	}
	if opts.LogLevel != "" {
		cfg.Logging.Level = opts.LogLevel
	}
	if opts.LogFormat != "" {
		cfg.Logging.Format = opts.LogFormat
	}

	store, err := vault.New(vault.Config{Root: opts.VaultDir})
	if err != nil {
		return nil, fmt.Errorf("open vault: %w", err)
	}

	module, err := granola.New(cfg, granola.Dependencies{
		Vault:    store,
		Resolver: StaticResolver{Action: conflictAction(opts.ConflictAction), Backup: opts.ConflictBackup},
	})
	if err != nil {
		return nil, fmt.Errorf("initialise importer module: %w", err)
	}

	return &Module{
		Module: module,
		Logger: logging.ModuleLogger(module.LoggerProvider(), ""),
	}, nil
}

// StaticResolver answers every conflict with one configured action. The CLI
// has no interactive dialog, so the choice is made up front.
type StaticResolver struct {
	Action interfaces.ConflictAction
	Backup bool
}

// Resolve satisfies interfaces.ConflictResolver.
func (r StaticResolver) Resolve(context.Context, *interfaces.Document, *interfaces.DocumentMetadata, *interfaces.FileRef) (interfaces.ConflictResolution, error) {
	return interfaces.ConflictResolution{
		Action:       r.Action,
		Reason:       "resolved by CLI policy",
		CreateBackup: r.Backup,
	}, nil
}

func conflictAction(value string) interfaces.ConflictAction {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "overwrite":
		return interfaces.ConflictOverwrite
	default:
		return interfaces.ConflictSkip
	}
}

// SplitIDs parses a comma separated id list into a trimmed slice.
func SplitIDs(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	ids := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			ids = append(ids, trimmed)
		}
	}
	return ids
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
