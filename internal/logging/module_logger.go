package logging

import (
	"context"
	"strings"

	"github.com/goliatone/go-granola/pkg/interfaces"
)

const (
	rootModule      = "granola"
	converterModule = "granola.converter"
	dedupModule     = "granola.dedup"
	importerModule  = "granola.importer"
	metadataModule  = "granola.metadata"
	clientModule    = "granola.client"
	vaultModule     = "granola.vault"
)

const (
	fieldDocumentID    = "document_id"
	fieldDocumentTitle = "document_title"
	fieldImportAction  = "import_action"
)

// ModuleLogger returns a module-scoped logger, defaulting to a no-op
// implementation when no provider is supplied. The returned logger attaches
// the module identifier as structured context so downstream entries can be
// filtered predictably.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	if fieldsLogger, ok := logger.(interfaces.FieldsLogger); ok {
		return fieldsLogger.WithFields(map[string]any{
			"module": module,
		})
	}

	return WithFields(logger, map[string]any{
		"module": module,
	})
}

// ConverterLogger returns the logger namespace reserved for the Markdown converter.
func ConverterLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, converterModule)
}

// DedupLogger returns the logger namespace reserved for the duplicate detector.
func DedupLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, dedupModule)
}

// ImporterLogger returns the logger namespace reserved for the import orchestrator.
func ImporterLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, importerModule)
}

// MetadataLogger returns the logger namespace reserved for metadata derivation.
func MetadataLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, metadataModule)
}

// ClientLogger returns the logger namespace reserved for the fetch client.
func ClientLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, clientModule)
}

// VaultLogger returns the logger namespace reserved for the vault adapter.
func VaultLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, vaultModule)
}

// WithDocumentContext enriches the provided logger with common import fields
// such as document id, title, and the action being applied. Empty values are
// ignored.
func WithDocumentContext(logger interfaces.Logger, id, title, action string) interfaces.Logger {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(id); trimmed != "" {
		fields[fieldDocumentID] = trimmed
	}
	if trimmed := strings.TrimSpace(title); trimmed != "" {
		fields[fieldDocumentTitle] = trimmed
	}
	if trimmed := strings.TrimSpace(action); trimmed != "" {
		fields[fieldImportAction] = trimmed
	}
	return WithFields(logger, fields)
}

// NoOp returns a logger that drops every log entry. It satisfies the Logger
// contract so services can safely operate when logging is disabled.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}
