package interfaces

import "context"

// FileRef is a handle to a file inside the vault. Path is relative to the
// vault root and always slash-separated.
type FileRef struct {
	Path string
	Name string
}

// Vault abstracts the persisted note store. The importer treats it as
// authoritative for existence and collision checks and never touches the
// filesystem directly.
type Vault interface {
	// Create writes a new file. Implementations should fail when the path
	// already exists so the orchestrator's collision handling stays in charge.
	Create(ctx context.Context, path string, content string) (*FileRef, error)
	// Modify replaces the content of an existing file.
	Modify(ctx context.Context, ref *FileRef, content string) error
	// Read returns the full content of an existing file.
	Read(ctx context.Context, ref *FileRef) (string, error)
	// GetFileByPath resolves a path to a file handle, or nil when absent.
	GetFileByPath(ctx context.Context, path string) *FileRef
	// ListMarkdownFiles enumerates every Markdown file in the vault.
	ListMarkdownFiles(ctx context.Context) ([]FileRef, error)
}
