package vault

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-granola/internal/logging"
	"github.com/goliatone/go-granola/pkg/interfaces"
)

// ErrRootRequired is returned when the vault is constructed without a root
// directory.
var ErrRootRequired = errors.New("granola vault: root directory is required")

// ErrPathOutsideVault rejects paths that escape the vault root.
var ErrPathOutsideVault = errors.New("granola vault: path escapes the vault root")

// Config wires the filesystem vault.
type Config struct {
	Root   string
	Logger interfaces.Logger
}

// Filesystem is a Vault backed by a directory tree. Paths handed to and
// returned from it are slash-separated and relative to the root.
type Filesystem struct {
	root   string
	logger interfaces.Logger
}

// New builds a filesystem vault rooted at cfg.Root.
func New(cfg Config) (*Filesystem, error) {
	if strings.TrimSpace(cfg.Root) == "" {
		return nil, ErrRootRequired
	}
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("granola vault: resolve root: %w", err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NoOp()
	}
	return &Filesystem{root: root, logger: logger}, nil
}

// Create writes a new file, refusing to clobber an existing one so the
// importer's collision handling stays in charge.
func (v *Filesystem) Create(_ context.Context, path string, content string) (*interfaces.FileRef, error) {
	full, err := v.resolve(path)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(full); err == nil {
		return nil, fmt.Errorf("granola vault: %s: %w", path, fs.ErrExist)
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return nil, fmt.Errorf("granola vault: create parent: %w", err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		return nil, fmt.Errorf("granola vault: write %s: %w", path, err)
	}
	return v.ref(path), nil
}

// Modify replaces the content of an existing file.
func (v *Filesystem) Modify(_ context.Context, ref *interfaces.FileRef, content string) error {
	full, err := v.resolve(ref.Path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(full); err != nil {
		return fmt.Errorf("granola vault: modify %s: %w", ref.Path, err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		return fmt.Errorf("granola vault: write %s: %w", ref.Path, err)
	}
	return nil
}

// Read returns the full content of a file.
func (v *Filesystem) Read(_ context.Context, ref *interfaces.FileRef) (string, error) {
	full, err := v.resolve(ref.Path)
	if err != nil {
		return "", err
	}
	raw, err := os.ReadFile(full)
	if err != nil {
		return "", fmt.Errorf("granola vault: read %s: %w", ref.Path, err)
	}
	return string(raw), nil
}

// GetFileByPath resolves a relative path to a handle, or nil when the path
// is absent, a directory, or invalid.
func (v *Filesystem) GetFileByPath(_ context.Context, path string) *interfaces.FileRef {
	full, err := v.resolve(path)
	if err != nil {
		return nil
	}
	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		return nil
	}
	return v.ref(path)
}

// ListMarkdownFiles walks the vault recursively, returning every .md file.
// Hidden directories are skipped.
func (v *Filesystem) ListMarkdownFiles(_ context.Context) ([]interfaces.FileRef, error) {
	var refs []interfaces.FileRef
	err := filepath.WalkDir(v.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if path != v.root && strings.HasPrefix(entry.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(entry.Name()), ".md") {
			return nil
		}
		rel, err := filepath.Rel(v.root, path)
		if err != nil {
			return err
		}
		refs = append(refs, *v.ref(filepath.ToSlash(rel)))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("granola vault: list files: %w", err)
	}
	return refs, nil
}

func (v *Filesystem) resolve(path string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(path))
	if cleaned == "." || !filepath.IsLocal(cleaned) {
		return "", fmt.Errorf("%w: %s", ErrPathOutsideVault, path)
	}
	return filepath.Join(v.root, cleaned), nil
}

func (v *Filesystem) ref(path string) *interfaces.FileRef {
	path = filepath.ToSlash(path)
	return &interfaces.FileRef{Path: path, Name: path[strings.LastIndexByte(path, '/')+1:]}
}

var _ interfaces.Vault = (*Filesystem)(nil)
