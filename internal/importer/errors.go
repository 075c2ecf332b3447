package importer

import "errors"

// ErrImportRunning is returned when a batch is started while another one is
// still active. The rejected call mutates no state.
var ErrImportRunning = errors.New("granola importer: import already running")

// ErrConverterRequired is returned when the orchestrator is built without a
// converter.
var ErrConverterRequired = errors.New("granola importer: converter is required")

// ErrDetectorRequired is returned when the orchestrator is built without a
// duplicate detector.
var ErrDetectorRequired = errors.New("granola importer: duplicate detector is required")

// ErrVaultRequired is returned when the orchestrator is built without a
// vault.
var ErrVaultRequired = errors.New("granola importer: vault is required")

// ErrResolverRequired surfaces when a conflicted document is reached and no
// conflict resolver was configured.
var ErrResolverRequired = errors.New("granola importer: conflict requires a resolver")

// ErrUnknownConflictAction is returned when the resolver answers with an
// action the orchestrator cannot apply.
var ErrUnknownConflictAction = errors.New("granola importer: unknown conflict action")

// ErrRenameTargetRequired is returned when a rename resolution carries no
// target filename.
var ErrRenameTargetRequired = errors.New("granola importer: rename resolution requires a filename")
