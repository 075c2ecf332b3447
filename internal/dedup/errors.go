package dedup

import "errors"

// ErrVaultRequired is returned when the detector is constructed without a
// vault to scan.
var ErrVaultRequired = errors.New("granola dedup: vault is required")

// ErrNamesRequired is returned when the detector is constructed without a
// filename computer, leaving it unable to probe for collisions.
var ErrNamesRequired = errors.New("granola dedup: filename computer is required")

// ErrDocumentRequired is returned when a nil document is classified.
var ErrDocumentRequired = errors.New("granola dedup: document is required")
