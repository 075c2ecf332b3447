package importer

import (
	"strings"

	"github.com/goliatone/go-granola/pkg/interfaces"
)

// classifyError buckets a per-document failure by matching keywords in the
// error text. The order matters: permission errors also mention paths, so
// they are checked before the generic filesystem bucket.
func classifyError(err error) interfaces.ErrorCategory {
	if err == nil {
		return interfaces.ErrorCategoryUnknown
	}
	msg := strings.ToLower(err.Error())

	match := func(keywords ...string) bool {
		for _, keyword := range keywords {
			if strings.Contains(msg, keyword) {
				return true
			}
		}
		return false
	}

	switch {
	case match("permission", "access denied", "read-only", "eacces", "eperm"):
		return interfaces.ErrorCategoryPermission
	case match("network", "timeout", "connection", "fetch", "dns", "tls", "unreachable"):
		return interfaces.ErrorCategoryNetwork
	case match("convert", "conversion", "render", "node type"):
		return interfaces.ErrorCategoryConversion
	case match("invalid", "malformed", "required", "validation", "missing field"):
		return interfaces.ErrorCategoryValidation
	case match("file", "path", "directory", "vault", "exists", "no such"):
		return interfaces.ErrorCategoryFilesystem
	default:
		return interfaces.ErrorCategoryUnknown
	}
}

// friendlyMessage translates a category into a user-facing message distinct
// from the raw error text.
func friendlyMessage(category interfaces.ErrorCategory) string {
	switch category {
	case interfaces.ErrorCategoryValidation:
		return "The document is malformed and could not be imported"
	case interfaces.ErrorCategoryConversion:
		return "The document's content could not be converted to Markdown"
	case interfaces.ErrorCategoryFilesystem:
		return "The note could not be written to the vault"
	case interfaces.ErrorCategoryPermission:
		return "The vault denied access while writing the note"
	case interfaces.ErrorCategoryNetwork:
		return "A network error interrupted the import"
	default:
		return "An unexpected error interrupted the import"
	}
}
