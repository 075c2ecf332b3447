package granolacmd

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	importSelectedMessageType = "granola.import_selected"
	refreshIndexMessageType   = "granola.refresh_index"
)

// ImportSelectedCommand runs a selective import over the named documents.
// The selection is mandatory: an empty list is a validation error, not an
// implicit import-everything.
type ImportSelectedCommand struct {
	// DocumentIDs names the documents to import.
	DocumentIDs []string `json:"document_ids"`
	// Strategy overrides the configured collision strategy (skip, update,
	// create_new). Empty keeps the default.
	Strategy string `json:"strategy,omitempty"`
	// SkipEmpty drops documents with no extractable content.
	SkipEmpty bool `json:"skip_empty,omitempty"`
	// StopOnError cancels the batch after the first failed document.
	StopOnError bool `json:"stop_on_error,omitempty"`
}

// Type implements command.Message.
func (ImportSelectedCommand) Type() string { return importSelectedMessageType }

// Validate ensures a usable selection before handlers execute.
func (cmd ImportSelectedCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.DocumentIDs, validation.Required, validation.Each(validation.By(func(value any) error {
			if strings.TrimSpace(value.(string)) == "" {
				return validation.NewError("granola.import_selected.document_id_blank", "document id cannot be blank")
			}
			return nil
		}))),
		validation.Field(&cmd.Strategy, validation.In("skip", "update", "create_new")),
	)
}

// RefreshIndexCommand forces a full re-scan of the vault's duplicate index.
type RefreshIndexCommand struct{}

// Type implements command.Message.
func (RefreshIndexCommand) Type() string { return refreshIndexMessageType }
