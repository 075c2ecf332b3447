package client

import "github.com/santhosh-tekuri/jsonschema/v5"

// documentsSchema pins the minimal shape the importer relies on. Anything
// the API adds on top passes through; a missing docs array or an entry
// without an id is rejected before decoding.
const documentsSchema = `{
	"type": "object",
	"required": ["docs"],
	"properties": {
		"docs": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["id"],
				"properties": {
					"id": {"type": "string", "minLength": 1},
					"title": {"type": ["string", "null"]},
					"created_at": {"type": ["string", "null"]},
					"updated_at": {"type": ["string", "null"]},
					"notes": {"type": ["object", "null"]},
					"last_viewed_panel": {"type": ["object", "null"]},
					"notes_markdown": {"type": ["string", "null"]},
					"notes_plain": {"type": ["string", "null"]}
				}
			}
		}
	}
}`

var payloadSchema = jsonschema.MustCompileString("get-documents.json", documentsSchema)
