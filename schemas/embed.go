// Package schemas embeds the JSON Schemas that generated content is validated against.
package schemas

import "embed"

// FS holds every *.schema.json file of this directory.
//
//go:embed *.schema.json
var FS embed.FS

// GeneratedQuestion is the schema of one generated interview question.
const GeneratedQuestion = "generated_question.schema.json"
