package server

import "github.com/xeipuuv/gojsonschema"

// Request schemas, compiled once at startup.
var (
	chatSchema         = mustCompileSchema(chatSchemaJSON)
	faqSchema          = mustCompileSchema(faqSchemaJSON)
	sessionStartSchema = mustCompileSchema(sessionStartSchemaJSON)
	sessionEndSchema   = mustCompileSchema(sessionEndSchemaJSON)
	feedbackSchema     = mustCompileSchema(feedbackSchemaJSON)
)

const chatSchemaJSON = `{
	"type": "object",
	"properties": {
		"question": {"type": "string", "minLength": 1, "maxLength": 2000},
		"session_id": {"type": "string"},
		"user_id": {"type": "string"}
	},
	"required": ["question"],
	"additionalProperties": false
}`

const faqSchemaJSON = `{
	"type": "object",
	"properties": {
		"question": {"type": "string", "minLength": 1, "maxLength": 255},
		"answer": {"type": "string", "minLength": 1}
	},
	"required": ["question", "answer"],
	"additionalProperties": false
}`

const sessionStartSchemaJSON = `{
	"type": "object",
	"properties": {
		"user_id": {"type": "string"}
	},
	"additionalProperties": false
}`

const sessionEndSchemaJSON = `{
	"type": "object",
	"properties": {
		"session_id": {"type": "string", "minLength": 1},
		"feedback": {
			"type": "object",
			"properties": {
				"satisfied": {"type": "boolean"},
				"rating": {"type": "integer", "minimum": 1, "maximum": 5},
				"comment": {"type": "string"}
			},
			"required": ["satisfied"],
			"additionalProperties": false
		}
	},
	"required": ["session_id"],
	"additionalProperties": false
}`

const feedbackSchemaJSON = `{
	"type": "object",
	"properties": {
		"session_id": {"type": "string"},
		"satisfied": {"type": "boolean"},
		"rating": {"type": "integer", "minimum": 1, "maximum": 5},
		"comment": {"type": "string"}
	},
	"required": ["satisfied"],
	"additionalProperties": false
}`

func mustCompileSchema(raw string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(raw))
	if err != nil {
		panic(err)
	}
	return schema
}
