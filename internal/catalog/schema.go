package catalog

import (
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const attributeSetSchema = `{
	"type": "object",
	"properties": {
		"required": {"type": "array", "items": {"type": "string"}},
		"optional": {"type": "array", "items": {"type": "string"}}
	}
}`

const scenariosSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"additionalProperties": {
		"type": "object",
		"properties": {
			"title": {"type": "string"},
			"request": {
				"type": "object",
				"properties": {
					"attributes": ` + attributeSetSchema + `,
					"type": {"type": "string"},
					"typeRef": {"type": "string"},
					"title": {"type": "string"}
				}
			}
		}
	}
}`

const cardTypesSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"additionalProperties": {
		"type": "object",
		"properties": {
			"title": {"type": "string"},
			"order": {"type": "array", "items": {"type": "string"}},
			"labels": {"type": "object", "additionalProperties": {"type": "string"}},
			"format": {
				"type": "object",
				"additionalProperties": {"enum": ["date", "boolean", "eur"]}
			}
		}
	}
}`

// documentSchema validates a whole configuration document.
type documentSchema struct {
	schema *jsonschema.Schema
}

var (
	scenarioDocSchema = mustCompile("scenarios.schema.json", scenariosSchema)
	cardTypeDocSchema = mustCompile("card-types.schema.json", cardTypesSchema)
)

func mustCompile(name, src string) documentSchema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, strings.NewReader(src)); err != nil {
		panic(fmt.Sprintf("add schema %s: %v", name, err))
	}
	return documentSchema{schema: compiler.MustCompile(name)}
}

func (d documentSchema) validate(entries []entry) error {
	doc := make(map[string]any, len(entries))
	for _, e := range entries {
		var v any
		if err := e.decode(&v); err != nil {
			return fmt.Errorf("failed to decode %q: %w", e.key, err)
		}
		doc[e.key] = v
	}
	return d.schema.Validate(doc)
}
