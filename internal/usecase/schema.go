package usecase

import (
	"bytes"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

const instagramSchema = `{
	"type": "object",
	"required": ["entry"],
	"properties": {
		"entry": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["changes"],
				"properties": {
					"id": {"type": "string"},
					"time": {"type": "number"},
					"changes": {
						"type": "array",
						"items": {
							"type": "object",
							"required": ["value"],
							"properties": {
								"value": {
									"type": "object",
									"required": ["leadgen_id"],
									"properties": {
										"leadgen_id": {"type": "string", "minLength": 1},
										"page_id": {"type": "string"},
										"form_id": {"type": "string"},
										"adgroup_id": {"type": "string"},
										"ad_id": {"type": "string"},
										"created_time": {"type": "number"},
										"field_data": {
											"type": "array",
											"items": {
												"type": "object",
												"required": ["name", "values"],
												"properties": {
													"name": {"type": "string"},
													"values": {"type": "array", "items": {"type": "string"}}
												}
											}
										}
									}
								}
							}
						}
					}
				}
			}
		}
	}
}`

const googleSchema = `{
	"type": "object",
	"properties": {
		"lead_id": {"type": "string"},
		"campaign_id": {"type": "string"},
		"campaign_name": {"type": "string"},
		"name": {"type": "string"},
		"email": {"type": "string"},
		"phone": {"type": "string"},
		"message": {"type": "string"}
	}
}`

const websiteSchema = `{
	"type": "object",
	"properties": {
		"name": {"type": "string"},
		"email": {"type": "string"},
		"phone": {"type": "string"},
		"message": {"type": "string"},
		"pageUrl": {"type": "string"}
	}
}`

// EnvelopeValidator checks a raw webhook body against the JSON Schema of its
// declared source.
type EnvelopeValidator struct {
	schemas map[entity.LeadSource]*jsonschema.Schema
}

func NewEnvelopeValidator() (*EnvelopeValidator, error) {
	c := jsonschema.NewCompiler()
	sources := map[entity.LeadSource]string{
		entity.SourceInstagram: instagramSchema,
		entity.SourceGoogle:    googleSchema,
		entity.SourceWebsite:   websiteSchema,
	}

	v := &EnvelopeValidator{schemas: make(map[entity.LeadSource]*jsonschema.Schema, len(sources))}
	for source, text := range sources {
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(text))
		if err != nil {
			return nil, err
		}
		loc := string(source) + ".json"
		if err := c.AddResource(loc, doc); err != nil {
			return nil, err
		}
		sch, err := c.Compile(loc)
		if err != nil {
			return nil, err
		}
		v.schemas[source] = sch
	}
	return v, nil
}

func (v *EnvelopeValidator) Validate(source entity.LeadSource, raw []byte) error {
	sch, ok := v.schemas[source]
	if !ok {
		return NewValidationError("source", "unsupported source "+string(source))
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return NewValidationError("", "payload is not valid JSON")
	}
	if err := sch.Validate(inst); err != nil {
		return NewValidationError("", "invalid payload: "+schemaViolations(err))
	}
	return nil
}

// schemaViolations drops the schema location header of a validation error and
// keeps the instance-level causes.
func schemaViolations(err error) string {
	lines := strings.Split(err.Error(), "\n")
	if len(lines) > 1 {
		lines = lines[1:]
	}
	for i, l := range lines {
		lines[i] = strings.TrimPrefix(strings.TrimSpace(l), "- ")
	}
	return strings.Join(lines, "; ")
}
