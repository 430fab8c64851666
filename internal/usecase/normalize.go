package usecase

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

// Candidate field names per target attribute, in priority order.
var (
	instagramNameFields    = []string{"full_name", "name"}
	instagramEmailFields   = []string{"email"}
	instagramPhoneFields   = []string{"phone_number", "phone"}
	instagramMessageFields = []string{"message", "comments"}
)

type instagramEnvelope struct {
	Entry *[]instagramEntry `json:"entry"`
}

type instagramEntry struct {
	Changes *[]instagramChange `json:"changes"`
}

type instagramChange struct {
	Value json.RawMessage `json:"value"`
}

type instagramLeadValue struct {
	LeadgenID *string          `json:"leadgen_id"`
	AdID      string           `json:"ad_id"`
	AdgroupID string           `json:"adgroup_id"`
	FieldData []instagramField `json:"field_data"`
}

type instagramField struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

type googleLeadPayload struct {
	LeadID       *string `json:"lead_id"`
	CampaignID   *string `json:"campaign_id"`
	CampaignName *string `json:"campaign_name"`
	Name         *string `json:"name"`
	Email        *string `json:"email"`
	Phone        *string `json:"phone"`
	Message      *string `json:"message"`
}

type websiteFormPayload struct {
	Name    *string `json:"name"`
	Email   *string `json:"email"`
	Phone   *string `json:"phone"`
	Message *string `json:"message"`
	PageURL *string `json:"pageUrl"`
}

// NormalizeInstagram yields one lead per change of a lead-ad envelope. Each
// lead keeps the raw "value" object of its change as snapshot.
func NormalizeInstagram(raw []byte) ([]entity.NormalizedLead, error) {
	var env instagramEnvelope
	if err := decodeObject(raw, &env); err != nil {
		return nil, err
	}
	if env.Entry == nil {
		return nil, NewValidationError("entry", "is required")
	}

	var leads []entity.NormalizedLead
	for _, entry := range *env.Entry {
		if entry.Changes == nil {
			return nil, NewValidationError("entry.changes", "is required")
		}
		for _, change := range *entry.Changes {
			var value instagramLeadValue
			if err := decodeObject(change.Value, &value); err != nil {
				return nil, NewValidationError("entry.changes.value", "must be an object")
			}
			if value.LeadgenID == nil || *value.LeadgenID == "" {
				return nil, NewValidationError("entry.changes.value.leadgen_id", "is required")
			}

			leads = append(leads, entity.NormalizedLead{
				Source:     entity.SourceInstagram,
				SourceID:   value.LeadgenID,
				Name:       firstField(value.FieldData, instagramNameFields),
				Email:      firstField(value.FieldData, instagramEmailFields),
				Phone:      firstField(value.FieldData, instagramPhoneFields),
				Message:    firstField(value.FieldData, instagramMessageFields),
				CampaignID: firstNonEmpty(value.AdID, value.AdgroupID),
				Raw:        compact(change.Value),
			})
		}
	}
	return leads, nil
}

// NormalizeGoogle maps a search-ads lead form payload. Every field is optional.
func NormalizeGoogle(raw []byte) ([]entity.NormalizedLead, error) {
	var p googleLeadPayload
	if err := decodeObject(raw, &p); err != nil {
		return nil, err
	}
	return []entity.NormalizedLead{{
		Source:       entity.SourceGoogle,
		SourceID:     nonEmpty(p.LeadID),
		Name:         nonEmpty(p.Name),
		Email:        nonEmpty(p.Email),
		Phone:        nonEmpty(p.Phone),
		Message:      nonEmpty(p.Message),
		CampaignID:   nonEmpty(p.CampaignID),
		CampaignName: nonEmpty(p.CampaignName),
		Raw:          compact(raw),
	}}, nil
}

// NormalizeWebsite maps a website contact form submission.
func NormalizeWebsite(raw []byte) ([]entity.NormalizedLead, error) {
	var p websiteFormPayload
	if err := decodeObject(raw, &p); err != nil {
		return nil, err
	}
	return []entity.NormalizedLead{{
		Source:  entity.SourceWebsite,
		Name:    nonEmpty(p.Name),
		Email:   nonEmpty(p.Email),
		Phone:   nonEmpty(p.Phone),
		Message: nonEmpty(p.Message),
		PageURL: nonEmpty(p.PageURL),
		Raw:     compact(raw),
	}}, nil
}

// firstField returns the first value of the first candidate present in
// fields, matching names case-insensitively. A candidate whose value is empty
// falls through to the next one.
func firstField(fields []instagramField, candidates []string) *string {
	for _, name := range candidates {
		for _, f := range fields {
			if !strings.EqualFold(f.Name, name) {
				continue
			}
			if len(f.Values) > 0 && f.Values[0] != "" {
				v := f.Values[0]
				return &v
			}
			break
		}
	}
	return nil
}

func firstNonEmpty(values ...string) *string {
	for _, v := range values {
		if v != "" {
			return &v
		}
	}
	return nil
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

func decodeObject(raw []byte, v any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return NewValidationError("", "payload must be a JSON object")
	}
	if err := json.Unmarshal(trimmed, v); err != nil {
		return NewValidationError("", "invalid payload: "+err.Error())
	}
	return nil
}

func compact(raw []byte) json.RawMessage {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return append(json.RawMessage(nil), raw...)
	}
	return buf.Bytes()
}
