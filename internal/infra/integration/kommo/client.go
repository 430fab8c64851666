package kommo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/xavierca1/ligue-leads/internal/infra/queue"
)

var ErrNotConfigured = eris.New("kommo: api token not configured")

type Client struct {
	apiToken   string
	baseURL    string
	pipelineID int
	httpClient *http.Client
}

func NewClient(baseURL, apiToken string, pipelineID int) *Client {
	return &Client{
		apiToken:   apiToken,
		baseURL:    strings.TrimRight(baseURL, "/"),
		pipelineID: pipelineID,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) Name() string { return "kommo" }

// NotifyNewLead opens a CRM deal for the lead, linked to an existing contact
// when one matches the phone or e-mail.
func (c *Client) NotifyNewLead(ctx context.Context, event queue.LeadCreatedEvent) error {
	_, err := c.CreateLead(ctx, CreateLeadInput{
		LeadID:       event.LeadID,
		Source:       event.Source,
		ContactName:  event.Name,
		Email:        event.Email,
		Phone:        event.Phone,
		CampaignName: event.CampaignName,
	})
	return err
}

func (c *Client) CreateLead(ctx context.Context, input CreateLeadInput) (int, error) {
	if c.apiToken == "" {
		return 0, ErrNotConfigured
	}

	var contacts []map[string]any
	if input.Phone != "" || input.Email != "" {
		contactID, err := c.findOrCreateContact(ctx, input)
		if err != nil {
			return 0, eris.Wrap(err, "kommo: resolve contact")
		}
		contacts = append(contacts, map[string]any{"id": contactID})
	}

	tags := []map[string]any{{"name": "lead_" + input.Source}}
	if input.CampaignName != "" {
		tags = append(tags, map[string]any{"name": input.CampaignName})
	}

	embedded := map[string]any{"tags": tags}
	if len(contacts) > 0 {
		embedded["contacts"] = contacts
	}
	lead := map[string]any{
		"name":      leadTitle(input),
		"_embedded": embedded,
	}
	if c.pipelineID > 0 {
		lead["pipeline_id"] = c.pipelineID
	}

	var result embeddedLeads
	if err := c.do(ctx, http.MethodPost, "/leads", []map[string]any{lead}, &result); err != nil {
		return 0, eris.Wrapf(err, "kommo: create lead %d", input.LeadID)
	}
	if len(result.Embedded.Leads) == 0 {
		return 0, eris.Errorf("kommo: lead %d not created", input.LeadID)
	}

	crmID := result.Embedded.Leads[0].ID
	zap.L().Info("kommo: lead created", zap.Int64("lead_id", input.LeadID), zap.Int("kommo_id", crmID))
	return crmID, nil
}

func (c *Client) findOrCreateContact(ctx context.Context, input CreateLeadInput) (int, error) {
	for _, query := range []string{input.Phone, input.Email} {
		if query == "" {
			continue
		}
		id, err := c.findContact(ctx, query)
		if err != nil {
			return 0, err
		}
		if id > 0 {
			zap.L().Debug("kommo: existing contact", zap.Int("contact_id", id))
			return id, nil
		}
	}
	return c.createContact(ctx, input)
}

// findContact returns 0 when nothing matches. Kommo answers 204 with an
// empty body in that case.
func (c *Client) findContact(ctx context.Context, query string) (int, error) {
	var result embeddedContacts
	if err := c.do(ctx, http.MethodGet, "/contacts?query="+url.QueryEscape(query), nil, &result); err != nil {
		return 0, err
	}
	if len(result.Embedded.Contacts) > 0 {
		return result.Embedded.Contacts[0].ID, nil
	}
	return 0, nil
}

func (c *Client) createContact(ctx context.Context, input CreateLeadInput) (int, error) {
	var fields []map[string]any
	if input.Phone != "" {
		fields = append(fields, map[string]any{
			"field_code": "PHONE",
			"values":     []map[string]any{{"value": input.Phone, "enum_code": "WORK"}},
		})
	}
	if input.Email != "" {
		fields = append(fields, map[string]any{
			"field_code": "EMAIL",
			"values":     []map[string]any{{"value": input.Email, "enum_code": "WORK"}},
		})
	}

	name := input.ContactName
	if name == "" {
		name = firstNonEmpty(input.Email, input.Phone)
	}

	contact := []map[string]any{{
		"name":                 name,
		"custom_fields_values": fields,
	}}

	var result embeddedContacts
	if err := c.do(ctx, http.MethodPost, "/contacts", contact, &result); err != nil {
		return 0, err
	}
	if len(result.Embedded.Contacts) == 0 {
		return 0, eris.New("kommo: created contact has no id")
	}
	return result.Embedded.Contacts[0].ID, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return eris.Wrap(err, "marshal request")
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return eris.Wrap(err, "build request")
	}
	c.addAuthHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return eris.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return eris.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, string(respBody))
	}
	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	return eris.Wrap(json.Unmarshal(respBody, out), "decode response")
}

func (c *Client) addAuthHeaders(req *http.Request) {
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiToken))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
}

func leadTitle(input CreateLeadInput) string {
	who := firstNonEmpty(input.ContactName, input.Email, input.Phone)
	if who == "" {
		return fmt.Sprintf("Lead #%d (%s)", input.LeadID, input.Source)
	}
	return fmt.Sprintf("%s - %s", who, input.Source)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
