package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/xavierca1/ligue-leads/internal/infra/queue"
)

const DefaultBaseURL = "https://graph.facebook.com/v18.0"

type Client struct {
	accessToken string
	phoneID     string
	baseURL     string
	template    string
	notifyTo    []string
	httpClient  *http.Client
}

// NewClient builds a notifier that sends template to every number in notifyTo.
func NewClient(baseURL, accessToken, phoneID, template string, notifyTo []string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		accessToken: accessToken,
		phoneID:     phoneID,
		baseURL:     strings.TrimRight(baseURL, "/"),
		template:    template,
		notifyTo:    notifyTo,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) Name() string { return "whatsapp" }

// NotifyNewLead alerts the sales team with the lead's source, name and phone.
func (c *Client) NotifyNewLead(ctx context.Context, event queue.LeadCreatedEvent) error {
	params := []string{event.Source, orDash(event.Name), orDash(event.Phone), orDash(event.Email)}
	for _, to := range c.notifyTo {
		err := c.SendMessage(ctx, SendMessageInput{PhoneNumber: to, TemplateName: c.template, Parameters: params})
		if err != nil {
			return eris.Wrapf(err, "whatsapp: alert %s for lead %d", to, event.LeadID)
		}
	}
	return nil
}

func (c *Client) SendMessage(ctx context.Context, input SendMessageInput) error {
	if c.accessToken == "" || c.phoneID == "" {
		return eris.New("whatsapp: access token or phone id not configured")
	}

	payload := map[string]any{
		"messaging_product": "whatsapp",
		"recipient_type":    "individual",
		"to":                input.PhoneNumber,
		"type":              "template",
		"template": map[string]any{
			"name":     input.TemplateName,
			"language": map[string]string{"code": "pt_BR"},
			"components": []map[string]any{
				{
					"type":       "body",
					"parameters": convertParametersToAPI(input.Parameters),
				},
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return eris.Wrap(err, "whatsapp: marshal payload")
	}

	url := fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return eris.Wrap(err, "whatsapp: build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return eris.Wrap(err, "whatsapp: send")
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	var result SendMessageResponse
	_ = json.Unmarshal(respBody, &result)
	if result.Error != nil {
		return eris.Errorf("whatsapp: %s (code %d)", result.Error.Message, result.Error.Code)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return eris.Errorf("whatsapp: api status %d: %s", resp.StatusCode, string(respBody))
	}

	zap.L().Debug("whatsapp: message sent", zap.String("to", input.PhoneNumber), zap.String("template", input.TemplateName))
	return nil
}

func convertParametersToAPI(params []string) []map[string]string {
	result := make([]map[string]string, 0, len(params))
	for _, param := range params {
		result = append(result, map[string]string{
			"type": "text",
			"text": param,
		})
	}
	return result
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
