package whatsapp

type SendMessageInput struct {
	PhoneNumber  string   // E.164 without "+", e.g. "5511999999999"
	TemplateName string   // approved template, e.g. "new_lead_alert"
	Parameters   []string // body parameters in template order
}

type SendMessageResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Contacts []struct {
		Input string `json:"input"`
		WaID  string `json:"wa_id"`
	} `json:"contacts"`
	Error *ErrorResponse `json:"error"`
}

type ErrorResponse struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
	Type    string `json:"type"`
}
