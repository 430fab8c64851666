package mail

import "time"

// NewLeadEmailData feeds the new-lead alert template.
type NewLeadEmailData struct {
	LeadID       int64
	Source       string
	Name         string
	Email        string
	Phone        string
	Message      string
	CampaignName string
	CreatedAt    time.Time
	ConsoleURL   string
}

type EmailSender struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	AlertTo  []string

	// ConsoleURL, when set, is linked from the alert as <ConsoleURL>/leads/<id>.
	ConsoleURL string

	dialer dialer
}
