package kommo

// CreateLeadInput is what the CRM needs to open a deal for a new lead.
type CreateLeadInput struct {
	LeadID       int64
	Source       string
	ContactName  string
	Email        string
	Phone        string
	CampaignName string
}

type ContactResponse struct {
	ID        int    `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type embeddedContacts struct {
	Embedded struct {
		Contacts []ContactResponse `json:"contacts"`
	} `json:"_embedded"`
}

type embeddedLeads struct {
	Embedded struct {
		Leads []struct {
			ID int `json:"id"`
		} `json:"leads"`
	} `json:"_embedded"`
}
