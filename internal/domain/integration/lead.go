package integration

// Campaign is an ERP marketing campaign
type Campaign struct {
	ID       string
	Title    string
	Category string
}

// Lead is a prospective customer captured from a marketing campaign
type Lead struct {
	ID          string
	FirstName   string
	LastName    string
	CompanyName string
	Email       string
	Phone       string
	CampaignID  string
	// StatusID is the ERP entity status marking the customer record as a lead
	StatusID    string
	Subsidiary  string
	Comments    string
}

// IsPerson returns true when the lead has no company name
func (l *Lead) IsPerson() bool {
	return l.CompanyName == ""
}
