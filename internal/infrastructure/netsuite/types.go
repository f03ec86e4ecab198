package netsuite

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// refID is the REST reference shape {"id": "..."}
type refID struct {
	ID      string `json:"id,omitempty"`
	RefName string `json:"refName,omitempty"`
}

func ref(id string) *refID {
	if id == "" {
		return nil
	}
	return &refID{ID: id}
}

func refIDOf(r *refID) string {
	if r == nil {
		return ""
	}
	return r.ID
}

// number renders a decimal as a JSON number rather than a quoted string
func number(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

// ---------------------------------------------------------------------------
// Error envelope
// ---------------------------------------------------------------------------

// errorResponse is the REST error body
type errorResponse struct {
	Type         string        `json:"type"`
	Title        string        `json:"title"`
	Status       int           `json:"status"`
	ErrorDetails []errorDetail `json:"o:errorDetails"`
}

type errorDetail struct {
	Detail    string `json:"detail"`
	ErrorCode string `json:"o:errorCode"`
}

// ---------------------------------------------------------------------------
// Query
// ---------------------------------------------------------------------------

type suiteQLRequest struct {
	Q string `json:"q"`
}

type suiteQLResponse struct {
	Count        int              `json:"count"`
	HasMore      bool             `json:"hasMore"`
	Offset       int              `json:"offset"`
	TotalResults int              `json:"totalResults"`
	Items        []map[string]any `json:"items"`
}

// ---------------------------------------------------------------------------
// Customer
// ---------------------------------------------------------------------------

type customerResource struct {
	ID           string       `json:"id,omitempty"`
	IsPerson     *bool        `json:"isPerson,omitempty"`
	FirstName    string       `json:"firstName,omitempty"`
	LastName     string       `json:"lastName,omitempty"`
	CompanyName  string       `json:"companyName,omitempty"`
	Email        string       `json:"email,omitempty"`
	Phone        string       `json:"phone,omitempty"`
	Parent       *refID       `json:"parent,omitempty"`
	Subsidiary   *refID       `json:"subsidiary,omitempty"`
	EntityStatus *refID       `json:"entityStatus,omitempty"`
	LeadSource   *refID       `json:"leadSource,omitempty"`
	Comments     string       `json:"comments,omitempty"`
	AddressBook  *addressBook `json:"addressBook,omitempty"`
}

type addressBook struct {
	Items []addressBookItem `json:"items"`
}

type addressBookItem struct {
	Label           string             `json:"label,omitempty"`
	DefaultBilling  bool               `json:"defaultBilling"`
	DefaultShipping bool               `json:"defaultShipping"`
	Address         addressBookAddress `json:"addressBookAddress"`
}

type addressBookAddress struct {
	Addressee string `json:"addressee,omitempty"`
	Addr1     string `json:"addr1,omitempty"`
	Addr2     string `json:"addr2,omitempty"`
	City      string `json:"city,omitempty"`
	State     string `json:"state,omitempty"`
	Zip       string `json:"zip,omitempty"`
	Country   string `json:"country,omitempty"`
	AddrPhone string `json:"addrPhone,omitempty"`
}

// ---------------------------------------------------------------------------
// Item
// ---------------------------------------------------------------------------

type itemResource struct {
	ItemID           string         `json:"itemId"`
	DisplayName      string         `json:"displayName,omitempty"`
	SalesDescription string         `json:"salesDescription,omitempty"`
	BasePrice        json.Number    `json:"basePrice,omitempty"`
	Subsidiary       *subsidiaryRef `json:"subsidiary,omitempty"`
}

type subsidiaryRef struct {
	Items []refID `json:"items"`
}

// ---------------------------------------------------------------------------
// Sales order
// ---------------------------------------------------------------------------

type salesOrderResource struct {
	ID          string          `json:"id,omitempty"`
	TranID      string          `json:"tranId,omitempty"`
	ExternalID  string          `json:"externalId,omitempty"`
	Entity      *refID          `json:"entity,omitempty"`
	Subsidiary  *refID          `json:"subsidiary,omitempty"`
	Department  *refID          `json:"department,omitempty"`
	Location    *refID          `json:"location,omitempty"`
	Status      *refID          `json:"status,omitempty"`
	IsTaxable   *bool           `json:"isTaxable,omitempty"`
	TranDate    string          `json:"tranDate,omitempty"`
	Memo        string          `json:"memo,omitempty"`
	OtherRefNum string          `json:"otherRefNum,omitempty"`
	ShipAddress string          `json:"shipAddress,omitempty"`
	Item        *salesOrderItem `json:"item,omitempty"`
}

type salesOrderItem struct {
	Items []salesOrderLine `json:"items"`
}

type salesOrderLine struct {
	Item        refID       `json:"item"`
	Quantity    json.Number `json:"quantity"`
	Rate        json.Number `json:"rate"`
	IsTaxable   bool        `json:"isTaxable"`
	Description string      `json:"description,omitempty"`
}

// ---------------------------------------------------------------------------
// Campaign
// ---------------------------------------------------------------------------

type campaignResource struct {
	Title    string `json:"title"`
	Category *refID `json:"category,omitempty"`
}
