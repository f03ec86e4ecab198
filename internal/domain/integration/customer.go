package integration

import "strings"

// Field limits enforced by the ERP on customer records
const (
	MaxNameLength        = 32
	MaxCompanyNameLength = 83
	MaxPhoneLength       = 32
	MaxEmailLength       = 254
)

// CustomerRecord is an ERP customer. Only person records may be attached to a
// sales order; company records are only ever parents of person records.
type CustomerRecord struct {
	// ID is assigned by the ERP and empty until the record is created
	ID          string
	IsPerson    bool
	FirstName   string
	LastName    string
	CompanyName string
	Email       string
	Phone       string
	// ParentID references the company a person belongs to (optional)
	ParentID   string
	Subsidiary string
	Addresses  []AddressBookEntry
}

// DisplayName returns the person name or the company name
func (c *CustomerRecord) DisplayName() string {
	if c.IsPerson {
		return strings.TrimSpace(c.FirstName + " " + c.LastName)
	}
	return c.CompanyName
}

// AddressBookEntry is one address attached to a customer at creation time.
// Sales orders carry no billing address; the ERP uses the customer default.
type AddressBookEntry struct {
	Label           string
	Addressee       string
	Addr1           string
	Addr2           string
	City            string
	State           string
	Zip             string
	Country         string
	Phone           string
	DefaultBilling  bool
	DefaultShipping bool
}

// BuildAddressBook derives one billing-flagged and one shipping-flagged entry
// from an order.
func BuildAddressBook(order *ExternalOrder) []AddressBookEntry {
	b := order.Billing
	s := order.PrimaryShipment()

	billingAddressee := strings.TrimSpace(b.FirstName + " " + b.LastName)
	if b.Company != "" {
		billingAddressee = b.Company
	}

	return []AddressBookEntry{
		{
			Label:          "Billing",
			Addressee:      billingAddressee,
			Addr1:          b.Address,
			Addr2:          b.Address2,
			City:           b.City,
			State:          b.State,
			Zip:            b.ZipCode,
			Country:        b.Country,
			Phone:          b.Phone,
			DefaultBilling: true,
		},
		{
			Label:           "Shipping",
			Addressee:       s.FullName(),
			Addr1:           s.Address,
			Addr2:           s.Address2,
			City:            s.City,
			State:           s.State,
			Zip:             s.ZipCode,
			Country:         s.Country,
			Phone:           s.Phone,
			DefaultShipping: true,
		},
	}
}
