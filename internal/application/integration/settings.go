package integration

import (
	"time"

	"github.com/erp/ordersync/internal/domain/integration"
)

// ReconciliationMode decides what happens when the item total differs from
// the order subtotal
type ReconciliationMode string

const (
	// ReconcileLog records the discrepancy and submits the order as is
	ReconcileLog ReconciliationMode = "log"
	// ReconcileStrict rejects the order with ErrTotalsMismatch
	ReconcileStrict ReconciliationMode = "strict"
)

// IsValid returns true if the mode is known
func (m ReconciliationMode) IsValid() bool {
	return m == ReconcileLog || m == ReconcileStrict
}

// Settings are the account-specific choices of the sync engine
type Settings struct {
	// EmailQuestionID is the checkout question carrying the customer email
	EmailQuestionID int
	// PONumberQuestionID is the checkout question carrying the customer PO number
	PONumberQuestionID    int
	DropshipPaymentMethod string
	ExternalIDPrefix      string

	SubsidiaryID string
	DepartmentID string
	LocationID   string

	// ItemTypes is the item search preference order
	ItemTypes       []integration.ItemType
	AutoCreateItems bool
	DefaultItemID   string

	TaxAsLineItem      bool
	TaxItemID          string
	ShippingAsLineItem bool
	ShippingItemID     string

	ReconciliationMode ReconciliationMode
	InterOrderDelay    time.Duration

	LeadStatusID       string
	CampaignCategoryID string
}

// DefaultSettings returns the settings used when nothing is configured
func DefaultSettings() Settings {
	return Settings{
		EmailQuestionID:       1,
		PONumberQuestionID:    2,
		DropshipPaymentMethod: integration.DefaultDropshipPaymentMethod,
		ExternalIDPrefix:      "WEB",
		SubsidiaryID:          "1",
		ItemTypes:             integration.DefaultItemTypes,
		ReconciliationMode:    ReconcileLog,
		InterOrderDelay:       500 * time.Millisecond,
		LeadStatusID:          "6",
	}
}

// withDefaults fills zero values from DefaultSettings
func (s Settings) withDefaults() Settings {
	d := DefaultSettings()
	if s.EmailQuestionID == 0 {
		s.EmailQuestionID = d.EmailQuestionID
	}
	if s.PONumberQuestionID == 0 {
		s.PONumberQuestionID = d.PONumberQuestionID
	}
	if s.DropshipPaymentMethod == "" {
		s.DropshipPaymentMethod = d.DropshipPaymentMethod
	}
	if s.ExternalIDPrefix == "" {
		s.ExternalIDPrefix = d.ExternalIDPrefix
	}
	if len(s.ItemTypes) == 0 {
		s.ItemTypes = d.ItemTypes
	}
	if !s.ReconciliationMode.IsValid() {
		s.ReconciliationMode = d.ReconciliationMode
	}
	if s.InterOrderDelay < 0 {
		s.InterOrderDelay = 0
	}
	if s.LeadStatusID == "" {
		s.LeadStatusID = d.LeadStatusID
	}
	return s
}
