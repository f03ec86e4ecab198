package integration

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaxOtherRefNumLength is the ERP limit for the customer PO reference
const MaxOtherRefNumLength = 45

// ---------------------------------------------------------------------------
// Items
// ---------------------------------------------------------------------------

// ItemType is an ERP item record type, used as the record endpoint name
type ItemType string

const (
	ItemTypeInventory       ItemType = "inventoryItem"
	ItemTypeNonInventory    ItemType = "nonInventorySaleItem"
	ItemTypeService         ItemType = "serviceSaleItem"
	ItemTypeAssembly        ItemType = "assemblyItem"
	ItemTypeKit             ItemType = "kitItem"
	ItemTypeOtherCharge     ItemType = "otherChargeSaleItem"
	ItemTypeDefaultCreation ItemType = ItemTypeNonInventory
)

// DefaultItemTypes is the preference order used when searching items
var DefaultItemTypes = []ItemType{
	ItemTypeInventory,
	ItemTypeNonInventory,
	ItemTypeService,
	ItemTypeAssembly,
	ItemTypeKit,
}

// IsValid returns true if the item type is known
func (t ItemType) IsValid() bool {
	switch t {
	case ItemTypeInventory, ItemTypeNonInventory, ItemTypeService,
		ItemTypeAssembly, ItemTypeKit, ItemTypeOtherCharge:
		return true
	default:
		return false
	}
}

// MatchMode controls how an item identifier is compared
type MatchMode string

const (
	MatchExact    MatchMode = "EXACT"
	MatchContains MatchMode = "CONTAINS"
)

// ItemRecord is the minimal item payload used when auto-creating items
type ItemRecord struct {
	Type        ItemType
	ItemID      string
	DisplayName string
	BasePrice   decimal.Decimal
	Subsidiary  string
}

// ---------------------------------------------------------------------------
// Sales order
// ---------------------------------------------------------------------------

// LineKind tells where a line's item id came from
type LineKind string

const (
	LineKindExact    LineKind = "EXACT"
	LineKindContains LineKind = "CONTAINS"
	LineKindCreated  LineKind = "CREATED"
	LineKindDefault  LineKind = "DEFAULT"
	LineKindTax      LineKind = "TAX"
	LineKindShipping LineKind = "SHIPPING"
)

// LineItemRequest is one resolved sales order line
type LineItemRequest struct {
	ItemID      string
	Quantity    decimal.Decimal
	Rate        decimal.Decimal
	IsTaxable   bool
	Description string
	Kind        LineKind
}

// Amount returns quantity times rate
func (l LineItemRequest) Amount() decimal.Decimal {
	return l.Quantity.Mul(l.Rate)
}

// SalesOrderDraft is the sales order submission. It is built once per attempt
// and submitted once.
type SalesOrderDraft struct {
	EntityID     string
	SubsidiaryID string
	DepartmentID string
	LocationID   string
	IsTaxable    bool
	TranDate     time.Time
	Memo         string
	// ExternalID is the idempotency key, see ExternalIDFor
	ExternalID  string
	OtherRefNum string
	ShipAddress string
	Items       []LineItemRequest
}

// ItemTotal sums the amounts of the non-synthetic lines
func (d *SalesOrderDraft) ItemTotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range d.Items {
		if l.Kind == LineKindTax || l.Kind == LineKindShipping {
			continue
		}
		total = total.Add(l.Amount())
	}
	return total
}

// SalesOrderSummary is what the ERP reports about an existing sales order
type SalesOrderSummary struct {
	ID         string
	TranID     string
	ExternalID string
	Status     string
	TranDate   string
}

// ---------------------------------------------------------------------------
// Sync status
// ---------------------------------------------------------------------------

// SyncStatusEntry reports whether a source order already has an ERP sales
// order. It is always recomputed from the ERP.
type SyncStatusEntry struct {
	SourceOrderID string `json:"source_order_id"`
	ExternalID    string `json:"external_id"`
	Synced        bool   `json:"synced"`
	SalesOrderID  string `json:"sales_order_id,omitempty"`
	TranID        string `json:"tran_id,omitempty"`
	Status        string `json:"status,omitempty"`
	TranDate      string `json:"tran_date,omitempty"`
	Err           error  `json:"-"`
}

// Unknown returns true when the entry is unsynced only because the lookup failed
func (e SyncStatusEntry) Unknown() bool {
	return !e.Synced && e.Err != nil
}
