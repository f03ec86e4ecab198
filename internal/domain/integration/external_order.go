package integration

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultDropshipPaymentMethod is the storefront payment method that marks a
// dropship order.
const DefaultDropshipPaymentMethod = "Dropship to Customer"

// ---------------------------------------------------------------------------
// ResolutionStrategy
// ---------------------------------------------------------------------------

// ResolutionStrategy selects how the ERP customer of an order is resolved
type ResolutionStrategy string

const (
	// StrategyDropship resolves an email-less person record per ship-to contact
	StrategyDropship ResolutionStrategy = "DROPSHIP"
	// StrategyRegular matches or creates a company record
	StrategyRegular ResolutionStrategy = "REGULAR"
)

// IsValid returns true if the strategy is known
func (s ResolutionStrategy) IsValid() bool {
	return s == StrategyDropship || s == StrategyRegular
}

// String returns the string representation of ResolutionStrategy
func (s ResolutionStrategy) String() string {
	return string(s)
}

// ---------------------------------------------------------------------------
// ExternalOrder
// ---------------------------------------------------------------------------

// ExternalOrder is a storefront order, already normalized by the ingestion
// layer. It is never modified by the synchronization engine.
type ExternalOrder struct {
	// OrderID is the storefront order id
	OrderID string `json:"order_id" validate:"required,max=64"`
	// InvoiceNumberPrefix and InvoiceNumber form the customer-facing invoice label
	InvoiceNumberPrefix string `json:"invoice_number_prefix"`
	InvoiceNumber       string `json:"invoice_number"`
	// OrderDate is when the order was placed; zero means unknown
	OrderDate time.Time `json:"order_date"`

	Billing              BillingContact `json:"billing"`
	BillingPaymentMethod string         `json:"billing_payment_method"`

	// Questions are checkout question/answer pairs. One reserved question
	// carries the authoritative customer email.
	Questions []OrderQuestion `json:"questions" validate:"dive"`
	Shipments []Shipment      `json:"shipments"`
	Items     []OrderItem     `json:"items"`

	// Financial summary as computed by the storefront. OrderAmount is already
	// net of OrderDiscount.
	OrderAmount   decimal.Decimal `json:"order_amount"`
	OrderDiscount decimal.Decimal `json:"order_discount"`
	SalesTax      decimal.Decimal `json:"sales_tax"`
	ShippingCost  decimal.Decimal `json:"shipping_cost"`

	CustomerComments string `json:"customer_comments"`
}

// BillingContact holds the bill-to block of an order
type BillingContact struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Company   string `json:"company"`
	Address   string `json:"address"`
	Address2  string `json:"address2"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zip_code"`
	Country   string `json:"country"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
}

// OrderQuestion is one checkout question and its answer
type OrderQuestion struct {
	QuestionID int    `json:"question_id" validate:"gte=0"`
	Title      string `json:"title"`
	Answer     string `json:"answer"`
}

// Shipment is one ship-to block of an order
type Shipment struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Company    string `json:"company"`
	Address    string `json:"address"`
	Address2   string `json:"address2"`
	City       string `json:"city"`
	State      string `json:"state"`
	ZipCode    string `json:"zip_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone"`
	MethodName string `json:"method_name"`
}

// FullName returns "first last", trimmed
func (s Shipment) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(s.FirstName) + " " + strings.TrimSpace(s.LastName))
}

// OrderItem is one storefront line item
type OrderItem struct {
	ItemID      string          `json:"item_id"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	OptionPrice decimal.Decimal `json:"option_price"`
}

// Rate returns the per-unit price billed for the line: unit price plus the
// price of any selected options.
func (i OrderItem) Rate() decimal.Decimal {
	return i.UnitPrice.Add(i.OptionPrice)
}

// Strategy returns the customer resolution strategy for the order.
// dropshipMethod defaults to DefaultDropshipPaymentMethod when empty.
func (o *ExternalOrder) Strategy(dropshipMethod string) ResolutionStrategy {
	if dropshipMethod == "" {
		dropshipMethod = DefaultDropshipPaymentMethod
	}
	if strings.TrimSpace(o.BillingPaymentMethod) == dropshipMethod {
		return StrategyDropship
	}
	return StrategyRegular
}

// Answer returns the trimmed answer to the question with the given id.
// The second return value is false when the question is absent.
func (o *ExternalOrder) Answer(questionID int) (string, bool) {
	for _, q := range o.Questions {
		if q.QuestionID == questionID {
			return strings.TrimSpace(q.Answer), true
		}
	}
	return "", false
}

// PrimaryShipment returns the first shipment block, or a zero Shipment when
// the order has none.
func (o *ExternalOrder) PrimaryShipment() Shipment {
	if len(o.Shipments) == 0 {
		return Shipment{}
	}
	return o.Shipments[0]
}

// InvoiceLabel returns prefix+number, e.g. "INV-77"
func (o *ExternalOrder) InvoiceLabel() string {
	return strings.TrimSpace(o.InvoiceNumberPrefix) + strings.TrimSpace(o.InvoiceNumber)
}

// ExternalID returns the deterministic ERP external id for the order
func (o *ExternalOrder) ExternalID(prefix string) string {
	return ExternalIDFor(prefix, o.OrderID)
}

// ExternalIDFor builds "<prefix>_<sourceOrderID>". It is the only idempotency
// key shared between this service and the ERP.
func ExternalIDFor(prefix, sourceOrderID string) string {
	return prefix + "_" + strings.TrimSpace(sourceOrderID)
}

// TargetSubtotal is the amount the item lines are expected to add up to:
// order amount minus tax and shipping.
func (o *ExternalOrder) TargetSubtotal() decimal.Decimal {
	return o.OrderAmount.Sub(o.SalesTax).Sub(o.ShippingCost)
}
