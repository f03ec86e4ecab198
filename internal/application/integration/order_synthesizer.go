package integration

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/erp/ordersync/internal/domain/integration"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SynthesisResult describes the submitted sales order
type SynthesisResult struct {
	// SalesOrderID is empty when the ERP accepted the order but its id could
	// not be recovered
	SalesOrderID   string
	ExternalID     string
	CustomerID     string
	Lines          []integration.LineItemRequest
	ItemTotal      decimal.Decimal
	TargetSubtotal decimal.Decimal
	Discrepancy    decimal.Decimal
}

// OrderSynthesizer builds a sales order from an order and a resolved
// customer and submits it once
type OrderSynthesizer struct {
	customers   integration.CustomerStore
	items       integration.ItemStore
	salesOrders integration.SalesOrderStore
	resolver    *CustomerResolver
	itemMapper  *ItemResolver
	settings    Settings
	logger      *zap.Logger
}

// NewOrderSynthesizer creates an order synthesizer
func NewOrderSynthesizer(
	customers integration.CustomerStore,
	items integration.ItemStore,
	salesOrders integration.SalesOrderStore,
	resolver *CustomerResolver,
	itemMapper *ItemResolver,
	settings Settings,
	logger *zap.Logger,
) *OrderSynthesizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderSynthesizer{
		customers:   customers,
		items:       items,
		salesOrders: salesOrders,
		resolver:    resolver,
		itemMapper:  itemMapper,
		settings:    settings.withDefaults(),
		logger:      logger,
	}
}

// Synthesize creates the ERP sales order for the order under customerID
func (s *OrderSynthesizer) Synthesize(ctx context.Context, order *integration.ExternalOrder, customerID string) (*SynthesisResult, error) {
	log := orderLogger(ctx, s.logger, order.OrderID)

	entityID, err := s.personFor(ctx, order, customerID, log)
	if err != nil {
		return nil, err
	}

	lines, err := s.itemLines(ctx, order, log)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: order %s", integration.ErrNoLineItems, order.OrderID)
	}

	draft := &integration.SalesOrderDraft{
		EntityID:     entityID,
		SubsidiaryID: s.settings.SubsidiaryID,
		DepartmentID: s.settings.DepartmentID,
		LocationID:   s.settings.LocationID,
		IsTaxable:    !s.settings.TaxAsLineItem,
		TranDate:     order.OrderDate,
		Memo:         memo(order),
		ExternalID:   order.ExternalID(s.settings.ExternalIDPrefix),
		OtherRefNum:  s.poNumber(order, log),
		ShipAddress:  shipAddressText(order.PrimaryShipment()),
		Items:        lines,
	}

	result := &SynthesisResult{
		ExternalID:     draft.ExternalID,
		CustomerID:     entityID,
		ItemTotal:      draft.ItemTotal(),
		TargetSubtotal: order.TargetSubtotal(),
	}
	result.Discrepancy = result.ItemTotal.Sub(result.TargetSubtotal)
	if err := s.reconcile(result, log); err != nil {
		return nil, err
	}

	if s.settings.TaxAsLineItem && order.SalesTax.IsPositive() {
		draft.Items = s.appendSynthetic(ctx, draft.Items, s.settings.TaxItemID, order.SalesTax, "Sales Tax", integration.LineKindTax, log)
	}
	if s.settings.ShippingAsLineItem && order.ShippingCost.IsPositive() {
		draft.Items = s.appendSynthetic(ctx, draft.Items, s.settings.ShippingItemID, order.ShippingCost, shippingDescription(order), integration.LineKindShipping, log)
	}
	result.Lines = draft.Items

	id, err := s.salesOrders.Create(ctx, draft)
	switch {
	case errors.Is(err, integration.ErrCreatedIDUnresolved):
		log.Warn("Sales order created without id, looking up by external id",
			zap.String("external_id", draft.ExternalID),
		)
		id = s.lookupByExternalID(ctx, draft.ExternalID, log)
	case err != nil:
		return nil, fmt.Errorf("create sales order for order %s: %w", order.OrderID, err)
	}
	result.SalesOrderID = id

	log.Info("Sales order synthesized",
		zap.String("sales_order_id", id),
		zap.String("external_id", draft.ExternalID),
		zap.String("customer_id", entityID),
		zap.Int("lines", len(draft.Items)),
	)
	return result, nil
}

// personFor re-reads the customer and swaps a company for a person under it
func (s *OrderSynthesizer) personFor(ctx context.Context, order *integration.ExternalOrder, customerID string, log *zap.Logger) (string, error) {
	customer, err := s.customers.Get(ctx, customerID)
	if err != nil {
		return "", fmt.Errorf("load customer %s: %w", customerID, err)
	}
	if customer.IsPerson {
		return customer.ID, nil
	}
	log.Warn("Sales order customer is not a person record", zap.String("customer_id", customer.ID))
	return s.resolver.EnsurePerson(ctx, order, customer), nil
}

func (s *OrderSynthesizer) itemLines(ctx context.Context, order *integration.ExternalOrder, log *zap.Logger) ([]integration.LineItemRequest, error) {
	lines := make([]integration.LineItemRequest, 0, len(order.Items))
	for i, item := range order.Items {
		if strings.TrimSpace(item.ItemID) == "" || !item.Quantity.IsPositive() {
			log.Warn("Skipping order line",
				zap.Int("line", i),
				zap.String("item_id", item.ItemID),
				zap.String("quantity", item.Quantity.String()),
			)
			continue
		}

		id, kind, err := s.itemMapper.Resolve(ctx, item)
		if err != nil {
			return nil, err
		}
		lines = append(lines, integration.LineItemRequest{
			ItemID:      id,
			Quantity:    item.Quantity,
			Rate:        item.Rate(),
			IsTaxable:   !s.settings.TaxAsLineItem,
			Description: strings.TrimSpace(item.Description),
			Kind:        kind,
		})
	}
	return lines, nil
}

// reconcile compares the item total with the order subtotal
func (s *OrderSynthesizer) reconcile(result *SynthesisResult, log *zap.Logger) error {
	fields := []zap.Field{
		zap.String("item_total", result.ItemTotal.String()),
		zap.String("target_subtotal", result.TargetSubtotal.String()),
		zap.String("discrepancy", result.Discrepancy.String()),
	}
	if result.Discrepancy.IsZero() {
		log.Info("Order totals reconciled", fields...)
		return nil
	}
	if s.settings.ReconciliationMode == ReconcileStrict {
		log.Error("Order totals do not reconcile", fields...)
		return fmt.Errorf("%w: items %s, expected %s", integration.ErrTotalsMismatch,
			result.ItemTotal.String(), result.TargetSubtotal.String())
	}
	log.Warn("Order totals do not reconcile", fields...)
	return nil
}

// appendSynthetic adds a tax or shipping line when its item is usable
func (s *OrderSynthesizer) appendSynthetic(
	ctx context.Context,
	lines []integration.LineItemRequest,
	itemID string,
	amount decimal.Decimal,
	description string,
	kind integration.LineKind,
	log *zap.Logger,
) []integration.LineItemRequest {
	if itemID == "" {
		log.Warn("No item configured for synthetic line", zap.String("kind", string(kind)))
		return lines
	}
	usable, err := s.items.IsUsable(ctx, "", itemID)
	if err != nil {
		log.Warn("Could not verify synthetic line item",
			zap.String("kind", string(kind)),
			zap.String("item_id", itemID),
			zap.Error(err),
		)
		return lines
	}
	if !usable {
		log.Warn("Synthetic line item is not usable",
			zap.String("kind", string(kind)),
			zap.String("item_id", itemID),
		)
		return lines
	}
	return append(lines, integration.LineItemRequest{
		ItemID:      itemID,
		Quantity:    decimal.NewFromInt(1),
		Rate:        amount,
		IsTaxable:   false,
		Description: description,
		Kind:        kind,
	})
}

func (s *OrderSynthesizer) lookupByExternalID(ctx context.Context, externalID string, log *zap.Logger) string {
	found, err := s.salesOrders.FindByExternalIDs(ctx, []string{externalID})
	if err != nil {
		log.Warn("Sales order lookup by external id failed",
			zap.String("external_id", externalID),
			zap.Error(err),
		)
		return ""
	}
	summary, ok := found[externalID]
	if !ok || summary.ID == "" {
		log.Warn("Sales order was created but its id is unknown",
			zap.String("external_id", externalID),
		)
		return ""
	}
	return summary.ID
}

// poNumber reads the customer PO number from its checkout question
func (s *OrderSynthesizer) poNumber(order *integration.ExternalOrder, log *zap.Logger) string {
	po, _ := order.Answer(s.settings.PONumberQuestionID)
	if len([]rune(po)) > integration.MaxOtherRefNumLength {
		log.Warn("Truncating PO number", zap.String("po_number", po))
		po = truncate(po, integration.MaxOtherRefNumLength)
	}
	return po
}

func memo(order *integration.ExternalOrder) string {
	var parts []string
	if label := order.InvoiceLabel(); label != "" {
		parts = append(parts, "Invoice "+label)
	}
	if c := strings.TrimSpace(order.CustomerComments); c != "" {
		parts = append(parts, c)
	}
	return strings.Join(parts, "\n")
}

func shippingDescription(order *integration.ExternalOrder) string {
	if m := strings.TrimSpace(order.PrimaryShipment().MethodName); m != "" {
		return "Shipping: " + m
	}
	return "Shipping"
}

// shipAddressText renders the ship-to block as multi-line text
func shipAddressText(s integration.Shipment) string {
	cityLine := strings.TrimSpace(strings.Join(nonEmpty(s.City+",", s.State, s.ZipCode), " "))
	cityLine = strings.TrimSuffix(cityLine, ",")
	return strings.Join(nonEmpty(s.FullName(), s.Company, s.Address, s.Address2, cityLine, s.Country), "\n")
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" && v != "," {
			out = append(out, v)
		}
	}
	return out
}
