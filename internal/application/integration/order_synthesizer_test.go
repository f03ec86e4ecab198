package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erp/ordersync/internal/domain/integration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type synthFixture struct {
	customers   *MockCustomerStore
	items       *MockItemStore
	salesOrders *MockSalesOrderStore
	logs        *observer.ObservedLogs
	synth       *OrderSynthesizer
}

func newSynthFixture(settings Settings) *synthFixture {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)
	f := &synthFixture{
		customers:   new(MockCustomerStore),
		items:       new(MockItemStore),
		salesOrders: new(MockSalesOrderStore),
		logs:        logs,
	}
	resolver := NewCustomerResolver(f.customers, settings, logger)
	itemMapper := NewItemResolver(f.items, settings, logger)
	f.synth = NewOrderSynthesizer(f.customers, f.items, f.salesOrders, resolver, itemMapper, settings, logger)
	return f
}

func (f *synthFixture) personCustomer(id string) {
	f.customers.On("Get", mock.Anything, id).Return(&integration.CustomerRecord{ID: id, IsPerson: true}, nil)
}

func (f *synthFixture) submittedDraft(t *testing.T) *integration.SalesOrderDraft {
	t.Helper()
	for _, call := range f.salesOrders.Calls {
		if call.Method == "Create" {
			return call.Arguments.Get(1).(*integration.SalesOrderDraft)
		}
	}
	t.Fatal("no sales order submitted")
	return nil
}

func TestOrderSynthesizer_ReconciledOrder(t *testing.T) {
	ctx := context.Background()
	f := newSynthFixture(DefaultSettings())
	order := createTestOrder()
	order.OrderDate = time.Date(2024, 3, 9, 15, 0, 0, 0, time.UTC)
	order.CustomerComments = "Leave at door"

	f.personCustomer("P1")
	f.items.On("Find", ctx, integration.ItemTypeInventory, "SKU-1", integration.MatchExact).Return("55", true, nil)
	f.salesOrders.On("Create", ctx, mock.Anything).Return("900", nil)

	result, err := f.synth.Synthesize(ctx, order, "P1")
	require.NoError(t, err)

	assert.Equal(t, "900", result.SalesOrderID)
	assert.Equal(t, "WEB_1001", result.ExternalID)
	assert.True(t, result.ItemTotal.Equal(dec("22")))
	assert.True(t, result.TargetSubtotal.Equal(dec("22")))
	assert.True(t, result.Discrepancy.IsZero())

	draft := f.submittedDraft(t)
	require.Len(t, draft.Items, 1, "no synthetic lines when tax and shipping are zero")
	line := draft.Items[0]
	assert.Equal(t, "55", line.ItemID)
	assert.True(t, line.Rate.Equal(dec("11")), "rate is unit price plus option price")
	assert.True(t, line.Quantity.Equal(dec("2")))
	assert.True(t, line.IsTaxable)
	assert.Equal(t, "Widget", line.Description)

	assert.Equal(t, "P1", draft.EntityID)
	assert.Equal(t, "1", draft.SubsidiaryID)
	assert.Equal(t, "WEB_1001", draft.ExternalID)
	assert.Equal(t, "PO-42", draft.OtherRefNum)
	assert.Equal(t, "Invoice INV-77\nLeave at door", draft.Memo)
	assert.Equal(t, "John Doe\n9 Elm St\nDallas, TX 75201\nUS", draft.ShipAddress)
	assert.Equal(t, order.OrderDate, draft.TranDate)
	assert.Equal(t, 1, f.logs.FilterMessage("Order totals reconciled").Len())
}

func TestOrderSynthesizer_SyntheticLines(t *testing.T) {
	ctx := context.Background()
	settings := DefaultSettings()
	settings.TaxAsLineItem = true
	settings.TaxItemID = "T1"
	settings.ShippingAsLineItem = true
	settings.ShippingItemID = "S1"
	f := newSynthFixture(settings)

	order := createTestOrder()
	order.SalesTax = dec("3")
	order.ShippingCost = dec("5")
	order.OrderAmount = dec("30")

	f.personCustomer("P1")
	f.items.On("Find", ctx, mock.Anything, "SKU-1", integration.MatchExact).Return("55", true, nil)
	f.items.On("IsUsable", ctx, integration.ItemType(""), "T1").Return(true, nil)
	f.items.On("IsUsable", ctx, integration.ItemType(""), "S1").Return(false, nil)
	f.salesOrders.On("Create", ctx, mock.Anything).Return("901", nil)

	result, err := f.synth.Synthesize(ctx, order, "P1")
	require.NoError(t, err)
	assert.True(t, result.Discrepancy.IsZero())

	draft := f.submittedDraft(t)
	require.Len(t, draft.Items, 2, "unusable shipping item is skipped")
	assert.False(t, draft.Items[0].IsTaxable, "item lines are not taxable when tax is a line")
	assert.False(t, draft.IsTaxable)

	tax := draft.Items[1]
	assert.Equal(t, integration.LineKindTax, tax.Kind)
	assert.Equal(t, "T1", tax.ItemID)
	assert.True(t, tax.Rate.Equal(dec("3")))
	assert.True(t, tax.Quantity.Equal(dec("1")))
	assert.False(t, tax.IsTaxable)
	assert.Equal(t, 1, f.logs.FilterMessage("Synthetic line item is not usable").Len())
}

func TestOrderSynthesizer_Reconciliation(t *testing.T) {
	ctx := context.Background()

	t.Run("log mode submits with a warning", func(t *testing.T) {
		f := newSynthFixture(DefaultSettings())
		order := createTestOrder()
		order.OrderAmount = dec("25")

		f.personCustomer("P1")
		f.items.On("Find", ctx, mock.Anything, mock.Anything, mock.Anything).Return("55", true, nil)
		f.salesOrders.On("Create", ctx, mock.Anything).Return("902", nil)

		result, err := f.synth.Synthesize(ctx, order, "P1")
		require.NoError(t, err)
		assert.True(t, result.Discrepancy.Equal(dec("-3")))
		assert.Equal(t, 1, f.logs.FilterMessage("Order totals do not reconcile").Len())
	})

	t.Run("strict mode rejects before submission", func(t *testing.T) {
		settings := DefaultSettings()
		settings.ReconciliationMode = ReconcileStrict
		f := newSynthFixture(settings)
		order := createTestOrder()
		order.OrderAmount = dec("25")

		f.personCustomer("P1")
		f.items.On("Find", ctx, mock.Anything, mock.Anything, mock.Anything).Return("55", true, nil)

		_, err := f.synth.Synthesize(ctx, order, "P1")
		assert.ErrorIs(t, err, integration.ErrTotalsMismatch)
		f.salesOrders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestOrderSynthesizer_CompanyCustomerIsReplacedByPerson(t *testing.T) {
	ctx := context.Background()
	f := newSynthFixture(DefaultSettings())

	f.customers.On("Get", ctx, "C1").Return(&integration.CustomerRecord{ID: "C1", CompanyName: "Acme Corp"}, nil)
	f.customers.On("FindPerson", ctx, "Jane", "Smith", "C1").
		Return(&integration.CustomerRecord{ID: "P5", IsPerson: true}, true, nil)
	f.items.On("Find", ctx, mock.Anything, mock.Anything, mock.Anything).Return("55", true, nil)
	f.salesOrders.On("Create", ctx, mock.Anything).Return("903", nil)

	result, err := f.synth.Synthesize(ctx, createTestOrder(), "C1")
	require.NoError(t, err)
	assert.Equal(t, "P5", result.CustomerID)
	assert.Equal(t, "P5", f.submittedDraft(t).EntityID)
}

func TestOrderSynthesizer_NoLineItems(t *testing.T) {
	ctx := context.Background()
	f := newSynthFixture(DefaultSettings())
	order := createTestOrder()
	order.Items = []integration.OrderItem{
		{ItemID: " ", Quantity: dec("1"), UnitPrice: dec("5")},
		{ItemID: "SKU-2", Quantity: dec("0"), UnitPrice: dec("5")},
	}

	f.personCustomer("P1")

	_, err := f.synth.Synthesize(ctx, order, "P1")
	assert.ErrorIs(t, err, integration.ErrNoLineItems)
	assert.Equal(t, 2, f.logs.FilterMessage("Skipping order line").Len())
	f.items.AssertNotCalled(t, "Find", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderSynthesizer_CreatedWithoutID(t *testing.T) {
	ctx := context.Background()

	t.Run("recovered by external id", func(t *testing.T) {
		f := newSynthFixture(DefaultSettings())
		f.personCustomer("P1")
		f.items.On("Find", ctx, mock.Anything, mock.Anything, mock.Anything).Return("55", true, nil)
		f.salesOrders.On("Create", ctx, mock.Anything).Return("", integration.ErrCreatedIDUnresolved)
		f.salesOrders.On("FindByExternalIDs", ctx, []string{"WEB_1001"}).
			Return(map[string]integration.SalesOrderSummary{"WEB_1001": {ID: "904", ExternalID: "WEB_1001"}}, nil)

		result, err := f.synth.Synthesize(ctx, createTestOrder(), "P1")
		require.NoError(t, err)
		assert.Equal(t, "904", result.SalesOrderID)
		f.salesOrders.AssertNumberOfCalls(t, "FindByExternalIDs", 1)
	})

	t.Run("still unknown", func(t *testing.T) {
		f := newSynthFixture(DefaultSettings())
		f.personCustomer("P1")
		f.items.On("Find", ctx, mock.Anything, mock.Anything, mock.Anything).Return("55", true, nil)
		f.salesOrders.On("Create", ctx, mock.Anything).Return("", integration.ErrCreatedIDUnresolved)
		f.salesOrders.On("FindByExternalIDs", ctx, mock.Anything).
			Return(map[string]integration.SalesOrderSummary{}, nil)

		result, err := f.synth.Synthesize(ctx, createTestOrder(), "P1")
		require.NoError(t, err)
		assert.Empty(t, result.SalesOrderID)
		assert.Equal(t, 1, f.logs.FilterMessage("Sales order was created but its id is unknown").Len())
	})
}

func TestOrderSynthesizer_CreateFailure(t *testing.T) {
	ctx := context.Background()
	f := newSynthFixture(DefaultSettings())
	f.personCustomer("P1")
	f.items.On("Find", ctx, mock.Anything, mock.Anything, mock.Anything).Return("55", true, nil)
	f.salesOrders.On("Create", ctx, mock.Anything).Return("", integration.ErrERPRequestFailed)

	_, err := f.synth.Synthesize(ctx, createTestOrder(), "P1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, integration.ErrERPRequestFailed))
	f.salesOrders.AssertNotCalled(t, "FindByExternalIDs", mock.Anything, mock.Anything)
}

func TestOrderSynthesizer_TruncatesPONumber(t *testing.T) {
	ctx := context.Background()
	f := newSynthFixture(DefaultSettings())
	order := createTestOrder()
	order.Questions[1].Answer = "PO-0123456789012345678901234567890123456789-extra"

	f.personCustomer("P1")
	f.items.On("Find", ctx, mock.Anything, mock.Anything, mock.Anything).Return("55", true, nil)
	f.salesOrders.On("Create", ctx, mock.Anything).Return("905", nil)

	_, err := f.synth.Synthesize(ctx, order, "P1")
	require.NoError(t, err)
	assert.Len(t, f.submittedDraft(t).OtherRefNum, integration.MaxOtherRefNumLength)
}

func TestShipAddressText(t *testing.T) {
	assert.Equal(t, "Ann Lee\nSuite 4\nBoston", shipAddressText(integration.Shipment{
		FirstName: "Ann", LastName: "Lee", Address2: "Suite 4", City: "Boston",
	}))
	assert.Empty(t, shipAddressText(integration.Shipment{}))
}
