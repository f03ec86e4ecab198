package integration

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/erp/ordersync/internal/domain/integration"
	"github.com/erp/ordersync/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
)

type syncFixture struct {
	customers   *MockCustomerStore
	items       *MockItemStore
	salesOrders *MockSalesOrderStore
	service     *OrderSyncService
}

func newSyncFixture() *syncFixture {
	settings := DefaultSettings()
	settings.InterOrderDelay = 0
	logger := zap.NewNop()

	f := &syncFixture{
		customers:   new(MockCustomerStore),
		items:       new(MockItemStore),
		salesOrders: new(MockSalesOrderStore),
	}
	resolver := NewCustomerResolver(f.customers, settings, logger)
	synth := NewOrderSynthesizer(f.customers, f.items, f.salesOrders, resolver,
		NewItemResolver(f.items, settings, logger), settings, logger)
	status := NewSyncStatusChecker(f.salesOrders, settings, logger)
	f.service = NewOrderSyncService(resolver, synth, status, f.salesOrders, settings, logger)
	return f
}

// happyPath makes every order resolve to person P1 and sales order id
func (f *syncFixture) happyPath(salesOrderID string) {
	f.customers.On("FindCompanyByEmail", mock.Anything, mock.Anything).
		Return(&integration.CustomerRecord{ID: "C1", CompanyName: "Acme Corp"}, true, nil)
	f.customers.On("FindPerson", mock.Anything, mock.Anything, mock.Anything, "C1").
		Return(&integration.CustomerRecord{ID: "P1", IsPerson: true}, true, nil)
	f.customers.On("Get", mock.Anything, "P1").Return(&integration.CustomerRecord{ID: "P1", IsPerson: true}, nil)
	f.items.On("Find", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("55", true, nil)
	f.salesOrders.On("Create", mock.Anything, mock.Anything).Return(salesOrderID, nil)
}

func orderWithID(id string) *integration.ExternalOrder {
	o := createTestOrder()
	o.OrderID = id
	return o
}

func TestOrderSyncService_SyncOrder(t *testing.T) {
	f := newSyncFixture()
	f.happyPath("900")

	result := f.service.SyncOrder(context.Background(), createTestOrder())

	assert.Equal(t, OrderSynced, result.Status)
	assert.True(t, result.IsSuccess())
	assert.Equal(t, "1001", result.SourceOrderID)
	assert.Equal(t, "WEB_1001", result.ExternalID)
	assert.Equal(t, "P1", result.CustomerID)
	assert.Equal(t, "900", result.SalesOrderID)
	assert.Equal(t, 1, result.LineCount)
	assert.Equal(t, "22", result.ItemTotal)
	assert.Equal(t, "0", result.Discrepancy)
	assert.Empty(t, result.ErrorCode)
}

func TestOrderSyncService_SyncOrderInvalid(t *testing.T) {
	f := newSyncFixture()

	result := f.service.SyncOrder(context.Background(), orderWithID(""))
	assert.Equal(t, OrderFailed, result.Status)
	assert.Equal(t, CodeInvalidOrder, result.ErrorCode)
	assert.Empty(t, f.customers.Calls)

	result = f.service.SyncOrder(context.Background(), nil)
	assert.Equal(t, OrderFailed, result.Status)
	assert.Equal(t, CodeInvalidOrder, result.ErrorCode)
}

func TestOrderSyncService_SyncOrderFailure(t *testing.T) {
	f := newSyncFixture()
	f.customers.On("FindCompanyByEmail", mock.Anything, mock.Anything).
		Return(nil, false, fmt.Errorf("query: %w", integration.ErrERPUnavailable))

	result := f.service.SyncOrder(context.Background(), createTestOrder())

	assert.Equal(t, OrderFailed, result.Status)
	assert.False(t, result.IsSuccess())
	assert.Equal(t, CodeERPUnavailable, result.ErrorCode)
	assert.Contains(t, result.ErrorMessage, "temporarily unavailable")
	f.salesOrders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestOrderSyncService_RecordsMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	metrics, err := telemetry.NewSyncMetrics(mp.Meter("test"))
	require.NoError(t, err)

	f := newSyncFixture()
	f.happyPath("900")
	f.service.SetMetrics(metrics)

	f.service.SyncOrder(context.Background(), createTestOrder())

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "ordersync_orders_total" {
				continue
			}
			for _, dp := range m.Data.(metricdata.Sum[int64]).DataPoints {
				total += dp.Value
			}
		}
	}
	assert.Equal(t, int64(1), total)
}

func TestOrderSyncService_SyncBatch(t *testing.T) {
	f := newSyncFixture()
	f.happyPath("900")
	f.salesOrders.On("FindByExternalIDs", mock.Anything, []string{"WEB_1", "WEB_2", "WEB_3"}).
		Return(map[string]integration.SalesOrderSummary{"WEB_2": {ID: "850", ExternalID: "WEB_2"}}, nil)

	orders := []*integration.ExternalOrder{orderWithID("1"), orderWithID("2"), orderWithID("3")}
	batch := f.service.SyncBatch(context.Background(), orders, true)

	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", batch.BatchID.String())
	assert.Equal(t, 3, batch.TotalCount)
	assert.Equal(t, 2, batch.SyncedCount)
	assert.Equal(t, 1, batch.AlreadySynced)
	assert.Zero(t, batch.FailedCount)
	require.Len(t, batch.Results, 3)
	assert.Equal(t, OrderAlreadySynced, batch.Results[1].Status)
	assert.Equal(t, "850", batch.Results[1].SalesOrderID)
	f.salesOrders.AssertNumberOfCalls(t, "Create", 2)
}

func TestOrderSyncService_SyncBatchWithoutSkip(t *testing.T) {
	f := newSyncFixture()
	f.happyPath("900")

	batch := f.service.SyncBatch(context.Background(), []*integration.ExternalOrder{orderWithID("1"), orderWithID("")}, false)

	assert.Equal(t, 1, batch.SyncedCount)
	assert.Equal(t, 1, batch.FailedCount)
	f.salesOrders.AssertNotCalled(t, "FindByExternalIDs", mock.Anything, mock.Anything)
}

func TestOrderSyncService_SyncBatchCancelled(t *testing.T) {
	f := newSyncFixture()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	batch := f.service.SyncBatch(ctx, []*integration.ExternalOrder{orderWithID("1"), orderWithID("2")}, false)

	assert.Equal(t, 2, batch.SkippedCount)
	for _, r := range batch.Results {
		assert.Equal(t, OrderSkipped, r.Status)
		assert.Equal(t, CodeCancelled, r.ErrorCode)
	}
	f.salesOrders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestOrderSyncService_RemoveSalesOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes the synced order", func(t *testing.T) {
		f := newSyncFixture()
		f.salesOrders.On("FindByExternalIDs", ctx, []string{"WEB_1001"}).
			Return(map[string]integration.SalesOrderSummary{"WEB_1001": {ID: "900"}}, nil)
		f.salesOrders.On("Delete", ctx, "900").Return(nil)

		resp, err := f.service.RemoveSalesOrder(ctx, "1001")
		require.NoError(t, err)
		assert.Equal(t, "900", resp.SalesOrderID)
		assert.Equal(t, "WEB_1001", resp.ExternalID)
	})

	t.Run("not synced", func(t *testing.T) {
		f := newSyncFixture()
		f.salesOrders.On("FindByExternalIDs", ctx, mock.Anything).Return(map[string]integration.SalesOrderSummary{}, nil)

		_, err := f.service.RemoveSalesOrder(ctx, "1001")
		assert.ErrorIs(t, err, integration.ErrSalesOrderMissing)
		f.salesOrders.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("lookup failure", func(t *testing.T) {
		f := newSyncFixture()
		f.salesOrders.On("FindByExternalIDs", ctx, mock.Anything).Return(nil, integration.ErrERPUnavailable)

		_, err := f.service.RemoveSalesOrder(ctx, "1001")
		assert.ErrorIs(t, err, integration.ErrERPUnavailable)
	})
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("x: %w", integration.ErrNoLineItems), CodeNoLineItems},
		{integration.ErrTotalsMismatch, CodeTotalsMismatch},
		{integration.ErrItemUnresolvable, CodeItemUnresolvable},
		{integration.ErrInvalidERPResponse, CodeInvalidERPResponse},
		{integration.ErrERPRequestFailed, CodeERPRequestFailed},
		{context.Canceled, CodeCancelled},
		{errors.New("other"), CodeSyncFailed},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ErrorCode(tt.err), tt.err.Error())
	}
}
