package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	appintegration "github.com/erp/ordersync/internal/application/integration"
	"github.com/erp/ordersync/internal/domain/integration"
	"github.com/erp/ordersync/internal/interfaces/http/dto"
	"github.com/erp/ordersync/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testOrderJSON = `{
	"order_id": "%s",
	"invoice_number_prefix": "INV-",
	"invoice_number": "77",
	"billing": {
		"first_name": "Jane", "last_name": "Smith", "company": "Acme Corp",
		"address": "1 Main St", "city": "Austin", "state": "TX", "zip_code": "78701",
		"country": "US", "phone": "555-0100", "email": "billing@acme.test"
	},
	"billing_payment_method": "Credit Card",
	"questions": [
		{"question_id": 1, "title": "Email", "answer": "buyer@acme.test"},
		{"question_id": 2, "title": "PO Number", "answer": "PO-42"}
	],
	"shipments": [{
		"first_name": "John", "last_name": "Doe", "address": "9 Elm St", "city": "Dallas",
		"state": "TX", "zip_code": "75201", "country": "US", "phone": "555-0199", "method_name": "Ground"
	}],
	"items": [{"item_id": "SKU-1", "description": "Widget", "quantity": "2", "unit_price": "10", "option_price": "1"}],
	"order_amount": "22",
	"sales_tax": "0",
	"shipping_cost": "0"
}`

func orderJSON(id string) string {
	return fmt.Sprintf(testOrderJSON, id)
}

type orderSyncFixture struct {
	customers   *MockCustomerStore
	items       *MockItemStore
	salesOrders *MockSalesOrderStore
	router      *gin.Engine
}

func setupOrderSyncTestRouter(maxBatchSize int) *orderSyncFixture {
	settings := appintegration.DefaultSettings()
	settings.InterOrderDelay = 0
	logger := zap.NewNop()

	f := &orderSyncFixture{
		customers:   new(MockCustomerStore),
		items:       new(MockItemStore),
		salesOrders: new(MockSalesOrderStore),
	}
	resolver := appintegration.NewCustomerResolver(f.customers, settings, logger)
	synth := appintegration.NewOrderSynthesizer(f.customers, f.items, f.salesOrders, resolver,
		appintegration.NewItemResolver(f.items, settings, logger), settings, logger)
	status := appintegration.NewSyncStatusChecker(f.salesOrders, settings, logger)
	service := appintegration.NewOrderSyncService(resolver, synth, status, f.salesOrders, settings, logger)
	h := NewOrderSyncHandler(service, maxBatchSize)

	f.router = gin.New()
	f.router.Use(middleware.RequestID())
	f.router.POST("/orders/sync", h.SyncOrder)
	f.router.POST("/orders/sync/batch", h.SyncBatch)
	f.router.POST("/orders/sync-status", h.SyncStatus)
	f.router.DELETE("/orders/:id/sales-order", h.RemoveSalesOrder)
	return f
}

func (f *orderSyncFixture) happyPath(salesOrderID string) {
	f.customers.On("FindCompanyByEmail", mock.Anything, "buyer@acme.test").
		Return(&integration.CustomerRecord{ID: "C1", CompanyName: "Acme Corp"}, true, nil)
	f.customers.On("FindPerson", mock.Anything, mock.Anything, mock.Anything, "C1").
		Return(&integration.CustomerRecord{ID: "P1", IsPerson: true}, true, nil)
	f.customers.On("Get", mock.Anything, "P1").Return(&integration.CustomerRecord{ID: "P1", IsPerson: true}, nil)
	f.items.On("Find", mock.Anything, mock.Anything, "SKU-1", integration.MatchExact).Return("55", true, nil)
	f.salesOrders.On("Create", mock.Anything, mock.Anything).Return(salesOrderID, nil)
}

func (f *orderSyncFixture) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.RequestIDHeader, "req-test")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
	Meta    *dto.Meta       `json:"meta"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder, data any) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func TestOrderSyncHandler_SyncOrder(t *testing.T) {
	t.Run("creates the sales order", func(t *testing.T) {
		f := setupOrderSyncTestRouter(0)
		f.happyPath("900")

		w := f.do(http.MethodPost, "/orders/sync", orderJSON("1001"))

		assert.Equal(t, http.StatusOK, w.Code)
		var result appintegration.OrderSyncResult
		env := decodeEnvelope(t, w, &result)
		assert.True(t, env.Success)
		assert.Equal(t, appintegration.OrderSynced, result.Status)
		assert.Equal(t, "WEB_1001", result.ExternalID)
		assert.Equal(t, "900", result.SalesOrderID)
		assert.Equal(t, "P1", result.CustomerID)
		f.salesOrders.AssertExpectations(t)
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		f := setupOrderSyncTestRouter(0)

		w := f.do(http.MethodPost, "/orders/sync", `{"order_id":`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		env := decodeEnvelope(t, w, nil)
		assert.False(t, env.Success)
		assert.Equal(t, dto.ErrCodeInvalidJSON, env.Error.Code)
		assert.Equal(t, "req-test", env.Error.RequestID)
	})

	t.Run("reports an invalid order with its result", func(t *testing.T) {
		f := setupOrderSyncTestRouter(0)

		w := f.do(http.MethodPost, "/orders/sync", orderJSON(""))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var result appintegration.OrderSyncResult
		env := decodeEnvelope(t, w, &result)
		assert.False(t, env.Success)
		assert.Equal(t, appintegration.CodeInvalidOrder, env.Error.Code)
		assert.Equal(t, appintegration.OrderFailed, result.Status)
		f.customers.AssertNotCalled(t, "FindCompanyByEmail", mock.Anything, mock.Anything)
	})

	t.Run("maps an unavailable ERP to 503", func(t *testing.T) {
		f := setupOrderSyncTestRouter(0)
		f.customers.On("FindCompanyByEmail", mock.Anything, mock.Anything).
			Return(nil, false, fmt.Errorf("query: %w", integration.ErrERPUnavailable))

		w := f.do(http.MethodPost, "/orders/sync", orderJSON("1001"))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		env := decodeEnvelope(t, w, nil)
		assert.Equal(t, appintegration.CodeERPUnavailable, env.Error.Code)
	})

	t.Run("maps an unresolvable item to 422", func(t *testing.T) {
		f := setupOrderSyncTestRouter(0)
		f.customers.On("FindCompanyByEmail", mock.Anything, mock.Anything).
			Return(&integration.CustomerRecord{ID: "C1"}, true, nil)
		f.customers.On("FindPerson", mock.Anything, mock.Anything, mock.Anything, "C1").
			Return(&integration.CustomerRecord{ID: "P1", IsPerson: true}, true, nil)
		f.customers.On("Get", mock.Anything, "P1").Return(&integration.CustomerRecord{ID: "P1", IsPerson: true}, nil)
		f.items.On("Find", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", false, nil)

		w := f.do(http.MethodPost, "/orders/sync", orderJSON("1001"))

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		env := decodeEnvelope(t, w, nil)
		assert.Equal(t, appintegration.CodeItemUnresolvable, env.Error.Code)
		f.salesOrders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestOrderSyncHandler_SyncBatch(t *testing.T) {
	t.Run("syncs each order and skips synced ones", func(t *testing.T) {
		f := setupOrderSyncTestRouter(0)
		f.happyPath("900")
		f.salesOrders.On("FindByExternalIDs", mock.Anything, []string{"WEB_1", "WEB_2"}).
			Return(map[string]integration.SalesOrderSummary{"WEB_2": {ID: "850", ExternalID: "WEB_2"}}, nil)

		body := fmt.Sprintf(`{"orders": [%s, %s], "skip_synced": true}`, orderJSON("1"), orderJSON("2"))
		w := f.do(http.MethodPost, "/orders/sync/batch", body)

		assert.Equal(t, http.StatusOK, w.Code)
		var batch appintegration.BatchSyncResult
		env := decodeEnvelope(t, w, &batch)
		assert.True(t, env.Success)
		require.NotNil(t, env.Meta)
		assert.Equal(t, 2, env.Meta.Total)
		assert.Equal(t, 1, batch.SyncedCount)
		assert.Equal(t, 1, batch.AlreadySynced)
		require.Len(t, batch.Results, 2)
		assert.Equal(t, "850", batch.Results[1].SalesOrderID)
		f.salesOrders.AssertNumberOfCalls(t, "Create", 1)
	})

	t.Run("rejects an empty batch", func(t *testing.T) {
		f := setupOrderSyncTestRouter(0)

		w := f.do(http.MethodPost, "/orders/sync/batch", `{"orders": []}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		env := decodeEnvelope(t, w, nil)
		assert.Equal(t, dto.ErrCodeValidation, env.Error.Code)
		require.NotEmpty(t, env.Error.Details)
		assert.Equal(t, "Orders", env.Error.Details[0].Field)
	})

	t.Run("rejects batches over the limit", func(t *testing.T) {
		f := setupOrderSyncTestRouter(2)

		body := fmt.Sprintf(`{"orders": [%s, %s, %s]}`, orderJSON("1"), orderJSON("2"), orderJSON("3"))
		w := f.do(http.MethodPost, "/orders/sync/batch", body)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		env := decodeEnvelope(t, w, nil)
		assert.Equal(t, dto.ErrCodeBatchTooLarge, env.Error.Code)
		f.customers.AssertNotCalled(t, "FindCompanyByEmail", mock.Anything, mock.Anything)
	})
}

func TestOrderSyncHandler_SyncStatus(t *testing.T) {
	t.Run("reports status in request order", func(t *testing.T) {
		f := setupOrderSyncTestRouter(0)
		f.salesOrders.On("FindByExternalIDs", mock.Anything, []string{"WEB_1002", "WEB_1001"}).
			Return(map[string]integration.SalesOrderSummary{
				"WEB_1001": {ID: "900", TranID: "SO-900", ExternalID: "WEB_1001", Status: "Pending Fulfillment"},
			}, nil)

		w := f.do(http.MethodPost, "/orders/sync-status", `{"order_ids": ["1002", " 1001 ", "1002", ""]}`)

		assert.Equal(t, http.StatusOK, w.Code)
		var statuses []appintegration.SyncStatusResponse
		env := decodeEnvelope(t, w, &statuses)
		assert.Equal(t, 2, env.Meta.Total)
		require.Len(t, statuses, 2)
		assert.Equal(t, "1002", statuses[0].SourceOrderID)
		assert.False(t, statuses[0].Synced)
		assert.Equal(t, "1001", statuses[1].SourceOrderID)
		assert.True(t, statuses[1].Synced)
		assert.Equal(t, "900", statuses[1].SalesOrderID)
		assert.Equal(t, "SO-900", statuses[1].TranID)
	})

	t.Run("attaches lookup errors to entries", func(t *testing.T) {
		f := setupOrderSyncTestRouter(0)
		f.salesOrders.On("FindByExternalIDs", mock.Anything, []string{"WEB_1001"}).
			Return(nil, integration.ErrERPUnavailable)

		w := f.do(http.MethodPost, "/orders/sync-status", `{"order_ids": ["1001"]}`)

		assert.Equal(t, http.StatusOK, w.Code)
		var statuses []appintegration.SyncStatusResponse
		decodeEnvelope(t, w, &statuses)
		require.Len(t, statuses, 1)
		assert.False(t, statuses[0].Synced)
		assert.True(t, statuses[0].Unknown)
		assert.Contains(t, statuses[0].Error, "temporarily unavailable")
	})

	t.Run("rejects lookups over the limit", func(t *testing.T) {
		f := setupOrderSyncTestRouter(2)

		w := f.do(http.MethodPost, "/orders/sync-status", `{"order_ids": ["1", "2", "3"]}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		f.salesOrders.AssertNotCalled(t, "FindByExternalIDs", mock.Anything, mock.Anything)
	})
}

func TestOrderSyncHandler_RemoveSalesOrder(t *testing.T) {
	t.Run("deletes the sales order", func(t *testing.T) {
		f := setupOrderSyncTestRouter(0)
		f.salesOrders.On("FindByExternalIDs", mock.Anything, []string{"WEB_1001"}).
			Return(map[string]integration.SalesOrderSummary{"WEB_1001": {ID: "900", ExternalID: "WEB_1001"}}, nil)
		f.salesOrders.On("Delete", mock.Anything, "900").Return(nil)

		w := f.do(http.MethodDelete, "/orders/1001/sales-order", "")

		assert.Equal(t, http.StatusOK, w.Code)
		var resp appintegration.RemoveSalesOrderResponse
		decodeEnvelope(t, w, &resp)
		assert.Equal(t, "900", resp.SalesOrderID)
		assert.Equal(t, "WEB_1001", resp.ExternalID)
		f.salesOrders.AssertExpectations(t)
	})

	t.Run("404 when nothing was synced", func(t *testing.T) {
		f := setupOrderSyncTestRouter(0)
		f.salesOrders.On("FindByExternalIDs", mock.Anything, []string{"WEB_1001"}).
			Return(map[string]integration.SalesOrderSummary{}, nil)

		w := f.do(http.MethodDelete, "/orders/1001/sales-order", "")

		assert.Equal(t, http.StatusNotFound, w.Code)
		env := decodeEnvelope(t, w, nil)
		assert.Equal(t, appintegration.CodeSalesOrderMissing, env.Error.Code)
		assert.True(t, strings.Contains(env.Error.Message, "WEB_1001"))
		f.salesOrders.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("rejected deletes surface the ERP error", func(t *testing.T) {
		f := setupOrderSyncTestRouter(0)
		f.salesOrders.On("FindByExternalIDs", mock.Anything, []string{"WEB_1001"}).
			Return(map[string]integration.SalesOrderSummary{"WEB_1001": {ID: "900", ExternalID: "WEB_1001"}}, nil)
		f.salesOrders.On("Delete", mock.Anything, "900").
			Return(fmt.Errorf("%w: status 400", integration.ErrERPRequestFailed))

		w := f.do(http.MethodDelete, "/orders/1001/sales-order", "")

		assert.Equal(t, http.StatusBadGateway, w.Code)
		env := decodeEnvelope(t, w, nil)
		assert.Equal(t, appintegration.CodeERPRequestFailed, env.Error.Code)
	})
}
