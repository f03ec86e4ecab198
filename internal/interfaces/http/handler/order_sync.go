package handler

import (
	"fmt"
	"strings"

	appintegration "github.com/erp/ordersync/internal/application/integration"
	"github.com/erp/ordersync/internal/domain/integration"
	"github.com/erp/ordersync/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// DefaultMaxBatchSize bounds orders per batch and ids per status lookup
const DefaultMaxBatchSize = 100

// OrderSyncHandler handles order synchronization endpoints
type OrderSyncHandler struct {
	BaseHandler
	syncService  *appintegration.OrderSyncService
	maxBatchSize int
}

// NewOrderSyncHandler creates a new OrderSyncHandler. A non-positive
// maxBatchSize falls back to DefaultMaxBatchSize.
func NewOrderSyncHandler(syncService *appintegration.OrderSyncService, maxBatchSize int) *OrderSyncHandler {
	if maxBatchSize <= 0 {
		maxBatchSize = DefaultMaxBatchSize
	}
	return &OrderSyncHandler{
		syncService:  syncService,
		maxBatchSize: maxBatchSize,
	}
}

// SyncBatchRequest represents a request to sync several orders
type SyncBatchRequest struct {
	Orders     []*integration.ExternalOrder `json:"orders" binding:"required,min=1"`
	SkipSynced bool                         `json:"skip_synced"`
}

// SyncStatusRequest represents a sync status lookup
type SyncStatusRequest struct {
	OrderIDs []string `json:"order_ids" binding:"required,min=1"`
}

// SyncOrder godoc
// @Summary      Sync one order
// @Description  Resolve the customer and create the ERP sales order for one storefront order
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        request body integration.ExternalOrder true "Order"
// @Success      200 {object} dto.Response{data=appintegration.OrderSyncResult}
// @Failure      400 {object} dto.Response{data=appintegration.OrderSyncResult}
// @Failure      422 {object} dto.Response{data=appintegration.OrderSyncResult}
// @Failure      503 {object} dto.Response{data=appintegration.OrderSyncResult}
// @Router       /orders/sync [post]
func (h *OrderSyncHandler) SyncOrder(c *gin.Context) {
	var order integration.ExternalOrder
	if err := c.ShouldBindJSON(&order); err != nil {
		h.BindError(c, err)
		return
	}

	result := h.syncService.SyncOrder(c.Request.Context(), &order)
	if result.IsSuccess() {
		h.Success(c, result)
		return
	}
	c.JSON(dto.GetHTTPStatus(result.ErrorCode), dto.NewFailedResultResponse(
		result, result.ErrorCode, result.ErrorMessage, getRequestID(c),
	))
}

// SyncBatch godoc
// @Summary      Sync a batch of orders
// @Description  Sync orders one at a time. Per-order failures are reported in the results.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        request body SyncBatchRequest true "Orders"
// @Success      200 {object} dto.Response{data=appintegration.BatchSyncResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/sync/batch [post]
func (h *OrderSyncHandler) SyncBatch(c *gin.Context) {
	var req SyncBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	if len(req.Orders) > h.maxBatchSize {
		h.ErrorWithCode(c, dto.ErrCodeBatchTooLarge,
			fmt.Sprintf("batch has %d orders, the limit is %d", len(req.Orders), h.maxBatchSize))
		return
	}

	batch := h.syncService.SyncBatch(c.Request.Context(), req.Orders, req.SkipSynced)
	h.SuccessWithMeta(c, batch, batch.TotalCount)
}

// SyncStatus godoc
// @Summary      Look up sync status
// @Description  Report whether each source order already has an ERP sales order
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        request body SyncStatusRequest true "Source order ids"
// @Success      200 {object} dto.Response{data=[]appintegration.SyncStatusResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/sync-status [post]
func (h *OrderSyncHandler) SyncStatus(c *gin.Context) {
	var req SyncStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	if len(req.OrderIDs) > h.maxBatchSize {
		h.ErrorWithCode(c, dto.ErrCodeBatchTooLarge,
			fmt.Sprintf("lookup has %d ids, the limit is %d", len(req.OrderIDs), h.maxBatchSize))
		return
	}

	entries := h.syncService.Status().CheckBatch(c.Request.Context(), req.OrderIDs)

	// Keep request order; CheckBatch already drops blanks and duplicates
	seen := make(map[string]struct{}, len(entries))
	statuses := make([]appintegration.SyncStatusResponse, 0, len(entries))
	for _, id := range req.OrderIDs {
		id = strings.TrimSpace(id)
		entry, ok := entries[id]
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		statuses = append(statuses, appintegration.ToSyncStatusResponse(entry))
	}
	h.SuccessWithMeta(c, statuses, len(statuses))
}

// RemoveSalesOrder godoc
// @Summary      Remove the sales order of a source order
// @Description  Delete the ERP sales order created for a storefront order
// @Tags         orders
// @Produce      json
// @Param        id path string true "Source order id"
// @Success      200 {object} dto.Response{data=appintegration.RemoveSalesOrderResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /orders/{id}/sales-order [delete]
func (h *OrderSyncHandler) RemoveSalesOrder(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		h.BadRequest(c, "order id is required")
		return
	}

	resp, err := h.syncService.RemoveSalesOrder(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
