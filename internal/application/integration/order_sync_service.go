package integration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/erp/ordersync/internal/domain/integration"
	"github.com/erp/ordersync/internal/infrastructure/logger"
	"github.com/erp/ordersync/internal/infrastructure/telemetry"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Error codes reported in sync results
const (
	CodeInvalidOrder       = "INVALID_ORDER"
	CodeNoLineItems        = "NO_LINE_ITEMS"
	CodeItemUnresolvable   = "ITEM_UNRESOLVABLE"
	CodeTotalsMismatch     = "TOTALS_MISMATCH"
	CodeCustomerNotFound   = "CUSTOMER_NOT_FOUND"
	CodeSalesOrderMissing  = "SALES_ORDER_NOT_FOUND"
	CodeInvalidLead        = "INVALID_LEAD"
	CodeERPUnavailable     = "ERP_UNAVAILABLE"
	CodeERPRequestFailed   = "ERP_REQUEST_FAILED"
	CodeInvalidERPResponse = "INVALID_ERP_RESPONSE"
	CodeCancelled          = "CANCELLED"
	CodeSyncFailed         = "SYNC_FAILED"
)

// ErrorCode maps an error to its result code
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, integration.ErrInvalidOrder):
		return CodeInvalidOrder
	case errors.Is(err, integration.ErrNoLineItems):
		return CodeNoLineItems
	case errors.Is(err, integration.ErrItemUnresolvable):
		return CodeItemUnresolvable
	case errors.Is(err, integration.ErrTotalsMismatch):
		return CodeTotalsMismatch
	case errors.Is(err, integration.ErrCustomerNotFound):
		return CodeCustomerNotFound
	case errors.Is(err, integration.ErrSalesOrderMissing):
		return CodeSalesOrderMissing
	case errors.Is(err, integration.ErrInvalidLead):
		return CodeInvalidLead
	case errors.Is(err, integration.ErrERPUnavailable):
		return CodeERPUnavailable
	case errors.Is(err, integration.ErrInvalidERPResponse):
		return CodeInvalidERPResponse
	case errors.Is(err, integration.ErrERPRequestFailed):
		return CodeERPRequestFailed
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return CodeCancelled
	default:
		return CodeSyncFailed
	}
}

// OrderSyncService runs the customer resolution and sales order synthesis
// chain for single orders and batches
type OrderSyncService struct {
	customers   *CustomerResolver
	synthesizer *OrderSynthesizer
	status      *SyncStatusChecker
	salesOrders integration.SalesOrderStore
	validate    *validator.Validate
	settings    Settings
	metrics     *telemetry.SyncMetrics
	logger      *zap.Logger
}

// NewOrderSyncService creates a new OrderSyncService
func NewOrderSyncService(
	customers *CustomerResolver,
	synthesizer *OrderSynthesizer,
	status *SyncStatusChecker,
	salesOrders integration.SalesOrderStore,
	settings Settings,
	logger *zap.Logger,
) *OrderSyncService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderSyncService{
		customers:   customers,
		synthesizer: synthesizer,
		status:      status,
		salesOrders: salesOrders,
		validate:    validator.New(),
		settings:    settings.withDefaults(),
		logger:      logger,
	}
}

// SetMetrics sets the sync metrics collector
func (s *OrderSyncService) SetMetrics(m *telemetry.SyncMetrics) {
	s.metrics = m
}

// Status returns the sync status checker
func (s *OrderSyncService) Status() *SyncStatusChecker {
	return s.status
}

// SyncOrder resolves the customer and creates the sales order for one
// order. Failures are reported in the result, never as a panic.
func (s *OrderSyncService) SyncOrder(ctx context.Context, order *integration.ExternalOrder) *OrderSyncResult {
	start := time.Now()
	result := &OrderSyncResult{}
	if order == nil {
		return s.fail(ctx, result, fmt.Errorf("%w: missing order", integration.ErrInvalidOrder), start)
	}
	result.SourceOrderID = strings.TrimSpace(order.OrderID)
	result.ExternalID = order.ExternalID(s.settings.ExternalIDPrefix)

	strategy := order.Strategy(s.settings.DropshipPaymentMethod)
	ctx, span := telemetry.StartServiceSpan(ctx, "OrderSyncService", "SyncOrder",
		telemetry.WithAttribute(telemetry.SpanAttrOrderID, result.SourceOrderID),
		telemetry.WithAttribute(telemetry.SpanAttrExternalID, result.ExternalID),
		telemetry.WithAttribute(telemetry.SpanAttrStrategy, strategy.String()),
	)
	defer span.End()
	ctx = logger.WithOrderID(ctx, result.SourceOrderID)

	err := s.syncOrder(ctx, order, result)
	s.metrics.RecordOrderSync(ctx, strategy.String(), err == nil)
	if err != nil {
		telemetry.RecordError(span, err)
		return s.fail(ctx, result, err, start)
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrCustomerID, result.CustomerID)
	telemetry.SetOK(span)

	result.Status = OrderSynced
	result.Duration = time.Since(start)
	return result
}

func (s *OrderSyncService) syncOrder(ctx context.Context, order *integration.ExternalOrder, result *OrderSyncResult) error {
	if err := s.validate.Struct(order); err != nil {
		return fmt.Errorf("%w: %v", integration.ErrInvalidOrder, err)
	}

	customerID, err := s.customers.Resolve(ctx, order)
	if err != nil {
		return err
	}
	result.CustomerID = customerID

	synthesis, err := s.synthesizer.Synthesize(ctx, order, customerID)
	if err != nil {
		return err
	}
	result.CustomerID = synthesis.CustomerID
	result.SalesOrderID = synthesis.SalesOrderID
	result.LineCount = len(synthesis.Lines)
	result.ItemTotal = synthesis.ItemTotal.String()
	result.TargetSubtotal = synthesis.TargetSubtotal.String()
	result.Discrepancy = synthesis.Discrepancy.String()
	return nil
}

func (s *OrderSyncService) fail(ctx context.Context, result *OrderSyncResult, err error, start time.Time) *OrderSyncResult {
	result.Status = OrderFailed
	result.ErrorCode = ErrorCode(err)
	result.ErrorMessage = err.Error()
	result.Duration = time.Since(start)
	logger.Enrich(ctx, s.logger).Error("Order sync failed",
		zap.String("error_code", result.ErrorCode),
		zap.Error(err),
	)
	return result
}

// SyncBatch syncs orders one at a time, pacing them by the configured
// inter-order delay. With skipSynced, orders that already have a sales order
// are reported ALREADY_SYNCED without being resubmitted. A cancelled context
// stops the run and reports the remaining orders as SKIPPED.
func (s *OrderSyncService) SyncBatch(ctx context.Context, orders []*integration.ExternalOrder, skipSynced bool) *BatchSyncResult {
	batch := &BatchSyncResult{
		BatchID:    uuid.New(),
		StartedAt:  time.Now(),
		TotalCount: len(orders),
		Results:    make([]*OrderSyncResult, 0, len(orders)),
	}
	ctx = logger.WithBatchID(ctx, batch.BatchID.String())
	log := logger.Enrich(ctx, s.logger)
	log.Info("Batch sync started", zap.Int("orders", len(orders)), zap.Bool("skip_synced", skipSynced))

	var synced map[string]integration.SyncStatusEntry
	if skipSynced {
		ids := make([]string, 0, len(orders))
		for _, o := range orders {
			if o != nil {
				ids = append(ids, o.OrderID)
			}
		}
		synced = s.status.CheckBatch(ctx, ids)
	}

	limiter := rate.NewLimiter(rate.Every(s.settings.InterOrderDelay), 1)
	for i, order := range orders {
		if order != nil {
			if entry, ok := synced[strings.TrimSpace(order.OrderID)]; ok && entry.Synced {
				batch.add(&OrderSyncResult{
					SourceOrderID: entry.SourceOrderID,
					ExternalID:    entry.ExternalID,
					Status:        OrderAlreadySynced,
					SalesOrderID:  entry.SalesOrderID,
				})
				continue
			}
		}

		if err := limiter.Wait(ctx); err != nil {
			log.Warn("Batch sync interrupted", zap.Int("remaining", len(orders)-i), zap.Error(err))
			for _, rest := range orders[i:] {
				batch.add(s.skipped(rest, err))
			}
			break
		}
		batch.add(s.SyncOrder(ctx, order))
	}

	batch.CompletedAt = time.Now()
	log.Info("Batch sync completed",
		zap.Int("synced", batch.SyncedCount),
		zap.Int("failed", batch.FailedCount),
		zap.Int("skipped", batch.SkippedCount),
		zap.Int("already_synced", batch.AlreadySynced),
		zap.Duration("elapsed", batch.CompletedAt.Sub(batch.StartedAt)),
	)
	return batch
}

func (s *OrderSyncService) skipped(order *integration.ExternalOrder, cause error) *OrderSyncResult {
	r := &OrderSyncResult{
		Status:       OrderSkipped,
		ErrorCode:    CodeCancelled,
		ErrorMessage: cause.Error(),
	}
	if order != nil {
		r.SourceOrderID = strings.TrimSpace(order.OrderID)
		r.ExternalID = order.ExternalID(s.settings.ExternalIDPrefix)
	}
	return r
}

// RemoveSalesOrder deletes the ERP sales order created for a source order
func (s *OrderSyncService) RemoveSalesOrder(ctx context.Context, sourceOrderID string) (*RemoveSalesOrderResponse, error) {
	entry := s.status.Check(ctx, sourceOrderID)
	if entry.Err != nil {
		return nil, entry.Err
	}
	if !entry.Synced || entry.SalesOrderID == "" {
		return nil, fmt.Errorf("%w: %s", integration.ErrSalesOrderMissing, entry.ExternalID)
	}

	if err := s.salesOrders.Delete(ctx, entry.SalesOrderID); err != nil {
		return nil, fmt.Errorf("delete sales order %s: %w", entry.SalesOrderID, err)
	}

	orderLogger(ctx, s.logger, entry.SourceOrderID).Info("Sales order removed",
		zap.String("sales_order_id", entry.SalesOrderID),
	)
	return &RemoveSalesOrderResponse{
		SourceOrderID: entry.SourceOrderID,
		ExternalID:    entry.ExternalID,
		SalesOrderID:  entry.SalesOrderID,
	}, nil
}
