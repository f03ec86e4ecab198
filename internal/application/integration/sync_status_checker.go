package integration

import (
	"context"
	"strings"

	"github.com/erp/ordersync/internal/domain/integration"
	"github.com/erp/ordersync/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// SyncStatusChecker reports which source orders already have an ERP sales
// order. The ERP is the only source of truth.
type SyncStatusChecker struct {
	salesOrders integration.SalesOrderStore
	prefix      string
	logger      *zap.Logger
}

// NewSyncStatusChecker creates a sync status checker
func NewSyncStatusChecker(salesOrders integration.SalesOrderStore, settings Settings, logger *zap.Logger) *SyncStatusChecker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncStatusChecker{
		salesOrders: salesOrders,
		prefix:      settings.withDefaults().ExternalIDPrefix,
		logger:      logger,
	}
}

// CheckBatch looks up every source order id in one batched query. Blank
// ids are ignored and duplicates collapse to one entry. When the lookup
// fails every entry is reported unsynced with the error attached.
func (c *SyncStatusChecker) CheckBatch(ctx context.Context, sourceOrderIDs []string) map[string]integration.SyncStatusEntry {
	entries := make(map[string]integration.SyncStatusEntry, len(sourceOrderIDs))
	externalIDs := make([]string, 0, len(sourceOrderIDs))
	for _, raw := range sourceOrderIDs {
		id := strings.TrimSpace(raw)
		if id == "" {
			continue
		}
		if _, seen := entries[id]; seen {
			continue
		}
		externalID := integration.ExternalIDFor(c.prefix, id)
		entries[id] = integration.SyncStatusEntry{SourceOrderID: id, ExternalID: externalID}
		externalIDs = append(externalIDs, externalID)
	}
	if len(externalIDs) == 0 {
		return entries
	}

	found, err := c.salesOrders.FindByExternalIDs(ctx, externalIDs)
	if err != nil {
		logger.Enrich(ctx, c.logger).Error("Sync status lookup failed",
			zap.Int("orders", len(entries)),
			zap.Error(err),
		)
		for id, entry := range entries {
			entry.Err = err
			entries[id] = entry
		}
		return entries
	}

	synced := 0
	for id, entry := range entries {
		summary, ok := found[entry.ExternalID]
		if !ok {
			continue
		}
		entry.Synced = true
		entry.SalesOrderID = summary.ID
		entry.TranID = summary.TranID
		entry.Status = summary.Status
		entry.TranDate = summary.TranDate
		entries[id] = entry
		synced++
	}

	logger.Enrich(ctx, c.logger).Debug("Sync status checked",
		zap.Int("orders", len(entries)),
		zap.Int("synced", synced),
	)
	return entries
}

// Check looks up a single source order
func (c *SyncStatusChecker) Check(ctx context.Context, sourceOrderID string) integration.SyncStatusEntry {
	id := strings.TrimSpace(sourceOrderID)
	entry, ok := c.CheckBatch(ctx, []string{id})[id]
	if !ok {
		return integration.SyncStatusEntry{SourceOrderID: id}
	}
	return entry
}
