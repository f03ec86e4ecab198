package integration

import (
	"context"

	"github.com/erp/ordersync/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// orderLogger returns base with the correlation ids of ctx and the order id
func orderLogger(ctx context.Context, base *zap.Logger, orderID string) *zap.Logger {
	if logger.OrderID(ctx) == "" {
		ctx = logger.WithOrderID(ctx, orderID)
	}
	return logger.Enrich(ctx, base)
}
