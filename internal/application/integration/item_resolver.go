package integration

import (
	"context"
	"fmt"
	"strings"

	"github.com/erp/ordersync/internal/domain/integration"
	"github.com/erp/ordersync/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// ItemResolver maps a storefront item id to an ERP item id
type ItemResolver struct {
	items    integration.ItemStore
	settings Settings
	logger   *zap.Logger
}

// NewItemResolver creates an item resolver
func NewItemResolver(items integration.ItemStore, settings Settings, logger *zap.Logger) *ItemResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ItemResolver{
		items:    items,
		settings: settings.withDefaults(),
		logger:   logger,
	}
}

// resolvedItem is the id and provenance of a resolved line
type resolvedItem struct {
	id   string
	kind integration.LineKind
}

// Resolve returns the ERP item id for the order item and how it was found.
// Transport errors abort resolution; ErrItemUnresolvable is returned when
// every step comes up empty.
func (r *ItemResolver) Resolve(ctx context.Context, item integration.OrderItem) (string, integration.LineKind, error) {
	itemID := strings.TrimSpace(item.ItemID)
	log := logger.Enrich(ctx, r.logger).With(zap.String("item_id", itemID))

	chain := fallbackChain[resolvedItem]{
		{"exact", r.search(itemID, integration.MatchExact, integration.LineKindExact)},
		{"contains", r.search(itemID, integration.MatchContains, integration.LineKindContains)},
		{"create", func(ctx context.Context) (resolvedItem, bool, error) {
			if !r.settings.AutoCreateItems {
				return resolvedItem{}, false, nil
			}
			id, err := r.items.Create(ctx, &integration.ItemRecord{
				Type:        integration.ItemTypeDefaultCreation,
				ItemID:      itemID,
				DisplayName: displayName(item),
				BasePrice:   item.Rate(),
				Subsidiary:  r.settings.SubsidiaryID,
			})
			if err != nil {
				return resolvedItem{}, false, err
			}
			return resolvedItem{id: id, kind: integration.LineKindCreated}, true, nil
		}},
		{"default", func(context.Context) (resolvedItem, bool, error) {
			if r.settings.DefaultItemID == "" {
				return resolvedItem{}, false, nil
			}
			return resolvedItem{id: r.settings.DefaultItemID, kind: integration.LineKindDefault}, true, nil
		}},
	}

	resolved, step, err := chain.run(ctx)
	if err != nil {
		return "", "", fmt.Errorf("resolve item %q (%s): %w", itemID, step, err)
	}

	switch step {
	case "":
		log.Warn("Item could not be resolved", zap.Strings("steps", chain.names()))
		return "", "", fmt.Errorf("%w: %q", integration.ErrItemUnresolvable, itemID)
	case "contains":
		log.Info("Item matched by partial identifier", zap.String("erp_item_id", resolved.id))
	case "create":
		log.Info("Item created in ERP", zap.String("erp_item_id", resolved.id))
	case "default":
		log.Warn("Item not found, using default item", zap.String("erp_item_id", resolved.id))
	default:
		log.Debug("Item resolved", zap.String("erp_item_id", resolved.id))
	}
	return resolved.id, resolved.kind, nil
}

// search tries every configured item type in preference order
func (r *ItemResolver) search(itemID string, mode integration.MatchMode, kind integration.LineKind) func(context.Context) (resolvedItem, bool, error) {
	return func(ctx context.Context) (resolvedItem, bool, error) {
		if itemID == "" {
			return resolvedItem{}, false, nil
		}
		for _, itemType := range r.settings.ItemTypes {
			id, found, err := r.items.Find(ctx, itemType, itemID, mode)
			if err != nil {
				return resolvedItem{}, false, err
			}
			if found {
				return resolvedItem{id: id, kind: kind}, true, nil
			}
		}
		return resolvedItem{}, false, nil
	}
}

func displayName(item integration.OrderItem) string {
	if d := strings.TrimSpace(item.Description); d != "" {
		return d
	}
	return strings.TrimSpace(item.ItemID)
}
