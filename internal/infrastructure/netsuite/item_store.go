package netsuite

import (
	"context"
	"fmt"
	"net/http"

	"github.com/erp/ordersync/internal/domain/integration"
	"github.com/erp/ordersync/internal/infrastructure/netsuite/suiteql"
	"go.uber.org/zap"
)

// itemTypeCodes maps record types to the item table's itemtype column
var itemTypeCodes = map[integration.ItemType]string{
	integration.ItemTypeInventory:    "InvtPart",
	integration.ItemTypeNonInventory: "NonInvtPart",
	integration.ItemTypeService:      "Service",
	integration.ItemTypeAssembly:     "Assembly",
	integration.ItemTypeKit:          "Kit",
	integration.ItemTypeOtherCharge:  "OthCharge",
}

// ItemStore looks up and creates items. Lookups only consider active items.
type ItemStore struct {
	gateway integration.RecordGateway
	query   integration.QueryExecutor
	logger  *zap.Logger
}

// NewItemStore creates an item store
func NewItemStore(gateway integration.RecordGateway, query integration.QueryExecutor, logger *zap.Logger) *ItemStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ItemStore{gateway: gateway, query: query, logger: logger}
}

// Find returns the id of the first active item of itemType whose item id
// matches per mode
func (s *ItemStore) Find(ctx context.Context, itemType integration.ItemType, itemID string, mode integration.MatchMode) (string, bool, error) {
	code, ok := itemTypeCodes[itemType]
	if !ok {
		return "", false, fmt.Errorf("netsuite: unknown item type %q", itemType)
	}

	match := suiteql.Eq("itemid", itemID)
	if mode == integration.MatchContains {
		match = suiteql.Like("itemid", itemID)
	}

	q, err := suiteql.Select("id", "itemid").
		From("item").
		Where(suiteql.Eq("itemtype", code), suiteql.Eq("isinactive", "F"), match).
		OrderBy("id").
		Build()
	if err != nil {
		return "", false, err
	}

	row, found, err := first(ctx, s.query, q)
	if err != nil || !found {
		return "", false, err
	}
	return row.String("id"), true, nil
}

// IsUsable returns true when id refers to an active item. An empty itemType
// accepts any item type.
func (s *ItemStore) IsUsable(ctx context.Context, itemType integration.ItemType, id string) (bool, error) {
	if id == "" {
		return false, nil
	}
	conds := []suiteql.Condition{suiteql.Eq("id", id), suiteql.Eq("isinactive", "F")}
	if itemType != "" {
		code, ok := itemTypeCodes[itemType]
		if !ok {
			return false, fmt.Errorf("netsuite: unknown item type %q", itemType)
		}
		conds = append(conds, suiteql.Eq("itemtype", code))
	}

	q, err := suiteql.Select("id").From("item").Where(conds...).Build()
	if err != nil {
		return false, err
	}
	_, found, err := first(ctx, s.query, q)
	return found, err
}

// Create creates an item and returns its id. A create without a usable id
// is followed by one exact lookup.
func (s *ItemStore) Create(ctx context.Context, item *integration.ItemRecord) (string, error) {
	itemType := item.Type
	if itemType == "" {
		itemType = integration.ItemTypeDefaultCreation
	}

	res := &itemResource{
		ItemID:           item.ItemID,
		DisplayName:      item.DisplayName,
		SalesDescription: item.DisplayName,
	}
	if !item.BasePrice.IsZero() {
		res.BasePrice = number(item.BasePrice)
	}
	if item.Subsidiary != "" {
		res.Subsidiary = &subsidiaryRef{Items: []refID{{ID: item.Subsidiary}}}
	}

	result, err := s.gateway.Execute(ctx, http.MethodPost, string(itemType), res, nil)
	if err != nil {
		return "", err
	}
	if result.IDResolved {
		return result.ID, nil
	}

	s.logger.Warn("Item created without id, looking it up", zap.String("item_id", item.ItemID))
	id, found, err := s.Find(ctx, itemType, item.ItemID, integration.MatchExact)
	if err != nil {
		return "", fmt.Errorf("%w: lookup after create: %v", integration.ErrCreatedIDUnresolved, err)
	}
	if !found {
		return "", fmt.Errorf("%w: item %q", integration.ErrCreatedIDUnresolved, item.ItemID)
	}
	return id, nil
}

var _ integration.ItemStore = (*ItemStore)(nil)
