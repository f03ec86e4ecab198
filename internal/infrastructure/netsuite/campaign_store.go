package netsuite

import (
	"context"
	"fmt"
	"net/http"

	"github.com/erp/ordersync/internal/domain/integration"
	"github.com/erp/ordersync/internal/infrastructure/netsuite/suiteql"
	"go.uber.org/zap"
)

// CampaignStore finds and creates marketing campaigns
type CampaignStore struct {
	gateway integration.RecordGateway
	query   integration.QueryExecutor
	logger  *zap.Logger
}

// NewCampaignStore creates a campaign store
func NewCampaignStore(gateway integration.RecordGateway, query integration.QueryExecutor, logger *zap.Logger) *CampaignStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CampaignStore{gateway: gateway, query: query, logger: logger}
}

// FindByTitle returns the first campaign with the title, ignoring case
func (s *CampaignStore) FindByTitle(ctx context.Context, title string) (*integration.Campaign, bool, error) {
	q, err := suiteql.Select("id", "title", "category").
		From("campaign").
		Where(suiteql.EqFold("title", title)).
		OrderBy("id").
		Build()
	if err != nil {
		return nil, false, err
	}

	row, found, err := first(ctx, s.query, q)
	if err != nil || !found {
		return nil, false, err
	}
	return &integration.Campaign{
		ID:       row.String("id"),
		Title:    row.String("title"),
		Category: row.String("category"),
	}, true, nil
}

// Create creates a campaign. A create without a usable id is followed by one
// lookup by title.
func (s *CampaignStore) Create(ctx context.Context, campaign *integration.Campaign) (string, error) {
	res := &campaignResource{Title: campaign.Title, Category: ref(campaign.Category)}
	result, err := s.gateway.Execute(ctx, http.MethodPost, "campaign", res, nil)
	if err != nil {
		return "", err
	}
	if result.IDResolved {
		return result.ID, nil
	}

	s.logger.Warn("Campaign created without id, looking it up", zap.String("title", campaign.Title))
	found, ok, err := s.FindByTitle(ctx, campaign.Title)
	if err != nil {
		return "", fmt.Errorf("%w: lookup after create: %v", integration.ErrCreatedIDUnresolved, err)
	}
	if !ok {
		return "", fmt.Errorf("%w: campaign %q", integration.ErrCreatedIDUnresolved, campaign.Title)
	}
	return found.ID, nil
}

var _ integration.CampaignStore = (*CampaignStore)(nil)
