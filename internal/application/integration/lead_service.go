package integration

import (
	"context"
	"fmt"
	"strings"

	"github.com/erp/ordersync/internal/domain/integration"
	"github.com/erp/ordersync/internal/infrastructure/logger"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// LeadService records campaign leads in the ERP
type LeadService struct {
	campaigns integration.CampaignStore
	leads     integration.LeadStore
	validate  *validator.Validate
	settings  Settings
	logger    *zap.Logger
}

// NewLeadService creates a new LeadService
func NewLeadService(campaigns integration.CampaignStore, leads integration.LeadStore, settings Settings, logger *zap.Logger) *LeadService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LeadService{
		campaigns: campaigns,
		leads:     leads,
		validate:  validator.New(),
		settings:  settings.withDefaults(),
		logger:    logger,
	}
}

// RecordLead creates a lead, attached to the named campaign. A missing
// campaign is created first.
func (s *LeadService) RecordLead(ctx context.Context, req LeadRequest) (*LeadResponse, error) {
	req = trimLeadRequest(req)
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrInvalidLead, err)
	}

	resp := &LeadResponse{}
	if req.CampaignTitle != "" {
		campaignID, created, err := s.campaign(ctx, req.CampaignTitle)
		if err != nil {
			return nil, err
		}
		resp.CampaignID = campaignID
		resp.CampaignCreated = created
	}

	leadID, err := s.leads.Create(ctx, &integration.Lead{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		CompanyName: req.CompanyName,
		Email:       req.Email,
		Phone:       req.Phone,
		CampaignID:  resp.CampaignID,
		StatusID:    s.settings.LeadStatusID,
		Subsidiary:  s.settings.SubsidiaryID,
		Comments:    req.Comments,
	})
	if err != nil {
		return nil, fmt.Errorf("create lead: %w", err)
	}
	resp.LeadID = leadID

	logger.Enrich(ctx, s.logger).Info("Lead recorded",
		zap.String("lead_id", leadID),
		zap.String("campaign_id", resp.CampaignID),
		zap.Bool("campaign_created", resp.CampaignCreated),
	)
	return resp, nil
}

// campaign finds the campaign by title or creates it
func (s *LeadService) campaign(ctx context.Context, title string) (string, bool, error) {
	existing, found, err := s.campaigns.FindByTitle(ctx, title)
	if err != nil {
		return "", false, fmt.Errorf("find campaign %q: %w", title, err)
	}
	if found {
		return existing.ID, false, nil
	}

	id, err := s.campaigns.Create(ctx, &integration.Campaign{
		Title:    title,
		Category: s.settings.CampaignCategoryID,
	})
	if err != nil {
		return "", false, fmt.Errorf("create campaign %q: %w", title, err)
	}
	logger.Enrich(ctx, s.logger).Info("Campaign created", zap.String("campaign_id", id), zap.String("title", title))
	return id, true, nil
}

func trimLeadRequest(req LeadRequest) LeadRequest {
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.CompanyName = strings.TrimSpace(req.CompanyName)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	req.CampaignTitle = strings.TrimSpace(req.CampaignTitle)
	req.Comments = strings.TrimSpace(req.Comments)
	return req
}
