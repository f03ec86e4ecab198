package netsuite

import (
	"context"
	"fmt"
	"net/http"

	"github.com/erp/ordersync/internal/domain/integration"
	"github.com/erp/ordersync/internal/infrastructure/netsuite/suiteql"
	"go.uber.org/zap"
)

// LeadStore creates leads. A lead is a customer record in a lead entity
// status whose lead source is the campaign.
type LeadStore struct {
	gateway integration.RecordGateway
	query   integration.QueryExecutor
	logger  *zap.Logger
}

// NewLeadStore creates a lead store
func NewLeadStore(gateway integration.RecordGateway, query integration.QueryExecutor, logger *zap.Logger) *LeadStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LeadStore{gateway: gateway, query: query, logger: logger}
}

// Create creates the lead and returns its id
func (s *LeadStore) Create(ctx context.Context, lead *integration.Lead) (string, error) {
	isPerson := lead.IsPerson()
	res := &customerResource{
		IsPerson:     &isPerson,
		Email:        lead.Email,
		Phone:        lead.Phone,
		Subsidiary:   ref(lead.Subsidiary),
		EntityStatus: ref(lead.StatusID),
		LeadSource:   ref(lead.CampaignID),
		Comments:     lead.Comments,
	}
	if isPerson {
		res.FirstName = lead.FirstName
		res.LastName = lead.LastName
	} else {
		res.CompanyName = lead.CompanyName
	}

	result, err := s.gateway.Execute(ctx, http.MethodPost, customerRecord, res, nil)
	if err != nil {
		return "", err
	}
	if result.IDResolved {
		return result.ID, nil
	}
	if lead.Email == "" {
		return "", fmt.Errorf("%w: lead without email", integration.ErrCreatedIDUnresolved)
	}

	s.logger.Warn("Lead created without id, looking it up", zap.String("email", lead.Email))
	q, err := suiteql.Select("id").
		From(customerRecord).
		Where(leadConditions(lead)...).
		OrderByDesc("id").
		Build()
	if err != nil {
		return "", err
	}
	row, found, err := first(ctx, s.query, q)
	if err != nil {
		return "", fmt.Errorf("%w: lookup after create: %v", integration.ErrCreatedIDUnresolved, err)
	}
	if !found {
		return "", fmt.Errorf("%w: lead %q", integration.ErrCreatedIDUnresolved, lead.Email)
	}
	return row.String("id"), nil
}

// leadConditions narrows the lookup to leads in the submitted status with
// the submitted name, since an email can belong to several customers
func leadConditions(lead *integration.Lead) []suiteql.Condition {
	conds := []suiteql.Condition{suiteql.EqFold("email", lead.Email)}
	if lead.StatusID != "" {
		conds = append(conds, suiteql.Eq("entitystatus", lead.StatusID))
	}
	if lead.IsPerson() {
		return append(conds,
			suiteql.EqFold("firstname", lead.FirstName),
			suiteql.EqFold("lastname", lead.LastName),
		)
	}
	return append(conds, suiteql.EqFold("companyname", lead.CompanyName))
}

var _ integration.LeadStore = (*LeadStore)(nil)
