package handler

import (
	"context"

	"github.com/erp/ordersync/internal/domain/integration"
	"github.com/stretchr/testify/mock"
)

// MockCustomerStore is a mock implementation of CustomerStore
type MockCustomerStore struct {
	mock.Mock
}

func (m *MockCustomerStore) Get(ctx context.Context, id string) (*integration.CustomerRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.CustomerRecord), args.Error(1)
}

func (m *MockCustomerStore) FindCompanyByEmail(ctx context.Context, email string) (*integration.CustomerRecord, bool, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*integration.CustomerRecord), args.Bool(1), args.Error(2)
}

func (m *MockCustomerStore) FindCompanyByContact(ctx context.Context, email, phone string) (*integration.CustomerRecord, bool, error) {
	args := m.Called(ctx, email, phone)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*integration.CustomerRecord), args.Bool(1), args.Error(2)
}

func (m *MockCustomerStore) FindPerson(ctx context.Context, firstName, lastName, parentID string) (*integration.CustomerRecord, bool, error) {
	args := m.Called(ctx, firstName, lastName, parentID)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*integration.CustomerRecord), args.Bool(1), args.Error(2)
}

func (m *MockCustomerStore) Create(ctx context.Context, customer *integration.CustomerRecord) (string, error) {
	args := m.Called(ctx, customer)
	return args.String(0), args.Error(1)
}

// MockItemStore is a mock implementation of ItemStore
type MockItemStore struct {
	mock.Mock
}

func (m *MockItemStore) Find(ctx context.Context, itemType integration.ItemType, itemID string, mode integration.MatchMode) (string, bool, error) {
	args := m.Called(ctx, itemType, itemID, mode)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockItemStore) Create(ctx context.Context, item *integration.ItemRecord) (string, error) {
	args := m.Called(ctx, item)
	return args.String(0), args.Error(1)
}

func (m *MockItemStore) IsUsable(ctx context.Context, itemType integration.ItemType, id string) (bool, error) {
	args := m.Called(ctx, itemType, id)
	return args.Bool(0), args.Error(1)
}

// MockSalesOrderStore is a mock implementation of SalesOrderStore
type MockSalesOrderStore struct {
	mock.Mock
}

func (m *MockSalesOrderStore) Create(ctx context.Context, draft *integration.SalesOrderDraft) (string, error) {
	args := m.Called(ctx, draft)
	return args.String(0), args.Error(1)
}

func (m *MockSalesOrderStore) Get(ctx context.Context, id string) (*integration.SalesOrderSummary, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.SalesOrderSummary), args.Error(1)
}

func (m *MockSalesOrderStore) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSalesOrderStore) FindByExternalIDs(ctx context.Context, externalIDs []string) (map[string]integration.SalesOrderSummary, error) {
	args := m.Called(ctx, externalIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]integration.SalesOrderSummary), args.Error(1)
}

// MockCampaignStore is a mock implementation of CampaignStore
type MockCampaignStore struct {
	mock.Mock
}

func (m *MockCampaignStore) FindByTitle(ctx context.Context, title string) (*integration.Campaign, bool, error) {
	args := m.Called(ctx, title)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*integration.Campaign), args.Bool(1), args.Error(2)
}

func (m *MockCampaignStore) Create(ctx context.Context, campaign *integration.Campaign) (string, error) {
	args := m.Called(ctx, campaign)
	return args.String(0), args.Error(1)
}

// MockLeadStore is a mock implementation of LeadStore
type MockLeadStore struct {
	mock.Mock
}

func (m *MockLeadStore) Create(ctx context.Context, lead *integration.Lead) (string, error) {
	args := m.Called(ctx, lead)
	return args.String(0), args.Error(1)
}
