package integration

import (
	"time"

	"github.com/erp/ordersync/internal/domain/integration"
	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Order sync DTOs
// ---------------------------------------------------------------------------

// OrderSyncStatus is the outcome of one order in a sync run
type OrderSyncStatus string

const (
	OrderSynced        OrderSyncStatus = "SYNCED"
	OrderFailed        OrderSyncStatus = "FAILED"
	OrderSkipped       OrderSyncStatus = "SKIPPED"
	OrderAlreadySynced OrderSyncStatus = "ALREADY_SYNCED"
)

// OrderSyncResult represents the outcome of syncing one order
type OrderSyncResult struct {
	SourceOrderID  string          `json:"source_order_id"`
	ExternalID     string          `json:"external_id"`
	Status         OrderSyncStatus `json:"status"`
	CustomerID     string          `json:"customer_id,omitempty"`
	SalesOrderID   string          `json:"sales_order_id,omitempty"`
	LineCount      int             `json:"line_count,omitempty"`
	ItemTotal      string          `json:"item_total,omitempty"`
	TargetSubtotal string          `json:"target_subtotal,omitempty"`
	Discrepancy    string          `json:"discrepancy,omitempty"`
	ErrorCode      string          `json:"error_code,omitempty"`
	ErrorMessage   string          `json:"error_message,omitempty"`
	Duration       time.Duration   `json:"duration_ns"`
}

// IsSuccess returns true if the order has an ERP sales order
func (r *OrderSyncResult) IsSuccess() bool {
	return r.Status == OrderSynced || r.Status == OrderAlreadySynced
}

// BatchSyncResult represents the outcome of a batch sync run
type BatchSyncResult struct {
	BatchID       uuid.UUID          `json:"batch_id"`
	StartedAt     time.Time          `json:"started_at"`
	CompletedAt   time.Time          `json:"completed_at"`
	TotalCount    int                `json:"total_count"`
	SyncedCount   int                `json:"synced_count"`
	FailedCount   int                `json:"failed_count"`
	SkippedCount  int                `json:"skipped_count"`
	AlreadySynced int                `json:"already_synced_count"`
	Results       []*OrderSyncResult `json:"results"`
}

// add appends a result and updates the counters
func (b *BatchSyncResult) add(r *OrderSyncResult) {
	b.Results = append(b.Results, r)
	switch r.Status {
	case OrderSynced:
		b.SyncedCount++
	case OrderFailed:
		b.FailedCount++
	case OrderSkipped:
		b.SkippedCount++
	case OrderAlreadySynced:
		b.AlreadySynced++
	}
}

// SyncStatusResponse represents the sync status of one source order
type SyncStatusResponse struct {
	SourceOrderID string `json:"source_order_id"`
	ExternalID    string `json:"external_id"`
	Synced        bool   `json:"synced"`
	Unknown       bool   `json:"unknown,omitempty"`
	SalesOrderID  string `json:"sales_order_id,omitempty"`
	TranID        string `json:"tran_id,omitempty"`
	Status        string `json:"status,omitempty"`
	TranDate      string `json:"tran_date,omitempty"`
	Error         string `json:"error,omitempty"`
}

// ToSyncStatusResponse converts a domain entry to a response DTO
func ToSyncStatusResponse(e integration.SyncStatusEntry) SyncStatusResponse {
	resp := SyncStatusResponse{
		SourceOrderID: e.SourceOrderID,
		ExternalID:    e.ExternalID,
		Synced:        e.Synced,
		Unknown:       e.Unknown(),
		SalesOrderID:  e.SalesOrderID,
		TranID:        e.TranID,
		Status:        e.Status,
		TranDate:      e.TranDate,
	}
	if e.Err != nil {
		resp.Error = e.Err.Error()
	}
	return resp
}

// RemoveSalesOrderResponse represents a deleted sales order
type RemoveSalesOrderResponse struct {
	SourceOrderID string `json:"source_order_id"`
	ExternalID    string `json:"external_id"`
	SalesOrderID  string `json:"sales_order_id"`
}

// ---------------------------------------------------------------------------
// Lead DTOs
// ---------------------------------------------------------------------------

// LeadRequest represents a request to record a lead
type LeadRequest struct {
	FirstName     string `json:"first_name" validate:"required_without=CompanyName,max=32"`
	LastName      string `json:"last_name" validate:"max=32"`
	CompanyName   string `json:"company_name" validate:"max=83"`
	Email         string `json:"email" validate:"required,email,max=254"`
	Phone         string `json:"phone" validate:"max=32"`
	CampaignTitle string `json:"campaign_title" validate:"max=100"`
	Comments      string `json:"comments" validate:"max=4000"`
}

// LeadResponse represents a recorded lead
type LeadResponse struct {
	LeadID          string `json:"lead_id"`
	CampaignID      string `json:"campaign_id,omitempty"`
	CampaignCreated bool   `json:"campaign_created"`
}
