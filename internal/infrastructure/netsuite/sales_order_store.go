package netsuite

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/erp/ordersync/internal/domain/integration"
	"github.com/erp/ordersync/internal/infrastructure/netsuite/suiteql"
	"go.uber.org/zap"
)

const (
	salesOrderRecord = "salesOrder"
	// externalIDChunk bounds the IN list of one status query
	externalIDChunk = 500
)

// SalesOrderStore creates, reads and deletes sales orders
type SalesOrderStore struct {
	gateway integration.RecordGateway
	query   integration.QueryExecutor
	logger  *zap.Logger
}

// NewSalesOrderStore creates a sales order store
func NewSalesOrderStore(gateway integration.RecordGateway, query integration.QueryExecutor, logger *zap.Logger) *SalesOrderStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SalesOrderStore{gateway: gateway, query: query, logger: logger}
}

// Create submits the draft once. ErrCreatedIDUnresolved means the ERP
// accepted the order but reported no usable id.
func (s *SalesOrderStore) Create(ctx context.Context, draft *integration.SalesOrderDraft) (string, error) {
	result, err := s.gateway.Execute(ctx, http.MethodPost, salesOrderRecord, salesOrderToResource(draft), nil)
	if err != nil {
		return "", err
	}
	if !result.IDResolved {
		return "", fmt.Errorf("%w: sales order %s", integration.ErrCreatedIDUnresolved, draft.ExternalID)
	}
	return result.ID, nil
}

// Get loads a sales order summary by id
func (s *SalesOrderStore) Get(ctx context.Context, id string) (*integration.SalesOrderSummary, error) {
	result, err := s.gateway.Execute(ctx, http.MethodGet, salesOrderRecord+"/"+id, nil, nil)
	if err != nil {
		if IsNotFound(err) {
			return nil, fmt.Errorf("%w: id %s", integration.ErrSalesOrderMissing, id)
		}
		return nil, err
	}

	var res salesOrderResource
	if err := result.Decode(&res); err != nil {
		return nil, err
	}
	summary := &integration.SalesOrderSummary{
		ID:         res.ID,
		TranID:     res.TranID,
		ExternalID: res.ExternalID,
		TranDate:   res.TranDate,
	}
	if summary.ID == "" {
		summary.ID = id
	}
	if res.Status != nil {
		summary.Status = res.Status.RefName
		if summary.Status == "" {
			summary.Status = res.Status.ID
		}
	}
	return summary, nil
}

// Delete removes a sales order
func (s *SalesOrderStore) Delete(ctx context.Context, id string) error {
	_, err := s.gateway.Execute(ctx, http.MethodDelete, salesOrderRecord+"/"+id, nil, nil)
	if err != nil {
		if IsNotFound(err) {
			return fmt.Errorf("%w: id %s", integration.ErrSalesOrderMissing, id)
		}
		return err
	}
	return nil
}

// FindByExternalIDs returns the sales orders carrying any of the external
// ids, keyed by external id. Ids are queried in chunks; each chunk is one
// paged query.
func (s *SalesOrderStore) FindByExternalIDs(ctx context.Context, externalIDs []string) (map[string]integration.SalesOrderSummary, error) {
	out := make(map[string]integration.SalesOrderSummary, len(externalIDs))
	for start := 0; start < len(externalIDs); start += externalIDChunk {
		end := start + externalIDChunk
		if end > len(externalIDs) {
			end = len(externalIDs)
		}

		q, err := suiteql.Select("id", "tranid", "externalid", "trandate").
			Display("status", "statusname").
			From("transaction").
			Where(suiteql.Eq("type", "SalesOrd"), suiteql.In("externalid", externalIDs[start:end]...)).
			OrderBy("id").
			Build()
		if err != nil {
			return nil, err
		}

		rows, err := s.query.QueryAll(ctx, q)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			extID := row.String("externalid")
			if _, seen := out[extID]; seen {
				s.logger.Warn("Multiple sales orders share an external id", zap.String("external_id", extID))
				continue
			}
			out[extID] = integration.SalesOrderSummary{
				ID:         row.String("id"),
				TranID:     row.String("tranid"),
				ExternalID: extID,
				Status:     row.String("statusname"),
				TranDate:   row.String("trandate"),
			}
		}
	}
	return out, nil
}

func salesOrderToResource(d *integration.SalesOrderDraft) *salesOrderResource {
	isTaxable := d.IsTaxable
	res := &salesOrderResource{
		ExternalID:  d.ExternalID,
		Entity:      ref(d.EntityID),
		Subsidiary:  ref(d.SubsidiaryID),
		Department:  ref(d.DepartmentID),
		Location:    ref(d.LocationID),
		IsTaxable:   &isTaxable,
		Memo:        d.Memo,
		OtherRefNum: d.OtherRefNum,
		ShipAddress: strings.TrimSpace(d.ShipAddress),
		Item:        &salesOrderItem{Items: make([]salesOrderLine, 0, len(d.Items))},
	}
	if !d.TranDate.IsZero() {
		res.TranDate = d.TranDate.Format("2006-01-02")
	}
	for _, l := range d.Items {
		res.Item.Items = append(res.Item.Items, salesOrderLine{
			Item:        refID{ID: l.ItemID},
			Quantity:    number(l.Quantity),
			Rate:        number(l.Rate),
			IsTaxable:   l.IsTaxable,
			Description: l.Description,
		})
	}
	return res
}

var _ integration.SalesOrderStore = (*SalesOrderStore)(nil)
