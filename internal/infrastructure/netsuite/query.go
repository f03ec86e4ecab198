package netsuite

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/erp/ordersync/internal/domain/integration"
	"go.uber.org/zap"
)

// ErrQueryTooLarge is returned when QueryAll reaches the page limit while
// the ERP still reports more rows
var ErrQueryTooLarge = errors.New("netsuite: query exceeded page limit")

// QueryExecutor runs structured queries through the gateway
type QueryExecutor struct {
	gateway  integration.RecordGateway
	pageSize int
	maxPages int
	logger   *zap.Logger
}

// NewQueryExecutor creates a query executor
func NewQueryExecutor(gateway integration.RecordGateway, config *Config, logger *zap.Logger) *QueryExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueryExecutor{
		gateway:  gateway,
		pageSize: config.pageSize(),
		maxPages: config.maxPages(),
		logger:   logger,
	}
}

// Query fetches one page of rows starting at offset. Column names are
// lower-cased and the per-row "links" entry is dropped.
func (e *QueryExecutor) Query(ctx context.Context, q string, offset int) (*integration.QueryPage, error) {
	query := url.Values{
		"limit":  {strconv.Itoa(e.pageSize)},
		"offset": {strconv.Itoa(offset)},
	}
	result, err := e.gateway.Execute(ctx, http.MethodPost, SuiteQLEndpoint, suiteQLRequest{Q: q}, query)
	if err != nil {
		return nil, err
	}

	var resp suiteQLResponse
	if err := result.Decode(&resp); err != nil {
		return nil, err
	}

	page := &integration.QueryPage{
		Rows:         make([]integration.Row, 0, len(resp.Items)),
		HasMore:      resp.HasMore,
		Offset:       resp.Offset,
		Count:        resp.Count,
		TotalResults: resp.TotalResults,
	}
	for _, item := range resp.Items {
		row := make(integration.Row, len(item))
		for k, v := range item {
			if k == "links" {
				continue
			}
			row[strings.ToLower(k)] = v
		}
		page.Rows = append(page.Rows, row)
	}
	return page, nil
}

// QueryAll follows pagination until the ERP reports no more rows
func (e *QueryExecutor) QueryAll(ctx context.Context, q string) ([]integration.Row, error) {
	var rows []integration.Row
	offset := 0
	for pageNum := 0; pageNum < e.maxPages; pageNum++ {
		page, err := e.Query(ctx, q, offset)
		if err != nil {
			return nil, err
		}
		rows = append(rows, page.Rows...)

		if !page.HasMore || len(page.Rows) == 0 {
			return rows, nil
		}
		offset += len(page.Rows)
	}

	e.logger.Warn("Query stopped at page limit",
		zap.Int("max_pages", e.maxPages),
		zap.Int("rows", len(rows)),
	)
	return nil, fmt.Errorf("%w: %d pages", ErrQueryTooLarge, e.maxPages)
}

// first runs q and returns its first row
func first(ctx context.Context, exec integration.QueryExecutor, q string) (integration.Row, bool, error) {
	page, err := exec.Query(ctx, q, 0)
	if err != nil {
		return nil, false, err
	}
	if len(page.Rows) == 0 {
		return nil, false, nil
	}
	return page.Rows[0], true, nil
}

var _ integration.QueryExecutor = (*QueryExecutor)(nil)
