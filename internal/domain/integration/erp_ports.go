package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Gateway and query results
// ---------------------------------------------------------------------------

// GatewayResult is the normalized outcome of a successful ERP record call.
// A response with a body exposes it in Body/Record; a no-content response
// exposes the id parsed from the Location header.
type GatewayResult struct {
	StatusCode int
	Body       []byte
	Record     map[string]any
	Location   string
	// ID is the record id from the body or the Location header
	ID string
	// IDResolved is false when a create returned no body and no usable Location
	IDResolved bool
}

// Decode unmarshals the response body into v
func (r *GatewayResult) Decode(v any) error {
	if len(r.Body) == 0 {
		return fmt.Errorf("%w: empty body", ErrInvalidERPResponse)
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidERPResponse, err)
	}
	return nil
}

// Row is one row of a structured query. Column names are lower case.
type Row map[string]any

// String returns the column as a string ("" when absent or null)
func (r Row) String(col string) string {
	v, ok := r[strings.ToLower(col)]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

// Bool returns the column as a boolean. The ERP reports booleans as "T"/"F".
func (r Row) Bool(col string) bool {
	v, ok := r[strings.ToLower(col)]
	if !ok || v == nil {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		switch strings.ToUpper(t) {
		case "T", "TRUE", "Y", "YES":
			return true
		}
	}
	return false
}

// QueryPage is one page of structured query results
type QueryPage struct {
	Rows         []Row
	HasMore      bool
	Offset       int
	Count        int
	TotalResults int
}

// ---------------------------------------------------------------------------
// Transport ports
// ---------------------------------------------------------------------------

// RecordGateway issues signed record calls against the ERP
type RecordGateway interface {
	Execute(ctx context.Context, method, endpoint string, body any, query url.Values) (*GatewayResult, error)
}

// QueryExecutor runs structured read queries against the ERP
type QueryExecutor interface {
	// Query returns one page starting at offset
	Query(ctx context.Context, q string, offset int) (*QueryPage, error)
	// QueryAll follows pagination until the ERP reports no more rows
	QueryAll(ctx context.Context, q string) ([]Row, error)
}

// ---------------------------------------------------------------------------
// Record store ports
// ---------------------------------------------------------------------------

// CustomerStore reads and creates ERP customers. Finders return found=false
// rather than an error when nothing matches.
type CustomerStore interface {
	Get(ctx context.Context, id string) (*CustomerRecord, error)
	FindCompanyByEmail(ctx context.Context, email string) (*CustomerRecord, bool, error)
	FindCompanyByContact(ctx context.Context, email, phone string) (*CustomerRecord, bool, error)
	FindPerson(ctx context.Context, firstName, lastName, parentID string) (*CustomerRecord, bool, error)
	Create(ctx context.Context, customer *CustomerRecord) (string, error)
}

// ItemStore looks up and creates ERP items
type ItemStore interface {
	Find(ctx context.Context, itemType ItemType, itemID string, mode MatchMode) (string, bool, error)
	Create(ctx context.Context, item *ItemRecord) (string, error)
	IsUsable(ctx context.Context, itemType ItemType, id string) (bool, error)
}

// SalesOrderStore creates and inspects ERP sales orders
type SalesOrderStore interface {
	// Create submits the draft. It returns ErrCreatedIDUnresolved (with an
	// empty id) when the ERP accepted the order but reported no usable id.
	Create(ctx context.Context, draft *SalesOrderDraft) (string, error)
	Get(ctx context.Context, id string) (*SalesOrderSummary, error)
	Delete(ctx context.Context, id string) error
	FindByExternalIDs(ctx context.Context, externalIDs []string) (map[string]SalesOrderSummary, error)
}

// CampaignStore finds and creates marketing campaigns
type CampaignStore interface {
	FindByTitle(ctx context.Context, title string) (*Campaign, bool, error)
	Create(ctx context.Context, campaign *Campaign) (string, error)
}

// LeadStore creates leads
type LeadStore interface {
	Create(ctx context.Context, lead *Lead) (string, error)
}
