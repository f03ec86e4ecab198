package netsuite

import (
	"context"
	"fmt"
	"net/http"

	"github.com/erp/ordersync/internal/domain/integration"
	"github.com/erp/ordersync/internal/infrastructure/netsuite/suiteql"
	"go.uber.org/zap"
)

const customerRecord = "customer"

var customerColumns = []string{
	"id", "isperson", "firstname", "lastname", "companyname", "email", "phone", "parent", "subsidiary",
}

// CustomerStore reads and creates customer records
type CustomerStore struct {
	gateway integration.RecordGateway
	query   integration.QueryExecutor
	logger  *zap.Logger
}

// NewCustomerStore creates a customer store
func NewCustomerStore(gateway integration.RecordGateway, query integration.QueryExecutor, logger *zap.Logger) *CustomerStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CustomerStore{gateway: gateway, query: query, logger: logger}
}

// Get loads a customer by id. A missing record yields ErrCustomerNotFound.
func (s *CustomerStore) Get(ctx context.Context, id string) (*integration.CustomerRecord, error) {
	result, err := s.gateway.Execute(ctx, http.MethodGet, customerRecord+"/"+id, nil, nil)
	if err != nil {
		if IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", integration.ErrCustomerNotFound, id)
		}
		return nil, err
	}

	var res customerResource
	if err := result.Decode(&res); err != nil {
		return nil, err
	}
	if res.ID == "" {
		res.ID = id
	}
	return customerFromResource(&res), nil
}

// FindCompanyByEmail returns the first company whose email matches,
// ignoring case
func (s *CustomerStore) FindCompanyByEmail(ctx context.Context, email string) (*integration.CustomerRecord, bool, error) {
	if email == "" {
		return nil, false, nil
	}
	return s.findOne(ctx, suiteql.Eq("isperson", "F"), suiteql.EqFold("email", email))
}

// FindCompanyByContact returns the first company matching either the email
// or the phone. Blank values are not matched.
func (s *CustomerStore) FindCompanyByContact(ctx context.Context, email, phone string) (*integration.CustomerRecord, bool, error) {
	var either []suiteql.Condition
	if email != "" {
		either = append(either, suiteql.EqFold("email", email))
	}
	if phone != "" {
		either = append(either, suiteql.Eq("phone", phone))
	}
	if len(either) == 0 {
		return nil, false, nil
	}
	return s.findOne(ctx, suiteql.Eq("isperson", "F"), suiteql.Or(either...))
}

// FindPerson returns the first person with the given name under parentID.
// An empty parentID matches persons without a parent.
func (s *CustomerStore) FindPerson(ctx context.Context, firstName, lastName, parentID string) (*integration.CustomerRecord, bool, error) {
	return s.findOne(ctx,
		suiteql.Eq("isperson", "T"),
		suiteql.EqFold("firstname", firstName),
		suiteql.EqFold("lastname", lastName),
		parentCondition(parentID),
	)
}

// Create creates a customer and returns its id. When the ERP reports no id,
// exactly one lookup is made for the newest matching record: persons by name
// and parent (plus email when set), companies by email or name.
func (s *CustomerStore) Create(ctx context.Context, customer *integration.CustomerRecord) (string, error) {
	result, err := s.gateway.Execute(ctx, http.MethodPost, customerRecord, customerToResource(customer), nil)
	if err != nil {
		return "", err
	}
	if result.IDResolved {
		return result.ID, nil
	}

	s.logger.Warn("Customer created without id, looking it up",
		zap.String("name", customer.DisplayName()),
		zap.Int("status", result.StatusCode),
	)

	found, ok, err := s.findNewest(ctx, lookupConditions(customer)...)
	if err != nil {
		return "", fmt.Errorf("%w: lookup after create: %v", integration.ErrCreatedIDUnresolved, err)
	}
	if !ok {
		return "", fmt.Errorf("%w: customer %q", integration.ErrCreatedIDUnresolved, customer.DisplayName())
	}
	return found.ID, nil
}

// lookupConditions identifies a just-created record. Persons under one
// company share its email, so they are told apart by name and parent.
func lookupConditions(c *integration.CustomerRecord) []suiteql.Condition {
	conds := []suiteql.Condition{suiteql.Eq("isperson", boolFlag(c.IsPerson))}
	switch {
	case c.IsPerson:
		conds = append(conds,
			suiteql.EqFold("firstname", c.FirstName),
			suiteql.EqFold("lastname", c.LastName),
			parentCondition(c.ParentID),
		)
		if c.Email != "" {
			conds = append(conds, suiteql.EqFold("email", c.Email))
		}
	case c.Email != "":
		conds = append(conds, suiteql.EqFold("email", c.Email))
	default:
		conds = append(conds, suiteql.EqFold("companyname", c.CompanyName))
	}
	return conds
}

func (s *CustomerStore) findOne(ctx context.Context, conds ...suiteql.Condition) (*integration.CustomerRecord, bool, error) {
	return s.queryOne(ctx, suiteql.Select(customerColumns...).From(customerRecord).Where(conds...).OrderBy("id"))
}

func (s *CustomerStore) findNewest(ctx context.Context, conds ...suiteql.Condition) (*integration.CustomerRecord, bool, error) {
	return s.queryOne(ctx, suiteql.Select(customerColumns...).From(customerRecord).Where(conds...).OrderByDesc("id"))
}

func (s *CustomerStore) queryOne(ctx context.Context, query *suiteql.Query) (*integration.CustomerRecord, bool, error) {
	q, err := query.Build()
	if err != nil {
		return nil, false, err
	}
	row, ok, err := first(ctx, s.query, q)
	if err != nil || !ok {
		return nil, false, err
	}
	return customerFromRow(row), true, nil
}

func parentCondition(parentID string) suiteql.Condition {
	if parentID == "" {
		return suiteql.IsNull("parent")
	}
	return suiteql.Eq("parent", parentID)
}

func boolFlag(b bool) string {
	if b {
		return "T"
	}
	return "F"
}

func customerFromRow(row integration.Row) *integration.CustomerRecord {
	return &integration.CustomerRecord{
		ID:          row.String("id"),
		IsPerson:    row.Bool("isperson"),
		FirstName:   row.String("firstname"),
		LastName:    row.String("lastname"),
		CompanyName: row.String("companyname"),
		Email:       row.String("email"),
		Phone:       row.String("phone"),
		ParentID:    row.String("parent"),
		Subsidiary:  row.String("subsidiary"),
	}
}

func customerFromResource(res *customerResource) *integration.CustomerRecord {
	return &integration.CustomerRecord{
		ID:          res.ID,
		IsPerson:    res.IsPerson != nil && *res.IsPerson,
		FirstName:   res.FirstName,
		LastName:    res.LastName,
		CompanyName: res.CompanyName,
		Email:       res.Email,
		Phone:       res.Phone,
		ParentID:    refIDOf(res.Parent),
		Subsidiary:  refIDOf(res.Subsidiary),
	}
}

func customerToResource(c *integration.CustomerRecord) *customerResource {
	isPerson := c.IsPerson
	res := &customerResource{
		IsPerson:   &isPerson,
		Email:      c.Email,
		Phone:      c.Phone,
		Parent:     ref(c.ParentID),
		Subsidiary: ref(c.Subsidiary),
	}
	if c.IsPerson {
		res.FirstName = c.FirstName
		res.LastName = c.LastName
	} else {
		res.CompanyName = c.CompanyName
	}
	if len(c.Addresses) > 0 {
		res.AddressBook = toAddressBook(c.Addresses)
	}
	return res
}

func toAddressBook(entries []integration.AddressBookEntry) *addressBook {
	book := &addressBook{Items: make([]addressBookItem, 0, len(entries))}
	for _, e := range entries {
		book.Items = append(book.Items, addressBookItem{
			Label:           e.Label,
			DefaultBilling:  e.DefaultBilling,
			DefaultShipping: e.DefaultShipping,
			Address: addressBookAddress{
				Addressee: e.Addressee,
				Addr1:     e.Addr1,
				Addr2:     e.Addr2,
				City:      e.City,
				State:     e.State,
				Zip:       e.Zip,
				Country:   e.Country,
				AddrPhone: e.Phone,
			},
		})
	}
	return book
}

var _ integration.CustomerStore = (*CustomerStore)(nil)
