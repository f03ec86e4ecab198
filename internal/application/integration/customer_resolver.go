package integration

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/erp/ordersync/internal/domain/integration"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Step names of the customer fallback chains
const (
	stepExistingCompany = "existing-company"
	stepCreateCompany   = "create-company"
	stepExistingPerson  = "existing-person"
	stepCreatePerson    = "create-person"
)

// CustomerResolver maps an order to the ERP person customer its sales order
// is attached to
type CustomerResolver struct {
	customers integration.CustomerStore
	validate  *validator.Validate
	settings  Settings
	logger    *zap.Logger
}

// NewCustomerResolver creates a customer resolver
func NewCustomerResolver(customers integration.CustomerStore, settings Settings, logger *zap.Logger) *CustomerResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CustomerResolver{
		customers: customers,
		validate:  validator.New(),
		settings:  settings.withDefaults(),
		logger:    logger,
	}
}

// Resolve returns the id of the person customer for the order, creating
// customer records when none match
func (r *CustomerResolver) Resolve(ctx context.Context, order *integration.ExternalOrder) (string, error) {
	log := orderLogger(ctx, r.logger, order.OrderID)

	email := r.OrderEmail(order)
	strategy := order.Strategy(r.settings.DropshipPaymentMethod)
	log.Debug("Resolving customer", zap.String("strategy", strategy.String()))

	var customer *integration.CustomerRecord
	var err error
	switch strategy {
	case integration.StrategyDropship:
		customer, err = r.resolveDropship(ctx, order, log)
	default:
		customer, err = r.resolveRegular(ctx, order, email, log)
	}
	if err != nil {
		return "", err
	}

	return r.EnsurePerson(ctx, order, customer), nil
}

// OrderEmail returns the validated email from the reserved checkout
// question, or "" when it is absent or invalid
func (r *CustomerResolver) OrderEmail(order *integration.ExternalOrder) string {
	email, ok := order.Answer(r.settings.EmailQuestionID)
	if !ok || email == "" {
		return ""
	}
	if len(email) > integration.MaxEmailLength || r.validate.Var(email, "email") != nil {
		r.logger.Warn("Discarding invalid order email",
			zap.String("order_id", order.OrderID),
			zap.String("email", email),
		)
		return ""
	}
	return email
}

// resolveDropship finds or creates an email-less person named after the
// ship-to contact, with the invoice label appended to the last name
func (r *CustomerResolver) resolveDropship(ctx context.Context, order *integration.ExternalOrder, log *zap.Logger) (*integration.CustomerRecord, error) {
	parent, err := r.findParent(ctx, order)
	if err != nil {
		return nil, err
	}

	shipment := order.PrimaryShipment()
	lastName, cut := dropshipLastName(shipment.LastName, order.InvoiceLabel())
	if cut {
		log.Warn("Truncating customer field",
			zap.String("field", "last_name"),
			zap.String("value", strings.TrimSpace(shipment.LastName)),
			zap.Int("max", integration.MaxNameLength),
		)
	}
	person := &integration.CustomerRecord{
		IsPerson:   true,
		FirstName:  strings.TrimSpace(shipment.FirstName),
		LastName:   lastName,
		Phone:      shipment.Phone,
		ParentID:   parent,
		Subsidiary: r.settings.SubsidiaryID,
		Addresses:  integration.BuildAddressBook(order),
	}
	r.sanitize(person, log)

	chain := fallbackChain[*integration.CustomerRecord]{
		{stepExistingPerson, func(ctx context.Context) (*integration.CustomerRecord, bool, error) {
			return r.customers.FindPerson(ctx, person.FirstName, person.LastName, person.ParentID)
		}},
		{stepCreatePerson, func(ctx context.Context) (*integration.CustomerRecord, bool, error) {
			return r.create(ctx, person)
		}},
	}
	customer, step, err := chain.run(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve dropship customer (%s): %w", step, err)
	}
	log.Info("Dropship customer resolved",
		zap.String("customer_id", customer.ID),
		zap.String("step", step),
		zap.String("parent_id", parent),
	)
	return customer, nil
}

// resolveRegular matches a company by the order email, or creates one
func (r *CustomerResolver) resolveRegular(ctx context.Context, order *integration.ExternalOrder, email string, log *zap.Logger) (*integration.CustomerRecord, error) {
	chain := fallbackChain[*integration.CustomerRecord]{
		{stepExistingCompany, func(ctx context.Context) (*integration.CustomerRecord, bool, error) {
			if email == "" {
				return nil, false, nil
			}
			return r.customers.FindCompanyByEmail(ctx, email)
		}},
		{stepCreateCompany, func(ctx context.Context) (*integration.CustomerRecord, bool, error) {
			parent, err := r.findParent(ctx, order)
			if err != nil {
				return nil, false, err
			}
			company := &integration.CustomerRecord{
				CompanyName: companyName(order),
				Email:       email,
				Phone:       order.Billing.Phone,
				ParentID:    parent,
				Subsidiary:  r.settings.SubsidiaryID,
				Addresses:   integration.BuildAddressBook(order),
			}
			r.sanitize(company, log)
			return r.create(ctx, company)
		}},
	}
	customer, step, err := chain.run(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve company customer (%s): %w", step, err)
	}
	log.Info("Company customer resolved",
		zap.String("customer_id", customer.ID),
		zap.String("step", step),
	)
	return customer, nil
}

// EnsurePerson returns a person customer id for customer. A company is
// replaced by a person under it, found by billing name or created from the
// ship-to name. Any failure falls back to the company id.
func (r *CustomerResolver) EnsurePerson(ctx context.Context, order *integration.ExternalOrder, customer *integration.CustomerRecord) string {
	if customer.IsPerson {
		return customer.ID
	}
	log := orderLogger(ctx, r.logger, order.OrderID).With(zap.String("company_id", customer.ID))

	billingFirst := truncate(strings.TrimSpace(order.Billing.FirstName), integration.MaxNameLength)
	billingLast := truncate(strings.TrimSpace(order.Billing.LastName), integration.MaxNameLength)
	shipment := order.PrimaryShipment()

	chain := fallbackChain[*integration.CustomerRecord]{
		{stepExistingPerson, func(ctx context.Context) (*integration.CustomerRecord, bool, error) {
			return r.customers.FindPerson(ctx, billingFirst, billingLast, customer.ID)
		}},
		{stepCreatePerson, func(ctx context.Context) (*integration.CustomerRecord, bool, error) {
			person := &integration.CustomerRecord{
				IsPerson:   true,
				FirstName:  strings.TrimSpace(shipment.FirstName),
				LastName:   strings.TrimSpace(shipment.LastName),
				Email:      customer.Email,
				Phone:      order.Billing.Phone,
				ParentID:   customer.ID,
				Subsidiary: r.settings.SubsidiaryID,
				Addresses:  integration.BuildAddressBook(order),
			}
			r.sanitize(person, log)
			return r.create(ctx, person)
		}},
	}

	person, step, err := chain.run(ctx)
	switch {
	case err != nil:
		log.Warn("Person enforcement failed, using company record",
			zap.String("step", step),
			zap.Error(err),
		)
		return customer.ID
	case person == nil:
		log.Warn("No person record resolved, using company record")
		return customer.ID
	}

	log.Info("Person customer resolved under company",
		zap.String("customer_id", person.ID),
		zap.String("step", step),
	)
	return person.ID
}

// findParent returns the first company matching the billing email or phone
func (r *CustomerResolver) findParent(ctx context.Context, order *integration.ExternalOrder) (string, error) {
	parent, found, err := r.customers.FindCompanyByContact(ctx,
		strings.TrimSpace(order.Billing.Email),
		strings.TrimSpace(order.Billing.Phone),
	)
	if err != nil {
		return "", fmt.Errorf("find parent company: %w", err)
	}
	if !found {
		return "", nil
	}
	return parent.ID, nil
}

func (r *CustomerResolver) create(ctx context.Context, customer *integration.CustomerRecord) (*integration.CustomerRecord, bool, error) {
	id, err := r.customers.Create(ctx, customer)
	if err != nil {
		return nil, false, err
	}
	created := *customer
	created.ID = id
	return &created, true, nil
}

// sanitize enforces the ERP field limits, truncating or blanking with a
// warning
func (r *CustomerResolver) sanitize(c *integration.CustomerRecord, log *zap.Logger) {
	limits := []struct {
		field string
		value *string
		max   int
	}{
		{"first_name", &c.FirstName, integration.MaxNameLength},
		{"last_name", &c.LastName, integration.MaxNameLength},
		{"company_name", &c.CompanyName, integration.MaxCompanyNameLength},
		{"phone", &c.Phone, integration.MaxPhoneLength},
	}
	for _, l := range limits {
		if utf8.RuneCountInString(*l.value) > l.max {
			log.Warn("Truncating customer field",
				zap.String("field", l.field),
				zap.String("value", *l.value),
				zap.Int("max", l.max),
			)
			*l.value = truncate(*l.value, l.max)
		}
	}

	if c.Email != "" && (len(c.Email) > integration.MaxEmailLength || r.validate.Var(c.Email, "email") != nil) {
		log.Warn("Blanking invalid customer email", zap.String("email", c.Email))
		c.Email = ""
	}
}

// dropshipLastName appends the invoice label, e.g. "Doe: INV-77". The label
// tells repeat ship-to contacts apart, so only the base name is shortened to
// fit MaxNameLength; cut reports whether it was.
func dropshipLastName(lastName, invoiceLabel string) (name string, cut bool) {
	lastName = strings.TrimSpace(lastName)
	if invoiceLabel == "" {
		return lastName, false
	}
	suffix := ": " + invoiceLabel
	room := integration.MaxNameLength - utf8.RuneCountInString(suffix)
	if room <= 0 {
		return truncate(invoiceLabel, integration.MaxNameLength), lastName != ""
	}
	if utf8.RuneCountInString(lastName) > room {
		return truncate(lastName, room) + suffix, true
	}
	return lastName + suffix, false
}

// companyName is the billing company, else the ship-to full name
func companyName(order *integration.ExternalOrder) string {
	if name := strings.TrimSpace(order.Billing.Company); name != "" {
		return name
	}
	return order.PrimaryShipment().FullName()
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:max]))
}
