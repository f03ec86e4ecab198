package integration

import "errors"

// ---------------------------------------------------------------------------
// ERP Errors
// ---------------------------------------------------------------------------

var (
	// Transport errors
	ErrERPUnavailable     = errors.New("integration: erp temporarily unavailable")
	ErrERPRequestFailed   = errors.New("integration: erp request failed")
	ErrInvalidERPResponse = errors.New("integration: invalid erp response")

	// Shape errors
	ErrCreatedIDUnresolved = errors.New("integration: created record id could not be resolved")

	// Business-rule errors
	ErrInvalidOrder      = errors.New("integration: invalid external order")
	ErrNoLineItems       = errors.New("integration: order has no valid line items")
	ErrItemUnresolvable  = errors.New("integration: item could not be resolved")
	ErrCustomerNotFound  = errors.New("integration: customer not found")
	ErrCustomerNotPerson = errors.New("integration: customer is not a person record")
	ErrTotalsMismatch    = errors.New("integration: item total does not match order subtotal")
	ErrSalesOrderMissing = errors.New("integration: sales order not found for source order")
	ErrInvalidLead       = errors.New("integration: invalid lead")
)
