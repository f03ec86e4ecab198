// Package integration contains the order-to-ERP synchronization context.
//
// Key concepts:
//   - ExternalOrder: Normalized storefront order, read-only input
//   - CustomerRecord: ERP customer, person or company
//   - SalesOrderDraft: Sales order submission with resolved line items
//   - SyncStatusEntry: Whether a source order already has an ERP sales order
//
// Design Pattern: Ports & Adapters
//   - Ports (RecordGateway, QueryExecutor, record stores) are defined here
//   - Adapters for the ERP REST and query endpoints are in the infrastructure layer
package integration
