package domain

import "context"

type Repository interface {
	// Invoice records
	CreateInvoice(ctx context.Context, invoice *Invoice) error
	GetInvoice(ctx context.Context, invoiceID string) (*Invoice, error)
	UpdateInvoiceStatus(ctx context.Context, invoiceID string, status InvoiceStatus) error

	// Categorization results written back by the worker pool
	SetTransactionCategory(ctx context.Context, invoiceID string, index int, category string, confidence float64, method string) error

	// Idempotency tracking
	IsEventProcessed(ctx context.Context, eventID string) (bool, error)
	MarkEventProcessed(ctx context.Context, eventID string) error
}
