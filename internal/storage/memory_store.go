package storage

import (
	"context"
	"sync"
	"time"

	"github.com/hlmartins/invoice-agent-be/internal/domain"
)

type MemoryStore struct {
	invoices        map[string]*domain.Invoice
	processedEvents map[string]bool
	mu              sync.RWMutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		invoices:        make(map[string]*domain.Invoice),
		processedEvents: make(map[string]bool),
	}
}

func (s *MemoryStore) CreateInvoice(ctx context.Context, invoice *domain.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Store a copy so the caller's pointer never aliases the record the
	// categorization workers mutate.
	stored := cloneInvoice(invoice)
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}

	s.invoices[stored.ID] = stored

	return nil
}

func (s *MemoryStore) GetInvoice(ctx context.Context, invoiceID string) (*domain.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	invoice, exists := s.invoices[invoiceID]
	if !exists {
		return nil, domain.ErrInvoiceNotFound
	}

	// Readers serialize the invoice outside the lock, so hand out a copy.
	return cloneInvoice(invoice), nil
}

func cloneInvoice(invoice *domain.Invoice) *domain.Invoice {
	clone := *invoice

	clone.Transactions = make([]domain.CategorizedTransaction, len(invoice.Transactions))
	copy(clone.Transactions, invoice.Transactions)

	if invoice.Errors != nil {
		clone.Errors = make([]string, len(invoice.Errors))
		copy(clone.Errors, invoice.Errors)
	}

	if invoice.CompletedAt != nil {
		completedAt := *invoice.CompletedAt
		clone.CompletedAt = &completedAt
	}

	return &clone
}

func (s *MemoryStore) UpdateInvoiceStatus(ctx context.Context, invoiceID string, status domain.InvoiceStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	invoice, exists := s.invoices[invoiceID]
	if !exists {
		return domain.ErrInvoiceNotFound
	}

	invoice.Status = status
	if status == domain.InvoiceStatusCompleted || status == domain.InvoiceStatusFailed {
		now := time.Now()
		invoice.CompletedAt = &now
	}

	return nil
}

func (s *MemoryStore) SetTransactionCategory(ctx context.Context, invoiceID string, index int, category string, confidence float64, method string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	invoice, exists := s.invoices[invoiceID]
	if !exists {
		return domain.ErrInvoiceNotFound
	}

	if index < 0 || index >= len(invoice.Transactions) {
		return domain.ErrTransactionNotFound
	}

	tx := &invoice.Transactions[index]
	if category != "" {
		tx.Category = &category
	}
	tx.CategoryConfidence = confidence
	tx.CategorizationMethod = method

	invoice.CategorizedCount++
	if invoice.Status == domain.InvoiceStatusProcessing && invoice.CategorizedCount >= len(invoice.Transactions) {
		invoice.Status = domain.InvoiceStatusCompleted
		now := time.Now()
		invoice.CompletedAt = &now
	}

	return nil
}

func (s *MemoryStore) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.processedEvents[eventID], nil
}

func (s *MemoryStore) MarkEventProcessed(ctx context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.processedEvents[eventID] = true

	return nil
}
