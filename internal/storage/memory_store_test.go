package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/hlmartins/invoice-agent-be/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInvoice(id string, txCount int) *domain.Invoice {
	transactions := make([]domain.CategorizedTransaction, txCount)
	for i := range transactions {
		transactions[i] = domain.CategorizedTransaction{
			Transaction: domain.Transaction{Description: fmt.Sprintf("TX %d", i)},
		}
	}
	return &domain.Invoice{
		ID:           id,
		Filename:     "fatura.pdf",
		Institution:  "NUBANK",
		Provider:     "openai",
		Status:       domain.InvoiceStatusProcessing,
		Transactions: transactions,
	}
}

func TestMemoryStore_CreateAndGetInvoice(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	err := store.CreateInvoice(ctx, newInvoice("inv-1", 2))
	require.NoError(t, err)

	invoice, err := store.GetInvoice(ctx, "inv-1")
	require.NoError(t, err)
	assert.Equal(t, "inv-1", invoice.ID)
	assert.Equal(t, domain.InvoiceStatusProcessing, invoice.Status)
	assert.False(t, invoice.CreatedAt.IsZero())
	assert.Len(t, invoice.Transactions, 2)
}

func TestMemoryStore_GetInvoice_NotFound(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.GetInvoice(ctx, "nonexistent")
	assert.ErrorIs(t, err, domain.ErrInvoiceNotFound)
}

func TestMemoryStore_UpdateInvoiceStatus(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.CreateInvoice(ctx, newInvoice("inv-1", 1)))

	err := store.UpdateInvoiceStatus(ctx, "inv-1", domain.InvoiceStatusFailed)
	require.NoError(t, err)

	invoice, err := store.GetInvoice(ctx, "inv-1")
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusFailed, invoice.Status)
	assert.NotNil(t, invoice.CompletedAt)
}

func TestMemoryStore_SetTransactionCategory(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.CreateInvoice(ctx, newInvoice("inv-1", 2)))

	err := store.SetTransactionCategory(ctx, "inv-1", 0, "Transporte", 0.6, "rule_based")
	require.NoError(t, err)

	invoice, err := store.GetInvoice(ctx, "inv-1")
	require.NoError(t, err)
	require.NotNil(t, invoice.Transactions[0].Category)
	assert.Equal(t, "Transporte", *invoice.Transactions[0].Category)
	assert.Equal(t, 0.6, invoice.Transactions[0].CategoryConfidence)
	assert.Equal(t, "rule_based", invoice.Transactions[0].CategorizationMethod)
	assert.Equal(t, 1, invoice.CategorizedCount)
	assert.Equal(t, domain.InvoiceStatusProcessing, invoice.Status)
}

func TestMemoryStore_SetTransactionCategory_EmptyCategory(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.CreateInvoice(ctx, newInvoice("inv-1", 1)))

	err := store.SetTransactionCategory(ctx, "inv-1", 0, "", 0, "no_suitable_category")
	require.NoError(t, err)

	invoice, err := store.GetInvoice(ctx, "inv-1")
	require.NoError(t, err)
	assert.Nil(t, invoice.Transactions[0].Category)
	assert.Equal(t, "no_suitable_category", invoice.Transactions[0].CategorizationMethod)
	assert.Equal(t, 1, invoice.CategorizedCount)
}

func TestMemoryStore_CompletionAfterAllCategorized(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.CreateInvoice(ctx, newInvoice("inv-1", 2)))

	require.NoError(t, store.SetTransactionCategory(ctx, "inv-1", 0, "Transporte", 0.6, "rule_based"))
	require.NoError(t, store.SetTransactionCategory(ctx, "inv-1", 1, "", 0, "no_suitable_category"))

	invoice, err := store.GetInvoice(ctx, "inv-1")
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusCompleted, invoice.Status)
	assert.NotNil(t, invoice.CompletedAt)
	assert.Equal(t, 2, invoice.CategorizedCount)
}

func TestMemoryStore_SetTransactionCategory_IndexOutOfRange(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.CreateInvoice(ctx, newInvoice("inv-1", 1)))

	err := store.SetTransactionCategory(ctx, "inv-1", 5, "Transporte", 0.6, "rule_based")
	assert.ErrorIs(t, err, domain.ErrTransactionNotFound)
}

func TestMemoryStore_EventIdempotency(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	processed, err := store.IsEventProcessed(ctx, "event-1")
	require.NoError(t, err)
	assert.False(t, processed)

	require.NoError(t, store.MarkEventProcessed(ctx, "event-1"))

	processed, err = store.IsEventProcessed(ctx, "event-1")
	require.NoError(t, err)
	assert.True(t, processed)
}

func TestMemoryStore_GetInvoiceReturnsCopy(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	source := newInvoice("inv-1", 1)
	require.NoError(t, store.CreateInvoice(ctx, source))

	// Mutating the caller's pointer after creation must not reach the record.
	source.Status = domain.InvoiceStatusFailed
	source.Transactions[0].Description = "MUTATED"

	invoice, err := store.GetInvoice(ctx, "inv-1")
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusProcessing, invoice.Status)
	assert.Equal(t, "TX 0", invoice.Transactions[0].Description)

	// Mutating a retrieved invoice must not reach the record either.
	invoice.Transactions[0].Description = "MUTATED"
	invoice.Errors = append(invoice.Errors, "injected")

	fresh, err := store.GetInvoice(ctx, "inv-1")
	require.NoError(t, err)
	assert.Equal(t, "TX 0", fresh.Transactions[0].Description)
	assert.Empty(t, fresh.Errors)
}

func TestMemoryStore_ReadWhileCategorizing(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	const txCount = 100
	require.NoError(t, store.CreateInvoice(ctx, newInvoice("inv-1", txCount)))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < txCount; i++ {
			_ = store.SetTransactionCategory(ctx, "inv-1", i, "Shopping", 0.6, "rule_based")
		}
	}()

	// Serializing retrieved invoices while workers write must be safe; the
	// race detector verifies the reads never touch the live record.
	for {
		invoice, err := store.GetInvoice(ctx, "inv-1")
		require.NoError(t, err)
		_, err = json.Marshal(invoice)
		require.NoError(t, err)

		select {
		case <-done:
			final, err := store.GetInvoice(ctx, "inv-1")
			require.NoError(t, err)
			assert.Equal(t, txCount, final.CategorizedCount)
			assert.Equal(t, domain.InvoiceStatusCompleted, final.Status)
			return
		default:
		}
	}
}

func TestMemoryStore_ConcurrentCategorization(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	const txCount = 50
	require.NoError(t, store.CreateInvoice(ctx, newInvoice("inv-1", txCount)))

	var wg sync.WaitGroup
	for i := 0; i < txCount; i++ {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			_ = store.SetTransactionCategory(ctx, "inv-1", index, "Shopping", 0.6, "rule_based")
		}(i)
	}
	wg.Wait()

	invoice, err := store.GetInvoice(ctx, "inv-1")
	require.NoError(t, err)
	assert.Equal(t, txCount, invoice.CategorizedCount)
	assert.Equal(t, domain.InvoiceStatusCompleted, invoice.Status)
}
