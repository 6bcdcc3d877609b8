package eventbus

import (
	"context"
	"fmt"

	"github.com/hlmartins/invoice-agent-be/internal/categorization"
	"github.com/hlmartins/invoice-agent-be/internal/domain"
	"github.com/hlmartins/invoice-agent-be/pkg/logger"
)

// CategorizationConsumer assigns a spending category to each extracted
// transaction in the background. Events are idempotent: a redelivered event
// for an already-categorized transaction is acknowledged without effect.
type CategorizationConsumer struct {
	repo        domain.Repository
	categorizer *categorization.Categorizer
	logger      *logger.Logger
	workerCount int
}

func NewCategorizationConsumer(repo domain.Repository, categorizer *categorization.Categorizer, log *logger.Logger, workerCount int) *CategorizationConsumer {
	if workerCount <= 0 {
		workerCount = 1
	}
	return &CategorizationConsumer{
		repo:        repo,
		categorizer: categorizer,
		logger:      log,
		workerCount: workerCount,
	}
}

func (c *CategorizationConsumer) GetWorkerCount() int {
	return c.workerCount
}

func (c *CategorizationConsumer) Consume(ctx context.Context, event Event) error {
	payload, ok := event.Payload.(CategorizationEvent)
	if !ok {
		return fmt.Errorf("unexpected payload type %T for event %s", event.Payload, event.ID)
	}

	processed, err := c.repo.IsEventProcessed(ctx, event.ID)
	if err != nil {
		return fmt.Errorf("check event %s: %w", event.ID, err)
	}
	if processed {
		c.logger.Debug(ctx, "Event already processed, skipping",
			"event_id", event.ID,
			"invoice_id", payload.InvoiceID,
		)
		return nil
	}

	ctx = logger.WithInvoiceID(ctx, payload.InvoiceID)

	result := c.categorizer.Categorize(payload.Transaction)

	// Record the outcome even when no rule matched so the invoice can still
	// reach completed status.
	if err := c.repo.SetTransactionCategory(ctx, payload.InvoiceID, payload.Index, result.Category, result.Confidence, result.Method); err != nil {
		return fmt.Errorf("set category for invoice %s transaction %d: %w", payload.InvoiceID, payload.Index, err)
	}

	if err := c.repo.MarkEventProcessed(ctx, event.ID); err != nil {
		return fmt.Errorf("mark event %s processed: %w", event.ID, err)
	}

	c.logger.Debug(ctx, "Transaction categorized",
		"event_id", event.ID,
		"index", payload.Index,
		"category", result.Category,
		"method", result.Method,
	)

	return nil
}
