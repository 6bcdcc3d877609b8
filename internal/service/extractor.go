package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hlmartins/invoice-agent-be/internal/domain"
	"github.com/hlmartins/invoice-agent-be/internal/eventbus"
	"github.com/hlmartins/invoice-agent-be/internal/metrics"
	"github.com/hlmartins/invoice-agent-be/internal/provider"
	"github.com/hlmartins/invoice-agent-be/internal/validation"
	"github.com/hlmartins/invoice-agent-be/pkg/logger"
	"github.com/hlmartins/invoice-agent-be/pkg/retry"
)

const providerMaxAttempts = 3

type InvoiceService interface {
	ProcessInvoice(ctx context.Context, pdfBytes []byte, filename string) (*domain.InvoiceResponse, error)
	GetInvoice(ctx context.Context, invoiceID string) (*domain.Invoice, error)
}

type invoiceService struct {
	repo      domain.Repository
	provider  provider.Provider
	processor PDFProcessorInterface
	bus       eventbus.EventBus
	logger    *logger.Logger
}

func NewInvoiceService(repo domain.Repository, p provider.Provider, processor PDFProcessorInterface, bus eventbus.EventBus, log *logger.Logger) InvoiceService {
	return &invoiceService{
		repo:      repo,
		provider:  p,
		processor: processor,
		bus:       bus,
		logger:    log,
	}
}

// ProcessInvoice runs the synchronous pipeline: validate the upload, extract
// text, ask the model for transactions and score the result. Unreadable
// uploads surface as errors; extraction and validation failures come back in
// the response body with a zero confidence score, since a bad model answer is
// a result, not a server fault. Categorization runs in the background after
// the response is built.
func (s *invoiceService) ProcessInvoice(ctx context.Context, pdfBytes []byte, filename string) (*domain.InvoiceResponse, error) {
	start := time.Now()

	invoiceID := uuid.New().String()
	ctx = logger.WithInvoiceID(ctx, invoiceID)

	s.logger.Info(ctx, "Processing invoice",
		"filename", filename,
		"size_bytes", len(pdfBytes),
	)

	if !s.processor.Validate(pdfBytes) {
		s.logger.Warn(ctx, "Upload rejected, not a valid PDF", "filename", filename)
		return nil, domain.ErrInvalidPDF
	}

	text, institution, err := s.processor.ExtractText(ctx, pdfBytes, filename)
	if err != nil {
		s.logger.Error(ctx, "Text extraction failed", "error", err)
		return s.failureResponse(ctx, invoiceID, filename, "GENERIC", start, err), nil
	}
	if strings.TrimSpace(text) == "" {
		s.logger.Warn(ctx, "PDF has no extractable text", "filename", filename)
		return nil, domain.ErrNoTextContent
	}

	var extraction *provider.Extraction
	err = retry.Do(ctx, func() error {
		var extractErr error
		extraction, extractErr = s.provider.ExtractTransactions(ctx, provider.Input{
			Text:        text,
			Institution: institution,
			PDF:         pdfBytes,
		})
		return extractErr
	}, retry.WithMaxAttempts(providerMaxAttempts))
	if err != nil {
		s.logger.Error(ctx, "Provider extraction failed after retries",
			"provider", s.provider.Name(),
			"error", err,
		)
		return s.failureResponse(ctx, invoiceID, filename, institution, start, err), nil
	}

	if len(extraction.Transactions) == 0 {
		s.logger.Warn(ctx, "Provider returned no transactions")
		return s.failureResponse(ctx, invoiceID, filename, institution, start, errors.New("Missing transaction data")), nil
	}

	referenceDate := extraction.DueDate
	if referenceDate.IsZero() {
		referenceDate = extraction.Transactions[0].DueDate
	}
	if referenceDate.IsZero() {
		s.logger.Warn(ctx, "No due date available for validation")
		return s.failureResponse(ctx, invoiceID, filename, institution, start, errors.New("Missing invoice due date")), nil
	}

	result := validation.NewTransactionValidator(extraction.Transactions, referenceDate).RunAll(extraction.InvoiceTotal)

	metadata := domain.ProcessingMetadata{
		ProcessingTimeMs:  time.Since(start).Milliseconds(),
		TotalTransactions: len(extraction.Transactions),
		ConfidenceScore:   result.Score,
		Provider:          s.provider.Name(),
		Institution:       institution,
	}

	s.storeInvoice(ctx, invoiceID, filename, institution, result.Score, result.Errors, extraction.Transactions)
	s.publishCategorizationEvents(ctx, invoiceID, extraction.Transactions)

	metrics.ObserveProcessing(s.provider.Name(), "success", time.Since(start), result.Score)

	s.logger.Info(ctx, "Invoice processed",
		"transactions", len(extraction.Transactions),
		"confidence_score", result.Score,
		"validation_errors", len(result.Errors),
	)

	return &domain.InvoiceResponse{
		InvoiceID:    invoiceID,
		Transactions: extraction.Transactions,
		Metadata:     metadata,
		Errors:       result.Errors,
	}, nil
}

func (s *invoiceService) GetInvoice(ctx context.Context, invoiceID string) (*domain.Invoice, error) {
	ctx = logger.WithInvoiceID(ctx, invoiceID)

	invoice, err := s.repo.GetInvoice(ctx, invoiceID)
	if err != nil {
		s.logger.Debug(ctx, "Invoice lookup failed", "error", err)
		return nil, err
	}

	return invoice, nil
}

// failureResponse records a failed run and builds the zero-score response the
// client still receives with HTTP 200.
func (s *invoiceService) failureResponse(ctx context.Context, invoiceID, filename, institution string, start time.Time, cause error) *domain.InvoiceResponse {
	errs := []string{cause.Error()}

	record := &domain.Invoice{
		ID:           invoiceID,
		Filename:     filename,
		Institution:  institution,
		Provider:     s.provider.Name(),
		Status:       domain.InvoiceStatusFailed,
		Errors:       errs,
		Transactions: []domain.CategorizedTransaction{},
	}
	if err := s.repo.CreateInvoice(ctx, record); err != nil {
		s.logger.Error(ctx, "Failed to store invoice record", "error", err)
	}
	if err := s.repo.UpdateInvoiceStatus(ctx, invoiceID, domain.InvoiceStatusFailed); err != nil {
		s.logger.Error(ctx, "Failed to mark invoice failed", "error", err)
	}

	metrics.ObserveProcessing(s.provider.Name(), "failed", time.Since(start), 0)

	return &domain.InvoiceResponse{
		InvoiceID:    invoiceID,
		Transactions: []domain.Transaction{},
		Metadata: domain.ProcessingMetadata{
			ProcessingTimeMs: time.Since(start).Milliseconds(),
			ConfidenceScore:  0,
			Provider:         s.provider.Name(),
			Institution:      institution,
		},
		Errors: errs,
	}
}

func (s *invoiceService) storeInvoice(ctx context.Context, invoiceID, filename, institution string, score float64, errs []string, transactions []domain.Transaction) {
	categorized := make([]domain.CategorizedTransaction, len(transactions))
	for i, tx := range transactions {
		categorized[i] = domain.CategorizedTransaction{Transaction: tx}
	}

	record := &domain.Invoice{
		ID:              invoiceID,
		Filename:        filename,
		Institution:     institution,
		Provider:        s.provider.Name(),
		Status:          domain.InvoiceStatusProcessing,
		ConfidenceScore: score,
		Errors:          errs,
		Transactions:    categorized,
	}
	if err := s.repo.CreateInvoice(ctx, record); err != nil {
		s.logger.Error(ctx, "Failed to store invoice record", "error", err)
	}
}

func (s *invoiceService) publishCategorizationEvents(ctx context.Context, invoiceID string, transactions []domain.Transaction) {
	for i, tx := range transactions {
		event := eventbus.Event{
			ID:        fmt.Sprintf("%s-%d", invoiceID, i),
			Type:      eventbus.EventTypeCategorization,
			Timestamp: time.Now(),
			Payload: eventbus.CategorizationEvent{
				InvoiceID:   invoiceID,
				Index:       i,
				Transaction: tx,
			},
		}

		if err := s.bus.Publish(ctx, event); err != nil {
			s.logger.Error(ctx, "Failed to publish categorization event",
				"event_id", event.ID,
				"error", err,
			)
		}
	}
}
