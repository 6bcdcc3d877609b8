package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hlmartins/invoice-agent-be/internal/categorization"
	"github.com/hlmartins/invoice-agent-be/internal/config"
	"github.com/hlmartins/invoice-agent-be/internal/domain"
	"github.com/hlmartins/invoice-agent-be/internal/eventbus"
	"github.com/hlmartins/invoice-agent-be/internal/handler"
	"github.com/hlmartins/invoice-agent-be/internal/provider"
	"github.com/hlmartins/invoice-agent-be/internal/server"
	"github.com/hlmartins/invoice-agent-be/internal/service"
	"github.com/hlmartins/invoice-agent-be/internal/storage"
	"github.com/hlmartins/invoice-agent-be/pkg/logger"
)

type stubProvider struct {
	extraction *provider.Extraction
}

func (s *stubProvider) ExtractTransactions(ctx context.Context, input provider.Input) (*provider.Extraction, error) {
	return s.extraction, nil
}

func (s *stubProvider) Name() string {
	return "stub"
}

type stubPDFProcessor struct{}

func (s *stubPDFProcessor) Validate(pdfBytes []byte) bool {
	return bytes.HasPrefix(pdfBytes, []byte("%PDF-"))
}

func (s *stubPDFProcessor) ExtractText(ctx context.Context, pdfBytes []byte, filename string) (string, string, error) {
	return "NUBANK fatura", "NUBANK", nil
}

func mustDate(t *testing.T, value string) domain.Date {
	t.Helper()
	d, err := domain.ParseDate(value)
	require.NoError(t, err)
	return d
}

func stubExtraction(t *testing.T) *provider.Extraction {
	t.Helper()
	dueDate := mustDate(t, "2025-02-10")
	total := decimal.RequireFromString("55.50")
	return &provider.Extraction{
		Transactions: []domain.Transaction{
			{
				Date:                mustDate(t, "2025-01-15"),
				Description:         "UBER TRIP 001",
				Amount:              decimal.RequireFromString("25.50"),
				Type:                domain.TransactionTypeDebit,
				Installments:        1,
				CurrentInstallment:  1,
				TotalPurchaseAmount: decimal.RequireFromString("25.50"),
				DueDate:             dueDate,
			},
			{
				Date:                mustDate(t, "2025-01-16"),
				Description:         "NETFLIX.COM",
				Amount:              decimal.RequireFromString("30.00"),
				Type:                domain.TransactionTypeDebit,
				Installments:        1,
				CurrentInstallment:  1,
				TotalPurchaseAmount: decimal.RequireFromString("30.00"),
				DueDate:             dueDate,
			},
		},
		InvoiceTotal: &total,
		DueDate:      dueDate,
	}
}

func setupTestServer(t *testing.T, extraction *provider.Extraction) (*httptest.Server, eventbus.EventBus) {
	log := logger.NewNop()
	repo := storage.NewMemoryStore()

	eventBusCfg := &eventbus.Config{
		ChannelBuffer: 100,
		MaxRetries:    3,
	}
	bus := eventbus.New(log, eventBusCfg)

	consumer := eventbus.NewCategorizationConsumer(repo, categorization.NewCategorizer(), log, 5)
	err := bus.Subscribe(eventbus.EventTypeCategorization, consumer)
	require.NoError(t, err)

	err = bus.Start(context.Background())
	require.NoError(t, err)

	invoiceService := service.NewInvoiceService(repo, &stubProvider{extraction: extraction}, &stubPDFProcessor{}, bus, log)

	cfg := &config.Config{
		Server: config.ServerConfig{
			Port: "8080",
			Host: "0.0.0.0",
		},
		Provider:    config.ProviderConfig{Name: "stub"},
		Upload:      config.UploadConfig{MaxFileSize: 10 << 20},
		Environment: "test",
		APIVersion:  "0.1.0",
	}

	invoiceHandler := handler.NewInvoiceHandler(invoiceService, log, cfg.Upload.MaxFileSize)
	healthHandler := handler.NewHealthHandler(cfg)

	srv := server.New(cfg, log, invoiceHandler, healthHandler)

	return httptest.NewServer(srv.Handler()), bus
}

func uploadPDF(t *testing.T, url, filename string, content []byte) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req, err := http.NewRequest(http.MethodPost, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestInvoiceProcessingFlow(t *testing.T) {
	srv, bus := setupTestServer(t, stubExtraction(t))
	defer srv.Close()
	defer bus.Shutdown(context.Background())

	resp := uploadPDF(t, srv.URL+"/v1/process-invoice", "fatura.pdf", []byte("%PDF-1.7 fake invoice"))
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result domain.InvoiceResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))

	assert.NotEmpty(t, result.InvoiceID)
	assert.Len(t, result.Transactions, 2)
	assert.Equal(t, 1.0, result.Metadata.ConfidenceScore)
	assert.Equal(t, "stub", result.Metadata.Provider)
	assert.Equal(t, "NUBANK", result.Metadata.Institution)
	assert.Empty(t, result.Errors)

	// Categorization runs in the background; poll until the invoice completes.
	invoice := waitForCompletion(t, srv.URL+"/v1/invoices/"+result.InvoiceID)

	require.Len(t, invoice.Transactions, 2)
	require.NotNil(t, invoice.Transactions[0].Category)
	assert.Equal(t, "Transporte", *invoice.Transactions[0].Category)
	require.NotNil(t, invoice.Transactions[1].Category)
	assert.Equal(t, "Streaming", *invoice.Transactions[1].Category)
	assert.NotNil(t, invoice.CompletedAt)
}

func waitForCompletion(t *testing.T, url string) *domain.Invoice {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		require.NoError(t, err)

		var invoice domain.Invoice
		err = json.NewDecoder(resp.Body).Decode(&invoice)
		resp.Body.Close()
		require.NoError(t, err)

		if invoice.Status == domain.InvoiceStatusCompleted {
			return &invoice
		}

		time.Sleep(100 * time.Millisecond)
	}

	t.Fatal("invoice did not complete in time")
	return nil
}

func TestInvoiceUpload_RejectsNonPDF(t *testing.T) {
	srv, bus := setupTestServer(t, stubExtraction(t))
	defer srv.Close()
	defer bus.Shutdown(context.Background())

	resp := uploadPDF(t, srv.URL+"/v1/process-invoice", "fatura.txt", []byte("plain text"))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestInvoiceUpload_RejectsInvalidPDFBytes(t *testing.T) {
	srv, bus := setupTestServer(t, stubExtraction(t))
	defer srv.Close()
	defer bus.Shutdown(context.Background())

	resp := uploadPDF(t, srv.URL+"/v1/process-invoice", "fatura.pdf", []byte("not a pdf at all"))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetInvoice_NotFound(t *testing.T) {
	srv, bus := setupTestServer(t, stubExtraction(t))
	defer srv.Close()
	defer bus.Shutdown(context.Background())

	resp, err := http.Get(srv.URL + "/v1/invoices/nonexistent")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealthEndpoints(t *testing.T) {
	srv, bus := setupTestServer(t, stubExtraction(t))
	defer srv.Close()
	defer bus.Shutdown(context.Background())

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ready, err := http.Get(srv.URL + "/health/ready")
	require.NoError(t, err)
	defer ready.Body.Close()
	assert.Equal(t, http.StatusOK, ready.StatusCode)

	var result map[string]interface{}
	require.NoError(t, json.NewDecoder(ready.Body).Decode(&result))
	assert.Equal(t, "ready", result["status"])
	assert.Equal(t, "stub", result["ai_provider"])

	// Process one invoice so the pipeline counters have samples to expose.
	upload := uploadPDF(t, srv.URL+"/v1/process-invoice", "fatura.pdf", []byte("%PDF-1.7 fake invoice"))
	upload.Body.Close()
	require.Equal(t, http.StatusOK, upload.StatusCode)

	body, err := io.ReadAll(io.LimitReader(mustGet(t, srv.URL+"/metrics").Body, 1<<20))
	require.NoError(t, err)
	assert.Contains(t, string(body), "invoices_processed_total")
}

func mustGet(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}
