package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hlmartins/invoice-agent-be/internal/domain"
	"github.com/hlmartins/invoice-agent-be/internal/service"
	"github.com/hlmartins/invoice-agent-be/pkg/logger"
)

type InvoiceHandler struct {
	service     service.InvoiceService
	logger      *logger.Logger
	maxFileSize int64
}

func NewInvoiceHandler(service service.InvoiceService, log *logger.Logger, maxFileSize int64) *InvoiceHandler {
	return &InvoiceHandler{
		service:     service,
		logger:      log,
		maxFileSize: maxFileSize,
	}
}

func (h *InvoiceHandler) ProcessInvoice(c echo.Context) error {
	ctx := c.Request().Context()

	h.logger.Info(ctx, "Handling invoice upload")

	file, err := c.FormFile("file")
	if err != nil {
		h.logger.Error(ctx, "Failed to get file from request",
			"error", err,
		)
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "file is required",
		})
	}

	if !strings.HasSuffix(strings.ToLower(file.Filename), ".pdf") {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "only PDF files are supported",
		})
	}

	if file.Size > h.maxFileSize {
		h.logger.Warn(ctx, "Upload rejected",
			"filename", file.Filename,
			"size_bytes", file.Size,
			"error", domain.ErrFileTooLarge,
		)
		return c.JSON(http.StatusRequestEntityTooLarge, map[string]string{
			"error": "file exceeds maximum allowed size",
		})
	}

	src, err := file.Open()
	if err != nil {
		h.logger.Error(ctx, "Failed to open file",
			"error", err,
		)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to open file",
		})
	}
	defer src.Close()

	pdfBytes, err := io.ReadAll(io.LimitReader(src, h.maxFileSize+1))
	if err != nil {
		h.logger.Error(ctx, "Failed to read file",
			"error", err,
		)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to read file",
		})
	}
	if int64(len(pdfBytes)) > h.maxFileSize {
		return c.JSON(http.StatusRequestEntityTooLarge, map[string]string{
			"error": "file exceeds maximum allowed size",
		})
	}

	response, err := h.service.ProcessInvoice(ctx, pdfBytes, file.Filename)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidPDF):
			return c.JSON(http.StatusBadRequest, map[string]string{
				"error": "invalid PDF file",
			})
		case errors.Is(err, domain.ErrNoTextContent):
			return c.JSON(http.StatusBadRequest, map[string]string{
				"error": "no meaningful text could be extracted from PDF",
			})
		default:
			h.logger.Error(ctx, "Failed to process invoice",
				"error", err,
			)
			return c.JSON(http.StatusInternalServerError, map[string]string{
				"error": "failed to process invoice",
			})
		}
	}

	return c.JSON(http.StatusOK, response)
}

func (h *InvoiceHandler) GetInvoice(c echo.Context) error {
	ctx := c.Request().Context()

	invoiceID := c.Param("id")
	if invoiceID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invoice id is required",
		})
	}

	invoice, err := h.service.GetInvoice(ctx, invoiceID)
	if err != nil {
		if errors.Is(err, domain.ErrInvoiceNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{
				"error": "invoice not found",
			})
		}

		h.logger.Error(ctx, "Failed to get invoice",
			"invoice_id", invoiceID,
			"error", err,
		)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to get invoice",
		})
	}

	return c.JSON(http.StatusOK, invoice)
}

func (h *InvoiceHandler) Info(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"name":        "Invoice Agent API",
		"description": "AI powered credit card invoice processing",
		"endpoints": map[string]string{
			"process_invoice": "POST /v1/process-invoice",
			"get_invoice":     "GET /v1/invoices/:id",
			"health":          "GET /health",
			"ready":           "GET /health/ready",
			"metrics":         "GET /metrics",
		},
	})
}
