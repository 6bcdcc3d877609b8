package provider

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hlmartins/invoice-agent-be/internal/domain"
	"github.com/shopspring/decimal"
)

// payload mirrors the JSON object the models are instructed to return.
// Pointer fields distinguish absent or null values from zero values so that
// hallucinated nulls are rejected instead of silently becoming zeros.
type payload struct {
	Transactions []rawTransaction `json:"transactions"`
	InvoiceTotal *decimal.Decimal `json:"invoice_total"`
	DueDate      string           `json:"due_date"`
}

type rawTransaction struct {
	Date                *string          `json:"date"`
	Description         *string          `json:"description"`
	Amount              *decimal.Decimal `json:"amount"`
	Type                *string          `json:"type"`
	Installments        *int             `json:"installments"`
	CurrentInstallment  *int             `json:"current_installment"`
	TotalPurchaseAmount *decimal.Decimal `json:"total_purchase_amount"`
	DueDate             *string          `json:"due_date"`
}

// cleanJSONResponse strips markdown code fences the models sometimes wrap
// around their output despite instructions.
func cleanJSONResponse(raw string) string {
	content := strings.TrimSpace(raw)

	if strings.HasPrefix(content, "```json") {
		content = content[7:]
	} else if strings.HasPrefix(content, "```") {
		content = content[3:]
	}
	if strings.HasSuffix(content, "```") {
		content = content[:len(content)-3]
	}

	return strings.TrimSpace(content)
}

// parsePayload decodes a model response into a payload. When the cleaned
// content still is not valid JSON, it retries with the outermost JSON object
// before giving up.
func parsePayload(raw, providerName string) (*payload, error) {
	content := cleanJSONResponse(raw)

	var p payload
	if err := json.Unmarshal([]byte(content), &p); err == nil {
		return &p, nil
	}

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start != -1 && end > start {
		if err := json.Unmarshal([]byte(content[start:end+1]), &p); err == nil {
			return &p, nil
		}
	}

	snippet := content
	if len(snippet) > 200 {
		snippet = snippet[:200]
	}
	return nil, fmt.Errorf("%w from %s: %s", domain.ErrInvalidModelJSON, providerName, snippet)
}

// toExtraction converts a payload into domain transactions, rejecting records
// with null required fields and applying the documented defaults: a single
// installment, total purchase amount equal to the installment amount, and the
// invoice due date when a transaction carries none.
func (p *payload) toExtraction() (*Extraction, error) {
	ext := &Extraction{
		Transactions: make([]domain.Transaction, 0, len(p.Transactions)),
		InvoiceTotal: p.InvoiceTotal,
	}

	if p.DueDate != "" {
		dueDate, err := domain.ParseDate(p.DueDate)
		if err != nil {
			return nil, fmt.Errorf("invalid invoice due date %q: %w", p.DueDate, err)
		}
		ext.DueDate = dueDate
	}

	for i, raw := range p.Transactions {
		tx, err := raw.toTransaction(ext.DueDate)
		if err != nil {
			return nil, fmt.Errorf("invalid value in transaction %d: %w", i, err)
		}
		ext.Transactions = append(ext.Transactions, tx)
	}

	return ext, nil
}

func (r rawTransaction) toTransaction(invoiceDueDate domain.Date) (domain.Transaction, error) {
	if r.Date == nil {
		return domain.Transaction{}, fmt.Errorf("transaction date cannot be null")
	}
	if r.Description == nil {
		return domain.Transaction{}, fmt.Errorf("transaction description cannot be null")
	}
	if r.Amount == nil {
		return domain.Transaction{}, fmt.Errorf("transaction amount cannot be null")
	}
	if r.Type == nil {
		return domain.Transaction{}, fmt.Errorf("transaction type cannot be null")
	}

	date, err := domain.ParseDate(*r.Date)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("invalid transaction date %q: %w", *r.Date, err)
	}

	txType := domain.TransactionType(strings.ToLower(strings.TrimSpace(*r.Type)))
	if txType != domain.TransactionTypeDebit && txType != domain.TransactionTypeCredit {
		return domain.Transaction{}, fmt.Errorf("invalid transaction type %q", *r.Type)
	}

	tx := domain.Transaction{
		Date:                date,
		Description:         *r.Description,
		Amount:              *r.Amount,
		Type:                txType,
		Installments:        1,
		CurrentInstallment:  1,
		TotalPurchaseAmount: *r.Amount,
		DueDate:             invoiceDueDate,
	}

	if r.Installments != nil {
		tx.Installments = *r.Installments
	}
	if r.CurrentInstallment != nil {
		tx.CurrentInstallment = *r.CurrentInstallment
	}
	if r.TotalPurchaseAmount != nil {
		tx.TotalPurchaseAmount = *r.TotalPurchaseAmount
	}
	if r.DueDate != nil && *r.DueDate != "" {
		dueDate, err := domain.ParseDate(*r.DueDate)
		if err != nil {
			return domain.Transaction{}, fmt.Errorf("invalid due date %q: %w", *r.DueDate, err)
		}
		tx.DueDate = dueDate
	}

	return tx, nil
}
