package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeDebit  TransactionType = "debit"
	TransactionTypeCredit TransactionType = "credit"
)

// Date is a calendar date without a time component. It marshals as
// "YYYY-MM-DD", the format the extraction providers are instructed to emit.
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func ParseDate(value string) (Date, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return Date{}, err
	}
	return Date{t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) Equal(other Date) bool {
	return d.Time.Equal(other.Time)
}

func (d Date) After(other Date) bool {
	return d.Time.After(other.Time)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(dateLayout))
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Transaction is one line item extracted from a credit card invoice.
// Records are built by the provider layer and are read-only afterwards.
type Transaction struct {
	Date                Date            `json:"date"`
	Description         string          `json:"description"`
	Amount              decimal.Decimal `json:"amount"`
	Type                TransactionType `json:"type"`
	Installments        int             `json:"installments"`
	CurrentInstallment  int             `json:"current_installment"`
	TotalPurchaseAmount decimal.Decimal `json:"total_purchase_amount"`
	DueDate             Date            `json:"due_date"`
	Category            *string         `json:"category,omitempty"`
}

func (t Transaction) String() string {
	return fmt.Sprintf("%s - %s: %s", t.Date, t.Description, t.Amount)
}

// ProcessingMetadata describes a single extraction run.
type ProcessingMetadata struct {
	ProcessingTimeMs  int64   `json:"processing_time_ms"`
	TotalTransactions int     `json:"total_transactions"`
	ConfidenceScore   float64 `json:"confidence_score"`
	Provider          string  `json:"provider"`
	Institution       string  `json:"institution"`
}

// InvoiceResponse is the payload returned by the process-invoice endpoint.
// Errors holds validation findings; it is omitted when every rule passed.
type InvoiceResponse struct {
	InvoiceID    string             `json:"invoice_id"`
	Transactions []Transaction      `json:"transactions"`
	Metadata     ProcessingMetadata `json:"metadata"`
	Errors       []string           `json:"errors,omitempty"`
}

type InvoiceStatus string

const (
	InvoiceStatusProcessing InvoiceStatus = "processing"
	InvoiceStatusCompleted  InvoiceStatus = "completed"
	InvoiceStatusFailed     InvoiceStatus = "failed"
)

// CategorizedTransaction is a transaction enriched by the categorization
// workers. The category itself lives on the embedded Transaction.
type CategorizedTransaction struct {
	Transaction
	CategoryConfidence   float64 `json:"category_confidence,omitempty"`
	CategorizationMethod string  `json:"categorization_method,omitempty"`
}

// Invoice is the stored record of one processed upload. Status moves from
// processing to completed once every transaction has been categorized.
type Invoice struct {
	ID               string                   `json:"id"`
	Filename         string                   `json:"filename"`
	Institution      string                   `json:"institution"`
	Provider         string                   `json:"provider"`
	Status           InvoiceStatus            `json:"status"`
	ConfidenceScore  float64                  `json:"confidence_score"`
	Errors           []string                 `json:"errors,omitempty"`
	Transactions     []CategorizedTransaction `json:"transactions"`
	CategorizedCount int                      `json:"categorized_count"`
	CreatedAt        time.Time                `json:"created_at"`
	CompletedAt      *time.Time               `json:"completed_at,omitempty"`
}
