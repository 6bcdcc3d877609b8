package validation

import (
	"fmt"
	"strings"
	"time"

	"github.com/hlmartins/invoice-agent-be/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	amountMin = decimal.RequireFromString("0.01")
	amountMax = decimal.NewFromInt(100000)
	tolerance = decimal.RequireFromString("0.01")
)

// Result is the aggregated outcome of one rule battery run.
type Result struct {
	Score   float64
	Details map[string]bool
	Errors  []string
}

// TransactionValidator applies the business rule battery to a list of
// extracted transactions. Extraction output is untrusted; every rule reports
// its findings as data instead of failing. Each rule stops at its own first
// violation, but a failing rule never prevents the remaining rules from
// running.
type TransactionValidator struct {
	transactions  []domain.Transaction
	referenceDate domain.Date
	now           func() time.Time
	errors        []string
}

// NewTransactionValidator binds a validator to a transaction list and the
// invoice due date used as the upper bound for transaction dates.
func NewTransactionValidator(transactions []domain.Transaction, referenceDate domain.Date) *TransactionValidator {
	return &TransactionValidator{
		transactions:  transactions,
		referenceDate: referenceDate,
		now:           time.Now,
	}
}

// RunAll executes the full rule battery exactly once. The sum rule only runs
// when an invoice total was supplied, so the score denominator is 6 or 7
// accordingly. The error collector is reset on every call; repeated runs on
// the same input yield identical results.
func (v *TransactionValidator) RunAll(invoiceTotal *decimal.Decimal) Result {
	v.errors = v.errors[:0]

	if len(v.transactions) == 0 {
		v.errors = append(v.errors, "No transactions found")
		return Result{Score: 0, Details: map[string]bool{}, Errors: v.copyErrors()}
	}

	checks := []struct {
		name string
		fn   func() bool
	}{
		{"required_fields", v.validateRequiredFields},
		{"no_duplicates", v.validateNoDuplicates},
		{"valid_dates", v.validateDates},
		{"amount_range", v.validateAmountRange},
		{"installments_consistency", v.validateInstallmentsConsistency},
		{"due_date_consistency", v.validateDueDateConsistency},
	}

	details := make(map[string]bool, len(checks)+1)
	passed := 0
	for _, check := range checks {
		ok := check.fn()
		details[check.name] = ok
		if ok {
			passed++
		}
	}

	if invoiceTotal != nil {
		ok := v.validateTransactionsSum(*invoiceTotal)
		details["sum_valid"] = ok
		if ok {
			passed++
		}
	}

	return Result{
		Score:   float64(passed) / float64(len(details)),
		Details: details,
		Errors:  v.copyErrors(),
	}
}

func (v *TransactionValidator) validateRequiredFields() bool {
	for _, t := range v.transactions {
		if t.Date.IsZero() || strings.TrimSpace(t.Description) == "" {
			v.errors = append(v.errors, fmt.Sprintf("Missing required fields in transaction: %s", t))
			return false
		}
	}
	return true
}

func (v *TransactionValidator) validateNoDuplicates() bool {
	seen := make(map[string]struct{}, len(v.transactions))
	for _, t := range v.transactions {
		// Amounts compared at two decimal places so 10.0 and 10.00 collide.
		key := t.Date.String() + "|" + t.Amount.StringFixed(2) + "|" + strings.ToLower(strings.TrimSpace(t.Description))
		if _, ok := seen[key]; ok {
			v.errors = append(v.errors, fmt.Sprintf("Duplicate transaction found: %s", t))
			return false
		}
		seen[key] = struct{}{}
	}
	return true
}

func (v *TransactionValidator) validateDates() bool {
	n := v.now()
	today := domain.NewDate(n.Year(), n.Month(), n.Day())
	for _, t := range v.transactions {
		if t.Date.After(v.referenceDate) || t.Date.After(today) {
			v.errors = append(v.errors, fmt.Sprintf("Invalid transaction date: %s in transaction: %s", t.Date, t))
			return false
		}
	}
	return true
}

func (v *TransactionValidator) validateAmountRange() bool {
	for _, t := range v.transactions {
		if t.Amount.LessThan(amountMin) || t.Amount.GreaterThan(amountMax) {
			v.errors = append(v.errors, fmt.Sprintf("Transaction amount out of range: %s in transaction: %s", t.Amount, t))
			return false
		}
	}
	return true
}

func (v *TransactionValidator) validateInstallmentsConsistency() bool {
	for _, t := range v.transactions {
		if t.Installments <= 1 {
			continue
		}
		expected := t.Amount.Mul(decimal.NewFromInt(int64(t.Installments)))
		if t.TotalPurchaseAmount.Sub(expected).Abs().GreaterThan(tolerance) {
			v.errors = append(v.errors, fmt.Sprintf(
				"Installments inconsistency: %s != %s * %d in transaction: %s",
				t.TotalPurchaseAmount, t.Amount, t.Installments, t))
			return false
		}
	}
	return true
}

func (v *TransactionValidator) validateDueDateConsistency() bool {
	expected := v.transactions[0].DueDate
	for _, t := range v.transactions {
		if !t.DueDate.Equal(expected) {
			v.errors = append(v.errors, fmt.Sprintf(
				"Due date inconsistency: %s != %s in transaction: %s", t.DueDate, expected, t))
			return false
		}
	}
	return true
}

func (v *TransactionValidator) validateTransactionsSum(invoiceTotal decimal.Decimal) bool {
	total := decimal.Zero
	for _, t := range v.transactions {
		if t.Type == domain.TransactionTypeCredit {
			total = total.Sub(t.Amount)
		} else {
			total = total.Add(t.Amount)
		}
	}
	if total.Sub(invoiceTotal).Abs().LessThanOrEqual(tolerance) {
		return true
	}
	v.errors = append(v.errors, fmt.Sprintf("Sum mismatch: calculated %s, expected %s", total, invoiceTotal))
	return false
}

func (v *TransactionValidator) copyErrors() []string {
	out := make([]string, len(v.errors))
	copy(out, v.errors)
	return out
}
