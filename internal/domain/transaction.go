package domain

import (
	"github.com/shopspring/decimal"
)

// UnknownSource is the statement source assigned when the extractor's
// document reference cannot be mapped back to an uploaded file.
const UnknownSource = "Unknown"

// Transaction is one normalized line item from a bank statement.
// Only transactions that went through source resolution are stored.
type Transaction struct {
	Date            string          `json:"date"` // YYYY-MM-DD
	Description     string          `json:"description"`
	Amount          decimal.Decimal `json:"amount"` // negative = debit, positive = credit
	Category        string          `json:"category"`
	Notes           string          `json:"notes"`
	StatementSource string          `json:"statementSource"`
}

// IsIncome reports whether the transaction credits the account.
func (t Transaction) IsIncome() bool {
	return t.Amount.IsPositive()
}

// IsSpending reports whether the transaction debits the account.
func (t Transaction) IsSpending() bool {
	return t.Amount.IsNegative()
}

// FinancialSummary is derived from the active transaction set on every read.
type FinancialSummary struct {
	TotalTransactions int             `json:"totalTransactions"`
	TotalIncome       decimal.Decimal `json:"totalIncome"`
	TotalSpending     decimal.Decimal `json:"totalSpending"` // absolute value
}

// CategorySummary is the summed absolute amount for one category within
// a single polarity (spending or income).
type CategorySummary struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
}

// Document is an uploaded statement file.
type Document struct {
	Name      string `json:"name"`
	MIMEType  string `json:"mimeType"`
	Data      []byte `json:"-"`
	PageCount int    `json:"pageCount,omitempty"` // PDFs only, 0 when unknown
}

// AnalysisResult is the outcome of one successful analysis run.
type AnalysisResult struct {
	RunID        string        `json:"runId"`
	Transactions []Transaction `json:"transactions"`
	Insights     []string      `json:"insights"`
}
