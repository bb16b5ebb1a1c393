package core

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

type (
	AccountInput struct {
		AccountName  string `json:"account_name"`
		AccountType  string `json:"account_type"`
		Institution  string `json:"institution"`
		CurrencyCode string `json:"currency_code"`
	}

	// AccountUpdate carries only the fields to change.
	AccountUpdate struct {
		AccountName  *string `json:"account_name,omitempty"`
		AccountType  *string `json:"account_type,omitempty"`
		Institution  *string `json:"institution,omitempty"`
		CurrencyCode *string `json:"currency_code,omitempty"`
	}

	TripInput struct {
		TripName    string `json:"trip_name"`
		StartDate   *Date  `json:"start_date,omitempty"`
		EndDate     *Date  `json:"end_date,omitempty"`
		Location    string `json:"location,omitempty"`
		Description string `json:"description,omitempty"`
	}

	CategoryInput struct {
		CategoryName string `json:"category_name"`
		CategoryType string `json:"category_type"`
	}

	// BudgetUpdate is a partial budget write. Nil fields are left untouched by the backend;
	// a non-nil empty slice clears the list.
	BudgetUpdate struct {
		Name          *string           `json:"name,omitempty"`
		Currency      *string           `json:"currency,omitempty"`
		IncomeSources *[]IncomeSource   `json:"income_sources,omitempty"`
		Categories    *[]BudgetCategory `json:"categories,omitempty"`
	}

	// ExpenseRecord is the legacy expense record served by /api/expenses.
	ExpenseRecord struct {
		ExpenseID    int64           `json:"expense_id"`
		ExpenseDate  Date            `json:"expense_date"`
		AccountID    int64           `json:"account_id"`
		Merchant     string          `json:"merchant"`
		Category     string          `json:"category"`
		Amount       decimal.Decimal `json:"amount"`
		CurrencyCode string          `json:"currency_code"`
		Description  string          `json:"description,omitempty"`
		TripID       int64           `json:"trip_id,omitempty"`
		CreatedAt    string          `json:"created_at,omitempty"`
		UpdatedAt    string          `json:"updated_at,omitempty"`
	}

	Credentials struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	AuthResponse struct {
		AccessToken string          `json:"access_token"`
		TokenType   string          `json:"token_type,omitempty"`
		User        json.RawMessage `json:"user,omitempty"`
	}

	User struct {
		UserID string `json:"user_id"`
		Email  string `json:"email,omitempty"`
	}

	// ImportedTransaction is one parsed CSV row proposed by the backend for import.
	ImportedTransaction struct {
		RowNumber           int             `json:"row_number,omitempty"`
		TransactionType     TransactionType `json:"transaction_type"`
		AccountID           int64           `json:"account_id,omitempty"`
		AccountConfidence   float64         `json:"account_confidence,omitempty"`
		Amount              decimal.Decimal `json:"amount"`
		Currency            string          `json:"currency,omitempty"`
		TransactionDate     string          `json:"transaction_date"`
		TransactionTime     string          `json:"transaction_time,omitempty"`
		Description         string          `json:"description,omitempty"`
		Merchant            string          `json:"merchant,omitempty"`
		Category            string          `json:"category,omitempty"`
		TransferToAccountID int64           `json:"transfer_to_account_id,omitempty"`
		Confidence          float64         `json:"confidence,omitempty"`
		RawData             json.RawMessage `json:"raw_data,omitempty"`
	}

	CSVUploadResult struct {
		Transactions     []ImportedTransaction `json:"transactions"`
		Uncertain        []ImportedTransaction `json:"uncertain"`
		Errors           []string              `json:"errors"`
		TotalParsed      int                   `json:"total_parsed"`
		FormatDetected   string                `json:"format_detected"`
		DefaultAccountID int64                 `json:"default_account_id,omitempty"`
	}

	CSVConfirmResult struct {
		Message  string `json:"message"`
		Imported int    `json:"imported"`
	}

	// MessageResponse is the body of delete endpoints.
	MessageResponse struct {
		Message string `json:"message"`
	}
)

func (a AccountInput) Validate() error {
	if strings.TrimSpace(a.AccountName) == "" {
		return ErrMissingName
	}
	if !ValidCurrency(a.CurrencyCode) {
		return ErrInvalidCurrency
	}
	return nil
}

func (t TripInput) Validate() error {
	if strings.TrimSpace(t.TripName) == "" {
		return ErrMissingName
	}
	if t.StartDate != nil && t.EndDate != nil && t.EndDate.Before(t.StartDate.Time) {
		return ErrInvalidDate
	}
	return nil
}

func (c CategoryInput) Validate() error {
	if strings.TrimSpace(c.CategoryName) == "" {
		return ErrMissingName
	}
	if c.CategoryType != "expense" && c.CategoryType != "income" {
		return ErrInvalidCategoryType
	}
	return nil
}

// Validate checks the fields that are set.
func (u BudgetUpdate) Validate() error {
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		return ErrMissingName
	}
	if u.Currency != nil && !ValidCurrency(*u.Currency) {
		return ErrInvalidCurrency
	}
	in := BudgetInput{Name: "x", Currency: DefaultCurrency}
	if u.IncomeSources != nil {
		in.IncomeSources = *u.IncomeSources
	}
	if u.Categories != nil {
		in.Categories = *u.Categories
	}
	return in.Validate()
}

// Apply returns b with the update's set fields applied.
func (u BudgetUpdate) Apply(b Budget) Budget {
	if u.Name != nil {
		b.Name = *u.Name
	}
	if u.Currency != nil {
		b.Currency = *u.Currency
	}
	if u.IncomeSources != nil {
		b.IncomeSources = append([]IncomeSource(nil), (*u.IncomeSources)...)
	}
	if u.Categories != nil {
		b.Categories = cloneCategories(*u.Categories)
	}
	return b
}

// LinesUpdate builds the update the budget editor sends: income sources and categories only.
func LinesUpdate(sources []IncomeSource, categories []BudgetCategory) BudgetUpdate {
	s := append([]IncomeSource{}, sources...)
	c := cloneCategories(categories)
	return BudgetUpdate{IncomeSources: &s, Categories: &c}
}

// Merge overlays the set fields of newer on u.
func (u BudgetUpdate) Merge(newer BudgetUpdate) BudgetUpdate {
	if newer.Name != nil {
		u.Name = newer.Name
	}
	if newer.Currency != nil {
		u.Currency = newer.Currency
	}
	if newer.IncomeSources != nil {
		u.IncomeSources = newer.IncomeSources
	}
	if newer.Categories != nil {
		u.Categories = newer.Categories
	}
	return u
}

func (u BudgetUpdate) IsEmpty() bool {
	return u.Name == nil && u.Currency == nil && u.IncomeSources == nil && u.Categories == nil
}
