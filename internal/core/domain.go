package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

func init() {
	// The backend and chart consumers read amounts as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

const (
	Income     TransactionType = "income"
	Expense    TransactionType = "expense"
	Transfer   TransactionType = "transfer"
	Adjustment TransactionType = "adjustment"
)

const (
	Needs   CategoryType = "needs"
	Wants   CategoryType = "wants"
	Savings CategoryType = "savings"
)

// DefaultCurrency is used when neither a transaction nor its account carries a currency.
const DefaultCurrency = "EUR"

type (
	TransactionType string

	// CategoryType is the bucket a budget category belongs to.
	CategoryType string

	Account struct {
		AccountID    int64  `json:"account_id"`
		AccountName  string `json:"account_name"`
		AccountType  string `json:"account_type"`
		Institution  string `json:"institution"`
		CurrencyCode string `json:"currency_code"`
	}

	Transaction struct {
		TransactionID   int64           `json:"transaction_id"`
		AccountID       int64           `json:"account_id"`
		Amount          decimal.Decimal `json:"amount"`
		TransactionType TransactionType `json:"transaction_type"`
		Category        string          `json:"category,omitempty"`
		TransactionDate Date            `json:"transaction_date"`
		Description     string          `json:"description,omitempty"`
		Merchant        string          `json:"merchant,omitempty"` // expenses only
		TripID          int64           `json:"trip_id,omitempty"`  // expenses only
		AccountName     string          `json:"account_name,omitempty"`
		CurrencyCode    string          `json:"currency_code,omitempty"`
	}

	// TransactionInput is the body for creating or updating a transaction.
	TransactionInput struct {
		AccountID       int64           `json:"account_id,omitempty"`
		Amount          decimal.Decimal `json:"amount"`
		TransactionType TransactionType `json:"transaction_type,omitempty"`
		Category        string          `json:"category,omitempty"`
		TransactionDate Date            `json:"transaction_date"`
		Description     string          `json:"description,omitempty"`
		Merchant        string          `json:"merchant,omitempty"`
		TripID          int64           `json:"trip_id,omitempty"`
	}

	Trip struct {
		TripID      int64  `json:"trip_id"`
		TripName    string `json:"trip_name"`
		StartDate   *Date  `json:"start_date,omitempty"`
		EndDate     *Date  `json:"end_date,omitempty"`
		Location    string `json:"location,omitempty"`
		Description string `json:"description,omitempty"`
		CreatedAt   string `json:"created_at,omitempty"`
		UpdatedAt   string `json:"updated_at,omitempty"`
	}

	Category struct {
		CategoryID   int64  `json:"category_id"`
		CategoryName string `json:"category_name"`
		CategoryType string `json:"category_type"` // expense | income
		CreatedAt    string `json:"created_at,omitempty"`
		UpdatedAt    string `json:"updated_at,omitempty"`
	}

	GroupedCategories struct {
		ExpenseCategories []string `json:"expense_categories"`
		IncomeCategories  []string `json:"income_categories"`
	}

	IncomeSource struct {
		Name   string          `json:"name"`
		Amount decimal.Decimal `json:"amount"`
	}

	BudgetCategory struct {
		Name           string          `json:"name"`
		BudgetedAmount decimal.Decimal `json:"budgeted_amount"`
		Type           CategoryType    `json:"type"`
		// MappedExpenseCategories rolls spending of other expense categories into this one.
		MappedExpenseCategories []string `json:"mapped_expense_categories,omitempty"`
	}

	Budget struct {
		BudgetID      int64            `json:"budget_id"`
		Name          string           `json:"name"`
		Currency      string           `json:"currency"`
		IncomeSources []IncomeSource   `json:"income_sources"`
		Categories    []BudgetCategory `json:"categories"`
		CreatedAt     string           `json:"created_at,omitempty"`
		UpdatedAt     string           `json:"updated_at,omitempty"`
	}

	// BudgetInput is the writable part of a budget.
	BudgetInput struct {
		Name          string           `json:"name"`
		Currency      string           `json:"currency"`
		IncomeSources []IncomeSource   `json:"income_sources"`
		Categories    []BudgetCategory `json:"categories"`
	}

	Goal struct {
		GoalID        int64           `json:"goal_id"`
		Name          string          `json:"name"`
		GoalType      string          `json:"goal_type"`
		TargetAmount  decimal.Decimal `json:"target_amount"`
		CurrentAmount decimal.Decimal `json:"current_amount"`
		Currency      string          `json:"currency"`
		TargetDate    *Date           `json:"target_date,omitempty"`
		Description   string          `json:"description,omitempty"`
		Icon          string          `json:"icon,omitempty"`
		CreatedAt     string          `json:"created_at,omitempty"`
		UpdatedAt     string          `json:"updated_at,omitempty"`
	}

	Balance struct {
		BalanceDate  Date             `json:"balance_date"`
		AccountName  string           `json:"account_name"`
		AccountType  string           `json:"account_type"`
		Institution  string           `json:"institution"`
		CurrencyCode string           `json:"currency_code"`
		Amount       decimal.Decimal  `json:"amount"`
		BalanceEUR   decimal.Decimal  `json:"balance_eur"`
		BalanceUSD   *decimal.Decimal `json:"balance_usd,omitempty"`
		BalanceGBP   *decimal.Decimal `json:"balance_gbp,omitempty"`
		BalanceCHF   *decimal.Decimal `json:"balance_chf,omitempty"`
		BalanceCAD   *decimal.Decimal `json:"balance_cad,omitempty"`
	}

	Metrics struct {
		Cash                decimal.Decimal `json:"cash"`
		Investments         decimal.Decimal `json:"investments"`
		NetWorth            decimal.Decimal `json:"net_worth"`
		CashInvestmentRatio decimal.Decimal `json:"cash_investment_ratio"`
	}

	AccountTypeCategories struct {
		CashTypes       []string `json:"cash_types"`
		InvestmentTypes []string `json:"investment_types"`
	}

	TransferRequest struct {
		FromAccountID int64           `json:"from_account_id"`
		ToAccountID   int64           `json:"to_account_id"`
		Amount        decimal.Decimal `json:"amount"`
		Fees          decimal.Decimal `json:"fees"`
		Date          Date            `json:"date"`
		Description   string          `json:"description,omitempty"`
	}

	TransferResult struct {
		Message           string `json:"message"`
		FromTransactionID int64  `json:"from_transaction_id"`
		ToTransactionID   int64  `json:"to_transaction_id"`
		FeeTransactionID  *int64 `json:"fee_transaction_id,omitempty"`
		TransferLinkID    int64  `json:"transfer_link_id"`
	}

	CurrencyExchangeRequest struct {
		FromAccountID int64           `json:"from_account_id"`
		ToAccountID   int64           `json:"to_account_id"`
		Amount        decimal.Decimal `json:"amount"`
		ExchangeRate  decimal.Decimal `json:"exchange_rate"`
		Fees          decimal.Decimal `json:"fees"`
		Date          Date            `json:"date"`
		Description   string          `json:"description,omitempty"`
	}

	CurrencyExchangeResult struct {
		TransferResult
		FromAmount   decimal.Decimal `json:"from_amount"`
		ToAmount     decimal.Decimal `json:"to_amount"`
		ExchangeRate decimal.Decimal `json:"exchange_rate"`
	}

	MarketAdjustmentRequest struct {
		AccountID     int64           `json:"account_id"`
		ActualBalance decimal.Decimal `json:"actual_balance"`
		Date          Date            `json:"date"`
		Description   string          `json:"description,omitempty"`
	}

	MarketAdjustmentResult struct {
		Message          string          `json:"message"`
		TransactionID    int64           `json:"transaction_id"`
		AdjustmentAmount decimal.Decimal `json:"adjustment_amount"`
		NewBalance       decimal.Decimal `json:"new_balance"`
	}

	// ExchangeRates is a base-currency rate table as served by the backend.
	ExchangeRates struct {
		BaseCurrency string                     `json:"base_currency"`
		Rates        map[string]decimal.Decimal `json:"rates"`
		Date         *Date                      `json:"date,omitempty"`
	}

	ExchangeRateInput struct {
		BaseCurrency   string          `json:"base_currency"`
		TargetCurrency string          `json:"target_currency"`
		Rate           decimal.Decimal `json:"rate"`
		RateDate       Date            `json:"rate_date"`
	}
)

var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidCurrency     = errors.New("invalid currency code")
	ErrMissingName         = errors.New("missing name")
	ErrInvalidCategoryType = errors.New("invalid budget category type")
	ErrInvalidDate         = errors.New("invalid date")
	ErrInvalidRate         = errors.New("exchange rate must be positive")
	ErrInvalidAccount      = errors.New("invalid account id")
	ErrInvalidMonth        = errors.New("invalid month")
	ErrInvalidFrequency    = errors.New("invalid period frequency")
	ErrInvalidStartDay     = errors.New("start day must be between 1 and 31")
	ErrNotFound            = errors.New("not found")
)

// ValidCurrency reports whether code looks like an ISO 4217 code (three upper-case letters).
func ValidCurrency(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// IsExpense reports whether the transaction counts as spending.
func (t Transaction) IsExpense() bool { return t.TransactionType == Expense }

func (c CategoryType) Valid() bool {
	switch c {
	case Needs, Wants, Savings:
		return true
	}
	return false
}

func (t TransactionInput) Validate() error {
	if t.AccountID <= 0 {
		return ErrInvalidAccount
	}
	if t.Amount.IsZero() {
		return ErrInvalidAmount
	}
	if t.TransactionDate.IsZero() {
		return ErrInvalidDate
	}
	if len(t.Description) > 500 {
		return errors.New("description too long (max 500 characters)")
	}
	return nil
}

func (b BudgetInput) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return ErrMissingName
	}
	if !ValidCurrency(b.Currency) {
		return ErrInvalidCurrency
	}
	for _, s := range b.IncomeSources {
		if strings.TrimSpace(s.Name) == "" {
			return ErrMissingName
		}
		if s.Amount.IsNegative() {
			return ErrInvalidAmount
		}
	}
	for _, c := range b.Categories {
		if strings.TrimSpace(c.Name) == "" {
			return ErrMissingName
		}
		if !c.Type.Valid() {
			return ErrInvalidCategoryType
		}
		if c.BudgetedAmount.IsNegative() {
			return ErrInvalidAmount
		}
	}
	return nil
}

// Input returns the writable fields of the budget.
func (b Budget) Input() BudgetInput {
	return BudgetInput{
		Name:          b.Name,
		Currency:      b.Currency,
		IncomeSources: append([]IncomeSource(nil), b.IncomeSources...),
		Categories:    cloneCategories(b.Categories),
	}
}

func cloneCategories(in []BudgetCategory) []BudgetCategory {
	out := make([]BudgetCategory, len(in))
	for i, c := range in {
		c.MappedExpenseCategories = append([]string(nil), c.MappedExpenseCategories...)
		out[i] = c
	}
	return out
}

func (g Goal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrMissingName
	}
	if !g.TargetAmount.IsPositive() {
		return ErrInvalidAmount
	}
	if !ValidCurrency(g.Currency) {
		return ErrInvalidCurrency
	}
	return nil
}

func (r ExchangeRateInput) Validate() error {
	if !ValidCurrency(r.BaseCurrency) || !ValidCurrency(r.TargetCurrency) {
		return ErrInvalidCurrency
	}
	if !r.Rate.IsPositive() {
		return ErrInvalidRate
	}
	if r.RateDate.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (t TransferRequest) Validate() error {
	if t.FromAccountID <= 0 || t.ToAccountID <= 0 || t.FromAccountID == t.ToAccountID {
		return ErrInvalidAccount
	}
	if !t.Amount.IsPositive() || t.Fees.IsNegative() {
		return ErrInvalidAmount
	}
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (c CurrencyExchangeRequest) Validate() error {
	if c.FromAccountID <= 0 || c.ToAccountID <= 0 || c.FromAccountID == c.ToAccountID {
		return ErrInvalidAccount
	}
	if !c.Amount.IsPositive() || c.Fees.IsNegative() {
		return ErrInvalidAmount
	}
	if !c.ExchangeRate.IsPositive() {
		return ErrInvalidRate
	}
	if c.Date.IsZero() {
		return ErrInvalidDate
	}
	return nil
}
