package financeapi

import (
	"context"
	"net/url"
	"strconv"

	"financy/internal/core"
)

// ListTransactions returns the transactions matching f. Zero-valued filter fields are not sent.
func (c *Client) ListTransactions(ctx context.Context, f core.TransactionFilter) ([]core.Transaction, error) {
	var out []core.Transaction
	return out, c.get(ctx, "/api/transactions", transactionQuery(f), &out)
}

func transactionQuery(f core.TransactionFilter) url.Values {
	q := url.Values{}
	if f.AccountID > 0 {
		q.Set("account_id", strconv.FormatInt(f.AccountID, 10))
	}
	if f.TransactionType != "" {
		q.Set("transaction_type", string(f.TransactionType))
	}
	if f.Category != "" {
		q.Set("category", f.Category)
	}
	if !f.StartDate.IsZero() {
		q.Set("start_date", f.StartDate.String())
	}
	if !f.EndDate.IsZero() {
		q.Set("end_date", f.EndDate.String())
	}
	if f.CurrencyCode != "" {
		q.Set("currency_code", f.CurrencyCode)
	}
	if f.TripID > 0 {
		q.Set("trip_id", strconv.FormatInt(f.TripID, 10))
	}
	return q
}

func (c *Client) CreateTransaction(ctx context.Context, in core.TransactionInput) (core.Transaction, error) {
	var out core.Transaction
	if err := in.Validate(); err != nil {
		return out, err
	}
	return out, c.post(ctx, "/api/transactions", in, &out)
}

func (c *Client) UpdateTransaction(ctx context.Context, id int64, in core.TransactionInput) (core.Transaction, error) {
	var out core.Transaction
	return out, c.put(ctx, "/api/transactions/"+strconv.FormatInt(id, 10), in, &out)
}

func (c *Client) DeleteTransaction(ctx context.Context, id int64) (core.MessageResponse, error) {
	return c.delete(ctx, "/api/transactions/"+strconv.FormatInt(id, 10))
}

// ListExpenses returns legacy expense records, optionally for one account.
func (c *Client) ListExpenses(ctx context.Context, accountID int64) ([]core.ExpenseRecord, error) {
	var out []core.ExpenseRecord
	q := url.Values{}
	if accountID > 0 {
		q.Set("account_id", strconv.FormatInt(accountID, 10))
	}
	return out, c.get(ctx, "/api/expenses", q, &out)
}
