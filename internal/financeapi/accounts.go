package financeapi

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"financy/internal/core"
)

func (c *Client) ListAccounts(ctx context.Context) ([]core.Account, error) {
	var out []core.Account
	return out, c.get(ctx, "/api/accounts", nil, &out)
}

func (c *Client) CreateAccount(ctx context.Context, in core.AccountInput) (core.Account, error) {
	var out core.Account
	if err := in.Validate(); err != nil {
		return out, err
	}
	return out, c.post(ctx, "/api/accounts", in, &out)
}

func (c *Client) UpdateAccount(ctx context.Context, id int64, in core.AccountUpdate) (core.Account, error) {
	var out core.Account
	return out, c.put(ctx, "/api/accounts/"+strconv.FormatInt(id, 10), in, &out)
}

func (c *Client) DeleteAccount(ctx context.Context, id int64) (core.MessageResponse, error) {
	return c.delete(ctx, "/api/accounts/"+strconv.FormatInt(id, 10))
}

// AccountTypes returns which account types count as cash and which as investments.
func (c *Client) AccountTypes(ctx context.Context) (core.AccountTypeCategories, error) {
	var out core.AccountTypeCategories
	return out, c.get(ctx, "/api/accounts/types", nil, &out)
}

// Balances returns the latest balance of every account, valued in currency, as of date if set.
func (c *Client) Balances(ctx context.Context, currency string, date core.Date) ([]core.Balance, error) {
	var out []core.Balance
	return out, c.get(ctx, "/api/balances", valuationQuery(currency, date), &out)
}

// AccountBalance finds one account's entry in Balances. It returns nil when the account has none.
func (c *Client) AccountBalance(ctx context.Context, accountName, currency string) (*core.Balance, error) {
	balances, err := c.Balances(ctx, currency, core.Date{})
	if err != nil {
		return nil, err
	}
	for i := range balances {
		if balances[i].AccountName == accountName {
			return &balances[i], nil
		}
	}
	return nil, nil
}

// BalanceHistory returns the balance series of one account.
func (c *Client) BalanceHistory(ctx context.Context, accountName, currency string) ([]core.Balance, error) {
	var out []core.Balance
	path := "/api/balances/history/" + url.PathEscape(HistoryKey(accountName))
	return out, c.get(ctx, path, valuationQuery(currency, core.Date{}), &out)
}

// HistoryKey is the path form of an account name: spaces and slashes become underscores.
func HistoryKey(accountName string) string {
	return strings.NewReplacer(" ", "_", "/", "_").Replace(accountName)
}

func (c *Client) Metrics(ctx context.Context, currency string, date core.Date) (core.Metrics, error) {
	var out core.Metrics
	return out, c.get(ctx, "/api/metrics", valuationQuery(currency, date), &out)
}

func valuationQuery(currency string, date core.Date) url.Values {
	if currency == "" {
		currency = core.DefaultCurrency
	}
	q := url.Values{"currency": {currency}}
	if !date.IsZero() {
		q.Set("date", date.String())
	}
	return q
}
