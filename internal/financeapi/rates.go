package financeapi

import (
	"context"
	"net/url"

	"financy/internal/core"
)

func (c *Client) Currencies(ctx context.Context) ([]string, error) {
	var out struct {
		Currencies []string `json:"currencies"`
	}
	if err := c.get(ctx, "/api/currencies", nil, &out); err != nil {
		return nil, err
	}
	return out.Currencies, nil
}

// LatestRates returns the newest rate of every currency against base, on or before date if set.
func (c *Client) LatestRates(ctx context.Context, base string, date core.Date) (core.ExchangeRates, error) {
	var out core.ExchangeRates
	if base == "" {
		base = core.DefaultCurrency
	}
	q := url.Values{"base_currency": {base}}
	if !date.IsZero() {
		q.Set("target_date", date.String())
	}
	return out, c.get(ctx, "/api/exchange-rates/latest", q, &out)
}

func (c *Client) CreateExchangeRate(ctx context.Context, in core.ExchangeRateInput) error {
	if err := in.Validate(); err != nil {
		return err
	}
	return c.post(ctx, "/api/exchange-rates", in, nil)
}

func (c *Client) CreateTransfer(ctx context.Context, in core.TransferRequest) (core.TransferResult, error) {
	var out core.TransferResult
	if err := in.Validate(); err != nil {
		return out, err
	}
	return out, c.post(ctx, "/api/transfers", in, &out)
}

func (c *Client) CreateCurrencyExchange(ctx context.Context, in core.CurrencyExchangeRequest) (core.CurrencyExchangeResult, error) {
	var out core.CurrencyExchangeResult
	if err := in.Validate(); err != nil {
		return out, err
	}
	return out, c.post(ctx, "/api/currency-exchange", in, &out)
}

// CreateMarketAdjustment books the difference between an investment account's balance and actual.
func (c *Client) CreateMarketAdjustment(ctx context.Context, in core.MarketAdjustmentRequest) (core.MarketAdjustmentResult, error) {
	var out core.MarketAdjustmentResult
	if in.AccountID <= 0 {
		return out, core.ErrInvalidAccount
	}
	if in.Date.IsZero() {
		return out, core.ErrInvalidDate
	}
	return out, c.post(ctx, "/api/market-adjustments", in, &out)
}
