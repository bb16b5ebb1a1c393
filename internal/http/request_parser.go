package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"financy/internal/core"
	"financy/internal/services"
)

var errInvalidParam = errors.New("invalid parameter")

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// ParseReportRequest reads the report selection from query parameters:
// month (YYYY-MM), frequency, start_day, currency, budget_id, group_by and
// account_id. Missing values are left zero for the service defaults.
func ParseReportRequest(query url.Values) (services.ReportRequest, error) {
	var req services.ReportRequest
	var err error

	if v := strings.TrimSpace(query.Get("month")); v != "" {
		if req.Month, err = core.ParseMonth(v); err != nil {
			return req, err
		}
	}
	if v := strings.TrimSpace(query.Get("frequency")); v != "" {
		if req.Frequency, err = core.ParseFrequency(v); err != nil {
			return req, err
		}
	}
	if req.StartDay, err = intParam(query, "start_day"); err != nil {
		return req, err
	}
	if req.StartDay != 0 {
		if err := core.ValidateStartDay(req.StartDay); err != nil {
			return req, err
		}
	}
	req.Currency = strings.ToUpper(strings.TrimSpace(query.Get("currency")))
	if req.BudgetID, err = idParam(query, "budget_id"); err != nil {
		return req, err
	}
	if req.AccountID, err = idParam(query, "account_id"); err != nil {
		return req, err
	}
	if v := query.Get("group_by"); v != "" {
		if req.GroupBy, err = core.ParseGroupBy(v); err != nil {
			return req, fmt.Errorf("%w: %v", errInvalidParam, err)
		}
	}
	return req, nil
}

// ConvertParams is the query of /api/convert.
type ConvertParams struct {
	Amount decimal.Decimal
	From   string
	To     string
}

func ParseConvertParams(query url.Values) (ConvertParams, error) {
	p := ConvertParams{
		From: strings.ToUpper(strings.TrimSpace(query.Get("from"))),
		To:   strings.ToUpper(strings.TrimSpace(query.Get("to"))),
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(query.Get("amount")))
	if err != nil {
		return p, fmt.Errorf("%w: %q", core.ErrInvalidAmount, query.Get("amount"))
	}
	p.Amount = amount
	if !core.ValidCurrency(p.From) {
		return p, fmt.Errorf("%w: from %q", core.ErrInvalidCurrency, p.From)
	}
	if !core.ValidCurrency(p.To) {
		return p, fmt.Errorf("%w: to %q", core.ErrInvalidCurrency, p.To)
	}
	return p, nil
}

// ParseBudgetID reads a positive id from a path value.
func ParseBudgetID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: budget id %q", errInvalidParam, raw)
	}
	return id, nil
}

// DecodeJSON decodes a bounded JSON body into v, rejecting unknown fields.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: body: %v", errInvalidParam, err)
	}
	return nil
}

func intParam(query url.Values, key string) (int, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q", errInvalidParam, key, v)
	}
	return n, nil
}

func idParam(query url.Values, key string) (int64, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s %q", errInvalidParam, key, v)
	}
	return id, nil
}
