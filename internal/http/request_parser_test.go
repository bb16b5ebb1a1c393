package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"financy/internal/core"
)

func TestParseReportRequest(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		want    func(t *testing.T, got reqView)
		wantErr error
	}{
		{
			name:  "empty uses defaults",
			query: "",
			want: func(t *testing.T, got reqView) {
				if got != (reqView{}) {
					t.Errorf("got %+v, want zero", got)
				}
			},
		},
		{
			name:  "all fields",
			query: "month=2024-03&frequency=Weekly&start_day=5&currency=gbp&budget_id=7&group_by=merchant&account_id=2",
			want: func(t *testing.T, got reqView) {
				want := reqView{Year: 2024, Month: time.March, Frequency: "weekly", StartDay: 5, Currency: "GBP", BudgetID: 7, GroupBy: "merchant", AccountID: 2}
				if got != want {
					t.Errorf("got %+v, want %+v", got, want)
				}
			},
		},
		{name: "bad month", query: "month=2024-13", wantErr: core.ErrInvalidMonth},
		{name: "bad frequency", query: "frequency=daily", wantErr: core.ErrInvalidFrequency},
		{name: "bad start day", query: "start_day=0x", wantErr: errInvalidParam},
		{name: "start day range", query: "start_day=40", wantErr: core.ErrInvalidStartDay},
		{name: "negative budget", query: "budget_id=-1", wantErr: errInvalidParam},
		{name: "bad group", query: "group_by=week", wantErr: errInvalidParam},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, _ := url.ParseQuery(tt.query)
			got, err := ParseReportRequest(q)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.want(t, reqView{
				Year: got.Month.Year, Month: got.Month.Month,
				Frequency: string(got.Frequency), StartDay: got.StartDay,
				Currency: got.Currency, BudgetID: got.BudgetID,
				GroupBy: string(got.GroupBy), AccountID: got.AccountID,
			})
		})
	}
}

type reqView struct {
	Year      int
	Month     time.Month
	Frequency string
	StartDay  int
	Currency  string
	BudgetID  int64
	GroupBy   string
	AccountID int64
}

func TestParseConvertParams(t *testing.T) {
	q, _ := url.ParseQuery("amount=12.50&from=eur&to=usd")
	p, err := ParseConvertParams(q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.From != "EUR" || p.To != "USD" || p.Amount.String() != "12.5" {
		t.Errorf("got %+v", p)
	}

	for _, raw := range []string{"from=EUR&to=USD", "amount=1&from=EU&to=USD", "amount=1&from=EUR"} {
		q, _ := url.ParseQuery(raw)
		if _, err := ParseConvertParams(q); err == nil {
			t.Errorf("ParseConvertParams(%q) expected error", raw)
		}
	}
}

func TestDecodeJSON(t *testing.T) {
	var v struct {
		Name string `json:"name"`
	}
	r := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"name":"Home"}`))
	if err := DecodeJSON(r, &v); err != nil || v.Name != "Home" {
		t.Errorf("DecodeJSON() = %v, %+v", err, v)
	}

	r = httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"nam":"Home"}`))
	if err := DecodeJSON(r, &v); !errors.Is(err, errInvalidParam) {
		t.Errorf("unknown field error = %v", err)
	}
}

func TestParseBudgetID(t *testing.T) {
	tests := []struct {
		raw     string
		want    int64
		wantErr bool
	}{
		{"7", 7, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/budgets/"+tt.raw+"/draft", nil)
			r.SetPathValue("id", tt.raw)
			got, err := ParseBudgetID(r)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseBudgetID() = %d, want %d", got, tt.want)
			}
		})
	}
}
