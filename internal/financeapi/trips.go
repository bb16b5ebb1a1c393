package financeapi

import (
	"context"
	"net/url"
	"strconv"

	"financy/internal/core"
)

func (c *Client) ListTrips(ctx context.Context) ([]core.Trip, error) {
	var out []core.Trip
	return out, c.get(ctx, "/api/trips", nil, &out)
}

func (c *Client) CreateTrip(ctx context.Context, in core.TripInput) (core.Trip, error) {
	var out core.Trip
	if err := in.Validate(); err != nil {
		return out, err
	}
	return out, c.post(ctx, "/api/trips", in, &out)
}

func (c *Client) UpdateTrip(ctx context.Context, id int64, in core.TripInput) (core.Trip, error) {
	var out core.Trip
	return out, c.put(ctx, "/api/trips/"+strconv.FormatInt(id, 10), in, &out)
}

func (c *Client) DeleteTrip(ctx context.Context, id int64) (core.MessageResponse, error) {
	return c.delete(ctx, "/api/trips/"+strconv.FormatInt(id, 10))
}

// GroupedCategories returns category names split into expense and income lists.
func (c *Client) GroupedCategories(ctx context.Context) (core.GroupedCategories, error) {
	var out core.GroupedCategories
	return out, c.get(ctx, "/api/categories/grouped", nil, &out)
}

// ListCategories returns categories with their ids; categoryType "" lists both kinds.
func (c *Client) ListCategories(ctx context.Context, categoryType string) ([]core.Category, error) {
	var out []core.Category
	var q url.Values
	if categoryType != "" {
		q = url.Values{"category_type": {categoryType}}
	}
	return out, c.get(ctx, "/api/categories", q, &out)
}

func (c *Client) CreateCategory(ctx context.Context, in core.CategoryInput) (core.Category, error) {
	var out core.Category
	if err := in.Validate(); err != nil {
		return out, err
	}
	return out, c.post(ctx, "/api/categories", in, &out)
}
