package financeapi

import (
	"context"
	"strconv"

	"financy/internal/core"
)

func (c *Client) ListBudgets(ctx context.Context) ([]core.Budget, error) {
	var out []core.Budget
	return out, c.get(ctx, "/api/budgets", nil, &out)
}

func (c *Client) GetBudget(ctx context.Context, id int64) (core.Budget, error) {
	var out core.Budget
	return out, c.get(ctx, budgetPath(id), nil, &out)
}

func (c *Client) CreateBudget(ctx context.Context, in core.BudgetInput) (core.Budget, error) {
	var out core.Budget
	if err := in.Validate(); err != nil {
		return out, err
	}
	return out, c.post(ctx, "/api/budgets", in, &out)
}

// UpdateBudget sends a partial update and returns the stored budget.
func (c *Client) UpdateBudget(ctx context.Context, id int64, in core.BudgetUpdate) (core.Budget, error) {
	var out core.Budget
	if err := in.Validate(); err != nil {
		return out, err
	}
	return out, c.put(ctx, budgetPath(id), in, &out)
}

func (c *Client) DeleteBudget(ctx context.Context, id int64) (core.MessageResponse, error) {
	return c.delete(ctx, budgetPath(id))
}

func budgetPath(id int64) string { return "/api/budgets/" + strconv.FormatInt(id, 10) }

func (c *Client) ListGoals(ctx context.Context) ([]core.Goal, error) {
	var out []core.Goal
	return out, c.get(ctx, "/api/goals", nil, &out)
}

func (c *Client) GetGoal(ctx context.Context, id int64) (core.Goal, error) {
	var out core.Goal
	return out, c.get(ctx, goalPath(id), nil, &out)
}

func (c *Client) CreateGoal(ctx context.Context, in core.Goal) (core.Goal, error) {
	var out core.Goal
	if err := in.Validate(); err != nil {
		return out, err
	}
	return out, c.post(ctx, "/api/goals", in, &out)
}

func (c *Client) UpdateGoal(ctx context.Context, id int64, in core.Goal) (core.Goal, error) {
	var out core.Goal
	return out, c.put(ctx, goalPath(id), in, &out)
}

func (c *Client) DeleteGoal(ctx context.Context, id int64) (core.MessageResponse, error) {
	return c.delete(ctx, goalPath(id))
}

func goalPath(id int64) string { return "/api/goals/" + strconv.FormatInt(id, 10) }
