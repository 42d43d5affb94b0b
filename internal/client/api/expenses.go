package api

import (
	"context"
	"fmt"
	"net/http"
)

func (c *HTTPClient) ListExpenseTypes(ctx context.Context) ([]ExpenseType, error) {
	var out expenseTypesResponse
	err := c.do(ctx, c.authed(request{
		method: http.MethodGet, route: "/expense-types", path: "/expense-types", out: &out,
	}))
	if err != nil {
		return nil, err
	}
	return out.ExpenseTypes, nil
}

func (c *HTTPClient) CreateExpenseType(ctx context.Context, name string, hasSubcategory bool) (string, error) {
	body := struct {
		TypeName       string `json:"type_name"`
		HasSubcategory bool   `json:"has_subcategory"`
	}{name, hasSubcategory}
	return c.mutate(ctx, http.MethodPost, "/expense-types", "/expense-types", body)
}

func (c *HTTPClient) RenameExpenseType(ctx context.Context, id int64, name string) (string, error) {
	body := struct {
		TypeName string `json:"type_name"`
	}{name}
	return c.mutate(ctx, http.MethodPut, "/expense-types/:id", fmt.Sprintf("/expense-types/%d", id), body)
}

func (c *HTTPClient) ActivateExpenseType(ctx context.Context, id int64) (string, error) {
	return c.mutate(ctx, http.MethodPatch, "/expense-types/:id/activate", fmt.Sprintf("/expense-types/%d/activate", id), nil)
}

func (c *HTTPClient) DeactivateExpenseType(ctx context.Context, id int64) (string, error) {
	return c.mutate(ctx, http.MethodDelete, "/expense-types/:id", fmt.Sprintf("/expense-types/%d", id), nil)
}

func (c *HTTPClient) ListSubcategories(ctx context.Context, expenseTypeID int64) ([]Subcategory, error) {
	var out subcategoriesResponse
	err := c.do(ctx, c.authed(request{
		method: http.MethodGet,
		route:  "/subcategories/:typeId/subcategories",
		path:   fmt.Sprintf("/subcategories/%d/subcategories", expenseTypeID),
		out:    &out,
	}))
	if err != nil {
		return nil, err
	}
	return out.Subcategories, nil
}

func (c *HTTPClient) CreateSubcategory(ctx context.Context, expenseTypeID int64, name string) (string, error) {
	body := struct {
		SubcategoryName string `json:"subcategory_name"`
	}{name}
	return c.mutate(ctx, http.MethodPost, "/subcategories/:typeId/subcategories",
		fmt.Sprintf("/subcategories/%d/subcategories", expenseTypeID), body)
}

func (c *HTTPClient) RenameSubcategory(ctx context.Context, id int64, name string) (string, error) {
	body := struct {
		SubcategoryName string `json:"subcategory_name"`
	}{name}
	return c.mutate(ctx, http.MethodPut, "/subcategories/:id", fmt.Sprintf("/subcategories/%d", id), body)
}

func (c *HTTPClient) DeactivateSubcategory(ctx context.Context, id int64) (string, error) {
	return c.mutate(ctx, http.MethodDelete, "/subcategories/:id", fmt.Sprintf("/subcategories/%d", id), nil)
}

func (c *HTTPClient) mutate(ctx context.Context, method, route, path string, body any) (string, error) {
	var out messageResponse
	err := c.do(ctx, c.authed(request{method: method, route: route, path: path, body: body, out: &out}))
	if err != nil {
		return "", err
	}
	return out.Message, nil
}
