package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

const customersPath = "/api/customers"

func (c *Client) ListCustomers(ctx context.Context) ([]Customer, error) {
	return getJSON[[]Customer](ctx, c, customersPath)
}

func (c *Client) ListActiveCustomers(ctx context.Context) ([]Customer, error) {
	return getJSON[[]Customer](ctx, c, customersPath+"/active")
}

// GetCustomer returns a customer with its subscriptions and invoices.
func (c *Client) GetCustomer(ctx context.Context, ref string) (*CustomerDetails, error) {
	return getJSON[*CustomerDetails](ctx, c, customersPath+"/ref/"+segment(ref))
}

func (c *Client) GetCustomerByID(ctx context.Context, id int64) (*Customer, error) {
	return getJSON[*Customer](ctx, c, customersPath+"/"+strconv.FormatInt(id, 10))
}

func (c *Client) CreateCustomer(ctx context.Context, customer Customer) (*Customer, error) {
	return postJSON[*Customer](ctx, c, customersPath, nil, customer)
}

func (c *Client) SuspendCustomer(ctx context.Context, ref, reason string) error {
	query := url.Values{}
	if reason != "" {
		query.Set("reason", reason)
	}
	return c.do(ctx, http.MethodPost, customersPath+"/ref/"+segment(ref)+"/suspend", query, nil, nil)
}

func (c *Client) ReactivateCustomer(ctx context.Context, ref string) error {
	return c.do(ctx, http.MethodPost, customersPath+"/ref/"+segment(ref)+"/reactivate", nil, nil, nil)
}
