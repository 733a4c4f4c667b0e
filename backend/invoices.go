package backend

import (
	"context"
	"net/url"
	"strconv"
)

const invoicesPath = "/api/invoices"

func (c *Client) ListInvoices(ctx context.Context) ([]Invoice, error) {
	return getJSON[[]Invoice](ctx, c, invoicesPath)
}

func (c *Client) ListCustomerInvoices(ctx context.Context, customerID string) ([]Invoice, error) {
	return getJSON[[]Invoice](ctx, c, invoicesPath+"/client/"+segment(customerID))
}

func (c *Client) ListUnpaidInvoices(ctx context.Context, customerID string) ([]Invoice, error) {
	return getJSON[[]Invoice](ctx, c, invoicesPath+"/client/"+segment(customerID)+"/unpaid")
}

// OutstandingBalance is the sum the customer still owes.
func (c *Client) OutstandingBalance(ctx context.Context, customerID string) (float64, error) {
	return getJSON[float64](ctx, c, invoicesPath+"/client/"+segment(customerID)+"/balance")
}

func (c *Client) GetInvoice(ctx context.Context, id int64) (*InvoiceDetails, error) {
	return getJSON[*InvoiceDetails](ctx, c, invoicesPath+"/"+strconv.FormatInt(id, 10))
}

func (c *Client) MarkInvoicePaid(ctx context.Context, id int64, paymentRef string) (*Invoice, error) {
	query := url.Values{"paymentRef": []string{paymentRef}}
	return postJSON[*Invoice](ctx, c, invoicesPath+"/"+strconv.FormatInt(id, 10)+"/pay", query, nil)
}
