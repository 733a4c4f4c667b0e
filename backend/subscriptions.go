package backend

import (
	"context"
	"strconv"
)

const subscriptionsPath = "/api/subscriptions"

func (c *Client) ListSubscriptions(ctx context.Context) ([]Subscription, error) {
	return getJSON[[]Subscription](ctx, c, subscriptionsPath)
}

func (c *Client) ListActiveSubscriptions(ctx context.Context) ([]Subscription, error) {
	return getJSON[[]Subscription](ctx, c, subscriptionsPath+"/active")
}

func (c *Client) ListCustomerSubscriptions(ctx context.Context, customerID string) ([]Subscription, error) {
	return getJSON[[]Subscription](ctx, c, subscriptionsPath+"/client/"+segment(customerID))
}

func (c *Client) GetSubscription(ctx context.Context, id int64) (*Subscription, error) {
	return getJSON[*Subscription](ctx, c, subscriptionsPath+"/"+strconv.FormatInt(id, 10))
}

func (c *Client) CreateSubscription(ctx context.Context, sub NewSubscription) (*Subscription, error) {
	return postJSON[*Subscription](ctx, c, subscriptionsPath, nil, sub)
}

func (c *Client) ActivateSubscription(ctx context.Context, id int64) (*Subscription, error) {
	return c.transition(ctx, id, "activate")
}

func (c *Client) SuspendSubscription(ctx context.Context, id int64) (*Subscription, error) {
	return c.transition(ctx, id, "suspend")
}

func (c *Client) TerminateSubscription(ctx context.Context, id int64) (*Subscription, error) {
	return c.transition(ctx, id, "terminate")
}

func (c *Client) transition(ctx context.Context, id int64, action string) (*Subscription, error) {
	return postJSON[*Subscription](ctx, c, subscriptionsPath+"/"+strconv.FormatInt(id, 10)+"/"+action, nil, nil)
}
