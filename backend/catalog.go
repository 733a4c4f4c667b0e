package backend

import (
	"context"
	"strconv"
)

const (
	offersPath   = "/api/offres"
	servicesPath = "/api/services"
)

func (c *Client) ListOffers(ctx context.Context) ([]Offer, error) {
	return getJSON[[]Offer](ctx, c, offersPath)
}

func (c *Client) ListActiveOffers(ctx context.Context) ([]Offer, error) {
	return getJSON[[]Offer](ctx, c, offersPath+"/active")
}

func (c *Client) GetOffer(ctx context.Context, id int64) (*Offer, error) {
	return getJSON[*Offer](ctx, c, offersPath+"/"+strconv.FormatInt(id, 10))
}

func (c *Client) ListServices(ctx context.Context) ([]Service, error) {
	return getJSON[[]Service](ctx, c, servicesPath)
}

func (c *Client) ListActiveServices(ctx context.Context) ([]Service, error) {
	return getJSON[[]Service](ctx, c, servicesPath+"/active")
}

func (c *Client) GetService(ctx context.Context, id int64) (*Service, error) {
	return getJSON[*Service](ctx, c, servicesPath+"/"+strconv.FormatInt(id, 10))
}

func (c *Client) GetServiceByCode(ctx context.Context, code string) (*Service, error) {
	return getJSON[*Service](ctx, c, servicesPath+"/code/"+segment(code))
}
