package contentful

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-resty/resty/v2"
)

// Delivery reads published entries and assets through the Content Delivery API.
type Delivery struct {
	http        *resty.Client
	spaceID     string
	environment string
}

// NewDelivery creates a Delivery client scoped to one space and environment.
func NewDelivery(baseURL, spaceID, environment, token string) *Delivery {
	return &Delivery{
		http:        newHTTPClient(baseURL, token),
		spaceID:     spaceID,
		environment: environment,
	}
}

// Entries searches entries with the given query parameters.
func (d *Delivery) Entries(ctx context.Context, query map[string]string) (Collection[Entry], error) {
	return search[Entry](ctx, d, "entries", query)
}

// Assets searches assets with the given query parameters.
func (d *Delivery) Assets(ctx context.Context, query map[string]string) (Collection[PublishedAsset], error) {
	return search[PublishedAsset](ctx, d, "assets", query)
}

func search[T any](ctx context.Context, d *Delivery, resource string, query map[string]string) (Collection[T], error) {
	path := fmt.Sprintf("/spaces/%s/environments/%s/%s", d.spaceID, d.environment, resource)

	resp, err := d.http.R().
		SetContext(ctx).
		SetQueryParams(query).
		Get(path)
	if err := check("get "+resource, resp, err); err != nil {
		return Collection[T]{}, err
	}

	var c Collection[T]
	if err := json.Unmarshal(resp.Body(), &c); err != nil {
		return Collection[T]{}, fmt.Errorf("decode %s: %w", resource, err)
	}

	return c, nil
}
