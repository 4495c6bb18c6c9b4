// Package resolver reads the watermark configuration entry from the content store.
package resolver

import (
	"context"
	"errors"
	"fmt"

	"github.com/aliskhannn/contentful-watermark/internal/contentful"
	"github.com/aliskhannn/contentful-watermark/internal/model"
)

// ErrConfiguration is returned when the configuration entry or its overlay
// image cannot be resolved. There is no default overlay to fall back to.
var ErrConfiguration = errors.New("watermark configuration error")

// entrySearcher queries published entries in the content store.
type entrySearcher interface {
	Entries(ctx context.Context, query map[string]string) (contentful.Collection[contentful.Entry], error)
}

// Resolver resolves the overlay image of a fixed configuration entry.
type Resolver struct {
	store   entrySearcher
	entryID string
}

// New creates a Resolver for the configuration entry with the given id.
func New(store entrySearcher, entryID string) *Resolver {
	return &Resolver{store: store, entryID: entryID}
}

// Resolve fetches the configuration entry and returns the URL of its linked image.
// Nothing is cached; every call goes to the content store.
func (r *Resolver) Resolve(ctx context.Context) (model.WatermarkConfig, error) {
	c, err := r.store.Entries(ctx, map[string]string{
		"sys.id":  r.entryID,
		"include": "1",
	})
	if err != nil {
		return model.WatermarkConfig{}, fmt.Errorf("%w: fetch entry %s: %w", ErrConfiguration, r.entryID, err)
	}

	if len(c.Items) == 0 {
		return model.WatermarkConfig{}, fmt.Errorf("%w: entry %s not found", ErrConfiguration, r.entryID)
	}
	if len(c.Includes.Asset) == 0 {
		return model.WatermarkConfig{}, fmt.Errorf("%w: entry %s has no linked image", ErrConfiguration, r.entryID)
	}

	image := c.Includes.Asset[0]
	if image.Fields.File == nil || image.Fields.File.URL == "" {
		return model.WatermarkConfig{}, fmt.Errorf("%w: asset %s has no file url", ErrConfiguration, image.Sys.ID)
	}

	return model.WatermarkConfig{OverlayImageURL: image.Fields.File.URL}, nil
}
