// Package guard looks up previously created watermarked assets so that a
// notification is never processed twice.
package guard

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/aliskhannn/contentful-watermark/internal/contentful"
	"github.com/aliskhannn/contentful-watermark/internal/model"
)

// ErrLookup is returned when the content store cannot be queried.
var ErrLookup = errors.New("duplicate lookup failed")

// assetSearcher queries published assets in the content store.
type assetSearcher interface {
	Assets(ctx context.Context, query map[string]string) (contentful.Collection[contentful.PublishedAsset], error)
}

// Guard checks the content store for an existing watermarked derivative.
// Only published assets are visible to it.
type Guard struct {
	store assetSearcher
}

// New creates a Guard backed by the given asset searcher.
func New(store assetSearcher) *Guard {
	return &Guard{store: store}
}

// Exists reports whether an asset with the candidate's file name and
// dimensions is already in the content store.
func (g *Guard) Exists(ctx context.Context, id model.CandidateOutputIdentity) (bool, error) {
	query := map[string]string{
		"fields.file.fileName":             id.FileName,
		"fields.file.details.image.width":  strconv.Itoa(id.Width),
		"fields.file.details.image.height": strconv.Itoa(id.Height),
		"limit":                            "1",
	}

	c, err := g.store.Assets(ctx, query)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrLookup, err)
	}

	return len(c.Items) > 0, nil
}
