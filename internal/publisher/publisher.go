// Package publisher stores watermarked images back in the content store as new assets.
package publisher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/contentful-watermark/internal/contentful"
	"github.com/aliskhannn/contentful-watermark/internal/model"
)

// ErrPublish is returned when any of the content store write calls fails.
var ErrPublish = errors.New("publish failed")

// Stager makes file bytes available to the content store.
type Stager interface {
	Stage(ctx context.Context, fileName, contentType string, body io.Reader, size int64) (contentful.Source, error)
}

// assetWriter creates, processes and publishes assets.
type assetWriter interface {
	CreateAsset(ctx context.Context, fields contentful.AssetFields) (contentful.Asset, error)
	ProcessForAllLocales(ctx context.Context, a contentful.Asset) (contentful.Asset, error)
	PublishAsset(ctx context.Context, a contentful.Asset) (contentful.Asset, error)
}

// Publisher creates, processes and publishes a new asset.
// A failure after creation leaves the draft asset in place.
type Publisher struct {
	stager Stager
	writer assetWriter
	locale string
}

// New creates a Publisher writing single-locale field values in locale.
func New(s Stager, w assetWriter, locale string) *Publisher {
	return &Publisher{stager: s, writer: w, locale: locale}
}

// Publish runs the create → process → publish sequence for a.
func (p *Publisher) Publish(ctx context.Context, a model.NewAsset) (model.AssetRecord, error) {
	body, size := asStream(a.Content)

	src, err := p.stager.Stage(ctx, a.FileName, a.ContentType, body, size)
	if err != nil {
		return model.AssetRecord{}, fmt.Errorf("%w: stage file: %w", ErrPublish, err)
	}
	if src.Cleanup != nil {
		defer func() {
			if err := src.Cleanup(context.WithoutCancel(ctx)); err != nil {
				zlog.Logger.Warn().Err(err).Str("file_name", a.FileName).Msg("failed to clean up staged file")
			}
		}()
	}

	file := contentful.File{
		FileName:    a.FileName,
		ContentType: a.ContentType,
		Upload:      src.URL,
		UploadFrom:  src.UploadFrom,
	}

	created, err := p.writer.CreateAsset(ctx, contentful.AssetFields{
		Title:       map[string]string{p.locale: a.Title},
		Description: map[string]string{p.locale: a.Description},
		File:        map[string]contentful.File{p.locale: file},
	})
	if err != nil {
		return model.AssetRecord{}, fmt.Errorf("%w: create asset: %w", ErrPublish, err)
	}

	processed, err := p.writer.ProcessForAllLocales(ctx, created)
	if err != nil {
		return model.AssetRecord{}, fmt.Errorf("%w: process asset %s: %w", ErrPublish, created.Sys.ID, err)
	}

	published, err := p.writer.PublishAsset(ctx, processed)
	if err != nil {
		return model.AssetRecord{}, fmt.Errorf("%w: publish asset %s: %w", ErrPublish, processed.Sys.ID, err)
	}

	return model.AssetRecord{
		ID:       published.Sys.ID,
		Version:  published.Sys.Version,
		Title:    a.Title,
		FileName: a.FileName,
		URL:      published.Fields.File[p.locale].URL,
	}, nil
}

// asStream adapts an in-memory buffer to the streaming upload interface.
func asStream(b []byte) (io.Reader, int64) {
	return bytes.NewReader(b), int64(len(b))
}
