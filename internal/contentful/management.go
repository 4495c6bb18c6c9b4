package contentful

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/go-resty/resty/v2"
	"github.com/wb-go/wbf/retry"
)

// ErrNotProcessed is returned while Contentful is still processing an asset file.
var ErrNotProcessed = errors.New("asset file not processed yet")

// Management writes assets through the Content Management and Upload APIs.
type Management struct {
	api         *resty.Client
	upload      *resty.Client
	spaceID     string
	environment string
	poll        retry.Strategy // how long to wait for processing to finish
}

// NewManagement creates a Management client scoped to one space and environment.
func NewManagement(apiURL, uploadURL, spaceID, environment, token string, poll retry.Strategy) *Management {
	if poll.Attempts < 1 {
		poll.Attempts = 1
	}

	return &Management{
		api:         newHTTPClient(apiURL, token),
		upload:      newHTTPClient(uploadURL, token),
		spaceID:     spaceID,
		environment: environment,
		poll:        poll,
	}
}

func (m *Management) assetsPath() string {
	return fmt.Sprintf("/spaces/%s/environments/%s/assets", m.spaceID, m.environment)
}

// Stage sends the file bytes to the Upload API and returns a source
// referencing the created upload resource. The upload resource carries
// neither name nor type; those are set on the asset itself.
func (m *Management) Stage(ctx context.Context, _, _ string, body io.Reader, _ int64) (Source, error) {
	resp, err := m.upload.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/octet-stream").
		SetBody(body).
		Post(fmt.Sprintf("/spaces/%s/uploads", m.spaceID))
	if err := check("create upload", resp, err); err != nil {
		return Source{}, err
	}

	var upload Link
	if err := json.Unmarshal(resp.Body(), &upload); err != nil {
		return Source{}, fmt.Errorf("decode upload: %w", err)
	}
	if upload.Sys.ID == "" {
		return Source{}, fmt.Errorf("create upload: empty upload id")
	}

	link := NewLink("Upload", upload.Sys.ID)
	return Source{UploadFrom: &link}, nil
}

// CreateAsset creates a draft asset with the given fields.
func (m *Management) CreateAsset(ctx context.Context, fields AssetFields) (Asset, error) {
	body, err := json.Marshal(Asset{Fields: fields})
	if err != nil {
		return Asset{}, fmt.Errorf("encode asset: %w", err)
	}

	resp, err := m.api.R().
		SetContext(ctx).
		SetHeader("Content-Type", managementContentType).
		SetBody(body).
		Post(m.assetsPath())
	if err := check("create asset", resp, err); err != nil {
		return Asset{}, err
	}

	return decodeAsset(resp)
}

// GetAsset fetches the current state of an asset, drafts included.
func (m *Management) GetAsset(ctx context.Context, id string) (Asset, error) {
	resp, err := m.api.R().
		SetContext(ctx).
		Get(m.assetsPath() + "/" + id)
	if err := check("get asset", resp, err); err != nil {
		return Asset{}, err
	}

	return decodeAsset(resp)
}

// ProcessForAllLocales triggers processing of every localized file of the
// asset and waits until Contentful reports them all processed.
func (m *Management) ProcessForAllLocales(ctx context.Context, a Asset) (Asset, error) {
	for locale := range a.Fields.File {
		resp, err := m.api.R().
			SetContext(ctx).
			SetHeader(versionHeader, strconv.Itoa(a.Sys.Version)).
			Put(fmt.Sprintf("%s/%s/files/%s/process", m.assetsPath(), a.Sys.ID, locale))
		if err := check("process asset "+locale, resp, err); err != nil {
			return Asset{}, err
		}
	}

	var (
		processed Asset
		lastErr   error
	)
	// retry.Do takes no context; a nil return ends the loop and the
	// cancellation is reported below.
	err := retry.Do(func() error {
		if ctx.Err() != nil {
			return nil
		}
		got, err := m.GetAsset(ctx, a.Sys.ID)
		if err != nil {
			lastErr = err
			return err
		}
		if !got.Processed() {
			lastErr = ErrNotProcessed
			return lastErr
		}
		processed = got
		return nil
	}, m.poll)
	if ctx.Err() != nil {
		return Asset{}, fmt.Errorf("wait for processing of %s: %w", a.Sys.ID, ctx.Err())
	}
	if err != nil {
		if lastErr == nil {
			lastErr = err
		}
		return Asset{}, fmt.Errorf("wait for processing of %s: %w", a.Sys.ID, lastErr)
	}

	return processed, nil
}

// PublishAsset publishes the given version of an asset.
func (m *Management) PublishAsset(ctx context.Context, a Asset) (Asset, error) {
	resp, err := m.api.R().
		SetContext(ctx).
		SetHeader(versionHeader, strconv.Itoa(a.Sys.Version)).
		Put(fmt.Sprintf("%s/%s/published", m.assetsPath(), a.Sys.ID))
	if err := check("publish asset", resp, err); err != nil {
		return Asset{}, err
	}

	return decodeAsset(resp)
}

func decodeAsset(resp *resty.Response) (Asset, error) {
	var a Asset
	if err := json.Unmarshal(resp.Body(), &a); err != nil {
		return Asset{}, fmt.Errorf("decode asset: %w", err)
	}
	return a, nil
}
