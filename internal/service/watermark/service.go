// Package watermark sequences the watermark pipeline for a single
// notification and maps every outcome to a uniform result.
package watermark

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/contentful-watermark/internal/lock"
	"github.com/aliskhannn/contentful-watermark/internal/model"
	"github.com/aliskhannn/contentful-watermark/internal/payload"
)

// duplicateGuard looks up existing watermarked derivatives.
type duplicateGuard interface {
	Exists(ctx context.Context, id model.CandidateOutputIdentity) (bool, error)
}

// configResolver resolves the overlay configuration.
type configResolver interface {
	Resolve(ctx context.Context) (model.WatermarkConfig, error)
}

// compositor produces the watermarked image.
type compositor interface {
	Composite(ctx context.Context, sourceURL string, cfg model.WatermarkConfig) (model.CompositedImage, error)
}

// assetPublisher stores the watermarked image as a new asset.
type assetPublisher interface {
	Publish(ctx context.Context, a model.NewAsset) (model.AssetRecord, error)
}

// locker serializes concurrent runs for the same candidate.
type locker interface {
	Acquire(ctx context.Context, key string) (lock.Release, bool, error)
}

// notifier receives the outcome of every run.
type notifier interface {
	Notify(ctx context.Context, o model.Outcome) error
}

type state string

const (
	stateValidating        state = "validating"
	stateCheckingDuplicate state = "checking_duplicate"
	stateLocking           state = "locking"
	stateResolvingConfig   state = "resolving_config"
	stateCompositing       state = "compositing"
	statePublishing        state = "publishing"
	stateDone              state = "done"
	stateFailed            state = "failed"
)

// Service runs the pipeline: validate → check duplicate → resolve config →
// composite → publish. Components are never called out of order.
type Service struct {
	guard      duplicateGuard
	resolver   configResolver
	compositor compositor
	publisher  assetPublisher
	locker     locker
	notifier   notifier
}

// NewService creates a new Service. A nil locker disables delivery locking
// and a nil notifier disables outcome events.
func NewService(g duplicateGuard, r configResolver, c compositor, p assetPublisher, l locker, n notifier) *Service {
	if l == nil {
		l = lock.Noop{}
	}

	return &Service{
		guard:      g,
		resolver:   r,
		compositor: c,
		publisher:  p,
		locker:     l,
		notifier:   n,
	}
}

// run tracks a single invocation for logging.
type run struct {
	id        string
	state     state
	candidate model.CandidateOutputIdentity
	assetID   string
}

// Handle parses a raw notification body and runs the pipeline on it.
// A malformed body is reported like any other failure.
func (s *Service) Handle(ctx context.Context, body []byte) model.Result {
	r := &run{id: uuid.NewString(), state: stateValidating}

	p, err := payload.Parse(body)
	if err != nil {
		return s.finish(ctx, r, model.Result{}, err)
	}

	return s.execute(ctx, r, p)
}

// Watermark runs the pipeline on an already decoded payload.
func (s *Service) Watermark(ctx context.Context, p model.WebhookPayload) model.Result {
	return s.execute(ctx, &run{id: uuid.NewString(), state: stateValidating}, p)
}

func (s *Service) execute(ctx context.Context, r *run, p model.WebhookPayload) (res model.Result) {
	r.candidate = p.Candidate()

	zlog.Logger.Info().
		Str("invocation_id", r.id).
		Str("file_name", p.FileName).
		Str("content_type", p.ContentType).
		Int("width", p.Width).
		Int("height", p.Height).
		Msg("received webhook")

	defer func() {
		if v := recover(); v != nil {
			res = s.finish(ctx, r, model.Result{}, fmt.Errorf("panic while %s: %v", r.state, v))
		}
	}()

	res, err := s.pipeline(ctx, r, p)
	return s.finish(ctx, r, res, err)
}

func (s *Service) pipeline(ctx context.Context, r *run, p model.WebhookPayload) (model.Result, error) {
	if d := payload.Validate(p); !d.Proceed {
		return model.Skipped(d.Reason), nil
	}

	r.state = stateCheckingDuplicate
	exists, err := s.guard.Exists(ctx, r.candidate)
	if err != nil {
		return model.Result{}, err
	}
	if exists {
		return model.Skipped(payload.ReasonDuplicate), nil
	}

	r.state = stateLocking
	release, ok, err := s.locker.Acquire(ctx, lockKey(r.candidate))
	if err != nil {
		return model.Result{}, err
	}
	if !ok {
		return model.Skipped(payload.ReasonInProgress), nil
	}

	// After a 201 the lock is left to expire, covering the window before
	// the new asset is visible to the guard.
	created := false
	defer func() {
		if created {
			return
		}
		if err := release(context.WithoutCancel(ctx)); err != nil {
			zlog.Logger.Warn().Err(err).Str("invocation_id", r.id).Msg("failed to release delivery lock")
		}
	}()

	// A run holding the lock may have published since the first lookup.
	r.state = stateCheckingDuplicate
	exists, err = s.guard.Exists(ctx, r.candidate)
	if err != nil {
		return model.Result{}, err
	}
	if exists {
		return model.Skipped(payload.ReasonDuplicate), nil
	}

	r.state = stateResolvingConfig
	cfg, err := s.resolver.Resolve(ctx)
	if err != nil {
		return model.Result{}, err
	}

	r.state = stateCompositing
	img, err := s.compositor.Composite(ctx, p.URL, cfg)
	if err != nil {
		return model.Result{}, err
	}

	r.state = statePublishing
	rec, err := s.publisher.Publish(ctx, model.NewAsset{
		Title:       model.Marked(p.Title),
		Description: p.Description,
		FileName:    r.candidate.FileName,
		ContentType: img.ContentType,
		Content:     img.Bytes,
	})
	if err != nil {
		return model.Result{}, err
	}
	r.assetID = rec.ID
	created = true

	return model.Created(), nil
}

// finish logs the terminal outcome, emits it and returns the result.
func (s *Service) finish(ctx context.Context, r *run, res model.Result, err error) model.Result {
	if err != nil {
		zlog.Logger.Error().
			Err(err).
			Str("invocation_id", r.id).
			Str("state", string(r.state)).
			Str("file_name", r.candidate.FileName).
			Msg("watermark failed")

		r.state = stateFailed
		res = model.Failed(err)
	} else {
		r.state = stateDone
		zlog.Logger.Info().
			Str("invocation_id", r.id).
			Str("state", string(r.state)).
			Str("file_name", r.candidate.FileName).
			Str("asset_id", r.assetID).
			Int("status", res.StatusCode).
			Msg(res.Message)
	}

	if s.notifier != nil {
		o := model.Outcome{
			InvocationID: r.id,
			FileName:     r.candidate.FileName,
			AssetID:      r.assetID,
			StatusCode:   res.StatusCode,
			Message:      res.Message,
			FinishedAt:   time.Now().UTC(),
		}
		if err := s.notifier.Notify(context.WithoutCancel(ctx), o); err != nil {
			zlog.Logger.Warn().Err(err).Str("invocation_id", r.id).Msg("failed to emit outcome")
		}
	}

	return res
}

func lockKey(id model.CandidateOutputIdentity) string {
	return fmt.Sprintf("%s:%dx%d", id.FileName, id.Width, id.Height)
}
