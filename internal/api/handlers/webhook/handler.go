package webhook

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/contentful-watermark/internal/api/respond"
	"github.com/aliskhannn/contentful-watermark/internal/model"
)

// maxBodySize bounds the notification body; real payloads are a few hundred bytes.
const maxBodySize = 1 << 20

// service defines the interface for running the watermark pipeline.
type service interface {
	Handle(ctx context.Context, body []byte) model.Result
}

// Handler provides HTTP handlers for webhook endpoints.
type Handler struct {
	service service
}

// NewHandler creates a new Handler with the given service.
func NewHandler(s service) *Handler {
	return &Handler{service: s}
}

// Watermark handles a publish notification. The response status and body
// are the pipeline result.
func (h *Handler) Watermark(c *ginext.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodySize+1))
	if err != nil {
		zlog.Logger.Err(err).Msg("failed to read webhook body")
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("failed to read body"))
		return
	}
	if len(body) > maxBodySize {
		zlog.Logger.Warn().Int("size", len(body)).Msg("webhook body too large")
		respond.Fail(c, http.StatusRequestEntityTooLarge, fmt.Errorf("body too large"))
		return
	}

	res := h.service.Handle(c.Request.Context(), body)

	respond.Result(c, res)
}

// Health reports that the process is up.
func (h *Handler) Health(c *ginext.Context) {
	respond.JSON(c, http.StatusOK, map[string]string{"status": "ok"})
}
