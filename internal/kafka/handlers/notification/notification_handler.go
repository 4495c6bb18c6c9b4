package notification

import (
	"context"
	"fmt"
	"net/http"

	"github.com/segmentio/kafka-go"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/contentful-watermark/internal/model"
)

// service defines the interface for running the watermark pipeline.
type service interface {
	Handle(ctx context.Context, body []byte) model.Result
}

// Handler handles Kafka messages carrying publish notifications.
type Handler struct {
	service service
}

// NewHandler creates a new handler with the given service.
func NewHandler(s service) *Handler {
	return &Handler{service: s}
}

// Handle runs the pipeline on the message value, which has the same shape
// as the webhook body. A 5xx result is returned as an error.
func (h *Handler) Handle(ctx context.Context, msg kafka.Message) error {
	res := h.service.Handle(ctx, msg.Value)
	if res.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("process notification: %s", res.Message)
	}

	zlog.Logger.Info().
		Int64("offset", msg.Offset).
		Int("status", res.StatusCode).
		Msgf("notification processed: %s", res.Message)

	return nil
}
