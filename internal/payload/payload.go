// Package payload turns the raw webhook body into a WebhookPayload and decides
// whether the notified asset is worth watermarking.
package payload

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/aliskhannn/contentful-watermark/internal/model"
)

// ErrMalformedPayload is returned when the body is not a complete notification.
var ErrMalformedPayload = errors.New("malformed payload")

// schema mirrors the inbound JSON. Pointers distinguish a missing field from a zero value.
type schema struct {
	URL         *string `json:"url" validate:"required,min=1"`
	Title       *string `json:"title" validate:"required"`
	Description *string `json:"description" validate:"required"`
	FileName    *string `json:"fileName" validate:"required,min=1"`
	ContentType *string `json:"contentType" validate:"required,min=1"`
	Width       *int    `json:"width" validate:"required,min=0"`
	Height      *int    `json:"height" validate:"required,min=0"`
}

var validate = validator.New()

// Parse decodes and validates the webhook body.
// Unknown fields are ignored.
func Parse(body []byte) (model.WebhookPayload, error) {
	var s schema
	if err := json.Unmarshal(body, &s); err != nil {
		return model.WebhookPayload{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
			}
			return model.WebhookPayload{}, fmt.Errorf("%w: invalid fields: %s", ErrMalformedPayload, strings.Join(fields, ", "))
		}
		return model.WebhookPayload{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	return model.WebhookPayload{
		URL:         *s.URL,
		Title:       *s.Title,
		Description: *s.Description,
		FileName:    *s.FileName,
		ContentType: *s.ContentType,
		Width:       *s.Width,
		Height:      *s.Height,
	}, nil
}
