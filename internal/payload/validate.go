package payload

import (
	"strings"

	"github.com/aliskhannn/contentful-watermark/internal/model"
)

const (
	// SupportedContentType is the only source format that gets watermarked.
	SupportedContentType = "image/jpeg"
	// MinWidth is the smallest source width, in pixels, worth watermarking.
	MinWidth = 2000
)

// Skip reasons reported back to the webhook sender.
const (
	ReasonNotJPEG    = "Skipped – no jpeg"
	ReasonMarked     = "Skipped - marked already"
	ReasonTooSmall   = "Skipped – image too small"
	ReasonDuplicate  = "Skipped - watermark already exists"
	ReasonInProgress = "Skipped - watermark in progress"
)

// Decision is the outcome of Validate.
type Decision struct {
	Proceed bool
	Reason  string // set when Proceed is false
}

// Validate applies the skip rules in order; the first matching rule wins.
func Validate(p model.WebhookPayload) Decision {
	switch {
	case p.ContentType != SupportedContentType:
		return Decision{Reason: ReasonNotJPEG}
	case strings.HasPrefix(p.FileName, model.WatermarkMarker):
		return Decision{Reason: ReasonMarked}
	case p.Width < MinWidth:
		return Decision{Reason: ReasonTooSmall}
	}
	return Decision{Proceed: true}
}
