// Package contentful is a thin client for the parts of the Contentful
// Delivery, Management and Upload APIs the watermark pipeline needs.
package contentful

import (
	"fmt"

	"github.com/go-resty/resty/v2"
)

const (
	DefaultDeliveryURL   = "https://cdn.contentful.com"
	DefaultManagementURL = "https://api.contentful.com"
	DefaultUploadURL     = "https://upload.contentful.com"

	managementContentType = "application/vnd.contentful.management.v1+json"
	versionHeader         = "X-Contentful-Version"
)

// APIError is returned when Contentful answers with a non-2xx status.
type APIError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: contentful responded %d: %s", e.Op, e.StatusCode, e.Body)
}

func newHTTPClient(baseURL, token string) *resty.Client {
	return resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(token)
}

// check converts a resty response into an error, if any.
func check(op string, resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if resp.IsError() {
		body := resp.String()
		if len(body) > 512 {
			body = body[:512]
		}
		return &APIError{Op: op, StatusCode: resp.StatusCode(), Body: body}
	}
	return nil
}
