package webhook_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aliskhannn/contentful-watermark/internal/api/handlers/webhook"
	"github.com/aliskhannn/contentful-watermark/internal/api/router"
	"github.com/aliskhannn/contentful-watermark/internal/model"
)

type mockService struct {
	handleFunc func(ctx context.Context, body []byte) model.Result
	bodies     []string
}

func (m *mockService) Handle(ctx context.Context, body []byte) model.Result {
	m.bodies = append(m.bodies, string(body))
	return m.handleFunc(ctx, body)
}

func TestWatermarkEndpoint(t *testing.T) {
	tests := []struct {
		name   string
		result model.Result
	}{
		{"created", model.Result{StatusCode: 201, Message: "Created"}},
		{"skipped", model.Result{StatusCode: 200, Message: "Skipped – no jpeg"}},
		{"failed", model.Result{StatusCode: 500, Message: "watermark configuration error: entry cfg not found"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockService{handleFunc: func(context.Context, []byte) model.Result { return tt.result }}
			r := router.Setup(webhook.NewHandler(svc))

			body := `{"url":"//a/b.jpg"}`
			req := httptest.NewRequest(http.MethodPost, "/api/webhooks/watermark", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/vnd.contentful.management.v1+json")
			w := httptest.NewRecorder()

			r.ServeHTTP(w, req)

			if w.Code != tt.result.StatusCode {
				t.Errorf("Expected status %d, got %d", tt.result.StatusCode, w.Code)
			}

			var got model.Result
			if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if got != tt.result {
				t.Errorf("Expected %+v, got %+v", tt.result, got)
			}

			if len(svc.bodies) != 1 || svc.bodies[0] != body {
				t.Errorf("Expected raw body to reach the service, got %v", svc.bodies)
			}
		})
	}
}

func TestWatermarkEndpoint_BodyTooLarge(t *testing.T) {
	svc := &mockService{handleFunc: func(context.Context, []byte) model.Result {
		t.Fatal("service must not be called")
		return model.Result{}
	}}
	r := router.Setup(webhook.NewHandler(svc))

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/watermark", strings.NewReader(strings.Repeat("a", 1<<20+1)))
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("Expected 413, got %d", w.Code)
	}
}

func TestHealth(t *testing.T) {
	r := router.Setup(webhook.NewHandler(&mockService{}))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}
}
