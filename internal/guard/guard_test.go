package guard

import (
	"context"
	"errors"
	"testing"

	"github.com/aliskhannn/contentful-watermark/internal/contentful"
	"github.com/aliskhannn/contentful-watermark/internal/model"
)

type mockSearcher struct {
	assetsFunc func(ctx context.Context, query map[string]string) (contentful.Collection[contentful.PublishedAsset], error)
}

func (m *mockSearcher) Assets(ctx context.Context, query map[string]string) (contentful.Collection[contentful.PublishedAsset], error) {
	return m.assetsFunc(ctx, query)
}

func TestGuard_Exists(t *testing.T) {
	id := model.CandidateOutputIdentity{FileName: "[WATERMARKED] cover.jpg", Width: 2400, Height: 1600}

	tests := []struct {
		name  string
		items []contentful.PublishedAsset
		want  bool
	}{
		{"absent", nil, false},
		{"exists", []contentful.PublishedAsset{{Sys: contentful.Sys{ID: "a1"}}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotQuery map[string]string
			g := New(&mockSearcher{assetsFunc: func(_ context.Context, q map[string]string) (contentful.Collection[contentful.PublishedAsset], error) {
				gotQuery = q
				return contentful.Collection[contentful.PublishedAsset]{Total: len(tt.items), Items: tt.items}, nil
			}})

			got, err := g.Exists(context.Background(), id)
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}

			if gotQuery["fields.file.fileName"] != "[WATERMARKED] cover.jpg" ||
				gotQuery["fields.file.details.image.width"] != "2400" ||
				gotQuery["fields.file.details.image.height"] != "1600" {
				t.Errorf("unexpected query %v", gotQuery)
			}
		})
	}
}

func TestGuard_Exists_Error(t *testing.T) {
	cause := errors.New("connection refused")
	g := New(&mockSearcher{assetsFunc: func(context.Context, map[string]string) (contentful.Collection[contentful.PublishedAsset], error) {
		return contentful.Collection[contentful.PublishedAsset]{}, cause
	}})

	_, err := g.Exists(context.Background(), model.CandidateOutputIdentity{FileName: "x"})
	if !errors.Is(err, ErrLookup) || !errors.Is(err, cause) {
		t.Fatalf("Expected ErrLookup wrapping the cause, got %v", err)
	}
}
