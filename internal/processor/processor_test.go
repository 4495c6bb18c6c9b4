package processor

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/aliskhannn/contentful-watermark/internal/model"
)

type mockFetcher struct {
	files map[string][]byte
	calls []string
}

func (m *mockFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	m.calls = append(m.calls, url)
	data, ok := m.files[url]
	if !ok {
		return nil, errors.New("404 not found")
	}
	return data, nil
}

func encode(t *testing.T, img image.Image, f imaging.Format) []byte {
	t.Helper()

	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, img, f); err != nil {
		t.Fatalf("encode test image: %v", err)
	}
	return buf.Bytes()
}

func gray(c color.Color) int {
	r, _, _, _ := c.RGBA()
	return int(r >> 8)
}

func within(got, want, tolerance int) bool {
	d := got - want
	if d < 0 {
		d = -d
	}
	return d <= tolerance
}

func TestComposite(t *testing.T) {
	src := imaging.New(200, 150, color.White)
	mark := imaging.New(40, 40, color.Black)

	f := &mockFetcher{files: map[string][]byte{
		"https://images.ctfassets.net/s1/cover.jpg": encode(t, src, imaging.JPEG),
		"https://images.ctfassets.net/s1/logo.png":  encode(t, mark, imaging.PNG),
	}}

	p := New(f)

	out, err := p.Composite(context.Background(), "//images.ctfassets.net/s1/cover.jpg", model.WatermarkConfig{
		OverlayImageURL: "//images.ctfassets.net/s1/logo.png",
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if out.ContentType != "image/jpeg" {
		t.Errorf("Expected image/jpeg, got %s", out.ContentType)
	}

	got, name, err := image.Decode(bytes.NewReader(out.Bytes))
	if err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if name != "jpeg" {
		t.Errorf("Expected jpeg output, got %s", name)
	}
	if got.Bounds().Dx() != 200 || got.Bounds().Dy() != 150 {
		t.Errorf("Expected dimensions to be unchanged, got %v", got.Bounds())
	}

	// White under 40% black is ~153.
	if v := gray(got.At(70, 70)); !within(v, 153, 12) {
		t.Errorf("Expected blended pixel near 153, got %d", v)
	}
	if v := gray(got.At(20, 20)); !within(v, 255, 12) {
		t.Errorf("Expected untouched pixel near 255, got %d", v)
	}
	if v := gray(got.At(120, 120)); !within(v, 255, 12) {
		t.Errorf("Expected pixel outside the overlay near 255, got %d", v)
	}

	if len(f.calls) != 2 || f.calls[0] != "https://images.ctfassets.net/s1/cover.jpg" {
		t.Errorf("Expected source fetched first, got %v", f.calls)
	}
}

func TestComposite_Blend(t *testing.T) {
	src := imaging.New(100, 100, color.White)
	mark := imaging.New(10, 10, color.Black)

	out := composite(src, mark)

	if v := gray(out.At(55, 55)); !within(v, 153, 2) {
		t.Errorf("Expected 153, got %d", v)
	}
	if v := gray(out.At(45, 45)); v != 255 {
		t.Errorf("Expected 255 before the offset, got %d", v)
	}
	if out.Bounds() != src.Bounds() {
		t.Errorf("Expected bounds %v, got %v", src.Bounds(), out.Bounds())
	}
}

func TestComposite_Errors(t *testing.T) {
	jpeg := encode(t, imaging.New(100, 100, color.White), imaging.JPEG)

	tests := []struct {
		name  string
		files map[string][]byte
	}{
		{"source fetch fails", map[string][]byte{}},
		{"source corrupt", map[string][]byte{
			"https://cdn/src.jpg":  []byte("not an image"),
			"https://cdn/logo.png": jpeg,
		}},
		{"overlay fetch fails", map[string][]byte{
			"https://cdn/src.jpg": jpeg,
		}},
		{"overlay corrupt", map[string][]byte{
			"https://cdn/src.jpg":  jpeg,
			"https://cdn/logo.png": []byte{0x89, 0x50, 0x4E, 0x47},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(&mockFetcher{files: tt.files})

			out, err := p.Composite(context.Background(), "//cdn/src.jpg", model.WatermarkConfig{OverlayImageURL: "//cdn/logo.png"})
			if !errors.Is(err, ErrImageProcessing) {
				t.Fatalf("Expected ErrImageProcessing, got %v", err)
			}
			if out.Bytes != nil {
				t.Errorf("Expected no output, got %d bytes", len(out.Bytes))
			}
		})
	}
}

func TestComposite_SourceFetchedBeforeOverlay(t *testing.T) {
	f := &mockFetcher{files: map[string][]byte{}}
	p := New(f)

	_, _ = p.Composite(context.Background(), "//cdn/src.jpg", model.WatermarkConfig{OverlayImageURL: "//cdn/logo.png"})

	if len(f.calls) != 1 {
		t.Errorf("Expected overlay not to be fetched after a failed source fetch, got %v", f.calls)
	}
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"//images.ctfassets.net/a/b.jpg", "https://images.ctfassets.net/a/b.jpg"},
		{"https://images.ctfassets.net/a/b.jpg", "https://images.ctfassets.net/a/b.jpg"},
		{"http://localhost:8080/b.jpg", "http://localhost:8080/b.jpg"},
		{"images.ctfassets.net/a/b.jpg", "https://images.ctfassets.net/a/b.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := NormalizeURL(tt.input); got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestHTTPFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.jpg" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("image-bytes"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher()

	data, err := f.Fetch(context.Background(), srv.URL+"/cover.jpg")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if string(data) != "image-bytes" {
		t.Errorf("unexpected body %q", data)
	}

	if _, err := f.Fetch(context.Background(), srv.URL+"/missing.jpg"); err == nil {
		t.Error("Expected error for 404 response")
	}
}
