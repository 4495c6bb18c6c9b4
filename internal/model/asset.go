package model

// WatermarkConfig holds the overlay settings resolved from the configuration entry.
type WatermarkConfig struct {
	OverlayImageURL string
}

// CompositedImage is the encoded result of overlaying the watermark on a source image.
type CompositedImage struct {
	Bytes       []byte
	ContentType string
}

// NewAsset describes the asset the publisher creates.
type NewAsset struct {
	Title       string
	Description string
	FileName    string
	ContentType string
	Content     []byte
}

// AssetRecord is the content store's view of a created asset.
type AssetRecord struct {
	ID       string `json:"id"`
	Version  int    `json:"version"`
	Title    string `json:"title"`
	FileName string `json:"file_name"`
	URL      string `json:"url"`
}
