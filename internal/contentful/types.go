package contentful

import (
	"context"
	"encoding/json"
)

// Sys is the system metadata block carried by every Contentful resource and link.
type Sys struct {
	ID       string `json:"id"`
	Type     string `json:"type,omitempty"`
	LinkType string `json:"linkType,omitempty"`
	Version  int    `json:"version,omitempty"`
}

// Link references another resource by id.
type Link struct {
	Sys Sys `json:"sys"`
}

// NewLink builds a link to a resource of the given type.
func NewLink(linkType, id string) Link {
	return Link{Sys: Sys{ID: id, Type: "Link", LinkType: linkType}}
}

// File is the file field of an asset. Before processing it carries either
// Upload (a public URL) or UploadFrom (an upload resource link); after
// processing URL and Details are filled in by Contentful.
type File struct {
	URL         string       `json:"url,omitempty"`
	FileName    string       `json:"fileName"`
	ContentType string       `json:"contentType"`
	Upload      string       `json:"upload,omitempty"`
	UploadFrom  *Link        `json:"uploadFrom,omitempty"`
	Details     *FileDetails `json:"details,omitempty"`
}

// FileDetails holds metadata computed during processing.
type FileDetails struct {
	Size  int64         `json:"size,omitempty"`
	Image *ImageDetails `json:"image,omitempty"`
}

// ImageDetails holds image dimensions in pixels.
type ImageDetails struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Source tells Contentful where to take a new asset's bytes from.
// Exactly one of UploadFrom and URL is set.
type Source struct {
	UploadFrom *Link
	URL        string

	// Cleanup, if set, releases the staged bytes once Contentful has processed them.
	Cleanup func(ctx context.Context) error
}

// Collection is a Delivery API search result. Entries and assets differ in
// shape, so the item type is a parameter.
type Collection[T any] struct {
	Total    int      `json:"total"`
	Items    []T      `json:"items"`
	Includes Includes `json:"includes"`
}

// Entry is a published entry. Fields depend on the content type and are
// kept raw; the service only follows an entry's links.
type Entry struct {
	Sys    Sys             `json:"sys"`
	Fields json.RawMessage `json:"fields,omitempty"`
}

// PublishedAsset is an asset as served by the Delivery API, with fields
// already resolved to a single locale.
type PublishedAsset struct {
	Sys    Sys                  `json:"sys"`
	Fields PublishedAssetFields `json:"fields"`
}

// PublishedAssetFields covers the asset fields this service reads.
type PublishedAssetFields struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	File        *File  `json:"file,omitempty"`
}

// Includes holds linked resources resolved by the Delivery API.
type Includes struct {
	Asset []PublishedAsset `json:"Asset,omitempty"`
	Entry []Entry          `json:"Entry,omitempty"`
}

// Asset is a Management API asset with localized fields.
type Asset struct {
	Sys    Sys         `json:"sys"`
	Fields AssetFields `json:"fields"`
}

// AssetFields are keyed by locale code.
type AssetFields struct {
	Title       map[string]string `json:"title,omitempty"`
	Description map[string]string `json:"description,omitempty"`
	File        map[string]File   `json:"file"`
}

// Processed reports whether every locale's file has been processed.
func (a Asset) Processed() bool {
	if len(a.Fields.File) == 0 {
		return false
	}
	for _, f := range a.Fields.File {
		if f.URL == "" {
			return false
		}
	}
	return true
}
