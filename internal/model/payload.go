package model

// WatermarkMarker is prepended to the title and file name of every asset
// this service creates. It is the only signal that separates watermarked
// derivatives from originals.
const WatermarkMarker = "[WATERMARKED]"

// WebhookPayload is the publish notification sent by the content store.
type WebhookPayload struct {
	URL         string `json:"url"`         // source file URL, usually protocol-relative
	Title       string `json:"title"`       // asset title
	Description string `json:"description"` // asset description
	FileName    string `json:"fileName"`    // original file name
	ContentType string `json:"contentType"` // MIME type of the file
	Width       int    `json:"width"`       // pixels
	Height      int    `json:"height"`      // pixels
}

// Marked returns s with the watermark marker prepended.
func Marked(s string) string {
	return WatermarkMarker + " " + s
}

// Candidate returns the identity the watermarked derivative of p would have.
func (p WebhookPayload) Candidate() CandidateOutputIdentity {
	return CandidateOutputIdentity{
		FileName: Marked(p.FileName),
		Width:    p.Width,
		Height:   p.Height,
	}
}

// CandidateOutputIdentity identifies a watermarked derivative in the content store.
type CandidateOutputIdentity struct {
	FileName string
	Width    int
	Height   int
}
