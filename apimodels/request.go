package apimodels

// DefaultPageID is used when neither a page id nor a filename was supplied.
const DefaultPageID = "page"

type AnalysisRequest struct {
	// Image is the raw uploaded image; it is never stored
	Image []byte

	// Filename is the multipart filename of the image, if any
	Filename string

	// PageID is the optional caller-supplied page identifier
	PageID string
}

// EffectivePageID returns the page id, falling back to the filename and then
// to DefaultPageID.
func (r AnalysisRequest) EffectivePageID() string {
	if r.PageID != "" {
		return r.PageID
	}
	if r.Filename != "" {
		return r.Filename
	}
	return DefaultPageID
}
