package bluesky

const (
	EmbedImages          = "app.bsky.embed.images"
	EmbedRecord          = "app.bsky.embed.record"
	EmbedRecordWithMedia = "app.bsky.embed.recordWithMedia"
)

// Record is the response of com.atproto.repo.getRecord for a feed post.
type Record struct {
	URI   string `json:"uri"`
	CID   string `json:"cid"`
	Value Post   `json:"value"`
}

type Post struct {
	Type      string `json:"$type"`
	Text      string `json:"text"`
	CreatedAt string `json:"createdAt"`
	Embed     *Embed `json:"embed,omitempty"`
}

type Embed struct {
	Type   string     `json:"$type"`
	Images []Image    `json:"images,omitempty"`
	Record *StrongRef `json:"record,omitempty"`
	Media  *Embed     `json:"media,omitempty"`
}

// StrongRef points at another record. Inside recordWithMedia the reference
// is wrapped once more, so Record holds the inner one.
type StrongRef struct {
	URI    string     `json:"uri"`
	CID    string     `json:"cid"`
	Record *StrongRef `json:"record,omitempty"`
}

type Image struct {
	Alt   string `json:"alt"`
	Image Blob   `json:"image"`
}

type Blob struct {
	Type     string `json:"$type"`
	Ref      Link   `json:"ref"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
}

type Link struct {
	Link string `json:"$link"`
}

// AllImages returns media images when present, falling back to the
// embed's own images.
func (e *Embed) AllImages() []Image {
	if e == nil {
		return nil
	}
	if e.Media != nil && len(e.Media.Images) > 0 {
		return e.Media.Images
	}
	return e.Images
}

// Quote reports whether the embed quotes another post, and its URI if one
// could be read.
func (e *Embed) Quote() (uri string, ok bool) {
	if e == nil || e.Record == nil {
		return "", false
	}

	ref := e.Record
	if ref.Record != nil {
		ref = ref.Record
	}
	return ref.URI, true
}
