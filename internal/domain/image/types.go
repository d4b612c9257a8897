package image

// Asset is an encoded image carried as a self-describing data URI,
// e.g. "data:image/png;base64,iVBORw0...".
type Asset string

// Part is a decoded asset ready for multipart transport.
type Part struct {
	Filename string
	MIMEType string
	Bytes    []byte
}

// Metadata is the best-effort result of sniffing a part's content.
type Metadata struct {
	Format string
	Width  int
	Height int
	Size   int
}

// DefaultMIMEType is used whenever a data URI carries no usable media type.
const DefaultMIMEType = "image/jpeg"
