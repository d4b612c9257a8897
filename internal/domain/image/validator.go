package image

import (
	"bytes"
	"fmt"
	"image"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"tryon-client/internal/platform/errors"
)

// Validate enforces the submission invariant: a non-empty payload whose MIME
// type is an image type. Content itself is left to the remote service.
func Validate(part Part) error {
	if len(part.Bytes) == 0 {
		return errors.New(errors.KindAsset, "image.validate", fmt.Sprintf("%s: empty image payload", part.label()))
	}
	if !strings.HasPrefix(strings.ToLower(part.MIMEType), "image/") {
		return errors.New(errors.KindAsset, "image.validate",
			fmt.Sprintf("%s: unsupported media type %q", part.label(), part.MIMEType))
	}
	return nil
}

// Inspect sniffs format and dimensions for diagnostics. It never fails;
// unknown content yields only the size.
func Inspect(part Part) Metadata {
	meta := Metadata{Size: len(part.Bytes)}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(part.Bytes))
	if err != nil {
		return meta
	}
	meta.Format = format
	meta.Width = cfg.Width
	meta.Height = cfg.Height
	return meta
}

func (p Part) label() string {
	if p.Filename == "" {
		return "image"
	}
	return p.Filename
}
