package image

import (
	"encoding/base64"
	"mime"
	"strings"

	"tryon-client/internal/platform/errors"
)

// Encode builds a data URI from raw bytes. A malformed or absent MIME type
// becomes DefaultMIMEType; media type parameters are dropped.
func Encode(raw []byte, mimeType string) Asset {
	return Asset("data:" + normaliseMIME(mimeType) + ";base64," + base64.StdEncoding.EncodeToString(raw))
}

// Decode splits a data URI on its first comma, reads the MIME type from the
// prefix and base64-decodes the payload.
//
// A prefix without a recognisable "data:<mime>;" section decodes with
// DefaultMIMEType. Only an invalid payload is an error.
func Decode(asset Asset) (string, []byte, error) {
	prefix, payload, found := strings.Cut(string(asset), ",")
	if !found {
		// 没有逗号时整个字符串视为载荷
		prefix, payload = "", string(asset)
	}

	raw, err := decodeBase64(payload)
	if err != nil {
		return "", nil, errors.Wrap(errors.KindAsset, "image.decode", "invalid base64 payload", err)
	}
	return mimeFromPrefix(prefix), raw, nil
}

// ToPart decodes asset into a named binary part.
func ToPart(asset Asset, filename string) (Part, error) {
	mimeType, raw, err := Decode(asset)
	if err != nil {
		return Part{}, err
	}
	return Part{Filename: filename, MIMEType: mimeType, Bytes: raw}, nil
}

// mimeFromPrefix mirrors the `:(.*?);` lookup used by browser clients.
func mimeFromPrefix(prefix string) string {
	_, rest, ok := strings.Cut(prefix, ":")
	if !ok {
		return DefaultMIMEType
	}
	candidate, _, ok := strings.Cut(rest, ";")
	if !ok || strings.TrimSpace(candidate) == "" {
		return DefaultMIMEType
	}
	return candidate
}

func normaliseMIME(mimeType string) string {
	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err != nil || !strings.Contains(mediaType, "/") {
		return DefaultMIMEType
	}
	major, minor, _ := strings.Cut(mediaType, "/")
	if major == "" || minor == "" {
		return DefaultMIMEType
	}
	return mediaType
}

// decodeBase64 accepts what atob accepts: ASCII whitespace anywhere and
// optional trailing padding.
func decodeBase64(payload string) ([]byte, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\f', '\r':
			return -1
		}
		return r
	}, payload)
	if len(cleaned)%4 == 0 {
		return base64.StdEncoding.DecodeString(cleaned)
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(cleaned, "="))
}
