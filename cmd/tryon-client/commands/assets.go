package commands

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"tryon-client/internal/domain/image"
)

// loadAsset accepts either a data URI or a path to an image file.
func loadAsset(arg string) (image.Asset, error) {
	if strings.HasPrefix(arg, "data:") {
		return image.Asset(arg), nil
	}
	raw, err := os.ReadFile(arg)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	return image.Encode(raw, http.DetectContentType(raw)), nil
}
