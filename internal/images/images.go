// Package images turns image inputs into the data URLs the model expects
package images

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"deepseek-ocr-api/internal/shared"

	"golang.org/x/sync/errgroup"
)

var mimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/bmp",
}

// IsDataURL reports whether s is already of the form data:<mime>;base64,<payload>
func IsDataURL(s string) bool {
	if !strings.HasPrefix(s, "data:") {
		return false
	}
	header, _, found := strings.Cut(s, ",")
	return found && strings.HasSuffix(header, ";base64")
}

// ToDataURL wraps bare base64 in a data URL of the given mime type and leaves
// existing data URLs untouched.
func ToDataURL(image, mime string) string {
	if IsDataURL(image) {
		return image
	}
	if mime == "" {
		mime = shared.DefaultImageMIME
	}
	return fmt.Sprintf("data:%s;base64,%s", mime, image)
}

// MimeFromPath guesses the image mime type from the file extension, falling
// back to jpeg
func MimeFromPath(path string) string {
	if mime, ok := mimeTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return mime
	}
	return "image/jpeg"
}

// EncodeFile reads one image file into a data URL
func EncodeFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("image file not found: %s: %w", path, err)
	}
	return ToDataURL(base64.StdEncoding.EncodeToString(data), MimeFromPath(path)), nil
}

// EncodeFiles encodes every path concurrently. The result keeps the order of
// paths regardless of which read finishes first.
func EncodeFiles(ctx context.Context, paths []string) ([]string, error) {
	out := make([]string, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			encoded, err := EncodeFile(path)
			if err != nil {
				return err
			}
			out[i] = encoded
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
