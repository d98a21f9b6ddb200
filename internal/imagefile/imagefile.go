// Package imagefile reads the problem image from disk.
package imagefile

import (
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/FrenchMajesty/problem-matcher/pkg/types"
)

// MaxSize is the largest image accepted, in bytes
const MaxSize = 10 << 20

var (
	ErrNotImage = errors.New("file is not an image")
	ErrTooLarge = errors.New("image too large")
)

// Load reads the image at path and detects its MIME type from its content,
// falling back to the file extension.
func Load(path string) (types.Image, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return types.Image{}, fmt.Errorf("%w: image %q not found", types.ErrMissingResource, path)
		}
		return types.Image{}, fmt.Errorf("%w: stat image %q: %w", types.ErrMissingResource, path, err)
	}
	if info.IsDir() {
		return types.Image{}, fmt.Errorf("%w: %q is a directory", types.ErrMissingResource, path)
	}
	if info.Size() > MaxSize {
		return types.Image{}, fmt.Errorf("%w: %q is %d bytes, limit is %d", ErrTooLarge, path, info.Size(), MaxSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return types.Image{}, fmt.Errorf("%w: read image %q: %w", types.ErrMissingResource, path, err)
	}
	if len(data) == 0 {
		return types.Image{}, fmt.Errorf("%w: image %q is empty", types.ErrMissingResource, path)
	}

	mimeType := DetectMimeType(path, data)
	if !strings.HasPrefix(mimeType, "image/") {
		return types.Image{}, fmt.Errorf("%w: %q looks like %s", ErrNotImage, path, mimeType)
	}

	return types.Image{
		Path:     path,
		MimeType: mimeType,
		Data:     data,
	}, nil
}

// DetectMimeType sniffs data and uses the extension of path when sniffing
// does not identify an image.
func DetectMimeType(path string, data []byte) string {
	sniffed := http.DetectContentType(data)
	if strings.HasPrefix(sniffed, "image/") {
		return sniffed
	}

	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); strings.HasPrefix(byExt, "image/") {
		return byExt
	}

	// text/plain; charset=utf-8 and friends
	if i := strings.IndexByte(sniffed, ';'); i >= 0 {
		sniffed = sniffed[:i]
	}
	return sniffed
}
