package utils

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// SupportedImageExtensions lists file extensions picked up during discovery.
var SupportedImageExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".gif", ".tif", ".tiff"}

// ProcessedSuffix is inserted before the extension of annotated output files.
const ProcessedSuffix = "_processed"

// IsSupportedImage reports whether the path has a supported image extension.
func IsSupportedImage(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, s := range SupportedImageExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

// ImageMetadata captures lightweight file and pixel information.
type ImageMetadata struct {
	Path        string
	Format      string
	SizeBytes   int64
	Width       int
	Height      int
	AspectRatio float64
}

// LoadImage opens and decodes an image file, returning the image and metadata.
// Decoding goes by content, not extension. Open failures are reported under
// the "load" operation and keep the underlying *fs.PathError reachable through
// errors.Is/As; undecodable content is reported under "decode".
func LoadImage(path string) (image.Image, ImageMetadata, error) {
	if path == "" {
		err := &ImageProcessingError{Operation: "load", Err: errors.New("empty path")}
		return nil, ImageMetadata{}, err
	}

	f, err := os.Open(path) //nolint:gosec // G304: Reading user-provided image file path is expected
	if err != nil {
		return nil, ImageMetadata{}, &ImageProcessingError{Operation: "load", Err: err}
	}
	defer func() {
		if err := f.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Error closing image file: %v\n", err)
		}
	}()

	fi, statErr := f.Stat()
	if statErr != nil {
		return nil, ImageMetadata{}, &ImageProcessingError{Operation: "load", Err: statErr}
	}
	if fi.IsDir() {
		return nil, ImageMetadata{}, &ImageProcessingError{Operation: "decode", Err: fmt.Errorf("%s is a directory", path)}
	}

	img, format, decErr := image.Decode(f)
	if decErr != nil {
		return nil, ImageMetadata{}, &ImageProcessingError{Operation: "decode", Err: decErr}
	}

	b := img.Bounds()
	if b.Empty() {
		return nil, ImageMetadata{}, &ImageProcessingError{Operation: "decode", Err: errors.New("image has no pixels")}
	}
	meta := ImageMetadata{
		Path:        path,
		Format:      format,
		SizeBytes:   fi.Size(),
		Width:       b.Dx(),
		Height:      b.Dy(),
		AspectRatio: float64(b.Dx()) / float64(b.Dy()),
	}

	return img, meta, nil
}

// ProcessedPath derives the annotated output path for src: same directory,
// base name with ProcessedSuffix inserted before the extension.
func ProcessedPath(src string) string {
	ext := filepath.Ext(src)
	return strings.TrimSuffix(src, ext) + ProcessedSuffix + ext
}

// SaveImage encodes img to path. The format follows the path's extension;
// when the extension is unknown to the encoder, fallbackFormat (a decoder
// format name such as "png") is used instead.
func SaveImage(path string, img image.Image, fallbackFormat string) error {
	if img == nil {
		return &ImageProcessingError{Operation: "save", Err: errors.New("input image is nil")}
	}
	if _, err := imaging.FormatFromFilename(path); err == nil {
		if err := imaging.Save(img, path); err != nil {
			return &ImageProcessingError{Operation: "save", Err: err}
		}
		return nil
	}

	format, err := imaging.FormatFromExtension(fallbackFormat)
	if err != nil {
		return &ImageProcessingError{Operation: "save", Err: fmt.Errorf("no encoder for %q: %w", path, err)}
	}
	f, err := os.Create(path) //nolint:gosec // G304: output path derived from the input path
	if err != nil {
		return &ImageProcessingError{Operation: "save", Err: err}
	}
	if err := imaging.Encode(f, img, format); err != nil {
		_ = f.Close()
		return &ImageProcessingError{Operation: "save", Err: err}
	}
	if err := f.Close(); err != nil {
		return &ImageProcessingError{Operation: "save", Err: err}
	}
	return nil
}
