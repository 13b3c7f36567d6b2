package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"lensreport/internal/model"
	"lensreport/pkg/imgutil"
)

var ErrUnsupportedImage = errors.New("payload is not a supported image")

// Fetcher downloads images and stores them as opaque RGB PNGs.
type Fetcher struct {
	httpClient *http.Client
}

func New(timeout time.Duration) *Fetcher {
	return &Fetcher{httpClient: &http.Client{Timeout: timeout}}
}

// TempPath is where the normalized copy of the image with the given id lives.
func TempPath(dir, id string) string {
	return filepath.Join(dir, fmt.Sprintf("temp_image_%s.png", id))
}

// Fetch downloads ref and writes it to destPath. A non-200 response is not
// an error: it reports false so the image is skipped.
func (f *Fetcher) Fetch(ctx context.Context, ref model.ImageRef, destPath string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref.URL, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("download %s: %w", ref.ID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[Fetcher] Skipping %s: status %d", ref.ID, resp.StatusCode)
		return false, nil
	}

	var buf bytes.Buffer
	kind, err := imgutil.SniffReader(io.TeeReader(resp.Body, &buf))
	if err != nil && !errors.Is(err, imgutil.ErrShortHeader) {
		return false, fmt.Errorf("read %s: %w", ref.ID, err)
	}
	if kind == imgutil.KindUnknown {
		return false, fmt.Errorf("decode %s: %w", ref.ID, ErrUnsupportedImage)
	}
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return false, fmt.Errorf("read %s: %w", ref.ID, err)
	}
	data := buf.Bytes()

	img, err := Normalize(data)
	if err != nil {
		return false, fmt.Errorf("decode %s: %w", ref.ID, err)
	}

	if err := imaging.Save(img, destPath); err != nil {
		return false, fmt.Errorf("save %s: %w", ref.ID, err)
	}
	return true, nil
}

// Normalize decodes data, applies its EXIF orientation and drops any alpha
// channel.
func Normalize(data []byte) (image.Image, error) {
	kind, err := imgutil.Sniff(data)
	if err != nil {
		return nil, err
	}
	if kind == imgutil.KindUnknown {
		return nil, ErrUnsupportedImage
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	if kind.HasExif() {
		img = applyOrientation(img, readOrientation(data))
	}
	return toRGB(img), nil
}

func toRGB(img image.Image) *image.NRGBA {
	out := imaging.Clone(img)
	for i := 3; i < len(out.Pix); i += 4 {
		out.Pix[i] = 0xff
	}
	return out
}
