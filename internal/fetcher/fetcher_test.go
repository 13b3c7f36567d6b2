package fetcher

import (
	"bytes"
	"context"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lensreport/internal/model"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func translucentImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: 0x80, G: 0x40, B: 0x20, A: 0x10})
		}
	}
	return img
}

func serve(t *testing.T, status int, body []byte) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write(body)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestFetch_SavesOpaquePNG(t *testing.T) {
	server := serve(t, http.StatusOK, encodePNG(t, translucentImage(3, 2)))
	dest := TempPath(t.TempDir(), "abc")

	ok, err := New(5*time.Second).Fetch(context.Background(), model.ImageRef{ID: "abc", URL: server.URL}, dest)
	require.NoError(t, err)
	require.True(t, ok)

	f, err := os.Open(dest)
	require.NoError(t, err)
	defer f.Close()

	saved, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 3, 2), saved.Bounds())

	_, _, _, a := saved.At(1, 1).RGBA()
	assert.Equal(t, uint32(0xffff), a)
	r, g, b, _ := saved.At(0, 0).RGBA()
	assert.Equal(t, uint32(0x80), r>>8)
	assert.Equal(t, uint32(0x40), g>>8)
	assert.Equal(t, uint32(0x20), b>>8)
}

func TestFetch_NonOKIsSkipped(t *testing.T) {
	server := serve(t, http.StatusNotFound, []byte("missing"))
	dest := TempPath(t.TempDir(), "gone")

	ok, err := New(5*time.Second).Fetch(context.Background(), model.ImageRef{ID: "gone", URL: server.URL}, dest)

	assert.NoError(t, err)
	assert.False(t, ok)
	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr))
}

func TestFetch_NonImagePayload(t *testing.T) {
	server := serve(t, http.StatusOK, []byte("<!DOCTYPE html><html><body>virus scan warning</body></html>"))
	dest := TempPath(t.TempDir(), "html")

	ok, err := New(5*time.Second).Fetch(context.Background(), model.ImageRef{ID: "html", URL: server.URL}, dest)

	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrUnsupportedImage)
}

func TestFetch_TruncatedPayload(t *testing.T) {
	server := serve(t, http.StatusOK, []byte{0xff, 0xd8})
	dest := TempPath(t.TempDir(), "short")

	ok, err := New(5*time.Second).Fetch(context.Background(), model.ImageRef{ID: "short", URL: server.URL}, dest)

	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrUnsupportedImage)
	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr))
}

func TestTempPath(t *testing.T) {
	assert.Equal(t, filepath.Join("work", "temp_image_x1.png"), TempPath("work", "x1"))
}

func TestApplyOrientation(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 2))

	assert.Equal(t, image.Rect(0, 0, 4, 2), applyOrientation(img, 1).Bounds())
	assert.Equal(t, image.Rect(0, 0, 4, 2), applyOrientation(img, 3).Bounds())
	assert.Equal(t, image.Rect(0, 0, 2, 4), applyOrientation(img, 6).Bounds())
	assert.Equal(t, image.Rect(0, 0, 2, 4), applyOrientation(img, 8).Bounds())
}

func TestNormalize_RotatesByExifOrientation(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 2)), nil))
	data := withExifOrientation(buf.Bytes(), 6)

	assert.Equal(t, 6, readOrientation(data))

	img, err := Normalize(data)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 2, 4), img.Bounds())
}

func TestReadOrientation_NoExif(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2)), nil))

	assert.Equal(t, 1, readOrientation(buf.Bytes()))
}

// withExifOrientation splices an APP1 segment carrying a single
// Orientation tag right after the JPEG SOI marker.
func withExifOrientation(jpg []byte, orientation uint16) []byte {
	var tiff bytes.Buffer
	tiff.Write([]byte{0x49, 0x49, 0x2a, 0x00})
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(8))
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(1))
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(0x0112))
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(3))
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(1))
	_ = binary.Write(&tiff, binary.LittleEndian, orientation)
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(0))
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(0))

	payload := append([]byte("Exif\x00\x00"), tiff.Bytes()...)

	var out bytes.Buffer
	out.Write(jpg[:2])
	out.Write([]byte{0xff, 0xe1})
	_ = binary.Write(&out, binary.BigEndian, uint16(len(payload)+2))
	out.Write(payload)
	out.Write(jpg[2:])
	return out.Bytes()
}
