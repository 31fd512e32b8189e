package attachments

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Nathansuares/SkySafe/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	fw, err := w.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	return form.File["image"][0]
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	return buf.Bytes()
}

func newManager(t *testing.T, maxBytes int64) *Manager {
	t.Helper()
	m, err := NewManager(t.TempDir(), "/uploads/", maxBytes, 64)
	require.NoError(t, err)
	m.now = func() time.Time { return time.UnixMilli(1760866200000) }
	return m
}

func TestStoreImage(t *testing.T) {
	m := newManager(t, 1<<20)
	content := pngBytes(t)

	ref, err := m.StoreImage(fileHeader(t, "left gear.png", content))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(ref, "/uploads/1760866200000-"))
	assert.True(t, strings.HasSuffix(ref, "-left_gear.png"))

	stored, err := os.ReadFile(filepath.Join(m.Dir(), filepath.Base(ref)))
	require.NoError(t, err)
	assert.Equal(t, content, stored)
}

func TestStoreImageDownscalesJPEG(t *testing.T) {
	m := newManager(t, 1<<20)
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 256, 128)), nil))

	ref, err := m.StoreImage(fileHeader(t, "wing.jpg", buf.Bytes()))
	require.NoError(t, err)

	f, err := os.Open(filepath.Join(m.Dir(), filepath.Base(ref)))
	require.NoError(t, err)
	defer f.Close()
	cfg, err := jpeg.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.Width)
	assert.Equal(t, 32, cfg.Height)
}

func TestStoreImageRejectsNonImage(t *testing.T) {
	m := newManager(t, 1<<20)

	_, err := m.StoreImage(fileHeader(t, "notes.jpg", []byte("plain text pretending to be a photo")))

	assert.True(t, apperr.Is(err, apperr.KindValidation))
	entries, _ := os.ReadDir(m.Dir())
	assert.Empty(t, entries)
}

func TestStoreRejectsOversized(t *testing.T) {
	m := newManager(t, 16)

	_, err := m.StoreFile(fileHeader(t, "licence.pdf", bytes.Repeat([]byte("x"), 17)))

	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestStoreFileNamesAreUnique(t *testing.T) {
	m := newManager(t, 1<<20)

	a, err := m.StoreFile(fileHeader(t, "licence.pdf", []byte("%PDF-1.4 a")))
	require.NoError(t, err)
	b, err := m.StoreFile(fileHeader(t, "licence.pdf", []byte("%PDF-1.4 b")))
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestDelete(t *testing.T) {
	m := newManager(t, 1<<20)
	ref, err := m.StoreFile(fileHeader(t, "licence.pdf", []byte("%PDF-1.4")))
	require.NoError(t, err)

	require.NoError(t, m.Delete(ref))
	_, err = os.Stat(filepath.Join(m.Dir(), filepath.Base(ref)))
	assert.True(t, os.IsNotExist(err))

	// Already gone.
	assert.NoError(t, m.Delete(ref))
}

func TestDeleteStaysInsideDir(t *testing.T) {
	m := newManager(t, 1<<20)
	outside := filepath.Join(filepath.Dir(m.Dir()), "keep.txt")
	require.NoError(t, os.WriteFile(outside, []byte("keep"), 0o644))
	t.Cleanup(func() { os.Remove(outside) })

	assert.NoError(t, m.Delete("/uploads/../keep.txt"))
	_, err := os.Stat(outside)
	assert.NoError(t, err)

	assert.Error(t, m.Delete("/uploads/.."))
}

func TestSanitizeName(t *testing.T) {
	tests := map[string]string{
		"../../etc/passwd":      "passwd",
		"my photo.jpg":          "my_photo.jpg",
		`C:\Users\crew\pic.png`: "pic.png",
		"":                      "upload",
		"...":                   "upload",
		".hidden":               "hidden",
		"Ünïcode.png":           "_n_code.png",
	}
	for in, want := range tests {
		assert.Equal(t, want, SanitizeName(in), in)
	}
}
