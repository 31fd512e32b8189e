package attachments

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/Nathansuares/SkySafe/apperr"
	"github.com/Nathansuares/SkySafe/imaging"

	"github.com/apex/log"
	"github.com/google/uuid"
)

const maxNameLength = 100

var imageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Manager keeps uploaded files in one flat directory. A stored file is
// referred to as urlPrefix + "/" + name, which is what gets persisted.
type Manager struct {
	dir          string
	urlPrefix    string
	maxBytes     int64
	maxDimension int
	now          func() time.Time
}

func NewManager(dir, urlPrefix string, maxBytes int64, maxDimension int) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir %s: %w", dir, err)
	}
	return &Manager{
		dir:          dir,
		urlPrefix:    strings.TrimRight(urlPrefix, "/"),
		maxBytes:     maxBytes,
		maxDimension: maxDimension,
		now:          time.Now,
	}, nil
}

func (m *Manager) Dir() string {
	return m.dir
}

func (m *Manager) URLPrefix() string {
	return m.urlPrefix
}

// StoreImage accepts JPEG, PNG, GIF or WebP content. JPEGs are re-oriented
// and downscaled before they are written.
func (m *Manager) StoreImage(fh *multipart.FileHeader) (string, error) {
	data, err := m.read(fh)
	if err != nil {
		return "", err
	}
	contentType := http.DetectContentType(data)
	if !imageTypes[contentType] {
		return "", apperr.Validation("Attachment must be a JPEG, PNG, GIF or WebP image.", "image")
	}
	if contentType == "image/jpeg" {
		normalized, err := imaging.Normalize(data, m.maxDimension)
		if err != nil {
			log.WithError(err).WithField("filename", fh.Filename).Warn("Storing image without normalization")
		} else {
			data = normalized
		}
	}
	return m.write(fh.Filename, data)
}

// StoreFile stores any content as-is.
func (m *Manager) StoreFile(fh *multipart.FileHeader) (string, error) {
	data, err := m.read(fh)
	if err != nil {
		return "", err
	}
	return m.write(fh.Filename, data)
}

// Delete removes the file behind ref. A file that is already gone is not an error.
func (m *Manager) Delete(ref string) error {
	name := path.Base(strings.ReplaceAll(ref, "\\", "/"))
	if name == "." || name == "/" || name == ".." {
		return fmt.Errorf("invalid attachment reference %q", ref)
	}
	err := os.Remove(filepath.Join(m.dir, name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (m *Manager) read(fh *multipart.FileHeader) ([]byte, error) {
	if m.maxBytes > 0 && fh.Size > m.maxBytes {
		return nil, apperr.Validation(fmt.Sprintf("Attachment exceeds the %d byte limit.", m.maxBytes))
	}
	f, err := fh.Open()
	if err != nil {
		return nil, apperr.Storage("Failed to read upload.", err)
	}
	defer f.Close()

	r := io.Reader(f)
	if m.maxBytes > 0 {
		r = io.LimitReader(f, m.maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, apperr.Storage("Failed to read upload.", err)
	}
	if m.maxBytes > 0 && int64(len(data)) > m.maxBytes {
		return nil, apperr.Validation(fmt.Sprintf("Attachment exceeds the %d byte limit.", m.maxBytes))
	}
	if len(data) == 0 {
		return nil, apperr.Validation("Attachment is empty.")
	}
	return data, nil
}

func (m *Manager) write(original string, data []byte) (string, error) {
	name := fmt.Sprintf("%d-%s-%s", m.now().UnixMilli(), uuid.NewString()[:8], SanitizeName(original))
	if err := os.WriteFile(filepath.Join(m.dir, name), data, 0o644); err != nil {
		return "", apperr.Storage("Failed to store attachment.", err)
	}
	return m.urlPrefix + "/" + name, nil
}

// SanitizeName reduces a client supplied filename to a safe base name.
func SanitizeName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.TrimLeft(b.String(), ".")
	if len(out) > maxNameLength {
		out = out[len(out)-maxNameLength:]
	}
	if out == "" || out == "_" {
		return "upload"
	}
	return out
}
