package voice

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// AudioStore persists synthesized audio and returns a location a telephony
// provider can fetch it from
type AudioStore interface {
	Put(ctx context.Context, tenantID, ext string, audio io.Reader) (string, error)
}

// FileStore writes audio under <dir>/<tenant>/<uuid>.<ext> and serves it
// from <baseURL>/<tenant>/<uuid>.<ext>
type FileStore struct {
	dir     string
	baseURL string
}

// NewFileStore creates a store rooted at dir
func NewFileStore(dir, baseURL string) *FileStore {
	return &FileStore{
		dir:     dir,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// Put copies audio to a new file and returns its public URL
func (s *FileStore) Put(ctx context.Context, tenantID, ext string, audio io.Reader) (string, error) {
	if tenantID == "" || strings.ContainsAny(tenantID, `/\`) || tenantID == "." || tenantID == ".." {
		return "", fmt.Errorf("invalid tenant id: %q", tenantID)
	}
	if ext == "" {
		ext = "mp3"
	}

	tenantDir := filepath.Join(s.dir, tenantID)
	if err := os.MkdirAll(tenantDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create audio directory: %w", err)
	}

	name := uuid.NewString() + "." + ext
	path := filepath.Join(tenantDir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create audio file: %w", err)
	}

	n, err := io.Copy(f, &ctxReader{ctx: ctx, r: audio})
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && n == 0 {
		err = fmt.Errorf("no audio data")
	}
	if err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("failed to write audio file: %w", err)
	}

	log.Debug().
		Str("path", path).
		Int64("bytes", n).
		Msg("Stored synthesized audio")

	return s.baseURL + "/" + url.PathEscape(tenantID) + "/" + name, nil
}

// ctxReader stops a copy once the context is done
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
