package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// Local keeps uploads on disk under dir and reports them below urlPrefix.
// The API does not serve dir; urlPrefix is where the fronting web server or
// CDN publishes it, either a path such as /uploads/files or an absolute URL.
type Local struct {
	dir       string
	urlPrefix string
	logger    zerolog.Logger
}

// NewLocal prepares the upload directory.
func NewLocal(dir, urlPrefix string, logger zerolog.Logger) (*Local, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("upload directory must be provided")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}

	return &Local{
		dir:       dir,
		urlPrefix: normalizePrefix(urlPrefix),
		logger:    logger.With().Str("component", "local_storage").Logger(),
	}, nil
}

// Dir returns the directory files are written to.
func (l *Local) Dir() string {
	return l.dir
}

// Upload writes reader to dir/name and returns its public location.
func (l *Local) Upload(ctx context.Context, name string, reader io.Reader) (string, error) {
	name = filepath.Base(name)
	if name == "." || name == string(filepath.Separator) {
		return "", fmt.Errorf("invalid file name %q", name)
	}

	target := filepath.Join(l.dir, name)
	file, err := os.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}

	if _, err := io.Copy(file, reader); err != nil {
		file.Close()
		os.Remove(target)
		return "", fmt.Errorf("write file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(target)
		return "", fmt.Errorf("close file: %w", err)
	}

	l.logger.Info().Str("file", name).Msg("file stored on disk")
	return l.urlPrefix + "/" + name, nil
}

// Remove deletes a file previously returned by Upload. Missing files are ignored.
func (l *Local) Remove(ctx context.Context, location string) error {
	if !strings.HasPrefix(location, l.urlPrefix+"/") {
		return fmt.Errorf("location %q is outside %s", location, l.urlPrefix)
	}

	target := filepath.Join(l.dir, filepath.Base(location))
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

func normalizePrefix(prefix string) string {
	prefix = strings.TrimRight(strings.TrimSpace(prefix), "/")
	if strings.Contains(prefix, "://") {
		return prefix
	}
	if prefix = strings.Trim(prefix, "/"); prefix == "" {
		return ""
	}
	return "/" + prefix
}
