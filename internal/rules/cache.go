package rules

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrRulesUnavailable is returned when no cached copy exists and the
// required fetch failed
var ErrRulesUnavailable = errors.New("rule document unavailable")

var errEmptyBody = errors.New("empty response body")

// Cache keeps the last fetched rule document on disk and decides when to
// refetch it. The file's modification time is the only freshness signal.
type Cache struct {
	fetcher Fetcher
	logger  logrus.FieldLogger
	now     func() time.Time
}

// Option configures a Cache
type Option func(*Cache)

// WithClock overrides the time source used for freshness checks
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// NewCache creates a rule cache backed by fetcher
func NewCache(fetcher Fetcher, logger logrus.FieldLogger, opts ...Option) *Cache {
	c := &Cache{
		fetcher: fetcher,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Obtain returns the rule document, fetching it from remoteURL when localPath
// is missing or at least maxAge old. A missing cache makes the fetch required;
// a stale cache makes it best-effort with fallback to the copy on disk.
// Fetched bytes are always written to localPath before they are parsed.
func (c *Cache) Obtain(ctx context.Context, remoteURL, localPath string, maxAge time.Duration) (*Document, error) {
	if err := c.ensureDir(filepath.Dir(localPath)); err != nil {
		return nil, err
	}

	info, err := os.Stat(localPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		data, err := c.refresh(ctx, remoteURL, localPath)
		if err != nil {
			c.logger.WithError(err).Errorf("Cannot get %s", remoteURL)
			return nil, fmt.Errorf("%w: %w", ErrRulesUnavailable, err)
		}
		return ParseDocument(data)

	case err != nil:
		return nil, fmt.Errorf("failed to stat %s: %w", localPath, err)

	case c.now().Sub(info.ModTime()) >= maxAge:
		c.logger.Infof("%s is older than %s, refreshing", filepath.Base(localPath), maxAge)
		data, err := c.refresh(ctx, remoteURL, localPath)
		if err != nil {
			c.logger.WithError(err).Warn("Could not retrieve new rule document, using existing")
			return c.readLocal(localPath)
		}
		return ParseDocument(data)

	default:
		return c.readLocal(localPath)
	}
}

// refresh fetches the document and persists it. A failed write is logged and
// the fetched bytes are still returned.
func (c *Cache) refresh(ctx context.Context, remoteURL, localPath string) ([]byte, error) {
	c.logger.Infof("Getting update for %s", localPath)

	data, err := c.fetcher.Fetch(ctx, remoteURL)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, &FetchError{URL: remoteURL, Err: errEmptyBody}
	}

	if err := writeFileAtomic(localPath, data); err != nil {
		c.logger.WithError(err).Errorf("Could not write %s", localPath)
	}
	return data, nil
}

func (c *Cache) readLocal(localPath string) (*Document, error) {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", localPath, err)
	}
	return ParseDocument(data)
}

func (c *Cache) ensureDir(dir string) error {
	if _, err := os.Stat(dir); err == nil {
		return nil
	}
	c.logger.Infof("%s not found, creating it now", dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return nil
}

// writeFileAtomic replaces path with data through a rename so readers never
// observe a partially written file.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
