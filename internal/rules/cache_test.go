package rules

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testURL  = "http://config.local/fs_config.json"
	oldRules = `{"mountpoint_ignore_patterns": "^/old/", "filesystem_ignore_patterns": ""}`
	newRules = `{"mountpoint_ignore_patterns": "^/new/", "filesystem_ignore_patterns": "^/dev/loop"}`
)

type fakeFetcher struct {
	data  []byte
	err   error
	calls int
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, &FetchError{URL: url, Err: f.err}
	}
	return f.data, nil
}

type cacheFixture struct {
	path    string
	now     time.Time
	fetcher *fakeFetcher
	hook    *logtest.Hook
	cache   *Cache
}

func newCacheFixture(t *testing.T) *cacheFixture {
	t.Helper()
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	f := &cacheFixture{
		path:    filepath.Join(t.TempDir(), "linuxmon", "fs_config.json"),
		now:     time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC),
		fetcher: &fakeFetcher{},
		hook:    hook,
	}
	f.cache = NewCache(f.fetcher, logger, WithClock(func() time.Time { return f.now }))
	return f
}

// seed writes content to the cache file with the given age
func (f *cacheFixture) seed(t *testing.T, content string, age time.Duration) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(f.path), 0o755))
	require.NoError(t, os.WriteFile(f.path, []byte(content), 0o644))
	mtime := f.now.Add(-age)
	require.NoError(t, os.Chtimes(f.path, mtime, mtime))
}

func (f *cacheFixture) onDisk(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(f.path)
	require.NoError(t, err)
	return string(data)
}

func (f *cacheFixture) warnings() []string {
	var msgs []string
	for _, e := range f.hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			msgs = append(msgs, e.Message)
		}
	}
	return msgs
}

func TestObtainMissingCacheFetchesAndPersists(t *testing.T) {
	f := newCacheFixture(t)
	f.fetcher.data = []byte(newRules)

	doc, err := f.cache.Obtain(context.Background(), testURL, f.path, time.Hour)
	require.NoError(t, err)

	assert.Equal(t, "^/new/", doc.MountpointIgnorePatterns)
	assert.Equal(t, 1, f.fetcher.calls)
	assert.Equal(t, newRules, f.onDisk(t), "raw bytes persisted verbatim")
}

func TestObtainMissingCacheFetchFailureIsFatal(t *testing.T) {
	f := newCacheFixture(t)
	f.fetcher.err = errors.New("connection refused")

	doc, err := f.cache.Obtain(context.Background(), testURL, f.path, time.Hour)
	require.Error(t, err)
	assert.Nil(t, doc)
	assert.ErrorIs(t, err, ErrRulesUnavailable)

	var fetchErr *FetchError
	assert.ErrorAs(t, err, &fetchErr)
	assert.NoFileExists(t, f.path)
}

func TestObtainMissingCacheEmptyBodyIsFatal(t *testing.T) {
	f := newCacheFixture(t)
	f.fetcher.data = []byte{}

	_, err := f.cache.Obtain(context.Background(), testURL, f.path, time.Hour)
	assert.ErrorIs(t, err, ErrRulesUnavailable)
	assert.NoFileExists(t, f.path)
}

func TestObtainFreshness(t *testing.T) {
	cases := []struct {
		name    string
		age     time.Duration
		fetched bool
	}{
		{"fresh", 3599 * time.Second, false},
		{"exactly max age", 3600 * time.Second, true},
		{"stale", 3601 * time.Second, true},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			f := newCacheFixture(t)
			f.seed(t, oldRules, tt.age)
			f.fetcher.data = []byte(newRules)

			doc, err := f.cache.Obtain(context.Background(), testURL, f.path, 3600*time.Second)
			require.NoError(t, err)

			if tt.fetched {
				assert.Equal(t, 1, f.fetcher.calls)
				assert.Equal(t, "^/new/", doc.MountpointIgnorePatterns)
				assert.Equal(t, newRules, f.onDisk(t))
			} else {
				assert.Equal(t, 0, f.fetcher.calls)
				assert.Equal(t, "^/old/", doc.MountpointIgnorePatterns)
				assert.Equal(t, oldRules, f.onDisk(t))
			}
		})
	}
}

func TestObtainStaleCacheFallsBackOnFetchFailure(t *testing.T) {
	f := newCacheFixture(t)
	f.seed(t, oldRules, 2*time.Hour)
	f.fetcher.err = errors.New("timeout")

	doc, err := f.cache.Obtain(context.Background(), testURL, f.path, time.Hour)
	require.NoError(t, err)

	expected, err := ParseDocument([]byte(oldRules))
	require.NoError(t, err)
	assert.Equal(t, expected, doc)
	assert.Equal(t, oldRules, f.onDisk(t), "stale copy untouched")
	assert.Len(t, f.warnings(), 1)
}

func TestObtainParseFailureKeepsFetchedBytes(t *testing.T) {
	f := newCacheFixture(t)
	f.seed(t, oldRules, 2*time.Hour)
	f.fetcher.data = []byte(`{"mountpoint_ignore_patterns": `)

	_, err := f.cache.Obtain(context.Background(), testURL, f.path, time.Hour)
	require.Error(t, err)
	assert.Equal(t, `{"mountpoint_ignore_patterns": `, f.onDisk(t))
}

func TestObtainRoundTrip(t *testing.T) {
	f := newCacheFixture(t)
	f.fetcher.data = []byte(newRules)

	direct, err := ParseDocument([]byte(newRules))
	require.NoError(t, err)

	first, err := f.cache.Obtain(context.Background(), testURL, f.path, time.Hour)
	require.NoError(t, err)

	// the file was just written, so the next call must reuse it
	info, err := os.Stat(f.path)
	require.NoError(t, err)
	f.now = info.ModTime().Add(time.Minute)

	second, err := f.cache.Obtain(context.Background(), testURL, f.path, time.Hour)
	require.NoError(t, err)

	assert.Equal(t, 1, f.fetcher.calls)
	assert.Equal(t, direct, first)
	assert.Equal(t, direct, second)
}

func TestObtainLeavesNoTempFiles(t *testing.T) {
	f := newCacheFixture(t)
	f.fetcher.data = []byte(newRules)

	_, err := f.cache.Obtain(context.Background(), testURL, f.path, time.Hour)
	require.NoError(t, err)

	entries, err := os.ReadDir(filepath.Dir(f.path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "fs_config.json", entries[0].Name())
}

func TestParseDocumentMissingFields(t *testing.T) {
	doc, err := ParseDocument([]byte(`{"mountpoint_ignore_patterns": "^/snap/"}`))
	require.NoError(t, err)
	assert.Equal(t, "^/snap/", doc.MountpointIgnorePatterns)
	assert.Empty(t, doc.FilesystemIgnorePatterns)

	_, err = ParseDocument([]byte(`{"filesystem_ignore_patterns": 5}`))
	assert.Error(t, err)
}
