package quote

import (
	"bufio"
	"bytes"
	"crypto/sha1"
	"fmt"
	"net/http"
	"net/http/httputil"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// DailyCache is an http.RoundTripper storing successful responses on disk.
// Entries are keyed by day, so the cache expires every day.
type DailyCache struct {
	Base   http.RoundTripper // http.DefaultTransport when nil
	Dir    string            // os.TempDir() when empty
	Logger *zap.Logger
	now    func() time.Time
}

// NewCachedClient returns a client caching responses for the day in dir.
func NewCachedClient(dir string, logger *zap.Logger) *http.Client {
	return &http.Client{Transport: &DailyCache{Dir: dir, Logger: logger}}
}

func (c *DailyCache) RoundTrip(req *http.Request) (*http.Response, error) {
	now := time.Now
	if c.now != nil {
		now = c.now
	}
	logger := c.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	key := fmt.Sprintf("%s %s %s", now().Format(time.DateOnly), req.Method, req.URL.String())
	key = fmt.Sprintf("stockbook-%x", sha1.Sum([]byte(key)))

	if resp, err := c.get(key, req); err == nil {
		logger.Debug("cache hit", zap.String("url", req.URL.String()))
		return resp, nil
	}

	base := c.Base
	if base == nil {
		base = http.DefaultTransport
	}
	resp, err := base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		return resp, nil
	}
	if err := c.put(key, resp); err != nil {
		logger.Warn("cache write failed", zap.Error(err))
	}
	return resp, nil
}

func (c *DailyCache) file(key string) string {
	dir := c.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, key)
}

func (c *DailyCache) get(key string, req *http.Request) (*http.Response, error) {
	content, err := os.ReadFile(c.file(key))
	if err != nil {
		return nil, err
	}
	return http.ReadResponse(bufio.NewReader(bytes.NewReader(content)), req)
}

// put stores resp. DumpResponse leaves resp.Body readable.
func (c *DailyCache) put(key string, resp *http.Response) error {
	content, err := httputil.DumpResponse(resp, true)
	if err != nil {
		return err
	}
	return os.WriteFile(c.file(key), content, 0o644)
}
