package validator

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// Checker reports whether an asset path exists. Any failure to find out
// counts as missing.
type Checker interface {
	Exists(ctx context.Context, path string) bool
}

// HTTPChecker probes assets with HEAD requests against a base URL
type HTTPChecker struct {
	Base   string
	Client *http.Client
}

// NewHTTPChecker creates a checker for assets served below base
func NewHTTPChecker(base string, client *http.Client) *HTTPChecker {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPChecker{Base: strings.TrimRight(base, "/"), Client: client}
}

// Exists is true for any 2xx answer
func (c *HTTPChecker) Exists(ctx context.Context, path string) bool {
	url := c.Base + "/" + strings.TrimLeft(path, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		log.Debug().Err(err).Str("url", url).Msg("invalid asset URL")
		return false
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		log.Debug().Err(err).Str("url", url).Msg("asset probe failed")
		return false
	}
	resp.Body.Close()

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// DirChecker looks assets up in a local directory
type DirChecker struct {
	Root string
}

// NewDirChecker creates a checker for assets below root
func NewDirChecker(root string) *DirChecker {
	return &DirChecker{Root: root}
}

// Exists is true for regular files only
func (c *DirChecker) Exists(ctx context.Context, path string) bool {
	if ctx.Err() != nil {
		return false
	}
	info, err := os.Stat(filepath.Join(c.Root, filepath.FromSlash(strings.TrimLeft(path, "/"))))
	return err == nil && info.Mode().IsRegular()
}

// NewChecker picks the checker matching base: URLs are probed over HTTP,
// anything else is treated as a directory
func NewChecker(base string, client *http.Client) Checker {
	if strings.HasPrefix(base, "http://") || strings.HasPrefix(base, "https://") {
		return NewHTTPChecker(base, client)
	}
	return NewDirChecker(base)
}
