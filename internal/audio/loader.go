package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
)

// Handle is a playable audio object bound to one source
type Handle interface {
	// Source returns the URL or path the handle is bound to
	Source() string

	// Play blocks until playback ends. A stopped handle returns
	// context.Canceled.
	Play(ctx context.Context) error

	// Stop halts playback; the next Play starts from the beginning
	Stop()

	// Close releases any temporary data
	Close() error
}

// Loader turns URLs and asset paths into handles
type Loader interface {
	// Load fetches ref up front and fails if it cannot be read
	Load(ctx context.Context, ref string) (Handle, error)

	// Bind returns a handle that fetches ref when played
	Bind(ref string) (Handle, error)
}

// AssetLoader loads remote URLs over HTTP and asset paths relative to a base
// that is either an http(s) URL or a local directory
type AssetLoader struct {
	base    string
	client  *http.Client
	player  FilePlayer
	tempDir string
}

// NewAssetLoader creates a loader. client may be nil.
func NewAssetLoader(base string, client *http.Client, player FilePlayer) *AssetLoader {
	if client == nil {
		client = http.DefaultClient
	}
	return &AssetLoader{
		base:    base,
		client:  client,
		player:  player,
		tempDir: os.TempDir(),
	}
}

// SetTempDir sets where downloaded audio is stored while it plays
func (l *AssetLoader) SetTempDir(dir string) {
	l.tempDir = dir
}

// Load fetches ref and returns a ready handle
func (l *AssetLoader) Load(ctx context.Context, ref string) (Handle, error) {
	h, err := l.Bind(ref)
	if err != nil {
		return nil, err
	}
	fh := h.(*fileHandle)
	if _, err := fh.ensure(ctx); err != nil {
		return nil, err
	}
	return fh, nil
}

// Bind returns a lazily fetched handle
func (l *AssetLoader) Bind(ref string) (Handle, error) {
	if strings.TrimSpace(ref) == "" {
		return nil, fmt.Errorf("empty audio reference")
	}

	location := l.resolve(ref)
	h := &fileHandle{source: ref, player: l.player}
	if isRemote(location) {
		h.fetch = func(ctx context.Context) (string, error) {
			return l.download(ctx, location)
		}
		h.temporary = true
	} else {
		h.fetch = func(context.Context) (string, error) {
			return checkLocalFile(location)
		}
	}
	return h, nil
}

// Resolve maps ref to the URL or file path it will be read from
func (l *AssetLoader) Resolve(ref string) string {
	return l.resolve(ref)
}

func (l *AssetLoader) resolve(ref string) string {
	if isRemote(ref) {
		return ref
	}
	if isRemote(l.base) {
		return strings.TrimRight(l.base, "/") + "/" + strings.TrimLeft(ref, "/")
	}
	return filepath.Join(l.base, filepath.FromSlash(strings.TrimLeft(ref, "/")))
}

func isRemote(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func checkLocalFile(file string) (string, error) {
	info, err := os.Stat(file)
	if err != nil {
		return "", fmt.Errorf("audio file not found: %w", err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("not a regular file: %s", file)
	}
	if info.Size() == 0 {
		return "", fmt.Errorf("audio file is empty: %s", file)
	}
	return file, nil
}

// download stores url in a temporary file and returns its path
func (l *AssetLoader) download(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch audio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("failed to fetch audio: HTTP %d", resp.StatusCode)
	}

	ext := path.Ext(req.URL.Path)
	if ext == "" {
		ext = ".mp3"
	}
	out, err := os.CreateTemp(l.tempDir, "iqra-*"+ext)
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}

	written, err := io.Copy(out, resp.Body)
	closeErr := out.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(out.Name())
		return "", fmt.Errorf("failed to write audio: %w", err)
	}
	if written == 0 {
		os.Remove(out.Name())
		return "", fmt.Errorf("no audio data received from %s", url)
	}

	return out.Name(), nil
}

// fileHandle plays a local file, fetching it first when needed
type fileHandle struct {
	source    string
	player    FilePlayer
	fetch     func(ctx context.Context) (string, error)
	temporary bool

	mu     sync.Mutex
	file   string
	cancel context.CancelFunc
	closed bool
}

func (h *fileHandle) Source() string {
	return h.source
}

// File returns the fetched local file, empty until fetched
func (h *fileHandle) File() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.file
}

// ensure fetches the file once. The lock is not held during the fetch so
// Stop can cancel a download in flight.
func (h *fileHandle) ensure(ctx context.Context) (string, error) {
	h.mu.Lock()
	file := h.file
	h.mu.Unlock()
	if file != "" {
		return file, nil
	}

	file, err := h.fetch(ctx)
	if err != nil {
		return "", err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		if h.temporary {
			os.Remove(file)
		}
		return "", context.Canceled
	}
	if h.file != "" {
		// A concurrent Play fetched it first
		if h.temporary {
			os.Remove(file)
		}
		return h.file, nil
	}
	h.file = file
	return file, nil
}

func (h *fileHandle) Play(ctx context.Context) error {
	if h.player == nil {
		return fmt.Errorf("no audio player configured")
	}

	playCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	h.mu.Lock()
	h.cancel = cancel
	h.mu.Unlock()

	file, err := h.ensure(playCtx)
	if err != nil {
		if playCtx.Err() != nil {
			return context.Canceled
		}
		return err
	}

	err = h.player.PlayFile(playCtx, file)
	if err != nil && playCtx.Err() != nil {
		return context.Canceled
	}
	return err
}

func (h *fileHandle) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
}

func (h *fileHandle) Close() error {
	h.Stop()

	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	if !h.temporary || h.file == "" {
		return nil
	}
	err := os.Remove(h.file)
	h.file = ""
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
