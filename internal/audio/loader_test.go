package audio

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"codeberg.org/snonux/iqra/internal/testutil"
)

func TestAssetLoaderResolve(t *testing.T) {
	tests := []struct {
		name string
		base string
		ref  string
		want string
	}{
		{"absolute URL ignores base", "./public", "https://cdn.example/a.mp3", "https://cdn.example/a.mp3"},
		{"asset path against URL base", "https://example.org/IQRA/", "/audio/alif.mp3", "https://example.org/IQRA/audio/alif.mp3"},
		{"asset path against directory", "/srv/public", "/audio/alif.mp3", filepath.Join("/srv/public", "audio", "alif.mp3")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := NewAssetLoader(tt.base, nil, nil)
			if got := loader.Resolve(tt.ref); got != tt.want {
				t.Errorf("Resolve(%q) = %s, want %s", tt.ref, got, tt.want)
			}
		})
	}
}

func TestAssetLoaderLoadLocal(t *testing.T) {
	root := testutil.CreateAssetDirectory(t, "/audio/alif.mp3")
	testutil.CreateTestFile(t, filepath.Join(root, "audio", "empty.mp3"), nil)
	player := &testutil.MockFilePlayer{}
	loader := NewAssetLoader(root, nil, player)

	h, err := loader.Load(context.Background(), "/audio/alif.mp3")
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if err := h.Play(context.Background()); err != nil {
		t.Fatalf("Play() unexpected error: %v", err)
	}
	if played := player.Played(); len(played) != 1 || !strings.HasSuffix(played[0], filepath.Join("audio", "alif.mp3")) {
		t.Errorf("Unexpected played files %v", played)
	}
	if err := h.Close(); err != nil {
		t.Errorf("Close() unexpected error: %v", err)
	}
	testutil.AssertFileExists(t, filepath.Join(root, "audio", "alif.mp3"))

	for _, ref := range []string{"/audio/missing.mp3", "/audio/empty.mp3", "/audio", ""} {
		if _, err := loader.Load(context.Background(), ref); err == nil {
			t.Errorf("Load(%q) expected error", ref)
		}
	}
}

func TestAssetLoaderLoadRemote(t *testing.T) {
	server := testutil.NewAssetServer(t, "/audio/ba.mp3")
	player := &testutil.MockFilePlayer{}
	loader := NewAssetLoader(server.URL, nil, player)
	loader.SetTempDir(t.TempDir())

	h, err := loader.Load(context.Background(), "/audio/ba.mp3")
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	file := h.(*fileHandle).File()
	testutil.AssertFileExists(t, file)

	if err := h.Play(context.Background()); err != nil {
		t.Fatalf("Play() unexpected error: %v", err)
	}
	if err := h.Close(); err != nil {
		t.Fatalf("Close() unexpected error: %v", err)
	}
	testutil.AssertFileNotExists(t, file)

	if _, err := loader.Load(context.Background(), "/audio/missing.mp3"); err == nil {
		t.Error("Load() of a 404 expected error")
	}
}

func TestAssetLoaderBindIsLazy(t *testing.T) {
	server := testutil.NewAssetServer(t, "/001001.mp3")
	player := &testutil.MockFilePlayer{}
	loader := NewAssetLoader("./public", nil, player)
	loader.SetTempDir(t.TempDir())

	h, err := loader.Bind(server.URL + "/001001.mp3")
	if err != nil {
		t.Fatalf("Bind() unexpected error: %v", err)
	}
	if len(server.Requests()) != 0 {
		t.Fatalf("Bind() should not fetch, got %v", server.Requests())
	}

	if err := h.Play(context.Background()); err != nil {
		t.Fatalf("Play() unexpected error: %v", err)
	}
	if reqs := server.Requests(); len(reqs) != 1 || reqs[0] != "GET /001001.mp3" {
		t.Errorf("Unexpected requests %v", reqs)
	}
	h.Close()
}

func TestBoundHandleFailsAtPlay(t *testing.T) {
	server := testutil.NewAssetServer(t)
	loader := NewAssetLoader("./public", nil, &testutil.MockFilePlayer{})

	h, err := loader.Bind(server.URL + "/gone.mp3")
	if err != nil {
		t.Fatalf("Bind() unexpected error: %v", err)
	}
	if err := h.Play(context.Background()); err == nil {
		t.Error("Play() of a missing remote file expected error")
	}
}

func TestHandleStopCancelsPlayback(t *testing.T) {
	root := testutil.CreateAssetDirectory(t, "/audio/alif.mp3")
	player := &testutil.MockFilePlayer{Block: true}
	loader := NewAssetLoader(root, nil, player)

	h, err := loader.Load(context.Background(), "/audio/alif.mp3")
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	done := make(chan error)
	go func() { done <- h.Play(context.Background()) }()

	for len(player.Played()) == 0 {
		time.Sleep(time.Millisecond)
	}
	h.Stop()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Play() after Stop() = %v, want context.Canceled", err)
	}
}

func TestHandleStopCancelsDownload(t *testing.T) {
	server := testutil.NewStallServer(t)
	player := &testutil.MockFilePlayer{}
	loader := NewAssetLoader("./public", nil, player)
	loader.SetTempDir(t.TempDir())

	h, err := loader.Bind(server.URL + "/001001.mp3")
	if err != nil {
		t.Fatalf("Bind() unexpected error: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- h.Play(context.Background()) }()

	select {
	case <-server.Requested:
	case <-time.After(time.Second):
		t.Fatal("Play() never requested the audio")
	}

	stopped := make(chan struct{})
	go func() {
		h.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop() blocked while the audio was downloading")
	}

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Play() after Stop() = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Play() kept downloading after Stop()")
	}
	if played := player.Played(); len(played) != 0 {
		t.Errorf("Nothing should be played after Stop(), got %v", played)
	}
	if err := h.Close(); err != nil {
		t.Errorf("Close() unexpected error: %v", err)
	}
}

func TestHandleWithoutPlayer(t *testing.T) {
	root := testutil.CreateAssetDirectory(t, "/audio/alif.mp3")
	loader := NewAssetLoader(root, nil, nil)

	h, err := loader.Load(context.Background(), "/audio/alif.mp3")
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if err := h.Play(context.Background()); err == nil {
		t.Error("Play() without a player expected error")
	}
}
