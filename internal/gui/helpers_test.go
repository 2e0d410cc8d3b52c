package gui

import (
	"context"
	"testing"
	"time"

	"codeberg.org/snonux/iqra/internal/audio"
	"codeberg.org/snonux/iqra/internal/mapping"
	"codeberg.org/snonux/iqra/internal/playback"
	"codeberg.org/snonux/iqra/internal/testutil"
)

// newTestPlayer builds a player over a local asset directory holding paths.
// No synthesizer is configured.
func newTestPlayer(t *testing.T, files *testutil.MockFilePlayer, paths ...string) (*audio.Player, string) {
	t.Helper()

	root := testutil.CreateAssetDirectory(t, paths...)
	loader := audio.NewAssetLoader(root, nil, files)
	resolver := audio.NewResolver(
		audio.NewURLProvider(loader),
		audio.NewLookupProvider(loader, mapping.Combined, false),
	)
	return audio.NewPlayer(resolver, nil, playback.NewMachine()), root
}

// waitFor polls cond until it holds or a second has passed
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("Timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

// blockingSynth speaks until its context is cancelled
type blockingSynth struct{}

func (blockingSynth) Speak(ctx context.Context, u *audio.Utterance, onStart func()) error {
	if onStart != nil {
		onStart()
	}
	<-ctx.Done()
	return ctx.Err()
}

func (blockingSynth) Name() string       { return "blocking" }
func (blockingSynth) IsAvailable() error { return nil }

// newSpeechPlayer builds a player whose only source is speech
func newSpeechPlayer() *audio.Player {
	synth := blockingSynth{}
	resolver := audio.NewResolver(audio.NewSynthesisProvider(synth, audio.DefaultLocale, audio.DefaultRate))
	return audio.NewPlayer(resolver, synth, playback.NewMachine())
}
