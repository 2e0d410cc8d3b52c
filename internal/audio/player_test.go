package audio

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"codeberg.org/snonux/iqra/internal/playback"
	"codeberg.org/snonux/iqra/internal/testutil"
)

func newTestPlayer(t *testing.T, loader *mockLoader, synth *mockSynth, verse testutil.VerseResponse) (*Player, *playback.Recorder) {
	t.Helper()

	var s Synthesizer
	if synth != nil {
		s = synth
	}
	resolver, _ := newTestChain(t, loader, s, verse)
	player := NewPlayer(resolver, s, nil)
	rec := &playback.Recorder{}
	player.Machine().Subscribe(rec.Record)
	return player, rec
}

func assertStates(t *testing.T, rec *playback.Recorder, want ...playback.State) {
	t.Helper()
	if got := rec.States(); !reflect.DeepEqual(got, want) {
		t.Errorf("States() = %v, want %v", got, want)
	}
}

func TestPlayLocalLetter(t *testing.T) {
	loader := newMockLoader()
	synth := &mockSynth{}
	player, rec := newTestPlayer(t, loader, synth, testutil.VerseResponse{})

	outcome, err := player.Play(context.Background(), &Request{Text: "ا"})
	if err != nil {
		t.Fatalf("Play() unexpected error: %v", err)
	}

	if outcome.Source == nil || outcome.Source.Provider != "lookup" {
		t.Fatalf("Unexpected outcome %+v", outcome)
	}
	assertStates(t, rec, playback.Idle, playback.Loading, playback.Playing, playback.Idle)

	h := loader.handles["/audio/alif.mp3"]
	if h.plays != 1 {
		t.Errorf("Expected 1 play, got %d", h.plays)
	}
	if !h.closed {
		t.Error("Expected handle to be released after natural end")
	}
	if synth.calls() != 0 {
		t.Error("Synthesizer should not be invoked")
	}
}

func TestPlaySpeechFallback(t *testing.T) {
	loader := newMockLoader()
	synth := &mockSynth{}
	player, rec := newTestPlayer(t, loader, synth, testutil.VerseResponse{})

	outcome, err := player.Play(context.Background(), &Request{Text: "مرحبا"})
	if err != nil {
		t.Fatalf("Play() unexpected error: %v", err)
	}

	if outcome.Source == nil || !outcome.Source.IsSpeech() {
		t.Fatalf("Expected speech outcome, got %+v", outcome)
	}
	assertStates(t, rec, playback.Idle, playback.Loading, playback.Playing, playback.Idle)
	if synth.calls() != 1 {
		t.Errorf("Expected 1 synthesizer call, got %d", synth.calls())
	}
}

func TestPlayVerseNeverSynthesizes(t *testing.T) {
	loader := newMockLoader()
	synth := &mockSynth{}
	player, rec := newTestPlayer(t, loader, synth, testutil.VerseResponse{
		Status: "OK",
		Audio:  "https://cdn.example/001001.mp3",
	})

	outcome, err := player.Play(context.Background(), &Request{Text: "بسم", Surah: 1, Ayah: 1})
	if err != nil {
		t.Fatalf("Play() unexpected error: %v", err)
	}

	if outcome.Source.Provider != "verse" {
		t.Errorf("Expected verse provider, got %s", outcome.Source.Provider)
	}
	if loader.handles["https://cdn.example/001001.mp3"].plays != 1 {
		t.Error("Expected the verse audio to be played")
	}
	if synth.calls() != 0 {
		t.Error("Synthesizer should not be invoked")
	}
	assertStates(t, rec, playback.Idle, playback.Loading, playback.Playing, playback.Idle)
}

func TestPlayErrorReentersSpeech(t *testing.T) {
	loader := newMockLoader()
	loader.playErrs["/audio/ba.mp3"] = errors.New("device busy")
	synth := &mockSynth{}
	player, rec := newTestPlayer(t, loader, synth, testutil.VerseResponse{})

	outcome, err := player.Play(context.Background(), &Request{Text: " ب ", Surah: 1, Ayah: 2})
	if err != nil {
		t.Fatalf("Play() unexpected error: %v", err)
	}

	if !outcome.Reentered {
		t.Error("Expected reentry into speech synthesis")
	}
	assertStates(t, rec,
		playback.Idle, playback.Loading, playback.Playing,
		playback.Idle, playback.Playing, playback.Idle)

	if synth.calls() != 1 {
		t.Fatalf("Expected 1 synthesizer call, got %d", synth.calls())
	}
	u := synth.utterances[0]
	if u.Text != " ب " || u.Lang != "ar-SA" || u.Rate != 0.7 {
		t.Errorf("Unexpected reentry utterance %+v", u)
	}
	if len(loader.loads) != 1 {
		t.Errorf("Reentry must not rerun the chain, loads = %v", loader.loads)
	}
}

func TestPlayErrorWithoutSynthesizer(t *testing.T) {
	loader := newMockLoader()
	loader.playErrs["/audio/ba.mp3"] = errors.New("device busy")
	player, rec := newTestPlayer(t, loader, nil, testutil.VerseResponse{})

	outcome, err := player.Play(context.Background(), &Request{Text: "ب"})
	if err != nil {
		t.Fatalf("Play() unexpected error: %v", err)
	}
	if outcome.Reentered {
		t.Error("Reentry requires a synthesizer")
	}
	assertStates(t, rec, playback.Idle, playback.Loading, playback.Playing, playback.Idle)
}

func TestPlayNothingAvailable(t *testing.T) {
	loader := newMockLoader()
	player, rec := newTestPlayer(t, loader, &mockSynth{availableErr: errors.New("missing")}, testutil.VerseResponse{})

	outcome, err := player.Play(context.Background(), &Request{Text: "مرحبا"})
	if err != nil {
		t.Fatalf("Play() should fail silently, got %v", err)
	}
	if outcome.Source != nil {
		t.Errorf("Expected no source, got %s", outcome.Source)
	}
	assertStates(t, rec, playback.Idle, playback.Loading, playback.Idle)
	if !player.Machine().Enabled() {
		t.Error("Expected control to be enabled again")
	}
}

func TestPlaySynthesisFailsBeforeStart(t *testing.T) {
	synth := &mockSynth{failEarly: true, speakErr: errors.New("no sound device")}
	player, rec := newTestPlayer(t, newMockLoader(), synth, testutil.VerseResponse{})

	if _, err := player.Play(context.Background(), &Request{Text: "مرحبا"}); err != nil {
		t.Fatalf("Play() unexpected error: %v", err)
	}
	assertStates(t, rec, playback.Idle, playback.Loading, playback.Idle)
}

func TestPlayRejectsWhileBusy(t *testing.T) {
	player, _ := newTestPlayer(t, newMockLoader(), &mockSynth{}, testutil.VerseResponse{})
	if err := player.Machine().Fire(playback.ResolveStarted); err != nil {
		t.Fatal(err)
	}

	_, err := player.Play(context.Background(), &Request{Text: "ا"})
	if !errors.Is(err, ErrBusy) {
		t.Errorf("Play() error = %v, want ErrBusy", err)
	}
}

func TestPlayRejectsEmptyText(t *testing.T) {
	player, rec := newTestPlayer(t, newMockLoader(), &mockSynth{}, testutil.VerseResponse{})

	_, err := player.Play(context.Background(), &Request{Text: "  "})
	if !errors.Is(err, ErrEmptyText) {
		t.Errorf("Play() error = %v, want ErrEmptyText", err)
	}
	if len(rec.Transitions()) != 0 {
		t.Error("Expected no transitions for an invalid request")
	}
}

func TestPlayStopsPreviousHandle(t *testing.T) {
	loader := newMockLoader()
	loader.playErrs["/audio/ba.mp3"] = errors.New("device busy")
	player, _ := newTestPlayer(t, loader, &mockSynth{}, testutil.VerseResponse{})

	if _, err := player.Play(context.Background(), &Request{Text: "ب"}); err != nil {
		t.Fatalf("Play() unexpected error: %v", err)
	}
	failed := loader.handles["/audio/ba.mp3"]
	if failed.closed {
		t.Fatal("A failed handle stays held until the next activation")
	}

	if _, err := player.Play(context.Background(), &Request{Text: "ا"}); err != nil {
		t.Fatalf("Play() unexpected error: %v", err)
	}
	if failed.stops == 0 || !failed.closed {
		t.Errorf("Expected previous handle to be stopped and released, stops=%d closed=%v", failed.stops, failed.closed)
	}
}

func TestPlayAssignsRequestID(t *testing.T) {
	player, _ := newTestPlayer(t, newMockLoader(), &mockSynth{}, testutil.VerseResponse{})
	req := &Request{Text: "ا"}

	if _, err := player.Play(context.Background(), req); err != nil {
		t.Fatalf("Play() unexpected error: %v", err)
	}
	if req.ID == "" {
		t.Error("Expected a request ID to be assigned")
	}
}

// waitForState polls the machine until it reaches want
func waitForState(t *testing.T, player *Player, want playback.State) {
	t.Helper()

	deadline := time.Now().Add(time.Second)
	for player.Machine().State() != want {
		if time.Now().After(deadline) {
			t.Fatalf("State = %s, want %s", player.Machine().State(), want)
		}
		time.Sleep(time.Millisecond)
	}
}

// stopWithin calls Stop and fails when it does not return promptly
func stopWithin(t *testing.T, player *Player, d time.Duration) {
	t.Helper()

	stopped := make(chan struct{})
	go func() {
		player.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(d):
		t.Fatalf("Stop() blocked for more than %v", d)
	}
}

func TestStopDuringVerseDownload(t *testing.T) {
	audioServer := testutil.NewStallServer(t)
	verse := testutil.NewVerseServer(t, testutil.VerseResponse{Status: "OK", Audio: audioServer.URL + "/001001.mp3"})

	files := &testutil.MockFilePlayer{}
	loader := NewAssetLoader(t.TempDir(), nil, files)
	loader.SetTempDir(t.TempDir())
	player := NewPlayer(NewResolver(NewVerseProvider(loader, &VerseOptions{BaseURL: verse.URL})), nil, nil)

	type result struct {
		outcome *Outcome
		err     error
	}
	done := make(chan result, 1)
	go func() {
		outcome, err := player.Play(context.Background(), &Request{Text: "بسم", Surah: 1, Ayah: 1})
		done <- result{outcome, err}
	}()

	select {
	case <-audioServer.Requested:
	case <-time.After(time.Second):
		t.Fatal("The verse audio was never requested")
	}
	if player.Machine().State() != playback.Playing {
		t.Errorf("State = %s, want playing while downloading", player.Machine().State())
	}

	stopWithin(t, player, time.Second)

	select {
	case r := <-done:
		if r.err != nil {
			t.Errorf("Play() after Stop() unexpected error: %v", r.err)
		}
		if r.outcome == nil || r.outcome.Source == nil || r.outcome.Source.Provider != "verse" {
			t.Errorf("Unexpected outcome %+v", r.outcome)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Play() did not return after Stop()")
	}

	if played := files.Played(); len(played) != 0 {
		t.Errorf("Nothing should be played after Stop(), got %v", played)
	}
	waitForState(t, player, playback.Idle)
}

func TestStopDuringSpeech(t *testing.T) {
	synth := &mockSynth{block: true}
	player, rec := newTestPlayer(t, newMockLoader(), synth, testutil.VerseResponse{})

	done := make(chan error, 1)
	go func() {
		_, err := player.Play(context.Background(), &Request{Text: "مرحبا"})
		done <- err
	}()

	waitForState(t, player, playback.Playing)
	stopWithin(t, player, time.Second)

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Play() after Stop() unexpected error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Stop() did not end speech synthesis")
	}
	assertStates(t, rec, playback.Idle, playback.Loading, playback.Playing, playback.Idle)
}

func TestStopWhenIdle(t *testing.T) {
	player, rec := newTestPlayer(t, newMockLoader(), &mockSynth{}, testutil.VerseResponse{})

	stopWithin(t, player, time.Second)
	if len(rec.Transitions()) != 0 {
		t.Error("Stop() on an idle player must not change state")
	}
}

func TestPlayWarnsAboutNonArabicText(t *testing.T) {
	var buf bytes.Buffer
	orig := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = orig })

	player, _ := newTestPlayer(t, newMockLoader(), &mockSynth{}, testutil.VerseResponse{})

	if _, err := player.Play(context.Background(), &Request{Text: "hello"}); err != nil {
		t.Fatalf("Play() unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "text contains no Arabic letters") {
		t.Errorf("Expected a warning for latin text, log: %s", buf.String())
	}

	buf.Reset()
	if _, err := player.Play(context.Background(), &Request{Text: "ب"}); err != nil {
		t.Fatalf("Play() unexpected error: %v", err)
	}
	if strings.Contains(buf.String(), "no Arabic letters") {
		t.Errorf("Unexpected warning for Arabic text: %s", buf.String())
	}
}
