package audio

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"codeberg.org/snonux/iqra/internal/playback"
)

// ErrBusy is returned when the control is activated while not idle
var ErrBusy = errors.New("pronunciation already in progress")

// Outcome describes what a Play call ended up doing
type Outcome struct {
	Source *Source // nil when nothing could be played
	// Reentered is set when a committed handle failed during playback
	// and the text was spoken by the synthesizer instead
	Reentered bool
}

// Player pairs a resolver with the playback state machine. It exclusively
// owns the single held handle.
type Player struct {
	resolver *Resolver
	synth    Synthesizer
	machine  *playback.Machine
	locale   string
	rate     float64

	mu     sync.Mutex
	held   Handle
	cancel context.CancelFunc // cancels the running Play
}

// NewPlayer creates a player. synth is used for the error-triggered
// fallback and may be nil.
func NewPlayer(resolver *Resolver, synth Synthesizer, machine *playback.Machine) *Player {
	if machine == nil {
		machine = playback.NewMachine()
	}
	return &Player{
		resolver: resolver,
		synth:    synth,
		machine:  machine,
		locale:   DefaultLocale,
		rate:     DefaultRate,
	}
}

// SetSpeech overrides the locale and rate used for reentry utterances
func (p *Player) SetSpeech(locale string, rate float64) {
	p.locale = locale
	p.rate = rate
}

// Machine returns the state machine driven by the player
func (p *Player) Machine() *playback.Machine {
	return p.machine
}

// Play resolves req and plays the result, blocking until playback is over.
// Resolution and playback failures are logged, not returned; errors are
// only returned for invalid requests, a busy control or a cancelled context.
func (p *Player) Play(ctx context.Context, req *Request) (*Outcome, error) {
	if err := ValidateText(req.Text); err != nil {
		return nil, err
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if !ContainsArabic(req.Text) {
		log.Warn().Str("request", req.ID).Str("text", req.Text).Msg("text contains no Arabic letters")
	}

	if err := p.machine.Fire(playback.ResolveStarted); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBusy, err)
	}
	p.releaseHeld()

	// Stop cancels playCtx; only the caller's ctx makes Play fail
	playCtx, cancel := context.WithCancel(ctx)
	p.mu.Lock()
	p.cancel = cancel
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.cancel = nil
		p.mu.Unlock()
		cancel()
	}()

	src, err := p.resolver.Resolve(playCtx, req)
	if err != nil {
		p.fire(playback.Cleared)
		if errors.Is(err, ErrNoSource) {
			log.Info().Str("request", req.ID).Str("text", req.Text).Msg("no audio available")
			return &Outcome{}, nil
		}
		if ctx.Err() == nil {
			log.Info().Str("request", req.ID).Msg("stopped while resolving")
			return &Outcome{}, nil
		}
		return nil, err
	}

	if src.IsSpeech() {
		if p.synth == nil {
			p.fire(playback.Cleared)
			return &Outcome{}, nil
		}
		log.Info().Str("request", req.ID).Str("engine", p.synth.Name()).Msg("using speech synthesis")
		p.speak(playCtx, req, src.Utterance)
		return &Outcome{Source: src}, ctx.Err()
	}

	return p.playHandle(ctx, playCtx, req, src)
}

// playHandle plays src under playCtx; ctx is the caller's context
func (p *Player) playHandle(ctx, playCtx context.Context, req *Request, src *Source) (*Outcome, error) {
	p.mu.Lock()
	p.held = src.Handle
	p.mu.Unlock()

	p.fire(playback.Loaded)
	err := src.Handle.Play(playCtx)
	if err == nil || errors.Is(err, context.Canceled) {
		p.fire(playback.Ended)
		p.releaseHeld()
		return &Outcome{Source: src}, ctx.Err()
	}

	log.Error().Err(err).Str("request", req.ID).Str("source", src.Handle.Source()).Msg("error playing audio file")
	p.fire(playback.Failed)

	// Reentry skips the url, lookup and verse steps
	if p.synth == nil || p.synth.IsAvailable() != nil {
		return &Outcome{Source: src}, nil
	}
	p.speak(playCtx, req, NewUtterance(req.Text, p.locale, p.rate))
	return &Outcome{Source: src, Reentered: true}, ctx.Err()
}

// speak drives SynthesisStarted/SynthesisEnded around the synthesizer. An
// engine that fails before it starts leaves a Loading control cleared.
func (p *Player) speak(ctx context.Context, req *Request, u *Utterance) {
	started := false
	err := p.synth.Speak(ctx, u, func() {
		started = true
		p.fire(playback.SynthesisStarted)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Str("request", req.ID).Str("engine", p.synth.Name()).Msg("speech synthesis failed")
	}

	switch {
	case started:
		p.fire(playback.SynthesisEnded)
	case p.machine.State() == playback.Loading:
		p.fire(playback.Cleared)
	}
}

// Stop cancels the running Play: resolution, a download in flight, the
// held handle or speech. It never blocks on the handle.
func (p *Player) Stop() {
	p.mu.Lock()
	held, cancel := p.held, p.cancel
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if held != nil {
		held.Stop()
	}
}

// Close stops and releases the held handle
func (p *Player) Close() error {
	return p.releaseHeld()
}

// releaseHeld stops the previous handle and resets it
func (p *Player) releaseHeld() error {
	p.mu.Lock()
	held := p.held
	p.held = nil
	p.mu.Unlock()

	if held == nil {
		return nil
	}
	held.Stop()
	return held.Close()
}

func (p *Player) fire(e playback.Event) {
	if err := p.machine.Fire(e); err != nil {
		log.Debug().Err(err).Msg("ignored playback transition")
	}
}
