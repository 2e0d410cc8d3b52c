package audio

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

const (
	// DefaultLocale is the only speech locale
	DefaultLocale = "ar-SA"

	// DefaultRate slows speech down for learners
	DefaultRate = 0.7
)

// Utterance is text bound for speech synthesis
type Utterance struct {
	Text string
	Lang string
	Rate float64 // 1.0 is normal speed
}

// NewUtterance creates an utterance, filling in the default locale and rate
func NewUtterance(text, lang string, rate float64) *Utterance {
	if lang == "" {
		lang = DefaultLocale
	}
	if rate <= 0 {
		rate = DefaultRate
	}
	return &Utterance{Text: text, Lang: lang, Rate: rate}
}

// Synthesizer speaks utterances
type Synthesizer interface {
	// Speak blocks until the utterance has been spoken. onStart is called
	// once, when audio output begins.
	Speak(ctx context.Context, u *Utterance, onStart func()) error

	// Name returns the engine name
	Name() string

	// IsAvailable checks if the engine is properly configured and available
	IsAvailable() error
}

// SynthesizerWithFallback wraps a primary engine with a fallback option
type SynthesizerWithFallback struct {
	primary  Synthesizer
	fallback Synthesizer
}

// NewSynthesizerWithFallback creates a synthesizer that falls back to
// secondary if primary fails before it starts speaking
func NewSynthesizerWithFallback(primary, fallback Synthesizer) Synthesizer {
	return &SynthesizerWithFallback{
		primary:  primary,
		fallback: fallback,
	}
}

// Speak tries primary first. Once primary has started speaking its errors
// are returned as-is so the text is never spoken twice.
func (s *SynthesizerWithFallback) Speak(ctx context.Context, u *Utterance, onStart func()) error {
	started := false
	err := s.primary.Speak(ctx, u, func() {
		started = true
		if onStart != nil {
			onStart()
		}
	})
	if err == nil || started || ctx.Err() != nil {
		return err
	}

	log.Warn().Err(err).Str("primary", s.primary.Name()).Str("fallback", s.fallback.Name()).Msg("primary synthesizer failed, falling back")
	return s.fallback.Speak(ctx, u, onStart)
}

// Name returns the engine name
func (s *SynthesizerWithFallback) Name() string {
	return fmt.Sprintf("%s (fallback: %s)", s.primary.Name(), s.fallback.Name())
}

// IsAvailable checks if at least one engine is available
func (s *SynthesizerWithFallback) IsAvailable() error {
	primaryErr := s.primary.IsAvailable()
	if primaryErr == nil {
		return nil
	}

	fallbackErr := s.fallback.IsAvailable()
	if fallbackErr == nil {
		return nil
	}

	return fmt.Errorf("both synthesizers unavailable: primary=%v, fallback=%v",
		primaryErr, fallbackErr)
}
