package audio

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"codeberg.org/snonux/iqra/internal/mapping"
)

var (
	// ErrNoSource is returned when every provider in the chain failed
	ErrNoSource = errors.New("no audio source available")

	// ErrSkipped is returned by a provider that does not apply to a request
	ErrSkipped = errors.New("provider does not apply")
)

// Request is one pronunciation request, created per activation
type Request struct {
	ID       string // correlation id for logs
	Text     string // token to pronounce
	AudioURL string // optional explicit source
	Surah    int    // optional verse coordinates, 1-based, 0 when absent
	Ayah     int
}

// HasVerse reports whether both verse coordinates are present
func (r *Request) HasVerse() bool {
	return r.Surah > 0 && r.Ayah > 0
}

// Source is the outcome of a successful resolution. Exactly one of Handle
// and Utterance is set.
type Source struct {
	Provider  string
	Handle    Handle
	Utterance *Utterance
}

// IsSpeech reports whether the source is a synthesis utterance
func (s *Source) IsSpeech() bool {
	return s.Utterance != nil
}

// String describes the source for logs and CLI output
func (s *Source) String() string {
	if s.IsSpeech() {
		return fmt.Sprintf("%s: speech %q (%s, rate %.1f)", s.Provider, s.Utterance.Text, s.Utterance.Lang, s.Utterance.Rate)
	}
	return fmt.Sprintf("%s: %s", s.Provider, s.Handle.Source())
}

// Provider is one step of the fallback chain
type Provider interface {
	// TryResolve returns a source or an error; ErrSkipped means the step
	// did not apply to the request
	TryResolve(ctx context.Context, req *Request) (*Source, error)

	// Name returns the provider name
	Name() string
}

// Resolver folds over its providers in order and stops at the first success
type Resolver struct {
	providers []Provider
}

// NewResolver creates a resolver from an ordered provider list
func NewResolver(providers ...Provider) *Resolver {
	return &Resolver{providers: providers}
}

// Providers returns the provider names in chain order
func (r *Resolver) Providers() []string {
	names := make([]string, len(r.providers))
	for i, p := range r.providers {
		names[i] = p.Name()
	}
	return names
}

// Resolve runs the chain. Provider failures are logged and never returned;
// only ErrNoSource or a context error reach the caller.
func (r *Resolver) Resolve(ctx context.Context, req *Request) (*Source, error) {
	for _, p := range r.providers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		src, err := p.TryResolve(ctx, req)
		if err == nil {
			src.Provider = p.Name()
			log.Debug().Str("request", req.ID).Str("provider", p.Name()).Msg("audio source resolved")
			return src, nil
		}

		if errors.Is(err, ErrSkipped) {
			log.Debug().Str("request", req.ID).Str("provider", p.Name()).Msg("provider skipped")
			continue
		}
		log.Warn().Err(err).Str("request", req.ID).Str("provider", p.Name()).Msg("provider failed, trying next")
	}

	return nil, ErrNoSource
}

// URLProvider plays an explicitly supplied audio URL
type URLProvider struct {
	loader Loader
}

// NewURLProvider creates the explicit URL step
func NewURLProvider(loader Loader) *URLProvider {
	return &URLProvider{loader: loader}
}

// TryResolve preloads req.AudioURL
func (p *URLProvider) TryResolve(ctx context.Context, req *Request) (*Source, error) {
	if req.AudioURL == "" {
		return nil, ErrSkipped
	}

	h, err := p.loader.Load(ctx, req.AudioURL)
	if err != nil {
		return nil, fmt.Errorf("provided audio URL failed: %w", err)
	}
	return &Source{Handle: h}, nil
}

// Name returns the provider name
func (p *URLProvider) Name() string {
	return "url"
}

// LookupProvider plays the local asset mapped to the request text
type LookupProvider struct {
	loader          Loader
	table           *mapping.Table
	stripDiacritics bool
}

// NewLookupProvider creates the local lookup step over table
func NewLookupProvider(loader Loader, table *mapping.Table, stripDiacritics bool) *LookupProvider {
	if table == nil {
		table = mapping.Combined
	}
	return &LookupProvider{
		loader:          loader,
		table:           table,
		stripDiacritics: stripDiacritics,
	}
}

// TryResolve looks up the normalized text and preloads its asset
func (p *LookupProvider) TryResolve(ctx context.Context, req *Request) (*Source, error) {
	path, ok := p.table.Get(mapping.Normalize(req.Text, p.stripDiacritics))
	if !ok {
		return nil, ErrSkipped
	}

	h, err := p.loader.Load(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("local audio file %s not found: %w", path, err)
	}
	log.Info().Str("request", req.ID).Str("path", path).Msg("using local audio file")
	return &Source{Handle: h}, nil
}

// Name returns the provider name
func (p *LookupProvider) Name() string {
	return "lookup"
}

// SynthesisProvider is the final step. It always succeeds when its
// synthesizer is available.
type SynthesisProvider struct {
	synth  Synthesizer
	locale string
	rate   float64
}

// NewSynthesisProvider creates the speech fallback step
func NewSynthesisProvider(synth Synthesizer, locale string, rate float64) *SynthesisProvider {
	return &SynthesisProvider{synth: synth, locale: locale, rate: rate}
}

// TryResolve returns an utterance for the raw request text
func (p *SynthesisProvider) TryResolve(ctx context.Context, req *Request) (*Source, error) {
	if p.synth == nil {
		return nil, fmt.Errorf("speech synthesis not configured")
	}
	if err := p.synth.IsAvailable(); err != nil {
		return nil, fmt.Errorf("speech synthesis unavailable: %w", err)
	}
	return &Source{Utterance: NewUtterance(req.Text, p.locale, p.rate)}, nil
}

// Name returns the provider name
func (p *SynthesisProvider) Name() string {
	return "speech"
}
