package audio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
)

const (
	// DefaultVerseAPIURL is the alquran.cloud API root
	DefaultVerseAPIURL = "https://api.alquran.cloud/v1"

	// DefaultReciter is the Mishary Alafasy recitation edition
	DefaultReciter = "ar.alafasy"
)

// ErrVerseUnavailable means the API answered but had no audio for the verse
var ErrVerseUnavailable = errors.New("verse audio not available")

// verseResponse is the subset of the ayah endpoint payload we read
type verseResponse struct {
	Code   int    `json:"code"`
	Status string `json:"status"`
	Data   struct {
		Number         int      `json:"number"`
		Text           string   `json:"text"`
		Audio          string   `json:"audio"`
		AudioSecondary []string `json:"audioSecondary"`
		NumberInSurah  int      `json:"numberInSurah"`
	} `json:"data"`
}

// VerseProvider fetches a recitation of a Quran verse from alquran.cloud
type VerseProvider struct {
	baseURL string
	reciter string
	client  *http.Client
	loader  Loader
	breaker *gobreaker.CircuitBreaker
}

// VerseOptions configures the verse step
type VerseOptions struct {
	BaseURL string
	Reciter string
	Client  *http.Client

	// Consecutive transport failures before the breaker opens
	TripAfter uint32
	// How long an open breaker skips the API
	OpenFor time.Duration
}

// DefaultVerseOptions returns the public API with a lenient breaker
func DefaultVerseOptions() *VerseOptions {
	return &VerseOptions{
		BaseURL:   DefaultVerseAPIURL,
		Reciter:   DefaultReciter,
		TripAfter: 3,
		OpenFor:   30 * time.Second,
	}
}

// NewVerseProvider creates the remote verse step
func NewVerseProvider(loader Loader, opts *VerseOptions) *VerseProvider {
	if opts == nil {
		opts = DefaultVerseOptions()
	}
	defaults := DefaultVerseOptions()
	if opts.BaseURL == "" {
		opts.BaseURL = defaults.BaseURL
	}
	if opts.Reciter == "" {
		opts.Reciter = defaults.Reciter
	}
	if opts.TripAfter == 0 {
		opts.TripAfter = defaults.TripAfter
	}
	if opts.OpenFor == 0 {
		opts.OpenFor = defaults.OpenFor
	}
	client := opts.Client
	if client == nil {
		client = http.DefaultClient
	}

	tripAfter := opts.TripAfter
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "alquran.cloud",
		Timeout: opts.OpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= tripAfter
		},
		// An answered request means the service is up, even without audio
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrVerseUnavailable)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("verse API circuit breaker changed state")
		},
	})

	return &VerseProvider{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		reciter: opts.Reciter,
		client:  client,
		loader:  loader,
		breaker: breaker,
	}
}

// TryResolve looks up the recitation URL for req's verse. The returned handle
// is bound lazily: the audio itself is only fetched when played.
func (p *VerseProvider) TryResolve(ctx context.Context, req *Request) (*Source, error) {
	if !req.HasVerse() {
		return nil, ErrSkipped
	}

	result, err := p.breaker.Execute(func() (interface{}, error) {
		return p.fetchAudioURL(ctx, req.Surah, req.Ayah)
	})
	if errors.Is(err, gobreaker.ErrOpenState) {
		log.Info().Str("request", req.ID).Int("surah", req.Surah).Int("ayah", req.Ayah).Msg("verse API circuit open, skipping recitation")
	}
	if err != nil {
		return nil, fmt.Errorf("API audio failed: %w", err)
	}

	h, err := p.loader.Bind(result.(string))
	if err != nil {
		return nil, err
	}
	log.Info().Str("request", req.ID).Int("surah", req.Surah).Int("ayah", req.Ayah).Msg("using alquran.cloud API audio")
	return &Source{Handle: h}, nil
}

// VerseURL returns the endpoint for a verse
func (p *VerseProvider) VerseURL(surah, ayah int) string {
	return fmt.Sprintf("%s/ayah/%d:%d/%s", p.baseURL, surah, ayah, p.reciter)
}

func (p *VerseProvider) fetchAudioURL(ctx context.Context, surah, ayah int) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.VerseURL(surah, ayah), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch audio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return "", fmt.Errorf("failed to fetch audio: HTTP %d", resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: HTTP %d", ErrVerseUnavailable, resp.StatusCode)
	}

	var body verseResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("%w: invalid response: %v", ErrVerseUnavailable, err)
	}
	if body.Status != "OK" {
		return "", fmt.Errorf("%w: status %q", ErrVerseUnavailable, body.Status)
	}
	if body.Data.Audio == "" {
		return "", ErrVerseUnavailable
	}

	return body.Data.Audio, nil
}

// BreakerState exposes the breaker state for diagnostics
func (p *VerseProvider) BreakerState() gobreaker.State {
	return p.breaker.State()
}

// Name returns the provider name
func (p *VerseProvider) Name() string {
	return "verse"
}
