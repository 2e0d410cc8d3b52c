package audio

import (
	"fmt"
	"net/http"
	"time"

	"codeberg.org/snonux/iqra/internal/mapping"
	"codeberg.org/snonux/iqra/internal/playback"
)

// Config holds everything needed to build a pronunciation player
type Config struct {
	AssetBase       string // URL or directory the /audio/... paths resolve against
	StripDiacritics bool   // strip harakat before table lookup
	PlayerCommand   string // external player override
	HTTPTimeout     time.Duration

	VerseAPIURL string
	Reciter     string

	SpeechEngine string // "espeak", "openai", "gemini" or "none"
	Locale       string
	Rate         float64

	ESpeakVoice string

	OpenAIKey         string
	OpenAIModel       string
	OpenAIVoice       string
	OpenAIInstruction string

	GeminiKey   string
	GeminiModel string
	GeminiVoice string
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		AssetBase:    "./public",
		VerseAPIURL:  DefaultVerseAPIURL,
		Reciter:      DefaultReciter,
		SpeechEngine: "espeak",
		Locale:       DefaultLocale,
		Rate:         DefaultRate,
		ESpeakVoice:  "ar",
		OpenAIModel:  "gpt-4o-mini-tts",
		OpenAIVoice:  "alloy",
		GeminiModel:  "gemini-2.5-flash-preview-tts",
		GeminiVoice:  "Kore",
	}
}

// HTTPClient returns the client shared by the loader and the verse step.
// A zero timeout keeps the transport defaults.
func (c *Config) HTTPClient() *http.Client {
	if c.HTTPTimeout <= 0 {
		return http.DefaultClient
	}
	return &http.Client{Timeout: c.HTTPTimeout}
}

// NewSynthesizer creates the configured speech engine. Cloud engines fall
// back to espeak-ng. "none" returns nil, nil.
func NewSynthesizer(config *Config, player FilePlayer) (Synthesizer, error) {
	if config == nil {
		config = DefaultConfig()
	}

	espeakConfig := DefaultESpeakConfig()
	if config.ESpeakVoice != "" {
		espeakConfig.Voice = config.ESpeakVoice
	}
	espeak := NewESpeakSynthesizer(espeakConfig)

	switch config.SpeechEngine {
	case "", "espeak", "espeak-ng":
		return espeak, nil

	case "openai":
		if config.OpenAIKey == "" {
			return nil, fmt.Errorf("OpenAI API key is required")
		}
		openaiConfig := DefaultOpenAIConfig()
		openaiConfig.APIKey = config.OpenAIKey
		if config.OpenAIModel != "" {
			openaiConfig.Model = config.OpenAIModel
		}
		if config.OpenAIVoice != "" {
			openaiConfig.Voice = config.OpenAIVoice
		}
		if config.OpenAIInstruction != "" {
			openaiConfig.Instruction = config.OpenAIInstruction
		}
		synth, err := NewOpenAISynthesizer(openaiConfig, player)
		if err != nil {
			return nil, err
		}
		return NewSynthesizerWithFallback(synth, espeak), nil

	case "gemini":
		if config.GeminiKey == "" {
			return nil, fmt.Errorf("Gemini API key is required")
		}
		synth, err := NewGeminiSynthesizer(&GeminiConfig{
			APIKey: config.GeminiKey,
			Model:  config.GeminiModel,
			Voice:  config.GeminiVoice,
		}, player)
		if err != nil {
			return nil, err
		}
		return NewSynthesizerWithFallback(synth, espeak), nil

	case "none":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown speech engine: %s", config.SpeechEngine)
	}
}

// NewChain builds the resolver in its fixed order: explicit URL, local
// lookup, verse API, speech
func NewChain(config *Config, loader Loader, synth Synthesizer) *Resolver {
	providers := []Provider{
		NewURLProvider(loader),
		NewLookupProvider(loader, mapping.Combined, config.StripDiacritics),
		NewVerseProvider(loader, &VerseOptions{
			BaseURL: config.VerseAPIURL,
			Reciter: config.Reciter,
			Client:  config.HTTPClient(),
		}),
	}
	if synth != nil {
		providers = append(providers, NewSynthesisProvider(synth, config.Locale, config.Rate))
	}
	return NewResolver(providers...)
}

// NewPlayerFromConfig wires loader, resolver, synthesizer and a fresh state
// machine together
func NewPlayerFromConfig(config *Config) (*Player, error) {
	if config == nil {
		config = DefaultConfig()
	}

	filePlayer := NewCommandPlayer(config.PlayerCommand)
	synth, err := NewSynthesizer(config, filePlayer)
	if err != nil {
		return nil, err
	}

	loader := NewAssetLoader(config.AssetBase, config.HTTPClient(), filePlayer)
	player := NewPlayer(NewChain(config, loader, synth), synth, playback.NewMachine())
	player.SetSpeech(config.Locale, config.Rate)
	return player, nil
}
