package audio

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// OpenAIConfig holds settings for OpenAI speech
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string // optional, for proxies and tests
	Model       string // "tts-1", "tts-1-hd", or "gpt-4o-mini-tts"
	Voice       string // "alloy", "ash", "coral", "echo", "fable", "onyx", "nova", "sage", "shimmer"
	Instruction string // voice instructions for gpt-4o-mini-tts
	TempDir     string // where speech is written before it is played
}

// DefaultOpenAIConfig returns the defaults used for Arabic speech
func DefaultOpenAIConfig() *OpenAIConfig {
	return &OpenAIConfig{
		Model:       "gpt-4o-mini-tts",
		Voice:       "alloy",
		Instruction: "You are speaking Arabic (ar-SA). Pronounce the text exactly as written with classical Arabic phonetics. Speak slowly and clearly for learners.",
		TempDir:     os.TempDir(),
	}
}

// OpenAISynthesizer implements Synthesizer with OpenAI TTS
type OpenAISynthesizer struct {
	client *openai.Client
	config *OpenAIConfig
	player FilePlayer
}

// NewOpenAISynthesizer creates a new OpenAI TTS synthesizer
func NewOpenAISynthesizer(config *OpenAIConfig, player FilePlayer) (*OpenAISynthesizer, error) {
	if config == nil || config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	defaults := DefaultOpenAIConfig()
	if config.Model == "" {
		config.Model = defaults.Model
	}
	if config.Voice == "" {
		config.Voice = defaults.Voice
	}
	if config.TempDir == "" {
		config.TempDir = defaults.TempDir
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &OpenAISynthesizer{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
		player: player,
	}, nil
}

func (s *OpenAISynthesizer) supportsInstructions() bool {
	return s.config.Instruction != "" && (s.config.Model == "gpt-4o-mini-tts" || s.config.Model == "gpt-4o-mini-audio-preview")
}

// Speak requests speech for u, stores it and plays it
func (s *OpenAISynthesizer) Speak(ctx context.Context, u *Utterance, onStart func()) error {
	text := strings.TrimSpace(u.Text)
	if text == "" {
		return ErrEmptyText
	}

	req := openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(s.config.Model),
		Input:          text,
		Voice:          openai.SpeechVoice(s.config.Voice),
		Speed:          u.Rate,
		ResponseFormat: openai.SpeechResponseFormatMp3,
	}
	if s.supportsInstructions() {
		req.Instructions = s.config.Instruction
	}

	response, err := s.client.CreateSpeech(ctx, req)
	if err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "does not have access to model") && s.supportsInstructions() {
			return fmt.Errorf("OpenAI TTS API error: %w\nNote: The %s model requires access. Try --openai-model tts-1-hd instead", err, s.config.Model)
		}
		return fmt.Errorf("OpenAI TTS API error: %w", err)
	}
	defer response.Close()

	out, err := os.CreateTemp(s.config.TempDir, "iqra-speech-*.mp3")
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer os.Remove(out.Name())

	written, err := io.Copy(out, response)
	closeErr := out.Close()
	if err != nil {
		return fmt.Errorf("failed to write audio file: %w", err)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to write audio file: %w", closeErr)
	}
	if written == 0 {
		return fmt.Errorf("no audio data received from OpenAI")
	}

	if onStart != nil {
		onStart()
	}
	return s.player.PlayFile(ctx, out.Name())
}

// Name returns the engine name
func (s *OpenAISynthesizer) Name() string {
	return "openai"
}

// IsAvailable checks that the synthesizer is configured. No API call is made
// since that would use credits.
func (s *OpenAISynthesizer) IsAvailable() error {
	if s.config.APIKey == "" {
		return fmt.Errorf("OpenAI API key not configured")
	}
	if s.player == nil {
		return fmt.Errorf("no audio player configured")
	}
	if checker, ok := s.player.(interface{ IsAvailable() error }); ok {
		return checker.IsAvailable()
	}
	return nil
}
