package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"strings"

	"google.golang.org/genai"
)

const (
	geminiSampleRateHz  = 24000
	geminiChannels      = 1
	geminiBitsPerSample = 16
)

// GeminiConfig holds settings for Gemini speech generation
type GeminiConfig struct {
	APIKey  string
	Model   string // a TTS capable model
	Voice   string // prebuilt voice name
	TempDir string
}

// DefaultGeminiConfig returns the defaults used for Arabic speech
func DefaultGeminiConfig() *GeminiConfig {
	return &GeminiConfig{
		Model:   "gemini-2.5-flash-preview-tts",
		Voice:   "Kore",
		TempDir: os.TempDir(),
	}
}

// GeminiSynthesizer implements Synthesizer with the Gemini API
type GeminiSynthesizer struct {
	config *GeminiConfig
	player FilePlayer

	// generate is swapped out in tests
	generate func(ctx context.Context, prompt string, cfg *genai.GenerateContentConfig) ([]byte, error)
}

// NewGeminiSynthesizer creates a Gemini synthesizer
func NewGeminiSynthesizer(config *GeminiConfig, player FilePlayer) (*GeminiSynthesizer, error) {
	if config == nil || config.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	defaults := DefaultGeminiConfig()
	if config.Model == "" {
		config.Model = defaults.Model
	}
	if config.Voice == "" {
		config.Voice = defaults.Voice
	}
	if config.TempDir == "" {
		config.TempDir = defaults.TempDir
	}

	s := &GeminiSynthesizer{config: config, player: player}
	s.generate = s.generatePCM
	return s, nil
}

// prompt asks for a verbatim reading; pace is expressed in words since the
// API has no rate parameter
func geminiPrompt(u *Utterance) string {
	pace := "at a natural pace"
	if u.Rate < 1 {
		pace = "slowly and clearly"
	} else if u.Rate > 1 {
		pace = "briskly"
	}
	return fmt.Sprintf("Read the following Arabic text %s, verbatim, without adding anything: %s", pace, u.Text)
}

func (s *GeminiSynthesizer) speechConfig(u *Utterance) *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		Temperature:        genai.Ptr[float32](0),
		SpeechConfig: &genai.SpeechConfig{
			LanguageCode: u.Lang,
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{
					VoiceName: s.config.Voice,
				},
			},
		},
	}
}

func (s *GeminiSynthesizer) generatePCM(ctx context.Context, prompt string, cfg *genai.GenerateContentConfig) ([]byte, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  s.config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("client init failed: %w", err)
	}

	resp, err := client.Models.GenerateContent(ctx, s.config.Model, genai.Text(prompt), cfg)
	if err != nil {
		return nil, fmt.Errorf("Gemini TTS API error: %w", err)
	}

	var pcm bytes.Buffer
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				pcm.Write(part.InlineData.Data)
			}
		}
	}
	return pcm.Bytes(), nil
}

// Speak generates speech for u and plays it
func (s *GeminiSynthesizer) Speak(ctx context.Context, u *Utterance, onStart func()) error {
	if strings.TrimSpace(u.Text) == "" {
		return ErrEmptyText
	}

	pcm, err := s.generate(ctx, geminiPrompt(u), s.speechConfig(u))
	if err != nil {
		return err
	}
	if len(pcm) == 0 {
		return fmt.Errorf("no audio data received from Gemini")
	}

	wav, err := pcmToWav(pcm)
	if err != nil {
		return fmt.Errorf("wav encode failed: %w", err)
	}

	out, err := os.CreateTemp(s.config.TempDir, "iqra-speech-*.wav")
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer os.Remove(out.Name())

	_, err = out.Write(wav)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("failed to write audio file: %w", err)
	}

	if onStart != nil {
		onStart()
	}
	return s.player.PlayFile(ctx, out.Name())
}

// Name returns the engine name
func (s *GeminiSynthesizer) Name() string {
	return "gemini"
}

// IsAvailable checks that the synthesizer is configured
func (s *GeminiSynthesizer) IsAvailable() error {
	if s.config.APIKey == "" {
		return fmt.Errorf("Gemini API key not configured")
	}
	if s.player == nil {
		return fmt.Errorf("no audio player configured")
	}
	if checker, ok := s.player.(interface{ IsAvailable() error }); ok {
		return checker.IsAvailable()
	}
	return nil
}

// pcmToWav wraps raw 16-bit mono PCM in a WAV container
func pcmToWav(pcm []byte) ([]byte, error) {
	byteRate := geminiSampleRateHz * geminiChannels * geminiBitsPerSample / 8
	blockAlign := geminiChannels * geminiBitsPerSample / 8
	dataLen := uint32(len(pcm))

	buf := &bytes.Buffer{}
	buf.WriteString("RIFF")
	if err := writeLE(buf, uint32(36+dataLen)); err != nil {
		return nil, err
	}
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	if err := writeLE(buf,
		uint32(16),
		uint16(1),
		uint16(geminiChannels),
		uint32(geminiSampleRateHz),
		uint32(byteRate),
		uint16(blockAlign),
		uint16(geminiBitsPerSample),
	); err != nil {
		return nil, err
	}
	buf.WriteString("data")
	if err := writeLE(buf, dataLen); err != nil {
		return nil, err
	}
	buf.Write(pcm)

	return buf.Bytes(), nil
}

func writeLE(buf *bytes.Buffer, values ...any) error {
	for _, v := range values {
		if err := binary.Write(buf, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	return nil
}
