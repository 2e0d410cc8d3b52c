package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"os"
	"strings"
	"testing"

	"google.golang.org/genai"

	"codeberg.org/snonux/iqra/internal/testutil"
)

func TestNewGeminiSynthesizerRequiresKey(t *testing.T) {
	if _, err := NewGeminiSynthesizer(&GeminiConfig{}, nil); err == nil {
		t.Error("Expected error without API key")
	}

	synth, err := NewGeminiSynthesizer(&GeminiConfig{APIKey: "test-key"}, &testutil.MockFilePlayer{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if synth.config.Voice != "Kore" || synth.config.Model == "" {
		t.Errorf("Unexpected defaults %+v", synth.config)
	}
}

func TestGeminiPrompt(t *testing.T) {
	tests := []struct {
		rate float64
		pace string
	}{
		{0.7, "slowly and clearly"},
		{1.0, "at a natural pace"},
		{1.5, "briskly"},
	}

	for _, tt := range tests {
		prompt := geminiPrompt(&Utterance{Text: "مرحبا", Rate: tt.rate})
		if !strings.Contains(prompt, tt.pace) || !strings.HasSuffix(prompt, "مرحبا") {
			t.Errorf("geminiPrompt(rate %.1f) = %q", tt.rate, prompt)
		}
	}
}

func TestGeminiSpeechConfig(t *testing.T) {
	synth, _ := NewGeminiSynthesizer(&GeminiConfig{APIKey: "test-key", Voice: "Puck"}, nil)
	cfg := synth.speechConfig(NewUtterance("ب", "", 0))

	if len(cfg.ResponseModalities) != 1 || cfg.ResponseModalities[0] != "AUDIO" {
		t.Errorf("ResponseModalities = %v", cfg.ResponseModalities)
	}
	if cfg.SpeechConfig.LanguageCode != "ar-SA" {
		t.Errorf("LanguageCode = %s, want ar-SA", cfg.SpeechConfig.LanguageCode)
	}
	if cfg.SpeechConfig.VoiceConfig.PrebuiltVoiceConfig.VoiceName != "Puck" {
		t.Errorf("VoiceName = %s, want Puck", cfg.SpeechConfig.VoiceConfig.PrebuiltVoiceConfig.VoiceName)
	}
}

func TestGeminiSynthesizerSpeak(t *testing.T) {
	synth, _ := NewGeminiSynthesizer(&GeminiConfig{APIKey: "test-key", TempDir: t.TempDir()}, nil)

	pcm := []byte{1, 0, 2, 0, 3, 0}
	var wavSeen []byte
	var promptSeen string
	synth.generate = func(ctx context.Context, prompt string, cfg *genai.GenerateContentConfig) ([]byte, error) {
		promptSeen = prompt
		return pcm, nil
	}
	synth.player = playerFunc(func(ctx context.Context, file string) error {
		data, err := os.ReadFile(file)
		wavSeen = data
		return err
	})

	started := false
	if err := synth.Speak(context.Background(), NewUtterance("الله", "", 0), func() { started = true }); err != nil {
		t.Fatalf("Speak() unexpected error: %v", err)
	}

	if !started {
		t.Error("Expected onStart to be called")
	}
	if !strings.Contains(promptSeen, "الله") {
		t.Errorf("Prompt missing text: %q", promptSeen)
	}
	if len(wavSeen) != 44+len(pcm) || !bytes.HasSuffix(wavSeen, pcm) {
		t.Errorf("Unexpected wav file of %d bytes", len(wavSeen))
	}
}

func TestGeminiSynthesizerErrors(t *testing.T) {
	player := &testutil.MockFilePlayer{}
	synth, _ := NewGeminiSynthesizer(&GeminiConfig{APIKey: "test-key", TempDir: t.TempDir()}, player)

	synth.generate = func(context.Context, string, *genai.GenerateContentConfig) ([]byte, error) {
		return nil, errors.New("quota exceeded")
	}
	if err := synth.Speak(context.Background(), NewUtterance("ب", "", 0), nil); err == nil {
		t.Error("Expected API error")
	}

	synth.generate = func(context.Context, string, *genai.GenerateContentConfig) ([]byte, error) {
		return nil, nil
	}
	if err := synth.Speak(context.Background(), NewUtterance("ب", "", 0), nil); err == nil || !strings.Contains(err.Error(), "no audio data") {
		t.Errorf("Expected no audio data error, got %v", err)
	}

	if len(player.Played()) != 0 {
		t.Error("Nothing should be played on failure")
	}
}

func TestPCMToWav(t *testing.T) {
	pcm := make([]byte, 480)
	wav, err := pcmToWav(pcm)
	if err != nil {
		t.Fatalf("pcmToWav() unexpected error: %v", err)
	}

	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" || string(wav[36:40]) != "data" {
		t.Fatalf("Invalid WAV header % x", wav[:44])
	}
	if size := binary.LittleEndian.Uint32(wav[4:8]); size != uint32(36+len(pcm)) {
		t.Errorf("RIFF size = %d, want %d", size, 36+len(pcm))
	}
	if rate := binary.LittleEndian.Uint32(wav[24:28]); rate != 24000 {
		t.Errorf("Sample rate = %d, want 24000", rate)
	}
	if channels := binary.LittleEndian.Uint16(wav[22:24]); channels != 1 {
		t.Errorf("Channels = %d, want 1", channels)
	}
	if bits := binary.LittleEndian.Uint16(wav[34:36]); bits != 16 {
		t.Errorf("Bits per sample = %d, want 16", bits)
	}
	if data := binary.LittleEndian.Uint32(wav[40:44]); data != uint32(len(pcm)) {
		t.Errorf("Data size = %d, want %d", data, len(pcm))
	}
}

// playerFunc adapts a function to FilePlayer
type playerFunc func(ctx context.Context, file string) error

func (f playerFunc) PlayFile(ctx context.Context, file string) error { return f(ctx, file) }
