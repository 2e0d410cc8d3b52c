package audio

import (
	"context"
	"fmt"
	"math"
	"os/exec"
	"strings"
)

// ESpeakConfig holds configuration for espeak-ng speech output
type ESpeakConfig struct {
	Binary    string // Executable name or path (default: espeak-ng)
	Voice     string // Voice variant (e.g., "ar", "ar+m1", "ar+f2")
	Speed     int    // Normal speech speed in words per minute (default: 175)
	Pitch     int    // Pitch adjustment, 0 to 99 (default: 50)
	Amplitude int    // Volume/amplitude, 0 to 200 (default: 100)
	WordGap   int    // Gap between words in 10ms units (default: 0)
}

// DefaultESpeakConfig returns the default configuration for the Arabic voice
func DefaultESpeakConfig() *ESpeakConfig {
	return &ESpeakConfig{
		Binary:    "espeak-ng",
		Voice:     "ar",
		Speed:     175,
		Pitch:     50,
		Amplitude: 100,
		WordGap:   0,
	}
}

// ESpeak provides an interface to the espeak-ng text-to-speech engine
type ESpeak struct {
	config *ESpeakConfig
}

// NewESpeak creates a new ESpeak instance with the given configuration
func NewESpeak(config *ESpeakConfig) *ESpeak {
	if config == nil {
		config = DefaultESpeakConfig()
	}
	if config.Binary == "" {
		config.Binary = "espeak-ng"
	}
	return &ESpeak{config: config}
}

// args builds the espeak-ng command line for text spoken at rate
func (e *ESpeak) args(text string, rate float64) []string {
	args := []string{
		"-v", e.config.Voice,
		"-s", fmt.Sprintf("%d", clamp(int(math.Round(float64(e.config.Speed)*rate)), 80, 450)),
		"-p", fmt.Sprintf("%d", e.config.Pitch),
		"-a", fmt.Sprintf("%d", e.config.Amplitude),
	}

	if e.config.WordGap > 0 {
		args = append(args, "-g", fmt.Sprintf("%d", e.config.WordGap))
	}

	return append(args, text)
}

// Speak plays text directly through the sound device
func (e *ESpeak) Speak(ctx context.Context, text string, rate float64, onStart func()) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyText
	}

	cmd := exec.CommandContext(ctx, e.config.Binary, e.args(text, rate)...)
	var output strings.Builder
	cmd.Stdout = &output
	cmd.Stderr = &output

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("espeak-ng failed to start: %w", err)
	}
	if onStart != nil {
		onStart()
	}
	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("espeak-ng failed: %w\nOutput: %s", err, output.String())
	}
	return nil
}

// SetVoice updates the voice variant
func (e *ESpeak) SetVoice(voice string) {
	e.config.Voice = voice
}

// SetSpeed updates the normal speech speed
func (e *ESpeak) SetSpeed(speed int) {
	e.config.Speed = clamp(speed, 80, 450)
}

// SetPitch updates the pitch (0-99, 50 is default)
func (e *ESpeak) SetPitch(pitch int) {
	e.config.Pitch = clamp(pitch, 0, 99)
}

// SetAmplitude updates the volume/amplitude (0-200, 100 is default)
func (e *ESpeak) SetAmplitude(amplitude int) {
	e.config.Amplitude = clamp(amplitude, 0, 200)
}

// SetWordGap updates the gap between words in 10ms units
func (e *ESpeak) SetWordGap(gap int) {
	if gap < 0 {
		gap = 0
	}
	e.config.WordGap = gap
}

// checkInstalled verifies that espeak-ng is available on the system
func (e *ESpeak) checkInstalled() error {
	cmd := exec.Command(e.config.Binary, "--version")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("espeak-ng is not installed or not in PATH: %w", err)
	}
	return nil
}

// ListVoices returns available Arabic voice variants
func ListVoices() []string {
	return []string{
		"ar",    // Default Arabic voice
		"ar+m1", // Arabic male voice 1
		"ar+m2", // Arabic male voice 2
		"ar+m3", // Arabic male voice 3
		"ar+f1", // Arabic female voice 1
		"ar+f2", // Arabic female voice 2
		"ar+f3", // Arabic female voice 3
	}
}

// VoiceForLocale maps a BCP 47 tag to an espeak-ng voice
func VoiceForLocale(locale string) string {
	lang, _, _ := strings.Cut(locale, "-")
	if lang == "" {
		return "ar"
	}
	return strings.ToLower(lang)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
