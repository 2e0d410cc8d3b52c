package audio

import (
	"context"
)

// ESpeakSynthesizer implements Synthesizer for espeak-ng
type ESpeakSynthesizer struct {
	espeak *ESpeak
}

// NewESpeakSynthesizer creates a new espeak-ng synthesizer
func NewESpeakSynthesizer(config *ESpeakConfig) *ESpeakSynthesizer {
	return &ESpeakSynthesizer{espeak: NewESpeak(config)}
}

// Speak speaks the utterance with the voice matching its locale
func (s *ESpeakSynthesizer) Speak(ctx context.Context, u *Utterance, onStart func()) error {
	if voice := VoiceForLocale(u.Lang); voice != "" && !hasVoicePrefix(s.espeak.config.Voice, voice) {
		s.espeak.SetVoice(voice)
	}
	return s.espeak.Speak(ctx, u.Text, u.Rate, onStart)
}

func hasVoicePrefix(voice, lang string) bool {
	return voice == lang || len(voice) > len(lang) && voice[:len(lang)+1] == lang+"+"
}

// Name returns the engine name
func (s *ESpeakSynthesizer) Name() string {
	return "espeak-ng"
}

// IsAvailable checks if espeak-ng is installed
func (s *ESpeakSynthesizer) IsAvailable() error {
	return s.espeak.checkInstalled()
}
