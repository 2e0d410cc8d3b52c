package cli

import (
	"time"

	"codeberg.org/snonux/iqra/internal/audio"
)

// Flags holds all command-line flag values
type Flags struct {
	// General flags
	CfgFile         string
	AssetBase       string
	SpeechEngine    string
	PlayerCommand   string
	StripDiacritics bool
	Debug           bool
	HTTPTimeout     time.Duration

	// Verse API flags
	VerseAPIURL string
	Reciter     string

	// Speech engine flags
	ESpeakVoice       string
	OpenAIModel       string
	OpenAIVoice       string
	OpenAIInstruction string
	GeminiModel       string
	GeminiVoice       string

	// play flags
	AudioURL  string
	Verse     string
	Surah     int
	Ayah      int
	BatchFile string

	// validate flags
	Strict bool
}

// NewFlags creates a new Flags instance with default values
func NewFlags() *Flags {
	defaults := audio.DefaultConfig()
	return &Flags{
		AssetBase:    defaults.AssetBase,
		SpeechEngine: defaults.SpeechEngine,
		VerseAPIURL:  defaults.VerseAPIURL,
		Reciter:      defaults.Reciter,
		ESpeakVoice:  defaults.ESpeakVoice,
		OpenAIModel:  defaults.OpenAIModel,
		OpenAIVoice:  defaults.OpenAIVoice,
		GeminiModel:  defaults.GeminiModel,
		GeminiVoice:  defaults.GeminiVoice,
	}
}
