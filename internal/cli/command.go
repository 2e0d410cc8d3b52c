package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"codeberg.org/snonux/iqra/internal"
	"codeberg.org/snonux/iqra/internal/audio"
)

// GUIRunner starts the graphical interface. It is supplied by main so this
// package stays free of the fyne dependency.
type GUIRunner func(config *audio.Config) error

// CreateRootCommand creates and configures the root cobra command
func CreateRootCommand(flags *Flags, runGUI GUIRunner) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "iqra",
		Short: "Arabic pronunciation player and asset checker",
		Long: `iqra plays the pronunciation of Arabic letters, words and Quran verses.

Audio is taken from the first source that works: an explicit recording,
the bundled letter and word assets, the alquran.cloud recitation API, and
finally speech synthesis.

Examples:
  iqra                          # Launch the pronunciation board (default)
  iqra play ب                   # Pronounce a letter
  iqra play بسم --verse 1:1     # Play a recited verse
  iqra validate --assets https://example.org/iqra
  iqra missing > todo.txt`,
		Args:          cobra.NoArgs,
		Version:       internal.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			SetupLogging(cmd.ErrOrStderr(), flags.Debug)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGUI(ConfigFromViper())
		},
	}

	setupFlags(rootCmd, flags)

	rootCmd.AddCommand(
		newPlayCommand(flags),
		newValidateCommand(flags),
		newMissingCommand(),
		newListCommand(),
		newModelsCommand(),
		&cobra.Command{
			Use:   "gui",
			Short: "Launch the pronunciation board",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runGUI(ConfigFromViper())
			},
		},
	)

	return rootCmd
}

func setupFlags(cmd *cobra.Command, flags *Flags) {
	pf := cmd.PersistentFlags()

	// Global flags
	pf.StringVar(&flags.CfgFile, "config", "", "config file (default is $HOME/.iqra.yaml)")
	pf.StringVarP(&flags.AssetBase, "assets", "a", flags.AssetBase, "Directory or URL the /audio/... asset paths resolve against")
	pf.StringVarP(&flags.SpeechEngine, "speech-engine", "e", flags.SpeechEngine, "Speech engine: espeak, openai, gemini or none")
	pf.StringVar(&flags.PlayerCommand, "player", "", "Audio player command (default: detected for the platform)")
	pf.BoolVar(&flags.StripDiacritics, "strip-diacritics", false, "Ignore harakat when looking up local assets")
	pf.BoolVar(&flags.Debug, "debug", false, "Enable debug logging")
	pf.DurationVar(&flags.HTTPTimeout, "timeout", 0, "HTTP timeout for asset and verse requests (0 uses transport defaults)")

	// Verse API flags
	pf.StringVar(&flags.VerseAPIURL, "verse-api", flags.VerseAPIURL, "Verse recitation API base URL")
	pf.StringVar(&flags.Reciter, "reciter", flags.Reciter, "Reciter edition, e.g. ar.alafasy, ar.husary")

	// Speech engine flags
	pf.StringVar(&flags.ESpeakVoice, "espeak-voice", flags.ESpeakVoice, "espeak-ng voice variant: ar, ar+m1 ... ar+f3")
	pf.StringVar(&flags.OpenAIModel, "openai-model", flags.OpenAIModel, "OpenAI TTS model: tts-1, tts-1-hd, gpt-4o-mini-tts")
	pf.StringVar(&flags.OpenAIVoice, "openai-voice", flags.OpenAIVoice, "OpenAI voice: alloy, ash, coral, echo, fable, onyx, nova, sage, shimmer")
	pf.StringVar(&flags.OpenAIInstruction, "openai-instruction", "", "Voice instructions for gpt-4o-mini-tts")
	pf.StringVar(&flags.GeminiModel, "gemini-model", flags.GeminiModel, "Gemini TTS model")
	pf.StringVar(&flags.GeminiVoice, "gemini-voice", flags.GeminiVoice, "Gemini prebuilt voice, e.g. Kore, Puck")

	// Bind flags to viper
	bindFlagsToViper(cmd)
}

// flagKeys maps persistent flags to their viper keys
var flagKeys = map[string]string{
	"assets":             "assets.base",
	"speech-engine":      "speech.engine",
	"player":             "player.command",
	"strip-diacritics":   "lookup.strip_diacritics",
	"timeout":            "http.timeout",
	"verse-api":          "verse.api_url",
	"reciter":            "verse.reciter",
	"espeak-voice":       "speech.espeak_voice",
	"openai-model":       "speech.openai_model",
	"openai-voice":       "speech.openai_voice",
	"openai-instruction": "speech.openai_instruction",
	"gemini-model":       "speech.gemini_model",
	"gemini-voice":       "speech.gemini_voice",
}

func bindFlagsToViper(cmd *cobra.Command) {
	for flag, key := range flagKeys {
		viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag))
	}
}

// InitConfig initializes viper configuration
func InitConfig(cfgFile string) {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting home directory: %v\n", err)
			return
		}

		// Search config in home directory with name ".iqra" (without extension)
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".iqra")
	}

	// Environment variables, e.g. IQRA_ASSETS_BASE
	viper.SetEnvPrefix("IQRA")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read config file
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// GetOpenAIKey retrieves the OpenAI API key from environment or config
func GetOpenAIKey() string {
	// First check environment variable
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return key
	}

	// Then check config file
	return viper.GetString("speech.openai_key")
}

// GetGeminiKey retrieves the Gemini API key from environment or config
func GetGeminiKey() string {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		return key
	}
	return viper.GetString("speech.gemini_key")
}

// ConfigFromViper builds the audio configuration from flags, config file
// and environment. Unset keys keep their defaults.
func ConfigFromViper() *audio.Config {
	config := audio.DefaultConfig()

	setString := func(key string, dst *string) {
		if viper.IsSet(key) {
			*dst = viper.GetString(key)
		}
	}

	setString("assets.base", &config.AssetBase)
	setString("speech.engine", &config.SpeechEngine)
	setString("player.command", &config.PlayerCommand)
	setString("verse.api_url", &config.VerseAPIURL)
	setString("verse.reciter", &config.Reciter)
	setString("speech.espeak_voice", &config.ESpeakVoice)
	setString("speech.openai_model", &config.OpenAIModel)
	setString("speech.openai_voice", &config.OpenAIVoice)
	setString("speech.openai_instruction", &config.OpenAIInstruction)
	setString("speech.gemini_model", &config.GeminiModel)
	setString("speech.gemini_voice", &config.GeminiVoice)

	if viper.IsSet("lookup.strip_diacritics") {
		config.StripDiacritics = viper.GetBool("lookup.strip_diacritics")
	}
	if viper.IsSet("http.timeout") {
		config.HTTPTimeout = viper.GetDuration("http.timeout")
	}

	config.OpenAIKey = GetOpenAIKey()
	config.GeminiKey = GetGeminiKey()
	return config
}
