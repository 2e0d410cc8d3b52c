package cli

import (
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"codeberg.org/snonux/iqra/internal/audio"
	"codeberg.org/snonux/iqra/internal/batch"
	"codeberg.org/snonux/iqra/internal/mapping"
	"codeberg.org/snonux/iqra/internal/models"
	"codeberg.org/snonux/iqra/internal/playback"
	"codeberg.org/snonux/iqra/internal/validator"
)

func newPlayCommand(flags *Flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play [token...]",
		Short: "Pronounce letters, words or a verse",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			requests, err := playRequests(flags, args)
			if err != nil {
				return err
			}

			player, err := audio.NewPlayerFromConfig(ConfigFromViper())
			if err != nil {
				return err
			}
			defer player.Close()
			player.Machine().Subscribe(logTransition)

			out := cmd.OutOrStdout()
			for _, req := range requests {
				outcome, err := player.Play(cmd.Context(), req)
				if err != nil {
					return fmt.Errorf("failed to play %q: %w", req.Text, err)
				}
				writeOutcome(out, req, outcome)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&flags.AudioURL, "url", "", "Explicit recording to try first")
	cmd.Flags().StringVar(&flags.Verse, "verse", "", "Verse reference SURAH:AYAH")
	cmd.Flags().IntVar(&flags.Surah, "surah", 0, "Surah number (1-114)")
	cmd.Flags().IntVar(&flags.Ayah, "ayah", 0, "Ayah number")
	cmd.Flags().StringVar(&flags.BatchFile, "batch", "", "Play every token from a practice file")

	return cmd
}

// playRequests turns the play arguments or a practice file into requests
func playRequests(flags *Flags, args []string) ([]*audio.Request, error) {
	if flags.BatchFile != "" {
		if len(args) > 0 {
			return nil, fmt.Errorf("use either a token or --batch, not both")
		}
		entries, err := batch.ReadFile(flags.BatchFile)
		if err != nil {
			return nil, err
		}
		requests := make([]*audio.Request, 0, len(entries))
		for _, e := range entries {
			requests = append(requests, &audio.Request{Text: e.Text, AudioURL: e.AudioURL, Surah: e.Surah, Ayah: e.Ayah})
		}
		return requests, nil
	}

	if len(args) == 0 {
		return nil, fmt.Errorf("a token or --batch is required")
	}
	if len(args) > 1 && (flags.AudioURL != "" || flags.Verse != "" || flags.Surah != 0 || flags.Ayah != 0) {
		return nil, fmt.Errorf("--url and verse flags apply to a single token")
	}

	requests := make([]*audio.Request, 0, len(args))
	for _, arg := range args {
		if err := audio.ValidateText(arg); err != nil {
			return nil, err
		}
		requests = append(requests, &audio.Request{Text: arg, AudioURL: flags.AudioURL, Surah: flags.Surah, Ayah: flags.Ayah})
	}

	if flags.Verse != "" {
		surah, ayah, err := batch.ParseVerse(flags.Verse)
		if err != nil {
			return nil, err
		}
		requests[0].Surah, requests[0].Ayah = surah, ayah
	}
	return requests, nil
}

func writeOutcome(w io.Writer, req *audio.Request, outcome *audio.Outcome) {
	switch {
	case outcome.Source == nil:
		fmt.Fprintf(w, "No audio available for %s\n", req.Text)
	case outcome.Reentered:
		fmt.Fprintf(w, "%s: %s failed, spoken instead\n", req.Text, outcome.Source)
	default:
		fmt.Fprintf(w, "%s: %s\n", req.Text, outcome.Source)
	}
}

func logTransition(tr playback.Transition) {
	log.Debug().Str("from", tr.From.String()).Str("to", tr.To.String()).Str("event", tr.Event.String()).Msg("playback state")
}

func newValidateCommand(flags *Flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Report which pronunciation assets exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			summary := validateAssets(cmd)
			if err := validator.WriteReport(cmd.OutOrStdout(), summary); err != nil {
				return err
			}
			if flags.Strict && summary.Total.Missing > 0 {
				return fmt.Errorf("%d audio file(s) missing", summary.Total.Missing)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&flags.Strict, "strict", false, "Exit with an error when files are missing")
	return cmd
}

func newMissingCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "missing",
		Short: "List the paths of missing assets, letters first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range validator.MissingFiles(validateAssets(cmd)) {
				fmt.Fprintln(cmd.OutOrStdout(), path)
			}
			return nil
		},
	}
}

func validateAssets(cmd *cobra.Command) validator.Summary {
	config := ConfigFromViper()
	checker := validator.NewChecker(config.AssetBase, config.HTTPClient())
	log.Debug().Str("assets", config.AssetBase).Msg("validating assets")
	return validator.ValidateAll(cmd.Context(), checker)
}

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the bundled letters and words with their asset paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for i, table := range []*mapping.Table{mapping.Letters, mapping.Words} {
				if i > 0 {
					fmt.Fprintln(out)
				}
				fmt.Fprintf(out, "%s (%d):\n", table.Name(), table.Len())
				for _, e := range table.Entries() {
					fmt.Fprintf(out, "  %s\t%s\n", e.Token, e.Path)
				}
			}
			return nil
		},
	}
}

func newModelsCommand() *cobra.Command {
	var baseURL string
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List OpenAI speech models available for the current API key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return models.NewLister(GetOpenAIKey(), baseURL).WriteSpeechModels(cmd.Context(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&baseURL, "openai-url", "", "OpenAI API base URL (default: api.openai.com)")
	return cmd
}
