package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"codeberg.org/snonux/iqra/internal/cli"
	"codeberg.org/snonux/iqra/internal/gui"
)

func main() {
	// Create flags instance
	flags := cli.NewFlags()

	// Set up command initialization
	cobra.OnInitialize(func() {
		cli.InitConfig(flags.CfgFile)
	})

	// Create root command; without a subcommand it launches the GUI
	rootCmd := cli.CreateRootCommand(flags, gui.Run)

	// Execute command
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
