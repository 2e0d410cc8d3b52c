// Package cli provides command-line interface setup and configuration
// for the iqra application. It handles flag parsing, the play, validate,
// missing, list and models subcommands, and configuration management
// using cobra and viper.
package cli
