package cmd

import (
	"fmt"
	"os"
	"runtime"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	verbose bool
	baseURL string
)

var rootCmd = &cobra.Command{
	Use:   "texview",
	Short: "WoW texture gallery tools",
	Long: `texview — browse, search and upload game textures.

Converts BLP and TGA containers to PNG locally or on the fly during
upload, and talks to a texview gallery server for search and preview.`,
	Version: version,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "http://localhost:8080", "gallery server base URL")
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"texview %s (%s/%s, %s)\n",
		version, runtime.GOOS, runtime.GOARCH, runtime.Version(),
	))
}

// newLogger builds the CLI logger; --verbose enables debug output.
func newLogger() zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}

// logVerbose prints a message only when --verbose is set.
func logVerbose(format string, args ...any) {
	if verbose {
		fmt.Fprintf(os.Stderr, "[texview] "+format+"\n", args...)
	}
}
