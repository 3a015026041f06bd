package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/blukraken/texview/internal/config"
	"github.com/blukraken/texview/internal/server"
)

var (
	serveConfig string
	serveListen string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the gallery API server",
	Long: `Serves the gallery HTTP API: image query with server-side search,
multipart upload with on-the-fly PNG conversion, deletion and file
serving. Metadata lives in SQLite; blobs go to a local directory or
an S3-compatible bucket, per the config file.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveConfig, "config", "c", "", "YAML config file")
	serveCmd.Flags().StringVarP(&serveListen, "listen", "l", "", "listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(serveConfig)
	if err != nil {
		return err
	}
	if serveListen != "" {
		cfg.Listen = serveListen
	}

	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
	srv, err := server.New(cmd.Context(), cfg, log)
	if err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	defer srv.Close()

	return srv.ListenAndServe()
}
