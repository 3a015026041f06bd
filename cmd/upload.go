package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/blukraken/texview/internal/client"
	"github.com/blukraken/texview/internal/gallery"
	"github.com/blukraken/texview/internal/ingest"
)

var uploadWorkers int

var uploadCmd = &cobra.Command{
	Use:   "upload <file>...",
	Short: "Convert and upload textures to the gallery server",
	Long: `Reads the given files, converts BLP/TGA containers to PNG and posts
the batch to the gallery server. Other image files are uploaded
unchanged. A file that fails to decode is dropped with a warning; the
rest of the batch still uploads.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().IntVarP(&uploadWorkers, "workers", "w", 0, "parallel workers (0 = NumCPU)")
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	files := make([]ingest.RawAsset, 0, len(args))
	for _, arg := range args {
		data, err := os.ReadFile(arg)
		if err != nil {
			return fmt.Errorf("read %s: %w", arg, err)
		}
		files = append(files, ingest.RawAsset{Name: filepath.Base(arg), Data: data})
	}

	log := newLogger()
	ctrl := gallery.NewController(
		client.New(baseURL),
		gallery.NewStore(),
		ingest.New(ingest.Config{Workers: uploadWorkers, Logger: log}),
		log,
	)

	res, err := ctrl.Upload(cmd.Context(), files)
	for _, f := range res.Failed {
		fmt.Fprintf(os.Stderr, "[texview] error: %s\n", f.Error())
	}
	if err != nil {
		return err
	}
	fmt.Printf("  Uploaded: %d of %d\n", len(res.Units), len(files))
	return nil
}
