package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blukraken/texview/internal/client"
	"github.com/blukraken/texview/internal/gallery"
	"github.com/blukraken/texview/internal/ingest"
)

var searchCmd = &cobra.Command{
	Use:   "search [term]",
	Short: "List gallery images, optionally filtered by name",
	Long: `Queries the gallery server and prints the matching images. Filtering
happens entirely server-side; an empty term lists everything.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	term := ""
	if len(args) == 1 {
		term = args[0]
	}

	log := newLogger()
	store := gallery.NewStore()
	ctrl := gallery.NewController(
		client.New(baseURL),
		store,
		ingest.New(ingest.Config{Logger: log}),
		log,
	)

	if err := ctrl.Search(cmd.Context(), term); err != nil {
		return err
	}

	items := store.Items()
	if len(items) == 0 {
		fmt.Println("  No images found.")
	}
	for _, it := range items {
		fmt.Printf("  %-32s  %4dx%-4d  %s  (save as %s)\n",
			truncName(it.Name, 32), it.Width, it.Height, it.ID, gallery.DownloadName(it.Name))
	}
	fmt.Printf("  %s\n", store.CountLabel())
	return nil
}

func truncName(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return "..." + s[len(s)-max+3:]
}
