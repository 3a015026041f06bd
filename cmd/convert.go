package cmd

import (
	"bytes"
	"fmt"
	"image"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/blukraken/texview/internal/ingest"
	"github.com/blukraken/texview/internal/report"
	"github.com/blukraken/texview/internal/sniff"
	"github.com/blukraken/texview/internal/storage"
)

var (
	convertOutDir  string
	convertWorkers int
)

var convertCmd = &cobra.Command{
	Use:   "convert <input_dir>",
	Short: "Convert BLP/TGA textures under a directory to PNG",
	Long: `Scans the input directory for .blp and .tga containers, decodes each
to canonical RGBA and writes a lossless PNG alongside a conversion
report (texview.report.json). Malformed files are reported and
skipped; the rest of the run still completes.`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringVarP(&convertOutDir, "out", "o", "./texview_out", "output directory")
	convertCmd.Flags().IntVarP(&convertWorkers, "workers", "w", 0, "parallel workers (0 = NumCPU)")
	rootCmd.AddCommand(convertCmd)
}

func runConvert(_ *cobra.Command, args []string) error {
	inputDir := args[0]
	start := time.Now()

	absInput, err := filepath.Abs(inputDir)
	if err != nil {
		return fmt.Errorf("resolve input path: %w", err)
	}
	absOutput, err := filepath.Abs(convertOutDir)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}
	if err := os.MkdirAll(absOutput, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	// Step 1: find proprietary containers.
	sources, err := scanTextures(absInput)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}
	if len(sources) == 0 {
		return fmt.Errorf("no textures found in %s", absInput)
	}
	logVerbose("found %d textures", len(sources))

	// Step 2: read them into an ingestion batch.
	assets := make([]ingest.RawAsset, 0, len(sources))
	inputSizes := map[string]int64{}
	for _, src := range sources {
		data, err := os.ReadFile(src)
		if err != nil {
			return fmt.Errorf("read %s: %w", src, err)
		}
		rel, _ := filepath.Rel(absInput, src)
		name := filepath.ToSlash(rel)
		assets = append(assets, ingest.RawAsset{Name: name, Data: data})
		inputSizes[name] = int64(len(data))
	}

	// Step 3: decode and encode concurrently.
	o := ingest.New(ingest.Config{Workers: convertWorkers, Logger: newLogger()})
	res := o.Ingest(assets)

	// Step 4: write outputs and the report.
	sourceOf := make(map[string]string, len(assets))
	for _, a := range assets {
		sourceOf[ingest.OutputName(a.Name)] = a.Name
	}
	rep := report.New()
	for _, unit := range res.Units {
		outPath := filepath.Join(absOutput, filepath.FromSlash(unit.Name))
		if dir := filepath.Dir(outPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create %s: %w", dir, err)
			}
		}
		if err := os.WriteFile(outPath, unit.Data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", unit.Name, err)
		}
		src := sourceOf[unit.Name]
		entry := report.Entry{
			Source:     src,
			Output:     unit.Name,
			Format:     sniff.Classify(src).String(),
			InputSize:  inputSizes[src],
			OutputSize: int64(len(unit.Data)),
			Hash:       storage.ContentHash(unit.Data),
		}
		if cfg, _, err := image.DecodeConfig(bytes.NewReader(unit.Data)); err == nil {
			entry.Width, entry.Height = cfg.Width, cfg.Height
		}
		rep.Converted = append(rep.Converted, entry)
	}
	for _, f := range res.Failed {
		fmt.Fprintf(os.Stderr, "[texview] error: %s\n", f.Error())
		rep.Failed = append(rep.Failed, report.Fail{Source: f.Name, Error: f.Err.Error()})
	}

	reportPath := filepath.Join(absOutput, "texview.report.json")
	if err := report.WriteJSON(rep, reportPath); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	fmt.Printf("  Converted: %d of %d\n", len(res.Units), len(assets))
	if len(res.Failed) > 0 {
		fmt.Printf("  Failed:    %d\n", len(res.Failed))
	}
	fmt.Printf("  Output:    %s\n", absOutput)
	fmt.Printf("  Time:      %s\n", time.Since(start).Round(time.Millisecond))
	return nil
}

// scanTextures walks the directory and returns all proprietary
// container paths.
func scanTextures(inputDir string) ([]string, error) {
	var sources []string
	err := filepath.Walk(inputDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if strings.HasPrefix(info.Name(), ".") && info.Name() != "." {
				return filepath.SkipDir
			}
			return nil
		}
		if sniff.Classify(path).Proprietary() {
			sources = append(sources, path)
		}
		return nil
	})
	return sources, err
}
