// Package ingest normalizes a batch of user-supplied files for upload.
//
// Each file is classified, proprietary containers are decoded and
// re-encoded as PNG, everything else passes through untouched. Files
// are processed independently and in parallel; one malformed file
// drops only itself from the batch.
package ingest

import (
	"fmt"
	"mime"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/blukraken/texview/internal/codec"
	"github.com/blukraken/texview/internal/sniff"
)

// RawAsset is one file as the user supplied it.
type RawAsset struct {
	Name string
	Data []byte
}

// UploadUnit is one normalized file ready for the upload boundary.
type UploadUnit struct {
	Name        string
	Data        []byte
	ContentType string
}

// FileError records a single file dropped from the batch.
type FileError struct {
	Name string
	Err  error
}

func (e FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Name, e.Err)
}

// Result is the outcome of one ingestion batch. Every successfully
// processed input appears exactly once in Units; order follows the
// input for determinism, with failed files removed.
type Result struct {
	Units  []UploadUnit
	Failed []FileError
}

// Config holds orchestrator parameters.
type Config struct {
	// Workers bounds decode/encode parallelism. 0 means NumCPU.
	Workers int
	// Registry supplies the container decoders. nil means the
	// built-in set.
	Registry *codec.Registry
	Logger   zerolog.Logger
}

// Orchestrator routes files through sniff, decode and encode.
type Orchestrator struct {
	cfg Config
}

// New creates a configured orchestrator.
func New(cfg Config) *Orchestrator {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Registry == nil {
		cfg.Registry = codec.NewRegistry()
	}
	return &Orchestrator{cfg: cfg}
}

// Ingest processes the batch and returns the normalized units plus
// the per-file failures. A failure never aborts the batch.
func (o *Orchestrator) Ingest(files []RawAsset) Result {
	type slot struct {
		unit UploadUnit
		err  error
	}
	slots := make([]slot, len(files))

	var wg sync.WaitGroup
	sem := make(chan struct{}, o.cfg.Workers)
	for i, f := range files {
		wg.Add(1)
		go func(idx int, asset RawAsset) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			unit, err := o.processFile(asset)
			slots[idx] = slot{unit: unit, err: err}
		}(i, f)
	}
	wg.Wait()

	var res Result
	for i, s := range slots {
		if s.err != nil {
			o.cfg.Logger.Warn().Str("file", files[i].Name).Err(s.err).Msg("dropped from batch")
			res.Failed = append(res.Failed, FileError{Name: files[i].Name, Err: s.err})
			continue
		}
		res.Units = append(res.Units, s.unit)
	}
	return res
}

// processFile converts a single asset. Pass-through files keep their
// original bytes and name; proprietary containers come out as PNG
// with the proprietary extension stripped exactly once.
func (o *Orchestrator) processFile(asset RawAsset) (UploadUnit, error) {
	format := sniff.Classify(asset.Name)
	if !format.Proprietary() {
		return UploadUnit{
			Name:        asset.Name,
			Data:        asset.Data,
			ContentType: contentTypeFor(asset.Name),
		}, nil
	}

	img, err := o.cfg.Registry.Decode(format, asset.Data)
	if err != nil {
		return UploadUnit{}, err
	}
	data, err := codec.EncodePNG(img)
	if err != nil {
		return UploadUnit{}, err
	}
	return UploadUnit{
		Name:        OutputName(asset.Name),
		Data:        data,
		ContentType: "image/png",
	}, nil
}

// OutputName strips the trailing extension once and appends .png.
func OutputName(name string) string {
	ext := filepath.Ext(name)
	return name[:len(name)-len(ext)] + ".png"
}

func contentTypeFor(name string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
