package gallery

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/blukraken/texview/internal/ingest"
)

// State is the controller's current operation.
type State int

const (
	StateIdle State = iota
	StateQuerying
	StateUploading
)

func (s State) String() string {
	switch s {
	case StateQuerying:
		return "querying"
	case StateUploading:
		return "uploading"
	default:
		return "idle"
	}
}

// API is the server boundary the controller talks to. Implemented by
// client.Client; tests install fakes.
type API interface {
	// ListImages returns the server-filtered item set for a search
	// term. An empty term returns everything.
	ListImages(ctx context.Context, search string) ([]Item, error)

	// Upload posts normalized units and returns the stored items.
	Upload(ctx context.Context, units []ingest.UploadUnit) ([]Item, error)
}

// Controller mediates every state-changing gallery operation. All
// store mutations happen at query resolution points, guarded by a
// monotonically increasing sequence so a stale response never
// overwrites a newer one.
type Controller struct {
	api      API
	store    *Store
	ingestor *ingest.Orchestrator
	log      zerolog.Logger

	mu        sync.Mutex
	state     State
	lastTerm  string
	seq       uint64
	committed uint64
}

// NewController wires a controller to its server boundary and store.
func NewController(api API, store *Store, ingestor *ingest.Orchestrator, log zerolog.Logger) *Controller {
	return &Controller{api: api, store: store, ingestor: ingestor, log: log}
}

// State reports the controller's current operation.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Search issues the trimmed term to the server and commits the
// response. On failure the store keeps its last good contents.
func (c *Controller) Search(ctx context.Context, term string) error {
	term = strings.TrimSpace(term)

	c.mu.Lock()
	c.state = StateQuerying
	c.lastTerm = term
	c.seq++
	mySeq := c.seq
	c.mu.Unlock()

	items, err := c.api.ListImages(ctx, term)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateIdle
	if err != nil {
		return fmt.Errorf("query images: %w", err)
	}
	// An older in-flight query that resolves after a newer one is
	// discarded rather than committed.
	if mySeq <= c.committed {
		c.log.Debug().Uint64("seq", mySeq).Msg("stale query response discarded")
		return nil
	}
	c.committed = mySeq
	c.store.set(items)
	return nil
}

// Refresh re-runs the last search term.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	term := c.lastTerm
	c.mu.Unlock()
	return c.Search(ctx, term)
}

// Upload ingests the files, posts the surviving units and then
// re-queries so the gallery reflects server truth. The new items are
// never synthesized locally. Per-file ingestion failures are returned
// in the result; a boundary failure is returned as the error and
// leaves the store untouched.
func (c *Controller) Upload(ctx context.Context, files []ingest.RawAsset) (ingest.Result, error) {
	c.mu.Lock()
	c.state = StateUploading
	c.mu.Unlock()

	res := c.ingestor.Ingest(files)
	if len(res.Units) == 0 {
		c.mu.Lock()
		c.state = StateIdle
		c.mu.Unlock()
		if len(res.Failed) > 0 {
			return res, fmt.Errorf("no uploadable files: all %d failed ingestion", len(res.Failed))
		}
		return res, fmt.Errorf("no files to upload")
	}

	if _, err := c.api.Upload(ctx, res.Units); err != nil {
		c.mu.Lock()
		c.state = StateIdle
		c.mu.Unlock()
		return res, fmt.Errorf("upload batch: %w", err)
	}

	return res, c.Refresh(ctx)
}

var nonWord = regexp.MustCompile(`\W+`)

// DownloadName derives the save-as filename for a gallery item:
// original extension stripped, non-word runs collapsed to a single
// underscore, canonical raster extension appended.
func DownloadName(name string) string {
	base := name
	if ext := extOf(name); ext != "" {
		base = name[:len(name)-len(ext)]
	}
	base = nonWord.ReplaceAllString(base, "_")
	if base == "" {
		base = "image"
	}
	return base + ".png"
}

func extOf(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i:]
	}
	return ""
}
