// Package server implements the texview HTTP API: query, upload,
// delete, file serving and health. Every accepted upload is converted
// to PNG before it is stored, so the gallery only ever serves one
// format.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/blukraken/texview/internal/codec"
	"github.com/blukraken/texview/internal/config"
	"github.com/blukraken/texview/internal/sniff"
	"github.com/blukraken/texview/internal/storage"
	"github.com/blukraken/texview/internal/texture"
)

// supportedExt gates which upload extensions are accepted. Anything
// else is skipped silently, matching the gallery's contract.
var supportedExt = map[string]bool{
	".blp":  true,
	".tga":  true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
	".bmp":  true,
}

// maxUploadBytes bounds one multipart request body.
const maxUploadBytes = 256 << 20

// Server holds the API's collaborators.
type Server struct {
	cfg      config.Config
	log      zerolog.Logger
	repo     *Repo
	store    storage.Store
	registry *codec.Registry
}

// New opens the metadata database and wires the configured storage
// backend.
func New(ctx context.Context, cfg config.Config, log zerolog.Logger) (*Server, error) {
	repo, err := OpenRepo(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	var store storage.Store
	switch cfg.Storage.Backend {
	case "minio":
		store, err = storage.NewMinioStore(ctx, cfg.Storage.Minio)
	default:
		store, err = storage.NewFSStore(cfg.ImageDir)
	}
	if err != nil {
		repo.Close()
		return nil, err
	}

	return &Server{
		cfg:      cfg,
		log:      log,
		repo:     repo,
		store:    store,
		registry: codec.NewRegistry(),
	}, nil
}

// Close releases the server's resources.
func (s *Server) Close() error { return s.repo.Close() }

// Handler returns the routed HTTP handler with request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/images", s.handleList)
	mux.HandleFunc("POST /api/upload", s.handleUpload)
	mux.HandleFunc("DELETE /api/images/{id}", s.handleDelete)
	mux.HandleFunc("GET /api/file/{name}", s.handleFile)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	return s.logRequests(mux)
}

// ListenAndServe runs the server until the listener fails.
func (s *Server) ListenAndServe() error {
	s.log.Info().Str("addr", s.cfg.Listen).Msg("listening")
	return http.ListenAndServe(s.cfg.Listen, s.Handler())
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	items, err := s.repo.List(r.Context(), strings.TrimSpace(r.URL.Query().Get("search")))
	if err != nil {
		s.log.Error().Err(err).Msg("list images")
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// handleUpload accepts one or more "files" parts, converts each to
// PNG and stores it. A file that cannot be read or converted is
// skipped and the rest of the batch still succeeds.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "malformed multipart body", http.StatusBadRequest)
		return
	}
	parts := r.MultipartForm.File["files"]
	if len(parts) == 0 {
		http.Error(w, "no files provided", http.StatusBadRequest)
		return
	}

	stored := []ImageRecord{}
	for _, fh := range parts {
		name := path.Base(strings.ReplaceAll(fh.Filename, `\`, "/"))
		ext := strings.ToLower(path.Ext(name))
		if !supportedExt[ext] {
			continue
		}
		f, err := fh.Open()
		if err != nil {
			s.log.Warn().Str("file", name).Err(err).Msg("open part")
			continue
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			s.log.Warn().Str("file", name).Err(err).Msg("read part")
			continue
		}

		rec, err := s.storeImage(r.Context(), name, data)
		if err != nil {
			s.log.Warn().Str("file", name).Err(err).Msg("skipped")
			continue
		}
		stored = append(stored, *rec)
	}
	writeJSON(w, http.StatusOK, stored)
}

// storeImage converts raw upload bytes to PNG, writes the blob and a
// thumbnail, and records the metadata.
func (s *Server) storeImage(ctx context.Context, name string, data []byte) (*ImageRecord, error) {
	img, err := s.toCanonical(name, data)
	if err != nil {
		return nil, err
	}
	pngData, err := codec.EncodePNG(img)
	if err != nil {
		return nil, err
	}

	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	blobName := id + ".png"
	if err := s.store.Save(ctx, blobName, pngData, "image/png"); err != nil {
		return nil, fmt.Errorf("store blob: %w", err)
	}
	s.saveThumb(ctx, id, img)

	rec := &ImageRecord{
		ID:     id,
		Name:   name,
		Width:  img.Width,
		Height: img.Height,
		URL:    "/api/file/" + blobName,
	}
	if err := s.repo.Insert(ctx, rec); err != nil {
		// Keep metadata and blob consistent on failure.
		s.store.Delete(ctx, blobName)
		return nil, fmt.Errorf("record metadata: %w", err)
	}
	s.log.Info().
		Str("id", id).
		Str("name", name).
		Int("width", img.Width).
		Int("height", img.Height).
		Str("hash", storage.ContentHash(pngData)).
		Msg("stored image")
	return rec, nil
}

// toCanonical decodes any supported input into the canonical image:
// proprietary containers through the codec registry, everything else
// through the standard decode registry.
func (s *Server) toCanonical(name string, data []byte) (*texture.Image, error) {
	if format := sniff.Classify(name); format.Proprietary() {
		return s.registry.Decode(format, data)
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return texture.FromImage(src), nil
}

// saveThumb writes a bounded thumbnail next to the full PNG. Failures
// are logged and ignored; the full image is the source of truth.
func (s *Server) saveThumb(ctx context.Context, id string, img *texture.Image) {
	size := s.cfg.ThumbSize
	if img.Width <= size && img.Height <= size {
		return
	}
	thumb := imaging.Fit(img.NRGBA(), size, size, imaging.Lanczos)
	data, err := codec.EncodePNG(texture.FromImage(thumb))
	if err != nil {
		s.log.Warn().Str("id", id).Err(err).Msg("thumbnail encode")
		return
	}
	if err := s.store.Save(ctx, id+".thumb.png", data, "image/png"); err != nil {
		s.log.Warn().Str("id", id).Err(err).Msg("thumbnail store")
	}
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	rec, err := s.repo.Get(r.Context(), id)
	if errors.Is(err, ErrNoRecord) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	if err := s.repo.Delete(r.Context(), id); err != nil {
		http.Error(w, "delete failed", http.StatusInternalServerError)
		return
	}
	// Blob removal is best effort; the row is already gone.
	if base := path.Base(rec.URL); base != "" {
		s.store.Delete(r.Context(), base)
		s.store.Delete(r.Context(), id+".thumb.png")
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	data, err := s.store.Get(r.Context(), name)
	if errors.Is(err, storage.ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "read failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
