package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/blukraken/texview/internal/gallery"
	"github.com/blukraken/texview/internal/ingest"
)

func TestListImages(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/images" {
			t.Errorf("path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("search"); got != "dragon" {
			t.Errorf("search param: %q", got)
		}
		json.NewEncoder(w).Encode([]gallery.Item{
			{ID: "1", Name: "dragon.png", URL: "/f/1", Width: 64, Height: 64},
		})
	}))
	defer ts.Close()

	items, err := New(ts.URL).ListImages(context.Background(), "dragon")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 || items[0].Name != "dragon.png" || items[0].Width != 64 {
		t.Errorf("items: %+v", items)
	}
}

func TestListImages_NoSearchParamWhenEmpty(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, present := r.URL.Query()["search"]; present {
			t.Error("empty search must omit the parameter")
		}
		w.Write([]byte("[]"))
	}))
	defer ts.Close()

	if _, err := New(ts.URL).ListImages(context.Background(), ""); err != nil {
		t.Fatalf("list: %v", err)
	}
}

func TestListImages_ServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "database on fire", http.StatusInternalServerError)
	}))
	defer ts.Close()

	_, err := New(ts.URL).ListImages(context.Background(), "")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("got %v, want APIError", err)
	}
	if apiErr.Status != http.StatusInternalServerError {
		t.Errorf("status: %d", apiErr.Status)
	}
	if apiErr.Body != "database on fire" {
		t.Errorf("body: %q", apiErr.Body)
	}
}

func TestUpload_MultipartParts(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		parts := r.MultipartForm.File["files"]
		if len(parts) != 2 {
			t.Fatalf("parts: got %d, want 2", len(parts))
		}
		if parts[0].Filename != "tile.png" || parts[1].Filename != "shot.jpg" {
			t.Errorf("filenames: %s, %s", parts[0].Filename, parts[1].Filename)
		}
		f, _ := parts[0].Open()
		data, _ := io.ReadAll(f)
		f.Close()
		if string(data) != "png-bytes" {
			t.Errorf("part 0 bytes: %q", data)
		}
		json.NewEncoder(w).Encode([]gallery.Item{{ID: "1"}, {ID: "2"}})
	}))
	defer ts.Close()

	items, err := New(ts.URL).Upload(context.Background(), []ingest.UploadUnit{
		{Name: "tile.png", Data: []byte("png-bytes"), ContentType: "image/png"},
		{Name: "shot.jpg", Data: []byte("jpg-bytes"), ContentType: "image/jpeg"},
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("items: %+v", items)
	}
}

func TestUpload_NonSuccessFailsBatch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	_, err := New(ts.URL).Upload(context.Background(), []ingest.UploadUnit{
		{Name: "a.png", Data: []byte{1}},
	})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("got %v, want APIError", err)
	}
}

func TestDeleteImage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/api/images/abc" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer ts.Close()

	if err := New(ts.URL).DeleteImage(context.Background(), "abc"); err != nil {
		t.Fatalf("delete: %v", err)
	}
}

func TestNew_TrimsTrailingSlash(t *testing.T) {
	c := New("http://example.com/")
	if c.base != "http://example.com" {
		t.Errorf("base: %q", c.base)
	}
}
