package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Listen != ":8080" {
		t.Errorf("listen: %q", cfg.Listen)
	}
	if cfg.Storage.Backend != "fs" {
		t.Errorf("backend: %q", cfg.Storage.Backend)
	}
	if cfg.ThumbSize != 256 {
		t.Errorf("thumb size: %d", cfg.ThumbSize)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "texview.yaml")
	body := `
listen: ":9001"
image_dir: /tmp/imgs
db_path: /tmp/imgs.db
thumb_size: 128
storage:
  backend: minio
  minio:
    endpoint: play.min.io
    access_key: ak
    secret_key: sk
    bucket: textures
    use_ssl: true
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Listen != ":9001" {
		t.Errorf("listen: %q", cfg.Listen)
	}
	if cfg.ImageDir != "/tmp/imgs" {
		t.Errorf("image dir: %q", cfg.ImageDir)
	}
	if cfg.ThumbSize != 128 {
		t.Errorf("thumb size: %d", cfg.ThumbSize)
	}
	if cfg.Storage.Backend != "minio" {
		t.Errorf("backend: %q", cfg.Storage.Backend)
	}
	m := cfg.Storage.Minio
	if m.Endpoint != "play.min.io" || m.Bucket != "textures" || !m.UseSSL {
		t.Errorf("minio config: %+v", m)
	}
}

func TestLoad_UnknownBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "texview.yaml")
	os.WriteFile(path, []byte("storage:\n  backend: carrier-pigeon\n"), 0o644)
	if _, err := Load(path); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/does/not/exist.yaml"); err == nil {
		t.Error("expected error")
	}
}
