package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.toml"), nil)
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	if cfg.Port != 8080 || cfg.Store != "memory" || cfg.Path != "scenes" {
		t.Errorf("Unexpected defaults: %+v", cfg)
	}
	if cfg.ListenAddr() != ":8080" {
		t.Errorf("ListenAddr = %q, want :8080", cfg.ListenAddr())
	}
}

func TestLoadPriority(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataflows.toml")
	content := "port = 9000\nstore = \"sqlite\"\npath = \"from-file.db\"\nwatch = true\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("DATAFLOWS_PORT", "9100")
	t.Setenv("DATAFLOWS_REDIS", "redis:6380")

	f := pflag.NewFlagSet("test", pflag.ContinueOnError)
	f.Int("port", 8080, "")
	f.String("store", "memory", "")
	if err := f.Parse([]string{"--port=9200"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path, f)
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}

	// flag beats env beats file
	if cfg.Port != 9200 {
		t.Errorf("Port = %d, want 9200 from flag", cfg.Port)
	}
	// unset flags do not override the file
	if cfg.Store != "sqlite" || cfg.Path != "from-file.db" || !cfg.Watch {
		t.Errorf("File values lost: %+v", cfg)
	}
	if cfg.Redis != "redis:6380" {
		t.Errorf("Redis = %q, want env value", cfg.Redis)
	}
}
