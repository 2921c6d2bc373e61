package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/diode-mesh/corevm/search"
)

func TestDefaultPassesValidation(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default() config failed validation: %v", err)
	}
}

func TestLoadFillsDefaultsForOmittedFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "node.yaml")
	body := "listen:\n  port: 9000\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Listen.Port != 9000 {
		t.Fatalf("Listen.Port = %d, want 9000", cfg.Listen.Port)
	}
	if cfg.Storage.DataDir != "./data" {
		t.Fatalf("Storage.DataDir = %q, want the default", cfg.Storage.DataDir)
	}
	if cfg.Search.AlphaWorkers != search.Alpha {
		t.Fatalf("Search.AlphaWorkers = %d, want %d", cfg.Search.AlphaWorkers, search.Alpha)
	}
}

func TestValidateRejectsWrongAlphaWorkers(t *testing.T) {
	cfg := Default()
	cfg.Search.AlphaWorkers = 7
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected Validate to reject a non-network alpha_workers value")
	}
}

func TestValidateRejectsEmptyDataDir(t *testing.T) {
	cfg := Default()
	cfg.Storage.DataDir = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected Validate to reject an empty data_dir")
	}
}

func TestValidateRejectsUnknownLoggingFormat(t *testing.T) {
	cfg := Default()
	cfg.Logging.Format = "xml"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected Validate to reject an unknown logging.format")
	}
}

func TestValidateAcceptsKnownLoggingFormats(t *testing.T) {
	for _, format := range []string{"", "json", "text", "color"} {
		cfg := Default()
		cfg.Logging.Format = format
		if err := cfg.Validate(); err != nil {
			t.Fatalf("Validate rejected logging.format=%q: %v", format, err)
		}
	}
}

func TestLoadMissingFileReturnsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err == nil {
		t.Fatal("expected Load to fail for a missing file")
	}
}
