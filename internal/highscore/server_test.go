package highscore

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewServerOpensStoreAndShutsDown(t *testing.T) {
	cfg := testConfig()
	cfg.Listen = "127.0.0.1:0"
	cfg.DBPath = filepath.Join(t.TempDir(), "nested", "scores.db")

	srv, err := NewServer(cfg, nil)
	if err != nil {
		t.Fatalf("NewServer() failed: %v", err)
	}
	if _, err := os.Stat(cfg.DBPath); err != nil {
		t.Errorf("database not created: %v", err)
	}
	if err := srv.Shutdown(); err != nil {
		t.Errorf("Shutdown() = %v", err)
	}
}
