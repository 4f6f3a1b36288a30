// Package testsupport holds shared fixtures for package tests.
package testsupport

import (
	"testing"

	"ludo/internal/config"
	"ludo/internal/store"
)

// NewConfig returns defaults rooted in a per-test temp directory.
func NewConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.DataDir = t.TempDir()
	return &cfg
}

// MustOpenStore opens a store for cfg and closes it when the test ends.
func MustOpenStore(t *testing.T, cfg *config.Config) *store.Store {
	t.Helper()
	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := st.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return st
}
