/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pairmatch.env")
	if err := os.WriteFile(path, []byte("PAIRMATCH_TEST_PORT=9191\nPAIRMATCH_TEST_KEPT=from-file\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	t.Setenv("PAIRMATCH_ENV_FILE", path)
	t.Setenv("PAIRMATCH_TEST_KEPT", "from-env")
	t.Cleanup(func() { os.Unsetenv("PAIRMATCH_TEST_PORT") })

	if err := loadEnvFile(); err != nil {
		t.Fatalf("loadEnvFile: %v", err)
	}

	if got := os.Getenv("PAIRMATCH_TEST_PORT"); got != "9191" {
		t.Errorf("PAIRMATCH_TEST_PORT = %q, want 9191", got)
	}
	if got := os.Getenv("PAIRMATCH_TEST_KEPT"); got != "from-env" {
		t.Errorf("existing variable overwritten: %q", got)
	}
}

func TestLoadEnvFile_MissingIsIgnored(t *testing.T) {
	t.Setenv("PAIRMATCH_ENV_FILE", filepath.Join(t.TempDir(), "absent.env"))

	if err := loadEnvFile(); err != nil {
		t.Fatalf("expected a missing env file to be ignored, got %v", err)
	}
}
