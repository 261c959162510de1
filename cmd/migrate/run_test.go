package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"booksearch/internal/config"
)

func TestRun_CreateRequiresName(t *testing.T) {
	err := run(context.Background(), config.Config{MigrationsDir: t.TempDir()}, "create", "")
	if err == nil || !strings.Contains(err.Error(), "name is required") {
		t.Fatalf("expected missing name error, got %v", err)
	}
}

func TestRun_CreateWritesSQLFile(t *testing.T) {
	dir := t.TempDir()
	if err := run(context.Background(), config.Config{MigrationsDir: dir}, "create", "add_index"); err != nil {
		t.Fatalf("create: %v", err)
	}
	matches, _ := filepath.Glob(filepath.Join(dir, "*_add_index.sql"))
	if len(matches) != 1 {
		t.Fatalf("expected one migration file, got %v", matches)
	}
	b, _ := os.ReadFile(matches[0])
	if !strings.Contains(string(b), "-- +goose Up") {
		t.Fatalf("expected goose template, got %s", b)
	}
}
