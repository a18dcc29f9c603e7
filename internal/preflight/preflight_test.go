package preflight

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"cardsync/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckFileReadable(t *testing.T) {
	f := filepath.Join(t.TempDir(), "cards.json")
	if err := os.WriteFile(f, []byte("[]"), 0o644); err != nil {
		t.Fatal(err)
	}
	if res := CheckFileReadable("catalog", f); !res.Passed {
		t.Fatalf("expected pass, got %s", res.Detail)
	}
	if res := CheckFileReadable("catalog", filepath.Dir(f)); res.Passed {
		t.Fatal("expected failure for directory")
	}
}

func TestCheckFreeSpace(t *testing.T) {
	dir := t.TempDir()
	if res := CheckFreeSpace("space", dir, 1); !res.Passed {
		t.Fatalf("expected pass, got %s", res.Detail)
	}
	if res := CheckFreeSpace("space", dir, 1<<62); res.Passed {
		t.Fatal("expected failure for absurd requirement")
	}
}

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestRunAllIncludesRemotesAndFlagsFailures(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.StateDir = t.TempDir()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Storage.Backend = config.StorageLocal
	cfg.Storage.LocalDir = t.TempDir()
	cfg.Pipeline.MaxImageBytes = 1

	src := config.Source{Name: "chinese", Kind: config.KindJSONFile, CatalogFile: filepath.Join(t.TempDir(), "missing.json")}
	results := RunAll(context.Background(), &cfg, src,
		Remote{Name: "Catalog API", Pinger: pingFunc(func(context.Context) error { return nil })},
		Remote{Name: "Registry", Pinger: pingFunc(func(context.Context) error { return errors.New("down") }), Optional: true},
	)

	if len(results) != 7 {
		t.Fatalf("expected 7 results, got %d: %#v", len(results), results)
	}
	failed := Failed(results)
	if len(failed) != 1 || failed[0].Name != "Catalog file (chinese)" {
		t.Fatalf("unexpected failures %#v", failed)
	}
}

func TestCheckPingTimeoutSummary(t *testing.T) {
	res := CheckPing(context.Background(), "slow", pingFunc(func(context.Context) error {
		return context.DeadlineExceeded
	}))
	if res.Passed || res.Detail != "check timed out (service unresponsive)" {
		t.Fatalf("unexpected result %#v", res)
	}
}
