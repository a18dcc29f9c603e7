package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"cardsync/internal/config"
	"cardsync/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	images     *testsupport.ImageServer
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	t.Setenv("HOME", t.TempDir())
	images := testsupport.NewImageServer(t, testsupport.PNG(t, 40, 56))
	cfg := testsupport.NewConfig(t,
		testsupport.WithConcurrency(2),
		testsupport.WithSource(config.Source{Name: "promo", Language: "en"}),
	)
	configPath := filepath.Join(testsupport.BaseDir(cfg), "cardsync.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, configPath: configPath, images: images}
}

// writeCatalog writes n catalog rows; ids listed in missing point at URLs the
// image server answers with 404.
func (e *cliTestEnv) writeCatalog(t *testing.T, n int, missing ...int) {
	t.Helper()
	skip := make(map[int]bool, len(missing))
	for _, id := range missing {
		skip[id] = true
	}
	rows := make([]map[string]any, 0, n)
	for i := 1; i <= n; i++ {
		path := fmt.Sprintf("/cards/%d.png", i)
		if skip[i] {
			path = fmt.Sprintf("/missing/%d.png", i)
		}
		rows = append(rows, map[string]any{
			"id":           i,
			"group_id":     77,
			"card_number":  fmt.Sprintf("%03d", i),
			"product_name": fmt.Sprintf("Promo %d", i),
			"group_name":   "PR: Promo Cards",
			"image_url":    e.images.URL + path,
		})
	}
	testsupport.WriteJSON(t, e.cfg.Sources[0].CatalogFile, rows)
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected output to contain %q\noutput:\n%s", substr, output)
	}
}
