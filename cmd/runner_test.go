package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/hollowtree-labs/harmonia/internal/shared"
	"github.com/urfave/cli/v3"
)

func TestNewRunnerDefaults(t *testing.T) {
	r := NewRunner(RunnerOpts{})

	if r.config == nil {
		t.Error("config not defaulted")
	}
	if r.logger == nil {
		t.Error("logger not defaulted")
	}
	if r.config.Server.Port != 5000 {
		t.Errorf("default port = %d, want 5000", r.config.Server.Port)
	}
}

func TestRegister(t *testing.T) {
	r := NewRunner(RunnerOpts{})
	commands := r.register()

	names := map[string]bool{}
	for _, c := range commands {
		names[c.Name] = true
	}
	for _, want := range []string{"serve", "setup"} {
		if !names[want] {
			t.Errorf("command %q not registered", want)
		}
	}
}

func TestSetup(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")
	cachePath := filepath.Join(dir, "cache", "harmonia.db")

	conf := fmt.Sprintf(
		"[server]\nhost = \"127.0.0.1\"\nport = 5000\n\n[storage]\nconfig_dir = %q\ncache_path = %q\n",
		dir, cachePath,
	)
	if err := os.WriteFile(configPath, []byte(conf), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	r := NewRunner(RunnerOpts{Logger: shared.NewLogger(os.Stderr)})
	app := &cli.Command{Name: "harmonia", Commands: r.register()}

	if err := app.Run(context.Background(), []string{"harmonia", "setup", "-c", configPath}); err != nil {
		t.Fatalf("setup: %v", err)
	}

	if _, err := os.Stat(cachePath); err != nil {
		t.Errorf("cache database not created: %v", err)
	}
}

func TestSetupWritesStarterConfig(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")

	if err := shared.CreateConfigFile(configPath); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := shared.CreateConfigFile(configPath); err == nil {
		t.Error("second create should refuse to overwrite")
	}

	loaded, err := shared.LoadConfig(configPath)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Server.Port != 5000 {
		t.Errorf("port = %d, want 5000", loaded.Server.Port)
	}
}
