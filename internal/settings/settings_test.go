package settings

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
)

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

func writeSettingsFile(t *testing.T, dir string, vals map[string]any) {
	t.Helper()
	data, err := json.Marshal(vals)
	if err != nil {
		t.Fatalf("failed to marshal fixture: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, FileName), data, 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
}

func TestStore(t *testing.T) {
	t.Run("Defaults When Nothing Set", func(t *testing.T) {
		store := NewStore(t.TempDir(), testLogger())
		got := store.Current()
		want := Defaults()

		if got != want {
			t.Errorf("expected defaults %+v, got %+v", want, got)
		}
	})

	t.Run("No Field Left Unresolved", func(t *testing.T) {
		store := NewStore(t.TempDir(), testLogger())
		got := store.Current()

		if got.LidarrAPITimeout == 0 {
			t.Error("lidarr_api_timeout should resolve to a non-zero value")
		}
		if got.AutoStartDelay == 0 {
			t.Error("auto_start_delay should resolve to a non-zero value")
		}
	})

	t.Run("File Overrides Defaults", func(t *testing.T) {
		dir := t.TempDir()
		writeSettingsFile(t, dir, map[string]any{
			"lidarr_address":     "http://lidarr:8686",
			"lidarr_api_timeout": 60.0,
			"auto_start":         true,
		})

		store := NewStore(dir, testLogger())
		got := store.Current()

		if got.LidarrAddress != "http://lidarr:8686" {
			t.Errorf("expected file address, got %q", got.LidarrAddress)
		}
		if got.LidarrAPITimeout != 60 {
			t.Errorf("expected timeout 60, got %d", got.LidarrAPITimeout)
		}
		if !got.AutoStart {
			t.Error("expected auto_start true from file")
		}
		if got.QualityProfileID != -1 {
			t.Errorf("unset field should keep default, got %d", got.QualityProfileID)
		}
	})

	t.Run("Environment Overrides File", func(t *testing.T) {
		dir := t.TempDir()
		writeSettingsFile(t, dir, map[string]any{
			"lidarr_address": "http://from-file:8686",
			"auto_start":     true,
		})
		t.Setenv("LIDARR_ADDRESS", "http://from-env:8686")
		t.Setenv("AUTO_START", "false")

		store := NewStore(dir, testLogger())
		got := store.Current()

		if got.LidarrAddress != "http://from-env:8686" {
			t.Errorf("environment should win, got %q", got.LidarrAddress)
		}
		if got.AutoStart {
			t.Error("environment auto_start=false should win over file")
		}
	})

	t.Run("Numeric Clamping", func(t *testing.T) {
		cases := []struct {
			name        string
			timeout     any
			delay       any
			wantTimeout int
			wantDelay   int
		}{
			{"Below Minimum", 5.0, 1.0, 10, 10},
			{"Above Maximum", 400.0, 999.0, 300, 120},
			{"Within Bounds", 120.0, 60.0, 120, 60},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				dir := t.TempDir()
				writeSettingsFile(t, dir, map[string]any{
					"lidarr_api_timeout": tc.timeout,
					"auto_start_delay":   tc.delay,
				})

				got := NewStore(dir, testLogger()).Current()
				if got.LidarrAPITimeout != tc.wantTimeout {
					t.Errorf("timeout = %d, want %d", got.LidarrAPITimeout, tc.wantTimeout)
				}
				if got.AutoStartDelay != tc.wantDelay {
					t.Errorf("delay = %d, want %d", got.AutoStartDelay, tc.wantDelay)
				}
			})
		}
	})

	t.Run("Environment Values Are Clamped Too", func(t *testing.T) {
		t.Setenv("LIDARR_API_TIMEOUT", "5")
		t.Setenv("AUTO_START_DELAY", "400")

		got := NewStore(t.TempDir(), testLogger()).Current()
		if got.LidarrAPITimeout != 10 {
			t.Errorf("timeout = %d, want 10", got.LidarrAPITimeout)
		}
		if got.AutoStartDelay != 120 {
			t.Errorf("delay = %d, want 120", got.AutoStartDelay)
		}
	})

	t.Run("Update Persists And Clamps", func(t *testing.T) {
		dir := t.TempDir()
		store := NewStore(dir, testLogger())

		updated := store.Update(Form{
			LidarrAddress:     "http://lidarr:8686",
			LidarrAPIKey:      "abc123",
			RootFolderPath:    "/music",
			LidarrAPITimeout:  999,
			QualityProfileID:  2,
			MetadataProfileID: 1,
			AutoStartDelay:    1,
		})

		if updated.LidarrAPITimeout != 300 {
			t.Errorf("timeout = %d, want 300", updated.LidarrAPITimeout)
		}
		if updated.AutoStartDelay != 10 {
			t.Errorf("delay = %d, want 10", updated.AutoStartDelay)
		}

		// A fresh store from the same directory sees the persisted values.
		reloaded := NewStore(dir, testLogger()).Current()
		if reloaded.LidarrAddress != "http://lidarr:8686" || reloaded.LidarrAPIKey != "abc123" {
			t.Errorf("reloaded settings missing updated values: %+v", reloaded)
		}
	})

	t.Run("Save Load Round Trip", func(t *testing.T) {
		dir := t.TempDir()
		store := NewStore(dir, testLogger())
		store.Update(Form{
			LidarrAddress:          "http://lidarr:8686",
			LidarrAPIKey:           "key",
			RootFolderPath:         "/music",
			LidarrAPITimeout:       90,
			QualityProfileID:       4,
			MetadataProfileID:      3,
			SearchForMissingAlbums: true,
			AutoStart:              true,
			AutoStartDelay:         45,
		})
		first := store.Current()

		second := NewStore(dir, testLogger()).Current()
		if first != second {
			t.Errorf("round trip mismatch:\nfirst:  %+v\nsecond: %+v", first, second)
		}
	})

	t.Run("Dry Run Not User Editable", func(t *testing.T) {
		dir := t.TempDir()
		writeSettingsFile(t, dir, map[string]any{"dry_run_adding_to_lidarr": true})

		store := NewStore(dir, testLogger())
		store.Update(Form{LidarrAPITimeout: 120, AutoStartDelay: 60})

		if !store.Current().DryRunAddingToLidarr {
			t.Error("dry run flag should survive a settings form update")
		}
	})

	t.Run("Unreadable File Falls Back To Defaults", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, FileName), []byte("{not json"), 0644); err != nil {
			t.Fatalf("failed to write corrupt file: %v", err)
		}

		got := NewStore(dir, testLogger()).Current()
		if got != Defaults() {
			t.Errorf("expected defaults after corrupt file, got %+v", got)
		}
	})
}
