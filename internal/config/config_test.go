package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"glitchcut/internal/config"
)

func TestLoadWithoutFileAppliesDefaults(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantScratch := filepath.Join(tempHome, ".cache", "glitchcut", "scratch")
	if cfg.Paths.ScratchDir != wantScratch {
		t.Fatalf("unexpected scratch dir: got %q want %q", cfg.Paths.ScratchDir, wantScratch)
	}
	if cfg.Engine.FFmpegBinary != "ffmpeg" || cfg.Engine.FFprobeBinary != "ffprobe" {
		t.Fatalf("unexpected engine binaries: %+v", cfg.Engine)
	}
	if cfg.Defaults.SilenceThresholdLUFS != config.DefaultSilenceThresholdLUFS {
		t.Fatalf("unexpected silence threshold: %g", cfg.Defaults.SilenceThresholdLUFS)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.ScratchDir, cfg.Paths.HistoryDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be a directory", dir)
		}
	}
}

func TestLoadReadsTOMLOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	contents := strings.Join([]string{
		"[paths]",
		`scratch_dir = "` + filepath.Join(dir, "work") + `"`,
		"[engine]",
		`ffmpeg_binary = "/opt/ffmpeg/bin/ffmpeg"`,
		"ignore_version_check = true",
		"[defaults]",
		"silence_threshold_lufs = -80.0",
		"fit_length = true",
		"[logging]",
		`format = "json"`,
		`level = "debug"`,
	}, "\n")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected resolved existing path %q, got %q (exists=%v)", path, resolved, exists)
	}
	if cfg.Paths.ScratchDir != filepath.Join(dir, "work") {
		t.Fatalf("unexpected scratch dir: %q", cfg.Paths.ScratchDir)
	}
	if cfg.Engine.FFmpegBinary != "/opt/ffmpeg/bin/ffmpeg" {
		t.Fatalf("unexpected ffmpeg binary: %q", cfg.Engine.FFmpegBinary)
	}
	if !cfg.Engine.IgnoreVersionCheck {
		t.Fatal("expected version check bypass")
	}
	if cfg.Defaults.SilenceThresholdLUFS != -80.0 {
		t.Fatalf("unexpected threshold: %g", cfg.Defaults.SilenceThresholdLUFS)
	}
	if !cfg.Defaults.FitLength {
		t.Fatal("expected fit_length default true")
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging config: %+v", cfg.Logging)
	}
}

func TestValidateRejectsNonNegativeThreshold(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[defaults]\nsilence_threshold_lufs = 3.0\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected validation error for positive threshold")
	}
}

func TestCreateSampleWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "silence_threshold_lufs") {
		t.Fatal("sample config missing expected key")
	}
}
