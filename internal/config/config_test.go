package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"solea/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	workDir := t.TempDir()
	t.Chdir(workDir)

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

	wantRoot := filepath.Join(workDir, "downloaded_songs")
	if cfg.Paths.RootFolder != wantRoot {
		t.Fatalf("unexpected root folder: got %q want %q", cfg.Paths.RootFolder, wantRoot)
	}
	if cfg.Paths.Manifest != filepath.Join(workDir, "solea.json") {
		t.Fatalf("unexpected manifest path: %q", cfg.Paths.Manifest)
	}
	if cfg.Audio.SampleRate != 16000 {
		t.Fatalf("unexpected sample rate: %d", cfg.Audio.SampleRate)
	}
	if cfg.Run.Overwrite {
		t.Fatal("expected overwrite disabled by default")
	}
	if cfg.Run.Workers != 1 {
		t.Fatalf("expected sequential processing by default, got %d workers", cfg.Run.Workers)
	}
	if cfg.Audit.MissingChunksLog != filepath.Join(workDir, "missing_chunks.txt") {
		t.Fatalf("unexpected missing chunks log: %q", cfg.Audit.MissingChunksLog)
	}
	if cfg.Audit.MissingNotesLog != filepath.Join(workDir, "missing_notes.txt") {
		t.Fatalf("unexpected missing notes log: %q", cfg.Audit.MissingNotesLog)
	}
	if cfg.Audit.TruncateLogs {
		t.Fatal("expected audit logs to append by default")
	}
	if cfg.FFmpegBinary() != "ffmpeg" || cfg.FFprobeBinary() != "ffprobe" {
		t.Fatalf("unexpected binaries: %q %q", cfg.FFmpegBinary(), cfg.FFprobeBinary())
	}
	if cfg.LockPath() != filepath.Join(wantRoot, ".solea.lock") {
		t.Fatalf("unexpected lock path: %q", cfg.LockPath())
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	info, err := os.Stat(cfg.Paths.RootFolder)
	if err != nil || !info.IsDir() {
		t.Fatalf("expected root folder to exist: %v", err)
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "solea.toml")

	type payload struct {
		Paths struct {
			RootFolder string `toml:"root_folder"`
			Manifest   string `toml:"manifest"`
		} `toml:"paths"`
		Audio struct {
			SampleRate int `toml:"sample_rate"`
		} `toml:"audio"`
		Run struct {
			Overwrite bool `toml:"overwrite"`
			Workers   int  `toml:"workers"`
		} `toml:"run"`
	}
	custom := payload{}
	custom.Paths.RootFolder = filepath.Join(tempDir, "out")
	custom.Paths.Manifest = filepath.Join(tempDir, "dataset.json")
	custom.Audio.SampleRate = 22050
	custom.Run.Overwrite = true
	custom.Run.Workers = 4
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Paths.RootFolder != filepath.Join(tempDir, "out") {
		t.Fatalf("unexpected root folder: %q", cfg.Paths.RootFolder)
	}
	if cfg.Audio.SampleRate != 22050 {
		t.Fatalf("unexpected sample rate: %d", cfg.Audio.SampleRate)
	}
	if !cfg.Run.Overwrite {
		t.Fatal("expected overwrite from file")
	}
	if cfg.Run.Workers != 4 {
		t.Fatalf("unexpected workers: %d", cfg.Run.Workers)
	}
	if cfg.Download.Format != config.Default().Download.Format {
		t.Fatalf("expected default download format, got %q", cfg.Download.Format)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "negative sample rate",
			body:    "[audio]\nsample_rate = -1\n",
			wantErr: "audio.sample_rate",
		},
		{
			name:    "unsupported codec",
			body:    "[audio]\ncodec = \"mp3\"\n",
			wantErr: "audio.codec",
		},
		{
			name:    "url template without placeholder",
			body:    "[download]\nurl_template = \"https://example.com/watch\"\n",
			wantErr: "download.url_template",
		},
		{
			name:    "shared audit log",
			body:    "[audit]\nmissing_chunks_log = \"missing.txt\"\nmissing_notes_log = \"missing.txt\"\n",
			wantErr: "audit.missing_chunks_log",
		},
		{
			name:    "malformed toml",
			body:    "[audio\nsample_rate = 1\n",
			wantErr: "parse config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "solea.toml")
			if err := os.WriteFile(path, []byte(tt.body), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			_, _, _, err := config.Load(path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected %q in error, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestFinalizeAfterOverrides(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.RootFolder = "~/songs"
	cfg.Run.Workers = 0
	home := t.TempDir()
	t.Setenv("HOME", home)

	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if cfg.Paths.RootFolder != filepath.Join(home, "songs") {
		t.Fatalf("expected tilde expansion, got %q", cfg.Paths.RootFolder)
	}
	if cfg.Run.Workers != 1 {
		t.Fatalf("expected workers reset to 1, got %d", cfg.Run.Workers)
	}
}

func TestCreateSampleLoads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.Audio.SampleRate != 16000 {
		t.Fatalf("unexpected sample rate: %d", cfg.Audio.SampleRate)
	}
}
