package testsupport

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"solea/internal/layout"
	"solea/internal/manifest"
	"solea/internal/notes"
)

// WriteManifest serializes records as a JSON manifest at path.
func WriteManifest(t testing.TB, path string, records []manifest.Record) {
	t.Helper()

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		t.Fatalf("marshal manifest: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write manifest %s: %v", path, err)
	}
}

// WriteChunk materializes a chunk directory under root. Either file can be
// left out to simulate a partially written dataset.
func WriteChunk(t testing.TB, root, song, chunk string, withAudio, withNotes bool) string {
	t.Helper()

	dir := layout.ChunkDir(root, song, chunk)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir chunk %s: %v", dir, err)
	}
	if withAudio {
		if err := os.WriteFile(layout.AudioPath(root, song, chunk), []byte("fLaC"), 0o644); err != nil {
			t.Fatalf("write audio: %v", err)
		}
	}
	if withNotes {
		if err := notes.Write(layout.NotesPath(root, song, chunk), nil); err != nil {
			t.Fatalf("write notes: %v", err)
		}
	}
	return dir
}
