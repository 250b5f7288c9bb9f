// Package layout names the files of the output tree:
//
//	root/{song}/{remote}.flac        transient full-song audio
//	root/{song}/{chunk}/audio.flac   chunk audio
//	root/{song}/{chunk}/notes.tsv    chunk notes
//	root/{song}/.{chunk}.partial/    chunk being written
package layout

import (
	"path/filepath"

	"solea/internal/notes"
)

// AudioFile is the chunk audio file name.
const AudioFile = "audio.flac"

// SongDir returns the directory holding a song's chunks.
func SongDir(root, song string) string {
	return filepath.Join(root, song)
}

// ChunkDir returns the directory for one chunk.
func ChunkDir(root, song, chunk string) string {
	return filepath.Join(root, song, chunk)
}

// AudioPath returns the chunk audio path.
func AudioPath(root, song, chunk string) string {
	return filepath.Join(ChunkDir(root, song, chunk), AudioFile)
}

// NotesPath returns the chunk notes path.
func NotesPath(root, song, chunk string) string {
	return filepath.Join(ChunkDir(root, song, chunk), notes.FileName)
}

// TransientPath returns the full-song audio kept while a song is processed.
func TransientPath(root, song, remote string) string {
	return filepath.Join(root, song, remote+".flac")
}

// StagingDir returns the hidden sibling of a chunk directory that holds its
// files until both are written.
func StagingDir(root, song, chunk string) string {
	return filepath.Join(root, song, "."+chunk+".partial")
}
