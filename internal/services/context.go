package services

import "context"

type contextKey string

const (
	songIDKey  contextKey = "song_id"
	chunkIDKey contextKey = "chunk_id"
	runIDKey   contextKey = "run_id"
)

// WithSongID annotates context with the song group identifier.
func WithSongID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, songIDKey, id)
}

// SongIDFromContext returns the song identifier if present.
func SongIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(songIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithChunkID annotates context with the chunk identifier.
func WithChunkID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, chunkIDKey, id)
}

// ChunkIDFromContext returns the chunk identifier if present.
func ChunkIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(chunkIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRunID annotates context with the run correlation identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run correlation identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
