package logging

import (
	"context"
	"log/slog"

	"solea/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldSongID identifies the song group (manifest dali_id).
	FieldSongID = "song_id"
	// FieldChunkID identifies a chunk within a song group.
	FieldChunkID = "chunk_id"
	// FieldRemoteID is the remote video identifier used for downloads.
	FieldRemoteID = "remote_id"
	// FieldRunID correlates every line emitted by one invocation.
	FieldRunID = "run_id"
	// FieldEventType classifies a log line for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint carries a short next step for the operator.
	FieldErrorHint = "error_hint"
	// FieldImpact is the user-facing consequence of a warning.
	FieldImpact = "impact"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := services.SongIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldSongID, id))
	}
	if id, ok := services.ChunkIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldChunkID, id))
	}
	if id, ok := services.RunIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldRunID, id))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
