package ytdlp

import "time"

// Config captures runtime settings for downloads.
type Config struct {
	// Format is the quality selector passed to the fetcher (e.g. "bestaudio").
	Format string
	// Extension is the container extension requested from the fetcher.
	Extension string
	// URLTemplate turns a remote identifier into a watch URL; it holds one %s.
	URLTemplate string
	// Timeout bounds a single fetch. Zero disables it.
	Timeout time.Duration
}

const (
	DefaultFormat      = "bestaudio"
	DefaultExtension   = "m4a"
	DefaultURLTemplate = "https://www.youtube.com/watch?v=%s"
	outputExtension    = "flac"
	sourceInfix        = ".source"
)
