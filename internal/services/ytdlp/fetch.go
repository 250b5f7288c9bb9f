package ytdlp

import (
	"context"

	yt "github.com/ytget/ytdlp/v2"
)

// FetchFunc downloads url to dest, reporting percent complete (0-100) when
// the fetcher knows it.
type FetchFunc func(ctx context.Context, url, dest, format, extension string, progress func(percent float64)) error

func fetchWithLibrary(ctx context.Context, url, dest, format, extension string, progress func(percent float64)) error {
	dl := yt.New().
		WithFormat(format, extension).
		WithOutputPath(dest)
	if progress != nil {
		dl = dl.WithProgress(func(p yt.Progress) {
			progress(p.Percent)
		})
	}
	_, err := dl.Download(ctx, url)
	return err
}
