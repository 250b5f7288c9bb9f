package main

import (
	"io"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"solea/internal/pipeline"
)

// groupProgress shows one tick per finished song group. A disabled progress
// has nil fields and every method is a no-op.
type groupProgress struct {
	container *mpb.Progress
	bar       *mpb.Bar
}

func newGroupProgress(w io.Writer, total int, enabled bool) *groupProgress {
	if !enabled || total == 0 {
		return &groupProgress{}
	}
	p := mpb.New(mpb.WithOutput(w), mpb.WithWidth(48))
	bar := p.AddBar(int64(total),
		mpb.PrependDecorators(
			decor.Name("Songs: "),
			decor.CountersNoUnit("%d / %d"),
		),
		mpb.AppendDecorators(
			decor.Percentage(),
			decor.Name(" "),
			decor.Elapsed(decor.ET_STYLE_GO),
		),
	)
	return &groupProgress{container: p, bar: bar}
}

func (g *groupProgress) observe(pipeline.Outcome) {
	if g.bar != nil {
		g.bar.Increment()
	}
}

// finish completes the bar even when groups were cancelled before they
// reported, then waits for the final render.
func (g *groupProgress) finish() {
	if g.container == nil {
		return
	}
	g.bar.SetTotal(-1, true)
	g.container.Wait()
}
