package audio

// Track is an interleaved PCM buffer at a fixed sample rate.
type Track struct {
	Rate     int
	Channels int
	Samples  []float32
}

// Frames returns the number of sample frames (samples per channel).
func (t Track) Frames() int {
	if t.Channels <= 0 {
		return 0
	}
	return len(t.Samples) / t.Channels
}

// Seconds returns the track length in seconds.
func (t Track) Seconds() float64 {
	if t.Rate <= 0 {
		return 0
	}
	return float64(t.Frames()) / float64(t.Rate)
}

// Slice returns frames [start, end). Indices are clamped to the track, so a
// negative start means frame 0 rather than an offset from the end. A start at
// or past end yields an empty track. The returned samples share the
// receiver's backing array.
func (t Track) Slice(start, end int) Track {
	frames := t.Frames()
	if start < 0 {
		start = 0
	}
	if end > frames {
		end = frames
	}
	if start >= end {
		return Track{Rate: t.Rate, Channels: t.Channels, Samples: []float32{}}
	}
	return Track{
		Rate:     t.Rate,
		Channels: t.Channels,
		Samples:  t.Samples[start*t.Channels : end*t.Channels],
	}
}

// SliceSeconds returns the frames between two timestamps. Each bound is
// converted with FrameIndex.
func (t Track) SliceSeconds(start, end float64) Track {
	return t.Slice(FrameIndex(start, t.Rate), FrameIndex(end, t.Rate))
}

// FrameIndex converts a timestamp to a frame index, truncating toward zero.
func FrameIndex(seconds float64, rate int) int {
	return int(seconds * float64(rate))
}
