// Package resample changes the sample rate of decoded tracks with the Fourier
// method: the spectrum of each channel is truncated or zero padded to the new
// length and transformed back.
package resample

import (
	"gonum.org/v1/gonum/dsp/fourier"

	"solea/internal/media/audio"
)

// Length returns the number of frames a track of n frames has after
// conversion from src to dst Hz. The result is truncated toward zero.
func Length(n, src, dst int) int {
	if n <= 0 || src <= 0 || dst <= 0 {
		return 0
	}
	return int(float64(n*dst) / float64(src))
}

// Track returns t converted to rate. A track already at rate is returned
// unchanged.
func Track(t audio.Track, rate int) audio.Track {
	if t.Rate == rate || rate <= 0 || t.Channels <= 0 {
		return t
	}
	frames := t.Frames()
	num := Length(frames, t.Rate, rate)
	out := audio.Track{Rate: rate, Channels: t.Channels, Samples: make([]float32, num*t.Channels)}
	if num == 0 || frames == 0 {
		return out
	}

	channel := make([]float64, frames)
	for c := 0; c < t.Channels; c++ {
		for i := range channel {
			channel[i] = float64(t.Samples[i*t.Channels+c])
		}
		converted := Samples(channel, num)
		for i, v := range converted {
			out.Samples[i*t.Channels+c] = float32(v)
		}
	}
	return out
}

// Samples resamples a single channel x to num points.
func Samples(x []float64, num int) []float64 {
	n := len(x)
	if num <= 0 || n == 0 {
		return []float64{}
	}
	if num == n {
		return append([]float64(nil), x...)
	}

	spectrum := fourier.NewFFT(n).Coefficients(nil, x)

	keep := min(num, n)
	bins := make([]complex128, num/2+1)
	copy(bins, spectrum[:keep/2+1])
	if keep%2 == 0 {
		// Nyquist bin of the shorter length: doubled when shrinking, halved when growing.
		switch {
		case num < n:
			bins[keep/2] *= 2
		case num > n:
			bins[keep/2] *= 0.5
		}
	}

	y := fourier.NewFFT(num).Sequence(nil, bins)
	scale := 1 / float64(n)
	for i := range y {
		y[i] *= scale
	}
	return y
}
