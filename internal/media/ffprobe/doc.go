// Package ffprobe decodes the JSON report ffprobe prints for an audio file.
//
// Inspect runs the binary; the helpers on Result pick out the first audio
// stream's sample rate, channel count and duration.
package ffprobe
