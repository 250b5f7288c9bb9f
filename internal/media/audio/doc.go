// Package audio holds decoded PCM tracks and the ffmpeg-backed codec that
// moves them to and from disk.
//
// Track stores interleaved float32 samples. Codec decodes any container
// ffmpeg understands at its native rate and channel layout, and encodes tracks
// as 16-bit FLAC.
package audio
