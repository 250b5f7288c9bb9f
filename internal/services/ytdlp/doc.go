// Package ytdlp fetches the audio of a remote video and leaves it on disk as
// a FLAC file named after the video identifier.
//
// The network fetch goes through github.com/ytget/ytdlp/v2; the fetched
// container is then transcoded with ffmpeg and the intermediate removed.
package ytdlp
