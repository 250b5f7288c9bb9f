package config

const (
	defaultRootFolder        = "./downloaded_songs"
	defaultManifest          = "solea.json"
	defaultSampleRate        = 16000
	defaultCodec             = "flac"
	defaultDownloadFormat    = "bestaudio"
	defaultDownloadExtension = "m4a"
	defaultURLTemplate       = "https://www.youtube.com/watch?v=%s"
	defaultFFmpegBinary      = "ffmpeg"
	defaultFFprobeBinary     = "ffprobe"
	defaultWorkers           = 1
	defaultMissingChunksLog  = "missing_chunks.txt"
	defaultMissingNotesLog   = "missing_notes.txt"
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultLogMaxSizeMB      = 50
	defaultLogMaxBackups     = 5
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			RootFolder: defaultRootFolder,
			Manifest:   defaultManifest,
		},
		Audio: Audio{
			SampleRate: defaultSampleRate,
			Codec:      defaultCodec,
		},
		Download: Download{
			Format:        defaultDownloadFormat,
			Extension:     defaultDownloadExtension,
			URLTemplate:   defaultURLTemplate,
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
		},
		Run: Run{
			Workers:  defaultWorkers,
			Progress: true,
		},
		Audit: Audit{
			MissingChunksLog: defaultMissingChunksLog,
			MissingNotesLog:  defaultMissingNotesLog,
		},
		Logging: Logging{
			Format:     defaultLogFormat,
			Level:      defaultLogLevel,
			MaxSizeMB:  defaultLogMaxSizeMB,
			MaxBackups: defaultLogMaxBackups,
		},
	}
}
