package config

const (
	defaultScratchDir = "~/.cache/glitchcut/scratch"
	defaultHistoryDir = "~/.local/share/glitchcut"
	defaultFFmpeg     = "ffmpeg"
	defaultFFprobe    = "ffprobe"
	defaultLogFormat  = "console"
	defaultLogLevel   = "info"

	// For 16-bit audio the theoretical dynamic range is 96 dB, so anything at
	// or below -95 LUFS is treated as digital silence rather than quiet audio.
	DefaultSilenceThresholdLUFS = -95.0
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ScratchDir: defaultScratchDir,
			HistoryDir: defaultHistoryDir,
		},
		Engine: Engine{
			FFmpegBinary:  defaultFFmpeg,
			FFprobeBinary: defaultFFprobe,
		},
		Defaults: Defaults{
			SilenceThresholdLUFS: DefaultSilenceThresholdLUFS,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
