package config

const (
	defaultFramesPerBuffer = 2048
	defaultOutput          = "auto"
	defaultVectorDir       = "~/.config/tonearm/vectors"
	defaultArchivePath     = "~/.local/share/tonearm/parity.db"
	defaultLogLevel        = "info"
	defaultLogFormat       = "console"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Playback: Playback{
			FramesPerBuffer: defaultFramesPerBuffer,
			Output:          defaultOutput,
		},
		Parity: Parity{
			VectorDir:   defaultVectorDir,
			ArchivePath: defaultArchivePath,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
