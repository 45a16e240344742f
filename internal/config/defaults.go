package config

const (
	defaultConfigPath         = "~/.config/audiocheck/config.toml"
	defaultCacheDir           = "~/.cache/audiocheck"
	defaultLogDir             = "~/.local/share/audiocheck/logs"
	defaultStateDir           = "~/.local/share/audiocheck"
	defaultIdleTimeoutSeconds = 15 * 60
	defaultDownloadTimeout    = 300
	defaultChunkKiB           = 32
	defaultMinFreeMiB         = 64
	defaultUserAgent          = "audiocheck/dev"
	defaultFFmpeg             = "ffmpeg"
	defaultFFprobe            = "ffprobe"
	defaultProfile            = "standard"
	defaultLocale             = "en"
	defaultHelpBaseURL        = "https://audiocheck.dev/help"
	defaultWatchDebounceMS    = 2000
	defaultNtfyTimeout        = 10
	defaultNotifyOn           = "failures"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

var defaultWatchExtensions = []string{".mp3"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			CacheDir: defaultCacheDir,
			LogDir:   defaultLogDir,
			StateDir: defaultStateDir,
		},
		Scheduler: Scheduler{
			IdleTimeoutSeconds: defaultIdleTimeoutSeconds,
		},
		Download: Download{
			TimeoutSeconds: defaultDownloadTimeout,
			ChunkKiB:       defaultChunkKiB,
			MinFreeMiB:     defaultMinFreeMiB,
			UserAgent:      defaultUserAgent,
		},
		Decoder: Decoder{
			FFmpeg:  defaultFFmpeg,
			FFprobe: defaultFFprobe,
		},
		Validation: Validation{
			Profile:     defaultProfile,
			Locale:      defaultLocale,
			HelpBaseURL: defaultHelpBaseURL,
			Strictness:  map[string]string{},
			Rules:       map[string]string{},
		},
		Validators: map[string]map[string]any{},
		Watch: Watch{
			Extensions: append([]string(nil), defaultWatchExtensions...),
			DebounceMS: defaultWatchDebounceMS,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNtfyTimeout,
			NotifyOn:              defaultNotifyOn,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
