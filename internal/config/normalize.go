package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeScheduler()
	c.normalizeDownload()
	c.normalizeDecoder()
	c.normalizeValidation()
	c.normalizeWatch()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeScheduler() {
	if c.Scheduler.IdleTimeoutSeconds == 0 {
		c.Scheduler.IdleTimeoutSeconds = defaultIdleTimeoutSeconds
	}
}

func (c *Config) normalizeDownload() {
	if c.Download.ChunkKiB <= 0 {
		c.Download.ChunkKiB = defaultChunkKiB
	}
	c.Download.UserAgent = strings.TrimSpace(c.Download.UserAgent)
	if c.Download.UserAgent == "" {
		c.Download.UserAgent = defaultUserAgent
	}
}

func (c *Config) normalizeDecoder() {
	c.Decoder.FFmpeg = strings.TrimSpace(c.Decoder.FFmpeg)
	if c.Decoder.FFmpeg == "" {
		c.Decoder.FFmpeg = defaultFFmpeg
	}
	c.Decoder.FFprobe = strings.TrimSpace(c.Decoder.FFprobe)
	if c.Decoder.FFprobe == "" {
		c.Decoder.FFprobe = defaultFFprobe
	}
}

func (c *Config) normalizeValidation() {
	c.Validation.Profile = strings.ToLower(strings.TrimSpace(c.Validation.Profile))
	if c.Validation.Profile == "" {
		c.Validation.Profile = defaultProfile
	}
	c.Validation.Locale = strings.TrimSpace(c.Validation.Locale)
	if c.Validation.Locale == "" {
		c.Validation.Locale = defaultLocale
	}
	c.Validation.HelpBaseURL = strings.TrimRight(strings.TrimSpace(c.Validation.HelpBaseURL), "/")
	c.Validation.Strictness = lowerValues(c.Validation.Strictness)
	c.Validation.Rules = lowerValues(c.Validation.Rules)
	if c.Validators == nil {
		c.Validators = map[string]map[string]any{}
	}
}

func (c *Config) normalizeWatch() {
	exts := make([]string, 0, len(c.Watch.Extensions))
	for _, ext := range c.Watch.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, ext)
	}
	if len(exts) == 0 {
		exts = append(exts, defaultWatchExtensions...)
	}
	c.Watch.Extensions = exts
	if c.Watch.DebounceMS <= 0 {
		c.Watch.DebounceMS = defaultWatchDebounceMS
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeoutSeconds <= 0 {
		c.Notifications.RequestTimeoutSeconds = defaultNtfyTimeout
	}
	c.Notifications.NotifyOn = strings.ToLower(strings.TrimSpace(c.Notifications.NotifyOn))
	if c.Notifications.NotifyOn == "" {
		c.Notifications.NotifyOn = defaultNotifyOn
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func lowerValues(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for key, value := range in {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		out[key] = strings.ToLower(strings.TrimSpace(value))
	}
	return out
}
