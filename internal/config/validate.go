package config

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateScheduler(); err != nil {
		return err
	}
	if err := c.validateDownload(); err != nil {
		return err
	}
	if err := c.validateValidation(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateScheduler() error {
	if c.Scheduler.Workers < 0 {
		return errors.New("scheduler.workers must be >= 0")
	}
	if c.Scheduler.IdleTimeoutSeconds < 0 {
		return errors.New("scheduler.idle_timeout_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validateDownload() error {
	if c.Download.TimeoutSeconds < 0 {
		return errors.New("download.timeout_seconds must be >= 0")
	}
	if c.Download.RateLimitKiB < 0 {
		return errors.New("download.rate_limit_kib must be >= 0")
	}
	if c.Download.MinFreeMiB < 0 {
		return errors.New("download.min_free_mib must be >= 0")
	}
	return nil
}

func (c *Config) validateValidation() error {
	switch c.Validation.Profile {
	case "standard", "strict", "lenient":
	default:
		return fmt.Errorf("validation.profile: unsupported value %q (want standard, strict, or lenient)", c.Validation.Profile)
	}
	if c.Validation.HelpBaseURL != "" {
		if _, err := url.ParseRequestURI(c.Validation.HelpBaseURL); err != nil {
			return fmt.Errorf("validation.help_base_url: %w", err)
		}
	}
	if err := validateStrictnessMap("validation.strictness", c.Validation.Strictness); err != nil {
		return err
	}
	return validateStrictnessMap("validation.rules", c.Validation.Rules)
}

func validateStrictnessMap(section string, values map[string]string) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		switch values[key] {
		case "required", "optional", "ignore":
		default:
			return fmt.Errorf("%s.%s: unsupported strictness %q (want required, optional, or ignore)", section, key, values[key])
		}
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.NtfyTopic != "" {
		if _, err := url.ParseRequestURI(c.Notifications.NtfyTopic); err != nil {
			return fmt.Errorf("notifications.ntfy_topic: %w", err)
		}
	}
	switch c.Notifications.NotifyOn {
	case "failures", "all":
	default:
		return fmt.Errorf("notifications.notify_on: unsupported value %q (want failures or all)", c.Notifications.NotifyOn)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
