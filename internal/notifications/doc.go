// Package notifications delivers analysis verdicts to ntfy.
//
// The topic URL comes from the [notifications] section of config.toml. When no
// topic is configured NewService returns a no-op implementation, so callers can
// notify unconditionally. The notify_on setting decides whether every verdict
// is published or only failed and errored jobs.
package notifications
