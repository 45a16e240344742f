// Package watch feeds audio files dropped into a folder to the job manager.
//
// Only one watcher may run per state directory; the lock is an flock on
// config.LockPath. A file is submitted once its size and modification time
// have stayed unchanged for the debounce interval, and again only after it
// changes.
package watch
