// Package task implements a crash-recoverable retry queue for recorded audio.
// Submissions are written to a blob store and transcribed one at a time by a
// single worker; failed attempts back off exponentially in a retry table that
// is persisted to disk, so waiting retries survive application restarts.
package task
