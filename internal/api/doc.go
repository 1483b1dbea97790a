// Package api exposes the retry manager over a small local HTTP control
// surface: submitting recordings, inspecting the queues, cancelling tasks
// and clearing failures. Handlers translate HTTP concerns into task.Manager
// calls and never leak raw error text to clients.
package api
