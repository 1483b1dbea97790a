// Package gemini implements task.Transcriber on top of Google's Gemini API.
//
// The recorded WAV payload is sent inline next to a prompt rendered from a
// template. Responses blocked by safety filters, rejected requests and
// oversized payloads are reported as permanent failures so the retry queue
// does not waste attempts on them; rate limits, server errors and timeouts
// are left retryable.
package gemini
