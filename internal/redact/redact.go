// Package redact strips credentials from error text before it is persisted to
// the retry state file or returned by the control API. Transcription backends
// tend to echo request URLs, and those URLs carry API keys.
package redact

import (
	"regexp"
)

// Constants for redaction placeholders
const (
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedKeyPlaceholder        = "[REDACTED_KEY]"
	RedactedTokenPlaceholder      = "[REDACTED_TOKEN]"
)

type rule struct {
	pattern     *regexp.Regexp
	replacement string
}

// Order matters: the specific key formats run before the generic
// "key=value" rule so their placeholder wins.
var rules = []rule{
	// Google API keys, e.g. Gemini
	{regexp.MustCompile(`AIza[0-9A-Za-z_\-]{35}`), RedactedKeyPlaceholder},
	// key=... in query strings
	{regexp.MustCompile(`(?i)([?&](?:key|api_key|apikey|access_token)=)[^&\s"']+`), "${1}" + RedactedKeyPlaceholder},
	// Authorization headers
	{regexp.MustCompile(`(?i)(bearer\s+)[A-Za-z0-9_\-.~+/=]{8,}`), "${1}" + RedactedTokenPlaceholder},
	// JWTs outside of headers
	{regexp.MustCompile(`eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`), RedactedTokenPlaceholder},
	// api_key: xxx, x-goog-api-key=xxx, secret "xxx"
	{regexp.MustCompile(`(?i)((?:x-goog-)?api[_-]?key|secret|token)(['"\s:=]+)[A-Za-z0-9_\-.~+/]{8,}`), "${1}${2}" + RedactedKeyPlaceholder},
	// password=xxx
	{regexp.MustCompile(`(?i)(password|passwd|pwd)([=:\s]+['"]?)[^'"&\s]{3,}`), "${1}${2}" + RedactedCredentialPlaceholder},
	// user:pass@ in URLs
	{regexp.MustCompile(`([a-z][a-z0-9+.\-]*://)[^/@\s:]+:[^/@\s]+@`), "${1}" + RedactedCredentialPlaceholder + "@"},
}

// String redacts credentials from the input string
func String(input string) string {
	if input == "" {
		return input
	}

	result := input
	for _, r := range rules {
		result = r.pattern.ReplaceAllString(result, r.replacement)
	}
	return result
}

// Error redacts credentials from an error's Error() output
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}
