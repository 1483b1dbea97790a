// Package config loads murmur's settings from an optional YAML file and
// MURMUR_-prefixed environment variables, applies defaults for the retry
// queue and transcription backend, and validates the result before any
// component is constructed.
package config
