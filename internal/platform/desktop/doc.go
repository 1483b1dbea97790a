// Package desktop delivers transcription outcomes to the local desktop.
//
// Successful transcriptions are copied to the system clipboard and failures
// raise a desktop notification. Both adapters can be disabled, in which case
// they only log.
package desktop
