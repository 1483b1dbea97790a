// Package events carries task lifecycle notifications from the retry queue to
// interested observers (desktop notifications, logging, diagnostics).
//
// The primary components are:
// - LifecycleEvent: a single state change of an audio task
// - EventHandler: interface for components that react to events
// - EventEmitter: interface for components that publish events
package events
