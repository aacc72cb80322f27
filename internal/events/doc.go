// Package events lets services announce committed facts, such as a review
// being recorded, without knowing who listens.
//
// The primary components are:
// - Event: a typed JSON payload with an ID and timestamp
// - EventHandler: implemented by listeners
// - InMemoryEventEmitter: fans events out to handlers, optionally through a
//   Dispatcher that runs them on background workers
package events
