// Package task runs background work on a bounded in-memory queue drained by
// a pool of workers. Event handlers that must not slow down HTTP requests,
// such as the study activity recorder, are executed here.
package task
