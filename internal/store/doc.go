// Package store defines the persistence contracts for flashcards and study
// activity, the errors every implementation reports, and the transaction
// helper services use to make multi-step changes atomic.
//
// Implementations live under internal/platform: postgres for production
// and sqlite for single-binary deployments and tests.
package store
