// Package service contains the application use cases. It coordinates the
// domain types, the stores from internal/store and the event emitter, and
// owns transaction boundaries.
//
// Review submission lives in the card_review subpackage; token handling in auth.
package service
