// Package api provides the HTTP handlers of the flashcard API.
//
// Handlers decode and validate requests, call the services and translate
// errors with MapErrorToStatusCode and GetSafeErrorMessage. Internal error
// text never reaches a response body.
package api
