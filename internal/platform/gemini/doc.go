// Package gemini implements generation.Generator with Google's Gemini API.
//
// The prompt is an embedded text template. Responses are requested as JSON
// matching a fixed schema and converted into card drafts. Transient API
// failures are retried with exponential backoff and jitter; safety blocks
// and malformed responses are not.
package gemini
