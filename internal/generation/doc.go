// Package generation defines the boundary between the application and
// LLM services that turn study text into flashcard drafts. The Generator
// interface is implemented by the platform/gemini adapter; services depend
// only on this package.
package generation
