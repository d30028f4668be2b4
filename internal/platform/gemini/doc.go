// Package gemini provides an implementation of the generation.Generator
// interface that uses Google's Gemini API to enrich vocabulary words with
// translations, transcriptions and example sentences.
//
// The package is an infrastructure adapter: it translates between the
// application's generation types and the Gemini API without exposing the
// external service to the core application. It owns prompt construction
// from a template, retry with exponential backoff for transient API errors,
// and parsing of the structured JSON responses into generation.WordContent.
package gemini
