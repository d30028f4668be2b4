// Package generation defines the boundary between the application core and
// external language-model services. It abstracts the details of the LLM API
// integration (Gemini) so the task layer can enrich vocabulary words with
// translations, transcriptions and example sentences without coupling to a
// specific provider.
package generation
