package gemini

// promptData represents the data passed to the prompt template
type promptData struct {
	Word           string
	TargetLanguage string
	NativeLanguage string
	MinExamples    int
	MaxExamples    int
}

// ResponseSchema represents the expected structure of the Gemini API response
type ResponseSchema struct {
	// Translation is the word's translation into the native language
	Translation string `json:"translation"`

	// Transcription is the phonetic transcription of the word
	Transcription string `json:"transcription"`

	// Examples are usage examples with translations
	Examples []ExampleSchema `json:"examples"`
}

// ExampleSchema represents a single example sentence in the API response
type ExampleSchema struct {
	// Sentence is a usage example in the target language
	Sentence string `json:"sentence"`

	// Translation is the sentence translated into the native language
	Translation string `json:"translation"`
}
