package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"strings"
	"text/template"
	"time"

	"github.com/maximus-ms/enbot/internal/config"
	"github.com/maximus-ms/enbot/internal/generation"
	"github.com/maximus-ms/enbot/internal/redact"
	"google.golang.org/genai"
)

// defaultPromptTemplate is the built-in enrichment prompt. It can be
// replaced through config.GenerationConfig.PromptTemplate; any override
// receives the same promptData fields.
const defaultPromptTemplate = `You are a language tutor helping a student learn "{{.TargetLanguage}}".
Their native language is "{{.NativeLanguage}}".

For the "{{.TargetLanguage}}" word or phrase "{{.Word}}", provide:
1. Its translation into "{{.NativeLanguage}}".
2. Its phonetic transcription (IPA), or an empty string if none applies.
3. Between {{.MinExamples}} and {{.MaxExamples}} short example sentences that use the word naturally, each with a "{{.NativeLanguage}}" translation.

Respond with JSON only, no prose, using exactly this structure:
{"translation": "...", "transcription": "...", "examples": [{"sentence": "...", "translation": "..."}]}`

// GeminiGenerator implements the generation.Generator interface using
// Google's Gemini API to enrich vocabulary words.
type GeminiGenerator struct {
	logger *slog.Logger
	config config.GenerationConfig

	// promptTemplate is the parsed template for creating prompts
	promptTemplate *template.Template

	// client is the Gemini API client for making requests
	client *genai.Client

	// model is the name of the Gemini model to use
	model string

	minExamples int
	maxExamples int
}

// NewGeminiGenerator creates a new GeminiGenerator from the generation
// configuration. The context is only used for client initialization.
func NewGeminiGenerator(
	ctx context.Context,
	logger *slog.Logger,
	cfg config.GenerationConfig,
) (*GeminiGenerator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}

	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	templateText := cfg.PromptTemplate
	if templateText == "" {
		templateText = defaultPromptTemplate
	}

	promptTemplate, err := template.New("enrichment").Parse(templateText)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse prompt template: %v",
			generation.ErrInvalidConfig, err)
	}

	minExamples := cfg.MinExamples
	if minExamples < 1 {
		minExamples = 1
	}
	maxExamples := cfg.MaxExamples
	if maxExamples < minExamples {
		maxExamples = minExamples
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v",
			generation.ErrInvalidConfig, err)
	}

	return &GeminiGenerator{
		logger:         logger.With(slog.String("component", "gemini_generator")),
		config:         cfg,
		promptTemplate: promptTemplate,
		client:         client,
		model:          cfg.ModelName,
		minExamples:    minExamples,
		maxExamples:    maxExamples,
	}, nil
}

// GenerateWordContent produces translation, transcription and example
// sentences for the given word by prompting the Gemini model.
func (g *GeminiGenerator) GenerateWordContent(
	ctx context.Context,
	word, targetLanguage, nativeLanguage string,
) (*generation.WordContent, error) {
	prompt, err := g.createPrompt(ctx, word, targetLanguage, nativeLanguage)
	if err != nil {
		return nil, err
	}

	response, err := g.callGeminiWithRetry(ctx, prompt)
	if err != nil {
		return nil, err
	}

	content, err := g.parseResponse(ctx, response)
	if err != nil {
		return nil, err
	}

	g.logger.InfoContext(ctx, "word content generated",
		"word_length", len(word),
		"example_count", len(content.Examples))
	return content, nil
}

// createPrompt renders the prompt template for the given word and languages.
func (g *GeminiGenerator) createPrompt(
	ctx context.Context,
	word, targetLanguage, nativeLanguage string,
) (string, error) {
	if strings.TrimSpace(word) == "" {
		return "", ErrEmptyWordText
	}

	data := promptData{
		Word:           word,
		TargetLanguage: targetLanguage,
		NativeLanguage: nativeLanguage,
		MinExamples:    g.minExamples,
		MaxExamples:    g.maxExamples,
	}

	var promptBuffer bytes.Buffer
	if err := g.promptTemplate.Execute(&promptBuffer, data); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}

	prompt := promptBuffer.String()
	g.logger.DebugContext(ctx, "prompt generated",
		"prompt_length", len(prompt),
		"template_name", g.promptTemplate.Name())

	return prompt, nil
}

// callGeminiWithRetry calls the Gemini API with exponential backoff for
// transient errors. Permanent errors, like content blocked by safety
// filters or an unparseable response, are returned immediately.
func (g *GeminiGenerator) callGeminiWithRetry(ctx context.Context, prompt string) (*ResponseSchema, error) {
	maxRetries := g.config.MaxRetries
	baseDelaySeconds := g.config.RetryDelaySeconds
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	if maxRetries < 0 {
		g.logger.WarnContext(ctx, "invalid max retries value, using default", "max_retries", 3)
		maxRetries = 3
	}
	if baseDelaySeconds < 1 {
		baseDelaySeconds = 2
	}

	// JSON output mode keeps the model from wrapping the response in prose.
	genConfig := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}

	for attempt := 0; ; attempt++ {
		attemptNum := attempt + 1
		g.logger.DebugContext(ctx, "calling Gemini API",
			"attempt", attemptNum,
			"max_attempts", maxRetries+1)

		var response *ResponseSchema
		isTransient := false

		resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), genConfig)
		switch {
		case err != nil:
			// Network and quota problems may clear up on retry.
			isTransient = true
		case resp == nil:
			err = fmt.Errorf("%w: nil response", generation.ErrInvalidResponse)
		case resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "":
			err = fmt.Errorf("%w: prompt blocked by safety filters", generation.ErrContentBlocked)
		case len(resp.Candidates) == 0:
			err = fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse)
		case resp.Candidates[0].FinishReason == genai.FinishReasonSafety:
			err = fmt.Errorf("%w: content blocked by safety filters", generation.ErrContentBlocked)
		case resp.Candidates[0].Content == nil:
			err = fmt.Errorf("%w: empty content in response", generation.ErrInvalidResponse)
		default:
			var text strings.Builder
			for _, part := range resp.Candidates[0].Content.Parts {
				if part != nil {
					text.WriteString(part.Text)
				}
			}

			var parsed ResponseSchema
			if err = json.Unmarshal([]byte(trimCodeFence(text.String())), &parsed); err != nil {
				err = fmt.Errorf("%w: failed to parse JSON response: %v",
					generation.ErrInvalidResponse, err)
			} else {
				response = &parsed
			}
		}

		if err == nil {
			g.logger.DebugContext(ctx, "Gemini API call successful", "attempt", attemptNum)
			return response, nil
		}

		// The raw error can echo the request URL with the API key in it.
		g.logger.ErrorContext(ctx, "Gemini API call failed",
			"attempt", attemptNum,
			"error", redact.Error(err))

		if errors.Is(err, generation.ErrContentBlocked) || errors.Is(err, generation.ErrInvalidResponse) {
			return nil, err
		}

		if attempt >= maxRetries {
			return nil, fmt.Errorf("%w: exceeded maximum retry attempts (%d)",
				generation.ErrTransientFailure, maxRetries)
		}

		if !isTransient {
			return nil, err
		}

		// delay = baseDelay * (2^attempt) * (0.5 + rand(0, 0.5))
		backoffSeconds := float64(baseDelaySeconds) * math.Pow(2, float64(attempt))
		jitterFactor := 0.5 + rng.Float64()*0.5
		delay := time.Duration(backoffSeconds * jitterFactor * float64(time.Second))

		g.logger.InfoContext(ctx, "retrying after delay",
			"attempt", attemptNum,
			"delay", delay)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", generation.ErrTransientFailure, ctx.Err())
		}
	}
}

// parseResponse converts the API response into generation.WordContent.
// Examples with empty sentences are dropped and the count is capped at the
// configured maximum; a missing translation invalidates the whole response.
func (g *GeminiGenerator) parseResponse(
	ctx context.Context,
	response *ResponseSchema,
) (*generation.WordContent, error) {
	if response == nil {
		return nil, fmt.Errorf("%w: response is nil", generation.ErrInvalidResponse)
	}

	if strings.TrimSpace(response.Translation) == "" {
		return nil, fmt.Errorf("%w: missing translation", generation.ErrInvalidResponse)
	}

	content := &generation.WordContent{
		Translation:   strings.TrimSpace(response.Translation),
		Transcription: strings.TrimSpace(response.Transcription),
	}

	for i, example := range response.Examples {
		if len(content.Examples) == g.maxExamples {
			break
		}
		sentence := strings.TrimSpace(example.Sentence)
		if sentence == "" {
			g.logger.WarnContext(ctx, "dropping example with empty sentence", "index", i)
			continue
		}
		content.Examples = append(content.Examples, generation.ExampleContent{
			Sentence:    sentence,
			Translation: strings.TrimSpace(example.Translation),
		})
	}

	if len(content.Examples) < g.minExamples {
		g.logger.WarnContext(ctx, "fewer examples than requested",
			"got", len(content.Examples),
			"want_min", g.minExamples)
	}

	return content, nil
}

// trimCodeFence strips a Markdown code fence wrapper from model output.
func trimCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

var _ generation.Generator = (*GeminiGenerator)(nil)
