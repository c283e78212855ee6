package services

import (
	"context"
	"errors"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"google.golang.org/genai"

	"bandhub/config"
	"bandhub/models"
)

const (
	dashscopeBaseUrl      = "https://dashscope.aliyuncs.com/compatible-mode/v1"
	defaultDashscopeModel = "qwen-plus"
	defaultOpenaiBaseUrl  = "https://api.openai.com/v1"
	defaultGeminiModel    = "gemini-2.5-flash"
)

// GenerationBackend is the single abstraction every pipeline stage uses for
// natural-language generation.
type GenerationBackend interface {
	Chat(ctx context.Context, messages []models.ChatMessage, temperature float32) (string, error)
}

// Global generation backend, resolved once at startup.
var generationBackend GenerationBackend

// InitGenerationService resolves the generation provider from the config:
// DashScope first, then any OpenAI-compatible endpoint, then Gemini.
func InitGenerationService(cfg *config.Config) error {
	backend, err := ResolveGenerationBackend(cfg)
	if err != nil {
		return err
	}
	generationBackend = backend
	return nil
}

// Chat relays a conversation to the resolved generation backend.
func Chat(ctx context.Context, messages []models.ChatMessage, temperature float32) (string, error) {
	if generationBackend == nil {
		return "", &ConfigError{Reason: "generation service is not initialized"}
	}
	return generationBackend.Chat(ctx, messages, temperature)
}

// ResolveGenerationBackend picks the provider once so call sites never branch
// on which vendor is configured.
func ResolveGenerationBackend(cfg *config.Config) (GenerationBackend, error) {
	switch {
	case cfg.Dashscope.ApiKey != "":
		model := cfg.Dashscope.Model
		if model == "" {
			model = defaultDashscopeModel
		}
		return NewOpenAICompatBackend(cfg.Dashscope.ApiKey, dashscopeBaseUrl, model), nil
	case cfg.Openai.ApiKey != "":
		if cfg.Openai.Model == "" {
			return nil, &ConfigError{Reason: "OPENAI_MODEL is required when using an OpenAI-compatible endpoint"}
		}
		baseUrl := cfg.Openai.BaseUrl
		if baseUrl == "" {
			baseUrl = defaultOpenaiBaseUrl
		}
		return NewOpenAICompatBackend(cfg.Openai.ApiKey, baseUrl, cfg.Openai.Model), nil
	case cfg.Gemini.ApiKey != "":
		return NewGeminiBackend(cfg.Gemini.ApiKey, cfg.Gemini.Model)
	}
	return nil, &ConfigError{Reason: "no generation provider configured; set DASHSCOPE_API_KEY, OPENAI_API_KEY or GEMINI_API_KEY"}
}

// OpenAICompatBackend talks to DashScope compatible mode or any other
// OpenAI-style chat completion endpoint.
type OpenAICompatBackend struct {
	client *openai.Client
	model  string
}

func NewOpenAICompatBackend(apiKey, baseUrl, model string) *OpenAICompatBackend {
	clientConfig := openai.DefaultConfig(apiKey)
	clientConfig.BaseURL = baseUrl
	return &OpenAICompatBackend{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
	}
}

func (b *OpenAICompatBackend) Chat(ctx context.Context, messages []models.ChatMessage, temperature float32) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       b.model,
		Temperature: temperature,
	}
	for _, msg := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	resp, err := b.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", mapOpenAIError(err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", &EmptyResponseError{}
	}
	return resp.Choices[0].Message.Content, nil
}

func mapOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &UpstreamError{StatusCode: apiErr.HTTPStatusCode, Body: truncate(apiErr.Message, 200)}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &UpstreamError{StatusCode: reqErr.HTTPStatusCode, Body: truncate(reqErr.Error(), 200)}
	}
	return &TransportError{Err: err}
}

// GeminiBackend serves as the last-resort provider when no OpenAI-compatible
// credentials are configured.
type GeminiBackend struct {
	client *genai.Client
	model  string
}

func NewGeminiBackend(apiKey, model string) (*GeminiBackend, error) {
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, &ConfigError{Reason: "gemini client: " + err.Error()}
	}
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiBackend{client: client, model: model}, nil
}

func (b *GeminiBackend) Chat(ctx context.Context, messages []models.ChatMessage, temperature float32) (string, error) {
	// Gemini keeps the system instruction outside the conversation turns.
	var system strings.Builder
	var prompt strings.Builder
	for _, msg := range messages {
		if msg.Role == "system" {
			system.WriteString(msg.Content)
			system.WriteString("\n")
			continue
		}
		prompt.WriteString(msg.Content)
		prompt.WriteString("\n")
	}

	genConfig := &genai.GenerateContentConfig{Temperature: &temperature}
	if system.Len() > 0 {
		genConfig.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: strings.TrimSpace(system.String())}},
		}
	}

	resp, err := b.client.Models.GenerateContent(ctx, b.model, genai.Text(strings.TrimSpace(prompt.String())), genConfig)
	if err != nil {
		var apiErr *genai.APIError
		if errors.As(err, &apiErr) {
			return "", &UpstreamError{StatusCode: apiErr.Code, Body: truncate(apiErr.Message, 200)}
		}
		return "", &TransportError{Err: err}
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", &EmptyResponseError{}
	}
	return text, nil
}

// cleanModelOutput strips the markdown code fences models like to wrap JSON
// in before a parse is attempted.
func cleanModelOutput(text string) string {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```JSON")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	return strings.TrimSpace(cleaned)
}
