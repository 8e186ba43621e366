package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/TanishqMishra12/VAYO/internal/domain"
)

const sanitizerSystemPrompt = "You are a data sanitization expert."

// Sanitizer removes PII from a bio and extracts implied interest tags with a chat model.
type Sanitizer struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	logger      *zap.Logger
}

// SanitizerConfig holds the chat model settings.
type SanitizerConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	Logger      *zap.Logger
}

// NewSanitizer creates an OpenAI-compatible profile sanitizer.
func NewSanitizer(cfg *SanitizerConfig) *Sanitizer {
	return &Sanitizer{
		client:      newClient(cfg.APIKey, cfg.BaseURL),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		logger:      cfg.Logger,
	}
}

// sanitizerReply is the JSON object the model must answer with.
// Pointer fields distinguish a missing key from an empty value.
type sanitizerReply struct {
	SanitizedBio *string  `json:"sanitized_bio"`
	EnrichedTags []string `json:"enriched_tags"`
	PIIFound     *bool    `json:"pii_found"`
}

// Sanitize asks the model for a cleaned bio and enriched tags.
// Any transport, decoding or shape error is returned; the caller decides the fallback.
func (s *Sanitizer) Sanitize(ctx context.Context, bio string, tags []string) (domain.EnrichedProfile, error) {
	req := openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: sanitizerSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildSanitizerPrompt(bio, tags)},
		},
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return domain.EnrichedProfile{}, fmt.Errorf("sanitize request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return domain.EnrichedProfile{}, errors.New("sanitize: empty response")
	}

	return parseSanitizerReply(resp.Choices[0].Message.Content)
}

func buildSanitizerPrompt(bio string, tags []string) string {
	quoted, _ := json.Marshal(tags) //nolint:errchkjson // []string always marshals
	var b strings.Builder
	b.WriteString("Remove any PII (phone numbers, emails, addresses) from the bio, clean it, ")
	b.WriteString("and extract implied interest tags.\n\n")
	fmt.Fprintf(&b, "Bio: %q\nCurrent Tags: %s\n\n", bio, quoted)
	b.WriteString(`Respond ONLY in JSON: {"sanitized_bio": "text", "enriched_tags": ["tag"], "pii_found": true}`)
	return b.String()
}

func parseSanitizerReply(content string) (domain.EnrichedProfile, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var reply sanitizerReply
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &reply); err != nil {
		return domain.EnrichedProfile{}, fmt.Errorf("decode sanitizer reply: %w", err)
	}
	if reply.SanitizedBio == nil || reply.EnrichedTags == nil || reply.PIIFound == nil {
		return domain.EnrichedProfile{}, errors.New("sanitizer reply is missing fields")
	}

	return domain.EnrichedProfile{
		SanitizedBio: *reply.SanitizedBio,
		EnrichedTags: reply.EnrichedTags,
		PIIFound:     *reply.PIIFound,
	}, nil
}
