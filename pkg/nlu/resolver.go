package nlu

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sashabaranov/go-openai"
)

const systemPrompt = `You are the command interpreter for an Arabic vehicle showroom assistant.
Convert the user's utterance into minimal structured JSON. Do NOT converse,
do NOT answer the question, output ONLY JSON.

Format:
{
  "intent": "<string>",
  "entities": {"searchTerm": "<string or omit>", "chassisNumber": "<string or omit>"},
  "confidence": <0.0-1.0>,
  "action": "<same tag as intent>",
  "content": "<short Arabic reply, only for unknown intents>"
}

Intents (canonical, snake_case):
- "add_vehicle"     (إضافة سيارة جديدة)
- "search_vehicle"  (البحث عن سيارة — fill entities.searchTerm with the literal term)
- "sell_vehicle"    (بيع سيارة — fill entities.chassisNumber exactly as spoken)
- "delete_vehicle"  (حذف سيارة — fill entities.chassisNumber exactly as spoken)
- "extract_chassis" (استخراج رقم الهيكل من صورة)
- "get_stats"       (إحصائيات المخزون)
- "unknown"         (if not classifiable)

Rules:
- Keep chassis numbers verbatim, preserving case and digits.
- Never invent entities that were not spoken.
- action always mirrors intent.`

type Config struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

func ConfigFromEnv() Config {
	model := os.Getenv("OPENAI_NLU_MODEL")
	if model == "" {
		model = openai.GPT4oMini
	}

	return Config{
		APIKey:  os.Getenv("OPENAI_API_KEY"),
		Model:   model,
		Timeout: 15 * time.Second,
	}
}

type resolver struct {
	client *openai.Client
	config Config
}

func NewResolver(config Config) IResolver {
	return &resolver{
		client: openai.NewClient(config.APIKey),
		config: config,
	}
}

// Resolve performs a single round-trip against the interpretation service.
// There is no retry: any transport or payload failure is terminal for the
// command, and the caller falls back to the fixed apology turn.
func (r *resolver) Resolve(ctx context.Context, commandText string) (*RecognizedCommand, error) {
	ctx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	resp, err := r.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: r.config.Model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: systemPrompt,
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: Normalize(commandText),
				},
			},
			Temperature: 0.2,
			MaxTokens:   200,
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("intent resolution request: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("intent resolution: empty response")
	}

	return ParsePayload([]byte(resp.Choices[0].Message.Content))
}

type wirePayload struct {
	Intent     string            `json:"intent"`
	Entities   map[string]string `json:"entities"`
	Confidence float64           `json:"confidence"`
	Action     string            `json:"action"`
	Data       map[string]string `json:"data"`
	Content    string            `json:"content"`
}

// ParsePayload decodes the service payload into a RecognizedCommand. Action
// and intent stay separate fields even though the service mirrors them.
func ParsePayload(raw []byte) (*RecognizedCommand, error) {
	var payload wirePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("intent resolution: malformed payload: %w", err)
	}

	if payload.Intent == "" {
		return nil, fmt.Errorf("intent resolution: payload missing intent")
	}

	entities := payload.Entities
	if entities == nil {
		entities = map[string]string{}
	}

	return &RecognizedCommand{
		Intent:     payload.Intent,
		Entities:   entities,
		Confidence: payload.Confidence,
		Action:     ParseAction(payload.Action),
		Data:       payload.Data,
		Content:    payload.Content,
	}, nil
}
