package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const chassisPrompt = `You are reading a photo of a vehicle chassis number plate (VIN).
Return ONLY JSON: {"chassisNumber": "<the number>"} when a chassis number is
legible in the image, or {"chassisNumber": ""} when none is present. Keep the
number verbatim, uppercase, no spaces.`

// IGemini extracts a chassis number from an uploaded image. The three
// outcomes stay distinguishable: (value, true, nil) when found,
// ("", false, nil) when the image holds no number, and a non-nil error on
// transport failure.
type IGemini interface {
	ExtractChassisNumber(ctx context.Context, base64Image string) (string, bool, error)
}

type geminiClient struct {
	apiKey    string
	modelName string
	client    *genai.Client
}

func NewGeminiClient() (IGemini, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("gemini API key is required")
	}

	modelName := os.Getenv("GEMINI_MODEL_NAME")
	if modelName == "" {
		modelName = "gemini-pro-vision"
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	return &geminiClient{
		apiKey:    apiKey,
		modelName: modelName,
		client:    client,
	}, nil
}

func (g *geminiClient) ExtractChassisNumber(ctx context.Context, base64Image string) (string, bool, error) {
	imgData, err := base64.StdEncoding.DecodeString(base64Image)
	if err != nil {
		return "", false, errors.New("invalid base64 image data")
	}

	model := g.client.GenerativeModel(g.modelName)

	img := genai.ImageData("image/jpeg", imgData)
	res, err := model.GenerateContent(ctx, genai.Text(chassisPrompt), img)
	if err != nil {
		return "", false, err
	}

	if len(res.Candidates) == 0 || len(res.Candidates[0].Content.Parts) == 0 {
		return "", false, errors.New("no response from Gemini API")
	}

	text, ok := res.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return "", false, errors.New("unexpected response format from Gemini API")
	}

	return parseChassisReply(string(text))
}

func parseChassisReply(reply string) (string, bool, error) {
	reply = strings.TrimSpace(reply)
	reply = strings.TrimPrefix(reply, "```json")
	reply = strings.TrimPrefix(reply, "```")
	reply = strings.TrimSuffix(reply, "```")

	var payload struct {
		ChassisNumber string `json:"chassisNumber"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(reply)), &payload); err != nil {
		return "", false, err
	}

	number := strings.TrimSpace(payload.ChassisNumber)
	if number == "" {
		return "", false, nil
	}

	return number, true, nil
}

func (g *geminiClient) Close() {
	if g.client != nil {
		g.client.Close()
	}
}
