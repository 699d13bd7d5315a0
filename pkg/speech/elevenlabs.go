package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// elevenLabsEngine renders Arabic speech with a fixed voice configuration.
// Rate and pitch are constants of the deployment, not user-adjustable.
type elevenLabsEngine struct {
	apiKey  string
	voiceID string
	client  *http.Client
}

func NewElevenLabsEngine() Engine {
	return &elevenLabsEngine{
		apiKey:  os.Getenv("ELEVENLABS_API_KEY"),
		voiceID: os.Getenv("ELEVENLABS_VOICE_ID"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (e *elevenLabsEngine) Synthesize(ctx context.Context, text string) ([]byte, error) {
	url := "https://api.elevenlabs.io/v1/text-to-speech/" + e.voiceID

	requestBody := map[string]interface{}{
		"text":     text,
		"model_id": "eleven_multilingual_v2",
		"voice_settings": map[string]interface{}{
			"stability":         0.5,
			"similarity_boost":  0.8,
			"style":             0.0,
			"use_speaker_boost": true,
		},
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("Accept", "audio/mpeg")
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("xi-api-key", e.apiKey)

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ElevenLabs API error: %s - %s", resp.Status, string(bodyBytes))
	}

	return io.ReadAll(resp.Body)
}
