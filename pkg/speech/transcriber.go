package speech

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/sashabaranov/go-openai"
)

// ITranscriber turns a captured utterance into its final transcript. Interim
// results never leave the browser; only the finalized audio reaches us, so a
// successful call here is the one event that triggers dispatch.
type ITranscriber interface {
	Transcribe(ctx context.Context, audioURL string) (string, error)
}

type whisperTranscriber struct {
	client   *openai.Client
	language string
}

func NewWhisperTranscriber() ITranscriber {
	return &whisperTranscriber{
		client:   openai.NewClient(os.Getenv("OPENAI_API_KEY")),
		language: "ar",
	}
}

func (t *whisperTranscriber) Transcribe(ctx context.Context, audioURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, audioURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download audio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to download audio: %s", resp.Status)
	}

	tmpFile, err := os.CreateTemp("", "utterance-*.mp3")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmpFile.Name())
	defer tmpFile.Close()

	if _, err := io.Copy(tmpFile, resp.Body); err != nil {
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}

	transcribeResp, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: tmpFile.Name(),
		Language: t.language,
	})
	if err != nil {
		return "", err
	}

	return transcribeResp.Text, nil
}
