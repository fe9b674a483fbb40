package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

type OpenAIClient struct {
	client *openai.Client
}

// NewOpenAIClient talks to Whisper and the speech endpoint. baseURL may be
// empty to use the public API.
func NewOpenAIClient(apiKey, baseURL string, httpClient *http.Client) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}
	return &OpenAIClient{
		client: openai.NewClientWithConfig(cfg),
	}
}

func (c *OpenAIClient) Kind() VendorKind { return VendorOpenAI }

// VOICE → TEXT
func (c *OpenAIClient) Transcribe(ctx context.Context, clip Clip) (string, error) {
	resp, err := c.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:       openai.Whisper1,
		FilePath:    "audio." + clip.Format.Extension(),
		Reader:      bytes.NewReader(clip.Data),
		Prompt:      clip.Prompt,
		Temperature: clip.Temperature,
		Language:    clip.Language,
		Format:      openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", openAIError(err)
	}
	return resp.Text, nil
}

// TEXT → VOICE (mp3, base64)
func (c *OpenAIClient) Synthesize(ctx context.Context, req SynthesisRequest) (string, error) {
	resp, err := c.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.TTSModel1,
		Input:          req.Text,
		Voice:          openai.SpeechVoice(req.Voice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return "", openAIError(err)
	}
	defer resp.Close()

	b, err := io.ReadAll(resp)
	if err != nil {
		return "", fmt.Errorf("read openai speech: %w", err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// openAIError unwraps the vendor message; transport errors pass through untouched.
func openAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if msg == "" {
			msg = fmt.Sprintf("HTTP %d", apiErr.HTTPStatusCode)
		}
		return &UpstreamError{Vendor: VendorOpenAI, Status: apiErr.HTTPStatusCode, Message: msg}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &UpstreamError{
			Vendor:  VendorOpenAI,
			Status:  reqErr.HTTPStatusCode,
			Message: fmt.Sprintf("HTTP %d", reqErr.HTTPStatusCode),
		}
	}
	return err
}
