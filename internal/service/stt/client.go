// Package stt is a client for the speech-to-text gateway used as the last
// caption fallback. It produces a plain transcript only; no VTT is synthesized
// from recognition output.
package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client is a client for a Whisper-style transcription server.
type Client struct {
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
}

// Config holds the configuration for the transcription client.
type Config struct {
	BaseURL string        // e.g., "http://stt.internal:9000"
	Model   string        // e.g., "whisper-1"
	APIKey  string        // Optional API key for authentication
	Timeout time.Duration // Request timeout (default: 120 seconds)
}

// NewClient creates a new transcription client.
func NewClient(config Config) *Client {
	if config.Timeout == 0 {
		config.Timeout = 120 * time.Second
	}

	return &Client{
		baseURL: strings.TrimSuffix(config.BaseURL, "/"),
		model:   config.Model,
		apiKey:  config.APIKey,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// transcribeRequest represents a request to the /v1/transcribe endpoint.
type transcribeRequest struct {
	Model    string `json:"model"`
	AudioURL string `json:"audio_url"`
	Language string `json:"language,omitempty"`
}

// transcribeResponse represents a response from the /v1/transcribe endpoint.
type transcribeResponse struct {
	Text     string  `json:"text"`
	Language string  `json:"language"`
	Duration float64 `json:"duration"`
}

// TranscribeURL asks the gateway to fetch the audio at audioURL and
// transcribe it. Returns the plain transcript text.
func (c *Client) TranscribeURL(ctx context.Context, audioURL, language string) (string, error) {
	if audioURL == "" {
		return "", fmt.Errorf("audio URL is required")
	}

	reqPayload := transcribeRequest{
		Model:    c.model,
		AudioURL: audioURL,
		Language: language,
	}

	reqBody, err := json.Marshal(reqPayload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/v1/transcribe", bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request to transcription server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("transcription server returned status %d: %s", resp.StatusCode, string(body))
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response body: %w", err)
	}

	var transcribeResp transcribeResponse
	if err := json.Unmarshal(respBody, &transcribeResp); err != nil {
		return "", fmt.Errorf("parse transcription response: %w", err)
	}

	text := strings.TrimSpace(transcribeResp.Text)
	if text == "" {
		return "", fmt.Errorf("transcription server returned empty text")
	}

	return text, nil
}
