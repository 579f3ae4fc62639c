// Package openai is a thin client for the OpenAI-compatible endpoints the
// recommender uses: image generation and audio transcription.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"

	defaultImageModel         = "dall-e-3"
	defaultImageSize          = "1024x1024"
	defaultTranscriptionModel = "whisper-1"
)

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func NewClient(baseURL, apiKey string, options ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			// Image generation is the slowest call in the system.
			Timeout: 120 * time.Second,
		},
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

type imageRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
	Size   string `json:"size"`
}

type imageResponse struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
}

// GenerateImage asks the image model for an artistic book cover built from
// the title and an already-sanitized summary prompt, and returns its URL.
func (c *Client) GenerateImage(ctx context.Context, title, prompt string) (string, error) {
	fullPrompt := fmt.Sprintf(
		"Generate a suggestive, artistic book cover or scene for the book titled '%s', based on this summary:\n\n%s\n\nThe image should capture the theme, atmosphere, and style of the story.",
		title, prompt)

	reqBody := imageRequest{
		Model:  defaultImageModel,
		Prompt: fullPrompt,
		N:      1,
		Size:   defaultImageSize,
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal image request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/images/generations", bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create image request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("image request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("image api error (status %d): %s", resp.StatusCode, string(body))
	}

	var imageResp imageResponse
	if err := json.Unmarshal(body, &imageResp); err != nil {
		return "", fmt.Errorf("failed to parse image response: %w", err)
	}
	if len(imageResp.Data) == 0 || imageResp.Data[0].URL == "" {
		return "", fmt.Errorf("no image returned")
	}
	return imageResp.Data[0].URL, nil
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

// Transcribe sends an audio stream to the speech-to-text model and returns
// the recognized text. language is an ISO 639-1 code such as "en" or "ro".
func (c *Client) Transcribe(ctx context.Context, audio io.Reader, filename, language string) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, audio); err != nil {
		return "", fmt.Errorf("failed to copy audio: %w", err)
	}
	if err := writer.WriteField("model", defaultTranscriptionModel); err != nil {
		return "", fmt.Errorf("failed to write model field: %w", err)
	}
	if language != "" {
		if err := writer.WriteField("language", language); err != nil {
			return "", fmt.Errorf("failed to write language field: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/transcriptions", &buf)
	if err != nil {
		return "", fmt.Errorf("failed to create transcription request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcription request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("transcription api error (status %d): %s", resp.StatusCode, string(body))
	}

	var transcription transcriptionResponse
	if err := json.Unmarshal(body, &transcription); err != nil {
		return "", fmt.Errorf("failed to parse transcription response: %w", err)
	}
	return transcription.Text, nil
}
