package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	OpenAIBaseURL     = "https://api.openai.com/v1"
	OpenAITTSEndpoint = "/audio/speech"
)

// OpenAIProvider implements the Provider interface for OpenAI Audio API
type OpenAIProvider struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewOpenAIProvider creates a new OpenAI TTS provider
func NewOpenAIProvider(apiKey string) *OpenAIProvider {
	return &OpenAIProvider{
		apiKey:  apiKey,
		baseURL: OpenAIBaseURL,
		model:   "tts-1",
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// ListVoices returns the built-in OpenAI voices
func (p *OpenAIProvider) ListVoices(ctx context.Context) ([]Voice, error) {
	return []Voice{
		{ID: "alloy", Name: "Alloy", Language: "multilingual", Gender: "neutral"},
		{ID: "echo", Name: "Echo", Language: "multilingual", Gender: "male"},
		{ID: "fable", Name: "Fable", Language: "multilingual", Gender: "neutral"},
		{ID: "onyx", Name: "Onyx", Language: "multilingual", Gender: "male"},
		{ID: "nova", Name: "Nova", Language: "multilingual", Gender: "female"},
		{ID: "shimmer", Name: "Shimmer", Language: "multilingual", Gender: "female"},
	}, nil
}

type openAISpeechRequest struct {
	Model          string  `json:"model"`
	Input          string  `json:"input"`
	Voice          string  `json:"voice"`
	ResponseFormat string  `json:"response_format"`
	Speed          float64 `json:"speed"`
}

// Synthesize generates audio from text using OpenAI Audio API
func (p *OpenAIProvider) Synthesize(ctx context.Context, text string, options SynthesizeOptions) (io.ReadCloser, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	voice := options.Voice
	if voice == "" {
		voice = "alloy"
	}
	model := options.Model
	if model == "" {
		model = p.model
	}
	speed := options.Speed
	if speed <= 0 {
		speed = 1.0
	}
	if speed < 0.25 {
		speed = 0.25
	}
	if speed > 4.0 {
		speed = 4.0
	}

	jsonData, err := json.Marshal(openAISpeechRequest{
		Model:          model,
		Input:          text,
		Voice:          voice,
		ResponseFormat: openAIResponseFormat(options.Format),
		Speed:          speed,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := p.baseURL + OpenAITTSEndpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	log.Debug().
		Str("voice", voice).
		Str("model", model).
		Float64("speed", speed).
		Msg("Making OpenAI TTS request")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)

		var apiErr OpenAIError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("%s (status %d)", apiErr.String(), resp.StatusCode)
		}
		return nil, fmt.Errorf("OpenAI API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	return resp.Body, nil
}

// OpenAIProviderFromConfig creates an OpenAI provider from configuration
func OpenAIProviderFromConfig(config map[string]interface{}) (*OpenAIProvider, error) {
	apiKey, ok := config["api_key"].(string)
	if !ok || apiKey == "" {
		return nil, fmt.Errorf("api_key is required for OpenAI provider")
	}

	provider := NewOpenAIProvider(apiKey)
	if baseURL, ok := config["base_url"].(string); ok && baseURL != "" {
		provider.baseURL = strings.TrimSuffix(baseURL, "/")
	}
	if model, ok := config["model"].(string); ok && model != "" {
		provider.model = model
	}
	return provider, nil
}

// OutputFormat reports the format actually produced for a requested one
func (p *OpenAIProvider) OutputFormat(requested string) string {
	return openAIResponseFormat(requested)
}

// OpenAI has no mu-law output, wav is the closest telephony friendly format
func openAIResponseFormat(format string) string {
	switch strings.ToLower(format) {
	case FormatWAV, FormatMulaw, "ulaw", "pcm":
		return "wav"
	default:
		return "mp3"
	}
}

// OpenAIError represents an error from OpenAI API
type OpenAIError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

func (e OpenAIError) String() string {
	return fmt.Sprintf("OpenAI API Error: %s (type: %s, code: %s)", e.Error.Message, e.Error.Type, e.Error.Code)
}
