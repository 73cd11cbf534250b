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
	ElevenLabsBaseURL        = "https://api.elevenlabs.io/v1"
	ElevenLabsTTSEndpoint    = "/text-to-speech"
	ElevenLabsVoicesEndpoint = "/voices"

	// ElevenLabsDefaultVoice is Sarah, the platform's primary voice
	ElevenLabsDefaultVoice = "EXAVITQu4vr4xnSDxMaL"
	ElevenLabsDefaultModel = "eleven_multilingual_v2"
)

// ElevenLabsProvider implements the Provider interface for ElevenLabs TTS API v1
type ElevenLabsProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	settings   VoiceSettings
}

// VoiceSettings are the ElevenLabs per-request voice settings
type VoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style,omitempty"`
	UseSpeakerBoost bool    `json:"use_speaker_boost,omitempty"`
}

// NewElevenLabsProvider creates a new ElevenLabs TTS provider
func NewElevenLabsProvider(apiKey string) *ElevenLabsProvider {
	return &ElevenLabsProvider{
		apiKey:  apiKey,
		baseURL: ElevenLabsBaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		settings: VoiceSettings{
			Stability:       0.5,
			SimilarityBoost: 0.75,
			UseSpeakerBoost: true,
		},
	}
}

// Name returns the provider name
func (p *ElevenLabsProvider) Name() string {
	return "elevenlabs"
}

type elevenLabsVoice struct {
	VoiceID         string            `json:"voice_id"`
	Name            string            `json:"name"`
	Category        string            `json:"category"`
	Labels          map[string]string `json:"labels"`
	Description     string            `json:"description"`
	AvailableForTts *bool             `json:"available_for_tts,omitempty"`
}

type elevenLabsVoicesResponse struct {
	Voices []elevenLabsVoice `json:"voices"`
}

// ListVoices returns available ElevenLabs voices
func (p *ElevenLabsProvider) ListVoices(ctx context.Context) ([]Voice, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+ElevenLabsVoicesEndpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create voices request: %w", err)
	}
	req.Header.Set("xi-api-key", p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make voices request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ElevenLabs voices API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var voicesResp elevenLabsVoicesResponse
	if err := json.NewDecoder(resp.Body).Decode(&voicesResp); err != nil {
		return nil, fmt.Errorf("failed to decode voices response: %w", err)
	}

	voices := make([]Voice, 0, len(voicesResp.Voices))
	for _, v := range voicesResp.Voices {
		if v.AvailableForTts != nil && !*v.AvailableForTts {
			continue
		}
		language := v.Labels["language"]
		if language == "" {
			language = "multilingual"
		}
		voices = append(voices, Voice{
			ID:          v.VoiceID,
			Name:        v.Name,
			Language:    language,
			Gender:      v.Labels["gender"],
			Description: v.Description,
		})
	}

	log.Debug().Int("voice_count", len(voices)).Msg("ElevenLabs voices retrieved")
	return voices, nil
}

type elevenLabsTTSRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id,omitempty"`
	VoiceSettings VoiceSettings `json:"voice_settings"`
}

// Synthesize generates audio from text using ElevenLabs TTS API
func (p *ElevenLabsProvider) Synthesize(ctx context.Context, text string, options SynthesizeOptions) (io.ReadCloser, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	voice := options.Voice
	if voice == "" {
		voice = ElevenLabsDefaultVoice
	}
	model := options.Model
	if model == "" {
		model = ElevenLabsDefaultModel
	}
	outputFormat := elevenLabsOutputFormat(options.Format)

	jsonData, err := json.Marshal(elevenLabsTTSRequest{
		Text:          text,
		ModelID:       model,
		VoiceSettings: p.settings,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s%s/%s?output_format=%s", p.baseURL, ElevenLabsTTSEndpoint, voice, outputFormat)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", p.apiKey)

	log.Debug().
		Str("voice", voice).
		Str("model", model).
		Str("format", outputFormat).
		Msg("Making ElevenLabs TTS request")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)

		var errorResp ElevenLabsError
		if json.Unmarshal(body, &errorResp) == nil && errorResp.Detail != nil {
			return nil, fmt.Errorf("%s (status %d)", errorResp.String(), resp.StatusCode)
		}
		return nil, fmt.Errorf("ElevenLabs API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	return resp.Body, nil
}

// ElevenLabsProviderFromConfig creates an ElevenLabs provider from configuration
func ElevenLabsProviderFromConfig(config map[string]interface{}) (*ElevenLabsProvider, error) {
	apiKey, ok := config["api_key"].(string)
	if !ok || apiKey == "" {
		return nil, fmt.Errorf("api_key is required for ElevenLabs provider")
	}

	provider := NewElevenLabsProvider(apiKey)
	if baseURL, ok := config["base_url"].(string); ok && baseURL != "" {
		provider.baseURL = strings.TrimSuffix(baseURL, "/")
	}
	if v, ok := config["stability"].(float64); ok && v > 0 {
		provider.settings.Stability = v
	}
	if v, ok := config["similarity_boost"].(float64); ok && v > 0 {
		provider.settings.SimilarityBoost = v
	}
	return provider, nil
}

// OutputFormat reports the format actually produced for a requested one.
// Only mu-law and mp3 are requested from ElevenLabs.
func (p *ElevenLabsProvider) OutputFormat(requested string) string {
	switch strings.ToLower(requested) {
	case FormatMulaw, "ulaw":
		return FormatMulaw
	default:
		return FormatMP3
	}
}

// elevenLabsOutputFormat maps a generic format to an ElevenLabs output_format
func elevenLabsOutputFormat(format string) string {
	if strings.EqualFold(format, FormatMulaw) || strings.EqualFold(format, "ulaw") {
		return "ulaw_8000"
	}
	return "mp3_44100_128"
}

// ElevenLabsError represents an error from ElevenLabs API
type ElevenLabsError struct {
	Detail interface{} `json:"detail"`
}

func (e ElevenLabsError) String() string {
	switch detail := e.Detail.(type) {
	case string:
		return fmt.Sprintf("ElevenLabs API Error: %s", detail)
	case map[string]interface{}:
		if msg, ok := detail["message"].(string); ok {
			return fmt.Sprintf("ElevenLabs API Error: %s", msg)
		}
		if status, ok := detail["status"].(string); ok {
			return fmt.Sprintf("ElevenLabs API Error: %s", status)
		}
	}
	return fmt.Sprintf("ElevenLabs API Error: %v", e.Detail)
}
