package voice

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

// CustomVoiceTier calls the tenant's own synthesis endpoint
type CustomVoiceTier struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// NewCustomVoiceTier creates a tier posting to endpoint. apiKey is optional.
func NewCustomVoiceTier(endpoint, apiKey string) *CustomVoiceTier {
	return &CustomVoiceTier{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (t *CustomVoiceTier) Name() string {
	return TierCustomVoice
}

type customVoiceRequest struct {
	Text     string `json:"text"`
	VoiceID  string `json:"voice_id"`
	Language string `json:"language"`
}

type customVoiceResponse struct {
	AudioURL string `json:"audio_url"`
}

// Attempt posts the text to the tenant endpoint and expects {"audio_url": "..."}
func (t *CustomVoiceTier) Attempt(ctx context.Context, text string, hint VoiceHint) (AttemptResult, error) {
	res := AttemptResult{Provider: "custom"}

	jsonData, err := json.Marshal(customVoiceRequest{
		Text:     text,
		VoiceID:  hint.VoiceType,
		Language: hint.Language,
	})
	if err != nil {
		return res, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return res, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Tenant-Id", hint.TenantID)
	if t.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.apiKey)
	}

	log.Debug().
		Str("tenant", hint.TenantID).
		Str("voice_type", hint.VoiceType).
		Msg("Making custom voice request")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return res, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return res, fmt.Errorf("custom voice error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var out customVoiceResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return res, fmt.Errorf("failed to decode custom voice response: %w", err)
	}
	if strings.TrimSpace(out.AudioURL) == "" {
		return res, nil
	}

	res.OK = true
	res.AudioLocation = out.AudioURL
	return res, nil
}
