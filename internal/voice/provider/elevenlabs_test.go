package provider

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewElevenLabsProvider(t *testing.T) {
	provider := NewElevenLabsProvider("test-api-key")

	assert.Equal(t, "test-api-key", provider.apiKey)
	assert.Equal(t, ElevenLabsBaseURL, provider.baseURL)
	assert.NotNil(t, provider.httpClient)
	assert.Equal(t, "elevenlabs", provider.Name())
}

func TestElevenLabsProvider_ListVoices(t *testing.T) {
	t.Run("successful voice listing", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/voices", r.URL.Path)
			assert.Equal(t, "test-api-key", r.Header.Get("xi-api-key"))

			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{
				"voices": [
					{"voice_id": "v1", "name": "Sarah", "labels": {"gender": "female", "language": "en"}},
					{"voice_id": "v2", "name": "Hidden", "available_for_tts": false}
				]
			}`))
		}))
		defer server.Close()

		provider := NewElevenLabsProvider("test-api-key")
		provider.baseURL = server.URL

		voices, err := provider.ListVoices(context.Background())

		require.NoError(t, err)
		require.Len(t, voices, 1)
		assert.Equal(t, "v1", voices[0].ID)
		assert.Equal(t, "female", voices[0].Gender)
		assert.Equal(t, "en", voices[0].Language)
	})

	t.Run("handles API error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"detail": {"status": "invalid_api_key"}}`))
		}))
		defer server.Close()

		provider := NewElevenLabsProvider("test-api-key")
		provider.baseURL = server.URL

		_, err := provider.ListVoices(context.Background())
		assert.Error(t, err)
	})
}

func TestElevenLabsProvider_Synthesize(t *testing.T) {
	t.Run("returns error for empty text", func(t *testing.T) {
		provider := NewElevenLabsProvider("test-api-key")
		_, err := provider.Synthesize(context.Background(), "", SynthesizeOptions{})
		assert.Error(t, err)
	})

	t.Run("sends voice, model and telephony format", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/text-to-speech/ErXwobaYiN019PkySvjV", r.URL.Path)
			assert.Equal(t, "ulaw_8000", r.URL.Query().Get("output_format"))

			var body elevenLabsTTSRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "Hola", body.Text)
			assert.Equal(t, ElevenLabsDefaultModel, body.ModelID)
			assert.Equal(t, 0.5, body.VoiceSettings.Stability)

			w.WriteHeader(http.StatusOK)
			w.Write([]byte("audio-bytes"))
		}))
		defer server.Close()

		provider := NewElevenLabsProvider("test-api-key")
		provider.baseURL = server.URL

		stream, err := provider.Synthesize(context.Background(), "Hola", SynthesizeOptions{
			Voice:  "ErXwobaYiN019PkySvjV",
			Format: FormatMulaw,
		})
		require.NoError(t, err)
		defer stream.Close()

		data, err := io.ReadAll(stream)
		require.NoError(t, err)
		assert.Equal(t, "audio-bytes", string(data))
	})

	t.Run("uses default voice", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/text-to-speech/"+ElevenLabsDefaultVoice, r.URL.Path)
			assert.Equal(t, "mp3_44100_128", r.URL.Query().Get("output_format"))
			w.Write([]byte("x"))
		}))
		defer server.Close()

		provider := NewElevenLabsProvider("k")
		provider.baseURL = server.URL

		stream, err := provider.Synthesize(context.Background(), "Hi", SynthesizeOptions{})
		require.NoError(t, err)
		stream.Close()
	})

	t.Run("surfaces API error detail", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"detail": {"message": "quota exceeded"}}`))
		}))
		defer server.Close()

		provider := NewElevenLabsProvider("k")
		provider.baseURL = server.URL

		_, err := provider.Synthesize(context.Background(), "Hi", SynthesizeOptions{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "quota exceeded")
		assert.Contains(t, err.Error(), "429")
	})
}

func TestElevenLabsProviderFromConfig(t *testing.T) {
	_, err := ElevenLabsProviderFromConfig(map[string]interface{}{})
	assert.Error(t, err)

	p, err := ElevenLabsProviderFromConfig(map[string]interface{}{
		"api_key":   "k",
		"base_url":  "http://localhost:9999/",
		"stability": 0.9,
	})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9999", p.baseURL)
	assert.Equal(t, 0.9, p.settings.Stability)
}

func TestElevenLabsProvider_OutputFormat(t *testing.T) {
	p := NewElevenLabsProvider("k")
	assert.Equal(t, FormatMulaw, OutputFormat(p, "mulaw"))
	assert.Equal(t, FormatMP3, OutputFormat(p, "wav"))
	assert.Equal(t, FormatMP3, OutputFormat(p, ""))
}

func TestElevenLabsError_String(t *testing.T) {
	assert.Equal(t, "ElevenLabs API Error: bad", ElevenLabsError{Detail: "bad"}.String())
	assert.Equal(t, "ElevenLabs API Error: invalid_api_key",
		ElevenLabsError{Detail: map[string]interface{}{"status": "invalid_api_key"}}.String())
}
