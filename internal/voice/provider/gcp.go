package provider

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"github.com/googleapis/gax-go/v2"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// GCPClient is the subset of the Google Cloud TTS client the provider uses
type GCPClient interface {
	ListVoices(ctx context.Context, req *texttospeechpb.ListVoicesRequest, opts ...gax.CallOption) (*texttospeechpb.ListVoicesResponse, error)
	SynthesizeSpeech(ctx context.Context, req *texttospeechpb.SynthesizeSpeechRequest, opts ...gax.CallOption) (*texttospeechpb.SynthesizeSpeechResponse, error)
	Close() error
}

// GCPProvider implements the Provider interface for Google Cloud Text-to-Speech
type GCPProvider struct {
	client   GCPClient
	voice    string
	language string
	callOpts []gax.CallOption
}

// GCPProviderOption is a functional option for configuring GCPProvider
type GCPProviderOption func(*GCPProvider)

// WithGCPVoice sets the default voice
func WithGCPVoice(voice string) GCPProviderOption {
	return func(p *GCPProvider) {
		p.voice = voice
	}
}

// WithGCPLanguage sets the default language code
func WithGCPLanguage(language string) GCPProviderOption {
	return func(p *GCPProvider) {
		p.language = language
	}
}

// WithGCPClient replaces the Google client, mainly for tests
func WithGCPClient(client GCPClient) GCPProviderOption {
	return func(p *GCPProvider) {
		p.client = client
	}
}

// WithGCPCallOptions adds gax call options (retry policy etc.) to every request
func WithGCPCallOptions(opts ...gax.CallOption) GCPProviderOption {
	return func(p *GCPProvider) {
		p.callOpts = append(p.callOpts, opts...)
	}
}

// NewGCPProvider creates a new Google Cloud TTS provider.
// Authentication uses Application Default Credentials unless a client is injected.
func NewGCPProvider(ctx context.Context, opts ...GCPProviderOption) (*GCPProvider, error) {
	p := &GCPProvider{
		voice:    "en-US-Neural2-F",
		language: "en-US",
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.client == nil {
		client, err := texttospeech.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create GCP TTS client: %w", err)
		}
		p.client = client
	}
	return p, nil
}

// Name returns the provider name
func (p *GCPProvider) Name() string {
	return "gcp"
}

// ListVoices returns available voices from Google Cloud TTS
func (p *GCPProvider) ListVoices(ctx context.Context) ([]Voice, error) {
	resp, err := p.client.ListVoices(ctx, &texttospeechpb.ListVoicesRequest{}, p.callOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to list GCP voices: %w", describeGRPCError(err))
	}

	var voices []Voice
	for _, v := range resp.Voices {
		gender := "unknown"
		switch v.SsmlGender {
		case texttospeechpb.SsmlVoiceGender_MALE:
			gender = "male"
		case texttospeechpb.SsmlVoiceGender_FEMALE:
			gender = "female"
		case texttospeechpb.SsmlVoiceGender_NEUTRAL:
			gender = "neutral"
		}
		for _, langCode := range v.LanguageCodes {
			voices = append(voices, Voice{
				ID:          v.Name,
				Name:        v.Name,
				Language:    langCode,
				Gender:      gender,
				Description: fmt.Sprintf("%s voice", detectEngineType(v.Name)),
			})
		}
	}

	log.Debug().Int("count", len(voices)).Msg("Listed GCP TTS voices")
	return voices, nil
}

// Synthesize generates audio from text using Google Cloud TTS
func (p *GCPProvider) Synthesize(ctx context.Context, text string, options SynthesizeOptions) (io.ReadCloser, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	voice := p.voice
	if options.Voice != "" {
		voice = options.Voice
	}
	language := options.Language
	if language == "" {
		language = languageFromVoice(voice, p.language)
	}

	input := &texttospeechpb.SynthesisInput{
		InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
	}
	if isSSML(text) {
		input.InputSource = &texttospeechpb.SynthesisInput_Ssml{Ssml: text}
	}

	encoding, sampleRate := gcpAudioEncoding(options.Format)
	req := &texttospeechpb.SynthesizeSpeechRequest{
		Input: input,
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: language,
			Name:         voice,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding:   encoding,
			SpeakingRate:    clampSpeakingRate(options.Speed),
			SampleRateHertz: sampleRate,
		},
	}

	log.Debug().
		Str("voice", voice).
		Str("language", language).
		Str("encoding", encoding.String()).
		Msg("Making GCP TTS synthesis request")

	resp, err := p.client.SynthesizeSpeech(ctx, req, p.callOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to synthesize speech: %w", describeGRPCError(err))
	}
	if len(resp.AudioContent) == 0 {
		return nil, fmt.Errorf("GCP TTS returned no audio")
	}

	return io.NopCloser(bytes.NewReader(resp.AudioContent)), nil
}

// OutputFormat reports the format actually produced for a requested one
func (p *GCPProvider) OutputFormat(requested string) string {
	switch strings.ToLower(requested) {
	case FormatMulaw, "ulaw":
		return FormatMulaw
	case FormatWAV, "linear16":
		return FormatWAV
	case "ogg", "ogg_opus":
		return "ogg"
	default:
		return FormatMP3
	}
}

// Close closes the GCP client
func (p *GCPProvider) Close() error {
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}

// GCPProviderFromConfig creates a GCPProvider from configuration map
func GCPProviderFromConfig(ctx context.Context, config map[string]interface{}) (*GCPProvider, error) {
	var opts []GCPProviderOption
	if voice, ok := config["voice"].(string); ok && voice != "" {
		opts = append(opts, WithGCPVoice(voice))
	}
	if language, ok := config["language"].(string); ok && language != "" {
		opts = append(opts, WithGCPLanguage(language))
	}
	return NewGCPProvider(ctx, opts...)
}

// describeGRPCError adds the gRPC status code to Google API errors
func describeGRPCError(err error) error {
	st, ok := status.FromError(err)
	if !ok || st.Code() == codes.Unknown {
		return err
	}
	return fmt.Errorf("%s: %s: %w", st.Code(), st.Message(), err)
}

// languageFromVoice extracts the language from a voice name (en-US-Neural2-F -> en-US)
func languageFromVoice(voice, fallback string) string {
	parts := strings.Split(voice, "-")
	if len(parts) >= 2 && len(parts[0]) >= 2 {
		return parts[0] + "-" + parts[1]
	}
	return fallback
}

// detectEngineType determines the engine type from voice name
func detectEngineType(voiceName string) string {
	name := strings.ToLower(voiceName)
	switch {
	case strings.Contains(name, "wavenet"):
		return "WaveNet"
	case strings.Contains(name, "neural2"):
		return "Neural2"
	case strings.Contains(name, "studio"):
		return "Studio"
	case strings.Contains(name, "chirp"):
		return "Chirp"
	default:
		return "Standard"
	}
}

// gcpAudioEncoding converts a format to a GCP encoding and sample rate (0 = default)
func gcpAudioEncoding(format string) (texttospeechpb.AudioEncoding, int32) {
	switch strings.ToLower(format) {
	case FormatMulaw, "ulaw":
		return texttospeechpb.AudioEncoding_MULAW, 8000
	case FormatWAV, "linear16":
		return texttospeechpb.AudioEncoding_LINEAR16, 0
	case "ogg", "ogg_opus":
		return texttospeechpb.AudioEncoding_OGG_OPUS, 0
	default:
		return texttospeechpb.AudioEncoding_MP3, 0
	}
}

// clampSpeakingRate converts speed to GCP speaking rate (0.25 to 4.0)
func clampSpeakingRate(speed float64) float64 {
	switch {
	case speed <= 0:
		return 1.0
	case speed < 0.25:
		return 0.25
	case speed > 4.0:
		return 4.0
	default:
		return speed
	}
}
