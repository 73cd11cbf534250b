package provider

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	"github.com/aws/aws-sdk-go-v2/service/polly/types"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// PollyClient interface defines the methods we need from the Polly client
type PollyClient interface {
	DescribeVoices(ctx context.Context, params *polly.DescribeVoicesInput, optFns ...func(*polly.Options)) (*polly.DescribeVoicesOutput, error)
	SynthesizeSpeech(ctx context.Context, params *polly.SynthesizeSpeechInput, optFns ...func(*polly.Options)) (*polly.SynthesizeSpeechOutput, error)
}

// PollyProvider implements the Provider interface for Amazon Polly
type PollyProvider struct {
	client PollyClient
	region string
	engine types.Engine
}

// NewPollyProvider creates a new Amazon Polly TTS provider using the default AWS credential chain
func NewPollyProvider(ctx context.Context, region string) (*PollyProvider, error) {
	if region == "" {
		region = "us-east-1"
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return NewPollyProviderWithClient(polly.NewFromConfig(cfg), region), nil
}

// NewPollyProviderWithClient wraps an existing Polly client
func NewPollyProviderWithClient(client PollyClient, region string) *PollyProvider {
	return &PollyProvider{
		client: client,
		region: region,
		engine: types.EngineNeural,
	}
}

// Name returns the provider name
func (p *PollyProvider) Name() string {
	return "polly"
}

// ListVoices returns available Amazon Polly voices
func (p *PollyProvider) ListVoices(ctx context.Context) ([]Voice, error) {
	result, err := p.client.DescribeVoices(ctx, &polly.DescribeVoicesInput{})
	if err != nil {
		return nil, fmt.Errorf("failed to list Polly voices: %w", err)
	}

	title := cases.Title(language.English)
	voices := make([]Voice, 0, len(result.Voices))
	for _, v := range result.Voices {
		voice := Voice{
			ID:       string(v.Id),
			Name:     aws.ToString(v.Name),
			Language: string(v.LanguageCode),
			Description: fmt.Sprintf("%s voice, %s engine supported",
				title.String(string(v.Gender)),
				formatSupportedEngines(v.SupportedEngines)),
		}
		switch v.Gender {
		case types.GenderFemale:
			voice.Gender = "female"
		case types.GenderMale:
			voice.Gender = "male"
		}
		voices = append(voices, voice)
	}

	return voices, nil
}

// Synthesize generates audio from text using Amazon Polly
func (p *PollyProvider) Synthesize(ctx context.Context, text string, options SynthesizeOptions) (io.ReadCloser, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	voiceID := options.Voice
	if voiceID == "" {
		voiceID = "Joanna"
	}

	input := &polly.SynthesizeSpeechInput{
		Text:     aws.String(text),
		VoiceId:  types.VoiceId(voiceID),
		Engine:   p.engineFor(options.Engine),
		TextType: types.TextTypeText,
	}
	if isSSML(text) {
		input.TextType = types.TextTypeSsml
	}
	if options.Language != "" {
		input.LanguageCode = types.LanguageCode(options.Language)
	}

	switch strings.ToLower(options.Format) {
	case FormatMulaw, "ulaw", FormatWAV, "pcm":
		// Polly has no mu-law or wav container; 8kHz PCM is the telephony option
		input.OutputFormat = types.OutputFormatPcm
		input.SampleRate = aws.String("8000")
	case "", FormatMP3:
		input.OutputFormat = types.OutputFormatMp3
		input.SampleRate = aws.String("22050")
	case "ogg":
		input.OutputFormat = types.OutputFormatOggVorbis
	default:
		return nil, fmt.Errorf("unsupported audio format: %s", options.Format)
	}
	switch options.SampleRate {
	case "":
	case "8000", "16000", "22050", "24000":
		input.SampleRate = aws.String(options.SampleRate)
	default:
		log.Warn().Str("sample_rate", options.SampleRate).Msg("Invalid sample rate, using default")
	}

	log.Debug().
		Str("voice_id", voiceID).
		Str("output_format", string(input.OutputFormat)).
		Str("engine", string(input.Engine)).
		Msg("Making Polly synthesis request")

	result, err := p.client.SynthesizeSpeech(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to synthesize speech: %w", err)
	}

	return result.AudioStream, nil
}

// OutputFormat reports the format actually produced for a requested one
func (p *PollyProvider) OutputFormat(requested string) string {
	switch strings.ToLower(requested) {
	case FormatMulaw, "ulaw", FormatWAV, "pcm":
		return "pcm"
	case "ogg":
		return "ogg"
	default:
		return FormatMP3
	}
}

func (p *PollyProvider) engineFor(name string) types.Engine {
	switch strings.ToLower(name) {
	case "":
		return p.engine
	case "standard":
		return types.EngineStandard
	case "neural":
		return types.EngineNeural
	case "long-form":
		return types.EngineLongForm
	case "generative":
		return types.EngineGenerative
	default:
		log.Warn().Str("engine", name).Msg("Unknown Polly engine, using default")
		return p.engine
	}
}

// PollyProviderFromConfig creates a Polly provider from configuration
func PollyProviderFromConfig(ctx context.Context, config map[string]interface{}) (*PollyProvider, error) {
	region, _ := config["region"].(string)
	p, err := NewPollyProvider(ctx, region)
	if err != nil {
		return nil, err
	}
	if engine, ok := config["engine"].(string); ok && engine != "" {
		p.engine = p.engineFor(engine)
	}
	return p, nil
}

// formatSupportedEngines formats the list of supported engines for display
func formatSupportedEngines(engines []types.Engine) string {
	if len(engines) == 0 {
		return "unknown"
	}

	engineNames := make([]string, len(engines))
	for i, engine := range engines {
		engineNames[i] = string(engine)
	}
	return strings.Join(engineNames, ", ")
}

// isSSML checks if the text contains SSML tags
func isSSML(text string) bool {
	trimmed := strings.TrimSpace(text)
	return strings.HasPrefix(trimmed, "<speak") ||
		strings.Contains(trimmed, "<prosody") ||
		strings.Contains(trimmed, "<break")
}
