package provider

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	"github.com/aws/aws-sdk-go-v2/service/polly/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockPollyClient is a mock implementation of the Polly API client
type MockPollyClient struct {
	mock.Mock
}

func (m *MockPollyClient) DescribeVoices(ctx context.Context, params *polly.DescribeVoicesInput, optFns ...func(*polly.Options)) (*polly.DescribeVoicesOutput, error) {
	args := m.Called(ctx, params)
	result := args.Get(0)
	if result == nil {
		return nil, args.Error(1)
	}
	return result.(*polly.DescribeVoicesOutput), args.Error(1)
}

func (m *MockPollyClient) SynthesizeSpeech(ctx context.Context, params *polly.SynthesizeSpeechInput, optFns ...func(*polly.Options)) (*polly.SynthesizeSpeechOutput, error) {
	args := m.Called(ctx, params)
	result := args.Get(0)
	if result == nil {
		return nil, args.Error(1)
	}
	return result.(*polly.SynthesizeSpeechOutput), args.Error(1)
}

func TestPollyProvider_Name(t *testing.T) {
	provider := NewPollyProviderWithClient(&MockPollyClient{}, "us-east-1")
	assert.Equal(t, "polly", provider.Name())
}

func TestPollyProvider_ListVoices(t *testing.T) {
	t.Run("successful voice listing", func(t *testing.T) {
		client := &MockPollyClient{}
		client.On("DescribeVoices", mock.Anything, mock.Anything).Return(&polly.DescribeVoicesOutput{
			Voices: []types.Voice{
				{
					Id:               types.VoiceIdJoanna,
					Name:             aws.String("Joanna"),
					LanguageCode:     types.LanguageCodeEnUs,
					Gender:           types.GenderFemale,
					SupportedEngines: []types.Engine{types.EngineNeural, types.EngineStandard},
				},
				{
					Id:               types.VoiceIdMatthew,
					Name:             aws.String("Matthew"),
					LanguageCode:     types.LanguageCodeEnUs,
					Gender:           types.GenderMale,
					SupportedEngines: []types.Engine{types.EngineNeural},
				},
			},
		}, nil)

		voices, err := NewPollyProviderWithClient(client, "us-east-1").ListVoices(context.Background())

		require.NoError(t, err)
		assert.Equal(t, []Voice{
			{ID: "Joanna", Name: "Joanna", Language: "en-US", Gender: "female", Description: "Female voice, neural, standard engine supported"},
			{ID: "Matthew", Name: "Matthew", Language: "en-US", Gender: "male", Description: "Male voice, neural engine supported"},
		}, voices)
		client.AssertExpectations(t)
	})

	t.Run("API error", func(t *testing.T) {
		client := &MockPollyClient{}
		client.On("DescribeVoices", mock.Anything, mock.Anything).Return(nil, errors.New("access denied"))

		_, err := NewPollyProviderWithClient(client, "us-east-1").ListVoices(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to list Polly voices")
	})
}

func TestPollyProvider_Synthesize(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		options    SynthesizeOptions
		check      func(t *testing.T, in *polly.SynthesizeSpeechInput)
		mockErr    error
		wantErr    string
		skipClient bool
	}{
		{
			name:       "empty text",
			text:       "",
			wantErr:    "text cannot be empty",
			skipClient: true,
		},
		{
			name: "defaults to Joanna mp3 neural",
			text: "Hello",
			check: func(t *testing.T, in *polly.SynthesizeSpeechInput) {
				assert.Equal(t, types.VoiceIdJoanna, in.VoiceId)
				assert.Equal(t, types.OutputFormatMp3, in.OutputFormat)
				assert.Equal(t, types.EngineNeural, in.Engine)
				assert.Equal(t, types.TextTypeText, in.TextType)
			},
		},
		{
			name:    "telephony format uses 8kHz pcm",
			text:    "Hello",
			options: SynthesizeOptions{Voice: "Lupe", Format: FormatMulaw, Language: "es-US"},
			check: func(t *testing.T, in *polly.SynthesizeSpeechInput) {
				assert.Equal(t, types.VoiceId("Lupe"), in.VoiceId)
				assert.Equal(t, types.OutputFormatPcm, in.OutputFormat)
				assert.Equal(t, "8000", aws.ToString(in.SampleRate))
				assert.Equal(t, types.LanguageCode("es-US"), in.LanguageCode)
			},
		},
		{
			name:    "ssml and standard engine",
			text:    "<speak>Hi<break time='1s'/></speak>",
			options: SynthesizeOptions{Engine: "standard"},
			check: func(t *testing.T, in *polly.SynthesizeSpeechInput) {
				assert.Equal(t, types.TextTypeSsml, in.TextType)
				assert.Equal(t, types.EngineStandard, in.Engine)
			},
		},
		{
			name:       "unsupported format",
			text:       "Hello",
			options:    SynthesizeOptions{Format: "flac"},
			wantErr:    "unsupported audio format",
			skipClient: true,
		},
		{
			name:    "API error",
			text:    "Hello",
			mockErr: errors.New("throttled"),
			wantErr: "failed to synthesize speech",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &MockPollyClient{}
			if !tt.skipClient {
				if tt.mockErr != nil {
					client.On("SynthesizeSpeech", mock.Anything, mock.Anything).Return(nil, tt.mockErr)
				} else {
					client.On("SynthesizeSpeech", mock.Anything, mock.Anything).Return(&polly.SynthesizeSpeechOutput{
						AudioStream: io.NopCloser(strings.NewReader("audio")),
						ContentType: aws.String("audio/mpeg"),
					}, nil)
				}
			}

			stream, err := NewPollyProviderWithClient(client, "us-east-1").Synthesize(context.Background(), tt.text, tt.options)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			data, _ := io.ReadAll(stream)
			assert.Equal(t, "audio", string(data))

			in := client.Calls[0].Arguments.Get(1).(*polly.SynthesizeSpeechInput)
			tt.check(t, in)
		})
	}
}

func TestPollyProvider_OutputFormat(t *testing.T) {
	p := NewPollyProviderWithClient(&MockPollyClient{}, "")
	assert.Equal(t, "pcm", OutputFormat(p, FormatMulaw))
	assert.Equal(t, "mp3", OutputFormat(p, ""))
	assert.Equal(t, "pcm", Extension(OutputFormat(p, FormatWAV)))
}

func TestFormatSupportedEngines(t *testing.T) {
	assert.Equal(t, "unknown", formatSupportedEngines(nil))
	assert.Equal(t, "neural, generative", formatSupportedEngines([]types.Engine{types.EngineNeural, types.EngineGenerative}))
}
