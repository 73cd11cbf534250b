package provider

import (
	"context"
	"io"
	"strings"
)

// Provider is a vendor speech synthesis backend
type Provider interface {
	// Name returns the provider name as used in tenant preference lists
	Name() string

	// ListVoices returns the voices this provider offers
	ListVoices(ctx context.Context) ([]Voice, error)

	// Synthesize generates audio from text and returns an audio stream
	Synthesize(ctx context.Context, text string, options SynthesizeOptions) (io.ReadCloser, error)
}

// Voice represents a voice option
type Voice struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Language    string `json:"language"`
	Gender      string `json:"gender,omitempty"`
	Description string `json:"description,omitempty"`
}

// SynthesizeOptions contains options for text synthesis
type SynthesizeOptions struct {
	Voice      string  `json:"voice"`
	Language   string  `json:"language,omitempty"`
	Format     string  `json:"format,omitempty"` // mp3, wav, mulaw
	Model      string  `json:"model,omitempty"`
	Speed      float64 `json:"speed,omitempty"`
	Engine     string  `json:"engine,omitempty"`      // Polly engine
	SampleRate string  `json:"sample_rate,omitempty"` // Hz as string
}

// formatReporter is implemented by providers that cannot produce every format
type formatReporter interface {
	OutputFormat(requested string) string
}

// OutputFormat returns the format p will actually produce when asked for requested
func OutputFormat(p Provider, requested string) string {
	if requested == "" {
		requested = FormatMP3
	}
	if r, ok := p.(formatReporter); ok {
		return r.OutputFormat(requested)
	}
	return requested
}

// Audio formats understood by every provider
const (
	FormatMP3   = "mp3"
	FormatWAV   = "wav"
	FormatMulaw = "mulaw"
)

// Extension returns the file extension used to store audio of the given format
func Extension(format string) string {
	switch strings.ToLower(format) {
	case FormatWAV, "linear16":
		return "wav"
	case "pcm":
		return "pcm"
	case FormatMulaw, "ulaw":
		return "ulaw"
	case "ogg", "ogg_opus":
		return "ogg"
	default:
		return "mp3"
	}
}

// ContentType returns the MIME type for the given format
func ContentType(format string) string {
	switch Extension(format) {
	case "wav":
		return "audio/wav"
	case "ulaw":
		return "audio/basic"
	case "pcm":
		return "audio/L16"
	case "ogg":
		return "audio/ogg"
	default:
		return "audio/mpeg"
	}
}
