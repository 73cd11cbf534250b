package voice

import "strings"

// VoiceTable maps voice types to provider voice identifiers
type VoiceTable struct {
	Default string
	Voices  map[string]string
}

// Lookup returns the identifier for voiceType, or the default and false
// when the type is not mapped
func (t VoiceTable) Lookup(voiceType string) (string, bool) {
	if id, ok := t.Voices[strings.ToLower(strings.TrimSpace(voiceType))]; ok {
		return id, true
	}
	return t.Default, false
}

// Has reports whether voiceType is mapped
func (t VoiceTable) Has(voiceType string) bool {
	_, ok := t.Lookup(voiceType)
	return ok
}

// ElevenLabs voice ids of the platform's named voices
const (
	elevenLabsSarah   = "EXAVITQu4vr4xnSDxMaL"
	elevenLabsMaria   = "ErXwobaYiN019PkySvjV"
	elevenLabsJessica = "cgSgspJ2msm6clMCkdW9"
	elevenLabsMichael = "flq6f7yk4E4fJM5XTYuZ"
	elevenLabsCarlos  = "onwK4e9ZLuTAKqWW03F9"
	elevenLabsDavid   = "pNInz6obpgDQGcFmaJgB"
)

var vendorVoices = map[string]VoiceTable{
	"elevenlabs": {
		Default: elevenLabsSarah,
		Voices: map[string]string{
			"primary": elevenLabsSarah,
			"sales":   elevenLabsJessica,
			"support": elevenLabsSarah,
			"spanish": elevenLabsMaria,
			"custom":  elevenLabsSarah,
			"sarah":   elevenLabsSarah,
			"maria":   elevenLabsMaria,
			"jessica": elevenLabsJessica,
			"michael": elevenLabsMichael,
			"carlos":  elevenLabsCarlos,
			"david":   elevenLabsDavid,
		},
	},
	"polly": {
		Default: "Joanna",
		Voices: map[string]string{
			"primary": "Joanna",
			"sales":   "Kendra",
			"support": "Joanna",
			"spanish": "Lupe",
			"custom":  "Joanna",
			"sarah":   "Joanna",
			"maria":   "Lupe",
			"jessica": "Kendra",
			"michael": "Matthew",
			"carlos":  "Pedro",
			"david":   "Stephen",
		},
	},
	"gcp": {
		Default: "en-US-Neural2-F",
		Voices: map[string]string{
			"primary": "en-US-Neural2-F",
			"sales":   "en-US-Neural2-C",
			"support": "en-US-Neural2-F",
			"spanish": "es-US-Neural2-A",
			"custom":  "en-US-Neural2-F",
			"sarah":   "en-US-Neural2-F",
			"maria":   "es-US-Neural2-A",
			"jessica": "en-US-Neural2-C",
			"michael": "en-US-Neural2-D",
			"carlos":  "es-US-Neural2-B",
			"david":   "en-US-Neural2-J",
		},
	},
	"openai": {
		Default: "nova",
		Voices: map[string]string{
			"primary": "nova",
			"sales":   "shimmer",
			"support": "nova",
			"spanish": "nova",
			"custom":  "nova",
			"sarah":   "nova",
			"maria":   "nova",
			"jessica": "shimmer",
			"michael": "onyx",
			"carlos":  "echo",
			"david":   "onyx",
		},
	},
}

// VendorVoiceTable returns the voice table for a vendor provider. Unknown
// providers get an empty table so their own default voice is used.
func VendorVoiceTable(providerName string) VoiceTable {
	return vendorVoices[providerName]
}

// LocalVoices maps voice types to the voices of the telephony provider's
// built-in speech synthesizer (Twilio <Say> and Telnyx speak both accept them)
var LocalVoices = VoiceTable{
	Default: "Polly.Joanna",
	Voices: map[string]string{
		"primary": "Polly.Joanna",
		"sales":   "Polly.Kendra",
		"support": "Polly.Joanna",
		"spanish": "Polly.Lupe",
		"custom":  "Polly.Joanna",
		"sarah":   "Polly.Joanna",
		"maria":   "Polly.Lupe",
		"jessica": "Polly.Kendra",
		"michael": "Polly.Matthew",
		"carlos":  "Polly.Pedro",
		"david":   "Polly.Stephen",
	},
}
