package voice

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildCommand(t *testing.T) {
	cfg := VoiceConfig{TenantID: "acme", VoiceType: "Spanish", Language: "es-mx"}

	tests := []struct {
		name     string
		result   *SynthesisResult
		fallback string
		expected PlaybackCommand
	}{
		{
			name:   "custom voice audio",
			result: &SynthesisResult{AudioURL: "https://voice.acme.test/a.mp3", IsCustomVoice: true},
			expected: PlaybackCommand{
				Kind:       CommandPlay,
				AudioURL:   "https://voice.acme.test/a.mp3",
				Provenance: ProvenanceTenantCustom,
				VoiceType:  "spanish",
			},
		},
		{
			name:   "vendor audio",
			result: &SynthesisResult{AudioURL: "http://localhost/audio/acme/b.mp3", VendorSucceeded: true},
			expected: PlaybackCommand{
				Kind:       CommandPlay,
				AudioURL:   "http://localhost/audio/acme/b.mp3",
				Provenance: ProvenanceVendorFallback,
				VoiceType:  "spanish",
			},
		},
		{
			name:     "fallback text from result",
			result:   &SynthesisResult{FallbackText: "Hola"},
			fallback: "ignored",
			expected: PlaybackCommand{
				Kind:      CommandSay,
				VoiceType: "spanish",
				Text:      "Hola",
				Voice:     "Polly.Lupe",
				Language:  "es-MX",
			},
		},
		{
			name:     "error result uses caller text",
			result:   &SynthesisResult{Error: "text cannot be empty"},
			fallback: "Un momento",
			expected: PlaybackCommand{
				Kind:      CommandSay,
				VoiceType: "spanish",
				Text:      "Un momento",
				Voice:     "Polly.Lupe",
				Language:  "es-MX",
			},
		},
		{
			name:     "nil result",
			fallback: "Un momento",
			expected: PlaybackCommand{
				Kind:      CommandSay,
				VoiceType: "spanish",
				Text:      "Un momento",
				Voice:     "Polly.Lupe",
				Language:  "es-MX",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := BuildCommand(tt.result, cfg, tt.fallback)
			assert.Equal(t, tt.expected, cmd)

			hasAudio := cmd.AudioURL != ""
			hasText := cmd.Text != ""
			assert.True(t, hasAudio != hasText, "exactly one of audio and text must be set")
		})
	}
}

func TestBuildCommand_UnmappedVoiceType(t *testing.T) {
	cmd := BuildCommand(&SynthesisResult{FallbackText: "Hi"}, VoiceConfig{TenantID: "acme", VoiceType: "robot"}, "")

	assert.Equal(t, CommandSay, cmd.Kind)
	assert.Equal(t, "robot", cmd.VoiceType)
	assert.Equal(t, "Polly.Joanna", cmd.Voice)
	assert.Equal(t, DefaultLanguage, cmd.Language)
}

func TestRenderTwiML(t *testing.T) {
	play, err := RenderTwiML(PlaybackCommand{Kind: CommandPlay, AudioURL: "https://cdn.example.com/a.mp3?x=1&y=2"})
	require.NoError(t, err)
	assert.Equal(t, `<?xml version="1.0" encoding="UTF-8"?>`+"\n"+
		`<Response><Play>https://cdn.example.com/a.mp3?x=1&amp;y=2</Play></Response>`, string(play))

	say, err := RenderTwiML(PlaybackCommand{Kind: CommandSay, Text: "Tom & Jerry <3", Voice: "Polly.Joanna", Language: "en-US"})
	require.NoError(t, err)
	assert.Equal(t, `<?xml version="1.0" encoding="UTF-8"?>`+"\n"+
		`<Response><Say voice="Polly.Joanna" language="en-US">Tom &amp; Jerry &lt;3</Say></Response>`, string(say))

	_, err = RenderTwiML(PlaybackCommand{Kind: "dance"})
	assert.Error(t, err)
}

func TestTelnyxCommand(t *testing.T) {
	action, err := TelnyxCommand(PlaybackCommand{Kind: CommandPlay, AudioURL: "https://cdn.example.com/a.mp3"})
	require.NoError(t, err)
	assert.Equal(t, TelnyxAction{Command: "playback_start", AudioURL: "https://cdn.example.com/a.mp3"}, action)

	action, err = TelnyxCommand(PlaybackCommand{Kind: CommandSay, Text: "Hi", Voice: "Polly.Kendra", Language: "en-US"})
	require.NoError(t, err)
	assert.Equal(t, TelnyxAction{Command: "speak", Payload: "Hi", Voice: "Polly.Kendra", Language: "en-US"}, action)

	_, err = TelnyxCommand(PlaybackCommand{})
	assert.Error(t, err)
}

func TestRender(t *testing.T) {
	cmd := PlaybackCommand{Kind: CommandSay, Text: "Hi", Voice: "Polly.Joanna", Language: "en-US"}

	out, contentType, err := Render(cmd, "")
	require.NoError(t, err)
	assert.Equal(t, "application/xml", contentType)
	assert.Contains(t, string(out), "<Say")

	out, contentType, err = Render(cmd, "telnyx")
	require.NoError(t, err)
	assert.Equal(t, "application/json", contentType)
	var action TelnyxAction
	require.NoError(t, json.Unmarshal(out, &action))
	assert.Equal(t, "speak", action.Command)

	_, _, err = Render(cmd, "plivo")
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		override VoiceConfig
		persona  string
		defaults *Defaults
		expected VoiceConfig
	}{
		{
			name:     "built-in defaults",
			expected: VoiceConfig{TenantID: "acme", VoiceType: DefaultVoiceType, Language: DefaultLanguage},
		},
		{
			name:     "tenant defaults",
			defaults: &Defaults{VoiceType: "Support", Language: "es-us"},
			expected: VoiceConfig{TenantID: "acme", VoiceType: "support", Language: "es-US"},
		},
		{
			name:     "persona over tenant defaults",
			persona:  "sales",
			defaults: &Defaults{VoiceType: "support", Language: "en-GB"},
			expected: VoiceConfig{TenantID: "acme", VoiceType: "sales", Language: "en-GB"},
		},
		{
			name:     "override wins",
			override: VoiceConfig{VoiceType: "spanish", Language: "es-MX"},
			persona:  "sales",
			defaults: &Defaults{VoiceType: "support"},
			expected: VoiceConfig{TenantID: "acme", VoiceType: "spanish", Language: "es-MX"},
		},
		{
			name:     "invalid language falls back",
			override: VoiceConfig{Language: "not a tag!"},
			expected: VoiceConfig{TenantID: "acme", VoiceType: DefaultVoiceType, Language: DefaultLanguage},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Resolve("acme", tt.override, tt.persona, tt.defaults))
		})
	}
}

func TestCanonicalLanguage(t *testing.T) {
	assert.Equal(t, "en-US", CanonicalLanguage(""))
	assert.Equal(t, "es-MX", CanonicalLanguage("es-mx"))
	assert.Equal(t, "fr", CanonicalLanguage(" fr "))
	assert.Equal(t, "en-US", CanonicalLanguage("???"))
}

func TestSynthesisResult_Outcome(t *testing.T) {
	assert.Equal(t, OutcomeError, (*SynthesisResult)(nil).Outcome())
	assert.Equal(t, OutcomeError, (&SynthesisResult{Error: "x", AudioURL: "y"}).Outcome())
	assert.Equal(t, OutcomeAudio, (&SynthesisResult{AudioURL: "y"}).Outcome())
	assert.Equal(t, OutcomeFallbackText, (&SynthesisResult{FallbackText: "z"}).Outcome())
	assert.True(t, (&SynthesisResult{AudioURL: "y"}).HasAudio())
}
