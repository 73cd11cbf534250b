package voice

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
)

// CommandKind is the shape of a playback command
type CommandKind string

const (
	CommandPlay CommandKind = "play"
	CommandSay  CommandKind = "say"
)

// Provenance tells where played audio came from
type Provenance string

const (
	ProvenanceTenantCustom   Provenance = "tenant_custom"
	ProvenanceVendorFallback Provenance = "vendor_fallback"
)

// PlaybackCommand is a single instruction for the call-control layer.
// A play command carries AudioURL; a say command carries Text, Voice and
// Language. Never both.
type PlaybackCommand struct {
	Kind       CommandKind `json:"kind"`
	AudioURL   string      `json:"audio_url,omitempty"`
	Provenance Provenance  `json:"provenance,omitempty"`
	VoiceType  string      `json:"voice_type"`
	Text       string      `json:"text,omitempty"`
	Voice      string      `json:"voice,omitempty"`
	Language   string      `json:"language,omitempty"`
}

// BuildCommand turns a synthesis result into a playback command. When the
// result has no audio the text is spoken by the telephony provider's own
// synthesizer; fallbackText is used if the result carries no text.
func BuildCommand(result *SynthesisResult, cfg VoiceConfig, fallbackText string) PlaybackCommand {
	voiceType := cfg.ResolvedVoiceType()

	if result != nil && result.AudioURL != "" {
		provenance := ProvenanceVendorFallback
		if result.IsCustomVoice {
			provenance = ProvenanceTenantCustom
		}
		return PlaybackCommand{
			Kind:       CommandPlay,
			AudioURL:   result.AudioURL,
			Provenance: provenance,
			VoiceType:  voiceType,
		}
	}

	text := fallbackText
	if result != nil && result.FallbackText != "" {
		text = result.FallbackText
	}
	voice, _ := LocalVoices.Lookup(voiceType)
	return PlaybackCommand{
		Kind:      CommandSay,
		VoiceType: voiceType,
		Text:      text,
		Voice:     voice,
		Language:  cfg.ResolvedLanguage(),
	}
}

type twimlResponse struct {
	XMLName xml.Name   `xml:"Response"`
	Play    *twimlPlay `xml:"Play,omitempty"`
	Say     *twimlSay  `xml:"Say,omitempty"`
}

type twimlPlay struct {
	URL string `xml:",chardata"`
}

type twimlSay struct {
	Voice    string `xml:"voice,attr,omitempty"`
	Language string `xml:"language,attr,omitempty"`
	Text     string `xml:",chardata"`
}

// RenderTwiML renders the command as a Twilio voice response document
func RenderTwiML(cmd PlaybackCommand) ([]byte, error) {
	var doc twimlResponse
	switch cmd.Kind {
	case CommandPlay:
		doc.Play = &twimlPlay{URL: cmd.AudioURL}
	case CommandSay:
		doc.Say = &twimlSay{Voice: cmd.Voice, Language: cmd.Language, Text: cmd.Text}
	default:
		return nil, fmt.Errorf("unknown command kind: %q", cmd.Kind)
	}

	out, err := xml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to render TwiML: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}

// TelnyxAction is a Telnyx call-control command
type TelnyxAction struct {
	Command  string `json:"command"`
	AudioURL string `json:"audio_url,omitempty"`
	Payload  string `json:"payload,omitempty"`
	Voice    string `json:"voice,omitempty"`
	Language string `json:"language,omitempty"`
}

// TelnyxCommand maps the command to a Telnyx call-control action
func TelnyxCommand(cmd PlaybackCommand) (TelnyxAction, error) {
	switch cmd.Kind {
	case CommandPlay:
		return TelnyxAction{Command: "playback_start", AudioURL: cmd.AudioURL}, nil
	case CommandSay:
		return TelnyxAction{
			Command:  "speak",
			Payload:  cmd.Text,
			Voice:    cmd.Voice,
			Language: cmd.Language,
		}, nil
	default:
		return TelnyxAction{}, fmt.Errorf("unknown command kind: %q", cmd.Kind)
	}
}

// Render produces the wire form for the given telephony provider
// ("twilio" or "telnyx")
func Render(cmd PlaybackCommand, telephony string) ([]byte, string, error) {
	switch telephony {
	case "", "twilio":
		out, err := RenderTwiML(cmd)
		return out, "application/xml", err
	case "telnyx":
		action, err := TelnyxCommand(cmd)
		if err != nil {
			return nil, "", err
		}
		out, err := json.Marshal(action)
		if err != nil {
			return nil, "", fmt.Errorf("failed to render telnyx action: %w", err)
		}
		return out, "application/json", nil
	default:
		return nil, "", fmt.Errorf("unsupported telephony provider: %s", telephony)
	}
}
