// Package tts provides text-to-speech providers.
//
// OpenAI is the default voice; ElevenLabs can be added behind it with Chain
// so a failing provider falls through to the next one. All providers return
// a complete encoded clip ready to base64 and send to a browser.
//
// Example usage:
//
//	primary, _ := tts.NewOpenAI(tts.WithAPIKey(key))
//	backup, _ := tts.NewElevenLabs(tts.WithAPIKey(elKey), tts.WithVoice(voiceID))
//	voice, _ := tts.NewChain(primary, backup)
//
//	result, err := voice.Synthesize(ctx, "What can I get for you today?")
package tts

import "context"

// Provider converts text to audio.
type Provider interface {
	// Synthesize converts text to a complete audio clip.
	Synthesize(ctx context.Context, text string) (*AudioResult, error)

	// Health checks provider connectivity and credentials.
	Health(ctx context.Context) error

	// Close releases any resources held by the provider.
	Close() error
}

// AudioResult is a complete synthesized clip.
type AudioResult struct {
	Audio  []byte
	Format AudioFormat

	// CharCount is the number of characters synthesized.
	CharCount int

	LatencyMs int64
}

// AudioFormat describes the encoded clip.
type AudioFormat struct {
	Encoding   Encoding
	SampleRate int
}

// MIMEType returns the content type browsers expect for the encoding.
func (f AudioFormat) MIMEType() string {
	switch f.Encoding {
	case EncodingMP3, EncodingMP3_44100:
		return "audio/mpeg"
	case EncodingOpus:
		return "audio/ogg"
	case EncodingWAV:
		return "audio/wav"
	default:
		return "application/octet-stream"
	}
}

// Encoding names an output codec.
type Encoding string

const (
	EncodingMP3       Encoding = "mp3"           // OpenAI response_format
	EncodingOpus      Encoding = "opus"          // OpenAI response_format
	EncodingWAV       Encoding = "wav"           // OpenAI response_format
	EncodingMP3_44100 Encoding = "mp3_44100_128" // ElevenLabs output_format
)

// VoiceSettings tunes ElevenLabs voices. OpenAI ignores them.
type VoiceSettings struct {
	// Stability trades expressiveness (low) for consistency (high), 0.0-1.0.
	Stability float64

	// SimilarityBoost is how closely output tracks the source voice, 0.0-1.0.
	SimilarityBoost float64

	SpeakerBoost bool
}

// DefaultVoiceSettings returns settings suited to short service phrases.
func DefaultVoiceSettings() VoiceSettings {
	return VoiceSettings{
		Stability:       0.5,
		SimilarityBoost: 0.75,
		SpeakerBoost:    true,
	}
}
