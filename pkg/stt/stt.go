// Package stt provides speech-to-text providers.
//
// Providers take one complete recorded clip and return its transcript.
// Failures are reported as *APIError, *ProviderError or ErrEmptyTranscript;
// callers that only care whether usable text came back can treat them alike.
//
// Example usage:
//
//	provider, _ := stt.NewOpenAI(
//	    stt.WithAPIKey(os.Getenv("OPENAI_API_KEY")),
//	)
//	defer provider.Close()
//
//	tr, err := provider.Transcribe(ctx, clip, stt.WithLanguageHint("es"))
package stt

import "context"

// Provider transcribes recorded audio.
type Provider interface {
	// Transcribe converts one audio clip to text.
	Transcribe(ctx context.Context, audio []byte, opts ...RequestOption) (*Transcript, error)

	// Close releases any resources held by the provider.
	Close() error
}

// Transcript is the result of one transcription.
type Transcript struct {
	Text string

	// Language is the language code the provider reports, if any.
	Language string

	// Bytes is the size of the submitted clip.
	Bytes int

	LatencyMs int64
}

// Request holds per-call settings.
type Request struct {
	// Language is an ISO-639-1 hint such as "en" or "es". Empty lets the provider detect it.
	Language string

	// Filename is sent with the upload so the provider can infer the container.
	Filename string

	// Prompt biases recognition toward expected vocabulary.
	Prompt string
}

// RequestOption customizes a single Transcribe call.
type RequestOption func(*Request)

// WithLanguageHint sets the expected spoken language.
func WithLanguageHint(code string) RequestOption {
	return func(r *Request) {
		r.Language = code
	}
}

// WithFilename overrides the upload file name (default "audio.webm").
func WithFilename(name string) RequestOption {
	return func(r *Request) {
		r.Filename = name
	}
}

// WithPrompt sets a vocabulary prompt.
func WithPrompt(prompt string) RequestOption {
	return func(r *Request) {
		r.Prompt = prompt
	}
}

// NewRequest applies opts over the defaults.
func NewRequest(opts ...RequestOption) Request {
	r := Request{Filename: DefaultFilename}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// DefaultFilename is the upload name used when none is given. Browsers record webm/opus.
const DefaultFilename = "audio.webm"
