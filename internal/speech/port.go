package speech

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Vovarama1992/speechflow/internal/audio"
)

// VendorKind names the upstream speech provider a deployment talks to.
type VendorKind string

const (
	VendorNone   VendorKind = ""
	VendorOpenAI VendorKind = "openai"
	VendorGoogle VendorKind = "google"
)

func (k VendorKind) String() string {
	if k == VendorNone {
		return "none"
	}
	return string(k)
}

// Vendor is one upstream speech provider. Each method makes exactly one
// upstream call and must honour ctx cancellation.
type Vendor interface {
	Kind() VendorKind
	Transcribe(ctx context.Context, clip Clip) (string, error)
	// Synthesize returns base64-encoded audio.
	Synthesize(ctx context.Context, req SynthesisRequest) (string, error)
}

// Clip is a validated, decoded transcription input.
type Clip struct {
	Data        []byte
	Format      audio.Format
	Language    string
	Prompt      string
	Temperature float32
}

// AudioPayload is an inbound transcription request as the client sent it.
type AudioPayload struct {
	EncodedData    string
	DeclaredFormat string
	Language       string
	Temperature    float32
	Prompt         string
}

type SynthesisRequest struct {
	Text  string
	Voice string
}

// ErrorKind classifies a failed gateway call.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindInput
	KindConfig
	KindUpstream
	KindCanceled
	KindInternal
)

// statusClientClosedRequest is reported when the caller went away mid-call.
const statusClientClosedRequest = 499

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "ok"
	case KindInput:
		return "input_error"
	case KindConfig:
		return "config_error"
	case KindUpstream:
		return "upstream_error"
	case KindCanceled:
		return "canceled"
	default:
		return "internal_error"
	}
}

type TranscriptionResult struct {
	Text         string
	Success      bool
	ErrorMessage string
	Elapsed      time.Duration
	Kind         ErrorKind
	// UpstreamStatus is the vendor HTTP status when one was received.
	UpstreamStatus int
}

// ElapsedMs is the processing time reported to clients.
func (r TranscriptionResult) ElapsedMs() int64 {
	return r.Elapsed.Milliseconds()
}

func (r TranscriptionResult) HTTPStatus() int {
	return httpStatus(r.Kind, r.UpstreamStatus)
}

type SynthesisResult struct {
	EncodedAudio   string
	Success        bool
	ErrorMessage   string
	Kind           ErrorKind
	UpstreamStatus int
}

func (r SynthesisResult) HTTPStatus() int {
	return httpStatus(r.Kind, r.UpstreamStatus)
}

func httpStatus(kind ErrorKind, upstream int) int {
	switch kind {
	case KindNone:
		return http.StatusOK
	case KindInput:
		return http.StatusBadRequest
	case KindUpstream:
		if upstream == http.StatusTooManyRequests || upstream >= 500 {
			return upstream
		}
		return http.StatusBadGateway
	case KindCanceled:
		return statusClientClosedRequest
	default:
		return http.StatusInternalServerError
	}
}

var (
	ErrAudioRequired = errors.New("audio data is required")
	ErrTextRequired  = errors.New("text is required")
	ErrNotConfigured = errors.New("speech service not configured")
	ErrUnavailable   = errors.New("speech service temporarily unavailable")
	ErrCanceled      = errors.New("request canceled")
)

// UpstreamError is a non-2xx answer from a vendor.
type UpstreamError struct {
	Vendor  VendorKind
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: HTTP %d", e.Vendor, e.Status)
	}
	return e.Message
}
