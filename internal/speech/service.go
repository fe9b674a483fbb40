package speech

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/Vovarama1992/speechflow/internal/audio"
	"github.com/Vovarama1992/speechflow/internal/metrics"
)

const (
	opTranscribe = "speech-to-text"
	opSynthesize = "text-to-speech"
)

type Options struct {
	Guard           GuardSettings
	UpstreamTimeout time.Duration
	DefaultLanguage string
	DefaultVoice    string
	// MissingCredential names the env variable(s) to log when no vendor is configured.
	MissingCredential string
}

// Gateway validates client payloads and forwards them to the configured
// vendor. It holds no per-request state; results are always returned as data.
type Gateway struct {
	vendor Vendor
	guard  *guard
	opts   Options
	log    *zap.Logger
}

// NewGateway builds a gateway. A nil vendor yields a gateway that answers
// every well-formed request with a configuration error.
func NewGateway(vendor Vendor, opts Options, log *zap.Logger) *Gateway {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.UpstreamTimeout <= 0 {
		opts.UpstreamTimeout = 60 * time.Second
	}
	if opts.DefaultLanguage == "" {
		opts.DefaultLanguage = "en"
	}
	if opts.MissingCredential == "" {
		opts.MissingCredential = "OPENAI_API_KEY or GOOGLE_CLOUD_API_KEY"
	}

	g := &Gateway{vendor: vendor, opts: opts, log: log}
	if vendor != nil {
		if g.opts.DefaultVoice == "" {
			g.opts.DefaultVoice = defaultVoice(vendor.Kind())
		}
		g.guard = newGuard(vendor.Kind(), opts.Guard, log)
	}
	return g
}

func (g *Gateway) VendorKind() VendorKind {
	if g.vendor == nil {
		return VendorNone
	}
	return g.vendor.Kind()
}

// Transcribe turns a base64 clip into text through exactly one upstream call.
func (g *Gateway) Transcribe(ctx context.Context, p AudioPayload) TranscriptionResult {
	start := time.Now()
	log := g.log.With(zap.String("operation", opTranscribe), zap.String("request_id", RequestID(ctx)))

	fail := func(kind ErrorKind, msg string, status int) TranscriptionResult {
		res := TranscriptionResult{
			ErrorMessage:   msg,
			Elapsed:        time.Since(start),
			Kind:           kind,
			UpstreamStatus: status,
		}
		metrics.ObserveRequest(opTranscribe, g.VendorKind().String(), kind.String())
		return res
	}

	if strings.TrimSpace(p.EncodedData) == "" {
		return fail(KindInput, ErrAudioRequired.Error(), 0)
	}

	size, err := audio.Validate(p.EncodedData)
	if err != nil {
		return fail(KindInput, err.Error(), 0)
	}

	if g.vendor == nil {
		log.Error("speech vendor not configured", zap.String("missing", g.opts.MissingCredential))
		return fail(KindConfig, ErrNotConfigured.Error(), 0)
	}

	format := audio.DetectFormat(p.EncodedData)
	if p.DeclaredFormat != "" {
		if format, err = audio.ParseFormat(p.DeclaredFormat); err != nil {
			return fail(KindInput, err.Error(), 0)
		}
	}

	data, err := audio.Decode(p.EncodedData)
	if err != nil {
		return fail(KindInput, err.Error(), 0)
	}

	language := p.Language
	if language == "" {
		language = g.opts.DefaultLanguage
	}

	clip := Clip{
		Data:        data,
		Format:      format,
		Language:    language,
		Prompt:      p.Prompt,
		Temperature: p.Temperature,
	}

	text, err := g.call(ctx, opTranscribe, func(ctx context.Context) (string, error) {
		return g.vendor.Transcribe(ctx, clip)
	})
	if err != nil {
		kind, msg, status := classify(ctx, err, "Speech recognition failed: ")
		log.Error("transcription failed",
			zap.String("vendor", g.vendor.Kind().String()),
			zap.String("kind", kind.String()),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return fail(kind, msg, status)
	}

	res := TranscriptionResult{
		Text:    text,
		Success: true,
		Elapsed: time.Since(start),
	}
	metrics.ObserveRequest(opTranscribe, g.vendor.Kind().String(), KindNone.String())
	metrics.AudioPayloadBytes.Observe(float64(size))

	log.Info("transcription successful",
		zap.String("vendor", g.vendor.Kind().String()),
		zap.Int("text_length", len(text)),
		zap.Int64("processing_ms", res.ElapsedMs()),
		zap.String("language", language),
		zap.String("format", string(format)),
		zap.String("size", humanize.IBytes(uint64(size))),
	)
	return res
}

// Synthesize turns text into base64 audio through exactly one upstream call.
// Blank text fails before any upstream call is made.
func (g *Gateway) Synthesize(ctx context.Context, req SynthesisRequest) SynthesisResult {
	start := time.Now()
	log := g.log.With(zap.String("operation", opSynthesize), zap.String("request_id", RequestID(ctx)))

	fail := func(kind ErrorKind, msg string, status int) SynthesisResult {
		metrics.ObserveRequest(opSynthesize, g.VendorKind().String(), kind.String())
		return SynthesisResult{ErrorMessage: msg, Kind: kind, UpstreamStatus: status}
	}

	if strings.TrimSpace(req.Text) == "" {
		return fail(KindInput, ErrTextRequired.Error(), 0)
	}

	if g.vendor == nil {
		log.Error("speech vendor not configured", zap.String("missing", g.opts.MissingCredential))
		return fail(KindConfig, ErrNotConfigured.Error(), 0)
	}

	if req.Voice == "" {
		req.Voice = g.opts.DefaultVoice
	}

	encoded, err := g.call(ctx, opSynthesize, func(ctx context.Context) (string, error) {
		return g.vendor.Synthesize(ctx, req)
	})
	if err != nil {
		kind, msg, status := classify(ctx, err, "Text-to-speech failed: ")
		log.Error("synthesis failed",
			zap.String("vendor", g.vendor.Kind().String()),
			zap.String("kind", kind.String()),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return fail(kind, msg, status)
	}

	metrics.ObserveRequest(opSynthesize, g.vendor.Kind().String(), KindNone.String())
	log.Info("synthesis successful",
		zap.String("vendor", g.vendor.Kind().String()),
		zap.Int("text_length", len(req.Text)),
		zap.String("voice", req.Voice),
		zap.Duration("elapsed", time.Since(start)),
	)
	return SynthesisResult{EncodedAudio: encoded, Success: true}
}

func (g *Gateway) call(ctx context.Context, op string, fn func(context.Context) (string, error)) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.opts.UpstreamTimeout)
	defer cancel()

	started := time.Now()
	out, err := g.guard.do(ctx, fn)
	metrics.ObserveUpstream(op, g.vendor.Kind().String(), time.Since(started))
	return out, err
}

// classify maps a vendor/guard error onto the client-facing category.
// parent is the request context, used to tell a departed caller from a timeout.
func classify(parent context.Context, err error, prefix string) (ErrorKind, string, int) {
	var ue *UpstreamError
	switch {
	case parent.Err() != nil && errors.Is(err, context.Canceled):
		return KindCanceled, ErrCanceled.Error(), 0
	case errors.Is(err, ErrUnavailable):
		return KindUpstream, ErrUnavailable.Error(), 503
	case errors.Is(err, context.DeadlineExceeded):
		return KindUpstream, prefix + "upstream timed out", 504
	case errors.As(err, &ue):
		return KindUpstream, prefix + ue.Error(), ue.Status
	default:
		// Transport errors carry URLs and socket details; keep them in the log only.
		return KindUpstream, prefix + "upstream unreachable", 0
	}
}

func defaultVoice(kind VendorKind) string {
	if kind == VendorGoogle {
		return "en-US"
	}
	return "alloy"
}
