package speech

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	gspeech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/goccy/go-json"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Vovarama1992/speechflow/internal/audio"
)

const defaultGoogleTTSURL = "https://texttospeech.googleapis.com/v1/text:synthesize"

// recognizer is the slice of *gspeech.Client the adapter needs; tests swap it.
type recognizer interface {
	Recognize(ctx context.Context, req *speechpb.RecognizeRequest, opts ...gax.CallOption) (*speechpb.RecognizeResponse, error)
}

type GoogleOptions struct {
	// TTSURL overrides the text:synthesize endpoint.
	TTSURL string
	// SampleRate is sent for Opus containers, which carry no usable header.
	SampleRate int
	HTTPClient *http.Client
}

type GoogleClient struct {
	apiKey     string
	speech     recognizer
	closer     io.Closer
	ttsURL     string
	sampleRate int
	httpCli    *http.Client
}

func NewGoogleClient(ctx context.Context, apiKey string, opts GoogleOptions) (*GoogleClient, error) {
	sc, err := gspeech.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create speech client: %w", err)
	}
	c := newGoogleClient(apiKey, sc, opts)
	c.closer = sc
	return c, nil
}

func newGoogleClient(apiKey string, rec recognizer, opts GoogleOptions) *GoogleClient {
	if opts.TTSURL == "" {
		opts.TTSURL = defaultGoogleTTSURL
	}
	if opts.SampleRate <= 0 {
		opts.SampleRate = 48000
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	return &GoogleClient{
		apiKey:     apiKey,
		speech:     rec,
		ttsURL:     opts.TTSURL,
		sampleRate: opts.SampleRate,
		httpCli:    opts.HTTPClient,
	}
}

func (c *GoogleClient) Kind() VendorKind { return VendorGoogle }

func (c *GoogleClient) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}

func (c *GoogleClient) Transcribe(ctx context.Context, clip Clip) (string, error) {
	cfg := &speechpb.RecognitionConfig{
		Encoding:     googleEncoding(clip.Format),
		LanguageCode: clip.Language,
	}
	if cfg.Encoding == speechpb.RecognitionConfig_WEBM_OPUS || cfg.Encoding == speechpb.RecognitionConfig_OGG_OPUS {
		cfg.SampleRateHertz = int32(c.sampleRate)
	}

	resp, err := c.speech.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: cfg,
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: clip.Data},
		},
	})
	if err != nil {
		return "", googleError(ctx, err)
	}

	// Each result covers a consecutive stretch of audio; take the best alternative of each.
	parts := make([]string, 0, len(resp.GetResults()))
	for _, r := range resp.GetResults() {
		if alts := r.GetAlternatives(); len(alts) > 0 {
			if t := strings.TrimSpace(alts[0].GetTranscript()); t != "" {
				parts = append(parts, t)
			}
		}
	}
	return strings.Join(parts, " "), nil
}

type googleVoice struct {
	LanguageCode string `json:"languageCode"`
	Name         string `json:"name,omitempty"`
}

type googleSynthesizeRequest struct {
	Input struct {
		Text string `json:"text"`
	} `json:"input"`
	Voice       googleVoice `json:"voice"`
	AudioConfig struct {
		AudioEncoding string `json:"audioEncoding"`
	} `json:"audioConfig"`
}

func (c *GoogleClient) Synthesize(ctx context.Context, req SynthesisRequest) (string, error) {
	var body googleSynthesizeRequest
	body.Input.Text = req.Text
	body.Voice = parseGoogleVoice(req.Voice)
	body.AudioConfig.AudioEncoding = "MP3"

	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	endpoint := c.ttsURL + "?key=" + url.QueryEscape(c.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpCli.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read google tts: %w", err)
	}

	if resp.StatusCode >= 300 {
		return "", &UpstreamError{Vendor: VendorGoogle, Status: resp.StatusCode, Message: googleRESTMessage(resp, raw)}
	}

	var parsed struct {
		AudioContent string `json:"audioContent"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", &UpstreamError{Vendor: VendorGoogle, Status: resp.StatusCode, Message: "malformed response"}
	}
	if parsed.AudioContent == "" {
		return "", &UpstreamError{Vendor: VendorGoogle, Status: resp.StatusCode, Message: "empty audio content"}
	}
	return parsed.AudioContent, nil
}

// parseGoogleVoice accepts either a language code ("en-US") or a full voice
// name ("en-US-Wavenet-D"), whose first two segments are the language.
func parseGoogleVoice(v string) googleVoice {
	v = strings.TrimSpace(v)
	segs := strings.Split(v, "-")
	if len(segs) > 2 {
		return googleVoice{LanguageCode: segs[0] + "-" + segs[1], Name: v}
	}
	if v == "" {
		v = "en-US"
	}
	return googleVoice{LanguageCode: v}
}

func googleEncoding(f audio.Format) speechpb.RecognitionConfig_AudioEncoding {
	switch f {
	case audio.FormatWebM:
		return speechpb.RecognitionConfig_WEBM_OPUS
	case audio.FormatOGG:
		return speechpb.RecognitionConfig_OGG_OPUS
	case audio.FormatFLAC:
		return speechpb.RecognitionConfig_FLAC
	case audio.FormatWAV:
		return speechpb.RecognitionConfig_LINEAR16
	default:
		// Let the service read the container header.
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED
	}
}

func googleError(ctx context.Context, err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.Canceled:
		if ctx.Err() != nil {
			return ctx.Err()
		}
	case codes.DeadlineExceeded:
		return context.DeadlineExceeded
	}
	return &UpstreamError{Vendor: VendorGoogle, Status: grpcHTTPStatus(st.Code()), Message: st.Message()}
}

func grpcHTTPStatus(c codes.Code) int {
	switch c {
	case codes.InvalidArgument, codes.FailedPrecondition, codes.OutOfRange:
		return http.StatusBadRequest
	case codes.Unauthenticated:
		return http.StatusUnauthorized
	case codes.PermissionDenied:
		return http.StatusForbidden
	case codes.NotFound:
		return http.StatusNotFound
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func googleRESTMessage(resp *http.Response, raw []byte) string {
	var e struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(raw, &e) == nil && e.Error.Message != "" {
		return e.Error.Message
	}
	return fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
}
