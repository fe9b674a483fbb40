package speech

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Vovarama1992/speechflow/internal/audio"
)

type fakeVendor struct {
	kind VendorKind

	mu        sync.Mutex
	lastClip  Clip
	lastSynth SynthesisRequest

	transcribeCalls atomic.Int32
	synthCalls      atomic.Int32

	transcribe func(ctx context.Context, clip Clip) (string, error)
	synthesize func(ctx context.Context, req SynthesisRequest) (string, error)
}

func (f *fakeVendor) Kind() VendorKind {
	if f.kind == VendorNone {
		return VendorOpenAI
	}
	return f.kind
}

func (f *fakeVendor) Transcribe(ctx context.Context, clip Clip) (string, error) {
	f.transcribeCalls.Add(1)
	f.mu.Lock()
	f.lastClip = clip
	f.mu.Unlock()
	if f.transcribe != nil {
		return f.transcribe(ctx, clip)
	}
	return "hello there", nil
}

func (f *fakeVendor) Synthesize(ctx context.Context, req SynthesisRequest) (string, error) {
	f.synthCalls.Add(1)
	f.mu.Lock()
	f.lastSynth = req
	f.mu.Unlock()
	if f.synthesize != nil {
		return f.synthesize(ctx, req)
	}
	return "SUQz", nil
}

func wavPayload() string {
	clip := append([]byte("RIFF"), make([]byte, 96)...)
	return "data:audio/wav;base64," + base64.StdEncoding.EncodeToString(clip)
}

func TestGateway_Transcribe_Success(t *testing.T) {
	v := &fakeVendor{}
	g := NewGateway(v, Options{}, zap.NewNop())

	res := g.Transcribe(context.Background(), AudioPayload{
		EncodedData: wavPayload(),
		Prompt:      "therapy words",
		Temperature: 0.2,
	})

	require.True(t, res.Success, res.ErrorMessage)
	assert.Equal(t, "hello there", res.Text)
	assert.Equal(t, KindNone, res.Kind)
	assert.Equal(t, http.StatusOK, res.HTTPStatus())
	assert.GreaterOrEqual(t, res.ElapsedMs(), int64(0))

	assert.EqualValues(t, 1, v.transcribeCalls.Load())
	assert.Equal(t, audio.FormatWAV, v.lastClip.Format)
	assert.Len(t, v.lastClip.Data, 100)
	assert.Equal(t, "en", v.lastClip.Language)
	assert.Equal(t, "therapy words", v.lastClip.Prompt)
	assert.InDelta(t, 0.2, v.lastClip.Temperature, 1e-6)
}

func TestGateway_Transcribe_EmptyTranscriptIsSuccess(t *testing.T) {
	v := &fakeVendor{transcribe: func(context.Context, Clip) (string, error) { return "", nil }}
	g := NewGateway(v, Options{}, zap.NewNop())

	res := g.Transcribe(context.Background(), AudioPayload{EncodedData: wavPayload()})
	assert.True(t, res.Success)
	assert.Empty(t, res.Text)
}

func TestGateway_Transcribe_DeclaredFormat(t *testing.T) {
	v := &fakeVendor{}
	g := NewGateway(v, Options{DefaultLanguage: "de"}, zap.NewNop())

	res := g.Transcribe(context.Background(), AudioPayload{EncodedData: wavPayload(), DeclaredFormat: "audio/flac", Language: "fr"})
	require.True(t, res.Success)
	assert.Equal(t, audio.FormatFLAC, v.lastClip.Format)
	assert.Equal(t, "fr", v.lastClip.Language)

	res = g.Transcribe(context.Background(), AudioPayload{EncodedData: wavPayload(), DeclaredFormat: "audio/aiff"})
	assert.False(t, res.Success)
	assert.Equal(t, KindInput, res.Kind)
	assert.Equal(t, "unsupported audio format: audio/aiff", res.ErrorMessage)
	assert.EqualValues(t, 1, v.transcribeCalls.Load())
}

func TestGateway_Transcribe_InputErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"missing", "", "audio data is required"},
		{"blank", "   ", "audio data is required"},
		{"one byte", "QQ==", "audio file too small"},
		{"garbage", "%%%%", "invalid base64 format"},
	}

	v := &fakeVendor{}
	g := NewGateway(v, Options{}, zap.NewNop())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := g.Transcribe(context.Background(), AudioPayload{EncodedData: tt.data})
			assert.False(t, res.Success)
			assert.Equal(t, KindInput, res.Kind)
			assert.Equal(t, tt.want, res.ErrorMessage)
			assert.Equal(t, http.StatusBadRequest, res.HTTPStatus())
		})
	}
	assert.EqualValues(t, 0, v.transcribeCalls.Load())
}

func TestGateway_Transcribe_UpstreamFailure(t *testing.T) {
	v := &fakeVendor{transcribe: func(context.Context, Clip) (string, error) {
		return "", &UpstreamError{Vendor: VendorOpenAI, Status: 500, Message: "upstream exploded"}
	}}
	g := NewGateway(v, Options{}, zap.NewNop())

	res := g.Transcribe(context.Background(), AudioPayload{EncodedData: wavPayload()})
	assert.False(t, res.Success)
	assert.Empty(t, res.Text)
	assert.Equal(t, KindUpstream, res.Kind)
	assert.Contains(t, res.ErrorMessage, "upstream exploded")
	assert.Equal(t, "Speech recognition failed: upstream exploded", res.ErrorMessage)
	assert.Equal(t, 500, res.HTTPStatus())
	assert.EqualValues(t, 1, v.transcribeCalls.Load(), "no retries")
}

func TestGateway_UpstreamStatusMapping(t *testing.T) {
	for status, want := range map[int]int{401: 502, 400: 502, 429: 429, 503: 503, 0: 502} {
		v := &fakeVendor{synthesize: func(context.Context, SynthesisRequest) (string, error) {
			return "", &UpstreamError{Vendor: VendorOpenAI, Status: status, Message: "nope"}
		}}
		g := NewGateway(v, Options{}, zap.NewNop())
		res := g.Synthesize(context.Background(), SynthesisRequest{Text: "hi"})
		assert.Equal(t, want, res.HTTPStatus(), "upstream %d", status)
	}
}

func TestGateway_TransportErrorIsNotLeaked(t *testing.T) {
	v := &fakeVendor{transcribe: func(context.Context, Clip) (string, error) {
		return "", errors.New(`Post "https://api.openai.com/v1/audio/transcriptions": dial tcp 10.0.0.1:443: connect: refused`)
	}}
	g := NewGateway(v, Options{}, zap.NewNop())

	res := g.Transcribe(context.Background(), AudioPayload{EncodedData: wavPayload()})
	assert.Equal(t, KindUpstream, res.Kind)
	assert.Equal(t, "Speech recognition failed: upstream unreachable", res.ErrorMessage)
	assert.NotContains(t, res.ErrorMessage, "10.0.0.1")
}

func TestGateway_NotConfigured(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	g := NewGateway(nil, Options{}, zap.New(core))

	res := g.Transcribe(context.Background(), AudioPayload{EncodedData: wavPayload()})
	assert.False(t, res.Success)
	assert.Equal(t, KindConfig, res.Kind)
	assert.Equal(t, "speech service not configured", res.ErrorMessage)
	assert.Equal(t, http.StatusInternalServerError, res.HTTPStatus())

	entries := logs.FilterMessage("speech vendor not configured").All()
	require.Len(t, entries, 1, "logged once per request")
	assert.Equal(t, "OPENAI_API_KEY or GOOGLE_CLOUD_API_KEY", entries[0].ContextMap()["missing"])

	// Input errors are reported before configuration errors and are not logged.
	res = g.Transcribe(context.Background(), AudioPayload{EncodedData: "QQ=="})
	assert.Equal(t, KindInput, res.Kind)
	assert.Len(t, logs.FilterMessage("speech vendor not configured").All(), 1)

	res = g.Transcribe(context.Background(), AudioPayload{EncodedData: strings.Repeat("A", 137)})
	assert.Equal(t, KindInput, res.Kind)
	assert.Equal(t, "invalid base64 format", res.ErrorMessage)
	assert.Len(t, logs.FilterMessage("speech vendor not configured").All(), 1)

	syn := g.Synthesize(context.Background(), SynthesisRequest{Text: "hello"})
	assert.Equal(t, KindConfig, syn.Kind)
	assert.NotEqual(t, ErrTextRequired.Error(), syn.ErrorMessage)
	assert.Len(t, logs.FilterMessage("speech vendor not configured").All(), 2)
}

func TestGateway_Synthesize(t *testing.T) {
	v := &fakeVendor{}
	g := NewGateway(v, Options{}, zap.NewNop())

	res := g.Synthesize(context.Background(), SynthesisRequest{Text: "Say the word rabbit"})
	require.True(t, res.Success)
	assert.Equal(t, "SUQz", res.EncodedAudio)
	assert.Equal(t, "alloy", v.lastSynth.Voice)

	res = g.Synthesize(context.Background(), SynthesisRequest{Text: "again", Voice: "nova"})
	require.True(t, res.Success)
	assert.Equal(t, "nova", v.lastSynth.Voice)
}

func TestGateway_Synthesize_BlankTextMakesNoCall(t *testing.T) {
	v := &fakeVendor{}
	g := NewGateway(v, Options{}, zap.NewNop())

	for _, text := range []string{"", "  ", "\n\t"} {
		res := g.Synthesize(context.Background(), SynthesisRequest{Text: text})
		assert.False(t, res.Success)
		assert.Equal(t, KindInput, res.Kind)
		assert.Equal(t, "text is required", res.ErrorMessage)
	}
	assert.EqualValues(t, 0, v.synthCalls.Load())
}

func TestGateway_Synthesize_UpstreamFailure(t *testing.T) {
	v := &fakeVendor{synthesize: func(context.Context, SynthesisRequest) (string, error) {
		return "", &UpstreamError{Vendor: VendorOpenAI, Status: 500, Message: "voice server down"}
	}}
	g := NewGateway(v, Options{}, zap.NewNop())

	res := g.Synthesize(context.Background(), SynthesisRequest{Text: "hi"})
	assert.False(t, res.Success)
	assert.Empty(t, res.EncodedAudio)
	assert.Equal(t, "Text-to-speech failed: voice server down", res.ErrorMessage)
}

func TestGateway_CallerCancellationAbortsUpstream(t *testing.T) {
	started := make(chan struct{})
	v := &fakeVendor{transcribe: func(ctx context.Context, _ Clip) (string, error) {
		close(started)
		<-ctx.Done()
		return "", ctx.Err()
	}}
	g := NewGateway(v, Options{}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan TranscriptionResult, 1)
	go func() { done <- g.Transcribe(ctx, AudioPayload{EncodedData: wavPayload()}) }()

	<-started
	cancel()

	select {
	case res := <-done:
		assert.Equal(t, KindCanceled, res.Kind)
		assert.Equal(t, 499, res.HTTPStatus())
	case <-time.After(2 * time.Second):
		t.Fatal("upstream call was not aborted")
	}
}

func TestGateway_UpstreamTimeout(t *testing.T) {
	v := &fakeVendor{synthesize: func(ctx context.Context, _ SynthesisRequest) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}}
	g := NewGateway(v, Options{UpstreamTimeout: 20 * time.Millisecond}, zap.NewNop())

	res := g.Synthesize(context.Background(), SynthesisRequest{Text: "slow"})
	assert.Equal(t, KindUpstream, res.Kind)
	assert.Equal(t, "Text-to-speech failed: upstream timed out", res.ErrorMessage)
	assert.Equal(t, http.StatusGatewayTimeout, res.HTTPStatus())
}
