package delivery

import (
	"errors"
	"io"
	"net/http"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/goccy/go-json"

	"github.com/Vovarama1992/speechflow/internal/ports"
	"github.com/Vovarama1992/speechflow/internal/speech"
)

type SpeechHandler struct {
	gateway      ports.SpeechGateway
	log          *logger.ZapLogger
	maxBodyBytes int64
}

func NewSpeechHandler(gateway ports.SpeechGateway, log *logger.ZapLogger, maxBodyBytes int64) *SpeechHandler {
	return &SpeechHandler{
		gateway:      gateway,
		log:          log,
		maxBodyBytes: maxBodyBytes,
	}
}

type transcribeRequest struct {
	AudioData   string  `json:"audioData"`
	Language    string  `json:"language"`
	Prompt      string  `json:"prompt"`
	Format      string  `json:"format"`
	Temperature float32 `json:"temperature"`
}

type synthesizeRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice"`
}

func (h *SpeechHandler) Transcribe(w http.ResponseWriter, r *http.Request) {
	var req transcribeRequest
	if status, msg, ok := h.decode(w, r, &req); !ok {
		writeFailure(w, status, msg)
		return
	}

	res := h.gateway.Transcribe(r.Context(), speech.AudioPayload{
		EncodedData:    req.AudioData,
		DeclaredFormat: req.Format,
		Language:       req.Language,
		Temperature:    req.Temperature,
		Prompt:         req.Prompt,
	})

	if !res.Success {
		h.logFailure("speech-to-text failed", res.Kind, res.ErrorMessage)
		writeJSON(w, res.HTTPStatus(), transcriptFailureEnvelope{
			Success:        false,
			Error:          sentence(res.ErrorMessage),
			ProcessingTime: res.ElapsedMs(),
		})
		return
	}

	writeJSON(w, http.StatusOK, transcriptEnvelope{
		Success:        true,
		Transcript:     res.Text,
		ProcessingTime: res.ElapsedMs(),
	})
}

func (h *SpeechHandler) Synthesize(w http.ResponseWriter, r *http.Request) {
	var req synthesizeRequest
	if status, msg, ok := h.decode(w, r, &req); !ok {
		writeFailure(w, status, msg)
		return
	}

	res := h.gateway.Synthesize(r.Context(), speech.SynthesisRequest{
		Text:  req.Text,
		Voice: req.Voice,
	})

	if !res.Success {
		h.logFailure("text-to-speech failed", res.Kind, res.ErrorMessage)
		writeFailure(w, res.HTTPStatus(), res.ErrorMessage)
		return
	}

	writeJSON(w, http.StatusOK, audioEnvelope{
		Success:      true,
		AudioContent: res.EncodedAudio,
	})
}

func (h *SpeechHandler) decode(w http.ResponseWriter, r *http.Request, dst any) (int, string, bool) {
	body := r.Body
	if h.maxBodyBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	}

	raw, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.log.Log(logger.LogEntry{Level: "warn", Message: "request body too large", Service: "delivery", Error: err})
			return http.StatusRequestEntityTooLarge, msgBodyTooLarge, false
		}
		h.log.Log(logger.LogEntry{Level: "warn", Message: "failed to read body", Service: "delivery", Error: err})
		return http.StatusBadRequest, msgInvalidJSON, false
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		h.log.Log(logger.LogEntry{Level: "warn", Message: "invalid json", Service: "delivery", Error: err})
		return http.StatusBadRequest, msgInvalidJSON, false
	}
	return 0, "", true
}

// Only caller-side failures are logged here; the gateway logs config and upstream ones itself.
func (h *SpeechHandler) logFailure(msg string, kind speech.ErrorKind, reason string) {
	if kind != speech.KindInput && kind != speech.KindCanceled {
		return
	}
	h.log.Log(logger.LogEntry{
		Level:   "info",
		Message: msg + ": " + kind.String(),
		Service: "delivery",
		Error:   errors.New(reason),
	})
}
