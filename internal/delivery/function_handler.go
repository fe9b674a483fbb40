package delivery

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

const (
	FunctionSpeechToText = "speech-to-text"
	FunctionTextToSpeech = "text-to-speech"
)

var functionCORSHeaders = map[string]string{
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Headers": "authorization, x-client-info, apikey, content-type",
	"Access-Control-Allow-Methods": "GET, POST, OPTIONS",
}

// FunctionCORS answers preflight and rejects anything but POST before
// authentication runs, the way hosted edge functions do.
func FunctionCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for k, v := range functionCORSHeaders {
			w.Header().Set(k, v)
		}

		switch r.Method {
		case http.MethodOptions:
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
			return
		case http.MethodPost:
			next.ServeHTTP(w, r)
		default:
			writeFailure(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
		}
	})
}

type FunctionHandler struct {
	functions map[string]http.HandlerFunc
}

func NewFunctionHandler(h *SpeechHandler) *FunctionHandler {
	return &FunctionHandler{
		functions: map[string]http.HandlerFunc{
			FunctionSpeechToText: h.Transcribe,
			FunctionTextToSpeech: h.Synthesize,
		},
	}
}

func (f *FunctionHandler) Invoke(w http.ResponseWriter, r *http.Request) {
	fn, ok := f.functions[chi.URLParam(r, "name")]
	if !ok {
		writeFailure(w, http.StatusNotFound, msgNotFound)
		return
	}
	fn(w, r)
}
