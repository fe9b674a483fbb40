package delivery

import (
	"net/http"
	"unicode"
	"unicode/utf8"

	"github.com/goccy/go-json"
)

const (
	msgInvalidJSON      = "Invalid JSON in request body"
	msgBodyTooLarge     = "Request body too large"
	msgNotAuthorized    = "Not authorized"
	msgMethodNotAllowed = "Method not allowed. Use POST."
	msgNotFound         = "Function not found"
	msgInternal         = "Internal server error"
	msgTooManyRequests  = "Too many requests"
)

type failureEnvelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type transcriptEnvelope struct {
	Success        bool   `json:"success"`
	Transcript     string `json:"transcript"`
	ProcessingTime int64  `json:"processingTime"`
}

type transcriptFailureEnvelope struct {
	Success        bool   `json:"success"`
	Error          string `json:"error"`
	ProcessingTime int64  `json:"processingTime"`
}

type audioEnvelope struct {
	Success      bool   `json:"success"`
	AudioContent string `json:"audioContent"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeFailure(w http.ResponseWriter, status int, reason string) {
	writeJSON(w, status, failureEnvelope{Success: false, Error: sentence(reason)})
}

// sentence upper-cases the first rune of a Go-style error string.
func sentence(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
