package audio

import (
	"encoding/base64"
	"errors"
	"regexp"
	"strings"
)

const (
	// MaxSize is the largest decoded clip accepted (the Whisper upload limit).
	MaxSize = 25 * 1024 * 1024
	// MinSize rejects empty and near-empty recordings.
	MinSize = 100
)

var (
	ErrInvalidBase64 = errors.New("invalid base64 format")
	ErrTooLarge      = errors.New("file size too large")
	ErrTooSmall      = errors.New("audio file too small")
)

var (
	dataURLPrefix = regexp.MustCompile(`^data:audio/[^;]+;base64,`)
	base64Body    = regexp.MustCompile(`^[A-Za-z0-9+/]*={0,2}$`)
)

// StripDataURL removes a leading "data:audio/<subtype>;base64," marker if present.
func StripDataURL(encoded string) string {
	if !strings.HasPrefix(encoded, "data:") {
		return encoded
	}
	return dataURLPrefix.ReplaceAllLiteralString(encoded, "")
}

// Validate checks an inbound base64 clip without decoding it and returns the
// decoded size. The size is computed as floor(len*3/4) minus the padding.
func Validate(encoded string) (int, error) {
	body := StripDataURL(encoded)
	if !base64Body.MatchString(body) {
		return 0, ErrInvalidBase64
	}
	// A lone trailing sextet cannot encode a byte, and padding only closes a full quantum.
	if rem := len(body) % 4; rem == 1 || (rem != 0 && strings.HasSuffix(body, "=")) {
		return 0, ErrInvalidBase64
	}

	size := len(body)*3/4 - strings.Count(body, "=")
	if size > MaxSize {
		return size, ErrTooLarge
	}
	if size < MinSize {
		return size, ErrTooSmall
	}
	return size, nil
}

// Decode returns the raw clip bytes. Unpadded input is accepted.
func Decode(encoded string) ([]byte, error) {
	body := StripDataURL(encoded)
	enc := base64.StdEncoding
	if !strings.HasSuffix(body, "=") && len(body)%4 != 0 {
		enc = base64.RawStdEncoding
	}
	data, err := enc.DecodeString(body)
	if err != nil {
		return nil, ErrInvalidBase64
	}
	return data, nil
}
