package audio

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// Format is the MIME type of a recognised audio container.
type Format string

const (
	FormatWebM Format = "audio/webm"
	FormatMP4  Format = "audio/mp4"
	FormatMPEG Format = "audio/mpeg"
	FormatWAV  Format = "audio/wav"
	FormatOGG  Format = "audio/ogg"
	FormatFLAC Format = "audio/flac"
	FormatM4A  Format = "audio/m4a"

	// DefaultFormat is reported when no signature matches; browsers record webm.
	DefaultFormat = FormatWebM
)

// SupportedFormats lists every format a client may declare.
var SupportedFormats = []Format{
	FormatWebM,
	FormatMP4,
	FormatMPEG,
	FormatWAV,
	FormatOGG,
	FormatFLAC,
	FormatM4A,
}

var ErrUnsupportedFormat = errors.New("unsupported audio format")

// sniffChars bounds detection to roughly the first 100 decoded bytes.
const sniffChars = 136

var (
	sigEBML = []byte{0x1A, 0x45, 0xDF, 0xA3}
	sigRIFF = []byte("RIFF")
	sigOggS = []byte("OggS")
	sigFtyp = []byte("ftyp")
)

// Extension is the file extension used for multipart uploads ("audio/mpeg" -> "mpeg").
func (f Format) Extension() string {
	_, sub, ok := strings.Cut(string(f), "/")
	if !ok {
		return string(f)
	}
	return sub
}

// ParseFormat accepts a client-declared format.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range SupportedFormats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, s)
}

// Sniff classifies raw bytes by container signature. First match wins.
func Sniff(b []byte) Format {
	switch {
	case bytes.HasPrefix(b, sigEBML):
		return FormatWebM
	case len(b) >= 2 && b[0] == 0xFF && b[1]&0xE0 == 0xE0:
		return FormatMPEG
	case bytes.HasPrefix(b, sigRIFF):
		return FormatWAV
	case bytes.HasPrefix(b, sigOggS):
		return FormatOGG
	case len(b) >= 8 && bytes.Equal(b[4:8], sigFtyp):
		return FormatMP4
	}
	return DefaultFormat
}

// DetectFormat sniffs a base64 clip by decoding only its leading bytes.
// Undecodable input falls back to DefaultFormat.
func DetectFormat(encoded string) Format {
	body := StripDataURL(encoded)
	n := min(len(body), sniffChars)
	n -= n % 4

	head, err := base64.StdEncoding.DecodeString(body[:n])
	if err != nil || len(head) == 0 {
		return DefaultFormat
	}
	return Sniff(head)
}
