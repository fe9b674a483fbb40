package ports

import (
	"context"

	"github.com/Vovarama1992/speechflow/internal/speech"
)

type SpeechGateway interface {
	Transcribe(ctx context.Context, p speech.AudioPayload) speech.TranscriptionResult
	Synthesize(ctx context.Context, req speech.SynthesisRequest) speech.SynthesisResult
}
