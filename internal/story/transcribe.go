package story

import (
	"bytes"
	"cmp"
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

const (
	_transcriptionLanguage = "no"
	_transcriptionPrompt   = "Dette er en eldre norsk person som forteller sin livshistorie."
)

// Transcribe sends a recording to Whisper. filename only needs the right
// extension, the API infers the audio format from it.
func (a *Assistant) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	if a.client == nil {
		return "", ErrNotConfigured
	}

	a.limiter.Take()
	resp, err := a.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: cmp.Or(filename, "recording.wav"),
		Reader:   bytes.NewReader(audio),
		Language: _transcriptionLanguage,
		Prompt:   _transcriptionPrompt,
	})
	if err != nil {
		return "", fmt.Errorf("%w: can't transcribe audio", err)
	}

	return resp.Text, nil
}
