package console

import (
	"context"
	"fmt"
	"io"
)

// Messenger writes cog output to the console. Say and Whisper land on
// the same writer; whispers are marked so transcripts stay readable.
type Messenger struct {
	w io.Writer
}

func NewMessenger(w io.Writer) *Messenger {
	return &Messenger{w: w}
}

func (m *Messenger) Say(_ context.Context, text string) error {
	_, err := fmt.Fprintln(m.w, text)
	return err
}

func (m *Messenger) Whisper(_ context.Context, text string) error {
	_, err := fmt.Fprintf(m.w, "(whisper) %s\n", text)
	return err
}
