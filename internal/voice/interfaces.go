package voice

import "context"

// Listener captures one spoken utterance as text. Implementations block up
// to their configured listen window and return the captured text, or an
// empty string when nothing intelligible was heard. An empty capture is not
// an error.
type Listener interface {
	Listen(ctx context.Context) (string, error)
}

// Speaker produces one spoken utterance and blocks until it has been fully
// spoken. There is no upper bound on utterance duration beyond ctx.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}
