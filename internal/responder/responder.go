// Package responder is the boundary to the remote chat-completion service.
// All transport, status, and parse failures are absorbed here: callers
// always get text to speak, never an error they must handle mid-turn.
package responder

import (
	"context"
	"fmt"
	"strings"
)

const (
	// DefaultPersona is the fixed system prompt describing the assistant.
	DefaultPersona = "You are Alice, a gentle and caring AI companion. " +
		"You speak softly and express subtle affection and a bit of playful teasing. " +
		"You remember your user well and respond warmly."

	// DefaultFallback is spoken when the remote call fails outright.
	DefaultFallback = "Oops, I had trouble thinking right now."

	// DefaultEmptyReply is spoken when the call succeeds but the completion
	// is empty after trimming; empty text is failure-equivalent.
	DefaultEmptyReply = "Sorry, I couldn't generate a response."
)

// Responder owns the persona, prompt composition, and fallback conversion
// around a Client.
type Responder struct {
	client     Client
	persona    string
	fallback   string
	emptyReply string
}

func New(client Client, persona, fallback, emptyReply string) *Responder {
	if strings.TrimSpace(persona) == "" {
		persona = DefaultPersona
	}
	if strings.TrimSpace(fallback) == "" {
		fallback = DefaultFallback
	}
	if strings.TrimSpace(emptyReply) == "" {
		emptyReply = DefaultEmptyReply
	}
	return &Responder{
		client:     client,
		persona:    persona,
		fallback:   fallback,
		emptyReply: emptyReply,
	}
}

// BuildPrompt combines memory context with the latest utterance. The context
// block may be empty when no relevant memories exist.
func BuildPrompt(memoryContext, utterance string) string {
	return fmt.Sprintf("%s\nUser said: %s\nAlice responds:", memoryContext, utterance)
}

// Reply returns the text to speak for an utterance. It never fails the
// caller: any client error yields the fixed fallback phrase and an empty
// completion yields the empty-reply phrase. The returned error reports the
// underlying failure for logging and metrics only; the reply is always
// usable.
func (r *Responder) Reply(ctx context.Context, memoryContext, utterance string) (string, error) {
	text, err := r.client.Complete(ctx, r.persona, BuildPrompt(memoryContext, utterance))
	if err != nil {
		return r.fallback, fmt.Errorf("chat completion: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return r.emptyReply, nil
	}
	return strings.TrimSpace(text), nil
}
