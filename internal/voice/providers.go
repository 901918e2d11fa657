package voice

import (
	"context"
	"fmt"
	"os/exec"
	"sync"
	"time"
)

// MockProvider implements both Listener and Speaker in-process. It is the
// fallback when no host speech tooling is available, and the collaborator
// double used by tests.
type MockProvider struct {
	mu          sync.Mutex
	queued      []string
	spoken      []string
	listenWait  time.Duration
	speakDelay  time.Duration
	listenReady chan struct{}
}

func NewMockProvider() *MockProvider {
	return &MockProvider{
		listenWait:  50 * time.Millisecond,
		listenReady: make(chan struct{}, 64),
	}
}

// QueueUtterance scripts the next capture result.
func (p *MockProvider) QueueUtterance(text string) {
	p.mu.Lock()
	p.queued = append(p.queued, text)
	p.mu.Unlock()
	p.listenReady <- struct{}{}
}

// SetListenWindow bounds how long Listen blocks waiting for speech before
// returning an empty capture.
func (p *MockProvider) SetListenWindow(d time.Duration) {
	if d <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listenWait = d
}

// SetSpeakDelay makes Speak block for d, simulating utterance duration.
func (p *MockProvider) SetSpeakDelay(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.speakDelay = d
}

// Listen returns the next queued utterance, or an empty capture once the
// listen window elapses with nothing queued.
func (p *MockProvider) Listen(ctx context.Context) (string, error) {
	p.mu.Lock()
	wait := p.listenWait
	p.mu.Unlock()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-p.listenReady:
		p.mu.Lock()
		defer p.mu.Unlock()
		if len(p.queued) == 0 {
			return "", nil
		}
		text := p.queued[0]
		p.queued = p.queued[1:]
		return text, nil
	case <-time.After(wait):
		return "", nil
	}
}

func (p *MockProvider) Speak(ctx context.Context, text string) error {
	p.mu.Lock()
	delay := p.speakDelay
	p.mu.Unlock()
	if delay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	p.mu.Lock()
	p.spoken = append(p.spoken, text)
	p.mu.Unlock()
	return nil
}

// Spoken returns everything spoken so far.
func (p *MockProvider) Spoken() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.spoken))
	copy(out, p.spoken)
	return out
}

// ExecSpeaker shells out to a host TTS binary (macOS `say`, espeak) and
// blocks until the utterance finishes.
type ExecSpeaker struct {
	binary string
}

// NewExecSpeaker resolves the TTS binary on PATH.
func NewExecSpeaker(binary string) (*ExecSpeaker, error) {
	path, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("tts binary %q not found: %w", binary, err)
	}
	return &ExecSpeaker{binary: path}, nil
}

func (s *ExecSpeaker) Speak(ctx context.Context, text string) error {
	cmd := exec.CommandContext(ctx, s.binary, text)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("run %s: %w", s.binary, err)
	}
	return nil
}
