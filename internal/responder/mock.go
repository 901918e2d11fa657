package responder

import (
	"context"
	"fmt"
	"sync"
)

// MockClient is a local fallback client used when no endpoint is configured.
// It echoes a canned acknowledgement so the rest of the pipeline can be
// exercised without a model behind it.
type MockClient struct {
	mu      sync.Mutex
	replies []string
	err     error
	calls   int
	prompts []string
}

func NewMockClient() *MockClient { return &MockClient{} }

// Script sets the replies returned by successive Complete calls. After the
// scripted replies run out, Complete falls back to a generic echo.
func (c *MockClient) Script(replies ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replies = append(c.replies, replies...)
}

// Fail makes every subsequent Complete call return err.
func (c *MockClient) Fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

func (c *MockClient) Complete(_ context.Context, _, userPrompt string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	c.prompts = append(c.prompts, userPrompt)
	if c.err != nil {
		return "", c.err
	}
	if len(c.replies) > 0 {
		reply := c.replies[0]
		c.replies = c.replies[1:]
		return reply, nil
	}
	return fmt.Sprintf("I heard you. (mock reply %d)", c.calls), nil
}

// Calls reports how many Complete calls were made.
func (c *MockClient) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// Prompts returns the user prompts received so far.
func (c *MockClient) Prompts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.prompts))
	copy(out, c.prompts)
	return out
}
