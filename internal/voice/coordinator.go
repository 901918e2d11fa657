package voice

import (
	"context"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/MapGamer71223/AliceChatBot/internal/memory"
	"github.com/MapGamer71223/AliceChatBot/internal/observability"
	"github.com/MapGamer71223/AliceChatBot/internal/protocol"
	"github.com/MapGamer71223/AliceChatBot/internal/reliability"
	"github.com/MapGamer71223/AliceChatBot/internal/responder"
)

// State is the coordinator's position in the listen/respond/speak cycle.
type State string

const (
	StateIdle       State = "idle"
	StateListening  State = "listening"
	StateProcessing State = "processing"
	StateResponding State = "responding"
	StateSpeaking   State = "speaking"
)

// AllStates lists every state for one-hot gauge bookkeeping.
var AllStates = []string{
	string(StateIdle),
	string(StateListening),
	string(StateProcessing),
	string(StateResponding),
	string(StateSpeaking),
}

// topicTrigger files the synthetic per-exchange record written after every
// successful processing step.
const topicTrigger = "last conversation topic"

// Config tunes turn-taking behavior.
type Config struct {
	Greeting        string
	AutoListenDelay time.Duration
	RetryDelay      time.Duration
	Continuous      bool
}

// Snapshot is a point-in-time view of the coordinator for the status API.
type Snapshot struct {
	State     State  `json:"state"`
	TurnID    string `json:"turn_id,omitempty"`
	LastHeard string `json:"last_heard,omitempty"`
	LastReply string `json:"last_reply,omitempty"`
	Turns     int    `json:"turns"`
}

type captureResult struct {
	text string
	err  error
}

// Coordinator drives the listen -> process -> respond -> speak cycle. It
// guarantees at most one active listening operation and at most one active
// spoken utterance at any instant; conflicting requests are dropped, not
// queued. Capture and speech each run on their own worker goroutine and
// report back over channels so nothing blocks the turn loop indefinitely.
type Coordinator struct {
	listener  Listener
	speaker   Speaker
	matcher   *memory.Matcher
	composer  *memory.Composer
	store     memory.Store
	responder *responder.Responder
	gate      *Gate
	metrics   *observability.Metrics
	cfg       Config

	runCtx    context.Context
	captureCh chan captureResult
	started   atomic.Bool
	listening atomic.Bool
	wg        sync.WaitGroup

	mu        sync.Mutex
	state     State
	turnID    string
	lastHeard string
	lastReply string
	turns     int

	subMu   sync.Mutex
	subs    map[int]chan any
	nextSub int
}

func NewCoordinator(
	listener Listener,
	speaker Speaker,
	matcher *memory.Matcher,
	composer *memory.Composer,
	store memory.Store,
	resp *responder.Responder,
	gate *Gate,
	metrics *observability.Metrics,
	cfg Config,
) *Coordinator {
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 1500 * time.Millisecond
	}
	return &Coordinator{
		listener:  listener,
		speaker:   speaker,
		matcher:   matcher,
		composer:  composer,
		store:     store,
		responder: resp,
		gate:      gate,
		metrics:   metrics,
		cfg:       cfg,
		captureCh: make(chan captureResult, 8),
		state:     StateIdle,
		subs:      make(map[int]chan any),
	}
}

// Start launches the turn loop, speaks the greeting, and arms the one
// automatic listening cycle. It returns immediately; the machine runs until
// ctx is canceled.
func (c *Coordinator) Start(ctx context.Context) {
	if !c.started.CompareAndSwap(false, true) {
		return
	}
	c.runCtx = ctx
	c.setState(StateIdle, "")

	go c.loop(ctx)

	if strings.TrimSpace(c.cfg.Greeting) != "" {
		c.speak(ctx, "", c.cfg.Greeting)
	}
	if c.cfg.AutoListenDelay > 0 {
		// RequestListen no-ops once ctx is canceled, so the timer firing
		// after shutdown is harmless and needs no watcher.
		time.AfterFunc(c.cfg.AutoListenDelay, func() { c.RequestListen() })
	}
}

// Wait blocks until in-flight speech workers have finished. Intended for
// shutdown and tests.
func (c *Coordinator) Wait() { c.wg.Wait() }

func (c *Coordinator) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case res := <-c.captureCh:
			c.handleCapture(ctx, res)
		}
	}
}

// RequestListen arms exactly one listening operation. A request while a
// capture is already active is dropped, not queued, and reports false.
func (c *Coordinator) RequestListen() bool {
	ctx := c.runCtx
	if !c.started.Load() || ctx == nil || ctx.Err() != nil {
		return false
	}
	if !c.listening.CompareAndSwap(false, true) {
		c.metrics.Conflicts.WithLabelValues("listen").Inc()
		return false
	}
	c.setState(StateListening, "")

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		text, err := c.listener.Listen(ctx)
		c.listening.Store(false)
		select {
		case c.captureCh <- captureResult{text: text, err: err}:
		case <-ctx.Done():
		}
	}()
	return true
}

// HandleUtterance injects text as if it had been captured, serialized
// through the same turn loop as microphone input. It reports whether the
// utterance was accepted.
func (c *Coordinator) HandleUtterance(text string) bool {
	ctx := c.runCtx
	if !c.started.Load() || ctx == nil || ctx.Err() != nil {
		return false
	}
	if strings.TrimSpace(text) == "" {
		return false
	}
	select {
	case c.captureCh <- captureResult{text: text}:
		return true
	case <-ctx.Done():
		return false
	}
}

func (c *Coordinator) handleCapture(ctx context.Context, res captureResult) {
	if res.err != nil || strings.TrimSpace(res.text) == "" {
		if res.err != nil && !reliability.IsTimeout(res.err) {
			log.Printf("capture failed: %v", res.err)
		}
		c.metrics.CaptureFailures.Inc()
		c.metrics.TurnsTotal.WithLabelValues("capture_retry").Inc()
		c.publish(protocol.SystemNotice{
			Type:   protocol.TypeSystemNotice,
			Code:   "didnt_catch",
			Detail: "Didn't catch that. Try again!",
		})
		// Debounce, then re-arm listening. RequestListen no-ops after ctx
		// cancellation, so a stray timer firing once costs nothing.
		time.AfterFunc(c.cfg.RetryDelay, func() { c.RequestListen() })
		return
	}
	c.runTurn(ctx, res.text)
}

func (c *Coordinator) runTurn(ctx context.Context, text string) {
	turnID := uuid.NewString()

	c.mu.Lock()
	c.turnID = turnID
	c.lastHeard = text
	c.turns++
	c.mu.Unlock()

	c.setState(StateProcessing, turnID)
	c.publish(protocol.UtteranceHeard{Type: protocol.TypeUtteranceHeard, TurnID: turnID, Text: text})

	// Memory write first so the composed context can include this utterance's
	// fact. Storage failures degrade the turn, never abort it.
	trigger, err := c.matcher.Scan(ctx, text)
	switch {
	case err != nil:
		log.Printf("trigger memory write failed: %v", err)
		c.metrics.StorageErrors.WithLabelValues("add").Inc()
	case trigger != "":
		category := c.matcher.Table().CategoryFor(trigger)
		c.metrics.TriggerMatches.WithLabelValues(trigger).Inc()
		c.metrics.MemoryWrites.WithLabelValues(string(category)).Inc()
	}

	contextText, err := c.composer.Compose(ctx)
	if err != nil {
		log.Printf("context composition failed, continuing with empty context: %v", err)
		c.metrics.StorageErrors.WithLabelValues("recent").Inc()
		contextText = ""
	}

	start := time.Now()
	reply, replyErr := c.responder.Reply(ctx, contextText, text)
	c.metrics.ObserveResponderLatency(time.Since(start))

	outcome := "completed"
	if replyErr != nil {
		outcome = "fallback"
		reason := "transport"
		if reliability.IsTimeout(replyErr) {
			reason = "timeout"
		}
		c.metrics.ResponderFailures.WithLabelValues(reason).Inc()
		c.publish(protocol.ErrorEvent{
			Type:      protocol.TypeErrorEvent,
			Code:      "remote_call_failed",
			Source:    "responder",
			Retryable: true,
			Detail:    replyErr.Error(),
		})
	}

	c.setState(StateResponding, turnID)
	if err := c.store.Add(ctx, topicTrigger, text); err != nil {
		log.Printf("topic memory write failed: %v", err)
		c.metrics.StorageErrors.WithLabelValues("add").Inc()
	} else {
		c.metrics.MemoryWrites.WithLabelValues(string(memory.CategoryContext)).Inc()
	}

	if !c.speak(ctx, turnID, reply) {
		outcome = "dropped_speech"
	}
	c.metrics.TurnsTotal.WithLabelValues(outcome).Inc()
}

// speak acquires the exclusive speech capability and runs the utterance on
// its own worker. When the capability is held the new utterance is lost, not
// queued: at most one utterance is ever in flight.
func (c *Coordinator) speak(ctx context.Context, turnID, text string) bool {
	if !c.gate.TryAcquire() {
		c.metrics.Conflicts.WithLabelValues("speak").Inc()
		return false
	}

	c.mu.Lock()
	c.lastReply = text
	c.mu.Unlock()

	c.setState(StateSpeaking, turnID)
	c.publish(protocol.AssistantReply{Type: protocol.TypeAssistantReply, TurnID: turnID, Text: text})

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer c.gate.Release()
		if err := c.speaker.Speak(ctx, text); err != nil && !reliability.IsTimeout(err) {
			log.Printf("speech output failed: %v", err)
		}
		c.afterSpeech(ctx)
	}()
	return true
}

func (c *Coordinator) afterSpeech(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if c.cfg.Continuous {
		// Hands-free mode: re-arm after every spoken reply.
		if !c.RequestListen() {
			c.setState(StateIdle, "")
		}
		return
	}
	c.setState(StateIdle, "")
}

// PublishStats forwards advisory system readings to HUD subscribers.
func (c *Coordinator) PublishStats(cpuPercent, ramPercent float64) {
	c.publish(protocol.SystemStats{
		Type:       protocol.TypeSystemStats,
		CPUPercent: cpuPercent,
		RAMPercent: ramPercent,
	})
}

// Snapshot returns the current machine state for the status API.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		State:     c.state,
		TurnID:    c.turnID,
		LastHeard: c.lastHeard,
		LastReply: c.lastReply,
		Turns:     c.turns,
	}
}

// Subscribe registers a HUD event channel. The returned cancel function must
// be called when the consumer goes away.
func (c *Coordinator) Subscribe() (<-chan any, func()) {
	ch := make(chan any, 64)
	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	c.subMu.Unlock()

	cancel := func() {
		c.subMu.Lock()
		if _, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(ch)
		}
		c.subMu.Unlock()
	}
	return ch, cancel
}

// publish fans an event out to subscribers. Slow consumers are skipped
// rather than blocking a turn.
func (c *Coordinator) publish(msg any) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	for _, ch := range c.subs {
		select {
		case ch <- msg:
		default:
		}
	}
}

func (c *Coordinator) setState(s State, turnID string) {
	c.mu.Lock()
	c.state = s
	if turnID != "" {
		c.turnID = turnID
	}
	c.mu.Unlock()

	c.metrics.SetCoordinatorState(string(s), AllStates)
	c.publish(protocol.StateEvent{Type: protocol.TypeStateEvent, State: string(s), TurnID: turnID})
}
