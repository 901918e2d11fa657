package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MapGamer71223/AliceChatBot/internal/config"
	"github.com/MapGamer71223/AliceChatBot/internal/memory"
	"github.com/MapGamer71223/AliceChatBot/internal/observability"
	"github.com/MapGamer71223/AliceChatBot/internal/protocol"
	"github.com/MapGamer71223/AliceChatBot/internal/voice"
)

type fakeCoordinator struct {
	mu         sync.Mutex
	listens    int
	utterances []string
	events     chan any
}

func newFakeCoordinator() *fakeCoordinator {
	return &fakeCoordinator{events: make(chan any, 16)}
}

func (f *fakeCoordinator) RequestListen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listens++
	return true
}

func (f *fakeCoordinator) HandleUtterance(text string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.utterances = append(f.utterances, text)
	return true
}

func (f *fakeCoordinator) Snapshot() voice.Snapshot {
	return voice.Snapshot{State: voice.StateIdle, Turns: 3}
}

func (f *fakeCoordinator) Subscribe() (<-chan any, func()) {
	return f.events, func() {}
}

func newTestServer(t *testing.T) (*httptest.Server, *fakeCoordinator, memory.Store) {
	t.Helper()
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config.Load() error = %v", err)
	}
	fc := newFakeCoordinator()
	store := memory.NewInMemoryStore(memory.DefaultTable(), time.Hour)
	metrics := observability.NewMetrics(fmt.Sprintf("alice_api_test_%d", time.Now().UnixNano()))

	srv := httptest.NewServer(New(cfg, fc, store, metrics).Router())
	t.Cleanup(srv.Close)
	return srv, fc, store
}

func TestHandleUtterance(t *testing.T) {
	srv, fc, _ := newTestServer(t)

	body := bytes.NewBufferString(`{"text":"my hobby is chess"}`)
	res, err := http.Post(srv.URL+"/v1/assistant/utterance", "application/json", body)
	if err != nil {
		t.Fatalf("POST utterance error = %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusAccepted)
	}

	fc.mu.Lock()
	defer fc.mu.Unlock()
	if len(fc.utterances) != 1 || fc.utterances[0] != "my hobby is chess" {
		t.Fatalf("utterances = %v, want the posted text", fc.utterances)
	}
}

func TestHandleUtteranceRejectsEmpty(t *testing.T) {
	srv, _, _ := newTestServer(t)

	for _, body := range []string{`{}`, `{"text":"   "}`, ``, `{"text":`} {
		res, err := http.Post(srv.URL+"/v1/assistant/utterance", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatalf("POST utterance error = %v", err)
		}
		res.Body.Close()
		if res.StatusCode != http.StatusBadRequest {
			t.Fatalf("status for body %q = %d, want %d", body, res.StatusCode, http.StatusBadRequest)
		}
	}
}

func TestHandleListen(t *testing.T) {
	srv, fc, _ := newTestServer(t)

	res, err := http.Post(srv.URL+"/v1/assistant/listen", "application/json", nil)
	if err != nil {
		t.Fatalf("POST listen error = %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusAccepted)
	}

	fc.mu.Lock()
	defer fc.mu.Unlock()
	if fc.listens != 1 {
		t.Fatalf("listen requests = %d, want 1", fc.listens)
	}
}

func TestHandleStatus(t *testing.T) {
	srv, _, _ := newTestServer(t)

	res, err := http.Get(srv.URL + "/v1/assistant/status")
	if err != nil {
		t.Fatalf("GET status error = %v", err)
	}
	defer res.Body.Close()

	var snap voice.Snapshot
	if err := json.NewDecoder(res.Body).Decode(&snap); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if snap.State != voice.StateIdle || snap.Turns != 3 {
		t.Fatalf("snapshot = %+v, want idle with 3 turns", snap)
	}
}

func TestListMemories(t *testing.T) {
	srv, _, store := newTestServer(t)

	for _, trigger := range []string{"hobby", "plans"} {
		if err := store.Add(context.Background(), trigger, "content"); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}

	res, err := http.Get(srv.URL + "/v1/memories?limit=1")
	if err != nil {
		t.Fatalf("GET memories error = %v", err)
	}
	defer res.Body.Close()

	var payload struct {
		Memories []memory.Record `json:"memories"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		t.Fatalf("decode memories: %v", err)
	}
	if len(payload.Memories) != 1 {
		t.Fatalf("memory count = %d, want 1 (limit applied)", len(payload.Memories))
	}

	bad, err := http.Get(srv.URL + "/v1/memories?limit=0")
	if err != nil {
		t.Fatalf("GET memories error = %v", err)
	}
	bad.Body.Close()
	if bad.StatusCode != http.StatusBadRequest {
		t.Fatalf("status for limit=0 = %d, want %d", bad.StatusCode, http.StatusBadRequest)
	}
}

func TestSweep(t *testing.T) {
	srv, _, _ := newTestServer(t)

	res, err := http.Post(srv.URL+"/v1/memories/sweep", "application/json", nil)
	if err != nil {
		t.Fatalf("POST sweep error = %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", res.StatusCode, http.StatusOK)
	}
}

func TestWebSocketRoundTrip(t *testing.T) {
	srv, fc, _ := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/assistant/ws"
	conn, res, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("ws dial error = %v", err)
	}
	if res != nil {
		res.Body.Close()
	}
	defer conn.Close()

	if err := conn.WriteJSON(protocol.ClientUtterance{
		Type: protocol.TypeClientUtterance,
		Text: "hello over ws",
	}); err != nil {
		t.Fatalf("ws write error = %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		fc.mu.Lock()
		n := len(fc.utterances)
		fc.mu.Unlock()
		if n == 1 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	fc.mu.Lock()
	if len(fc.utterances) != 1 || fc.utterances[0] != "hello over ws" {
		fc.mu.Unlock()
		t.Fatalf("utterances = %v, want the ws-injected text", fc.utterances)
	}
	fc.mu.Unlock()

	// Events published by the coordinator reach the ws client.
	fc.events <- protocol.AssistantReply{Type: protocol.TypeAssistantReply, TurnID: "t1", Text: "hi"}
	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	var reply protocol.AssistantReply
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("ws read error = %v", err)
	}
	if reply.Text != "hi" || reply.Type != protocol.TypeAssistantReply {
		t.Fatalf("ws event = %+v, want the published reply", reply)
	}
}
