package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MapGamer71223/AliceChatBot/internal/protocol"
)

// handleWS streams coordinator events to the HUD and accepts listen/
// utterance controls. Writes stay single-threaded on the writer goroutine.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	events, unsubscribe := s.coordinator.Subscribe()
	defer unsubscribe()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-events:
				if !ok {
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
				if err := conn.WriteJSON(msg); err != nil {
					cancel()
					return
				}
				if t, ok := messageTypeOf(msg); ok {
					s.metrics.WSMessages.WithLabelValues("outbound", string(t)).Inc()
				}
			}
		}
	}()

	conn.SetReadLimit(64 << 10)
	_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
		return nil
	})

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if msgType != websocket.TextMessage {
			continue
		}
		parsed, err := protocol.ParseClientMessage(data)
		if err != nil {
			continue
		}
		if t, ok := messageTypeOf(parsed); ok {
			s.metrics.WSMessages.WithLabelValues("inbound", string(t)).Inc()
		}

		switch msg := parsed.(type) {
		case protocol.ClientListen:
			s.coordinator.RequestListen()
		case protocol.ClientUtterance:
			s.coordinator.HandleUtterance(msg.Text)
		}
	}

	cancel()
	<-writerDone
}

func messageTypeOf(msg any) (protocol.MessageType, bool) {
	switch m := msg.(type) {
	case protocol.ClientListen:
		return m.Type, true
	case protocol.ClientUtterance:
		return m.Type, true
	case protocol.StateEvent:
		return m.Type, true
	case protocol.UtteranceHeard:
		return m.Type, true
	case protocol.AssistantReply:
		return m.Type, true
	case protocol.SystemNotice:
		return m.Type, true
	case protocol.SystemStats:
		return m.Type, true
	case protocol.ErrorEvent:
		return m.Type, true
	default:
		return "", false
	}
}
