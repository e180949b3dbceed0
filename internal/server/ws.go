package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/aerolab/winddaq/internal/broadcast"
	"github.com/aerolab/winddaq/internal/metrics"
	"github.com/aerolab/winddaq/internal/model"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Bench UI runs on a different origin during development.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// inbound is a client→server control message.
type inbound struct {
	Type   string `json:"type"`   // "command" or "ping"
	Action string `json:"action"` // start_recording, stop_recording, clear, get_status
}

// event is a typed server→client message (readings go out bare).
type event struct {
	Type    string              `json:"type"`
	Data    *model.SystemStatus `json:"data,omitempty"`
	Message string              `json:"message,omitempty"`
}

// wsClient is one connected WebSocket consumer. All writes to the
// connection flow through the queue and its writer goroutine; the read
// goroutine only enqueues.
type wsClient struct {
	conn   *websocket.Conn
	queue  *broadcast.Queue[any]
	logger *slog.Logger
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := &wsClient{
		conn:   conn,
		queue:  broadcast.NewQueue[any](64),
		logger: s.logger.With("client", conn.RemoteAddr().String()),
	}

	sub := broadcast.NewSubscriber("ws:"+conn.RemoteAddr().String(), func(reading model.Reading) error {
		if !client.queue.Push(reading) {
			return errors.New("client queue closed")
		}
		return nil
	})

	registry := s.orch.Registry()
	registry.Subscribe(sub)

	// Initial status so the UI renders immediately.
	status := s.orch.Status()
	client.queue.Push(event{Type: "status", Data: &status})

	done := make(chan struct{})
	go client.writeLoop(done)

	client.readLoop(r.Context(), s)

	// Reader is gone: detach from the pipeline, let the writer drain
	// out, close the socket.
	registry.Unsubscribe(sub)
	client.queue.Close()
	<-done
	conn.Close()

	client.logger.Info("websocket client disconnected")
}

// writeLoop drains the client queue onto the socket. It is the only
// goroutine writing to the connection.
func (c *wsClient) writeLoop(done chan<- struct{}) {
	defer close(done)

	for {
		item, ok := c.queue.Pop()
		if !ok {
			return
		}

		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteJSON(item); err != nil {
			c.logger.Warn("websocket write failed", "error", err)
			// Stop the queue from growing on further broadcasts and
			// kick the read loop off the dead connection.
			c.queue.Close()
			c.conn.Close()
			return
		}
		if _, isReading := item.(model.Reading); isReading {
			metrics.WSMessagesSent.Inc()
		}
	}
}

// readLoop processes inbound control messages until the client hangs up.
func (c *wsClient) readLoop(ctx context.Context, s *Server) {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Debug("websocket read ended", "error", err)
			}
			return
		}

		var msg inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Warn("invalid websocket message", "error", err)
			continue
		}

		switch msg.Type {
		case "command":
			c.handleCommand(ctx, s, msg.Action)
		case "ping":
			c.queue.Push(event{Type: "pong"})
		}
	}
}

func (c *wsClient) handleCommand(ctx context.Context, s *Server, action string) {
	switch action {
	case "start_recording":
		s.orch.StartRecording()
		c.queue.Push(event{Type: "recording_started"})

	case "stop_recording":
		if err := s.orch.StopRecording(ctx); err != nil {
			c.queue.Push(event{Type: "error", Message: "failed to flush readings"})
			return
		}
		c.queue.Push(event{Type: "recording_stopped"})

	case "clear":
		if err := s.orch.ClearReadings(ctx); err != nil {
			c.queue.Push(event{Type: "error", Message: "failed to clear readings"})
			return
		}
		c.queue.Push(event{Type: "readings_cleared"})

	case "get_status":
		status := s.orch.Status()
		c.queue.Push(event{Type: "status", Data: &status})

	default:
		c.logger.Warn("unknown command", "action", action)
	}
}
