package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/phrazzld/todo-api/internal/events"
	"github.com/phrazzld/todo-api/internal/platform/logger"
)

// streamWriteTimeout bounds a single websocket write.
const streamWriteTimeout = 5 * time.Second

// streamSendBuffer is the number of events queued per client. A client whose
// queue is full is disconnected.
const streamSendBuffer = 16

// streamClient is one websocket connection and its outgoing queue. Only the
// client's writer goroutine writes data frames to conn.
type streamClient struct {
	conn *websocket.Conn
	send chan []byte
	// closeCode is sent to the peer once send is closed.
	closeCode int
	closeText string
}

// TaskStream pushes task change events to websocket clients. It is both the
// HTTP handler for GET /ws/tasks and an events.EventHandler.
type TaskStream struct {
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu      sync.Mutex
	clients map[*streamClient]struct{}
}

// Ensure TaskStream implements events.EventHandler interface
var _ events.EventHandler = (*TaskStream)(nil)

// NewTaskStream creates a TaskStream with no connected clients.
func NewTaskStream(l *slog.Logger) *TaskStream {
	if l == nil {
		l = slog.Default()
	}
	return &TaskStream{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger:  l.With(slog.String("component", "task_stream")),
		clients: make(map[*streamClient]struct{}),
	}
}

// ServeHTTP upgrades the request to a websocket and keeps it registered until
// the client disconnects. Messages sent by clients are ignored.
func (s *TaskStream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), s.logger)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader has already written an error response
		log.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	client := &streamClient{
		conn:      conn,
		send:      make(chan []byte, streamSendBuffer),
		closeCode: websocket.CloseNormalClosure,
	}

	s.mu.Lock()
	s.clients[client] = struct{}{}
	count := len(s.clients)
	s.mu.Unlock()
	log.Debug("task stream client connected", slog.Int("client_count", count))

	go s.writeLoop(client, log)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.remove(client, websocket.CloseNormalClosure, "")
	log.Debug("task stream client disconnected")
}

// writeLoop sends queued events to the client until its queue is closed or a
// write fails, then closes the connection.
func (s *TaskStream) writeLoop(c *streamClient, log *slog.Logger) {
	defer func() { _ = c.conn.Close() }()

	for message := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			log.Warn("failed to send task event", slog.String("error", err.Error()))
			s.remove(c, websocket.CloseNormalClosure, "")
			return
		}
	}

	s.mu.Lock()
	code, text := c.closeCode, c.closeText
	s.mu.Unlock()
	_ = c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(code, text),
		time.Now().Add(time.Second),
	)
}

// HandleEvent implements events.EventHandler by queueing the event as a JSON
// text message for every connected client. It never waits on the network; a
// client whose queue is full is disconnected.
func (s *TaskStream) HandleEvent(ctx context.Context, event *events.TaskEvent) error {
	message, err := json.Marshal(event)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for c := range s.clients {
		select {
		case c.send <- message:
		default:
			logger.FromContextOrDefault(ctx, s.logger).Warn("disconnecting slow task stream client",
				slog.String("event_type", event.Type),
				slog.Int("queued", len(c.send)))
			s.removeLocked(c, websocket.CloseTryAgainLater, "event queue full")
		}
	}
	return nil
}

// ClientCount returns the number of connected clients.
func (s *TaskStream) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Close disconnects every client with a going-away close frame.
func (s *TaskStream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for c := range s.clients {
		s.removeLocked(c, websocket.CloseGoingAway, "server shutting down")
	}
}

func (s *TaskStream) remove(c *streamClient, code int, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(c, code, text)
}

// removeLocked unregisters c and closes its queue, which makes its writer
// send the close frame and close the connection. s.mu must be held.
func (s *TaskStream) removeLocked(c *streamClient, code int, text string) {
	if _, ok := s.clients[c]; !ok {
		return
	}
	delete(s.clients, c)
	c.closeCode, c.closeText = code, text
	close(c.send)
}
