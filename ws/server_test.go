package ws

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// chatServer is a minimal messaging endpoint: it answers pings, echoes
// chat messages back with increasing ids and counts live connections.
type chatServer struct {
	*httptest.Server

	userID int64
	nextID int64

	mu     sync.Mutex
	conns  map[*websocket.Conn]struct{}
	active int32
	total  int32

	frames chan string
}

func newChatServer(t *testing.T, userID, firstID int64) *chatServer {
	s := &chatServer{
		userID: userID,
		nextID: firstID - 1,
		conns:  make(map[*websocket.Conn]struct{}),
		frames: make(chan string, 64),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(func() {
		s.dropAll()
		s.Server.Close()
	})
	return s
}

func (s *chatServer) wsURL() string {
	return "ws" + strings.TrimPrefix(s.URL, "http") + "/ws/messages/"
}

func (s *chatServer) serve(w http.ResponseWriter, r *http.Request) {
	conn, err := testUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()
	atomic.AddInt32(&s.active, 1)
	atomic.AddInt32(&s.total, 1)

	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		atomic.AddInt32(&s.active, -1)
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		select {
		case s.frames <- string(data):
		default:
		}

		var env struct {
			Type       string `json:"type"`
			ReceiverID int64  `json:"receiver_id"`
			Message    string `json:"message"`
		}
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}
		switch env.Type {
		case TypePing:
			s.write(conn, `{"type":"ping","message":"pong"}`)
		case TypeChatMessage:
			id := atomic.AddInt64(&s.nextID, 1)
			content, _ := json.Marshal(env.Message)
			s.write(conn, fmt.Sprintf(`{"type":"chat_message","message":{"id":%d,"sender_id":%d,
				"receiver_id":%d,"content":%s,"timestamp":"%s"}}`,
				id, s.userID, env.ReceiverID, content, time.Now().UTC().Format(time.RFC3339Nano)))
		}
	}
}

func (s *chatServer) write(conn *websocket.Conn, frame string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = conn.WriteMessage(websocket.TextMessage, []byte(frame))
}

// push sends frame to every live connection.
func (s *chatServer) push(frame string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(frame))
	}
}

func (s *chatServer) dropAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		conn.Close()
	}
}

func (s *chatServer) activeConns() int32 {
	return atomic.LoadInt32(&s.active)
}

// nextFrame waits for a frame of the given type.
func (s *chatServer) nextFrame(t *testing.T, typ string) string {
	t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case f := <-s.frames:
			if strings.Contains(f, `"type":"`+typ+`"`) {
				return f
			}
		case <-timeout:
			t.Fatalf("no %q frame received", typ)
			return ""
		}
	}
}
