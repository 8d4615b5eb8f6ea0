package fakeapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang/glog"
	"github.com/gorilla/websocket"

	"github.com/mqy/minisocial/api"
)

const (
	writeWait = 3 * time.Second
	readLimit = 64 << 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// peer is one live channel connection of a user.
type peer struct {
	sync.Mutex
	userID int64
	conn   *websocket.Conn
}

func (p *peer) send(frame []byte) error {
	p.Lock()
	defer p.Unlock()
	p.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return p.conn.WriteMessage(websocket.TextMessage, frame)
}

type wireMessage struct {
	ID             int64     `json:"id"`
	SenderID       int64     `json:"sender_id"`
	SenderUsername string    `json:"sender_username"`
	ReceiverID     int64     `json:"receiver_id"`
	Content        string    `json:"content"`
	Timestamp      time.Time `json:"timestamp"`
}

func frame(typ string, message interface{}) []byte {
	out, _ := json.Marshal(map[string]interface{}{"type": typ, "message": message})
	return out
}

func chatFrame(m *api.Message) []byte {
	return frame("chat_message", &wireMessage{
		ID:             m.ID,
		SenderID:       m.Sender,
		SenderUsername: m.SenderUsername,
		ReceiverID:     m.Receiver,
		Content:        m.Content,
		Timestamp:      m.Timestamp,
	})
}

func attachmentFrame(id int64) []byte {
	return frame("new_attachment", map[string]int64{"id": id})
}

func errorFrame(text string) []byte {
	return frame("error", text)
}

func (s *Server) serveChannel(c *gin.Context) {
	me := currentUser(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		glog.Errorf("fakeapi: upgrade error, uid: %d, err: %v", me, err)
		return
	}

	p := &peer{userID: me, conn: conn}
	s.addPeer(p)
	defer s.delPeer(p)

	conn.SetReadLimit(readLimit)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				glog.V(5).Infof("fakeapi: channel read error, uid: %d, err: %v", me, err)
			}
			return
		}
		s.handleFrame(p, data)
	}
}

func (s *Server) handleFrame(p *peer, data []byte) {
	var in struct {
		Type       string          `json:"type"`
		ReceiverID int64           `json:"receiver_id"`
		Message    json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(data, &in); err != nil {
		_ = p.send(errorFrame("Invalid JSON"))
		return
	}

	switch in.Type {
	case "ping":
		_ = p.send(frame("ping", "pong"))
	case "pong":
	case "chat_message":
		var content string
		if err := json.Unmarshal(in.Message, &content); err != nil || strings.TrimSpace(content) == "" {
			_ = p.send(errorFrame("Message content is required"))
			return
		}
		s.Lock()
		m, _, text := s.postMessage(p.userID, in.ReceiverID, content)
		var out api.Message
		if m != nil {
			out = *m
		}
		s.Unlock()
		if m == nil {
			_ = p.send(errorFrame(text))
			return
		}
		f := chatFrame(&out)
		s.pushTo(out.Sender, f)
		s.pushTo(out.Receiver, f)
	default:
		_ = p.send(errorFrame("Unknown message type"))
	}
}

func (s *Server) addPeer(p *peer) {
	s.Lock()
	set, ok := s.peers[p.userID]
	if !ok {
		set = make(map[*peer]struct{})
		s.peers[p.userID] = set
	}
	set[p] = struct{}{}
	s.Unlock()
	atomic.AddInt32(&s.active, 1)
}

func (s *Server) delPeer(p *peer) {
	s.Lock()
	if set, ok := s.peers[p.userID]; ok {
		if _, found := set[p]; found {
			delete(set, p)
			atomic.AddInt32(&s.active, -1)
		}
		if len(set) == 0 {
			delete(s.peers, p.userID)
		}
	}
	s.Unlock()
	p.conn.Close()
}

func (s *Server) userPeers(userID int64) []*peer {
	s.Lock()
	defer s.Unlock()
	out := make([]*peer, 0, len(s.peers[userID]))
	for p := range s.peers[userID] {
		out = append(out, p)
	}
	return out
}

// pushTo sends frame to every connection of userID.
func (s *Server) pushTo(userID int64, frame []byte) {
	for _, p := range s.userPeers(userID) {
		if err := p.send(frame); err != nil {
			glog.V(5).Infof("fakeapi: push to %d failed: %v", userID, err)
		}
	}
}

// Push sends a raw frame to every connection of userID.
func (s *Server) Push(userID int64, frame []byte) {
	s.pushTo(userID, frame)
}

// dropPeers closes every connection of userID.
func (s *Server) dropPeers(userID int64) {
	for _, p := range s.userPeers(userID) {
		p.conn.Close()
	}
}
