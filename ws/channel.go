package ws

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/gorilla/websocket"
)

type CloseCause int

const (
	ReadError   CloseCause = 1
	WriteError  CloseCause = 2
	PingError   CloseCause = 3
	ClientClose CloseCause = 4
)

const (
	// Time allowed to write a frame to the server.
	writeWait = 3 * time.Second

	// DefaultKeepalive is the period of the JSON ping.
	DefaultKeepalive = 30 * time.Second

	// websocket max message size to read.
	readLimit = 64 << 10

	handshakeTimeout = 10 * time.Second
)

const connectionErrorText = "WebSocket connection error"

var (
	ErrChannelClosed = errors.New("ws: channel is not open")
	ErrSendQueueFull = errors.New("ws: send queue is full")
)

// Channel is one live connection to the messaging endpoint. It answers
// server pings, sends a keepalive while open and delivers decoded events
// on Events(). A closed channel is never reopened.
type Channel struct {
	sync.Mutex

	url  string
	conn *websocket.Conn

	keepalive time.Duration
	dataChan  chan []byte
	events    chan Event
	done      chan struct{}
	loops     sync.WaitGroup

	closing bool
	cause   CloseCause
}

// Dial opens a channel to rawURL. Cookies for the handshake come from jar.
func Dial(ctx context.Context, rawURL string, jar http.CookieJar, keepalive time.Duration) (*Channel, error) {
	if keepalive <= 0 {
		keepalive = DefaultKeepalive
	}

	header := http.Header{}
	if origin, err := originOf(rawURL); err == nil {
		header.Set("Origin", origin)
	}

	dialer := &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: handshakeTimeout,
		Jar:              jar,
	}
	conn, resp, err := dialer.DialContext(ctx, rawURL, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("ws: dial %s: %v (status %d)", rawURL, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("ws: dial %s: %v", rawURL, err)
	}

	c := &Channel{
		url:       rawURL,
		conn:      conn,
		keepalive: keepalive,
		dataChan:  make(chan []byte, 16),
		events:    make(chan Event, 64),
		done:      make(chan struct{}),
	}
	openChannels.Inc()
	glog.V(5).Infof("channel opened: %s", c)

	c.loops.Add(2)
	go c.recvLoop()
	go c.sendLoop()
	return c, nil
}

func originOf(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	scheme := "http"
	if u.Scheme == "wss" {
		scheme = "https"
	}
	return scheme + "://" + u.Host, nil
}

func (c *Channel) String() string {
	return c.url
}

// Events is closed once the channel stops reading.
func (c *Channel) Events() <-chan Event {
	return c.events
}

func (c *Channel) IsOpen() bool {
	c.Lock()
	defer c.Unlock()
	return !c.closing
}

// Cause returns why the channel closed, or 0 while it is open.
func (c *Channel) Cause() CloseCause {
	c.Lock()
	defer c.Unlock()
	return c.cause
}

// SendText queues a chat message for receiverID.
func (c *Channel) SendText(receiverID int64, content string) error {
	return c.enqueue(chatFrame(receiverID, content))
}

// Close closes the connection and waits for both loops to exit.
func (c *Channel) Close() {
	c.close(ClientClose)
	c.loops.Wait()
}

func (c *Channel) close(cause CloseCause) {
	c.Lock()
	if c.closing {
		c.Unlock()
		return
	}
	c.closing = true
	c.cause = cause
	close(c.done)
	c.Unlock()

	deadline := time.Now().Add(writeWait)
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	c.conn.Close()
	openChannels.Dec()

	glog.V(5).Infof("channel closed, cause: %d, %s", cause, c)
}

func (c *Channel) enqueue(frame []byte) error {
	c.Lock()
	defer c.Unlock()
	if c.closing {
		return ErrChannelClosed
	}
	select {
	case c.dataChan <- frame:
		return nil
	default:
		return ErrSendQueueFull
	}
}

func (c *Channel) emit(ev Event) {
	select {
	case c.events <- ev:
	case <-c.done:
	}
}

func (c *Channel) recvLoop() {
	defer func() {
		close(c.events)
		c.loops.Done()
		glog.V(5).Infof("recvLoop(): exited, channel: %s", c)
	}()

	c.conn.SetReadLimit(readLimit)

	for {
		msgType, msg, err := c.conn.ReadMessage()
		if err != nil {
			if !c.IsOpen() {
				// The send side failed first.
				if c.Cause() != ClientClose {
					select {
					case c.events <- Event{Kind: EventError, Text: connectionErrorText}:
					default:
					}
				}
				return
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				glog.V(5).Infof("recvLoop(): closed by server: %v", err)
			} else {
				glog.Errorf("recvLoop(): read error: %v", err)
			}
			c.emit(Event{Kind: EventError, Text: connectionErrorText})
			c.close(ReadError)
			return
		}

		if msgType != websocket.TextMessage {
			glog.Errorf("recvLoop(): unexpected message type: %d", msgType)
			continue
		}

		glog.V(5).Infof("recvLoop(): incoming message: %s", msg)

		ev, ok, err := DecodeEvent(msg)
		if err != nil {
			glog.Errorf("recvLoop(): %v", err)
			continue
		}
		if !ok {
			continue
		}
		eventsTotal.WithLabelValues(ev.Kind.String()).Inc()

		if ev.Kind == EventPing {
			if ev.Text == TypePing {
				if err := c.enqueue(pongFrame()); err != nil {
					glog.V(5).Infof("recvLoop(): pong dropped: %v", err)
				}
			}
			continue
		}
		c.emit(ev)
	}
}

func (c *Channel) sendLoop() {
	pingTicker := time.NewTicker(c.keepalive)
	defer func() {
		pingTicker.Stop()
		c.loops.Done()
		glog.V(5).Infof("sendLoop(): exited, channel: %s", c)
	}()

	for {
		select {
		case <-c.done:
			return
		case frame := <-c.dataChan:
			if err := c.write(frame); err != nil {
				glog.Errorf("sendLoop(): write error, channel: %s, err: %v", c, err)
				c.close(WriteError)
				return
			}
		case <-pingTicker.C:
			if !c.IsOpen() {
				return
			}
			if err := c.write(pingFrame()); err != nil {
				glog.Errorf("sendLoop(): write ping error, channel: %s, err: %v", c, err)
				c.close(PingError)
				return
			}
		}
	}
}

func (c *Channel) write(frame []byte) error {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, frame)
}
