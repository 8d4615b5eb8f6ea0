package ws

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/pborman/uuid"

	"github.com/mqy/minisocial/api"
	"github.com/mqy/minisocial/form"
)

// ErrNotFriends is returned when sending to someone who is not an accepted
// friend.
var ErrNotFriends = errors.New("ws: you can only message friends")

// ErrNotMounted is returned by sends before Mount resolved a user.
var ErrNotMounted = errors.New("ws: messenger is not mounted")

// Backend is the REST side of messaging.
type Backend interface {
	Messages(ctx context.Context) ([]api.Message, error)
	Message(ctx context.Context, id int64) (*api.Message, error)
	CreateMessage(ctx context.Context, m *api.NewMessage) (*api.Message, error)
}

var _ Backend = (*api.Client)(nil)

// Friends tells whether the current user may message someone.
type Friends interface {
	CanMessage(userID int64) bool
}

// FriendsFunc adapts a func to Friends.
type FriendsFunc func(userID int64) bool

func (f FriendsFunc) CanMessage(userID int64) bool { return f(userID) }

// PreviewFunc makes a local preview of an attachment. release frees it.
type PreviewFunc func(name string, data []byte) (url string, release func(), err error)

type Options struct {
	// ChannelURL is the live messaging endpoint, see api.Client.ChannelURL.
	ChannelURL string
	Jar        http.CookieJar
	Keepalive  time.Duration
	Preview    PreviewFunc
}

// Messenger is the state behind the conversation view: the message list,
// the visible error and the single live channel.
type Messenger struct {
	backend Backend
	friends Friends
	opts    Options
	list    *messageList

	dial func(ctx context.Context) (*Channel, error)

	// mu serializes Mount and Unmount. Listeners may run while it is held,
	// so readers only take stateMu.
	mu       sync.Mutex
	cancel   context.CancelFunc
	loopDone chan struct{}

	stateMu sync.RWMutex
	me      *api.Profile
	channel *Channel
}

func NewMessenger(backend Backend, friends Friends, opts Options) *Messenger {
	if opts.Preview == nil {
		opts.Preview = TempFilePreview
	}
	m := &Messenger{
		backend: backend,
		friends: friends,
		opts:    opts,
		list:    newMessageList(),
	}
	m.dial = func(ctx context.Context) (*Channel, error) {
		return Dial(ctx, m.opts.ChannelURL, m.opts.Jar, m.opts.Keepalive)
	}
	return m
}

// NewTempID returns an id for an optimistic entry.
func NewTempID() string {
	return "temp-" + uuid.New()
}

// Mount loads the messages of me and opens the live channel. Any channel
// left from a previous mount is closed first, so at most one is open.
func (m *Messenger) Mount(ctx context.Context, me *api.Profile) error {
	if me == nil {
		return ErrNotMounted
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.teardown()
	m.list.reset()
	m.setState(me, nil)

	if list, err := m.backend.Messages(ctx); err != nil {
		glog.Errorf("messenger: load messages: %v", err)
		m.list.setErr(api.Detail(err, "Failed to load messages"))
	} else {
		m.list.merge(list)
	}

	ch, err := m.dial(ctx)
	if err != nil {
		glog.Errorf("messenger: %v", err)
		m.list.setErr(connectionErrorText)
		return err
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	m.setState(me, ch)
	m.cancel = cancel
	m.loopDone = make(chan struct{})
	go m.eventLoop(loopCtx, ch, m.loopDone)

	glog.V(5).Infof("messenger: mounted for user %d", me.UserID)
	return nil
}

// Unmount closes the live channel. The message list is kept.
func (m *Messenger) Unmount() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teardown()
}

func (m *Messenger) teardown() {
	m.stateMu.Lock()
	ch := m.channel
	m.channel = nil
	m.stateMu.Unlock()
	if ch == nil {
		return
	}
	ch.Close()
	m.cancel()
	<-m.loopDone
	m.cancel = nil
	m.loopDone = nil
}

func (m *Messenger) eventLoop(ctx context.Context, ch *Channel, done chan struct{}) {
	defer close(done)

	for ev := range ch.Events() {
		switch ev.Kind {
		case EventError:
			m.list.setErr(ev.Text)
		case EventNewMessage:
			m.list.apply(ev)
		case EventNewAttachment:
			full, err := m.backend.Message(ctx, ev.Message.ID)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				glog.Errorf("messenger: fetch message %d: %v", ev.Message.ID, err)
				m.list.setErr(api.Detail(err, "Failed to load message"))
				continue
			}
			m.list.apply(Event{Kind: EventNewAttachment, Message: full})
		}
	}
}

func (m *Messenger) setState(me *api.Profile, ch *Channel) {
	m.stateMu.Lock()
	m.me, m.channel = me, ch
	m.stateMu.Unlock()
}

func (m *Messenger) current() (*api.Profile, *Channel) {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.me, m.channel
}

// IsOpen tells whether the live channel is open.
func (m *Messenger) IsOpen() bool {
	_, ch := m.current()
	return ch != nil && ch.IsOpen()
}

// SendText appends an optimistic entry and sends it over the channel, or
// with a plain request when the channel is not open. It returns the
// optimistic entry.
func (m *Messenger) SendText(ctx context.Context, receiver int64, content string) (*api.Message, error) {
	if err := form.Message(receiver, content, false); err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	me, ch := m.current()
	if me == nil {
		return nil, ErrNotMounted
	}
	if !m.friends.CanMessage(receiver) {
		return nil, ErrNotFriends
	}

	temp := api.Message{
		TempID:         NewTempID(),
		IsTemporary:    true,
		Sender:         me.UserID,
		SenderUsername: me.Username,
		Receiver:       receiver,
		Content:        content,
		Timestamp:      time.Now(),
	}
	m.list.addTemp(temp, nil)

	if ch != nil {
		err := ch.SendText(receiver, content)
		if err == nil {
			sendsTotal.WithLabelValues(transportChannel).Inc()
			return &temp, nil
		}
		glog.V(5).Infof("messenger: channel send failed, falling back to REST: %v", err)
	}

	msg, err := m.backend.CreateMessage(ctx, &api.NewMessage{Receiver: receiver, Content: content})
	if err != nil {
		glog.Errorf("messenger: send message: %v", err)
		m.list.removeTemp(temp.TempID)
		m.list.setErr(api.Detail(err, "Failed to send message"))
		return nil, err
	}
	sendsTotal.WithLabelValues(transportREST).Inc()
	m.list.replaceTemp(temp.TempID, *msg)
	return msg, nil
}

// SendAttachment appends an optimistic entry with a local preview, then
// uploads the file. The entry is replaced by the server's response and
// the preview released.
func (m *Messenger) SendAttachment(ctx context.Context, receiver int64, content string, f *api.File) (*api.Message, error) {
	if f == nil {
		return m.SendText(ctx, receiver, content)
	}
	if err := form.Message(receiver, content, true); err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if err := form.Attachment(form.Upload{Name: f.Name, ContentType: f.ContentType, Size: f.Size}); err != nil {
		return nil, err
	}
	me, _ := m.current()
	if me == nil {
		return nil, ErrNotMounted
	}
	if !m.friends.CanMessage(receiver) {
		return nil, ErrNotFriends
	}

	data, err := io.ReadAll(io.LimitReader(f.Body, form.MaxAttachmentBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read attachment: %v", err)
	}
	if err := form.Attachment(form.Upload{Name: f.Name, ContentType: f.ContentType, Size: int64(len(data))}); err != nil {
		return nil, err
	}

	previewURL, release, err := m.opts.Preview(f.Name, data)
	if err != nil {
		return nil, fmt.Errorf("preview attachment: %v", err)
	}

	temp := api.Message{
		TempID:                NewTempID(),
		IsTemporary:           true,
		Sender:                me.UserID,
		SenderUsername:        me.Username,
		Receiver:              receiver,
		Content:               content,
		AttachmentContentType: f.ContentType,
		PreviewURL:            previewURL,
		Timestamp:             time.Now(),
	}
	m.list.addTemp(temp, release)

	msg, err := m.backend.CreateMessage(ctx, &api.NewMessage{
		Receiver: receiver,
		Content:  content,
		Attachment: &api.File{
			Name:        f.Name,
			ContentType: f.ContentType,
			Size:        int64(len(data)),
			Body:        bytes.NewReader(data),
		},
	})
	if err != nil {
		glog.Errorf("messenger: upload attachment: %v", err)
		m.list.removeTemp(temp.TempID)
		m.list.setErr(api.Detail(err, "Failed to send attachment"))
		return nil, err
	}
	sendsTotal.WithLabelValues(transportUpload).Inc()
	m.list.replaceTemp(temp.TempID, *msg)
	return msg, nil
}

// Refresh reloads messages from the server and merges them by id.
func (m *Messenger) Refresh(ctx context.Context) error {
	list, err := m.backend.Messages(ctx)
	if err != nil {
		m.list.setErr(api.Detail(err, "Failed to load messages"))
		return err
	}
	m.list.merge(list)
	return nil
}

// Messages returns a copy of the message list.
func (m *Messenger) Messages() []api.Message {
	return m.list.snapshot()
}

// Conversation returns the messages exchanged with userID.
func (m *Messenger) Conversation(userID int64) []api.Message {
	me, _ := m.current()
	if me == nil {
		return nil
	}
	var out []api.Message
	for _, msg := range m.list.snapshot() {
		if (msg.Sender == me.UserID && msg.Receiver == userID) ||
			(msg.Sender == userID && msg.Receiver == me.UserID) {
			out = append(out, msg)
		}
	}
	return out
}

// Err returns the visible error, or "".
func (m *Messenger) Err() string {
	return m.list.err()
}

func (m *Messenger) ClearErr() {
	m.list.setErr("")
}

// OnChange registers fn to be called after every change of the list or
// the error. fn must not block.
func (m *Messenger) OnChange(fn func()) {
	m.list.setListener(fn)
}

// TempFilePreview writes data to a temp file and returns its file URL.
// Release removes the file.
func TempFilePreview(name string, data []byte) (string, func(), error) {
	f, err := os.CreateTemp("", "minisocial-preview-*"+filepath.Ext(name))
	if err != nil {
		return "", nil, err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", nil, err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", nil, err
	}
	path := f.Name()
	var once sync.Once
	return "file://" + filepath.ToSlash(path), func() {
		once.Do(func() { os.Remove(path) })
	}, nil
}
