package tui

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mqy/minisocial/api"
	"github.com/mqy/minisocial/contacts"
)

var alice = &api.Profile{UserID: 1, Username: "alice"}

type sendCall struct {
	receiver int64
	content  string
	file     string
}

// fakeMessenger keeps a conversation in memory and records sends.
type fakeMessenger struct {
	sync.Mutex
	messages []api.Message
	sends    []sendCall
	viewed   map[int64]int
	listener func()
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{viewed: make(map[int64]int)}
}

func (f *fakeMessenger) Conversation(userID int64) []api.Message {
	f.Lock()
	defer f.Unlock()
	f.viewed[userID]++
	return append([]api.Message(nil), f.messages...)
}

func (f *fakeMessenger) Err() string { return "" }

func (f *fakeMessenger) ClearErr() {}

func (f *fakeMessenger) IsOpen() bool { return true }

func (f *fakeMessenger) OnChange(fn func()) {
	f.Lock()
	f.listener = fn
	f.Unlock()
}

func (f *fakeMessenger) Refresh(ctx context.Context) error { return nil }

func (f *fakeMessenger) SendText(ctx context.Context, receiver int64, content string) (*api.Message, error) {
	return f.add(sendCall{receiver: receiver, content: content})
}

func (f *fakeMessenger) SendAttachment(ctx context.Context, receiver int64, content string, file *api.File) (*api.Message, error) {
	return f.add(sendCall{receiver: receiver, content: content, file: file.Name})
}

func (f *fakeMessenger) add(s sendCall) (*api.Message, error) {
	f.Lock()
	f.sends = append(f.sends, s)
	msg := api.Message{ID: int64(len(f.sends)), Sender: alice.UserID, Receiver: s.receiver, Content: s.content, Timestamp: time.Now()}
	f.messages = append(f.messages, msg)
	fn := f.listener
	f.Unlock()
	if fn != nil {
		fn()
	}
	return &msg, nil
}

func (f *fakeMessenger) calls() []sendCall {
	f.Lock()
	defer f.Unlock()
	return append([]sendCall(nil), f.sends...)
}

func (f *fakeMessenger) views(userID int64) int {
	f.Lock()
	defer f.Unlock()
	return f.viewed[userID]
}

type fakeContacts []contacts.Contact

func (c fakeContacts) Contacts() []contacts.Contact { return c }

func (c fakeContacts) Lookup(userID int64) (contacts.Contact, bool) {
	for _, x := range c {
		if x.ID == userID {
			return x, true
		}
	}
	return contacts.Contact{}, false
}

var friends = fakeContacts{
	{User: api.User{ID: 2, Username: "bob"}, Status: contacts.Accepted},
	{User: api.User{ID: 3, Username: "carol"}, Status: contacts.Accepted},
}

type harness struct {
	app    *App
	m      *fakeMessenger
	screen tcell.SimulationScreen
	done   chan error
}

func start(ctx context.Context, t *testing.T, peer int64, open func(string) (*api.File, func(), error)) *harness {
	t.Helper()
	h := &harness{
		m:      newFakeMessenger(),
		screen: tcell.NewSimulationScreen("UTF-8"),
		done:   make(chan error, 1),
	}
	h.app = New(Config{Me: alice, Messenger: h.m, Contacts: friends, Open: open})
	h.app.screen = h.screen

	drawn := make(chan struct{}, 1)
	h.app.app.SetAfterDrawFunc(func(tcell.Screen) {
		select {
		case drawn <- struct{}{}:
		default:
		}
	})
	go func() { h.done <- h.app.Run(ctx, peer) }()

	select {
	case <-drawn:
	case <-time.After(3 * time.Second):
		t.Fatal("first draw never happened")
	}
	return h
}

func (h *harness) typeText(s string) {
	for _, r := range s {
		h.screen.PostEventWait(tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone))
	}
}

func (h *harness) press(k tcell.Key) {
	h.screen.PostEventWait(tcell.NewEventKey(k, 0, tcell.ModNone))
}

func (h *harness) waitExit(t *testing.T) {
	t.Helper()
	select {
	case err := <-h.done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("app did not exit")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, 3*time.Second, 10*time.Millisecond)
}

func TestChatSendsTypedLine(t *testing.T) {
	h := start(context.Background(), t, 2, nil)

	h.typeText("  hi bob ")
	h.press(tcell.KeyEnter)
	waitFor(t, func() bool { return len(h.m.calls()) == 1 })
	assert.Equal(t, sendCall{receiver: 2, content: "hi bob"}, h.m.calls()[0])

	// blank lines are not sent
	h.typeText("   ")
	h.press(tcell.KeyEnter)

	// the listener redraws the conversation
	views := h.m.views(2)
	h.typeText("again")
	h.press(tcell.KeyEnter)
	waitFor(t, func() bool { return len(h.m.calls()) == 2 && h.m.views(2) > views })
	assert.Equal(t, "again", h.m.calls()[1].content)

	h.press(tcell.KeyEsc)
	h.waitExit(t)
}

func TestContactListOpensChat(t *testing.T) {
	h := start(context.Background(), t, 0, nil)
	assert.Zero(t, h.m.views(2))

	// carol is second
	h.press(tcell.KeyDown)
	h.press(tcell.KeyEnter)
	waitFor(t, func() bool { return h.m.views(3) > 0 })

	h.typeText("yo")
	h.press(tcell.KeyEnter)
	waitFor(t, func() bool { return len(h.m.calls()) == 1 })
	assert.Equal(t, int64(3), h.m.calls()[0].receiver)

	// back to the list, then quit
	h.press(tcell.KeyEsc)
	h.press(tcell.KeyEsc)
	h.waitExit(t)
}

func TestFileDialogSendsAttachment(t *testing.T) {
	var opened []string
	var released int
	var mu sync.Mutex
	open := func(path string) (*api.File, func(), error) {
		mu.Lock()
		defer mu.Unlock()
		opened = append(opened, path)
		return &api.File{Name: "cat.png", ContentType: "image/png", Body: strings.NewReader("PNG")}, func() {
			mu.Lock()
			released++
			mu.Unlock()
		}, nil
	}
	h := start(context.Background(), t, 2, open)

	h.press(tcell.KeyF2)
	h.typeText("/tmp/cat.png")
	h.press(tcell.KeyTab)
	h.typeText("look")
	h.press(tcell.KeyTab)
	h.press(tcell.KeyEnter)

	waitFor(t, func() bool { return len(h.m.calls()) == 1 })
	assert.Equal(t, sendCall{receiver: 2, content: "look", file: "cat.png"}, h.m.calls()[0])
	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return released == 1
	})
	mu.Lock()
	assert.Equal(t, []string{"/tmp/cat.png"}, opened)
	mu.Unlock()

	h.press(tcell.KeyEsc)
	h.waitExit(t)
}

func TestCancelStopsApp(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := start(ctx, t, 2, nil)
	cancel()
	h.waitExit(t)
}
