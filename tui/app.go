// Package tui is the full screen chat front end: a contact list and a live
// conversation view on top of a ws.Messenger.
package tui

import (
	"context"
	"errors"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/mqy/minisocial/api"
	"github.com/mqy/minisocial/contacts"
	"github.com/mqy/minisocial/ws"
)

// Messenger is the conversation state the chat page renders.
type Messenger interface {
	Conversation(userID int64) []api.Message
	Err() string
	ClearErr()
	IsOpen() bool
	OnChange(fn func())
	Refresh(ctx context.Context) error
	SendText(ctx context.Context, receiver int64, content string) (*api.Message, error)
	SendAttachment(ctx context.Context, receiver int64, content string, f *api.File) (*api.Message, error)
}

var _ Messenger = (*ws.Messenger)(nil)

// Contacts lists the people the user can open a chat with.
type Contacts interface {
	Contacts() []contacts.Contact
	Lookup(userID int64) (contacts.Contact, bool)
}

var _ Contacts = (*contacts.Book)(nil)

type Config struct {
	Me        *api.Profile
	Messenger Messenger
	Contacts  Contacts
	// Open opens a local file for upload. release closes it.
	Open func(path string) (f *api.File, release func(), err error)
	// Describe renders an error for the status line.
	Describe func(err error) string
}

var errNoUpload = errors.New("file upload is not available")

// App is one full screen session.
type App struct {
	cfg    Config
	app    *tview.Application
	pages  *tview.Pages
	screen tcell.Screen

	ctx   context.Context
	dirty chan struct{}

	// UI goroutine only
	peer         int64
	fromContacts bool
	contacts     []contacts.Contact
	contactsList *tview.List
	chatView     *tview.TextView
	messageInput *tview.InputField
	statusLine   *tview.TextView
	status       string
}

func New(cfg Config) *App {
	if cfg.Describe == nil {
		cfg.Describe = func(err error) string { return err.Error() }
	}
	if cfg.Open == nil {
		cfg.Open = func(string) (*api.File, func(), error) { return nil, nil, errNoUpload }
	}
	return &App{
		cfg:   cfg,
		app:   tview.NewApplication(),
		pages: tview.NewPages(),
		dirty: make(chan struct{}, 1),
	}
}

// Run shows the chat with peer, or the contact list when peer is 0, until
// the user quits or ctx is done.
func (a *App) Run(ctx context.Context, peer int64) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	a.ctx = ctx

	if a.screen != nil {
		a.app.SetScreen(a.screen)
	}

	background := tview.NewBox()
	background.SetBackgroundColor(ColorBg)
	a.pages.AddPage("background", background, true, true)
	a.pages.AddPage("contacts", a.createContactsPage(), true, peer == 0)
	a.fromContacts = peer == 0
	if peer != 0 {
		a.openChat(peer)
	}

	a.cfg.Messenger.OnChange(a.changed)
	defer a.cfg.Messenger.OnChange(nil)
	go a.pump(ctx)
	go func() {
		<-ctx.Done()
		a.app.Stop()
	}()

	return a.app.SetRoot(a.pages, true).EnableMouse(false).Run()
}

func (a *App) quit() {
	a.app.Stop()
}

// changed is the messenger listener. It may run on any goroutine,
// including the UI one, so it only marks the view dirty.
func (a *App) changed() {
	select {
	case a.dirty <- struct{}{}:
	default:
	}
}

func (a *App) pump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-a.dirty:
			a.app.QueueUpdateDraw(a.refreshChatView)
		}
	}
}

// setStatusLater shows text in the status line. Safe off the UI goroutine.
func (a *App) setStatusLater(text string) {
	a.app.QueueUpdateDraw(func() {
		a.status = text
		a.refreshChatView()
	})
}

func newHintBar(text string) *tview.TextView {
	hint := tview.NewTextView()
	hint.SetBackgroundColor(ColorHintBg)
	hint.SetTextColor(ColorTitle)
	hint.SetTextAlign(tview.AlignCenter)
	hint.SetText(text)
	return hint
}
