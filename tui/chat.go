package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/mqy/minisocial/contacts"
)

const chatHints = " Enter:Send | F2:File | F5:Refresh | Tab:Scroll | Esc:Back "

func (a *App) openChat(peer int64) {
	a.peer = peer
	a.status = ""
	a.pages.AddPage("chat", a.createChatPage(), true, true)
	a.pages.SwitchToPage("chat")
	a.app.SetFocus(a.messageInput)
	a.refreshChatView()
}

func (a *App) chatTitle() string {
	name := strconv.FormatInt(a.peer, 10)
	var note string
	if c, ok := a.cfg.Contacts.Lookup(a.peer); ok {
		name = c.Username
		if c.Status != contacts.Accepted {
			note = " ─ not a friend"
		}
	}
	state := "○ offline"
	if a.cfg.Messenger.IsOpen() {
		state = "● live"
	}
	return fmt.Sprintf(" %s ─ %s%s ", name, state, note)
}

func (a *App) createChatPage() tview.Primitive {
	a.chatView = tview.NewTextView()
	a.chatView.SetBorder(true)
	a.chatView.SetBorderColor(ColorBorder)
	a.chatView.SetBackgroundColor(ColorBg)
	a.chatView.SetTitleColor(ColorTitle)
	a.chatView.SetTextColor(ColorFg)
	a.chatView.SetDynamicColors(true)
	a.chatView.SetScrollable(true)

	a.statusLine = tview.NewTextView()
	a.statusLine.SetBackgroundColor(ColorBg)
	a.statusLine.SetTextColor(ColorError)

	a.messageInput = tview.NewInputField()
	a.messageInput.SetLabel("> ")
	a.messageInput.SetFieldWidth(0)
	a.messageInput.SetBackgroundColor(ColorBg)
	a.messageInput.SetFieldBackgroundColor(ColorFieldBg)
	a.messageInput.SetFieldTextColor(ColorFg)
	a.messageInput.SetLabelColor(ColorHighlight)
	a.messageInput.SetBorder(true)
	a.messageInput.SetBorderColor(ColorBorder)
	a.messageInput.SetTitle(" Message ")
	a.messageInput.SetTitleColor(ColorTitle)
	a.messageInput.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter {
			return
		}
		text := strings.TrimSpace(a.messageInput.GetText())
		if text == "" {
			return
		}
		a.messageInput.SetText("")
		a.sendText(text)
	})

	hints := newHintBar(chatHints)

	mainFlex := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.chatView, 0, 1, false).
		AddItem(a.statusLine, 1, 0, false).
		AddItem(a.messageInput, 3, 0, true).
		AddItem(hints, 1, 0, false)
	mainFlex.SetBackgroundColor(ColorBg)

	chatViewFocused := false
	mainFlex.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyEsc:
			if chatViewFocused {
				chatViewFocused = false
				a.app.SetFocus(a.messageInput)
				hints.SetText(chatHints)
				return nil
			}
			a.closeChat()
			return nil
		case tcell.KeyTab:
			chatViewFocused = !chatViewFocused
			if chatViewFocused {
				a.app.SetFocus(a.chatView)
				hints.SetText(" ↑↓/PgUp/PgDn:Scroll | Home:Top | End:Bottom | Tab/Esc:Input ")
			} else {
				a.app.SetFocus(a.messageInput)
				hints.SetText(chatHints)
			}
			return nil
		case tcell.KeyF2:
			a.showFileDialog()
			return nil
		case tcell.KeyF5:
			a.refresh()
			return nil
		case tcell.KeyPgUp:
			row, col := a.chatView.GetScrollOffset()
			a.chatView.ScrollTo(row-10, col)
			return nil
		case tcell.KeyPgDn:
			row, col := a.chatView.GetScrollOffset()
			a.chatView.ScrollTo(row+10, col)
			return nil
		}
		return event
	})

	return mainFlex
}

func (a *App) refreshChatView() {
	if a.chatView == nil {
		return
	}
	_, _, width, _ := a.chatView.GetInnerRect()
	a.chatView.SetTitle(a.chatTitle())
	a.chatView.SetText(formatConversation(a.cfg.Me.UserID, a.cfg.Messenger.Conversation(a.peer), width, time.Now()))
	a.chatView.ScrollToEnd()

	text := a.status
	if text == "" {
		text = a.cfg.Messenger.Err()
	}
	a.statusLine.SetText(text)
}

func (a *App) sendText(text string) {
	peer := a.peer
	a.status = ""
	a.cfg.Messenger.ClearErr()
	go func() {
		if _, err := a.cfg.Messenger.SendText(a.ctx, peer, text); err != nil {
			a.setStatusLater(a.cfg.Describe(err))
		}
	}()
}

func (a *App) refresh() {
	a.status = ""
	go func() {
		if err := a.cfg.Messenger.Refresh(a.ctx); err != nil {
			a.setStatusLater(a.cfg.Describe(err))
		}
	}()
}

func (a *App) closeChat() {
	a.peer = 0
	a.chatView = nil
	a.messageInput = nil
	a.statusLine = nil
	a.pages.RemovePage("chat")
	if !a.fromContacts {
		a.quit()
		return
	}
	a.updateContactsList()
	a.pages.SwitchToPage("contacts")
	a.app.SetFocus(a.contactsList)
}
