package main

import (
	"context"
	"flag"
	"fmt"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/mqy/minisocial/contacts"
	"github.com/mqy/minisocial/tui"
	"github.com/mqy/minisocial/ws"
)

// settleWait bounds how long `send` waits for the channel echo.
const settleWait = 3 * time.Second

// messenger mounts a messenger for the logged in user and resolves
// username among the contacts.
func (a *app) messenger(ctx context.Context, username string) (*ws.Messenger, contacts.Contact, error) {
	b, c, err := a.contact(ctx, username)
	if err != nil {
		return nil, c, err
	}
	return a.mount(ctx, b), c, nil
}

// mount opens a messenger with b as the friend list.
func (a *app) mount(ctx context.Context, b *contacts.Book) *ws.Messenger {
	m := ws.NewMessenger(a.client, b, ws.Options{
		ChannelURL: a.client.ChannelURL(),
		Jar:        a.client.Jar(),
		Keepalive:  *flagKeepalive,
	})
	if err := m.Mount(ctx, a.me()); err != nil {
		// sends fall back to plain requests
		glog.Errorf("chat: live channel unavailable: %v", err)
	}
	return m
}

// waitSettled waits until the optimistic entry tempID was replaced by the
// server's copy.
func (a *app) waitSettled(ctx context.Context, m *ws.Messenger, tempID string) {
	settled := make(chan struct{})
	var once sync.Once
	check := func() {
		for _, msg := range m.Messages() {
			if msg.IsTemporary && msg.TempID == tempID {
				return
			}
		}
		once.Do(func() { close(settled) })
	}
	m.OnChange(check)
	defer m.OnChange(nil)
	check()

	select {
	case <-settled:
	case <-time.After(settleWait):
		glog.Errorf("send: no confirmation from the server yet")
	case <-ctx.Done():
	}
	if e := m.Err(); e != "" {
		a.printf("! %s\n", e)
	}
}

func cmdChat(ctx context.Context, a *app, args []string) error {
	if len(args) > 1 {
		return errUsage
	}
	b, err := a.book(ctx)
	if err != nil {
		return err
	}
	var peer int64
	if len(args) == 1 {
		c, ok := b.ByUsername(args[0])
		if !ok {
			return fmt.Errorf("no user `%s`", args[0])
		}
		peer = c.ID
	}

	m := a.mount(ctx, b)
	defer m.Unmount()

	// errors go to the log files only while the screen is taken
	if err := flag.Set("stderrthreshold", "FATAL"); err != nil {
		glog.Warningf("chat: %v", err)
	}

	return tui.New(tui.Config{
		Me:        a.me(),
		Messenger: m,
		Contacts:  b,
		Open:      openUpload,
		Describe:  describe,
	}).Run(ctx, peer)
}
