package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mqy/minisocial/api"
	"github.com/mqy/minisocial/contacts"
)

var now = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

func TestFormatConversation(t *testing.T) {
	msgs := []api.Message{
		{ID: 1, Sender: 2, SenderUsername: "bob", Receiver: 1, Content: "hello [red]x",
			Timestamp: time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)},
		{TempID: "temp-1", IsTemporary: true, Sender: 1, Receiver: 2, Content: "hi",
			Timestamp: time.Date(2026, 10, 17, 9, 31, 0, 0, time.UTC)},
		{ID: 3, Sender: 1, Receiver: 2, Content: "see",
			AttachmentURL: "/api/messages/3/attachment/", AttachmentContentType: "image/png",
			Timestamp: time.Date(2026, 10, 18, 8, 0, 0, 0, time.UTC)},
	}

	want := strings.Join([]string{
		"[gray]     Yesterday[-]",
		"[gray]09:30[-] [yellow]← bob:[-] hello [red[]x",
		"[gray]09:31[-] [white]→ hi[-] [gray]○[-]",
		"[gray]       Today[-]",
		"[gray]08:00[-] [white]→ see (image/png /api/messages/3/attachment/)[-] [green]✓[-]",
		"",
	}, "\n")
	assert.Equal(t, want, formatConversation(1, msgs, 20, now))
	assert.Empty(t, formatConversation(1, nil, 20, now))
}

func TestMessageTextPrefersPreview(t *testing.T) {
	m := &api.Message{
		IsTemporary:           true,
		AttachmentContentType: "image/png",
		PreviewURL:            "file:///tmp/p.png",
	}
	assert.Equal(t, "(image/png file:///tmp/p.png)", messageText(m))
}

func TestFormatDateSeparator(t *testing.T) {
	assert.Equal(t, "Today", formatDateSeparator(now.Add(-11*time.Hour), now))
	assert.Equal(t, "Yesterday", formatDateSeparator(now.Add(-13*time.Hour), now))
	assert.Equal(t, "March 3", formatDateSeparator(time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC), now))
	assert.Equal(t, "March 3, 2025", formatDateSeparator(time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC), now))
}

func TestFormatLastSeen(t *testing.T) {
	for d, want := range map[time.Duration]string{
		30 * time.Second:    "just now",
		time.Minute:         "1 min ago",
		5 * time.Minute:     "5 min ago",
		time.Hour:           "1 hour ago",
		3 * time.Hour:       "3 hours ago",
		24 * time.Hour:      "1 day ago",
		48 * time.Hour:      "2 days ago",
		60 * 24 * time.Hour: "Aug 19, 2026",
	} {
		assert.Equal(t, want, formatLastSeen(now.Add(-d), now), d.String())
	}
}

func TestContactText(t *testing.T) {
	last := now.Add(-2 * time.Hour)
	assert.Equal(t, "[green]●[-] bob", contactText(contacts.Contact{
		User:   api.User{ID: 2, Username: "bob"},
		Status: contacts.Accepted,
	}, now))
	assert.Equal(t, "[gray]○[-] carol [gray](pending_received)[-] [gray]─ 2 hours ago[-]", contactText(contacts.Contact{
		User:   api.User{ID: 3, Username: "carol", LastInteraction: &last},
		Status: contacts.PendingReceived,
	}, now))
	assert.Equal(t, "[gray]○[-] dave", contactText(contacts.Contact{
		User: api.User{ID: 4, Username: "dave"},
	}, now))
}
