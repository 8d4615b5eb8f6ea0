package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/rivo/tview"

	"github.com/mqy/minisocial/api"
)

// formatConversation renders msgs as tview text, with a centered date line
// whenever the day changes. Entries of me are marked pending until the
// server confirmed them.
func formatConversation(me int64, msgs []api.Message, width int, now time.Time) string {
	if width < 10 {
		width = 80
	}

	var sb strings.Builder
	var lastDay string
	for i := range msgs {
		m := &msgs[i]
		ts := m.Timestamp.In(now.Location())

		if day := ts.Format("2006-01-02"); day != lastDay {
			label := formatDateSeparator(ts, now)
			padding := (width - len(label)) / 2
			if padding < 0 {
				padding = 0
			}
			fmt.Fprintf(&sb, "[gray]%s%s[-]\n", strings.Repeat(" ", padding), label)
			lastDay = day
		}

		if m.Sender == me {
			fmt.Fprintf(&sb, "[gray]%s[-] [white]→ %s[-] %s\n", ts.Format("15:04"), messageText(m), statusIcon(m))
		} else {
			fmt.Fprintf(&sb, "[gray]%s[-] [yellow]← %s:[-] %s\n", ts.Format("15:04"),
				tview.Escape(m.SenderUsername), messageText(m))
		}
	}
	return sb.String()
}

func messageText(m *api.Message) string {
	text := tview.Escape(m.Content)
	url := m.AttachmentURL
	if m.PreviewURL != "" {
		url = m.PreviewURL
	}
	if url != "" {
		text = strings.TrimSpace(text + " " + tview.Escape("("+m.AttachmentContentType+" "+url+")"))
	}
	return text
}

func statusIcon(m *api.Message) string {
	if m.IsTemporary {
		return "[gray]○[-]"
	}
	return "[green]✓[-]"
}

func formatDateSeparator(t, now time.Time) string {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, now.Location())

	switch {
	case day.Equal(today):
		return "Today"
	case day.Equal(today.AddDate(0, 0, -1)):
		return "Yesterday"
	case day.Year() == now.Year():
		return t.Format("January 2")
	}
	return t.Format("January 2, 2006")
}

func formatLastSeen(t, now time.Time) string {
	diff := now.Sub(t)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return plural(int(diff.Minutes()), "min") + " ago"
	case diff < 24*time.Hour:
		return plural(int(diff.Hours()), "hour") + " ago"
	case diff < 30*24*time.Hour:
		return plural(int(diff.Hours()/24), "day") + " ago"
	}
	return t.Format("Jan 2, 2006")
}

func plural(n int, unit string) string {
	if n == 1 || unit == "min" {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
