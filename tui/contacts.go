package tui

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/mqy/minisocial/contacts"
)

func (a *App) createContactsPage() tview.Primitive {
	a.contactsList = tview.NewList()
	a.contactsList.ShowSecondaryText(false)
	a.contactsList.SetBorder(true)
	a.contactsList.SetBorderColor(ColorBorder)
	a.contactsList.SetBackgroundColor(ColorBg)
	a.contactsList.SetMainTextColor(ColorFg)
	a.contactsList.SetSelectedBackgroundColor(ColorHighlight)
	a.contactsList.SetTitle(fmt.Sprintf(" %s ─ contacts ", a.cfg.Me.Username))
	a.contactsList.SetTitleColor(ColorTitle)
	a.contactsList.SetSelectedFunc(func(i int, _, _ string, _ rune) {
		if i >= 0 && i < len(a.contacts) {
			a.openChat(a.contacts[i].ID)
		}
	})
	a.updateContactsList()

	flex := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.contactsList, 0, 1, true).
		AddItem(newHintBar(" Enter:Chat | Esc:Quit "), 1, 0, false)
	flex.SetBackgroundColor(ColorBg)
	flex.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEsc {
			a.quit()
			return nil
		}
		return event
	})
	return flex
}

func (a *App) updateContactsList() {
	current := a.contactsList.GetCurrentItem()
	a.contactsList.Clear()

	now := time.Now()
	a.contacts = a.cfg.Contacts.Contacts()
	for _, c := range a.contacts {
		a.contactsList.AddItem(contactText(c, now), "", 0, nil)
	}

	if current >= 0 && current < a.contactsList.GetItemCount() {
		a.contactsList.SetCurrentItem(current)
	}
}

// contactText is one line of the contact list: a friend marker, the name,
// a pending status and the last interaction.
func contactText(c contacts.Contact, now time.Time) string {
	text := "[gray]○[-] " + tview.Escape(c.Username)
	if c.Status == contacts.Accepted {
		text = "[green]●[-] " + tview.Escape(c.Username)
	} else if c.Status != contacts.None {
		text += " [gray](" + c.Status.String() + ")[-]"
	}
	if c.LastInteraction != nil {
		text += " [gray]─ " + formatLastSeen(*c.LastInteraction, now) + "[-]"
	}
	return text
}
