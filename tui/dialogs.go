package tui

import (
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

func (a *App) showFileDialog() {
	form := tview.NewForm()
	form.SetBackgroundColor(ColorBg)
	form.SetFieldBackgroundColor(ColorFieldBg)
	form.SetFieldTextColor(ColorFg)
	form.SetLabelColor(ColorHighlight)
	form.SetButtonBackgroundColor(ColorHintBg)
	form.SetButtonTextColor(ColorTitle)
	form.SetBorder(true)
	form.SetBorderColor(ColorBorder)
	form.SetTitle(" Send File ")
	form.SetTitleColor(ColorTitle)

	statusLabel := tview.NewTextView()
	statusLabel.SetBackgroundColor(ColorBg)
	statusLabel.SetTextColor(tcell.ColorRed)

	pathField := tview.NewInputField().SetLabel("Path: ").SetFieldWidth(40)
	captionField := tview.NewInputField().SetLabel("Caption: ").SetFieldWidth(40)
	form.AddFormItem(pathField)
	form.AddFormItem(captionField)

	form.AddButton("Send", func() {
		path := strings.TrimSpace(pathField.GetText())
		if path == "" {
			statusLabel.SetText("Path is required")
			return
		}
		f, release, err := a.cfg.Open(path)
		if err != nil {
			statusLabel.SetText(err.Error())
			return
		}
		a.closeDialog()

		peer, caption := a.peer, captionField.GetText()
		a.status = ""
		a.cfg.Messenger.ClearErr()
		go func() {
			defer release()
			if _, err := a.cfg.Messenger.SendAttachment(a.ctx, peer, caption, f); err != nil {
				a.setStatusLater(a.cfg.Describe(err))
			}
		}()
	})
	form.AddButton("Cancel", a.closeDialog)
	form.SetCancelFunc(a.closeDialog)

	flex := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().
			AddItem(nil, 0, 1, false).
			AddItem(form, 56, 0, true).
			AddItem(nil, 0, 1, false), 9, 0, true).
		AddItem(tview.NewFlex().
			AddItem(nil, 0, 1, false).
			AddItem(statusLabel, 56, 0, false).
			AddItem(nil, 0, 1, false), 1, 0, false).
		AddItem(nil, 0, 1, false)
	flex.SetBackgroundColor(ColorBg)

	a.pages.AddPage("dialog", flex, true, true)
	a.app.SetFocus(form)
}

func (a *App) closeDialog() {
	a.pages.RemovePage("dialog")
	if a.messageInput != nil {
		a.app.SetFocus(a.messageInput)
	}
}
