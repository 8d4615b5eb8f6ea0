package tui

import "github.com/gdamore/tcell/v2"

var (
	ColorBg        = tcell.NewRGBColor(16, 16, 32)
	ColorFieldBg   = tcell.NewRGBColor(32, 32, 64)
	ColorFg        = tcell.NewRGBColor(208, 208, 208)
	ColorBorder    = tcell.NewRGBColor(96, 160, 224)
	ColorTitle     = tcell.NewRGBColor(255, 255, 255)
	ColorHighlight = tcell.NewRGBColor(96, 160, 224)
	ColorHintBg    = tcell.NewRGBColor(32, 96, 128)
	ColorError     = tcell.NewRGBColor(255, 96, 96)
)
