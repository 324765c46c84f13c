package ui

import (
	"github.com/charmbracelet/lipgloss"
)

var styles = NewPalette(Scheme{
	Title:   "#7D56F4",
	OK:      "#04B575",
	Error:   "#FF0000",
	Warn:    "#FFA500",
	Help:    "#626262",
	Spinner: "#7D56F4",
})

// Scheme names the foreground color of each role in the UI.
type Scheme struct {
	Title, OK, Error, Warn, Help, Spinner string
}

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
	spin  lipgloss.Style
}

func NewPalette(s Scheme) *Palette {
	return &Palette{
		title: NewBold(s.Title).MarginBottom(1),
		ok:    NewBold(s.OK),
		err:   NewBold(s.Error),
		warn:  NewStyle(s.Warn),
		help:  NewEm(s.Help),
		spin:  NewStyle(s.Spinner),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}
