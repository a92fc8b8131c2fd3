package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up         key.Binding
	down       key.Binding
	uploadRef  key.Binding
	uploadGal  key.Binding
	toggle     key.Binding
	match      key.Binding
	download   key.Binding
	preview    key.Binding
	previewRef key.Binding
	focus      key.Binding
	submit     key.Binding
	back       key.Binding
	copy       key.Binding
	open       key.Binding
	quit       key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		uploadRef:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "upload reference")),
		uploadGal:  key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "upload gallery")),
		toggle:     key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "show/hide gallery")),
		match:      key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "match images")),
		download:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "download all")),
		preview:    key.NewBinding(key.WithKeys("p", "enter"), key.WithHelp("p", "preview")),
		previewRef: key.NewBinding(key.WithKeys("P"), key.WithHelp("P", "preview reference")),
		focus:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch list")),
		submit:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "upload")),
		back:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
		copy:       key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "copy URL")),
		open:       key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open in browser")),
		quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.uploadRef, k.uploadGal, k.match, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.uploadRef, k.uploadGal, k.toggle},
		{k.match, k.download, k.preview, k.previewRef},
		{k.up, k.down, k.focus, k.quit},
	}
}
