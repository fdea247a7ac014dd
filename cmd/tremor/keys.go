package main

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Play    key.Binding
	Reset   key.Binding
	Faster  key.Binding
	Slower  key.Binding
	Back    key.Binding
	Forward key.Binding
	Jump    key.Binding
	Quit    key.Binding
}

// scrubNudge is the fraction of the extent moved by one arrow key press
const scrubNudge = 0.001

func newKeyMap() keyMap {
	return keyMap{
		Play: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "play/pause"),
		),
		Reset: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reset"),
		),
		Faster: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "longer step"),
		),
		Slower: key.NewBinding(
			key.WithKeys("-", "_"),
			key.WithHelp("-", "shorter step"),
		),
		Back: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←", "back"),
		),
		Forward: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→", "forward"),
		),
		Jump: key.NewBinding(
			key.WithKeys("0", "1", "2", "3", "4", "5", "6", "7", "8", "9"),
			key.WithHelp("0-9", "jump"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp lists the bindings shown in the footer
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Play, k.Reset, k.Faster, k.Slower, k.Back, k.Forward, k.Jump, k.Quit,
	}
}

// FullHelp is the footer in a single column
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
