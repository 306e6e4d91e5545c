package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Edit      key.Binding
	Done      key.Binding
	Rewrite   key.Binding
	Play      key.Binding
	NextTone  key.Binding
	PrevTone  key.Binding
	NextLang  key.Binding
	PrevLang  key.Binding
	NextVoice key.Binding
	PrevVoice key.Binding
	PitchDown key.Binding
	PitchUp   key.Binding
	RateDown  key.Binding
	RateUp    key.Binding
	Save      key.Binding
	Copy      key.Binding
	Dismiss   key.Binding
	Help      key.Binding
	Quit      key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Edit: key.NewBinding(
			key.WithKeys("e", "i", "tab"),
			key.WithHelp("e", "edit manuscript"),
		),
		Done: key.NewBinding(
			key.WithKeys("esc", "tab"),
			key.WithHelp("esc", "done editing"),
		),
		Rewrite: key.NewBinding(
			key.WithKeys("r", "ctrl+r"),
			key.WithHelp("r", "rewrite"),
		),
		Play: key.NewBinding(
			key.WithKeys(" ", "p"),
			key.WithHelp("space", "play"),
		),
		NextTone: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t/T", "tone"),
		),
		PrevTone: key.NewBinding(
			key.WithKeys("T"),
		),
		NextLang: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l/L", "language"),
		),
		PrevLang: key.NewBinding(
			key.WithKeys("L"),
		),
		NextVoice: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v/V", "voice"),
		),
		PrevVoice: key.NewBinding(
			key.WithKeys("V"),
		),
		PitchDown: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[/]", "pitch"),
		),
		PitchUp: key.NewBinding(
			key.WithKeys("]"),
		),
		RateDown: key.NewBinding(
			key.WithKeys("-", "_"),
			key.WithHelp("-/+", "rate"),
		),
		RateUp: key.NewBinding(
			key.WithKeys("+", "="),
		),
		Save: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "save script"),
		),
		Copy: key.NewBinding(
			key.WithKeys("c", "y"),
			key.WithHelp("c", "copy script"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "dismiss error"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Edit, k.Rewrite, k.Play, k.Save, k.Dismiss, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Edit, k.Rewrite, k.NextTone},
		{k.Play, k.NextLang, k.NextVoice},
		{k.PitchDown, k.RateDown},
		{k.Save, k.Copy, k.Dismiss},
		{k.Help, k.Quit},
	}
}

// editingKeys is the help shown while the manuscript has focus.
type editingKeys struct {
	done    key.Binding
	rewrite key.Binding
}

func (k editingKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.done, k.rewrite}
}

func (k editingKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
