package tts

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Messages for Bubble Tea communication between the speech layer and the UI.

// EventMsg carries a playback lifecycle event.
type EventMsg struct {
	Event
}

// VoicesChangedMsg carries a refreshed voice list.
type VoicesChangedMsg struct {
	Voices []Voice
}

// WaitForEvent returns a command that delivers the next controller event.
// The UI re-issues it after handling each EventMsg.
func WaitForEvent(c *Controller) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-c.Events()
		if !ok {
			return nil
		}
		return EventMsg{Event: ev}
	}
}

// VoiceFeed forwards catalog refreshes to the UI. Only the latest list
// matters, so a pending list is replaced rather than queued.
type VoiceFeed struct {
	ch chan []Voice
}

// NewVoiceFeed subscribes a feed to the catalog.
func NewVoiceFeed(c *Catalog) *VoiceFeed {
	f := &VoiceFeed{ch: make(chan []Voice, 1)}
	c.OnChange(f.push)
	return f
}

func (f *VoiceFeed) push(voices []Voice) {
	for {
		select {
		case f.ch <- voices:
			return
		default:
		}
		select {
		case <-f.ch:
		default:
		}
	}
}

// Wait returns a command that delivers the next voice list.
func (f *VoiceFeed) Wait() tea.Cmd {
	return func() tea.Msg {
		voices, ok := <-f.ch
		if !ok {
			return nil
		}
		return VoicesChangedMsg{Voices: voices}
	}
}
