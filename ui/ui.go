// Package ui is the Echoverse terminal front end.
package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
	runewidth "github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/termenv"

	"github.com/echoverse/echoverse/export"
	"github.com/echoverse/echoverse/rewrite"
	"github.com/echoverse/echoverse/studio"
	"github.com/echoverse/echoverse/tts"
)

const (
	statusMessageTimeout = time.Second * 3 // how long to show status messages like "saved!"
	ellipsis             = "…"

	controlsHeight  = 4
	statusBarHeight = 1
	maxVoiceWidth   = 32
)

// Deps are the services the TUI drives.
type Deps struct {
	Studio   *studio.Controller
	Rewriter studio.Rewriter
	Speech   *tts.Controller // source of playback events, may be nil
	Voices   *tts.VoiceFeed  // source of voice list refreshes, may be nil
}

// NewProgram returns a new Tea program.
func NewProgram(cfg Config, deps Deps) *tea.Program {
	log.Debug(
		"Starting echoverse",
		"glamour",
		cfg.GlamourEnabled,
	)

	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if cfg.EnableMouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	return tea.NewProgram(newModel(cfg, deps), opts...)
}

type (
	rewriteDoneMsg struct {
		token uint64
		text  string
		err   error
	}
	savedMsg struct {
		path string
		size uint64
		err  error
	}
	statusMessageTimeoutMsg int
)

type focus int

const (
	focusControls focus = iota
	focusManuscript
)

type statusMessage struct {
	text    string
	isError bool
}

// Common stuff we'll need to access in all models.
type commonModel struct {
	cfg    Config
	width  int
	height int
}

type model struct {
	common   *commonModel
	studio   *studio.Controller
	rewriter studio.Rewriter
	speech   *tts.Controller
	voices   *tts.VoiceFeed

	keys        keyMap
	editingKeys editingKeys
	help        help.Model
	editor      textarea.Model
	result      viewport.Model
	spinner     spinner.Model
	focus       focus
	showHelp    bool

	// Rewritten text currently rendered into the result pane.
	rendered string

	status    statusMessage
	statusSeq int
}

func newModel(cfg Config, deps Deps) tea.Model {
	if cfg.GlamourStyle == "" {
		cfg.GlamourStyle = "auto"
	}

	common := &commonModel{cfg: cfg}

	editor := textarea.New()
	editor.Placeholder = "Paste or type your manuscript…"
	editor.ShowLineNumbers = false
	editor.CharLimit = 0
	editor.SetValue(deps.Studio.Snapshot().Manuscript)
	editor.Blur()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = lipgloss.NewStyle().Foreground(fuchsia)

	keys := newKeyMap()
	return model{
		common:   common,
		studio:   deps.Studio,
		rewriter: deps.Rewriter,
		speech:   deps.Speech,
		voices:   deps.Voices,
		keys:     keys,
		editingKeys: editingKeys{
			done:    keys.Done,
			rewrite: key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "rewrite")),
		},
		help:    help.New(),
		editor:  editor,
		result:  viewport.New(0, 0),
		spinner: sp,
	}
}

func (m model) Init() tea.Cmd {
	var cmds []tea.Cmd
	if m.speech != nil {
		cmds = append(cmds, tts.WaitForEvent(m.speech))
	}
	if m.voices != nil {
		cmds = append(cmds, m.voices.Wait())
	}
	return tea.Batch(cmds...)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.common.width = msg.Width
		m.common.height = msg.Height
		m.setSize()
		m.rendered = ""
		m.syncResult()
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if msg.String() == "ctrl+z" {
			return m, tea.Suspend
		}
		if m.focus == focusManuscript {
			return m.updateEditing(msg)
		}
		return m.updateControls(msg)

	case rewriteDoneMsg:
		err := m.studio.CompleteRewrite(msg.token, msg.text, msg.err)
		switch {
		case errors.Is(err, studio.ErrStaleRewrite):
			return m, nil
		case err != nil:
			var re *rewrite.Error
			if errors.As(err, &re) {
				log.Error("Rewrite failed", "error", re.Detail())
			}
		}
		m.syncResult()
		return m, nil

	case spinner.TickMsg:
		if !m.studio.Snapshot().Rewriting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tts.EventMsg:
		log.Debug("Speech event", "kind", msg.Kind, "utterance", msg.UtteranceID)
		m.studio.HandleSpeechEvent(msg.Event)
		return m, tts.WaitForEvent(m.speech)

	case tts.VoicesChangedMsg:
		log.Debug("Voices changed", "count", len(msg.Voices))
		m.studio.VoicesChanged(msg.Voices)
		return m, m.voices.Wait()

	case savedMsg:
		if msg.err != nil {
			log.Error("Saving script failed", "error", msg.err)
			m.studio.SetError("Could not save " + export.FileName + ": " + msg.err.Error())
			return m, nil
		}
		return m, m.showStatusMessage(statusMessage{
			fmt.Sprintf("Saved %s (%s)", msg.path, humanize.Bytes(msg.size)), false,
		})

	case statusMessageTimeoutMsg:
		if int(msg) == m.statusSeq {
			m.status = statusMessage{}
		}
		return m, nil
	}

	if m.focus == focusManuscript {
		var cmd tea.Cmd
		m.editor, cmd = m.editor.Update(msg)
		cmds = append(cmds, cmd)
	} else {
		var cmd tea.Cmd
		m.result, cmd = m.result.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m model) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.editingKeys.done):
		m.editor.Blur()
		m.focus = focusControls
		return m, nil
	case key.Matches(msg, m.editingKeys.rewrite):
		return m, m.startRewrite()
	}

	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	m.studio.SetManuscript(m.editor.Value())
	return m, cmd
}

func (m model) updateControls(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Dismiss):
		m.studio.ClearError()
		return m, nil

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
		m.setSize()
		return m, nil

	case key.Matches(msg, m.keys.Edit):
		m.focus = focusManuscript
		return m, m.editor.Focus()

	case key.Matches(msg, m.keys.Rewrite):
		return m, m.startRewrite()

	case key.Matches(msg, m.keys.Play):
		if err := m.studio.TogglePlayback(); err != nil {
			log.Debug("Playback toggle rejected", "error", err)
		}
		return m, nil

	case key.Matches(msg, m.keys.NextTone):
		return m, m.cycleTone(1)
	case key.Matches(msg, m.keys.PrevTone):
		return m, m.cycleTone(-1)

	case key.Matches(msg, m.keys.NextLang):
		return m, m.cycleLanguage(1)
	case key.Matches(msg, m.keys.PrevLang):
		return m, m.cycleLanguage(-1)

	case key.Matches(msg, m.keys.NextVoice):
		return m, m.cycleVoice(1)
	case key.Matches(msg, m.keys.PrevVoice):
		return m, m.cycleVoice(-1)

	case key.Matches(msg, m.keys.PitchDown):
		return m, m.paramResult(m.studio.StepPitch(-1))
	case key.Matches(msg, m.keys.PitchUp):
		return m, m.paramResult(m.studio.StepPitch(1))
	case key.Matches(msg, m.keys.RateDown):
		return m, m.paramResult(m.studio.StepRate(-1))
	case key.Matches(msg, m.keys.RateUp):
		return m, m.paramResult(m.studio.StepRate(1))

	case key.Matches(msg, m.keys.Save):
		blob, err := m.studio.Download()
		if err != nil {
			return m, nil
		}
		return m, saveScript(m.common.cfg.ExportDir, blob)

	case key.Matches(msg, m.keys.Copy):
		blob, err := m.studio.Download()
		if err != nil {
			return m, nil
		}
		// Copy using OSC 52
		termenv.Copy(string(blob.Data))
		// Copy using native system clipboard
		_ = clipboard.WriteAll(string(blob.Data))
		return m, m.showStatusMessage(statusMessage{"Copied script", false})
	}

	var cmd tea.Cmd
	m.result, cmd = m.result.Update(msg)
	return m, cmd
}

func (m *model) startRewrite() tea.Cmd {
	m.studio.SetManuscript(m.editor.Value())
	req, err := m.studio.BeginRewrite(context.Background())
	if err != nil {
		log.Debug("Rewrite rejected", "error", err)
		return nil
	}
	log.Info("Rewriting manuscript", "tone", req.Tone, "token", req.Token)
	return tea.Batch(
		runRewrite(m.rewriter, req, m.common.cfg.RewriteTimeout),
		m.spinner.Tick,
	)
}

func (m *model) cycleTone(delta int) tea.Cmd {
	current := m.studio.Snapshot().Tone
	i := indexOf(len(rewrite.Tones), func(i int) bool { return rewrite.Tones[i] == current })
	next := rewrite.Tones[wrap(i+delta, len(rewrite.Tones))]
	if err := m.studio.SetTone(next); err != nil {
		return m.showStatusMessage(statusMessage{err.Error(), true})
	}
	return nil
}

func (m *model) cycleLanguage(delta int) tea.Cmd {
	current := m.studio.Snapshot().Language
	i := indexOf(len(studio.Languages), func(i int) bool { return studio.Languages[i].Tag == current })
	next := studio.Languages[wrap(i+delta, len(studio.Languages))]
	if err := m.studio.SetLanguage(next.Tag); err != nil {
		return m.showStatusMessage(statusMessage{err.Error(), true})
	}
	return nil
}

func (m *model) cycleVoice(delta int) tea.Cmd {
	snap := m.studio.Snapshot()
	if len(snap.Voices) == 0 {
		return m.showStatusMessage(statusMessage{
			"No voices for " + studio.LanguageLabel(snap.Language), true,
		})
	}
	i := indexOf(len(snap.Voices), func(i int) bool { return snap.Voices[i].Name == snap.Voice })
	if i < 0 && delta < 0 {
		// Nothing from this list is selected; step back onto its last entry.
		i = 0
	}
	next := snap.Voices[wrap(i+delta, len(snap.Voices))]
	if err := m.studio.SetVoice(next.Name); err != nil {
		return m.showStatusMessage(statusMessage{err.Error(), true})
	}
	return nil
}

func (m *model) paramResult(err error) tea.Cmd {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, studio.ErrParamsLocked):
		return m.showStatusMessage(statusMessage{"Stop playback to change pitch or rate", true})
	default:
		return m.showStatusMessage(statusMessage{err.Error(), true})
	}
}

// syncResult re-renders the result pane when the rewritten text changed.
func (m *model) syncResult() {
	text := m.studio.Result()
	if text == m.rendered && m.result.TotalLineCount() > 0 {
		return
	}
	m.rendered = text
	if m.common.width == 0 {
		m.result.SetContent(text)
		return
	}
	out, err := renderResult(m.common.cfg, text, m.result.Width)
	if err != nil {
		log.Error("error rendering result", "error", err)
		out = text
	}
	m.result.SetContent(out)
	m.result.GotoTop()
}

func (m *model) setSize() {
	w := max(m.common.width, 20)
	paneWidth := max(w/2-paneStyle.GetHorizontalFrameSize(), 10)

	helpHeight := 1
	if m.showHelp {
		helpHeight = lipgloss.Height(m.help.View(m.keys))
	}
	m.help.Width = w

	paneHeight := max(m.common.height-controlsHeight-statusBarHeight-helpHeight-
		paneStyle.GetVerticalFrameSize()-1, 3)

	m.editor.SetWidth(paneWidth)
	m.editor.SetHeight(paneHeight)
	m.result.Width = paneWidth
	m.result.Height = paneHeight
}

func (m *model) showStatusMessage(msg statusMessage) tea.Cmd {
	m.status = msg
	m.statusSeq++
	seq := m.statusSeq
	return tea.Tick(statusMessageTimeout, func(time.Time) tea.Msg {
		return statusMessageTimeoutMsg(seq)
	})
}

func (m model) View() string {
	snap := m.studio.Snapshot()

	var b strings.Builder
	fmt.Fprintln(&b, m.panesView(snap))
	fmt.Fprintln(&b, m.controlsView(snap))
	m.statusBarView(&b, snap)
	fmt.Fprint(&b, "\n"+m.helpView(snap))
	return b.String()
}

func (m model) panesView(snap studio.View) string {
	editorPane, resultPane := paneStyle, paneStyle
	if m.focus == focusManuscript {
		editorPane = activePaneStyle
	} else {
		resultPane = activePaneStyle
	}

	left := paneTitleStyle.Render("Manuscript") + " " +
		dimStyle.Render(humanize.Comma(int64(snap.ManuscriptWords()))+" words") + "\n" +
		m.editor.View()

	var body string
	switch {
	case snap.Rewriting:
		body = m.spinner.View() + " Rewriting in a " + strings.ToLower(snap.Tone.Label()) + " tone…"
	case snap.Result == "":
		body = dimStyle.Render("Press r to rewrite the manuscript.")
	default:
		body = m.result.View()
	}
	title := paneTitleStyle.Render("Echo")
	if snap.Result != "" {
		stats := snap.ResultStats()
		title += " " + dimStyle.Render(fmt.Sprintf("%s words · %s · ~%s",
			humanize.Comma(int64(stats.Words)),
			english.Plural(stats.Sentences, "sentence", ""),
			stats.Duration.Round(time.Second)))
	}
	right := title + "\n" + body

	return lipgloss.JoinHorizontal(lipgloss.Top,
		editorPane.Render(left),
		resultPane.Render(right),
	)
}

func (m model) controlsView(snap studio.View) string {
	field := func(label, value string) string {
		return labelStyle.Render(label+" ") + valueStyle.Render(value)
	}

	voice := snap.Voice
	if voice == "" {
		voice = "default"
	}
	if snap.AllVoices == 0 {
		voice = "none available"
	}
	voice = runewidth.Truncate(voice, maxVoiceWidth, ellipsis)

	playback := dimStyle.Render("■ stopped")
	if snap.Speaking {
		playback = speakingStyle.Render("▶ speaking")
	}

	lines := []string{
		field("Tone", snap.Tone.Label()) + "   " +
			field("Language", studio.LanguageLabel(snap.Language)) + "   " +
			field("Voice", voice),
		field("Pitch", tts.FormatParam(snap.Params.Pitch)) + "   " +
			field("Rate", tts.FormatParam(snap.Params.Rate)) + "   " +
			playback,
	}
	if snap.Err != "" {
		lines = append(lines, errorStyle.Render("✗ "+snap.Err))
	}
	return indent(strings.Join(lines, "\n"), 1)
}

func (m model) statusBarView(b *strings.Builder, snap studio.View) {
	logo := logoView()
	helpNote := statusBarHelpStyle(" ? Help ")

	var note string
	switch {
	case m.status.text != "":
		note = m.status.text
	case snap.Rewriting:
		note = "Rewriting…"
	case snap.Speaking:
		note = "Speaking with " + snap.Voice
	case m.focus == focusManuscript:
		note = "Editing manuscript"
	default:
		note = fmt.Sprintf("%d voices", snap.AllVoices)
	}

	note = truncate.StringWithTail(" "+note+" ", uint(max(0, //nolint:gosec
		m.common.width-
			ansi.PrintableRuneWidth(logo)-
			ansi.PrintableRuneWidth(helpNote),
	)), ellipsis)

	style := statusBarNoteStyle
	switch {
	case m.status.text != "" && m.status.isError:
		style = statusBarErrorStyle
	case m.status.text != "":
		style = statusBarMessageStyle
	}

	padding := max(0,
		m.common.width-
			ansi.PrintableRuneWidth(logo)-
			ansi.PrintableRuneWidth(note)-
			ansi.PrintableRuneWidth(helpNote),
	)

	fmt.Fprintf(b, "%s%s%s%s",
		logo,
		style(note),
		style(strings.Repeat(" ", padding)),
		helpNote,
	)
}

func (m model) helpView(snap studio.View) string {
	if m.focus == focusManuscript {
		return helpViewStyle(" " + m.help.View(m.editingKeys))
	}
	return helpViewStyle(" " + m.help.View(m.controlKeys(snap)))
}

// controlKeys returns the control bindings as the help should show them for
// the current state.
func (m model) controlKeys(snap studio.View) keyMap {
	keys := m.keys
	keys.Play.SetEnabled(snap.CanPlay())
	if snap.Speaking {
		keys.Play.SetHelp("space", "stop")
	}
	keys.Dismiss.SetEnabled(snap.Err != "")
	return keys
}

// COMMANDS

func runRewrite(r studio.Rewriter, req studio.RewriteRequest, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx := req.Context()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		text, err := r.Rewrite(ctx, req.Text, req.Tone)
		return rewriteDoneMsg{token: req.Token, text: text, err: err}
	}
}

func saveScript(dir string, blob export.Blob) tea.Cmd {
	return func() tea.Msg {
		path, err := export.Save(dir, blob)
		return savedMsg{path: path, size: blob.Size(), err: err}
	}
}

// ETC

// Lightweight version of reflow's indent function.
func indent(s string, n int) string {
	if n <= 0 || s == "" {
		return s
	}
	l := strings.Split(s, "\n")
	b := strings.Builder{}
	i := strings.Repeat(" ", n)
	for j, v := range l {
		if j > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s%s", i, v)
	}
	return b.String()
}

func indexOf(n int, match func(int) bool) int {
	for i := 0; i < n; i++ {
		if match(i) {
			return i
		}
	}
	return -1
}

func wrap(i, n int) int {
	return ((i % n) + n) % n
}
