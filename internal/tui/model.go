package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/muurk/apswitch/internal/connect"
	"github.com/muurk/apswitch/internal/logging"
	"github.com/muurk/apswitch/internal/ui"
)

// ToastDuration is how long a notification stays on screen
const ToastDuration = 3 * time.Second

const tickInterval = 500 * time.Millisecond

// Controller is the part of connect.Controller the screen drives
type Controller interface {
	Connect(ctx context.Context, ssid, hardwareAddress, passphrase string) error
	Preflight(ctx context.Context) []error
	CurrentAddress(ctx context.Context, requiredSSID string) (string, error)
	ClearLog()
	AutoUnregister() bool
	SetAutoUnregister(v bool)
	State() connect.State
	Timeout() time.Duration
	Log() *connect.Log
}

// Options configures the screen
type Options struct {
	// Controller is nil when the backend could not be started
	Controller Controller

	// Unsupported explains why there is no controller; it is shown as a
	// notice in place of the connect action.
	Unsupported error

	// Prefill values, e.g. from a saved profile
	SSID  string
	BSSID string

	// RequiredSSID is the substring the current SSID must contain for
	// the copy action
	RequiredSSID string

	// Clipboard writes text to the system clipboard (default atotto/clipboard)
	Clipboard func(string) error

	Context context.Context
}

const (
	fieldSSID = iota
	fieldBSSID
	fieldPassphrase
	fieldCount
)

var fieldLabels = [fieldCount]string{"SSID", "BSSID", "Passphrase"}

// Messages for async operations
type logEntryMsg struct{ entry connect.Entry }
type logClosedMsg struct{}
type connectDoneMsg struct{ err error }
type preflightMsg struct{ errs []error }
type copyDoneMsg struct {
	addr string
	err  error
}
type toastExpiredMsg struct{ id int }
type tickMsg time.Time

// Model is the connect screen
type Model struct {
	ctrl         Controller
	ctx          context.Context
	unsupported  error
	requiredSSID string
	clipboard    func(string) error

	inputs [fieldCount]textinput.Model
	focus  int

	log         *connect.Log
	entries     <-chan connect.Entry
	unsubscribe func()
	viewport    viewport.Model

	pending     progress.Model
	state       connect.State
	requestedAt time.Time

	toast      string
	toastError bool
	toastID    int

	help help.Model
	keys keyMap

	width  int
	height int
}

// New creates the screen and subscribes to the controller log
func New(opts Options) Model {
	m := Model{
		ctrl:         opts.Controller,
		ctx:          opts.Context,
		unsupported:  opts.Unsupported,
		requiredSSID: opts.RequiredSSID,
		clipboard:    opts.Clipboard,
		pending:      progress.New(progress.WithDefaultGradient(), progress.WithWidth(30), progress.WithoutPercentage()),
		help:         help.New(),
		keys:         newKeyMap(),
		width:        MinTerminalWidth,
	}
	if m.ctx == nil {
		m.ctx = context.Background()
	}
	if m.clipboard == nil {
		m.clipboard = clipboard.WriteAll
	}
	if m.ctrl == nil && m.unsupported == nil {
		m.unsupported = connect.NewUnsupportedError("no connectivity backend", nil)
	}

	for i := range m.inputs {
		in := textinput.New()
		in.Prompt = "› "
		in.Width = 40
		m.inputs[i] = in
	}
	m.inputs[fieldSSID].Placeholder = "Deeper CHIRP+"
	m.inputs[fieldSSID].CharLimit = 32
	m.inputs[fieldSSID].SetValue(opts.SSID)
	m.inputs[fieldBSSID].Placeholder = "AA:BB:CC:DD:EE:FF"
	m.inputs[fieldBSSID].CharLimit = 17
	m.inputs[fieldBSSID].SetValue(opts.BSSID)
	m.inputs[fieldPassphrase].Placeholder = "leave empty for an open network"
	m.inputs[fieldPassphrase].EchoMode = textinput.EchoPassword
	m.inputs[fieldPassphrase].EchoCharacter = '•'
	m.inputs[fieldPassphrase].CharLimit = 63
	m.setFocus(fieldSSID)

	m.viewport = viewport.New(m.width-4, minLogHeight)
	m.viewport.KeyMap = viewport.KeyMap{PageUp: m.keys.ScrollUp, PageDown: m.keys.ScrollDown}

	if m.ctrl != nil {
		m.log = m.ctrl.Log()
		m.state = m.ctrl.State()
	} else {
		m.log = connect.NewLog()
	}
	m.entries, m.unsubscribe = m.log.Subscribe(64)
	m.refreshLog()

	return m
}

// Init starts the log subscription, the startup checks and the state ticker
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, waitForEntry(m.entries)}
	if m.ctrl != nil {
		cmds = append(cmds, m.preflight(), tick())
	}
	return tea.Batch(cmds...)
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = clampWidth(msg.Width)
		m.height = msg.Height
		m.help.Width = m.width
		m.viewport.Width = m.width - 4
		m.viewport.Height = max(minLogHeight, m.height-chromeHeight)
		m.refreshLog()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case logEntryMsg:
		m.refreshLog()
		return m, waitForEntry(m.entries)

	case logClosedMsg:
		return m, nil

	case connectDoneMsg:
		if msg.err != nil {
			return m.showToast(connect.UserMessage(msg.err), true)
		}
		m.requestedAt = time.Now()
		m.state = m.ctrl.State()
		return m, nil

	case preflightMsg:
		if len(msg.errs) > 0 {
			return m.showToast(connect.UserMessage(msg.errs[0]), true)
		}
		return m, nil

	case copyDoneMsg:
		if msg.err != nil {
			return m.showToast(connect.UserMessage(msg.err), true)
		}
		return m.showToast(fmt.Sprintf("BSSID %s copied to clipboard", msg.addr), false)

	case toastExpiredMsg:
		if msg.id == m.toastID {
			m.toast = ""
		}
		return m, nil

	case tickMsg:
		if m.ctrl == nil {
			return m, nil
		}
		m.state = m.ctrl.State()
		return m, tick()
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.unsubscribe != nil {
			m.unsubscribe()
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.Connect):
		if m.ctrl == nil {
			return m.showToast(connect.UserMessage(m.unsupported), true)
		}
		return m, m.connect()

	case key.Matches(msg, m.keys.Next):
		m.setFocus((m.focus + 1) % fieldCount)
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Prev):
		m.setFocus((m.focus + fieldCount - 1) % fieldCount)
		return m, textinput.Blink

	case key.Matches(msg, m.keys.ClearLog):
		if m.ctrl != nil {
			m.ctrl.ClearLog()
		} else {
			m.log.Clear()
		}
		m.refreshLog()
		return m, nil

	case key.Matches(msg, m.keys.CopyBSSID):
		if m.ctrl == nil {
			return m.showToast(connect.UserMessage(m.unsupported), true)
		}
		return m, m.copyBSSID()

	case key.Matches(msg, m.keys.ToggleFlag):
		if m.ctrl == nil {
			return m, nil
		}
		m.ctrl.SetAutoUnregister(!m.ctrl.AutoUnregister())
		logging.Debug("Auto-unregister toggled", zap.Bool("enabled", m.ctrl.AutoUnregister()))
		return m.showToast("Auto-unregister "+onOff(m.ctrl.AutoUnregister()), false)

	case key.Matches(msg, m.keys.ScrollUp, m.keys.ScrollDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *Model) setFocus(i int) {
	m.focus = i
	for j := range m.inputs {
		if j == i {
			m.inputs[j].Focus()
			m.inputs[j].PromptStyle = FocusedInputStyle
			m.inputs[j].TextStyle = FocusedInputStyle
		} else {
			m.inputs[j].Blur()
			m.inputs[j].PromptStyle = BlurredInputStyle
			m.inputs[j].TextStyle = BlurredInputStyle
		}
	}
}

// refreshLog re-renders the console from the log and follows the tail
func (m *Model) refreshLog() {
	entries := m.log.Entries()
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, ui.FormatEntry(e))
	}
	m.viewport.SetContent(strings.Join(lines, "\n"))
	m.viewport.GotoBottom()
}

func (m Model) showToast(text string, isError bool) (tea.Model, tea.Cmd) {
	m.toastID++
	m.toast = text
	m.toastError = isError
	id := m.toastID
	return m, tea.Tick(ToastDuration, func(time.Time) tea.Msg {
		return toastExpiredMsg{id: id}
	})
}

func (m Model) connect() tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	ssid := m.inputs[fieldSSID].Value()
	bssid := m.inputs[fieldBSSID].Value()
	passphrase := m.inputs[fieldPassphrase].Value()
	return func() tea.Msg {
		return connectDoneMsg{err: ctrl.Connect(ctx, ssid, bssid, passphrase)}
	}
}

func (m Model) preflight() tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		return preflightMsg{errs: ctrl.Preflight(ctx)}
	}
}

func (m Model) copyBSSID() tea.Cmd {
	ctrl, ctx, required, write := m.ctrl, m.ctx, m.requiredSSID, m.clipboard
	return func() tea.Msg {
		addr, err := ctrl.CurrentAddress(ctx, required)
		if err != nil {
			return copyDoneMsg{err: err}
		}
		if err := write(addr); err != nil {
			return copyDoneMsg{err: connect.NewBackendError("failed to write clipboard", err)}
		}
		return copyDoneMsg{addr: addr}
	}
}

func waitForEntry(entries <-chan connect.Entry) tea.Cmd {
	return func() tea.Msg {
		e, ok := <-entries
		if !ok {
			return logClosedMsg{}
		}
		return logEntryMsg{entry: e}
	}
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// View renders the screen
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render(AppName) + " " + StatusStyle.Render(AppVersion()) + "\n")
	b.WriteString(SubtitleStyle.Render(AppTagline) + "\n\n")

	if m.unsupported != nil {
		b.WriteString(NoticeStyle.Render(connect.UserMessage(m.unsupported)) + "\n\n")
	}

	for i := range m.inputs {
		label := LabelStyle.Render(fieldLabels[i])
		if i == m.focus {
			label = FocusedLabelStyle.Render(fieldLabels[i])
		}
		b.WriteString(label + m.inputs[i].View() + "\n")
	}
	b.WriteString("\n")

	b.WriteString(m.renderStatus() + "\n\n")

	console := ConsoleTitleStyle.Render("Console") + "\n" + m.viewport.View()
	b.WriteString(ConsoleStyle.Width(m.width-2).Render(console) + "\n")

	if m.toast != "" {
		style := ToastStyle
		if m.toastError {
			style = ErrorToastStyle
		}
		b.WriteString(style.Render(m.toast))
	}
	b.WriteString("\n")

	b.WriteString(HelpStyle.Render(m.help.View(m.keys)))
	return b.String()
}

func (m Model) renderStatus() string {
	flag := "[ ]"
	if m.ctrl != nil && m.ctrl.AutoUnregister() {
		flag = "[x]"
	}
	line := StatusStyle.Render(flag+" auto-unregister") + "    "

	name := m.state.String()
	line += StatusStyle.Render("State: ") + StateStyles[name].Render(name)

	if m.state == connect.StateRequested && !m.requestedAt.IsZero() && m.ctrl != nil {
		timeout := m.ctrl.Timeout()
		elapsed := time.Since(m.requestedAt)
		percent := float64(elapsed) / float64(timeout)
		if percent > 1 {
			percent = 1
		}
		left := (timeout - elapsed).Round(time.Second)
		if left < 0 {
			left = 0
		}
		line += "  " + m.pending.ViewAs(percent) + " " + StatusStyle.Render(left.String())
	}
	return lipgloss.NewStyle().MaxWidth(m.width).Render(line)
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

// Run runs the screen until the user quits
func Run(opts Options) error {
	p := tea.NewProgram(New(opts), tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}
