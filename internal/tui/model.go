// Package tui is the interactive front end: a scrolling file list with
// selection, modal dialogs for settings and confirmations, and a fixed tick
// that drains the conversion status channel into the view.
package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Gradipoo/tui-jxl-converter/internal/config"
	"github.com/Gradipoo/tui-jxl-converter/internal/convert"
	"github.com/Gradipoo/tui-jxl-converter/internal/debuglog"
	"github.com/Gradipoo/tui-jxl-converter/internal/inventory"
)

const tickInterval = 50 * time.Millisecond

type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

type mode int

const (
	modeBrowse mode = iota
	modeConfirm
	modeInput
)

type confirmKind int

const (
	confirmDelete confirmKind = iota
	confirmRetry
	confirmQuit
)

type inputKind int

const (
	inputQuality inputKind = iota
	inputEffort
	inputOutputDir
)

type Model struct {
	session  *convert.Session
	settings config.Settings
	log      *debuglog.Logger
	root     string

	width  int
	height int

	cursor int
	offset int

	showOnlyFailed bool

	mode        mode
	confirm     confirmKind
	question    string
	input       textinput.Model
	inputTarget inputKind

	statusMsg   string
	statusStyle lipgloss.Style
}

func New(root string, settings config.Settings, session *convert.Session, log *debuglog.Logger) Model {
	m := Model{
		session:     session,
		settings:    settings,
		log:         log,
		root:        root,
		statusStyle: infoStyle,
	}
	log.SetEnabled(settings.DebugLog)
	m = m.reload()
	if !session.EncoderAvailable() {
		m.showMessage("FATAL: cjxl not found in PATH. Install libjxl-tools.", errorStyle)
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return tickCmd()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m = m.clampCursor()
		return m, nil

	case tickMsg:
		m = m.drainUpdates()
		return m, tickCmd()

	case tea.KeyMsg:
		switch m.mode {
		case modeConfirm:
			return m.handleConfirmKey(msg)
		case modeInput:
			return m.handleInputKey(msg)
		default:
			return m.handleBrowseKey(msg)
		}
	}
	return m, nil
}

// drainUpdates empties the status channel and reacts to a batch-completion
// edge: show the summary and, when failures remain, offer the
// sanitize-and-retry pass.
func (m Model) drainUpdates() Model {
	done := m.session.Drain()
	if m.settings.DebugLog && m.log.Broken() {
		m.settings.DebugLog = false
		m.showMessage("Error writing to debug log. Disabling.", errorStyle)
	}
	if done == nil {
		return m
	}

	m.showMessage(done.Summary, successStyle)
	if done.FailedCount == 0 {
		return m
	}
	if !m.session.SanitizerAvailable() {
		m.showMessage("Some files failed. Install ImageMagick to enable sanitize/retry.", warnStyle)
		return m
	}
	m.openConfirm(confirmRetry, fmt.Sprintf("%d files failed. Sanitize & retry them now? (y/n)", done.FailedCount))
	return m
}

func (m Model) handleBrowseKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Any key clears a lingering batch summary from the header.
	m.session.Batch.Summary = ""
	m.statusMsg = ""

	visible := m.visible()

	switch msg.String() {
	case "q", "esc", "ctrl+c":
		if m.session.Batch.Active {
			m.openConfirm(confirmQuit, "Still converting. Quit anyway? (y/n)")
			return m, nil
		}
		m.session.Close()
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(visible)-1 {
			m.cursor++
		}
	case "pgup":
		m.cursor -= m.maxRows()
		if m.cursor < 0 {
			m.cursor = 0
		}
	case "pgdown":
		m.cursor += m.maxRows()
		if m.cursor > len(visible)-1 {
			m.cursor = len(visible) - 1
		}
	case "g":
		m.cursor, m.offset = 0, 0
	case "G":
		m.cursor = len(visible) - 1

	case " ":
		if m.cursor >= 0 && m.cursor < len(visible) {
			m.session.Toggle(visible[m.cursor])
		}
	case "a":
		m.session.Select(visible)
	case "A":
		m.session.ClearSelection()

	case "enter":
		return m.startBatch()

	case "r", "f5":
		if m.session.Batch.Active {
			m.showMessage("Cannot reload while a conversion is running.", warnStyle)
			break
		}
		m = m.reload()
	case "R":
		if m.session.Batch.Active {
			m.showMessage("Cannot change recursion while a conversion is running.", warnStyle)
			break
		}
		m.settings.Recursive = !m.settings.Recursive
		m = m.reload()

	case "f", "F":
		if len(m.session.FailedSet) > 0 {
			m.showOnlyFailed = !m.showOnlyFailed
			m.cursor, m.offset = 0, 0
		}

	case "b", "B":
		m.settings.DebugLog = !m.settings.DebugLog
		m.log.SetEnabled(m.settings.DebugLog)
		if m.settings.DebugLog {
			m.showMessage("Debug logging ENABLED", infoStyle)
		} else {
			m.showMessage("Debug logging DISABLED", infoStyle)
		}

	case "d", "D":
		m.settings.DeleteOriginals = !m.settings.DeleteOriginals

	case "Q":
		m.openInput(inputQuality, "Quality (1-100)", strconv.Itoa(m.settings.Quality))
		return m, textinput.Blink
	case "e", "E":
		m.openInput(inputEffort, "Effort (1-9)", strconv.Itoa(m.settings.Effort))
		return m, textinput.Blink
	case "o", "O":
		m.openInput(inputOutputDir, "Output Dir (blank=Same as Source)", m.settings.OutputDir)
		return m, textinput.Blink
	}

	m = m.clampCursor()
	return m, nil
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.mode = modeBrowse
		switch m.confirm {
		case confirmDelete:
			m = m.doStart()
		case confirmRetry:
			m.showMessage("Re-queueing failed files for sanitized conversion...", infoStyle)
			if err := m.session.RetryFailed(m.opts()); err != nil {
				m.showMessage(err.Error(), errorStyle)
			}
		case confirmQuit:
			m.session.Close()
			return m, tea.Quit
		}
	case "n", "N", "esc", "q":
		m.mode = modeBrowse
		if m.confirm == confirmDelete {
			m.showMessage("Conversion cancelled.", infoStyle)
		}
	}
	return m, nil
}

func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeBrowse
		return m, nil
	case "enter":
		m.mode = modeBrowse
		m = m.commitInput(strings.TrimSpace(m.input.Value()))
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) commitInput(value string) Model {
	switch m.inputTarget {
	case inputQuality:
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 || n > 100 {
			m.showMessage("Quality must be between 1 and 100.", errorStyle)
			return m
		}
		m.settings.Quality = n
		m.showMessage(fmt.Sprintf("Quality set to %d", n), infoStyle)

	case inputEffort:
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 || n > 9 {
			m.showMessage("Effort must be between 1 and 9.", errorStyle)
			return m
		}
		m.settings.Effort = n
		m.showMessage(fmt.Sprintf("Effort set to %d", n), infoStyle)

	case inputOutputDir:
		if value == "" {
			m.settings.OutputDir = ""
			m.showMessage("Output set to same directory as source files.", infoStyle)
			return m
		}
		m.settings.OutputDir = expandPath(value)
		m.showMessage(fmt.Sprintf("Output directory set to %s", m.settings.OutputDir), infoStyle)
	}
	return m
}

func (m Model) startBatch() (tea.Model, tea.Cmd) {
	if m.settings.DeleteOriginals {
		m.openConfirm(confirmDelete, "Delete originals is ON. Proceed? (y/n)")
		return m, nil
	}
	return m.doStart(), nil
}

func (m Model) doStart() Model {
	if err := m.session.Start(m.opts(), false); err != nil {
		style := warnStyle
		if err == convert.ErrEncoderMissing {
			style = errorStyle
		}
		m.showMessage(err.Error(), style)
	}
	return m
}

func (m Model) opts() convert.Options {
	return convert.Options{
		Quality:         m.settings.Quality,
		Effort:          m.settings.Effort,
		DeleteOriginals: m.settings.DeleteOriginals,
		OutputDir:       m.settings.OutputDir,
		Recursive:       m.settings.Recursive,
		ScanRoot:        m.root,
	}
}

func (m Model) reload() Model {
	m.cursor, m.offset = 0, 0
	m.showOnlyFailed = false
	entries, err := inventory.Scan(m.root, m.settings.Recursive)
	if err != nil {
		m.session.Load(nil)
		m.showMessage(fmt.Sprintf("Error loading files: %v", err), errorStyle)
		return m
	}
	m.session.Load(entries)
	return m
}

// visible maps display rows to inventory indices, honoring the failed-only
// filter.
func (m Model) visible() []int {
	if m.showOnlyFailed {
		return m.session.FailedIndices()
	}
	all := make([]int, len(m.session.Entries()))
	for i := range all {
		all[i] = i
	}
	return all
}

func (m Model) maxRows() int {
	rows := m.height - 5
	if rows < 1 {
		return 1
	}
	return rows
}

func (m Model) clampCursor() Model {
	visible := m.visible()
	if m.cursor > len(visible)-1 {
		m.cursor = len(visible) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.maxRows() {
		m.offset = m.cursor - m.maxRows() + 1
	}
	return m
}

func (m *Model) showMessage(msg string, style lipgloss.Style) {
	m.statusMsg = msg
	m.statusStyle = style
}

func (m *Model) openConfirm(kind confirmKind, question string) {
	m.mode = modeConfirm
	m.confirm = kind
	m.question = question
}

func (m *Model) openInput(kind inputKind, label string, initial string) {
	m.mode = modeInput
	m.inputTarget = kind
	m.question = label
	m.input = textinput.New()
	m.input.SetValue(initial)
	m.input.CursorEnd()
	m.input.Focus()
	m.input.CharLimit = 256
	m.input.Width = 40
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~"+string(os.PathSeparator)) {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
