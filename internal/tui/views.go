package tui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/Gradipoo/tui-jxl-converter/internal/convert"
	"github.com/Gradipoo/tui-jxl-converter/pkg/imgutil"
)

const (
	minWidth  = 80
	minHeight = 10
)

type layout struct {
	origW, previewW, statusW, infoW int
}

func (m Model) layout() layout {
	const statusW, infoW, gaps = 12, 24, 2 + 3*3
	middle := m.width - statusW - infoW - gaps
	if middle < 10 {
		middle = 10
	}
	origW := middle * 2 / 5
	return layout{origW: origW, previewW: middle - origW, statusW: statusW, infoW: infoW}
}

func (m Model) View() string {
	if m.width == 0 {
		return ""
	}
	if m.height < minHeight || m.width < minWidth {
		return "Terminal too small..."
	}

	var b strings.Builder
	b.WriteString(m.viewHeader())
	b.WriteByte('\n')
	b.WriteString(m.viewColumnHeader())
	b.WriteByte('\n')
	b.WriteString(m.viewBody())
	b.WriteString(m.viewStatusLine())
	b.WriteByte('\n')
	b.WriteString(m.viewFooter())
	return b.String()
}

func (m Model) viewHeader() string {
	title := " mkjxl - TUI JXL Converter "
	content := ""

	batch := m.session.Batch
	switch {
	case batch.Active:
		done := batch.Succeeded + batch.Failed
		elapsed := time.Since(batch.Started)
		saved := convert.FormatBytes(batch.BytesBefore - batch.BytesAfter)
		content = fmt.Sprintf("Converting: %d/%d | Saved: %s | Elapsed: %02d:%02d",
			done, batch.Total, saved, int(elapsed.Minutes()), int(elapsed.Seconds())%60)
	case batch.Summary != "":
		content = batch.Summary
	default:
		avail := m.width - len(title) - 4
		maxPath := avail/2 - 12
		out := "Same as Source"
		if m.settings.OutputDir != "" {
			out = abbreviatePath(m.settings.OutputDir, maxPath)
		}
		content = fmt.Sprintf("Source: %s | Output: %s", abbreviatePath(m.root, maxPath), out)
		if m.showOnlyFailed {
			content += " | FILTER: FAILED"
		}
	}

	return headerBarStyle.Width(m.width).Render(truncate(title+" "+content, m.width))
}

func (m Model) viewColumnHeader() string {
	l := m.layout()
	line := "  " + pad("Original", l.origW) +
		"   " + pad("Target JXL (*=Selected)", l.previewW) +
		"   " + pad("Status", l.statusW) +
		"   " + pad("Info / Savings", l.infoW)
	return colHeaderStyle.Render(line)
}

func (m Model) viewBody() string {
	rows := m.maxRows()
	if m.mode != modeBrowse {
		return lipgloss.Place(m.width, rows, lipgloss.Center, lipgloss.Center, m.viewDialog()) + "\n"
	}

	l := m.layout()
	visible := m.visible()
	var b strings.Builder
	for i := 0; i < rows; i++ {
		row := i + m.offset
		if row < len(visible) {
			b.WriteString(m.viewRow(visible[row], row == m.cursor, l))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func (m Model) viewRow(idx int, underCursor bool, l layout) string {
	entry := m.session.Entry(idx)
	rec := m.session.Records[idx]
	status := m.session.DisplayStatus(idx)

	marker := " "
	if m.session.IsSelected(idx) {
		marker = "*"
	}
	// Before a target is assigned, preview the default candidate name.
	target := imgutil.Stem(entry.Name) + ".jxl"
	if rec.TargetPath != "" {
		target = filepath.Base(rec.TargetPath)
	}

	origCell := pad(entry.Name, l.origW)
	previewCell := pad(marker+" "+target, l.previewW)
	statusCell := pad(status.String(), l.statusW)
	infoCell := pad(rec.Info, l.infoW)

	if underCursor {
		return cursorStyle.Render("  " + origCell + "   " + previewCell + "   " + statusCell + "   " + infoCell)
	}

	style := statusStyle(status)
	selStyle := dimStyle
	if m.session.IsSelected(idx) {
		selStyle = warnStyle
	}
	return "  " + origCell + "   " + selStyle.Render(previewCell) +
		"   " + style.Render(statusCell) + "   " + style.Render(infoCell)
}

func (m Model) viewDialog() string {
	if m.mode == modeConfirm {
		return dialogStyle.Render(m.question)
	}
	return dialogStyle.Render(m.question + ": " + m.input.View())
}

func (m Model) viewStatusLine() string {
	if m.statusMsg == "" {
		return ""
	}
	return "  " + m.statusStyle.Render(truncate(m.statusMsg, m.width-4))
}

func (m Model) viewFooter() string {
	type toggle struct {
		key, label string
		active     bool
	}
	toggles := []toggle{
		{"Q", fmt.Sprintf("Qual:%d", m.settings.Quality), false},
		{"E", fmt.Sprintf("Eff:%d", m.settings.Effort), false},
		{"R", "Recur", m.settings.Recursive},
		{"D", "DelOrig", m.settings.DeleteOriginals},
		{"O", "Out Dir", m.settings.OutputDir != ""},
		{"B", "Bug Log", m.settings.DebugLog},
	}
	if len(m.session.FailedSet) > 0 {
		toggles = append(toggles, toggle{"F", "Filter Failed", m.showOnlyFailed})
	}

	var top strings.Builder
	top.WriteString("  ")
	for _, t := range toggles {
		top.WriteString(keyHelper(t.key, t.label, t.active))
		top.WriteString("  ")
	}

	var bottom strings.Builder
	bottom.WriteString("  ")
	for _, pair := range [][2]string{
		{"↑↓/jk", "Nav"}, {"Space", "Select"}, {"a/A", "All/None"},
		{"Enter", "Convert"}, {"r", "Refresh"},
	} {
		bottom.WriteString(keyHelper(pair[0], pair[1], false))
		bottom.WriteString("  ")
	}
	quit := keyStyle.Render("(ESC/q)") + " " + labelStyle.Render("Quit")
	plainLen := lipgloss.Width(bottom.String()) + lipgloss.Width(quit) + 2
	if gap := m.width - plainLen; gap > 0 {
		bottom.WriteString(strings.Repeat(" ", gap))
	}
	bottom.WriteString(quit)

	return top.String() + "\n" + bottom.String()
}

func keyHelper(key, label string, active bool) string {
	if active {
		return keyActiveStyle.Render("("+key+")") + " " + labelActive.Render(label)
	}
	return keyStyle.Render("("+key+")") + " " + labelStyle.Render(label)
}

func pad(s string, w int) string {
	r := []rune(s)
	if len(r) > w {
		if w <= 1 {
			return string(r[:w])
		}
		return string(r[:w-1]) + "…"
	}
	return s + strings.Repeat(" ", w-len(r))
}

func truncate(s string, w int) string {
	if lipgloss.Width(s) <= w {
		return s
	}
	r := []rune(s)
	if len(r) > w {
		r = r[:w]
	}
	return string(r)
}

func abbreviatePath(path string, max int) string {
	if max < 8 {
		max = 8
	}
	r := []rune(path)
	if len(r) <= max {
		return path
	}
	return "..." + string(r[len(r)-(max-3):])
}
