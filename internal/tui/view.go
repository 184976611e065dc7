package tui

import (
	"fmt"
	"strings"
)

// View 实现 tea.Model
func (m Model) View() string {
	if m.quitting || m.chosen >= 0 {
		return ""
	}

	var b strings.Builder
	width := m.width
	if width == 0 {
		width = 80
	}

	b.WriteString(styleHeader.Width(width).Render(fmt.Sprintf("  Select outbound (%d)", len(m.items))))
	b.WriteString("\n")
	if m.filtering || m.filter.Value() != "" {
		b.WriteString("  " + m.filter.View())
	}
	b.WriteString("\n")

	b.WriteString(styleTableHeader.Render(fmt.Sprintf("%-4s  %-36s  %-28s  %s", "#", "Name", "Address", "Stream")))
	b.WriteString("\n")

	if len(m.visible) == 0 {
		b.WriteString(styleMuted.Render("  No matching entries."))
		b.WriteString("\n")
	} else {
		rows := m.pageSize()
		start := 0
		if m.cursor >= rows {
			start = m.cursor - rows + 1
		}
		end := min(start+rows, len(m.visible))

		for pos := start; pos < end; pos++ {
			b.WriteString(m.renderRow(m.items[m.visible[pos]], pos == m.cursor))
			b.WriteString("\n")
		}

		// 滚动提示
		if len(m.visible) > rows {
			b.WriteString(styleMuted.Render(fmt.Sprintf("  Showing %d-%d of %d", start+1, end, len(m.visible))))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(styleHelp.Render("[↑/↓] Navigate  [Enter] Select  [/] Filter  [q] Quit"))
	return b.String()
}

func (m Model) renderRow(it Item, selected bool) string {
	marker := " "
	if it.Name == m.current {
		marker = styleCurrent.Render("*")
	}
	row := fmt.Sprintf("%-4d%s %-36s  %-28s  %s", it.Index, marker, truncate(it.Name, 36), truncate(it.Address, 28), it.Summary)
	if selected {
		return styleTableRowSelected.Render(row)
	}
	return styleTableRow.Render(row)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
