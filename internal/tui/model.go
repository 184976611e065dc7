// Package tui implements the interactive descriptor picker used by gen.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/creamcroissant/v2mng/internal/outbound"
)

// Item 是列表中的一行。
type Item struct {
	Index   int
	Name    string
	Address string
	Summary string
}

// Model 是选择器的 TUI 模型
type Model struct {
	items   []Item
	visible []int // items 中匹配过滤条件的下标
	cursor  int   // visible 中的位置
	current string

	filter    textinput.Model
	filtering bool

	chosen   int
	quitting bool

	// 终端尺寸
	width  int
	height int

	keys keyMap
}

// keyMap 定义全部按键绑定
type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Home     key.Binding
	End      key.Binding
	Choose   key.Binding
	Filter   key.Binding
	Back     key.Binding
	Quit     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		PageUp:   key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "page up")),
		PageDown: key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "page down")),
		Home:     key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g", "first")),
		End:      key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G", "last")),
		Choose:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		Filter:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter")),
		Back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear filter")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// NewModel builds a picker over entries. The cursor starts on current when present.
func NewModel(entries []outbound.Named, current string) Model {
	items := make([]Item, len(entries))
	for i, e := range entries {
		items[i] = Item{
			Index:   i,
			Name:    e.QualifiedName,
			Address: fmt.Sprintf("%s:%d", e.Descriptor.Endpoint.Address, e.Descriptor.Endpoint.Port),
			Summary: e.Descriptor.Summary(),
		}
	}

	filter := textinput.New()
	filter.Prompt = "/"
	filter.Placeholder = "name"

	m := Model{
		items:   items,
		current: current,
		filter:  filter,
		chosen:  -1,
		keys:    defaultKeyMap(),
	}
	m.applyFilter()
	for pos, idx := range m.visible {
		if items[idx].Name == current {
			m.cursor = pos
			break
		}
	}
	return m
}

// Init 实现 tea.Model
func (m Model) Init() tea.Cmd {
	return nil
}

// Chosen returns the index of the chosen entry, or -1 when the picker was cancelled.
func (m Model) Chosen() int {
	return m.chosen
}

func (m *Model) applyFilter() {
	query := strings.ToLower(strings.TrimSpace(m.filter.Value()))
	m.visible = make([]int, 0, len(m.items))
	for i, it := range m.items {
		if query == "" || strings.Contains(strings.ToLower(it.Name), query) {
			m.visible = append(m.visible, i)
		}
	}
	if m.cursor >= len(m.visible) {
		m.cursor = len(m.visible) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) pageSize() int {
	rows := m.height - 7
	if rows < 5 {
		rows = 5
	}
	return rows
}
