package tui

import (
	"errors"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/creamcroissant/v2mng/internal/outbound"
)

// ErrCancelled 表示用户退出了选择器。
var ErrCancelled = errors.New("tui: selection cancelled")

// Pick runs the picker on the given terminal and returns the chosen index.
func Pick(entries []outbound.Named, current string, in io.Reader, out io.Writer) (int, error) {
	if len(entries) == 0 {
		return -1, errors.New("tui: nothing to pick from")
	}
	p := tea.NewProgram(
		NewModel(entries, current),
		tea.WithAltScreen(),
		tea.WithInput(in),
		tea.WithOutput(out),
	)
	final, err := p.Run()
	if err != nil {
		return -1, fmt.Errorf("run tui: %w", err)
	}
	chosen := final.(Model).Chosen()
	if chosen < 0 {
		return -1, ErrCancelled
	}
	return chosen, nil
}
