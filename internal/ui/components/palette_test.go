package components

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestPaletteSubmitAndCancel(t *testing.T) {
	t.Parallel()
	p := NewPalette()
	if p.Visible() {
		t.Fatalf("palette must start hidden")
	}
	_ = p.Open()
	for _, r := range "session:restart" {
		p, _ = p.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	if !strings.Contains(p.View(), "session:restart") {
		t.Fatalf("expected matching hint in view")
	}
	p, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if p.Visible() || cmd == nil {
		t.Fatalf("enter must close the palette and emit a command")
	}
	msg, ok := cmd().(PaletteSubmitMsg)
	if !ok || msg.Input != "session:restart" {
		t.Fatalf("unexpected submit message %#v", cmd())
	}

	_ = p.Open()
	p, cmd = p.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if p.Visible() {
		t.Fatalf("esc must close the palette")
	}
	if _, ok := cmd().(PaletteCancelMsg); !ok {
		t.Fatalf("expected cancel message")
	}
}
