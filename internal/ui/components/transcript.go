package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"tobetutor/internal/modules/conversation/dto"
	"tobetutor/internal/ui/theme"
)

const (
	acceptedMarker = "✅"
	rejectedMarker = "❌"
)

// RenderTranscript lays entries out in order, one speaker-tagged block each,
// wrapped to width. userName labels the user's lines once it is known.
func RenderTranscript(entries []dto.EntryOutput, userName string, width int) string {
	if width < 20 {
		width = 20
	}
	if userName == "" {
		userName = "You"
	}
	blocks := make([]string, 0, len(entries))
	for _, e := range entries {
		blocks = append(blocks, renderEntry(e, userName, width))
	}
	return strings.Join(blocks, "\n")
}

// RenderPending shows a line that was sent but has not been answered yet.
func RenderPending(text, userName, spinner string, width int) string {
	if userName == "" {
		userName = "You"
	}
	line := renderEntry(dto.EntryOutput{Speaker: "user", Text: text}, userName, width)
	return line + "\n" + theme.BotLabel.Render("Tutor") + " " + spinner + theme.Muted.Render(" checking…")
}

func renderEntry(e dto.EntryOutput, userName string, width int) string {
	label := theme.BotLabel.Render("Tutor")
	style := theme.Bubble
	if e.Speaker == "user" {
		label = theme.UserLabel.Render(userName)
	} else {
		switch {
		case strings.HasPrefix(e.Text, acceptedMarker):
			style = theme.Accepted
		case strings.HasPrefix(e.Text, rejectedMarker):
			style = theme.Rejected
		}
	}
	indent := lipgloss.Width(label) + 1
	body := style.Width(max(width-indent, 10)).Render(e.Text)
	return lipgloss.JoinHorizontal(lipgloss.Top, label, " ", body)
}
