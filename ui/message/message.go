package message

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Msg is one rendered block of the transcript.
type Msg struct {
	Type    MsgType
	Label   string // turn label, e.g. "#2"
	Content string
	Time    time.Time

	// Footer is shown dimmed below the content: version position, gate hint.
	Footer string
	// Failed marks a synthetic error answer.
	Failed bool
}

type MsgType string

const (
	MsgTypeUser      MsgType = "user"
	MsgTypeAssistant MsgType = "assistant"
	MsgTypeSystem    MsgType = "system"
	MsgTypeWelcome   MsgType = "welcome"
)

// --- Styles ---
var (
	UserStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // Bright blue

	AssistantStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // Cyan

	SystemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Italic(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	TimestampStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Faint(true)

	FooterStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242"))

	MessagePadding = lipgloss.NewStyle().PaddingLeft(1)
)

// Render formats a message for display, considering terminal width.
func Render(msg Msg, width int) string {
	timeDisplay := ""
	if !msg.Time.IsZero() {
		timeDisplay = TimestampStyle.Render(msg.Time.Format("15:04")) + " "
	}
	timeWidth := lipgloss.Width(timeDisplay)

	var prefix string
	var style lipgloss.Style
	switch msg.Type {
	case MsgTypeUser:
		prefix = UserStyle.Bold(true).Render(strings.TrimSpace("You " + msg.Label))
		style = UserStyle
	case MsgTypeAssistant:
		prefix = AssistantStyle.Bold(true).Render("LIA")
		style = AssistantStyle
		if msg.Failed {
			style = ErrorStyle
		}
	case MsgTypeWelcome:
		prefix = AssistantStyle.Bold(true).Render("LIA")
		style = AssistantStyle.Italic(true)
	default:
		prefix = SystemStyle.Render("·")
		style = SystemStyle
	}
	prefix += ":"

	prefixWidth := lipgloss.Width(prefix)
	availableWidth := width - timeWidth - prefixWidth - MessagePadding.GetPaddingLeft()
	if availableWidth < 10 {
		availableWidth = 10
	}

	lines := strings.Split(style.Width(availableWidth).Render(msg.Content), "\n")
	indent := strings.Repeat(" ", timeWidth+prefixWidth+MessagePadding.GetPaddingLeft())

	var b strings.Builder
	b.WriteString(timeDisplay + prefix + MessagePadding.Render(lines[0]))
	for _, line := range lines[1:] {
		b.WriteString("\n" + indent + line)
	}
	if msg.Footer != "" {
		b.WriteString("\n" + indent + FooterStyle.Render(msg.Footer))
	}
	return b.String()
}
