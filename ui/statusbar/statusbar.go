package statusbar

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	statusBarStyle  = lipgloss.NewStyle().Reverse(true)
	statusTextStyle = lipgloss.NewStyle().Inherit(statusBarStyle)
	separatorStyle  = statusTextStyle.Foreground(lipgloss.Color("240"))
	modeStyle       = statusTextStyle.Bold(true)
)

// StatusData holds the information for the status bar
type StatusData struct {
	Mode       string // "INSERT", "COMMAND", "EDIT #2"
	Backend    string
	Attachment string // name of the pending image, if any
	Generating bool
	Messages   []string
}

// Render creates the status bar string
func Render(width int, data StatusData) string {
	if width <= 0 {
		return ""
	}
	sep := separatorStyle.Render(" │ ")

	left := []string{modeStyle.Render(fmt.Sprintf(" %s ", data.Mode))}
	if data.Attachment != "" {
		left = append(left, statusTextStyle.Render(" 📎 "+data.Attachment+" "))
	}
	left = append(left, data.Messages...)
	leftStr := strings.Join(left, sep)

	var right []string
	if data.Generating {
		right = append(right, "generating")
	}
	if data.Backend != "" {
		right = append(right, data.Backend)
	}
	rightStr := ""
	if len(right) > 0 {
		rightStr = " " + strings.Join(right, " · ") + " "
	}

	padding := width - lipgloss.Width(leftStr) - lipgloss.Width(rightStr)
	if padding < 0 {
		padding = 0
	}
	return statusBarStyle.Width(width).MaxWidth(width).Render(leftStr + strings.Repeat(" ", padding) + rightStr)
}
