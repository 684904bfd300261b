package interactive

import (
	"fmt"
	"strings"

	"github.com/tmc/stepchat/chat"
	"github.com/tmc/stepchat/disclosure"
	"github.com/tmc/stepchat/render"
	"github.com/tmc/stepchat/transcript"
	"github.com/tmc/stepchat/ui/message"
	"github.com/tmc/stepchat/welcome"
)

var _ render.Renderer = (*transcriptView)(nil)

type turnView struct {
	units   []string
	advance bool
}

// transcriptView holds what the full-screen interface shows of each turn.
// It is driven by renderer instructions from the session's update loop.
type transcriptView struct {
	turns   map[transcript.TurnID]*turnView
	welcome strings.Builder
	stop    bool
}

func newTranscriptView() *transcriptView {
	return &transcriptView{turns: make(map[transcript.TurnID]*turnView)}
}

func (v *transcriptView) turn(id transcript.TurnID) *turnView {
	tv, ok := v.turns[id]
	if !ok {
		tv = &turnView{}
		v.turns[id] = tv
	}
	return tv
}

func (v *transcriptView) AppendUnitText(turn transcript.TurnID, unit int, delta string) {
	tv := v.turn(turn)
	for len(tv.units) <= unit {
		tv.units = append(tv.units, "")
	}
	tv.units[unit] += delta
}

func (v *transcriptView) ShowAdvance(turn transcript.TurnID, show bool) { v.turn(turn).advance = show }
func (v *transcriptView) ShowStop(show bool)                            { v.stop = show }
func (v *transcriptView) HideTurn(turn transcript.TurnID)               { delete(v.turns, turn) }
func (v *transcriptView) AppendWelcomeText(delta string)                { v.welcome.WriteString(delta) }

func (v *transcriptView) ClearAnswer(turn transcript.TurnID) {
	tv := v.turn(turn)
	tv.units = nil
	tv.advance = false
}

// showVersion replaces the revealed answer of t with its selected version
// in full.
func (v *transcriptView) showVersion(t transcript.Turn) {
	v.ClearAnswer(t.ID)
	ver, ok := t.Version()
	if !ok {
		return
	}
	tv := v.turn(t.ID)
	for _, u := range disclosure.Segment(ver.Text) {
		tv.units = append(tv.units, u.Text)
	}
}

// messages lays out the transcript of s. spin is the current spinner
// frame, shown while an answer or the welcome message is on its way.
func (v *transcriptView) messages(s *chat.Session, spin string) []message.Msg {
	var out []message.Msg
	if text := v.welcome.String(); text != "" {
		out = append(out, message.Msg{Type: message.MsgTypeWelcome, Content: text})
	} else if w := s.Welcome(); w != nil && w.Phase() == welcome.Dots {
		out = append(out, message.Msg{Type: message.MsgTypeWelcome, Content: spin})
	}

	editing, _ := s.PendingEdit()
	for _, t := range s.Store().Visible() {
		user := t.UserText
		if t.Attachment != nil {
			user = strings.TrimSpace(user + " [image: " + t.Attachment.Name + "]")
		}
		um := message.Msg{Type: message.MsgTypeUser, Label: t.ID.String(), Content: user, Time: t.CreatedAt}
		if t.ID == editing {
			um.Footer = "editing"
		}
		out = append(out, um)

		var units []string
		advance := false
		if tv, ok := v.turns[t.ID]; ok {
			units, advance = tv.units, tv.advance
		}
		formatted := make([]string, len(units))
		for i, u := range units {
			formatted[i] = bullets(u)
		}
		content := strings.Join(formatted, "\n\n")
		switch {
		case content != "":
		case s.Controller().Pending(t.ID):
			content = spin + " thinking"
		case len(t.Versions) == 0:
			out = append(out, message.Msg{Type: message.MsgTypeSystem, Content: "stopped"})
			continue
		}

		am := message.Msg{Type: message.MsgTypeAssistant, Content: content}
		var footer []string
		if ver, ok := t.Version(); ok {
			am.Failed = ver.Failed
		}
		if t.Navigable() && !s.Controller().Busy(t.ID) {
			pos, n := s.Position(t.ID)
			footer = append(footer, fmt.Sprintf("‹ %d/%d ›", pos, n))
		}
		if advance {
			footer = append(footer, "enter: more")
		}
		if t.State == transcript.StateCanceled {
			footer = append(footer, "stopped")
		}
		am.Footer = strings.Join(footer, "  ")
		out = append(out, am)
	}
	return out
}

// bullets renders the list-item lines of a unit with a bullet.
func bullets(unit string) string {
	lines := disclosure.NewUnit(unit).Lines
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Raw
		if l.ListItem {
			out[i] = "  • " + l.Text
		}
	}
	return strings.Join(out, "\n")
}

func (v *transcriptView) render(s *chat.Session, width int, spin string) string {
	msgs := v.messages(s, spin)
	blocks := make([]string, len(msgs))
	for i, m := range msgs {
		blocks[i] = message.Render(m, width)
	}
	return strings.Join(blocks, "\n\n")
}
