package interactive

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/tmc/stepchat/answer"
	"github.com/tmc/stepchat/chat"
	"github.com/tmc/stepchat/transcript"
)

const commandHelp = `commands:
  :attach PATH   attach an image to the next message
  :detach        drop the pending image
  :edit [N]      edit question N (default: the last one); send to resend it
  :cancel        abandon the pending edit
  :prev [N]      show the previous answer of question N
  :next [N]      show the next answer of question N
  :more          reveal the next steps of the current answer
  :stop          stop the running answer
  :quit          leave`

// outcome is the result of a prompt action.
type outcome struct {
	Output string
	// Edit is text to load into the input for editing.
	Edit string
	// Shown is the turn whose selected answer version changed.
	Shown *transcript.Turn
	Cmd   tea.Cmd
}

// driver turns prompt input into session actions. Both front ends share it.
type driver struct {
	chat   *chat.Session
	attach *answer.Attachment
	log    *zap.SugaredLogger
}

func newDriver(s *chat.Session, att *answer.Attachment, log *zap.SugaredLogger) *driver {
	return &driver{chat: s, attach: att, log: log}
}

// submit sends the input with any pending attachment. Blank input reveals
// the next batch of a disclosure waiting at its gate.
func (d *driver) submit(text string) tea.Cmd {
	if strings.TrimSpace(text) == "" && d.attach == nil {
		return d.chat.Advance()
	}
	cmd := d.chat.Send(text, d.attach)
	d.attach = nil
	return cmd
}

// lastTurn returns the newest visible turn.
func (d *driver) lastTurn() (transcript.TurnID, bool) {
	visible := d.chat.Store().Visible()
	if len(visible) == 0 {
		return 0, false
	}
	return visible[len(visible)-1].ID, true
}

func (d *driver) target(arg string) (transcript.TurnID, error) {
	if arg == "" {
		id, ok := d.lastTurn()
		if !ok {
			return 0, fmt.Errorf("no questions yet")
		}
		return id, nil
	}
	n, err := strconv.ParseUint(strings.TrimPrefix(arg, "#"), 10, 64)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("invalid question number %q", arg)
	}
	return transcript.TurnID(n), nil
}

func (d *driver) navigate(arg string, dir transcript.Direction) (outcome, error) {
	id, err := d.target(arg)
	if err != nil {
		return outcome{}, err
	}
	if _, moved := d.chat.Navigate(id, dir); !moved {
		return outcome{Output: fmt.Sprintf("%v: no %s answer", id, dir)}, nil
	}
	t, _ := d.chat.Store().Turn(id)
	pos, n := d.chat.Position(id)
	return outcome{Shown: &t, Output: fmt.Sprintf("%v: answer %d/%d", id, pos, n)}, nil
}

func (d *driver) edit(arg string) (outcome, error) {
	id, err := d.target(arg)
	if err != nil {
		return outcome{}, err
	}
	text, ok := d.chat.Edit(id)
	if !ok {
		return outcome{}, fmt.Errorf("cannot edit %v", id)
	}
	return outcome{Edit: text, Output: fmt.Sprintf("editing %v; send to resend it, :cancel to abandon", id)}, nil
}

// execute runs a command-mode line. The leading ':' is optional.
func (d *driver) execute(line string) (outcome, error) {
	name, arg, _ := strings.Cut(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), ":")), " ")
	arg = strings.TrimSpace(arg)
	d.log.Debugw("command", "name", name, "arg", arg)

	switch name {
	case "":
		return outcome{}, nil
	case "attach", "a":
		if arg == "" {
			return outcome{}, fmt.Errorf("usage: :attach PATH")
		}
		att, err := answer.LoadAttachment(arg)
		if err != nil {
			return outcome{}, err
		}
		d.attach = att
		return outcome{Output: fmt.Sprintf("attached %s (%s)", att.Name, att.MIMEType)}, nil
	case "detach":
		d.attach = nil
		return outcome{Output: "attachment dropped"}, nil
	case "edit", "e":
		return d.edit(arg)
	case "cancel":
		d.chat.CancelEdit()
		return outcome{Output: "edit abandoned"}, nil
	case "prev", "p":
		return d.navigate(arg, transcript.Previous)
	case "next", "n":
		return d.navigate(arg, transcript.Next)
	case "more", "m":
		cmd := d.chat.Advance()
		if cmd == nil {
			return outcome{Output: "nothing more to show"}, nil
		}
		return outcome{Cmd: cmd}, nil
	case "stop", "s":
		d.chat.Stop()
		return outcome{}, nil
	case "quit", "q", "exit":
		return outcome{}, ErrQuit
	case "help", "h", "?":
		return outcome{Output: commandHelp}, nil
	default:
		return outcome{}, fmt.Errorf("unknown command %q (try :help)", name)
	}
}
