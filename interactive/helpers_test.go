package interactive

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap/zaptest"

	"github.com/tmc/stepchat/answer"
	"github.com/tmc/stepchat/disclosure"
)

var fast = disclosure.Settings{BatchSize: 3, Interval: time.Microsecond}

// stepsService answers with a preamble and four steps, so the default
// batch size gates after the second step.
type stepsService struct {
	calls    int
	block    bool
	requests []answer.Request
}

func (s *stepsService) Answer(ctx context.Context, req answer.Request) (string, error) {
	s.calls++
	s.requests = append(s.requests, req)
	if s.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return fmt.Sprintf("Answer %d.\nStep 1 - Open %s\nStep 2 - Check\nStep 3 - Save\nStep 4 - Done", s.calls, req.Query), nil
}

func testConfig(t *testing.T, svc answer.Service) Config {
	return Config{
		Service:  svc,
		Logger:   zaptest.NewLogger(t).Sugar(),
		Settings: fast,
		Backend:  "test",
	}
}

// drive runs cmd and every command it produces, feeding messages to
// update. Spinner ticks are dropped so animations do not keep it busy.
// It reports whether a command asked to quit.
func drive(t *testing.T, cmd tea.Cmd, update func(tea.Msg) tea.Cmd) (quit bool) {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		if steps > 100000 {
			t.Fatal("commands did not settle")
		}
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case nil, spinner.TickMsg:
		case tea.QuitMsg:
			quit = true
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			queue = append(queue, update(msg))
		}
	}
	return quit
}
