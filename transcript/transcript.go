// Package transcript holds the turns of a conversation and the answer
// versions recorded against each of them.
//
// The Store is the single writer of turn data. Turns are appended in
// creation order and never removed; an edit hides downstream turns instead
// of deleting them.
package transcript

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/tmc/stepchat/answer"
)

// ErrUnknownTurn is returned when an operation names a turn the store has
// never created.
var ErrUnknownTurn = errors.New("unknown turn")

// TurnID identifies a turn. IDs are assigned by the Store, start at 1 and
// grow monotonically, so a larger ID always means a later turn.
type TurnID uint64

func (id TurnID) String() string { return fmt.Sprintf("#%d", uint64(id)) }

// GenerationState is the answer-generation status of a turn.
type GenerationState int

const (
	StateIdle GenerationState = iota
	StateRunning
	StateCanceled
	StateFailed
)

func (s GenerationState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCanceled:
		return "canceled"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("GenerationState(%d)", int(s))
}

// AnswerVersion is one answer recorded against a turn. Versions are
// immutable once appended.
type AnswerVersion struct {
	Index     int       `json:"index"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
	// Failed marks a synthetic answer produced for a transport failure.
	Failed bool `json:"failed,omitempty"`
}

// Turn is one user submission and the answers produced for it.
type Turn struct {
	ID         TurnID             `json:"id"`
	UserText   string             `json:"userText"`
	Attachment *answer.Attachment `json:"attachment,omitempty"`
	Versions   []AnswerVersion    `json:"versions"`
	Current    int                `json:"current"`
	Visible    bool               `json:"visible"`
	State      GenerationState    `json:"state"`
	CreatedAt  time.Time          `json:"createdAt"`
}

// Version returns the version selected by the turn's version pointer.
func (t Turn) Version() (AnswerVersion, bool) {
	if t.Current < 0 || t.Current >= len(t.Versions) {
		return AnswerVersion{}, false
	}
	return t.Versions[t.Current], true
}

// Navigable reports whether the turn has more than one version to step
// between.
func (t Turn) Navigable() bool { return len(t.Versions) >= 2 }

// Request builds the outbound answer request for the turn's current user
// text and attachment.
func (t Turn) Request() answer.Request {
	return answer.Request{Query: t.UserText, Attachment: t.Attachment}
}

// Store owns all turns of a session.
type Store struct {
	mu    sync.RWMutex
	last  TurnID
	turns []*Turn
	byID  map[TurnID]*Turn

	now func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		byID: make(map[TurnID]*Turn),
		now:  time.Now,
	}
}

// Create appends a new visible, idle turn and returns its ID.
func (s *Store) Create(text string, att *answer.Attachment) TurnID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last++
	t := &Turn{
		ID:         s.last,
		UserText:   text,
		Attachment: att,
		Current:    -1,
		Visible:    true,
		CreatedAt:  s.now(),
	}
	s.turns = append(s.turns, t)
	s.byID[t.ID] = t
	return t.ID
}

// Turn returns a snapshot of the turn with the given ID.
func (s *Store) Turn(id TurnID) (Turn, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.byID[id]
	if !ok {
		return Turn{}, false
	}
	return t.clone(), true
}

// Turns returns snapshots of every turn, hidden ones included, in creation
// order.
func (s *Store) Turns() []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Turn, 0, len(s.turns))
	for _, t := range s.turns {
		out = append(out, t.clone())
	}
	return out
}

// Visible returns snapshots of the visible turns in creation order. This is
// the transcript a renderer shows.
func (s *Store) Visible() []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Turn
	for _, t := range s.turns {
		if t.Visible {
			out = append(out, t.clone())
		}
	}
	return out
}

// SetUserText replaces the user text of a turn.
func (s *Store) SetUserText(id TurnID, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("set user text %v: %w", id, ErrUnknownTurn)
	}
	t.UserText = text
	return nil
}

// SetAttachment replaces the attachment of a turn.
func (s *Store) SetAttachment(id TurnID, att *answer.Attachment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("set attachment %v: %w", id, ErrUnknownTurn)
	}
	t.Attachment = att
	return nil
}

// HideAfter marks every turn created after id as invisible and returns the
// IDs that were visible before the call.
func (s *Store) HideAfter(id TurnID) ([]TurnID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return nil, fmt.Errorf("hide after %v: %w", id, ErrUnknownTurn)
	}
	var hidden []TurnID
	for _, t := range s.turns {
		if t.ID > id && t.Visible {
			t.Visible = false
			hidden = append(hidden, t.ID)
		}
	}
	return hidden, nil
}

// AppendVersion records a new answer version and points the turn at it.
func (s *Store) AppendVersion(id TurnID, text string, failed bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.byID[id]
	if !ok {
		return 0, fmt.Errorf("append version to %v: %w", id, ErrUnknownTurn)
	}
	v := AnswerVersion{
		Index:     len(t.Versions),
		Text:      text,
		CreatedAt: s.now(),
		Failed:    failed,
	}
	t.Versions = append(t.Versions, v)
	t.Current = v.Index
	return v.Index, nil
}

// SetState records the generation state of a turn.
func (s *Store) SetState(id TurnID, state GenerationState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("set state of %v: %w", id, ErrUnknownTurn)
	}
	t.State = state
	return nil
}

// Step moves the version pointer of a turn by delta, clamped to the valid
// range. It reports the resulting index and whether the pointer moved.
func (s *Store) Step(id TurnID, delta int) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.byID[id]
	if !ok {
		return 0, false, fmt.Errorf("step %v: %w", id, ErrUnknownTurn)
	}
	if len(t.Versions) == 0 {
		return t.Current, false, nil
	}
	next := min(max(t.Current+delta, 0), len(t.Versions)-1)
	moved := next != t.Current
	t.Current = next
	return next, moved, nil
}

func (t *Turn) clone() Turn {
	c := *t
	c.Versions = slices.Clone(t.Versions)
	return c
}
