// Package history keeps the input history of the chat prompt. The file
// format is one entry per line, the format chzyer/readline writes, so both
// the full-screen and the line interface share a history file.
package history

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultLimit caps the number of entries kept.
const DefaultLimit = 500

// History is a list of past inputs with a recall cursor.
type History struct {
	entries []string
	pos     int // len(entries) when not recalling
	limit   int
}

// New returns a history holding entries.
func New(entries []string) *History {
	h := &History{limit: DefaultLimit}
	for _, e := range entries {
		h.Add(e)
	}
	return h
}

// Entries returns the entries, oldest first.
func (h *History) Entries() []string {
	return append([]string(nil), h.entries...)
}

// Add appends an entry, skipping blanks and immediate repeats, and resets
// the recall cursor. Multi-line entries are stored on one line.
func (h *History) Add(entry string) {
	entry = strings.TrimSpace(strings.ReplaceAll(entry, "\n", " "))
	if entry != "" && (len(h.entries) == 0 || h.entries[len(h.entries)-1] != entry) {
		h.entries = append(h.entries, entry)
		if over := len(h.entries) - h.limit; over > 0 {
			h.entries = h.entries[over:]
		}
	}
	h.pos = len(h.entries)
}

// Prev moves the cursor back and returns the entry there.
func (h *History) Prev() (string, bool) {
	if h.pos == 0 {
		return "", false
	}
	h.pos--
	return h.entries[h.pos], true
}

// Next moves the cursor forward. Moving past the newest entry returns an
// empty input.
func (h *History) Next() (string, bool) {
	if h.pos >= len(h.entries) {
		return "", false
	}
	h.pos++
	if h.pos == len(h.entries) {
		return "", true
	}
	return h.entries[h.pos], true
}

// Load reads a history file. A missing file is an empty history.
func Load(filePath string) (*History, error) {
	f, err := os.Open(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return New(nil), nil
		}
		return nil, fmt.Errorf("failed to open history file '%s': %w", filePath, err)
	}
	defer f.Close()

	var entries []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		entries = append(entries, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning history file: %w", err)
	}
	return New(entries), nil
}

// Save writes the history to filePath, creating its directory.
func (h *History) Save(filePath string) error {
	if filePath == "" {
		return errors.New("history save path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0o700); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}
	f, err := os.OpenFile(filePath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open history file '%s' for writing: %w", filePath, err)
	}
	w := bufio.NewWriter(f)
	for _, e := range h.entries {
		w.WriteString(e + "\n")
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("writing history: %w", err)
	}
	return f.Close()
}
