package transcript

// Direction is a step through a turn's answer versions.
type Direction int

const (
	Previous Direction = -1
	Next     Direction = 1
)

func (d Direction) String() string {
	if d < 0 {
		return "previous"
	}
	return "next"
}

// Navigator moves the version pointer of turns that have two or more
// answer versions.
type Navigator struct {
	store *Store
	// busy reports whether a turn has an in-flight generation. A busy turn
	// owns its pointer until the run finishes.
	busy func(TurnID) bool
}

// NewNavigator returns a navigator over store. busy may be nil.
func NewNavigator(store *Store, busy func(TurnID) bool) *Navigator {
	return &Navigator{store: store, busy: busy}
}

// Navigate moves the version pointer of the turn one step in direction. It
// returns the resulting index and whether the pointer moved. Moves past
// either end, moves on a hidden or busy turn and moves on a turn with
// fewer than two versions are no-ops.
func (n *Navigator) Navigate(id TurnID, dir Direction) (int, bool) {
	t, ok := n.store.Turn(id)
	if !ok || !t.Visible || !t.Navigable() {
		return t.Current, false
	}
	if n.busy != nil && n.busy(id) {
		return t.Current, false
	}
	delta := 1
	if dir < 0 {
		delta = -1
	}
	idx, moved, err := n.store.Step(id, delta)
	if err != nil {
		return t.Current, false
	}
	return idx, moved
}

// Position returns the 1-based position of the selected version and the
// number of versions, as shown in a "2/3" indicator.
func (n *Navigator) Position(id TurnID) (int, int) {
	t, ok := n.store.Turn(id)
	if !ok {
		return 0, 0
	}
	return t.Current + 1, len(t.Versions)
}
