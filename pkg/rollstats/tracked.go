package rollstats

import (
	"fmt"
)

// StatFunc combines the current values of one or more tracked inputs into a
// single derived value. Implementations must be pure: same inputs, same
// output, no side effects.
type StatFunc func(values ...float64) float64

// TrackedValue is a float64 cell that remembers its own history. Every call
// to Commit appends the current value to the history and notifies observers,
// so the history grows by exactly one entry per committed step.
type TrackedValue struct {
	current float64
	history []float64
	hooks   []func(*TrackedValue)
}

// NewTrackedValue creates a TrackedValue with the given initial value and an
// empty history.
func NewTrackedValue(value float64) *TrackedValue {
	return &TrackedValue{current: value}
}

// Current returns the current value.
func (t *TrackedValue) Current() float64 {
	return t.current
}

// Set replaces the current value without committing it.
func (t *TrackedValue) Set(value float64) {
	t.current = value
}

// Add adds delta to the current value without committing it.
func (t *TrackedValue) Add(delta float64) {
	t.current += delta
}

// Commit appends the current value to the history and fires observers in
// registration order.
func (t *TrackedValue) Commit() {
	t.history = append(t.history, t.current)
	for _, hook := range t.hooks {
		hook(t)
	}
}

// Observe registers fn to be called after every commit.
func (t *TrackedValue) Observe(fn func(*TrackedValue)) {
	t.hooks = append(t.hooks, fn)
}

// History returns a copy of the committed history. The returned slice is
// owned by the caller.
func (t *TrackedValue) History() []float64 {
	out := make([]float64, len(t.history))
	copy(out, t.history)
	return out
}

// HistoryLen returns the number of commits performed on this value.
func (t *TrackedValue) HistoryLen() int {
	return len(t.history)
}

// At returns the committed value at history index i.
func (t *TrackedValue) At(i int) float64 {
	return t.history[i]
}

// Clone returns a deep copy of the value and its history. Observers are not
// copied: the clone is a detached snapshot.
func (t *TrackedValue) Clone() *TrackedValue {
	clone := &TrackedValue{current: t.current}
	clone.history = make([]float64, len(t.history))
	copy(clone.history, t.history)
	return clone
}

// Transform produces a one-shot derived TrackedValue: its current value is fn
// applied to the inputs' current values, and its history at each index is fn
// applied to the inputs' histories at that index. The inputs are not
// modified and no observers are wired; the result does not follow future
// updates.
//
// All inputs must have equal history length.
func Transform(fn StatFunc, inputs ...*TrackedValue) (*TrackedValue, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("transform requires at least one input")
	}
	steps := len(inputs[0].history)
	for i, in := range inputs[1:] {
		if len(in.history) != steps {
			return nil, fmt.Errorf("transform input %d has history length %d, want %d",
				i+1, len(in.history), steps)
		}
	}

	values := make([]float64, len(inputs))
	for i, in := range inputs {
		values[i] = in.current
	}
	result := NewTrackedValue(fn(values...))

	result.history = make([]float64, 0, steps)
	for step := 0; step < steps; step++ {
		for i, in := range inputs {
			values[i] = in.history[step]
		}
		result.history = append(result.history, fn(values...))
	}
	return result, nil
}

// Link connects N tracked inputs to one derived output through a StatFunc.
// It implements join-barrier semantics: the output recomputes and commits
// exactly once per cycle, after every distinct input has committed since the
// link last fired. The barrier state lives in the struct rather than a
// closure so it can be inspected and tested.
type Link struct {
	inputs  []*TrackedValue
	output  *TrackedValue
	fn      StatFunc
	pending map[*TrackedValue]struct{}
	want    int
}

// Connect creates a Link from inputs to output and attaches its barrier hook
// to every distinct input. The same TrackedValue may appear more than once in
// inputs; it still counts as a single barrier participant but its value is
// passed to fn once per occurrence, in argument order.
func Connect(fn StatFunc, output *TrackedValue, inputs ...*TrackedValue) *Link {
	l := &Link{
		inputs:  inputs,
		output:  output,
		fn:      fn,
		pending: make(map[*TrackedValue]struct{}),
	}
	seen := make(map[*TrackedValue]struct{}, len(inputs))
	for _, in := range inputs {
		if _, dup := seen[in]; dup {
			continue
		}
		seen[in] = struct{}{}
		in.Observe(l.notify)
	}
	l.want = len(seen)
	return l
}

// Output returns the derived TrackedValue this link feeds.
func (l *Link) Output() *TrackedValue {
	return l.output
}

// Pending returns how many distinct inputs have committed since the link
// last fired.
func (l *Link) Pending() int {
	return len(l.pending)
}

// Complete reports whether the barrier is empty, i.e. the link is not
// waiting on any partially committed cycle.
func (l *Link) Complete() bool {
	return len(l.pending) == 0
}

// notify marks in as committed and fires the link once the barrier is
// complete: recompute the output from the inputs' current values, commit it,
// and reset the barrier.
func (l *Link) notify(in *TrackedValue) {
	l.pending[in] = struct{}{}
	if len(l.pending) < l.want {
		return
	}

	values := make([]float64, len(l.inputs))
	for i, input := range l.inputs {
		values[i] = input.current
	}
	l.output.Set(l.fn(values...))
	l.output.Commit()
	l.pending = make(map[*TrackedValue]struct{}, l.want)
}
