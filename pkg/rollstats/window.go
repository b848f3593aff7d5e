package rollstats

import (
	"math"

	"github.com/gammazero/deque"
)

// Names of the built-in subscriptions.
const (
	StatVariance     = "var"
	StatStdDev       = "std"
	StatPopVariance  = "pop_var"
	StatPopStdDev    = "pop_std"
	StatZScore       = "zscore"
	StatMean         = "mean"
	StatHarmonicMean = "harmonic_mean"
)

// RollingWindow maintains streaming statistics over a bounded or unbounded
// FIFO window of samples. Six primary tracked values (latest value, count,
// mean, sum of squared deviations, sum, reciprocal sum) are updated
// incrementally on every push using a windowed variant of Welford's online
// algorithm; derived statistics subscribe to the primaries and recompute
// exactly once per push, each keeping its own history aligned with the push
// sequence.
//
// A RollingWindow is not safe for concurrent use. Callers that push from
// multiple goroutines must serialize whole Push calls with an external lock.
type RollingWindow struct {
	windowSize float64
	samples    deque.Deque[float64]

	value         *TrackedValue
	n             *TrackedValue
	mean          *TrackedValue
	sumSqDev      *TrackedValue
	sum           *TrackedValue
	reciprocalSum *TrackedValue

	// Commit order is fixed: value, n, S, M, sum, reciprocal sum. Observers
	// fire as part of each commit, so derived values with inputs drawn from
	// the primaries complete their join barriers within the same push cycle.
	primaries [6]*TrackedValue

	derived map[string]*TrackedValue
	links   []*Link
}

// New creates a RollingWindow holding at most windowSize samples and pushes
// any initial samples through it. The window size may be fractional;
// +Inf means unbounded. A size <= 0 produces a degenerate window on which
// Push is a no-op.
func New(windowSize float64, initial ...float64) *RollingWindow {
	w := &RollingWindow{
		windowSize:    windowSize,
		value:         NewTrackedValue(math.NaN()),
		n:             NewTrackedValue(0),
		mean:          NewTrackedValue(math.NaN()),
		sumSqDev:      NewTrackedValue(math.NaN()),
		sum:           NewTrackedValue(0),
		reciprocalSum: NewTrackedValue(math.NaN()),
		derived:       make(map[string]*TrackedValue),
	}
	w.primaries = [6]*TrackedValue{w.value, w.n, w.sumSqDev, w.mean, w.sum, w.reciprocalSum}
	w.Push(initial...)
	return w
}

// NewUnbounded creates a RollingWindow that never evicts.
func NewUnbounded(initial ...float64) *RollingWindow {
	return New(math.Inf(1), initial...)
}

// Push admits samples in argument order. For each sample the retained window
// and all primary tracked values are updated incrementally, the oldest
// sample is evicted first if the window is full, and one history step is
// committed across every primary, firing derived-value recomputation to a
// fixed point before the next sample is processed.
//
// Samples are not validated; NaN or infinite inputs propagate through the
// running statistics.
func (w *RollingWindow) Push(samples ...float64) {
	if w.windowSize <= 0 {
		return
	}

	for _, sample := range samples {
		w.samples.PushBack(sample)
		w.value.Set(sample)

		// Evict before counting the new sample. n starts at 0, so the very
		// first sample never triggers eviction.
		if w.n.Current() >= w.windowSize {
			w.evict()
		}

		reciprocal := math.NaN()
		if sample != 0 {
			reciprocal = 1 / sample
		}

		w.n.Add(1)
		w.sum.Add(sample)
		if w.n.Current() == 1 {
			w.sumSqDev.Set(0)
			w.mean.Set(sample)
			w.reciprocalSum.Set(reciprocal)
		} else {
			prevMean := w.mean.Current()
			diff := sample - prevMean
			w.mean.Add(diff / w.n.Current())
			// The second factor uses the already updated mean; this is what
			// keeps Welford's recurrence numerically stable.
			w.sumSqDev.Add(diff * (sample - w.mean.Current()))
			w.reciprocalSum.Add(reciprocal)
		}

		for _, primary := range w.primaries {
			primary.Commit()
		}
	}
}

// evict removes the oldest retained sample and applies the inverse update to
// the primaries. Its effects are committed by the Push cycle that triggered
// it, never independently.
func (w *RollingWindow) evict() {
	out := w.samples.PopFront()
	prevMean := w.mean.Current()

	w.n.Add(-1)
	w.sum.Add(-out)

	if w.n.Current() == 0 {
		w.sumSqDev.Set(math.NaN())
		w.mean.Set(math.NaN())
		w.reciprocalSum.Set(math.NaN())
		return
	}

	// The diff here uses the not-yet-decremented mean, unlike the insertion
	// update. The asymmetry is load-bearing: unifying the two changes the
	// numeric output.
	diff := out - w.mean.Current()
	w.mean.Add(-diff / w.n.Current())
	w.sumSqDev.Add(-diff * (out - prevMean))

	reciprocal := math.NaN()
	if out != 0 {
		reciprocal = 1 / out
	}
	// Evicting a zero sample poisons the reciprocal sum with NaN. That is
	// intentional: the harmonic mean stays undefined until the window state
	// is rebuilt.
	w.reciprocalSum.Add(-reciprocal)
}

// Subscribe creates a derived TrackedValue named name, computed by fn from
// the given inputs, and registers it to recompute once per push cycle. The
// output is also returned for direct use.
//
// Inputs may be primaries, or other derived values for chained derivations;
// a chained derivation fires after the derivations it depends on within the
// same push cycle.
func (w *RollingWindow) Subscribe(name string, fn StatFunc, inputs ...*TrackedValue) *TrackedValue {
	output := NewTrackedValue(math.NaN())
	w.links = append(w.links, Connect(fn, output, inputs...))
	w.derived[name] = output
	return output
}

// Derived looks up a subscribed output by name.
func (w *RollingWindow) Derived(name string) (*TrackedValue, bool) {
	tv, ok := w.derived[name]
	return tv, ok
}

// SubscribeVariance subscribes the sample variance S/(n-1) as "var".
func (w *RollingWindow) SubscribeVariance() *TrackedValue {
	return w.Subscribe(StatVariance, SampleVariance, w.sumSqDev, w.n)
}

// SubscribeStdDev subscribes the sample standard deviation as "std".
func (w *RollingWindow) SubscribeStdDev() *TrackedValue {
	return w.Subscribe(StatStdDev, SampleStdDev, w.sumSqDev, w.n)
}

// SubscribePopVariance subscribes the population variance S/n as "pop_var".
func (w *RollingWindow) SubscribePopVariance() *TrackedValue {
	return w.Subscribe(StatPopVariance, PopVariance, w.sumSqDev, w.n)
}

// SubscribePopStdDev subscribes the population standard deviation as
// "pop_std".
func (w *RollingWindow) SubscribePopStdDev() *TrackedValue {
	return w.Subscribe(StatPopStdDev, PopStdDev, w.sumSqDev, w.n)
}

// SubscribeZScore subscribes the z-score of the latest sample as "zscore".
func (w *RollingWindow) SubscribeZScore() *TrackedValue {
	return w.Subscribe(StatZScore, ZScore, w.sumSqDev, w.n, w.value, w.mean)
}

// SubscribeMean subscribes the running mean passthrough as "mean".
func (w *RollingWindow) SubscribeMean() *TrackedValue {
	return w.Subscribe(StatMean, Identity, w.mean)
}

// SubscribeHarmonicMean subscribes n/reciprocalSum as "harmonic_mean".
func (w *RollingWindow) SubscribeHarmonicMean() *TrackedValue {
	return w.Subscribe(StatHarmonicMean, HarmonicMean, w.reciprocalSum, w.n)
}

// Value returns the tracked latest sample.
func (w *RollingWindow) Value() *TrackedValue { return w.value }

// Count returns the tracked number of retained samples.
func (w *RollingWindow) Count() *TrackedValue { return w.n }

// Mean returns the tracked running mean.
func (w *RollingWindow) Mean() *TrackedValue { return w.mean }

// SumSquaredDev returns the tracked running sum of squared deviations from
// the mean, the S term of Welford's recurrence.
func (w *RollingWindow) SumSquaredDev() *TrackedValue { return w.sumSqDev }

// Sum returns the tracked running sum.
func (w *RollingWindow) Sum() *TrackedValue { return w.sum }

// ReciprocalSum returns the tracked running sum of sample reciprocals.
func (w *RollingWindow) ReciprocalSum() *TrackedValue { return w.reciprocalSum }

// WindowSize returns the configured window size.
func (w *RollingWindow) WindowSize() float64 { return w.windowSize }

// Len returns the number of retained samples.
func (w *RollingWindow) Len() int {
	return w.samples.Len()
}

// At returns the retained sample at index i, oldest first.
func (w *RollingWindow) At(i int) float64 {
	return w.samples.At(i)
}

// Slice returns a copy of the retained samples in [lo, hi), oldest first.
func (w *RollingWindow) Slice(lo, hi int) []float64 {
	out := make([]float64, 0, hi-lo)
	for i := lo; i < hi; i++ {
		out = append(out, w.samples.At(i))
	}
	return out
}

// Samples returns a copy of all retained samples, oldest first.
func (w *RollingWindow) Samples() []float64 {
	return w.Slice(0, w.samples.Len())
}

// Equal reports whether two windows have the same window size and the same
// retained samples in the same order. Histories and derived values do not
// participate: two windows that arrived at the same retained contents by
// different push sequences compare equal.
func (w *RollingWindow) Equal(other *RollingWindow) bool {
	if other == nil {
		return false
	}
	if w.windowSize != other.windowSize {
		return false
	}
	if w.samples.Len() != other.samples.Len() {
		return false
	}
	for i := 0; i < w.samples.Len(); i++ {
		if w.samples.At(i) != other.samples.At(i) {
			return false
		}
	}
	return true
}
