package rollstats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertSeries compares two float series treating NaN as equal to NaN.
func assertSeries(t *testing.T, want, got []float64) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		if math.IsNaN(want[i]) {
			assert.True(t, math.IsNaN(got[i]), "index %d: want NaN, got %v", i, got[i])
			continue
		}
		assert.InDelta(t, want[i], got[i], 1e-9, "index %d", i)
	}
}

func TestTrackedValueCommitGrowsHistory(t *testing.T) {
	tv := NewTrackedValue(0)
	assert.Equal(t, 0, tv.HistoryLen())

	for i := 1; i < 10; i++ {
		tv.Commit()
		tv.Add(1)

		want := make([]float64, i)
		for j := range want {
			want[j] = float64(j)
		}
		assertSeries(t, want, tv.History())
	}
}

func TestTrackedValueObserverSeesCommittedValues(t *testing.T) {
	values := []float64{0, 1, 2, 3}
	var seen []float64

	tv := NewTrackedValue(math.NaN())
	tv.Observe(func(v *TrackedValue) {
		seen = append(seen, v.Current())
	})

	for _, v := range values {
		tv.Set(v)
		tv.Commit()
	}

	assertSeries(t, values, seen)
}

func TestTrackedValueHistoryIsACopy(t *testing.T) {
	tv := NewTrackedValue(1)
	tv.Commit()

	history := tv.History()
	history[0] = 42

	assert.Equal(t, 1.0, tv.At(0))
}

func TestTrackedValueClone(t *testing.T) {
	orig := NewTrackedValue(0)
	orig.Commit()
	orig.Add(1)
	orig.Commit()

	clone := orig.Clone()
	assert.Equal(t, orig.Current(), clone.Current())
	assertSeries(t, orig.History(), clone.History())

	// The clone is detached: mutating it leaves the original alone.
	clone.Add(10)
	clone.Commit()
	assert.Equal(t, 1.0, orig.Current())
	assert.Equal(t, 2, orig.HistoryLen())
	assert.Equal(t, 3, clone.HistoryLen())
}

func TestTransform(t *testing.T) {
	a := NewTrackedValue(0)
	b := NewTrackedValue(1)
	for i := 0; i < 9; i++ {
		a.Add(1)
		a.Commit()
		b.Commit()
	}

	sum, err := Transform(func(values ...float64) float64 {
		return values[0] + values[1]
	}, a, b)
	require.NoError(t, err)

	want := make([]float64, 9)
	for i := range want {
		want[i] = float64(i + 2)
	}
	assertSeries(t, want, sum.History())
	assert.Equal(t, 10.0, sum.Current())

	// Inputs are untouched and the result is not wired to them.
	a.Add(1)
	a.Commit()
	b.Commit()
	assert.Equal(t, 9, sum.HistoryLen())
}

func TestTransformErrors(t *testing.T) {
	_, err := Transform(Identity)
	assert.Error(t, err)

	a := NewTrackedValue(0)
	a.Commit()
	b := NewTrackedValue(0)

	_, err = Transform(func(values ...float64) float64 { return values[0] }, a, b)
	assert.Error(t, err)
}

func TestConnectJoinBarrier(t *testing.T) {
	in1 := NewTrackedValue(0)
	in2 := NewTrackedValue(0)
	in3 := NewTrackedValue(0)
	out := NewTrackedValue(math.NaN())

	link := Connect(func(values ...float64) float64 {
		return values[0] + values[1] + values[2]
	}, out, in1, in2, in3)

	steps := []struct{ v1, v2, v3 float64 }{
		{1, 10, 100},
		{2, 20, 200},
		{3, 30, 300},
	}
	for _, step := range steps {
		in1.Set(step.v1)
		in1.Commit()
		assert.Equal(t, 1, link.Pending())
		assert.False(t, link.Complete())

		in2.Set(step.v2)
		in2.Commit()
		assert.Equal(t, 2, link.Pending())

		// The barrier completes on the last input and resets.
		in3.Set(step.v3)
		in3.Commit()
		assert.Equal(t, 0, link.Pending())
		assert.True(t, link.Complete())
	}

	assertSeries(t, []float64{111, 222, 333}, out.History())
	assert.Same(t, out, link.Output())
}

func TestConnectFiresOncePerCycle(t *testing.T) {
	in1 := NewTrackedValue(0)
	in2 := NewTrackedValue(0)
	out := NewTrackedValue(math.NaN())

	Connect(func(values ...float64) float64 {
		return values[0] * values[1]
	}, out, in1, in2)

	// Committing the same input repeatedly must not fire the link.
	in1.Set(3)
	in1.Commit()
	in1.Commit()
	in1.Commit()
	assert.Equal(t, 0, out.HistoryLen())

	in2.Set(5)
	in2.Commit()
	assert.Equal(t, 1, out.HistoryLen())
	assert.Equal(t, 15.0, out.Current())
}

func TestConnectDuplicateInput(t *testing.T) {
	in := NewTrackedValue(0)
	out := NewTrackedValue(math.NaN())

	// The same cell used twice counts once for the barrier but is passed to
	// the func per occurrence.
	Connect(func(values ...float64) float64 {
		return values[0] * values[1]
	}, out, in, in)

	in.Set(4)
	in.Commit()
	assert.Equal(t, 1, out.HistoryLen())
	assert.Equal(t, 16.0, out.Current())
}
