package rollstats

import "math"

// Built-in StatFuncs for the derived statistics a RollingWindow can
// subscribe to. Undefined results are NaN rather than errors; NaN propagates
// through downstream arithmetic.

// SampleVariance expects (S, n) and returns S/(n-1). NaN when n <= 1.
func SampleVariance(values ...float64) float64 {
	s, n := values[0], values[1]
	if n <= 1 {
		return math.NaN()
	}
	return s / (n - 1)
}

// SampleStdDev expects (S, n) and returns sqrt(S/(n-1)). NaN when n <= 1.
func SampleStdDev(values ...float64) float64 {
	s, n := values[0], values[1]
	if n <= 1 {
		return math.NaN()
	}
	return math.Sqrt(s / (n - 1))
}

// PopVariance expects (S, n) and returns S/n. NaN when n <= 1: the domain
// guard is shared with SampleVariance, so a lone sample has no population
// variance either.
func PopVariance(values ...float64) float64 {
	s, n := values[0], values[1]
	if n <= 1 {
		return math.NaN()
	}
	return s / n
}

// PopStdDev expects (S, n) and returns sqrt(S/n). Same NaN rule as
// PopVariance.
func PopStdDev(values ...float64) float64 {
	s, n := values[0], values[1]
	if n <= 1 {
		return math.NaN()
	}
	return math.Sqrt(s / n)
}

// ZScore expects (S, n, value, M) and returns (value-M)/std. NaN unless
// S > 0 and n > 0.
func ZScore(values ...float64) float64 {
	s, n, value, m := values[0], values[1], values[2], values[3]
	if !(s > 0) || !(n > 0) {
		return math.NaN()
	}
	return (value - m) / SampleStdDev(s, n)
}

// HarmonicMean expects (reciprocalSum, n) and returns n/reciprocalSum. NaN
// when the reciprocal sum is NaN (a zero sample poisoned it) or zero.
func HarmonicMean(values ...float64) float64 {
	reciprocalSum, n := values[0], values[1]
	if math.IsNaN(reciprocalSum) || reciprocalSum == 0 {
		return math.NaN()
	}
	return n / reciprocalSum
}

// Identity passes its single input through unchanged.
func Identity(values ...float64) float64 {
	return values[0]
}
