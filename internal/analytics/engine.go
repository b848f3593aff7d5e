package analytics

import (
	"math"
	"sort"
	"sync"

	"go.uber.org/zap"

	"rollstats-go/pkg/rollstats"
	"rollstats-go/pkg/utils"
)

// Result summarizes the window state of one metric after an update.
type Result struct {
	Metric      string              `json:"metric"`
	Value       utils.NullableFloat `json:"value"`
	Mean        utils.NullableFloat `json:"mean"`
	StdDev      utils.NullableFloat `json:"std_dev"`
	ZScore      utils.NullableFloat `json:"zscore"`
	Anomaly     bool                `json:"anomaly"`
	WindowCount int                 `json:"window_count"`
}

type metricWindow struct {
	window *rollstats.RollingWindow
	mean   *rollstats.TrackedValue
	stdDev *rollstats.TrackedValue
	zscore *rollstats.TrackedValue
}

// Engine maintains a rolling window per metric and flags samples whose
// z-score exceeds the configured threshold.
type Engine struct {
	mu         sync.Mutex
	windowSize float64
	threshold  float64
	logger     *zap.Logger
	windows    map[string]*metricWindow
	latest     map[string]Result
}

// NewEngine creates an engine with the given window size and anomaly threshold.
func NewEngine(windowSize, threshold float64, logger *zap.Logger) *Engine {
	return &Engine{
		windowSize: windowSize,
		threshold:  threshold,
		logger:     logger,
		windows:    make(map[string]*metricWindow),
		latest:     make(map[string]Result),
	}
}

// Update pushes one sample for a metric and returns the resulting summary.
func (e *Engine) Update(metric string, value float64) Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	mw, ok := e.windows[metric]
	if !ok {
		w := rollstats.New(e.windowSize)
		mw = &metricWindow{
			window: w,
			mean:   w.SubscribeMean(),
			stdDev: w.SubscribeStdDev(),
			zscore: w.SubscribeZScore(),
		}
		e.windows[metric] = mw
		e.logger.Debug("Tracking new metric", zap.String("metric", metric))
	}

	mw.window.Push(value)

	z := mw.zscore.Current()
	result := Result{
		Metric:      metric,
		Value:       utils.NullableFloat(value),
		Mean:        utils.NullableFloat(mw.mean.Current()),
		StdDev:      utils.NullableFloat(mw.stdDev.Current()),
		ZScore:      utils.NullableFloat(z),
		Anomaly:     !math.IsNaN(z) && math.Abs(z) >= e.threshold,
		WindowCount: mw.window.Len(),
	}
	e.latest[metric] = result

	if result.Anomaly {
		e.logger.Warn("Anomalous sample",
			zap.String("metric", metric),
			zap.Float64("value", value),
			zap.Float64("zscore", z))
	}

	return result
}

// Latest returns the most recent result per metric, sorted by metric name.
func (e *Engine) Latest() []Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	results := make([]Result, 0, len(e.latest))
	for _, r := range e.latest {
		results = append(results, r)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Metric < results[j].Metric
	})
	return results
}

// Metrics returns the number of metrics currently tracked.
func (e *Engine) Metrics() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.windows)
}
