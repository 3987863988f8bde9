package observability

import (
	"math"
	"sort"
	"sync"
	"time"
)

// Pipeline stages tracked per turn.
const (
	StageSegmentation = "segmentation"
	StageRecognition  = "recognition"
	StageModel        = "model"
	StageSynthesis    = "synthesis"
	StagePerceived    = "perceived"
	StageTotal        = "total"
)

type StageStats struct {
	Stage string  `json:"stage"`
	Count int     `json:"count"`
	AvgMS float64 `json:"avg_ms"`
	MinMS float64 `json:"min_ms"`
	MaxMS float64 `json:"max_ms"`
}

type LatencySnapshot struct {
	GeneratedAt time.Time    `json:"generated_at"`
	WindowSize  int          `json:"window_size"`
	Stages      []StageStats `json:"stages"`
}

// LatencyWindow keeps the last N samples per pipeline stage in a ring buffer.
// One instance is shared across all sessions.
type LatencyWindow struct {
	mu         sync.RWMutex
	maxSamples int
	stages     map[string]*stageBuffer
}

type stageBuffer struct {
	values []float64
	next   int
	filled bool
}

func NewLatencyWindow(maxSamples int) *LatencyWindow {
	if maxSamples <= 0 {
		maxSamples = 100
	}
	return &LatencyWindow{
		maxSamples: maxSamples,
		stages:     make(map[string]*stageBuffer),
	}
}

// Record adds one sample in milliseconds. Negative samples and empty stage
// names are dropped.
func (w *LatencyWindow) Record(stage string, ms float64) {
	if stage == "" || ms < 0 {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	buf, ok := w.stages[stage]
	if !ok {
		buf = &stageBuffer{values: make([]float64, w.maxSamples)}
		w.stages[stage] = buf
	}
	buf.values[buf.next] = ms
	buf.next++
	if buf.next >= len(buf.values) {
		buf.next = 0
		buf.filled = true
	}
}

// RecordSince is shorthand for recording the elapsed time since start.
func (w *LatencyWindow) RecordSince(stage string, start time.Time) {
	w.Record(stage, float64(time.Since(start).Microseconds())/1000)
}

// Summarize returns stats for one stage and false when it has no samples.
func (w *LatencyWindow) Summarize(stage string) (StageStats, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.summarizeLocked(stage)
}

// Snapshot returns stats for every stage with at least one sample, ordered
// by stage name.
func (w *LatencyWindow) Snapshot() LatencySnapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()

	keys := make([]string, 0, len(w.stages))
	for stage := range w.stages {
		keys = append(keys, stage)
	}
	sort.Strings(keys)

	stages := make([]StageStats, 0, len(keys))
	for _, stage := range keys {
		if stats, ok := w.summarizeLocked(stage); ok {
			stages = append(stages, stats)
		}
	}

	return LatencySnapshot{
		GeneratedAt: time.Now().UTC(),
		WindowSize:  w.maxSamples,
		Stages:      stages,
	}
}

// StatsMap renders the snapshot as a stage-keyed map for JSON status
// endpoints.
func (w *LatencyWindow) StatsMap() map[string]StageStats {
	snap := w.Snapshot()
	out := make(map[string]StageStats, len(snap.Stages))
	for _, s := range snap.Stages {
		out[s.Stage] = s
	}
	return out
}

func (w *LatencyWindow) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stages = make(map[string]*stageBuffer)
}

func (w *LatencyWindow) summarizeLocked(stage string) (StageStats, bool) {
	buf, ok := w.stages[stage]
	if !ok {
		return StageStats{}, false
	}
	n := buf.next
	if buf.filled {
		n = len(buf.values)
	}
	if n == 0 {
		return StageStats{}, false
	}

	sum := 0.0
	min := math.MaxFloat64
	max := 0.0
	for _, v := range buf.values[:n] {
		sum += v
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	return StageStats{
		Stage: stage,
		Count: n,
		AvgMS: round1(sum / float64(n)),
		MinMS: round1(min),
		MaxMS: round1(max),
	}, true
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
