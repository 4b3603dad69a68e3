package engine

import (
	"time"

	"github.com/quarklabs/radixengine/internal/logger"
)

// PhaseTimer observes the engine's lifecycle phases. Implementations must be
// side-effect free with respect to the engine: correctness never depends on
// them and they are not installed unless a caller asks.
type PhaseTimer interface {
	// StartPhase marks the start of a phase and returns its stop mark.
	StartPhase(phase string) func()
}

type nopTimer struct{}

func (nopTimer) StartPhase(string) func() { return func() {} }

// LogPhaseTimer logs the duration of each lifecycle phase at debug level.
type LogPhaseTimer struct {
	log logger.Logger
}

// NewLogPhaseTimer creates a timer logging to log.
func NewLogPhaseTimer(log logger.Logger) *LogPhaseTimer {
	return &LogPhaseTimer{log: log}
}

func (t *LogPhaseTimer) StartPhase(phase string) func() {
	start := time.Now()
	return func() {
		t.log.Debug("phase complete", "phase", phase, "elapsed", time.Since(start).String())
	}
}

// CollectingPhaseTimer records phase durations in memory; the bench command
// uses it to feed the run statistics.
type CollectingPhaseTimer struct {
	Phases    []string
	Durations []time.Duration
}

func (t *CollectingPhaseTimer) StartPhase(phase string) func() {
	start := time.Now()
	return func() {
		t.Phases = append(t.Phases, phase)
		t.Durations = append(t.Durations, time.Since(start))
	}
}
