package pipeline

import "time"

// Stage describes a phase of one lowering run.
type Stage string

const (
	// StageLoad decodes the interchange document and builds the symbol table.
	StageLoad Stage = "load"
	// StageLayout flattens every class.
	StageLayout Stage = "layout"
	// StagePlan schedules bodies: bindings, temporaries, exit cleanups.
	StagePlan Stage = "plan"
	// StageRewrite turns plans into the target program.
	StageRewrite Stage = "rewrite"
	// StageEmit writes the requested output.
	StageEmit Stage = "emit"
)

// Stages lists the stages in run order.
var Stages = []Stage{StageLoad, StageLayout, StagePlan, StageRewrite, StageEmit}

// Status captures progress state within a stage.
type Status string

const (
	// StatusQueued indicates the unit is waiting to start.
	StatusQueued Status = "queued"
	// StatusWorking indicates the unit is being lowered.
	StatusWorking Status = "working"
	// StatusDone indicates the unit lowered cleanly.
	StatusDone Status = "done"
	// StatusError indicates the unit failed and emits nothing.
	StatusError Status = "error"
	// StatusDropped marks a unit left out because something it uses failed.
	StatusDropped Status = "dropped"
)

// Event reports progress for a unit (a class, a procedure or a template
// instance), or for the whole run when Unit is empty.
type Event struct {
	Unit    string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events. Implementations must be safe for
// concurrent use; units report from worker goroutines.
type ProgressSink interface {
	OnEvent(Event)
}

// Timings holds stage durations.
type Timings struct {
	stages map[Stage]time.Duration
}

func (t *Timings) ensure() {
	if t.stages == nil {
		t.stages = make(map[Stage]time.Duration)
	}
}

// Set stores a duration for the given stage.
func (t *Timings) Set(stage Stage, dur time.Duration) {
	if t == nil {
		return
	}
	t.ensure()
	t.stages[stage] = dur
}

// Add accumulates into the duration of stage.
func (t *Timings) Add(stage Stage, dur time.Duration) {
	if t == nil {
		return
	}
	t.ensure()
	t.stages[stage] += dur
}

// Has reports whether a duration for stage is recorded.
func (t Timings) Has(stage Stage) bool {
	if t.stages == nil {
		return false
	}
	_, ok := t.stages[stage]
	return ok
}

// Duration returns the recorded duration for stage.
func (t Timings) Duration(stage Stage) time.Duration {
	if t.stages == nil {
		return 0
	}
	return t.stages[stage]
}

// Sum returns the sum of durations across the provided stages.
func (t Timings) Sum(stages ...Stage) time.Duration {
	if t.stages == nil {
		return 0
	}
	var total time.Duration
	for _, stage := range stages {
		total += t.stages[stage]
	}
	return total
}
