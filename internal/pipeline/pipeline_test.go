package pipeline

import (
	"sync"
	"testing"
	"time"
)

func TestTimingsAccumulate(t *testing.T) {
	var tm Timings
	tm.Add(StagePlan, 2*time.Millisecond)
	tm.Add(StagePlan, 3*time.Millisecond)
	tm.Set(StageLayout, time.Millisecond)
	if got := tm.Duration(StagePlan); got != 5*time.Millisecond {
		t.Fatalf("plan = %v", got)
	}
	if got := tm.Sum(StageLayout, StagePlan, StageEmit); got != 6*time.Millisecond {
		t.Fatalf("sum = %v", got)
	}
	if tm.Has(StageEmit) {
		t.Fatalf("emit was never recorded")
	}
}

func TestRecorderIsConcurrent(t *testing.T) {
	var r Recorder
	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			status := StatusDone
			if i%4 == 0 {
				status = StatusError
			}
			Emit(&r, Event{Unit: "u", Stage: StagePlan, Status: status})
		}()
	}
	wg.Wait()
	if n := len(r.Events()); n != 16 {
		t.Fatalf("recorded %d events", n)
	}
	if n := r.Count(StagePlan, StatusError); n != 4 {
		t.Fatalf("errors = %d", n)
	}
	Emit(nil, Event{})
}
