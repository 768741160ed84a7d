package observ

import (
	"strings"
	"testing"
)

func TestTimerReport(t *testing.T) {
	tm := NewTimer()
	done := tm.Track("layout")
	done("3 classes")
	idx := tm.Begin("plan")
	tm.End(idx, "")
	tm.End(42, "ignored")

	r := tm.Report()
	if len(r.Phases) != 2 || r.Phases[0].Name != "layout" || r.Phases[0].Note != "3 classes" {
		t.Fatalf("unexpected report: %+v", r)
	}
	if s := tm.Summary(); !strings.Contains(s, "layout") || !strings.Contains(s, "// 3 classes") {
		t.Fatalf("summary:\n%s", s)
	}
}

func TestNilTimerIsInert(t *testing.T) {
	var tm *Timer
	tm.Track("x")("y")
	if r := tm.Report(); len(r.Phases) != 0 {
		t.Fatalf("nil timer reported %+v", r)
	}
}
