package ui

import (
	"strings"
	"testing"

	"github.com/nalgeon/be"

	"xclower/internal/pipeline"
)

func feed(m *progressModel, evs ...pipeline.Event) {
	for _, ev := range evs {
		m.applyEvent(ev)
	}
}

func TestProgressTracksUnits(t *testing.T) {
	m := NewProgressModel("main.json", nil).(*progressModel)
	feed(m,
		pipeline.Event{Stage: pipeline.StageRewrite, Status: pipeline.StatusWorking},
		pipeline.Event{Unit: "Counter", Stage: pipeline.StageRewrite, Status: pipeline.StatusQueued},
		pipeline.Event{Unit: "main", Stage: pipeline.StageRewrite, Status: pipeline.StatusQueued},
		pipeline.Event{Unit: "Counter", Stage: pipeline.StageRewrite, Status: pipeline.StatusDone},
	)
	be.Equal(t, len(m.items), 2)
	be.Equal(t, m.fraction(), 0.5)
	be.Equal(t, m.stageLabel, "lowering")

	feed(m, pipeline.Event{Unit: "main", Stage: pipeline.StageRewrite, Status: pipeline.StatusDropped})
	be.Equal(t, m.fraction(), 1.0)
	view := m.View()
	be.True(t, strings.Contains(view, "main.json (lowering)"))
	be.True(t, strings.Contains(view, "0 failed, 1 dropped"))
}

func TestPlannedUnitIsNotFinished(t *testing.T) {
	m := NewProgressModel("main.json", nil).(*progressModel)
	feed(m,
		pipeline.Event{Unit: "use", Stage: pipeline.StagePlan, Status: pipeline.StatusDone},
	)
	be.Equal(t, m.fraction(), 0.0)

	feed(m, pipeline.Event{Unit: "use", Stage: pipeline.StageRewrite, Status: pipeline.StatusDone})
	be.Equal(t, m.fraction(), 1.0)
}

func TestProgressScrollsLongLists(t *testing.T) {
	m := NewProgressModel("big", nil).(*progressModel)
	for i := 0; i < maxRows+3; i++ {
		feed(m, pipeline.Event{Unit: "unit" + string(rune('a'+i)), Status: pipeline.StatusDone})
	}
	view := m.View()
	be.True(t, strings.Contains(view, "3 more units"))
	be.True(t, !strings.Contains(view, " unita\n"))
}

func TestTruncate(t *testing.T) {
	be.Equal(t, truncate("Counter_init_2int", 10), "Coun...")
	be.Equal(t, truncate("short", 10), "short")
	be.Equal(t, truncate("abcdef", 3), "abc")
}
