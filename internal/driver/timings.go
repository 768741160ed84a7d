package driver

import (
	"encoding/json"
	"fmt"

	"xclower/internal/diag"
	"xclower/internal/observ"
	"xclower/internal/source"
)

type timingPayload struct {
	Kind    string               `json:"kind"`
	Path    string               `json:"path,omitempty"`
	TotalMS float64              `json:"total_ms"`
	Phases  []observ.PhaseReport `json:"phases"`
	Stats   *Stats               `json:"stats,omitempty"`
}

// AppendTimings adds the timer's phases as an informational diagnostic
// carrying a JSON payload. It is added even when the bag is full.
func AppendTimings(bag *diag.Bag, path string, timer *observ.Timer, stats *Stats) {
	if bag == nil || timer == nil {
		return
	}
	rep := timer.Report()
	payload := timingPayload{Kind: "lower", Path: path, TotalMS: rep.TotalMS, Phases: rep.Phases, Stats: stats}
	msg := fmt.Sprintf("timings (%s): total %.2f ms", payload.Kind, payload.TotalMS)
	if payload.Path != "" {
		msg = fmt.Sprintf("%s, %s", msg, payload.Path)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return
	}

	entry := diag.Diagnostic{
		Severity: diag.SevInfo,
		Code:     diag.ObsTimings,
		Message:  msg,
		Primary:  source.Span{},
		Notes: []diag.Note{
			{Span: source.Span{}, Msg: string(data)},
		},
	}

	if !bag.Add(entry) {
		bag.Push(entry)
	}
}
