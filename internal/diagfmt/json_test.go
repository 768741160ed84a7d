package diagfmt

import (
	"bytes"
	"encoding/json"
	"testing"

	"xclower/internal/diag"
	"xclower/internal/source"
)

// TestJSONBasic проверяет базовое JSON форматирование
func TestJSONBasic(t *testing.T) {
	bag, fs := counterBag(t)

	var buf bytes.Buffer
	err := JSON(&buf, bag, fs, JSONOpts{IncludePositions: true, PathMode: PathModeBasename, IncludeNotes: true})
	if err != nil {
		t.Fatalf("JSON() error: %v", err)
	}

	var output DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &output); err != nil {
		t.Fatalf("Invalid JSON output: %v\nOutput: %s", err, buf.String())
	}
	if output.Count != 1 || len(output.Diagnostics) != 1 {
		t.Fatalf("Expected 1 diagnostic, got %d", output.Count)
	}

	d := output.Diagnostics[0]
	if d.Severity != "ERROR" {
		t.Errorf("Expected severity=ERROR, got %s", d.Severity)
	}
	if d.Code != "LOW2007" || d.Name != "UnsupportedConstruct" {
		t.Errorf("Expected LOW2007/UnsupportedConstruct, got %s/%s", d.Code, d.Name)
	}
	want := LocationJSON{File: "counter.cpp", StartByte: 24, EndByte: 29, StartLine: 2, StartCol: 9, EndLine: 2, EndCol: 14}
	if d.Location != want {
		t.Errorf("Location = %+v, want %+v", d.Location, want)
	}
	if len(d.Notes) != 1 || d.Notes[0].Message != "declared in Counter" {
		t.Errorf("Notes = %+v", d.Notes)
	}
}

func TestJSONWithoutPositions(t *testing.T) {
	bag, fs := counterBag(t)
	output := BuildDiagnosticsOutput(bag, fs, JSONOpts{PathMode: PathModeBasename})

	loc := output.Diagnostics[0].Location
	if loc.StartLine != 0 || loc.StartCol != 0 {
		t.Errorf("positions leaked: %+v", loc)
	}
	if output.Diagnostics[0].Notes != nil {
		t.Errorf("notes were not requested: %+v", output.Diagnostics[0].Notes)
	}
}

func TestJSONMaxLimit(t *testing.T) {
	bag := diag.NewBag(0)
	for i := 0; i < 5; i++ {
		bag.Add(diag.NewError(diag.LowNoMatchingOverload, source.Span{}, "no matching overload"))
	}
	output := BuildDiagnosticsOutput(bag, source.NewFileSet(), JSONOpts{Max: 3})
	if output.Count != 3 {
		t.Errorf("Expected count=3, got %d", output.Count)
	}
	if output.Diagnostics[0].Location.File != "<input>" {
		t.Errorf("File = %q", output.Diagnostics[0].Location.File)
	}
}

func TestJSONAlwaysCarriesTimingPayload(t *testing.T) {
	bag := diag.NewBag(0)
	bag.Add(diag.New(diag.SevInfo, diag.ObsTimings, source.Span{}, "timings (lower): total 1.00 ms").
		WithNote(source.Span{}, `{"kind":"lower"}`))

	output := BuildDiagnosticsOutput(bag, nil, JSONOpts{})
	if len(output.Diagnostics[0].Notes) != 1 {
		t.Fatalf("timing payload dropped: %+v", output.Diagnostics[0])
	}
	if output.Diagnostics[0].Severity != "INFO" {
		t.Errorf("Severity = %s", output.Diagnostics[0].Severity)
	}
}
