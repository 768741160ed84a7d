package driver

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nalgeon/be"

	"xclower/internal/diag"
	"xclower/internal/hirio"
	"xclower/internal/lifetime"
	"xclower/internal/observ"
	"xclower/internal/pipeline"
	"xclower/internal/symbols"
	"xclower/internal/trace"
	"xclower/internal/types"
)

const counterClass = `{
  "name": "Counter",
  "fields": [{"name": "count", "type": "int"}, {"name": "step", "type": "int"}],
  "methods": [
    {"kind": "ctor", "member_inits": [
      {"name": "count", "args": [{"kind": "literal", "type": "int", "text": "0"}]},
      {"name": "step", "args": [{"kind": "literal", "type": "int", "text": "1"}]}
    ]},
    {"name": "increment", "body": {"stmts": [
      {"kind": "expr", "expr": {"kind": "assign", "op": "+=", "type": "int",
        "target": {"kind": "field", "field": "count", "type": "int"},
        "value": {"kind": "field", "field": "step", "type": "int"}}}
    ]}}%s
  ]
}`

func counter(extraMethods string) string {
	return strings.Replace(counterClass, "%s", extraMethods, 1)
}

const brokenMethod = `,
    {"name": "broken", "body": {"stmts": [{"kind": "unsupported", "feature": "goto"}]}}`

func callMethod(fn, method string) string {
	return `{"name": "` + fn + `", "body": {"stmts": [
      {"kind": "decl", "name": "c", "type": "Counter"},
      {"kind": "expr", "expr": {"kind": "method_call", "type": "void", "method": "` + method + `",
        "receiver": {"kind": "var", "name": "c", "type": "Counter"}}}
    ]}}`
}

func table(t *testing.T, src string) *symbols.Table {
	t.Helper()
	doc, err := hirio.Decode([]byte(src), hirio.FormatJSON)
	be.Err(t, err, nil)
	tab, err := hirio.Build(doc, types.DefaultDataModel())
	be.Err(t, err, nil)
	return tab
}

func lower(t *testing.T, src string, opts Options) *Result {
	t.Helper()
	res, err := Lower(context.Background(), table(t, src), opts)
	be.Err(t, err, nil)
	return res
}

func contains(t *testing.T, listing string, wants ...string) {
	t.Helper()
	for _, want := range wants {
		if !strings.Contains(listing, want) {
			t.Fatalf("listing lacks %q:\n%s", want, listing)
		}
	}
}

func TestLowerCounterProgram(t *testing.T) {
	res := lower(t, `{
	  "classes": [`+counter("")+`],
	  "functions": [{"name": "main", "result": "int", "body": {"stmts": [
	    {"kind": "decl", "name": "c", "type": "Counter"},
	    {"kind": "expr", "expr": {"kind": "method_call", "type": "void", "method": "increment",
	      "receiver": {"kind": "var", "name": "c", "type": "Counter"}}},
	    {"kind": "return", "expr": {"kind": "literal", "type": "int", "text": "0"}}
	  ]}}]
	}`, Options{Jobs: 2})

	be.Equal(t, res.Bag.Len(), 0)
	out := res.Program.String()
	contains(t, out,
		"typedef struct Counter {\n    int count;\n    int step;\n} Counter;",
		"void Counter_init(Counter* self) {\n    self->count = 0;\n    self->step = 1;\n}",
		"void Counter_increment(Counter* self) {\n    self->count += self->step;\n}",
		"    Counter c;\n    Counter_init(&c);\n    Counter_increment(&c);\n",
	)
	// the aggregate precedes every procedure that uses it
	be.True(t, strings.Index(out, "typedef struct Counter") < strings.Index(out, "int main(void)"))
	be.Equal(t, res.Stats.Classes, 1)
	be.Equal(t, res.Stats.Failed, 0)
	be.Equal(t, res.Stats.Dropped, 0)
}

func TestFailedMethodDropsItsCallers(t *testing.T) {
	res := lower(t, `{
	  "classes": [`+counter(brokenMethod)+`],
	  "functions": [`+callMethod("use", "broken")+`, `+callMethod("fine", "increment")+`]
	}`, Options{})

	be.Equal(t, res.Bag.Codes(), []diag.Code{diag.LowUnsupportedConstruct})
	be.True(t, res.Program.Proc("Counter_broken") == nil)
	be.True(t, res.Program.Proc("use") == nil)
	be.True(t, res.Program.Proc("fine") != nil)
	be.True(t, res.Program.Proc("Counter_init") != nil)
	be.Equal(t, res.Stats.Failed, 1)
	be.Equal(t, res.Stats.Dropped, 1)
}

func TestFailedConstructorDropsClassAndSlot(t *testing.T) {
	res := lower(t, `{
	  "classes": [{
	    "name": "Radio",
	    "fields": [{"name": "ch", "type": "int"}],
	    "methods": [{"kind": "ctor", "body": {"stmts": [{"kind": "unsupported", "feature": "try"}]}}]
	  }],
	  "globals": [
	    {"name": "radio", "type": "Radio"},
	    {"name": "limit", "type": "int", "init": {"kind": "literal", "type": "int", "text": "3"}}
	  ],
	  "functions": [{"name": "main", "result": "int", "body": {"stmts": [
	    {"kind": "return", "expr": {"kind": "literal", "type": "int", "text": "0"}}
	  ]}}]
	}`, Options{})

	be.Equal(t, res.Bag.Codes(), []diag.Code{diag.LowUnsupportedConstruct})
	out := res.Program.String()
	be.True(t, !strings.Contains(out, "Radio"))
	be.True(t, !strings.Contains(out, "radio"))
	contains(t, out,
		"int limit = 3;\n",
		"void __static_init(void) {\n}",
		"int main(void) {\n    __static_init();\n    return 0;\n}",
	)
	be.True(t, res.Program.Proc(lifetime.StaticInitName) != nil)
}

func TestFailedBaseReportedOnce(t *testing.T) {
	res := lower(t, `{
	  "classes": [
	    {"name": "Root", "fields": [{"name": "id", "type": "int"}]},
	    {"name": "Device", "bases": ["Root"], "virtual_base": true},
	    {"name": "Sensor", "bases": ["Device"], "fields": [{"name": "level", "type": "int"}],
	     "methods": [{"name": "read", "result": "int", "body": {"stmts": [
	       {"kind": "return", "expr": {"kind": "field", "field": "level", "type": "int"}}
	     ]}}]},
	    {"name": "Gauge", "bases": ["Sensor"]}
	  ],
	  "functions": [{"name": "fine", "body": {"stmts": []}}]
	}`, Options{})

	be.Equal(t, res.Bag.Codes(), []diag.Code{diag.LowUnsupportedConstruct})
	out := res.Program.String()
	be.True(t, !strings.Contains(out, "Device"))
	be.True(t, !strings.Contains(out, "Sensor"))
	be.True(t, res.Program.Proc("Sensor_read") == nil)
	be.True(t, res.Program.Proc("fine") != nil)
	contains(t, out, "typedef struct Root {")
	be.Equal(t, res.Stats.Failed, 1)
	be.Equal(t, res.Stats.Dropped, 2)
}

func TestTemplateInstancesAreLowered(t *testing.T) {
	res := lower(t, `{
	  "functions": [
	    {"name": "getMax", "result": "T", "template_params": [{"name": "T"}],
	     "params": [{"name": "a", "type": "T"}, {"name": "b", "type": "T"}],
	     "body": {"stmts": [{"kind": "return", "expr": {"kind": "cond", "type": "T",
	       "cond": {"kind": "binary", "op": ">", "type": "bool",
	         "left": {"kind": "var", "var": "param", "name": "a", "type": "T"},
	         "right": {"kind": "var", "var": "param", "name": "b", "type": "T"}},
	       "then": {"kind": "var", "var": "param", "name": "a", "type": "T"},
	       "else": {"kind": "var", "var": "param", "name": "b", "type": "T"}}}]}},
	    {"name": "main", "result": "int", "body": {"stmts": [
	      {"kind": "return", "expr": {"kind": "call", "name": "getMax", "type": "int", "args": [
	        {"kind": "literal", "type": "int", "text": "3"},
	        {"kind": "literal", "type": "int", "text": "7"}]}}
	    ]}}
	  ]
	}`, Options{})

	be.Equal(t, res.Bag.Len(), 0)
	be.Equal(t, res.Stats.Instances, 1)
	inst := res.Program.Proc("getMax_1int_2int_int")
	be.True(t, inst != nil)
	contains(t, res.Program.String(),
		"int getMax_1int_2int_int(int a, int b) {",
		"getMax_1int_2int_int(3, 7)",
	)
	// instances follow the procedures that requested them
	be.Equal(t, res.Program.Procs[len(res.Program.Procs)-1], inst)
}

func TestJobsDoNotChangeOutput(t *testing.T) {
	src := `{
	  "classes": [` + counter(brokenMethod) + `],
	  "functions": [` + callMethod("a", "increment") + `, ` + callMethod("b", "broken") + `, ` +
		callMethod("c", "increment") + `, ` + callMethod("d", "broken") + `]
	}`
	one := lower(t, src, Options{Jobs: 1})
	many := lower(t, src, Options{Jobs: 8})
	be.Equal(t, many.Program.String(), one.Program.String())
	be.Equal(t, many.Bag.Items(), one.Bag.Items())
	be.Equal(t, many.Stats, one.Stats)
}

func TestProgressEvents(t *testing.T) {
	rec := &pipeline.Recorder{}
	lower(t, `{"classes": [`+counter("")+`], "functions": [`+callMethod("use", "increment")+`]}`, Options{Progress: rec})

	be.True(t, rec.Count(pipeline.StageRewrite, pipeline.StatusDone) >= 2)
	be.Equal(t, rec.Count(pipeline.StageRewrite, pipeline.StatusError), 0)
	seen := map[pipeline.Stage]bool{}
	for _, e := range rec.Events() {
		seen[e.Stage] = true
	}
	be.True(t, seen[pipeline.StageLayout])
	be.True(t, seen[pipeline.StageRewrite])
}

func TestTracerFromContext(t *testing.T) {
	var buf bytes.Buffer
	ctx := trace.WithTracer(context.Background(), trace.NewStreamTracer(&buf, trace.LevelDetail, trace.FormatText))
	_, err := Lower(ctx, table(t, `{"classes": [`+counter("")+`], "functions": [`+callMethod("use", "increment")+`]}`), Options{})
	be.Err(t, err, nil)
	be.True(t, strings.Contains(buf.String(), "unit:use"))
}

func TestLowerFileUsesCache(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.json")
	src := `{"classes": [` + counter("") + `], "functions": [` + callMethod("use", "increment") + `]}`
	be.Err(t, os.WriteFile(path, []byte(src), 0o644), nil)

	cache, err := OpenDiskCache("xclower", filepath.Join(dir, "cache"))
	be.Err(t, err, nil)
	opts := FileOptions{Model: types.DefaultDataModel(), Cache: cache}

	first, err := LowerFile(context.Background(), path, opts)
	be.Err(t, err, nil)
	be.True(t, !first.Cached)

	second, err := LowerFile(context.Background(), path, opts)
	be.Err(t, err, nil)
	be.True(t, second.Cached)
	be.Equal(t, second.Program.String(), first.Program.String())
	be.Equal(t, second.Stats, first.Stats)

	opts.MaxAlign = 2
	third, err := LowerFile(context.Background(), path, opts)
	be.Err(t, err, nil)
	be.True(t, !third.Cached)
}

func TestLowerFileRejectsBadInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	be.Err(t, os.WriteFile(path, []byte(`{"functions": [{"name": "f", "params": [{"name": "w", "type": "Widget"}]}]}`), 0o644), nil)

	res, err := LowerFile(context.Background(), path, FileOptions{Model: types.DefaultDataModel()})
	be.Err(t, err, nil)
	be.True(t, res.Rejected)
	be.Equal(t, res.Bag.Codes(), []diag.Code{diag.InputBadType})
	be.Equal(t, len(res.Program.Procs), 0)
}

func TestTimingsDiagnostic(t *testing.T) {
	timer := observ.NewTimer()
	res := lower(t, `{"classes": [`+counter("")+`]}`, Options{Timer: timer, MaxDiagnostics: 1})
	AppendTimings(res.Bag, "main.json", timer, &res.Stats)

	be.Equal(t, res.Bag.Codes(), []diag.Code{diag.ObsTimings})
	d := res.Bag.Items()[0]
	be.Equal(t, d.Severity, diag.SevInfo)
	be.True(t, strings.HasPrefix(d.Message, "timings (lower): total "))
	contains(t, d.Notes[0].Msg, `"name":"layout"`, `"classes":1`)
}
