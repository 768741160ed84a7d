package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

// newTestRoot wires cmds under a fresh root with the global flags.
func newTestRoot(cmds ...*cobra.Command) *cobra.Command {
	root := &cobra.Command{Use: "xclower", SilenceUsage: true, SilenceErrors: true}
	addGlobalFlags(root)
	for _, c := range cmds {
		root.AddCommand(c)
	}
	return root
}

func execute(t *testing.T, root *cobra.Command, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err = root.Execute()
	return out.String(), errOut.String(), err
}

func TestMangleCommand(t *testing.T) {
	cases := []struct {
		args []string
		want string
	}{
		{[]string{"--kind", "ctor", "--scope", "Counter", "--params", "int"}, "Counter_init_2int"},
		{[]string{"--kind", "dtor", "--scope", "Counter"}, "Counter_cleanup"},
		{[]string{"--name", "add", "--params", "int,int"}, "add_2int_int"},
		{[]string{"--name", "getMax", "--template-args", "int", "--params", "int,int"}, "getMax_1int_2int_int"},
		{[]string{"--kind", "operator", "--scope", "Point", "--operator", "+", "--params", "Point"}, "Point_add_6_2Point"},
	}
	for _, tc := range cases {
		t.Run(tc.want, func(t *testing.T) {
			cmd := &cobra.Command{Use: "mangle", Args: cobra.NoArgs, RunE: runMangle}
			addMangleFlags(cmd)
			out, _, err := execute(t, newTestRoot(cmd), append([]string{"mangle"}, tc.args...)...)
			if err != nil {
				t.Fatalf("mangle: %v", err)
			}
			if got := strings.TrimSpace(out); got != tc.want {
				t.Fatalf("mangle %v = %q, want %q", tc.args, got, tc.want)
			}
		})
	}
}

func TestMangleRejectsUnknownOperator(t *testing.T) {
	cmd := &cobra.Command{Use: "mangle", Args: cobra.NoArgs, RunE: runMangle}
	addMangleFlags(cmd)
	_, _, err := execute(t, newTestRoot(cmd), "mangle", "--kind", "operator", "--scope", "P", "--operator", "<=>")
	if err == nil {
		t.Fatal("expected an error for <=>")
	}
}

func TestDemangleJSON(t *testing.T) {
	cmd := &cobra.Command{Use: "demangle", Args: cobra.MinimumNArgs(1), RunE: runDemangle}
	cmd.Flags().Bool("json", false, "")
	out, _, err := execute(t, newTestRoot(cmd), "demangle", "--json", "Counter_init_2int", "add_2int_int")
	if err != nil {
		t.Fatalf("demangle: %v", err)
	}
	var got []demangled
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("bad json %q: %v", out, err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d entries", len(got))
	}
	if got[0].Kind != "ctor" || len(got[0].Key.Params) != 1 || got[0].Key.Params[0] != "int" {
		t.Fatalf("first entry = %+v", got[0])
	}
	if got[1].Key.Name != "add" || len(got[1].Key.Params) != 2 {
		t.Fatalf("second entry = %+v", got[1])
	}
}

const counterDoc = `{
  "classes": [{
    "name": "Counter",
    "fields": [{"name": "count", "type": "int"}],
    "methods": [
      {"kind": "ctor", "member_inits": [
        {"name": "count", "args": [{"kind": "literal", "type": "int", "text": "0"}]}
      ]}%s
    ]
  }],
  "functions": [{"name": "main", "result": "int", "body": {"stmts": [
    {"kind": "decl", "name": "c", "type": "Counter"},
    {"kind": "return", "expr": {"kind": "literal", "type": "int", "text": "0"}}
  ]}}]
}`

func lowerRoot() *cobra.Command {
	cmd := &cobra.Command{Use: "lower <input>", Args: cobra.ExactArgs(1), RunE: runLower}
	addLowerFlags(cmd)
	return newTestRoot(cmd)
}

func writeInput(t *testing.T, extra string) (input, config string) {
	t.Helper()
	dir := t.TempDir()
	input = filepath.Join(dir, "counter.json")
	writeFile(t, input, strings.Replace(counterDoc, "%s", extra, 1))
	config = filepath.Join(dir, configFileName)
	writeFile(t, config, defaultConfigText)
	return input, config
}

func TestLowerCommandWritesDump(t *testing.T) {
	input, cfg := writeInput(t, "")
	out, errOut, err := execute(t, lowerRoot(), "lower", input, "--config", cfg, "--ui", "off", "--color", "off")
	if err != nil {
		t.Fatalf("lower: %v\n%s", err, errOut)
	}
	for _, want := range []string{
		"typedef struct Counter {",
		"void Counter_init(Counter* self);",
		"void Counter_init(Counter* self) {",
		"    Counter_init(&c);",
		"    Counter_cleanup(&c);",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output lacks %q:\n%s", want, out)
		}
	}
	if !strings.Contains(errOut, "lowered 1 classes") {
		t.Fatalf("summary missing: %q", errOut)
	}
}

func TestLowerCommandQuietAndOutputFile(t *testing.T) {
	input, cfg := writeInput(t, "")
	outPath := filepath.Join(filepath.Dir(input), "out.json")
	out, errOut, err := execute(t, lowerRoot(), "lower", input, "--config", cfg, "--ui", "off",
		"--color", "off", "--quiet", "--emit", "json", "-o", outPath)
	if err != nil {
		t.Fatalf("lower: %v\n%s", err, errOut)
	}
	if out != "" || errOut != "" {
		t.Fatalf("quiet run printed %q / %q", out, errOut)
	}
	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	if !json.Valid(data) || !bytes.Contains(data, []byte("Counter_init")) {
		t.Fatalf("bad json output:\n%s", data)
	}
}

func TestLowerCommandReportsFailures(t *testing.T) {
	input, cfg := writeInput(t, `,
      {"name": "broken", "body": {"stmts": [{"kind": "unsupported", "feature": "goto"}]}}`)
	out, errOut, err := execute(t, lowerRoot(), "lower", input, "--config", cfg, "--ui", "off", "--color", "off")
	if !errors.Is(err, errLoweringFailed) {
		t.Fatalf("err = %v, want errLoweringFailed", err)
	}
	if !strings.Contains(errOut, "ERROR LOW") {
		t.Fatalf("diagnostic missing:\n%s", errOut)
	}
	// the rest of the program is still written
	if !strings.Contains(out, "int main(void) {") || strings.Contains(out, "Counter_broken") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestLowerCommandRejectsBadFlags(t *testing.T) {
	input, cfg := writeInput(t, "")
	for _, args := range [][]string{
		{"--emit", "asm"},
		{"--diag-format", "xml"},
		{"--ui", "sometimes"},
		{"--input-format", "yaml"},
	} {
		_, _, err := execute(t, lowerRoot(), append([]string{"lower", input, "--config", cfg, "--color", "off"}, args...)...)
		if err == nil {
			t.Fatalf("%v accepted", args)
		}
	}
}

func TestLowerCommandShortDiagnostics(t *testing.T) {
	input, cfg := writeInput(t, `,
      {"name": "broken", "body": {"stmts": [{"kind": "unsupported", "feature": "goto"}]}}`)
	_, errOut, err := execute(t, lowerRoot(), "lower", input, "--config", cfg, "--ui", "off",
		"--color", "off", "--quiet", "--diag-format", "short")
	if err == nil {
		t.Fatal("expected failure")
	}
	if !strings.HasPrefix(errOut, "error UnsupportedConstruct ") {
		t.Fatalf("short output = %q", errOut)
	}
}

func TestLowerCommandUsesCache(t *testing.T) {
	input, cfg := writeInput(t, "")
	cacheDir := filepath.Join(filepath.Dir(input), "cache")
	writeFile(t, cfg, strings.Replace(defaultConfigText, "enabled = false\ndir = \"\"",
		"enabled = true\ndir = \""+filepath.ToSlash(cacheDir)+"\"", 1))

	args := []string{"lower", input, "--config", cfg, "--ui", "off", "--color", "off"}
	first, errOut, err := execute(t, lowerRoot(), args...)
	if err != nil {
		t.Fatalf("first run: %v\n%s", err, errOut)
	}
	if strings.Contains(errOut, "(cached)") {
		t.Fatalf("first run hit the cache: %q", errOut)
	}
	second, errOut, err := execute(t, lowerRoot(), args...)
	if err != nil {
		t.Fatalf("second run: %v\n%s", err, errOut)
	}
	if !strings.Contains(errOut, "(cached)") {
		t.Fatalf("second run missed the cache: %q", errOut)
	}
	if first != second {
		t.Fatalf("cached output differs:\n%s\n---\n%s", first, second)
	}

	root := newTestRoot(cacheCmd)
	out, _, err := execute(t, root, "cache", "dir", "--config", cfg)
	if err != nil || strings.TrimSpace(out) != cacheDir {
		t.Fatalf("cache dir = %q, %v", out, err)
	}
	if _, _, err := execute(t, root, "cache", "clean", "--config", cfg, "--quiet"); err != nil {
		t.Fatalf("cache clean: %v", err)
	}
	_, errOut, err = execute(t, lowerRoot(), args...)
	if err != nil || strings.Contains(errOut, "(cached)") {
		t.Fatalf("run after clean: %v %q", err, errOut)
	}
}

func TestReadUIMode(t *testing.T) {
	cases := map[string]uiMode{"": uiModeAuto, "auto": uiModeAuto, " ON ": uiModeOn, "off": uiModeOff}
	for in, want := range cases {
		got, err := readUIMode(in)
		if err != nil || got != want {
			t.Fatalf("readUIMode(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := readUIMode("always"); err == nil {
		t.Fatal("always accepted")
	}
	if shouldUseTUI(uiModeOff) || !shouldUseTUI(uiModeOn) {
		t.Fatal("explicit modes ignored")
	}
}
