package diagfmt

import (
	"bytes"
	"strings"
	"testing"

	"xclower/internal/diag"
	"xclower/internal/source"
)

const counterSrc = "class Counter {\n    int count;\n};\n"

func counterBag(t *testing.T) (*diag.Bag, *source.FileSet) {
	t.Helper()
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("/home/user/project/src/counter.cpp", []byte(counterSrc))
	bag := diag.NewBag(10)
	d := diag.NewError(diag.LowUnsupportedConstruct, source.Span{File: fileID, Start: 24, End: 29}, "member count is not supported")
	d = d.WithNote(source.Span{File: fileID, Start: 6, End: 13}, "declared in Counter")
	bag.Add(d)
	return bag, fs
}

func TestPrettyCaretUnderSpan(t *testing.T) {
	bag, fs := counterBag(t)
	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename})

	want := "counter.cpp:2:9: ERROR LOW2007: member count is not supported\n" +
		" 2 |     int count;\n" +
		"   |         ^~~~~\n"
	if got := buf.String(); got != want {
		t.Errorf("Pretty() =\n%q\nwant\n%q", got, want)
	}
}

// TestPathModes проверяет различные режимы форматирования путей
func TestPathModes(t *testing.T) {
	bag, fs := counterBag(t)
	tests := []struct {
		name     string
		mode     PathMode
		contains string
	}{
		{"Absolute path", PathModeAbsolute, "/home/user/project/src/counter.cpp:2:9"},
		{"Relative path", PathModeRelative, "src/counter.cpp:2:9"},
		{"Basename only", PathModeBasename, "counter.cpp:2:9"},
		{"Auto under base", PathModeAuto, "src/counter.cpp:2:9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			Pretty(&buf, bag, fs, PrettyOpts{PathMode: tt.mode, BaseDir: "/home/user/project"})
			output := buf.String()
			if !strings.HasPrefix(output, tt.contains) {
				t.Errorf("Expected output to start with %q, got:\n%s", tt.contains, output)
			}
		})
	}
}

func TestPrettyContextAndNotes(t *testing.T) {
	bag, fs := counterBag(t)
	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename, Context: 1, ShowNotes: true})
	output := buf.String()

	for _, want := range []string{
		" 1 | class Counter {\n",
		" 3 | };\n",
		"  note: counter.cpp:1:7: declared in Counter\n",
		"   |       ^~~~~~~\n",
	} {
		if !strings.Contains(output, want) {
			t.Fatalf("expected %q in output, got:\n%s", want, output)
		}
	}
}

func TestPrettyColor(t *testing.T) {
	bag, fs := counterBag(t)
	var plain, colored bytes.Buffer
	Pretty(&plain, bag, fs, PrettyOpts{PathMode: PathModeBasename})
	Pretty(&colored, bag, fs, PrettyOpts{PathMode: PathModeBasename, Color: true})

	if strings.Contains(plain.String(), "\x1b[") {
		t.Errorf("plain output carries escapes:\n%q", plain.String())
	}
	if !strings.Contains(colored.String(), "\x1b[") {
		t.Errorf("colored output has no escapes:\n%q", colored.String())
	}
}

func TestPrettyWithoutFiles(t *testing.T) {
	bag := diag.NewBag(1)
	bag.Add(diag.NewError(diag.LowAmbiguousCall, source.Span{}, "call to add is ambiguous"))
	var buf bytes.Buffer
	Pretty(&buf, bag, source.NewFileSet(), PrettyOpts{})
	if got, want := buf.String(), "<input>:1:1: ERROR LOW2002: call to add is ambiguous\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestClipLongLines(t *testing.T) {
	if got := clip("    int count;", 12, 1); got != "    ..." {
		t.Errorf("clip() = %q", got)
	}
	if got := clip("short", 0, 1); got != "short" {
		t.Errorf("clip() without width = %q", got)
	}
}
