package source

import "testing"

func TestResolveLineCol(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("led.cpp", []byte("class Led {\n  int pin;\n};\n"))

	tests := []struct {
		off  uint32
		want LineCol
	}{
		{0, LineCol{Line: 1, Col: 1}},
		{6, LineCol{Line: 1, Col: 7}},
		{11, LineCol{Line: 1, Col: 12}},
		{12, LineCol{Line: 2, Col: 1}},
		{14, LineCol{Line: 2, Col: 3}},
		{23, LineCol{Line: 3, Col: 1}},
	}
	for _, tt := range tests {
		start, _ := fs.Resolve(Span{File: id, Start: tt.off, End: tt.off})
		if start != tt.want {
			t.Fatalf("offset %d: got %+v, want %+v", tt.off, start, tt.want)
		}
	}
}

func TestGetLine(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("a.cpp", []byte("first\r\nsecond\nthird"))
	f := fs.Get(id)
	if f.Flags&FileNormalizedCRLF == 0 {
		t.Fatalf("expected CRLF normalization flag")
	}
	for n, want := range map[uint32]string{1: "first", 2: "second", 3: "third", 4: ""} {
		if got := f.GetLine(n); got != want {
			t.Fatalf("line %d: got %q, want %q", n, got, want)
		}
	}
}

func TestMissingPathKeepsOffsets(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddPath("does/not/exist.cpp")
	if fs.Get(id).Flags&FileNoContent == 0 {
		t.Fatalf("expected FileNoContent flag")
	}
	start, _ := fs.Resolve(Span{File: id, Start: 4, End: 9})
	if start.Line != 1 || start.Col != 5 {
		t.Fatalf("unexpected position %+v", start)
	}
	if fs.Get(FileID(42)) != nil {
		t.Fatalf("unknown id must resolve to nil")
	}
}

func TestSpanCover(t *testing.T) {
	a := Span{File: 1, Start: 10, End: 20}
	b := Span{File: 1, Start: 5, End: 12}
	if got := a.Cover(b); got != (Span{File: 1, Start: 5, End: 20}) {
		t.Fatalf("cover: %v", got)
	}
	if got := a.Cover(Span{File: 2, Start: 0, End: 1}); got != a {
		t.Fatalf("cross-file cover must keep receiver, got %v", got)
	}
	if !b.Before(a) || a.Before(b) {
		t.Fatalf("before ordering broken")
	}
}
