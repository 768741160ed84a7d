package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Spell renders id in source syntax ("const Point&", "uint8_t*").
func (in *Interner) Spell(id TypeID) string {
	return in.SpellWith(id, nil)
}

// SpellWith renders id, mapping class names through className when non-nil.
func (in *Interner) SpellWith(id TypeID, className func(string) string) string {
	tt, ok := in.Lookup(id)
	if !ok {
		return "<invalid>"
	}
	prefix := ""
	if tt.Const && tt.Kind != KindReference {
		prefix = "const "
	}
	switch tt.Kind {
	case KindClass:
		name := tt.Name
		if className != nil {
			name = className(name)
		}
		return prefix + name
	case KindPointer:
		s := in.SpellWith(tt.Elem, className) + "*"
		if tt.Const {
			s += " const"
		}
		return s
	case KindReference:
		s := in.SpellWith(tt.Elem, className)
		if tt.Const && !strings.HasPrefix(s, "const ") {
			s = "const " + s
		}
		return s + "&"
	case KindArray:
		return fmt.Sprintf("%s[%d]", in.SpellWith(tt.Elem, className), tt.Count)
	default:
		return prefix + tt.Name
	}
}

// Base strips const, references, pointers and arrays down to the named type.
func (in *Interner) Base(id TypeID) TypeID {
	for {
		tt, ok := in.Lookup(id)
		if !ok {
			return id
		}
		switch tt.Kind {
		case KindPointer, KindReference, KindArray:
			id = tt.Elem
			continue
		}
		return in.Unqualified(id)
	}
}

// Resolver maps a non-builtin name (class or template parameter) to a type.
type Resolver func(name string) (TypeID, bool)

// ParseError reports an unparsable type spelling.
type ParseError struct {
	Spelling string
	Reason   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("bad type %q: %s", e.Spelling, e.Reason)
}

var builtinWords = map[string]bool{
	"unsigned": true, "signed": true, "short": true, "long": true,
	"int": true, "char": true, "double": true, "float": true, "bool": true, "void": true,
}

// Parse reads a type spelling of the form
//
//	[const] base [const] {* [const]} [&] [\[N\]]
//
// where base is a builtin (possibly multi-word) or a name handed to resolve.
func (in *Interner) Parse(spelling string, resolve Resolver) (TypeID, error) {
	toks := tokenizeType(spelling)
	if len(toks) == 0 {
		return NoTypeID, &ParseError{Spelling: spelling, Reason: "empty"}
	}
	i := 0
	baseConst := false
	for i < len(toks) && (toks[i] == "const" || toks[i] == "volatile") {
		baseConst = baseConst || toks[i] == "const"
		i++
	}
	var base TypeID
	switch {
	case i < len(toks) && builtinWords[toks[i]]:
		words := []string{}
		for i < len(toks) && builtinWords[toks[i]] {
			words = append(words, toks[i])
			i++
		}
		id, ok := in.Builtin(strings.Join(words, " "))
		if !ok {
			return NoTypeID, &ParseError{Spelling: spelling, Reason: "unknown builtin " + strings.Join(words, " ")}
		}
		base = id
	case i < len(toks) && isName(toks[i]):
		if id, ok := in.Builtin(toks[i]); ok {
			base = id
		} else if resolve != nil {
			id, ok := resolve(toks[i])
			if !ok {
				return NoTypeID, &ParseError{Spelling: spelling, Reason: "unknown type " + toks[i]}
			}
			base = id
		} else {
			return NoTypeID, &ParseError{Spelling: spelling, Reason: "unknown type " + toks[i]}
		}
		i++
	default:
		return NoTypeID, &ParseError{Spelling: spelling, Reason: "missing base type"}
	}
	for i < len(toks) && (toks[i] == "const" || toks[i] == "volatile") {
		baseConst = baseConst || toks[i] == "const"
		i++
	}
	id := in.WithConst(base, baseConst)
	for i < len(toks) {
		switch tok := toks[i]; tok {
		case "*":
			id = in.Pointer(id)
		case "const":
			id = in.WithConst(id, true)
		case "volatile":
		case "&":
			elem := in.Unqualified(id)
			tt := in.MustLookup(id)
			id = in.Reference(elem, tt.Const)
		case "[":
			if i+2 >= len(toks) || toks[i+2] != "]" {
				return NoTypeID, &ParseError{Spelling: spelling, Reason: "unterminated array bound"}
			}
			n, err := strconv.ParseUint(toks[i+1], 10, 32)
			if err != nil {
				return NoTypeID, &ParseError{Spelling: spelling, Reason: "bad array bound " + toks[i+1]}
			}
			id = in.Array(id, uint32(n))
			i += 2
		default:
			return NoTypeID, &ParseError{Spelling: spelling, Reason: "unexpected " + tok}
		}
		i++
	}
	return id, nil
}

func tokenizeType(s string) []string {
	var toks []string
	cur := strings.Builder{}
	flush := func() {
		if cur.Len() > 0 {
			toks = append(toks, cur.String())
			cur.Reset()
		}
	}
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n':
			flush()
		case '*', '&', '[', ']':
			flush()
			toks = append(toks, string(r))
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return toks
}

func isName(tok string) bool {
	return tok != "" && tok != "*" && tok != "&" && tok != "[" && tok != "]"
}
