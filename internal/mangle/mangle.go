// Package mangle maps semantic identities of lowered entities to flat target
// identifiers and back.
//
// A mangled name reads left to right. An underscore followed by a digit is a
// control code, an underscore followed by anything else separates name
// segments:
//
//	_0  literal underscore inside an identifier
//	_1  template arguments follow
//	_2  parameter base types follow
//	_3  integer template argument (n marks a negative value)
//	_4  nested entity of the preceding procedure (function-local static)
//	_5  hashed template argument (8 hex digits); _5u + 6 hex is an escaped rune
//	_6  the preceding word is an operator word, or a user name that would
//	    otherwise read as one (init, cleanup, builtin type tokens, and in
//	    scope position the first word of a multi-word operator)
//	_7  static storage slot
//	_8  one-time-initialization guard of a slot
//	_9  joins the components of a qualified class name inside a type
package mangle

import (
	"errors"
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/text/unicode/norm"

	"xclower/internal/types"
)

var (
	// ErrUnsupportedOperator marks operators outside the semantic-word table.
	ErrUnsupportedOperator = errors.New("operator has no flat name")
	// ErrCollision marks two distinct keys that produced one name.
	ErrCollision = errors.New("mangled name collision")
	// ErrInvalidKey marks keys that cannot name anything (empty identifiers).
	ErrInvalidKey = errors.New("invalid mangling key")
)

// Mangler memoizes names for the whole run and rejects collisions.
type Mangler struct {
	mu     sync.Mutex
	names  map[string]string // fingerprint -> name
	owners map[string]Key    // name -> key
}

// New returns an empty Mangler.
func New() *Mangler {
	return &Mangler{
		names:  make(map[string]string),
		owners: make(map[string]Key),
	}
}

// Mangle returns the memoized name of k, computing it on first use.
func (m *Mangler) Mangle(k Key) (string, error) {
	fp := k.Fingerprint()
	m.mu.Lock()
	defer m.mu.Unlock()
	if name, ok := m.names[fp]; ok {
		return name, nil
	}
	name, err := Mangle(k)
	if err != nil {
		return "", err
	}
	if prev, ok := m.owners[name]; ok {
		return "", fmt.Errorf("%w: %s and %s both lower to %s", ErrCollision, prev.Display(), k.Display(), name)
	}
	m.names[fp] = name
	m.owners[name] = k
	return name, nil
}

// Reserve claims name for a synthesized entity (temporaries, __static_init)
// so user keys can never produce it.
func (m *Mangler) Reserve(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.owners[name]; !ok {
		m.owners[name] = Key{Kind: EntityFunction, Name: name}
	}
}

// Len returns the number of memoized names.
func (m *Mangler) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.names)
}

// Mangle computes the name of k without memoization.
func Mangle(k Key) (string, error) {
	var b strings.Builder
	if k.Kind == EntityLocalStatic {
		if k.Owner == "" {
			return "", fmt.Errorf("%w: local static %q without owner", ErrInvalidKey, k.Name)
		}
		b.WriteString(k.Owner)
		b.WriteString("_4")
	}
	for i, part := range k.Scope {
		if part == "" {
			return "", fmt.Errorf("%w: empty scope component", ErrInvalidKey)
		}
		if i > 0 {
			b.WriteByte('_')
		}
		writeScopeIdent(&b, part)
	}
	if len(k.Scope) > 0 {
		b.WriteByte('_')
	}
	switch k.Kind {
	case EntityCtor:
		b.WriteString("init")
	case EntityDtor:
		b.WriteString("cleanup")
	case EntityOperator:
		if !operatorWordSet[k.Operator] {
			return "", fmt.Errorf("%w: %q", ErrUnsupportedOperator, k.Operator)
		}
		b.WriteString(k.Operator)
		b.WriteString("_6")
	default:
		if k.Name == "" {
			return "", fmt.Errorf("%w: empty name", ErrInvalidKey)
		}
		writeUserIdent(&b, k.Name)
	}
	if len(k.TemplateArgs) > 0 {
		b.WriteString("_1")
		for i, a := range k.TemplateArgs {
			if err := writeTemplateArg(&b, a, i > 0); err != nil {
				return "", err
			}
		}
	}
	if len(k.Params) > 0 {
		b.WriteString("_2")
		for i, p := range k.Params {
			if i > 0 {
				b.WriteByte('_')
			}
			if err := writeTypeName(&b, p); err != nil {
				return "", err
			}
		}
	}
	switch {
	case k.Guard:
		b.WriteString("_8")
	case k.Kind == EntityStatic || k.Kind == EntityLocalStatic:
		b.WriteString("_7")
	}
	return b.String(), nil
}

func writeTemplateArg(b *strings.Builder, a TemplateArg, sep bool) error {
	if a.IsValue {
		v := strings.TrimSpace(a.Value)
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && v == strconv.FormatInt(n, 10) {
			b.WriteString("_3")
			if n < 0 {
				b.WriteByte('n')
				n = -n
			}
			b.WriteString(strconv.FormatInt(n, 10))
			return nil
		}
		writeHash(b, "="+v)
		return nil
	}
	if !isPlainTypeName(a.Type) {
		writeHash(b, a.Type)
		return nil
	}
	if sep {
		b.WriteByte('_')
	}
	return writeTypeName(b, a.Type)
}

func writeHash(b *strings.Builder, s string) {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	fmt.Fprintf(b, "_5%08x", h.Sum32())
}

// isPlainTypeName accepts builtin spellings and (qualified) identifiers;
// pointer, reference and array spellings are hashed instead.
func isPlainTypeName(s string) bool {
	if _, ok := types.BuiltinToken(types.CanonicalBuiltin(s)); ok {
		return true
	}
	for _, part := range strings.Split(s, "::") {
		if part == "" || strings.ContainsAny(part, " *&[]<>,") {
			return false
		}
	}
	return true
}

func writeTypeName(b *strings.Builder, name string) error {
	if tok, ok := types.BuiltinToken(types.CanonicalBuiltin(name)); ok {
		writeIdent(b, tok)
		return nil
	}
	for i, part := range strings.Split(name, "::") {
		if part == "" {
			return fmt.Errorf("%w: type %q", ErrInvalidKey, name)
		}
		if i > 0 {
			b.WriteString("_9")
		}
		writeUserIdent(b, part)
	}
	return nil
}

func writeUserIdent(b *strings.Builder, ident string) {
	ident = norm.NFC.String(ident)
	writeIdent(b, ident)
	if IsReserved(ident) {
		b.WriteString("_6")
	}
}

// writeScopeIdent escapes scope components that could be mistaken for the
// head of a multi-word operator ("compound" before "add_6").
func writeScopeIdent(b *strings.Builder, ident string) {
	ident = norm.NFC.String(ident)
	writeIdent(b, ident)
	if IsReserved(ident) || operatorHeads[ident] {
		b.WriteString("_6")
	}
}

func writeIdent(b *strings.Builder, ident string) {
	for _, r := range ident {
		switch {
		case r == '_':
			b.WriteString("_0")
		case r < 0x80 && (r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9'):
			b.WriteRune(r)
		default:
			fmt.Fprintf(b, "_5u%06x", r)
		}
	}
}
