package mangle

import (
	"fmt"
	"strconv"
	"strings"

	"xclower/internal/types"
)

type itemKind uint8

const (
	itemIdent itemKind = iota
	itemSep
	itemCtrl
)

type item struct {
	kind itemKind
	text string // identifier text, or the payload of _3/_5
	code byte
	off  int
}

func isAlnum(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

func isHex(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'f'
}

func startsIdent(s string, i int) bool {
	if isAlnum(s[i]) {
		return true
	}
	if s[i] != '_' || i+1 >= len(s) {
		return false
	}
	return s[i+1] == '0' || (s[i+1] == '5' && i+2 < len(s) && s[i+2] == 'u')
}

func lex(s string) ([]item, error) {
	var out []item
	i := 0
	for i < len(s) {
		switch {
		case startsIdent(s, i):
			start := i
			var b strings.Builder
			for i < len(s) {
				if isAlnum(s[i]) {
					b.WriteByte(s[i])
					i++
					continue
				}
				if s[i] == '_' && i+1 < len(s) && s[i+1] == '0' {
					b.WriteByte('_')
					i += 2
					continue
				}
				if s[i] == '_' && i+2 < len(s) && s[i+1] == '5' && s[i+2] == 'u' {
					if i+9 > len(s) {
						return nil, fmt.Errorf("truncated rune escape at %d", i)
					}
					r, err := strconv.ParseUint(s[i+3:i+9], 16, 32)
					if err != nil {
						return nil, fmt.Errorf("bad rune escape at %d", i)
					}
					b.WriteRune(rune(r))
					i += 9
					continue
				}
				break
			}
			out = append(out, item{kind: itemIdent, text: b.String(), off: start})
		case s[i] == '_' && i+1 < len(s) && s[i+1] >= '1' && s[i+1] <= '9':
			it := item{kind: itemCtrl, code: s[i+1], off: i}
			i += 2
			switch it.code {
			case '3':
				start := i
				if i < len(s) && s[i] == 'n' {
					i++
				}
				for i < len(s) && s[i] >= '0' && s[i] <= '9' {
					i++
				}
				it.text = s[start:i]
				if it.text == "" || it.text == "n" {
					return nil, fmt.Errorf("empty integer argument at %d", it.off)
				}
			case '5':
				if i+8 > len(s) {
					return nil, fmt.Errorf("truncated hash at %d", it.off)
				}
				for j := i; j < i+8; j++ {
					if !isHex(s[j]) {
						return nil, fmt.Errorf("bad hash at %d", it.off)
					}
				}
				it.text = s[i : i+8]
				i += 8
			}
			out = append(out, it)
		case s[i] == '_':
			out = append(out, item{kind: itemSep, off: i})
			i++
		default:
			return nil, fmt.Errorf("illegal byte %q at %d", s[i], i)
		}
	}
	return out, nil
}

type parser struct {
	items []item
	pos   int
	src   string
}

func (p *parser) peek() (item, bool) {
	if p.pos >= len(p.items) {
		return item{}, false
	}
	return p.items[p.pos], true
}

func (p *parser) peekCtrl(code byte) bool {
	it, ok := p.peek()
	return ok && it.kind == itemCtrl && it.code == code
}

func (p *parser) peekSep() bool {
	it, ok := p.peek()
	return ok && it.kind == itemSep
}

type segment struct {
	text    string
	escaped bool
}

func (p *parser) segment() (segment, error) {
	it, ok := p.peek()
	if !ok || it.kind != itemIdent {
		return segment{}, fmt.Errorf("expected identifier in %q", p.src)
	}
	p.pos++
	seg := segment{text: it.text}
	if p.peekCtrl('6') {
		p.pos++
		seg.escaped = true
	}
	return seg, nil
}

func (p *parser) typeName() (string, error) {
	first, err := p.segment()
	if err != nil {
		return "", err
	}
	parts := []segment{first}
	for p.peekCtrl('9') {
		p.pos++
		seg, err := p.segment()
		if err != nil {
			return "", err
		}
		parts = append(parts, seg)
	}
	if len(parts) == 1 && !first.escaped {
		if spelling, ok := types.BuiltinByToken(first.text); ok {
			return spelling, nil
		}
	}
	names := make([]string, len(parts))
	for i, s := range parts {
		names[i] = s.text
	}
	return strings.Join(names, "::"), nil
}

// Demangle parses a name produced by Mangle. Struct, global and function
// names without parameters share one shape; they demangle as functions.
// Hashed template arguments come back as values of the form "#xxxxxxxx".
func Demangle(s string) (Key, error) {
	items, err := lex(s)
	if err != nil {
		return Key{}, err
	}
	p := &parser{items: items, src: s}
	var k Key

	for i, it := range items {
		if it.kind == itemCtrl && it.code == '4' {
			k.Kind = EntityLocalStatic
			k.Owner = s[:it.off]
			p.pos = i + 1
			break
		}
	}

	var segs []segment
	for {
		seg, err := p.segment()
		if err != nil {
			return Key{}, err
		}
		segs = append(segs, seg)
		if !p.peekSep() {
			break
		}
		p.pos++
	}

	last := segs[len(segs)-1]
	scope := segs[:len(segs)-1]
	switch {
	case last.escaped:
		op := operatorAt(segs)
		switch {
		case op >= 0:
			if k.Kind == EntityLocalStatic {
				return Key{}, fmt.Errorf("local static named by an operator word in %q", s)
			}
			k.Kind = EntityOperator
			k.Operator = strings.Join(segmentTexts(segs[op:]), "_")
			scope = segs[:op]
		case IsReserved(last.text):
			k.Name = last.text
		default:
			return Key{}, fmt.Errorf("unknown semantic word %q in %q", last.text, s)
		}
	case reservedWords[last.text]:
		if k.Kind == EntityLocalStatic {
			return Key{}, fmt.Errorf("local static named by a reserved word in %q", s)
		}
		k.Kind = EntityCtor
		if last.text == "cleanup" {
			k.Kind = EntityDtor
		}
	default:
		k.Name = last.text
	}
	for _, seg := range scope {
		if seg.escaped != (IsReserved(seg.text) || operatorHeads[seg.text]) {
			return Key{}, fmt.Errorf("scope component %q is not in canonical form in %q", seg.text, s)
		}
	}
	k.Scope = segmentTexts(scope)

	if p.peekCtrl('1') {
		p.pos++
	targs:
		for first := true; ; first = false {
			it, ok := p.peek()
			if !ok {
				break
			}
			switch {
			case it.kind == itemCtrl && it.code == '3':
				p.pos++
				v := it.text
				if strings.HasPrefix(v, "n") {
					v = "-" + v[1:]
				}
				k.TemplateArgs = append(k.TemplateArgs, TemplateArg{Value: v, IsValue: true})
				continue
			case it.kind == itemCtrl && it.code == '5':
				p.pos++
				k.TemplateArgs = append(k.TemplateArgs, TemplateArg{Value: "#" + it.text, IsValue: true})
				continue
			case it.kind == itemSep && !first:
				p.pos++
			case it.kind == itemIdent && first:
			default:
				break targs
			}
			name, err := p.typeName()
			if err != nil {
				return Key{}, err
			}
			k.TemplateArgs = append(k.TemplateArgs, TemplateArg{Type: name})
		}
	}
	if p.peekCtrl('2') {
		p.pos++
		for {
			name, err := p.typeName()
			if err != nil {
				return Key{}, err
			}
			k.Params = append(k.Params, name)
			if !p.peekSep() {
				break
			}
			p.pos++
		}
	}
	switch {
	case p.peekCtrl('7'):
		p.pos++
		if k.Kind == EntityFunction {
			k.Kind = EntityStatic
		}
	case p.peekCtrl('8'):
		p.pos++
		k.Guard = true
		if k.Kind == EntityFunction {
			k.Kind = EntityStatic
		}
	}
	if p.pos != len(p.items) {
		return Key{}, fmt.Errorf("trailing input at offset %d in %q", p.items[p.pos].off, s)
	}
	return k, nil
}

// operatorAt returns the index of the first segment of the trailing
// operator word, preferring the longest word; -1 when there is none. Only
// the last segment of an operator word carries the _6 marker.
func operatorAt(segs []segment) int {
	for j := range segs {
		plain := true
		for _, seg := range segs[j : len(segs)-1] {
			if seg.escaped {
				plain = false
				break
			}
		}
		if plain && operatorWordSet[strings.Join(segmentTexts(segs[j:]), "_")] {
			return j
		}
	}
	return -1
}

func segmentTexts(segs []segment) []string {
	if len(segs) == 0 {
		return nil
	}
	out := make([]string, len(segs))
	for i, s := range segs {
		out[i] = s.text
	}
	return out
}
