package mangle

import (
	"strconv"
	"strings"
)

// EntityKind tells what a mangled name designates.
type EntityKind uint8

const (
	EntityFunction EntityKind = iota
	EntityCtor
	EntityDtor
	EntityOperator
	// EntityStruct names the flattened aggregate of a class.
	EntityStruct
	// EntityGlobal is a namespace-scope variable.
	EntityGlobal
	// EntityStatic is a class static data member.
	EntityStatic
	// EntityLocalStatic is a function-local static; Owner is the mangled
	// name of the enclosing procedure.
	EntityLocalStatic
)

func (k EntityKind) String() string {
	switch k {
	case EntityFunction:
		return "function"
	case EntityCtor:
		return "ctor"
	case EntityDtor:
		return "dtor"
	case EntityOperator:
		return "operator"
	case EntityStruct:
		return "struct"
	case EntityGlobal:
		return "global"
	case EntityStatic:
		return "static"
	case EntityLocalStatic:
		return "local-static"
	}
	return "unknown"
}

// TemplateArg is a template argument as it enters a key: a type spelling
// (builtin spelling or qualified class name) or a constant's text.
type TemplateArg struct {
	Type    string
	Value   string
	IsValue bool
}

// Key is the semantic identity of a lowered entity. Distinct keys always
// mangle to distinct names.
type Key struct {
	Kind  EntityKind
	Scope []string
	Name  string
	// Operator is the semantic word ("add", "compound_add") for EntityOperator.
	Operator     string
	TemplateArgs []TemplateArg
	// Params are parameter base-type spellings: builtin spellings or
	// qualified class names ("hw::Pin").
	Params []string
	Owner  string
	// Guard selects the one-time-initialization flag of a storage slot.
	Guard bool
}

// Fingerprint is a canonical textual form of the key used for memoization.
func (k Key) Fingerprint() string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(int(k.Kind)))
	b.WriteByte('|')
	b.WriteString(strings.Join(k.Scope, "::"))
	b.WriteByte('|')
	b.WriteString(k.Name)
	b.WriteByte('|')
	b.WriteString(k.Operator)
	b.WriteByte('|')
	for _, a := range k.TemplateArgs {
		if a.IsValue {
			b.WriteString("=" + a.Value)
		} else {
			b.WriteString(a.Type)
		}
		b.WriteByte(',')
	}
	b.WriteByte('|')
	b.WriteString(strings.Join(k.Params, ","))
	b.WriteByte('|')
	b.WriteString(k.Owner)
	if k.Guard {
		b.WriteString("|guard")
	}
	return b.String()
}

// Display renders the key in source-like syntax for diagnostics.
func (k Key) Display() string {
	name := k.Name
	switch k.Kind {
	case EntityCtor:
		name = "<init>"
	case EntityDtor:
		name = "<cleanup>"
	case EntityOperator:
		name = "operator " + k.Operator
	}
	s := strings.Join(append(append([]string{}, k.Scope...), name), "::")
	if len(k.TemplateArgs) > 0 {
		args := make([]string, len(k.TemplateArgs))
		for i, a := range k.TemplateArgs {
			if a.IsValue {
				args[i] = a.Value
			} else {
				args[i] = a.Type
			}
		}
		s += "<" + strings.Join(args, ", ") + ">"
	}
	switch k.Kind {
	case EntityFunction, EntityCtor, EntityDtor, EntityOperator:
		s += "(" + strings.Join(k.Params, ", ") + ")"
	}
	if k.Kind == EntityLocalStatic {
		s = k.Owner + "::" + s
	}
	if k.Guard {
		s += " [guard]"
	}
	return s
}
