package mono

import (
	"strconv"
	"strings"

	"xclower/internal/mangle"
	"xclower/internal/source"
	"xclower/internal/symbols"
	"xclower/internal/types"
)

// Arg is one concrete template argument: a type or the text of a constant.
type Arg struct {
	Type    types.TypeID
	Value   string
	IsValue bool
}

// Instance is one concrete specialization of a function template. It is
// created once per (template, args) and shared by every call site.
type Instance struct {
	Template symbols.FuncID
	Args     []Arg
	// Subst maps the template's type parameters to Args; Values maps its
	// value parameters to constant text.
	Subst  *types.Subst
	Values map[string]string
	Params []types.TypeID
	Result types.TypeID
	Name   string
	Site   source.Span
	// Parent is the instance whose body requested this one, nil for requests
	// from ordinary code.
	Parent *Instance
	Depth  int
	Seq    int
}

// Func returns the template declaration.
func (i *Instance) Func(tab *symbols.Table) *symbols.Func {
	return tab.Func(i.Template)
}

// Type applies the instance substitution; safe on a nil instance.
func (i *Instance) Type(id types.TypeID) types.TypeID {
	if i == nil {
		return id
	}
	return i.Subst.Type(id)
}

// Value returns the constant bound to a value parameter.
func (i *Instance) Value(name string) (string, bool) {
	if i == nil {
		return "", false
	}
	v, ok := i.Values[name]
	return v, ok
}

// Display renders the instance as `name<args>` for notes and traces.
func (i *Instance) Display(tab *symbols.Table) string {
	f := tab.Func(i.Template)
	name := "<template>"
	if f != nil {
		name = tab.OverloadKey(f)
	}
	return name + "<" + argsText(tab.Types, i.Args) + ">"
}

// Chain lists the instantiation path from the outermost request down to i.
func (i *Instance) Chain() []*Instance {
	var out []*Instance
	for cur := i; cur != nil; cur = cur.Parent {
		out = append(out, cur)
	}
	for l, r := 0, len(out)-1; l < r; l, r = l+1, r-1 {
		out[l], out[r] = out[r], out[l]
	}
	return out
}

// MangleArgs converts the arguments into mangling-key arguments.
func MangleArgs(in *types.Interner, args []Arg) []mangle.TemplateArg {
	out := make([]mangle.TemplateArg, len(args))
	for i, a := range args {
		if a.IsValue {
			out[i] = mangle.TemplateArg{Value: a.Value, IsValue: true}
			continue
		}
		out[i] = mangle.TemplateTypeArg(in, a.Type)
	}
	return out
}

func argsText(in *types.Interner, args []Arg) string {
	parts := make([]string, len(args))
	for i, a := range args {
		if a.IsValue {
			parts[i] = a.Value
		} else {
			parts[i] = in.Spell(a.Type)
		}
	}
	return strings.Join(parts, ", ")
}

func argsKey(args []Arg) string {
	var b strings.Builder
	for i, a := range args {
		if i > 0 {
			b.WriteByte('#')
		}
		if a.IsValue {
			b.WriteString("=" + a.Value)
		} else {
			b.WriteString(strconv.FormatUint(uint64(a.Type), 10))
		}
	}
	return b.String()
}
