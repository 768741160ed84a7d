package types

// DataModel fixes the widths of the target's implementation-defined types.
type DataModel struct {
	IntWidth     Width
	LongWidth    Width
	PointerWidth Width
	DoubleWidth  Width
}

// DefaultDataModel matches 8/16-bit microcontroller compilers.
func DefaultDataModel() DataModel {
	return DataModel{
		IntWidth:     Width16,
		LongWidth:    Width32,
		PointerWidth: Width16,
		DoubleWidth:  Width32,
	}
}

func (dm DataModel) normalized() DataModel {
	def := DefaultDataModel()
	if dm.IntWidth == WidthAny {
		dm.IntWidth = def.IntWidth
	}
	if dm.LongWidth == WidthAny {
		dm.LongWidth = def.LongWidth
	}
	if dm.PointerWidth == WidthAny {
		dm.PointerWidth = def.PointerWidth
	}
	if dm.DoubleWidth == WidthAny {
		dm.DoubleWidth = def.DoubleWidth
	}
	return dm
}

type builtinSpec struct {
	spelling string
	token    string // single-word form used inside mangled names
	kind     Kind
	width    func(DataModel) Width
}

func fixed(w Width) func(DataModel) Width { return func(DataModel) Width { return w } }

var builtinSpecs = []builtinSpec{
	{"void", "void", KindVoid, fixed(WidthAny)},
	{"bool", "bool", KindBool, fixed(Width8)},
	{"char", "char", KindInt, fixed(Width8)},
	{"signed char", "schar", KindInt, fixed(Width8)},
	{"unsigned char", "uchar", KindUint, fixed(Width8)},
	{"short", "short", KindInt, fixed(Width16)},
	{"unsigned short", "ushort", KindUint, fixed(Width16)},
	{"int", "int", KindInt, func(dm DataModel) Width { return dm.IntWidth }},
	{"unsigned int", "uint", KindUint, func(dm DataModel) Width { return dm.IntWidth }},
	{"long", "long", KindInt, func(dm DataModel) Width { return dm.LongWidth }},
	{"unsigned long", "ulong", KindUint, func(dm DataModel) Width { return dm.LongWidth }},
	{"long long", "llong", KindInt, fixed(Width64)},
	{"unsigned long long", "ullong", KindUint, fixed(Width64)},
	{"int8_t", "int8_t", KindInt, fixed(Width8)},
	{"uint8_t", "uint8_t", KindUint, fixed(Width8)},
	{"int16_t", "int16_t", KindInt, fixed(Width16)},
	{"uint16_t", "uint16_t", KindUint, fixed(Width16)},
	{"int32_t", "int32_t", KindInt, fixed(Width32)},
	{"uint32_t", "uint32_t", KindUint, fixed(Width32)},
	{"int64_t", "int64_t", KindInt, fixed(Width64)},
	{"uint64_t", "uint64_t", KindUint, fixed(Width64)},
	{"size_t", "size_t", KindUint, func(dm DataModel) Width { return dm.PointerWidth }},
	{"float", "float", KindFloat, fixed(Width32)},
	{"double", "double", KindFloat, func(dm DataModel) Width { return dm.DoubleWidth }},
	{"long double", "ldouble", KindFloat, fixed(Width64)},
}

// builtinAliases are alternative spellings folded into a canonical one.
var builtinAliases = map[string]string{
	"unsigned":               "unsigned int",
	"signed":                 "int",
	"signed int":             "int",
	"short int":              "short",
	"signed short":           "short",
	"unsigned short int":     "unsigned short",
	"long int":               "long",
	"signed long":            "long",
	"unsigned long int":      "unsigned long",
	"long long int":          "long long",
	"unsigned long long int": "unsigned long long",
}

// CanonicalBuiltin folds alias spellings ("unsigned", "long int").
func CanonicalBuiltin(spelling string) string {
	if c, ok := builtinAliases[spelling]; ok {
		return c
	}
	return spelling
}

// BuiltinToken maps a canonical builtin spelling to its mangling token.
func BuiltinToken(spelling string) (string, bool) {
	for _, b := range builtinSpecs {
		if b.spelling == spelling {
			return b.token, true
		}
	}
	return "", false
}

// IsBuiltinToken reports whether name is the mangling token of a builtin.
// User identifiers equal to such a token are escaped by the mangler.
func IsBuiltinToken(name string) bool {
	for _, b := range builtinSpecs {
		if b.token == name {
			return true
		}
	}
	return false
}

// BuiltinByToken maps a mangling token back to its spelling.
func BuiltinByToken(token string) (string, bool) {
	for _, b := range builtinSpecs {
		if b.token == token {
			return b.spelling, true
		}
	}
	return "", false
}
