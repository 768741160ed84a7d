package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Входной документ
	InputInfo          Code = 1000
	InputMalformed     Code = 1001
	InputUnknownSymbol Code = 1002
	InputBadType       Code = 1003

	// Понижение
	LowInfo                        Code = 2000
	LowNoMatchingOverload          Code = 2001
	LowAmbiguousCall               Code = 2002
	LowUnresolvedTemplateParameter Code = 2003
	LowTemplateInstantiationCycle  Code = 2004
	LowInheritanceCycle            Code = 2005
	LowMissingBaseInitializer      Code = 2006
	LowUnsupportedConstruct        Code = 2007

	ObsInfo    Code = 6000
	ObsTimings Code = 6001
)

var (
	codeDescription = map[Code]string{
		UnknownCode:                    "Unknown error",
		InputInfo:                      "Input information",
		InputMalformed:                 "Malformed input document",
		InputUnknownSymbol:             "Reference to an undeclared symbol",
		InputBadType:                   "Unparsable type spelling",
		LowInfo:                        "Lowering information",
		LowNoMatchingOverload:          "No matching overload",
		LowAmbiguousCall:               "Ambiguous call",
		LowUnresolvedTemplateParameter: "Template parameter cannot be determined",
		LowTemplateInstantiationCycle:  "Template instantiation does not terminate",
		LowInheritanceCycle:            "Class inherits from itself",
		LowMissingBaseInitializer:      "Base class has no usable initializer",
		LowUnsupportedConstruct:        "Construct has no flat lowering",
		ObsInfo:                        "Observability information",
		ObsTimings:                     "Pipeline timings",
	}

	// codeNames are the taxonomy names used by fixtures and JSON output.
	codeNames = map[Code]string{
		InputMalformed:                 "InputMalformed",
		InputUnknownSymbol:             "InputUnknownSymbol",
		InputBadType:                   "InputBadType",
		LowNoMatchingOverload:          "NoMatchingOverload",
		LowAmbiguousCall:               "AmbiguousCall",
		LowUnresolvedTemplateParameter: "UnresolvedTemplateParameter",
		LowTemplateInstantiationCycle:  "TemplateInstantiationCycle",
		LowInheritanceCycle:            "InheritanceCycle",
		LowMissingBaseInitializer:      "MissingBaseInitializer",
		LowUnsupportedConstruct:        "UnsupportedConstruct",
		ObsTimings:                     "Timings",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("IN%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("LOW%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

// Name returns the symbolic taxonomy name, e.g. "AmbiguousCall".
func (c Code) Name() string {
	if n, ok := codeNames[c]; ok {
		return n
	}
	return c.ID()
}

// CodeByName is the inverse of Name.
func CodeByName(name string) (Code, bool) {
	for c, n := range codeNames {
		if n == name {
			return c, true
		}
	}
	return UnknownCode, false
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
