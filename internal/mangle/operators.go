package mangle

import (
	"strings"

	"xclower/internal/types"
)

var binaryWords = map[string]string{
	"+":   "add",
	"-":   "subtract",
	"*":   "multiply",
	"/":   "divide",
	"%":   "modulo",
	"==":  "equals",
	"!=":  "not_equals",
	"<":   "less",
	">":   "greater",
	"<=":  "less_equal",
	">=":  "greater_equal",
	"=":   "assign",
	"+=":  "compound_add",
	"-=":  "compound_subtract",
	"*=":  "compound_multiply",
	"/=":  "compound_divide",
	"%=":  "compound_modulo",
	"&":   "bit_and",
	"|":   "bit_or",
	"^":   "bit_xor",
	"<<":  "shift_left",
	">>":  "shift_right",
	"&=":  "compound_bit_and",
	"|=":  "compound_bit_or",
	"^=":  "compound_bit_xor",
	"<<=": "compound_shift_left",
	">>=": "compound_shift_right",
	"&&":  "logical_and",
	"||":  "logical_or",
	"[]":  "index",
	"()":  "call",
}

var unaryWords = map[string]string{
	"-":  "negate",
	"+":  "plus",
	"!":  "logical_not",
	"~":  "bit_not",
	"++": "increment",
	"--": "decrement",
}

var postfixWords = map[string]string{
	"++": "post_increment",
	"--": "post_decrement",
}

// OperatorWord maps an operator symbol to its semantic word. unary selects
// the prefix form of operators that have both arities; postfix selects x++
// and x--. Operators outside the table have no flat lowering.
func OperatorWord(op string, unary, postfix bool) (string, bool) {
	switch {
	case postfix:
		w, ok := postfixWords[op]
		return w, ok
	case unary:
		if w, ok := unaryWords[op]; ok {
			return w, true
		}
		return "", false
	}
	if w, ok := binaryWords[op]; ok {
		return w, true
	}
	// ++/-- and ! ~ have no binary form; a caller that did not know the
	// arity gets the prefix word.
	w, ok := unaryWords[op]
	if ok && op != "-" && op != "+" {
		return w, true
	}
	return "", false
}

var (
	operatorWordSet = map[string]bool{}
	// operatorHeads are first words of multi-word operators.
	operatorHeads = map[string]bool{}
	reservedWords = map[string]bool{"init": true, "cleanup": true}
)

func init() {
	for _, table := range []map[string]string{binaryWords, unaryWords, postfixWords} {
		for _, w := range table {
			operatorWordSet[w] = true
			if first, _, ok := strings.Cut(w, "_"); ok {
				operatorHeads[first] = true
			}
		}
	}
}

// IsReserved reports user names that are escaped with the _6 marker
// wherever they appear: the ctor and dtor words and builtin type tokens.
// Operator words are not reserved; operators carry the marker instead.
func IsReserved(ident string) bool {
	return reservedWords[ident] || types.IsBuiltinToken(ident)
}
