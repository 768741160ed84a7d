// Package testkit holds test helpers shared by the lowering packages:
// Markdown scenario fixtures and listing assertions.
package testkit

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// FenceProgram is the input fence: an interchange document in JSON.
const FenceProgram = "json"

// AssertionType names an assertion fence.
type AssertionType string

const (
	// AssertExpect lists lines that must appear in the dump, in order.
	AssertExpect AssertionType = "expect"
	// AssertAbsent lists text that must not appear anywhere in the dump.
	AssertAbsent AssertionType = "absent"
	// AssertErrors lists the diagnostic names the run must report, in order.
	AssertErrors AssertionType = "errors"
	// AssertCount lists "<count> <text>" lines: text occurs exactly count times.
	AssertCount AssertionType = "count"
)

type Assertion struct {
	Type    AssertionType
	Content string
	Line    int
}

// Scenario is one "## Test: name" section of a fixture file.
type Scenario struct {
	Name       string
	Program    string
	Line       int
	Assertions []Assertion
}

// ExtractScenarios parses a Markdown document into scenarios. Fences outside
// a scenario are allowed only without a language.
func ExtractScenarios(markdown string) ([]Scenario, error) {
	src := []byte(markdown)
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	var out []Scenario
	var cur *Scenario
	flush := func() error {
		if cur == nil {
			return nil
		}
		if cur.Program == "" {
			return fmt.Errorf("test '%s' has no %s fence", cur.Name, FenceProgram)
		}
		if len(cur.Assertions) == 0 {
			return fmt.Errorf("test '%s' has no assertion fences", cur.Name)
		}
		out = append(out, *cur)
		return nil
	}

	err := ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := node.(type) {
		case *ast.Heading:
			heading := nodeText(n, src)
			if !strings.HasPrefix(heading, "Test: ") {
				return ast.WalkContinue, nil
			}
			if err := flush(); err != nil {
				return ast.WalkStop, err
			}
			cur = &Scenario{Name: strings.TrimPrefix(heading, "Test: "), Line: lineOf(n, src)}

		case *ast.FencedCodeBlock:
			lang := string(n.Language(src))
			line := lineOf(n, src)
			if cur == nil {
				if lang != "" {
					return ast.WalkStop, fmt.Errorf("line %d: %s fence found outside of test case", line, lang)
				}
				return ast.WalkContinue, nil
			}
			content := strings.TrimRight(fenceContent(n, src), "\n")
			switch {
			case lang == FenceProgram:
				if cur.Program != "" {
					return ast.WalkStop, fmt.Errorf("line %d: multiple %s fences found in test '%s'", line, FenceProgram, cur.Name)
				}
				cur.Program = content
			case isAssertion(lang):
				cur.Assertions = append(cur.Assertions, Assertion{Type: AssertionType(lang), Content: content, Line: line})
			case lang != "":
				return ast.WalkStop, fmt.Errorf("line %d: unknown fence language '%s' in test '%s'", line, lang, cur.Name)
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking markdown AST: %w", err)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return out, nil
}

func isAssertion(lang string) bool {
	switch AssertionType(lang) {
	case AssertExpect, AssertAbsent, AssertErrors, AssertCount:
		return true
	}
	return false
}

func nodeText(node ast.Node, src []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			if t, ok := n.(*ast.Text); ok {
				buf.Write(t.Segment.Value(src))
			}
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

func fenceContent(block *ast.FencedCodeBlock, src []byte) string {
	var buf bytes.Buffer
	for i := 0; i < block.Lines().Len(); i++ {
		line := block.Lines().At(i)
		buf.Write(line.Value(src))
	}
	return buf.String()
}

func lineOf(node ast.Node, src []byte) int {
	if node.Lines().Len() == 0 {
		return 1
	}
	start := node.Lines().At(0).Start
	return bytes.Count(src[:min(start, len(src))], []byte("\n")) + 1
}
