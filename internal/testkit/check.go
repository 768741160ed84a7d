package testkit

import (
	"fmt"
	"strconv"
	"strings"

	"xclower/internal/diag"
	"xclower/internal/hirio"
	"xclower/internal/symbols"
	"xclower/internal/types"
)

// LoadProgram decodes a JSON interchange document under the default data
// model.
func LoadProgram(src string) (*symbols.Table, error) {
	doc, err := hirio.Decode([]byte(src), hirio.FormatJSON)
	if err != nil {
		return nil, err
	}
	return hirio.Build(doc, types.DefaultDataModel())
}

// ExpectInOrder checks that every non-blank line of want occurs in listing,
// each after the previous one.
func ExpectInOrder(listing, want string) error {
	pos := 0
	for _, line := range strings.Split(want, "\n") {
		line = strings.TrimRight(line, " \t")
		if strings.TrimSpace(line) == "" {
			continue
		}
		idx := strings.Index(listing[pos:], line)
		if idx < 0 {
			if strings.Contains(listing, line) {
				return fmt.Errorf("%q is out of order in:\n%s", line, listing)
			}
			return fmt.Errorf("%q not found in:\n%s", line, listing)
		}
		pos += idx + len(line)
	}
	return nil
}

// ExpectAbsent checks that no non-blank line of want occurs in listing.
func ExpectAbsent(listing, want string) error {
	for _, line := range strings.Split(want, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && strings.Contains(listing, line) {
			return fmt.Errorf("%q should not appear in:\n%s", line, listing)
		}
	}
	return nil
}

// ExpectCounts checks "<n> <text>" lines.
func ExpectCounts(listing, want string) error {
	for _, line := range strings.Split(want, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		num, textPart, ok := strings.Cut(line, " ")
		n, err := strconv.Atoi(num)
		if !ok || err != nil {
			return fmt.Errorf("bad count line %q", line)
		}
		if got := strings.Count(listing, textPart); got != n {
			return fmt.Errorf("%q occurs %d times, want %d in:\n%s", textPart, got, n, listing)
		}
	}
	return nil
}

// ParseCodes reads one diagnostic name per line ("AmbiguousCall").
func ParseCodes(content string) ([]diag.Code, error) {
	codes := []diag.Code{}
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		c, ok := diag.CodeByName(line)
		if !ok {
			return nil, fmt.Errorf("unknown diagnostic %q", line)
		}
		codes = append(codes, c)
	}
	return codes, nil
}
