package driver_test

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/nalgeon/be"

	"xclower/internal/driver"
	"xclower/internal/lir"
	"xclower/internal/testkit"
)

func TestScenarios(t *testing.T) {
	data, err := os.ReadFile("testdata/scenarios.md")
	be.Err(t, err, nil)
	scenarios, err := testkit.ExtractScenarios(string(data))
	be.Err(t, err, nil)
	be.True(t, len(scenarios) > 0)

	for _, sc := range scenarios {
		t.Run(sc.Name, func(t *testing.T) {
			tab, err := testkit.LoadProgram(sc.Program)
			if err != nil {
				t.Fatalf("line %d: load: %v", sc.Line, err)
			}
			res, err := driver.Lower(context.Background(), tab, driver.Options{Jobs: 4})
			be.Err(t, err, nil)

			var b strings.Builder
			be.Err(t, lir.Dump(&b, res.Program, lir.DumpOptions{}), nil)
			listing := b.String()

			sawErrors := false
			for _, a := range sc.Assertions {
				var err error
				switch a.Type {
				case testkit.AssertExpect:
					err = testkit.ExpectInOrder(listing, a.Content)
				case testkit.AssertAbsent:
					err = testkit.ExpectAbsent(listing, a.Content)
				case testkit.AssertCount:
					err = testkit.ExpectCounts(listing, a.Content)
				case testkit.AssertErrors:
					sawErrors = true
					want, perr := testkit.ParseCodes(a.Content)
					be.Err(t, perr, nil)
					be.Equal(t, res.Bag.Codes(), want)
				}
				if err != nil {
					t.Fatalf("line %d: %v", a.Line, err)
				}
			}
			if !sawErrors && res.Bag.Len() > 0 {
				t.Fatalf("unexpected diagnostics: %v", res.Bag.Codes())
			}
		})
	}
}
