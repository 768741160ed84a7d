package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"xclower/internal/prof"
)

// setupProfiling starts the profilers named by the persistent flags. The
// returned stop func reports failures to stderr.
func setupProfiling(cmd *cobra.Command) (func(), error) {
	pf := cmd.Root().PersistentFlags()
	var opts prof.Options
	opts.CPU, _ = pf.GetString("cpu-profile")
	opts.Heap, _ = pf.GetString("mem-profile")
	opts.Trace, _ = pf.GetString("runtime-trace")
	if !opts.Enabled() {
		return func() {}, nil
	}
	s, err := prof.Start(opts)
	if err != nil {
		return nil, err
	}
	return func() {
		if err := s.Stop(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "profiling: %v\n", err)
		}
	}, nil
}
