package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"xclower/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "xclower",
	Short: "Lower a C++ subset to flat C",
	Long: `xclower turns classes, overloads and templates of an embedded C++ subset
into flat C: aggregates, explicitly called init/cleanup procedures and
uniquely mangled free functions.`,
	SilenceUsage: true,
}

// main registers subcommands and persistent flags, then executes the root
// command. Any command error exits with status 1.
func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(lowerCmd)
	rootCmd.AddCommand(mangleCmd)
	rootCmd.AddCommand(demangleCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(versionCmd)

	addGlobalFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// Глобальные флаги
func addGlobalFlags(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.String("color", "auto", "colorize output (auto|on|off)")
	pf.Bool("quiet", false, "suppress non-essential output")
	pf.Bool("timings", false, "show timing information")
	pf.Int("max-diagnostics", 100, "maximum number of diagnostics to show")
	pf.String("config", "", "path to xclower.toml (default: search upwards from the working directory)")
	pf.String("trace", "", "write trace events to a file ('-' for stderr)")
	pf.String("trace-level", "", "trace level (off|error|phase|detail|debug); overrides [trace].level")
	pf.String("trace-format", "auto", "trace format (auto|text|ndjson)")
	pf.String("cpu-profile", "", "write a CPU profile to this file")
	pf.String("mem-profile", "", "write a heap profile to this file on exit")
	pf.String("runtime-trace", "", "write a Go runtime trace to this file")
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
