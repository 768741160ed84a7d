package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"xclower/internal/diag"
	"xclower/internal/diagfmt"
	"xclower/internal/driver"
	"xclower/internal/hirio"
	"xclower/internal/lir"
	"xclower/internal/observ"
	"xclower/internal/pipeline"
	"xclower/internal/trace"
	"xclower/internal/ui"
)

var lowerCmd = &cobra.Command{
	Use:   "lower <input>",
	Short: "Lower a front-end document to flat C",
	Long: `Lower a front-end interchange document (JSON or msgpack) to flat C.
Declarations that cannot be lowered are reported and left out together with
everything that uses them; the rest of the program is still written.`,
	Args: cobra.ExactArgs(1),
	RunE: runLower,
}

func init() {
	addLowerFlags(lowerCmd)
}

func addLowerFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("emit", "dump", "output kind (dump|json|msgpack|directives)")
	f.StringP("output", "o", "", "write output to a file instead of stdout")
	f.String("input-format", "auto", "input format (auto|json|msgpack)")
	f.Int("jobs", 0, "units lowered in parallel (0 = [lowering].jobs or GOMAXPROCS)")
	f.Bool("cache", false, "reuse results from the disk cache (overrides [cache].enabled)")
	f.String("ui", "auto", "progress view (auto|on|off)")
	f.String("diag-format", "pretty", "diagnostics format (pretty|short|json)")
	f.Bool("notes", true, "print diagnostic notes")
}

var errLoweringFailed = errors.New("lowering failed")

type lowerFlags struct {
	emit        string
	output      string
	inputFormat hirio.Format
	jobs        int
	ui          uiMode
	diagFormat  string
	notes       bool
	quiet       bool
	timings     bool
	maxDiags    int
}

func readLowerFlags(cmd *cobra.Command) (lowerFlags, error) {
	var lf lowerFlags
	f := cmd.Flags()
	lf.emit, _ = f.GetString("emit")
	switch lf.emit {
	case "dump", "json", "msgpack", "directives":
	default:
		return lf, fmt.Errorf("invalid --emit %q (expected dump|json|msgpack|directives)", lf.emit)
	}
	lf.output, _ = f.GetString("output")
	inFmt, _ := f.GetString("input-format")
	var err error
	if lf.inputFormat, err = hirio.ParseFormat(inFmt); err != nil {
		return lf, err
	}
	lf.jobs, _ = f.GetInt("jobs")
	uiStr, _ := f.GetString("ui")
	if lf.ui, err = readUIMode(uiStr); err != nil {
		return lf, fmt.Errorf("--ui: %w", err)
	}
	lf.diagFormat, _ = f.GetString("diag-format")
	switch lf.diagFormat {
	case "pretty", "short", "json":
	default:
		return lf, fmt.Errorf("invalid --diag-format %q (expected pretty|short|json)", lf.diagFormat)
	}
	lf.notes, _ = f.GetBool("notes")
	pf := cmd.Root().PersistentFlags()
	lf.quiet, _ = pf.GetBool("quiet")
	lf.timings, _ = pf.GetBool("timings")
	lf.maxDiags, _ = pf.GetInt("max-diagnostics")
	return lf, nil
}

func runLower(cmd *cobra.Command, args []string) error {
	path := args[0]
	colored, err := useColor(cmd)
	if err != nil {
		return err
	}
	lf, err := readLowerFlags(cmd)
	if err != nil {
		return err
	}
	configPath, _ := cmd.Root().PersistentFlags().GetString("config")
	cfg, err := loadConfig(configPath, ".")
	if err != nil {
		return err
	}
	tracer, cleanup, err := setupTracing(cmd, cfg)
	if err != nil {
		return err
	}
	defer cleanup()
	ctx := trace.WithTracer(cmd.Context(), tracer)
	stopProf, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	defer stopProf()

	opts := driver.FileOptions{
		Options: driver.Options{
			Jobs:             cfg.Lowering.Jobs,
			MaxDiagnostics:   lf.maxDiags,
			MaxTemplateDepth: cfg.Lowering.MaxTemplateDepth,
			MaxAlign:         cfg.Target.MaxAlign,
		},
		Format: lf.inputFormat,
		Model:  cfg.model(),
	}
	if cmd.Flags().Changed("jobs") {
		opts.Jobs = lf.jobs
	}
	if lf.timings {
		opts.Timer = observ.NewTimer()
	}
	useCache := cfg.Cache.Enabled
	if cmd.Flags().Changed("cache") {
		useCache, _ = cmd.Flags().GetBool("cache")
	}
	if useCache {
		if opts.Cache, err = driver.OpenDiskCache("xclower", cfg.Cache.Dir); err != nil {
			return fmt.Errorf("open cache: %w", err)
		}
	}

	var res *driver.FileResult
	if shouldUseTUI(lf.ui) && !lf.quiet && lf.output != "" {
		res, err = ui.RunWithProgress(path, os.Stdout, func(sink pipeline.ProgressSink) (*driver.FileResult, error) {
			o := opts
			o.Progress = sink
			return driver.LowerFile(ctx, path, o)
		})
	} else {
		res, err = driver.LowerFile(ctx, path, opts)
	}
	if err != nil {
		return err
	}

	if !res.Rejected {
		done := opts.Timer.Track(string(pipeline.StageEmit))
		err = writeOutput(cmd.OutOrStdout(), lf, res.Program)
		done(lf.emit)
		if err != nil {
			return err
		}
	}
	if lf.timings {
		driver.AppendTimings(res.Bag, path, opts.Timer, &res.Stats)
	}
	if err := printDiagnostics(cmd.ErrOrStderr(), res, lf, colored); err != nil {
		return err
	}
	if !lf.quiet && !res.Rejected {
		printSummary(cmd.ErrOrStderr(), res)
	}
	if res.Rejected {
		return fmt.Errorf("%w: %s was rejected", errLoweringFailed, path)
	}
	if res.Bag.HasErrors() {
		return fmt.Errorf("%w: %d failed, %d dropped", errLoweringFailed, res.Stats.Failed, res.Stats.Dropped)
	}
	return nil
}

func writeOutput(stdout io.Writer, lf lowerFlags, prog *lir.Program) (err error) {
	w := stdout
	if lf.output != "" {
		f, cerr := os.Create(lf.output)
		if cerr != nil {
			return fmt.Errorf("create output: %w", cerr)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
		w = f
	} else if lf.emit == "msgpack" && isTerminal(os.Stdout) {
		return fmt.Errorf("refusing to write msgpack to a terminal; use -o")
	}
	bw := bufio.NewWriter(w)
	if err := emit(bw, lf.emit, prog); err != nil {
		return err
	}
	return bw.Flush()
}

func emit(w io.Writer, kind string, prog *lir.Program) error {
	switch kind {
	case "json":
		return lir.WriteJSON(w, prog)
	case "msgpack":
		data, err := lir.MarshalMsgpack(prog)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	case "directives":
		return lir.DumpDirectives(w, prog.Directives)
	default:
		return lir.Dump(w, prog, lir.DumpOptions{Prototypes: true})
	}
}

func printDiagnostics(w io.Writer, res *driver.FileResult, lf lowerFlags, colored bool) error {
	if res.Bag.Len() == 0 {
		return nil
	}
	switch lf.diagFormat {
	case "short":
		_, err := io.WriteString(w, diag.FormatShort(res.Bag.Items(), res.Files, lf.notes)+"\n")
		return err
	case "json":
		return diagfmt.JSON(w, res.Bag, res.Files, diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         diagfmt.PathModeAuto,
			IncludeNotes:     lf.notes,
		})
	}
	diagfmt.Pretty(w, res.Bag, res.Files, diagfmt.PrettyOpts{
		Color:     colored,
		Context:   1,
		PathMode:  diagfmt.PathModeAuto,
		ShowNotes: lf.notes,
	})
	return nil
}

func printSummary(w io.Writer, res *driver.FileResult) {
	s := res.Stats
	cached := ""
	if res.Cached {
		cached = " (cached)"
	}
	fmt.Fprintf(w, "lowered %d classes, %d procedures, %d template instances%s", s.Classes, s.Procs, s.Instances, cached)
	if s.Failed+s.Dropped > 0 {
		fmt.Fprintf(w, "; %d failed, %d dropped", s.Failed, s.Dropped)
	}
	fmt.Fprintln(w)
}
