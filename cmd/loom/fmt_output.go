package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"loom/internal/diag"
	"loom/internal/diagfmt"
	"loom/internal/driver"
)

type fmtSummary struct {
	failed  int
	changed int
	total   int
}

func (s fmtSummary) err(check bool) error {
	if s.failed > 0 {
		return fmt.Errorf("fmt: %d of %d files have errors", s.failed, s.total)
	}
	if check && s.changed > 0 {
		return fmt.Errorf("fmt: formatting changes required in %d files", s.changed)
	}
	return nil
}

func summarize(results []driver.FormatResult) fmtSummary {
	s := fmtSummary{total: len(results)}
	for i := range results {
		if results[i].Failed() {
			s.failed++
		}
		if results[i].Changed {
			s.changed++
		}
	}
	return s
}

func renderFmtText(out, errOut io.Writer, results []driver.FormatResult, flags fmtFlags) fmtSummary {
	for i := range results {
		res := &results[i]
		reportDiagnostics(errOut, res, flags)
		if res.Err != nil {
			fmt.Fprintf(errOut, "fmt: %s: %v\n", res.Path, res.Err)
			continue
		}
		if flags.verify && !flags.quiet {
			for _, o := range res.Overflows {
				fmt.Fprintf(errOut, "%s: output line %d is %d columns wide\n", res.Path, o.Line, o.Width)
			}
		}
		switch {
		case flags.diff:
			if res.Changed {
				_, _ = io.WriteString(out, res.Diff)
			}
		case flags.stdout:
			_, _ = out.Write(res.Formatted)
		case flags.check:
			if res.Changed && !flags.quiet {
				fmt.Fprintln(out, res.Path)
			}
		default:
			if res.Changed && !flags.quiet {
				fmt.Fprintf(out, "reformatted %s\n", res.Path)
			}
		}
	}
	return summarize(results)
}

// reportDiagnostics prints what the engine reported for res. Quiet runs
// keep errors only.
func reportDiagnostics(w io.Writer, res *driver.FormatResult, flags fmtFlags) {
	if res.File == nil || len(res.Diagnostics) == 0 {
		return
	}
	diags := res.Diagnostics
	if flags.quiet {
		diags = make([]diag.Diagnostic, 0, len(res.Diagnostics))
		for _, d := range res.Diagnostics {
			if d.Severity == diag.SevError {
				diags = append(diags, d)
			}
		}
	}
	if flags.output == "short" {
		_ = diag.Short(w, res.File, diags, true)
		return
	}
	diagfmt.Pretty(w, res.File, diags, diagfmt.PrettyOpts{
		Color:     colorEnabled(),
		PathMode:  diagfmt.PathModeAuto,
		ShowNotes: true,
	})
}

func renderFmtJSON(out io.Writer, results []driver.FormatResult, flags fmtFlags) (fmtSummary, error) {
	opts := diagfmt.JSONOpts{
		IncludePositions: true,
		Max:              flags.maxDiagnostics,
		IncludeNotes:     true,
	}
	files := make([]diagfmt.FileJSON, 0, len(results))
	for i := range results {
		res := &results[i]
		fj := diagfmt.FileJSON{Path: res.Path, Diagnostics: []diagfmt.DiagnosticJSON{}}
		if res.File != nil {
			fj = diagfmt.BuildFile(res.File, res.Diagnostics, opts)
			fj.Path = res.Path
		}
		fj.Changed = res.Changed
		if res.Err != nil {
			fj.Error = res.Err.Error()
		}
		files = append(files, fj)
	}
	if err := diagfmt.JSON(out, files); err != nil {
		return fmtSummary{}, err
	}
	return summarize(results), nil
}

// printTimings sums the phase timings of every file.
func printTimings(w io.Writer, results []driver.FormatResult) {
	type phase struct {
		ms    float64
		count int
	}
	phases := make(map[string]*phase)
	var total float64
	cached := 0
	for i := range results {
		if results[i].Cached {
			cached++
		}
		rep := results[i].Timing
		total += rep.TotalMS
		for _, p := range rep.Phases {
			acc := phases[p.Name]
			if acc == nil {
				acc = &phase{}
				phases[p.Name] = acc
			}
			acc.ms += p.DurationMS
			acc.count++
		}
	}
	names := make([]string, 0, len(phases))
	for name := range phases {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return phases[names[i]].ms > phases[names[j]].ms })
	var b strings.Builder
	fmt.Fprintf(&b, "formatted %d files (%d cached) in %.1f ms\n", len(results), cached, total)
	for _, name := range names {
		fmt.Fprintf(&b, "  %-8s %8.1f ms  x%d\n", name, phases[name].ms, phases[name].count)
	}
	_, _ = io.WriteString(w, b.String())
}
