package format

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"loom/internal/comments"
	"loom/internal/diag"
	"loom/internal/ir"
	"loom/internal/observ"
	"loom/internal/printer"
	"loom/internal/source"
	"loom/internal/trace"
)

var bom = []byte{0xEF, 0xBB, 0xBF}

// Result is the outcome of formatting one file.
type Result struct {
	Code        []byte
	Map         printer.SourceMap
	Stats       printer.Stats
	Overflows   []printer.Overflow
	Diagnostics []diag.Diagnostic
	// Unchanged is set when the file was returned as it was read because
	// some comment could not be placed.
	Unchanged bool
	Fallbacks int
	Document  ir.Document
	IDs       *ir.GroupIDs
	Timings   observ.Report
}

// FormatFile runs parse, comment attachment, layout and printing for file.
// Only ErrParse, invalid options and engine defects are returned as errors;
// everything else degrades to verbatim output plus a diagnostic.
func FormatFile(ctx context.Context, lang Language, file *source.File, opts Options) (*Result, error) {
	if lang == nil {
		return nil, ErrUnknownLanguage
	}
	if file == nil {
		return nil, errors.New("format: nil source file")
	}
	if err := opts.Printer.Validate(); err != nil {
		return nil, err
	}

	ctx, span := trace.StartSpan(ctx, trace.ScopeFile, "file:"+file.Path)
	defer span.End("")

	timer := observ.NewTimer()
	bag := diag.NewBag(0)
	rep := diag.NewDedupReporter(diag.NewBagReporter(bag))

	var (
		syntax   Syntax
		parseErr error
	)
	phase(ctx, timer, "parse", func() {
		syntax, parseErr = lang.Parse(file, rep)
	})
	if parseErr != nil {
		return nil, &ParseError{Path: file.Path, Diagnostics: sorted(bag), Err: parseErr}
	}

	var cm *comments.Map
	phase(ctx, timer, "attach", func() {
		cm = comments.Attach(syntax.Nodes(), comments.Classify(file, syntax.Comments()))
	})

	fctx := NewContext(opts, file, cm, rep)
	var (
		root     ir.Element
		buildErr error
	)
	phase(ctx, timer, "build", func() {
		root, buildErr = lang.Format(fctx, syntax)
	})
	if buildErr != nil {
		return nil, fmt.Errorf("format %s: %w", file.Path, buildErr)
	}

	res := &Result{IDs: fctx.IDs, Fallbacks: fctx.Fallbacks()}
	if lost := cm.Unformatted(); len(lost) > 0 {
		for _, i := range lost {
			diag.ReportWarning(rep, diag.FmtUnattachedComment, cm.Comment(i).Span, "comment would be dropped, file left unchanged").Emit()
		}
		res.Code = original(file)
		res.Unchanged = true
		res.Diagnostics = sorted(bag)
		res.Timings = timer.Report()
		return res, nil
	}

	popts := opts.Printer
	if opts.KeepLineEnding {
		popts.LineEnding = printer.LineEndingLF
		if file.Flags&source.FileNormalizedCRLF != 0 {
			popts.LineEnding = printer.LineEndingCRLF
		}
	}
	res.Document = ir.NewDocument(root, fctx.IDs)

	var (
		printed  *printer.Printed
		printErr error
	)
	phase(ctx, timer, "print", func() {
		printed, printErr = printer.Print(&res.Document, popts)
	})
	if printErr != nil {
		return nil, fmt.Errorf("print %s: %w", file.Path, printErr)
	}
	span.AttrInt("memo_hits", printed.Stats.MemoHits).
		AttrInt("fits_steps", printed.Stats.FitsSteps).
		AttrInt("overflows", len(printed.Overflows)).
		AttrInt("repeated_diagnostics", rep.Suppressed())

	res.Code = printed.Code
	if file.Flags&source.FileHadBOM != 0 {
		res.Code = append(append([]byte(nil), bom...), res.Code...)
		shiftMap(&printed.Map, len(bom))
	}
	res.Map = printed.Map
	res.Stats = printed.Stats
	res.Overflows = printed.Overflows
	res.Diagnostics = sorted(bag)
	res.Timings = timer.Report()
	return res, nil
}

func phase(ctx context.Context, timer *observ.Timer, name string, fn func()) {
	_, span := trace.StartSpan(ctx, trace.ScopePhase, name)
	timer.Measure(name, fn)
	span.End("")
}

// original rebuilds the bytes as they were on disk from the normalized file.
func original(file *source.File) []byte {
	out := file.Content
	if file.Flags&source.FileNormalizedCRLF != 0 {
		out = bytes.ReplaceAll(out, []byte("\n"), []byte("\r\n"))
	} else {
		out = append([]byte(nil), out...)
	}
	if file.Flags&source.FileHadBOM != 0 {
		out = append(append([]byte(nil), bom...), out...)
	}
	return out
}

func shiftMap(m *printer.SourceMap, n int) {
	for i := range m.Markers {
		m.Markers[i].Dest.Start += n
		m.Markers[i].Dest.End += n
	}
	m.Size += n
}

func sorted(bag *diag.Bag) []diag.Diagnostic {
	bag.Sort()
	return bag.Items()
}

// Edit replaces Span of the source with Text.
type Edit struct {
	Span source.Span
	Text string
}

// FormatRange formats file and returns the edit that reformats the tokens
// inside span, widened to whole-line indentation where both sides allow it.
// ok is false when span covers no token.
func FormatRange(ctx context.Context, lang Language, file *source.File, opts Options, span source.Span) (Edit, bool, error) {
	res, err := FormatFile(ctx, lang, file, opts)
	if err != nil {
		return Edit{}, false, err
	}
	if res.Unchanged {
		return Edit{}, false, nil
	}
	span.File = file.ID
	src, dst, ok := res.Map.MapRange(span)
	if !ok {
		return Edit{}, false, nil
	}
	srcStart := lineIndentStart(file.Content, int(src.Start))
	dstStart := lineIndentStart(res.Code, dst.Start)
	if srcStart >= 0 && dstStart >= 0 {
		src.Start = uint32(srcStart)
		dst.Start = dstStart
	}
	return Edit{Span: src, Text: string(res.Code[dst.Start:dst.End])}, true, nil
}

// lineIndentStart returns the start of the line containing off when only
// blanks precede off on that line, and -1 otherwise.
func lineIndentStart(buf []byte, off int) int {
	i := off
	for i > 0 && (buf[i-1] == ' ' || buf[i-1] == '\t') {
		i--
	}
	if i == 0 || buf[i-1] == '\n' {
		return i
	}
	return -1
}

// CheckIdempotent formats file, re-parses the output and formats it again.
// It reports the first differing line when the second pass changes the text.
func CheckIdempotent(ctx context.Context, lang Language, file *source.File, opts Options) (ok bool, msg string, err error) {
	first, err := FormatFile(ctx, lang, file, opts)
	if err != nil {
		return false, "", err
	}
	fs := source.NewFileSet()
	again := fs.Get(fs.AddVirtual(file.Path, first.Code))
	second, err := FormatFile(ctx, lang, again, opts)
	if err != nil {
		return false, "", fmt.Errorf("reformat: %w", err)
	}
	if bytes.Equal(first.Code, second.Code) {
		return true, "", nil
	}
	line := firstDiffLine(first.Code, second.Code)
	return false, fmt.Sprintf("%s: output changes on second pass at line %d", file.Path, line), nil
}

func firstDiffLine(a, b []byte) int {
	line := 1
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return line
		}
		if a[i] == '\n' {
			line++
		}
	}
	return line
}
