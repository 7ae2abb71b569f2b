package testkit

import (
	"strings"
	"testing"

	"loom/internal/diag"
	"loom/internal/format"
	"loom/internal/ir"
	"loom/internal/lang/jsonc"
	"loom/internal/lang/prose"
	"loom/internal/source"
)

func singleToken(line string) bool {
	return !strings.Contains(strings.TrimSpace(line), " ")
}

func TestJSONCInvariants(t *testing.T) {
	opts := format.DefaultOptions()
	opts.Printer.PrintWidth = 40
	inputs := []string{
		`{"name":"loom","tags":["a","b","c"],"nested":{"deep":{"deeper":[1,2,3,4,5,6,7,8,9,10,11,12,13,14]}}}`,
		"{\n  // leading\n  \"a\": 1, // trailing\n  /* block */ \"b\": [ ]\n}\n",
		"[1, 2, /* inline */ 3]\n// after\n",
		"{\"bad\": [1 2], \"ok\": true}",
		"// loom-ignore\n{\"keep\":   [1,2]}\n",
		"",
	}
	lang := jsonc.New(jsonc.JSONC)
	for _, in := range inputs {
		if err := CheckAll(lang, "in.jsonc", in, opts, singleToken); err != nil {
			t.Errorf("%q: %v", in, err)
		}
	}
}

func TestProseInvariants(t *testing.T) {
	opts := format.DefaultOptions()
	opts.Printer.PrintWidth = 30
	opts.ProseWrap = format.ProseWrapAlways
	inputs := []string{
		"# Title\n\nA paragraph that is long enough to wrap at least once or twice.\n",
		"- first item with words\n- second\n\n```\nverbatim   code\n```\n",
		"<!-- note -->\ntext  \nwith break\n",
	}
	lang := prose.New()
	for _, in := range inputs {
		if err := CheckAll(lang, "in.md", in, opts, singleToken); err != nil {
			t.Errorf("%q: %v", in, err)
		}
	}
}

func TestCheckWidth(t *testing.T) {
	if err := CheckWidth([]byte("abc\nabcdef\n"), 5, nil); err == nil {
		t.Fatal("expected width error")
	}
	if err := CheckWidth([]byte("abc\nabcdef\n"), 5, singleToken); err != nil {
		t.Fatal(err)
	}
}

func TestCheckVerbatim(t *testing.T) {
	doc := ir.NewDocument(ir.Concat(ir.Text("a"), ir.Verbatim("x  y", source.Span{})), nil)
	if err := CheckVerbatim(&doc, []byte("ax  y")); err != nil {
		t.Fatal(err)
	}
	if err := CheckVerbatim(&doc, []byte("ax y")); err == nil {
		t.Fatal("expected missing verbatim")
	}
}

func TestCheckSpanInvariantsRejectsForeignFile(t *testing.T) {
	sf := NewFile("a.json", "[1]")
	other := NewFile("b.json", "[1]")
	other.ID = sf.ID + 1
	syn, err := jsonc.New(jsonc.JSON).Parse(other, diag.NopReporter{})
	if err != nil {
		t.Fatal(err)
	}
	if err := CheckSpanInvariants(syn, sf); err == nil {
		t.Fatal("expected file mismatch")
	}
}
