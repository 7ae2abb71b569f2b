package fuzztests

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

const (
	maxSeedBytes = 64 << 10 // 64 KiB, ограничение для тестового корпуса
)

var jsonSeeds = []string{
	``,
	`{}`,
	`[1,2,3]`,
	`{"a":{"b":[true,false,null]}}`,
	"{\n  // c\n  \"a\": 1, /* d */\n}",
	`{a:'single',b:+1.5e3,c:0x1F,}`,
	`[1 2]`,
	`{"unterminated": "str`,
	"/* open",
	`[[[[[[[[[[]]]]]]]]]]`,
}

var proseSeeds = []string{
	``,
	"# Title\n\nSome text here.\n",
	"- a\n- b\n  continued\n\n1. one\n",
	"```\ncode\n",
	"<!-- loom-ignore -->\nkeep   this\n",
	"text  \nbreak\n\n> quote\n\n---\n",
	"Setext\n===\n",
}

func addSeeds(f *testing.F, seeds []string, exts ...string) {
	for _, s := range seeds {
		f.Add([]byte(s))
	}
	addTestdataSeeds(f, exts...)
}

func addTestdataSeeds(f *testing.F, exts ...string) {
	root := filepath.Join("..", "..", "testdata")
	if _, err := os.Stat(root); err != nil {
		return
	}
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil || d.IsDir() {
			return nil
		}
		for _, ext := range exts {
			if filepath.Ext(path) != ext {
				continue
			}
			// #nosec G304 -- path comes from repository testdata walk
			src, err := os.ReadFile(path)
			if err == nil {
				f.Add(clampSeed(src))
			}
		}
		return nil
	})
}

func clampSeed(src []byte) []byte {
	if len(src) <= maxSeedBytes {
		return append([]byte(nil), src...)
	}
	return append([]byte(nil), src[:maxSeedBytes]...)
}
