package driver

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"loom/internal/format"
	"loom/internal/version"
)

// Digest is a SHA-256 value.
type Digest [32]byte

func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// combineDigest: H(part1 || 0 || part2 || 0 ...).
func combineDigest(parts ...[]byte) Digest {
	h := sha256.New()
	for _, p := range parts {
		_, _ = h.Write(p)
		_, _ = h.Write([]byte{0})
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// CacheKey identifies content formatted as language with opts by this build.
func CacheKey(content []byte, language string, opts format.Options) Digest {
	return combineDigest([]byte(version.Plain()), []byte(language), []byte(fingerprint(opts)), content)
}

func fingerprint(o format.Options) string {
	p := o.Printer
	return fmt.Sprintf("w%d i%s%d t%d le%s keep%t q%s tc%s pw%s",
		p.PrintWidth, p.IndentStyle, p.IndentWidth, p.TabWidth, p.LineEnding,
		o.KeepLineEnding, o.QuoteStyle, o.TrailingComma, o.ProseWrap)
}
