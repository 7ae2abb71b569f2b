//go:build !loom_debug

package invariant

const debugBuild = false
