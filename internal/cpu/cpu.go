// SPDX-License-Identifier: MIT
// Package cpu reports SIMD capability flags for startup diagnostics. It is
// informational only: the RT audio path never branches on these flags, as
// spec.md scopes SIMD kernel selection and off-line rendering acceleration
// out of the engine core.
package cpu

import "sync"

// Features describes the SIMD capabilities of the host CPU.
type Features struct {
	HasSSE2      bool
	HasAVX       bool
	HasAVX2      bool
	HasAVX512    bool
	HasNEON      bool
	Architecture string
}

var (
	once     sync.Once
	detected Features
)

// Detect returns the SIMD features of the current CPU, detecting once and
// caching the result for subsequent calls.
func Detect() Features {
	once.Do(func() {
		detected = detectFeaturesImpl()
	})
	return detected
}

// Summary renders the detected features as a short human-readable string
// suitable for a single startup log line.
func (f Features) Summary() string {
	flags := ""
	add := func(name string, has bool) {
		if has {
			if flags != "" {
				flags += " "
			}
			flags += name
		}
	}
	add("SSE2", f.HasSSE2)
	add("AVX", f.HasAVX)
	add("AVX2", f.HasAVX2)
	add("AVX512", f.HasAVX512)
	add("NEON", f.HasNEON)
	if flags == "" {
		flags = "none"
	}
	return f.Architecture + ": " + flags
}
