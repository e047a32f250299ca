// SPDX-License-Identifier: MIT
//go:build arm64

package cpu

import (
	"runtime"

	"golang.org/x/sys/cpu"
)

// detectFeaturesImpl performs CPU feature detection on arm64 systems. NEON
// (Advanced SIMD) is mandatory on arm64, so it is always reported as present.
func detectFeaturesImpl() Features {
	_ = cpu.ARM64
	return Features{
		HasNEON:      true,
		Architecture: runtime.GOARCH,
	}
}
