// SPDX-License-Identifier: MIT
//go:build !amd64 && !arm64

package cpu

import "runtime"

// detectFeaturesImpl is the fallback for architectures without a dedicated
// detector; no SIMD flags are reported.
func detectFeaturesImpl() Features {
	return Features{Architecture: runtime.GOARCH}
}
