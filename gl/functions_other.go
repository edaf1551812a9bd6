// SPDX-License-Identifier: Unlicense OR MIT

//go:build !linux && !freebsd

package gl

import (
	"fmt"
	"runtime"
)

// Load resolves the OpenGL ES entry points from the system library.
func Load() (Functions, error) {
	return nil, fmt.Errorf("gl: OpenGL ES is not supported on %s", runtime.GOOS)
}
