// SPDX-License-Identifier: Unlicense OR MIT

//go:build !linux

package gltest

func threadID() int {
	return 0
}
