// SPDX-License-Identifier: Unlicense OR MIT

package gltest

import "golang.org/x/sys/unix"

func threadID() int {
	return unix.Gettid()
}
