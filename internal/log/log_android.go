// SPDX-License-Identifier: Unlicense OR MIT

package log

import (
	"bufio"
	"os"
	"runtime"

	"github.com/ebitengine/purego"
	"golang.org/x/sys/unix"
)

// From android/log.h.
const androidLogInfo = 4

var androidLogWrite func(prio int32, tag, text *byte) int32

func init() {
	lib, err := purego.Dlopen("liblog.so", purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		// Without logcat, output stays on the original descriptors.
		return
	}
	purego.RegisterLibFunc(&androidLogWrite, lib, "__android_log_write")
	logFd(os.Stdout.Fd())
	logFd(os.Stderr.Fd())
}

func logFd(fd uintptr) {
	r, w, err := os.Pipe()
	if err != nil {
		panic(err)
	}
	if err := unix.Dup3(int(w.Fd()), int(fd), unix.O_CLOEXEC); err != nil {
		panic(err)
	}
	go func() {
		tag := []byte("camview\x00")
		// 1024 is the truncation limit from android/log.h, plus a \n.
		lineBuf := bufio.NewReaderSize(r, 1024)
		// The buffer passed to liblog, including the terminating '\0'.
		buf := make([]byte, lineBuf.Size()+1)
		for {
			line, _, err := lineBuf.ReadLine()
			if err != nil {
				break
			}
			copy(buf, line)
			buf[len(line)] = 0
			androidLogWrite(androidLogInfo, &tag[0], &buf[0])
		}
		// The garbage collector doesn't know that w's fd was dup'ed.
		// Avoid finalizing w, and thereby avoid its finalizer closing its fd.
		runtime.KeepAlive(w)
	}()
}
