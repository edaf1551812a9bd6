// SPDX-License-Identifier: Unlicense OR MIT

//go:build !linux || android || !cgo

package main

import (
	"errors"
	"log/slog"

	"gioui.org/x/camview/config"
	"gioui.org/x/camview/render"
)

func run(cfg config.Config, drawer render.Drawer, log *slog.Logger) error {
	return errors.New("no window host on this platform")
}
