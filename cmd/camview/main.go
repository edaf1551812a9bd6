// SPDX-License-Identifier: Unlicense OR MIT

// Command camview shows a generated test pattern streamed through a
// frame source into a window, the way a camera preview is shown.
package main

import (
	"flag"
	"fmt"
	"os"

	"gioui.org/x/camview/config"
	"gioui.org/x/camview/internal/log"
	"gioui.org/x/camview/render"
)

var (
	configPath = flag.String("config", "", "configuration file (.yaml, .yml or .toml)")
	fps        = flag.Int("fps", 0, "override the frame rate of the test pattern")
	logLevel   = flag.String("log", "", "override the log level (debug, info, warn, error)")
	recordable = flag.Bool("recordable", false, "request a recordable surface")
)

func main() {
	flag.Parse()
	if err := mainErr(); err != nil {
		fmt.Fprintf(os.Stderr, "camview: %v\n", err)
		os.Exit(1)
	}
}

func mainErr() error {
	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return err
		}
	}
	if *fps != 0 {
		cfg.FPS = *fps
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *recordable {
		cfg.Recordable = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	level, _ := cfg.Level()
	logger := log.Setup(os.Stderr, level)

	clear, _ := cfg.Color()
	opts := []render.Option{
		render.WithClearColor(clear),
		render.WithLogger(logger),
	}
	if s, ok := cfg.RenderShaders(); ok {
		opts = append(opts, render.WithShaders(s))
	}
	return run(cfg, render.NewCameraDrawer(opts...), logger)
}
