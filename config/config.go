// SPDX-License-Identifier: Unlicense OR MIT

// Package config loads the settings of the camview demo from YAML or
// TOML files.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"gioui.org/x/camview/gl"
	"gioui.org/x/camview/render"
)

// Texture targets.
const (
	TextureExternal = "external"
	Texture2D       = "2d"
)

type Config struct {
	// Recordable requests a surface that can feed a video encoder.
	Recordable bool `yaml:"recordable" toml:"recordable"`
	// Texture is the frame source target, TextureExternal or
	// Texture2D.
	Texture string `yaml:"texture" toml:"texture"`
	// ClearColor is a #rrggbb or #rrggbbaa color.
	ClearColor string       `yaml:"clear_color" toml:"clear_color"`
	LogLevel   string       `yaml:"log_level" toml:"log_level"`
	FPS        int          `yaml:"fps" toml:"fps"`
	Window     Window       `yaml:"window" toml:"window"`
	Shaders    ShaderConfig `yaml:"shaders" toml:"shaders"`
}

type Window struct {
	Title  string `yaml:"title" toml:"title"`
	Width  int    `yaml:"width" toml:"width"`
	Height int    `yaml:"height" toml:"height"`
}

// ShaderConfig locates shader sources on disk. The built-in shaders
// are used when Dir is empty.
type ShaderConfig struct {
	Dir      string `yaml:"dir" toml:"dir"`
	Vertex   string `yaml:"vertex" toml:"vertex"`
	Fragment string `yaml:"fragment" toml:"fragment"`
}

// Default returns the configuration used for unset fields.
func Default() Config {
	return Config{
		Texture:    Texture2D,
		ClearColor: "#000000",
		LogLevel:   "info",
		FPS:        30,
		Window: Window{
			Title:  "camview",
			Width:  640,
			Height: 480,
		},
	}
}

// Load reads the file at path over the defaults. The format is chosen
// by the file extension.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg, err := Parse(data, strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes data in format ("yaml", "yml" or "toml") over the
// defaults and validates the result. Unknown keys are errors.
func Parse(data []byte, format string) (Config, error) {
	cfg := Default()
	switch strings.ToLower(format) {
	case "yaml", "yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		// An empty document leaves the defaults.
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, err
		}
	case "toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return Config{}, err
		}
	default:
		return Config{}, fmt.Errorf("unknown config format %q", format)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Texture != TextureExternal && c.Texture != Texture2D {
		return fmt.Errorf("texture: %q is neither %q nor %q", c.Texture, TextureExternal, Texture2D)
	}
	if _, err := c.Color(); err != nil {
		return err
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.FPS <= 0 {
		return fmt.Errorf("fps: %d is not positive", c.FPS)
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window: invalid size %dx%d", c.Window.Width, c.Window.Height)
	}
	if s := c.Shaders; s.Dir != "" && (s.Vertex == "" || s.Fragment == "") {
		return errors.New("shaders: dir needs both vertex and fragment")
	}
	return nil
}

// TextureTarget returns the GL texture target of the frame source.
func (c Config) TextureTarget() gl.Enum {
	if c.Texture == TextureExternal {
		return gl.TEXTURE_EXTERNAL_OES
	}
	return gl.TEXTURE_2D
}

// Color parses ClearColor.
func (c Config) Color() (color.NRGBA, error) {
	s, ok := strings.CutPrefix(c.ClearColor, "#")
	if !ok || (len(s) != 6 && len(s) != 8) {
		return color.NRGBA{}, fmt.Errorf("clear_color: %q is not #rrggbb or #rrggbbaa", c.ClearColor)
	}
	if len(s) == 6 {
		s += "ff"
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("clear_color: %q: %w", c.ClearColor, err)
	}
	return color.NRGBA{
		R: uint8(v >> 24),
		G: uint8(v >> 16),
		B: uint8(v >> 8),
		A: uint8(v),
	}, nil
}

// Level parses LogLevel, one of debug, info, warn or error.
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return l, nil
}

// RenderShaders returns the configured shader sources, or false if
// the built-in shaders should be used.
func (c Config) RenderShaders() (render.Shaders, bool) {
	if c.Shaders.Dir == "" {
		return render.Shaders{}, false
	}
	return render.Shaders{
		FS:       os.DirFS(c.Shaders.Dir),
		Vertex:   c.Shaders.Vertex,
		Fragment: c.Shaders.Fragment,
	}, true
}
