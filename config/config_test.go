// SPDX-License-Identifier: Unlicense OR MIT

package config

import (
	"image/color"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gioui.org/x/camview/gl"
)

const yamlConfig = `
recordable: true
texture: external
clear_color: "#102030"
log_level: debug
fps: 60
window:
  title: preview
  width: 1280
  height: 720
shaders:
  dir: assets
  vertex: cam.vert
  fragment: cam.frag
`

const tomlConfig = `
recordable = true
texture = "external"
clear_color = "#102030"
log_level = "debug"
fps = 60

[window]
title = "preview"
width = 1280
height = 720

[shaders]
dir = "assets"
vertex = "cam.vert"
fragment = "cam.frag"
`

func TestParse(t *testing.T) {
	want := Config{
		Recordable: true,
		Texture:    TextureExternal,
		ClearColor: "#102030",
		LogLevel:   "debug",
		FPS:        60,
		Window:     Window{Title: "preview", Width: 1280, Height: 720},
		Shaders:    ShaderConfig{Dir: "assets", Vertex: "cam.vert", Fragment: "cam.frag"},
	}
	for format, data := range map[string]string{"yaml": yamlConfig, "toml": tomlConfig} {
		t.Run(format, func(t *testing.T) {
			cfg, err := Parse([]byte(data), format)
			require.NoError(t, err)
			assert.Equal(t, want, cfg)
		})
	}
}

func TestParseDefaults(t *testing.T) {
	for _, format := range []string{"yaml", "yml", "toml"} {
		cfg, err := Parse(nil, format)
		require.NoError(t, err, format)
		assert.Equal(t, Default(), cfg, format)
	}

	cfg, err := Parse([]byte("window:\n  width: 800\n"), "yaml")
	require.NoError(t, err)
	assert.Equal(t, 800, cfg.Window.Width)
	assert.Equal(t, 480, cfg.Window.Height)
	assert.Equal(t, "camview", cfg.Window.Title)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name, format, data, msg string
	}{
		{"format", "json", "{}", "unknown config format"},
		{"yaml unknown key", "yaml", "fsp: 30\n", "fsp"},
		{"toml unknown key", "toml", "fsp = 30\n", "strict mode"},
		{"texture", "yaml", "texture: cube\n", "texture"},
		{"fps", "yaml", "fps: 0\n", "fps"},
		{"window", "toml", "[window]\nwidth = -1\n", "window"},
		{"color", "yaml", "clear_color: red\n", "clear_color"},
		{"color digits", "yaml", "clear_color: \"#12345\"\n", "clear_color"},
		{"color hex", "yaml", "clear_color: \"#gg0000\"\n", "clear_color"},
		{"level", "yaml", "log_level: loud\n", "log_level"},
		{"shaders", "yaml", "shaders:\n  dir: assets\n", "shaders"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Parse([]byte(test.data), test.format)
			assert.ErrorContains(t, err, test.msg)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "camview.toml")
	require.NoError(t, os.WriteFile(path, []byte(tomlConfig), 0o644))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 60, cfg.FPS)

	bad := filepath.Join(dir, "camview.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("fps: -3\n"), 0o644))
	_, err = Load(bad)
	assert.ErrorContains(t, err, bad)

	_, err = Load(filepath.Join(dir, "missing.yml"))
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestAccessors(t *testing.T) {
	cfg := Default()
	assert.Equal(t, gl.Enum(gl.TEXTURE_2D), cfg.TextureTarget())
	cfg.Texture = TextureExternal
	assert.Equal(t, gl.Enum(gl.TEXTURE_EXTERNAL_OES), cfg.TextureTarget())

	c, err := cfg.Color()
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{A: 0xff}, c)
	cfg.ClearColor = "#10203040"
	c, err = cfg.Color()
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 0x10, G: 0x20, B: 0x30, A: 0x40}, c)

	l, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, l)
	cfg.LogLevel = "WARN"
	l, err = cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, l)

	_, ok := cfg.RenderShaders()
	assert.False(t, ok)
}

func TestRenderShaders(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cam.vert"), []byte("void main() {}"), 0o644))
	cfg := Default()
	cfg.Shaders = ShaderConfig{Dir: dir, Vertex: "cam.vert", Fragment: "cam.frag"}
	s, ok := cfg.RenderShaders()
	require.True(t, ok)
	data, err := fs.ReadFile(s.FS, s.Vertex)
	require.NoError(t, err)
	assert.Equal(t, "void main() {}", string(data))
	assert.Equal(t, "cam.frag", s.Fragment)
}
