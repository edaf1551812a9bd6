// SPDX-License-Identifier: Unlicense OR MIT

package producer

import (
	"context"
	"image"
	"image/color"
	"time"
)

// barColors are the colors of the test pattern, left to right.
var barColors = [...]color.RGBA{
	{R: 0xc0, G: 0xc0, B: 0xc0, A: 0xff},
	{R: 0xc0, G: 0xc0, B: 0x00, A: 0xff},
	{R: 0x00, G: 0xc0, B: 0xc0, A: 0xff},
	{R: 0x00, G: 0xc0, B: 0x00, A: 0xff},
	{R: 0xc0, G: 0x00, B: 0xc0, A: 0xff},
	{R: 0xc0, G: 0x00, B: 0x00, A: 0xff},
	{R: 0x00, G: 0x00, B: 0xc0, A: 0xff},
	{R: 0x00, G: 0x00, B: 0x00, A: 0xff},
}

// Pattern generates color bars scrolling one pixel per frame.
type Pattern struct {
	Size image.Point
	// FPS is the frame rate of Run.
	FPS int
}

// Frame renders frame n of the pattern.
func (pt Pattern) Frame(n int) *image.RGBA {
	img := image.NewRGBA(image.Rectangle{Max: pt.Size})
	w := pt.Size.X
	if w == 0 || pt.Size.Y == 0 {
		return img
	}
	row := img.Pix[:img.Stride]
	for x := 0; x < w; x++ {
		// Bar index of the pixel, with the pattern shifted left by n.
		i := ((x + n) % w) * len(barColors) / w
		c := barColors[i]
		row[x*4+0] = c.R
		row[x*4+1] = c.G
		row[x*4+2] = c.B
		row[x*4+3] = c.A
	}
	for y := 1; y < pt.Size.Y; y++ {
		copy(img.Pix[y*img.Stride:], row)
	}
	return img
}

// Run pushes frames to p at the pattern frame rate until ctx is
// done. It returns the context error.
func (pt Pattern) Run(ctx context.Context, p *ImageProducer) error {
	fps := pt.FPS
	if fps <= 0 {
		fps = 30
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()
	for n := 0; ; n++ {
		p.Push(pt.Frame(n))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
