package display

import (
	"image/color"

	"tinygo.org/x/drivers"

	"axon/hal"
)

// fbDisplay adapts an RGB565 hal.Framebuffer to drivers.Displayer so tinyfont
// can draw into it.
type fbDisplay struct {
	fb hal.Framebuffer
}

var _ drivers.Displayer = (*fbDisplay)(nil)

func (d *fbDisplay) usable() bool {
	return d.fb != nil && d.fb.Format() == hal.PixelFormatRGB565 && d.fb.Buffer() != nil
}

func (d *fbDisplay) Size() (x, y int16) {
	if d.fb == nil {
		return 0, 0
	}
	return int16(d.fb.Width()), int16(d.fb.Height())
}

func (d *fbDisplay) SetPixel(x, y int16, c color.RGBA) {
	if !d.usable() {
		return
	}
	ix, iy := int(x), int(y)
	if ix < 0 || ix >= d.fb.Width() || iy < 0 || iy >= d.fb.Height() {
		return
	}
	buf := d.fb.Buffer()
	off := iy*d.fb.StrideBytes() + ix*2
	if off+1 >= len(buf) {
		return
	}
	p := hal.RGB565(c.R, c.G, c.B)
	buf[off] = byte(p)
	buf[off+1] = byte(p >> 8)
}

func (d *fbDisplay) Display() error {
	if d.fb == nil {
		return nil
	}
	return d.fb.Present()
}

// fillRows paints rows [y0, y1) with c.
func (d *fbDisplay) fillRows(y0, y1 int, c color.RGBA) {
	if !d.usable() {
		return
	}
	y0 = clampInt(y0, 0, d.fb.Height())
	y1 = clampInt(y1, 0, d.fb.Height())
	p := hal.RGB565(c.R, c.G, c.B)
	buf := d.fb.Buffer()
	stride := d.fb.StrideBytes()
	w := d.fb.Width()
	for y := y0; y < y1; y++ {
		row := y * stride
		for x := 0; x < w; x++ {
			off := row + x*2
			if off+1 >= len(buf) {
				break
			}
			buf[off] = byte(p)
			buf[off+1] = byte(p >> 8)
		}
	}
}

// scrollUp moves the picture up n rows and clears the exposed bottom.
func (d *fbDisplay) scrollUp(n int, bg color.RGBA) {
	if !d.usable() || n <= 0 {
		return
	}
	h := d.fb.Height()
	if n >= h {
		d.fillRows(0, h, bg)
		return
	}
	buf := d.fb.Buffer()
	stride := d.fb.StrideBytes()
	end := min(h*stride, len(buf))
	copy(buf[:end-n*stride], buf[n*stride:end])
	d.fillRows(h-n, h, bg)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
