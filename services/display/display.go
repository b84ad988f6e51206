// Package display renders text commands into a framebuffer.
package display

import (
	"image/color"
	"strings"

	"tinygo.org/x/tinyfont"

	"axon/hal"
	"axon/kernel"
)

// Text appends a line at the bottom of the screen, scrolling when full. Lines
// wider than the screen wrap.
type Text struct {
	Line string
}

// Clear blanks the screen and moves the cursor to the top.
type Clear struct{}

var (
	foreground = color.RGBA{R: 0xE0, G: 0xE0, B: 0xE0, A: 0xFF}
	background = color.RGBA{A: 0xFF}
)

// Option configures a Display.
type Option func(*Display)

// WithLinesPerStep limits how many commands one step handles. The default is 4.
func WithLinesPerStep(n int) Option {
	return func(d *Display) {
		if n > 0 {
			d.perStep = n
		}
	}
}

// WithFont replaces the default TomThumb font. lineHeight is the row pitch in
// pixels and baseline the offset of the baseline inside a row.
func WithFont(f tinyfont.Fonter, lineHeight, baseline int) Option {
	return func(d *Display) {
		d.font, d.lineHeight, d.baseline = f, lineHeight, baseline
	}
}

// Display draws Text and Clear commands from its inbox, plus plain strings and
// Stringers as text lines. At most the configured number of commands are
// handled per step; the framebuffer is presented once per step that drew.
type Display struct {
	kernel.Component

	out        fbDisplay
	font       tinyfont.Fonter
	lineHeight int
	baseline   int
	perStep    int

	row   int
	lines uint64
}

func New(name string, fb hal.Framebuffer, opts ...Option) *Display {
	d := &Display{
		out:        fbDisplay{fb: fb},
		font:       &tinyfont.TomThumb,
		lineHeight: 6,
		baseline:   5,
		perStep:    4,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.Init(name, kernel.DefaultBoxes())
	return d
}

// Lines returns the number of text lines drawn so far.
func (d *Display) Lines() uint64 { return d.lines }

// Rows returns how many text rows fit on the screen.
func (d *Display) Rows() int {
	_, h := d.out.Size()
	if d.lineHeight <= 0 {
		return 0
	}
	return int(h) / d.lineHeight
}

func (d *Display) Step(ctx *kernel.Context) kernel.StepResult {
	if sig, ok := d.CheckControl(); ok && sig.Urgent() {
		return d.Finish(sig)
	}

	drawn := 0
	for drawn < d.perStep && d.DataReady(kernel.Inbox) {
		msg, _ := d.Recv(kernel.Inbox)
		switch m := msg.(type) {
		case Text:
			d.writeLine(m.Line)
		case Clear:
			_, h := d.out.Size()
			d.out.fillRows(0, int(h), background)
			d.row = 0
		case interface{ String() string }:
			d.writeLine(m.String())
		case string:
			d.writeLine(m)
		default:
			ctx.Logger().Debug("Display ignored message", "msg", msg)
			continue
		}
		drawn++
	}
	if drawn > 0 {
		if err := d.out.Display(); err != nil {
			ctx.Logger().Warn("Display present failed", "err", err)
		}
	}

	if d.DataReady(kernel.Inbox) {
		return kernel.Continue
	}
	if sig, ok := d.CheckControl(); ok {
		return d.Finish(sig)
	}
	ctx.Pause()
	return kernel.Continue
}

func (d *Display) writeLine(s string) {
	rows := d.Rows()
	if rows == 0 {
		return
	}
	w, _ := d.out.Size()
	for _, part := range wrap(d.font, s, int(w)) {
		if d.row >= rows {
			d.out.scrollUp(d.lineHeight, background)
			d.row = rows - 1
		}
		y := d.row * d.lineHeight
		d.out.fillRows(y, y+d.lineHeight, background)
		tinyfont.WriteLine(&d.out, d.font, 0, int16(y+d.baseline), part, foreground)
		d.row++
		d.lines++
	}
}

// wrap splits s into pieces no wider than maxW pixels. Every piece holds at
// least one rune.
func wrap(f tinyfont.Fonter, s string, maxW int) []string {
	var out []string
	for s != "" {
		rs := []rune(s)
		n := 1
		for n < len(rs) {
			if _, w := tinyfont.LineWidth(f, string(rs[:n+1])); int(w) > maxW {
				break
			}
			n++
		}
		out = append(out, string(rs[:n]))
		s = strings.TrimLeft(string(rs[n:]), " ")
	}
	if out == nil {
		out = []string{""}
	}
	return out
}
