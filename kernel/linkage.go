package kernel

import (
	"fmt"
	"slices"
)

// Passthrough selects which box directions a linkage joins.
type Passthrough uint8

const (
	// Direct links a component's outbox to another component's inbox.
	Direct Passthrough = iota
	// Inbound forwards a container's inbox into a child's inbox.
	Inbound
	// Outbound forwards a child's outbox out of a container's outbox.
	Outbound
)

func (p Passthrough) String() string {
	switch p {
	case Direct:
		return "direct"
	case Inbound:
		return "inbound"
	case Outbound:
		return "outbound"
	default:
		return "unknown"
	}
}

func (p Passthrough) directions() (src, dst Direction) {
	switch p {
	case Inbound:
		return In, In
	case Outbound:
		return Out, Out
	default:
		return Out, In
	}
}

// Endpoint names one box of one component.
type Endpoint struct {
	Component Mailboxed
	Box       string
}

// At returns the endpoint for box on c.
func At(c Mailboxed, box string) Endpoint {
	return Endpoint{Component: c, Box: box}
}

func (e Endpoint) String() string {
	if e.Component == nil {
		return "<nil>." + e.Box
	}
	return e.Component.component().name + "." + e.Box
}

// Linkage is a registered rule moving messages from a source box to a sink box.
type Linkage struct {
	src, dst       Endpoint
	srcBox, dstBox *Box
	mode           Passthrough
	bound          *Bound
}

func (l *Linkage) Source() Endpoint  { return l.src }
func (l *Linkage) Sink() Endpoint    { return l.dst }
func (l *Linkage) Mode() Passthrough { return l.mode }

func (l *Linkage) String() string {
	return fmt.Sprintf("%s -> %s (%s)", l.src, l.dst, l.mode)
}

func (l *Linkage) touches(c *Component) bool {
	return l.src.Component.component() == c || l.dst.Component.component() == c
}

// LinkOption configures a linkage.
type LinkOption func(*linkConfig)

type linkConfig struct {
	mode  Passthrough
	bound *Bound
}

// WithPassthrough makes the linkage forward between boxes of the same
// direction (container to child, or child to container).
func WithPassthrough(p Passthrough) LinkOption {
	return func(c *linkConfig) { c.mode = p }
}

// WithBound caps the sink box. When the sink forwards along further links, the
// bound caps the box at the end of that chain unless a box nearer the end has
// its own. The bound is removed again when the linkage is unlinked.
func WithBound(b Bound) LinkOption {
	return func(c *linkConfig) { c.bound = &b }
}

// PostOffice keeps track of the linkages made by one owner so they can be torn
// down together.
type PostOffice struct {
	name  string
	links []*Linkage
}

// NewPostOffice returns a post office for wiring done outside any component.
func NewPostOffice(name string) *PostOffice {
	return &PostOffice{name: name}
}

// Link registers a rule moving messages from src to dst. Messages already
// waiting in the source box move to the sink immediately.
//
// A source box may feed one sink only; it fails with ErrAlreadyLinked
// otherwise. Unknown or wrongly directed box names fail with ErrUnknownBox.
func (po *PostOffice) Link(src, dst Endpoint, opts ...LinkOption) (*Linkage, error) {
	var cfg linkConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if src.Component == nil || dst.Component == nil {
		return nil, fmt.Errorf("%w: nil component in %s -> %s", ErrUnknownBox, src, dst)
	}

	srcDir, dstDir := cfg.mode.directions()
	sb, err := src.Component.component().box(src.Box, srcDir)
	if err != nil {
		return nil, err
	}
	db, err := dst.Component.component().box(dst.Box, dstDir)
	if err != nil {
		return nil, err
	}

	l := &Linkage{src: src, dst: dst, srcBox: sb, dstBox: db, mode: cfg.mode, bound: cfg.bound}
	if cfg.bound != nil {
		db.SetBound(cfg.bound)
	}
	if err := db.addSource(sb); err != nil {
		if cfg.bound != nil {
			db.SetBound(nil)
		}
		return nil, err
	}
	po.links = append(po.links, l)
	return l, nil
}

// Unlink removes l. Messages already delivered stay where they are.
func (po *PostOffice) Unlink(l *Linkage) bool {
	i := slices.Index(po.links, l)
	if i < 0 {
		return false
	}
	po.links = slices.Delete(po.links, i, i+1)
	l.dstBox.removeSource(l.srcBox)
	if l.bound != nil && l.dstBox.bound == l.bound {
		l.dstBox.SetBound(nil)
	}
	return true
}

// UnlinkComponent removes every linkage with c at either end and returns how
// many were removed.
func (po *PostOffice) UnlinkComponent(c Mailboxed) int {
	cc := c.component()
	n := 0
	for _, l := range slices.Clone(po.links) {
		if l.touches(cc) && po.Unlink(l) {
			n++
		}
	}
	return n
}

// UnlinkAll removes every linkage made through this post office.
func (po *PostOffice) UnlinkAll() {
	for len(po.links) > 0 {
		po.Unlink(po.links[0])
	}
}

// Linkages returns the registered linkages in creation order.
func (po *PostOffice) Linkages() []*Linkage {
	return slices.Clone(po.links)
}

// Registered reports whether l was made through this post office and is
// still in place.
func (po *PostOffice) Registered(l *Linkage) bool {
	return slices.Contains(po.links, l)
}
