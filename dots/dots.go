// Package dots is the contract between the indicator and whatever paints
// the dots, plus Row, the in-memory model the renderers draw from.
package dots

import (
	"math"
	"sync"
	"time"
)

// Count is the number of dots in the indicator.
const Count = 4

// AttrSpeaking is the container attribute that carries the speaking flag
// from the detector to the animation.
const AttrSpeaking = "speaking"

type Dot interface {
	SetOffset(x, y float64)
	SetScale(s float64)
	SetTransition(d time.Duration)
}

type Container interface {
	Attached() bool
	Dots() []Dot
	Attr(name string) bool
	SetAttr(name string, v bool)
}

// Point is a snapshot of one dot. X/Y is the displayed offset, which eases
// toward TargetX/TargetY over Transition.
type Point struct {
	X, Y             float64
	TargetX, TargetY float64
	Scale            float64
	Transition       time.Duration
}

// Row is a thread-safe Container of Count dots.
type Row struct {
	mu       sync.Mutex
	points   []Point
	attrs    map[string]bool
	attached bool
	onChange func()
}

func NewRow() *Row {
	r := &Row{
		points: make([]Point, Count),
		attrs:  make(map[string]bool),
	}
	for i := range r.points {
		r.points[i].Scale = 1
	}
	return r
}

// OnChange registers fn to run after every mutation, outside the lock.
func (r *Row) OnChange(fn func()) {
	r.mu.Lock()
	r.onChange = fn
	r.mu.Unlock()
}

func (r *Row) Attach() {
	r.mu.Lock()
	r.attached = true
	r.mu.Unlock()
	r.changed()
}

func (r *Row) Detach() {
	r.mu.Lock()
	r.attached = false
	r.mu.Unlock()
	r.changed()
}

// Attached is false for a nil row, so a typed-nil Container reads as
// unavailable rather than panicking.
func (r *Row) Attached() bool {
	if r == nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.attached
}

func (r *Row) Dots() []Dot {
	out := make([]Dot, len(r.points))
	for i := range out {
		out[i] = rowDot{row: r, i: i}
	}
	return out
}

func (r *Row) Attr(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.attrs[name]
}

func (r *Row) SetAttr(name string, v bool) {
	r.mu.Lock()
	r.attrs[name] = v
	r.mu.Unlock()
	r.changed()
}

// Reset puts every dot back at rest and clears all attributes.
func (r *Row) Reset() {
	r.mu.Lock()
	for i := range r.points {
		r.points[i] = Point{Scale: 1, Transition: r.points[i].Transition}
	}
	clear(r.attrs)
	r.mu.Unlock()
	r.changed()
}

func (r *Row) Snapshot() []Point {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Point, len(r.points))
	copy(out, r.points)
	return out
}

// settled is how close a displayed offset must be to its target to count
// as arrived.
const settled = 1e-3

// Advance eases each dot's displayed offset toward its target as if dt had
// passed. Dots without a transition jump straight to their target. It
// reports whether any dot is still on its way.
func (r *Row) Advance(dt time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	moving := false
	for i := range r.points {
		p := &r.points[i]
		f := 1.0
		if p.Transition > 0 {
			f = min(1, float64(dt)/float64(p.Transition))
		}
		p.X += (p.TargetX - p.X) * f
		p.Y += (p.TargetY - p.Y) * f
		if math.Abs(p.TargetX-p.X) < settled && math.Abs(p.TargetY-p.Y) < settled {
			p.X, p.Y = p.TargetX, p.TargetY
		} else {
			moving = true
		}
	}
	return moving
}

func (r *Row) changed() {
	r.mu.Lock()
	fn := r.onChange
	r.mu.Unlock()
	if fn != nil {
		fn()
	}
}

type rowDot struct {
	row *Row
	i   int
}

func (d rowDot) SetOffset(x, y float64) {
	d.row.mu.Lock()
	p := &d.row.points[d.i]
	p.TargetX, p.TargetY = x, y
	if p.Transition == 0 {
		p.X, p.Y = x, y
	}
	d.row.mu.Unlock()
	d.row.changed()
}

func (d rowDot) SetScale(s float64) {
	d.row.mu.Lock()
	d.row.points[d.i].Scale = s
	d.row.mu.Unlock()
	d.row.changed()
}

func (d rowDot) SetTransition(t time.Duration) {
	d.row.mu.Lock()
	d.row.points[d.i].Transition = t
	d.row.mu.Unlock()
}
