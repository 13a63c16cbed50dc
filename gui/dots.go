//go:build gui

package gui

import (
	"sync"
	"sync/atomic"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"earshot/dots"
)

const (
	frameInterval = 33 * time.Millisecond

	dotRadius  = 6
	dotSpacing = 22
	// Pixels per unit of dot offset.
	offsetScale = 3
	padding     = 12
)

// DotsWidget paints a dots.Row. It eases the row forward every frame but
// only repaints when the row changed or a dot is still moving.
type DotsWidget struct {
	widget.BaseWidget
	row   *dots.Row
	dirty atomic.Bool

	mu        sync.Mutex
	listening bool
	stopCh    chan struct{}
	stopOnce  sync.Once
}

func NewDotsWidget(row *dots.Row) *DotsWidget {
	w := &DotsWidget{row: row, stopCh: make(chan struct{})}
	w.ExtendBaseWidget(w)
	w.dirty.Store(true)
	row.OnChange(func() { w.dirty.Store(true) })
	go w.animate()
	return w
}

func (w *DotsWidget) SetListening(l bool) {
	w.mu.Lock()
	w.listening = l
	w.mu.Unlock()
	w.dirty.Store(true)
}

func (w *DotsWidget) Stop() {
	w.row.OnChange(nil)
	w.stopOnce.Do(func() { close(w.stopCh) })
}

func (w *DotsWidget) animate() {
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()
	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			moving := w.row.Advance(frameInterval)
			if w.dirty.Swap(false) || moving {
				fyne.Do(w.Refresh)
			}
		}
	}
}

func (w *DotsWidget) MinSize() fyne.Size {
	width := float32(padding*2 + dotSpacing*(dots.Count-1) + dotRadius*4)
	height := float32(padding*2 + dotRadius*6)
	return fyne.NewSize(width, height)
}

func (w *DotsWidget) CreateRenderer() fyne.WidgetRenderer {
	r := &dotsRenderer{w: w, circles: make([]*canvas.Circle, dots.Count)}
	for i := range r.circles {
		r.circles[i] = canvas.NewCircle(theme.Color(colorNameDotIdle))
	}
	return r
}

type dotsRenderer struct {
	w       *DotsWidget
	circles []*canvas.Circle
	size    fyne.Size
}

func (r *dotsRenderer) Layout(size fyne.Size) {
	r.size = size
	r.place()
}

func (r *dotsRenderer) MinSize() fyne.Size {
	return r.w.MinSize()
}

func (r *dotsRenderer) place() {
	pts := r.w.row.Snapshot()
	cy := r.size.Height / 2
	x0 := (r.size.Width - float32(dotSpacing*(len(pts)-1))) / 2
	for i, p := range pts {
		if i >= len(r.circles) {
			break
		}
		radius := float32(dotRadius * p.Scale)
		cx := x0 + float32(i*dotSpacing) + float32(p.X*offsetScale)
		y := cy + float32(p.Y*offsetScale)
		r.circles[i].Move(fyne.NewPos(cx-radius, y-radius))
		r.circles[i].Resize(fyne.NewSize(radius*2, radius*2))
	}
}

func (r *dotsRenderer) Refresh() {
	r.w.mu.Lock()
	listening := r.w.listening
	r.w.mu.Unlock()

	name := colorNameDotIdle
	switch {
	case r.w.row.Attr(dots.AttrSpeaking):
		name = colorNameDotSpeaking
	case listening:
		name = colorNameDotListening
	}
	fill := theme.Color(name)
	r.place()
	for _, c := range r.circles {
		c.FillColor = fill
		c.Refresh()
	}
}

func (r *dotsRenderer) Objects() []fyne.CanvasObject {
	objs := make([]fyne.CanvasObject, len(r.circles))
	for i, c := range r.circles {
		objs[i] = c
	}
	return objs
}

func (r *dotsRenderer) Destroy() {
	r.w.Stop()
}
