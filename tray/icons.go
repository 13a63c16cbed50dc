package tray

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
)

const iconSize = 44

var (
	colorIdle      = color.RGBA{R: 140, G: 140, B: 140, A: 255}
	colorListening = color.RGBA{R: 235, G: 235, B: 235, A: 255}
	colorSpeaking  = color.RGBA{R: 52, G: 199, B: 89, A: 255}
	colorBadge     = color.RGBA{R: 255, G: 204, B: 0, A: 255}
	colorBang      = color.RGBA{R: 40, G: 40, B: 40, A: 255}
)

// icons holds one PNG per state, rendered once.
var icons = map[State][]byte{
	StateIdle:      renderIcon(iconSize, colorIdle, false),
	StateListening: renderIcon(iconSize, colorListening, false),
	StateSpeaking:  renderIcon(iconSize, colorSpeaking, false),
	StateQuiet:     renderIcon(iconSize, colorListening, true),
}

func encodePNG(img image.Image) []byte {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic("encodePNG: " + err.Error())
	}
	return buf.Bytes()
}

// dotCenters returns the x centers of four dots spread across size.
func dotCenters(size int) [4]float64 {
	step := float64(size) / 4
	var xs [4]float64
	for i := range xs {
		xs[i] = step*float64(i) + step/2
	}
	return xs
}

func drawDots(img *image.RGBA, size int, dot color.RGBA) {
	r := float64(size) / 10
	cy := float64(size) / 2
	for _, cx := range dotCenters(size) {
		for y := range size {
			for x := range size {
				if math.Hypot(float64(x)+0.5-cx, float64(y)+0.5-cy) <= r {
					img.Set(x, y, dot)
				}
			}
		}
	}
}

// drawBadge paints a small "!" badge in the bottom-right corner.
func drawBadge(img *image.RGBA, size int) {
	s := float64(size)
	badgeR := s * 0.3
	cx, cy := s-badgeR+0.5, s-badgeR+0.5
	bangHW := badgeR * 0.24

	for y := range size {
		for x := range size {
			fx, fy := float64(x)+0.5, float64(y)+0.5
			if math.Hypot(fx-cx, fy-cy) > badgeR {
				continue
			}
			localY := (fy - (cy - badgeR*0.7)) / (badgeR * 1.4)
			localX := math.Abs(fx - cx)
			isBar := localX <= bangHW && localY >= 0.1 && localY <= 0.62
			isDot := localX <= bangHW && localY >= 0.72 && localY <= 0.85
			if isBar || isDot {
				img.Set(x, y, colorBang)
			} else {
				img.Set(x, y, colorBadge)
			}
		}
	}
}

func renderIcon(size int, dot color.RGBA, badge bool) []byte {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	drawDots(img, size, dot)
	if badge {
		drawBadge(img, size)
	}
	return encodePNG(img)
}
