package host

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"

	"golang.org/x/image/draw"
)

// Hull is a grid of panels, all black until painted.
type Hull struct {
	panels  map[image.Point]panel
	bounds  image.Rectangle
	painted int
}

type panel struct {
	color   int64
	painted bool
}

// NewHull returns an unpainted hull.
func NewHull() *Hull {
	return &Hull{
		panels: make(map[image.Point]panel),
		bounds: image.Rect(0, 0, 1, 1),
	}
}

// Color returns the colour of the panel at p.
func (h *Hull) Color(p image.Point) int64 { return h.panels[p].color }

// Paint sets the colour of the panel at p.
func (h *Hull) Paint(p image.Point, c int64) {
	pn := h.panels[p]
	if !pn.painted {
		pn.painted = true
		h.painted++
	}
	pn.color = c
	h.panels[p] = pn
	h.grow(p)
}

// set sets the colour of the panel at p without counting it as painted.
func (h *Hull) set(p image.Point, c int64) {
	pn := h.panels[p]
	pn.color = c
	h.panels[p] = pn
	h.grow(p)
}

func (h *Hull) grow(p image.Point) {
	h.bounds = h.bounds.Union(image.Rectangle{Min: p, Max: p.Add(image.Pt(1, 1))})
}

// Painted returns the number of panels painted at least once.
// Panels the robot only passed over are not counted.
func (h *Hull) Painted() int { return h.painted }

// Bounds returns the smallest rectangle holding the origin
// and every panel that has been given a colour.
func (h *Hull) Bounds() image.Rectangle { return h.bounds }

// String renders the hull as rows of '#' for white and '.' for black.
func (h *Hull) String() string {
	var b strings.Builder
	for y := h.bounds.Min.Y; y < h.bounds.Max.Y; y++ {
		for x := h.bounds.Min.X; x < h.bounds.Max.X; x++ {
			if h.Color(image.Pt(x, y)) == White {
				b.WriteByte('#')
			} else {
				b.WriteByte('.')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

var (
	blackPanel = color.RGBA{0x20, 0x20, 0x28, 0xff}
	whitePanel = color.RGBA{0xf0, 0xf0, 0xf0, 0xff}
)

// Image renders the hull with one pixel per panel.
// The image's origin is the top left corner of Bounds.
func (h *Hull) Image() *image.RGBA {
	var (
		r   = h.bounds
		img = image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			c := blackPanel
			if h.Color(image.Pt(x, y)) == White {
				c = whitePanel
			}
			img.SetRGBA(x-r.Min.X, y-r.Min.Y, c)
		}
	}
	return img
}

// WritePNG writes the hull image to w as a PNG, with each panel
// drawn as a square of scale pixels.
func (h *Hull) WritePNG(w io.Writer, scale int) error {
	if scale < 1 {
		scale = 1
	}
	src := h.Image()
	dst := image.NewRGBA(image.Rect(0, 0, src.Rect.Dx()*scale, src.Rect.Dy()*scale))
	draw.NearestNeighbor.Scale(dst, dst.Rect, src, src.Rect, draw.Src, nil)
	return png.Encode(w, dst)
}
