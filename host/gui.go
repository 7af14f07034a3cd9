package host

import (
	"image"
	"image/color"
	"image/draw"
	"log"
	"time"

	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"
)

// GUI is a window that shows the most recent hull given to Show.
type GUI struct {
	title  string
	scale  int
	frames chan *image.RGBA
}

// NewGUI returns a GUI that draws each panel as a square of scale pixels.
func NewGUI(title string, scale int) *GUI {
	if scale < 1 {
		scale = 1
	}
	return &GUI{
		title:  title,
		scale:  scale,
		frames: make(chan *image.RGBA, 1),
	}
}

// Show queues an image of h to be drawn, replacing any
// queued image that has not yet been drawn.
// It may be called from any goroutine.
func (g *GUI) Show(h *Hull) {
	img := h.Image()
	for {
		select {
		case g.frames <- img:
			return
		default:
		}
		select {
		case <-g.frames:
		default:
		}
	}
}

// Run opens the window and draws frames until exit is closed or the
// window is closed. It must be called from the main goroutine.
func (g *GUI) Run(exit <-chan struct{}) error {
	var runErr error
	driver.Main(func(s screen.Screen) {
		w, err := s.NewWindow(&screen.NewWindowOptions{
			Title:  g.title,
			Width:  48 * g.scale,
			Height: 16 * g.scale,
		})
		if err != nil {
			runErr = err
			return
		}
		defer w.Release()

		type update struct{}
		stop := make(chan struct{})
		defer close(stop)
		go func() {
			t := time.NewTicker(time.Second / 60)
			defer t.Stop()
			for {
				select {
				case <-t.C:
					w.Send(update{})
				case <-exit:
					return
				case <-stop:
					return
				}
			}
		}()

		var (
			sz    size.Event
			buf   screen.Buffer
			tex   screen.Texture
			dirty bool
		)
		defer func() {
			if tex != nil {
				tex.Release()
			}
			if buf != nil {
				buf.Release()
			}
		}()

		for {
			e := w.NextEvent()

			select {
			case <-exit:
				return
			default:
			}

			switch e := e.(type) {
			case size.Event:
				sz = e
				if sz.WidthPx+sz.HeightPx == 0 {
					return
				}
				dirty = true

			case lifecycle.Event:
				if e.To == lifecycle.StageDead {
					return
				}

			case key.Event:
				if e.Code == key.CodeEscape {
					return
				}

			case paint.Event:
				dirty = true

			case update:
				select {
				case img := <-g.frames:
					fs := img.Rect.Size()
					if tex == nil || tex.Size() != fs {
						if tex != nil {
							tex.Release()
							buf.Release()
							tex, buf = nil, nil
						}
						if buf, err = s.NewBuffer(fs); err != nil {
							runErr = err
							return
						}
						if tex, err = s.NewTexture(fs); err != nil {
							runErr = err
							return
						}
					}
					draw.Draw(buf.RGBA(), buf.Bounds(), img, image.Point{}, draw.Src)
					tex.Upload(image.Point{}, buf, buf.Bounds())
					dirty = true
				default:
				}
				if dirty && tex != nil {
					w.Fill(sz.Bounds(), color.Black, draw.Src)
					w.Scale(fit(sz.Bounds(), tex.Size()), tex, tex.Bounds(), draw.Src, nil)
					w.Publish()
					dirty = false
				}

			case error:
				log.Print(e)
			}
		}
	})
	return runErr
}

// fit returns the largest rectangle centred in r with the aspect ratio of sz.
func fit(r image.Rectangle, sz image.Point) image.Rectangle {
	if sz.X == 0 || sz.Y == 0 || r.Empty() {
		return r
	}
	w, h := r.Dx(), r.Dx()*sz.Y/sz.X
	if h > r.Dy() {
		w, h = r.Dy()*sz.X/sz.Y, r.Dy()
	}
	min := r.Min.Add(image.Pt((r.Dx()-w)/2, (r.Dy()-h)/2))
	return image.Rectangle{Min: min, Max: min.Add(image.Pt(w, h))}
}
