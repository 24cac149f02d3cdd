package mapper

import (
	"fmt"
	"image"
	"io"
	"math"
	"sync"

	"design-room/internal/designroom/editor"
	"design-room/internal/designroom/geom"
	"design-room/internal/designroom/models"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

// ============================================================
// PNG Renderer
// ============================================================

// PNGRenderer растеризует кадр: превью сцен и экспорт в PNG.
// Загруженные картинки image-asset рисуются, остальные: заглушкой.
type PNGRenderer struct {
	mu    sync.Mutex
	font  *truetype.Font
	faces map[float64]font.Face
}

func NewPNGRenderer() (*PNGRenderer, error) {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return &PNGRenderer{font: f, faces: make(map[float64]font.Face)}, nil
}

func (r *PNGRenderer) Render(frame editor.Frame, opts Options, w io.Writer) error {
	if opts.Width <= 0 || opts.Height <= 0 {
		return fmt.Errorf("invalid canvas size %dx%d", opts.Width, opts.Height)
	}
	vp := viewFor(frame, opts)

	// font.Face не потокобезопасен, кадры рисуются по одному
	r.mu.Lock()
	defer r.mu.Unlock()

	dc := gg.NewContext(opts.Width, opts.Height)
	dc.SetHexColor("#ffffff")
	dc.Clear()

	for _, o := range frame.Objects {
		if !o.Visible {
			continue
		}
		rect := screenRect(vp, geom.ObjectRect(o))
		dc.Push()
		if o.Transform.Rotation != 0 {
			dc.RotateAbout(gg.Radians(o.Transform.Rotation), rect.X+rect.W/2, rect.Y+rect.H/2)
		}
		switch o.Kind {
		case models.KindContainer:
			r.container(dc, vp, frame, opts.Decorate, o, rect)
		case models.KindShape:
			r.shape(dc, vp, o)
		case models.KindText:
			r.text(dc, vp, o, rect, textOf(o, frame))
		case models.KindImage:
			r.image(dc, frame, o, rect)
		}
		dc.Pop()
	}

	if opts.Decorate {
		r.selection(dc, vp, frame)
	}

	return dc.EncodePNG(w)
}

func (r *PNGRenderer) container(dc *gg.Context, vp geom.Viewport, frame editor.Frame, decorate bool, o *models.Object, rect geom.Rect) {
	data := o.Container
	dc.DrawRectangle(rect.X, rect.Y, rect.W, rect.H)
	fillAndStroke(dc, data.Background, data.Stroke, data.StrokeWidth*vp.Zoom)

	header := math.Min(frame.HeaderHeight, o.Size.Height) * vp.Zoom
	dc.SetHexColor(headerFill)
	dc.DrawRectangle(rect.X, rect.Y, rect.W, header)
	dc.Fill()

	dc.SetFontFace(r.face(12 * vp.Zoom))
	dc.SetHexColor(labelColor)
	dc.DrawStringAnchored(o.Name, rect.X+8*vp.Zoom, rect.Y+header/2, 0, 0.35)

	if decorate && frame.HoveredContainer == o.ID {
		dc.SetHexColor(hoverColor)
		dc.SetLineWidth(2)
		dc.DrawRectangle(rect.X, rect.Y, rect.W, rect.H)
		dc.Stroke()
	}
}

func (r *PNGRenderer) shape(dc *gg.Context, vp geom.Viewport, o *models.Object) {
	s := o.Shape
	pos := vp.SceneToScreen(o.Position)
	w, h := o.Size.Width*vp.Zoom, o.Size.Height*vp.Zoom

	switch s.Subkind {
	case models.ShapeRectangle:
		dc.DrawRectangle(pos.X, pos.Y, w, h)
		fillAndStroke(dc, s.Fill, s.Stroke, s.StrokeWidth*vp.Zoom)
	case models.ShapeCircle:
		dc.DrawEllipse(pos.X+w/2, pos.Y+h/2, w/2, h/2)
		fillAndStroke(dc, s.Fill, s.Stroke, s.StrokeWidth*vp.Zoom)
	case models.ShapeLine:
		end := vp.SceneToScreen(models.Point{X: o.Position.X + s.Vector.X, Y: o.Position.Y + s.Vector.Y})
		dc.DrawLine(pos.X, pos.Y, end.X, end.Y)
		fillAndStroke(dc, "", s.Stroke, s.StrokeWidth*vp.Zoom)
	}
}

func (r *PNGRenderer) text(dc *gg.Context, vp geom.Viewport, o *models.Object, rect geom.Rect, text string) {
	t := o.Text
	size := t.FontSize * vp.Zoom
	if size <= 0 {
		return
	}
	dc.SetFontFace(r.face(size))
	if paintable(t.Fill) {
		dc.SetHexColor(t.Fill)
	}

	x, ax := rect.X, 0.0
	switch t.Align {
	case models.AlignCenter:
		x, ax = rect.X+rect.W/2, 0.5
	case models.AlignRight:
		x, ax = rect.X+rect.W, 1
	}
	dc.DrawStringAnchored(text, x, rect.Y, ax, 1)
}

func (r *PNGRenderer) image(dc *gg.Context, frame editor.Frame, o *models.Object, rect geom.Rect) {
	w, h := int(math.Round(rect.W)), int(math.Round(rect.H))
	if img, ok := frame.Bitmaps[o.ID]; ok && w > 0 && h > 0 {
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Over, nil)
		dc.DrawImage(dst, int(math.Round(rect.X)), int(math.Round(rect.Y)))
		return
	}

	dc.DrawRectangle(rect.X, rect.Y, rect.W, rect.H)
	fillAndStroke(dc, placeholderBg, "#d1d5db", 1)
	dc.SetFontFace(r.face(12))
	dc.SetHexColor(placeholderFg)
	dc.DrawStringAnchored(placeholderLabel(o), rect.X+rect.W/2, rect.Y+rect.H/2, 0.5, 0.5)
}

func (r *PNGRenderer) selection(dc *gg.Context, vp geom.Viewport, frame editor.Frame) {
	for _, o := range frame.Objects {
		if o.ID != frame.SelectedID || !o.Visible {
			continue
		}
		rect := screenRect(vp, geom.ObjectRect(o)).Inflate(2)
		dc.SetHexColor(selectionColor)
		dc.SetLineWidth(1.5)
		dc.DrawRectangle(rect.X, rect.Y, rect.W, rect.H)
		dc.Stroke()
		for _, c := range corners(rect) {
			dc.DrawRectangle(c.X-handleSize/2, c.Y-handleSize/2, handleSize, handleSize)
			fillAndStroke(dc, "#ffffff", selectionColor, 1)
		}
	}
}

// face кэширует шрифт нужного размера. Вызывается под r.mu.
func (r *PNGRenderer) face(size float64) font.Face {
	size = math.Round(size*2) / 2
	if size < 1 {
		size = 1
	}
	if f, ok := r.faces[size]; ok {
		return f
	}
	f := truetype.NewFace(r.font, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingFull})
	r.faces[size] = f
	return f
}

// fillAndStroke заливает и обводит текущий путь.
func fillAndStroke(dc *gg.Context, fillColor, strokeColor string, width float64) {
	stroke := paintable(strokeColor) && width > 0
	if paintable(fillColor) {
		dc.SetHexColor(fillColor)
		if stroke {
			dc.FillPreserve()
		} else {
			dc.Fill()
		}
	}
	if stroke {
		dc.SetHexColor(strokeColor)
		dc.SetLineWidth(width)
		dc.Stroke()
		return
	}
	dc.ClearPath()
}
