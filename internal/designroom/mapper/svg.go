package mapper

import (
	"fmt"
	"html"
	"io"
	"math"
	"strconv"
	"strings"

	"design-room/internal/designroom/editor"
	"design-room/internal/designroom/geom"
	"design-room/internal/designroom/models"

	svg "github.com/ajstarks/svgo"
)

// ============================================================
// SVG Renderer
// ============================================================

type SVGRenderer struct{}

func NewSVGRenderer() *SVGRenderer {
	return &SVGRenderer{}
}

// Render пишет кадр сессии как SVG в экранных координатах.
// Объекты идут в порядке сцены, декорации поверх.
func (r *SVGRenderer) Render(frame editor.Frame, opts Options, w io.Writer) error {
	if opts.Width <= 0 || opts.Height <= 0 {
		return fmt.Errorf("invalid canvas size %dx%d", opts.Width, opts.Height)
	}
	vp := viewFor(frame, opts)

	canvas := svg.New(w)
	canvas.Start(opts.Width, opts.Height)
	canvas.Rect(0, 0, opts.Width, opts.Height, "fill:#ffffff")

	for _, o := range frame.Objects {
		if !o.Visible {
			continue
		}
		r.object(canvas, vp, frame, opts.Decorate, o)
	}

	if opts.Decorate {
		r.decorations(canvas, vp, frame)
	}

	canvas.End()
	return nil
}

func (r *SVGRenderer) object(canvas *svg.SVG, vp geom.Viewport, frame editor.Frame, decorate bool, o *models.Object) {
	rect := screenRect(vp, geom.ObjectRect(o))
	rotated := o.Transform.Rotation != 0
	if rotated {
		cx, cy := rect.X+rect.W/2, rect.Y+rect.H/2
		canvas.Gtransform(fmt.Sprintf("rotate(%s %s %s)", num(o.Transform.Rotation), num(cx), num(cy)))
	}

	id := attr("data-id", o.ID)
	switch o.Kind {
	case models.KindContainer:
		r.container(canvas, vp, frame, decorate, o, rect, id)
	case models.KindShape:
		r.shape(canvas, vp, o, id)
	case models.KindText:
		// пока текст редактируется, его рисует оверлей
		if !(decorate && frame.EditingTextID == o.ID) {
			r.text(canvas, vp, o, rect, id, o.Text.Text)
		}
	case models.KindImage:
		r.image(canvas, frame, o, rect, id)
	}

	if rotated {
		canvas.Gend()
	}
}

func (r *SVGRenderer) container(canvas *svg.SVG, vp geom.Viewport, frame editor.Frame, decorate bool, o *models.Object, rect geom.Rect, id string) {
	data := o.Container
	stroke := data.Stroke
	width := data.StrokeWidth
	if decorate && frame.HoveredContainer == o.ID {
		stroke, width = hoverColor, 2
	}

	canvas.Rect(px(rect.X), px(rect.Y), px(rect.W), px(rect.H), id,
		fill(data.Background)+strokeStyle(stroke, width*vp.Zoom))

	header := math.Min(frame.HeaderHeight, o.Size.Height) * vp.Zoom
	canvas.Rect(px(rect.X), px(rect.Y), px(rect.W), px(header), "fill:"+headerFill)
	canvas.Text(px(rect.X+8*vp.Zoom), px(rect.Y+header*0.68), o.Name,
		fmt.Sprintf("font-family:sans-serif;font-size:%spx;fill:%s", num(12*vp.Zoom), labelColor))
}

func (r *SVGRenderer) shape(canvas *svg.SVG, vp geom.Viewport, o *models.Object, id string) {
	s := o.Shape
	pos := vp.SceneToScreen(o.Position)
	w, h := o.Size.Width*vp.Zoom, o.Size.Height*vp.Zoom
	style := fill(s.Fill) + strokeStyle(s.Stroke, s.StrokeWidth*vp.Zoom)

	switch s.Subkind {
	case models.ShapeRectangle:
		canvas.Rect(px(pos.X), px(pos.Y), px(w), px(h), id, style)
	case models.ShapeCircle:
		canvas.Ellipse(px(pos.X+w/2), px(pos.Y+h/2), px(w/2), px(h/2), id, style)
	case models.ShapeLine:
		end := vp.SceneToScreen(models.Point{X: o.Position.X + s.Vector.X, Y: o.Position.Y + s.Vector.Y})
		canvas.Line(px(pos.X), px(pos.Y), px(end.X), px(end.Y), id,
			strings.TrimPrefix(strokeStyle(s.Stroke, s.StrokeWidth*vp.Zoom), ";")+";stroke-linecap:round")
	}
}

func (r *SVGRenderer) text(canvas *svg.SVG, vp geom.Viewport, o *models.Object, rect geom.Rect, id, text string) {
	t := o.Text
	size := t.FontSize * vp.Zoom

	x, anchor := rect.X, "start"
	switch t.Align {
	case models.AlignCenter:
		x, anchor = rect.X+rect.W/2, "middle"
	case models.AlignRight:
		x, anchor = rect.X+rect.W, "end"
	}
	canvas.Text(px(x), px(rect.Y+size), text, id,
		fmt.Sprintf("font-family:%s;font-size:%spx;text-anchor:%s%s", fontFamily(t.FontFamily), num(size), anchor, ";"+fill(t.Fill)))
}

// image: до загрузки картинки рисуется заглушка с названием ассета.
func (r *SVGRenderer) image(canvas *svg.SVG, frame editor.Frame, o *models.Object, rect geom.Rect, id string) {
	if _, loaded := frame.Bitmaps[o.ID]; loaded {
		canvas.Image(px(rect.X), px(rect.Y), px(rect.W), px(rect.H), html.EscapeString(o.Image.Src), id, `preserveAspectRatio="none"`)
		return
	}
	canvas.Rect(px(rect.X), px(rect.Y), px(rect.W), px(rect.H), id, "fill:"+placeholderBg+";stroke:#d1d5db")
	canvas.Text(px(rect.X+rect.W/2), px(rect.Y+rect.H/2), placeholderLabel(o),
		"font-family:sans-serif;font-size:12px;text-anchor:middle;fill:"+placeholderFg)
}

func (r *SVGRenderer) decorations(canvas *svg.SVG, vp geom.Viewport, frame editor.Frame) {
	for _, o := range frame.Objects {
		if o.ID == frame.EditingTextID && o.Kind == models.KindText {
			rect := screenRect(vp, geom.ObjectRect(o))
			canvas.Rect(px(rect.X), px(rect.Y), px(rect.W), px(rect.H),
				"fill:#ffffff;stroke:"+selectionColor+";stroke-dasharray:4,2")
			r.text(canvas, vp, o, rect, attr("data-editing", o.ID), textOf(o, frame))
		}
		if o.ID != frame.SelectedID || !o.Visible {
			continue
		}
		rect := screenRect(vp, geom.ObjectRect(o)).Inflate(2)
		canvas.Rect(px(rect.X), px(rect.Y), px(rect.W), px(rect.H), "fill:none;stroke:"+selectionColor+";stroke-width:1.5")
		for _, c := range corners(rect) {
			canvas.Rect(px(c.X-handleSize/2), px(c.Y-handleSize/2), handleSize, handleSize,
				"fill:#ffffff;stroke:"+selectionColor)
		}
	}
}

// ============================================================
// Formatting helpers
// ============================================================

func px(v float64) int {
	return int(math.Round(v))
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func attr(name, value string) string {
	return fmt.Sprintf(`%s="%s"`, name, html.EscapeString(value))
}

func fill(color string) string {
	if !paintable(color) {
		return "fill:none"
	}
	return "fill:" + color
}

func strokeStyle(color string, width float64) string {
	if !paintable(color) || width <= 0 {
		return ";stroke:none"
	}
	return fmt.Sprintf(";stroke:%s;stroke-width:%s", color, num(width))
}

func corners(r geom.Rect) []models.Point {
	return []models.Point{
		{X: r.X, Y: r.Y},
		{X: r.X + r.W, Y: r.Y},
		{X: r.X, Y: r.Y + r.H},
		{X: r.X + r.W, Y: r.Y + r.H},
	}
}

func placeholderLabel(o *models.Object) string {
	if o.Image.Title != "" {
		return o.Image.Title
	}
	return "image"
}
