package mapper

import (
	"math"

	"design-room/internal/designroom/editor"
	"design-room/internal/designroom/geom"
	"design-room/internal/designroom/models"
)

// ============================================================
// Render projection
// ============================================================

type Options struct {
	Width  int
	Height int
	// Fit вписывает все видимые объекты вместо текущего вьюпорта.
	Fit bool
	// Decorate рисует рамку выделения, подсветку контейнера под курсором
	// и оверлей редактирования текста.
	Decorate bool
}

func DefaultOptions() Options {
	return Options{Width: 1280, Height: 800, Decorate: true}
}

const (
	fitMargin = 24

	selectionColor = "#2563eb"
	hoverColor     = "#3b82f6"
	headerFill     = "#f3f4f6"
	labelColor     = "#374151"
	placeholderBg  = "#e5e7eb"
	placeholderFg  = "#6b7280"
	handleSize     = 8
)

// viewFor выбирает вьюпорт для кадра: текущий или вписанный.
func viewFor(frame editor.Frame, opts Options) geom.Viewport {
	if !opts.Fit {
		return frame.Viewport
	}
	vp := geom.NewViewport(frame.Viewport.MinZoom, frame.Viewport.MaxZoom)
	bounds, ok := geom.Bounds(frame.Objects)
	if !ok || bounds.W <= 0 && bounds.H <= 0 {
		return vp
	}

	zx := (float64(opts.Width) - 2*fitMargin) / math.Max(bounds.W, 1)
	zy := (float64(opts.Height) - 2*fitMargin) / math.Max(bounds.H, 1)
	vp.SetZoom(math.Min(zx, zy))
	vp.Pan = models.Point{
		X: fitMargin/vp.Zoom - bounds.X,
		Y: fitMargin/vp.Zoom - bounds.Y,
	}
	return vp
}

// screenRect переводит прямоугольник сцены в экранные координаты.
func screenRect(vp geom.Viewport, r geom.Rect) geom.Rect {
	p := vp.SceneToScreen(models.Point{X: r.X, Y: r.Y})
	return geom.Rect{X: p.X, Y: p.Y, W: r.W * vp.Zoom, H: r.H * vp.Zoom}
}

// paintable: цвет, который имеет смысл и можно безопасно рисовать.
func paintable(color string) bool {
	switch color {
	case "", "none", "transparent":
		return false
	}
	return models.ValidColor(color)
}

// fontFamily: семейство шрифта для style; недопустимое заменяется на sans-serif.
func fontFamily(family string) string {
	if family == "" || !models.ValidFontFamily(family) {
		return "sans-serif"
	}
	return family
}

func textOf(o *models.Object, frame editor.Frame) string {
	if frame.EditingTextID == o.ID {
		return frame.Draft
	}
	return o.Text.Text
}
