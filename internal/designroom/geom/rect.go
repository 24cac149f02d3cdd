package geom

import (
	"math"

	"design-room/internal/designroom/models"
)

// ============================================================
// Rect
// ============================================================

type Rect struct {
	X, Y, W, H float64
}

// RectFromPoints строит нормализованный прямоугольник по двум углам.
func RectFromPoints(a, b models.Point) Rect {
	return Rect{
		X: math.Min(a.X, b.X),
		Y: math.Min(a.Y, b.Y),
		W: math.Abs(b.X - a.X),
		H: math.Abs(b.Y - a.Y),
	}
}

// ObjectRect: осевой прямоугольник объекта (поворот не учитывается).
// Для линий учитывается направление вектора.
func ObjectRect(o *models.Object) Rect {
	if o.Kind == models.KindShape && o.Shape != nil && o.Shape.Subkind == models.ShapeLine {
		end := models.Point{X: o.Position.X + o.Shape.Vector.X, Y: o.Position.Y + o.Shape.Vector.Y}
		return RectFromPoints(o.Position, end)
	}
	return Rect{X: o.Position.X, Y: o.Position.Y, W: o.Size.Width, H: o.Size.Height}
}

// Contains: включая границы.
func (r Rect) Contains(p models.Point) bool {
	return p.X >= r.X && p.X <= r.X+r.W && p.Y >= r.Y && p.Y <= r.Y+r.H
}

// Inflate расширяет прямоугольник на d со всех сторон.
func (r Rect) Inflate(d float64) Rect {
	return Rect{X: r.X - d, Y: r.Y - d, W: r.W + 2*d, H: r.H + 2*d}
}

// BodyRect: тело контейнера: его прямоугольник без полосы заголовка сверху.
func BodyRect(container *models.Object, headerHeight float64) Rect {
	h := container.Size.Height - headerHeight
	if h < 0 {
		h = 0
	}
	return Rect{
		X: container.Position.X,
		Y: container.Position.Y + headerHeight,
		W: container.Size.Width,
		H: h,
	}
}

// Union: наименьший прямоугольник, покрывающий оба.
func (r Rect) Union(o Rect) Rect {
	x := math.Min(r.X, o.X)
	y := math.Min(r.Y, o.Y)
	return Rect{
		X: x,
		Y: y,
		W: math.Max(r.X+r.W, o.X+o.W) - x,
		H: math.Max(r.Y+r.H, o.Y+o.H) - y,
	}
}

// Bounds: общий прямоугольник видимых объектов. false, если их нет.
func Bounds(objs []*models.Object) (Rect, bool) {
	var out Rect
	found := false
	for _, o := range objs {
		if !o.Visible {
			continue
		}
		r := ObjectRect(o)
		if !found {
			out, found = r, true
			continue
		}
		out = out.Union(r)
	}
	return out, found
}
