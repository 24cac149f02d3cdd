package geom

import "design-room/internal/designroom/models"

// ============================================================
// Viewport
// ============================================================

// Viewport хранит зум и панораму сцены. Все преобразования
// экран -> сцена идут через ScreenToScene, и рисование, и hit-test,
// и containment пользуются им одинаково.
type Viewport struct {
	Zoom    float64      `json:"zoom" cbor:"zoom"`
	Pan     models.Point `json:"pan" cbor:"pan"`
	MinZoom float64      `json:"minZoom" cbor:"minZoom"`
	MaxZoom float64      `json:"maxZoom" cbor:"maxZoom"`
}

func NewViewport(minZoom, maxZoom float64) Viewport {
	if minZoom <= 0 {
		minZoom = 0.1
	}
	if maxZoom < minZoom {
		maxZoom = minZoom
	}
	return Viewport{Zoom: clamp(1, minZoom, maxZoom), MinZoom: minZoom, MaxZoom: maxZoom}
}

// ScreenToScene: делим на зум и вычитаем панораму.
func (v Viewport) ScreenToScene(p models.Point) models.Point {
	z := v.zoom()
	return models.Point{X: p.X/z - v.Pan.X, Y: p.Y/z - v.Pan.Y}
}

// SceneToScreen: обратное преобразование.
func (v Viewport) SceneToScreen(p models.Point) models.Point {
	z := v.zoom()
	return models.Point{X: (p.X + v.Pan.X) * z, Y: (p.Y + v.Pan.Y) * z}
}

// SetZoom выставляет зум с ограничением [MinZoom, MaxZoom].
func (v *Viewport) SetZoom(z float64) {
	v.Zoom = clamp(z, v.MinZoom, v.MaxZoom)
}

func (v *Viewport) ZoomBy(factor float64) {
	if factor <= 0 {
		return
	}
	v.SetZoom(v.zoom() * factor)
}

// PanByScreen сдвигает панораму на экранную дельту.
func (v *Viewport) PanByScreen(dx, dy float64) {
	z := v.zoom()
	v.Pan.X += dx / z
	v.Pan.Y += dy / z
}

func (v Viewport) zoom() float64 {
	if v.Zoom <= 0 {
		return 1
	}
	return v.Zoom
}

func clamp(val, min, max float64) float64 {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
