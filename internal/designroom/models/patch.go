package models

import "math"

// ============================================================
// Partial updates
// ============================================================

// Patch: частичное обновление объекта. nil-поля не трогаются.
// Список участников контейнера сюда не входит: им управляет только containment.
type Patch struct {
	Name      *string         `json:"name,omitempty"`
	Position  *Point          `json:"position,omitempty"`
	Size      *Size           `json:"size,omitempty"`
	Transform *Transform      `json:"transform,omitempty"`
	Visible   *bool           `json:"visible,omitempty"`
	Shape     *ShapePatch     `json:"shape,omitempty"`
	Text      *TextPatch      `json:"text,omitempty"`
	Image     *ImagePatch     `json:"image,omitempty"`
	Container *ContainerPatch `json:"container,omitempty"`
}

type ShapePatch struct {
	Fill        *string  `json:"fill,omitempty"`
	Stroke      *string  `json:"stroke,omitempty"`
	StrokeWidth *float64 `json:"strokeWidth,omitempty"`
	Vector      *Point   `json:"vector,omitempty"`
}

type TextPatch struct {
	Text       *string    `json:"text,omitempty"`
	FontFamily *string    `json:"fontFamily,omitempty"`
	FontSize   *float64   `json:"fontSize,omitempty"`
	Align      *TextAlign `json:"align,omitempty"`
	Fill       *string    `json:"fill,omitempty"`
}

type ImagePatch struct {
	Title *string `json:"title,omitempty"`
	Src   *string `json:"src,omitempty"`
}

type ContainerPatch struct {
	Direction   *Direction `json:"direction,omitempty"`
	Wrap        *bool      `json:"wrap,omitempty"`
	Gap         *float64   `json:"gap,omitempty"`
	Padding     *float64   `json:"padding,omitempty"`
	Background  *string    `json:"background,omitempty"`
	Stroke      *string    `json:"stroke,omitempty"`
	StrokeWidth *float64   `json:"strokeWidth,omitempty"`
}

// TouchesLayout сообщает, меняет ли патч поля политики раскладки.
func (p *ContainerPatch) TouchesLayout() bool {
	return p != nil && (p.Direction != nil || p.Wrap != nil || p.Gap != nil || p.Padding != nil)
}

// Apply вливает патч в объект. Payload другого вида игнорируется.
// Отрицательные размеры обрезаются до нуля, недопустимые цвета и
// шрифты пропускаются (см. Validate).
func (p Patch) Apply(o *Object) {
	if p.Name != nil {
		o.Name = *p.Name
	}
	if p.Position != nil {
		o.Position = *p.Position
	}
	if p.Size != nil {
		o.Size = Size{Width: nonNegative(p.Size.Width), Height: nonNegative(p.Size.Height)}
		// у линии вектор следует за размером, направление сохраняется
		if o.Shape != nil && o.Shape.Subkind == ShapeLine {
			o.Shape.Vector = Point{
				X: math.Copysign(o.Size.Width, o.Shape.Vector.X),
				Y: math.Copysign(o.Size.Height, o.Shape.Vector.Y),
			}
		}
	}
	if p.Transform != nil {
		o.Transform = *p.Transform
	}
	if p.Visible != nil {
		o.Visible = *p.Visible
	}

	if p.Shape != nil && o.Shape != nil {
		s := p.Shape
		if s.Fill != nil && ValidColor(*s.Fill) {
			o.Shape.Fill = *s.Fill
		}
		if s.Stroke != nil && ValidColor(*s.Stroke) {
			o.Shape.Stroke = *s.Stroke
		}
		if s.StrokeWidth != nil {
			o.Shape.StrokeWidth = nonNegative(*s.StrokeWidth)
		}
		if s.Vector != nil && o.Shape.Subkind == ShapeLine {
			o.Shape.Vector = *s.Vector
			o.Size = Size{Width: math.Abs(s.Vector.X), Height: math.Abs(s.Vector.Y)}
		}
	}

	if p.Text != nil && o.Text != nil {
		t := p.Text
		if t.Text != nil {
			o.Text.Text = *t.Text
		}
		if t.FontFamily != nil && ValidFontFamily(*t.FontFamily) {
			o.Text.FontFamily = *t.FontFamily
		}
		if t.FontSize != nil {
			o.Text.FontSize = nonNegative(*t.FontSize)
		}
		if t.Align != nil {
			o.Text.Align = *t.Align
		}
		if t.Fill != nil && ValidColor(*t.Fill) {
			o.Text.Fill = *t.Fill
		}
	}

	if p.Image != nil && o.Image != nil {
		if p.Image.Title != nil {
			o.Image.Title = *p.Image.Title
		}
		if p.Image.Src != nil {
			o.Image.Src = *p.Image.Src
		}
	}

	if p.Container != nil && o.Container != nil {
		c := p.Container
		if c.Direction != nil && (*c.Direction == DirectionRow || *c.Direction == DirectionColumn) {
			o.Container.Direction = *c.Direction
		}
		if c.Wrap != nil {
			o.Container.Wrap = *c.Wrap
		}
		if c.Gap != nil {
			o.Container.Gap = nonNegative(*c.Gap)
		}
		if c.Padding != nil {
			o.Container.Padding = nonNegative(*c.Padding)
		}
		if c.Background != nil && ValidColor(*c.Background) {
			o.Container.Background = *c.Background
		}
		if c.Stroke != nil && ValidColor(*c.Stroke) {
			o.Container.Stroke = *c.Stroke
		}
		if c.StrokeWidth != nil {
			o.Container.StrokeWidth = nonNegative(*c.StrokeWidth)
		}
	}
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
