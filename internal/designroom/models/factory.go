package models

import (
	"math"

	"github.com/google/uuid"
)

// ============================================================
// Object factories
// ============================================================

// Style: настройки по умолчанию, которые инструмент применяет к новым объектам.
type Style struct {
	Fill        string    `json:"fill" yaml:"fill"`
	Stroke      string    `json:"stroke" yaml:"stroke"`
	StrokeWidth float64   `json:"strokeWidth" yaml:"stroke_width"`
	FontFamily  string    `json:"fontFamily" yaml:"font_family"`
	FontSize    float64   `json:"fontSize" yaml:"font_size"`
	TextAlign   TextAlign `json:"textAlign" yaml:"text_align"`
	TextFill    string    `json:"textFill" yaml:"text_fill"`
}

func DefaultStyle() Style {
	return Style{
		Fill:        "#4f46e5",
		Stroke:      "#1e1b4b",
		StrokeWidth: 2,
		FontFamily:  "Inter",
		FontSize:    16,
		TextAlign:   AlignLeft,
		TextFill:    "#111827",
	}
}

// NewID выдаёт уникальный идентификатор объекта.
func NewID() string {
	return uuid.NewString()
}

func newObject(kind Kind, pos Point, size Size) *Object {
	return &Object{
		ID:        NewID(),
		Kind:      kind,
		Position:  pos,
		Size:      size,
		Transform: IdentityTransform(),
		Visible:   true,
	}
}

func NewRectangle(pos Point, size Size, style Style) *Object {
	return newShape(ShapeRectangle, pos, size, style)
}

func NewCircle(pos Point, size Size, style Style) *Object {
	return newShape(ShapeCircle, pos, size, style)
}

// NewLine создаёт линию из start в start+vector.
func NewLine(start, vector Point, style Style) *Object {
	o := newShape(ShapeLine, start, Size{Width: math.Abs(vector.X), Height: math.Abs(vector.Y)}, style)
	o.Shape.Vector = vector
	return o
}

func newShape(sub ShapeKind, pos Point, size Size, style Style) *Object {
	o := newObject(KindShape, pos, size)
	o.Shape = &ShapeData{
		Subkind:     sub,
		Fill:        style.Fill,
		Stroke:      style.Stroke,
		StrokeWidth: style.StrokeWidth,
	}
	if sub == ShapeLine {
		o.Shape.Fill = ""
	}
	return o
}

func NewText(pos Point, size Size, text string, style Style) *Object {
	o := newObject(KindText, pos, size)
	o.Text = &TextData{
		Text:       text,
		FontFamily: style.FontFamily,
		FontSize:   style.FontSize,
		Align:      style.TextAlign,
		Fill:       style.TextFill,
	}
	return o
}

// NewImage создаёт image-asset из записи провайдера ассетов.
func NewImage(pos Point, size Size, asset Asset) *Object {
	o := newObject(KindImage, pos, size)
	o.Name = asset.Title
	o.Image = &ImageData{
		AssetID:  asset.ID,
		Title:    asset.Title,
		Src:      asset.FileURL,
		MimeType: asset.MimeType,
		Width:    asset.Width,
		Height:   asset.Height,
	}
	return o
}

// NewContainer создаёт frame: row, без переноса, gap 12, padding 16.
func NewContainer(pos Point, size Size) *Object {
	o := newObject(KindContainer, pos, size)
	o.Name = "Frame"
	o.Container = &ContainerData{
		Members:     []string{},
		Direction:   DirectionRow,
		Gap:         12,
		Padding:     16,
		Background:  "#ffffff",
		Stroke:      "#d1d5db",
		StrokeWidth: 1,
	}
	return o
}
