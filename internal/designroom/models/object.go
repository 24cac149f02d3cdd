package models

import (
	"errors"
	"fmt"
	"math"
)

// ============================================================
// Geometry primitives
// ============================================================

type Point struct {
	X float64 `json:"x" cbor:"x"`
	Y float64 `json:"y" cbor:"y"`
}

type Size struct {
	Width  float64 `json:"width" cbor:"width"`
	Height float64 `json:"height" cbor:"height"`
}

type Transform struct {
	Rotation float64 `json:"rotation" cbor:"rotation"` // градусы
	ScaleX   float64 `json:"scaleX" cbor:"scaleX"`
	ScaleY   float64 `json:"scaleY" cbor:"scaleY"`
}

// IdentityTransform: трансформация без поворота и масштаба.
func IdentityTransform() Transform {
	return Transform{ScaleX: 1, ScaleY: 1}
}

// ============================================================
// Canvas object kinds
// ============================================================

type Kind string

const (
	KindShape     Kind = "shape"
	KindText      Kind = "text"
	KindImage     Kind = "image-asset"
	KindContainer Kind = "container"
)

type ShapeKind string

const (
	ShapeRectangle ShapeKind = "rectangle"
	ShapeCircle    ShapeKind = "circle"
	ShapeLine      ShapeKind = "line"
)

type Direction string

const (
	DirectionRow    Direction = "row"
	DirectionColumn Direction = "column"
)

type TextAlign string

const (
	AlignLeft   TextAlign = "left"
	AlignCenter TextAlign = "center"
	AlignRight  TextAlign = "right"
)

var ErrInvalidObject = errors.New("invalid canvas object")

// ============================================================
// Kind payloads
// ============================================================

type ShapeData struct {
	Subkind     ShapeKind `json:"subkind" cbor:"subkind"`
	Fill        string    `json:"fill" cbor:"fill"`
	Stroke      string    `json:"stroke" cbor:"stroke"`
	StrokeWidth float64   `json:"strokeWidth" cbor:"strokeWidth"`
	// Vector: смещение конца линии относительно Position (только для line).
	Vector Point `json:"vector" cbor:"vector"`
}

type TextData struct {
	Text       string    `json:"text" cbor:"text"`
	FontFamily string    `json:"fontFamily" cbor:"fontFamily"`
	FontSize   float64   `json:"fontSize" cbor:"fontSize"`
	Align      TextAlign `json:"align" cbor:"align"`
	Fill       string    `json:"fill" cbor:"fill"`
}

type ImageData struct {
	AssetID  string  `json:"assetId" cbor:"assetId"`
	Title    string  `json:"title" cbor:"title"`
	Src      string  `json:"src" cbor:"src"`
	MimeType string  `json:"mimeType" cbor:"mimeType"`
	Width    float64 `json:"naturalWidth" cbor:"naturalWidth"`
	Height   float64 `json:"naturalHeight" cbor:"naturalHeight"`
}

type ContainerData struct {
	Members     []string  `json:"members" cbor:"members"`
	Direction   Direction `json:"direction" cbor:"direction"`
	Wrap        bool      `json:"wrap" cbor:"wrap"`
	Gap         float64   `json:"gap" cbor:"gap"`
	Padding     float64   `json:"padding" cbor:"padding"`
	Background  string    `json:"background" cbor:"background"`
	Stroke      string    `json:"stroke" cbor:"stroke"`
	StrokeWidth float64   `json:"strokeWidth" cbor:"strokeWidth"`
}

// HasMember сообщает, входит ли id в список участников.
func (c *ContainerData) HasMember(id string) bool {
	for _, m := range c.Members {
		if m == id {
			return true
		}
	}
	return false
}

// RemoveMember убирает id из списка, возвращает true если он там был.
func (c *ContainerData) RemoveMember(id string) bool {
	for i, m := range c.Members {
		if m == id {
			c.Members = append(c.Members[:i:i], c.Members[i+1:]...)
			return true
		}
	}
	return false
}

// ============================================================
// CanvasObject
// ============================================================

// Object: единица содержимого сцены. Ровно один payload заполнен,
// какой именно определяет Kind.
type Object struct {
	ID        string    `json:"id" cbor:"id"`
	Kind      Kind      `json:"kind" cbor:"kind"`
	Name      string    `json:"name,omitempty" cbor:"name,omitempty"`
	Position  Point     `json:"position" cbor:"position"`
	Size      Size      `json:"size" cbor:"size"`
	Transform Transform `json:"transform" cbor:"transform"`
	Visible   bool      `json:"visible" cbor:"visible"`

	Shape     *ShapeData     `json:"shape,omitempty" cbor:"shape,omitempty"`
	Text      *TextData      `json:"text,omitempty" cbor:"text,omitempty"`
	Image     *ImageData     `json:"image,omitempty" cbor:"image,omitempty"`
	Container *ContainerData `json:"container,omitempty" cbor:"container,omitempty"`
}

func (o *Object) IsContainer() bool {
	return o.Kind == KindContainer && o.Container != nil
}

// Clone делает глубокую копию, чтобы наружу не утекали ссылки на состояние сцены.
func (o *Object) Clone() *Object {
	if o == nil {
		return nil
	}
	out := *o
	if o.Shape != nil {
		s := *o.Shape
		out.Shape = &s
	}
	if o.Text != nil {
		t := *o.Text
		out.Text = &t
	}
	if o.Image != nil {
		img := *o.Image
		out.Image = &img
	}
	if o.Container != nil {
		c := *o.Container
		c.Members = append([]string(nil), o.Container.Members...)
		out.Container = &c
	}
	return &out
}

// Validate проверяет, что payload соответствует Kind и геометрия конечна.
func (o *Object) Validate() error {
	if o.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidObject)
	}
	for _, v := range []float64{o.Position.X, o.Position.Y, o.Size.Width, o.Size.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite geometry", ErrInvalidObject)
		}
	}
	if o.Size.Width < 0 || o.Size.Height < 0 {
		return fmt.Errorf("%w: negative size", ErrInvalidObject)
	}

	switch o.Kind {
	case KindShape:
		if o.Shape == nil || o.Text != nil || o.Image != nil || o.Container != nil {
			return fmt.Errorf("%w: shape payload mismatch", ErrInvalidObject)
		}
		switch o.Shape.Subkind {
		case ShapeRectangle, ShapeCircle, ShapeLine:
		default:
			return fmt.Errorf("%w: unknown shape %q", ErrInvalidObject, o.Shape.Subkind)
		}
	case KindText:
		if o.Text == nil || o.Shape != nil || o.Image != nil || o.Container != nil {
			return fmt.Errorf("%w: text payload mismatch", ErrInvalidObject)
		}
	case KindImage:
		if o.Image == nil || o.Shape != nil || o.Text != nil || o.Container != nil {
			return fmt.Errorf("%w: image payload mismatch", ErrInvalidObject)
		}
	case KindContainer:
		if o.Container == nil || o.Shape != nil || o.Text != nil || o.Image != nil {
			return fmt.Errorf("%w: container payload mismatch", ErrInvalidObject)
		}
		switch o.Container.Direction {
		case DirectionRow, DirectionColumn:
		default:
			return fmt.Errorf("%w: unknown direction %q", ErrInvalidObject, o.Container.Direction)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidObject, o.Kind)
	}
	return nil
}
