package parser

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ============================================================
// Elements
// ============================================================

type ElementKind string

const (
	ElementRect    ElementKind = "rect"
	ElementCircle  ElementKind = "circle"
	ElementEllipse ElementKind = "ellipse"
	ElementLine    ElementKind = "line"
	ElementText    ElementKind = "text"
	ElementImage   ElementKind = "image"
	ElementPath    ElementKind = "path"
)

// Element: поддерживаемый элемент SVG, приведённый к общему виду.
// Для rect/image/text заполнены X, Y, Width, Height; для circle/ellipse
// X, Y: центр, Width, Height: радиусы; для line X2, Y2: конец.
type Element struct {
	ID     string
	Kind   ElementKind
	X      float64
	Y      float64
	X2     float64
	Y2     float64
	Width  float64
	Height float64

	Fill        string
	Stroke      string
	StrokeWidth float64
	FontSize    float64
	Anchor      string
	Text        string
	Href        string
	D           string
}

var ErrNotSVG = errors.New("document is not an svg")

// ============================================================
// XML Structures
// ============================================================

type presentation struct {
	ID          string `xml:"id,attr"`
	Fill        string `xml:"fill,attr"`
	Stroke      string `xml:"stroke,attr"`
	StrokeWidth string `xml:"stroke-width,attr"`
	Style       string `xml:"style,attr"`
}

type rectXML struct {
	presentation
	X      string `xml:"x,attr"`
	Y      string `xml:"y,attr"`
	Width  string `xml:"width,attr"`
	Height string `xml:"height,attr"`
}

type circleXML struct {
	presentation
	CX string `xml:"cx,attr"`
	CY string `xml:"cy,attr"`
	R  string `xml:"r,attr"`
	RX string `xml:"rx,attr"`
	RY string `xml:"ry,attr"`
}

type lineXML struct {
	presentation
	X1 string `xml:"x1,attr"`
	Y1 string `xml:"y1,attr"`
	X2 string `xml:"x2,attr"`
	Y2 string `xml:"y2,attr"`
}

type textXML struct {
	presentation
	X          string `xml:"x,attr"`
	Y          string `xml:"y,attr"`
	FontSize   string `xml:"font-size,attr"`
	TextAnchor string `xml:"text-anchor,attr"`
	Content    string `xml:",chardata"`
	Spans      []struct {
		Content string `xml:",chardata"`
	} `xml:"tspan"`
}

type imageXML struct {
	presentation
	X      string     `xml:"x,attr"`
	Y      string     `xml:"y,attr"`
	Width  string     `xml:"width,attr"`
	Height string     `xml:"height,attr"`
	Attrs  []xml.Attr `xml:",any,attr"`
}

type pathXML struct {
	presentation
	D string `xml:"d,attr"`
}

// ============================================================
// Parser
// ============================================================

// ParseSVG читает документ и возвращает элементы в порядке документа.
// Вложенные <g> обходятся, их трансформации не применяются.
// Неизвестные элементы пропускаются.
func ParseSVG(r io.Reader) ([]Element, error) {
	decoder := xml.NewDecoder(r)
	var elements []Element
	sawRoot := false

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read svg: %w", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if !sawRoot {
			if start.Name.Local != "svg" {
				return nil, fmt.Errorf("%w: root element <%s>", ErrNotSVG, start.Name.Local)
			}
			sawRoot = true
			continue
		}

		elem, ok, err := decodeElement(decoder, start)
		if err != nil {
			return nil, err
		}
		if ok {
			elements = append(elements, elem)
		}
	}

	if !sawRoot {
		return nil, ErrNotSVG
	}
	return elements, nil
}

func decodeElement(d *xml.Decoder, start xml.StartElement) (Element, bool, error) {
	switch ElementKind(start.Name.Local) {
	case ElementRect:
		var v rectXML
		if err := d.DecodeElement(&v, &start); err != nil {
			return Element{}, false, fmt.Errorf("decode rect: %w", err)
		}
		e := v.presentation.element(ElementRect)
		e.X, e.Y = length(v.X), length(v.Y)
		e.Width, e.Height = length(v.Width), length(v.Height)
		return e, true, nil

	case ElementCircle, ElementEllipse:
		var v circleXML
		if err := d.DecodeElement(&v, &start); err != nil {
			return Element{}, false, fmt.Errorf("decode %s: %w", start.Name.Local, err)
		}
		e := v.presentation.element(ElementKind(start.Name.Local))
		e.X, e.Y = length(v.CX), length(v.CY)
		if v.R != "" {
			e.Width, e.Height = length(v.R), length(v.R)
		} else {
			e.Width, e.Height = length(v.RX), length(v.RY)
		}
		return e, true, nil

	case ElementLine:
		var v lineXML
		if err := d.DecodeElement(&v, &start); err != nil {
			return Element{}, false, fmt.Errorf("decode line: %w", err)
		}
		e := v.presentation.element(ElementLine)
		e.X, e.Y = length(v.X1), length(v.Y1)
		e.X2, e.Y2 = length(v.X2), length(v.Y2)
		return e, true, nil

	case ElementText:
		var v textXML
		if err := d.DecodeElement(&v, &start); err != nil {
			return Element{}, false, fmt.Errorf("decode text: %w", err)
		}
		e := v.presentation.element(ElementText)
		e.X, e.Y = length(v.X), length(v.Y)
		e.FontSize = length(v.FontSize)
		if size := styleValue(v.Style, "font-size"); size != "" {
			e.FontSize = length(size)
		}
		e.Anchor = v.TextAnchor
		parts := []string{strings.TrimSpace(v.Content)}
		for _, span := range v.Spans {
			parts = append(parts, strings.TrimSpace(span.Content))
		}
		e.Text = strings.TrimSpace(strings.Join(parts, " "))
		return e, true, nil

	case ElementImage:
		var v imageXML
		if err := d.DecodeElement(&v, &start); err != nil {
			return Element{}, false, fmt.Errorf("decode image: %w", err)
		}
		e := v.presentation.element(ElementImage)
		e.X, e.Y = length(v.X), length(v.Y)
		e.Width, e.Height = length(v.Width), length(v.Height)
		// href и xlink:href
		for _, a := range v.Attrs {
			if a.Name.Local == "href" {
				e.Href = a.Value
			}
		}
		return e, true, nil

	case ElementPath:
		var v pathXML
		if err := d.DecodeElement(&v, &start); err != nil {
			return Element{}, false, fmt.Errorf("decode path: %w", err)
		}
		e := v.presentation.element(ElementPath)
		e.D = v.D
		return e, true, nil
	}
	return Element{}, false, nil
}

// element собирает общие атрибуты. style перекрывает атрибуты, как в браузере.
func (p presentation) element(kind ElementKind) Element {
	e := Element{ID: p.ID, Kind: kind, Fill: p.Fill, Stroke: p.Stroke, StrokeWidth: length(p.StrokeWidth)}
	if v := styleValue(p.Style, "fill"); v != "" {
		e.Fill = v
	}
	if v := styleValue(p.Style, "stroke"); v != "" {
		e.Stroke = v
	}
	if v := styleValue(p.Style, "stroke-width"); v != "" {
		e.StrokeWidth = length(v)
	}
	return e
}

// ============================================================
// Attribute helpers
// ============================================================

// length разбирает длину SVG; единицы (px, pt, %) отбрасываются.
func length(s string) float64 {
	s = strings.TrimSpace(s)
	s = strings.TrimRight(s, "abcdefghijklmnopqrstuvwxyz%")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func styleValue(style, key string) string {
	for _, decl := range strings.Split(style, ";") {
		name, value, ok := strings.Cut(decl, ":")
		if ok && strings.TrimSpace(name) == key {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
