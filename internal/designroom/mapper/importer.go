package mapper

import (
	"fmt"
	"io"
	"math"
	"mime"
	"path"
	"strings"

	"design-room/internal/designroom/models"
	"design-room/internal/designroom/parser"
)

// ============================================================
// SVG Importer
// ============================================================

type Importer struct {
	style models.Style
}

func NewImporter(style models.Style) *Importer {
	return &Importer{style: style}
}

// ImportResult: объекты в порядке документа и число пропущенных элементов.
type ImportResult struct {
	Objects []*models.Object `json:"objects"`
	Skipped int              `json:"skipped"`
}

// Import превращает SVG в объекты холста. Элементы без площади,
// пути сложнее отрезка и картинки не-image типа пропускаются.
func (im *Importer) Import(r io.Reader) (ImportResult, error) {
	elements, err := parser.ParseSVG(r)
	if err != nil {
		return ImportResult{}, fmt.Errorf("parse SVG: %w", err)
	}

	var res ImportResult
	for _, elem := range elements {
		obj, err := im.convert(elem)
		if err != nil || obj == nil {
			res.Skipped++
			continue
		}
		if elem.ID != "" {
			obj.Name = elem.ID
		}
		res.Objects = append(res.Objects, obj)
	}
	return res, nil
}

func (im *Importer) convert(elem parser.Element) (*models.Object, error) {
	style := im.styleFor(elem)

	switch elem.Kind {
	case parser.ElementRect:
		if elem.Width <= 0 || elem.Height <= 0 {
			return nil, nil
		}
		return models.NewRectangle(models.Point{X: elem.X, Y: elem.Y}, models.Size{Width: elem.Width, Height: elem.Height}, style), nil

	case parser.ElementCircle, parser.ElementEllipse:
		if elem.Width <= 0 || elem.Height <= 0 {
			return nil, nil
		}
		pos := models.Point{X: elem.X - elem.Width, Y: elem.Y - elem.Height}
		return models.NewCircle(pos, models.Size{Width: 2 * elem.Width, Height: 2 * elem.Height}, style), nil

	case parser.ElementLine:
		return lineBetween(models.Point{X: elem.X, Y: elem.Y}, models.Point{X: elem.X2, Y: elem.Y2}, style), nil

	case parser.ElementPath:
		points, err := parser.ParsePath(elem.D)
		if err != nil {
			return nil, err
		}
		if len(points) != 2 {
			return nil, nil
		}
		return lineBetween(points[0], points[1], style), nil

	case parser.ElementText:
		if elem.Text == "" {
			return nil, nil
		}
		return im.text(elem, style), nil

	case parser.ElementImage:
		return imageFrom(elem), nil
	}
	return nil, nil
}

func lineBetween(a, b models.Point, style models.Style) *models.Object {
	vec := models.Point{X: b.X - a.X, Y: b.Y - a.Y}
	if vec.X == 0 && vec.Y == 0 {
		return nil
	}
	return models.NewLine(a, vec, style)
}

// text: y в SVG: базовая линия, у объекта: верхний край.
func (im *Importer) text(elem parser.Element, style models.Style) *models.Object {
	size := elem.FontSize
	if size <= 0 {
		size = style.FontSize
	}
	style.FontSize = size
	if paintable(elem.Fill) {
		style.TextFill = elem.Fill
	}

	w := math.Max(float64(len([]rune(elem.Text)))*size*0.6, size)
	h := size * 1.25
	x := elem.X
	switch elem.Anchor {
	case "middle":
		style.TextAlign = models.AlignCenter
		x -= w / 2
	case "end":
		style.TextAlign = models.AlignRight
		x -= w
	}
	return models.NewText(models.Point{X: x, Y: elem.Y - size}, models.Size{Width: w, Height: h}, elem.Text, style)
}

func imageFrom(elem parser.Element) *models.Object {
	if elem.Href == "" {
		return nil
	}
	asset := models.Asset{
		ID:       elem.ID,
		Title:    elem.ID,
		FileURL:  elem.Href,
		MimeType: mimeOf(elem.Href),
		Width:    elem.Width,
		Height:   elem.Height,
	}
	if !asset.IsImage() || elem.Width <= 0 || elem.Height <= 0 {
		return nil
	}
	if asset.Title == "" {
		asset.Title = path.Base(stripQuery(elem.Href))
	}
	return models.NewImage(models.Point{X: elem.X, Y: elem.Y}, models.Size{Width: elem.Width, Height: elem.Height}, asset)
}

// mimeOf определяет тип по data URI или расширению.
func mimeOf(href string) string {
	if rest, ok := strings.CutPrefix(href, "data:"); ok {
		mt, _, _ := strings.Cut(rest, ";")
		mt, _, _ = strings.Cut(mt, ",")
		return mt
	}
	return mime.TypeByExtension(strings.ToLower(path.Ext(stripQuery(href))))
}

func stripQuery(u string) string {
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		return u[:i]
	}
	return u
}

// styleFor: стиль инструмента, перекрытый атрибутами элемента.
func (im *Importer) styleFor(elem parser.Element) models.Style {
	style := im.style
	if elem.Fill != "" {
		style.Fill = elem.Fill
	}
	if elem.Stroke != "" {
		style.Stroke = elem.Stroke
	}
	if elem.StrokeWidth > 0 {
		style.StrokeWidth = elem.StrokeWidth
	}
	return style.Sanitized(im.style)
}
