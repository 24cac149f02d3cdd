package mapper

import (
	"bytes"
	"encoding/xml"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"testing"

	"design-room/internal/designroom/editor"
	"design-room/internal/designroom/geom"
	"design-room/internal/designroom/models"
)

func testFrame() (editor.Frame, map[string]*models.Object) {
	style := models.DefaultStyle()
	style.Fill = "#ff0000"

	c := models.NewContainer(models.Point{X: 300, Y: 10}, models.Size{Width: 200, Height: 150})
	r := models.NewRectangle(models.Point{X: 10, Y: 10}, models.Size{Width: 100, Height: 50}, style)
	txt := models.NewText(models.Point{X: 10, Y: 100}, models.Size{Width: 200, Height: 40}, "Committed", style)
	img := models.NewImage(models.Point{X: 200, Y: 200}, models.Size{Width: 40, Height: 40},
		models.Asset{ID: "a", Title: "Logo", FileURL: "http://cdn/logo.png", MimeType: "image/png"})
	hidden := models.NewCircle(models.Point{X: 0, Y: 0}, models.Size{Width: 10, Height: 10}, style)
	hidden.Visible = false

	objs := map[string]*models.Object{"container": c, "rect": r, "text": txt, "image": img, "hidden": hidden}
	return editor.Frame{
		Objects:      []*models.Object{c, r, txt, img, hidden},
		SelectedID:   r.ID,
		Viewport:     geom.NewViewport(0.1, 8),
		HeaderHeight: 30,
		Bitmaps:      map[string]image.Image{},
	}, objs
}

func renderSVG(t *testing.T, frame editor.Frame, opts Options) string {
	t.Helper()
	var buf bytes.Buffer
	if err := NewSVGRenderer().Render(frame, opts, &buf); err != nil {
		t.Fatal(err)
	}
	return buf.String()
}

func TestSVGRenderDecorations(t *testing.T) {
	frame, objs := testFrame()
	frame.HoveredContainer = objs["container"].ID
	out := renderSVG(t, frame, DefaultOptions())

	if !strings.HasPrefix(strings.TrimSpace(out), "<?xml") || !strings.Contains(out, "</svg>") {
		t.Fatalf("not an svg document:\n%s", out)
	}
	if !strings.Contains(out, selectionColor) {
		t.Error("selection outline missing")
	}
	if !strings.Contains(out, "stroke:"+hoverColor) {
		t.Error("hovered container not highlighted")
	}
	if strings.Contains(out, objs["hidden"].ID) {
		t.Error("hidden object rendered")
	}
	if !strings.Contains(out, "Committed") {
		t.Error("text missing")
	}
	// картинка ещё не загружена: заглушка с названием
	if !strings.Contains(out, "Logo") || strings.Contains(out, "<image") {
		t.Error("expected placeholder for unloaded image")
	}
}

func TestSVGRenderWithoutDecorations(t *testing.T) {
	frame, objs := testFrame()
	frame.HoveredContainer = objs["container"].ID
	opts := DefaultOptions()
	opts.Decorate = false
	out := renderSVG(t, frame, opts)

	if strings.Contains(out, selectionColor) || strings.Contains(out, hoverColor) {
		t.Error("decorations rendered with Decorate=false")
	}
}

func TestSVGRenderLoadedImageAndTextEditing(t *testing.T) {
	frame, objs := testFrame()
	frame.Bitmaps[objs["image"].ID] = image.NewRGBA(image.Rect(0, 0, 1, 1))
	frame.EditingTextID = objs["text"].ID
	frame.Draft = "Draft in progress"

	out := renderSVG(t, frame, DefaultOptions())
	if !strings.Contains(out, "<image") || !strings.Contains(out, "http://cdn/logo.png") {
		t.Error("loaded image not rendered")
	}
	if strings.Contains(out, "Committed") {
		t.Error("text under edit must be hidden")
	}
	if !strings.Contains(out, "Draft in progress") {
		t.Error("edit overlay missing")
	}
}

// Значения из старых снапшотов могли обойти проверку патчей.
func TestSVGRenderEscapesUserStrings(t *testing.T) {
	frame, objs := testFrame()
	txt := objs["text"]
	txt.Text.FontFamily = `x" onload="alert(1)`
	txt.Text.Fill = `red"><script>alert(1)</script>`
	txt.Text.Text = `<script>alert(2)</script>`
	rect := objs["rect"]
	rect.Shape.Fill = `#fff" onclick="x`
	rect.Shape.Stroke = `blue;}</style><script>`
	objs["container"].Container.Background = `"/><script>alert(3)</script>`

	out := renderSVG(t, frame, DefaultOptions())
	for _, bad := range []string{"onload", "onclick", "<script", "</style>"} {
		if strings.Contains(out, bad) {
			t.Errorf("output contains %q", bad)
		}
	}

	dec := xml.NewDecoder(strings.NewReader(out))
	for {
		_, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("rendered SVG is not well-formed: %v\n%s", err, out)
		}
	}
	if !strings.Contains(out, "font-family:sans-serif") {
		t.Error("invalid font family not replaced")
	}
}

func TestSVGRenderInvalidSize(t *testing.T) {
	frame, _ := testFrame()
	var buf bytes.Buffer
	if err := NewSVGRenderer().Render(frame, Options{}, &buf); err == nil {
		t.Fatal("expected error for zero canvas")
	}
}

func TestPNGRender(t *testing.T) {
	frame, objs := testFrame()
	bmp := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			bmp.Set(x, y, color.RGBA{G: 255, A: 255})
		}
	}
	frame.Bitmaps[objs["image"].ID] = bmp

	r, err := NewPNGRenderer()
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := r.Render(frame, Options{Width: 400, Height: 300}, &buf); err != nil {
		t.Fatal(err)
	}

	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 400 || b.Dy() != 300 {
		t.Fatalf("bounds = %v", b)
	}

	red, _, _, _ := img.At(60, 35).RGBA()
	if red>>8 < 250 {
		t.Errorf("rectangle fill not drawn, pixel = %v", img.At(60, 35))
	}
	_, green, _, _ := img.At(220, 220).RGBA()
	if green>>8 < 250 {
		t.Errorf("bitmap not drawn, pixel = %v", img.At(220, 220))
	}
}

func TestFitViewport(t *testing.T) {
	r := models.NewRectangle(models.Point{X: 100, Y: 100}, models.Size{Width: 200, Height: 100}, models.DefaultStyle())
	frame := editor.Frame{Objects: []*models.Object{r}, Viewport: geom.NewViewport(0.1, 8)}

	vp := viewFor(frame, Options{Width: 448, Height: 248, Fit: true})
	if vp.Zoom != 2 {
		t.Fatalf("zoom = %v", vp.Zoom)
	}
	if p := vp.SceneToScreen(models.Point{X: 100, Y: 100}); p != (models.Point{X: 24, Y: 24}) {
		t.Fatalf("top-left on screen = %+v", p)
	}
}

func TestImport(t *testing.T) {
	doc := `<svg xmlns="http://www.w3.org/2000/svg">
  <rect id="hero" x="0" y="0" width="120" height="80" fill="#00ff00"/>
  <rect width="0" height="10"/>
  <circle cx="50" cy="50" r="10"/>
  <line x1="0" y1="0" x2="30" y2="40"/>
  <path d="M 10 10 L 20 30"/>
  <path d="M 0 0 L 10 0 L 10 10 Z"/>
  <text x="10" y="100" font-size="20" text-anchor="middle">Title</text>
  <image href="https://cdn/pic.jpg?v=2" x="5" y="5" width="50" height="40"/>
  <image href="https://cdn/doc.pdf" x="5" y="5" width="50" height="40"/>
</svg>`

	res, err := NewImporter(models.DefaultStyle()).Import(strings.NewReader(doc))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Objects) != 6 || res.Skipped != 3 {
		t.Fatalf("objects = %d, skipped = %d", len(res.Objects), res.Skipped)
	}

	rect := res.Objects[0]
	if rect.Name != "hero" || rect.Shape.Fill != "#00ff00" || rect.Size != (models.Size{Width: 120, Height: 80}) {
		t.Errorf("rect = %+v", rect)
	}
	circle := res.Objects[1]
	if circle.Position != (models.Point{X: 40, Y: 40}) || circle.Size != (models.Size{Width: 20, Height: 20}) {
		t.Errorf("circle = %+v %+v", circle.Position, circle.Size)
	}
	line := res.Objects[2]
	if line.Shape.Subkind != models.ShapeLine || line.Shape.Vector != (models.Point{X: 30, Y: 40}) {
		t.Errorf("line = %+v", line.Shape)
	}
	if p := res.Objects[3]; p.Shape.Subkind != models.ShapeLine || p.Position != (models.Point{X: 10, Y: 10}) {
		t.Errorf("path line = %+v", p)
	}
	text := res.Objects[4]
	if text.Text.Text != "Title" || text.Text.Align != models.AlignCenter || text.Position.Y != 80 {
		t.Errorf("text = %+v %+v", text.Position, text.Text)
	}
	img := res.Objects[5]
	if img.Kind != models.KindImage || img.Image.MimeType != "image/jpeg" || img.Image.Title != "pic.jpg" {
		t.Errorf("image = %+v", img.Image)
	}
	for _, o := range res.Objects {
		if err := o.Validate(); err != nil {
			t.Errorf("imported object invalid: %v", err)
		}
	}
}

func TestImportDropsUnsafePaint(t *testing.T) {
	doc := `<svg xmlns="http://www.w3.org/2000/svg">
  <rect x="0" y="0" width="10" height="10" fill="red&quot; onload=&quot;alert(1)" stroke="#000;}"/>
  <text x="0" y="20" fill="&quot;&gt;&lt;script&gt;">Hi</text>
</svg>`
	style := models.DefaultStyle()
	res, err := NewImporter(style).Import(strings.NewReader(doc))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Objects) != 2 {
		t.Fatalf("objects = %d", len(res.Objects))
	}
	rect, text := res.Objects[0], res.Objects[1]
	if rect.Shape.Fill != style.Fill || rect.Shape.Stroke != style.Stroke {
		t.Errorf("rect paint = %q / %q", rect.Shape.Fill, rect.Shape.Stroke)
	}
	if text.Text.Fill != style.TextFill {
		t.Errorf("text fill = %q", text.Text.Fill)
	}
}

func TestImportRejectsGarbage(t *testing.T) {
	if _, err := NewImporter(models.DefaultStyle()).Import(strings.NewReader("not xml at all")); err == nil {
		t.Fatal("expected error")
	}
}
