package codec

import (
	"errors"
	"testing"

	"design-room/internal/designroom/geom"
	"design-room/internal/designroom/models"
)

func sampleDocument() *Document {
	c := models.NewContainer(models.Point{X: 10, Y: 20}, models.Size{Width: 400, Height: 300})
	r := models.NewRectangle(models.Point{X: 16, Y: 46}, models.Size{Width: 178, Height: 133.5}, models.DefaultStyle())
	c.Container.Members = []string{r.ID}
	txt := models.NewText(models.Point{X: 500}, models.Size{Width: 200, Height: 40}, "Hello", models.DefaultStyle())

	vp := geom.NewViewport(0.1, 8)
	vp.SetZoom(2)
	return &Document{
		ID:         "scene-1",
		Name:       "Storyboard",
		Objects:    []*models.Object{c, r, txt},
		SelectedID: r.ID,
		Viewport:   vp,
	}
}

func TestEncodeDecode(t *testing.T) {
	doc := sampleDocument()
	data, rev, err := Encode(doc)
	if err != nil {
		t.Fatal(err)
	}
	if rev == "" {
		t.Fatal("empty revision")
	}

	got, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != doc.Name || got.SelectedID != doc.SelectedID || len(got.Objects) != 3 {
		t.Fatalf("decoded = %+v", got)
	}
	if got.Objects[0].Container == nil || got.Objects[0].Container.Members[0] != doc.Objects[1].ID {
		t.Fatalf("container lost members: %+v", got.Objects[0].Container)
	}
	if got.Objects[1].Size.Height != 133.5 {
		t.Fatalf("size = %+v", got.Objects[1].Size)
	}
	if got.Objects[2].Text == nil || got.Objects[2].Text.Text != "Hello" {
		t.Fatalf("text = %+v", got.Objects[2].Text)
	}
	if got.Viewport.Zoom != 2 {
		t.Fatalf("zoom = %v", got.Viewport.Zoom)
	}
}

func TestRevisionIsStable(t *testing.T) {
	doc := sampleDocument()
	_, rev1, _ := Encode(doc)
	_, rev2, _ := Encode(doc)
	if rev1 != rev2 {
		t.Fatal("revision differs for identical documents")
	}

	doc.Objects[2].Text.Text = "Changed"
	_, rev3, _ := Encode(doc)
	if rev3 == rev1 {
		t.Fatal("revision did not change")
	}
}

func TestDecodeCorrupt(t *testing.T) {
	if _, err := Decode([]byte("definitely not zstd")); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
}
