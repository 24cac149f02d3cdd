package layout

import (
	"testing"

	"design-room/internal/designroom/models"
	"design-room/internal/designroom/scene"
)

func container(w, h float64, dir models.Direction, members int) *models.Object {
	c := models.NewContainer(models.Point{}, models.Size{Width: w, Height: h})
	c.Container.Direction = dir
	for i := 0; i < members; i++ {
		c.Container.Members = append(c.Container.Members, models.NewID())
	}
	return c
}

func TestComputeRowScenario(t *testing.T) {
	c := container(400, 300, models.DirectionRow, 2)
	c.Container.Gap = 12
	c.Container.Padding = 16

	frames := Compute(c, DefaultOptions())
	if len(frames) != 2 {
		t.Fatalf("frames = %d", len(frames))
	}

	want := []Frame{
		{Position: models.Point{X: 16, Y: 46}, Size: models.Size{Width: 178, Height: 133.5}},
		{Position: models.Point{X: 206, Y: 46}, Size: models.Size{Width: 178, Height: 133.5}},
	}
	for i, f := range frames {
		if f.Position != want[i].Position || f.Size != want[i].Size {
			t.Errorf("frame %d = %+v/%+v, want %+v/%+v", i, f.Position, f.Size, want[i].Position, want[i].Size)
		}
		if f.ID != c.Container.Members[i] {
			t.Errorf("frame %d id = %s", i, f.ID)
		}
	}
}

func TestComputeRowHeightCap(t *testing.T) {
	c := container(1000, 600, models.DirectionRow, 1)
	c.Container.Padding = 0
	frames := Compute(c, DefaultOptions())
	if frames[0].Size.Width != 1000 || frames[0].Size.Height != 200 {
		t.Fatalf("size = %+v", frames[0].Size)
	}
}

func TestComputeRowWrapBoundary(t *testing.T) {
	tests := []struct {
		width   float64
		padding float64
		perRow  int
	}{
		{width: 432, padding: 16, perRow: 2},
		{width: 1000, padding: 20, perRow: 4},
		{width: 150, padding: 10, perRow: 1},
		{width: 20, padding: 30, perRow: 1},
	}

	for _, tt := range tests {
		c := container(tt.width, 900, models.DirectionRow, tt.perRow+1)
		c.Container.Wrap = true
		c.Container.Padding = tt.padding
		c.Container.Gap = 8

		if got := ItemsPerRow(tt.width-2*tt.padding, 200); got != tt.perRow {
			t.Fatalf("ItemsPerRow(%v) = %d, want %d", tt.width, got, tt.perRow)
		}

		frames := Compute(c, DefaultOptions())
		first := frames[0]
		overflow := frames[tt.perRow]
		if overflow.Position.X != first.Position.X {
			t.Errorf("width %v: overflow member x = %v, want column 0 (%v)", tt.width, overflow.Position.X, first.Position.X)
		}
		if tt.perRow > 0 && overflow.Position.Y <= first.Position.Y && first.Size.Height > 0 {
			t.Errorf("width %v: overflow member not on second row", tt.width)
		}
		wantY := first.Position.Y + first.Size.Height + c.Container.Gap
		if overflow.Position.Y != wantY {
			t.Errorf("width %v: overflow y = %v, want %v", tt.width, overflow.Position.Y, wantY)
		}
	}
}

func TestComputeColumn(t *testing.T) {
	c := container(300, 400, models.DirectionColumn, 3)
	c.Container.Padding = 10
	c.Container.Gap = 5

	// availH = 400 - 20 - 30 = 350; (350 - 10) / 3 = 113.33 < 150
	frames := Compute(c, DefaultOptions())
	itemH := (350.0 - 10) / 3
	for i, f := range frames {
		if f.Size.Width != 280 {
			t.Errorf("frame %d width = %v", i, f.Size.Width)
		}
		if f.Size.Height != itemH {
			t.Errorf("frame %d height = %v, want %v", i, f.Size.Height, itemH)
		}
		wantY := 40 + float64(i)*(itemH+5)
		if f.Position.X != 10 || f.Position.Y != wantY {
			t.Errorf("frame %d pos = %+v, want (10,%v)", i, f.Position, wantY)
		}
	}

	one := container(300, 1000, models.DirectionColumn, 1)
	if h := Compute(one, DefaultOptions())[0].Size.Height; h != 150 {
		t.Errorf("capped column height = %v, want 150", h)
	}
}

func TestComputeNeverNegative(t *testing.T) {
	for _, dir := range []models.Direction{models.DirectionRow, models.DirectionColumn} {
		c := container(10, 10, dir, 3)
		c.Container.Padding = 50
		c.Container.Gap = 20
		for _, f := range Compute(c, DefaultOptions()) {
			if f.Size.Width < 0 || f.Size.Height < 0 {
				t.Fatalf("%s produced negative size %+v", dir, f.Size)
			}
		}
	}
}

func TestComputeEmptyIsNoop(t *testing.T) {
	c := container(400, 300, models.DirectionRow, 0)
	if frames := Compute(c, DefaultOptions()); frames != nil {
		t.Fatalf("frames = %v", frames)
	}
}

func TestEngineApplyIsIdempotent(t *testing.T) {
	store := scene.NewStore()
	c := models.NewContainer(models.Point{X: 50, Y: 50}, models.Size{Width: 640, Height: 480})
	_ = store.Add(c)

	var members []string
	for i := 0; i < 5; i++ {
		o := models.NewRectangle(models.Point{X: float64(i) * 7}, models.Size{Width: 30, Height: 30}, models.DefaultStyle())
		_ = store.Add(o)
		members = append(members, o.ID)
	}
	store.Mutate(c.ID, func(o *models.Object) {
		o.Container.Members = members
		o.Container.Wrap = true
	})

	e := NewEngine(store, DefaultOptions())
	if n := e.Apply(c.ID); n != 5 {
		t.Fatalf("updated = %d", n)
	}
	first := store.Objects()
	e.Apply(c.ID)
	second := store.Objects()

	for i := range first {
		if first[i].Position != second[i].Position || first[i].Size != second[i].Size {
			t.Fatalf("object %d moved on second layout: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestEngineNestedContainers(t *testing.T) {
	store := scene.NewStore()
	outer := models.NewContainer(models.Point{}, models.Size{Width: 400, Height: 300})
	inner := models.NewContainer(models.Point{X: 900}, models.Size{Width: 50, Height: 50})
	leaf := models.NewRectangle(models.Point{X: 2000}, models.Size{Width: 10, Height: 10}, models.DefaultStyle())
	for _, o := range []*models.Object{outer, inner, leaf} {
		_ = store.Add(o)
	}
	store.Mutate(outer.ID, func(o *models.Object) { o.Container.Members = []string{inner.ID} })
	store.Mutate(inner.ID, func(o *models.Object) { o.Container.Members = []string{leaf.ID} })

	if n := NewEngine(store, DefaultOptions()).Apply(outer.ID); n != 2 {
		t.Fatalf("updated = %d, want 2", n)
	}
	in, _ := store.Get(inner.ID)
	lf, _ := store.Get(leaf.ID)
	if in.Position != (models.Point{X: 16, Y: 46}) {
		t.Fatalf("inner pos = %+v", in.Position)
	}
	wantLeaf := models.Point{X: in.Position.X + 16, Y: in.Position.Y + 30 + 16}
	if lf.Position != wantLeaf {
		t.Fatalf("leaf pos = %+v, want %+v", lf.Position, wantLeaf)
	}
}

func TestEngineCycleSafe(t *testing.T) {
	store := scene.NewStore()
	a := models.NewContainer(models.Point{}, models.Size{Width: 400, Height: 300})
	b := models.NewContainer(models.Point{}, models.Size{Width: 400, Height: 300})
	_ = store.Add(a)
	_ = store.Add(b)
	store.Mutate(a.ID, func(o *models.Object) { o.Container.Members = []string{b.ID} })
	store.Mutate(b.ID, func(o *models.Object) { o.Container.Members = []string{a.ID} })

	if n := NewEngine(store, DefaultOptions()).Apply(a.ID); n != 2 {
		t.Fatalf("updated = %d", n)
	}
}
