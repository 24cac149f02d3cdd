package containment

import (
	"math/rand"
	"testing"

	"design-room/internal/designroom/layout"
	"design-room/internal/designroom/models"
	"design-room/internal/designroom/scene"
)

type fixture struct {
	store  *scene.Store
	engine *Engine
}

func newFixture() *fixture {
	store := scene.NewStore()
	return &fixture{
		store:  store,
		engine: NewEngine(store, layout.NewEngine(store, layout.DefaultOptions())),
	}
}

func (f *fixture) add(t *testing.T, o *models.Object) *models.Object {
	t.Helper()
	if err := f.store.Add(o); err != nil {
		t.Fatal(err)
	}
	return o
}

func (f *fixture) moveTo(id string, x, y float64) {
	p := models.Point{X: x, Y: y}
	f.store.Update(id, models.Patch{Position: &p})
}

func (f *fixture) membership(id string) int {
	n := 0
	for _, c := range f.store.Containers() {
		for _, m := range c.Container.Members {
			if m == id {
				n++
			}
		}
	}
	return n
}

func shape(t *testing.T, f *fixture) *models.Object {
	return f.add(t, models.NewRectangle(models.Point{X: 1000, Y: 1000}, models.Size{Width: 100, Height: 100}, models.DefaultStyle()))
}

func TestDragIntoContainerScenario(t *testing.T) {
	f := newFixture()
	c := f.add(t, models.NewContainer(models.Point{}, models.Size{Width: 400, Height: 300}))
	a := shape(t, f)
	b := shape(t, f)

	f.moveTo(a.ID, 50, 100)
	if res := f.engine.DragEnd(a.ID); res.To != c.ID || !res.Changed() {
		t.Fatalf("result = %+v", res)
	}
	f.moveTo(b.ID, 300, 120)
	f.engine.DragEnd(b.ID)

	gotA, _ := f.store.Get(a.ID)
	gotB, _ := f.store.Get(b.ID)
	if gotA.Position != (models.Point{X: 16, Y: 46}) || gotA.Size != (models.Size{Width: 178, Height: 133.5}) {
		t.Errorf("a = %+v %+v", gotA.Position, gotA.Size)
	}
	if gotB.Position != (models.Point{X: 206, Y: 46}) || gotB.Size != (models.Size{Width: 178, Height: 133.5}) {
		t.Errorf("b = %+v %+v", gotB.Position, gotB.Size)
	}
}

func TestHeaderStripDoesNotCapture(t *testing.T) {
	f := newFixture()
	f.add(t, models.NewContainer(models.Point{}, models.Size{Width: 400, Height: 300}))
	a := shape(t, f)

	f.moveTo(a.ID, 100, 10)
	if res := f.engine.DragEnd(a.ID); res.To != "" {
		t.Fatalf("dropped on header, got container %s", res.To)
	}
}

func TestRoundTripMembership(t *testing.T) {
	f := newFixture()
	c := f.add(t, models.NewContainer(models.Point{}, models.Size{Width: 400, Height: 300}))
	a := shape(t, f)

	f.moveTo(a.ID, 50, 100)
	f.engine.DragEnd(a.ID)
	if f.membership(a.ID) != 1 {
		t.Fatal("not contained after drop")
	}

	f.moveTo(a.ID, 900, 900)
	res := f.engine.DragEnd(a.ID)
	if res.To != "" || len(res.From) != 1 || res.From[0] != c.ID {
		t.Fatalf("result = %+v", res)
	}
	if f.membership(a.ID) != 0 {
		t.Fatal("still a member after dragging out")
	}
}

func TestFirstContainerInSceneOrderWins(t *testing.T) {
	f := newFixture()
	first := f.add(t, models.NewContainer(models.Point{}, models.Size{Width: 400, Height: 300}))
	f.add(t, models.NewContainer(models.Point{X: 100, Y: 0}, models.Size{Width: 400, Height: 300}))
	a := shape(t, f)

	f.moveTo(a.ID, 200, 100)
	if res := f.engine.DragEnd(a.ID); res.To != first.ID {
		t.Fatalf("to = %s, want first container", res.To)
	}
}

func TestContainerNotDroppedIntoItself(t *testing.T) {
	f := newFixture()
	outer := f.add(t, models.NewContainer(models.Point{}, models.Size{Width: 800, Height: 600}))
	inner := f.add(t, models.NewContainer(models.Point{X: 2000}, models.Size{Width: 300, Height: 200}))

	f.moveTo(inner.ID, 100, 100)
	if res := f.engine.DragEnd(inner.ID); res.To != outer.ID {
		t.Fatalf("inner not nested: %+v", res)
	}

	// outer dropped onto its own member must stay un-contained
	in, _ := f.store.Get(inner.ID)
	f.moveTo(outer.ID, in.Position.X+10, in.Position.Y+50)
	if res := f.engine.DragEnd(outer.ID); res.To != "" {
		t.Fatalf("outer dropped into descendant %s", res.To)
	}
}

func TestHoveredDoesNotChangeMembership(t *testing.T) {
	f := newFixture()
	c := f.add(t, models.NewContainer(models.Point{}, models.Size{Width: 400, Height: 300}))
	a := shape(t, f)

	if got := f.engine.Hovered(a.ID, models.Point{X: 10, Y: 40}); got != c.ID {
		t.Fatalf("hovered = %q", got)
	}
	if got := f.engine.Hovered(a.ID, models.Point{X: 10, Y: 20}); got != "" {
		t.Fatalf("hovered header = %q", got)
	}
	if f.membership(a.ID) != 0 {
		t.Fatal("hover changed membership")
	}
	if got := f.engine.Hovered("missing", models.Point{X: 10, Y: 40}); got != "" {
		t.Fatal("missing object hovered a container")
	}
}

func TestContainmentExclusivityUnderRandomDrags(t *testing.T) {
	f := newFixture()
	for i := 0; i < 4; i++ {
		f.add(t, models.NewContainer(models.Point{X: float64(i) * 250, Y: float64(i%2) * 150}, models.Size{Width: 300, Height: 250}))
	}
	var objs []*models.Object
	for i := 0; i < 6; i++ {
		objs = append(objs, shape(t, f))
	}

	rng := rand.New(rand.NewSource(42))
	for step := 0; step < 500; step++ {
		o := objs[rng.Intn(len(objs))]
		f.moveTo(o.ID, rng.Float64()*1200, rng.Float64()*500)
		f.engine.DragEnd(o.ID)

		for _, x := range objs {
			if n := f.membership(x.ID); n > 1 {
				t.Fatalf("step %d: object %s in %d containers", step, x.ID, n)
			}
		}
	}
}
