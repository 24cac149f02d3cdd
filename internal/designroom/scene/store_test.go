package scene

import (
	"errors"
	"testing"

	"design-room/internal/designroom/models"
)

func rect(x, y float64) *models.Object {
	return models.NewRectangle(models.Point{X: x, Y: y}, models.Size{Width: 100, Height: 100}, models.DefaultStyle())
}

func ids(objs []*models.Object) []string {
	var out []string
	for _, o := range objs {
		out = append(out, o.ID)
	}
	return out
}

func TestAddKeepsZOrder(t *testing.T) {
	s := NewStore()
	a, b, c := rect(0, 0), rect(10, 10), rect(20, 20)
	for _, o := range []*models.Object{a, b, c} {
		if err := s.Add(o); err != nil {
			t.Fatal(err)
		}
	}

	got := ids(s.Objects())
	want := []string{a.ID, b.ID, c.ID}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}

	if !s.BringToFront(a.ID) {
		t.Fatal("BringToFront failed")
	}
	if got := ids(s.Objects()); got[2] != a.ID {
		t.Fatalf("after BringToFront: %v", got)
	}
	s.SendToBack(c.ID)
	if got := ids(s.Objects()); got[0] != c.ID {
		t.Fatalf("after SendToBack: %v", got)
	}
}

func TestAddRejectsDuplicateAndInvalid(t *testing.T) {
	s := NewStore()
	a := rect(0, 0)
	if err := s.Add(a); err != nil {
		t.Fatal(err)
	}
	if err := s.Add(a); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}

	bad := rect(0, 0)
	bad.Size.Width = -1
	if err := s.Add(bad); !errors.Is(err, models.ErrInvalidObject) {
		t.Fatalf("expected ErrInvalidObject, got %v", err)
	}
}

func TestAddedContainerStartsEmpty(t *testing.T) {
	s := NewStore()
	c := models.NewContainer(models.Point{}, models.Size{Width: 100, Height: 100})
	c.Container.Members = []string{"ghost"}
	if err := s.Add(c); err != nil {
		t.Fatal(err)
	}
	got, _ := s.Get(c.ID)
	if len(got.Container.Members) != 0 {
		t.Fatalf("members = %v", got.Container.Members)
	}
}

func TestUpdateMissingIsNoop(t *testing.T) {
	s := NewStore()
	pos := models.Point{X: 1, Y: 1}
	if s.Update("missing", models.Patch{Position: &pos}) {
		t.Fatal("update of missing id reported success")
	}

	a := rect(0, 0)
	_ = s.Add(a)
	if !s.Update(a.ID, models.Patch{Position: &pos}) {
		t.Fatal("update failed")
	}
	got, _ := s.Get(a.ID)
	if got.Position != pos {
		t.Fatalf("position = %+v", got.Position)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	s := NewStore()
	a := rect(0, 0)
	_ = s.Add(a)
	got, _ := s.Get(a.ID)
	got.Position.X = 999
	again, _ := s.Get(a.ID)
	if again.Position.X != 0 {
		t.Fatal("Get leaked a live reference")
	}
}

func TestDeleteScrubsMembershipAndSelection(t *testing.T) {
	s := NewStore()
	c := models.NewContainer(models.Point{}, models.Size{Width: 400, Height: 300})
	a := rect(0, 0)
	_ = s.Add(c)
	_ = s.Add(a)
	s.Mutate(c.ID, func(o *models.Object) { o.Container.Members = append(o.Container.Members, a.ID) })
	s.Select(a.ID)

	from, ok := s.Delete(a.ID)
	if !ok {
		t.Fatal("delete failed")
	}
	if len(from) != 1 || from[0] != c.ID {
		t.Fatalf("scrubbed from %v", from)
	}
	got, _ := s.Get(c.ID)
	if len(got.Container.Members) != 0 {
		t.Fatalf("members = %v", got.Container.Members)
	}
	if s.SelectedID() != "" {
		t.Fatal("selection should be cleared")
	}
	if _, ok := s.Delete(a.ID); ok {
		t.Fatal("second delete should be a no-op")
	}
}

func TestDeleteContainerOrphansMembers(t *testing.T) {
	s := NewStore()
	c := models.NewContainer(models.Point{}, models.Size{Width: 400, Height: 300})
	a := rect(0, 0)
	_ = s.Add(c)
	_ = s.Add(a)
	s.Mutate(c.ID, func(o *models.Object) { o.Container.Members = []string{a.ID} })

	s.Delete(c.ID)
	if !s.Has(a.ID) {
		t.Fatal("member was deleted with its container")
	}
	if _, ok := s.ContainerOf(a.ID); ok {
		t.Fatal("member still reports a container")
	}
}

func TestSelectNonexistent(t *testing.T) {
	s := NewStore()
	s.Select("nope")
	if s.SelectedID() != "nope" {
		t.Fatal("selection pointer not stored")
	}
	if s.Has(s.SelectedID()) {
		t.Fatal("nonexistent selection must not resolve")
	}
}

func TestReplaceRepairsMembership(t *testing.T) {
	c1 := models.NewContainer(models.Point{}, models.Size{Width: 400, Height: 300})
	c2 := models.NewContainer(models.Point{X: 500}, models.Size{Width: 400, Height: 300})
	a := rect(0, 0)
	c1.Container.Members = []string{a.ID, "dangling", c1.ID}
	c2.Container.Members = []string{a.ID}

	s := NewStore()
	skipped := s.Replace([]*models.Object{c1, c2, a, a}, a.ID)
	if skipped != 1 {
		t.Fatalf("skipped = %d, want 1", skipped)
	}

	got1, _ := s.Get(c1.ID)
	got2, _ := s.Get(c2.ID)
	if len(got1.Container.Members) != 1 || got1.Container.Members[0] != a.ID {
		t.Fatalf("c1 members = %v", got1.Container.Members)
	}
	if len(got2.Container.Members) != 0 {
		t.Fatalf("c2 members = %v", got2.Container.Members)
	}
	if s.SelectedID() != a.ID {
		t.Fatal("selection lost")
	}
}
