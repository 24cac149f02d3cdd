package scene

import (
	"errors"
	"fmt"

	"design-room/internal/designroom/models"
)

// ============================================================
// Scene Object Store
// ============================================================

var (
	ErrNotFound    = errors.New("object not found")
	ErrDuplicateID = errors.New("duplicate object id")
)

// Store: упорядоченная коллекция объектов сцены. Порядок добавления
// задаёт z-order: последние рисуются сверху. Все изменения идут через
// методы Store; наружу отдаются только копии.
type Store struct {
	objects  []*models.Object
	index    map[string]*models.Object
	selected string
}

func NewStore() *Store {
	return &Store{index: make(map[string]*models.Object)}
}

func (s *Store) Len() int {
	return len(s.objects)
}

// Add добавляет объект в конец коллекции.
func (s *Store) Add(o *models.Object) error {
	if o == nil {
		return fmt.Errorf("%w: nil", models.ErrInvalidObject)
	}
	if err := o.Validate(); err != nil {
		return err
	}
	if _, exists := s.index[o.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateID, o.ID)
	}

	obj := o.Clone()
	if obj.Container != nil {
		// новый контейнер начинает пустым: членство выставляет только containment
		obj.Container.Members = []string{}
	}
	s.objects = append(s.objects, obj)
	s.index[obj.ID] = obj
	return nil
}

// Get возвращает копию объекта.
func (s *Store) Get(id string) (*models.Object, bool) {
	o, ok := s.index[id]
	if !ok {
		return nil, false
	}
	return o.Clone(), true
}

func (s *Store) Has(id string) bool {
	_, ok := s.index[id]
	return ok
}

// Objects возвращает копии всех объектов в z-order.
func (s *Store) Objects() []*models.Object {
	out := make([]*models.Object, 0, len(s.objects))
	for _, o := range s.objects {
		out = append(out, o.Clone())
	}
	return out
}

// Containers возвращает копии контейнеров в порядке сцены.
func (s *Store) Containers() []*models.Object {
	var out []*models.Object
	for _, o := range s.objects {
		if o.IsContainer() {
			out = append(out, o.Clone())
		}
	}
	return out
}

// Update вливает патч в объект. Отсутствующий id: тихий no-op:
// асинхронные колбэки могут прийти после удаления объекта.
func (s *Store) Update(id string, p models.Patch) bool {
	o, ok := s.index[id]
	if !ok {
		return false
	}
	p.Apply(o)
	return true
}

// Mutate даёт движкам раскладки и containment изменить объект на месте.
// fn не должен менять ID и Kind.
func (s *Store) Mutate(id string, fn func(o *models.Object)) bool {
	o, ok := s.index[id]
	if !ok {
		return false
	}
	fn(o)
	return true
}

// Delete удаляет объект. Перед удалением id вычищается из всех
// контейнеров; возвращаются id контейнеров, из которых он был убран.
func (s *Store) Delete(id string) ([]string, bool) {
	if _, ok := s.index[id]; !ok {
		return nil, false
	}

	scrubbed := s.ScrubMember(id)

	for i, o := range s.objects {
		if o.ID == id {
			s.objects = append(s.objects[:i], s.objects[i+1:]...)
			break
		}
	}
	delete(s.index, id)

	if s.selected == id {
		s.selected = ""
	}
	return scrubbed, true
}

// ScrubMember убирает id из списков участников всех контейнеров.
func (s *Store) ScrubMember(id string) []string {
	var from []string
	for _, o := range s.objects {
		if o.IsContainer() && o.Container.RemoveMember(id) {
			from = append(from, o.ID)
		}
	}
	return from
}

// ContainerOf возвращает id контейнера, которому принадлежит объект.
func (s *Store) ContainerOf(id string) (string, bool) {
	for _, o := range s.objects {
		if o.IsContainer() && o.Container.HasMember(id) {
			return o.ID, true
		}
	}
	return "", false
}

// ============================================================
// Selection
// ============================================================

// Select выставляет единственный указатель выделения. Несуществующий
// id допустим, но ничего не выделяет. Пустая строка снимает выделение.
func (s *Store) Select(id string) {
	s.selected = id
}

func (s *Store) SelectedID() string {
	return s.selected
}

// ============================================================
// Z-order
// ============================================================

func (s *Store) BringToFront(id string) bool {
	i := s.position(id)
	if i < 0 {
		return false
	}
	o := s.objects[i]
	s.objects = append(s.objects[:i], s.objects[i+1:]...)
	s.objects = append(s.objects, o)
	return true
}

func (s *Store) SendToBack(id string) bool {
	i := s.position(id)
	if i < 0 {
		return false
	}
	o := s.objects[i]
	s.objects = append(s.objects[:i], s.objects[i+1:]...)
	s.objects = append([]*models.Object{o}, s.objects...)
	return true
}

func (s *Store) position(id string) int {
	for i, o := range s.objects {
		if o.ID == id {
			return i
		}
	}
	return -1
}

// ============================================================
// Bulk load
// ============================================================

// Replace заменяет содержимое сцены (загрузка снапшота). Невалидные
// объекты и дубликаты пропускаются, списки участников чистятся от
// висячих ссылок, а повторное членство отдаётся первому контейнеру.
func (s *Store) Replace(objects []*models.Object, selected string) (skipped int) {
	s.objects = nil
	s.index = make(map[string]*models.Object)
	s.selected = ""

	for _, o := range objects {
		if o == nil || o.Validate() != nil {
			skipped++
			continue
		}
		if _, dup := s.index[o.ID]; dup {
			skipped++
			continue
		}
		obj := o.Clone()
		s.objects = append(s.objects, obj)
		s.index[obj.ID] = obj
	}

	owned := make(map[string]bool)
	for _, o := range s.objects {
		if !o.IsContainer() {
			continue
		}
		members := make([]string, 0, len(o.Container.Members))
		for _, m := range o.Container.Members {
			if m == o.ID || owned[m] {
				continue
			}
			if _, ok := s.index[m]; !ok {
				continue
			}
			owned[m] = true
			members = append(members, m)
		}
		o.Container.Members = members
	}

	if _, ok := s.index[selected]; ok {
		s.selected = selected
	}
	return skipped
}
