package containment

import (
	"design-room/internal/designroom/geom"
	"design-room/internal/designroom/layout"
	"design-room/internal/designroom/models"
	"design-room/internal/designroom/scene"
)

// ============================================================
// Containment Engine
// ============================================================

// Result: итог пересчёта членства после перетаскивания.
type Result struct {
	From []string `json:"from,omitempty"` // контейнеры, из которых объект был убран
	To   string   `json:"to,omitempty"`   // контейнер, в который он попал ("" если ни в какой)
}

// Changed: поменялось ли членство.
func (r Result) Changed() bool {
	if r.To == "" {
		return len(r.From) > 0
	}
	return len(r.From) != 1 || r.From[0] != r.To
}

type Engine struct {
	store  *scene.Store
	layout *layout.Engine
	header float64
}

func NewEngine(store *scene.Store, layoutEngine *layout.Engine) *Engine {
	return &Engine{
		store:  store,
		layout: layoutEngine,
		header: layoutEngine.Options().HeaderHeight,
	}
}

// DragEnd пересчитывает членство объекта с нуля: сначала id убирается
// из всех контейнеров, затем ищется первый по порядку сцены контейнер,
// в тело которого попадает позиция объекта. Раскладка запускается для
// нового контейнера и для тех, из которых объект ушёл.
func (e *Engine) DragEnd(objectID string) Result {
	obj, ok := e.store.Get(objectID)
	if !ok {
		return Result{}
	}

	res := Result{From: e.store.ScrubMember(objectID)}
	res.To = e.find(obj, obj.Position)

	if res.To != "" {
		e.store.Mutate(res.To, func(c *models.Object) {
			c.Container.Members = append(c.Container.Members, objectID)
		})
	}

	for _, id := range res.From {
		if id != res.To {
			e.layout.Apply(id)
		}
	}
	if res.To != "" {
		e.layout.Apply(res.To)
	}
	return res
}

// Hovered возвращает контейнер под точкой во время перетаскивания
// (подсветка зоны сброса). Членство не меняется.
func (e *Engine) Hovered(objectID string, at models.Point) string {
	obj, ok := e.store.Get(objectID)
	if !ok {
		return ""
	}
	return e.find(obj, at)
}

// find: первое совпадение в порядке сцены. Перекрывающиеся контейнеры
// никак не разрешаются, выигрывает более ранний.
func (e *Engine) find(obj *models.Object, at models.Point) string {
	var excluded map[string]bool
	if obj.IsContainer() {
		excluded = e.descendants(obj.ID)
	}

	for _, c := range e.store.Containers() {
		if c.ID == obj.ID || excluded[c.ID] {
			continue
		}
		if geom.BodyRect(c, e.header).Contains(at) {
			return c.ID
		}
	}
	return ""
}

// descendants собирает всех вложенных участников контейнера, чтобы
// контейнер нельзя было положить внутрь самого себя.
func (e *Engine) descendants(rootID string) map[string]bool {
	out := map[string]bool{}
	queue := []string{rootID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		c, ok := e.store.Get(id)
		if !ok || !c.IsContainer() {
			continue
		}
		for _, m := range c.Container.Members {
			if !out[m] {
				out[m] = true
				queue = append(queue, m)
			}
		}
	}
	return out
}
