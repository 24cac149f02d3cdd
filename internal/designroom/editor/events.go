package editor

import (
	"fmt"
	"math"

	"design-room/internal/designroom/geom"
	"design-room/internal/designroom/models"
	"design-room/internal/designroom/tools"
)

// ============================================================
// Input events
// ============================================================

type EventType string

const (
	EventPointerDown EventType = "pointerdown"
	EventPointerMove EventType = "pointermove"
	EventPointerUp   EventType = "pointerup"
	EventDoubleClick EventType = "dblclick"
	EventKeyDown     EventType = "keydown"
	EventWheel       EventType = "wheel"
	EventTextInput   EventType = "input"
	EventBlur        EventType = "blur"
)

// Event: событие указателя/клавиатуры в экранных координатах.
type Event struct {
	Type   EventType `json:"type"`
	X      float64   `json:"x"`
	Y      float64   `json:"y"`
	DeltaX float64   `json:"deltaX"`
	DeltaY float64   `json:"deltaY"`
	Key    string    `json:"key"`
	Text   string    `json:"text"`
	Ctrl   bool      `json:"ctrl"`
	Meta   bool      `json:"meta"`
	Shift  bool      `json:"shift"`
}

func (ev Event) screen() models.Point {
	return models.Point{X: ev.X, Y: ev.Y}
}

// hitSlop: допуск попадания по тонким объектам (линиям) в экранных точках.
const hitSlop = 4

// Dispatch обрабатывает одно событие.
func (e *Editor) Dispatch(ev Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch ev.Type {
	case EventPointerDown:
		e.pointerDown(ev)
	case EventPointerMove:
		e.pointerMove(ev)
	case EventPointerUp:
		e.pointerUp(ev)
	case EventDoubleClick:
		e.doubleClick(ev)
	case EventKeyDown:
		e.keyDown(ev)
	case EventWheel:
		e.wheel(ev)
	case EventTextInput:
		e.tools.SetDraft(ev.Text)
	case EventBlur:
		e.commitTextLocked()
	default:
		return fmt.Errorf("unknown event type %q", ev.Type)
	}
	return nil
}

// DispatchAll обрабатывает пачку событий по порядку.
func (e *Editor) DispatchAll(events []Event) error {
	for i, ev := range events {
		if err := e.Dispatch(ev); err != nil {
			return fmt.Errorf("event %d: %w", i, err)
		}
	}
	return nil
}

func (e *Editor) toScene(ev Event) models.Point {
	return e.viewport.ScreenToScene(ev.screen())
}

// ============================================================
// Pointer
// ============================================================

func (e *Editor) pointerDown(ev Event) {
	// клик мимо поля редактирования = blur
	e.commitTextLocked()

	at := e.toScene(ev)
	switch {
	case e.tools.Active == tools.ToolHand:
		e.tools.BeginPan(ev.screen())
	case e.tools.Active.Draws():
		e.tools.BeginDraw(at)
	case e.tools.Active == tools.ToolSelect:
		hit, ok := e.hitTestLocked(at)
		if !ok {
			e.store.Select("")
			return
		}
		e.store.Select(hit.ID)
		e.tools.BeginMove(hit.ID, hit.Position, models.Point{X: at.X - hit.Position.X, Y: at.Y - hit.Position.Y})
	}
}

func (e *Editor) pointerMove(ev Event) {
	switch e.tools.Phase {
	case tools.PhasePanning:
		s := ev.screen()
		e.viewport.PanByScreen(s.X-e.tools.LastScreen.X, s.Y-e.tools.LastScreen.Y)
		e.tools.LastScreen = s
	case tools.PhaseDrawing:
		e.tools.UpdateDraw(e.toScene(ev))
	case tools.PhaseMoving:
		pos := e.moveDraggedLocked(ev)
		e.hovered = e.containment.Hovered(e.tools.DragID, pos)
	}
}

// pointerUp всегда завершает жест, даже если указатель ушёл за холст.
func (e *Editor) pointerUp(ev Event) {
	switch e.tools.Phase {
	case tools.PhasePanning:
		s := ev.screen()
		e.viewport.PanByScreen(s.X-e.tools.LastScreen.X, s.Y-e.tools.LastScreen.Y)
		e.tools.Finish()
	case tools.PhaseDrawing:
		obj, ok := e.tools.FinishDraw(e.toScene(ev), e.opts.MinShapeSize)
		if !ok {
			return
		}
		if err := e.store.Add(obj); err != nil {
			return
		}
		e.store.Select(obj.ID)
	case tools.PhaseMoving:
		id := e.tools.DragID
		moved := e.tools.Moved(e.moveDraggedLocked(ev))
		e.tools.Finish()
		e.hovered = ""
		// клик без сдвига только выделяет, членство не трогаем
		if moved {
			e.containment.DragEnd(id)
		}
	}
}

// moveDraggedLocked ставит перетаскиваемый объект под указатель.
// Контейнер тянет своих участников за собой.
func (e *Editor) moveDraggedLocked(ev Event) models.Point {
	at := e.toScene(ev)
	pos := models.Point{X: at.X - e.tools.DragOffset.X, Y: at.Y - e.tools.DragOffset.Y}
	id := e.tools.DragID

	if !e.store.Update(id, models.Patch{Position: &pos}) {
		return pos
	}
	if o, ok := e.store.Get(id); ok && o.IsContainer() {
		e.layout.Apply(id)
	}
	return pos
}

func (e *Editor) doubleClick(ev Event) {
	if e.tools.Active != tools.ToolSelect {
		return
	}
	hit, ok := e.hitTestLocked(e.toScene(ev))
	if !ok || hit.Kind != models.KindText {
		return
	}
	e.tools.Finish()
	e.store.Select(hit.ID)
	e.tools.BeginTextEdit(hit.ID, hit.Text.Text)
}

// hitTestLocked ищет самый верхний видимый объект под точкой.
func (e *Editor) hitTestLocked(at models.Point) (*models.Object, bool) {
	slop := hitSlop / e.viewport.Zoom
	objs := e.store.Objects()
	for i := len(objs) - 1; i >= 0; i-- {
		o := objs[i]
		if !o.Visible {
			continue
		}
		r := geom.ObjectRect(o)
		if o.Kind == models.KindShape && o.Shape.Subkind == models.ShapeLine {
			r = r.Inflate(math.Max(slop, o.Shape.StrokeWidth/2))
		}
		if r.Contains(at) {
			return o, true
		}
	}
	return nil, false
}

// ============================================================
// Keyboard & wheel
// ============================================================

func (e *Editor) keyDown(ev Event) {
	if e.tools.IsEditingText() {
		switch ev.Key {
		case "Enter":
			e.commitTextLocked()
		case "Escape":
			e.tools.CancelTextEdit()
		}
		return
	}

	switch ev.Key {
	case "Delete", "Backspace":
		e.deleteSelectedLocked()
	case "Escape":
		e.store.Select("")
	}
}

func (e *Editor) commitTextLocked() {
	id, text, ok := e.tools.CommitTextEdit()
	if !ok {
		return
	}
	e.store.Update(id, models.Patch{Text: &models.TextPatch{Text: &text}})
}

// wheel: Ctrl/Cmd: зум, Shift: горизонтальная панорама, иначе вертикальная.
func (e *Editor) wheel(ev Event) {
	switch {
	case ev.Ctrl || ev.Meta:
		if ev.DeltaY < 0 {
			e.viewport.ZoomBy(e.opts.ZoomStep)
		} else if ev.DeltaY > 0 {
			e.viewport.ZoomBy(1 / e.opts.ZoomStep)
		}
	case ev.Shift:
		e.viewport.PanByScreen(-ev.DeltaY, 0)
	default:
		e.viewport.PanByScreen(0, -ev.DeltaY)
	}
}

// ZoomIn / ZoomOut: кнопки зума.
func (e *Editor) ZoomIn() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.viewport.ZoomBy(e.opts.ZoomStep)
	return e.viewport.Zoom
}

func (e *Editor) ZoomOut() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.viewport.ZoomBy(1 / e.opts.ZoomStep)
	return e.viewport.Zoom
}

// ============================================================
// Drag-and-drop
// ============================================================

// Размер image-asset, если ассет не сообщил свой.
const (
	defaultImageWidth  = 200
	defaultImageHeight = 150
)

type DropResult struct {
	ObjectID  string `json:"objectId"`
	Created   bool   `json:"created"`
	Container string `json:"container,omitempty"`
	// членство объекта изменилось
	Regrouped bool   `json:"regrouped"`
}

// Drop обрабатывает сброс payload в экранной точке. Ассет создаёт новый
// image-asset, canvas-object переносит существующий объект. В обоих
// случаях затем пересчитывается containment.
func (e *Editor) Drop(raw []byte, x, y float64) (DropResult, error) {
	payload, err := models.ParseDropPayload(raw)
	if err != nil {
		return DropResult{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	at := e.viewport.ScreenToScene(models.Point{X: x, Y: y})

	switch payload.Type {
	case models.PayloadAsset:
		size := models.Size{Width: payload.Asset.Width, Height: payload.Asset.Height}
		if size.Width <= 0 || size.Height <= 0 {
			size = models.Size{Width: defaultImageWidth, Height: defaultImageHeight}
		}
		obj := models.NewImage(at, size, payload.Asset)
		if err := e.store.Add(obj); err != nil {
			return DropResult{}, err
		}
		e.store.Select(obj.ID)
		res := e.containment.DragEnd(obj.ID)
		e.requestBitmapLocked(obj.ID)
		return DropResult{ObjectID: obj.ID, Created: true, Container: res.To, Regrouped: res.Changed()}, nil

	case models.PayloadCanvasObject:
		if !e.store.Update(payload.ObjectID, models.Patch{Position: &at}) {
			return DropResult{}, nil
		}
		if o, ok := e.store.Get(payload.ObjectID); ok && o.IsContainer() {
			e.layout.Apply(o.ID)
		}
		res := e.containment.DragEnd(payload.ObjectID)
		return DropResult{ObjectID: payload.ObjectID, Container: res.To, Regrouped: res.Changed()}, nil
	}
	return DropResult{}, models.ErrInvalidPayload
}
