package editor

import (
	"context"
	"image"
	"log"
	"sync"

	"design-room/internal/designroom/bitmap"
	"design-room/internal/designroom/codec"
	"design-room/internal/designroom/containment"
	"design-room/internal/designroom/geom"
	"design-room/internal/designroom/layout"
	"design-room/internal/designroom/models"
	"design-room/internal/designroom/scene"
	"design-room/internal/designroom/tools"
)

// ============================================================
// Editor
// ============================================================

type Options struct {
	MinZoom      float64
	MaxZoom      float64
	ZoomStep     float64
	MinShapeSize float64
	Layout       layout.Options
	Style        models.Style
}

func DefaultOptions() Options {
	return Options{
		MinZoom:      0.1,
		MaxZoom:      8,
		ZoomStep:     1.1,
		MinShapeSize: 5,
		Layout:       layout.DefaultOptions(),
		Style:        models.DefaultStyle(),
	}
}

// BitmapLoader: источник картинок для image-asset объектов.
// done не должен вызываться синхронно из Load.
type BitmapLoader interface {
	Load(ctx context.Context, req bitmap.Request, done func(bitmap.Result))
	Preload(ctx context.Context, reqs []bitmap.Request, done func(bitmap.Result)) error
}

type BitmapStatus string

const (
	BitmapPending BitmapStatus = "pending"
	BitmapLoaded  BitmapStatus = "loaded"
	BitmapFailed  BitmapStatus = "failed"
)

// Editor: одна сессия редактирования сцены. Хранилище объектов,
// инструменты, вьюпорт и движки containment/раскладки живут под одним
// мьютексом: цепочка drag end -> containment -> раскладка выполняется
// как один шаг.
type Editor struct {
	mu sync.Mutex

	id   string
	name string
	opts Options

	store       *scene.Store
	tools       *tools.State
	viewport    geom.Viewport
	layout      *layout.Engine
	containment *containment.Engine

	hovered string

	loader   BitmapLoader
	bitmaps  map[string]image.Image
	statuses map[string]BitmapStatus
	loads    sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
}

func New(id, name string, opts Options, loader BitmapLoader) *Editor {
	store := scene.NewStore()
	layoutEngine := layout.NewEngine(store, opts.Layout)
	ctx, cancel := context.WithCancel(context.Background())

	return &Editor{
		id:          id,
		name:        name,
		opts:        opts,
		store:       store,
		tools:       tools.NewState(opts.Style),
		viewport:    geom.NewViewport(opts.MinZoom, opts.MaxZoom),
		layout:      layoutEngine,
		containment: containment.NewEngine(store, layoutEngine),
		loader:      loader,
		bitmaps:     make(map[string]image.Image),
		statuses:    make(map[string]BitmapStatus),
		ctx:         ctx,
		cancel:      cancel,
	}
}

func (e *Editor) ID() string {
	return e.id
}

func (e *Editor) Name() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.name
}

func (e *Editor) Rename(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.name = name
}

// Close отменяет незавершённые загрузки картинок.
func (e *Editor) Close() {
	e.cancel()
}

// ============================================================
// Store operations
// ============================================================

// Add добавляет объект в сцену. Для image-asset запускается загрузка картинки.
func (e *Editor) Add(o *models.Object) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.store.Add(o); err != nil {
		return err
	}
	e.requestBitmapLocked(o.ID)
	return nil
}

// Update вливает патч. Правка политики, размера или позиции контейнера
// перезапускает его раскладку. Отсутствующий id: no-op.
func (e *Editor) Update(id string, p models.Patch) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	before, ok := e.store.Get(id)
	if !ok {
		return false
	}
	e.store.Update(id, p)

	if before.IsContainer() && (p.Container.TouchesLayout() || p.Size != nil || p.Position != nil) {
		e.layout.Apply(id)
	}
	if before.Kind == models.KindImage && p.Image != nil && p.Image.Src != nil && *p.Image.Src != before.Image.Src {
		e.requestBitmapLocked(id)
	}
	return true
}

// Delete удаляет объект, убирает его из контейнера и перераскладывает
// этот контейнер. Участники удалённого контейнера остаются в сцене.
func (e *Editor) Delete(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.deleteLocked(id)
}

func (e *Editor) deleteLocked(id string) bool {
	from, ok := e.store.Delete(id)
	if !ok {
		return false
	}
	for _, c := range from {
		e.layout.Apply(c)
	}
	delete(e.bitmaps, id)
	delete(e.statuses, id)
	if e.tools.EditingTextID == id {
		e.tools.CancelTextEdit()
	}
	if e.tools.DragID == id {
		e.tools.Finish()
	}
	if e.hovered == id {
		e.hovered = ""
	}
	return true
}

// DeleteSelected удаляет выделенный объект. Пока редактируется текст,
// удаление подавлено.
func (e *Editor) DeleteSelected() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.deleteSelectedLocked()
}

func (e *Editor) deleteSelectedLocked() bool {
	if e.tools.IsEditingText() {
		return false
	}
	id := e.store.SelectedID()
	if id == "" {
		return false
	}
	return e.deleteLocked(id)
}

func (e *Editor) Select(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.store.Select(id)
}

func (e *Editor) BringToFront(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.BringToFront(id)
}

func (e *Editor) SendToBack(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.SendToBack(id)
}

// Relayout явно пересчитывает раскладку контейнера.
func (e *Editor) Relayout(id string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.layout.Apply(id)
}

// DragEnd прогоняет containment для объекта, уже перемещённого через Update.
func (e *Editor) DragEnd(id string) containment.Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.containment.DragEnd(id)
}

func (e *Editor) Has(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Has(id)
}

func (e *Editor) Object(id string) (*models.Object, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Get(id)
}

func (e *Editor) Objects() []*models.Object {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Objects()
}

// ============================================================
// Tool state
// ============================================================

func (e *Editor) SetTool(t tools.Tool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tools.SetTool(t)
	e.hovered = ""
}

// SetStyle меняет стиль новых объектов. Недопустимые цвета и шрифт
// остаются прежними.
func (e *Editor) SetStyle(style models.Style) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tools.Style = style.Sanitized(e.tools.Style)
}

func (e *Editor) Viewport() geom.Viewport {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.viewport
}

func (e *Editor) SetViewport(zoom float64, pan models.Point) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.viewport.SetZoom(zoom)
	e.viewport.Pan = pan
}

// ============================================================
// Views & snapshots
// ============================================================

// View: полное состояние сессии для клиента.
type View struct {
	ID               string                  `json:"id"`
	Name             string                  `json:"name"`
	Objects          []*models.Object        `json:"objects"`
	SelectedID       string                  `json:"selectedId"`
	Viewport         geom.Viewport           `json:"viewport"`
	Tool             tools.State             `json:"tool"`
	HoveredContainer string                  `json:"hoveredContainer,omitempty"`
	Bitmaps          map[string]BitmapStatus `json:"bitmaps"`
}

func (e *Editor) View() View {
	e.mu.Lock()
	defer e.mu.Unlock()

	statuses := make(map[string]BitmapStatus, len(e.statuses))
	for k, v := range e.statuses {
		statuses[k] = v
	}
	return View{
		ID:               e.id,
		Name:             e.name,
		Objects:          e.store.Objects(),
		SelectedID:       e.store.SelectedID(),
		Viewport:         e.viewport,
		Tool:             *e.tools,
		HoveredContainer: e.hovered,
		Bitmaps:          statuses,
	}
}

// Frame: всё, что нужно рендеру за один проход.
type Frame struct {
	Objects          []*models.Object
	SelectedID       string
	HoveredContainer string
	EditingTextID    string
	Draft            string
	Viewport         geom.Viewport
	HeaderHeight     float64
	Bitmaps          map[string]image.Image
}

func (e *Editor) Frame() Frame {
	e.mu.Lock()
	defer e.mu.Unlock()

	bitmaps := make(map[string]image.Image, len(e.bitmaps))
	for k, v := range e.bitmaps {
		bitmaps[k] = v
	}
	return Frame{
		Objects:          e.store.Objects(),
		SelectedID:       e.store.SelectedID(),
		HoveredContainer: e.hovered,
		EditingTextID:    e.tools.EditingTextID,
		Draft:            e.tools.Draft,
		Viewport:         e.viewport,
		HeaderHeight:     e.opts.Layout.HeaderHeight,
		Bitmaps:          bitmaps,
	}
}

// Document собирает сериализуемую сцену.
func (e *Editor) Document() *codec.Document {
	e.mu.Lock()
	defer e.mu.Unlock()
	return &codec.Document{
		Version:    codec.FormatVersion,
		ID:         e.id,
		Name:       e.name,
		Objects:    e.store.Objects(),
		SelectedID: e.store.SelectedID(),
		Viewport:   e.viewport,
	}
}

// LoadDocument заменяет содержимое сессии и запускает загрузку всех картинок.
func (e *Editor) LoadDocument(doc *codec.Document) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	skipped := e.store.Replace(doc.Objects, doc.SelectedID)
	if doc.Name != "" {
		e.name = doc.Name
	}
	e.viewport = geom.NewViewport(e.opts.MinZoom, e.opts.MaxZoom)
	if doc.Viewport.Zoom > 0 {
		e.viewport.SetZoom(doc.Viewport.Zoom)
	}
	e.viewport.Pan = doc.Viewport.Pan
	e.tools.SetTool(e.tools.Active)
	e.tools.CancelTextEdit()
	e.hovered = ""
	e.bitmaps = make(map[string]image.Image)
	e.statuses = make(map[string]BitmapStatus)

	var reqs []bitmap.Request
	for _, o := range e.store.Objects() {
		if o.Kind == models.KindImage && o.Image.Src != "" {
			e.statuses[o.ID] = BitmapPending
			reqs = append(reqs, bitmap.Request{ObjectID: o.ID, URL: o.Image.Src})
		}
	}
	if len(reqs) > 0 && e.loader != nil {
		e.loads.Add(1)
		go func() {
			defer e.loads.Done()
			if err := e.loader.Preload(e.ctx, reqs, e.resolveBitmap); err != nil {
				log.Printf("[EDITOR] scene %s: preload interrupted: %v", e.id, err)
			}
		}()
	}
	if skipped > 0 {
		log.Printf("[EDITOR] scene %s: skipped %d invalid objects on load", e.id, skipped)
	}
	return skipped
}

// ============================================================
// Bitmaps
// ============================================================

// Bitmap возвращает загруженную картинку объекта.
func (e *Editor) Bitmap(id string) (image.Image, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	img, ok := e.bitmaps[id]
	return img, ok
}

// WaitBitmaps ждёт завершения всех запущенных загрузок.
func (e *Editor) WaitBitmaps() {
	e.loads.Wait()
}

func (e *Editor) requestBitmapLocked(id string) {
	o, ok := e.store.Get(id)
	if !ok || o.Kind != models.KindImage || o.Image.Src == "" || e.loader == nil {
		return
	}
	delete(e.bitmaps, id)
	e.statuses[id] = BitmapPending

	e.loads.Add(1)
	e.loader.Load(e.ctx, bitmap.Request{ObjectID: id, URL: o.Image.Src}, func(r bitmap.Result) {
		defer e.loads.Done()
		e.resolveBitmap(r)
	})
}

// resolveBitmap кладёт результат в таблицу. Если объект успели удалить
// или сменить ему источник, результат выбрасывается.
func (e *Editor) resolveBitmap(r bitmap.Result) {
	e.mu.Lock()
	defer e.mu.Unlock()

	o, ok := e.store.Get(r.ObjectID)
	if !ok || o.Kind != models.KindImage || o.Image.Src != r.URL {
		return
	}
	if r.Err != nil || r.Image == nil {
		e.statuses[r.ObjectID] = BitmapFailed
		return
	}
	e.bitmaps[r.ObjectID] = r.Image
	e.statuses[r.ObjectID] = BitmapLoaded
}
