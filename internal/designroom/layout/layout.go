package layout

import (
	"math"

	"design-room/internal/designroom/models"
	"design-room/internal/designroom/scene"
)

// ============================================================
// Auto-Layout Engine
// ============================================================

type Options struct {
	HeaderHeight        float64 `yaml:"header_height"`
	NominalItemWidth    float64 `yaml:"nominal_item_width"`
	ItemAspect          float64 `yaml:"item_aspect"`
	RowMaxItemHeight    float64 `yaml:"row_max_item_height"`
	ColumnMaxItemHeight float64 `yaml:"column_max_item_height"`
}

func DefaultOptions() Options {
	return Options{
		HeaderHeight:        30,
		NominalItemWidth:    200,
		ItemAspect:          0.75,
		RowMaxItemHeight:    200,
		ColumnMaxItemHeight: 150,
	}
}

// Frame: вычисленные позиция и размер одного участника.
type Frame struct {
	ID       string
	Position models.Point
	Size     models.Size
}

// Compute раскладывает участников контейнера по его политике.
// Порядок: порядок id в списке участников. Пустой список: nil.
func Compute(c *models.Object, opts Options) []Frame {
	if c == nil || !c.IsContainer() || len(c.Container.Members) == 0 {
		return nil
	}

	switch c.Container.Direction {
	case models.DirectionColumn:
		return computeColumn(c, opts)
	default:
		return computeRow(c, opts)
	}
}

func computeRow(c *models.Object, opts Options) []Frame {
	data := c.Container
	n := len(data.Members)
	pad := data.Padding
	gap := data.Gap

	availW := c.Size.Width - 2*pad

	perRow := n
	if data.Wrap {
		perRow = ItemsPerRow(availW, opts.NominalItemWidth)
	}

	itemW := floor0((availW - gap*float64(perRow-1)) / float64(perRow))
	itemH := floor0(math.Min(itemW*opts.ItemAspect, opts.RowMaxItemHeight))

	originX := c.Position.X + pad
	originY := c.Position.Y + opts.HeaderHeight + pad

	frames := make([]Frame, 0, n)
	for i, id := range data.Members {
		col := i % perRow
		row := i / perRow
		frames = append(frames, Frame{
			ID: id,
			Position: models.Point{
				X: originX + float64(col)*(itemW+gap),
				Y: originY + float64(row)*(itemH+gap),
			},
			Size: models.Size{Width: itemW, Height: itemH},
		})
	}
	return frames
}

func computeColumn(c *models.Object, opts Options) []Frame {
	data := c.Container
	n := len(data.Members)
	pad := data.Padding
	gap := data.Gap

	availW := floor0(c.Size.Width - 2*pad)
	availH := c.Size.Height - 2*pad - opts.HeaderHeight

	itemH := floor0(math.Min((availH-gap*float64(n-1))/float64(n), opts.ColumnMaxItemHeight))

	originX := c.Position.X + pad
	originY := c.Position.Y + opts.HeaderHeight + pad

	frames := make([]Frame, 0, n)
	for i, id := range data.Members {
		frames = append(frames, Frame{
			ID:       id,
			Position: models.Point{X: originX, Y: originY + float64(i)*(itemH+gap)},
			Size:     models.Size{Width: availW, Height: itemH},
		})
	}
	return frames
}

// ItemsPerRow = floor(availableWidth / nominalItemWidth), минимум 1.
func ItemsPerRow(availableWidth, nominalItemWidth float64) int {
	if nominalItemWidth <= 0 {
		return 1
	}
	n := int(math.Floor(availableWidth / nominalItemWidth))
	if n < 1 {
		return 1
	}
	return n
}

func floor0(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	return v
}

// ============================================================
// Applying frames to a scene
// ============================================================

type Engine struct {
	store *scene.Store
	opts  Options
}

func NewEngine(store *scene.Store, opts Options) *Engine {
	return &Engine{store: store, opts: opts}
}

func (e *Engine) Options() Options {
	return e.opts
}

// Apply пересчитывает раскладку контейнера и записывает позиции и
// размеры участников. Участники-контейнеры раскладываются рекурсивно.
// Возвращает число обновлённых объектов.
func (e *Engine) Apply(containerID string) int {
	return e.apply(containerID, map[string]bool{})
}

func (e *Engine) apply(containerID string, visited map[string]bool) int {
	if visited[containerID] {
		return 0
	}
	visited[containerID] = true

	c, ok := e.store.Get(containerID)
	if !ok || !c.IsContainer() {
		return 0
	}

	updated := 0
	for _, f := range Compute(c, e.opts) {
		frame := f
		var nested bool
		applied := e.store.Mutate(frame.ID, func(o *models.Object) {
			moveTo(o, frame)
			nested = o.IsContainer()
		})
		if !applied {
			continue
		}
		updated++
		if nested {
			updated += e.apply(frame.ID, visited)
		}
	}
	return updated
}

// moveTo ставит объект в рамку. Линия вписывается диагональю с
// сохранением знаков вектора.
func moveTo(o *models.Object, f Frame) {
	o.Position = f.Position
	o.Size = f.Size
	if o.Kind == models.KindShape && o.Shape != nil && o.Shape.Subkind == models.ShapeLine {
		vx, vy := f.Size.Width, f.Size.Height
		if o.Shape.Vector.X < 0 {
			vx = -vx
			o.Position.X += f.Size.Width
		}
		if o.Shape.Vector.Y < 0 {
			vy = -vy
			o.Position.Y += f.Size.Height
		}
		o.Shape.Vector = models.Point{X: vx, Y: vy}
	}
}
