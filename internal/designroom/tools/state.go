package tools

import (
	"fmt"
	"math"

	"design-room/internal/designroom/geom"
	"design-room/internal/designroom/models"
)

// ============================================================
// Tools
// ============================================================

type Tool string

const (
	ToolSelect    Tool = "select"
	ToolHand      Tool = "hand"
	ToolRectangle Tool = "rectangle"
	ToolCircle    Tool = "circle"
	ToolLine      Tool = "line"
	ToolText      Tool = "text"
	ToolFrame     Tool = "frame"
)

// ParseTool проверяет имя инструмента.
func ParseTool(name string) (Tool, error) {
	switch t := Tool(name); t {
	case ToolSelect, ToolHand, ToolRectangle, ToolCircle, ToolLine, ToolText, ToolFrame:
		return t, nil
	}
	return "", fmt.Errorf("unknown tool %q", name)
}

// Draws: создаёт ли инструмент объекты жестом.
func (t Tool) Draws() bool {
	switch t {
	case ToolRectangle, ToolCircle, ToolLine, ToolText, ToolFrame:
		return true
	}
	return false
}

type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseDrawing Phase = "drawing"
	PhasePanning Phase = "panning"
	PhaseMoving  Phase = "moving"
)

const (
	DefaultTextWidth  = 200
	DefaultTextHeight = 40
	DefaultText       = "Text"
)

// ============================================================
// Tool State
// ============================================================

// State: состояние инструментов одной сессии.
type State struct {
	Active Tool         `json:"activeTool"`
	Phase  Phase        `json:"phase"`
	Start  models.Point `json:"startPoint"`
	End    models.Point `json:"endPoint"`
	Style  models.Style `json:"style"`

	// перетаскивание объекта инструментом select
	DragID     string       `json:"dragId,omitempty"`
	DragOffset models.Point `json:"-"`
	// позиция объекта в момент захвата
	DragOrigin models.Point `json:"-"`
	// последняя экранная точка для инструмента hand
	LastScreen models.Point `json:"-"`

	EditingTextID string `json:"editingTextId,omitempty"`
	Draft         string `json:"draft,omitempty"`
}

func NewState(style models.Style) *State {
	return &State{Active: ToolSelect, Phase: PhaseIdle, Style: style}
}

// IsDrawing: идёт ли жест рисования.
func (s *State) IsDrawing() bool {
	return s.Phase == PhaseDrawing
}

// SetTool переключает инструмент. Незавершённый жест сбрасывается.
func (s *State) SetTool(t Tool) {
	s.Active = t
	s.reset()
}

func (s *State) reset() {
	s.Phase = PhaseIdle
	s.Start = models.Point{}
	s.End = models.Point{}
	s.DragID = ""
	s.DragOffset = models.Point{}
	s.DragOrigin = models.Point{}
}

// ============================================================
// Gesture machine
// ============================================================

// BeginDraw: idle -> drawing. Только для рисующих инструментов.
func (s *State) BeginDraw(at models.Point) bool {
	if !s.Active.Draws() || s.Phase != PhaseIdle {
		return false
	}
	s.Phase = PhaseDrawing
	s.Start = at
	s.End = at
	return true
}

func (s *State) UpdateDraw(at models.Point) {
	if s.Phase == PhaseDrawing {
		s.End = at
	}
}

// FinishDraw: drawing -> idle. Возвращает новый объект, если жест
// превысил порог минимального размера; иначе жест отбрасывается.
func (s *State) FinishDraw(at models.Point, minSize float64) (*models.Object, bool) {
	if s.Phase != PhaseDrawing {
		return nil, false
	}
	s.End = at
	start, end := s.Start, s.End
	s.reset()

	r := geom.RectFromPoints(start, end)
	pos := models.Point{X: r.X, Y: r.Y}
	size := models.Size{Width: r.W, Height: r.H}
	tooSmall := r.W < minSize || r.H < minSize

	switch s.Active {
	case ToolRectangle:
		if tooSmall {
			return nil, false
		}
		return models.NewRectangle(pos, size, s.Style), true
	case ToolCircle:
		if tooSmall {
			return nil, false
		}
		return models.NewCircle(pos, size, s.Style), true
	case ToolFrame:
		if tooSmall {
			return nil, false
		}
		return models.NewContainer(pos, size), true
	case ToolLine:
		vec := models.Point{X: end.X - start.X, Y: end.Y - start.Y}
		if math.Hypot(vec.X, vec.Y) < minSize {
			return nil, false
		}
		return models.NewLine(start, vec, s.Style), true
	case ToolText:
		if tooSmall {
			return models.NewText(start, models.Size{Width: DefaultTextWidth, Height: DefaultTextHeight}, DefaultText, s.Style), true
		}
		return models.NewText(pos, size, DefaultText, s.Style), true
	}
	return nil, false
}

// BeginMove начинает перетаскивание объекта из позиции origin,
// offset: точка захвата относительно позиции объекта.
func (s *State) BeginMove(id string, origin, offset models.Point) {
	s.Phase = PhaseMoving
	s.DragID = id
	s.DragOrigin = origin
	s.DragOffset = offset
}

// moveEpsilon: сдвиг меньше этого считается кликом на месте
// (погрешность пересчёта экран -> сцена).
const moveEpsilon = 1e-6

// Moved: сдвинулся ли объект с момента захвата.
func (s *State) Moved(pos models.Point) bool {
	if s.Phase != PhaseMoving {
		return false
	}
	return math.Abs(pos.X-s.DragOrigin.X) > moveEpsilon || math.Abs(pos.Y-s.DragOrigin.Y) > moveEpsilon
}

// BeginPan начинает панораму инструментом hand.
func (s *State) BeginPan(screen models.Point) {
	s.Phase = PhasePanning
	s.LastScreen = screen
}

// Finish сбрасывает любой жест в idle.
func (s *State) Finish() {
	s.reset()
}

// ============================================================
// Text editing sub-state
// ============================================================

func (s *State) IsEditingText() bool {
	return s.EditingTextID != ""
}

// BeginTextEdit входит в режим редактирования; draft: текущий текст.
func (s *State) BeginTextEdit(id, current string) {
	s.EditingTextID = id
	s.Draft = current
}

func (s *State) SetDraft(text string) {
	if s.IsEditingText() {
		s.Draft = text
	}
}

// CommitTextEdit выходит из редактирования и отдаёт текст для записи.
func (s *State) CommitTextEdit() (id, text string, ok bool) {
	if !s.IsEditingText() {
		return "", "", false
	}
	id, text = s.EditingTextID, s.Draft
	s.EditingTextID, s.Draft = "", ""
	return id, text, true
}

// CancelTextEdit выходит из редактирования, черновик теряется.
func (s *State) CancelTextEdit() bool {
	if !s.IsEditingText() {
		return false
	}
	s.EditingTextID, s.Draft = "", ""
	return true
}
