package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"design-room/internal/designroom/editor"
	"design-room/internal/designroom/models"
	"design-room/internal/designroom/repository"
	"design-room/internal/designroom/tools"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Objects
// ============================================================

type createObjectRequest struct {
	Kind     models.Kind      `json:"kind"`
	Shape    models.ShapeKind `json:"shape"`
	Name     string           `json:"name"`
	Position models.Point     `json:"position"`
	Size     models.Size      `json:"size"`
	Vector   models.Point     `json:"vector"`
	Text     string           `json:"text"`
	AssetID  string           `json:"assetId"`
}

func objectNotFound(c fiber.Ctx) error {
	return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "object not found"})
}

// CreateObject создаёт объект заданного вида. Для image-asset запись
// берётся из каталога ассетов.
func (h *SceneHandler) CreateObject(c fiber.Ctx) error {
	ed, err := h.session(c)
	if err != nil {
		return sceneError(c, err)
	}

	var req createObjectRequest
	if err := decodeBody(c.Body(), &req, false); err != nil {
		return badRequest(c, err)
	}

	var obj *models.Object
	switch req.Kind {
	case models.KindShape:
		switch req.Shape {
		case models.ShapeRectangle:
			obj = models.NewRectangle(req.Position, req.Size, h.style)
		case models.ShapeCircle:
			obj = models.NewCircle(req.Position, req.Size, h.style)
		case models.ShapeLine:
			obj = models.NewLine(req.Position, req.Vector, h.style)
		default:
			return badRequest(c, fmt.Errorf("unknown shape %q", req.Shape))
		}
	case models.KindText:
		text := req.Text
		if text == "" {
			text = tools.DefaultText
		}
		obj = models.NewText(req.Position, req.Size, text, h.style)
	case models.KindContainer:
		obj = models.NewContainer(req.Position, req.Size)
	case models.KindImage:
		asset, err := h.repo.GetAsset(c.Context(), req.AssetID)
		if errors.Is(err, repository.ErrNotFound) {
			return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "asset not found"})
		}
		if err != nil {
			return sceneError(c, err)
		}
		if !asset.IsImage() {
			return badRequest(c, fmt.Errorf("asset %s is not an image", asset.ID))
		}
		obj = models.NewImage(req.Position, req.Size, *asset)
	default:
		return badRequest(c, fmt.Errorf("unknown kind %q", req.Kind))
	}
	if req.Name != "" {
		obj.Name = req.Name
	}

	if err := ed.Add(obj); err != nil {
		return badRequest(c, err)
	}
	created, _ := ed.Object(obj.ID)
	return c.Status(http.StatusCreated).JSON(created)
}

func (h *SceneHandler) UpdateObject(c fiber.Ctx) error {
	ed, err := h.session(c)
	if err != nil {
		return sceneError(c, err)
	}

	var patch models.Patch
	if err := decodeBody(c.Body(), &patch, false); err != nil {
		return badRequest(c, err)
	}
	if err := patch.Validate(); err != nil {
		return badRequest(c, err)
	}

	oid := c.Params("oid")
	if !ed.Update(oid, patch) {
		return objectNotFound(c)
	}

	// перемещение через патч завершается так же, как перетаскивание
	resp := fiber.Map{}
	if patch.Position != nil {
		res := ed.DragEnd(oid)
		resp["containment"] = res
	}
	obj, _ := ed.Object(oid)
	resp["object"] = obj
	return c.JSON(resp)
}

func (h *SceneHandler) DeleteObject(c fiber.Ctx) error {
	ed, err := h.session(c)
	if err != nil {
		return sceneError(c, err)
	}
	if !ed.Delete(c.Params("oid")) {
		return objectNotFound(c)
	}
	return c.SendStatus(http.StatusNoContent)
}

type orderRequest struct {
	To string `json:"to"`
}

func (h *SceneHandler) ReorderObject(c fiber.Ctx) error {
	ed, err := h.session(c)
	if err != nil {
		return sceneError(c, err)
	}

	var req orderRequest
	if err := decodeBody(c.Body(), &req, false); err != nil {
		return badRequest(c, err)
	}

	oid := c.Params("oid")
	var ok bool
	switch req.To {
	case "front":
		ok = ed.BringToFront(oid)
	case "back":
		ok = ed.SendToBack(oid)
	default:
		return badRequest(c, fmt.Errorf("to must be front or back"))
	}
	if !ok {
		return objectNotFound(c)
	}
	return c.JSON(fiber.Map{"objects": ed.Objects()})
}

func (h *SceneHandler) Relayout(c fiber.Ctx) error {
	ed, err := h.session(c)
	if err != nil {
		return sceneError(c, err)
	}

	oid := c.Params("oid")
	obj, ok := ed.Object(oid)
	if !ok {
		return objectNotFound(c)
	}
	if !obj.IsContainer() {
		return badRequest(c, fmt.Errorf("object %s is not a container", oid))
	}
	return c.JSON(fiber.Map{"laidOut": ed.Relayout(oid)})
}

// ============================================================
// Session state
// ============================================================

type selectRequest struct {
	ID string `json:"id"`
}

// Select выделяет объект; пустой id снимает выделение.
func (h *SceneHandler) Select(c fiber.Ctx) error {
	ed, err := h.session(c)
	if err != nil {
		return sceneError(c, err)
	}

	var req selectRequest
	if err := decodeBody(c.Body(), &req, true); err != nil {
		return badRequest(c, err)
	}
	if req.ID != "" && !ed.Has(req.ID) {
		return objectNotFound(c)
	}
	ed.Select(req.ID)
	return c.JSON(fiber.Map{"selectedId": req.ID})
}

type toolRequest struct {
	Tool  string        `json:"tool"`
	Style *models.Style `json:"style,omitempty"`
}

func (h *SceneHandler) SetTool(c fiber.Ctx) error {
	ed, err := h.session(c)
	if err != nil {
		return sceneError(c, err)
	}

	var req toolRequest
	if err := decodeBody(c.Body(), &req, false); err != nil {
		return badRequest(c, err)
	}
	tool, err := tools.ParseTool(req.Tool)
	if err != nil {
		return badRequest(c, err)
	}
	if req.Style != nil {
		if err := req.Style.Validate(); err != nil {
			return badRequest(c, err)
		}
	}

	ed.SetTool(tool)
	if req.Style != nil {
		ed.SetStyle(*req.Style)
	}
	return c.JSON(ed.View().Tool)
}

type zoomRequest struct {
	Direction string `json:"direction"`
}

// Zoom: кнопки "+" и "-".
func (h *SceneHandler) Zoom(c fiber.Ctx) error {
	ed, err := h.session(c)
	if err != nil {
		return sceneError(c, err)
	}

	var req zoomRequest
	if err := decodeBody(c.Body(), &req, false); err != nil {
		return badRequest(c, err)
	}

	var zoom float64
	switch req.Direction {
	case "in":
		zoom = ed.ZoomIn()
	case "out":
		zoom = ed.ZoomOut()
	default:
		return badRequest(c, fmt.Errorf("direction must be in or out"))
	}
	return c.JSON(fiber.Map{"zoom": zoom})
}

type eventsRequest struct {
	Events []editor.Event `json:"events"`
}

// Events прогоняет пачку событий указателя и клавиатуры и возвращает
// состояние сессии после них.
func (h *SceneHandler) Events(c fiber.Ctx) error {
	ed, err := h.session(c)
	if err != nil {
		return sceneError(c, err)
	}

	var req eventsRequest
	if err := decodeBody(c.Body(), &req, false); err != nil {
		return badRequest(c, err)
	}
	if err := ed.DispatchAll(req.Events); err != nil {
		return badRequest(c, err)
	}
	return c.JSON(ed.View())
}

type dropRequest struct {
	Payload json.RawMessage `json:"payload"`
	X       float64         `json:"x"`
	Y       float64         `json:"y"`
}

func (h *SceneHandler) Drop(c fiber.Ctx) error {
	ed, err := h.session(c)
	if err != nil {
		return sceneError(c, err)
	}

	var req dropRequest
	if err := decodeBody(c.Body(), &req, false); err != nil {
		return badRequest(c, err)
	}

	res, err := ed.Drop(req.Payload, req.X, req.Y)
	if errors.Is(err, models.ErrInvalidPayload) {
		return badRequest(c, err)
	}
	if err != nil {
		return sceneError(c, err)
	}
	if res.ObjectID == "" {
		return objectNotFound(c)
	}
	return c.JSON(res)
}
