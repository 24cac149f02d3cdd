package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"design-room/internal/common/middleware"
	"design-room/internal/designroom/editor"
	"design-room/internal/designroom/mapper"
	"design-room/internal/designroom/models"
	"design-room/internal/designroom/repository"
	"design-room/internal/designroom/service"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Scene Handler
// ============================================================

type SceneHandler struct {
	scenes   *service.Scenes
	repo     *repository.Repository
	storage  *service.FileStorage
	svg      *mapper.SVGRenderer
	png      *mapper.PNGRenderer
	importer *mapper.Importer
	render   mapper.Options
	style    models.Style
}

func NewSceneHandler(
	scenes *service.Scenes,
	repo *repository.Repository,
	storage *service.FileStorage,
	png *mapper.PNGRenderer,
	render mapper.Options,
	style models.Style,
) *SceneHandler {
	return &SceneHandler{
		scenes:   scenes,
		repo:     repo,
		storage:  storage,
		svg:      mapper.NewSVGRenderer(),
		png:      png,
		importer: mapper.NewImporter(style),
		render:   render,
		style:    style,
	}
}

// Register вешает маршруты design-room на роутер.
func (h *SceneHandler) Register(r fiber.Router) {
	r.Post("/scenes", h.CreateScene)
	r.Get("/scenes", h.ListScenes)
	r.Get("/scenes/:id", h.GetScene)
	r.Patch("/scenes/:id", h.UpdateScene)
	r.Post("/scenes/:id/open", h.OpenScene)
	r.Post("/scenes/:id/save", h.SaveScene)
	r.Delete("/scenes/:id/session", h.CloseScene)

	r.Post("/scenes/:id/objects", h.CreateObject)
	r.Patch("/scenes/:id/objects/:oid", h.UpdateObject)
	r.Delete("/scenes/:id/objects/:oid", h.DeleteObject)
	r.Post("/scenes/:id/objects/:oid/order", h.ReorderObject)
	r.Post("/scenes/:id/select", h.Select)
	r.Post("/scenes/:id/tool", h.SetTool)
	r.Post("/scenes/:id/zoom", h.Zoom)
	r.Post("/scenes/:id/events", h.Events)
	r.Post("/scenes/:id/drop", h.Drop)
	r.Post("/scenes/:id/layout/:oid", h.Relayout)

	r.Get("/scenes/:id/render.svg", h.RenderSVG)
	r.Get("/scenes/:id/render.png", h.RenderPNG)
	r.Get("/scenes/:id/export/:format", h.Export)
	r.Post("/scenes/:id/import", h.Import)

	r.Get("/assets", h.ListAssets)
	r.Post("/assets", h.CreateAsset)
}

// session открывает (или находит) сессию сцены из пути запроса.
func (h *SceneHandler) session(c fiber.Ctx) (*editor.Editor, error) {
	id := c.Params("id")
	c.Locals(middleware.SceneLocal, id)
	return h.scenes.Open(c.Context(), id)
}

// sceneError переводит ошибки сервиса в HTTP-ответ.
func sceneError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, service.ErrSessionNotFound):
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "scene not found"})
	}
	log.Printf("[SCENE] %s %s: %v", c.Method(), c.Path(), err)
	return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
}

var (
	errEmptyBody   = errors.New("empty body")
	errInvalidJSON = errors.New("invalid json")
)

// decodeBody читает JSON-тело. Пустое тело допустимо, если allowEmpty.
func decodeBody(body []byte, dst any, allowEmpty bool) error {
	if len(body) == 0 {
		if allowEmpty {
			return nil
		}
		return errEmptyBody
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return errInvalidJSON
	}
	return nil
}

func badRequest(c fiber.Ctx, err error) error {
	return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
}

// ============================================================
// Scene lifecycle
// ============================================================

type createSceneRequest struct {
	Name string `json:"name"`
}

func (h *SceneHandler) CreateScene(c fiber.Ctx) error {
	var req createSceneRequest
	if err := decodeBody(c.Body(), &req, true); err != nil {
		return badRequest(c, err)
	}

	ed, err := h.scenes.Create(c.Context(), req.Name)
	if err != nil {
		return sceneError(c, err)
	}
	c.Locals(middleware.SceneLocal, ed.ID())
	return c.Status(http.StatusCreated).JSON(ed.View())
}

func (h *SceneHandler) ListScenes(c fiber.Ctx) error {
	scenes, err := h.repo.ListScenes(c.Context())
	if err != nil {
		return sceneError(c, err)
	}
	return c.JSON(fiber.Map{
		"scenes": scenes,
		"open":   h.scenes.OpenIDs(),
	})
}

func (h *SceneHandler) GetScene(c fiber.Ctx) error {
	ed, err := h.session(c)
	if err != nil {
		return sceneError(c, err)
	}
	return c.JSON(ed.View())
}

type updateSceneRequest struct {
	Name     *string `json:"name,omitempty"`
	Viewport *struct {
		Zoom float64      `json:"zoom"`
		Pan  models.Point `json:"pan"`
	} `json:"viewport,omitempty"`
}

// UpdateScene переименовывает сцену и/или выставляет вьюпорт.
func (h *SceneHandler) UpdateScene(c fiber.Ctx) error {
	ed, err := h.session(c)
	if err != nil {
		return sceneError(c, err)
	}

	var req updateSceneRequest
	if err := decodeBody(c.Body(), &req, false); err != nil {
		return badRequest(c, err)
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return badRequest(c, errors.New("name must not be empty"))
		}
		ed.Rename(name)
	}
	if req.Viewport != nil {
		if req.Viewport.Zoom <= 0 {
			return badRequest(c, errors.New("zoom must be positive"))
		}
		ed.SetViewport(req.Viewport.Zoom, req.Viewport.Pan)
	}
	return c.JSON(ed.View())
}

// OpenScene поднимает сессию из хранилища (или возвращает уже открытую).
func (h *SceneHandler) OpenScene(c fiber.Ctx) error {
	return h.GetScene(c)
}

func (h *SceneHandler) SaveScene(c fiber.Ctx) error {
	id := c.Params("id")
	c.Locals(middleware.SceneLocal, id)

	res, err := h.scenes.Save(c.Context(), id)
	if err != nil {
		return sceneError(c, err)
	}
	c.Set("ETag", `"`+res.Revision+`"`)
	return c.JSON(res)
}

func (h *SceneHandler) CloseScene(c fiber.Ctx) error {
	id := c.Params("id")
	c.Locals(middleware.SceneLocal, id)

	res, err := h.scenes.Close(c.Context(), id)
	if err != nil {
		return sceneError(c, err)
	}
	c.Set("ETag", `"`+res.Revision+`"`)
	return c.JSON(res)
}
