package handlers

import (
	"fmt"
	"log"
	"mime"
	"net/http"
	"path"
	"strings"

	"design-room/internal/designroom/models"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

// ============================================================
// Asset catalog
// ============================================================

func (h *SceneHandler) ListAssets(c fiber.Ctx) error {
	assets, err := h.repo.ListAssets(c.Context())
	if err != nil {
		log.Printf("[ASSETS] list error: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	return c.JSON(fiber.Map{"assets": assets})
}

// CreateAsset регистрирует ассет. Без mime_type тип угадывается по
// расширению file_url.
func (h *SceneHandler) CreateAsset(c fiber.Ctx) error {
	var a models.Asset
	if err := decodeBody(c.Body(), &a, false); err != nil {
		return badRequest(c, err)
	}

	a.FileURL = strings.TrimSpace(a.FileURL)
	if a.FileURL == "" {
		return badRequest(c, fmt.Errorf("file_url required"))
	}
	if a.MimeType == "" {
		a.MimeType = mime.TypeByExtension(strings.ToLower(path.Ext(stripQuery(a.FileURL))))
	}
	if a.Width < 0 || a.Height < 0 {
		return badRequest(c, fmt.Errorf("negative asset size"))
	}
	if a.Title == "" {
		a.Title = path.Base(stripQuery(a.FileURL))
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}

	if err := h.repo.CreateAsset(c.Context(), a); err != nil {
		log.Printf("[ASSETS] create error: %v", err)
		return c.Status(http.StatusConflict).JSON(fiber.Map{"error": "failed to create asset"})
	}
	log.Printf("[ASSETS] registered %s (%s)", a.ID, a.MimeType)
	return c.Status(http.StatusCreated).JSON(a)
}

func stripQuery(url string) string {
	if i := strings.IndexAny(url, "?#"); i >= 0 {
		return url[:i]
	}
	return url
}
