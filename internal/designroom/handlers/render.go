package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"design-room/internal/designroom/codec"
	"design-room/internal/designroom/editor"
	"design-room/internal/designroom/mapper"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Render & export
// ============================================================

// maxRenderSide ограничивает размер картинки, заказанной через query.
const maxRenderSide = 4096

// renderOptions собирает опции рендера из query: w, h, fit, decorate.
func (h *SceneHandler) renderOptions(c fiber.Ctx) (mapper.Options, error) {
	opts := h.render
	if v := c.Query("w"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > maxRenderSide {
			return opts, fmt.Errorf("invalid width %q", v)
		}
		opts.Width = n
	}
	if v := c.Query("h"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > maxRenderSide {
			return opts, fmt.Errorf("invalid height %q", v)
		}
		opts.Height = n
	}
	if v := c.Query("fit"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, fmt.Errorf("invalid fit %q", v)
		}
		opts.Fit = b
	}
	if v := c.Query("decorate"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, fmt.Errorf("invalid decorate %q", v)
		}
		opts.Decorate = b
	}
	return opts, nil
}

func (h *SceneHandler) RenderSVG(c fiber.Ctx) error {
	ed, err := h.session(c)
	if err != nil {
		return sceneError(c, err)
	}
	opts, err := h.renderOptions(c)
	if err != nil {
		return badRequest(c, err)
	}

	var buf bytes.Buffer
	if err := h.svg.Render(ed.Frame(), opts, &buf); err != nil {
		return sceneError(c, err)
	}
	c.Set("Content-Type", "image/svg+xml")
	return c.Send(buf.Bytes())
}

func (h *SceneHandler) RenderPNG(c fiber.Ctx) error {
	ed, err := h.session(c)
	if err != nil {
		return sceneError(c, err)
	}
	opts, err := h.renderOptions(c)
	if err != nil {
		return badRequest(c, err)
	}

	var buf bytes.Buffer
	if err := h.png.Render(ed.Frame(), opts, &buf); err != nil {
		return sceneError(c, err)
	}
	c.Set("Content-Type", "image/png")
	return c.Send(buf.Bytes())
}

// exportFormats: формат экспорта и его Content-Type.
var exportFormats = map[string]string{
	"svg":   "image/svg+xml",
	"png":   "image/png",
	"json":  "application/json",
	"scene": "application/octet-stream",
}

// Export рендерит сцену целиком (fit, без декораций), кладёт файл
// в хранилище экспортов и отдаёт его как вложение.
func (h *SceneHandler) Export(c fiber.Ctx) error {
	ed, err := h.session(c)
	if err != nil {
		return sceneError(c, err)
	}

	format := strings.ToLower(c.Params("format"))
	contentType, ok := exportFormats[format]
	if !ok {
		return badRequest(c, fmt.Errorf("unsupported format %q", format))
	}

	data, err := h.export(ed, format)
	if err != nil {
		return sceneError(c, err)
	}

	path, err := h.storage.SaveExport(ed.ID(), format, data)
	if err != nil {
		log.Printf("[SCENE] save export error: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to save export"})
	}
	log.Printf("[SCENE] exported %s as %s (%d bytes)", ed.ID(), format, len(data))

	c.Set("Content-Type", contentType)
	c.Attachment(filepath.Base(path))
	return c.Send(data)
}

func (h *SceneHandler) export(ed *editor.Editor, format string) ([]byte, error) {
	opts := h.render
	opts.Fit = true
	opts.Decorate = false

	var buf bytes.Buffer
	switch format {
	case "svg":
		if err := h.svg.Render(ed.Frame(), opts, &buf); err != nil {
			return nil, err
		}
	case "png":
		ed.WaitBitmaps()
		if err := h.png.Render(ed.Frame(), opts, &buf); err != nil {
			return nil, err
		}
	case "json":
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(ed.Document()); err != nil {
			return nil, err
		}
	case "scene":
		data, _, err := codec.Encode(ed.Document())
		if err != nil {
			return nil, err
		}
		return data, nil
	}
	return buf.Bytes(), nil
}

// ============================================================
// Import
// ============================================================

// maxImportSize: предел размера импортируемого SVG.
const maxImportSize = 8 << 20

// Import принимает SVG (multipart поле file или сырое тело) и добавляет
// распознанные элементы в сцену.
func (h *SceneHandler) Import(c fiber.Ctx) error {
	ed, err := h.session(c)
	if err != nil {
		return sceneError(c, err)
	}

	data, err := importBody(c)
	if err != nil {
		return badRequest(c, err)
	}
	log.Printf("[SCENE] import into %s: %d bytes", ed.ID(), len(data))

	res, err := h.importer.Import(bytes.NewReader(data))
	if err != nil {
		log.Printf("[SCENE] import error: %v", err)
		return c.Status(http.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}

	ids := make([]string, 0, len(res.Objects))
	for _, obj := range res.Objects {
		if err := ed.Add(obj); err != nil {
			res.Skipped++
			continue
		}
		ids = append(ids, obj.ID)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"imported": ids,
		"skipped":  res.Skipped,
	})
}

func importBody(c fiber.Ctx) ([]byte, error) {
	if !strings.HasPrefix(c.Get("Content-Type"), "multipart/form-data") {
		if len(c.Body()) == 0 {
			return nil, errEmptyBody
		}
		if len(c.Body()) > maxImportSize {
			return nil, fmt.Errorf("file too large")
		}
		return c.Body(), nil
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("file required in multipart/form-data")
	}
	if ext := strings.ToLower(filepath.Ext(fileHeader.Filename)); ext != ".svg" {
		return nil, fmt.Errorf("only svg allowed")
	}
	if fileHeader.Size > maxImportSize {
		return nil, fmt.Errorf("file too large")
	}

	f, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file")
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxImportSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read file")
	}
	return data, nil
}
