package proxy

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Proxy Handler
// ============================================================

// client: общий клиент для апстримов; таймаут покрывает рендер PNG и экспорт.
var client = &http.Client{Timeout: 60 * time.Second}

// forwardedHeaders: заголовки запроса, которые передаются апстриму как есть.
var forwardedHeaders = []string{"Authorization", "Accept", "If-None-Match", "If-Match"}

// hopHeaders не копируются из ответа апстрима.
var hopHeaders = map[string]bool{
	"Connection":        true,
	"Keep-Alive":        true,
	"Transfer-Encoding": true,
	"Content-Length":    true,
	"Upgrade":           true,
}

// ProxyPrefix проксирует запрос в baseURL, отрезав от пути prefix:
// /api/v1/scenes/42/save -> <baseURL>/scenes/42/save. Query сохраняется.
func ProxyPrefix(baseURL, prefix string) fiber.Handler {
	baseURL = strings.TrimRight(baseURL, "/")
	return func(c fiber.Ctx) error {
		return forwardRequest(c, TargetURL(baseURL, strings.TrimPrefix(c.Path(), prefix), string(c.Request().URI().QueryString())))
	}
}

// TargetURL склеивает адрес апстрима, путь и query.
func TargetURL(baseURL, path, query string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	target := strings.TrimRight(baseURL, "/") + path
	if query != "" {
		target += "?" + query
	}
	return target
}

// forwardRequest проксирует любой метод с учетом multipart/raw.
func forwardRequest(c fiber.Ctx, targetURL string) error {
	log.Printf("[PROXY] %s %s -> %s (%s, %d bytes)", c.Method(), c.Path(), targetURL, c.Get("Content-Type"), len(c.Body()))

	contentType := c.Get("Content-Type")
	if !strings.HasPrefix(contentType, "multipart/form-data") {
		return sendRaw(c, targetURL, contentType)
	}

	return sendMultipart(c, targetURL)
}

func sendRaw(c fiber.Ctx, targetURL, contentType string) error {
	var body io.Reader
	if len(c.Body()) > 0 {
		body = bytes.NewReader(c.Body())
	}
	req, err := http.NewRequestWithContext(c.Context(), c.Method(), targetURL, body)
	if err != nil {
		log.Printf("[PROXY] build request error: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "proxy failed"})
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	copyRequestHeaders(c, req)

	return roundTrip(c, req)
}

func sendMultipart(c fiber.Ctx, targetURL string) error {
	form, err := c.MultipartForm()
	if err != nil {
		log.Printf("[PROXY] Failed to parse multipart: %v", err)
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid multipart data"})
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for key, files := range form.File {
		for _, fileHeader := range files {
			if err := copyFilePart(writer, key, fileHeader); err != nil {
				log.Printf("[PROXY] skip file %q: %v", fileHeader.Filename, err)
			}
		}
	}

	for key, values := range form.Value {
		for _, value := range values {
			if err := writer.WriteField(key, value); err != nil {
				log.Printf("[PROXY] skip field %q: %v", key, err)
			}
		}
	}

	if err := writer.Close(); err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "proxy failed"})
	}

	req, err := http.NewRequestWithContext(c.Context(), c.Method(), targetURL, bytes.NewReader(body.Bytes()))
	if err != nil {
		log.Printf("[PROXY] build multipart request error: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "proxy failed"})
	}

	req.Header.Set("Content-Type", writer.FormDataContentType())
	copyRequestHeaders(c, req)

	return roundTrip(c, req)
}

func copyFilePart(writer *multipart.Writer, key string, fileHeader *multipart.FileHeader) error {
	file, err := fileHeader.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, key, fileHeader.Filename))
	if ct := fileHeader.Header.Get("Content-Type"); ct != "" {
		h.Set("Content-Type", ct)
	}

	part, err := writer.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, file)
	return err
}

func copyRequestHeaders(c fiber.Ctx, req *http.Request) {
	for _, key := range forwardedHeaders {
		if v := c.Get(key); v != "" {
			req.Header.Set(key, v)
		}
	}
}

func roundTrip(c fiber.Ctx, req *http.Request) error {
	resp, err := client.Do(req)
	if err != nil {
		log.Printf("[PROXY] Error: %v", err)
		return c.Status(http.StatusBadGateway).JSON(fiber.Map{"error": "failed to reach upstream service"})
	}
	defer resp.Body.Close()

	return copyResponse(c, resp)
}

func copyResponse(c fiber.Ctx, resp *http.Response) error {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("[PROXY] Read response error: %v", err)
		return c.Status(http.StatusBadGateway).JSON(fiber.Map{"error": "invalid upstream response"})
	}

	for key, values := range resp.Header {
		if hopHeaders[key] || len(values) == 0 {
			continue
		}
		c.Set(key, values[0])
	}

	c.Status(resp.StatusCode)
	return c.Send(data)
}
